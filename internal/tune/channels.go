package tune

import (
	"fmt"
	"strconv"

	"github.com/sirupsen/logrus"
	"github.com/virtnic/qtune/pkg/netutil"
)

const componentMultiQueue = "multiqueue"

// enableMultiQueue raises every virtio-net interface to its maximum supported
// combined channel count.
func (t *Tuner) enableMultiQueue() []Outcome {
	if t.et == nil {
		logrus.Info("ethtool not found, skipping multiqueue")
		return []Outcome{{Component: componentMultiQueue, Item: "ethtool", Action: ActionSkip, Detail: "tool not found"}}
	}

	devs, err := netutil.VirtioNetDevices(t.fs)
	if err != nil {
		logrus.WithError(err).Info("No virtio-net devices")
		return []Outcome{{Component: componentMultiQueue, Item: "virtio_net", Action: ActionSkip, Detail: err.Error()}}
	}

	var outcomes []Outcome
	for _, dev := range devs {
		for _, iface := range dev.Ifaces {
			outcomes = append(outcomes, t.enableIfaceMultiQueue(dev.Name, iface))
		}
	}
	return outcomes
}

func (t *Tuner) enableIfaceMultiQueue(dev, iface string) Outcome {
	l := logrus.WithFields(logrus.Fields{"dev": dev, "iface": iface})
	o := Outcome{Component: componentMultiQueue, Item: iface}

	maxCombined, err := t.et.MaxCombined(iface)
	if err != nil {
		l.WithError(err).Info("Interface does not support multiqueue")
		o.Action, o.Detail = ActionSkip, "no multiqueue support"
		return o
	}
	if maxCombined == "1" {
		// A single channel pair, nothing to raise.
		o.Action, o.Detail = ActionSkip, "single channel"
		return o
	}
	count, err := strconv.Atoi(maxCombined)
	if err != nil {
		l.WithField("combined", maxCombined).Info("Could not determine number of channels, skipping")
		o.Action, o.Detail = ActionSkip, fmt.Sprintf("invalid channel count %q", maxCombined)
		return o
	}
	if count <= 1 {
		o.Action, o.Detail = ActionSkip, "single channel"
		return o
	}

	if err := t.et.SetCombined(iface, count); err != nil {
		l.WithError(err).WithField("combined", count).Info("Failed to set channels")
		o.Action, o.Detail = ActionFail, fmt.Sprintf("combined=%d: %s", count, err)
		return o
	}
	l.WithField("combined", count).Info("Set combined channels")

	if tx, err := netutil.GetTxQueues(t.fs, iface); err == nil {
		l.WithField("tx_queues", len(tx)).Debug("Transmit queues after channel update")
	}

	o.Action, o.Detail = ActionSet, fmt.Sprintf("combined=%d", count)
	return o
}
