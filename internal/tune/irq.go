package tune

import (
	"fmt"
	"path"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/virtnic/qtune/pkg/netutil"
)

const (
	componentIRQ = "irq-affinity"

	irqRootPath      = "/proc/irq"
	affinityListFile = "smp_affinity_list"
	affinityHintFile = "affinity_hint"

	// All legacy INTx interrupts of a virtio-net device go to CPU 0.
	legacyAffinity = "01"

	// Interrupt vector directories of notify-block virtual NICs carry this
	// marker in their name.
	notifyBlockMarker = "ntfy"
)

type irqClass int

const (
	classUnrelated irqClass = iota
	classLegacy
	classMsixQueue
)

type msixVector struct {
	direction string // "input" or "output"
	queue     int
}

// classifyIRQ decides how one /proc/irq/<n> entry relates to a virtio
// device, given the entry's subdirectory names. A subdirectory named exactly
// after the device marks the legacy single shared interrupt line and wins
// over any MSI-X vector names. A single subdirectory of the form
// <device>-(input|output).<queue> marks a per-queue MSI-X vector; any other
// combination is unrelated to the device.
func classifyIRQ(names []string, device string) (irqClass, msixVector) {
	var vectors []msixVector
	for _, name := range names {
		if name == device {
			return classLegacy, msixVector{}
		}
		if vec, ok := parseMsixVector(name, device); ok {
			vectors = append(vectors, vec)
		}
	}
	if len(vectors) == 1 {
		return classMsixQueue, vectors[0]
	}
	return classUnrelated, msixVector{}
}

func parseMsixVector(name, device string) (msixVector, bool) {
	rest, ok := strings.CutPrefix(name, device+"-")
	if !ok {
		return msixVector{}, false
	}
	direction, index, ok := strings.Cut(rest, ".")
	if !ok || (direction != "input" && direction != "output") {
		return msixVector{}, false
	}
	for _, r := range index {
		if r < '0' || r > '9' {
			return msixVector{}, false
		}
	}
	queue, err := strconv.Atoi(index)
	if err != nil {
		return msixVector{}, false
	}
	return msixVector{direction: direction, queue: queue}, true
}

// setVirtioIRQAffinity classifies every interrupt entry against every
// virtio-net device and writes the matching affinity.
func (t *Tuner) setVirtioIRQAffinity() []Outcome {
	devs, err := netutil.VirtioNetDevices(t.fs)
	if err != nil {
		logrus.WithError(err).Info("No virtio-net devices")
		return []Outcome{{Component: componentIRQ, Item: "virtio_net", Action: ActionSkip, Detail: err.Error()}}
	}

	var outcomes []Outcome
	for _, dev := range devs {
		outcomes = append(outcomes, t.setDeviceIRQAffinity(dev.Name)...)
	}
	return outcomes
}

func (t *Tuner) setDeviceIRQAffinity(device string) []Outcome {
	irqs, err := afero.ReadDir(t.fs, irqRootPath)
	if err != nil {
		logrus.WithError(err).Info("No interrupt entries")
		return []Outcome{{Component: componentIRQ, Item: device, Action: ActionSkip, Detail: err.Error()}}
	}

	var outcomes []Outcome
	for _, irq := range irqs {
		if !irq.IsDir() {
			continue
		}
		if o := t.applyIRQAffinity(device, irq.Name()); o != nil {
			outcomes = append(outcomes, *o)
		}
	}
	return outcomes
}

// applyIRQAffinity handles one interrupt entry for one device. A nil return
// means the entry is not applicable to the device and nothing was written.
func (t *Tuner) applyIRQAffinity(device, irq string) *Outcome {
	irqDir := path.Join(irqRootPath, irq)
	affinityList := path.Join(irqDir, affinityListFile)
	if ok, _ := afero.Exists(t.fs, affinityList); !ok {
		return nil
	}

	names, err := subdirNames(t.fs, irqDir)
	if err != nil {
		return nil
	}

	l := logrus.WithFields(logrus.Fields{"irq": irq, "dev": device})
	switch class, vec := classifyIRQ(names, device); class {
	case classLegacy:
		if err := afero.WriteFile(t.fs, affinityList, []byte(legacyAffinity), 0o644); err != nil {
			l.WithError(err).Info("Failed to set legacy interrupt affinity")
			return &Outcome{Component: componentIRQ, Item: irq, Action: ActionFail, Detail: err.Error()}
		}
		l.Info("Legacy interrupt affinity set to CPU 0")
		return &Outcome{Component: componentIRQ, Item: irq, Action: ActionSet, Detail: fmt.Sprintf("%s legacy cpu0", device)}

	case classMsixQueue:
		if ok, _ := afero.Exists(t.fs, path.Join(irqDir, affinityHintFile)); !ok {
			return nil
		}
		want := strconv.Itoa(vec.queue)
		if err := afero.WriteFile(t.fs, affinityList, []byte(want), 0o644); err != nil {
			l.WithError(err).WithField("queue", vec.queue).Info("Failed to set queue interrupt affinity")
			return &Outcome{Component: componentIRQ, Item: irq, Action: ActionFail, Detail: err.Error()}
		}
		// The kernel may normalize or reject the request; report what stuck.
		effective := want
		if data, err := afero.ReadFile(t.fs, affinityList); err == nil {
			effective = strings.TrimSpace(string(data))
		}
		l.WithFields(logrus.Fields{"queue": vec.queue, "affinity": effective}).Info("Queue interrupt affinity set")
		return &Outcome{Component: componentIRQ, Item: irq, Action: ActionSet, Detail: fmt.Sprintf("%s queue=%d affinity=%s", device, vec.queue, effective)}
	}
	return nil
}

// setNotifyBlockAffinity copies the driver's affinity hint onto every
// interrupt entry owned by a notify-block virtual NIC. The pass is
// independent of the virtio device loop; notify-block vector names never
// collide with virtio ones.
func (t *Tuner) setNotifyBlockAffinity() []Outcome {
	irqs, err := afero.ReadDir(t.fs, irqRootPath)
	if err != nil {
		logrus.WithError(err).Info("No interrupt entries")
		return []Outcome{{Component: componentIRQ, Item: "notify-block", Action: ActionSkip, Detail: err.Error()}}
	}

	var outcomes []Outcome
	for _, irq := range irqs {
		if !irq.IsDir() {
			continue
		}
		irqDir := path.Join(irqRootPath, irq.Name())
		names, err := subdirNames(t.fs, irqDir)
		if err != nil {
			continue
		}
		if !hasNotifyBlock(names) {
			continue
		}
		hint, err := afero.ReadFile(t.fs, path.Join(irqDir, affinityHintFile))
		if err != nil {
			continue
		}

		l := logrus.WithField("irq", irq.Name())
		if err := afero.WriteFile(t.fs, path.Join(irqDir, affinityListFile), hint, 0o644); err != nil {
			l.WithError(err).Info("Failed to copy notify block affinity hint")
			outcomes = append(outcomes, Outcome{Component: componentIRQ, Item: irq.Name(), Action: ActionFail, Detail: err.Error()})
			continue
		}
		l.WithField("affinity", strings.TrimSpace(string(hint))).Info("Notify block affinity copied from hint")
		outcomes = append(outcomes, Outcome{Component: componentIRQ, Item: irq.Name(), Action: ActionSet, Detail: fmt.Sprintf("hint=%s", strings.TrimSpace(string(hint)))})
	}
	return outcomes
}

func hasNotifyBlock(names []string) bool {
	for _, name := range names {
		if strings.Contains(name, notifyBlockMarker) {
			return true
		}
	}
	return false
}

func subdirNames(fs afero.Fs, dir string) ([]string, error) {
	entries, err := afero.ReadDir(fs, dir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			names = append(names, entry.Name())
		}
	}
	return names, nil
}
