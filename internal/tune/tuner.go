// Package tune applies one-shot boot-time tuning of network interrupt and
// transmit queue CPU affinity for virtio-net and notify-block virtual NICs.
package tune

import (
	"github.com/spf13/afero"
	"github.com/virtnic/qtune/pkg/ethtool"
)

// Tuner runs the tuning passes against the kernel pseudo filesystems. All
// file access goes through fs so the passes can be exercised against an
// in-memory tree. et may be nil when the ethtool binary is not installed;
// only the multiqueue pass needs it.
type Tuner struct {
	fs afero.Fs
	et ethtool.Tool
}

func New(fs afero.Fs, et ethtool.Tool) *Tuner {
	return &Tuner{fs: fs, et: et}
}

// Run executes the passes in order: enable multiqueue channels, pin virtio
// interrupt affinity, copy notify-block affinity hints, stripe transmit queue
// CPUs. Each pass is an independent sweep over the filesystem; failures are
// logged and recorded, never returned.
func (t *Tuner) Run() []Outcome {
	var outcomes []Outcome
	outcomes = append(outcomes, t.enableMultiQueue()...)
	outcomes = append(outcomes, t.setVirtioIRQAffinity()...)
	outcomes = append(outcomes, t.setNotifyBlockAffinity()...)
	outcomes = append(outcomes, t.stripeTxQueues()...)
	return outcomes
}
