package tune

import (
	"fmt"
	"runtime"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/virtnic/qtune/pkg/cpumask"
	"github.com/virtnic/qtune/pkg/netutil"
)

const componentXPS = "xps"

// maxUsableCPUs keeps the striped masks within a safe bitmask width; CPUs
// beyond the cap are left out of every queue's mask.
const maxUsableCPUs = 63

// stripeTxQueues distributes the usable CPUs round-robin across the matching
// transmit queues and writes each queue's mask to its xps_cpus file.
func (t *Tuner) stripeTxQueues() []Outcome {
	paths, err := netutil.TxQueueXPSPaths(t.fs)
	if err != nil {
		logrus.WithError(err).Info("No transmit queues")
		return []Outcome{{Component: componentXPS, Item: "queues", Action: ActionSkip, Detail: err.Error()}}
	}
	if len(paths) == 0 {
		logrus.Debug("No matching transmit queues")
		return nil
	}

	numCPUs, err := cpumask.OnlineCount(t.fs)
	if err != nil {
		logrus.WithError(err).Debug("Falling back to runtime CPU count")
		numCPUs = runtime.NumCPU()
	}
	numCPUs = min(numCPUs, maxUsableCPUs)

	type queueResult struct {
		queue   int
		path    string
		mask    string
		failure error
	}

	results := make([]queueResult, 0, len(paths))
	for _, p := range paths {
		queue, err := netutil.QueueIndex(p)
		if err != nil {
			logrus.WithError(err).WithField("path", p).Debug("Skipping queue file")
			continue
		}
		r := queueResult{queue: queue, path: p}
		want := cpumask.Striped(queue, len(paths), numCPUs).String()
		if err := afero.WriteFile(t.fs, p, []byte(want), 0o644); err != nil {
			r.failure = err
		} else if data, err := afero.ReadFile(t.fs, p); err == nil {
			// Report what the kernel kept, not what was requested.
			r.mask = strings.TrimSpace(string(data))
		} else {
			r.mask = want
		}
		results = append(results, r)
	}

	// Emit per-queue lines in queue order rather than glob order.
	sort.Slice(results, func(i, j int) bool { return results[i].queue < results[j].queue })

	outcomes := make([]Outcome, 0, len(results))
	for _, r := range results {
		item := fmt.Sprintf("tx-%d", r.queue)
		if r.failure != nil {
			logrus.WithError(r.failure).WithFields(logrus.Fields{"queue": r.queue, "path": r.path}).Info("Failed to set XPS mask")
			outcomes = append(outcomes, Outcome{Component: componentXPS, Item: item, Action: ActionFail, Detail: r.failure.Error()})
			continue
		}
		logrus.WithFields(logrus.Fields{"queue": r.queue, "mask": r.mask, "path": r.path}).Info("Queue XPS mask set")
		outcomes = append(outcomes, Outcome{Component: componentXPS, Item: item, Action: ActionSet, Detail: fmt.Sprintf("mask=%s path=%s", r.mask, r.path)})
	}
	return outcomes
}
