package netutil

import (
	"fmt"
	"path"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

// txQueueXPSGlob matches the transmit CPU affinity files of every queue of
// every interface whose kernel name starts with "e" (eth*, enp*, ens*, ...).
const txQueueXPSGlob = sysNetPath + "/e*/queues/tx-*/xps_cpus"

func GetRxQueues(fs afero.Fs, iface string) ([]int, error) {
	rx, _, err := GetQueues(fs, iface)
	return rx, err
}

func GetTxQueues(fs afero.Fs, iface string) ([]int, error) {
	_, tx, err := GetQueues(fs, iface)
	return tx, err
}

func GetQueues(fs afero.Fs, iface string) ([]int, []int, error) {
	entries, err := afero.ReadDir(fs, fmt.Sprintf("%s/%s/queues", sysNetPath, iface))
	if err != nil {
		return nil, nil, errors.Wrap(err, "afero.ReadDir")
	}

	var (
		rxQueues []int
		txQueues []int
	)

	matchIdx := func(path, qFmt string) []int {
		var id int
		_, err := fmt.Sscanf(path, qFmt, &id)
		if err != nil {
			return nil
		}
		return []int{id}
	}

	for _, entry := range entries {
		rxQueues = append(rxQueues, matchIdx(entry.Name(), "rx-%d")...)
		txQueues = append(txQueues, matchIdx(entry.Name(), "tx-%d")...)
	}
	return rxQueues, txQueues, nil
}

// TxQueueXPSPaths returns the xps_cpus files of all matching transmit queues.
func TxQueueXPSPaths(fs afero.Fs) ([]string, error) {
	paths, err := afero.Glob(fs, txQueueXPSGlob)
	if err != nil {
		return nil, errors.Wrap(err, "afero.Glob")
	}
	return paths, nil
}

// QueueIndex extracts the numeric queue index from a .../queues/tx-<n>/xps_cpus path.
func QueueIndex(p string) (int, error) {
	var id int
	_, err := fmt.Sscanf(path.Base(path.Dir(p)), "tx-%d", &id)
	if err != nil {
		return 0, errors.Wrapf(err, "no queue index in %s", p)
	}
	return id, nil
}
