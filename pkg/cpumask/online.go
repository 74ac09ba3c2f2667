package cpumask

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

const onlineCPUPath = "/sys/devices/system/cpu/online"

// OnlineCount returns the number of online CPUs reported by the kernel.
func OnlineCount(fs afero.Fs) (int, error) {
	data, err := afero.ReadFile(fs, onlineCPUPath)
	if err != nil {
		return 0, errors.Wrap(err, "read online cpus")
	}
	return CountList(strings.TrimSpace(string(data)))
}

// CountList counts the CPUs in a kernel range list such as "0-3,5,7-9".
func CountList(list string) (int, error) {
	if list == "" {
		return 0, nil
	}
	count := 0
	for _, part := range strings.Split(list, ",") {
		from, to, isRange := strings.Cut(part, "-")
		lo, err := strconv.Atoi(from)
		if err != nil {
			return 0, errors.Wrapf(err, "cpu list entry %q", part)
		}
		if !isRange {
			count++
			continue
		}
		hi, err := strconv.Atoi(to)
		if err != nil {
			return 0, errors.Wrapf(err, "cpu list entry %q", part)
		}
		if hi < lo {
			return 0, errors.Errorf("cpu list range %q ends before it starts", part)
		}
		count += hi - lo + 1
	}
	return count, nil
}
