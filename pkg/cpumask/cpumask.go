package cpumask

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

const wordBits = 32

// Mask is a CPU bitmask stored as 32-bit words, word 0 covering CPUs 0-31.
type Mask []uint32

// NewMask returns an empty mask wide enough for cpus bits, at least one word.
func NewMask(cpus int) Mask {
	words := (cpus + wordBits - 1) / wordBits
	if words == 0 {
		words = 1
	}
	return make(Mask, words)
}

func (m Mask) Set(cpu int) {
	m[cpu/wordBits] |= 1 << (cpu % wordBits)
}

func (m Mask) Test(cpu int) bool {
	word := cpu / wordBits
	if word < 0 || word >= len(m) {
		return false
	}
	return m[word]&(1<<(cpu%wordBits)) != 0
}

// String serializes in the kernel bitmap format accepted by xps_cpus and
// smp_affinity: 8-hex-digit groups of successive 32-bit words, most
// significant word first, comma separated.
func (m Mask) String() string {
	groups := make([]string, 0, len(m))
	for i := len(m) - 1; i >= 0; i-- {
		groups = append(groups, fmt.Sprintf("%08x", m[i]))
	}
	return strings.Join(groups, ",")
}

// ParseHex parses the kernel bitmap format back into a Mask.
func ParseHex(s string) (Mask, error) {
	groups := strings.Split(strings.TrimSpace(s), ",")
	m := make(Mask, 0, len(groups))
	for i := len(groups) - 1; i >= 0; i-- {
		word, err := strconv.ParseUint(strings.TrimSpace(groups[i]), 16, 32)
		if err != nil {
			return nil, errors.Wrapf(err, "parse mask group %q", groups[i])
		}
		m = append(m, uint32(word))
	}
	return m, nil
}

// Striped returns the CPU mask for transmit queue queue out of numQueues,
// assigning every CPU c < numCPUs with c % numQueues == queue. Successive
// CPUs land on successive queues, so the per-queue sets are disjoint and
// together cover all numCPUs CPUs.
func Striped(queue, numQueues, numCPUs int) Mask {
	m := NewMask(numCPUs)
	if numQueues <= 0 {
		return m
	}
	for c := queue; c < numCPUs; c += numQueues {
		m.Set(c)
	}
	return m
}
