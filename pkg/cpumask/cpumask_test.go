package cpumask

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMaskString(t *testing.T) {
	testCases := []struct {
		cpus   int
		bits   []int
		expect string
	}{
		{
			cpus:   0,
			bits:   nil,
			expect: "00000000",
		},
		{
			cpus:   8,
			bits:   []int{0, 4},
			expect: "00000011",
		},
		{
			cpus:   40,
			bits:   []int{33},
			expect: "00000002,00000000",
		},
		{
			cpus:   70,
			bits:   []int{0, 65},
			expect: "00000002,00000000,00000001",
		},
	}

	for _, c := range testCases {
		m := NewMask(c.cpus)
		for _, b := range c.bits {
			m.Set(b)
		}
		assert.Equal(t, c.expect, m.String())
	}
}

func TestParseHexRoundTrip(t *testing.T) {
	for _, s := range []string{"00000000", "00000011", "00000002,00000000,00000001"} {
		m, err := ParseHex(s)
		require.NoError(t, err)
		assert.Equal(t, s, m.String())
	}

	m, err := ParseHex("ff\n")
	require.NoError(t, err)
	assert.True(t, m.Test(7))
	assert.False(t, m.Test(8))

	_, err = ParseHex("zz")
	assert.Error(t, err)
}

func TestStriped(t *testing.T) {
	const numQueues = 3
	const numCPUs = 8

	masks := make([]Mask, numQueues)
	for q := 0; q < numQueues; q++ {
		masks[q] = Striped(q, numQueues, numCPUs)
	}

	// Every CPU belongs to exactly the queue it maps to mod numQueues.
	for c := 0; c < numCPUs; c++ {
		for q := 0; q < numQueues; q++ {
			assert.Equal(t, c%numQueues == q, masks[q].Test(c), "cpu %d queue %d", c, q)
		}
	}
	// No CPU beyond the usable count is ever set.
	for q := 0; q < numQueues; q++ {
		for c := numCPUs; c < numCPUs+wordBits; c++ {
			assert.False(t, masks[q].Test(c))
		}
	}
}

func TestStripedEdges(t *testing.T) {
	assert.Equal(t, "00000000", Striped(0, 0, 8).String())
	assert.Equal(t, "00000000", Striped(2, 4, 0).String())
	// Single queue owns every CPU.
	assert.Equal(t, "0000000f", Striped(0, 1, 4).String())
}

func TestCountList(t *testing.T) {
	testCases := []struct {
		list   string
		count  int
		hasErr bool
	}{
		{list: "", count: 0},
		{list: "0", count: 1},
		{list: "0-7", count: 8},
		{list: "0-3,5,7-9", count: 8},
		{list: "0-69", count: 70},
		{list: "7-3", hasErr: true},
		{list: "a-b", hasErr: true},
	}

	for _, c := range testCases {
		n, err := CountList(c.list)
		if c.hasErr {
			assert.Error(t, err, c.list)
			continue
		}
		require.NoError(t, err, c.list)
		assert.Equal(t, c.count, n, c.list)
	}
}

func TestOnlineCount(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, onlineCPUPath, []byte("0-5\n"), 0o644))

	n, err := OnlineCount(fs)
	require.NoError(t, err)
	assert.Equal(t, 6, n)

	_, err = OnlineCount(afero.NewMemMapFs())
	assert.Error(t, err)
}
