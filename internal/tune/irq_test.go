package tune

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyIRQ(t *testing.T) {
	testCases := []struct {
		name   string
		dirs   []string
		device string
		class  irqClass
		vector msixVector
	}{
		{
			name:   "legacy",
			dirs:   []string{"virtio0"},
			device: "virtio0",
			class:  classLegacy,
		},
		{
			name:   "legacy wins over msix sibling",
			dirs:   []string{"virtio0-input.5", "virtio0"},
			device: "virtio0",
			class:  classLegacy,
		},
		{
			name:   "msix input",
			dirs:   []string{"virtio0-input.3"},
			device: "virtio0",
			class:  classMsixQueue,
			vector: msixVector{direction: "input", queue: 3},
		},
		{
			name:   "msix output",
			dirs:   []string{"virtio1-output.0"},
			device: "virtio1",
			class:  classMsixQueue,
			vector: msixVector{direction: "output", queue: 0},
		},
		{
			name:   "two msix vectors",
			dirs:   []string{"virtio0-input.1", "virtio0-output.1"},
			device: "virtio0",
			class:  classUnrelated,
		},
		{
			name:   "other device",
			dirs:   []string{"virtio1-input.2"},
			device: "virtio0",
			class:  classUnrelated,
		},
		{
			name:   "bad direction",
			dirs:   []string{"virtio0-config.0"},
			device: "virtio0",
			class:  classUnrelated,
		},
		{
			name:   "non-numeric index",
			dirs:   []string{"virtio0-input.x"},
			device: "virtio0",
			class:  classUnrelated,
		},
		{
			name:   "no subdirs",
			device: "virtio0",
			class:  classUnrelated,
		},
	}

	for _, c := range testCases {
		t.Run(c.name, func(t *testing.T) {
			class, vec := classifyIRQ(c.dirs, c.device)
			assert.Equal(t, c.class, class)
			assert.Equal(t, c.vector, vec)
		})
	}
}

func TestLegacyIRQAffinity(t *testing.T) {
	fs := afero.NewMemMapFs()
	addVirtioIface(t, fs, "virtio0", "eth0")
	// An MSI-X looking sibling must not demote the legacy line.
	addIRQ(t, fs, "25", []string{"virtio0", "virtio0-input.7"}, "ff")

	outcomes := New(fs, nil).setVirtioIRQAffinity()

	assert.Equal(t, "01", affinityList(t, fs, "25"))
	require.Len(t, outcomes, 1)
	assert.Equal(t, ActionSet, outcomes[0].Action)
}

func TestMsixIRQAffinity(t *testing.T) {
	fs := afero.NewMemMapFs()
	addVirtioIface(t, fs, "virtio0", "eth0")
	addIRQ(t, fs, "26", []string{"virtio0-input.3"}, "08")

	New(fs, nil).setVirtioIRQAffinity()

	assert.Equal(t, "3", affinityList(t, fs, "26"))
}

func TestMsixIRQAffinityNoHint(t *testing.T) {
	fs := afero.NewMemMapFs()
	addVirtioIface(t, fs, "virtio0", "eth0")
	addIRQ(t, fs, "27", []string{"virtio0-output.1"}, "")

	outcomes := New(fs, nil).setVirtioIRQAffinity()

	assert.Equal(t, "0-63\n", affinityList(t, fs, "27"))
	assert.Empty(t, outcomes)
}

func TestIRQWithoutAffinityList(t *testing.T) {
	fs := afero.NewMemMapFs()
	addVirtioIface(t, fs, "virtio0", "eth0")
	require.NoError(t, fs.MkdirAll("/proc/irq/28/virtio0", 0o755))

	outcomes := New(fs, nil).setVirtioIRQAffinity()

	assert.Empty(t, outcomes)
	ok, err := afero.Exists(fs, "/proc/irq/28/smp_affinity_list")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestUnrelatedIRQUntouched(t *testing.T) {
	fs := afero.NewMemMapFs()
	addVirtioIface(t, fs, "virtio0", "eth0")
	addIRQ(t, fs, "29", []string{"ahci"}, "")

	outcomes := New(fs, nil).setVirtioIRQAffinity()

	assert.Equal(t, "0-63\n", affinityList(t, fs, "29"))
	assert.Empty(t, outcomes)
}

func TestNotifyBlockAffinity(t *testing.T) {
	fs := afero.NewMemMapFs()
	addIRQ(t, fs, "41", []string{"nic0-ntfy-blk3"}, "0000ff00")

	outcomes := New(fs, nil).setNotifyBlockAffinity()

	// The hint is copied verbatim.
	assert.Equal(t, "0000ff00", affinityList(t, fs, "41"))
	require.Len(t, outcomes, 1)
	assert.Equal(t, ActionSet, outcomes[0].Action)
}

func TestNotifyBlockNoHint(t *testing.T) {
	fs := afero.NewMemMapFs()
	addIRQ(t, fs, "42", []string{"nic0-ntfy-blk0"}, "")

	outcomes := New(fs, nil).setNotifyBlockAffinity()

	assert.Equal(t, "0-63\n", affinityList(t, fs, "42"))
	assert.Empty(t, outcomes)
}

func TestNotifyBlockUnrelated(t *testing.T) {
	fs := afero.NewMemMapFs()
	addIRQ(t, fs, "43", []string{"virtio0-input.0"}, "02")

	outcomes := New(fs, nil).setNotifyBlockAffinity()

	assert.Equal(t, "0-63\n", affinityList(t, fs, "43"))
	assert.Empty(t, outcomes)
}
