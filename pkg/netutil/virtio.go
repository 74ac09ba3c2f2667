package netutil

import (
	"path"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

const virtioNetDriverPath = "/sys/bus/virtio/drivers/virtio_net"

// VirtioDevice is a virtio-net device bound to the virtio_net driver. Name is
// the virtio bus name ("virtio0"), which also prefixes the device's interrupt
// vector directories under /proc/irq. Ifaces are the network interfaces the
// device exposes, usually exactly one.
type VirtioDevice struct {
	Name   string
	Ifaces []string
}

// VirtioNetDevices enumerates the devices bound to the virtio_net driver.
func VirtioNetDevices(fs afero.Fs) ([]VirtioDevice, error) {
	dirs, err := afero.Glob(fs, path.Join(virtioNetDriverPath, "virtio*"))
	if err != nil {
		return nil, errors.Wrap(err, "afero.Glob")
	}

	var devs []VirtioDevice
	for _, dir := range dirs {
		dev := VirtioDevice{Name: path.Base(dir)}
		entries, err := afero.ReadDir(fs, path.Join(dir, "net"))
		if err != nil {
			// Driver symlink without a net directory, nothing to tune.
			devs = append(devs, dev)
			continue
		}
		for _, entry := range entries {
			dev.Ifaces = append(dev.Ifaces, entry.Name())
		}
		devs = append(devs, dev)
	}
	return devs, nil
}
