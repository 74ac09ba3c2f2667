package netutil

import (
	"path"

	"github.com/spf13/afero"
)

const sysNetPath = "/sys/class/net"

func IsPhyNic(fs afero.Fs, nic string) bool {
	ok, err := afero.Exists(fs, path.Join(sysNetPath, nic, "device"))
	return err == nil && ok
}
