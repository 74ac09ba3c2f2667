// Package ethtool wraps the ethtool binary for querying and setting a NIC's
// channel (combined TX/RX queue pair) configuration.
package ethtool

import (
	"bufio"
	"bytes"
	"os/exec"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/virtnic/qtune/pkg/utils"
)

// Tool queries and sets a NIC's channel configuration.
type Tool interface {
	// MaxCombined returns the pre-set maximum "Combined" channel count of
	// iface as the raw token reported by the tool.
	MaxCombined(iface string) (string, error)
	SetCombined(iface string, count int) error
}

// CLI shells out to the ethtool binary.
type CLI struct {
	path string
}

// NewCLI locates the ethtool binary. An error means the tool is not
// installed on this host.
func NewCLI() (*CLI, error) {
	p, err := exec.LookPath("ethtool")
	if err != nil {
		return nil, errors.Wrap(err, "exec.LookPath")
	}
	return &CLI{path: p}, nil
}

// Sample `ethtool -l eth0` output:
//
//	Channel parameters for eth0:
//	Pre-set maximums:
//	RX:		0
//	TX:		0
//	Other:		0
//	Combined:	16
//	Current hardware settings:
//	RX:		0
//	TX:		0
//	Other:		0
//	Combined:	16
func (c *CLI) MaxCombined(iface string) (string, error) {
	out, err := utils.RunCommand(c.path, "-l", iface)
	if err != nil {
		return "", errors.Wrapf(err, "ethtool -l %s: %s", iface, strings.TrimSpace(string(out)))
	}
	return parseMaxCombined(out)
}

func (c *CLI) SetCombined(iface string, count int) error {
	out, err := utils.RunCommand(c.path, "-L", iface, "combined", strconv.Itoa(count))
	if err != nil {
		return errors.Wrapf(err, "ethtool -L %s: %s", iface, strings.TrimSpace(string(out)))
	}
	return nil
}

// parseMaxCombined picks the first "Combined:" value, which belongs to the
// pre-set maximums block preceding the current hardware settings.
func parseMaxCombined(out []byte) (string, error) {
	sc := bufio.NewScanner(bytes.NewReader(out))
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) == 2 && fields[0] == "Combined:" {
			return fields[1], nil
		}
	}
	return "", errors.New("no combined channel count in ethtool output")
}
