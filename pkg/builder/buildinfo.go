// Package builder carries version information injected at link time.
package builder

import (
	"fmt"
	"runtime"
)

var (
	Version   = "unknown"
	Commit    = "unknown"
	Date      = "unknown"
	GoVersion = runtime.Version()
)

func BuildInfo() string {
	return fmt.Sprintf("qtune %s (%s %s) %s", Version, Commit, Date, GoVersion)
}
