package utils

import (
	"context"
	"os/exec"
)

// RunCommand runs name with args and returns the combined output. For exit
// errors the output is returned alongside the error so callers can log what
// the tool printed.
func RunCommand(name string, args ...string) ([]byte, error) {
	return RunCommandWithContext(context.Background(), name, args...)
}

func RunCommandWithContext(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		if _, ok := err.(*exec.ExitError); ok {
			return out, err
		}
		return nil, err
	}
	return out, nil
}
