package ipfs

import (
	"bytes"
	"context"
	"os/exec"
)

// Runner abstracts subprocess execution so the IPFS client and daemon
// supervisor can be driven by a fake in tests.
type Runner interface {
	// Run executes name with args and returns trimmed-as-captured stdout
	// and stderr. A non-zero exit is returned as err with stderr intact.
	Run(ctx context.Context, name string, args ...string) (stdout, stderr string, err error)

	// LookPath reports whether name is available on PATH.
	LookPath(name string) (string, error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct{}

// NewExecRunner creates a Runner backed by os/exec.
func NewExecRunner() *ExecRunner {
	return &ExecRunner{}
}

func (r *ExecRunner) Run(ctx context.Context, name string, args ...string) (string, string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stdout.String(), stderr.String(), err
}

func (r *ExecRunner) LookPath(name string) (string, error) {
	return exec.LookPath(name)
}
