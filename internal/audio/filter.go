package audio

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Filter runs one external audio tool invocation.
// Implementations must return an error when the tool exits non-zero.
type Filter interface {
	Run(ctx context.Context, name string, args ...string) error
}

// FilterError describes a failed external tool invocation
type FilterError struct {
	Tool   string
	Args   []string
	Output string
	Err    error
}

func (e *FilterError) Error() string {
	out := strings.TrimSpace(e.Output)
	if out == "" {
		return fmt.Sprintf("%s failed: %v", e.Tool, e.Err)
	}
	return fmt.Sprintf("%s failed: %v\nOutput: %s", e.Tool, e.Err, out)
}

func (e *FilterError) Unwrap() error {
	return e.Err
}

// ExecFilter invokes tools as child processes
type ExecFilter struct{}

// Run executes the tool and captures its combined output
func (ExecFilter) Run(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)

	output, err := cmd.CombinedOutput()
	if err != nil {
		return &FilterError{
			Tool:   name,
			Args:   args,
			Output: string(output),
			Err:    err,
		}
	}
	return nil
}

// CheckTools reports which of the given binaries are missing from PATH
func CheckTools(names ...string) []string {
	var missing []string
	for _, name := range names {
		if _, err := exec.LookPath(name); err != nil {
			missing = append(missing, name)
		}
	}
	return missing
}
