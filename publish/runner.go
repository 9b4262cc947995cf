package publish

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Runner executes an external command in dir and returns its combined output.
type Runner interface {
	Run(ctx context.Context, dir string, args ...string) ([]byte, error)
}

// CommandError reports a failed external command with its output.
type CommandError struct {
	Args   []string
	Dir    string
	Output string
	Err    error
}

func (e *CommandError) Error() string {
	msg := fmt.Sprintf("%s (in %s): %v", strings.Join(e.Args, " "), e.Dir, e.Err)
	if out := strings.TrimSpace(e.Output); out != "" {
		msg += "\n" + out
	}
	return msg
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// ExecRunner runs Program through os/exec.
type ExecRunner struct {
	Program string
}

func (r ExecRunner) Run(ctx context.Context, dir string, args ...string) ([]byte, error) {
	x := exec.CommandContext(ctx, r.Program, args...)
	x.Dir = dir
	out, err := x.CombinedOutput()
	if err != nil {
		return out, &CommandError{
			Args:   append([]string{r.Program}, args...),
			Dir:    dir,
			Output: string(out),
			Err:    err,
		}
	}
	return out, nil
}
