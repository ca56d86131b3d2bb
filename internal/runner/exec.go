package runner

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
)

// Executor runs the model executable inside a staged directory and returns
// its combined console output.
type Executor interface {
	Execute(ctx context.Context, dir, executable string) ([]byte, error)
}

// CommandExecutor starts the executable as a child process with dir as its
// working directory. Cancelling ctx kills it.
type CommandExecutor struct {
	Args []string
}

func (e CommandExecutor) Execute(ctx context.Context, dir, executable string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, filepath.Join(dir, executable), e.Args...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	if err != nil {
		return out, fmt.Errorf("runner: %s: %w", executable, err)
	}
	return out, nil
}
