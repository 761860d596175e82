package transform

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"audiosketch/internal/services"
)

const stderrLimit = 2048

// CommandRunner executes an external command, returning an error on failure.
type CommandRunner func(ctx context.Context, name string, args ...string) error

var commandContext = exec.CommandContext

// ExecRunner runs name with args and captures stderr for error reporting.
func ExecRunner(ctx context.Context, name string, args ...string) error {
	cmd := commandContext(ctx, name, args...) //nolint:gosec
	var stderr strings.Builder
	cmd.Stdout = io.Discard
	cmd.Stderr = &limitedWriter{w: &stderr, remaining: stderrLimit}
	if err := cmd.Run(); err != nil {
		detail := strings.TrimSpace(stderr.String())
		if detail == "" {
			detail = "no stderr output"
		}
		return fmt.Errorf("%s %s: %w: %s", name, strings.Join(args, " "), err, detail)
	}
	return nil
}

type limitedWriter struct {
	w         io.Writer
	remaining int
}

func (l *limitedWriter) Write(p []byte) (int, error) {
	n := len(p)
	if l.remaining <= 0 {
		return n, nil
	}
	if len(p) > l.remaining {
		p = p[:l.remaining]
	}
	l.remaining -= len(p)
	if _, err := l.w.Write(p); err != nil {
		return 0, err
	}
	return n, nil
}

// run executes one tool invocation and checks that output was written. On
// failure any partial output is removed.
func run(ctx context.Context, runner CommandRunner, tool, output string, name string, args ...string) error {
	if runner == nil {
		runner = ExecRunner
	}
	if err := runner(ctx, name, args...); err != nil {
		var exitErr *exec.ExitError
		message := "command failed"
		switch {
		case errors.As(err, &exitErr):
			message = fmt.Sprintf("exit status %d", exitErr.ExitCode())
		case errors.Is(err, exec.ErrNotFound):
			message = "binary not found"
		}
		_ = os.Remove(output)
		return services.Wrap(services.ErrTransformFailure, "transform", tool, message, err)
	}
	info, err := os.Stat(output)
	if err != nil || info.Size() == 0 {
		_ = os.Remove(output)
		return services.Wrap(services.ErrTransformFailure, "transform", tool, "no output written to "+output, err)
	}
	return nil
}
