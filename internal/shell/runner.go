// Package shell runs the catalog command-line tool.
package shell

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	caterrors "github.com/maxkimambo/cgaprov/internal/errors"
	"github.com/maxkimambo/cgaprov/internal/logger"
)

const (
	redacted       = "******"
	maxStderrBytes = 4096
)

// Command is a rendered argv plus the values that must never be printed
type Command struct {
	Argv   []string
	Secret []string
}

// String returns the command line with secrets masked
func (c Command) String() string {
	line := strings.Join(c.Argv, " ")
	for _, s := range c.Secret {
		if s != "" {
			line = strings.ReplaceAll(line, s, redacted)
		}
	}
	return line
}

// Runner executes catalog commands. Both modes report launch failures and
// non-zero exits as external command errors.
type Runner interface {
	// Run executes the command and discards its standard output
	Run(ctx context.Context, cmd Command) error

	// RunToFile executes the command with standard output written to
	// outputPath and returns that path
	RunToFile(ctx context.Context, cmd Command, outputPath string) (string, error)
}

// ExecRunner runs commands as local processes.
//
// The context is only consulted before launch: a process that has started is
// always allowed to exit on its own, since killing the catalog CLI mid-write
// can leave the catalog half-updated.
type ExecRunner struct {
	Env []string
}

// NewExecRunner creates a runner that inherits the current environment
func NewExecRunner() *ExecRunner {
	return &ExecRunner{}
}

// Run executes cmd with standard output discarded
func (r *ExecRunner) Run(ctx context.Context, cmd Command) error {
	return r.run(ctx, cmd, io.Discard)
}

// RunToFile executes cmd with standard output captured to outputPath
func (r *ExecRunner) RunToFile(ctx context.Context, cmd Command, outputPath string) (string, error) {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return "", caterrors.NewCommandLaunchError(cmd.String(), fmt.Errorf("create output directory: %w", err))
	}

	f, err := os.Create(outputPath)
	if err != nil {
		return "", caterrors.NewCommandLaunchError(cmd.String(), fmt.Errorf("create output file: %w", err))
	}
	defer f.Close()

	if err := r.run(ctx, cmd, f); err != nil {
		return "", err
	}
	return outputPath, nil
}

func (r *ExecRunner) run(ctx context.Context, cmd Command, stdout io.Writer) error {
	if len(cmd.Argv) == 0 {
		return caterrors.NewCommandLaunchError("", errors.New("empty command"))
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("command not started: %w", err)
	}

	display := cmd.String()
	proc := exec.Command(cmd.Argv[0], cmd.Argv[1:]...)
	proc.Stdout = stdout
	stderr := &tailBuffer{limit: maxStderrBytes}
	proc.Stderr = stderr
	if r.Env != nil {
		proc.Env = r.Env
	}

	logger.Op.WithFields(map[string]interface{}{
		"command": display,
	}).Debug("Executing catalog command")

	start := time.Now()
	err := proc.Run()
	elapsed := time.Since(start)

	if err == nil {
		logger.Op.WithFields(map[string]interface{}{
			"command":  display,
			"duration": elapsed.Round(time.Millisecond),
		}).Debug("Catalog command finished")
		return nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		stderrText := redact(strings.TrimSpace(stderr.String()), cmd.Secret)
		return caterrors.NewCommandExitError(display, exitErr.ExitCode(), stderrText, err)
	}
	return caterrors.NewCommandLaunchError(display, err)
}

func redact(s string, secrets []string) string {
	for _, secret := range secrets {
		if secret != "" {
			s = strings.ReplaceAll(s, secret, redacted)
		}
	}
	return s
}

// tailBuffer keeps only the last limit bytes written to it
type tailBuffer struct {
	buf   bytes.Buffer
	limit int
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	n := len(p)
	t.buf.Write(p)
	if over := t.buf.Len() - t.limit; over > 0 {
		t.buf.Next(over)
	}
	return n, nil
}

func (t *tailBuffer) String() string {
	return t.buf.String()
}
