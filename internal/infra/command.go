package infra

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// maxStderrBytes bounds how much diagnostic output is kept per process.
const maxStderrBytes = 64 * 1024

// SafeCommand wraps exec.Cmd and keeps the tail of the child's stderr so a
// failure can be reported with the tool's own diagnostic text.
type SafeCommand struct {
	*exec.Cmd
	Stderr *TailBuffer
}

// NewSafeCommand prepares name with args bound to ctx. It does not start it.
func NewSafeCommand(ctx context.Context, name string, args ...string) *SafeCommand {
	cmd := exec.CommandContext(ctx, name, args...)
	stderr := &TailBuffer{Limit: maxStderrBytes}
	cmd.Stderr = stderr
	return &SafeCommand{Cmd: cmd, Stderr: stderr}
}

// ExitError reports a child process that could not be run or exited non-zero.
type ExitError struct {
	Path   string
	Code   int
	Stderr string
	Err    error
}

func (e *ExitError) Error() string {
	msg := fmt.Sprintf("%s exited with status %d", e.Path, e.Code)
	if e.Code < 0 {
		msg = fmt.Sprintf("%s: %v", e.Path, e.Err)
	}
	if e.Stderr != "" {
		msg += ": " + e.Stderr
	}
	return msg
}

func (e *ExitError) Unwrap() error { return e.Err }

// Wrap converts an error returned by Run/Wait into an *ExitError carrying the
// captured stderr. nil stays nil.
func (s *SafeCommand) Wrap(err error) error {
	if err == nil {
		return nil
	}
	code := -1
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		code = exitErr.ExitCode()
	}
	return &ExitError{
		Path:   s.Path,
		Code:   code,
		Stderr: strings.TrimSpace(s.Stderr.String()),
		Err:    err,
	}
}

// TailBuffer is an io.Writer that retains only the last Limit bytes written.
type TailBuffer struct {
	Limit int
	buf   bytes.Buffer
}

func (t *TailBuffer) Write(p []byte) (int, error) {
	n := len(p)
	t.buf.Write(p)
	if t.Limit > 0 && t.buf.Len() > t.Limit {
		keep := t.buf.Bytes()[t.buf.Len()-t.Limit:]
		trimmed := append([]byte(nil), keep...)
		t.buf.Reset()
		t.buf.Write(trimmed)
	}
	return n, nil
}

func (t *TailBuffer) String() string { return t.buf.String() }

func (t *TailBuffer) Len() int { return t.buf.Len() }
