package infra

import (
	"context"
	"errors"
	"os/exec"
	"strings"
	"testing"
)

func TestTailBufferKeepsTail(t *testing.T) {
	tb := &TailBuffer{Limit: 5}
	tb.Write([]byte("abc"))
	tb.Write([]byte("defgh"))
	if got := tb.String(); got != "defgh" {
		t.Fatalf("TailBuffer = %q, want %q", got, "defgh")
	}
}

func TestSafeCommandWrapsExitStatus(t *testing.T) {
	sh, err := exec.LookPath("sh")
	if err != nil {
		t.Skip("sh not available")
	}
	cmd := NewSafeCommand(context.Background(), sh, "-c", "echo 'bad codec' >&2; exit 3")
	werr := cmd.Wrap(cmd.Run())
	var exitErr *ExitError
	if !errors.As(werr, &exitErr) {
		t.Fatalf("Wrap() = %T, want *ExitError", werr)
	}
	if exitErr.Code != 3 {
		t.Fatalf("Code = %d, want 3", exitErr.Code)
	}
	if !strings.Contains(exitErr.Error(), "bad codec") {
		t.Fatalf("Error() = %q, want stderr text", exitErr.Error())
	}
}

func TestSafeCommandWrapNil(t *testing.T) {
	cmd := NewSafeCommand(context.Background(), "true")
	if err := cmd.Wrap(nil); err != nil {
		t.Fatalf("Wrap(nil) = %v", err)
	}
}
