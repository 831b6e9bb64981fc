package transcode

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"mediadetect/internal/infra"
)

func TestArgsProfile(t *testing.T) {
	args := strings.Join(Args("in.avi", "out.mp4"), " ")
	for _, want := range []string{"-i in.avi", "-c:v libx264", "-preset fast", "-crf 23", "-c:a aac", "-b:a 128k", "-y out.mp4"} {
		if !strings.Contains(args, want) {
			t.Fatalf("Args() = %q, missing %q", args, want)
		}
	}
}

func TestTranscodeFailureCarriesStderr(t *testing.T) {
	fake := writeScript(t, "#!/bin/sh\necho 'bad codec' >&2\nexit 1\n")
	err := NewFFmpeg(fake, nil).Transcode(context.Background(), "in.avi", "out.mp4")
	if err == nil {
		t.Fatal("Transcode() expected error")
	}
	var exitErr *infra.ExitError
	if !errors.As(err, &exitErr) || exitErr.Code != 1 {
		t.Fatalf("Transcode() error = %#v, want exit status 1", err)
	}
	if got := Detail(err); !strings.Contains(got, "bad codec") {
		t.Fatalf("Detail() = %q, want bad codec", got)
	}
}

func TestTranscodeSuccess(t *testing.T) {
	fake := writeScript(t, "#!/bin/sh\nexit 0\n")
	if err := NewFFmpeg(fake, nil).Transcode(context.Background(), "in.avi", "out.mp4"); err != nil {
		t.Fatalf("Transcode() error: %v", err)
	}
}

func TestTranscodeMissingBinary(t *testing.T) {
	err := NewFFmpeg(filepath.Join(t.TempDir(), "nope"), nil).Transcode(context.Background(), "a", "b")
	if err == nil {
		t.Fatal("Transcode() expected error for missing binary")
	}
	if Detail(err) == "" {
		t.Fatal("Detail() should describe the failure")
	}
}

func TestTranscodeRealFFmpeg(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping ffmpeg integration test in short mode")
	}
	bin, err := exec.LookPath("ffmpeg")
	if err != nil {
		t.Skip("ffmpeg not installed")
	}
	dir := t.TempDir()
	src := filepath.Join(dir, "src.avi")
	gen := exec.Command(bin, "-hide_banner", "-loglevel", "error", "-f", "lavfi", "-i", "testsrc=duration=1:size=64x64:rate=5", "-y", src)
	if out, err := gen.CombinedOutput(); err != nil {
		t.Skipf("cannot synthesise source clip: %v: %s", err, out)
	}
	dst := filepath.Join(dir, "transcoded_src.mp4")
	if err := NewFFmpeg(bin, nil).Transcode(context.Background(), src, dst); err != nil {
		t.Fatalf("Transcode() error: %v", err)
	}
	if info, err := os.Stat(dst); err != nil || info.Size() == 0 {
		t.Fatalf("output missing or empty: %v", err)
	}
}

func writeScript(t *testing.T, body string) string {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	path := filepath.Join(t.TempDir(), "ffmpeg")
	if err := os.WriteFile(path, []byte(body), 0o755); err != nil {
		t.Fatal(err)
	}
	return path
}
