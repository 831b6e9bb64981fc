// Package transcode re-encodes detector artifacts into a browser-playable
// MP4 (H.264 video, AAC audio) with an external ffmpeg binary.
package transcode

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"mediadetect/internal/infra"
)

// Encoding profile. Changing these changes the published artifact.
const (
	VideoCodec   = "libx264"
	Preset       = "fast"
	CRF          = "23"
	AudioCodec   = "aac"
	AudioBitrate = "128k"
)

// Transcoder converts input into output, or fails with a diagnostic.
type Transcoder interface {
	Transcode(ctx context.Context, input, output string) error
}

// FFmpeg shells out to the configured ffmpeg executable.
type FFmpeg struct {
	path   string
	logger *infra.Logger
}

// NewFFmpeg returns an FFmpeg transcoder. An empty path means "ffmpeg" on PATH.
func NewFFmpeg(path string, logger *infra.Logger) *FFmpeg {
	path = strings.TrimSpace(path)
	if path == "" {
		path = "ffmpeg"
	}
	return &FFmpeg{path: path, logger: logger}
}

// Path returns the executable that will be run.
func (f *FFmpeg) Path() string { return f.path }

// Args returns the ffmpeg command line for one conversion.
func Args(input, output string) []string {
	return []string{
		"-hide_banner", "-loglevel", "error",
		"-i", input,
		"-c:v", VideoCodec,
		"-preset", Preset,
		"-crf", CRF,
		"-pix_fmt", "yuv420p",
		"-movflags", "+faststart",
		"-c:a", AudioCodec,
		"-b:a", AudioBitrate,
		"-y",
		output,
	}
}

// Transcode runs ffmpeg to completion. A non-zero exit is returned as an
// *infra.ExitError whose Stderr holds ffmpeg's diagnostic.
func (f *FFmpeg) Transcode(ctx context.Context, input, output string) error {
	cmd := infra.NewSafeCommand(ctx, f.path, Args(input, output)...)
	if f.logger != nil {
		f.logger.Debug().Str("input", input).Str("output", output).Msg("transcode: starting ffmpeg")
	}
	if err := cmd.Wrap(cmd.Run()); err != nil {
		return fmt.Errorf("transcode: %w", err)
	}
	return nil
}

// Detail extracts the most useful diagnostic text from a transcode error.
func Detail(err error) string {
	if err == nil {
		return ""
	}
	var exitErr *infra.ExitError
	if errors.As(err, &exitErr) && exitErr.Stderr != "" {
		return exitErr.Stderr
	}
	return err.Error()
}
