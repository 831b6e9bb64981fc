// Package bootstrap assembles the pipeline and its collaborators from Config.
package bootstrap

import (
	"context"
	"fmt"
	"time"

	"mediadetect/internal/dedup"
	"mediadetect/internal/detector"
	"mediadetect/internal/detector/opencv"
	"mediadetect/internal/detector/python"
	"mediadetect/internal/detector/remote"
	"mediadetect/internal/infra"
	"mediadetect/internal/pipeline"
	"mediadetect/internal/storage"
	"mediadetect/internal/transcode"
)

// Runtime holds everything a process needs to serve requests.
type Runtime struct {
	Layout     *storage.Layout
	Detector   detector.Detector
	Transcoder *transcode.FFmpeg
	Pipeline   *pipeline.Service

	closers []func() error
}

// NewDetector builds the backend named by cfg.DetectorBackend. The returned
// close function is never nil.
func NewDetector(cfg *infra.Config, logger *infra.Logger) (detector.Detector, func() error, error) {
	noop := func() error { return nil }
	switch cfg.DetectorBackend {
	case infra.BackendPython:
		d, err := python.New(python.Options{
			Python:    cfg.PythonBin,
			Script:    cfg.DetectorScript,
			ModelPath: cfg.ModelPath,
			Logger:    logger,
		})
		return d, noop, err
	case infra.BackendRemote:
		d, err := remote.New(remote.Options{InferenceURL: cfg.InferenceURL})
		return d, noop, err
	case infra.BackendOpenCV:
		d, err := opencv.New(opencv.Options{
			ModelPath:  cfg.ModelPath,
			ConfigPath: cfg.ModelConfigPath,
			Threshold:  float32(cfg.DetectionThreshold),
		})
		if err != nil {
			return nil, noop, err
		}
		return d, d.Close, nil
	default:
		return nil, noop, fmt.Errorf("bootstrap: unknown detector backend %q", cfg.DetectorBackend)
	}
}

// New wires storage, the detector backend, ffmpeg and the pipeline service.
func New(cfg *infra.Config, logger *infra.Logger) (*Runtime, error) {
	layout, err := storage.NewLayout(cfg.UploadsDir, cfg.OutputsDir, cfg.PublicOutputsDir, cfg.PublicOutputsPrefix)
	if err != nil {
		return nil, err
	}

	det, closeDet, err := NewDetector(cfg, logger)
	if err != nil {
		return nil, err
	}
	rt := &Runtime{Layout: layout, Detector: det, closers: []func() error{closeDet}}

	if hc, ok := det.(interface{ CheckHealth(context.Context) error }); ok {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := hc.CheckHealth(ctx); err != nil {
			logger.Warn().Err(err).Str("url", cfg.InferenceURL).Msg("inference service is not reachable yet")
		}
		cancel()
	}

	rt.Transcoder = transcode.NewFFmpeg(cfg.FFmpegPath, logger)
	rt.Pipeline, err = pipeline.New(pipeline.Options{
		Layout:     layout,
		Detector:   det,
		Transcoder: rt.Transcoder,
		Grid:       dedup.NewGrid(float64(cfg.DedupGridSize)),
		Strict:     cfg.RejectUnknownMedia,
		Logger:     logger,
	})
	if err != nil {
		_ = rt.Close()
		return nil, err
	}

	logger.Info().
		Str("detector", det.Name()).
		Str("ffmpeg", rt.Transcoder.Path()).
		Int("grid", cfg.DedupGridSize).
		Str("uploads", layout.UploadsDir()).
		Str("outputs", layout.OutputsDir()).
		Str("published", layout.PublishedDir()).
		Msg("pipeline ready")
	return rt, nil
}

// Close releases backend resources.
func (rt *Runtime) Close() error {
	var first error
	for _, c := range rt.closers {
		if err := c(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
