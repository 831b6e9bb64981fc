// Package pipeline turns one staged upload into a PipelineResult: it
// dispatches on media kind, runs detection, and for videos deduplicates,
// transcodes the rendered artifact, and cleans up the detector's workspace.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/rs/zerolog"

	"mediadetect/internal/dedup"
	"mediadetect/internal/detector"
	"mediadetect/internal/domain"
	"mediadetect/internal/infra"
	"mediadetect/internal/media"
	"mediadetect/internal/storage"
	"mediadetect/internal/transcode"
)

// Options wires a Service.
type Options struct {
	Layout     *storage.Layout
	Detector   detector.Detector
	Transcoder transcode.Transcoder
	// Grid defaults to dedup.DefaultGridSize when zero.
	Grid dedup.Grid
	// Strict rejects uploads whose extension is neither image nor video
	// instead of handing them to the image detector.
	Strict bool
	Logger *infra.Logger
}

// Service runs requests. It holds no per-request state and is safe for
// concurrent use provided its collaborators are.
type Service struct {
	layout     *storage.Layout
	detector   detector.Detector
	transcoder transcode.Transcoder
	grid       dedup.Grid
	strict     bool
	logger     zerolog.Logger
}

// New validates opts and returns a Service.
func New(opts Options) (*Service, error) {
	if opts.Layout == nil {
		return nil, errors.New("pipeline: layout is required")
	}
	if opts.Detector == nil {
		return nil, errors.New("pipeline: detector is required")
	}
	if opts.Transcoder == nil {
		return nil, errors.New("pipeline: transcoder is required")
	}
	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	return &Service{
		layout:     opts.Layout,
		detector:   opts.Detector,
		transcoder: opts.Transcoder,
		grid:       opts.Grid,
		strict:     opts.Strict,
		logger:     logger,
	}, nil
}

// Ingest stages src under a fresh name and processes it. Staging failures
// are returned as errors; everything after staging yields a Result.
func (s *Service) Ingest(ctx context.Context, filename string, src io.Reader) (domain.Result, error) {
	asset, err := s.layout.Stage(ctx, filename, src)
	if err != nil {
		return domain.Result{}, err
	}
	return s.Process(ctx, asset), nil
}

// Process dispatches a staged asset to the image or video pipeline.
func (s *Service) Process(ctx context.Context, asset domain.MediaAsset) domain.Result {
	kind := media.Route(media.Classify(asset.Path), s.strict)
	log := s.logger.With().Str("asset", asset.Name).Str("kind", kind.String()).Logger()
	log.Info().Msg("pipeline: processing upload")

	switch kind {
	case media.Video:
		return s.runVideo(ctx, log, asset)
	case media.Image:
		return s.runImage(ctx, log, asset)
	default:
		return domain.Failure(domain.CodeUnsupportedMedia, domain.ErrUnsupportedMedia.Error(), asset.Ext)
	}
}

func (s *Service) runImage(ctx context.Context, log zerolog.Logger, asset domain.MediaAsset) domain.Result {
	frames, err := s.detector.Predict(ctx, detector.Request{Source: asset.Path})
	if err != nil {
		return s.detectionFailed(log, err)
	}
	dets := detector.Collect(frames)
	log.Info().Int("detections", len(dets)).Msg("pipeline: image processed")
	return domain.ImageSuccess(dets)
}

func (s *Service) runVideo(ctx context.Context, log zerolog.Logger, asset domain.MediaAsset) domain.Result {
	runName, runDir := s.layout.DetectorRun()
	log = log.With().Str("run", runName).Logger()

	frames, err := s.detector.Predict(ctx, detector.Request{
		Source: asset.Path,
		Render: &detector.RenderTarget{Project: s.layout.OutputsDir(), Name: runName},
	})
	if err != nil {
		return s.detectionFailed(log, err)
	}

	raw := detector.Collect(frames)
	dets := s.grid.Filter(raw)
	log.Debug().Int("frames", len(frames)).Int("raw", len(raw)).Int("kept", len(dets)).Msg("pipeline: deduplicated")

	artifact, err := locateArtifact(runDir)
	if err != nil {
		log.Warn().Err(err).Msg("pipeline: detector artifact missing")
		return domain.Failure(domain.CodeArtifactNotFound, domain.ErrArtifactNotFound.Error(), "")
	}

	outPath, publicPath := s.layout.PublishedFor(artifact)
	if err := s.transcoder.Transcode(ctx, artifact, outPath); err != nil {
		log.Error().Err(err).Str("artifact", artifact).Msg("pipeline: transcode failed")
		return domain.Failure(domain.CodeTranscodeFailed, domain.ErrTranscodeFailed.Error(), transcode.Detail(err))
	}

	// Cleanup outcome is discarded.
	_ = os.RemoveAll(runDir)

	log.Info().Str("output", publicPath).Int("detections", len(dets)).Msg("pipeline: video processed")
	return domain.VideoSuccess(publicPath, dets)
}

func (s *Service) detectionFailed(log zerolog.Logger, err error) domain.Result {
	log.Error().Err(err).Str("detector", s.detector.Name()).Msg("pipeline: detection failed")
	return domain.Failure(domain.CodeDetectionFailed, domain.ErrDetectionFailed.Error(), err.Error())
}

// locateArtifact returns the first video file (by name) the detector wrote
// into dir.
func locateArtifact(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrArtifactNotFound, err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })
	for _, e := range entries {
		if e.IsDir() || !media.IsVideoExt(filepath.Ext(e.Name())) {
			continue
		}
		path := filepath.Join(dir, e.Name())
		if _, err := os.Stat(path); err != nil {
			continue
		}
		return path, nil
	}
	return "", domain.ErrArtifactNotFound
}
