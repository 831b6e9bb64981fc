package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"mediadetect/internal/bootstrap"
	"mediadetect/internal/detector"
	"mediadetect/internal/domain"
	"mediadetect/internal/infra"
	"mediadetect/pkg/zip"
)

// fileResult is one line of detect output.
type fileResult struct {
	File   string        `json:"file"`
	Result domain.Result `json:"result"`
}

func newDetectCmd() *cobra.Command {
	var backend, ffmpeg string
	var quiet bool
	var archive string
	cmd := &cobra.Command{
		Use:   "detect FILE...",
		Short: "Run the pipeline over local files and print one JSON result per line",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, &backend, &ffmpeg)
			if err != nil {
				return err
			}
			logger := infra.NewLoggerTo(os.Stderr, cfg.AppEnv)
			if quiet {
				logger = logger.Level(zerolog.WarnLevel)
			}
			rt, err := bootstrap.New(cfg, &logger)
			if err != nil {
				return err
			}
			defer rt.Close()

			var progress io.Writer = os.Stderr
			if quiet {
				progress = io.Discard
			}
			bar := progressbar.NewOptions(len(args),
				progressbar.OptionSetDescription("Detecting"),
				progressbar.OptionSetWriter(progress),
				progressbar.OptionShowCount(),
				progressbar.OptionClearOnFinish(),
			)
			return runDetect(cmd, rt, args, bar, archive)
		},
	}
	cmd.Flags().StringVarP(&backend, "backend", "b", infra.BackendPython, "detector backend: python, remote or opencv")
	cmd.Flags().StringVar(&ffmpeg, "ffmpeg", "ffmpeg", "ffmpeg executable")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "suppress progress and info logs")
	cmd.Flags().StringVarP(&archive, "archive", "a", "", "also write results and transcoded videos to this zip file")
	return cmd
}

func runDetect(cmd *cobra.Command, rt *bootstrap.Runtime, files []string, bar *progressbar.ProgressBar, archive string) error {
	ctx := cmd.Context()
	var lines bytes.Buffer
	enc := json.NewEncoder(io.MultiWriter(cmd.OutOrStdout(), &lines))
	var all domain.DetectionSet
	var published []zip.Entry
	failed := 0

	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return err
		}
		res, err := ingestFile(cmd, rt, path)
		if err != nil {
			return err
		}
		if res.Failed() {
			failed++
		} else {
			all = append(all, res.Detections...)
			if res.OutputPath != "" {
				name := filepath.Base(res.OutputPath)
				published = append(published, zip.Entry{Name: name, Path: filepath.Join(rt.Layout.PublishedDir(), name)})
			}
		}
		if err := enc.Encode(fileResult{File: path, Result: res}); err != nil {
			return err
		}
		_ = bar.Add(1)
	}
	_ = bar.Finish()

	errOut := cmd.ErrOrStderr()
	for _, lc := range detector.Summarize(all) {
		fmt.Fprintf(errOut, "%-12s %d\n", lc.Label, lc.Count)
	}
	if archive != "" {
		entries := append([]zip.Entry{{Name: "results.jsonl", Data: lines.Bytes()}}, published...)
		if err := writeArchive(archive, entries, errOut); err != nil {
			return err
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(files))
	}
	return nil
}

func ingestFile(cmd *cobra.Command, rt *bootstrap.Runtime, path string) (domain.Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return domain.Result{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return rt.Pipeline.Ingest(cmd.Context(), filepath.Base(path), f)
}

func writeArchive(path string, entries []zip.Entry, errOut io.Writer) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create archive: %w", err)
	}
	skipped, err := zip.Write(f, entries)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}
	for _, s := range skipped {
		fmt.Fprintf(errOut, "archive: skipped missing %s\n", s)
	}
	return nil
}
