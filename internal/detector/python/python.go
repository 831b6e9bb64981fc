// Package python runs an ultralytics-style prediction script as a child
// process. The script prints one JSON object per processed frame on stdout:
//
//	{"frame": 0, "boxes": [{"xyxy": [x1, y1, x2, y2], "conf": 0.91, "cls": 2}]}
//
// or a single {"error": "..."} object on failure. When asked to render, it is
// invoked with --save --project <dir> --name <run> and writes the annotated
// copy there.
package python

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"mediadetect/internal/detector"
	"mediadetect/internal/infra"
)

const maxLineBytes = 16 * 1024 * 1024

// Options configures the script runner.
type Options struct {
	Python    string
	Script    string
	ModelPath string
	Logger    *infra.Logger
}

// Detector runs Options.Script once per request.
type Detector struct {
	python string
	script string
	model  string
	logger *infra.Logger
}

type frameLine struct {
	detector.Frame
	Error string `json:"error"`
}

// New validates opts and returns a Detector.
func New(opts Options) (*Detector, error) {
	if strings.TrimSpace(opts.Script) == "" {
		return nil, errors.New("python detector: script path is required")
	}
	if strings.TrimSpace(opts.ModelPath) == "" {
		return nil, errors.New("python detector: model path is required")
	}
	py := opts.Python
	if py == "" {
		py = "python3"
	}
	return &Detector{
		python: py,
		script: opts.Script,
		model:  opts.ModelPath,
		logger: opts.Logger,
	}, nil
}

func (d *Detector) Name() string { return "python" }

// Args builds the script command line for req.
func (d *Detector) Args(req detector.Request) []string {
	args := []string{"-u", d.script, "--model", d.model, "--source", req.Source}
	if req.Render != nil {
		args = append(args, "--save", "--project", req.Render.Project, "--name", req.Render.Name)
	}
	return args
}

// Predict runs the script and collects every frame it reports.
func (d *Detector) Predict(ctx context.Context, req detector.Request) ([]detector.Frame, error) {
	cmd := infra.NewSafeCommand(ctx, d.python, d.Args(req)...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("python detector: stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("python detector: start: %w", cmd.Wrap(err))
	}

	frames, parseErr := d.readFrames(stdout)
	// Drain so the child never blocks on a full pipe before Wait.
	_, _ = io.Copy(io.Discard, stdout)
	waitErr := cmd.Wait()
	if parseErr != nil {
		return nil, parseErr
	}
	if waitErr != nil {
		return nil, fmt.Errorf("python detector: %w", cmd.Wrap(waitErr))
	}
	return frames, nil
}

func (d *Detector) readFrames(r io.Reader) ([]detector.Frame, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)
	var frames []detector.Frame
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		if line[0] != '{' {
			// ultralytics progress output
			if d.logger != nil {
				d.logger.Debug().Str("detector", "python").Msg(string(line))
			}
			continue
		}
		var fl frameLine
		if err := json.Unmarshal(line, &fl); err != nil {
			return frames, fmt.Errorf("python detector: decode frame: %w", err)
		}
		if fl.Error != "" {
			return frames, fmt.Errorf("python detector: %s", fl.Error)
		}
		frames = append(frames, fl.Frame)
	}
	if err := scanner.Err(); err != nil {
		return frames, fmt.Errorf("python detector: read output: %w", err)
	}
	return frames, nil
}
