package python

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"mediadetect/internal/detector"
)

func TestArgs(t *testing.T) {
	d, err := New(Options{Script: "predict.py", ModelPath: "best.pt"})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	got := d.Args(detector.Request{Source: "/u/a.jpg"})
	want := []string{"-u", "predict.py", "--model", "best.pt", "--source", "/u/a.jpg"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Args() = %v, want %v", got, want)
	}
	got = d.Args(detector.Request{Source: "/u/a.mp4", Render: &detector.RenderTarget{Project: "/out", Name: "detected_x"}})
	if !strings.Contains(strings.Join(got, " "), "--save --project /out --name detected_x") {
		t.Fatalf("Args() with render = %v", got)
	}
}

func TestNewRequiresPaths(t *testing.T) {
	if _, err := New(Options{ModelPath: "best.pt"}); err == nil {
		t.Fatal("New() without script should fail")
	}
	if _, err := New(Options{Script: "predict.py"}); err == nil {
		t.Fatal("New() without model should fail")
	}
}

func TestReadFrames(t *testing.T) {
	d := &Detector{}
	input := strings.Join([]string{
		"video 1/1 (frame 1/2) 384x640 1 person",
		`{"frame": 0, "boxes": [{"xyxy": [1, 2, 3, 4], "conf": 0.5, "cls": 0}]}`,
		"",
		`{"frame": 1, "boxes": []}`,
	}, "\n")
	frames, err := d.readFrames(strings.NewReader(input))
	if err != nil {
		t.Fatalf("readFrames() error: %v", err)
	}
	if len(frames) != 2 || len(frames[0].Boxes) != 1 || frames[0].Boxes[0].XYXY != [4]float64{1, 2, 3, 4} {
		t.Fatalf("readFrames() = %+v", frames)
	}

	_, err = d.readFrames(strings.NewReader(`{"error": "model not found"}`))
	if err == nil || !strings.Contains(err.Error(), "model not found") {
		t.Fatalf("readFrames() error = %v, want model not found", err)
	}
}

func TestPredictRunsScript(t *testing.T) {
	sh, err := exec.LookPath("sh")
	if err != nil {
		t.Skip("sh not available")
	}
	script := filepath.Join(t.TempDir(), "predict.sh")
	body := "#!/bin/sh\necho '{\"frame\": 0, \"boxes\": [{\"xyxy\": [5, 6, 7, 8], \"conf\": 0.9, \"cls\": 1}]}'\n"
	if err := os.WriteFile(script, []byte(body), 0o755); err != nil {
		t.Fatal(err)
	}
	// "sh -u script ..." runs the script the same way "python3 -u script ..." would.
	d := &Detector{python: sh, script: script, model: "m"}
	frames, err := d.Predict(context.Background(), detector.Request{Source: "x.jpg"})
	if err != nil {
		t.Fatalf("Predict() error: %v", err)
	}
	if len(frames) != 1 || frames[0].Boxes[0].Cls != 1 {
		t.Fatalf("Predict() = %+v", frames)
	}
}

func TestPredictFailureCarriesStderr(t *testing.T) {
	sh, err := exec.LookPath("sh")
	if err != nil {
		t.Skip("sh not available")
	}
	script := filepath.Join(t.TempDir(), "predict.sh")
	body := "#!/bin/sh\necho 'CUDA out of memory' >&2\nexit 1\n"
	if err := os.WriteFile(script, []byte(body), 0o755); err != nil {
		t.Fatal(err)
	}
	d := &Detector{python: sh, script: script, model: "m"}
	_, err = d.Predict(context.Background(), detector.Request{Source: "x.jpg"})
	if err == nil || !strings.Contains(err.Error(), "CUDA out of memory") {
		t.Fatalf("Predict() error = %v", err)
	}
}
