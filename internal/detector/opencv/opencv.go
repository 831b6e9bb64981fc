// Package opencv runs an SSD-style network in-process through gocv. Each
// output row is [batch, class, score, x1, y1, x2, y2] with coordinates
// normalised to the frame size.
package opencv

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gocv.io/x/gocv"

	"mediadetect/internal/detector"
)

const (
	renderCodec = "MJPG"
	renderExt   = ".avi"
	defaultFPS  = 25
)

// Options configures the network.
type Options struct {
	ModelPath  string
	ConfigPath string
	Threshold  float32
	InputSize  int
}

// Detector wraps a gocv.Net. Forward passes are serialised because a Net
// holds per-inference state.
type Detector struct {
	mu        sync.Mutex
	net       gocv.Net
	threshold float32
	inputSize image.Point
}

// New loads the network from disk.
func New(opts Options) (*Detector, error) {
	if _, err := os.Stat(opts.ModelPath); err != nil {
		return nil, fmt.Errorf("opencv detector: model file: %w", err)
	}
	if _, err := os.Stat(opts.ConfigPath); err != nil {
		return nil, fmt.Errorf("opencv detector: config file: %w", err)
	}
	net := gocv.ReadNet(opts.ModelPath, opts.ConfigPath)
	if net.Empty() {
		return nil, errors.New("opencv detector: failed to load network")
	}
	if err := net.SetPreferableBackend(gocv.NetBackendDefault); err != nil {
		net.Close()
		return nil, fmt.Errorf("opencv detector: set backend: %w", err)
	}
	if err := net.SetPreferableTarget(gocv.NetTargetCPU); err != nil {
		net.Close()
		return nil, fmt.Errorf("opencv detector: set target: %w", err)
	}
	size := opts.InputSize
	if size <= 0 {
		size = 300
	}
	threshold := opts.Threshold
	if threshold <= 0 {
		threshold = 0.25
	}
	return &Detector{
		net:       net,
		threshold: threshold,
		inputSize: image.Pt(size, size),
	}, nil
}

func (d *Detector) Name() string { return "opencv" }

// Close releases the network.
func (d *Detector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.net.Close()
}

// Predict treats a request without a render target as a still image and
// one with a render target as a video to annotate.
func (d *Detector) Predict(ctx context.Context, req detector.Request) ([]detector.Frame, error) {
	if req.Render == nil {
		return d.predictImage(req.Source)
	}
	return d.predictVideo(ctx, req.Source, req.Render)
}

func (d *Detector) predictImage(source string) ([]detector.Frame, error) {
	mat := gocv.IMRead(source, gocv.IMReadColor)
	defer mat.Close()
	if mat.Empty() {
		return nil, fmt.Errorf("opencv detector: cannot decode image %s", source)
	}
	boxes, err := d.detect(mat)
	if err != nil {
		return nil, err
	}
	return []detector.Frame{{Index: 0, Boxes: boxes}}, nil
}

func (d *Detector) predictVideo(ctx context.Context, source string, target *detector.RenderTarget) ([]detector.Frame, error) {
	vc, err := gocv.VideoCaptureFile(source)
	if err != nil {
		return nil, fmt.Errorf("opencv detector: open video: %w", err)
	}
	defer vc.Close()

	fps := vc.Get(gocv.VideoCaptureFPS)
	if fps <= 0 {
		fps = defaultFPS
	}
	width := int(vc.Get(gocv.VideoCaptureFrameWidth))
	height := int(vc.Get(gocv.VideoCaptureFrameHeight))

	dir := filepath.Join(target.Project, target.Name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("opencv detector: create output dir: %w", err)
	}
	stem := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
	writer, err := gocv.VideoWriterFile(filepath.Join(dir, stem+renderExt), renderCodec, fps, width, height, true)
	if err != nil {
		return nil, fmt.Errorf("opencv detector: open writer: %w", err)
	}
	defer writer.Close()

	mat := gocv.NewMat()
	defer mat.Close()

	var frames []detector.Frame
	for index := 0; ; index++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if ok := vc.Read(&mat); !ok || mat.Empty() {
			break
		}
		boxes, err := d.detect(mat)
		if err != nil {
			return nil, err
		}
		if err := annotate(&mat, boxes); err != nil {
			return nil, err
		}
		if err := writer.Write(mat); err != nil {
			return nil, fmt.Errorf("opencv detector: write frame %d: %w", index, err)
		}
		frames = append(frames, detector.Frame{Index: index, Boxes: boxes})
	}
	return frames, nil
}

func (d *Detector) detect(mat gocv.Mat) ([]detector.Box, error) {
	blob := gocv.BlobFromImage(mat, 1.0/127.5, d.inputSize, gocv.NewScalar(127.5, 127.5, 127.5, 0), true, false)
	defer blob.Close()

	d.mu.Lock()
	d.net.SetInput(blob, "")
	output := d.net.Forward("")
	d.mu.Unlock()
	defer output.Close()

	if output.Empty() {
		return nil, errors.New("opencv detector: empty network output")
	}
	rows := output.Reshape(1, output.Total()/7)
	defer rows.Close()

	w, h := float64(mat.Cols()), float64(mat.Rows())
	var boxes []detector.Box
	for i := 0; i < rows.Rows(); i++ {
		score := rows.GetFloatAt(i, 2)
		if score < d.threshold {
			continue
		}
		boxes = append(boxes, detector.Box{
			XYXY: [4]float64{
				float64(rows.GetFloatAt(i, 3)) * w,
				float64(rows.GetFloatAt(i, 4)) * h,
				float64(rows.GetFloatAt(i, 5)) * w,
				float64(rows.GetFloatAt(i, 6)) * h,
			},
			Conf: float64(score),
			Cls:  float64(rows.GetFloatAt(i, 1)),
		})
	}
	return boxes, nil
}

var boxColor = color.RGBA{R: 255, G: 0, B: 0, A: 0}

func annotate(mat *gocv.Mat, boxes []detector.Box) error {
	for _, b := range boxes {
		rect := image.Rect(int(b.XYXY[0]), int(b.XYXY[1]), int(b.XYXY[2]), int(b.XYXY[3]))
		if err := gocv.Rectangle(mat, rect, boxColor, 2); err != nil {
			return fmt.Errorf("opencv detector: draw box: %w", err)
		}
		label := fmt.Sprintf("%s %.2f", detector.Label(b.Cls), b.Conf)
		if err := gocv.PutText(mat, label, image.Pt(rect.Min.X, rect.Min.Y-5), gocv.FontHersheySimplex, 0.5, boxColor, 1); err != nil {
			return fmt.Errorf("opencv detector: draw label: %w", err)
		}
	}
	return nil
}
