// Package detector defines the object-detection collaborator and converts
// its raw per-box output into domain detections.
package detector

import (
	"context"

	"mediadetect/internal/domain"
)

// Box is one raw detector box: xyxy coordinates, confidence and class as
// reported by the model.
type Box struct {
	XYXY [4]float64 `json:"xyxy"`
	Conf float64    `json:"conf"`
	Cls  float64    `json:"cls"`
}

// Frame groups the boxes found in one processed frame. Still images yield a
// single frame.
type Frame struct {
	Index int   `json:"frame"`
	Boxes []Box `json:"boxes"`
}

// RenderTarget asks the detector to persist an annotated copy of the source
// to Project/Name.
type RenderTarget struct {
	Project string
	Name    string
}

// Request describes one detector invocation.
type Request struct {
	Source string
	Render *RenderTarget
}

// Detector is built once at startup and shared by all requests. Predict
// blocks until every frame of the source has been processed.
type Detector interface {
	Name() string
	Predict(ctx context.Context, req Request) ([]Frame, error)
}

// Normalize converts a raw box into a Detection without validating it.
func Normalize(b Box) domain.Detection {
	return domain.Detection{
		BBox:       b.XYXY,
		Confidence: b.Conf,
		ClassID:    b.Cls,
	}
}

// Collect concatenates the boxes of frames in the order they were returned.
func Collect(frames []Frame) domain.DetectionSet {
	n := 0
	for _, f := range frames {
		n += len(f.Boxes)
	}
	out := make(domain.DetectionSet, 0, n)
	for _, f := range frames {
		for _, b := range f.Boxes {
			out = append(out, Normalize(b))
		}
	}
	return out
}
