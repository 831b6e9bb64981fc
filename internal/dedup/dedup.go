// Package dedup collapses detections that land in the same coarse spatial
// cell. It stands in for object tracking across video frames: jitter inside a
// cell is absorbed, and distinct nearby objects of the same class are merged.
package dedup

import (
	"math"

	"mediadetect/internal/domain"
)

// DefaultGridSize is the cell side length in bbox coordinate units.
const DefaultGridSize = 50

type key struct {
	classID float64
	gridX   float64
	gridY   float64
}

// Grid filters detections by (class_id, floor(x1/size), floor(y1/size)).
type Grid struct {
	size float64
}

// NewGrid returns a Grid with the given cell size. Non-positive sizes use DefaultGridSize.
func NewGrid(size float64) Grid {
	if size <= 0 {
		size = DefaultGridSize
	}
	return Grid{size: size}
}

// Size returns the cell side length.
func (g Grid) Size() float64 {
	if g.size <= 0 {
		return DefaultGridSize
	}
	return g.size
}

// Filter keeps the first detection seen for each key, in input order.
func (g Grid) Filter(dets domain.DetectionSet) domain.DetectionSet {
	size := g.Size()
	seen := make(map[key]struct{}, len(dets))
	out := make(domain.DetectionSet, 0, len(dets))
	for _, det := range dets {
		k := key{
			classID: det.ClassID,
			gridX:   math.Floor(det.BBox[0] / size),
			gridY:   math.Floor(det.BBox[1] / size),
		}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, det)
	}
	return out
}

// Filter applies a DefaultGridSize grid.
func Filter(dets domain.DetectionSet) domain.DetectionSet {
	return NewGrid(DefaultGridSize).Filter(dets)
}
