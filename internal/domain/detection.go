package domain

// Detection is one object instance reported by the model. BBox is
// [x1, y1, x2, y2] in absolute pixel coordinates. Values are passed through
// from the detector untouched; ordering and ranges are not validated.
//
// Detection is a value type and must not be modified once built: the dedup
// key is derived from BBox[0:2] at filter time.
type Detection struct {
	BBox       [4]float64 `json:"bbox"`
	Confidence float64    `json:"confidence"`
	ClassID    float64    `json:"class_id"`
}

// DetectionSet is an ordered sequence of detections. For video it is the
// frame-order concatenation of every frame's boxes.
type DetectionSet []Detection
