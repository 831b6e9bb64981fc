package domain

import "encoding/json"

// MessageCode identifies a success message independently of its wording.
type MessageCode string

const MessageVideoProcessed MessageCode = "video_processed"

// Result is the discriminated outcome of one request. Exactly one of the
// three shapes is populated: video success, image success, or failure.
type Result struct {
	Message     string
	MessageCode MessageCode
	OutputPath  string
	Detections  DetectionSet
	Error       string
	Code        ErrorCode
	Detail      string
}

// VideoSuccess builds the video success shape.
func VideoSuccess(outputPath string, dets DetectionSet) Result {
	return Result{
		Message:     "video processed successfully",
		MessageCode: MessageVideoProcessed,
		OutputPath:  outputPath,
		Detections:  nonNil(dets),
	}
}

// ImageSuccess builds the image success shape.
func ImageSuccess(dets DetectionSet) Result {
	return Result{Detections: nonNil(dets)}
}

// Failure builds the error shape. detail may be empty.
func Failure(code ErrorCode, message, detail string) Result {
	return Result{Error: message, Code: code, Detail: detail}
}

// Failed reports whether r is the error variant.
func (r Result) Failed() bool {
	return r.Error != ""
}

// MarshalJSON keeps the detection array present (possibly empty) on success
// shapes and absent on failures.
func (r Result) MarshalJSON() ([]byte, error) {
	if r.Failed() {
		return json.Marshal(struct {
			Error  string `json:"error"`
			Code   string `json:"code"`
			Detail string `json:"detail,omitempty"`
		}{r.Error, string(r.Code), r.Detail})
	}
	dets := nonNil(r.Detections)
	if r.OutputPath != "" {
		return json.Marshal(struct {
			Message    string       `json:"message"`
			OutputPath string       `json:"output_path"`
			Detections DetectionSet `json:"result"`
		}{r.Message, r.OutputPath, dets})
	}
	return json.Marshal(struct {
		Detections DetectionSet `json:"result"`
	}{dets})
}

func nonNil(dets DetectionSet) DetectionSet {
	if dets == nil {
		return DetectionSet{}
	}
	return dets
}
