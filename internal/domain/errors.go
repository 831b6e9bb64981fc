package domain

import "errors"

var (
	ErrArtifactNotFound = errors.New("detection result not found")
	ErrTranscodeFailed  = errors.New("video transcoding failed")
	ErrDetectionFailed  = errors.New("object detection failed")
	ErrUnsupportedMedia = errors.New("unsupported media type")
	ErrEmptyUpload      = errors.New("empty upload")
)

// ErrorCode is the stable, transport-agnostic identifier carried by a failure result.
type ErrorCode string

const (
	CodeArtifactNotFound ErrorCode = "artifact_not_found"
	CodeTranscodeFailed  ErrorCode = "transcode_failed"
	CodeDetectionFailed  ErrorCode = "detection_failed"
	CodeUnsupportedMedia ErrorCode = "unsupported_media"
)
