// Package media classifies staged uploads by file extension.
package media

import (
	"path/filepath"
	"strings"
)

// Kind is the closed set of media classes the dispatcher understands.
type Kind int

const (
	Unsupported Kind = iota
	Image
	Video
)

func (k Kind) String() string {
	switch k {
	case Image:
		return "image"
	case Video:
		return "video"
	default:
		return "unsupported"
	}
}

var videoExts = map[string]struct{}{
	".mp4": {},
	".avi": {},
	".mov": {},
	".mkv": {},
}

var imageExts = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".png":  {},
	".bmp":  {},
	".webp": {},
	".tif":  {},
	".tiff": {},
}

// VideoExts returns the recognised video extensions.
func VideoExts() []string {
	return []string{".mp4", ".avi", ".mov", ".mkv"}
}

// IsVideoExt reports whether ext (with leading dot, any case) is a video extension.
func IsVideoExt(ext string) bool {
	_, ok := videoExts[strings.ToLower(ext)]
	return ok
}

// Classify inspects only the extension of path; content is never sniffed.
func Classify(path string) Kind {
	ext := strings.ToLower(filepath.Ext(path))
	if _, ok := videoExts[ext]; ok {
		return Video
	}
	if _, ok := imageExts[ext]; ok {
		return Image
	}
	return Unsupported
}

// Route maps a Kind to the pipeline that handles it. Unsupported falls back
// to Image unless strict is set, in which case it stays Unsupported.
func Route(k Kind, strict bool) Kind {
	if k == Unsupported && !strict {
		return Image
	}
	return k
}
