package storage

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"mediadetect/internal/domain"
)

const (
	detectorRunPrefix = "detected_"
	transcodedPrefix  = "transcoded_"
	transcodedExt     = ".mp4"
)

// Layout owns the three directories a request touches: the uploads area,
// the detector-output staging area, and the published-output area that is
// served to clients.
type Layout struct {
	uploadsDir   string
	outputsDir   string
	publishedDir string
	publicPrefix string
}

// NewLayout resolves every directory to an absolute path and provisions them.
func NewLayout(uploadsDir, outputsDir, publishedDir, publicPrefix string) (*Layout, error) {
	dirs := []*string{&uploadsDir, &outputsDir, &publishedDir}
	for _, dir := range dirs {
		trimmed := strings.TrimSpace(*dir)
		if trimmed == "" {
			return nil, errors.New("storage: directory path is required")
		}
		abs, err := filepath.Abs(trimmed)
		if err != nil {
			return nil, fmt.Errorf("storage: resolve %q: %w", trimmed, err)
		}
		*dir = abs
	}
	publicPrefix = "/" + strings.Trim(strings.TrimSpace(publicPrefix), "/")
	l := &Layout{
		uploadsDir:   uploadsDir,
		outputsDir:   outputsDir,
		publishedDir: publishedDir,
		publicPrefix: publicPrefix,
	}
	if err := l.Ensure(); err != nil {
		return nil, err
	}
	return l, nil
}

// Ensure creates the directories if they are missing. MkdirAll succeeds when
// the directory already exists, so concurrent callers never fail each other.
func (l *Layout) Ensure() error {
	for _, dir := range []string{l.uploadsDir, l.outputsDir, l.publishedDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("storage: ensure directory: %w", err)
		}
	}
	return nil
}

func (l *Layout) UploadsDir() string   { return l.uploadsDir }
func (l *Layout) OutputsDir() string   { return l.outputsDir }
func (l *Layout) PublishedDir() string { return l.publishedDir }

// NewToken returns 128 random bits, hex encoded (32 characters).
func NewToken() string {
	id := uuid.New()
	return hex.EncodeToString(id[:])
}

// UniqueName builds a collision-free filename that keeps the lower-cased
// extension of original.
func UniqueName(original string) (name, ext string) {
	ext = strings.ToLower(filepath.Ext(sanitizeName(original)))
	return NewToken() + ext, ext
}

// Stage writes the upload verbatim under a generated name in the uploads
// area. Write failures are returned as-is; nothing is retried.
func (l *Layout) Stage(ctx context.Context, original string, src io.Reader) (domain.MediaAsset, error) {
	if err := ctx.Err(); err != nil {
		return domain.MediaAsset{}, err
	}
	if err := l.Ensure(); err != nil {
		return domain.MediaAsset{}, err
	}
	name, ext := UniqueName(original)
	fullPath := filepath.Join(l.uploadsDir, name)

	f, err := os.OpenFile(fullPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return domain.MediaAsset{}, fmt.Errorf("storage: create upload: %w", err)
	}
	if _, err := io.Copy(f, src); err != nil {
		f.Close()
		return domain.MediaAsset{}, fmt.Errorf("storage: write upload: %w", err)
	}
	if err := f.Close(); err != nil {
		return domain.MediaAsset{}, fmt.Errorf("storage: close upload: %w", err)
	}
	return domain.MediaAsset{
		Ext:          ext,
		Name:         name,
		Path:         fullPath,
		OriginalName: original,
	}, nil
}

// DetectorRun returns the per-request directory name and full path the
// detector renders into. The directory itself is created by the detector.
func (l *Layout) DetectorRun() (name, dir string) {
	name = detectorRunPrefix + NewToken()
	return name, filepath.Join(l.outputsDir, name)
}

// PublishedFor returns the on-disk path and the public URL path of the
// transcoded copy of artifact.
func (l *Layout) PublishedFor(artifact string) (fullPath, publicPath string) {
	stem := strings.TrimSuffix(filepath.Base(artifact), filepath.Ext(artifact))
	name := transcodedPrefix + stem + transcodedExt
	return filepath.Join(l.publishedDir, name), l.publicPrefix + "/" + name
}

// sanitizeName drops any directory component a client may have sent.
func sanitizeName(name string) string {
	name = strings.TrimSpace(name)
	name = strings.ReplaceAll(name, "\\", "/")
	base := filepath.Base(name)
	if base == "." || base == "/" {
		return ""
	}
	return base
}
