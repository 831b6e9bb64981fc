// Package zip bundles result files into a single archive.
package zip

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
)

// Entry is one archive member. Data is used when Path is empty.
type Entry struct {
	Name string
	Path string
	Data []byte
}

// Write streams entries into w as a zip archive. Missing source files are
// skipped and reported in the returned slice; any other failure aborts.
func Write(w io.Writer, entries []Entry) (skipped []string, err error) {
	zw := zip.NewWriter(w)
	for _, e := range entries {
		if e.Path == "" {
			if err := writeBytes(zw, e.Name, e.Data); err != nil {
				return skipped, err
			}
			continue
		}
		f, err := os.Open(e.Path)
		if os.IsNotExist(err) {
			skipped = append(skipped, e.Path)
			continue
		}
		if err != nil {
			return skipped, fmt.Errorf("zip: open %s: %w", e.Path, err)
		}
		err = copyFile(zw, e.Name, f)
		f.Close()
		if err != nil {
			return skipped, err
		}
	}
	if err := zw.Close(); err != nil {
		return skipped, fmt.Errorf("zip: finalize: %w", err)
	}
	return skipped, nil
}

func writeBytes(zw *zip.Writer, name string, data []byte) error {
	w, err := zw.Create(name)
	if err != nil {
		return fmt.Errorf("zip: create %s: %w", name, err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("zip: write %s: %w", name, err)
	}
	return nil
}

func copyFile(zw *zip.Writer, name string, src io.Reader) error {
	// Video payloads are already compressed.
	w, err := zw.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Store})
	if err != nil {
		return fmt.Errorf("zip: create %s: %w", name, err)
	}
	if _, err := io.Copy(w, src); err != nil {
		return fmt.Errorf("zip: write %s: %w", name, err)
	}
	return nil
}
