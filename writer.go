package lyricdeck

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

// Writer is the interface for package writers.
type Writer interface {
	Save(path string) error
	WriteTo(w io.Writer) error
}

// WriterType represents the output format.
type WriterType string

const (
	WriterPowerPoint2007 WriterType = "PowerPoint2007"
)

// NewWriter creates a writer for the given format.
func NewWriter(p *Package, format WriterType) (Writer, error) {
	switch format {
	case WriterPowerPoint2007:
		return &PPTXWriter{pkg: p}, nil
	default:
		return nil, fmt.Errorf("unsupported writer format: %s", format)
	}
}

// PPTXWriter writes a package as a PPTX zip archive.
type PPTXWriter struct {
	pkg *Package
}

// Save writes the package to a file.
func (w *PPTXWriter) Save(path string) error {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}

	writeErr := w.WriteTo(f)
	closeErr := f.Close()

	if writeErr != nil {
		// Attempt cleanup on write failure
		os.Remove(path)
		return writeErr
	}
	return closeErr
}

// WriteTo writes the package to a writer. [Content_Types].xml is written
// first; every other part keeps its package order.
func (w *PPTXWriter) WriteTo(writer io.Writer) error {
	if w.pkg == nil {
		return fmt.Errorf("package is nil")
	}
	if !w.pkg.HasPart(PartContentTypes) {
		return fmt.Errorf("%w: %s", ErrMissingPart, PartContentTypes)
	}

	zw := zip.NewWriter(writer)
	now := time.Now()

	names := append([]string{PartContentTypes}, w.pkg.PartNames()...)
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		if seen[name] {
			continue
		}
		seen[name] = true

		part := w.pkg.parts[name]
		modified := part.Modified
		if modified.IsZero() {
			modified = now
		}
		fw, err := zw.CreateHeader(&zip.FileHeader{
			Name:     name,
			Method:   zip.Deflate,
			Modified: modified,
		})
		if err != nil {
			return fmt.Errorf("failed to create %s in zip: %w", name, err)
		}
		if _, err := fw.Write(part.Data); err != nil {
			return fmt.Errorf("failed to write %s: %w", name, err)
		}
	}

	return zw.Close()
}
