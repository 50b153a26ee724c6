package lyricdeck

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"os"
)

// Reader is the interface for template package readers.
type Reader interface {
	Read(path string) (*Package, error)
	ReadFromReader(r io.ReaderAt, size int64) (*Package, error)
}

// ReaderType represents the input format.
type ReaderType string

const (
	ReaderPowerPoint2007 ReaderType = "PowerPoint2007"
)

// NewReader creates a reader for the given format.
func NewReader(format ReaderType) (Reader, error) {
	switch format {
	case ReaderPowerPoint2007:
		return &PPTXReader{}, nil
	default:
		return nil, fmt.Errorf("unsupported reader format: %s", format)
	}
}

// PPTXReader reads PPTX packages.
type PPTXReader struct{}

// Read reads a package from a file path.
func (r *PPTXReader) Read(path string) (*Package, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	return r.ReadFromReader(f, info.Size())
}

// ReadFromReader reads every part of the package into memory.
func (r *PPTXReader) ReadFromReader(reader io.ReaderAt, size int64) (*Package, error) {
	if size <= 0 {
		return nil, newError(KindValidation, "read template", ErrEmptyTemplate)
	}
	if size > int64(maxZipTotalSize) {
		return nil, newError(KindValidation, "read template",
			fmt.Errorf("file size %d exceeds maximum allowed (%d bytes)", size, maxZipTotalSize))
	}

	zr, err := zip.NewReader(reader, size)
	if err != nil {
		return nil, newError(KindTemplate, "read template", fmt.Errorf("%w: %v", ErrInvalidTemplate, err))
	}

	if len(zr.File) > maxZipEntries {
		return nil, newError(KindTemplate, "read template",
			fmt.Errorf("zip archive contains too many entries (%d > %d)", len(zr.File), maxZipEntries))
	}

	pkg := NewPackage()
	var total int64
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		data, err := readZipFile(f)
		if err != nil {
			return nil, newError(KindTemplate, "read template", fmt.Errorf("%w: %v", ErrInvalidTemplate, err))
		}
		total += int64(len(data))
		if total > maxZipTotalSize {
			return nil, newError(KindTemplate, "read template",
				fmt.Errorf("extracted content exceeds maximum allowed (%d bytes)", maxZipTotalSize))
		}
		pkg.SetPart(f.Name, data)
		pkg.parts[f.Name].Modified = f.Modified
	}

	if !pkg.HasPart(PartContentTypes) {
		return nil, newError(KindTemplate, "read template",
			fmt.Errorf("%w: %w: %s", ErrInvalidTemplate, ErrMissingPart, PartContentTypes))
	}

	return pkg, nil
}

// ReadTemplate reads a template package held in memory.
func ReadTemplate(data []byte) (*Package, error) {
	if len(data) == 0 {
		return nil, newError(KindValidation, "read template", ErrEmptyTemplate)
	}
	reader, err := NewReader(ReaderPowerPoint2007)
	if err != nil {
		return nil, err
	}
	return reader.ReadFromReader(bytes.NewReader(data), int64(len(data)))
}

// maxZipEntrySize is the maximum allowed size for a single file extracted from a ZIP.
// This prevents zip bomb attacks. 50 MB is generous for any legitimate PPTX part.
const maxZipEntrySize = 50 << 20 // 50 MB

// maxZipTotalSize is the cumulative limit for all extracted content from a single ZIP.
const maxZipTotalSize = 200 << 20 // 200 MB

// maxZipEntries is the maximum number of files allowed in a ZIP archive.
const maxZipEntries = 10000

func readZipFile(f *zip.File) ([]byte, error) {
	if f.UncompressedSize64 > maxZipEntrySize {
		return nil, fmt.Errorf("file %s exceeds maximum allowed size (%d bytes)", f.Name, maxZipEntrySize)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open %s in zip: %w", f.Name, err)
	}
	defer rc.Close()
	data, err := io.ReadAll(io.LimitReader(rc, int64(maxZipEntrySize)+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s from zip: %w", f.Name, err)
	}
	if int64(len(data)) > int64(maxZipEntrySize) {
		return nil, fmt.Errorf("file %s actual size exceeds maximum allowed size", f.Name)
	}
	return data, nil
}

// --- Relationship reading ---

type xmlRelForRead struct {
	ID         string `xml:"Id,attr"`
	Type       string `xml:"Type,attr"`
	Target     string `xml:"Target,attr"`
	TargetMode string `xml:"TargetMode,attr"`
}

type xmlRelsForRead struct {
	XMLName       xml.Name        `xml:"Relationships"`
	Relationships []xmlRelForRead `xml:"Relationship"`
}

// readRelationships parses a relationship part. A missing part yields no
// relationships and no error.
func (p *Package) readRelationships(name string) ([]xmlRelForRead, error) {
	data, ok := p.Part(name)
	if !ok {
		return nil, nil
	}

	var rels xmlRelsForRead
	if err := xml.Unmarshal(data, &rels); err != nil {
		return nil, fmt.Errorf("failed to parse relationships %s: %w", name, err)
	}
	return rels.Relationships, nil
}

// --- Presentation reading ---

type xmlSldIDForRead struct {
	ID  string `xml:"id,attr"`
	RID string `xml:"http://schemas.openxmlformats.org/officeDocument/2006/relationships id,attr"`
}

type xmlPresentationForRead struct {
	XMLName xml.Name          `xml:"presentation"`
	SldIDs  []xmlSldIDForRead `xml:"sldIdLst>sldId"`
}

// readSlideList returns the slide-ID list of presentation.xml in order.
func (p *Package) readSlideList() ([]xmlSldIDForRead, error) {
	data, ok := p.Part(PartPresentation)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingPart, PartPresentation)
	}
	var pres xmlPresentationForRead
	if err := xml.Unmarshal(data, &pres); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", PartPresentation, err)
	}
	return pres.SldIDs, nil
}
