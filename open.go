package lyricdeck

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"strings"
)

// Open reads a template package from disk.
// This is a convenience wrapper around NewReader + Read.
func Open(path string) (*Package, error) {
	reader, err := NewReader(ReaderPowerPoint2007)
	if err != nil {
		return nil, err
	}
	return reader.Read(path)
}

// ReadFrom reads a package from an io.ReaderAt with the given size.
func ReadFrom(r io.ReaderAt, size int64) (*Package, error) {
	reader, err := NewReader(ReaderPowerPoint2007)
	if err != nil {
		return nil, err
	}
	return reader.ReadFromReader(r, size)
}

// Save writes the package to a PPTX file.
// This is a convenience wrapper around NewWriter + Save.
func (p *Package) Save(path string) error {
	writer, err := NewWriter(p, WriterPowerPoint2007)
	if err != nil {
		return err
	}
	return writer.Save(path)
}

// WriteTo writes the package to a writer in PPTX format.
func (p *Package) WriteTo(w io.Writer) error {
	writer, err := NewWriter(p, WriterPowerPoint2007)
	if err != nil {
		return err
	}
	return writer.WriteTo(w)
}

// Bytes serializes the package.
func (p *Package) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := p.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodeTemplateBase64 decodes a base64 template upload. A data URL prefix
// ("data:...;base64,") and unpadded input are accepted.
func DecodeTemplateBase64(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if i := strings.Index(s, ";base64,"); i >= 0 && strings.HasPrefix(s, "data:") {
		s = s[i+len(";base64,"):]
	}
	if s == "" {
		return nil, newError(KindValidation, "decode template", ErrEmptyTemplate)
	}

	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		data, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(s, "="))
	}
	if err != nil {
		return nil, newError(KindValidation, "decode template", fmt.Errorf("%w: invalid base64: %v", ErrInvalidTemplate, err))
	}
	if len(data) == 0 {
		return nil, newError(KindValidation, "decode template", ErrEmptyTemplate)
	}
	return data, nil
}
