package lyricdeck

import (
	"encoding/xml"
	"fmt"
	"strings"
)

// XML namespace constants
const (
	nsRelationships  = "http://schemas.openxmlformats.org/package/2006/relationships"
	nsContentTypes   = "http://schemas.openxmlformats.org/package/2006/content-types"
	nsPresentationML = "http://schemas.openxmlformats.org/presentationml/2006/main"
	nsDrawingML      = "http://schemas.openxmlformats.org/drawingml/2006/main"
	nsOfficeDocRels  = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"
	nsDC             = "http://purl.org/dc/elements/1.1/"
	nsExtProperties  = "http://schemas.openxmlformats.org/officeDocument/2006/extended-properties"

	relTypeSlide      = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/slide"
	relTypeNotesSlide = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/notesSlide"
	relTypeComment    = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/comments"

	ctSlide = "application/vnd.openxmlformats-officedocument.presentationml.slide+xml"
	ctRels  = "application/vnd.openxmlformats-package.relationships+xml"

	// ContentTypePresentation is the MIME type of a .pptx file.
	ContentTypePresentation = "application/vnd.openxmlformats-officedocument.presentationml.presentation"
)

// --- Relationships ---

type xmlRelationships struct {
	XMLName       xml.Name          `xml:"Relationships"`
	Xmlns         string            `xml:"xmlns,attr"`
	Relationships []xmlRelationship `xml:"Relationship"`
}

type xmlRelationship struct {
	ID         string `xml:"Id,attr"`
	Type       string `xml:"Type,attr"`
	Target     string `xml:"Target,attr"`
	TargetMode string `xml:"TargetMode,attr,omitempty"`
}

// emptyRelationships returns a relationship part with no entries, used for
// slides whose template has no relationship part.
func emptyRelationships() []byte {
	data, err := marshalXML(xmlRelationships{Xmlns: nsRelationships})
	if err != nil {
		// a fixed struct always marshals
		panic(err)
	}
	return data
}

func marshalXML(v interface{}) ([]byte, error) {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n")
	enc := xml.NewEncoder(&b)
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("failed to encode xml: %w", err)
	}
	return []byte(b.String()), nil
}
