// Package lyricdeck builds lyric slide decks from a PowerPoint template.
//
// A template .pptx is read into an in-memory Package. Lyric slides are cloned
// from one of its slides with placeholder tokens such as {chinese1} and
// {pinyin1} substituted, and the presentation part, its relationships and the
// content type table are extended so every new slide is reachable. The result
// is serialized once; the template bytes are never modified.
package lyricdeck

import (
	"fmt"
	"path"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Well-known part names.
const (
	PartContentTypes     = "[Content_Types].xml"
	PartPresentation     = "ppt/presentation.xml"
	PartPresentationRels = "ppt/_rels/presentation.xml.rels"
	PartCoreProperties   = "docProps/core.xml"
	PartAppProperties    = "docProps/app.xml"
	slidePartPattern     = "ppt/slides/slide%d.xml"
	slideRelsPartPattern = "ppt/slides/_rels/slide%d.xml.rels"
	slideTargetPattern   = "slides/slide%d.xml"
)

var (
	slidePartRe     = regexp.MustCompile(`^ppt/slides/slide(\d+)\.xml$`)
	slideRelsPartRe = regexp.MustCompile(`^ppt/slides/_rels/slide(\d+)\.xml\.rels$`)
)

// Part is a single file of the package.
type Part struct {
	Name     string
	Data     []byte
	Modified time.Time
}

// Package is an in-memory OOXML package. Parts keep the order they were read
// in; parts added later are appended.
type Package struct {
	parts map[string]*Part
	order []string
}

// NewPackage returns an empty package.
func NewPackage() *Package {
	return &Package{parts: make(map[string]*Part)}
}

// Part returns the content of the named part.
func (p *Package) Part(name string) ([]byte, bool) {
	part, ok := p.parts[name]
	if !ok {
		return nil, false
	}
	return part.Data, true
}

// HasPart reports whether the named part exists.
func (p *Package) HasPart(name string) bool {
	_, ok := p.parts[name]
	return ok
}

// SetPart creates or replaces the named part.
func (p *Package) SetPart(name string, data []byte) {
	if part, ok := p.parts[name]; ok {
		part.Data = data
		return
	}
	p.parts[name] = &Part{Name: name, Data: data}
	p.order = append(p.order, name)
}

// PartNames returns all part names in package order.
func (p *Package) PartNames() []string {
	names := make([]string, len(p.order))
	copy(names, p.order)
	return names
}

// PartCount returns the number of parts.
func (p *Package) PartCount() int {
	return len(p.order)
}

// Document parses the named part as XML.
func (p *Package) Document(name string) (*Document, error) {
	data, ok := p.Part(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingPart, name)
	}
	doc, err := ParseXML(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return doc, nil
}

// SetDocument serializes doc into the named part.
func (p *Package) SetDocument(name string, doc *Document) {
	p.SetPart(name, doc.Bytes())
}

// SlideNumber returns N for a part named ppt/slides/slideN.xml.
func SlideNumber(partName string) (int, bool) {
	m := slidePartRe.FindStringSubmatch(partName)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

// SlidePartName returns the part name of slide number n.
func SlidePartName(n int) string {
	return fmt.Sprintf(slidePartPattern, n)
}

// RelsPartName returns the relationship part that belongs to partName,
// e.g. ppt/slides/_rels/slide3.xml.rels for ppt/slides/slide3.xml.
func RelsPartName(partName string) string {
	dir, file := path.Split(partName)
	return dir + "_rels/" + file + ".rels"
}

// SlideParts returns the slide part names ordered by slide number, so that
// slide2 sorts before slide10.
func (p *Package) SlideParts() []string {
	var slides []string
	for _, name := range p.order {
		if _, ok := SlideNumber(name); ok {
			slides = append(slides, name)
		}
	}
	sort.SliceStable(slides, func(i, j int) bool {
		a, _ := SlideNumber(slides[i])
		b, _ := SlideNumber(slides[j])
		return a < b
	})
	return slides
}

// MaxSlideNumber returns the highest slide number used by any slide part or
// orphaned slide relationship part.
func (p *Package) MaxSlideNumber() int {
	maxNum := 0
	for _, name := range p.order {
		n, ok := SlideNumber(name)
		if !ok {
			if m := slideRelsPartRe.FindStringSubmatch(name); m != nil {
				n, _ = strconv.Atoi(m[1])
			}
		}
		if n > maxNum {
			maxNum = n
		}
	}
	return maxNum
}

// TemplateSlides names the slides used as templates for a generation run.
type TemplateSlides struct {
	// Title is the title slide part, empty when no title slide is wanted.
	Title string
	// Lyric is the slide cloned for every lyric pair.
	Lyric string
}

// SelectTemplateSlides picks the title and lyric template slides. The first
// slide is the title slide when meta asks for one, and the lyric template is
// the slide after it; otherwise the first slide is the lyric template.
func (p *Package) SelectTemplateSlides(meta Metadata) (TemplateSlides, error) {
	slides := p.SlideParts()
	if len(slides) == 0 {
		return TemplateSlides{}, newError(KindValidation, "select template slides", ErrNoSlides)
	}
	if !meta.HasTitleSlide() {
		return TemplateSlides{Lyric: slides[0]}, nil
	}
	if len(slides) < 2 {
		return TemplateSlides{}, newError(KindValidation, "select template slides", ErrNeedsTwoSlides)
	}
	return TemplateSlides{Title: slides[0], Lyric: slides[1]}, nil
}

// partURI converts a part name to the absolute form used in content types.
func partURI(name string) string {
	return "/" + strings.TrimPrefix(name, "/")
}
