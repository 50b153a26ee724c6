package lyricdeck

import (
	"fmt"

	"github.com/VantageDataChat/LyricDeck/internal/logging"
)

// slideEmitter produces lyric slides from one template slide. template is
// parsed once and never modified; every slide is substituted on its own deep
// copy so tokens of one pair cannot leak into another.
type slideEmitter struct {
	pkg      *Package
	part     string
	template *Document
	rels     []byte
	logger   logging.Logger
}

func newSlideEmitter(pkg *Package, part string, logger logging.Logger) (*slideEmitter, error) {
	doc, err := pkg.Document(part)
	if err != nil {
		return nil, newError(KindTemplate, "load lyric template", err)
	}
	e := &slideEmitter{pkg: pkg, part: part, template: doc, logger: logging.OrNop(logger)}

	relsPart := RelsPartName(part)
	rels, ok := pkg.Part(relsPart)
	if !ok {
		e.logger.Warn("template slide %s has no relationship part, using an empty one", part)
		rels = emptyRelationships()
		pkg.SetPart(relsPart, rels)
	}
	cloneRels, err := dropPerSlideRelationships(rels)
	if err != nil {
		return nil, newError(KindTemplate, "load lyric template", fmt.Errorf("%s: %w", relsPart, err))
	}
	e.rels = cloneRels
	return e, nil
}

// render returns a substituted copy of the template for pair.
func (e *slideEmitter) render(pair LyricPair) *Document {
	doc := e.template.Clone()
	n := SubstituteText(doc.Root(), LyricReplacer(pair))
	e.logger.Debug("substituted %d text runs", n)
	return doc
}

// updateInPlace rewrites the template slide itself with pair, keeping its
// existing slide id and relationships.
func (e *slideEmitter) updateInPlace(pair LyricPair) {
	e.pkg.SetDocument(e.part, e.render(pair))
}

// emit writes a new slide part and its relationship part for pair.
func (e *slideEmitter) emit(pair LyricPair, id SlideIdentity) error {
	if e.pkg.HasPart(id.PartName()) {
		return fmt.Errorf("slide part %s already exists", id.PartName())
	}
	e.pkg.SetDocument(id.PartName(), e.render(pair))
	e.pkg.SetPart(id.RelsPartName(), e.rels)
	return nil
}

// emitLyricSlides writes one slide per pair. The first pair reuses the
// template slide; every later pair gets a fresh identity from alloc. It
// returns the identities of the new slides in order.
func emitLyricSlides(pkg *Package, part string, pairs []LyricPair, alloc *IDAllocator, logger logging.Logger) ([]SlideIdentity, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	e, err := newSlideEmitter(pkg, part, logger)
	if err != nil {
		return nil, err
	}

	e.updateInPlace(pairs[0])

	ids := make([]SlideIdentity, 0, len(pairs)-1)
	for _, pair := range pairs[1:] {
		id, err := alloc.Next()
		if err != nil {
			return nil, err
		}
		if err := e.emit(pair, id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// dropPerSlideRelationships removes notes-slide and comment relationships from
// a slide relationship part. Those parts belong to exactly one slide and must
// not be shared by clones. The input is returned unchanged when there is
// nothing to drop.
func dropPerSlideRelationships(rels []byte) ([]byte, error) {
	doc, err := ParseXML(rels)
	if err != nil {
		return nil, err
	}
	root := doc.Root()
	kept := make([]*Node, 0, len(root.Children))
	dropped := false
	for _, c := range root.Children {
		if c.Kind == ElementNode && c.Local == "Relationship" {
			t, _ := c.GetAttr("Type")
			if t == relTypeNotesSlide || t == relTypeComment {
				dropped = true
				continue
			}
		}
		kept = append(kept, c)
	}
	if !dropped {
		return rels, nil
	}
	root.Children = kept
	return doc.Bytes(), nil
}

// updateTitleSlide fills the title slide from meta.
func updateTitleSlide(pkg *Package, part string, meta Metadata, logger logging.Logger) error {
	doc, err := pkg.Document(part)
	if err != nil {
		return newError(KindTemplate, "load title slide", err)
	}
	if n := SubstituteText(doc.Root(), TitleReplacer(meta)); n > 0 {
		pkg.SetDocument(part, doc)
		logging.OrNop(logger).Debug("title slide %s: %d text runs updated", part, n)
	}
	return nil
}
