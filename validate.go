package lyricdeck

import (
	"fmt"
	"strings"
)

// Validate checks the referential integrity of the slide graph and returns an
// error describing all problems found, or nil if the package is consistent:
// every slide-ID entry has a slide relationship whose target exists, every
// slide part is listed, ids are unique and every slide part is typed.
func (p *Package) Validate() error {
	var errs []string

	slideList, err := p.readSlideList()
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	rels, err := p.readRelationships(PartPresentationRels)
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	types, err := p.Document(PartContentTypes)
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	relByID := make(map[string]xmlRelForRead, len(rels))
	for _, rel := range rels {
		if _, dup := relByID[rel.ID]; dup {
			errs = append(errs, fmt.Sprintf("duplicate relationship id %s", rel.ID))
		}
		relByID[rel.ID] = rel
	}

	seenIDs := map[string]bool{}
	listed := map[string]bool{}
	for i, s := range slideList {
		prefix := fmt.Sprintf("slide id entry %d", i+1)
		if seenIDs[s.ID] {
			errs = append(errs, fmt.Sprintf("%s: duplicate id %s", prefix, s.ID))
		}
		seenIDs[s.ID] = true

		rel, ok := relByID[s.RID]
		if !ok {
			errs = append(errs, fmt.Sprintf("%s: relationship %q not found", prefix, s.RID))
			continue
		}
		if rel.Type != relTypeSlide {
			errs = append(errs, fmt.Sprintf("%s: relationship %s is not a slide relationship", prefix, s.RID))
		}
		target := resolveTarget(PartPresentation, rel.Target)
		if !p.HasPart(target) {
			errs = append(errs, fmt.Sprintf("%s: target %s does not exist", prefix, target))
		}
		listed[target] = true
	}

	for _, part := range p.SlideParts() {
		if !listed[part] {
			errs = append(errs, fmt.Sprintf("slide part %s is not in the slide list", part))
		}
		if !hasSlideContentType(types.Root(), part) {
			errs = append(errs, fmt.Sprintf("slide part %s has no content type", part))
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("validation failed:\n  %s", strings.Join(errs, "\n  "))
}
