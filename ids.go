package lyricdeck

import (
	"fmt"
	"regexp"
	"strconv"
)

// Slide IDs in presentation.xml must lie in [256, 2147483647].
const (
	minSlideID = 256
	maxSlideID = 2147483647
)

var relIDRe = regexp.MustCompile(`^rId(\d+)$`)

// SlideIdentity names one new slide across the package: its part number, its
// id in the slide-ID list and the relationship that links the two.
type SlideIdentity struct {
	SlideNumber int
	SlideID     int
	RelID       string
}

// PartName returns the slide part, e.g. ppt/slides/slide7.xml.
func (s SlideIdentity) PartName() string {
	return SlidePartName(s.SlideNumber)
}

// RelsPartName returns the slide's relationship part.
func (s SlideIdentity) RelsPartName() string {
	return fmt.Sprintf(slideRelsPartPattern, s.SlideNumber)
}

// Target returns the relationship target relative to ppt/.
func (s SlideIdentity) Target() string {
	return fmt.Sprintf(slideTargetPattern, s.SlideNumber)
}

// IDAllocator hands out slide identities above the maxima found in the
// template. Every call to Next advances the slide number, slide id and rId
// together, so the n-th new slide gets max+n for all three.
type IDAllocator struct {
	baseSlide int
	baseID    int
	baseRel   int
	offset    int
}

// NewIDAllocator seeds an allocator with the largest slide number, slide id
// and rId suffix already present.
func NewIDAllocator(maxSlideNumber, maxID, maxRelID int) *IDAllocator {
	if maxID < minSlideID-1 {
		maxID = minSlideID - 1
	}
	return &IDAllocator{baseSlide: maxSlideNumber, baseID: maxID, baseRel: maxRelID}
}

// Next allocates the next identity.
func (a *IDAllocator) Next() (SlideIdentity, error) {
	if a.baseID+a.offset+1 > maxSlideID {
		return SlideIdentity{}, fmt.Errorf("slide id space exhausted (max %d)", maxSlideID)
	}
	a.offset++
	return SlideIdentity{
		SlideNumber: a.baseSlide + a.offset,
		SlideID:     a.baseID + a.offset,
		RelID:       "rId" + strconv.Itoa(a.baseRel+a.offset),
	}, nil
}

// Allocated returns how many identities have been handed out.
func (a *IDAllocator) Allocated() int {
	return a.offset
}

// relIDNumber returns N for an id of the form rIdN.
func relIDNumber(id string) (int, bool) {
	m := relIDRe.FindStringSubmatch(id)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}
