package lyricdeck

import (
	"fmt"
	"path"
	"strconv"
	"strings"

	"github.com/VantageDataChat/LyricDeck/internal/logging"
)

// masterDocs holds the three parts that make slides reachable: the slide-ID
// list in presentation.xml, the presentation relationships and the content
// type table.
type masterDocs struct {
	presentation *Document
	presRels     *Document
	contentTypes *Document
}

// parseMasterDocs parses the master documents. Missing or malformed master
// documents are template errors; they are never synthesized.
func parseMasterDocs(pkg *Package) (*masterDocs, error) {
	m := &masterDocs{}
	for _, item := range []struct {
		name string
		dst  **Document
	}{
		{PartPresentation, &m.presentation},
		{PartPresentationRels, &m.presRels},
		{PartContentTypes, &m.contentTypes},
	} {
		doc, err := pkg.Document(item.name)
		if err != nil {
			return nil, newError(KindTemplate, "parse master documents", err)
		}
		*item.dst = doc
	}
	return m, nil
}

// store writes the master documents back into the package.
func (m *masterDocs) store(pkg *Package) {
	pkg.SetDocument(PartPresentation, m.presentation)
	pkg.SetDocument(PartPresentationRels, m.presRels)
	pkg.SetDocument(PartContentTypes, m.contentTypes)
}

// childLocal returns the first child element of n with the given local name.
func childLocal(n *Node, local string) *Node {
	for _, c := range n.Children {
		if c.Kind == ElementNode && c.Local == local {
			return c
		}
	}
	return nil
}

// childrenLocal returns all child elements of n with the given local name.
func childrenLocal(n *Node, local string) []*Node {
	var out []*Node
	for _, c := range n.Children {
		if c.Kind == ElementNode && c.Local == local {
			out = append(out, c)
		}
	}
	return out
}

// declaredPrefix returns the prefix bound to uri on n.
func declaredPrefix(n *Node, uri string) (string, bool) {
	for _, a := range n.Attrs {
		if a.Name.Space == "xmlns" && a.Value == uri {
			return a.Name.Local, true
		}
	}
	return "", false
}

// relsPrefix returns the prefix for the officeDocument relationships
// namespace on the presentation root, declaring one when needed.
func relsPrefix(root *Node) string {
	if p, ok := declaredPrefix(root, nsOfficeDocRels); ok {
		return p
	}
	prefix := "r"
	for i := 1; ; i++ {
		if _, taken := root.GetAttr("xmlns:" + prefix); !taken {
			break
		}
		prefix = "r" + strconv.Itoa(i)
	}
	root.SetAttr("xmlns:"+prefix, nsOfficeDocRels)
	return prefix
}

// slideIDList returns p:sldIdLst, creating it after the master id lists when
// the template has none.
func (m *masterDocs) slideIDList() (*Node, error) {
	root := m.presentation.Root()
	if root == nil || root.Local != "presentation" {
		return nil, fmt.Errorf("%s: root element is not presentation", PartPresentation)
	}
	if lst := childLocal(root, "sldIdLst"); lst != nil {
		return lst, nil
	}

	lst := &Node{Kind: ElementNode, Prefix: root.Prefix, Local: "sldIdLst", Space: root.Space}
	at := 0
	for i, c := range root.Children {
		if c.Kind != ElementNode {
			continue
		}
		switch c.Local {
		case "sldMasterIdLst", "notesMasterIdLst", "handoutMasterIdLst":
			at = i + 1
		}
	}
	root.Children = append(root.Children[:at], append([]*Node{lst}, root.Children[at:]...)...)
	return lst, nil
}

// maxSlideID returns the largest id in the slide-ID list.
func (m *masterDocs) maxSlideID() int {
	maxID := 0
	root := m.presentation.Root()
	if root == nil {
		return 0
	}
	if lst := childLocal(root, "sldIdLst"); lst != nil {
		for _, s := range childrenLocal(lst, "sldId") {
			v, _ := s.GetAttr("id")
			if id, err := strconv.Atoi(v); err == nil && id > maxID {
				maxID = id
			}
		}
	}
	return maxID
}

// maxRelID returns the largest N of any rIdN in the presentation
// relationships.
func (m *masterDocs) maxRelID() int {
	maxRel := 0
	root := m.presRels.Root()
	if root == nil {
		return 0
	}
	for _, rel := range childrenLocal(root, "Relationship") {
		id, _ := rel.GetAttr("Id")
		if n, ok := relIDNumber(id); ok && n > maxRel {
			maxRel = n
		}
	}
	return maxRel
}

// allocator seeds an IDAllocator from the maxima of the package.
func (m *masterDocs) allocator(pkg *Package) *IDAllocator {
	maxSlide := pkg.MaxSlideNumber()
	// relationship targets can name slide numbers whose part is missing
	for _, rel := range childrenLocal(m.presRels.Root(), "Relationship") {
		target, _ := rel.GetAttr("Target")
		if n, ok := SlideNumber(resolveTarget(PartPresentation, target)); ok && n > maxSlide {
			maxSlide = n
		}
	}
	return NewIDAllocator(maxSlide, m.maxSlideID(), m.maxRelID())
}

// resolveTarget turns a relationship target into a part name, relative to
// the directory of the source part.
func resolveTarget(sourcePart, target string) string {
	if strings.HasPrefix(target, "/") {
		return strings.TrimPrefix(path.Clean(target), "/")
	}
	return path.Clean(path.Join(path.Dir(sourcePart), target))
}

// relIDForPart returns the Id of the presentation relationship targeting part.
func (m *masterDocs) relIDForPart(part string) string {
	for _, rel := range childrenLocal(m.presRels.Root(), "Relationship") {
		target, _ := rel.GetAttr("Target")
		if resolveTarget(PartPresentation, target) == part {
			id, _ := rel.GetAttr("Id")
			return id
		}
	}
	return ""
}

// patch registers slides in all three master documents. New slide-ID entries
// go right after the entry of afterPart (the lyric template slide) so the
// lyric slides stay together; when afterPart is not listed they are appended.
// Entries whose id already exists are skipped with a warning.
func (m *masterDocs) patch(slides []SlideIdentity, afterPart string, logger logging.Logger) error {
	logger = logging.OrNop(logger)

	lst, err := m.slideIDList()
	if err != nil {
		return err
	}
	root := m.presentation.Root()
	rPrefix := relsPrefix(root)

	existingIDs := map[string]bool{}
	insertAt := len(lst.Children)
	afterRel := m.relIDForPart(afterPart)
	for i, s := range lst.Children {
		if s.Kind != ElementNode || s.Local != "sldId" {
			continue
		}
		id, _ := s.GetAttr("id")
		existingIDs[id] = true
		if rid, _ := s.GetAttr(rPrefix + ":id"); afterRel != "" && rid == afterRel {
			insertAt = i + 1
		}
	}

	var added []*Node
	for _, s := range slides {
		id := strconv.Itoa(s.SlideID)
		if existingIDs[id] {
			logger.Warn("slide id %s already present in %s, skipping", id, PartPresentation)
			continue
		}
		existingIDs[id] = true
		el := &Node{Kind: ElementNode, Prefix: lst.Prefix, Local: "sldId", Space: lst.Space}
		el.SetAttr("id", id)
		el.SetAttr(rPrefix+":id", s.RelID)
		added = append(added, el)
	}
	tail := append([]*Node{}, lst.Children[insertAt:]...)
	lst.Children = append(append(lst.Children[:insertAt], added...), tail...)

	if err := m.patchRelationships(slides, logger); err != nil {
		return err
	}
	return m.patchContentTypes(slides, logger)
}

func (m *masterDocs) patchRelationships(slides []SlideIdentity, logger logging.Logger) error {
	root := m.presRels.Root()
	if root == nil || root.Local != "Relationships" {
		return fmt.Errorf("%s: root element is not Relationships", PartPresentationRels)
	}
	existing := map[string]bool{}
	for _, rel := range childrenLocal(root, "Relationship") {
		id, _ := rel.GetAttr("Id")
		existing[id] = true
	}
	for _, s := range slides {
		if existing[s.RelID] {
			logger.Warn("relationship %s already present in %s, skipping", s.RelID, PartPresentationRels)
			continue
		}
		existing[s.RelID] = true
		rel := &Node{Kind: ElementNode, Prefix: root.Prefix, Local: "Relationship", Space: root.Space}
		rel.SetAttr("Id", s.RelID)
		rel.SetAttr("Type", relTypeSlide)
		rel.SetAttr("Target", s.Target())
		root.AppendChild(rel)
	}
	return nil
}

func (m *masterDocs) patchContentTypes(slides []SlideIdentity, logger logging.Logger) error {
	root := m.contentTypes.Root()
	if root == nil || root.Local != "Types" {
		return fmt.Errorf("%s: root element is not Types", PartContentTypes)
	}
	if !hasDefault(root, "rels") {
		def := &Node{Kind: ElementNode, Prefix: root.Prefix, Local: "Default", Space: root.Space}
		def.SetAttr("Extension", "rels")
		def.SetAttr("ContentType", ctRels)
		root.AppendChild(def)
	}
	for _, s := range slides {
		if hasOverride(root, s.PartName()) {
			logger.Debug("content type override for %s already present", s.PartName())
			continue
		}
		addOverride(root, s.PartName(), ctSlide)
	}
	return nil
}

// ensureSlideContentTypes adds an override for every slide part in the
// package that has none.
func (m *masterDocs) ensureSlideContentTypes(pkg *Package, logger logging.Logger) {
	root := m.contentTypes.Root()
	for _, part := range pkg.SlideParts() {
		if hasSlideContentType(root, part) {
			continue
		}
		logger.Warn("slide part %s has no content type, registering it", part)
		addOverride(root, part, ctSlide)
	}
}

func addOverride(types *Node, part, contentType string) {
	o := &Node{Kind: ElementNode, Prefix: types.Prefix, Local: "Override", Space: types.Space}
	o.SetAttr("PartName", partURI(part))
	o.SetAttr("ContentType", contentType)
	types.AppendChild(o)
}

func hasOverride(types *Node, part string) bool {
	uri := partURI(part)
	for _, o := range childrenLocal(types, "Override") {
		if name, _ := o.GetAttr("PartName"); strings.EqualFold(name, uri) {
			return true
		}
	}
	return false
}

func hasDefault(types *Node, ext string) bool {
	for _, d := range childrenLocal(types, "Default") {
		if e, _ := d.GetAttr("Extension"); strings.EqualFold(e, ext) {
			return true
		}
	}
	return false
}

// hasSlideContentType reports whether part is typed as a slide, through an
// override or a default for its extension.
func hasSlideContentType(types *Node, part string) bool {
	if hasOverride(types, part) {
		return true
	}
	ext := strings.TrimPrefix(path.Ext(part), ".")
	for _, d := range childrenLocal(types, "Default") {
		e, _ := d.GetAttr("Extension")
		ct, _ := d.GetAttr("ContentType")
		if strings.EqualFold(e, ext) && ct == ctSlide {
			return true
		}
	}
	return false
}

// slideCount returns the number of entries in the slide-ID list.
func (m *masterDocs) slideCount() int {
	root := m.presentation.Root()
	if root == nil {
		return 0
	}
	lst := childLocal(root, "sldIdLst")
	if lst == nil {
		return 0
	}
	return len(childrenLocal(lst, "sldId"))
}

// restoreOrphans appends a slide-ID entry for every slide part in the package
// that the slide list does not reach. An existing presentation relationship
// to the part is reused; otherwise a new one is added. It returns the parts
// it restored.
func (m *masterDocs) restoreOrphans(pkg *Package, logger logging.Logger) ([]string, error) {
	lst, err := m.slideIDList()
	if err != nil {
		return nil, err
	}
	relsRoot := m.presRels.Root()
	if relsRoot == nil || relsRoot.Local != "Relationships" {
		return nil, fmt.Errorf("%s: root element is not Relationships", PartPresentationRels)
	}
	rPrefix := relsPrefix(m.presentation.Root())

	targetByRel := map[string]string{}
	for _, rel := range childrenLocal(relsRoot, "Relationship") {
		id, _ := rel.GetAttr("Id")
		target, _ := rel.GetAttr("Target")
		targetByRel[id] = resolveTarget(PartPresentation, target)
	}
	listed := map[string]bool{}
	for _, s := range childrenLocal(lst, "sldId") {
		rid, _ := s.GetAttr(rPrefix + ":id")
		if target, ok := targetByRel[rid]; ok {
			listed[target] = true
		}
	}

	var restored []string
	for _, part := range pkg.SlideParts() {
		if listed[part] {
			continue
		}
		id := m.maxSlideID() + 1
		if id < minSlideID {
			id = minSlideID
		}
		if id > maxSlideID {
			return restored, fmt.Errorf("slide id space exhausted (max %d)", maxSlideID)
		}

		rid := m.relIDForPart(part)
		if rid == "" {
			rid = "rId" + strconv.Itoa(m.maxRelID()+1)
			rel := &Node{Kind: ElementNode, Prefix: relsRoot.Prefix, Local: "Relationship", Space: relsRoot.Space}
			rel.SetAttr("Id", rid)
			rel.SetAttr("Type", relTypeSlide)
			rel.SetAttr("Target", strings.TrimPrefix(part, "ppt/"))
			relsRoot.AppendChild(rel)
		}

		el := &Node{Kind: ElementNode, Prefix: lst.Prefix, Local: "sldId", Space: lst.Space}
		el.SetAttr("id", strconv.Itoa(id))
		el.SetAttr(rPrefix+":id", rid)
		lst.AppendChild(el)

		listed[part] = true
		restored = append(restored, part)
		logger.Warn("slide part %s was not in the slide list, restored as id %d (%s)", part, id, rid)
	}
	return restored, nil
}
