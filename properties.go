package lyricdeck

import (
	"strconv"

	"github.com/VantageDataChat/LyricDeck/internal/logging"
)

// updateDocumentProperties sets dc:title in docProps/core.xml and the slide
// count in docProps/app.xml. Both parts are optional; a missing or unreadable
// property part is logged and left alone.
func updateDocumentProperties(pkg *Package, meta Metadata, slides int, logger logging.Logger) {
	logger = logging.OrNop(logger)

	if meta.Title != "" && pkg.HasPart(PartCoreProperties) {
		if doc, err := pkg.Document(PartCoreProperties); err != nil {
			logger.Warn("skipping core properties: %v", err)
		} else if setCoreTitle(doc.Root(), meta.Title) {
			pkg.SetDocument(PartCoreProperties, doc)
		}
	}

	if pkg.HasPart(PartAppProperties) {
		doc, err := pkg.Document(PartAppProperties)
		if err != nil {
			logger.Warn("skipping app properties: %v", err)
			return
		}
		if el := childLocal(doc.Root(), "Slides"); el != nil && el.Space == nsExtProperties {
			el.SetInnerText(strconv.Itoa(slides))
			pkg.SetDocument(PartAppProperties, doc)
		}
	}
}

// setCoreTitle sets or adds the dc:title element of a core properties root.
func setCoreTitle(root *Node, title string) bool {
	for _, c := range root.Children {
		if c.Kind == ElementNode && c.Local == "title" && c.Space == nsDC {
			if c.InnerText() == title {
				return false
			}
			c.SetInnerText(title)
			return true
		}
	}
	prefix, ok := declaredPrefix(root, nsDC)
	if !ok {
		return false
	}
	el := &Node{Kind: ElementNode, Prefix: prefix, Local: "title", Space: nsDC}
	el.SetInnerText(title)
	root.AppendChild(el)
	return true
}
