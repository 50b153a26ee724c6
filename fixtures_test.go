package lyricdeck

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const (
	testSlideMasterRel = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/slideMaster"
	testSlideLayoutRel = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/slideLayout"
	testThemeRel       = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/theme"
)

// fixtureSlide describes one slide of a generated test template.
type fixtureSlide struct {
	number int      // part number; defaults to its 1-based position
	id     int      // slide id; defaults to 255+position
	relID  int      // rId number; defaults to position+1
	texts  []string // one <a:t> run per entry
	noRels bool     // omit ppt/slides/_rels/slideN.xml.rels
	notes  bool     // add a notes slide relationship
}

// buildTemplate writes a minimal but well-formed PPTX package.
func buildTemplate(t *testing.T, slides ...fixtureSlide) []byte {
	t.Helper()

	maxRel := 1
	for i := range slides {
		if slides[i].number == 0 {
			slides[i].number = i + 1
		}
		if slides[i].id == 0 {
			slides[i].id = 256 + i
		}
		if slides[i].relID == 0 {
			slides[i].relID = i + 2
		}
		if slides[i].relID > maxRel {
			maxRel = slides[i].relID
		}
	}

	parts := map[string]string{}
	var order []string
	add := func(name, content string) {
		parts[name] = content
		order = append(order, name)
	}

	var ct strings.Builder
	ct.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n")
	ct.WriteString(`<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">`)
	ct.WriteString(`<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>`)
	ct.WriteString(`<Default Extension="xml" ContentType="application/xml"/>`)
	ct.WriteString(`<Override PartName="/ppt/presentation.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.presentation.main+xml"/>`)
	for _, s := range slides {
		fmt.Fprintf(&ct, `<Override PartName="/ppt/slides/slide%d.xml" ContentType="%s"/>`, s.number, ctSlide)
	}
	ct.WriteString(`<Override PartName="/docProps/core.xml" ContentType="application/vnd.openxmlformats-package.core-properties+xml"/>`)
	ct.WriteString(`<Override PartName="/docProps/app.xml" ContentType="application/vnd.openxmlformats-officedocument.extended-properties+xml"/>`)
	ct.WriteString(`</Types>`)
	add(PartContentTypes, ct.String())

	add("_rels/.rels", `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"><Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="ppt/presentation.xml"/></Relationships>`)

	var pres strings.Builder
	pres.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n")
	pres.WriteString(`<p:presentation xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships" xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main">`)
	pres.WriteString(`<p:sldMasterIdLst><p:sldMasterId id="2147483648" r:id="rId1"/></p:sldMasterIdLst>`)
	pres.WriteString(`<p:sldIdLst>`)
	for _, s := range slides {
		fmt.Fprintf(&pres, `<p:sldId id="%d" r:id="rId%d"/>`, s.id, s.relID)
	}
	pres.WriteString(`</p:sldIdLst><p:sldSz cx="9144000" cy="6858000"/><p:notesSz cx="6858000" cy="9144000"/></p:presentation>`)
	add(PartPresentation, pres.String())

	var rels strings.Builder
	rels.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n")
	rels.WriteString(`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">`)
	fmt.Fprintf(&rels, `<Relationship Id="rId1" Type="%s" Target="slideMasters/slideMaster1.xml"/>`, testSlideMasterRel)
	for _, s := range slides {
		fmt.Fprintf(&rels, `<Relationship Id="rId%d" Type="%s" Target="slides/slide%d.xml"/>`, s.relID, relTypeSlide, s.number)
	}
	fmt.Fprintf(&rels, `<Relationship Id="rId%d" Type="%s" Target="theme/theme1.xml"/>`, maxRel+1, testThemeRel)
	rels.WriteString(`</Relationships>`)
	add(PartPresentationRels, rels.String())

	for _, s := range slides {
		add(SlidePartName(s.number), slideXML(s.texts...))
		if !s.noRels {
			var sr strings.Builder
			sr.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n")
			sr.WriteString(`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">`)
			fmt.Fprintf(&sr, `<Relationship Id="rId1" Type="%s" Target="../slideLayouts/slideLayout1.xml"/>`, testSlideLayoutRel)
			if s.notes {
				fmt.Fprintf(&sr, `<Relationship Id="rId2" Type="%s" Target="../notesSlides/notesSlide%d.xml"/>`, relTypeNotesSlide, s.number)
			}
			sr.WriteString(`</Relationships>`)
			add(fmt.Sprintf("ppt/slides/_rels/slide%d.xml.rels", s.number), sr.String())
		}
	}

	add("ppt/slideMasters/slideMaster1.xml", `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>`+"\n"+`<p:sldMaster xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main"/>`)
	add("ppt/slideLayouts/slideLayout1.xml", `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>`+"\n"+`<p:sldLayout xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main"/>`)
	add("ppt/theme/theme1.xml", `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>`+"\n"+`<a:theme xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" name="Office"/>`)
	add(PartCoreProperties, `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<cp:coreProperties xmlns:cp="http://schemas.openxmlformats.org/package/2006/metadata/core-properties" xmlns:dc="http://purl.org/dc/elements/1.1/"><dc:title>Template</dc:title><dc:creator>tester</dc:creator></cp:coreProperties>`)
	add(PartAppProperties, fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Properties xmlns="http://schemas.openxmlformats.org/officeDocument/2006/extended-properties"><Application>Test</Application><Slides>%d</Slides></Properties>`, len(slides)))

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, name := range order {
		fw, err := zw.Create(name)
		require.NoError(t, err)
		_, err = fw.Write([]byte(parts[name]))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

// slideXML renders a slide with one shape per text.
func slideXML(texts ...string) string {
	var sb strings.Builder
	sb.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n")
	sb.WriteString(`<p:sld xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships" xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main">`)
	sb.WriteString(`<p:cSld><p:spTree><p:nvGrpSpPr><p:cNvPr id="1" name=""/><p:cNvGrpSpPr/><p:nvPr/></p:nvGrpSpPr><p:grpSpPr/>`)
	for i, text := range texts {
		fmt.Fprintf(&sb, `<p:sp><p:nvSpPr><p:cNvPr id="%d" name="Text %d"/><p:cNvSpPr txBox="1"/><p:nvPr/></p:nvSpPr><p:spPr/>`, i+2, i+1)
		sb.WriteString(`<p:txBody><a:bodyPr/><a:lstStyle/><a:p><a:r><a:rPr lang="zh-CN"/><a:t>`)
		xml.EscapeText(&sb, []byte(text))
		sb.WriteString(`</a:t></a:r></a:p></p:txBody></p:sp>`)
	}
	sb.WriteString(`</p:spTree></p:cSld><p:clrMapOvr><a:masterClrMapping/></p:clrMapOvr></p:sld>`)
	return sb.String()
}

// lyricTemplateTexts are the runs of a typical lyric template slide.
var lyricTemplateTexts = []string{"{section}", "{pinyin1}", "{chinese1}", "{pinyin2}", "{chinese2}"}

// annotate fills Simplified and Pinyin the way the enrichment step would.
func annotate(entries []LyricEntry) []LyricEntry {
	out := make([]LyricEntry, len(entries))
	for i, e := range entries {
		if e.IsLyric() {
			e.Simplified = e.Original
			e.Pinyin = "py:" + e.Original
		}
		out[i] = e
	}
	return out
}

// readBack parses generated bytes into a package.
func readBack(t *testing.T, data []byte) *Package {
	t.Helper()
	pkg, err := ReadTemplate(data)
	require.NoError(t, err)
	return pkg
}

// slideTexts returns the text of every <a:t> run of a slide part.
func slideTexts(t *testing.T, pkg *Package, part string) []string {
	t.Helper()
	doc, err := pkg.Document(part)
	require.NoError(t, err)
	var texts []string
	Walk(doc.Root(), func(n *Node) bool {
		if isTextRun(n) {
			texts = append(texts, n.InnerText())
			return false
		}
		return true
	})
	return texts
}

// orderedSlides follows the slide-ID list of presentation.xml and returns the
// slide part names in presentation order.
func orderedSlides(t *testing.T, pkg *Package) []string {
	t.Helper()
	list, err := pkg.readSlideList()
	require.NoError(t, err)
	rels, err := pkg.readRelationships(PartPresentationRels)
	require.NoError(t, err)
	targets := map[string]string{}
	for _, r := range rels {
		targets[r.ID] = resolveTarget(PartPresentation, r.Target)
	}
	var parts []string
	for _, s := range list {
		parts = append(parts, targets[s.RID])
	}
	return parts
}
