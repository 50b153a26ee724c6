package lyricdeck

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPair() LyricPair {
	second := LyricEntry{Type: EntryLyric, Simplified: "何等甘甜", Pinyin: "hé děng gān tián"}
	return LyricPair{
		Line1:        LyricEntry{Type: EntryLyric, Simplified: "奇异恩典", Pinyin: "qí yì ēn diǎn"},
		Line2:        &second,
		SectionLabel: "Verse 1",
	}
}

func runsOf(t *testing.T, doc *Document) []string {
	t.Helper()
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

func TestSubstituteTextLyricTokens(t *testing.T) {
	doc, err := ParseXML([]byte(slideXML(lyricTemplateTexts...)))
	require.NoError(t, err)

	n := SubstituteText(doc.Root(), LyricReplacer(testPair()))

	assert.Equal(t, 5, n)
	assert.Equal(t, []string{"Verse 1", "qí yì ēn diǎn", "奇异恩典", "hé děng gān tián", "何等甘甜"}, runsOf(t, doc))
}

func TestSubstituteTextMissingSecondLine(t *testing.T) {
	doc, err := ParseXML([]byte(slideXML("{chinese1}|{chinese2}|{pinyin2}")))
	require.NoError(t, err)

	pair := testPair()
	pair.Line2 = nil
	SubstituteText(doc.Root(), LyricReplacer(pair))

	assert.Equal(t, []string{"奇异恩典||"}, runsOf(t, doc))
}

func TestSubstituteTextLeavesUnknownTokens(t *testing.T) {
	doc, err := ParseXML([]byte(slideXML("{unknown} {chinese1}", "plain")))
	require.NoError(t, err)

	n := SubstituteText(doc.Root(), LyricReplacer(testPair()))

	assert.Equal(t, 1, n)
	assert.Equal(t, []string{"{unknown} 奇异恩典", "plain"}, runsOf(t, doc))
}

func TestSubstituteTextIsIdempotent(t *testing.T) {
	doc, err := ParseXML([]byte(slideXML(lyricTemplateTexts...)))
	require.NoError(t, err)
	r := LyricReplacer(testPair())

	SubstituteText(doc.Root(), r)
	once := string(doc.Bytes())
	n := SubstituteText(doc.Root(), r)

	assert.Zero(t, n)
	assert.Equal(t, once, string(doc.Bytes()))
}

func TestSubstituteTextSplitTextNodes(t *testing.T) {
	src := `<p:sld xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main">` +
		`<a:t>{chin<![CDATA[ese1}]]></a:t></p:sld>`
	doc, err := ParseXML([]byte(src))
	require.NoError(t, err)

	n := SubstituteText(doc.Root(), LyricReplacer(testPair()))

	assert.Equal(t, 1, n)
	assert.Equal(t, []string{"奇异恩典"}, runsOf(t, doc))
}

func TestSubstituteTextNestedGroups(t *testing.T) {
	src := `<p:sld xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main"><p:cSld><p:spTree>` +
		`<p:grpSp><p:grpSp><p:sp><p:txBody><a:p><a:r><a:t>{pinyin1}</a:t></a:r></a:p></p:txBody></p:sp></p:grpSp></p:grpSp>` +
		`<p:graphicFrame><a:graphic><a:graphicData><a:tbl><a:tr><a:tc><a:txBody><a:p><a:r><a:t>{section}</a:t></a:r></a:p></a:txBody></a:tc></a:tr></a:tbl></a:graphicData></a:graphic></p:graphicFrame>` +
		`</p:spTree></p:cSld></p:sld>`
	doc, err := ParseXML([]byte(src))
	require.NoError(t, err)

	n := SubstituteText(doc.Root(), LyricReplacer(testPair()))

	assert.Equal(t, 2, n)
	assert.Equal(t, []string{"qí yì ēn diǎn", "Verse 1"}, runsOf(t, doc))
}

func TestSubstituteTextIgnoresOtherNamespaces(t *testing.T) {
	src := `<p:sld xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main" xmlns:x="urn:other"><x:t>{chinese1}</x:t><p:t>{chinese1}</p:t></p:sld>`
	doc, err := ParseXML([]byte(src))
	require.NoError(t, err)

	assert.Zero(t, SubstituteText(doc.Root(), LyricReplacer(testPair())))
}

func TestSubstituteTextDrawingMLUnderOtherPrefix(t *testing.T) {
	src := `<p:sld xmlns:d="http://schemas.openxmlformats.org/drawingml/2006/main" xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main"><d:t>{chinese1}</d:t></p:sld>`
	doc, err := ParseXML([]byte(src))
	require.NoError(t, err)

	assert.Equal(t, 1, SubstituteText(doc.Root(), LyricReplacer(testPair())))
	assert.Contains(t, string(doc.Bytes()), "<d:t>奇异恩典</d:t>")
}

func TestTitleReplacer(t *testing.T) {
	meta := Metadata{Title: "Amazing Grace", Credits: "John Newton"}
	r := TitleReplacer(meta)

	tests := []struct {
		in, want string
	}{
		{"{title}", "Amazing Grace"},
		{"by {credits}", "by John Newton"},
		{"Song Title Here", "Amazing Grace"},
		{"Credits", "John Newton"},
		{"Title and Credits", "Amazing Grace"},
		{"Subtitle", "Subtitle"},
		{"CreditsRoll", "CreditsRoll"},
		{"unrelated", "unrelated"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, r.Replace(tt.in), tt.in)
	}
}

func TestTitleReplacerEmptyCredits(t *testing.T) {
	r := TitleReplacer(Metadata{Title: "Only Title"})
	assert.Equal(t, "", r.Replace("Credits"))
	assert.Equal(t, "Only Title", r.Replace("{title}"))
}
