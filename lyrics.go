package lyricdeck

import "strings"

// EntryType distinguishes section markers from lyric lines in a preview.
type EntryType string

const (
	EntrySection EntryType = "section"
	EntryLyric   EntryType = "lyric"
)

// LyricEntry is one item of the parsed preview sequence.
//
// For a section entry, Section holds the bracketed label and Original the raw
// input line. For a lyric entry, Section is the label of the nearest preceding
// section entry, or empty if there is none.
type LyricEntry struct {
	Type       EntryType `json:"type"`
	Section    string    `json:"section"`
	Original   string    `json:"original"`
	Simplified string    `json:"simplified,omitempty"`
	Pinyin     string    `json:"pinyin,omitempty"`
}

// IsLyric reports whether the entry is a lyric line.
func (e LyricEntry) IsLyric() bool {
	return e.Type == EntryLyric
}

// Metadata holds song-level information extracted from the lyric text.
type Metadata struct {
	Title   string `json:"title"`
	Credits string `json:"credits"`
}

// HasTitleSlide reports whether a title slide should be produced.
func (m Metadata) HasTitleSlide() bool {
	return m.Title != "" || m.Credits != ""
}

// LyricPair is the content of a single lyric slide.
type LyricPair struct {
	Line1 LyricEntry
	Line2 *LyricEntry
	// SectionLabel is the bracket-stripped section name, set only on the
	// first pair of each section run.
	SectionLabel string
}

// LyricLines returns the lyric entries of a preview in order.
func LyricLines(entries []LyricEntry) []LyricEntry {
	lines := make([]LyricEntry, 0, len(entries))
	for _, e := range entries {
		if e.IsLyric() {
			lines = append(lines, e)
		}
	}
	return lines
}

// StripBrackets removes one leading '[' and one trailing ']'.
func StripBrackets(label string) string {
	label = strings.TrimPrefix(label, "[")
	return strings.TrimSuffix(label, "]")
}
