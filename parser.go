package lyricdeck

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var (
	titleLine   = regexp.MustCompile(`(?i)^(Title|Song Title):\s*(.+)$`)
	creditsLine = regexp.MustCompile(`(?i)^(Credits|Credit):\s*(.+)$`)
	sectionLine = regexp.MustCompile(`^\s*\[(.+)\]\s*$`)
)

// ParseLyrics turns pasted lyric text into an ordered entry sequence and the
// song metadata. Title and credit lines are consumed into the metadata; a line
// made only of a bracketed label starts a new section.
//
// An input without lyric lines is not an error here; callers check
// LyricLines and report ErrNoLyricLines.
func ParseLyrics(text string) ([]LyricEntry, Metadata) {
	var (
		entries []LyricEntry
		meta    Metadata
		current string
	)

	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(norm.NFC.String(cleanLine(raw)))
		if line == "" {
			continue
		}

		if m := titleLine.FindStringSubmatch(line); m != nil {
			meta.Title = strings.TrimSpace(m[2])
			continue
		}
		if m := creditsLine.FindStringSubmatch(line); m != nil {
			meta.Credits = strings.TrimSpace(m[2])
			continue
		}
		if m := sectionLine.FindStringSubmatch(line); m != nil {
			current = "[" + m[1] + "]"
			entries = append(entries, LyricEntry{
				Type:     EntrySection,
				Section:  current,
				Original: line,
			})
			continue
		}

		entries = append(entries, LyricEntry{
			Type:     EntryLyric,
			Section:  current,
			Original: line,
		})
	}

	return entries, meta
}

// cleanLine drops invalid UTF-8 and control characters that XML cannot
// carry. Vertical tabs and form feeds, which word processors use as soft
// line breaks, become spaces.
func cleanLine(s string) string {
	s = strings.ToValidUTF8(s, "")
	return strings.Map(func(r rune) rune {
		switch {
		case r == '\v' || r == '\f':
			return ' '
		case r == '\t':
			return r
		case r < 0x20, r == 0xFFFE, r == 0xFFFF, r >= 0xD800 && r <= 0xDFFF:
			return -1
		}
		return r
	}, s)
}
