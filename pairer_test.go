package lyricdeck

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lyric(section, text string) LyricEntry {
	return LyricEntry{Type: EntryLyric, Section: section, Original: text}
}

func TestPairLinesWithinSection(t *testing.T) {
	lines := []LyricEntry{
		lyric("[Verse]", "a"),
		lyric("[Verse]", "b"),
		lyric("[Verse]", "c"),
	}

	pairs := PairLines(lines)

	require.Len(t, pairs, 2)
	assert.Equal(t, "a", pairs[0].Line1.Original)
	require.NotNil(t, pairs[0].Line2)
	assert.Equal(t, "b", pairs[0].Line2.Original)
	assert.Equal(t, "Verse", pairs[0].SectionLabel)

	assert.Equal(t, "c", pairs[1].Line1.Original)
	assert.Nil(t, pairs[1].Line2)
	assert.Empty(t, pairs[1].SectionLabel)
}

func TestPairLinesNeverCrossSections(t *testing.T) {
	lines := []LyricEntry{
		{Type: EntrySection, Section: "[Verse]", Original: "[Verse]"},
		lyric("[Verse]", "A"),
		{Type: EntrySection, Section: "[Chorus]", Original: "[Chorus]"},
		lyric("[Chorus]", "B"),
	}

	pairs := PairLines(lines)

	require.Len(t, pairs, 2)
	assert.Equal(t, "A", pairs[0].Line1.Original)
	assert.Nil(t, pairs[0].Line2)
	assert.Equal(t, "Verse", pairs[0].SectionLabel)
	assert.Equal(t, "B", pairs[1].Line1.Original)
	assert.Nil(t, pairs[1].Line2)
	assert.Equal(t, "Chorus", pairs[1].SectionLabel)
}

func TestPairLinesRepeatedSectionGetsLabelAgain(t *testing.T) {
	lines := []LyricEntry{
		lyric("[Chorus]", "1"),
		lyric("[Chorus]", "2"),
		lyric("[Verse]", "3"),
		lyric("[Chorus]", "4"),
	}

	pairs := PairLines(lines)

	require.Len(t, pairs, 3)
	assert.Equal(t, []string{"Chorus", "Verse", "Chorus"}, []string{
		pairs[0].SectionLabel, pairs[1].SectionLabel, pairs[2].SectionLabel,
	})
}

func TestPairLinesNoSection(t *testing.T) {
	pairs := PairLines([]LyricEntry{lyric("", "x"), lyric("", "y")})
	require.Len(t, pairs, 1)
	assert.Empty(t, pairs[0].SectionLabel)
}

func TestPairLinesEmpty(t *testing.T) {
	assert.Empty(t, PairLines(nil))
}

func TestPairLinesPreservesEveryLineOnce(t *testing.T) {
	var lines []LyricEntry
	sections := []string{"[A]", "[A]", "[A]", "[B]", "[B]", "", "[A]", "[C]", "[C]", "[C]", "[C]", "[C]"}
	for i, s := range sections {
		lines = append(lines, lyric(s, string(rune('a'+i))))
	}

	pairs := PairLines(lines)

	var got []string
	for _, p := range pairs {
		got = append(got, p.Line1.Original)
		if p.Line2 != nil {
			assert.Equal(t, p.Line1.Section, p.Line2.Section)
			got = append(got, p.Line2.Original)
		}
	}
	var want []string
	for _, l := range lines {
		want = append(want, l.Original)
	}
	assert.Equal(t, want, got)
	// runs of 3, 2, 1, 1 and 5 lines
	assert.Len(t, pairs, 2+1+1+1+3)
}
