package lyricdeck

// PairLines groups lyric lines two per slide. Lines are grouped by runs of
// equal Section so a pair never mixes two sections; an odd run ends with a
// pair whose Line2 is nil. Section entries in the input are ignored.
func PairLines(lines []LyricEntry) []LyricPair {
	var pairs []LyricPair

	prevSection := ""
	first := true
	emit := func(p LyricPair) {
		if first || p.Line1.Section != prevSection {
			p.SectionLabel = StripBrackets(p.Line1.Section)
		}
		prevSection = p.Line1.Section
		first = false
		pairs = append(pairs, p)
	}

	lyrics := LyricLines(lines)
	for i := 0; i < len(lyrics); {
		// find the end of the current section run
		j := i + 1
		for j < len(lyrics) && lyrics[j].Section == lyrics[i].Section {
			j++
		}
		for k := i; k < j; k += 2 {
			p := LyricPair{Line1: lyrics[k]}
			if k+1 < j {
				second := lyrics[k+1]
				p.Line2 = &second
			}
			emit(p)
		}
		i = j
	}

	return pairs
}
