package lyricdeck

import (
	"regexp"
	"strings"
)

// Replacer rewrites the text of a single text run.
type Replacer interface {
	Replace(text string) string
}

// ReplacerFunc adapts a function to Replacer.
type ReplacerFunc func(string) string

// Replace calls f(text).
func (f ReplacerFunc) Replace(text string) string {
	return f(text)
}

// isTextRun reports whether n is a DrawingML text element (<a:t>).
func isTextRun(n *Node) bool {
	if n.Kind != ElementNode || n.Local != "t" {
		return false
	}
	if n.Space != "" {
		return n.Space == nsDrawingML
	}
	return n.Prefix == "a"
}

// SubstituteText applies r to every text run under root, however deeply it is
// nested, and returns the number of runs that changed. A run whose text is
// split across several text nodes is treated as one string. Runs are only
// rewritten when the replacement differs from the input.
func SubstituteText(root *Node, r Replacer) int {
	changed := 0
	Walk(root, func(n *Node) bool {
		if !isTextRun(n) {
			return true
		}
		text := n.InnerText()
		if out := r.Replace(text); out != text {
			n.SetInnerText(out)
			changed++
		}
		return false
	})
	return changed
}

// LyricReplacer substitutes the lyric slide tokens {pinyin1}, {chinese1},
// {pinyin2}, {chinese2} and {section} for pair. Unknown tokens are left as
// they are.
func LyricReplacer(pair LyricPair) Replacer {
	var pinyin2, chinese2 string
	if pair.Line2 != nil {
		pinyin2 = pair.Line2.Pinyin
		chinese2 = pair.Line2.Simplified
	}
	return strings.NewReplacer(
		"{pinyin1}", pair.Line1.Pinyin,
		"{chinese1}", pair.Line1.Simplified,
		"{pinyin2}", pinyin2,
		"{chinese2}", chinese2,
		"{section}", pair.SectionLabel,
	)
}

var (
	titleWord   = regexp.MustCompile(`\bTitle\b`)
	creditsWord = regexp.MustCompile(`\bCredits\b`)
)

// TitleReplacer substitutes {title} and {credits}. A run that carries no
// token but contains the word "Title" or "Credits" is replaced as a whole by
// the title or credits, which is how hand-made templates usually mark those
// boxes.
func TitleReplacer(meta Metadata) Replacer {
	tokens := strings.NewReplacer("{title}", meta.Title, "{credits}", meta.Credits)
	return ReplacerFunc(func(text string) string {
		if strings.Contains(text, "{title}") || strings.Contains(text, "{credits}") {
			return tokens.Replace(text)
		}
		if titleWord.MatchString(text) {
			return meta.Title
		}
		if creditsWord.MatchString(text) {
			return meta.Credits
		}
		return text
	})
}
