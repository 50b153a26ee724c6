package enrich

import (
	"fmt"
	"strings"
)

const pinyinRules = `1. Convert Traditional Chinese to Simplified Chinese
2. Generate Hanyu Pinyin with tone marks
3. Apply special formatting rules:
   - The character 祢 must become "Nǐ" (capital N, lowercase ǐ with tone mark) - THIS IS THE ONLY EXCEPTION
   - ALL other pinyin must be completely lowercase with tone marks
   - Example: 我来到 should become "wǒ lái dào" (all lowercase)
   - Example: 你好 should become "nǐ hǎo" (all lowercase)`

// BuildPrompt returns the model prompt for texts. A single line asks for one
// JSON object, several lines for a JSON array with one item per line.
func BuildPrompt(texts []string) string {
	var sb strings.Builder
	if len(texts) == 1 {
		sb.WriteString("Process this Chinese text:\n")
		sb.WriteString(pinyinRules)
		sb.WriteString("\n4. Return ONLY a JSON object with this format: {\"simplified\": \"...\", \"pinyin\": \"...\"}\n")
		sb.WriteString("5. No explanations, no markdown, just the JSON object\n\n")
		sb.WriteString("Text: ")
		sb.WriteString(texts[0])
		return sb.String()
	}

	fmt.Fprintf(&sb, "Process these %d Chinese text lines:\n", len(texts))
	sb.WriteString(pinyinRules)
	sb.WriteString("\n4. Return ONLY a JSON array with this format: [{\"simplified\": \"...\", \"pinyin\": \"...\"}, {\"simplified\": \"...\", \"pinyin\": \"...\"}, ...]\n")
	fmt.Fprintf(&sb, "5. The array must have exactly %d items, one for each input line in order\n", len(texts))
	sb.WriteString("6. No explanations, no markdown, just the JSON array\n\nLines:\n")
	for i, t := range texts {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, t)
	}
	return strings.TrimSuffix(sb.String(), "\n")
}
