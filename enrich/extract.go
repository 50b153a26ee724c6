package enrich

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/kaptinlin/jsonrepair"
)

var (
	fenceRe    = regexp.MustCompile("```(?:json)?")
	embeddedRe = regexp.MustCompile(`\[[\s\S]*\]|\{[\s\S]*\}`)
)

// extractJSON decodes the model reply into v. It strips markdown fences,
// then tries the whole reply, the first embedded array or object, and finally
// a repaired version of the reply (or of the embedded candidate when the
// reply has leading prose).
func extractJSON(reply string, v any) error {
	text := strings.TrimSpace(fenceRe.ReplaceAllString(reply, ""))
	if text == "" {
		return ErrEmptyResponse
	}
	if err := json.Unmarshal([]byte(text), v); err == nil {
		return nil
	}

	candidate := embeddedRe.FindString(text)
	if candidate != "" {
		if err := json.Unmarshal([]byte(candidate), v); err == nil {
			return nil
		}
	}

	source := candidate
	if strings.HasPrefix(text, "[") || strings.HasPrefix(text, "{") {
		source = text
	}
	if source == "" {
		return ErrNoJSON
	}
	repaired, err := jsonrepair.JSONRepair(source)
	if err != nil {
		return fmt.Errorf("failed to parse API response: %w", err)
	}
	if err := json.Unmarshal([]byte(repaired), v); err != nil {
		return fmt.Errorf("failed to parse API response: %w", err)
	}
	return nil
}

// parseReply turns a model reply into one result per text. Items that are
// missing or empty fall back individually; a reply of the wrong shape fails
// as a whole.
func parseReply(reply string, texts []string) ([]Result, error) {
	if len(texts) == 1 {
		var single Result
		if err := extractJSON(reply, &single); err != nil {
			return fallbacks(texts), err
		}
		if single.Simplified == "" && single.Pinyin == "" {
			return fallbacks(texts), ErrEmptyResponse
		}
		return []Result{withOriginal(single, texts[0])}, nil
	}

	var items []*Result
	if err := extractJSON(reply, &items); err != nil {
		var ute *json.UnmarshalTypeError
		if errors.As(err, &ute) {
			return fallbacks(texts), fmt.Errorf("%w: expected array", ErrUnexpectedJSON)
		}
		return fallbacks(texts), err
	}

	out := make([]Result, len(texts))
	for i, t := range texts {
		if i < len(items) && items[i] != nil {
			out[i] = withOriginal(*items[i], t)
			continue
		}
		out[i] = Fallback(t)
	}
	return out, nil
}

// withOriginal fills an empty Simplified with the original text.
func withOriginal(r Result, text string) Result {
	if r.Simplified == "" {
		r.Simplified = text
	}
	return r
}
