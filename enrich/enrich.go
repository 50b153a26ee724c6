// Package enrich annotates lyric lines with Simplified Chinese text and
// tone-marked Hanyu Pinyin using a language model.
//
// Enrichment never fails a caller: a line that cannot be annotated falls back
// to its original text with empty pinyin. Processors additionally report why
// lines fell back so an HTTP handler can surface the reason.
package enrich

import (
	"context"
	"errors"

	"github.com/VantageDataChat/LyricDeck"
)

// DefaultBatchSize is the number of lines sent to the model per request.
const DefaultBatchSize = 10

var (
	ErrNotConfigured  = errors.New("GEMINI_API_KEY is not configured")
	ErrRateLimited    = errors.New("rate limit exceeded, please wait and try again")
	ErrEmptyResponse  = errors.New("empty response from API")
	ErrNoJSON         = errors.New("no valid JSON in API response")
	ErrUnexpectedJSON = errors.New("invalid response format")
)

// Result is the annotation of one line.
type Result struct {
	Simplified string `json:"simplified"`
	Pinyin     string `json:"pinyin"`
}

// Fallback is the result used when text could not be annotated.
func Fallback(text string) Result {
	return Result{Simplified: text}
}

// Enricher annotates lines. EnrichBatch returns exactly one result per input
// text, in input order.
type Enricher interface {
	Enrich(ctx context.Context, text string) Result
	EnrichBatch(ctx context.Context, texts []string) []Result
}

// Processor is an Enricher that also reports why lines fell back. The
// results are complete even when err is non-nil.
type Processor interface {
	Enricher
	Process(ctx context.Context, texts []string) ([]Result, error)
}

func fallbacks(texts []string) []Result {
	out := make([]Result, len(texts))
	for i, t := range texts {
		out[i] = Fallback(t)
	}
	return out
}

// Annotate fills Simplified and Pinyin of every lyric entry, sending lines to
// e in batches of batchSize (DefaultBatchSize when batchSize is not in
// 1..DefaultBatchSize). Section entries are copied unchanged; the input slice
// is not modified.
func Annotate(ctx context.Context, e Enricher, entries []lyricdeck.LyricEntry, batchSize int) []lyricdeck.LyricEntry {
	if batchSize <= 0 || batchSize > DefaultBatchSize {
		batchSize = DefaultBatchSize
	}
	out := make([]lyricdeck.LyricEntry, len(entries))
	copy(out, entries)

	var idx []int
	for i, entry := range out {
		if entry.IsLyric() {
			idx = append(idx, i)
		}
	}

	for start := 0; start < len(idx); start += batchSize {
		end := min(start+batchSize, len(idx))
		texts := make([]string, 0, end-start)
		for _, i := range idx[start:end] {
			texts = append(texts, out[i].Original)
		}

		results := e.EnrichBatch(ctx, texts)
		for k, i := range idx[start:end] {
			r := Fallback(out[i].Original)
			if k < len(results) {
				r = results[k]
			}
			if r.Simplified == "" {
				r.Simplified = out[i].Original
			}
			out[i].Simplified = r.Simplified
			out[i].Pinyin = r.Pinyin
		}
	}
	return out
}
