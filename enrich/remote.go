package enrich

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/VantageDataChat/LyricDeck/internal/logging"
)

// ProcessPath is the route of the enrichment contract.
const ProcessPath = "/api/process-lyrics"

// ProcessRequest is the body of a process-lyrics call: either one text or a
// batch of texts.
type ProcessRequest struct {
	Text  string   `json:"text,omitempty"`
	Texts []string `json:"texts,omitempty"`
}

// Batch reports whether the request uses the batch form.
func (r ProcessRequest) Batch() bool {
	return len(r.Texts) > 0
}

// Lines returns the texts to process.
func (r ProcessRequest) Lines() []string {
	if r.Batch() {
		return r.Texts
	}
	if r.Text != "" {
		return []string{r.Text}
	}
	return nil
}

// SingleResponse answers a single-text request.
type SingleResponse struct {
	Error      string `json:"error,omitempty"`
	Simplified string `json:"simplified"`
	Pinyin     string `json:"pinyin"`
}

// BatchResponse answers a batch request.
type BatchResponse struct {
	Error   string   `json:"error,omitempty"`
	Results []Result `json:"results"`
}

// RemoteEnricher calls the process-lyrics endpoint of another server.
type RemoteEnricher struct {
	baseURL string
	client  *http.Client
	logger  logging.Logger
}

// NewRemoteEnricher returns an enricher for the server at baseURL.
func NewRemoteEnricher(baseURL string, timeout time.Duration, logger logging.Logger) *RemoteEnricher {
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	if logger == nil {
		logger = logging.NewComponentLogger("enrich-remote")
	}
	return &RemoteEnricher{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// Enrich implements Enricher.
func (r *RemoteEnricher) Enrich(ctx context.Context, text string) Result {
	return r.EnrichBatch(ctx, []string{text})[0]
}

// EnrichBatch implements Enricher.
func (r *RemoteEnricher) EnrichBatch(ctx context.Context, texts []string) []Result {
	results, err := r.Process(ctx, texts)
	if err != nil {
		r.logger.Warn("remote enrichment fell back for some of %d lines: %v", len(texts), err)
	}
	return results
}

// Process implements Processor. Transport failures fall back for every line.
func (r *RemoteEnricher) Process(ctx context.Context, texts []string) ([]Result, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	req := ProcessRequest{Texts: texts}
	if len(texts) == 1 {
		req = ProcessRequest{Text: texts[0]}
	}
	body, err := r.post(ctx, req)
	if err != nil {
		return fallbacks(texts), err
	}

	if !req.Batch() {
		var single SingleResponse
		if err := json.Unmarshal(body, &single); err != nil {
			return fallbacks(texts), fmt.Errorf("failed to decode response: %w", err)
		}
		res := withOriginal(Result{Simplified: single.Simplified, Pinyin: single.Pinyin}, texts[0])
		return []Result{res}, remoteError(single.Error)
	}

	var batch BatchResponse
	if err := json.Unmarshal(body, &batch); err != nil {
		return fallbacks(texts), fmt.Errorf("failed to decode response: %w", err)
	}
	out := make([]Result, len(texts))
	for i, t := range texts {
		if i < len(batch.Results) {
			out[i] = withOriginal(batch.Results[i], t)
			continue
		}
		out[i] = Fallback(t)
	}
	return out, remoteError(batch.Error)
}

func (r *RemoteEnricher) post(ctx context.Context, body ProcessRequest) ([]byte, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+ProcessPath, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s returned %d: %s", ProcessPath, resp.StatusCode, strings.TrimSpace(string(data)))
	}
	return data, nil
}

func remoteError(msg string) error {
	if msg == "" {
		return nil
	}
	return errors.New(msg)
}
