package enrich

import (
	"context"
	"errors"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/VantageDataChat/LyricDeck/internal/logging"
)

const (
	DefaultCacheSize  = 2048
	DefaultRateLimit  = 15
	DefaultRateWindow = time.Minute
)

// Call outcomes reported to Hooks.OnCall.
const (
	OutcomeOK          = "ok"
	OutcomeError       = "error"
	OutcomeRateLimited = "rate_limited"
	OutcomeBadReply    = "bad_reply"
)

// Hooks observe an LLMEnricher. Every field is optional.
type Hooks struct {
	OnCall     func(outcome string, elapsed time.Duration)
	OnRetry    func(rateLimited bool)
	OnFallback func(lines int)
	OnCacheHit func(lines int)
}

func (h Hooks) call(outcome string, elapsed time.Duration) {
	if h.OnCall != nil {
		h.OnCall(outcome, elapsed)
	}
}

func (h Hooks) retry(rateLimited bool) {
	if h.OnRetry != nil {
		h.OnRetry(rateLimited)
	}
}

func (h Hooks) fallback(lines int) {
	if h.OnFallback != nil && lines > 0 {
		h.OnFallback(lines)
	}
}

func (h Hooks) cacheHit(lines int) {
	if h.OnCacheHit != nil && lines > 0 {
		h.OnCacheHit(lines)
	}
}

// LLMEnricher annotates lines with a Completer. Successful results are kept
// in an LRU cache shared by all requests; calls go through a sliding-window
// limiter and are retried according to a RetryPolicy.
type LLMEnricher struct {
	completer Completer
	retry     RetryPolicy
	limiter   *SlidingWindow
	cache     *lru.Cache[string, Result]
	hooks     Hooks
	logger    logging.Logger
}

// Option configures an LLMEnricher.
type Option func(*LLMEnricher)

// WithRetryPolicy replaces DefaultRetryPolicy.
func WithRetryPolicy(p RetryPolicy) Option {
	return func(e *LLMEnricher) { e.retry = p }
}

// WithLimiter replaces the default limiter. A nil limiter disables limiting.
func WithLimiter(l *SlidingWindow) Option {
	return func(e *LLMEnricher) { e.limiter = l }
}

// WithCacheSize sets the number of cached lines; zero or less disables the
// cache.
func WithCacheSize(n int) Option {
	return func(e *LLMEnricher) {
		e.cache = nil
		if n > 0 {
			e.cache, _ = lru.New[string, Result](n)
		}
	}
}

// WithHooks sets observation callbacks.
func WithHooks(h Hooks) Option {
	return func(e *LLMEnricher) { e.hooks = h }
}

// WithLogger sets the logger.
func WithLogger(l logging.Logger) Option {
	return func(e *LLMEnricher) { e.logger = l }
}

// NewLLMEnricher returns an enricher backed by c. A nil completer yields an
// enricher that reports ErrNotConfigured and falls back for every line.
func NewLLMEnricher(c Completer, opts ...Option) *LLMEnricher {
	e := &LLMEnricher{
		completer: c,
		retry:     DefaultRetryPolicy(),
		limiter:   NewSlidingWindow(DefaultRateLimit, DefaultRateWindow),
	}
	e.cache, _ = lru.New[string, Result](DefaultCacheSize)
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = logging.NewComponentLogger("enrich")
	}
	return e
}

// Enrich implements Enricher.
func (e *LLMEnricher) Enrich(ctx context.Context, text string) Result {
	return e.EnrichBatch(ctx, []string{text})[0]
}

// EnrichBatch implements Enricher.
func (e *LLMEnricher) EnrichBatch(ctx context.Context, texts []string) []Result {
	results, err := e.Process(ctx, texts)
	if err != nil {
		e.logger.Warn("enrichment fell back for some of %d lines: %v", len(texts), err)
	}
	return results
}

// Process annotates texts in a single model call. Cached lines and empty
// lines are not sent. When the call for several lines fails, each line is
// tried on its own. Lines that still fail fall back and err says why.
func (e *LLMEnricher) Process(ctx context.Context, texts []string) ([]Result, error) {
	results := make([]Result, len(texts))
	var (
		missIdx   []int
		missTexts []string
	)
	for i, t := range texts {
		if r, ok := e.cached(t); ok {
			results[i] = r
			continue
		}
		results[i] = Fallback(t)
		if t == "" {
			continue
		}
		missIdx = append(missIdx, i)
		missTexts = append(missTexts, t)
	}
	e.hooks.cacheHit(len(texts) - len(missIdx))
	if len(missIdx) == 0 {
		return results, nil
	}

	if e.completer == nil {
		e.hooks.fallback(len(missIdx))
		return results, ErrNotConfigured
	}

	fresh, err := e.complete(ctx, missTexts)
	if err != nil && len(missTexts) > 1 && ctx.Err() == nil && !errors.Is(err, ErrNotConfigured) {
		e.logger.Warn("batch of %d lines failed, retrying line by line: %v", len(missTexts), err)
		fresh, err = e.completeEach(ctx, missTexts)
	}

	fellBack := 0
	for k, i := range missIdx {
		results[i] = fresh[k]
		if fresh[k].Pinyin == "" {
			fellBack++
		}
	}
	e.hooks.fallback(fellBack)
	return results, err
}

// completeEach runs one model call per text, so a line the model or the API
// refuses only costs that line. The error reports the first failure.
func (e *LLMEnricher) completeEach(ctx context.Context, texts []string) ([]Result, error) {
	out := make([]Result, len(texts))
	var (
		firstErr error
		failed   int
	)
	for i, t := range texts {
		if ctx.Err() != nil {
			out[i] = Fallback(t)
			failed++
			continue
		}
		r, err := e.complete(ctx, []string{t})
		out[i] = r[0]
		if err != nil {
			failed++
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	if firstErr == nil && failed > 0 {
		firstErr = ctx.Err()
	}
	if firstErr != nil {
		return out, fmt.Errorf("%d of %d lines fell back: %w", failed, len(texts), firstErr)
	}
	return out, nil
}

func (e *LLMEnricher) cached(text string) (Result, bool) {
	if e.cache == nil || text == "" {
		return Result{}, false
	}
	return e.cache.Get(text)
}

// complete runs one model call for texts with retries. It always returns
// len(texts) results.
func (e *LLMEnricher) complete(ctx context.Context, texts []string) ([]Result, error) {
	prompt := BuildPrompt(texts)

	var reply string
	err := e.retry.Do(ctx, func(ctx context.Context, attempt int) error {
		if err := e.limiter.Wait(ctx); err != nil {
			return &PermanentError{Err: err}
		}
		start := time.Now()
		out, err := e.completer.Complete(ctx, prompt)
		switch {
		case err == nil:
			e.hooks.call(OutcomeOK, time.Since(start))
			reply = out
		case IsRateLimited(err):
			e.hooks.call(OutcomeRateLimited, time.Since(start))
		default:
			e.hooks.call(OutcomeError, time.Since(start))
		}
		return err
	}, func(attempt int, err error, wait time.Duration) {
		rateLimited := IsRateLimited(err)
		e.hooks.retry(rateLimited)
		e.logger.Warn("model call attempt %d/%d failed (rate limited: %v), retrying in %s: %v",
			attempt, e.retry.MaxAttempts, rateLimited, wait, err)
	})
	if err != nil {
		if IsRateLimited(err) {
			return fallbacks(texts), fmt.Errorf("%w: %v", ErrRateLimited, unwrapClassified(err))
		}
		return fallbacks(texts), fmt.Errorf("API request failed after retries: %w", unwrapClassified(err))
	}

	results, err := parseReply(reply, texts)
	if err != nil {
		e.hooks.call(OutcomeBadReply, 0)
		e.logger.Warn("unusable model reply for %d lines: %v", len(texts), err)
		return results, err
	}

	for i, r := range results {
		if r.Pinyin != "" && e.cache != nil {
			e.cache.Add(texts[i], r)
		}
	}
	return results, nil
}

// unwrapClassified strips the retry classification wrapper.
func unwrapClassified(err error) error {
	var te *TransientError
	if errors.As(err, &te) {
		return te.Err
	}
	var pe *PermanentError
	if errors.As(err, &pe) {
		return pe.Err
	}
	return err
}
