package lyricdeck

import (
	"context"
	"errors"
	"time"

	"github.com/VantageDataChat/LyricDeck/internal/logging"
)

// Stage names one step of a generation run.
type Stage string

const (
	StageReadTemplate     Stage = "read_template"
	StageParseMasterDocs  Stage = "parse_master_docs"
	StageUpdateTitleSlide Stage = "update_title_slide"
	StageEmitLyricSlides  Stage = "emit_lyric_slides"
	StagePatchGraph       Stage = "patch_presentation_graph"
	StageValidate         Stage = "validate"
	StageSerialize        Stage = "serialize"
)

// StageObserver is told about every stage that runs.
type StageObserver func(stage Stage, elapsed time.Duration, err error)

// GenerateRequest is the input of a generation run.
type GenerateRequest struct {
	// Entries is the annotated preview; section entries are ignored.
	Entries  []LyricEntry
	Metadata Metadata
	// Template holds the raw .pptx bytes.
	Template []byte
}

// Result is a generated deck.
type Result struct {
	Data []byte
	// SlideCount is the number of slides produced: the title slide, if any,
	// plus one slide per lyric pair.
	SlideCount int
	Pairs      []LyricPair
}

// Generator runs the template splicing pipeline.
type Generator struct {
	logger   logging.Logger
	observer StageObserver
}

// Option configures a Generator.
type Option func(*Generator)

// WithLogger sets the logger.
func WithLogger(l logging.Logger) Option {
	return func(g *Generator) { g.logger = l }
}

// WithStageObserver sets a callback invoked after each stage.
func WithStageObserver(o StageObserver) Option {
	return func(g *Generator) { g.observer = o }
}

// NewGenerator creates a Generator.
func NewGenerator(opts ...Option) *Generator {
	g := &Generator{}
	for _, opt := range opts {
		opt(g)
	}
	g.logger = logging.OrNop(g.logger)
	return g
}

// Generate builds a deck with the default generator.
func Generate(ctx context.Context, req GenerateRequest) (*Result, error) {
	return NewGenerator().Generate(ctx, req)
}

// Generate reads the template, fills the title slide, emits one slide per
// lyric pair, patches the presentation graph, validates and serializes the
// package. Any failure aborts the whole run; no partial deck is returned.
func (g *Generator) Generate(ctx context.Context, req GenerateRequest) (*Result, error) {
	lines := LyricLines(req.Entries)
	if len(lines) == 0 {
		return nil, newError(KindValidation, "generate", ErrNoLyricLines)
	}
	if len(req.Template) == 0 {
		return nil, newError(KindValidation, "generate", ErrEmptyTemplate)
	}

	var (
		pkg    *Package
		slides TemplateSlides
		master *masterDocs
		alloc  *IDAllocator
		newIDs []SlideIdentity
		data   []byte
	)
	pairs := PairLines(lines)

	if err := g.stage(ctx, StageReadTemplate, func() (err error) {
		if pkg, err = ReadTemplate(req.Template); err != nil {
			return err
		}
		slides, err = pkg.SelectTemplateSlides(req.Metadata)
		return err
	}); err != nil {
		return nil, err
	}

	if err := g.stage(ctx, StageParseMasterDocs, func() (err error) {
		if master, err = parseMasterDocs(pkg); err != nil {
			return err
		}
		alloc = master.allocator(pkg)
		return nil
	}); err != nil {
		return nil, err
	}

	if slides.Title != "" {
		if err := g.stage(ctx, StageUpdateTitleSlide, func() error {
			return updateTitleSlide(pkg, slides.Title, req.Metadata, g.logger)
		}); err != nil {
			return nil, err
		}
	}

	if err := g.stage(ctx, StageEmitLyricSlides, func() (err error) {
		newIDs, err = emitLyricSlides(pkg, slides.Lyric, pairs, alloc, g.logger)
		return err
	}); err != nil {
		return nil, err
	}

	if err := g.stage(ctx, StagePatchGraph, func() error {
		if err := master.patch(newIDs, slides.Lyric, g.logger); err != nil {
			return err
		}
		if _, err := master.restoreOrphans(pkg, g.logger); err != nil {
			return err
		}
		master.ensureSlideContentTypes(pkg, g.logger)
		master.store(pkg)
		updateDocumentProperties(pkg, req.Metadata, master.slideCount(), g.logger)
		return nil
	}); err != nil {
		return nil, err
	}

	if err := g.stage(ctx, StageValidate, pkg.Validate); err != nil {
		return nil, err
	}

	if err := g.stage(ctx, StageSerialize, func() (err error) {
		data, err = pkg.Bytes()
		return err
	}); err != nil {
		return nil, err
	}

	slideCount := len(pairs)
	if slides.Title != "" {
		slideCount++
	}
	g.logger.Info("generated deck: %d slides (%d new parts), %d bytes", slideCount, len(newIDs), len(data))

	return &Result{Data: data, SlideCount: slideCount, Pairs: pairs}, nil
}

// stage runs fn as one pipeline step. Errors without a Kind are reported as
// synthesis failures of that stage.
func (g *Generator) stage(ctx context.Context, s Stage, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return newError(KindSynthesis, string(s), err)
	}

	start := time.Now()
	err := fn()
	elapsed := time.Since(start)

	if g.observer != nil {
		g.observer(s, elapsed, err)
	}
	if err == nil {
		g.logger.Debug("stage %s done in %s", s, elapsed)
		return nil
	}

	g.logger.Warn("stage %s failed: %v", s, err)
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	return newError(KindSynthesis, string(s), err)
}
