package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/VantageDataChat/LyricDeck"
	"github.com/VantageDataChat/LyricDeck/enrich"
)

const (
	slideCountHeader = "X-Slide-Count"
	downloadName     = "lyrics-slides.pptx"
)

type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

type parseRequest struct {
	Lyrics string `json:"lyrics"`
	// Enrich annotates the preview in the same call.
	Enrich bool `json:"enrich"`
}

type parseResponse struct {
	Preview    []lyricdeck.LyricEntry `json:"preview"`
	Metadata   lyricdeck.Metadata     `json:"metadata"`
	LyricLines int                    `json:"lyricLines"`
}

type generateRequest struct {
	Preview        []lyricdeck.LyricEntry `json:"preview"`
	Metadata       lyricdeck.Metadata     `json:"metadata"`
	TemplateBase64 string                 `json:"templateBase64"`
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "version": lyricdeck.Version})
}

// handleProcessLyrics implements the enrichment contract. It always answers
// 200; failures are reported in the error field next to fallback results.
func (s *Server) handleProcessLyrics(c *gin.Context) {
	var req enrich.ProcessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusOK, enrich.SingleResponse{Error: "Failed to process lyrics: " + err.Error()})
		return
	}

	lines := req.Lines()
	if len(lines) == 0 {
		c.JSON(http.StatusOK, enrich.SingleResponse{Error: "Text is required"})
		return
	}

	if !req.Batch() {
		results, err := s.enricher.Process(c.Request.Context(), lines)
		resp := enrich.SingleResponse{Simplified: results[0].Simplified, Pinyin: results[0].Pinyin}
		if err != nil {
			resp.Error = err.Error()
		}
		c.JSON(http.StatusOK, resp)
		return
	}

	resp := enrich.BatchResponse{Results: make([]enrich.Result, 0, len(lines))}
	for start := 0; start < len(lines); start += s.batchSize {
		end := min(start+s.batchSize, len(lines))
		results, err := s.enricher.Process(c.Request.Context(), lines[start:end])
		if err != nil && resp.Error == "" {
			resp.Error = err.Error()
		}
		resp.Results = append(resp.Results, results...)
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleParseLyrics(c *gin.Context) {
	var req parseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badBody(c, err)
		return
	}

	entries, meta := lyricdeck.ParseLyrics(req.Lyrics)
	lyricCount := len(lyricdeck.LyricLines(entries))
	if lyricCount == 0 {
		c.JSON(http.StatusBadRequest, errorResponse{Error: lyricdeck.ErrNoLyricLines.Error()})
		return
	}
	if req.Enrich {
		entries = enrich.Annotate(c.Request.Context(), s.enricher, entries, s.batchSize)
	}

	c.JSON(http.StatusOK, parseResponse{Preview: entries, Metadata: meta, LyricLines: lyricCount})
}

func (s *Server) handleGeneratePPTX(c *gin.Context) {
	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badBody(c, err)
		return
	}
	if req.Preview == nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "Preview data is required"})
		return
	}
	if req.TemplateBase64 == "" {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "Template file is required. Please upload a template first."})
		return
	}

	template, err := lyricdeck.DecodeTemplateBase64(req.TemplateBase64)
	if err != nil {
		s.generateFailed(c, err)
		return
	}

	res, err := s.generator.Generate(c.Request.Context(), lyricdeck.GenerateRequest{
		Entries:  req.Preview,
		Metadata: req.Metadata,
		Template: template,
	})
	if err != nil {
		s.generateFailed(c, err)
		return
	}
	s.metrics.ObserveGeneration(res.SlideCount, nil)

	c.Header("Content-Disposition", `attachment; filename="`+downloadName+`"`)
	c.Header(slideCountHeader, strconv.Itoa(res.SlideCount))
	c.Data(http.StatusOK, lyricdeck.ContentTypePresentation, res.Data)
}

func (s *Server) badBody(c *gin.Context, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		c.JSON(http.StatusRequestEntityTooLarge, errorResponse{
			Error:   "Request body is too large",
			Details: "limit is " + strconv.FormatInt(tooLarge.Limit, 10) + " bytes",
		})
		return
	}
	c.JSON(http.StatusBadRequest, errorResponse{Error: "Invalid request body", Details: err.Error()})
}

// generateFailed maps a generation error to a status code and message:
// caller and template problems are 400, everything else 500.
func (s *Server) generateFailed(c *gin.Context, err error) {
	s.metrics.ObserveGeneration(0, err)

	status := http.StatusBadRequest
	var msg string
	switch {
	case errors.Is(err, lyricdeck.ErrNoLyricLines):
		msg = "No lyric lines found in preview."
	case errors.Is(err, lyricdeck.ErrNoSlides):
		msg = "Template file has no slides. Please use a valid PowerPoint template."
	case errors.Is(err, lyricdeck.ErrNeedsTwoSlides):
		msg = "Template needs at least 2 slides when Title/Credits are given."
	case errors.Is(err, lyricdeck.ErrInvalidTemplate), errors.Is(err, lyricdeck.ErrEmptyTemplate):
		msg = "Template file is invalid. Please upload a valid .pptx file."
	default:
		switch lyricdeck.KindOf(err) {
		case lyricdeck.KindValidation:
			msg = "Invalid request"
		case lyricdeck.KindTemplate:
			msg = "Template file is invalid. Please upload a valid .pptx file."
		default:
			status = http.StatusInternalServerError
			msg = "Failed to generate PPTX"
		}
	}

	s.logger.Warn("generate-pptx failed (%s): %v", lyricdeck.KindOf(err), err)
	c.JSON(status, errorResponse{Error: msg, Details: err.Error()})
}
