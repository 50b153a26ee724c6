package lyricdeck

import (
	"errors"
	"fmt"
)

// Kind classifies a generation failure for the caller.
type Kind int

const (
	// KindValidation reports bad caller input; nothing was processed.
	KindValidation Kind = iota + 1
	// KindTemplate reports a structurally unusable template package.
	KindTemplate
	// KindSynthesis reports a failure while building the output package.
	KindSynthesis
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindTemplate:
		return "template"
	case KindSynthesis:
		return "synthesis"
	default:
		return "unknown"
	}
}

var (
	ErrNoLyricLines    = errors.New("no lyric lines found")
	ErrEmptyTemplate   = errors.New("template is empty")
	ErrInvalidTemplate = errors.New("template is not a valid pptx package")
	ErrNoSlides        = errors.New("template has no slides")
	ErrNeedsTwoSlides  = errors.New("template needs at least 2 slides when a title slide is requested")
	ErrMissingPart     = errors.New("required part missing from package")
)

// Error is the error type returned by Generate and the package reader.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Op == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf returns the classification of err. Errors that do not carry a Kind
// are treated as synthesis failures.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindSynthesis
}
