package extractor

import (
	"fmt"
	"strings"
)

type Kind string

const (
	KindEmptyInput             Kind = "EmptyInput"
	KindAllCandidatesExhausted Kind = "AllCandidatesExhausted"
	KindMalformedResponse      Kind = "MalformedResponse"
	KindTimeout                Kind = "Timeout"
	KindCanceled               Kind = "Canceled"
)

func (k Kind) describe() string {
	switch k {
	case KindEmptyInput:
		return "empty transcript"
	case KindAllCandidatesExhausted:
		return "all model candidates failed"
	case KindMalformedResponse:
		return "malformed model response"
	case KindTimeout:
		return "extraction timed out"
	case KindCanceled:
		return "extraction canceled"
	default:
		return "extraction failed"
	}
}

// Sentinels for errors.Is; any *Error of the same kind matches.
var (
	ErrEmptyInput             = &Error{Kind: KindEmptyInput}
	ErrAllCandidatesExhausted = &Error{Kind: KindAllCandidatesExhausted}
	ErrMalformedResponse      = &Error{Kind: KindMalformedResponse}
	ErrTimeout                = &Error{Kind: KindTimeout}
	ErrCanceled               = &Error{Kind: KindCanceled}
)

// CandidateFailure is why a single candidate was skipped.
type CandidateFailure struct {
	Candidate string
	Err       error
}

// Error is the typed failure of an extraction.
type Error struct {
	Kind     Kind
	Msg      string
	Failures []CandidateFailure
	Err      error
}

func (e *Error) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Kind.describe())
	if e.Msg != "" {
		sb.WriteString(": ")
		sb.WriteString(e.Msg)
	}
	for _, f := range e.Failures {
		fmt.Fprintf(&sb, "; %s: %v", f.Candidate, f.Err)
	}
	if e.Err != nil {
		fmt.Fprintf(&sb, ": %v", e.Err)
	}
	return sb.String()
}

func (e *Error) Unwrap() []error {
	var errs []error
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	for _, f := range e.Failures {
		errs = append(errs, f.Err)
	}
	return errs
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}
