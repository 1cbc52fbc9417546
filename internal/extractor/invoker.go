package extractor

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"golang.org/x/time/rate"

	"github.com/MikeSquared-Agency/intake/internal/metrics"
)

// Generator produces text for a prompt from a named model.
type Generator interface {
	Generate(ctx context.Context, model, prompt string) (string, error)
}

// Invoker tries model candidates one at a time until one answers.
type Invoker struct {
	gen     Generator
	limiter *rate.Limiter
	metrics *metrics.Extraction
	logger  *slog.Logger
}

func NewInvoker(gen Generator, limiter *rate.Limiter, m *metrics.Extraction, logger *slog.Logger) *Invoker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Invoker{gen: gen, limiter: limiter, metrics: m, logger: logger}
}

// Invoke returns the first candidate answer with non-empty text. Candidates
// are never called concurrently and none is called after a success.
func (inv *Invoker) Invoke(ctx context.Context, prompt string, candidates []string) (Response, error) {
	var failures []CandidateFailure

	for _, candidate := range candidates {
		if err := ctx.Err(); err != nil {
			return Response{}, contextError(err, failures)
		}
		if inv.limiter != nil {
			if err := inv.limiter.Wait(ctx); err != nil {
				return Response{}, contextError(err, failures)
			}
		}

		attempt := inv.try(ctx, candidate, prompt)
		inv.metrics.ObserveAttempt(candidate, attempt.OK())
		if attempt.OK() {
			inv.logger.Info("model candidate answered", "candidate", candidate, "text_len", len(attempt.Text))
			return Response{Candidate: candidate, Text: attempt.Text}, nil
		}

		inv.logger.Warn("model candidate failed", "candidate", candidate, "error", attempt.Err)
		failures = append(failures, CandidateFailure{Candidate: candidate, Err: attempt.Err})

		// A dead context fails every later candidate too; report it as such.
		if err := ctx.Err(); err != nil {
			return Response{}, contextError(err, failures)
		}
	}

	return Response{}, &Error{
		Kind:     KindAllCandidatesExhausted,
		Msg:      "no candidate returned usable text",
		Failures: failures,
	}
}

func (inv *Invoker) try(ctx context.Context, candidate, prompt string) Attempt {
	text, err := inv.gen.Generate(ctx, candidate, prompt)
	if err != nil {
		return Attempt{Candidate: candidate, Err: err}
	}
	if strings.TrimSpace(text) == "" {
		return Attempt{Candidate: candidate, Err: errors.New("empty response text")}
	}
	return Attempt{Candidate: candidate, Text: text}
}

// contextError maps a context (or limiter) failure to Timeout or Canceled.
// rate.Limiter.Wait reports a deadline it cannot meet before the context
// itself expires, so anything that isn't a cancellation counts as a timeout.
func contextError(err error, failures []CandidateFailure) *Error {
	if errors.Is(err, context.Canceled) {
		return &Error{Kind: KindCanceled, Failures: failures, Err: err}
	}
	return &Error{Kind: KindTimeout, Failures: failures, Err: err}
}
