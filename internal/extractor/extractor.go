package extractor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/MikeSquared-Agency/intake/internal/metrics"
)

// Config is everything the facade needs besides the backend itself.
type Config struct {
	Candidates []string
	// Timeout bounds a whole extraction; zero leaves it to the caller's context.
	Timeout time.Duration
	Limiter *rate.Limiter
	Metrics *metrics.Extraction
}

type Extractor struct {
	invoker    *Invoker
	candidates []string
	timeout    time.Duration
	metrics    *metrics.Extraction
	logger     *slog.Logger
}

func New(gen Generator, cfg Config, logger *slog.Logger) (*Extractor, error) {
	if gen == nil {
		return nil, errors.New("extractor: generator is required")
	}
	var candidates []string
	for _, c := range cfg.Candidates {
		if c = strings.TrimSpace(c); c != "" {
			candidates = append(candidates, c)
		}
	}
	if len(candidates) == 0 {
		return nil, errors.New("extractor: at least one model candidate is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{
		invoker:    NewInvoker(gen, cfg.Limiter, cfg.Metrics, logger),
		candidates: candidates,
		timeout:    cfg.Timeout,
		metrics:    cfg.Metrics,
		logger:     logger,
	}, nil
}

// Candidates returns the model fallback order.
func (e *Extractor) Candidates() []string {
	return append([]string(nil), e.candidates...)
}

// ExtractPatientData turns a transcript into the canonical record.
func (e *Extractor) ExtractPatientData(ctx context.Context, transcript string) (Record, error) {
	res, err := e.Extract(ctx, transcript)
	if err != nil {
		return Record{}, err
	}
	return res.Record, nil
}

// Extract is ExtractPatientData plus the candidate and raw text that produced
// the record.
func (e *Extractor) Extract(ctx context.Context, transcript string) (*Result, error) {
	start := time.Now()
	res, err := e.extract(ctx, transcript)

	kind := "ok"
	var extErr *Error
	if errors.As(err, &extErr) {
		kind = string(extErr.Kind)
	}
	e.metrics.ObserveResult(kind, time.Since(start).Seconds())
	return res, err
}

func (e *Extractor) extract(ctx context.Context, transcript string) (*Result, error) {
	if strings.TrimSpace(transcript) == "" {
		return nil, &Error{Kind: KindEmptyInput, Msg: "transcript is blank"}
	}

	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	e.logger.Info("extracting patient data",
		"transcript_len", len(transcript),
		"candidates", len(e.candidates),
	)

	resp, err := e.invoker.Invoke(ctx, BuildPrompt(transcript), e.candidates)
	if err != nil {
		e.logger.Error("extraction failed", "error", err)
		return nil, err
	}

	// A parse failure ends the extraction; the next candidate is not tried.
	rec, err := Normalize(resp.Text)
	if err != nil {
		e.logger.Error("failed to parse extraction response",
			"candidate", resp.Candidate,
			"error", err,
		)
		return nil, fmt.Errorf("candidate %s: %w", resp.Candidate, err)
	}

	e.logger.Info("extraction complete",
		"candidate", resp.Candidate,
		"name_captured", rec.PatientName != nil,
		"symptom_captured", rec.PrimarySymptom != nil,
	)

	return &Result{Record: rec, Candidate: resp.Candidate, RawText: resp.Text}, nil
}
