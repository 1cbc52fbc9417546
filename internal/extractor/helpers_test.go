package extractor

import (
	"context"
	"io"
	"log/slog"
	"sync"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type stubAnswer struct {
	text string
	err  error
}

// stubGenerator answers per model and records the call order.
type stubGenerator struct {
	mu      sync.Mutex
	answers map[string]stubAnswer
	calls   []string
	prompts []string
	onCall  func(model string)
}

func (g *stubGenerator) Generate(ctx context.Context, model, prompt string) (string, error) {
	g.mu.Lock()
	g.calls = append(g.calls, model)
	g.prompts = append(g.prompts, prompt)
	onCall := g.onCall
	g.mu.Unlock()

	if onCall != nil {
		onCall(model)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	a, ok := g.answers[model]
	if !ok {
		return "", io.ErrUnexpectedEOF
	}
	return a.text, a.err
}

func (g *stubGenerator) Calls() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.calls...)
}
