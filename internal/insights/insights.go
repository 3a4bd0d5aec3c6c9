// Package insights generates short podcast takeaways from third-party text
// models, degrading to a static sequence when the model cannot help.
package insights

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
)

// ErrEmpty is returned when a model answered but produced nothing usable.
var ErrEmpty = errors.New("no insights generated")

// Meta describes the podcast the insights are generated for.
type Meta struct {
	PodcastID string
	Title     string
	Category  string
}

type Generator interface {
	Generate(ctx context.Context, text string, meta Meta) ([]string, error)
}

type Summarizer interface {
	Summarize(ctx context.Context, text string) (string, error)
}

// Static is served whenever generation fails.
var Static = []string{
	"This podcast dives into fascinating discussions about technology and innovation.",
	"The host engages with industry experts to provide actionable insights.",
	"Listeners have praised the quality of storytelling and expert curation.",
}

type Result struct {
	Insights []string `json:"insights"`
	Fallback bool     `json:"fallback"`
}

// Fallback wraps a Generator so callers always get a sequence back.
type Fallback struct {
	gen      Generator
	fallback []string
	logger   *zap.Logger
}

func WithFallback(gen Generator, fallback []string, logger *zap.Logger) *Fallback {
	return &Fallback{gen: gen, fallback: fallback, logger: logger}
}

func (f *Fallback) Generate(ctx context.Context, text string, meta Meta) Result {
	if f.gen == nil {
		return f.static()
	}

	out, err := f.gen.Generate(ctx, text, meta)
	if err != nil {
		f.logger.Warn("insight generation failed, serving fallback",
			zap.String("podcastId", meta.PodcastID),
			zap.Error(err),
		)

		return f.static()
	}

	if len(out) == 0 {
		return f.static()
	}

	return Result{Insights: out}
}

func (f *Fallback) static() Result {
	out := make([]string, len(f.fallback))
	copy(out, f.fallback)

	return Result{Insights: out, Fallback: true}
}

func splitLines(raw string, keep func(string) bool) []string {
	lines := make([]string, 0)

	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if keep(line) {
			lines = append(lines, line)
		}
	}

	return lines
}
