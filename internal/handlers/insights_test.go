package handlers_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/serroba/podpulse/internal/handlers"
	"github.com/serroba/podpulse/internal/insights"
	"github.com/serroba/podpulse/internal/sentiment"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubGenerator struct {
	out []string
	err error
}

func (s stubGenerator) Generate(context.Context, string, insights.Meta) ([]string, error) {
	return s.out, s.err
}

type stubSummarizer struct {
	summary string
	err     error
	calls   int
}

func (s *stubSummarizer) Summarize(context.Context, string) (string, error) {
	s.calls++

	return s.summary, s.err
}

func TestInsights(t *testing.T) {
	t.Run("returns generated insights and a summary", func(t *testing.T) {
		gen := insights.WithFallback(stubGenerator{out: []string{"one", "two"}}, insights.Static, zap.NewNop())
		summarizer := &stubSummarizer{summary: "short"}
		h := handlers.NewInsightsHandler(gen, summarizer, zap.NewNop())

		resp, err := h.Get(context.Background(), &handlers.InsightsRequest{ID: "p1", Description: "long text"})

		require.NoError(t, err)
		assert.Equal(t, "p1", resp.Body.ID)
		assert.Equal(t, []string{"one", "two"}, resp.Body.Insights)
		assert.False(t, resp.Body.Fallback)
		assert.Equal(t, "short", resp.Body.Summary)
	})

	t.Run("generation failure falls back with 200", func(t *testing.T) {
		gen := insights.WithFallback(stubGenerator{err: errors.New("model loading")}, insights.Static, zap.NewNop())
		h := handlers.NewInsightsHandler(gen, nil, zap.NewNop())

		resp, err := h.Get(context.Background(), &handlers.InsightsRequest{ID: "p1"})

		require.NoError(t, err)
		assert.True(t, resp.Body.Fallback)
		assert.Equal(t, insights.Static, resp.Body.Insights)
	})

	t.Run("summary failure leaves the summary empty", func(t *testing.T) {
		gen := insights.WithFallback(stubGenerator{out: []string{"one"}}, insights.Static, zap.NewNop())
		summarizer := &stubSummarizer{err: errors.New("down")}
		h := handlers.NewInsightsHandler(gen, summarizer, zap.NewNop())

		resp, err := h.Get(context.Background(), &handlers.InsightsRequest{ID: "p1", Description: "text"})

		require.NoError(t, err)
		assert.Empty(t, resp.Body.Summary)
	})

	t.Run("no description skips the summary", func(t *testing.T) {
		gen := insights.WithFallback(stubGenerator{out: []string{"one"}}, insights.Static, zap.NewNop())
		summarizer := &stubSummarizer{summary: "unused"}
		h := handlers.NewInsightsHandler(gen, summarizer, zap.NewNop())

		_, err := h.Get(context.Background(), &handlers.InsightsRequest{ID: "p1"})

		require.NoError(t, err)
		assert.Zero(t, summarizer.calls)
	})

	t.Run("blank id is a bad request", func(t *testing.T) {
		h := handlers.NewInsightsHandler(insights.WithFallback(nil, insights.Static, zap.NewNop()), nil, zap.NewNop())

		_, err := h.Get(context.Background(), &handlers.InsightsRequest{ID: "  "})

		assertStatus(t, err, http.StatusBadRequest)
	})
}

type stubSearcher struct {
	tweets []sentiment.AnalyzedTweet
	err    error
}

func (s stubSearcher) Search(context.Context, string, string) ([]sentiment.AnalyzedTweet, error) {
	return s.tweets, s.err
}

func TestSentiment(t *testing.T) {
	t.Run("returns scored tweets", func(t *testing.T) {
		tweets := []sentiment.AnalyzedTweet{{Text: "love it", Sentiment: sentiment.Score("love it")}}
		h := handlers.NewSentimentHandler(stubSearcher{tweets: tweets}, zap.NewNop())

		resp, err := h.Get(context.Background(), &handlers.SentimentRequest{PodcastTitle: "Tech Talk"})

		require.NoError(t, err)
		assert.Equal(t, tweets, resp.Body)
	})

	t.Run("missing title is a bad request", func(t *testing.T) {
		h := handlers.NewSentimentHandler(stubSearcher{err: sentiment.ErrTitleRequired}, zap.NewNop())

		_, err := h.Get(context.Background(), &handlers.SentimentRequest{})

		assertStatus(t, err, http.StatusBadRequest)
	})

	t.Run("missing bearer token is unavailable", func(t *testing.T) {
		h := handlers.NewSentimentHandler(stubSearcher{err: sentiment.ErrNotConfigured}, zap.NewNop())

		_, err := h.Get(context.Background(), &handlers.SentimentRequest{PodcastTitle: "Tech Talk"})

		assertStatus(t, err, http.StatusServiceUnavailable)
	})
}
