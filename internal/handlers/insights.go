package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/podpulse/internal/insights"
	"go.uber.org/zap"
)

// InsightsHandler serves generated podcast takeaways. Generation never fails
// the request; the summary is best effort.
type InsightsHandler struct {
	generator  *insights.Fallback
	summarizer insights.Summarizer
	logger     *zap.Logger
}

// NewInsightsHandler creates the handler. summarizer may be nil.
func NewInsightsHandler(generator *insights.Fallback, summarizer insights.Summarizer, logger *zap.Logger) *InsightsHandler {
	return &InsightsHandler{generator: generator, summarizer: summarizer, logger: logger}
}

type InsightsRequest struct {
	ID          string `doc:"Podcast id"               query:"id"          required:"true"`
	Title       string `doc:"Podcast title"            query:"title"`
	Category    string `doc:"Podcast category"         query:"category"`
	Description string `doc:"Description to summarize" query:"description"`
}

type InsightsResponse struct {
	Body struct {
		ID       string   `json:"id"`
		Insights []string `json:"insights"`
		Fallback bool     `json:"fallback"`
		Summary  string   `json:"summary,omitempty"`
	}
}

func (h *InsightsHandler) Get(ctx context.Context, req *InsightsRequest) (*InsightsResponse, error) {
	id := strings.TrimSpace(req.ID)
	if id == "" {
		return nil, huma.Error400BadRequest("podcast id is required")
	}

	result := h.generator.Generate(ctx, req.Description, insights.Meta{
		PodcastID: id,
		Title:     req.Title,
		Category:  req.Category,
	})

	resp := &InsightsResponse{}
	resp.Body.ID = id
	resp.Body.Insights = result.Insights
	resp.Body.Fallback = result.Fallback

	if h.summarizer != nil && strings.TrimSpace(req.Description) != "" {
		summary, err := h.summarizer.Summarize(ctx, req.Description)
		if err != nil {
			h.logger.Warn("summary failed", zap.String("podcastId", id), zap.Error(err))
		}

		resp.Body.Summary = summary
	}

	return resp, nil
}

func RegisterInsightsRoutes(api huma.API, h *InsightsHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "podcast-insights",
		Method:      http.MethodGet,
		Path:        "/api/insights",
		Summary:     "Podcast insights",
		Description: "Generated takeaways for a podcast. Falls back to a static sequence when generation fails.",
		Tags:        []string{"Insights"},
	}, h.Get)
}
