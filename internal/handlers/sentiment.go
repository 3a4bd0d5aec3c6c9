package handlers

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/podpulse/internal/sentiment"
	"go.uber.org/zap"
)

// TweetSearcher finds and scores recent tweets about a podcast.
type TweetSearcher interface {
	Search(ctx context.Context, title, guest string) ([]sentiment.AnalyzedTweet, error)
}

type SentimentHandler struct {
	searcher TweetSearcher
	logger   *zap.Logger
}

func NewSentimentHandler(searcher TweetSearcher, logger *zap.Logger) *SentimentHandler {
	return &SentimentHandler{searcher: searcher, logger: logger}
}

type SentimentRequest struct {
	PodcastTitle string `query:"podcastTitle" required:"true"`
	GuestName    string `query:"guestName"`
}

type SentimentResponse struct {
	Body []sentiment.AnalyzedTweet
}

func (h *SentimentHandler) Get(ctx context.Context, req *SentimentRequest) (*SentimentResponse, error) {
	tweets, err := h.searcher.Search(ctx, req.PodcastTitle, req.GuestName)
	if err != nil {
		h.logger.Error("sentiment search failed", zap.String("title", req.PodcastTitle), zap.Error(err))

		return nil, httpError(err)
	}

	return &SentimentResponse{Body: tweets}, nil
}

func RegisterSentimentRoutes(api huma.API, h *SentimentHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "podcast-sentiment",
		Method:      http.MethodGet,
		Path:        "/api/sentiment",
		Summary:     "Tweet sentiment",
		Tags:        []string{"Insights"},
	}, h.Get)
}
