package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/podpulse/internal/library"
	"go.uber.org/zap"
)

// LibraryHandler serves bookmarks and reviews.
type LibraryHandler struct {
	service *library.Service
	logger  *zap.Logger
}

func NewLibraryHandler(service *library.Service, logger *zap.Logger) *LibraryHandler {
	return &LibraryHandler{service: service, logger: logger}
}

func (h *LibraryHandler) fail(msg string, err error, fields ...zap.Field) error {
	if !errors.Is(err, library.ErrInvalid) {
		h.logger.Error(msg, append(fields, zap.Error(err))...)
	}

	return httpError(err)
}

type BookmarksResponse struct {
	Body []library.Bookmark
}

func (h *LibraryHandler) ListBookmarks(ctx context.Context, _ *struct{}) (*BookmarksResponse, error) {
	user, err := currentUser(ctx)
	if err != nil {
		return nil, httpError(err)
	}

	bookmarks, err := h.service.Bookmarks(ctx, user)
	if err != nil {
		return nil, h.fail("failed to list bookmarks", err, zap.String("user", user))
	}

	if bookmarks == nil {
		bookmarks = []library.Bookmark{}
	}

	return &BookmarksResponse{Body: bookmarks}, nil
}

type SaveBookmarkRequest struct {
	PodcastID string `path:"podcastId"`
	Body      struct {
		Title       string `json:"podcastTitle"`
		Description string `json:"podcastDescription,omitempty"`
		Image       string `json:"podcastImage,omitempty"`
	}
}

type BookmarkResponse struct {
	Body *library.Bookmark
}

func (h *LibraryHandler) SaveBookmark(ctx context.Context, req *SaveBookmarkRequest) (*BookmarkResponse, error) {
	user, err := currentUser(ctx)
	if err != nil {
		return nil, httpError(err)
	}

	b, err := h.service.SaveBookmark(ctx, user, req.PodcastID, library.BookmarkInput{
		Title:       req.Body.Title,
		Description: req.Body.Description,
		Image:       req.Body.Image,
	})
	if err != nil {
		return nil, h.fail("failed to save bookmark", err, zap.String("user", user), zap.String("podcastId", req.PodcastID))
	}

	return &BookmarkResponse{Body: b}, nil
}

type PodcastPathRequest struct {
	PodcastID string `path:"podcastId"`
}

func (h *LibraryHandler) RemoveBookmark(ctx context.Context, req *PodcastPathRequest) (*struct{}, error) {
	user, err := currentUser(ctx)
	if err != nil {
		return nil, httpError(err)
	}

	if err := h.service.RemoveBookmark(ctx, user, req.PodcastID); err != nil {
		return nil, h.fail("failed to remove bookmark", err, zap.String("user", user), zap.String("podcastId", req.PodcastID))
	}

	return &struct{}{}, nil
}

type ReviewsResponse struct {
	Body []library.Review
}

func (h *LibraryHandler) ListReviews(ctx context.Context, req *PodcastPathRequest) (*ReviewsResponse, error) {
	reviews, err := h.service.Reviews(ctx, req.PodcastID)
	if err != nil {
		return nil, h.fail("failed to list reviews", err, zap.String("podcastId", req.PodcastID))
	}

	if reviews == nil {
		reviews = []library.Review{}
	}

	return &ReviewsResponse{Body: reviews}, nil
}

type SaveReviewRequest struct {
	PodcastID string `path:"podcastId"`
	Body      struct {
		Rating  int    `json:"rating"            maximum:"5" minimum:"1"`
		Comment string `json:"comment,omitempty" maxLength:"2000"`
	}
}

type ReviewResponse struct {
	Body *library.Review
}

func (h *LibraryHandler) SaveReview(ctx context.Context, req *SaveReviewRequest) (*ReviewResponse, error) {
	user, err := currentUser(ctx)
	if err != nil {
		return nil, httpError(err)
	}

	r, err := h.service.SaveReview(ctx, user, req.PodcastID, req.Body.Rating, req.Body.Comment)
	if err != nil {
		return nil, h.fail("failed to save review", err, zap.String("user", user), zap.String("podcastId", req.PodcastID))
	}

	return &ReviewResponse{Body: r}, nil
}

func RegisterLibraryRoutes(api huma.API, h *LibraryHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "list-bookmarks",
		Method:      http.MethodGet,
		Path:        "/bookmarks",
		Summary:     "List own bookmarks",
		Tags:        []string{"Library"},
		Metadata:    withAuth(nil),
	}, h.ListBookmarks)

	huma.Register(api, huma.Operation{
		OperationID: "save-bookmark",
		Method:      http.MethodPut,
		Path:        "/bookmarks/{podcastId}",
		Summary:     "Bookmark a podcast",
		Tags:        []string{"Library"},
		Metadata:    withAuth(nil),
	}, h.SaveBookmark)

	huma.Register(api, huma.Operation{
		OperationID:   "remove-bookmark",
		Method:        http.MethodDelete,
		Path:          "/bookmarks/{podcastId}",
		Summary:       "Remove a bookmark",
		Tags:          []string{"Library"},
		DefaultStatus: http.StatusNoContent,
		Metadata:      withAuth(nil),
	}, h.RemoveBookmark)

	huma.Register(api, huma.Operation{
		OperationID: "list-reviews",
		Method:      http.MethodGet,
		Path:        "/podcasts/{podcastId}/reviews",
		Summary:     "List podcast reviews",
		Tags:        []string{"Library"},
	}, h.ListReviews)

	huma.Register(api, huma.Operation{
		OperationID: "save-review",
		Method:      http.MethodPut,
		Path:        "/podcasts/{podcastId}/reviews",
		Summary:     "Review a podcast",
		Description: "Creates or replaces the caller's review of the podcast.",
		Tags:        []string{"Library"},
		Metadata:    withAuth(nil),
	}, h.SaveReview)
}
