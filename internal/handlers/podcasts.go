package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/podpulse/internal/spotify"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

// Genre search placeholders for fields Spotify leaves empty.
const (
	PlaceholderDescription = "No description available."
	PlaceholderImage       = "/placeholder.png"
	PlaceholderPublisher   = "Unknown Publisher"

	FeaturedLimit = 10
)

// Catalog is the slice of the Spotify client the podcast routes use.
type Catalog interface {
	Token(ctx context.Context) (*oauth2.Token, error)
	Show(ctx context.Context, token *oauth2.Token, id string) (*spotify.Show, error)
	SearchShows(ctx context.Context, token *oauth2.Token, q string, limit, offset int) ([]spotify.Show, error)
	Charts(ctx context.Context, token *oauth2.Token) ([]spotify.RankedShow, error)
	FeaturedPlaylists(ctx context.Context, token *oauth2.Token, limit int) ([]spotify.Playlist, error)
}

type PodcastHandler struct {
	catalog Catalog
	logger  *zap.Logger
}

func NewPodcastHandler(catalog Catalog, logger *zap.Logger) *PodcastHandler {
	return &PodcastHandler{catalog: catalog, logger: logger}
}

func (h *PodcastHandler) token(ctx context.Context) (*oauth2.Token, error) {
	tok, err := h.catalog.Token(ctx)
	if err != nil {
		h.logger.Error("failed to obtain spotify token", zap.Error(err))

		return nil, httpError(err)
	}

	return tok, nil
}

type SearchPodcastsRequest struct {
	Q      string `default:"technology" query:"q"`
	Limit  int    `default:"20"         maximum:"50" minimum:"1" query:"limit"`
	Offset int    `default:"0"          minimum:"0"  query:"offset"`
}

type ShowsResponse struct {
	Body []spotify.Show
}

func (h *PodcastHandler) Search(ctx context.Context, req *SearchPodcastsRequest) (*ShowsResponse, error) {
	tok, err := h.token(ctx)
	if err != nil {
		return nil, err
	}

	shows, err := h.catalog.SearchShows(ctx, tok, req.Q, req.Limit, req.Offset)
	if err != nil {
		h.logger.Error("podcast search failed", zap.String("q", req.Q), zap.Error(err))

		return nil, httpError(err)
	}

	return &ShowsResponse{Body: shows}, nil
}

type GenreRequest struct {
	Genre  string `path:"genre"`
	Limit  int    `default:"20" maximum:"50" minimum:"1" query:"limit"`
	Offset int    `default:"0"  minimum:"0"  query:"offset"`
}

// Genre searches by genre and fills blank fields with placeholders.
func (h *PodcastHandler) Genre(ctx context.Context, req *GenreRequest) (*ShowsResponse, error) {
	genre := strings.TrimSpace(req.Genre)
	if genre == "" {
		return nil, huma.Error400BadRequest("genre parameter is required")
	}

	tok, err := h.token(ctx)
	if err != nil {
		return nil, err
	}

	shows, err := h.catalog.SearchShows(ctx, tok, genre, req.Limit, req.Offset)
	if err != nil {
		h.logger.Error("genre search failed", zap.String("genre", genre), zap.Error(err))

		return nil, httpError(err)
	}

	for i := range shows {
		withPlaceholders(&shows[i])
	}

	return &ShowsResponse{Body: shows}, nil
}

func withPlaceholders(s *spotify.Show) {
	if s.Description == "" {
		s.Description = PlaceholderDescription
	}

	if s.Image == "" {
		s.Image = PlaceholderImage
	}

	if s.Publisher == "" {
		s.Publisher = PlaceholderPublisher
	}
}

type ShowRequest struct {
	ID string `path:"id"`
}

type ShowResponse struct {
	Body *spotify.Show
}

func (h *PodcastHandler) Show(ctx context.Context, req *ShowRequest) (*ShowResponse, error) {
	tok, err := h.token(ctx)
	if err != nil {
		return nil, err
	}

	show, err := h.catalog.Show(ctx, tok, req.ID)
	if err != nil {
		h.logger.Error("show lookup failed", zap.String("id", req.ID), zap.Error(err))

		return nil, httpError(err)
	}

	return &ShowResponse{Body: show}, nil
}

type ChartsResponse struct {
	Body []spotify.RankedShow
}

func (h *PodcastHandler) Charts(ctx context.Context, _ *struct{}) (*ChartsResponse, error) {
	tok, err := h.token(ctx)
	if err != nil {
		return nil, err
	}

	ranked, err := h.catalog.Charts(ctx, tok)
	if err != nil {
		h.logger.Error("charts lookup failed", zap.Error(err))

		return nil, httpError(err)
	}

	return &ChartsResponse{Body: ranked}, nil
}

type FeaturedResponse struct {
	Body []spotify.Playlist
}

func (h *PodcastHandler) Featured(ctx context.Context, _ *struct{}) (*FeaturedResponse, error) {
	tok, err := h.token(ctx)
	if err != nil {
		return nil, err
	}

	playlists, err := h.catalog.FeaturedPlaylists(ctx, tok, FeaturedLimit)
	if err != nil {
		h.logger.Error("featured playlists lookup failed", zap.Error(err))

		return nil, httpError(err)
	}

	return &FeaturedResponse{Body: playlists}, nil
}

func RegisterPodcastRoutes(api huma.API, h *PodcastHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "search-podcasts",
		Method:      http.MethodGet,
		Path:        "/api/podcasts",
		Summary:     "Search podcasts",
		Tags:        []string{"Podcasts"},
	}, h.Search)

	huma.Register(api, huma.Operation{
		OperationID: "podcasts-by-genre",
		Method:      http.MethodGet,
		Path:        "/api/podcasts/genre/{genre}",
		Summary:     "Podcasts by genre",
		Tags:        []string{"Podcasts"},
	}, h.Genre)

	huma.Register(api, huma.Operation{
		OperationID: "get-podcast",
		Method:      http.MethodGet,
		Path:        "/api/podcasts/{id}",
		Summary:     "Podcast details",
		Tags:        []string{"Podcasts"},
	}, h.Show)

	huma.Register(api, huma.Operation{
		OperationID: "podcast-charts",
		Method:      http.MethodGet,
		Path:        "/api/charts",
		Summary:     "Ranked podcast charts",
		Tags:        []string{"Podcasts"},
	}, h.Charts)

	huma.Register(api, huma.Operation{
		OperationID: "featured-playlists",
		Method:      http.MethodGet,
		Path:        "/api/featured",
		Summary:     "Featured playlists",
		Tags:        []string{"Podcasts"},
	}, h.Featured)
}
