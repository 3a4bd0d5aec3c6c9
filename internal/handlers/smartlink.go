package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/podpulse/internal/analytics"
	"github.com/serroba/podpulse/internal/messaging"
	"github.com/serroba/podpulse/internal/metrics"
	"github.com/serroba/podpulse/internal/ratelimit"
	"github.com/serroba/podpulse/internal/smartlink"
	"go.uber.org/zap"
)

// LinkObserver counts SmartLink outcomes.
type LinkObserver interface {
	ObserveResolution(outcome string)
	ObserveLinkCreated()
}

type nopObserver struct{}

func (nopObserver) ObserveResolution(string) {}
func (nopObserver) ObserveLinkCreated()      {}

// SmartLinkHandler serves the public redirect and the owner endpoints.
type SmartLinkHandler struct {
	resolver       *smartlink.Resolver
	creator        *smartlink.Creator
	repo           smartlink.Repository
	baseURL        string
	publishCreated messaging.Publish[analytics.LinkCreatedEvent]
	publishClicked messaging.Publish[analytics.LinkClickedEvent]
	observer       LinkObserver
	logger         *zap.Logger
}

// NewSmartLinkHandler creates a SmartLink handler. observer may be nil.
func NewSmartLinkHandler(
	resolver *smartlink.Resolver,
	creator *smartlink.Creator,
	repo smartlink.Repository,
	baseURL string,
	publishCreated messaging.Publish[analytics.LinkCreatedEvent],
	publishClicked messaging.Publish[analytics.LinkClickedEvent],
	observer LinkObserver,
	logger *zap.Logger,
) *SmartLinkHandler {
	if observer == nil {
		observer = nopObserver{}
	}

	return &SmartLinkHandler{
		resolver:       resolver,
		creator:        creator,
		repo:           repo,
		baseURL:        baseURL,
		publishCreated: publishCreated,
		publishClicked: publishClicked,
		observer:       observer,
		logger:         logger,
	}
}

// ResolveRequest is the public redirect request. Query parameters are read
// through the request metadata so arbitrary tracking keys survive.
type ResolveRequest struct {
	ID string `doc:"The SmartLink id" example:"abc123" path:"id"`
}

// RedirectResponse answers a successful resolution.
type RedirectResponse struct {
	Status       int
	Location     string `header:"Location"`
	CacheControl string `header:"Cache-Control"`
}

func (h *SmartLinkHandler) Resolve(ctx context.Context, req *ResolveRequest) (*RedirectResponse, error) {
	meta := RequestMetaFromContext(ctx)

	result, err := h.resolver.Resolve(ctx, smartlink.ID(req.ID), meta.RequestContext())
	if err != nil {
		h.observer.ObserveResolution(resolutionOutcome(err))

		if !errors.Is(err, smartlink.ErrNotFound) && !errors.Is(err, smartlink.ErrNoDestination) {
			h.logger.Error("smartlink resolution failed",
				zap.String("id", req.ID),
				zap.Error(err),
			)
		}

		return nil, httpError(err)
	}

	h.observer.ObserveResolution(metrics.OutcomeRedirected)

	event := &analytics.LinkClickedEvent{
		ID:             req.ID,
		Platform:       string(result.Platform),
		Referrer:       result.Click.Referrer,
		UserAgent:      result.Click.UserAgent,
		ClientIP:       meta.ClientIP,
		TrackingParams: result.Click.TrackingParams,
		ClickedAt:      result.Click.Timestamp,
	}

	if err := h.publishClicked(event); err != nil {
		h.logger.Error("failed to publish click event",
			zap.String("id", event.ID),
			zap.Error(err),
		)
	}

	return &RedirectResponse{
		Status:       http.StatusFound,
		Location:     result.URL,
		CacheControl: "no-store",
	}, nil
}

func resolutionOutcome(err error) string {
	switch {
	case errors.Is(err, smartlink.ErrNotFound):
		return metrics.OutcomeNotFound
	case errors.Is(err, smartlink.ErrNoDestination):
		return metrics.OutcomeNoDestination
	default:
		return metrics.OutcomeUnavailable
	}
}

// SmartLinkBody is the client view of a SmartLink.
type SmartLinkBody struct {
	ID           string                        `json:"id"`
	URL          string                        `doc:"The public redirect URL" json:"url"`
	Owner        string                        `json:"owner"`
	Destinations map[smartlink.Platform]string `json:"destinations"`
	CreatedAt    time.Time                     `json:"createdAt"`
}

func (h *SmartLinkHandler) body(link *smartlink.SmartLink) SmartLinkBody {
	return SmartLinkBody{
		ID:           string(link.ID),
		URL:          fmt.Sprintf("%s/smartlink/%s", h.baseURL, link.ID),
		Owner:        link.Owner,
		Destinations: link.Destinations,
		CreatedAt:    link.CreatedAt,
	}
}

// CreateSmartLinkRequest is the request body for creating a SmartLink.
type CreateSmartLinkRequest struct {
	Body struct {
		Spotify string `doc:"Spotify destination"         example:"https://open.spotify.com/show/X"        json:"spotify,omitempty"`
		Apple   string `doc:"Apple Podcasts destination"  example:"https://podcasts.apple.com/podcast/id1" json:"apple,omitempty"`
		Google  string `doc:"Google Podcasts destination" example:"https://podcasts.google.com/feed/abc"   json:"google,omitempty"`
	}
}

// CreateSmartLinkResponse is the response for a successfully created SmartLink.
type CreateSmartLinkResponse struct {
	Location string `doc:"The public SmartLink URL" header:"Location"`
	Body     SmartLinkBody
}

func (h *SmartLinkHandler) Create(ctx context.Context, req *CreateSmartLinkRequest) (*CreateSmartLinkResponse, error) {
	owner, err := currentUser(ctx)
	if err != nil {
		return nil, httpError(err)
	}

	link, err := h.creator.Create(ctx, owner, smartlink.Destinations{
		smartlink.PlatformSpotify: req.Body.Spotify,
		smartlink.PlatformApple:   req.Body.Apple,
		smartlink.PlatformGoogle:  req.Body.Google,
	})
	if err != nil {
		if !errors.Is(err, smartlink.ErrInvalid) {
			h.logger.Error("failed to create smartlink", zap.String("owner", owner), zap.Error(err))
		}

		return nil, httpError(err)
	}

	h.observer.ObserveLinkCreated()

	meta := RequestMetaFromContext(ctx)
	event := &analytics.LinkCreatedEvent{
		ID:        string(link.ID),
		Owner:     link.Owner,
		Platforms: platforms(link.Destinations),
		CreatedAt: link.CreatedAt,
		ClientIP:  meta.ClientIP,
		UserAgent: meta.UserAgent,
	}

	if err := h.publishCreated(event); err != nil {
		h.logger.Error("failed to publish analytics event",
			zap.String("id", event.ID),
			zap.Error(err),
		)
	}

	resp := &CreateSmartLinkResponse{Body: h.body(link)}
	resp.Location = resp.Body.URL

	return resp, nil
}

func platforms(d smartlink.Destinations) []string {
	out := make([]string, 0, len(d))
	for p := range d {
		out = append(out, string(p))
	}

	sort.Strings(out)

	return out
}

// ListSmartLinksResponse lists the caller's SmartLinks, newest first.
type ListSmartLinksResponse struct {
	Body []SmartLinkBody
}

func (h *SmartLinkHandler) List(ctx context.Context, _ *struct{}) (*ListSmartLinksResponse, error) {
	owner, err := currentUser(ctx)
	if err != nil {
		return nil, httpError(err)
	}

	links, err := h.repo.ListByOwner(ctx, owner)
	if err != nil {
		h.logger.Error("failed to list smartlinks", zap.String("owner", owner), zap.Error(err))

		return nil, httpError(err)
	}

	resp := &ListSmartLinksResponse{Body: make([]SmartLinkBody, 0, len(links))}
	for _, link := range links {
		resp.Body = append(resp.Body, h.body(link))
	}

	return resp, nil
}

// ClicksRequest addresses one SmartLink's click log.
type ClicksRequest struct {
	ID string `doc:"The SmartLink id" example:"abc123" path:"id"`
}

// ClicksResponse carries the click log in append order and its summary.
type ClicksResponse struct {
	Body struct {
		ID      string                 `json:"id"`
		Clicks  []smartlink.ClickEvent `json:"clicks"`
		Summary smartlink.Summary      `json:"summary"`
	}
}

// Clicks is only served to the owner; other callers see a 404 so ids cannot
// be probed.
func (h *SmartLinkHandler) Clicks(ctx context.Context, req *ClicksRequest) (*ClicksResponse, error) {
	owner, err := currentUser(ctx)
	if err != nil {
		return nil, httpError(err)
	}

	link, err := h.repo.Get(ctx, smartlink.ID(req.ID))
	if err != nil {
		return nil, httpError(err)
	}

	if link.Owner != owner {
		return nil, httpError(smartlink.ErrNotFound)
	}

	clicks, err := h.repo.Clicks(ctx, link.ID)
	if err != nil {
		h.logger.Error("failed to read clicks", zap.String("id", req.ID), zap.Error(err))

		return nil, httpError(err)
	}

	resp := &ClicksResponse{}
	resp.Body.ID = req.ID
	resp.Body.Clicks = clicks
	resp.Body.Summary = smartlink.Summarize(clicks)

	return resp, nil
}

// RegisterSmartLinkRoutes registers the public redirect and owner routes with
// per-endpoint rate limit configuration.
func RegisterSmartLinkRoutes(api huma.API, h *SmartLinkHandler, limits RouteLimits) {
	huma.Register(api, huma.Operation{
		OperationID: "resolve-smartlink",
		Method:      http.MethodGet,
		Path:        "/smartlink/{id}",
		Summary:     "Resolve SmartLink",
		Description: "Redirects to the first configured destination (spotify, apple, google) and records the click.",
		Tags:        []string{"SmartLinks"},
		Errors:      []int{http.StatusNotFound, http.StatusUnprocessableEntity, http.StatusServiceUnavailable},
		Metadata:    rateLimited(limits.Redirect, ratelimit.ScopeRedirect),
	}, h.Resolve)

	huma.Register(api, huma.Operation{
		OperationID:   "create-smartlink",
		Method:        http.MethodPost,
		Path:          "/smartlinks",
		Summary:       "Create SmartLink",
		Tags:          []string{"SmartLinks"},
		DefaultStatus: http.StatusCreated,
		Metadata:      withAuth(rateLimited(limits.Create, ratelimit.ScopeCreate)),
	}, h.Create)

	huma.Register(api, huma.Operation{
		OperationID: "list-smartlinks",
		Method:      http.MethodGet,
		Path:        "/smartlinks",
		Summary:     "List own SmartLinks",
		Tags:        []string{"SmartLinks"},
		Metadata:    withAuth(nil),
	}, h.List)

	huma.Register(api, huma.Operation{
		OperationID: "smartlink-clicks",
		Method:      http.MethodGet,
		Path:        "/smartlinks/{id}/clicks",
		Summary:     "SmartLink click log",
		Tags:        []string{"SmartLinks"},
		Metadata:    withAuth(nil),
	}, h.Clicks)
}
