package handlers

import (
	"context"
	"errors"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/podpulse/internal/auth"
	"github.com/serroba/podpulse/internal/library"
	"github.com/serroba/podpulse/internal/sentiment"
	"github.com/serroba/podpulse/internal/smartlink"
	"github.com/serroba/podpulse/internal/spotify"
	"github.com/serroba/podpulse/internal/upstream"
)

// httpError maps domain errors onto problem responses. Unknown errors become 500.
func httpError(err error) error {
	switch {
	case errors.Is(err, smartlink.ErrNotFound):
		return huma.Error404NotFound("smartlink not found")
	case errors.Is(err, smartlink.ErrNoDestination):
		return huma.Error422UnprocessableEntity("smartlink has no destination configured")
	case errors.Is(err, smartlink.ErrInvalid), errors.Is(err, library.ErrInvalid):
		return huma.Error422UnprocessableEntity(err.Error())
	case errors.Is(err, sentiment.ErrTitleRequired):
		return huma.Error400BadRequest("podcast title is required")
	case errors.Is(err, auth.ErrUnauthenticated):
		return huma.Error401Unauthorized("authentication required")
	case errors.Is(err, context.DeadlineExceeded):
		return huma.Error504GatewayTimeout("upstream timed out")
	case errors.Is(err, smartlink.ErrIDTaken):
		return huma.Error503ServiceUnavailable("could not allocate a smartlink id, try again")
	case errors.Is(err, upstream.ErrUnavailable),
		errors.Is(err, spotify.ErrNotConfigured),
		errors.Is(err, sentiment.ErrNotConfigured):
		return huma.Error503ServiceUnavailable("upstream unavailable")
	default:
		return huma.Error500InternalServerError("internal server error")
	}
}

// currentUser returns the authenticated user of the request.
func currentUser(ctx context.Context) (string, error) {
	user, ok := auth.UserFromContext(ctx)
	if !ok || user == "" {
		return "", auth.ErrUnauthenticated
	}

	return user, nil
}
