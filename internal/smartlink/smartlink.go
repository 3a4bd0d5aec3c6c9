package smartlink

import (
	"context"
	"errors"
	"strings"
	"time"
)

var (
	// ErrNotFound is returned when an id does not resolve to a stored SmartLink.
	ErrNotFound = errors.New("smartlink not found")
	// ErrNoDestination is returned when a SmartLink exists but has no usable destination.
	ErrNoDestination = errors.New("smartlink has no destination")
	// ErrInvalid is returned when a SmartLink cannot be created from the given input.
	ErrInvalid = errors.New("invalid smartlink")
	// ErrIDTaken is returned by Repository.Create when the id is already stored.
	ErrIDTaken = errors.New("smartlink id already taken")
)

// ID is the opaque identifier of a SmartLink.
type ID string

// Platform names a podcast platform a SmartLink can point to.
type Platform string

const (
	PlatformSpotify Platform = "spotify"
	PlatformApple   Platform = "apple"
	PlatformGoogle  Platform = "google"
)

// Priority is the fixed order in which destinations are tried.
var Priority = []Platform{PlatformSpotify, PlatformApple, PlatformGoogle}

// Destinations maps a platform to its destination URL.
type Destinations map[Platform]string

// SmartLink is the immutable part of a redirect record. Clicks are stored
// separately and only ever appended to.
type SmartLink struct {
	ID           ID           `json:"id"`
	Owner        string       `json:"owner"`
	Destinations Destinations `json:"destinations"`
	CreatedAt    time.Time    `json:"createdAt"`
}

// ClickEvent is one recorded visit to a SmartLink.
type ClickEvent struct {
	Timestamp      time.Time         `json:"timestamp"`
	Referrer       string            `json:"referrer"`
	UserAgent      string            `json:"userAgent"`
	TrackingParams map[string]string `json:"trackingParams"`
}

// DirectReferrer is recorded when a visit carries no referrer.
const DirectReferrer = "Direct"

// RequestContext is what the resolver needs from an inbound visit.
type RequestContext struct {
	Referrer  string
	UserAgent string
	Query     map[string][]string
}

// NewClickEvent builds the click record for a visit observed at now.
func NewClickEvent(rc RequestContext, now time.Time) ClickEvent {
	referrer := strings.TrimSpace(rc.Referrer)
	if referrer == "" {
		referrer = DirectReferrer
	}

	params := make(map[string]string, len(rc.Query))

	for key, values := range rc.Query {
		if len(values) == 0 {
			params[key] = ""

			continue
		}

		params[key] = values[0]
	}

	return ClickEvent{
		Timestamp:      now.UTC().Truncate(time.Millisecond),
		Referrer:       referrer,
		UserAgent:      rc.UserAgent,
		TrackingParams: params,
	}
}

// SelectDestination picks the first populated destination in priority order.
func SelectDestination(d Destinations) (Platform, string, bool) {
	for _, platform := range Priority {
		if url := strings.TrimSpace(d[platform]); url != "" {
			return platform, url, true
		}
	}

	return "", "", false
}

// Repository is the document store contract for SmartLinks.
type Repository interface {
	// Create stores a new record. An existing record with the same id is left
	// untouched and ErrIDTaken is returned.
	Create(ctx context.Context, link *SmartLink) error

	// Get returns the immutable part of the record, or ErrNotFound.
	Get(ctx context.Context, id ID) (*SmartLink, error)

	// AppendClick atomically appends one event to the record's click sequence.
	// Implementations must use the store's native append, never read-then-write.
	// Returns ErrNotFound if the record does not exist.
	AppendClick(ctx context.Context, id ID, click ClickEvent) error

	// Clicks returns the click sequence in append order.
	Clicks(ctx context.Context, id ID) ([]ClickEvent, error)

	ListByOwner(ctx context.Context, owner string) ([]*SmartLink, error)
}
