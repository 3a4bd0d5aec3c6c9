package smartlink

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/serroba/podpulse/internal/upstream"
	"go.uber.org/zap"
)

// RedirectResult is the outcome of a successful resolution.
type RedirectResult struct {
	URL      string
	Platform Platform
	Click    ClickEvent
}

// Resolver turns a SmartLink id into a redirect and records the visit.
type Resolver struct {
	repo    Repository
	timeout time.Duration
	now     func() time.Time
	logger  *zap.Logger
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithTimeout bounds each store round trip.
func WithTimeout(d time.Duration) ResolverOption {
	return func(r *Resolver) { r.timeout = d }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) ResolverOption {
	return func(r *Resolver) { r.now = now }
}

// NewResolver creates a resolver backed by repo.
func NewResolver(repo Repository, logger *zap.Logger, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		repo:    repo,
		timeout: upstream.DefaultTimeout,
		now:     time.Now,
		logger:  logger,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Resolve loads the record, selects a destination, appends one click event and
// returns the redirect target. NotFound and NoDestination are terminal and leave
// the click sequence untouched.
func (r *Resolver) Resolve(ctx context.Context, id ID, rc RequestContext) (*RedirectResult, error) {
	if id == "" {
		return nil, ErrNotFound
	}

	link, err := r.get(ctx, id)
	if err != nil {
		return nil, err
	}

	platform, url, ok := SelectDestination(link.Destinations)
	if !ok {
		return nil, ErrNoDestination
	}

	click := NewClickEvent(rc, r.now())

	if err := r.appendClick(ctx, id, click); err != nil {
		return nil, err
	}

	r.logger.Debug("smartlink resolved",
		zap.String("id", string(id)),
		zap.String("platform", string(platform)),
		zap.String("referrer", click.Referrer),
	)

	return &RedirectResult{URL: url, Platform: platform, Click: click}, nil
}

func (r *Resolver) get(ctx context.Context, id ID) (*SmartLink, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	link, err := r.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}

		return nil, storeFailure("get", err)
	}

	return link, nil
}

func (r *Resolver) appendClick(ctx context.Context, id ID, click ClickEvent) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if err := r.repo.AppendClick(ctx, id, click); err != nil {
		// The record vanished between read and append (external deletion).
		if errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}

		return storeFailure("append click", err)
	}

	return nil
}

func storeFailure(op string, err error) error {
	if errors.Is(err, upstream.ErrUnavailable) {
		return fmt.Errorf("smartlink store %s: %w", op, err)
	}

	return fmt.Errorf("%w: smartlink store %s: %w", upstream.ErrUnavailable, op, err)
}
