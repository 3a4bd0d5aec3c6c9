package smartlink

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// IDGenerator produces new opaque SmartLink ids.
type IDGenerator func() string

// maxIDAttempts bounds how many fresh ids Create tries after a collision.
const maxIDAttempts = 5

// Creator persists new SmartLinks for an authenticated owner.
type Creator struct {
	repo       Repository
	generateID IDGenerator
	now        func() time.Time
}

// NewCreator creates a SmartLink creator.
func NewCreator(repo Repository, generator IDGenerator) *Creator {
	return &Creator{
		repo:       repo,
		generateID: generator,
		now:        time.Now,
	}
}

// Create validates the destinations and stores a new record owned by owner.
func (c *Creator) Create(ctx context.Context, owner string, destinations Destinations) (*SmartLink, error) {
	if strings.TrimSpace(owner) == "" {
		return nil, fmt.Errorf("%w: owner is required", ErrInvalid)
	}

	cleaned, err := ValidateDestinations(destinations)
	if err != nil {
		return nil, err
	}

	link := &SmartLink{
		Owner:        owner,
		Destinations: cleaned,
		CreatedAt:    c.now().UTC(),
	}

	for range maxIDAttempts {
		link.ID = ID(c.generateID())

		err = c.repo.Create(ctx, link)
		if err == nil {
			return link, nil
		}

		if !errors.Is(err, ErrIDTaken) {
			return nil, err
		}
	}

	return nil, fmt.Errorf("no free id after %d attempts: %w", maxIDAttempts, err)
}

// ValidateDestinations drops blank entries and rejects unknown platforms or
// non-absolute URLs. At least one destination must remain.
func ValidateDestinations(d Destinations) (Destinations, error) {
	cleaned := make(Destinations, len(d))

	for platform, raw := range d {
		if !knownPlatform(platform) {
			return nil, fmt.Errorf("%w: unknown platform %q", ErrInvalid, platform)
		}

		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}

		if err := validateURL(raw); err != nil {
			return nil, fmt.Errorf("%w: %s destination: %w", ErrInvalid, platform, err)
		}

		cleaned[platform] = raw
	}

	if len(cleaned) == 0 {
		return nil, fmt.Errorf("%w: at least one destination is required", ErrInvalid)
	}

	return cleaned, nil
}

func knownPlatform(p Platform) bool {
	for _, known := range Priority {
		if p == known {
			return true
		}
	}

	return false
}

func validateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}

	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return fmt.Errorf("scheme must be http or https, got %q", u.Scheme)
	}

	if u.Host == "" {
		return fmt.Errorf("missing host")
	}

	return nil
}
