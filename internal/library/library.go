// Package library holds per-user podcast bookmarks and reviews.
package library

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrInvalid = errors.New("invalid library entry")

const (
	MinRating = 1
	MaxRating = 5
)

// KeyFor builds the composite document key shared by bookmarks and reviews.
func KeyFor(userID, podcastID string) string {
	return userID + "_" + podcastID
}

type Bookmark struct {
	ID          string    `json:"id"`
	UserID      string    `json:"userId"`
	PodcastID   string    `json:"podcastId"`
	Title       string    `json:"podcastTitle"`
	Description string    `json:"podcastDescription"`
	Image       string    `json:"podcastImage"`
	CreatedAt   time.Time `json:"createdAt"`
}

type Review struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	PodcastID string    `json:"podcastId"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Repository persists library entries. SaveBookmark and UpsertReview replace
// an existing entry with the same key; UpsertReview keeps the original
// CreatedAt and returns the stored review.
type Repository interface {
	SaveBookmark(ctx context.Context, b *Bookmark) error
	DeleteBookmark(ctx context.Context, id string) error
	BookmarksByUser(ctx context.Context, userID string) ([]Bookmark, error)
	UpsertReview(ctx context.Context, r *Review) (*Review, error)
	ReviewsByPodcast(ctx context.Context, podcastID string) ([]Review, error)
}

// BookmarkInput is the podcast snapshot stored alongside a bookmark.
type BookmarkInput struct {
	Title       string
	Description string
	Image       string
}

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

func (s *Service) SaveBookmark(ctx context.Context, userID, podcastID string, in BookmarkInput) (*Bookmark, error) {
	if err := requireIDs(userID, podcastID); err != nil {
		return nil, err
	}

	b := &Bookmark{
		ID:          KeyFor(userID, podcastID),
		UserID:      userID,
		PodcastID:   podcastID,
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		Image:       strings.TrimSpace(in.Image),
		CreatedAt:   s.now().UTC(),
	}

	if err := s.repo.SaveBookmark(ctx, b); err != nil {
		return nil, err
	}

	return b, nil
}

// RemoveBookmark is idempotent.
func (s *Service) RemoveBookmark(ctx context.Context, userID, podcastID string) error {
	if err := requireIDs(userID, podcastID); err != nil {
		return err
	}

	return s.repo.DeleteBookmark(ctx, KeyFor(userID, podcastID))
}

func (s *Service) Bookmarks(ctx context.Context, userID string) ([]Bookmark, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, fmt.Errorf("%w: user id is required", ErrInvalid)
	}

	return s.repo.BookmarksByUser(ctx, userID)
}

func (s *Service) SaveReview(ctx context.Context, userID, podcastID string, rating int, comment string) (*Review, error) {
	if err := requireIDs(userID, podcastID); err != nil {
		return nil, err
	}

	if rating < MinRating || rating > MaxRating {
		return nil, fmt.Errorf("%w: rating must be between %d and %d", ErrInvalid, MinRating, MaxRating)
	}

	now := s.now().UTC()

	return s.repo.UpsertReview(ctx, &Review{
		ID:        KeyFor(userID, podcastID),
		UserID:    userID,
		PodcastID: podcastID,
		Rating:    rating,
		Comment:   strings.TrimSpace(comment),
		CreatedAt: now,
		UpdatedAt: now,
	})
}

func (s *Service) Reviews(ctx context.Context, podcastID string) ([]Review, error) {
	if strings.TrimSpace(podcastID) == "" {
		return nil, fmt.Errorf("%w: podcast id is required", ErrInvalid)
	}

	return s.repo.ReviewsByPodcast(ctx, podcastID)
}

func requireIDs(userID, podcastID string) error {
	if strings.TrimSpace(userID) == "" {
		return fmt.Errorf("%w: user id is required", ErrInvalid)
	}

	if strings.TrimSpace(podcastID) == "" {
		return fmt.Errorf("%w: podcast id is required", ErrInvalid)
	}

	return nil
}
