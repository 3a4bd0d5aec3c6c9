package store

import (
	"context"
	"sort"
	"sync"

	"github.com/serroba/podpulse/internal/library"
)

// LibraryMemoryStore is an in-memory implementation of library.Repository.
type LibraryMemoryStore struct {
	mu        sync.RWMutex
	bookmarks map[string]library.Bookmark
	reviews   map[string]library.Review
}

func NewLibraryMemoryStore() *LibraryMemoryStore {
	return &LibraryMemoryStore{
		bookmarks: make(map[string]library.Bookmark),
		reviews:   make(map[string]library.Review),
	}
}

func (s *LibraryMemoryStore) SaveBookmark(_ context.Context, b *library.Bookmark) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.bookmarks[b.ID] = *b

	return nil
}

func (s *LibraryMemoryStore) DeleteBookmark(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.bookmarks, id)

	return nil
}

func (s *LibraryMemoryStore) BookmarksByUser(_ context.Context, userID string) ([]library.Bookmark, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]library.Bookmark, 0)

	for _, b := range s.bookmarks {
		if b.UserID == userID {
			out = append(out, b)
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })

	return out, nil
}

func (s *LibraryMemoryStore) UpsertReview(_ context.Context, r *library.Review) (*library.Review, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *r
	if existing, ok := s.reviews[r.ID]; ok {
		stored.CreatedAt = existing.CreatedAt
	}

	s.reviews[r.ID] = stored

	return &stored, nil
}

func (s *LibraryMemoryStore) ReviewsByPodcast(_ context.Context, podcastID string) ([]library.Review, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]library.Review, 0)

	for _, r := range s.reviews {
		if r.PodcastID == podcastID {
			out = append(out, r)
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })

	return out, nil
}

var _ library.Repository = (*LibraryMemoryStore)(nil)
