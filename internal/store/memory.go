package store

import (
	"context"
	"sort"
	"sync"

	"github.com/serroba/podpulse/internal/smartlink"
)

type memoryRecord struct {
	link   smartlink.SmartLink
	clicks []smartlink.ClickEvent
}

// MemoryStore is an in-memory implementation of smartlink.Repository.
// Appends happen under the write lock, which is the in-process equivalent of
// a native array-append primitive.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[smartlink.ID]*memoryRecord
}

// NewMemoryStore creates a new in-memory SmartLink store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[smartlink.ID]*memoryRecord),
	}
}

func (m *MemoryStore) Create(_ context.Context, link *smartlink.SmartLink) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.records[link.ID]; exists {
		return smartlink.ErrIDTaken
	}

	m.records[link.ID] = &memoryRecord{link: copyLink(link)}

	return nil
}

func (m *MemoryStore) Get(_ context.Context, id smartlink.ID) (*smartlink.SmartLink, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.records[id]
	if !ok {
		return nil, smartlink.ErrNotFound
	}

	link := copyLink(&rec.link)

	return &link, nil
}

func (m *MemoryStore) AppendClick(_ context.Context, id smartlink.ID, click smartlink.ClickEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.records[id]
	if !ok {
		return smartlink.ErrNotFound
	}

	rec.clicks = append(rec.clicks, click)

	return nil
}

func (m *MemoryStore) Clicks(_ context.Context, id smartlink.ID) ([]smartlink.ClickEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.records[id]
	if !ok {
		return nil, smartlink.ErrNotFound
	}

	clicks := make([]smartlink.ClickEvent, len(rec.clicks))
	copy(clicks, rec.clicks)

	return clicks, nil
}

// ListByOwner returns the owner's links, newest first.
func (m *MemoryStore) ListByOwner(_ context.Context, owner string) ([]*smartlink.SmartLink, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	links := make([]*smartlink.SmartLink, 0)

	for _, rec := range m.records {
		if rec.link.Owner != owner {
			continue
		}

		link := copyLink(&rec.link)
		links = append(links, &link)
	}

	sort.Slice(links, func(i, j int) bool {
		return links[i].CreatedAt.After(links[j].CreatedAt)
	})

	return links, nil
}

func copyLink(link *smartlink.SmartLink) smartlink.SmartLink {
	dest := make(smartlink.Destinations, len(link.Destinations))
	for k, v := range link.Destinations {
		dest[k] = v
	}

	out := *link
	out.Destinations = dest

	return out
}

var _ smartlink.Repository = (*MemoryStore)(nil)
