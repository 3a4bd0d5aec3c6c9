package smartlink_test

import (
	"context"
	"sync"

	"github.com/serroba/podpulse/internal/smartlink"
)

type mockRepo struct {
	mu        sync.Mutex
	links     map[smartlink.ID]*smartlink.SmartLink
	clicks    map[smartlink.ID][]smartlink.ClickEvent
	getErr    error
	appendErr error
	createErr error
	getCalls  int
}

func newMockRepo(links ...*smartlink.SmartLink) *mockRepo {
	m := &mockRepo{
		links:  make(map[smartlink.ID]*smartlink.SmartLink),
		clicks: make(map[smartlink.ID][]smartlink.ClickEvent),
	}

	for _, l := range links {
		m.links[l.ID] = l
	}

	return m
}

func (m *mockRepo) Create(_ context.Context, link *smartlink.SmartLink) error {
	if m.createErr != nil {
		return m.createErr
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.links[link.ID]; exists {
		return smartlink.ErrIDTaken
	}

	stored := *link
	m.links[link.ID] = &stored

	return nil
}

func (m *mockRepo) Get(ctx context.Context, id smartlink.ID) (*smartlink.SmartLink, error) {
	m.mu.Lock()
	m.getCalls++
	m.mu.Unlock()

	if m.getErr != nil {
		return nil, m.getErr
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	link, ok := m.links[id]
	if !ok {
		return nil, smartlink.ErrNotFound
	}

	return link, nil
}

func (m *mockRepo) AppendClick(_ context.Context, id smartlink.ID, click smartlink.ClickEvent) error {
	if m.appendErr != nil {
		return m.appendErr
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.links[id]; !ok {
		return smartlink.ErrNotFound
	}

	m.clicks[id] = append(m.clicks[id], click)

	return nil
}

func (m *mockRepo) Clicks(_ context.Context, id smartlink.ID) ([]smartlink.ClickEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.links[id]; !ok {
		return nil, smartlink.ErrNotFound
	}

	return append([]smartlink.ClickEvent(nil), m.clicks[id]...), nil
}

func (m *mockRepo) ListByOwner(_ context.Context, owner string) ([]*smartlink.SmartLink, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*smartlink.SmartLink

	for _, l := range m.links {
		if l.Owner == owner {
			out = append(out, l)
		}
	}

	return out, nil
}

func (m *mockRepo) clickCount(id smartlink.ID) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.clicks[id])
}
