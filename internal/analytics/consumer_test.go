package analytics_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
	"github.com/serroba/podpulse/internal/analytics"
	"github.com/serroba/podpulse/internal/messaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockSubscriber struct {
	mu     sync.Mutex
	chans  map[string]chan *message.Message
	closed bool
}

func newMockSubscriber() *mockSubscriber {
	return &mockSubscriber{chans: map[string]chan *message.Message{
		analytics.TopicLinkCreated.String(): make(chan *message.Message, 10),
		analytics.TopicLinkClicked.String(): make(chan *message.Message, 10),
	}}
}

func (m *mockSubscriber) Subscribe(_ context.Context, topic string) (<-chan *message.Message, error) {
	ch, ok := m.chans[topic]
	if !ok {
		return nil, errors.New("unknown topic")
	}

	return ch, nil
}

func (m *mockSubscriber) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.closed {
		m.closed = true

		for _, ch := range m.chans {
			close(ch)
		}
	}

	return nil
}

type mockStore struct {
	mu      sync.Mutex
	created []*analytics.LinkCreatedEvent
	clicked []*analytics.LinkClickedEvent
	calls   int
	err     error
}

func (m *mockStore) SaveLinkCreated(_ context.Context, event *analytics.LinkCreatedEvent) error {
	if m.err != nil {
		return m.err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.created = append(m.created, event)

	return nil
}

func (m *mockStore) SaveLinkClicked(_ context.Context, event *analytics.LinkClickedEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls++
	if m.err != nil {
		return m.err
	}

	m.clicked = append(m.clicked, event)

	return nil
}

func send(t *testing.T, sub *mockSubscriber, topic string, event any) *message.Message {
	t.Helper()

	payload, err := json.Marshal(event)
	require.NoError(t, err)

	msg := message.NewMessage(uuid.NewString(), payload)
	sub.chans[topic] <- msg

	return msg
}

func waitAck(t *testing.T, msg *message.Message) {
	t.Helper()

	select {
	case <-msg.Acked():
	case <-msg.Nacked():
		t.Fatal("message was nacked")
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for ack")
	}
}

func TestRegister(t *testing.T) {
	t.Run("routes both topics into the store", func(t *testing.T) {
		sub := newMockSubscriber()
		st := &mockStore{}
		group := messaging.NewConsumerGroup(sub, zap.NewNop())
		analytics.Register(group, sub, st, zap.NewNop())

		require.NoError(t, group.Start(context.Background()))

		created := send(t, sub, analytics.TopicLinkCreated.String(), &analytics.LinkCreatedEvent{ID: "abc123", Owner: "user-1"})
		clicked := send(t, sub, analytics.TopicLinkClicked.String(), &analytics.LinkClickedEvent{
			ID:        "abc123",
			Platform:  "spotify",
			Referrer:  "Direct",
			ClickedAt: time.Now(),
		})

		waitAck(t, created)
		waitAck(t, clicked)

		require.NoError(t, group.Shutdown())

		st.mu.Lock()
		defer st.mu.Unlock()

		require.Len(t, st.created, 1)
		assert.Equal(t, "user-1", st.created[0].Owner)
		require.Len(t, st.clicked, 1)
		assert.Equal(t, "spotify", st.clicked[0].Platform)
	})

	t.Run("store errors are retried then dropped", func(t *testing.T) {
		sub := newMockSubscriber()
		st := &mockStore{err: errors.New("store down")}
		consumer := analytics.NewClickedConsumer(sub, st, zap.NewNop())

		require.NoError(t, consumer.Start(context.Background()))

		msg := send(t, sub, analytics.TopicLinkClicked.String(), &analytics.LinkClickedEvent{ID: "abc123"})

		select {
		case <-msg.Acked():
		case <-msg.Nacked():
			t.Fatal("message should have been dropped with an ack")
		case <-time.After(time.Second):
			t.Fatal("timeout waiting for ack")
		}

		st.mu.Lock()
		assert.Equal(t, 3, st.calls)
		st.mu.Unlock()

		_ = sub.Close()
		_ = consumer.Shutdown()
	})
}
