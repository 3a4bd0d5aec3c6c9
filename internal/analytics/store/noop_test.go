package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/serroba/podpulse/internal/analytics"
	"github.com/serroba/podpulse/internal/analytics/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewNoop(t *testing.T) {
	noop := store.NewNoop(zap.NewNop())

	assert.NotNil(t, noop)
}

func TestNoop_SaveLinkCreated(t *testing.T) {
	noop := store.NewNoop(zap.NewNop())

	err := noop.SaveLinkCreated(context.Background(), &analytics.LinkCreatedEvent{
		ID:        "abc123",
		Owner:     "user-1",
		Platforms: []string{"spotify"},
		CreatedAt: time.Now(),
	})

	require.NoError(t, err)
}

func TestNoop_SaveLinkClicked(t *testing.T) {
	noop := store.NewNoop(zap.NewNop())

	err := noop.SaveLinkClicked(context.Background(), &analytics.LinkClickedEvent{
		ID:        "abc123",
		Platform:  "apple",
		Referrer:  "https://referrer.com",
		UserAgent: "TestAgent/1.0",
		ClickedAt: time.Now(),
	})

	require.NoError(t, err)
}
