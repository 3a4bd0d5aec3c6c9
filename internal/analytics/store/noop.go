package store

import (
	"context"

	"github.com/serroba/podpulse/internal/analytics"
	"go.uber.org/zap"
)

// Noop is a no-op implementation of analytics.Store that logs events.
type Noop struct {
	logger *zap.Logger
}

// NewNoop creates a new no-op analytics store.
func NewNoop(logger *zap.Logger) *Noop {
	return &Noop{logger: logger}
}

func (n *Noop) SaveLinkCreated(_ context.Context, event *analytics.LinkCreatedEvent) error {
	n.logger.Info("smartlink created event received",
		zap.String("id", event.ID),
		zap.String("owner", event.Owner),
		zap.Strings("platforms", event.Platforms),
		zap.Time("createdAt", event.CreatedAt),
	)

	return nil
}

func (n *Noop) SaveLinkClicked(_ context.Context, event *analytics.LinkClickedEvent) error {
	n.logger.Info("smartlink clicked event received",
		zap.String("id", event.ID),
		zap.String("platform", event.Platform),
		zap.String("referrer", event.Referrer),
		zap.Time("clickedAt", event.ClickedAt),
	)

	return nil
}
