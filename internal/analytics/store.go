package analytics

import "context"

// Store folds SmartLink events into aggregate counters. Delivery is at least
// once, so a redelivered click is counted again.
type Store interface {
	SaveLinkCreated(ctx context.Context, event *LinkCreatedEvent) error
	SaveLinkClicked(ctx context.Context, event *LinkClickedEvent) error
}
