package analytics

import (
	"time"

	"github.com/serroba/podpulse/internal/messaging"
)

const (
	TopicLinkCreated messaging.Topic[LinkCreatedEvent] = "smartlink.created"
	TopicLinkClicked messaging.Topic[LinkClickedEvent] = "smartlink.clicked"
)

// LinkCreatedEvent is emitted when an owner creates a SmartLink.
type LinkCreatedEvent struct {
	ID        string    `json:"id"`
	Owner     string    `json:"owner"`
	Platforms []string  `json:"platforms"`
	CreatedAt time.Time `json:"createdAt"`
	ClientIP  string    `json:"clientIp"`
	UserAgent string    `json:"userAgent"`
}

// LinkClickedEvent is emitted after a click has been appended to a SmartLink.
type LinkClickedEvent struct {
	ID             string            `json:"id"`
	Platform       string            `json:"platform"`
	Referrer       string            `json:"referrer"`
	UserAgent      string            `json:"userAgent"`
	ClientIP       string            `json:"clientIp"`
	TrackingParams map[string]string `json:"trackingParams,omitempty"`
	ClickedAt      time.Time         `json:"clickedAt"`
}
