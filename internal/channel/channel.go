package channel

import (
	"context"
	"time"
)

// InboundMessage is a user request received from a channel.
type InboundMessage struct {
	ChannelName string
	SenderID    string
	SenderName  string
	ChatID      string
	Text        string
	Timestamp   time.Time
}

// OutboundMessage is a reply to send through a channel.
type OutboundMessage struct {
	ChatID string
	Text   string
}

// Channel is the interface for user-facing surfaces (console, Telegram).
type Channel interface {
	Name() string
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Send(ctx context.Context, msg OutboundMessage) error
	OnMessage(handler func(InboundMessage))
	IsRunning() bool
}

// Notifier is implemented by channels that can show out-of-band progress
// lines while a crew run is in flight.
type Notifier interface {
	Notify(text string)
}
