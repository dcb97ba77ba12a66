package alert

import "context"

// Notifier relays a short text message to an operator channel.
type Notifier interface {
	Notify(ctx context.Context, message string) error
}

// Nop drops every message. Used when no webhook is configured.
type Nop struct{}

func (Nop) Notify(context.Context, string) error { return nil }
