package telegram

import "context"

// Button is one labeled inline action carrying an opaque callback token.
type Button struct {
	Label string
	Data  string
}

// Markup is the inline keyboard layout attached to a message: rows of buttons.
type Markup [][]Button

// Row is a convenience constructor for a single keyboard row.
func Row(buttons ...Button) []Button {
	return buttons
}

// MessageRef identifies a sent message for later edits or deletion.
type MessageRef struct {
	ChatID    int64
	MessageID int
}

// Gateway is the outbound notification surface the coordinator depends on.
// Implementations must treat Delete as best-effort at the call site: the
// caller decides whether a failure matters.
type Gateway interface {
	Send(ctx context.Context, chatID int64, text string, markup Markup) (MessageRef, error)
	Edit(ctx context.Context, ref MessageRef, text string, markup Markup) error
	Delete(ctx context.Context, chatID int64, messageID int) error
}
