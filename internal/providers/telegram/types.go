package telegram

import (
	"context"
	"time"
)

// ParseModeHTML is the only markup mode the notifier emits.
const ParseModeHTML = "HTML"

// Payload is a single sendMessage call for one chat.
type Payload struct {
	ChatID                string
	Text                  string
	ParseMode             string
	DisableWebPagePreview bool
}

// RawResponse captures what the Bot API answered for one chat.
type RawResponse struct {
	MessageID string
	Code      int
	Body      string
	Timestamp time.Time
}

// Provider delivers a message to one chat.
type Provider interface {
	Send(ctx context.Context, payload *Payload) (*RawResponse, error)
}
