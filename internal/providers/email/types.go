package email

import (
	"context"
	"time"
)

// Payload is the canonical representation of an outbound email passed to the
// provider. Adapters fill in both bodies; providers decide how to carry them.
// ToName, when set, is the display name of the first address in To.
type Payload struct {
	MessageID string
	From      string
	FromName  string
	To        []string
	ToName    string
	Subject   string
	HTML      string
	Text      string
	Headers   map[string]string
}

// RawResponse mirrors the low level provider response that adapters inspect to
// derive a channel result.
type RawResponse struct {
	ID        string
	Code      int
	Body      string
	Timestamp time.Time
}

// Provider is the contract exposed by every email backend.
type Provider interface {
	Send(ctx context.Context, payload *Payload) (*RawResponse, error)
}
