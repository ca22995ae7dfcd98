package whatsapp

import (
	"context"
	"fmt"
	"time"
)

// Payload encapsulates a single WhatsApp message.
type Payload struct {
	MessageID string
	From      string
	To        string
	Body      string
}

// RawResponse captures the low-level provider response for a WhatsApp send.
type RawResponse struct {
	ID        string
	Code      int
	Status    string
	Body      string
	Timestamp time.Time
}

// Provider represents an outbound WhatsApp provider.
type Provider interface {
	Send(ctx context.Context, payload *Payload) (*RawResponse, error)
}

// APIError is returned when the provider answered with a non-2xx status.
// ErrorCode carries the provider specific code (for Twilio e.g. 63016 for a
// recipient outside the messaging window) and is zero when absent.
type APIError struct {
	HTTPStatus int
	ErrorCode  int
	Message    string
}

func (e *APIError) Error() string {
	if e.ErrorCode > 0 {
		return fmt.Sprintf("error %d: %s", e.ErrorCode, e.Message)
	}
	return fmt.Sprintf("http %d: %s", e.HTTPStatus, e.Message)
}
