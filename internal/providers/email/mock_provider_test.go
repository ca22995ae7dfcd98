package email_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	emailprovider "github.com/example/reservation-notifier/internal/providers/email"
)

func TestMockProviderRecordsPayloads(t *testing.T) {
	p := emailprovider.NewMockProvider(zerolog.Nop())

	resp, err := p.Send(context.Background(), &emailprovider.Payload{To: []string{"a@example.com"}, Subject: "hi"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Code != 201 || resp.ID == "" {
		t.Fatalf("unexpected response %#v", resp)
	}
	if p.Calls() != 1 || p.Sent()[0].Subject != "hi" {
		t.Fatalf("expected payload to be recorded, got %#v", p.Sent())
	}
}

func TestMockProviderScenarios(t *testing.T) {
	p := emailprovider.NewMockProvider(zerolog.Nop(),
		emailprovider.WithRecipientScenario("bad@example.com", emailprovider.ScenarioPermanent),
		emailprovider.WithRecipientScenario("slow@example.com", emailprovider.ScenarioTimeout),
	)

	if _, err := p.Send(context.Background(), &emailprovider.Payload{To: []string{"bad@example.com"}}); err == nil {
		t.Fatalf("expected permanent failure")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := p.Send(ctx, &emailprovider.Payload{To: []string{"slow@example.com"}}); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}

	if _, err := p.Send(context.Background(), &emailprovider.Payload{To: []string{"ok@example.com"}}); err != nil {
		t.Fatalf("expected default scenario to succeed: %v", err)
	}
}

func TestMockProviderRequiresRecipient(t *testing.T) {
	p := emailprovider.NewMockProvider(zerolog.Nop())
	if _, err := p.Send(context.Background(), &emailprovider.Payload{}); err == nil {
		t.Fatalf("expected error without recipients")
	}
	if p.Calls() != 0 {
		t.Fatalf("rejected payloads must not be recorded")
	}
}
