package messaging_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/example/reservation-notifier/internal/adapters/messaging"
	"github.com/example/reservation-notifier/internal/models"
	waprovider "github.com/example/reservation-notifier/internal/providers/whatsapp"
	"github.com/example/reservation-notifier/internal/util"
)

func sampleEvent() models.ReservationEvent {
	return models.ReservationEvent{
		ID:               "evt-1",
		Name:             "Dara Sok",
		Phone:            "012 345 678",
		Email:            "dara@example.com",
		Date:             time.Date(2025, 12, 24, 0, 0, 0, 0, time.UTC),
		Time:             models.TimeOfDay{Hour: 12, Minute: 0},
		GuestCount:       3,
		ConfirmationCode: "TS-Q1W2E3",
	}
}

func target(addrs ...string) models.ChannelTarget {
	return models.ChannelTarget{Channel: models.ChannelMessaging, Role: models.RoleBusiness, Addresses: addrs}
}

func TestMessagingNormalizesDestination(t *testing.T) {
	provider := waprovider.NewMockProvider(zerolog.Nop())
	adapter := messaging.NewAdapter(provider, nil, zerolog.Nop())

	res := adapter.Send(context.Background(), sampleEvent(), target("069 884 948"))
	if !res.Success || res.ProviderMessageID == "" {
		t.Fatalf("expected success with sid, got %+v", res)
	}
	sent := provider.Sent()
	if len(sent) != 1 || sent[0].To != "+85569884948" {
		t.Fatalf("expected normalised destination, got %+v", sent)
	}
	if !strings.Contains(sent[0].Body, "TS-Q1W2E3") {
		t.Fatalf("expected confirmation code in body, got %q", sent[0].Body)
	}
}

func TestMessagingCustomRegions(t *testing.T) {
	provider := waprovider.NewMockProvider(zerolog.Nop())
	adapter := messaging.NewAdapter(provider, nil, zerolog.Nop(), messaging.WithRegions(util.PhoneRegions{Default: "66"}))

	if res := adapter.Send(context.Background(), sampleEvent(), target("081234567")); !res.Success {
		t.Fatalf("expected success, got %+v", res)
	}
	if got := provider.Sent()[0].To; got != "+6681234567" {
		t.Fatalf("expected Thai region prefix, got %q", got)
	}
}

func TestMessagingInvalidDestination(t *testing.T) {
	provider := waprovider.NewMockProvider(zerolog.Nop())
	adapter := messaging.NewAdapter(provider, nil, zerolog.Nop())

	res := adapter.Send(context.Background(), sampleEvent(), target("12345"))
	if res.Success || res.Error != models.ErrorInvalidDestination || res.Kind != models.KindValidation {
		t.Fatalf("expected invalid-destination, got %+v", res)
	}
	if provider.Calls() != 0 {
		t.Fatalf("expected no outbound call")
	}
}

func TestMessagingNotConfigured(t *testing.T) {
	res := messaging.NewAdapter(nil, nil, zerolog.Nop()).Send(context.Background(), sampleEvent(), target("+85512345678"))
	if res.Error != models.ErrorNotConfigured {
		t.Fatalf("expected not-configured without provider, got %+v", res)
	}

	provider := waprovider.NewMockProvider(zerolog.Nop())
	res = messaging.NewAdapter(provider, nil, zerolog.Nop()).Send(context.Background(), sampleEvent(), target())
	if res.Error != models.ErrorNotConfigured {
		t.Fatalf("expected not-configured without destination, got %+v", res)
	}
	if provider.Calls() != 0 {
		t.Fatalf("expected no outbound call")
	}
}

func TestMessagingRecipientCodesAreProviderFailures(t *testing.T) {
	provider := waprovider.NewMockProvider(zerolog.Nop(), waprovider.WithScenario(waprovider.ScenarioOutsideWindow))
	adapter := messaging.NewAdapter(provider, nil, zerolog.Nop())

	res := adapter.Send(context.Background(), sampleEvent(), target("+85512345678"))
	if res.Success || res.Kind != models.KindProvider {
		t.Fatalf("expected provider failure, got %+v", res)
	}
	if !strings.Contains(res.Error, "63016") {
		t.Fatalf("expected twilio code in error detail, got %q", res.Error)
	}
}
