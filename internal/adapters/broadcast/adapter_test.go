package broadcast_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/example/reservation-notifier/internal/adapters/broadcast"
	"github.com/example/reservation-notifier/internal/models"
	tgprovider "github.com/example/reservation-notifier/internal/providers/telegram"
)

type panickingProvider struct {
	room string
}

func (p panickingProvider) Send(_ context.Context, payload *tgprovider.Payload) (*tgprovider.RawResponse, error) {
	if payload.ChatID == p.room {
		panic("nil response body")
	}
	return &tgprovider.RawResponse{MessageID: "m" + payload.ChatID}, nil
}

func sampleEvent() models.ReservationEvent {
	return models.ReservationEvent{
		ID:               "evt-1",
		Name:             "Dara <Sok>",
		Phone:            "+85512345678",
		Email:            "dara@example.com",
		Date:             time.Date(2025, 12, 24, 0, 0, 0, 0, time.UTC),
		Time:             models.TimeOfDay{Hour: 19, Minute: 30},
		GuestCount:       2,
		ConfirmationCode: "TS-XYZ789",
	}
}

func target(rooms ...string) models.ChannelTarget {
	return models.ChannelTarget{Channel: models.ChannelBroadcast, Role: models.RoleBusiness, Addresses: rooms}
}

func TestBroadcastNoRoomsIsNotConfigured(t *testing.T) {
	provider := tgprovider.NewMockProvider(zerolog.Nop())
	adapter := broadcast.NewAdapter(provider, nil, zerolog.Nop())

	res := adapter.Send(context.Background(), sampleEvent(), target())
	if res.Success || res.Error != models.ErrorNotConfigured {
		t.Fatalf("expected not-configured, got %+v", res)
	}
	if provider.Calls() != 0 {
		t.Fatalf("expected no outbound call, got %d", provider.Calls())
	}

	res = broadcast.NewAdapter(nil, nil, zerolog.Nop()).Send(context.Background(), sampleEvent(), target("1"))
	if res.Error != models.ErrorNotConfigured {
		t.Fatalf("expected not-configured without provider, got %+v", res)
	}
}

func TestBroadcastPartialSuccess(t *testing.T) {
	provider := tgprovider.NewMockProvider(zerolog.Nop(), tgprovider.WithChatScenario("-2", tgprovider.ScenarioChatNotFound))
	adapter := broadcast.NewAdapter(provider, nil, zerolog.Nop())

	res := adapter.Send(context.Background(), sampleEvent(), target("-1", "-2", "-3"))
	if !res.Success {
		t.Fatalf("expected success when at least one room succeeds, got %+v", res)
	}
	if provider.Calls() != 3 {
		t.Fatalf("expected a call per room, got %d", provider.Calls())
	}
	if len(res.RoomFailures) != 1 || !strings.HasPrefix(res.RoomFailures[0], "-2: ") {
		t.Fatalf("expected failure for room -2, got %v", res.RoomFailures)
	}
	if strings.Count(res.ProviderMessageID, ",") != 1 {
		t.Fatalf("expected two joined message ids, got %q", res.ProviderMessageID)
	}
}

func TestBroadcastAllRoomsFail(t *testing.T) {
	provider := tgprovider.NewMockProvider(zerolog.Nop(),
		tgprovider.WithChatScenario("-1", tgprovider.ScenarioChatNotFound),
		tgprovider.WithChatScenario("-2", tgprovider.ScenarioChatNotFound),
	)
	adapter := broadcast.NewAdapter(provider, nil, zerolog.Nop())

	res := adapter.Send(context.Background(), sampleEvent(), target("-1", "-2"))
	if res.Success {
		t.Fatalf("expected failure")
	}
	if res.Kind != models.KindProvider || len(res.RoomFailures) != 2 {
		t.Fatalf("unexpected result %+v", res)
	}
	if !strings.Contains(res.Error, "chat not found") {
		t.Fatalf("expected provider detail in error, got %q", res.Error)
	}
}

func TestBroadcastBoundsParallelism(t *testing.T) {
	provider := tgprovider.NewMockProvider(zerolog.Nop(), tgprovider.WithLatency(20*time.Millisecond))
	adapter := broadcast.NewAdapter(provider, nil, zerolog.Nop(), broadcast.WithMaxParallel(2))

	res := adapter.Send(context.Background(), sampleEvent(), target("1", "2", "3", "4", "5"))
	if !res.Success {
		t.Fatalf("expected success, got %+v", res)
	}
	if peak := provider.PeakConcurrency(); peak > 2 {
		t.Fatalf("expected at most 2 concurrent sends, got %d", peak)
	}
}

func TestBroadcastEscapesMarkup(t *testing.T) {
	provider := tgprovider.NewMockProvider(zerolog.Nop())
	adapter := broadcast.NewAdapter(provider, nil, zerolog.Nop())

	adapter.Send(context.Background(), sampleEvent(), target("1"))
	sent := provider.Sent()
	if len(sent) != 1 {
		t.Fatalf("expected one send, got %d", len(sent))
	}
	if strings.Contains(sent[0].Text, "<Sok>") || sent[0].ParseMode != tgprovider.ParseModeHTML {
		t.Fatalf("expected escaped HTML text, got %q", sent[0].Text)
	}
}

func TestBroadcastRoomPanicBecomesRoomFailure(t *testing.T) {
	adapter := broadcast.NewAdapter(panickingProvider{room: "-2"}, nil, zerolog.Nop())

	res := adapter.Send(context.Background(), sampleEvent(), target("-1", "-2"))
	if !res.Success {
		t.Fatalf("expected the healthy room to carry the broadcast, got %+v", res)
	}
	if len(res.RoomFailures) != 1 || !strings.Contains(res.RoomFailures[0], "-2: provider panic: nil response body") {
		t.Fatalf("expected the panic recorded against room -2, got %v", res.RoomFailures)
	}

	res = broadcast.NewAdapter(panickingProvider{room: "-1"}, nil, zerolog.Nop()).Send(context.Background(), sampleEvent(), target("-1"))
	if res.Success || !strings.Contains(res.Error, "provider panic") {
		t.Fatalf("expected failure carrying the panic, got %+v", res)
	}
}
