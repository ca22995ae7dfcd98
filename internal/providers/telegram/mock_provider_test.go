package telegram_test

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	tgprovider "github.com/example/reservation-notifier/internal/providers/telegram"
)

func TestMockProviderPerChatScenarios(t *testing.T) {
	provider := tgprovider.NewMockProvider(zerolog.Nop(),
		tgprovider.WithChatScenario("-1002", tgprovider.ScenarioChatNotFound))

	ok, err := provider.Send(context.Background(), &tgprovider.Payload{ChatID: "-1001", Text: "hi"})
	if err != nil || ok.MessageID == "" {
		t.Fatalf("expected success for -1001, got %+v %v", ok, err)
	}

	raw, err := provider.Send(context.Background(), &tgprovider.Payload{ChatID: "-1002", Text: "hi"})
	if err == nil || !strings.Contains(err.Error(), "chat not found") {
		t.Fatalf("expected chat not found, got %v", err)
	}
	if raw == nil || raw.Code != 400 {
		t.Fatalf("expected raw 400 response, got %+v", raw)
	}
	if provider.Calls() != 2 {
		t.Fatalf("expected two calls, got %d", provider.Calls())
	}
}

func TestMockProviderTracksPeakConcurrency(t *testing.T) {
	provider := tgprovider.NewMockProvider(zerolog.Nop(), tgprovider.WithLatency(20*time.Millisecond))

	var wg sync.WaitGroup
	for _, chat := range []string{"a", "b", "c"} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = provider.Send(context.Background(), &tgprovider.Payload{ChatID: chat, Text: "hi"})
		}()
	}
	wg.Wait()

	if provider.PeakConcurrency() < 2 {
		t.Fatalf("expected overlapping sends, peak=%d", provider.PeakConcurrency())
	}
}

func TestMockProviderRequiresChat(t *testing.T) {
	provider := tgprovider.NewMockProvider(zerolog.Nop())
	if _, err := provider.Send(context.Background(), &tgprovider.Payload{Text: "hi"}); err == nil {
		t.Fatalf("expected error without chat id")
	}
}
