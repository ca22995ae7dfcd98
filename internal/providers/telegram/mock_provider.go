package telegram

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"time"

	"github.com/rs/zerolog"

	common "github.com/example/reservation-notifier/internal/adapters/common"
)

// Scenario enumerates supported behaviours for the mock Telegram provider.
type Scenario string

const (
	ScenarioSuccess      Scenario = "success"
	ScenarioChatNotFound Scenario = "chat-not-found"
	ScenarioTimeout      Scenario = "timeout"
)

// Option customises the mock provider.
type Option func(*MockProvider)

// WithChatScenario overrides the behaviour for one chat.
func WithChatScenario(chatID string, s Scenario) Option {
	return func(p *MockProvider) {
		p.perChat[chatID] = s
	}
}

// WithLatency delays every answer by d.
func WithLatency(d time.Duration) Option {
	return func(p *MockProvider) {
		if d < 0 {
			d = 0
		}
		p.latency = d
	}
}

// MockProvider records messages per chat instead of calling Telegram.
type MockProvider struct {
	logger  zerolog.Logger
	perChat map[string]Scenario
	latency time.Duration
	now     func() time.Time

	mu       sync.Mutex
	sent     []Payload
	inFlight int
	peak     int
}

// NewMockProvider constructs a mock provider that succeeds for every chat.
func NewMockProvider(logger zerolog.Logger, opts ...Option) *MockProvider {
	if reflect.ValueOf(logger).IsZero() {
		logger = zerolog.Nop()
	}
	p := &MockProvider{
		logger:  logger,
		perChat: make(map[string]Scenario),
		now:     time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	return p
}

// Send records the payload and answers according to the chat's scenario.
func (p *MockProvider) Send(ctx context.Context, payload *Payload) (*RawResponse, error) {
	if payload == nil || payload.ChatID == "" {
		return nil, errors.New("mock telegram provider: chat id is required")
	}

	p.mu.Lock()
	p.sent = append(p.sent, *payload)
	id := len(p.sent)
	scenario, ok := p.perChat[payload.ChatID]
	if !ok {
		scenario = ScenarioSuccess
	}
	p.inFlight++
	if p.inFlight > p.peak {
		p.peak = p.inFlight
	}
	p.mu.Unlock()
	defer func() {
		p.mu.Lock()
		p.inFlight--
		p.mu.Unlock()
	}()

	if p.latency > 0 {
		timer := time.NewTimer(p.latency)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	p.logger.Debug().
		Str("provider", "mock_telegram").
		Str("chat_id", payload.ChatID).
		Str("scenario", string(scenario)).
		Msg("mock telegram provider invoked")

	switch scenario {
	case ScenarioChatNotFound:
		raw := &RawResponse{
			Code:      400,
			Body:      `{"ok":false,"error_code":400,"description":"Bad Request: chat not found"}`,
			Timestamp: p.now(),
		}
		return raw, common.WrapProvider(errors.New("mock telegram provider: http 400: Bad Request: chat not found"))
	case ScenarioTimeout:
		<-ctx.Done()
		return nil, ctx.Err()
	default:
		return &RawResponse{
			MessageID: fmt.Sprintf("%d", id),
			Code:      200,
			Body:      fmt.Sprintf(`{"ok":true,"result":{"message_id":%d}}`, id),
			Timestamp: p.now(),
		}, nil
	}
}

// Sent returns a copy of every payload the provider has received.
func (p *MockProvider) Sent() []Payload {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Payload, len(p.sent))
	copy(out, p.sent)
	return out
}

// Calls reports how many sends reached the provider.
func (p *MockProvider) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.sent)
}

// PeakConcurrency reports the highest number of overlapping sends observed.
func (p *MockProvider) PeakConcurrency() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.peak
}
