package whatsapp

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

// Scenario enumerates supported behaviours for the mock WhatsApp provider.
type Scenario string

const (
	ScenarioSuccess Scenario = "success"
	// ScenarioOutsideWindow answers like Twilio does for a recipient that has
	// not opened a conversation with the sender.
	ScenarioOutsideWindow Scenario = "outside-window"
	ScenarioPermanent     Scenario = "permanent"
	ScenarioTimeout       Scenario = "timeout"
)

// Option customises the mock provider at construction time.
type Option func(*MockProvider)

// WithScenario overrides the default scenario.
func WithScenario(s Scenario) Option {
	return func(p *MockProvider) {
		p.scenario = s
	}
}

// WithLatency sets the artificial latency inserted before responding.
func WithLatency(d time.Duration) Option {
	return func(p *MockProvider) {
		if d < 0 {
			d = 0
		}
		p.latency = d
	}
}

// WithClock swaps out the clock for deterministic timestamps in tests.
func WithClock(now func() time.Time) Option {
	return func(p *MockProvider) {
		if now != nil {
			p.now = now
		}
	}
}

// MockProvider implements a deterministic WhatsApp provider suitable for tests.
type MockProvider struct {
	logger   zerolog.Logger
	scenario Scenario
	latency  time.Duration
	now      func() time.Time

	mu   sync.Mutex
	sent []Payload
}

// NewMockProvider constructs a new mock WhatsApp provider.
func NewMockProvider(logger zerolog.Logger, opts ...Option) *MockProvider {
	if reflect.ValueOf(logger).IsZero() {
		logger = zerolog.Nop()
	}
	p := &MockProvider{
		logger:   logger,
		scenario: ScenarioSuccess,
		now:      time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	return p
}

// Send records the payload and answers according to the configured scenario.
func (p *MockProvider) Send(ctx context.Context, payload *Payload) (*RawResponse, error) {
	if payload == nil {
		return nil, errors.New("mock whatsapp provider: payload is required")
	}
	if payload.To == "" {
		return nil, errors.New("mock whatsapp provider: recipient is required")
	}

	if p.latency > 0 {
		timer := time.NewTimer(p.latency)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	p.mu.Lock()
	p.sent = append(p.sent, *payload)
	sid := fmt.Sprintf("SM%032d", len(p.sent))
	p.mu.Unlock()

	p.logger.Debug().
		Str("provider", "mock_whatsapp").
		Str("scenario", string(p.scenario)).
		Str("to", payload.To).
		Msg("mock whatsapp provider invoked")

	switch p.scenario {
	case ScenarioOutsideWindow:
		return p.failure(400, 63016, "Failed to send freeform message because you are outside the allowed window.")
	case ScenarioPermanent:
		return p.failure(400, 21211, "The 'To' number is not a valid phone number.")
	case ScenarioTimeout:
		<-ctx.Done()
		return nil, ctx.Err()
	default:
		return &RawResponse{
			ID:        sid,
			Code:      201,
			Status:    "queued",
			Body:      fmt.Sprintf(`{"sid":%q,"status":"queued"}`, sid),
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

func (p *MockProvider) failure(status, code int, message string) (*RawResponse, error) {
	raw := &RawResponse{
		Code:      status,
		Status:    "failed",
		Body:      fmt.Sprintf(`{"code":%d,"message":%q,"status":%d}`, code, message, status),
		Timestamp: p.now(),
	}
	return raw, common.WrapProvider(fmt.Errorf("mock whatsapp provider: %w", &APIError{HTTPStatus: status, ErrorCode: code, Message: message}))
}
