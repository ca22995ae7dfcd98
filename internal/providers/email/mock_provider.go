package email

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

// Scenario enumerates the supported mock behaviours.
type Scenario string

const (
	ScenarioSuccess   Scenario = "success"
	ScenarioTransient Scenario = "transient"
	ScenarioPermanent Scenario = "permanent"
	ScenarioTimeout   Scenario = "timeout"
)

// Option customizes the behaviour of the mock provider at construction time.
type Option func(*MockProvider)

// WithLatency makes every send wait for d before answering. Negative values
// are clamped to zero.
func WithLatency(d time.Duration) Option {
	return func(p *MockProvider) {
		if d < 0 {
			d = 0
		}
		p.latency = d
	}
}

// WithDefaultScenario configures the behaviour for every recipient that has no
// override.
func WithDefaultScenario(s Scenario) Option {
	return func(p *MockProvider) {
		p.defaultScenario = s
	}
}

// WithRecipientScenario overrides the behaviour for a single address.
func WithRecipientScenario(addr string, s Scenario) Option {
	return func(p *MockProvider) {
		p.perRecipient[addr] = s
	}
}

// WithClock overrides the clock used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(p *MockProvider) {
		if now != nil {
			p.now = now
		}
	}
}

// MockProvider records payloads instead of delivering them. It is used for
// local development and by tests.
type MockProvider struct {
	logger          zerolog.Logger
	latency         time.Duration
	defaultScenario Scenario
	perRecipient    map[string]Scenario
	now             func() time.Time

	mu   sync.Mutex
	sent []Payload
	seq  int
}

// NewMockProvider constructs a mock email provider that succeeds by default.
func NewMockProvider(logger zerolog.Logger, opts ...Option) *MockProvider {
	if reflect.ValueOf(logger).IsZero() {
		logger = zerolog.Nop()
	}

	p := &MockProvider{
		logger:          logger,
		defaultScenario: ScenarioSuccess,
		perRecipient:    make(map[string]Scenario),
		now:             time.Now,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}

	return p
}

// Send simulates delivering the supplied payload.
func (p *MockProvider) Send(ctx context.Context, payload *Payload) (*RawResponse, error) {
	if payload == nil {
		return nil, errors.New("mock email provider: payload is required")
	}
	if len(payload.To) == 0 {
		return nil, errors.New("mock email provider: at least one recipient is required")
	}

	if err := sleep(ctx, p.latency); err != nil {
		return nil, err
	}

	scenario := p.scenarioFor(payload.To[0])
	id := p.record(payload)

	p.logger.Debug().
		Str("provider", "mock_email").
		Str("scenario", string(scenario)).
		Str("message_id", id).
		Msg("mock email provider invoked")

	switch scenario {
	case ScenarioPermanent:
		resp := p.response(id, 400, `{"code":"invalid_parameter","message":"mock: recipient rejected"}`)
		return resp, common.WrapProvider(fmt.Errorf("mock email provider: http %d: recipient rejected", resp.Code))
	case ScenarioTransient:
		resp := p.response(id, 503, `{"code":"service_unavailable","message":"mock: try again later"}`)
		return resp, common.WrapProvider(fmt.Errorf("mock email provider: http %d: service unavailable", resp.Code))
	case ScenarioTimeout:
		<-ctx.Done()
		return nil, ctx.Err()
	default:
		return p.response(id, 201, fmt.Sprintf(`{"messageId":%q}`, id)), nil
	}
}

// Sent returns a copy of every payload the provider has accepted so far.
func (p *MockProvider) Sent() []Payload {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Payload, len(p.sent))
	copy(out, p.sent)
	return out
}

// Calls reports how many times Send reached the provider.
func (p *MockProvider) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.sent)
}

func (p *MockProvider) scenarioFor(addr string) Scenario {
	p.mu.Lock()
	defer p.mu.Unlock()
	if s, ok := p.perRecipient[addr]; ok {
		return s
	}
	return p.defaultScenario
}

func (p *MockProvider) record(payload *Payload) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sent = append(p.sent, *payload)
	p.seq++
	if payload.MessageID != "" {
		return payload.MessageID
	}
	return fmt.Sprintf("<mock-%04d@mock.local>", p.seq)
}

func (p *MockProvider) response(id string, code int, body string) *RawResponse {
	return &RawResponse{
		ID:        id,
		Code:      code,
		Body:      body,
		Timestamp: p.now(),
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
