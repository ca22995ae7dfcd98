package email

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/rs/zerolog"

	common "github.com/example/reservation-notifier/internal/adapters/common"
	"github.com/example/reservation-notifier/internal/config"
)

const brevoSendPath = "/v3/smtp/email"

// HTTPClient abstracts the http.Client Do method for easier testing.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// BrevoOption customises the Brevo provider.
type BrevoOption func(*BrevoProvider)

// WithBrevoHTTPClient overrides the HTTP client used to talk to Brevo.
func WithBrevoHTTPClient(client HTTPClient) BrevoOption {
	return func(p *BrevoProvider) {
		if client != nil {
			p.httpClient = client
		}
	}
}

// WithBrevoBaseURL sets the API base URL. Useful for tests.
func WithBrevoBaseURL(baseURL string) BrevoOption {
	return func(p *BrevoProvider) {
		if strings.TrimSpace(baseURL) != "" {
			p.baseURL = strings.TrimRight(baseURL, "/")
		}
	}
}

// WithBrevoClock overrides the clock used for timestamps.
func WithBrevoClock(now func() time.Time) BrevoOption {
	return func(p *BrevoProvider) {
		if now != nil {
			p.now = now
		}
	}
}

// BrevoProvider sends transactional email through the Brevo HTTP API.
type BrevoProvider struct {
	logger       zerolog.Logger
	apiKey       string
	senderEmail  string
	senderName   string
	baseURL      string
	httpClient   HTTPClient
	now          func() time.Time
	maxBodyBytes int64
}

// NewBrevoProvider constructs a Brevo-backed email provider.
func NewBrevoProvider(cfg config.BrevoConfig, logger zerolog.Logger, opts ...BrevoOption) (*BrevoProvider, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, common.WrapConfiguration(errors.New("brevo provider: api key is required"))
	}
	if strings.TrimSpace(cfg.SenderEmail) == "" {
		return nil, common.WrapConfiguration(errors.New("brevo provider: sender email is required"))
	}
	if reflect.ValueOf(logger).IsZero() {
		logger = zerolog.Nop()
	}

	p := &BrevoProvider{
		logger:       logger,
		apiKey:       strings.TrimSpace(cfg.APIKey),
		senderEmail:  strings.TrimSpace(cfg.SenderEmail),
		senderName:   strings.TrimSpace(cfg.SenderName),
		baseURL:      "https://api.brevo.com",
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		now:          time.Now,
		maxBodyBytes: 16 * 1024,
	}
	if cfg.BaseURL != "" {
		p.baseURL = strings.TrimRight(cfg.BaseURL, "/")
	}

	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}

	return p, nil
}

type brevoAddress struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email"`
}

type brevoRequest struct {
	Sender      brevoAddress      `json:"sender"`
	To          []brevoAddress    `json:"to"`
	Subject     string            `json:"subject"`
	HTMLContent string            `json:"htmlContent,omitempty"`
	TextContent string            `json:"textContent,omitempty"`
	Headers     map[string]string `json:"headers,omitempty"`
}

type brevoBody struct {
	MessageID string `json:"messageId"`
	Code      string `json:"code"`
	Message   string `json:"message"`
}

// Send posts the payload to Brevo and returns the provider message id.
func (p *BrevoProvider) Send(ctx context.Context, payload *Payload) (*RawResponse, error) {
	if payload == nil {
		return nil, errors.New("brevo provider: payload is required")
	}
	if len(payload.To) == 0 {
		return nil, common.WrapValidation(errors.New("brevo provider: at least one recipient is required"))
	}

	reqBody := brevoRequest{
		Sender:      brevoAddress{Name: p.senderName, Email: p.senderEmail},
		Subject:     payload.Subject,
		HTMLContent: payload.HTML,
		TextContent: payload.Text,
		Headers:     payload.Headers,
	}
	if strings.TrimSpace(payload.From) != "" {
		reqBody.Sender.Email = strings.TrimSpace(payload.From)
	}
	if strings.TrimSpace(payload.FromName) != "" {
		reqBody.Sender.Name = strings.TrimSpace(payload.FromName)
	}
	for i, addr := range payload.To {
		to := brevoAddress{Email: addr}
		if i == 0 {
			to.Name = strings.TrimSpace(payload.ToName)
		}
		reqBody.To = append(reqBody.To, to)
	}

	encoded, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("brevo provider: marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+brevoSendPath, bytes.NewReader(encoded))
	if err != nil {
		return nil, fmt.Errorf("brevo provider: new request: %w", err)
	}
	req.Header.Set("api-key", p.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, common.WrapTransport(fmt.Errorf("brevo provider: http do: %w", err))
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, p.maxBodyBytes))
	if err != nil {
		return nil, common.WrapTransport(fmt.Errorf("brevo provider: read body: %w", err))
	}

	var parsed brevoBody
	_ = json.Unmarshal(data, &parsed)

	raw := &RawResponse{
		ID:        parsed.MessageID,
		Code:      resp.StatusCode,
		Body:      string(data),
		Timestamp: p.now(),
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		p.logger.Debug().
			Str("provider", "brevo").
			Int("status", resp.StatusCode).
			Str("message_id", raw.ID).
			Msg("brevo accepted email")
		return raw, nil
	}

	message := parsed.Message
	if message == "" {
		message = strings.TrimSpace(string(data))
	}
	if message == "" {
		message = http.StatusText(resp.StatusCode)
	}
	if parsed.Code != "" {
		return raw, common.WrapProvider(fmt.Errorf("brevo provider: http %d: %s: %s", resp.StatusCode, parsed.Code, message))
	}
	return raw, common.WrapProvider(fmt.Errorf("brevo provider: http %d: %s", resp.StatusCode, message))
}
