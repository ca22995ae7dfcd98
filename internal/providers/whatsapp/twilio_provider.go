package whatsapp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	common "github.com/example/reservation-notifier/internal/adapters/common"
	"github.com/example/reservation-notifier/internal/config"
)

// HTTPClient abstracts the http.Client Do method for easier testing.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// TwilioOption customises the behaviour of the WhatsApp Twilio provider.
type TwilioOption func(*TwilioProvider)

// WithTwilioHTTPClient overrides the HTTP client used to talk to Twilio.
func WithTwilioHTTPClient(client HTTPClient) TwilioOption {
	return func(p *TwilioProvider) {
		if client != nil {
			p.httpClient = client
		}
	}
}

// WithTwilioBaseURL sets the base Twilio API URL. Useful for tests.
func WithTwilioBaseURL(baseURL string) TwilioOption {
	return func(p *TwilioProvider) {
		p.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithTwilioClock overrides the clock used for timestamps.
func WithTwilioClock(now func() time.Time) TwilioOption {
	return func(p *TwilioProvider) {
		if now != nil {
			p.now = now
		}
	}
}

// WithTwilioBodyLimit adjusts how many bytes are retained from the HTTP response body.
func WithTwilioBodyLimit(limit int64) TwilioOption {
	return func(p *TwilioProvider) {
		if limit > 0 {
			p.maxBodyBytes = limit
		}
	}
}

const defaultTwilioBaseURL = "https://api.twilio.com/2010-04-01"

// TwilioProvider implements the Provider interface for WhatsApp using Twilio's API.
type TwilioProvider struct {
	logger       zerolog.Logger
	accountSID   string
	authToken    string
	defaultFrom  string
	httpClient   HTTPClient
	baseURL      string
	now          func() time.Time
	maxBodyBytes int64
}

// NewTwilioProvider constructs a Twilio-backed WhatsApp provider.
func NewTwilioProvider(cfg config.TwilioConfig, logger zerolog.Logger, opts ...TwilioOption) (*TwilioProvider, error) {
	if strings.TrimSpace(cfg.AccountSID) == "" {
		return nil, common.WrapConfiguration(errors.New("twilio whatsapp provider: account SID is required"))
	}
	if strings.TrimSpace(cfg.AuthToken) == "" {
		return nil, common.WrapConfiguration(errors.New("twilio whatsapp provider: auth token is required"))
	}
	if strings.TrimSpace(cfg.WhatsAppFrom) == "" {
		return nil, common.WrapConfiguration(errors.New("twilio whatsapp provider: sender number is required"))
	}
	if reflect.ValueOf(logger).IsZero() {
		logger = zerolog.Nop()
	}

	provider := &TwilioProvider{
		logger:       logger,
		accountSID:   strings.TrimSpace(cfg.AccountSID),
		authToken:    strings.TrimSpace(cfg.AuthToken),
		defaultFrom:  formatWhatsAppAddress(cfg.WhatsAppFrom),
		baseURL:      defaultTwilioBaseURL,
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		now:          time.Now,
		maxBodyBytes: 16 * 1024,
	}

	if cfg.BaseURL != "" {
		provider.baseURL = strings.TrimRight(cfg.BaseURL, "/")
	}

	for _, opt := range opts {
		if opt != nil {
			opt(provider)
		}
	}

	if provider.maxBodyBytes <= 0 {
		provider.maxBodyBytes = 16 * 1024
	}

	return provider, nil
}

// Send delivers a single WhatsApp message via Twilio's Messages resource.
// A non-2xx answer is returned as *APIError alongside the raw response.
func (p *TwilioProvider) Send(ctx context.Context, payload *Payload) (*RawResponse, error) {
	if payload == nil {
		return nil, errors.New("twilio whatsapp provider: payload is required")
	}
	to := formatWhatsAppAddress(payload.To)
	if to == "" {
		return nil, common.WrapValidation(errors.New("twilio whatsapp provider: recipient is required"))
	}
	if strings.TrimSpace(payload.Body) == "" {
		return nil, errors.New("twilio whatsapp provider: body is required")
	}

	from := formatWhatsAppAddress(payload.From)
	if from == "" {
		from = p.defaultFrom
	}

	params := url.Values{}
	params.Set("From", from)
	params.Set("To", to)
	params.Set("Body", payload.Body)

	endpoint := fmt.Sprintf("%s/Accounts/%s/Messages.json", p.baseURL, url.PathEscape(p.accountSID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(params.Encode()))
	if err != nil {
		return nil, fmt.Errorf("twilio whatsapp provider: new request: %w", err)
	}
	req.SetBasicAuth(p.accountSID, p.authToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, common.WrapTransport(fmt.Errorf("twilio whatsapp provider: http do: %w", err))
	}
	defer resp.Body.Close()

	body, err := p.readBody(resp.Body)
	if err != nil {
		return nil, err
	}

	parsed := parseTwilioBody(body)
	raw := &RawResponse{
		ID:        parsed.SID,
		Code:      resp.StatusCode,
		Status:    parsed.Status,
		Body:      body,
		Timestamp: p.now(),
	}
	if raw.Status == "" {
		raw.Status = http.StatusText(resp.StatusCode)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		p.logger.Debug().
			Str("provider", "twilio_whatsapp").
			Str("sid", raw.ID).
			Str("status", raw.Status).
			Msg("twilio accepted message")
		return raw, nil
	}

	message := parsed.Message
	if message == "" {
		message = strings.TrimSpace(body)
	}
	if message == "" {
		message = http.StatusText(resp.StatusCode)
	}

	return raw, common.WrapProvider(fmt.Errorf("twilio whatsapp provider: %w", &APIError{
		HTTPStatus: resp.StatusCode,
		ErrorCode:  parsed.ErrorCode,
		Message:    message,
	}))
}

func (p *TwilioProvider) readBody(rc io.ReadCloser) (string, error) {
	if rc == nil {
		return "", nil
	}

	limit := p.maxBodyBytes
	if limit <= 0 {
		limit = 16 * 1024
	}

	reader := io.LimitReader(rc, limit)
	data, err := io.ReadAll(reader)
	if err != nil {
		return "", common.WrapTransport(fmt.Errorf("twilio whatsapp provider: read body: %w", err))
	}
	return string(data), nil
}

type twilioBody struct {
	SID       string `json:"sid"`
	Status    string `json:"status"`
	ErrorCode int    `json:"code"`
	Message   string `json:"message"`
}

func parseTwilioBody(body string) twilioBody {
	if strings.TrimSpace(body) == "" {
		return twilioBody{}
	}

	var parsed twilioBody
	if err := json.Unmarshal([]byte(body), &parsed); err == nil {
		return parsed
	}

	var generic map[string]any
	if err := json.Unmarshal([]byte(body), &generic); err != nil {
		return twilioBody{}
	}

	result := twilioBody{}
	if v, ok := generic["sid"].(string); ok {
		result.SID = v
	}
	if v, ok := generic["status"].(string); ok {
		result.Status = v
	}
	if v, ok := generic["code"]; ok {
		switch value := v.(type) {
		case float64:
			result.ErrorCode = int(value)
		case string:
			if n, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
				result.ErrorCode = n
			}
		}
	}
	if v, ok := generic["message"].(string); ok {
		result.Message = v
	}
	return result
}

func formatWhatsAppAddress(number string) string {
	trimmed := strings.TrimSpace(number)
	if trimmed == "" {
		return ""
	}
	lower := strings.ToLower(trimmed)
	if strings.HasPrefix(lower, "whatsapp:") {
		suffix := strings.TrimSpace(trimmed[len("whatsapp:"):])
		return "whatsapp:" + suffix
	}
	return "whatsapp:" + trimmed
}
