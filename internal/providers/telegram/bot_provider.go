package telegram

import (
	"bytes"
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

// BotOption customises the Bot API provider.
type BotOption func(*BotProvider)

// WithBotHTTPClient overrides the HTTP client used to talk to Telegram.
func WithBotHTTPClient(client HTTPClient) BotOption {
	return func(p *BotProvider) {
		if client != nil {
			p.httpClient = client
		}
	}
}

// WithBotBaseURL sets the Bot API base URL. Useful for tests.
func WithBotBaseURL(baseURL string) BotOption {
	return func(p *BotProvider) {
		if strings.TrimSpace(baseURL) != "" {
			p.baseURL = strings.TrimRight(baseURL, "/")
		}
	}
}

// BotProvider calls the Telegram Bot API sendMessage method.
type BotProvider struct {
	logger       zerolog.Logger
	token        string
	baseURL      string
	httpClient   HTTPClient
	now          func() time.Time
	maxBodyBytes int64
}

// NewBotProvider constructs a Telegram provider for the configured bot.
func NewBotProvider(cfg config.TelegramConfig, logger zerolog.Logger, opts ...BotOption) (*BotProvider, error) {
	if strings.TrimSpace(cfg.BotToken) == "" {
		return nil, common.WrapConfiguration(errors.New("telegram provider: bot token is required"))
	}
	if reflect.ValueOf(logger).IsZero() {
		logger = zerolog.Nop()
	}

	p := &BotProvider{
		logger:       logger,
		token:        strings.TrimSpace(cfg.BotToken),
		baseURL:      "https://api.telegram.org",
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

type sendMessageRequest struct {
	ChatID                string `json:"chat_id"`
	Text                  string `json:"text"`
	ParseMode             string `json:"parse_mode,omitempty"`
	DisableWebPagePreview bool   `json:"disable_web_page_preview,omitempty"`
}

type botResponse struct {
	OK          bool   `json:"ok"`
	ErrorCode   int    `json:"error_code"`
	Description string `json:"description"`
	Result      struct {
		MessageID int64 `json:"message_id"`
	} `json:"result"`
}

// Send posts the message to a single chat.
func (p *BotProvider) Send(ctx context.Context, payload *Payload) (*RawResponse, error) {
	if payload == nil {
		return nil, errors.New("telegram provider: payload is required")
	}
	if strings.TrimSpace(payload.ChatID) == "" {
		return nil, common.WrapValidation(errors.New("telegram provider: chat id is required"))
	}

	encoded, err := json.Marshal(sendMessageRequest{
		ChatID:                strings.TrimSpace(payload.ChatID),
		Text:                  payload.Text,
		ParseMode:             payload.ParseMode,
		DisableWebPagePreview: payload.DisableWebPagePreview,
	})
	if err != nil {
		return nil, fmt.Errorf("telegram provider: marshal: %w", err)
	}

	// The token is part of the path and must never end up in logs or errors.
	endpoint := p.baseURL + "/bot" + p.token + "/sendMessage"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(encoded))
	if err != nil {
		return nil, errors.New("telegram provider: new request failed")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, common.WrapTransport(fmt.Errorf("telegram provider: http do: %w", redactURLError(err)))
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, p.maxBodyBytes))
	if err != nil {
		return nil, common.WrapTransport(fmt.Errorf("telegram provider: read body: %w", err))
	}

	var parsed botResponse
	_ = json.Unmarshal(data, &parsed)

	raw := &RawResponse{
		Code:      resp.StatusCode,
		Body:      string(data),
		Timestamp: p.now(),
	}
	if parsed.Result.MessageID != 0 {
		raw.MessageID = strconv.FormatInt(parsed.Result.MessageID, 10)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 && parsed.OK {
		return raw, nil
	}

	description := parsed.Description
	if description == "" {
		description = http.StatusText(resp.StatusCode)
	}
	return raw, common.WrapProvider(fmt.Errorf("telegram provider: http %d: %s", resp.StatusCode, description))
}

// redactURLError strips the request URL, which embeds the bot token, from
// transport errors.
func redactURLError(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Err != nil {
		return urlErr.Err
	}
	return err
}
