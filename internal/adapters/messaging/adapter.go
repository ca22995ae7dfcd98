package messaging

import (
	"context"
	"errors"
	"reflect"
	"strings"

	"github.com/rs/zerolog"

	common "github.com/example/reservation-notifier/internal/adapters/common"
	"github.com/example/reservation-notifier/internal/models"
	waprovider "github.com/example/reservation-notifier/internal/providers/whatsapp"
	"github.com/example/reservation-notifier/internal/render"
	"github.com/example/reservation-notifier/internal/util"
)

// Twilio error codes for recipients that cannot currently be messaged. They
// are reported like any other provider failure and only annotate the log.
var recipientErrorCodes = map[int]string{
	21211: "invalid recipient number",
	21610: "recipient unsubscribed",
	21612: "recipient unreachable from sender",
	21614: "recipient is not a mobile number",
	63015: "recipient has not joined the sandbox",
	63016: "recipient outside the messaging window",
}

// Option customises adapter behaviour.
type Option func(*Adapter)

// WithRegions overrides the country codes used to complete local numbers.
func WithRegions(r util.PhoneRegions) Option {
	return func(a *Adapter) {
		a.regions = r
	}
}

// WithRawBodyLimit overrides the maximum number of characters retained from
// provider error details.
func WithRawBodyLimit(limit int) Option {
	return func(a *Adapter) {
		if limit > 0 {
			a.maxRawChars = limit
		}
	}
}

// Adapter sends the reservation as a WhatsApp message to one number.
type Adapter struct {
	logger      zerolog.Logger
	provider    waprovider.Provider
	renderer    *render.Renderer
	regions     util.PhoneRegions
	maxRawChars int
}

// NewAdapter constructs a messaging adapter. A nil provider disables the
// channel.
func NewAdapter(provider waprovider.Provider, renderer *render.Renderer, logger zerolog.Logger, opts ...Option) *Adapter {
	if reflect.ValueOf(logger).IsZero() {
		logger = zerolog.Nop()
	}
	if renderer == nil {
		renderer = render.New(render.Branding{})
	}

	a := &Adapter{
		logger:      logger,
		provider:    provider,
		renderer:    renderer,
		maxRawChars: common.DefaultRawBodyLimit,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(a)
		}
	}
	return a
}

// Send normalises the destination and delivers the rendered message.
func (a *Adapter) Send(ctx context.Context, event models.ReservationEvent, target models.ChannelTarget) models.ChannelResult {
	if a.provider == nil || len(target.Addresses) == 0 || strings.TrimSpace(target.Addresses[0]) == "" {
		return common.NotConfigured()
	}
	if len(target.Addresses) != 1 {
		return common.InvalidDestination()
	}

	to, err := a.regions.Normalize(target.Addresses[0])
	if err != nil {
		a.logger.Info().
			Str("reservation_id", event.ID).
			Str("channel", string(models.ChannelMessaging)).
			Err(err).
			Msg("messaging adapter rejected destination")
		return common.InvalidDestination()
	}

	body, err := a.renderer.Messaging(event)
	if err != nil {
		return common.Failed(err, a.maxRawChars)
	}

	raw, err := a.provider.Send(ctx, &waprovider.Payload{
		MessageID: event.ID,
		To:        to,
		Body:      body,
	})
	if err != nil {
		res := common.Failed(err, a.maxRawChars)
		ev := a.logger.Info().
			Str("reservation_id", event.ID).
			Str("channel", string(models.ChannelMessaging)).
			Str("kind", res.Kind)
		var apiErr *waprovider.APIError
		if errors.As(err, &apiErr) {
			ev = ev.Int("provider_status", apiErr.HTTPStatus).Int("provider_code", apiErr.ErrorCode)
			if hint, ok := recipientErrorCodes[apiErr.ErrorCode]; ok {
				ev = ev.Str("hint", hint)
			}
		}
		ev.Err(err).Msg("messaging adapter send failed")
		return res
	}

	var id string
	if raw != nil {
		id = raw.ID
	}
	a.logger.Debug().
		Str("reservation_id", event.ID).
		Str("channel", string(models.ChannelMessaging)).
		Str("provider_id", id).
		Msg("messaging adapter send succeeded")
	return common.Succeeded(id)
}
