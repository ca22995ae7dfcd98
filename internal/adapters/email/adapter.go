package email

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	"github.com/rs/zerolog"

	common "github.com/example/reservation-notifier/internal/adapters/common"
	"github.com/example/reservation-notifier/internal/models"
	emailprovider "github.com/example/reservation-notifier/internal/providers/email"
	"github.com/example/reservation-notifier/internal/render"
	"github.com/example/reservation-notifier/internal/util"
)

// Option customises adapter behaviour.
type Option func(*Adapter)

// WithRawBodyLimit overrides the maximum number of characters retained from
// provider error details.
func WithRawBodyLimit(limit int) Option {
	return func(a *Adapter) {
		if limit > 0 {
			a.maxRawChars = limit
		}
	}
}

// Adapter delivers one rendered email per invocation. The business
// notification and the customer confirmation are separate invocations that
// differ only in target role.
type Adapter struct {
	logger      zerolog.Logger
	provider    emailprovider.Provider
	renderer    *render.Renderer
	maxRawChars int
}

// NewAdapter constructs an email adapter. A nil provider means email is not
// configured; every send then reports not-configured.
func NewAdapter(provider emailprovider.Provider, renderer *render.Renderer, logger zerolog.Logger, opts ...Option) *Adapter {
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

// Configured reports whether a provider is wired.
func (a *Adapter) Configured() bool {
	return a.provider != nil
}

// Send renders the email for target.Role and hands it to the provider.
func (a *Adapter) Send(ctx context.Context, event models.ReservationEvent, target models.ChannelTarget) models.ChannelResult {
	if !a.Configured() {
		return common.NotConfigured()
	}

	if len(target.Addresses) != 1 {
		a.logger.Info().
			Str("reservation_id", event.ID).
			Str("role", string(target.Role)).
			Int("addresses", len(target.Addresses)).
			Msg("email adapter rejected target")
		return common.InvalidDestination()
	}
	addr, err := util.NormalizeEmail(target.Addresses[0])
	if err != nil {
		a.logger.Info().
			Str("reservation_id", event.ID).
			Str("role", string(target.Role)).
			Err(err).
			Msg("email adapter rejected address")
		return common.InvalidDestination()
	}

	msg, err := a.render(event, target.Role)
	if err != nil {
		return common.Failed(err, a.maxRawChars)
	}

	payload := &emailprovider.Payload{
		MessageID: fmt.Sprintf("<%s.%s@reservation-notifier>", event.ID, target.Role),
		FromName:  a.renderer.Brand().Name,
		To:        []string{addr},
		Subject:   msg.Subject,
		HTML:      msg.HTML,
		Text:      msg.Text,
		Headers: map[string]string{
			"X-Reservation-ID":    event.ID,
			"X-Confirmation-Code": event.ConfirmationCode,
		},
	}
	if target.Role == models.RoleCustomer {
		payload.ToName = event.Name
	}

	raw, err := a.provider.Send(ctx, payload)
	if err != nil {
		res := common.Failed(err, a.maxRawChars)
		ev := a.logger.Info().
			Str("reservation_id", event.ID).
			Str("channel", string(models.ChannelEmail)).
			Str("role", string(target.Role)).
			Str("kind", res.Kind)
		if raw != nil {
			ev = ev.Int("provider_status", raw.Code)
		}
		ev.Err(err).Msg("email adapter send failed")
		return res
	}

	var id string
	if raw != nil {
		id = raw.ID
	}
	a.logger.Debug().
		Str("reservation_id", event.ID).
		Str("channel", string(models.ChannelEmail)).
		Str("role", string(target.Role)).
		Str("provider_id", id).
		Msg("email adapter send succeeded")
	return common.Succeeded(id)
}

func (a *Adapter) render(event models.ReservationEvent, role models.Role) (render.Email, error) {
	switch role {
	case models.RoleBusiness:
		return a.renderer.BusinessEmail(event)
	case models.RoleCustomer:
		return a.renderer.CustomerEmail(event)
	default:
		return render.Email{}, common.WrapValidation(errors.New("email adapter: unknown target role " + string(role)))
	}
}
