// Package dispatcher fans one reservation out to every notification channel
// and aggregates the outcomes.
package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	common "github.com/example/reservation-notifier/internal/adapters/common"
	"github.com/example/reservation-notifier/internal/models"
	"github.com/example/reservation-notifier/internal/util"
)

const (
	tracerName             = "github.com/example/reservation-notifier/internal/dispatcher"
	defaultProviderTimeout = 10 * time.Second
)

// ErrEmailNotConfigured is returned before any channel is attempted when no
// email backend is available; without email the customer cannot be
// confirmed.
var ErrEmailNotConfigured = fmt.Errorf("dispatcher: %w: email channel is not configured", common.ErrConfiguration)

// Config holds the business destinations resolved from configuration.
type Config struct {
	BusinessEmail   string
	BroadcastRooms  []string
	MessagingNumber string
	ProviderTimeout time.Duration
}

// EmailAdapter is the email channel; it also reports whether email can be
// attempted at all.
type EmailAdapter interface {
	common.Adapter
	Configured() bool
}

// CodeGenerator produces confirmation codes.
type CodeGenerator interface {
	Generate() string
}

// OutcomePublisher receives the diagnostic record of every dispatch.
type OutcomePublisher interface {
	Publish(ctx context.Context, record models.DispatchRecord) error
}

// Recorder observes finished dispatches, typically for metrics.
type Recorder interface {
	ObserveDispatch(res *models.DispatchResult, elapsed time.Duration)
}

// Dependencies collects the collaborators required by the dispatcher.
// Publisher, Recorder and Tracer are optional.
type Dependencies struct {
	Email     EmailAdapter
	Broadcast common.Adapter
	Messaging common.Adapter
	Codes     CodeGenerator
	Publisher OutcomePublisher
	Recorder  Recorder
	Tracer    trace.Tracer
	Logger    zerolog.Logger
	Now       func() time.Time
}

// Dispatcher delivers reservations to all channels.
type Dispatcher struct {
	cfg       Config
	email     EmailAdapter
	broadcast common.Adapter
	messaging common.Adapter
	codes     CodeGenerator
	publisher OutcomePublisher
	recorder  Recorder
	tracer    trace.Tracer
	logger    zerolog.Logger
	now       func() time.Time

	publishing sync.WaitGroup
}

// New validates the dependencies and constructs a Dispatcher.
func New(cfg Config, deps Dependencies) (*Dispatcher, error) {
	if deps.Email == nil {
		return nil, errors.New("dispatcher: email adapter dependency is required")
	}
	if deps.Broadcast == nil {
		return nil, errors.New("dispatcher: broadcast adapter dependency is required")
	}
	if deps.Messaging == nil {
		return nil, errors.New("dispatcher: messaging adapter dependency is required")
	}
	if deps.Codes == nil {
		return nil, errors.New("dispatcher: code generator dependency is required")
	}
	if cfg.ProviderTimeout <= 0 {
		cfg.ProviderTimeout = defaultProviderTimeout
	}

	logger := deps.Logger
	if reflect.ValueOf(logger).IsZero() {
		logger = zerolog.Nop()
	}
	logger = logger.With().Str("component", "dispatcher").Logger()

	tracer := deps.Tracer
	if tracer == nil {
		tracer = otel.Tracer(tracerName)
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}

	return &Dispatcher{
		cfg:       cfg,
		email:     deps.Email,
		broadcast: deps.Broadcast,
		messaging: deps.Messaging,
		codes:     deps.Codes,
		publisher: deps.Publisher,
		recorder:  deps.Recorder,
		tracer:    tracer,
		logger:    logger,
		now:       now,
	}, nil
}

type attempt struct {
	adapter common.Adapter
	target  models.ChannelTarget
}

// Dispatch assigns the confirmation code and attempts every channel
// concurrently. Outcomes are always ordered business email, broadcast,
// messaging, customer email. Channel failures are reported in the result;
// the only error is ErrEmailNotConfigured.
//
// Attempts are detached from ctx cancellation so a client disconnect does not
// abort deliveries already in flight; each attempt has its own timeout. The
// outcome record is published in the background; see Wait.
func (d *Dispatcher) Dispatch(ctx context.Context, event models.ReservationEvent) (*models.DispatchResult, error) {
	if !d.email.Configured() {
		return nil, ErrEmailNotConfigured
	}

	start := d.now()
	if event.ID == "" {
		event.ID = util.NewID()
	}
	if event.ConfirmationCode == "" {
		event, _ = event.WithConfirmationCode(d.codes.Generate())
	}

	ctx, span := d.tracer.Start(ctx, "dispatch", trace.WithAttributes(
		attribute.String("reservation.id", event.ID),
		attribute.String("reservation.code", event.ConfirmationCode),
	))
	defer span.End()

	detached := context.WithoutCancel(ctx)
	attempts := d.plan(event)
	outcomes := make([]models.ChannelOutcome, len(attempts))

	var g errgroup.Group
	for i, a := range attempts {
		g.Go(func() error {
			outcomes[i] = d.run(detached, event, a)
			return nil
		})
	}
	_ = g.Wait()

	result := &models.DispatchResult{
		OverallSuccess:   outcomes[len(outcomes)-1].Success,
		ConfirmationCode: event.ConfirmationCode,
		ChannelOutcomes:  outcomes,
	}
	elapsed := d.now().Sub(start)

	span.SetAttributes(attribute.Bool("dispatch.overall_success", result.OverallSuccess))
	if !result.OverallSuccess {
		span.SetStatus(codes.Error, "customer confirmation not delivered")
	}

	d.report(ctx, event, result, elapsed)
	if d.recorder != nil {
		d.recorder.ObserveDispatch(result, elapsed)
	}
	d.publish(detached, event, result, start, elapsed)

	return result, nil
}

// Wait blocks until every outcome publish started by Dispatch has finished
// or ctx is done.
func (d *Dispatcher) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.publishing.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("dispatcher: wait for outcome publishing: %w", ctx.Err())
	}
}

func (d *Dispatcher) plan(event models.ReservationEvent) []attempt {
	var businessEmail, messaging []string
	if d.cfg.BusinessEmail != "" {
		businessEmail = []string{d.cfg.BusinessEmail}
	}
	// The business number only; customers are never messaged on this channel.
	if d.cfg.MessagingNumber != "" {
		messaging = []string{d.cfg.MessagingNumber}
	}

	return []attempt{
		{d.email, models.ChannelTarget{Channel: models.ChannelEmail, Role: models.RoleBusiness, Addresses: businessEmail}},
		{d.broadcast, models.ChannelTarget{Channel: models.ChannelBroadcast, Role: models.RoleBusiness, Addresses: append([]string(nil), d.cfg.BroadcastRooms...)}},
		{d.messaging, models.ChannelTarget{Channel: models.ChannelMessaging, Role: models.RoleBusiness, Addresses: messaging}},
		{d.email, models.ChannelTarget{Channel: models.ChannelEmail, Role: models.RoleCustomer, Addresses: []string{event.Email}}},
	}
}

func (d *Dispatcher) run(ctx context.Context, event models.ReservationEvent, a attempt) (out models.ChannelOutcome) {
	out.Channel = a.target.Channel
	out.Role = a.target.Role

	ctx, span := d.tracer.Start(ctx, "dispatch."+string(a.target.Channel), trace.WithAttributes(
		attribute.String("channel", string(a.target.Channel)),
		attribute.String("role", string(a.target.Role)),
	))
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, d.cfg.ProviderTimeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			out.ChannelResult = common.Failed(fmt.Errorf("adapter panic: %v", r), common.DefaultRawBodyLimit)
			span.SetStatus(codes.Error, "adapter panic")
		}
	}()

	out.ChannelResult = a.adapter.Send(ctx, event, a.target)
	span.SetAttributes(attribute.Bool("success", out.Success))
	if !out.Success {
		span.SetStatus(codes.Error, out.Error)
	}
	return out
}

func (d *Dispatcher) report(ctx context.Context, event models.ReservationEvent, res *models.DispatchResult, elapsed time.Duration) {
	for _, o := range res.Failures() {
		level := zerolog.ErrorLevel
		if o.Error == models.ErrorNotConfigured {
			level = zerolog.WarnLevel
		}
		d.logger.WithLevel(level).
			Ctx(ctx).
			Str("reservation_id", event.ID).
			Str("channel", string(o.Channel)).
			Str("role", string(o.Role)).
			Str("kind", o.Kind).
			Strs("room_failures", o.RoomFailures).
			Str("error", o.Error).
			Msg("channel delivery failed")
	}

	d.logger.Info().
		Ctx(ctx).
		Str("reservation_id", event.ID).
		Str("confirmation_code", res.ConfirmationCode).
		Bool("overall_success", res.OverallSuccess).
		Dur("elapsed", elapsed).
		Msg("reservation dispatched")
}

// publish sends the outcome record in the background, bounded by the
// provider timeout, so the caller never waits on the broker.
func (d *Dispatcher) publish(ctx context.Context, event models.ReservationEvent, res *models.DispatchResult, start time.Time, elapsed time.Duration) {
	if d.publisher == nil {
		return
	}

	record := models.DispatchRecord{
		ReservationID:    event.ID,
		ConfirmationCode: res.ConfirmationCode,
		OverallSuccess:   res.OverallSuccess,
		Channels:         append([]models.ChannelOutcome(nil), res.ChannelOutcomes...),
		DispatchedAt:     start.UTC(),
		DurationMs:       elapsed.Milliseconds(),
	}

	d.publishing.Add(1)
	go func() {
		defer d.publishing.Done()
		defer func() {
			if r := recover(); r != nil {
				d.logger.Error().
					Str("reservation_id", record.ReservationID).
					Interface("panic", r).
					Msg("dispatch outcome publish panicked")
			}
		}()

		ctx, cancel := context.WithTimeout(ctx, d.cfg.ProviderTimeout)
		defer cancel()
		if err := d.publisher.Publish(ctx, record); err != nil {
			d.logger.Error().
				Ctx(ctx).
				Str("reservation_id", record.ReservationID).
				Err(err).
				Msg("dispatch outcome publish failed")
		}
	}()
}
