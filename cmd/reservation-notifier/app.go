package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	broadcastadapter "github.com/example/reservation-notifier/internal/adapters/broadcast"
	emailadapter "github.com/example/reservation-notifier/internal/adapters/email"
	messagingadapter "github.com/example/reservation-notifier/internal/adapters/messaging"
	"github.com/example/reservation-notifier/internal/config"
	"github.com/example/reservation-notifier/internal/confirmation"
	"github.com/example/reservation-notifier/internal/dispatcher"
	"github.com/example/reservation-notifier/internal/kafka/producer"
	kafkapublisher "github.com/example/reservation-notifier/internal/kafka/publisher"
	"github.com/example/reservation-notifier/internal/logger"
	"github.com/example/reservation-notifier/internal/metrics"
	"github.com/example/reservation-notifier/internal/providers/factory"
	"github.com/example/reservation-notifier/internal/render"
	"github.com/example/reservation-notifier/internal/telemetry"
	"github.com/example/reservation-notifier/internal/util"
)

// app holds the wired service graph shared by serve and send.
type app struct {
	cfg        *config.Config
	log        zerolog.Logger
	metrics    *metrics.Metrics
	dispatcher *dispatcher.Dispatcher
	closers    []func(context.Context) error
}

func newApp(ctx context.Context, flags *rootFlags) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if flags != nil && flags.logLevel != "" {
		cfg.App.LogLevel = flags.logLevel
	}

	baseLogger, err := logger.New(cfg.App.Env, cfg.App.LogLevel, cfg.Telemetry.ServiceName)
	if err != nil {
		return nil, fmt.Errorf("logger init: %w", err)
	}
	log := *baseLogger

	a := &app{cfg: cfg, log: log, metrics: metrics.New()}

	shutdown, err := telemetry.Setup(ctx, cfg.Telemetry, cfg.App.Env, log.With().Str("component", "telemetry").Logger())
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, shutdown)

	renderer := render.New(render.Branding{
		Name:  cfg.Business.Name,
		Phone: cfg.Business.Phone,
		Email: cfg.Business.NotificationEmail,
	})
	timeout := time.Duration(cfg.Dispatch.ProviderTimeoutSeconds) * time.Second

	providerLog := log.With().Str("component", "providers").Logger()
	emailProvider, err := factory.Email(cfg.Providers, providerLog)
	if err = optional(log, "email", err); err != nil {
		return nil, err
	}
	tgProvider, err := factory.Telegram(cfg.Providers, providerLog)
	if err = optional(log, "broadcast", err); err != nil {
		return nil, err
	}
	waProvider, err := factory.WhatsApp(cfg.Providers, providerLog)
	if err = optional(log, "messaging", err); err != nil {
		return nil, err
	}

	email := emailadapter.NewAdapter(emailProvider, renderer, log.With().Str("component", "email-adapter").Logger())
	broadcast := broadcastadapter.NewAdapter(tgProvider, renderer, log.With().Str("component", "broadcast-adapter").Logger(),
		broadcastadapter.WithMaxParallel(cfg.Dispatch.BroadcastMaxParallel))
	messaging := messagingadapter.NewAdapter(waProvider, renderer, log.With().Str("component", "messaging-adapter").Logger(),
		messagingadapter.WithRegions(util.PhoneRegions{
			Default:  cfg.Dispatch.PhoneDefaultRegion,
			Fallback: cfg.Dispatch.PhoneFallbackRegion,
		}))

	deps := dispatcher.Dependencies{
		Email:     email,
		Broadcast: broadcast,
		Messaging: messaging,
		Codes:     confirmation.NewGenerator(confirmation.WithPrefix(cfg.Dispatch.ConfirmationPrefix)),
		Recorder:  a.metrics,
		Logger:    log,
	}

	if cfg.Kafka.Enabled() {
		prod, err := producer.New(cfg.Kafka.Brokers, log)
		if err != nil {
			log.Error().Err(err).Msg("kafka producer unavailable; dispatch outcomes will not be published")
		} else {
			a.closers = append(a.closers, func(context.Context) error { return prod.Close() })
			deps.Publisher = kafkapublisher.NewDispatchPublisher(prod, cfg.Kafka.OutcomeTopic, log)
			log.Info().Strs("brokers", cfg.Kafka.Brokers).Str("topic", cfg.Kafka.OutcomeTopic).Msg("dispatch outcome publishing enabled")
		}
	}

	d, err := dispatcher.New(dispatcher.Config{
		BusinessEmail:   cfg.Business.NotificationEmail,
		BroadcastRooms:  cfg.Providers.Telegram.ChatIDs,
		MessagingNumber: cfg.Business.WhatsAppNumber,
		ProviderTimeout: timeout,
	}, deps)
	if err != nil {
		_ = a.Close(ctx)
		return nil, err
	}
	a.dispatcher = d
	a.closers = append(a.closers, d.Wait)

	return a, nil
}

// optional downgrades a not-configured provider to a warning; the adapter
// then reports not-configured on every send.
func optional(log zerolog.Logger, channel string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, factory.ErrNotConfigured) {
		log.Warn().Str("channel", channel).Msg("channel not configured; deliveries will be skipped")
		return nil
	}
	return err
}

// Close releases resources in reverse order of acquisition.
func (a *app) Close(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
