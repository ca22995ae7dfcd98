package factory

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/example/reservation-notifier/internal/config"
	emailprovider "github.com/example/reservation-notifier/internal/providers/email"
	tgprovider "github.com/example/reservation-notifier/internal/providers/telegram"
	waprovider "github.com/example/reservation-notifier/internal/providers/whatsapp"
)

// ErrNotConfigured is returned when the selected backend lacks credentials.
// Callers treat it as "channel disabled" rather than a start-up failure.
var ErrNotConfigured = errors.New("factory: provider not configured")

// Email constructs the configured email provider. Supports Brevo, SMTP and
// mock backends.
func Email(cfg config.ProviderConfig, logger zerolog.Logger) (emailprovider.Provider, error) {
	if !cfg.EmailConfigured() {
		return nil, fmt.Errorf("%w: email", ErrNotConfigured)
	}
	backend := normalize(cfg.EmailProvider, "brevo")
	switch backend {
	case "brevo":
		provider, err := emailprovider.NewBrevoProvider(cfg.Brevo, logger)
		if err != nil {
			return nil, fmt.Errorf("factory: brevo provider init: %w", err)
		}
		logInitialised(logger, "email", backend)
		return provider, nil
	case "smtp":
		provider, err := emailprovider.NewSMTPProvider(cfg.SMTP, logger)
		if err != nil {
			return nil, fmt.Errorf("factory: smtp provider init: %w", err)
		}
		logInitialised(logger, "email", backend)
		return provider, nil
	case "mock":
		logInitialised(logger, "email", backend)
		return emailprovider.NewMockProvider(logger), nil
	default:
		return nil, fmt.Errorf("factory: unsupported email provider backend %q", cfg.EmailProvider)
	}
}

// Telegram constructs the broadcast provider. Supports the Bot API and mock
// backends.
func Telegram(cfg config.ProviderConfig, logger zerolog.Logger) (tgprovider.Provider, error) {
	if !cfg.TelegramConfigured() {
		return nil, fmt.Errorf("%w: telegram", ErrNotConfigured)
	}
	backend := normalize(cfg.TelegramProvider, "telegram")
	switch backend {
	case "telegram":
		provider, err := tgprovider.NewBotProvider(cfg.Telegram, logger)
		if err != nil {
			return nil, fmt.Errorf("factory: telegram provider init: %w", err)
		}
		logInitialised(logger, "broadcast", backend)
		return provider, nil
	case "mock":
		logInitialised(logger, "broadcast", backend)
		return tgprovider.NewMockProvider(logger), nil
	default:
		return nil, fmt.Errorf("factory: unsupported telegram provider backend %q", cfg.TelegramProvider)
	}
}

// WhatsApp constructs the configured WhatsApp provider. Supports mock and
// Twilio backends.
func WhatsApp(cfg config.ProviderConfig, logger zerolog.Logger) (waprovider.Provider, error) {
	if !cfg.WhatsAppConfigured() {
		return nil, fmt.Errorf("%w: whatsapp", ErrNotConfigured)
	}
	backend := normalize(cfg.WhatsAppProvider, "twilio")
	switch backend {
	case "twilio":
		provider, err := waprovider.NewTwilioProvider(cfg.Twilio, logger)
		if err != nil {
			return nil, fmt.Errorf("factory: twilio whatsapp provider init: %w", err)
		}
		logInitialised(logger, "messaging", backend)
		return provider, nil
	case "mock":
		logInitialised(logger, "messaging", backend)
		return waprovider.NewMockProvider(logger), nil
	default:
		return nil, fmt.Errorf("factory: unsupported whatsapp provider backend %q", cfg.WhatsAppProvider)
	}
}

func logInitialised(logger zerolog.Logger, channel, backend string) {
	logger.Info().
		Str("channel", channel).
		Str("backend", backend).
		Msg("provider initialised")
}

func normalize(value, def string) string {
	value = strings.TrimSpace(strings.ToLower(value))
	if value == "" {
		return def
	}
	return value
}
