package config_test

import (
	"reflect"
	"strings"
	"testing"

	"github.com/example/reservation-notifier/internal/config"
)

var trackedKeys = []string{
	"APP_ENV", "APP_PORT", "LOG_LEVEL",
	"EMAIL_USER", "RESTAURANT_NAME", "RESTAURANT_PHONE", "RESTAURANT_EMAIL", "RESTAURANT_WHATSAPP_NUMBER",
	"EMAIL_PROVIDER", "TELEGRAM_PROVIDER", "WHATSAPP_PROVIDER",
	"BREVO_API_KEY", "BREVO_BASE_URL", "SENDER_NAME",
	"SMTP_HOST", "SMTP_PORT", "SMTP_USER", "SMTP_PASS", "SMTP_FROM",
	"TELEGRAM_BOT_TOKEN", "TELEGRAM_CHAT_IDS", "TELEGRAM_BASE_URL",
	"TWILIO_ACCOUNT_SID", "TWILIO_AUTH_TOKEN", "TWILIO_WHATSAPP_FROM", "TWILIO_BASE_URL",
	"PROVIDER_TIMEOUT_SECONDS", "BROADCAST_MAX_PARALLEL", "CONFIRMATION_PREFIX",
	"PHONE_DEFAULT_REGION", "PHONE_FALLBACK_REGION",
	"KAFKA_BROKERS", "KAFKA_OUTCOME_TOPIC",
	"OTEL_EXPORTER_OTLP_ENDPOINT", "OTEL_SERVICE_NAME",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range trackedKeys {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.App.Env != "development" || cfg.App.Port != 8080 || cfg.App.LogLevel != "info" {
		t.Fatalf("unexpected app defaults %+v", cfg.App)
	}
	if cfg.Business.Name != "Tonle Sab Restaurant" {
		t.Fatalf("unexpected business name %q", cfg.Business.Name)
	}
	if cfg.Providers.EmailProvider != "brevo" || cfg.Providers.TelegramProvider != "telegram" || cfg.Providers.WhatsAppProvider != "twilio" {
		t.Fatalf("unexpected provider defaults %+v", cfg.Providers)
	}
	if cfg.Dispatch.ProviderTimeoutSeconds != 10 || cfg.Dispatch.BroadcastMaxParallel != 4 || cfg.Dispatch.ConfirmationPrefix != "TS-" {
		t.Fatalf("unexpected dispatch defaults %+v", cfg.Dispatch)
	}
	if cfg.Providers.EmailConfigured() || cfg.Providers.TelegramConfigured() || cfg.Providers.WhatsAppConfigured() {
		t.Fatalf("no channel should be configured without credentials")
	}
	if cfg.Kafka.Enabled() {
		t.Fatalf("kafka should be disabled without brokers")
	}
}

func TestLoadSuccess(t *testing.T) {
	clearEnv(t)
	t.Setenv("APP_ENV", "production")
	t.Setenv("APP_PORT", "9000")
	t.Setenv("LOG_LEVEL", "warn")
	t.Setenv("EMAIL_USER", "bookings@tonlesab.test")
	t.Setenv("RESTAURANT_NAME", "Tonle Sab")
	t.Setenv("RESTAURANT_WHATSAPP_NUMBER", "+85512345678")
	t.Setenv("BREVO_API_KEY", "xkeysib-123")
	t.Setenv("TELEGRAM_BOT_TOKEN", "123:abc")
	t.Setenv("TELEGRAM_CHAT_IDS", " -1001, ,-1002 ")
	t.Setenv("TWILIO_ACCOUNT_SID", "AC123")
	t.Setenv("TWILIO_AUTH_TOKEN", "token")
	t.Setenv("TWILIO_WHATSAPP_FROM", "+14155238886")
	t.Setenv("KAFKA_BROKERS", "broker-a:9092, broker-b:9093")
	t.Setenv("PROVIDER_TIMEOUT_SECONDS", "3")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.App.Port != 9000 || cfg.App.LogLevel != "warn" {
		t.Fatalf("unexpected app config %+v", cfg.App)
	}
	if cfg.Business.NotificationEmail != "bookings@tonlesab.test" {
		t.Fatalf("business email should default to EMAIL_USER, got %q", cfg.Business.NotificationEmail)
	}
	if cfg.Providers.Brevo.SenderEmail != "bookings@tonlesab.test" || cfg.Providers.Brevo.SenderName != "Tonle Sab" {
		t.Fatalf("unexpected brevo sender %+v", cfg.Providers.Brevo)
	}
	if cfg.Providers.SMTP.From != "bookings@tonlesab.test" {
		t.Fatalf("smtp from should default to EMAIL_USER, got %q", cfg.Providers.SMTP.From)
	}
	if want := []string{"-1001", "-1002"}; !reflect.DeepEqual(cfg.Providers.Telegram.ChatIDs, want) {
		t.Fatalf("chat ids = %v, want %v", cfg.Providers.Telegram.ChatIDs, want)
	}
	if want := []string{"broker-a:9092", "broker-b:9093"}; !reflect.DeepEqual(cfg.Kafka.Brokers, want) {
		t.Fatalf("brokers = %v, want %v", cfg.Kafka.Brokers, want)
	}
	if !cfg.Kafka.Enabled() {
		t.Fatalf("kafka should be enabled")
	}
	if !cfg.Providers.EmailConfigured() || !cfg.Providers.TelegramConfigured() || !cfg.Providers.WhatsAppConfigured() {
		t.Fatalf("expected every channel configured: %+v", cfg.Providers)
	}
	if cfg.Dispatch.ProviderTimeoutSeconds != 3 {
		t.Fatalf("unexpected timeout %d", cfg.Dispatch.ProviderTimeoutSeconds)
	}
}

func TestMockProvidersAreAlwaysConfigured(t *testing.T) {
	clearEnv(t)
	t.Setenv("EMAIL_PROVIDER", "MOCK")
	t.Setenv("TELEGRAM_PROVIDER", "mock")
	t.Setenv("WHATSAPP_PROVIDER", "mock")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !cfg.Providers.EmailConfigured() || !cfg.Providers.TelegramConfigured() || !cfg.Providers.WhatsAppConfigured() {
		t.Fatalf("mock backends must count as configured")
	}
}

func TestSMTPConfiguredRequiresHostAndFrom(t *testing.T) {
	p := config.ProviderConfig{EmailProvider: "smtp", SMTP: config.SMTPConfig{Host: "smtp.test"}}
	if p.EmailConfigured() {
		t.Fatalf("smtp without from address must not be configured")
	}
	p.SMTP.From = "a@b.test"
	if !p.EmailConfigured() {
		t.Fatalf("expected smtp to be configured")
	}
}

func TestLoadValidationErrors(t *testing.T) {
	cases := map[string]struct {
		key   string
		value string
		want  string
	}{
		"bad port":         {"APP_PORT", "abc", "APP_PORT must be a valid integer"},
		"zero timeout":     {"PROVIDER_TIMEOUT_SECONDS", "0", "PROVIDER_TIMEOUT_SECONDS must be greater than zero"},
		"bad parallel":     {"BROADCAST_MAX_PARALLEL", "-2", "BROADCAST_MAX_PARALLEL must be greater than zero"},
		"unknown email":    {"EMAIL_PROVIDER", "sendgrid", "EMAIL_PROVIDER must be one of brevo, smtp, mock"},
		"unknown whatsapp": {"WHATSAPP_PROVIDER", "meta", "WHATSAPP_PROVIDER must be one of twilio, mock"},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tc.key, tc.value)

			_, err := config.Load()
			if err == nil {
				t.Fatalf("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("error %q does not mention %q", err.Error(), tc.want)
			}
		})
	}
}
