package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config captures all runtime configuration for the reservation notifier.
// It is loaded once at start-up and passed by pointer; nothing reads the
// environment after Load returns.
type Config struct {
	App       AppConfig
	Business  BusinessConfig
	Providers ProviderConfig
	Dispatch  DispatchConfig
	Kafka     KafkaConfig
	Telemetry TelemetryConfig
}

// AppConfig contains generic application level settings.
type AppConfig struct {
	Env      string
	Port     int
	LogLevel string
}

// BusinessConfig describes the restaurant receiving notifications.
type BusinessConfig struct {
	Name              string
	Phone             string
	NotificationEmail string
	WhatsAppNumber    string
}

// BrevoConfig stores credentials for the Brevo transactional email API.
type BrevoConfig struct {
	APIKey      string
	BaseURL     string
	SenderEmail string
	SenderName  string
}

// SMTPConfig stores SMTP credentials for email delivery.
type SMTPConfig struct {
	Host string
	Port int
	User string
	Pass string
	From string
}

// TelegramConfig stores the bot token and the chats to broadcast to.
type TelegramConfig struct {
	BotToken string
	ChatIDs  []string
	BaseURL  string
}

// TwilioConfig stores Twilio credentials for WhatsApp delivery.
type TwilioConfig struct {
	AccountSID   string
	AuthToken    string
	WhatsAppFrom string
	BaseURL      string
}

// ProviderConfig wraps configuration for external providers.
type ProviderConfig struct {
	EmailProvider    string
	TelegramProvider string
	WhatsAppProvider string
	Brevo            BrevoConfig
	SMTP             SMTPConfig
	Telegram         TelegramConfig
	Twilio           TwilioConfig
}

// DispatchConfig tunes the dispatcher and the helpers it uses.
type DispatchConfig struct {
	ProviderTimeoutSeconds int
	BroadcastMaxParallel   int
	ConfirmationPrefix     string
	PhoneDefaultRegion     string
	PhoneFallbackRegion    string
}

// KafkaConfig enables the optional dispatch outcome sink.
type KafkaConfig struct {
	Brokers      []string
	OutcomeTopic string
}

// Enabled reports whether outcomes should be published.
func (k KafkaConfig) Enabled() bool {
	return len(k.Brokers) > 0 && k.OutcomeTopic != ""
}

// TelemetryConfig controls trace export.
type TelemetryConfig struct {
	OTLPEndpoint string
	ServiceName  string
}

// EmailConfigured reports whether the selected email backend has the
// credentials it needs. Without email the service cannot confirm to the
// customer.
func (p ProviderConfig) EmailConfigured() bool {
	switch p.EmailProvider {
	case "mock":
		return true
	case "smtp":
		return p.SMTP.Host != "" && p.SMTP.From != ""
	default:
		return p.Brevo.APIKey != "" && p.Brevo.SenderEmail != ""
	}
}

// TelegramConfigured reports whether broadcasts can be attempted.
func (p ProviderConfig) TelegramConfigured() bool {
	if p.TelegramProvider == "mock" {
		return true
	}
	return p.Telegram.BotToken != ""
}

// WhatsAppConfigured reports whether the messaging channel can be attempted.
func (p ProviderConfig) WhatsAppConfigured() bool {
	if p.WhatsAppProvider == "mock" {
		return true
	}
	return p.Twilio.AccountSID != "" && p.Twilio.AuthToken != "" && p.Twilio.WhatsAppFrom != ""
}

// Load reads environment variables, applies defaults, validates values and
// returns a populated Config instance. Channel credentials are optional; a
// channel without them is reported as not configured at dispatch time.
func Load() (*Config, error) {
	_ = godotenv.Load()

	ldr := &envLoader{}

	cfg := &Config{}
	cfg.App.Env = ldr.getString("APP_ENV", "development", false)
	cfg.App.Port = ldr.getInt("APP_PORT", 8080, false)
	cfg.App.LogLevel = ldr.getString("LOG_LEVEL", "info", false)

	emailUser := ldr.getString("EMAIL_USER", "", false)
	cfg.Business.Name = ldr.getString("RESTAURANT_NAME", "Tonle Sab Restaurant", false)
	cfg.Business.Phone = ldr.getString("RESTAURANT_PHONE", "", false)
	cfg.Business.NotificationEmail = ldr.getString("RESTAURANT_EMAIL", emailUser, false)
	cfg.Business.WhatsAppNumber = ldr.getString("RESTAURANT_WHATSAPP_NUMBER", "", false)

	cfg.Providers.EmailProvider = ldr.getChoice("EMAIL_PROVIDER", "brevo", "brevo", "smtp", "mock")
	cfg.Providers.TelegramProvider = ldr.getChoice("TELEGRAM_PROVIDER", "telegram", "telegram", "mock")
	cfg.Providers.WhatsAppProvider = ldr.getChoice("WHATSAPP_PROVIDER", "twilio", "twilio", "mock")

	cfg.Providers.Brevo.APIKey = ldr.getString("BREVO_API_KEY", "", false)
	cfg.Providers.Brevo.BaseURL = ldr.getString("BREVO_BASE_URL", "https://api.brevo.com", false)
	cfg.Providers.Brevo.SenderEmail = emailUser
	cfg.Providers.Brevo.SenderName = ldr.getString("SENDER_NAME", cfg.Business.Name, false)

	cfg.Providers.SMTP.Host = ldr.getString("SMTP_HOST", "", false)
	cfg.Providers.SMTP.Port = ldr.getInt("SMTP_PORT", 587, false)
	cfg.Providers.SMTP.User = ldr.getString("SMTP_USER", "", false)
	cfg.Providers.SMTP.Pass = ldr.getString("SMTP_PASS", "", false)
	cfg.Providers.SMTP.From = ldr.getString("SMTP_FROM", emailUser, false)

	cfg.Providers.Telegram.BotToken = ldr.getString("TELEGRAM_BOT_TOKEN", "", false)
	cfg.Providers.Telegram.ChatIDs = ldr.getStringSlice("TELEGRAM_CHAT_IDS", false)
	cfg.Providers.Telegram.BaseURL = ldr.getString("TELEGRAM_BASE_URL", "https://api.telegram.org", false)

	cfg.Providers.Twilio.AccountSID = ldr.getString("TWILIO_ACCOUNT_SID", "", false)
	cfg.Providers.Twilio.AuthToken = ldr.getString("TWILIO_AUTH_TOKEN", "", false)
	cfg.Providers.Twilio.WhatsAppFrom = ldr.getString("TWILIO_WHATSAPP_FROM", "", false)
	cfg.Providers.Twilio.BaseURL = ldr.getString("TWILIO_BASE_URL", "https://api.twilio.com/2010-04-01", false)

	cfg.Dispatch.ProviderTimeoutSeconds = ldr.getPositiveInt("PROVIDER_TIMEOUT_SECONDS", 10)
	cfg.Dispatch.BroadcastMaxParallel = ldr.getPositiveInt("BROADCAST_MAX_PARALLEL", 4)
	cfg.Dispatch.ConfirmationPrefix = ldr.getString("CONFIRMATION_PREFIX", "TS-", false)
	cfg.Dispatch.PhoneDefaultRegion = ldr.getString("PHONE_DEFAULT_REGION", "855", false)
	cfg.Dispatch.PhoneFallbackRegion = ldr.getString("PHONE_FALLBACK_REGION", "1", false)

	cfg.Kafka.Brokers = ldr.getStringSlice("KAFKA_BROKERS", false)
	cfg.Kafka.OutcomeTopic = ldr.getString("KAFKA_OUTCOME_TOPIC", "reservation.dispatch", false)

	cfg.Telemetry.OTLPEndpoint = ldr.getString("OTEL_EXPORTER_OTLP_ENDPOINT", "", false)
	cfg.Telemetry.ServiceName = ldr.getString("OTEL_SERVICE_NAME", "reservation-notifier", false)

	if err := ldr.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

type envLoader struct {
	errs []string
}

func (l *envLoader) validate() error {
	if len(l.errs) == 0 {
		return nil
	}
	return fmt.Errorf("config validation failed: %s", strings.Join(l.errs, "; "))
}

func (l *envLoader) getString(key, def string, required bool) string {
	if val, ok := os.LookupEnv(key); ok {
		val = strings.TrimSpace(val)
		if val == "" {
			if required {
				l.addError(fmt.Sprintf("%s is required", key))
			}
			return def
		}
		return val
	}
	if required {
		l.addError(fmt.Sprintf("%s is required", key))
	}
	return def
}

func (l *envLoader) getInt(key string, def int, required bool) int {
	if val, ok := os.LookupEnv(key); ok {
		val = strings.TrimSpace(val)
		if val == "" {
			if required {
				l.addError(fmt.Sprintf("%s is required", key))
			}
			return def
		}
		i, err := strconv.Atoi(val)
		if err != nil {
			l.addError(fmt.Sprintf("%s must be a valid integer", key))
			return def
		}
		return i
	}
	if required {
		l.addError(fmt.Sprintf("%s is required", key))
	}
	return def
}

func (l *envLoader) getPositiveInt(key string, def int) int {
	v := l.getInt(key, def, false)
	if v <= 0 {
		l.addError(fmt.Sprintf("%s must be greater than zero", key))
		return def
	}
	return v
}

func (l *envLoader) getChoice(key, def string, allowed ...string) string {
	v := strings.ToLower(l.getString(key, def, false))
	for _, a := range allowed {
		if v == a {
			return v
		}
	}
	l.addError(fmt.Sprintf("%s must be one of %s", key, strings.Join(allowed, ", ")))
	return def
}

func (l *envLoader) getStringSlice(key string, required bool) []string {
	raw := l.getString(key, "", required)
	if raw == "" {
		if required {
			return nil
		}
		return []string{}
	}
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	if required && len(out) == 0 {
		l.addError(fmt.Sprintf("%s must contain at least one entry", key))
	}
	return out
}

func (l *envLoader) addError(err string) {
	l.errs = append(l.errs, err)
}
