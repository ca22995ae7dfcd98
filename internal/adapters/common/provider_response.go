package common

import (
	"unicode/utf8"

	"github.com/example/reservation-notifier/internal/models"
)

// DefaultRawBodyLimit defines the maximum number of characters retained from a
// provider error detail when attaching it to a ChannelResult.
const DefaultRawBodyLimit = 1024

// TruncateRaw trims the supplied string to the specified rune limit. If limit
// is zero or negative it returns an empty string.
func TruncateRaw(raw string, limit int) string {
	if limit <= 0 {
		return ""
	}
	if utf8.RuneCountInString(raw) <= limit {
		return raw
	}
	runes := []rune(raw)
	return string(runes[:limit])
}

// Succeeded builds a successful result.
func Succeeded(providerID string) models.ChannelResult {
	return models.ChannelResult{Success: true, ProviderMessageID: providerID}
}

// NotConfigured is the result for a channel that is intentionally disabled.
func NotConfigured() models.ChannelResult {
	return models.ChannelResult{Error: models.ErrorNotConfigured, Kind: models.KindConfiguration}
}

// InvalidDestination is the result for a target that failed validation.
func InvalidDestination() models.ChannelResult {
	return models.ChannelResult{Error: models.ErrorInvalidDestination, Kind: models.KindValidation}
}

// Failed converts err into a failed result, keeping at most limit runes of
// the detail.
func Failed(err error, limit int) models.ChannelResult {
	if err == nil {
		return models.ChannelResult{Kind: models.KindProvider, Error: "unknown failure"}
	}
	return models.ChannelResult{
		Error: TruncateRaw(err.Error(), limit),
		Kind:  Kind(err),
	}
}
