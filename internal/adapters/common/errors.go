package common

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/example/reservation-notifier/internal/models"
)

// Sentinel errors adapters use when classifying failures.
var (
	ErrConfiguration = errors.New("configuration error")
	ErrValidation    = errors.New("validation error")
	ErrProvider      = errors.New("provider error")
	ErrTransport     = errors.New("transport error")
)

// WrapConfiguration annotates a missing credential or destination.
func WrapConfiguration(err error) error {
	return wrap(ErrConfiguration, err)
}

// WrapValidation annotates malformed adapter input.
func WrapValidation(err error) error {
	return wrap(ErrValidation, err)
}

// WrapProvider annotates a non-success provider response.
func WrapProvider(err error) error {
	return wrap(ErrProvider, err)
}

// WrapTransport annotates a failure to reach the provider.
func WrapTransport(err error) error {
	return wrap(ErrTransport, err)
}

func wrap(kind, err error) error {
	if err == nil {
		return kind
	}
	return fmt.Errorf("%w: %w", kind, err)
}

// Kind maps an error to the ChannelResult kind. Unclassified errors count as
// transport failures when they look like network or deadline errors and as
// provider failures otherwise.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrConfiguration):
		return models.KindConfiguration
	case errors.Is(err, ErrValidation):
		return models.KindValidation
	case errors.Is(err, ErrTransport):
		return models.KindTransport
	case errors.Is(err, ErrProvider):
		return models.KindProvider
	case IsTransportFailure(err):
		return models.KindTransport
	default:
		return models.KindProvider
	}
}

// IsTransportFailure reports whether err came from the network or a deadline
// rather than from a provider reply.
func IsTransportFailure(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
