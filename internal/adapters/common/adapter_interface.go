package common

import (
	"context"

	"github.com/example/reservation-notifier/internal/models"
)

// Adapter defines the behaviour required from channel adapters. Adapters
// render the reservation into their channel's payload, check channel
// preconditions and translate every failure into a ChannelResult.
type Adapter interface {
	Send(ctx context.Context, event models.ReservationEvent, target models.ChannelTarget) models.ChannelResult
}

