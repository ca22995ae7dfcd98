package models

import "time"

// Channel identifies an outbound notification mechanism.
type Channel string

const (
	ChannelEmail     Channel = "email"
	ChannelBroadcast Channel = "broadcast"
	ChannelMessaging Channel = "messaging"
)

// Role distinguishes business-facing notifications from the customer
// confirmation.
type Role string

const (
	RoleBusiness Role = "business"
	RoleCustomer Role = "customer"
)

// Error strings shared by every adapter.
const (
	ErrorNotConfigured      = "not-configured"
	ErrorInvalidDestination = "invalid-destination"
)

// Failure kinds recorded on a ChannelResult.
const (
	KindConfiguration = "configuration"
	KindValidation    = "validation"
	KindProvider      = "provider"
	KindTransport     = "transport"
)

// ChannelTarget describes where one channel attempt is addressed. Addresses
// come from configuration except for the customer confirmation email.
type ChannelTarget struct {
	Channel   Channel  `json:"channel"`
	Role      Role     `json:"role"`
	Addresses []string `json:"addresses,omitempty"`
}

// ChannelResult is the value every adapter returns; failures never surface as
// Go errors past the adapter.
type ChannelResult struct {
	Success           bool     `json:"success"`
	ProviderMessageID string   `json:"provider_message_id,omitempty"`
	Error             string   `json:"error,omitempty"`
	Kind              string   `json:"kind,omitempty"`
	RoomFailures      []string `json:"room_failures,omitempty"`
}

// ChannelOutcome is one entry of the aggregated dispatch result.
type ChannelOutcome struct {
	Channel Channel `json:"channel"`
	Role    Role    `json:"role"`
	ChannelResult
}

// DispatchResult is what the dispatcher hands back to intake.
type DispatchResult struct {
	OverallSuccess   bool             `json:"overall_success"`
	ConfirmationCode string           `json:"confirmation_code"`
	ChannelOutcomes  []ChannelOutcome `json:"channel_outcomes"`
}

// Failures returns the outcomes that did not succeed.
func (r *DispatchResult) Failures() []ChannelOutcome {
	if r == nil {
		return nil
	}
	var out []ChannelOutcome
	for _, o := range r.ChannelOutcomes {
		if !o.Success {
			out = append(out, o)
		}
	}
	return out
}

// DispatchRecord is the diagnostic record published after every dispatch.
type DispatchRecord struct {
	ReservationID    string           `json:"reservation_id"`
	ConfirmationCode string           `json:"confirmation_code"`
	OverallSuccess   bool             `json:"overall_success"`
	Channels         []ChannelOutcome `json:"channels"`
	DispatchedAt     time.Time        `json:"dispatched_at"`
	DurationMs       int64            `json:"duration_ms"`
}
