// Package intake exposes the HTTP endpoint that accepts reservation
// submissions and hands them to the dispatcher.
package intake

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/example/reservation-notifier/internal/dispatcher"
	"github.com/example/reservation-notifier/internal/models"
	"github.com/example/reservation-notifier/internal/util"
)

const maxRequestBytes = 64 << 10

// Dispatcher is the subset of the dispatcher used by the handler.
type Dispatcher interface {
	Dispatch(ctx context.Context, event models.ReservationEvent) (*models.DispatchResult, error)
}

// GuestCount accepts either a JSON number or a numeric string.
type GuestCount int

// UnmarshalJSON implements json.Unmarshaler.
func (g *GuestCount) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" {
		return nil
	}
	if unquoted, err := strconv.Unquote(raw); err == nil {
		raw = strings.TrimSpace(unquoted)
		if raw == "" {
			return nil
		}
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return errors.New("guests must be a whole number")
	}
	*g = GuestCount(n)
	return nil
}

// ReservationRequest is the JSON body accepted by POST /api/reservations.
type ReservationRequest struct {
	Name        string     `json:"name" validate:"required,max=200"`
	Phone       string     `json:"phone" validate:"required,max=40"`
	Email       string     `json:"email" validate:"required,email,max=254"`
	CompanyName string     `json:"companyName" validate:"max=200"`
	Date        string     `json:"date" validate:"required"`
	Time        string     `json:"time" validate:"required"`
	Guests      GuestCount `json:"guests" validate:"required,gte=1"`
	Requests    string     `json:"requests" validate:"max=2000"`
}

// ReservationResponse is returned for accepted submissions.
type ReservationResponse struct {
	Success          bool                    `json:"success"`
	Message          string                  `json:"message,omitempty"`
	ConfirmationCode string                  `json:"confirmationCode,omitempty"`
	Channels         []models.ChannelOutcome `json:"channels,omitempty"`
	Error            string                  `json:"error,omitempty"`
	Fields           map[string]string       `json:"fields,omitempty"`
}

// Handler serves reservation submissions.
type Handler struct {
	dispatcher Dispatcher
	validate   *validator.Validate
	logger     zerolog.Logger
}

// NewHandler wires the handler to a dispatcher.
func NewHandler(d Dispatcher, logger zerolog.Logger) (*Handler, error) {
	if d == nil {
		return nil, errors.New("intake: dispatcher dependency is required")
	}
	if reflect.ValueOf(logger).IsZero() {
		logger = zerolog.Nop()
	}

	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &Handler{
		dispatcher: d,
		validate:   v,
		logger:     logger.With().Str("component", "intake").Logger(),
	}, nil
}

// CreateReservation handles POST /api/reservations.
func (h *Handler) CreateReservation(w http.ResponseWriter, r *http.Request) {
	var req ReservationRequest
	dec := json.NewDecoder(io.LimitReader(r.Body, maxRequestBytes))
	if err := dec.Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ReservationResponse{Error: "Invalid request body"})
		return
	}

	event, fields := h.buildEvent(req)
	if len(fields) > 0 {
		writeJSON(w, http.StatusBadRequest, ReservationResponse{Error: "Missing required fields", Fields: fields})
		return
	}

	res, err := h.dispatcher.Dispatch(r.Context(), event)
	if err != nil {
		if errors.Is(err, dispatcher.ErrEmailNotConfigured) {
			h.logger.Error().Ctx(r.Context()).Err(err).Msg("reservation rejected")
			writeJSON(w, http.StatusServiceUnavailable, ReservationResponse{
				Error: "Email service is not configured. Please contact support.",
			})
			return
		}
		h.logger.Error().Ctx(r.Context()).Err(err).Msg("reservation dispatch failed")
		writeJSON(w, http.StatusInternalServerError, ReservationResponse{Error: "Internal server error"})
		return
	}

	if !res.OverallSuccess {
		writeJSON(w, http.StatusBadGateway, ReservationResponse{
			ConfirmationCode: res.ConfirmationCode,
			Channels:         res.ChannelOutcomes,
			Error:            "We could not send your confirmation email. Please contact us to confirm your reservation.",
		})
		return
	}

	writeJSON(w, http.StatusOK, ReservationResponse{
		Success:          true,
		Message:          "Reservation request sent successfully! Check your email for confirmation.",
		ConfirmationCode: res.ConfirmationCode,
		Channels:         res.ChannelOutcomes,
	})
}

func (h *Handler) buildEvent(req ReservationRequest) (models.ReservationEvent, map[string]string) {
	fields := map[string]string{}

	req.Name = strings.TrimSpace(req.Name)
	req.Phone = strings.TrimSpace(req.Phone)
	req.Email = strings.TrimSpace(req.Email)
	req.CompanyName = strings.TrimSpace(req.CompanyName)
	req.Date = strings.TrimSpace(req.Date)
	req.Time = strings.TrimSpace(req.Time)
	req.Requests = strings.TrimSpace(req.Requests)

	if err := h.validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			fields["body"] = err.Error()
			return models.ReservationEvent{}, fields
		}
		for _, fe := range verrs {
			fields[fe.Field()] = describe(fe)
		}
	}

	event := models.ReservationEvent{
		ID:              util.NewID(),
		Name:            req.Name,
		Phone:           req.Phone,
		CompanyName:     req.CompanyName,
		GuestCount:      int(req.Guests),
		SpecialRequests: req.Requests,
	}

	if _, bad := fields["email"]; !bad {
		email, err := util.NormalizeEmail(req.Email)
		if err != nil {
			fields["email"] = "must be a valid email address"
		}
		event.Email = email
	}
	if _, bad := fields["date"]; !bad {
		d, err := util.ParseDate(req.Date)
		if err != nil {
			fields["date"] = "must be a date in YYYY-MM-DD format"
		}
		event.Date = d
	}
	if _, bad := fields["time"]; !bad {
		t, err := models.ParseTimeOfDay(req.Time)
		if err != nil {
			fields["time"] = "must be a time in HH:MM format"
		}
		event.Time = t
	}

	if len(fields) > 0 {
		return models.ReservationEvent{}, fields
	}
	return event, nil
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "gte":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param() + " characters"
	default:
		return "is invalid"
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
