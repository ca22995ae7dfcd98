// Package render formats a reservation for each notification channel.
package render

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"

	"github.com/example/reservation-notifier/internal/models"
)

// Branding carries the business details printed in every message.
type Branding struct {
	Name  string
	Phone string
	Email string
}

// Email is a rendered email with both alternative bodies.
type Email struct {
	Subject string
	HTML    string
	Text    string
}

// Renderer renders reservations. It is safe for concurrent use.
type Renderer struct {
	brand Branding
}

// New constructs a Renderer. An empty business name defaults to
// "Tonle Sab Restaurant".
func New(brand Branding) *Renderer {
	if strings.TrimSpace(brand.Name) == "" {
		brand.Name = "Tonle Sab Restaurant"
	}
	return &Renderer{brand: brand}
}

// Brand returns the configured branding.
func (r *Renderer) Brand() Branding {
	return r.brand
}

type view struct {
	Brand    Branding
	Name     string
	Email    string
	Phone    string
	Company  string
	Date     string
	Time     string
	Guests   int
	Requests string
	Code     string
}

func (r *Renderer) view(e models.ReservationEvent) view {
	return view{
		Brand:    r.brand,
		Name:     e.Name,
		Email:    e.Email,
		Phone:    e.Phone,
		Company:  e.CompanyName,
		Date:     e.FormattedDate(),
		Time:     e.FormattedTime(),
		Guests:   e.GuestCount,
		Requests: e.RequestsOrNone(),
		Code:     e.ConfirmationCode,
	}
}

// BusinessEmail renders the notification sent to the business.
func (r *Renderer) BusinessEmail(e models.ReservationEvent) (Email, error) {
	v := r.view(e)
	html, err := execHTML(businessHTML, v)
	if err != nil {
		return Email{}, err
	}
	text, err := execText(businessText, v)
	if err != nil {
		return Email{}, err
	}
	return Email{
		Subject: fmt.Sprintf("New Reservation Request from %s", e.Name),
		HTML:    html,
		Text:    text,
	}, nil
}

// CustomerEmail renders the confirmation sent to the submitter.
func (r *Renderer) CustomerEmail(e models.ReservationEvent) (Email, error) {
	v := r.view(e)
	html, err := execHTML(customerHTML, v)
	if err != nil {
		return Email{}, err
	}
	text, err := execText(customerText, v)
	if err != nil {
		return Email{}, err
	}
	return Email{
		Subject: fmt.Sprintf("Your Reservation at %s is Confirmed", r.brand.Name),
		HTML:    html,
		Text:    text,
	}, nil
}

// Broadcast renders the chat broadcast using Telegram's HTML subset.
func (r *Renderer) Broadcast(e models.ReservationEvent) (string, error) {
	return execHTML(broadcastHTML, r.view(e))
}

// Messaging renders the WhatsApp notification for the business.
func (r *Renderer) Messaging(e models.ReservationEvent) (string, error) {
	return execText(messagingText, r.view(e))
}

func execHTML(t *htmltemplate.Template, v view) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, v); err != nil {
		return "", fmt.Errorf("render: %s: %w", t.Name(), err)
	}
	return strings.TrimSpace(buf.String()), nil
}

func execText(t *texttemplate.Template, v view) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, v); err != nil {
		return "", fmt.Errorf("render: %s: %w", t.Name(), err)
	}
	return strings.TrimSpace(buf.String()), nil
}
