// Package events publishes RSVP responses to a message broker so other
// services (mailers, dashboards) can react without reading the sheet.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"

	"wedding-rsvp/internal/models"
)

// DefaultQueue is the queue responses are published to
const DefaultQueue = "rsvp.submitted"

// RSVPSubmitted is published after a response has been written
type RSVPSubmitted struct {
	EventID     string            `json:"event_id"`
	FirstName   string            `json:"first_name"`
	LastName    string            `json:"last_name"`
	Attending   bool              `json:"attending"`
	GuestCount  int               `json:"guest_count"`
	Parking     bool              `json:"parking"`
	Status      models.RSVPStatus `json:"status"`
	Email       string            `json:"email,omitempty"`
	Language    string            `json:"lang,omitempty"`
	Updated     bool              `json:"updated"`
	RespondedAt string            `json:"responded_at"`
}

// NewRSVPSubmitted builds the event for a response to the named guest
func NewRSVPSubmitted(firstName, lastName string, r models.Response, updated bool) RSVPSubmitted {
	return RSVPSubmitted{
		EventID:     uuid.NewString(),
		FirstName:   firstName,
		LastName:    lastName,
		Attending:   r.Attending,
		GuestCount:  r.GuestCount,
		Parking:     r.Parking,
		Status:      r.RSVPStatus,
		Email:       r.Email,
		Language:    r.Language,
		Updated:     updated,
		RespondedAt: r.RespondedAt.UTC().Format(time.RFC3339),
	}
}

// Publisher sends events to the broker
type Publisher interface {
	PublishRSVPSubmitted(ctx context.Context, ev RSVPSubmitted) error
	Close() error
}

// NopPublisher drops every event. It is used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) PublishRSVPSubmitted(context.Context, RSVPSubmitted) error { return nil }
func (NopPublisher) Close() error                                              { return nil }
