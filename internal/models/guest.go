package models

import "time"

// GuestRecord represents one guest row of the RSVP sheet
type GuestRecord struct {
	Row          int        `json:"row"`
	FirstName    string     `json:"first_name"`
	LastName     string     `json:"last_name"`
	GuestCount   int        `json:"guest_count"`
	Phone        string     `json:"phone,omitempty"`
	Handle       string     `json:"handle,omitempty"`
	Attending    bool       `json:"attending"`
	Parking      bool       `json:"parking"`
	Email        string     `json:"email,omitempty"`
	RSVPStatus   RSVPStatus `json:"rsvp_status,omitempty"`
	TotalGuests  int        `json:"total_guests,omitempty"`
	Restrictions string     `json:"restrictions,omitempty"`
	Message      string     `json:"message,omitempty"`
	RespondedAt  time.Time  `json:"responded_at,omitempty"`
	Language     string     `json:"lang,omitempty"`
}

// RSVPStatus represents the attendance confirmation status
type RSVPStatus string

const (
	// RSVPPending is the status of a roster row nobody has answered yet.
	RSVPPending   RSVPStatus = ""
	RSVPConfirmed RSVPStatus = "Confirmed"
	RSVPDeclined  RSVPStatus = "Declined"
)

// StatusFor derives the status from the attendance answer
func StatusFor(attending bool) RSVPStatus {
	if attending {
		return RSVPConfirmed
	}
	return RSVPDeclined
}

// Response holds the fields a submitted answer writes to an existing row.
// It never carries phone, handle or total.
type Response struct {
	GuestCount   int
	Attending    bool
	Parking      bool
	Email        string
	RSVPStatus   RSVPStatus
	Restrictions string
	Message      string
	RespondedAt  time.Time
	Language     string
}

// Apply copies the response onto a record
func (r Response) Apply(g *GuestRecord) {
	g.GuestCount = r.GuestCount
	g.Attending = r.Attending
	g.Parking = r.Parking
	g.Email = r.Email
	g.RSVPStatus = r.RSVPStatus
	g.Restrictions = r.Restrictions
	g.Message = r.Message
	g.RespondedAt = r.RespondedAt
	g.Language = r.Language
}
