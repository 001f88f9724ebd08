package rsvp

import (
	"time"

	"wedding-rsvp/internal/models"
	"wedding-rsvp/internal/normalize"
)

// ActionKind tells whether a submission updates a row or appends one
type ActionKind int

const (
	Update ActionKind = iota + 1
	Append
)

func (k ActionKind) String() string {
	switch k {
	case Update:
		return "update"
	case Append:
		return "append"
	}
	return "unknown"
}

// Action is the write Resolve decided on. Row and Response are set for
// Update; Record is set for Append.
type Action struct {
	Kind     ActionKind
	Row      int
	Response models.Response
	Record   models.GuestRecord
	// GuestsInvalid is set when the guests value was not a number and was
	// recorded as 0.
	GuestsInvalid bool
}

// Resolve matches a submission to a row by normalized first and last name
// and returns the write to perform. The first matching row wins. Missing
// names normalize to "" and can match a row with blank names.
func Resolve(rows []models.GuestRecord, s models.Submission, now time.Time) Action {
	resp, guestsOK := responseFor(s, now)

	first := normalize.Name(s.FirstName)
	last := normalize.Name(s.LastName)

	for _, g := range rows {
		if normalize.Name(g.FirstName) == first && normalize.Name(g.LastName) == last {
			return Action{
				Kind:          Update,
				Row:           g.Row,
				Response:      resp,
				GuestsInvalid: !guestsOK,
			}
		}
	}

	rec := models.GuestRecord{
		FirstName: s.FirstName,
		LastName:  s.LastName,
	}
	resp.Apply(&rec)
	return Action{
		Kind:          Append,
		Response:      resp,
		Record:        rec,
		GuestsInvalid: !guestsOK,
	}
}

// responseFor computes the fields a submission writes. A guest who does not
// come always has 0 guests and no parking.
func responseFor(s models.Submission, now time.Time) (models.Response, bool) {
	comes := normalize.Comes(s.Comes)

	resp := models.Response{
		Attending:    comes,
		Email:        s.Email,
		RSVPStatus:   models.StatusFor(comes),
		Restrictions: s.Restrictions,
		Message:      s.Message,
		RespondedAt:  now,
		Language:     s.Lang,
	}
	if !comes {
		return resp, true
	}

	n, ok := normalize.GuestCount(s.Guests)
	resp.GuestCount = n
	resp.Parking = normalize.Truthy(s.Parking)
	return resp, ok
}
