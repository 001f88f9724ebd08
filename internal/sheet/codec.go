package sheet

import (
	"strconv"
	"strings"
	"time"

	"wedding-rsvp/internal/models"
	"wedding-rsvp/internal/storage"
)

// TimeLayout is the format of the response date cell
const TimeLayout = time.RFC3339

var readTimeLayouts = []string{TimeLayout, "2006-01-02 15:04:05", "02/01/2006 15:04:05", "2006-01-02"}

// Decode reads a guest record out of a storage row. Missing or malformed
// cells decode to zero values.
func (l Layout) Decode(row storage.Row) models.GuestRecord {
	cell := func(f Field) string {
		col, ok := l.Column(f)
		if !ok {
			return ""
		}
		return row.Cell(col)
	}

	return models.GuestRecord{
		Row:          row.Index,
		FirstName:    cell(FirstName),
		LastName:     cell(LastName),
		GuestCount:   atoi(cell(Guests)),
		Phone:        cell(Phone),
		Handle:       cell(Handle),
		Attending:    l.Attending.Decode(cell(Attending)),
		Parking:      l.Parking.Decode(cell(Parking)),
		Email:        cell(Email),
		RSVPStatus:   models.RSVPStatus(strings.TrimSpace(cell(Status))),
		TotalGuests:  atoi(cell(Total)),
		Restrictions: cell(Restrictions),
		Message:      cell(Message),
		RespondedAt:  parseTime(cell(RespondedAt)),
		Language:     cell(Language),
	}
}

// DecodeAll decodes every row of a snapshot, keeping storage order
func (l Layout) DecodeAll(rows []storage.Row) []models.GuestRecord {
	out := make([]models.GuestRecord, len(rows))
	for i, r := range rows {
		out[i] = l.Decode(r)
	}
	return out
}

// EncodeResponse returns the cells an answer writes to an existing row,
// keyed by column. Phone, handle and total columns are never included.
func (l Layout) EncodeResponse(r models.Response) map[int]string {
	cells := make(map[int]string, 9)
	set := func(f Field, v string) {
		if col, ok := l.Column(f); ok {
			cells[col] = v
		}
	}

	set(Guests, strconv.Itoa(r.GuestCount))
	set(Attending, l.Attending.Encode(r.Attending))
	set(Parking, l.Parking.Encode(r.Parking))
	set(Email, r.Email)
	set(Status, string(r.RSVPStatus))
	set(Restrictions, r.Restrictions)
	set(Message, r.Message)
	set(RespondedAt, formatTime(r.RespondedAt))
	set(Language, r.Language)
	return cells
}

// EncodeRecord returns a full row for g. The total cell is left empty for
// the store to fill.
func (l Layout) EncodeRecord(g models.GuestRecord) []string {
	row := make([]string, l.Width())
	set := func(f Field, v string) {
		if col, ok := l.Column(f); ok {
			row[col] = v
		}
	}

	set(FirstName, g.FirstName)
	set(LastName, g.LastName)
	set(Phone, g.Phone)
	set(Handle, g.Handle)
	for col, v := range l.EncodeResponse(models.Response{
		GuestCount:   g.GuestCount,
		Attending:    g.Attending,
		Parking:      g.Parking,
		Email:        g.Email,
		RSVPStatus:   g.RSVPStatus,
		Restrictions: g.Restrictions,
		Message:      g.Message,
		RespondedAt:  g.RespondedAt,
		Language:     g.Language,
	}) {
		row[col] = v
	}
	return row
}

func atoi(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

func parseTime(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range readTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(TimeLayout)
}
