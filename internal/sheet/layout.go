// Package sheet maps guest records onto the columns of a sheet. Column order
// and boolean encodings vary between deployments and are described by a
// Layout; the RSVP logic never deals with column positions.
package sheet

import (
	"fmt"
	"strings"
)

// Field is a logical guest field
type Field int

const (
	FirstName Field = iota
	LastName
	Guests
	Phone
	Handle
	Attending
	Parking
	Email
	Status
	Total
	Restrictions
	Message
	RespondedAt
	Language
)

// BoolCodec encodes a boolean cell
type BoolCodec struct {
	True  string
	False string
}

var (
	// Checkbox matches the display values of a spreadsheet checkbox
	Checkbox = BoolCodec{True: "TRUE", False: "FALSE"}
	YesNo    = BoolCodec{True: "Yes", False: "No"}
)

// Encode returns the cell text for b
func (c BoolCodec) Encode(b bool) string {
	if b {
		return c.True
	}
	return c.False
}

// Decode accepts any known encoding, so a sheet edited by hand still reads
func (c BoolCodec) Decode(cell string) bool {
	s := strings.TrimSpace(cell)
	if s == "" {
		return false
	}
	if strings.EqualFold(s, c.True) {
		return true
	}
	switch strings.ToLower(s) {
	case "true", "yes", "1", "x", "✓":
		return true
	}
	return false
}

// Layout describes one physical sheet layout
type Layout struct {
	Name      string
	Columns   map[Field]int
	Header    []string
	Attending BoolCodec
	Parking   BoolCodec
}

// Column returns the column index of f
func (l Layout) Column(f Field) (int, bool) {
	col, ok := l.Columns[f]
	return col, ok
}

// Width is the number of columns of a full row
func (l Layout) Width() int {
	w := len(l.Header)
	for _, col := range l.Columns {
		if col+1 > w {
			w = col + 1
		}
	}
	return w
}

// CheckboxLayout is the default sheet: columns A..N with checkbox booleans.
var CheckboxLayout = Layout{
	Name: "checkbox",
	Columns: map[Field]int{
		FirstName:    0,
		LastName:     1,
		Guests:       2,
		Phone:        3,
		Handle:       4,
		Attending:    5,
		Parking:      6,
		Email:        7,
		Status:       8,
		Total:        9,
		Restrictions: 10,
		Message:      11,
		RespondedAt:  12,
		Language:     13,
	},
	Header: []string{
		"First Name", "Last Name", "Guests", "Phone Number", "Telegram username",
		"Comes ?", "Parking lot", "Email", "Statut RSVP", "Total",
		"Restrictions", "Message", "Date de réponse", "lang",
	},
	Attending: Checkbox,
	Parking:   Checkbox,
}

// YesNoLayout stores attendance as Yes/No, keeps Total last and moves
// Email, Restrictions and lang ahead of it.
var YesNoLayout = Layout{
	Name: "yesno",
	Columns: map[Field]int{
		FirstName:    0,
		LastName:     1,
		Guests:       2,
		Phone:        3,
		Handle:       4,
		Attending:    5,
		Parking:      6,
		Status:       7,
		Email:        8,
		Restrictions: 9,
		Message:      10,
		RespondedAt:  11,
		Language:     12,
		Total:        13,
	},
	Header: []string{
		"First Name", "Last Name", "Guests", "Phone Number", "Telegram username",
		"Comes ?", "Parking lot", "Statut RSVP", "Email", "Restrictions",
		"Message", "Date de réponse", "lang", "Total",
	},
	Attending: YesNo,
	Parking:   Checkbox,
}

// ByName returns the preset layout called name
func ByName(name string) (Layout, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", CheckboxLayout.Name:
		return CheckboxLayout, nil
	case YesNoLayout.Name:
		return YesNoLayout, nil
	}
	return Layout{}, fmt.Errorf("unknown sheet layout %q", name)
}
