// Package rsvp finds guests and records their answers. Lookup and Resolve
// are pure over a snapshot of rows; Service binds them to a table.
package rsvp

import (
	"wedding-rsvp/internal/models"
	"wedding-rsvp/internal/normalize"
)

// Lookup finds the first row whose phone or messaging handle matches the
// query. Phone is tried first on every row, then the handle.
func Lookup(rows []models.GuestRecord, phone, handle string) models.LookupResult {
	searchPhone := normalize.Phone(phone)
	searchHandle := normalize.Handle(handle)

	for _, g := range rows {
		if matches(g, searchPhone, searchHandle) {
			return models.LookupResult{
				Found:     true,
				FirstName: g.FirstName,
				LastName:  g.LastName,
				Email:     g.Email,
			}
		}
	}
	return models.LookupResult{Found: false}
}

func matches(g models.GuestRecord, phone, handle string) bool {
	if phone != "" {
		if p := normalize.Phone(g.Phone); p != "" && p == phone {
			return true
		}
	}
	if handle != "" {
		if h := normalize.Handle(g.Handle); h != "" && h == handle {
			return true
		}
	}
	return false
}
