package models

import "encoding/json"

// Submission is the JSON body of a write request. Guests, Comes and Parking
// stay untyped because clients send them as numbers, booleans or strings.
type Submission struct {
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName"`
	Guests       any    `json:"guests"`
	Comes        any    `json:"comes"`
	Parking      any    `json:"parking"`
	Email        string `json:"email"`
	Restrictions string `json:"restrictions,omitempty"`
	Message      string `json:"message,omitempty"`
	Lang         string `json:"lang,omitempty"`
}

// LookupResult is the answer of the read path. A miss encodes as
// {"found":false}; a hit always carries all four keys.
type LookupResult struct {
	Found     bool   `json:"found"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
}

type lookupMiss struct {
	Found bool `json:"found"`
}

// MarshalJSON implements json.Marshaler
func (r LookupResult) MarshalJSON() ([]byte, error) {
	if !r.Found {
		return json.Marshal(lookupMiss{})
	}
	type plain LookupResult
	return json.Marshal(plain(r))
}

// SubmitResult is the answer of the write path. Found is true when an
// existing row was updated and false when a new one was appended.
type SubmitResult struct {
	Result string `json:"result"`
	Found  bool   `json:"found"`
}
