package sheet

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wedding-rsvp/internal/models"
	"wedding-rsvp/internal/storage"
)

var respondedAt = time.Date(2025, 6, 14, 18, 30, 0, 0, time.UTC)

func confirmed() models.Response {
	return models.Response{
		GuestCount:   3,
		Attending:    true,
		Parking:      true,
		Email:        "a@b.com",
		RSVPStatus:   models.RSVPConfirmed,
		Restrictions: "vegetarian",
		Message:      "See you!",
		RespondedAt:  respondedAt,
		Language:     "fr",
	}
}

func TestEncodeResponse_CheckboxLayout(t *testing.T) {
	cells := CheckboxLayout.EncodeResponse(confirmed())

	assert.Equal(t, map[int]string{
		2:  "3",
		5:  "TRUE",
		6:  "TRUE",
		7:  "a@b.com",
		8:  "Confirmed",
		10: "vegetarian",
		11: "See you!",
		12: "2025-06-14T18:30:00Z",
		13: "fr",
	}, cells)
}

func TestEncodeResponse_NeverTouchesIdentityOrTotal(t *testing.T) {
	for _, layout := range []Layout{CheckboxLayout, YesNoLayout} {
		t.Run(layout.Name, func(t *testing.T) {
			cells := layout.EncodeResponse(confirmed())
			for _, f := range []Field{Phone, Handle, Total, FirstName, LastName} {
				col, ok := layout.Column(f)
				require.True(t, ok)
				assert.NotContains(t, cells, col, "field %d", f)
			}
		})
	}
}

func TestEncodeResponse_YesNoLayout(t *testing.T) {
	r := confirmed()
	r.Attending = false
	r.Parking = false
	r.RSVPStatus = models.RSVPDeclined

	cells := YesNoLayout.EncodeResponse(r)
	assert.Equal(t, "No", cells[5])
	assert.Equal(t, "FALSE", cells[6])
	assert.Equal(t, "Declined", cells[7])
	assert.Equal(t, "a@b.com", cells[8])
	assert.Equal(t, "fr", cells[12])
}

func TestEncodeRecord(t *testing.T) {
	g := models.GuestRecord{FirstName: "Jean", LastName: "Dupont"}
	confirmed().Apply(&g)

	row := CheckboxLayout.EncodeRecord(g)
	assert.Equal(t, []string{
		"Jean", "Dupont", "3", "", "", "TRUE", "TRUE", "a@b.com", "Confirmed", "",
		"vegetarian", "See you!", "2025-06-14T18:30:00Z", "fr",
	}, row)

	row = YesNoLayout.EncodeRecord(g)
	require.Len(t, row, 14)
	assert.Equal(t, "Yes", row[5])
	assert.Equal(t, "", row[13])
}

func TestEncodeRecord_StoresTimesInUTC(t *testing.T) {
	paris := time.FixedZone("CEST", 2*60*60)
	g := models.GuestRecord{FirstName: "Jean", LastName: "Dupont", RespondedAt: respondedAt.In(paris)}

	row := CheckboxLayout.EncodeRecord(g)
	assert.Equal(t, "2025-06-14T18:30:00Z", row[12])
	assert.Equal(t, respondedAt, CheckboxLayout.Decode(storage.Row{Index: 1, Cells: row}).RespondedAt)
}

func TestDecode_RoundTripsEncodedRecord(t *testing.T) {
	g := models.GuestRecord{FirstName: "Jean", LastName: "Dupont", Phone: "06 40 15 89 15", Handle: "@jean"}
	confirmed().Apply(&g)

	for _, layout := range []Layout{CheckboxLayout, YesNoLayout} {
		t.Run(layout.Name, func(t *testing.T) {
			got := layout.Decode(storage.Row{Index: 4, Cells: layout.EncodeRecord(g)})
			want := g
			want.Row = 4
			assert.Equal(t, want, got)
		})
	}
}

func TestDecode_ShortAndHandEditedRows(t *testing.T) {
	got := CheckboxLayout.Decode(storage.Row{Index: 2, Cells: []string{"Anna", "Schmidt", " 2 ", "0612", "", "yes"}})

	assert.Equal(t, models.GuestRecord{
		Row:        2,
		FirstName:  "Anna",
		LastName:   "Schmidt",
		GuestCount: 2,
		Phone:      "0612",
		Attending:  true,
	}, got)
}

func TestDecode_TotalAndDates(t *testing.T) {
	cells := make([]string, 14)
	cells[9] = "4"
	cells[12] = "2025-06-14 18:30:00"
	cells[2] = "NaN"

	got := CheckboxLayout.Decode(storage.Row{Index: 1, Cells: cells})
	assert.Equal(t, 4, got.TotalGuests)
	assert.Equal(t, 0, got.GuestCount)
	assert.Equal(t, respondedAt, got.RespondedAt)
}

func TestBoolCodecDecode(t *testing.T) {
	for _, cell := range []string{"TRUE", "true", "Yes", "yes", "1", "x", " TRUE "} {
		assert.True(t, Checkbox.Decode(cell), cell)
	}
	for _, cell := range []string{"", "FALSE", "No", "0", "maybe"} {
		assert.False(t, YesNo.Decode(cell), cell)
	}
}

func TestByName(t *testing.T) {
	l, err := ByName("")
	require.NoError(t, err)
	assert.Equal(t, "checkbox", l.Name)

	l, err = ByName(" YesNo ")
	require.NoError(t, err)
	assert.Equal(t, "yesno", l.Name)

	_, err = ByName("excel")
	assert.Error(t, err)
}

func TestWidth(t *testing.T) {
	assert.Equal(t, 14, CheckboxLayout.Width())
	assert.Equal(t, 3, Layout{Columns: map[Field]int{FirstName: 2}}.Width())
}
