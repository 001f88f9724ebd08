package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wedding-rsvp/internal/models"
)

func TestPrometheus_Counters(t *testing.T) {
	p := NewPrometheus()

	p.Lookup(true)
	p.Lookup(false)
	p.Lookup(false)
	p.Submission(true, models.RSVPConfirmed)
	p.Submission(false, models.RSVPDeclined)

	assert.Equal(t, float64(1), testutil.ToFloat64(p.lookups.WithLabelValues("found")))
	assert.Equal(t, float64(2), testutil.ToFloat64(p.lookups.WithLabelValues("not_found")))
	assert.Equal(t, float64(1), testutil.ToFloat64(p.submissions.WithLabelValues("update", "Confirmed")))
	assert.Equal(t, float64(1), testutil.ToFloat64(p.submissions.WithLabelValues("append", "Declined")))
}

func TestPrometheus_Handler(t *testing.T) {
	p := NewPrometheus()
	p.Lookup(true)

	rec := httptest.NewRecorder()
	p.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `rsvp_lookups_total{result="found"} 1`)
}
