package rsvp

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wedding-rsvp/internal/events"
	"wedding-rsvp/internal/models"
	"wedding-rsvp/internal/sheet"
	"wedding-rsvp/internal/storage"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.RSVPSubmitted
	err    error
}

func (p *recordingPublisher) PublishRSVPSubmitted(_ context.Context, ev events.RSVPSubmitted) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }

type countingRecorder struct {
	lookups     map[bool]int
	submissions map[bool]int
}

func newCountingRecorder() *countingRecorder {
	return &countingRecorder{lookups: map[bool]int{}, submissions: map[bool]int{}}
}

func (r *countingRecorder) Lookup(found bool)                            { r.lookups[found]++ }
func (r *countingRecorder) Submission(updated bool, _ models.RSVPStatus) { r.submissions[updated]++ }

type failingTable struct{ storage.Table }

func (failingTable) Rows(context.Context) ([]storage.Row, error) {
	return nil, errors.New("sheet offline")
}

func newTestService(t *testing.T, layout sheet.Layout, cfg Config) (*Service, *storage.FileTable) {
	t.Helper()

	table, err := storage.NewFileTable(filepath.Join(t.TempDir(), "guests.json"), layout.Header)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, table.AppendRow(ctx, layout.EncodeRecord(models.GuestRecord{
		FirstName: "Jean", LastName: "Dupont", Phone: "06 40 15 89 15", Handle: "@jdupont",
	})))
	require.NoError(t, table.AppendRow(ctx, layout.EncodeRecord(models.GuestRecord{
		FirstName: "Anna", LastName: "Schmidt", Phone: "+49 151 1234 5678",
	})))

	if cfg.Now == nil {
		cfg.Now = func() time.Time { return now }
	}
	cfg.Logger = zerolog.Nop()
	return NewService(table, layout, cfg), table
}

func TestService_Lookup(t *testing.T) {
	rec := newCountingRecorder()
	svc, _ := newTestService(t, sheet.CheckboxLayout, Config{Metrics: rec})
	ctx := context.Background()

	res, err := svc.Lookup(ctx, "0640158915", "")
	require.NoError(t, err)
	assert.Equal(t, models.LookupResult{Found: true, FirstName: "Jean", LastName: "Dupont"}, res)

	res, err = svc.Lookup(ctx, "", "JDupont")
	require.NoError(t, err)
	assert.True(t, res.Found)

	res, err = svc.Lookup(ctx, "", "")
	require.NoError(t, err)
	assert.False(t, res.Found)

	assert.Equal(t, 2, rec.lookups[true])
	assert.Equal(t, 1, rec.lookups[false])
}

func TestService_SubmitUpdatesExistingRow(t *testing.T) {
	pub := &recordingPublisher{}
	svc, table := newTestService(t, sheet.CheckboxLayout, Config{Publisher: pub})
	ctx := context.Background()

	res, err := svc.Submit(ctx, models.Submission{
		FirstName: "jean", LastName: "DUPONT", Comes: true, Guests: "3", Parking: true, Email: "a@b.com", Lang: "fr",
	})
	require.NoError(t, err)
	assert.Equal(t, models.SubmitResult{Result: "ok", Found: true}, res)

	rows, err := table.Rows(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	g := sheet.CheckboxLayout.Decode(rows[0])
	assert.Equal(t, "Jean", g.FirstName)
	assert.Equal(t, "06 40 15 89 15", g.Phone)
	assert.Equal(t, "@jdupont", g.Handle)
	assert.Equal(t, 3, g.GuestCount)
	assert.True(t, g.Attending)
	assert.True(t, g.Parking)
	assert.Equal(t, models.RSVPConfirmed, g.RSVPStatus)
	assert.Equal(t, now, g.RespondedAt)
	assert.Equal(t, "fr", g.Language)

	svc.Wait()
	require.Len(t, pub.events, 1)
	assert.True(t, pub.events[0].Updated)
	assert.Equal(t, "jean", pub.events[0].FirstName)
}

func TestService_SubmitAppendsNewRow(t *testing.T) {
	rec := newCountingRecorder()
	svc, table := newTestService(t, sheet.YesNoLayout, Config{Metrics: rec})
	ctx := context.Background()

	res, err := svc.Submit(ctx, models.Submission{
		FirstName: "Léa", LastName: "Martin", Comes: "false", Guests: 2.0, Parking: true, Email: "lea@example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, models.SubmitResult{Result: "ok", Found: false}, res)

	rows, err := table.Rows(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{
		"Léa", "Martin", "0", "", "", "No", "FALSE", "Declined", "lea@example.com", "",
		"", "2025-06-14T18:30:00Z", "", "",
	}, rows[2].Cells)
	assert.Equal(t, 1, rec.submissions[false])
}

func TestService_SubmitTwiceUpdatesTheAppendedRow(t *testing.T) {
	svc, table := newTestService(t, sheet.CheckboxLayout, Config{})
	ctx := context.Background()
	sub := models.Submission{FirstName: "Léa", LastName: "Martin", Comes: true, Guests: 1.0}

	first, err := svc.Submit(ctx, sub)
	require.NoError(t, err)
	second, err := svc.Submit(ctx, sub)
	require.NoError(t, err)

	assert.False(t, first.Found)
	assert.True(t, second.Found)

	rows, err := table.Rows(ctx)
	require.NoError(t, err)
	assert.Len(t, rows, 3)
}

func TestService_RestrictionsOverride(t *testing.T) {
	svc, _ := newTestService(t, sheet.CheckboxLayout, Config{RestrictionsOverride: "Menu enfant"})
	ctx := context.Background()

	_, err := svc.Submit(ctx, models.Submission{FirstName: "Anna", LastName: "Schmidt", Comes: true, Restrictions: "vegan"})
	require.NoError(t, err)
	_, err = svc.Submit(ctx, models.Submission{FirstName: "New", LastName: "Guest", Comes: true, Restrictions: "vegan"})
	require.NoError(t, err)

	guests, err := svc.Guests(ctx)
	require.NoError(t, err)
	require.Len(t, guests, 3)
	assert.Equal(t, "Menu enfant", guests[1].Restrictions)
	assert.Equal(t, "Menu enfant", guests[2].Restrictions)
}

func TestService_PublishFailureDoesNotFailSubmit(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("broker down")}
	svc, _ := newTestService(t, sheet.CheckboxLayout, Config{Publisher: pub})

	res, err := svc.Submit(context.Background(), models.Submission{FirstName: "Anna", LastName: "Schmidt", Comes: false})
	require.NoError(t, err)
	assert.True(t, res.Found)
	svc.Wait()
	assert.Len(t, pub.events, 1)
}

// blockingPublisher holds every publish until release is closed
type blockingPublisher struct {
	release chan struct{}
	done    chan struct{}
}

func (p *blockingPublisher) PublishRSVPSubmitted(ctx context.Context, _ events.RSVPSubmitted) error {
	defer close(p.done)
	select {
	case <-p.release:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *blockingPublisher) Close() error { return nil }

func TestService_SlowBrokerDoesNotHoldSubmit(t *testing.T) {
	pub := &blockingPublisher{release: make(chan struct{}), done: make(chan struct{})}
	svc, _ := newTestService(t, sheet.CheckboxLayout, Config{Publisher: pub})

	ctx, cancel := context.WithCancel(context.Background())
	result := make(chan error, 1)
	go func() {
		_, err := svc.Submit(ctx, models.Submission{FirstName: "Anna", LastName: "Schmidt", Comes: true})
		result <- err
	}()

	select {
	case err := <-result:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Submit waited for the publisher")
	}

	// the request ending must not cancel delivery
	cancel()
	select {
	case <-pub.done:
		t.Fatal("publish was cancelled with the request")
	case <-time.After(50 * time.Millisecond):
	}

	close(pub.release)
	svc.Wait()
	<-pub.done
}

func TestService_StorageErrors(t *testing.T) {
	svc := NewService(failingTable{}, sheet.CheckboxLayout, Config{Logger: zerolog.Nop()})
	ctx := context.Background()

	_, err := svc.Lookup(ctx, "0640158915", "")
	assert.Error(t, err)

	_, err = svc.Submit(ctx, models.Submission{FirstName: "Jean"})
	assert.Error(t, err)
}

func TestService_GuestsByStatus(t *testing.T) {
	svc, _ := newTestService(t, sheet.CheckboxLayout, Config{})
	ctx := context.Background()

	_, err := svc.Submit(ctx, models.Submission{FirstName: "Anna", LastName: "Schmidt", Comes: true})
	require.NoError(t, err)

	confirmed, err := svc.GuestsByStatus(ctx, models.RSVPConfirmed)
	require.NoError(t, err)
	require.Len(t, confirmed, 1)
	assert.Equal(t, "Anna", confirmed[0].FirstName)

	pending, err := svc.GuestsByStatus(ctx, models.RSVPPending)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "Jean", pending[0].FirstName)
}
