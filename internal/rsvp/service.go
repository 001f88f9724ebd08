package rsvp

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"wedding-rsvp/internal/events"
	"wedding-rsvp/internal/metrics"
	"wedding-rsvp/internal/models"
	"wedding-rsvp/internal/sheet"
	"wedding-rsvp/internal/storage"
)

// publishTimeout bounds the delivery of one event after the response is sent
const publishTimeout = 10 * time.Second

// Config holds the optional parts of a Service
type Config struct {
	Publisher events.Publisher
	Metrics   metrics.Recorder
	Logger    zerolog.Logger
	Now       func() time.Time
	// RestrictionsOverride, when set, replaces whatever dietary
	// restrictions a guest submits.
	RestrictionsOverride string
}

// Service answers lookups and records submissions against a table
type Service struct {
	table     storage.Table
	layout    sheet.Layout
	publisher events.Publisher
	metrics   metrics.Recorder
	log       zerolog.Logger
	now       func() time.Time
	override  string

	inflight sync.WaitGroup
}

// NewService creates a new RSVP service
func NewService(table storage.Table, layout sheet.Layout, cfg Config) *Service {
	s := &Service{
		table:     table,
		layout:    layout,
		publisher: cfg.Publisher,
		metrics:   cfg.Metrics,
		log:       cfg.Logger.With().Str("component", "RSVP").Logger(),
		now:       cfg.Now,
		override:  cfg.RestrictionsOverride,
	}
	if s.publisher == nil {
		s.publisher = events.NopPublisher{}
	}
	if s.metrics == nil {
		s.metrics = metrics.Nop{}
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Guests returns every guest row in storage order
func (s *Service) Guests(ctx context.Context) ([]models.GuestRecord, error) {
	rows, err := s.table.Rows(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}
	return s.layout.DecodeAll(rows), nil
}

// GuestsByStatus returns the guests whose status is status
func (s *Service) GuestsByStatus(ctx context.Context, status models.RSVPStatus) ([]models.GuestRecord, error) {
	guests, err := s.Guests(ctx)
	if err != nil {
		return nil, err
	}

	var result []models.GuestRecord
	for _, g := range guests {
		if g.RSVPStatus == status {
			result = append(result, g)
		}
	}
	return result, nil
}

// Lookup finds a guest by phone number or messaging handle
func (s *Service) Lookup(ctx context.Context, phone, handle string) (models.LookupResult, error) {
	guests, err := s.Guests(ctx)
	if err != nil {
		return models.LookupResult{}, err
	}

	res := Lookup(guests, phone, handle)
	s.metrics.Lookup(res.Found)
	s.log.Debug().Bool("found", res.Found).Bool("by_phone", phone != "").Bool("by_handle", handle != "").Msg("Guest lookup")
	return res, nil
}

// Submit records an answer, updating the guest's row or appending one
func (s *Service) Submit(ctx context.Context, sub models.Submission) (models.SubmitResult, error) {
	guests, err := s.Guests(ctx)
	if err != nil {
		return models.SubmitResult{}, err
	}

	action := Resolve(guests, sub, s.now())
	if action.GuestsInvalid {
		s.log.Warn().Interface("guests", sub.Guests).Msg("Non-numeric guest count, recording 0")
	}
	if s.override != "" {
		action.Response.Restrictions = s.override
		action.Record.Restrictions = s.override
	}

	switch action.Kind {
	case Update:
		if err := s.table.SetCells(ctx, action.Row, s.layout.EncodeResponse(action.Response)); err != nil {
			return models.SubmitResult{}, fmt.Errorf("failed to update row %d: %w", action.Row, err)
		}
	case Append:
		if err := s.table.AppendRow(ctx, s.layout.EncodeRecord(action.Record)); err != nil {
			return models.SubmitResult{}, fmt.Errorf("failed to append row: %w", err)
		}
	}

	updated := action.Kind == Update
	s.metrics.Submission(updated, action.Response.RSVPStatus)
	s.log.Info().
		Str("action", action.Kind.String()).
		Int("row", action.Row).
		Str("status", string(action.Response.RSVPStatus)).
		Int("guests", action.Response.GuestCount).
		Msg("RSVP recorded")

	s.publish(ctx, events.NewRSVPSubmitted(sub.FirstName, sub.LastName, action.Response, updated))
	return models.SubmitResult{Result: "ok", Found: updated}, nil
}

// publish sends ev in the background; the row is already written and a slow
// broker must not hold the caller.
func (s *Service) publish(ctx context.Context, ev events.RSVPSubmitted) {
	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()

		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
		defer cancel()
		if err := s.publisher.PublishRSVPSubmitted(ctx, ev); err != nil {
			s.log.Error().Err(err).Str("event_id", ev.EventID).Msg("Failed to publish RSVP event")
		}
	}()
}

// Wait blocks until every event started by Submit has been handed to the
// publisher or given up on
func (s *Service) Wait() {
	s.inflight.Wait()
}
