// Package server exposes the RSVP service over HTTP.
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"wedding-rsvp/internal/config"
	"wedding-rsvp/internal/models"
)

// RSVPService is the part of rsvp.Service the HTTP layer needs
type RSVPService interface {
	Lookup(ctx context.Context, phone, handle string) (models.LookupResult, error)
	Submit(ctx context.Context, sub models.Submission) (models.SubmitResult, error)
}

// Server wraps the echo instance serving the RSVP endpoints
type Server struct {
	echo *echo.Echo
	svc  RSVPService
	log  zerolog.Logger
	addr string
}

// New builds the server and registers its routes. rdb may be nil, in which
// case requests are not rate limited. metrics may be nil to skip /metrics.
func New(svc RSVPService, cfg *config.Config, log zerolog.Logger, rdb *redis.Client, metrics http.Handler) *Server {
	s := &Server{
		echo: echo.New(),
		svc:  svc,
		log:  log.With().Str("component", "HTTP").Logger(),
		addr: cfg.HTTPAddr,
	}

	e := s.echo
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
	}))
	e.Use(middleware.BodyLimit(cfg.BodyLimit))
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:   true,
		LogURIPath:  true,
		LogStatus:   true,
		LogLatency:  true,
		LogRemoteIP: true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(_ echo.Context, v middleware.RequestLoggerValues) error {
			ev := s.log.Info()
			if v.Error != nil {
				ev = s.log.Error().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("path", v.URIPath).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("remote_ip", v.RemoteIP).
				Msg("Request")
			return nil
		},
	}))

	limit := RateLimit(cfg.RateLimit, rdb, s.log)
	e.GET("/rsvp", s.lookup, limit)
	e.POST("/rsvp", s.submit, limit)
	e.GET("/healthz", health)
	if metrics != nil {
		e.GET("/metrics", echo.WrapHandler(metrics))
	}

	return s
}

// Handler returns the underlying http.Handler
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start serves until Shutdown is called. It returns nil after a clean
// shutdown.
func (s *Server) Start() error {
	s.log.Info().Str("addr", s.addr).Msg("Listening")
	if err := s.echo.Start(s.addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return s.echo.Shutdown(ctx)
}

func health(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

// lookup answers GET /rsvp?p=<phone>&t=<handle>
func (s *Server) lookup(c echo.Context) error {
	res, err := s.svc.Lookup(c.Request().Context(), c.QueryParam("p"), c.QueryParam("t"))
	if err != nil {
		s.log.Error().Err(err).Msg("Lookup failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "storage_error", "message": "could not read the guest list"})
	}
	return c.JSON(http.StatusOK, res)
}

// submit answers POST /rsvp. The body is JSON whatever the Content-Type,
// browsers post text/plain to skip the CORS preflight.
func (s *Server) submit(c echo.Context) error {
	sub, err := decodeSubmission(c.Request().Body)
	if err != nil {
		var he *echo.HTTPError
		if errors.As(err, &he) {
			return he
		}
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid_payload", "message": "body must be a JSON object"})
	}

	res, err := s.svc.Submit(c.Request().Context(), sub)
	if err != nil {
		s.log.Error().Err(err).Msg("Submit failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "storage_error", "message": "could not record the answer"})
	}
	return c.JSON(http.StatusOK, res)
}

var errNotObject = errors.New("body is not a JSON object")

// decodeSubmission reads one JSON object; null, arrays and scalars are refused
func decodeSubmission(body io.Reader) (models.Submission, error) {
	var raw json.RawMessage
	if err := json.NewDecoder(body).Decode(&raw); err != nil {
		return models.Submission{}, err
	}
	if !bytes.HasPrefix(bytes.TrimSpace(raw), []byte("{")) {
		return models.Submission{}, errNotObject
	}

	var sub models.Submission
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&sub); err != nil {
		return models.Submission{}, err
	}
	return sub, nil
}
