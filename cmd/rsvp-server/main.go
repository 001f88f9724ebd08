package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"wedding-rsvp/internal/config"
	"wedding-rsvp/internal/events"
	"wedding-rsvp/internal/handler"
	"wedding-rsvp/internal/metrics"
	"wedding-rsvp/internal/rsvp"
	"wedding-rsvp/internal/server"
	"wedding-rsvp/internal/sheet"
	"wedding-rsvp/internal/storage"
	"wedding-rsvp/internal/whatsapp"
)

func main() {
	cfg := config.LoadConfig()
	log := cfg.NewLogger(os.Stdout)

	if err := run(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("RSVP server stopped")
	}
}

func run(cfg *config.Config, log zerolog.Logger) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	layout, err := sheet.ByName(cfg.SheetLayout)
	if err != nil {
		return err
	}

	table, err := storage.Open(ctx, cfg.StorageDSN, cfg.SheetName, layout.Header)
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}
	defer table.Close()
	log.Info().Str("layout", layout.Name).Str("sheet", cfg.SheetName).Msg("Storage ready")

	rdb, err := cfg.NewRedisClient(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("Redis unavailable, rate limiting disabled")
	}
	if rdb != nil {
		defer rdb.Close()
	}

	var publisher events.Publisher = events.NopPublisher{}
	if cfg.AMQPURL != "" {
		p, err := events.NewAMQPPublisher(ctx, cfg.AMQPURL, cfg.AMQPQueue, log)
		if err != nil {
			log.Warn().Err(err).Msg("Broker unavailable, RSVP events disabled")
		} else {
			publisher = p
		}
	}
	defer publisher.Close()

	prom := metrics.NewPrometheus()
	svc := rsvp.NewService(table, layout, rsvp.Config{
		Publisher:            publisher,
		Metrics:              prom,
		Logger:               log,
		RestrictionsOverride: cfg.RestrictionsOverride,
	})

	var rsvpHandler *handler.RSVPHandler
	if cfg.WhatsAppEnabled {
		whatsappService, err := whatsapp.NewService(ctx, &whatsapp.Config{
			DataDir:     cfg.WhatsAppDataDir,
			CountryCode: cfg.WhatsAppCountryCode,
		}, log)
		if err != nil {
			return fmt.Errorf("failed to initialize WhatsApp: %w", err)
		}

		rsvpHandler = handler.NewRSVPHandler(whatsappService, svc, &handler.Config{
			FormURL:         cfg.Wedding.FormURL,
			CountryCode:     cfg.WhatsAppCountryCode,
			WeddingDate:     cfg.Wedding.Date,
			WeddingLocation: cfg.Wedding.Location,
			BrideName:       cfg.Wedding.BrideName,
			GroomName:       cfg.Wedding.GroomName,
		}, log)
		whatsappService.SetMessageHandler(rsvpHandler.HandleMessage)

		log.Info().Msg("Connecting to WhatsApp...")
		if err := whatsappService.Connect(ctx); err != nil {
			return fmt.Errorf("failed to connect to WhatsApp: %w", err)
		}
		defer whatsappService.Disconnect()
	}

	srv := server.New(svc, cfg, log, rdb, prom.Handler())
	serveErr := make(chan error, 1)
	go func() { serveErr <- srv.Start() }()

	done := make(chan struct{})
	if cfg.ConsoleEnabled {
		c := newConsole(os.Stdin, os.Stdout, svc)
		if rsvpHandler != nil {
			c.inviter = rsvpHandler
		}
		go func() {
			if c.run(ctx) {
				close(done)
				return
			}
			log.Info().Msg("Console input closed, still serving")
		}()
	}

	// Wait for interrupt signal
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sig:
	case <-done:
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
	}

	log.Info().Msg("Shutting down...")
	cancel()
	err = srv.Shutdown(context.Background())
	svc.Wait()
	return err
}
