package application

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/evrelay/event-relay/internal/archive"
	"github.com/evrelay/event-relay/internal/config"
	"github.com/evrelay/event-relay/internal/database"
	"github.com/evrelay/event-relay/internal/handler"
	"github.com/evrelay/event-relay/internal/router"
	"github.com/evrelay/event-relay/internal/service"
	"github.com/evrelay/event-relay/internal/wsurl"
	"github.com/evrelay/event-relay/pkg/constants"
)

// API is the HTTP + WebSocket API application.
type API struct {
	cfg      *config.Config
	srv      *http.Server
	db       *gorm.DB
	archiver *archive.Client
	hub      *service.EventHub
}

// NewAPI creates the API application: validates config, runs migrations, opens DB, builds router.
func NewAPI(cfg *config.Config) (*API, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	resolver, err := wsurl.NewResolver(cfg.WSBaseURL)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := database.MigrateUp(cfg.DatabaseURL()); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	db, err := database.Open(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}

	logger, _ := zap.NewProduction()
	if cfg.AppEnv == "development" {
		logger, _ = zap.NewDevelopment()
	}
	defer logger.Sync()

	hub := service.NewEventHub(cfg.WSReadBufferSize, cfg.WSWriteBufferSize, cfg.WSMaxMessageSize, logger)
	var archiver *archive.Client
	if cfg.EnableArchive {
		archiver, err = archive.NewClient(cfg.ArchiveBaseURL, logger)
		if err != nil {
			return nil, fmt.Errorf("archive: %w", err)
		}
		if err := archiver.Connect(context.Background()); err != nil {
			log.Printf("warning: archive connect failed (archiving disabled): %v", err)
			archiver = nil
		} else {
			hub.SetArchive(archiver)
		}
	}
	channelSvc := service.NewChannelService(db, cfg, hub)
	channelHandler := handler.NewChannelHandler(channelSvc, resolver)
	eventWS := handler.NewEventWSHandler(hub, channelSvc, logger)
	health := handler.NewHealthHandler()

	r := router.New(channelHandler, eventWS, health)

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return &API{cfg: cfg, srv: srv, db: db, archiver: archiver, hub: hub}, nil
}

// Run starts the HTTP server and blocks until ctx is cancelled; then shuts down gracefully.
func (a *API) Run(ctx context.Context) error {
	addr := a.srv.Addr
	host := a.cfg.AppHost
	if host == "0.0.0.0" {
		host = "localhost"
	}
	base := "http://" + host + ":" + a.cfg.HTTPPort
	log.Printf("HTTP server listening on %s", addr)
	log.Printf("  Health:        %s/health", base)
	log.Printf("  Ready:         %s/ready", base)
	log.Printf("  Channels:      %s/channels", base)
	log.Printf("  WebSocket:     ws://%s:%s%s/:channel_id/:user_id", host, a.cfg.HTTPPort, constants.PathWSEvents)

	// Propagate app context into the hub so archiving stops on shutdown
	a.hub.SetContext(ctx)

	go func() {
		if err := a.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("http: %v", err)
		}
	}()

	<-ctx.Done()
	if a.archiver != nil {
		_ = a.archiver.Close()
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}
