// cmd/api/main.go

package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"

	"wayguard/internal/cache"
	"wayguard/internal/config"
	"wayguard/internal/domain/safety"
	"wayguard/internal/ratelimit"
	"wayguard/internal/server"
	locationService "wayguard/internal/service/location"
	safetyService "wayguard/internal/service/safety"
	"wayguard/internal/source"
)

func main() {
	// Load .env if present, then configuration from the environment
	if err := godotenv.Load(); err != nil {
		logrus.Debugf("No .env file loaded: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}

	if cfg.Environment == "development" {
		logrus.SetLevel(logrus.DebugLevel)
	}

	// Setup signal handling for graceful shutdown
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// NATS is the outward event surface; the aggregation core runs without
	// it, so a failed connection only disables live updates.
	natsConn, err := initNATS(cfg.NATS)
	if err != nil {
		logrus.Warnf("NATS unavailable, live updates disabled: %v", err)
		natsConn = nil
	} else {
		defer natsConn.Close()
	}

	// The assessor's model client doubles as the synthesizer behind the
	// news and scamwatch adapters' substitute-content strategies.
	chatClient := source.NewChatClient(cfg.Assessor.BaseURL, cfg.Assessor.APIKey, cfg.Assessor.Model, cfg.Assessor.Timeout)
	synthesizer := source.NewSynthesizer(chatClient)

	// Initialize source adapters, each gated by its own cache and limiter
	assessor := source.NewAssessor(
		chatClient,
		cache.New[safety.Report](cfg.Assessor.CacheTTL, cfg.Assessor.CacheSize),
		ratelimit.New(cfg.Assessor.RateLimit, cfg.Assessor.RateWindow),
	)
	news := source.NewNews(
		cfg.News.BaseURL,
		cfg.News.APIKey,
		cfg.News.Timeout,
		cache.New[safety.Report](cfg.News.CacheTTL, cfg.News.CacheSize),
		ratelimit.New(cfg.News.RateLimit, cfg.News.RateWindow),
		synthesizer,
	)
	scamWatch := source.NewScamWatch(
		cfg.ScamWatch.BaseURL,
		cfg.ScamWatch.Timeout,
		cache.New[safety.Report](cfg.ScamWatch.CacheTTL, cfg.ScamWatch.CacheSize),
		ratelimit.New(cfg.ScamWatch.RateLimit, cfg.ScamWatch.RateWindow),
		synthesizer,
	)

	// Initialize the aggregation core
	aggregator := safetyService.NewAggregator(
		[]safety.Source{assessor, news, scamWatch},
		cache.New[safety.Document](cfg.Safety.DocumentTTL, cfg.Safety.CacheSize),
		natsConn,
		cfg.Safety.EventsSubject,
	)
	tracker := locationService.NewTracker(cfg.Tracker.TTL)
	service := safetyService.NewService(aggregator, tracker, cfg.Tracker.MoveThresholdKm)

	// Initialize HTTP server
	httpServer := server.NewServer(cfg.Server, natsConn, service, cfg.Safety.EventsSubject)

	// Start HTTP server
	go func() {
		logrus.Infof("Starting HTTP server on %s:%d", cfg.Server.Host, cfg.Server.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("HTTP server error: %v", err)
		}
	}()

	// Wait for shutdown signal
	<-shutdown
	logrus.Info("Shutdown signal received")

	// Create shutdown context with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	// Graceful shutdown
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logrus.Errorf("HTTP server shutdown error: %v", err)
	}

	// Drain in-flight background refreshes
	service.Close()

	logrus.Info("Shutdown complete")
}

// Initialize NATS connection
func initNATS(cfg config.NATSConfig) (*nats.Conn, error) {
	options := []nats.Option{
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.Timeout(cfg.ConnectTimeout),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			logrus.Warnf("NATS disconnected: %v", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logrus.Infof("NATS reconnected to %s", nc.ConnectedUrl())
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			logrus.Info("NATS connection closed")
		}),
	}

	return nats.Connect(cfg.URL, options...)
}
