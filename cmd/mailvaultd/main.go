package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/oumaimaa/mailvault/internal/api"
	"github.com/oumaimaa/mailvault/internal/config"
	"github.com/oumaimaa/mailvault/internal/mailbox"
	"github.com/oumaimaa/mailvault/internal/metrics"
	"github.com/oumaimaa/mailvault/internal/notify"
	"github.com/oumaimaa/mailvault/internal/session"
	"github.com/oumaimaa/mailvault/internal/store"
	boltstore "github.com/oumaimaa/mailvault/internal/store/bolt"
	sqlitestore "github.com/oumaimaa/mailvault/internal/store/sqlite"
)

var (
	version     = "dev"
	configPath  = flag.String("config", "", "Path to YAML configuration file")
	showVersion = flag.Bool("version", false, "Show version information")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Printf("mailvaultd version %s\n", version)
		os.Exit(0)
	}

	// Set up logging
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.WithError(err).Fatal("Failed to load configuration")
	}
	if err := cfg.Validate(); err != nil {
		logger.WithError(err).Fatal("Invalid configuration")
	}

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	logger.WithField("backend", cfg.Store.Backend).Info("Starting mailvault")

	// Open the record store
	var db store.DB
	switch cfg.Store.Backend {
	case config.BackendBolt:
		db, err = boltstore.Open(cfg.Store.Path, logger)
	default:
		db, err = sqlitestore.New(cfg.Store.Path, logger)
	}
	if err != nil {
		logger.WithError(err).Fatal("Failed to open mail store")
	}
	defer db.Close()

	m := metrics.New(prometheus.DefaultRegisterer)

	repo := mailbox.NewRepository(db, logger)

	// Standalone deployments resolve recipients from mail history; an
	// embedding host replaces this with its own player directory.
	dir, err := mailbox.NewCachedDirectory(mailbox.NewHistoryDirectory(repo), cfg.Mailbox.DirectoryCacheSize)
	if err != nil {
		logger.WithError(err).Fatal("Failed to create recipient directory")
	}

	// Attachment hand-off belongs to the host inventory; standalone, every
	// item counts as delivered.
	sink := mailbox.SinkFunc(func(ctx context.Context, recipientID string, items [][]byte) (int, int) {
		return len(items), 0
	})

	svc := mailbox.NewService(mailbox.Configuration{
		Repository: repo,
		Directory:  dir,
		Sink:       sink,
		Config:     cfg.Mailbox,
		Logger:     logger,
		Metrics:    m,
	})

	sessions := session.NewRegistry(cfg.Session.TTL(), logger)
	m.TrackSessions(sessions)

	gate := notify.NewGate(svc, notify.NotifierFunc(func(actorID string, unread int64) {
		logger.WithFields(logrus.Fields{
			"actor":  actorID,
			"unread": unread,
		}).Info("Actor has unread mail")
	}), logger, m)

	// Set up signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go sessions.Run(ctx, cfg.Session.SweepInterval())

	mux := http.NewServeMux()
	api.NewServer(svc, sessions, gate, logger).RegisterRoutes(mux)
	if cfg.HTTP.Metrics {
		mux.Handle("/metrics", m.Handler())
	}
	srv := &http.Server{Addr: cfg.HTTP.Addr, Handler: mux}
	go func() {
		logger.WithField("addr", cfg.HTTP.Addr).Info("Serving HTTP API")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Fatal("HTTP server error")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	sig := <-sigChan
	logger.WithField("signal", sig).Info("Received shutdown signal")
	cancel()

	srv.Close()

	logger.Info("Shutting down mailvault")
}
