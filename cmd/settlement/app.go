package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/surgeseven/settlement/internal/gateway/flutterwave"
	"github.com/surgeseven/settlement/internal/gateway/itrack"
	"github.com/surgeseven/settlement/internal/gateway/paystack"
	"github.com/surgeseven/settlement/internal/handlers"
	"github.com/surgeseven/settlement/internal/logger"
	"github.com/surgeseven/settlement/internal/notifier"
	"github.com/surgeseven/settlement/internal/repository"
	"github.com/surgeseven/settlement/internal/repository/postgres"
	"github.com/surgeseven/settlement/internal/service/ledger"
	"github.com/surgeseven/settlement/internal/service/reconciler"
	"github.com/surgeseven/settlement/internal/service/tracker"
)

type ServerApp struct {
	ListenAddr string
	Handler    http.Handler
}

func NewServerApp(ctx context.Context, c *Config) (*ServerApp, error) {
	// Initialize logger
	log, err := logger.New(c.Environment, c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("error while initializing logger: %w", err)
	}

	// Connect to the database and run migrations
	pool, err := repository.ConnectAndMigrate(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("error while connecting to db. Err: %w", err)
	}

	// Initialize repositories
	storage := postgres.NewStorage(pool)

	// Initialize provider clients
	payments := paystack.NewClient(c.PaystackURL, c.PaystackSecretKey, log)
	payouts := flutterwave.NewClient(c.FlutterwaveURL, c.FlutterwaveSecretKey, log)
	trackerClient := itrack.NewClient(itrack.Config{
		BaseURL:  c.TrackerURL,
		Username: c.TrackerUsername,
		Password: c.TrackerPassword,
	}, log)

	var mailer notifier.Notifier = notifier.NoOp{}
	if c.SendgridAPIKey != "" {
		mailer = notifier.NewSendGrid(c.SendgridAPIKey, c.EmailFrom, log)
	}

	// Initialize services
	ledgerService := ledger.NewService(
		ledger.Config{CallbackBaseURL: c.CallbackBaseURL},
		storage,
		payments,
		payouts,
		mailer,
		log,
	)
	reconcilerService := reconciler.NewService(storage, log)
	trackerService := tracker.NewService(trackerClient, storage, log)

	mux := handlers.NewRouter(
		handlers.Config{
			SecretKey:   c.SecretKey,
			WebhookHash: c.FlutterwaveWebhookHash,
		},
		ledgerService,
		reconcilerService,
		trackerService,
		log,
	)

	return &ServerApp{
		ListenAddr: c.ListenAddr,
		Handler:    mux,
	}, nil
}

// Run starts http server and closes gracefully on context cancellation
func (s *ServerApp) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:    s.ListenAddr,
		Handler: s.Handler,
	}

	idleConnsClosed := make(chan struct{})
	srvCtx, srvCtxCancel := context.WithCancel(ctx)
	defer srvCtxCancel()

	go func() {
		<-srvCtx.Done()

		timeoutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(timeoutCtx); err == context.DeadlineExceeded {
			slog.Error("HTTP server shutdown timeout exceeded, forcing shutdown...")
		}
		slog.Info("HTTP server stopped")
		close(idleConnsClosed)
	}()

	// Listen and serve until context is cancelled; then close gracefully connections
	slog.Info("Starting server")
	err := httpServer.ListenAndServe()
	srvCtxCancel()
	<-idleConnsClosed

	return err
}
