package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/clubvoice/clubvoice/internal/clubs"
	"github.com/clubvoice/clubvoice/internal/config"
	"github.com/clubvoice/clubvoice/internal/messaging"
	"github.com/clubvoice/clubvoice/internal/notifications"
	notificationsworker "github.com/clubvoice/clubvoice/internal/worker/notifications"
	"github.com/clubvoice/clubvoice/pkg/logging"
)

// The notify-worker drains pending notification rows on an interval. Rows
// become pending on creation when no attempt ran, or when staff requeue a
// failed one through the retry endpoint; the API itself never loops over
// them.
func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := logging.New(cfg.LogLevel)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.DatabaseURL == "" {
		logger.Error("notify worker requires DATABASE_URL")
		os.Exit(1)
	}

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to connect postgres", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	clubRepo := clubs.NewPostgresRepository(pool)
	store := notifications.NewPostgresRepository(pool)

	smsSender, smsProvider, smsReason := messaging.BuildSMSSender(messaging.ProviderSelectionConfig{
		Preference:       cfg.SMSProvider,
		TwilioAccountSID: cfg.TwilioAccountSID,
		TwilioAuthToken:  cfg.TwilioAuthToken,
		TwilioFromNumber: cfg.TwilioFromNumber,
	}, logger)
	if smsReason != "" {
		logger.Warn("sms provider degraded", "provider", smsProvider, "reason", smsReason)
	}

	notifySvc := notifications.NewService(notifications.Config{
		Clubs:    clubRepo,
		Store:    store,
		SMS:      smsSender,
		Provider: smsProvider,
		Logger:   logger,
	})

	sweeper := notificationsworker.NewPendingSweeper(clubRepo, notifySvc, logger).
		WithInterval(cfg.NotifySweepInterval)

	go sweeper.Run(ctx)
	logger.Info("notify worker started", "interval", cfg.NotifySweepInterval, "sms_provider", smsProvider)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	logger.Info("notify worker shutting down")
	cancel()
	time.Sleep(2 * time.Second)
}
