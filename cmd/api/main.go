package main

import (
	"context"
	"crypto/tls"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/clubvoice/clubvoice/cmd/mainconfig"
	"github.com/clubvoice/clubvoice/internal/api/router"
	"github.com/clubvoice/clubvoice/internal/bookings"
	"github.com/clubvoice/clubvoice/internal/clubs"
	appconfig "github.com/clubvoice/clubvoice/internal/config"
	"github.com/clubvoice/clubvoice/internal/conversations"
	"github.com/clubvoice/clubvoice/internal/customers"
	"github.com/clubvoice/clubvoice/internal/dashboard"
	"github.com/clubvoice/clubvoice/internal/http/handlers"
	"github.com/clubvoice/clubvoice/internal/live"
	"github.com/clubvoice/clubvoice/internal/matchi"
	"github.com/clubvoice/clubvoice/internal/messaging"
	"github.com/clubvoice/clubvoice/internal/notifications"
	"github.com/clubvoice/clubvoice/internal/observability/metrics"
	"github.com/clubvoice/clubvoice/pkg/logging"
)

const version = "1.0.0"

func main() {
	_ = godotenv.Load()

	// Load configuration
	cfg := appconfig.Load()

	// Initialize logger
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting clubvoice API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx := context.Background()

	// Initialize storage
	pool := connectPostgresPool(ctx, cfg.DatabaseURL, logger)
	if pool != nil {
		defer pool.Close()
	}
	repos := buildRepositories(pool, logger)
	repos.Clubs = wrapClubCache(repos.Clubs, cfg, logger)

	// Metrics
	metricsHandler, platformMetrics := setupMetrics()

	// Outbound providers
	smsSender, smsProvider, smsReason := messaging.BuildSMSSender(messaging.ProviderSelectionConfig{
		Preference:       cfg.SMSProvider,
		TwilioAccountSID: cfg.TwilioAccountSID,
		TwilioAuthToken:  cfg.TwilioAuthToken,
		TwilioFromNumber: cfg.TwilioFromNumber,
	}, logger)
	if smsReason != "" {
		logger.Warn("sms provider degraded", "provider", smsProvider, "reason", smsReason)
	}
	emailSender := buildEmailSender(ctx, cfg, logger)

	// Initialize services
	notifySvc := notifications.NewService(notifications.Config{
		Clubs:    repos.Clubs,
		Store:    repos.Notifications,
		SMS:      smsSender,
		Email:    emailSender,
		Provider: smsProvider,
		Metrics:  platformMetrics,
		Logger:   logger,
	})
	bookingSvc := bookings.NewService(repos.Bookings, notifySvc, logger)
	liveHub := live.NewHub(cfg.CORSAllowedOrigins, logger)
	defer liveHub.Close()
	tracker := conversations.NewTracker(repos.Clubs, repos.Customers, repos.Conversations, liveHub, logger)
	matchiSvc := matchi.NewService(repos.Clubs, cfg.MatchiBaseURL, logger)

	// Initialize handlers
	voiceWebhooks := handlers.NewVoiceWebhookHandler(handlers.VoiceWebhookConfig{
		Tracker:     tracker,
		Clubs:       repos.Clubs,
		Customers:   repos.Customers,
		Bookings:    bookingSvc,
		Notifier:    notifySvc,
		Matchi:      matchiSvc,
		Secret:      cfg.VoiceWebhookSecret,
		Environment: cfg.Env,
		Logger:      logger,
		Metrics:     platformMetrics,
	})

	routerCfg := &router.Config{
		Logger:               logger,
		Health:               handlers.NewHealthHandler(version),
		VoiceWebhooks:        voiceWebhooks,
		ClubsHandler:         clubs.NewHandler(repos.Clubs, logger),
		CustomersHandler:     customers.NewHandler(repos.Customers, notifySvc, logger),
		BookingsHandler:      bookings.NewHandler(bookingSvc, logger),
		ConversationsHandler: conversations.NewHandler(repos.Conversations, logger),
		NotificationsHandler: notifications.NewHandler(repos.Notifications, logger),
		LiveHub:              liveHub,
		MetricsHandler:       metricsHandler,
		StaffAuthSecret:      cfg.StaffJWTSecret,
		CORSAllowedOrigins:   cfg.CORSAllowedOrigins,
		WebhookRate:          cfg.WebhookRatePerSec,
		WebhookBurst:         cfg.WebhookBurst,
	}
	if statsDB := connectStatsDB(cfg.DatabaseURL, logger); statsDB != nil {
		defer statsDB.Close()
		routerCfg.DashboardHandler = dashboard.NewHandler(dashboard.NewStatsRepository(statsDB), logger)
	}

	r := router.New(routerCfg)

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
	fmt.Println("Server exited gracefully")
}

// repositories groups the per-aggregate stores so both backends (postgres,
// in-memory) wire identically.
type repositories struct {
	Clubs         clubs.Repository
	Customers     customers.Repository
	Conversations conversations.Repository
	Bookings      bookings.Repository
	Notifications notifications.Repository
}

// connectPostgresPool returns nil when no DATABASE_URL is configured; the
// caller falls back to in-memory repositories for local development.
func connectPostgresPool(ctx context.Context, databaseURL string, logger *logging.Logger) *pgxpool.Pool {
	if databaseURL == "" {
		logger.Warn("DATABASE_URL not set, using in-memory repositories")
		return nil
	}
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		logger.Error("failed to connect postgres", "error", err)
		os.Exit(1)
	}
	return pool
}

func buildRepositories(pool *pgxpool.Pool, logger *logging.Logger) *repositories {
	if pool == nil {
		return &repositories{
			Clubs:         clubs.NewInMemoryRepository(),
			Customers:     customers.NewInMemoryRepository(),
			Conversations: conversations.NewInMemoryRepository(),
			Bookings:      bookings.NewInMemoryRepository(),
			Notifications: notifications.NewInMemoryRepository(),
		}
	}
	logger.Info("using postgres repositories")
	return &repositories{
		Clubs:         clubs.NewPostgresRepository(pool),
		Customers:     customers.NewPostgresRepository(pool),
		Conversations: conversations.NewPostgresRepository(pool),
		Bookings:      bookings.NewPostgresRepository(pool),
		Notifications: notifications.NewPostgresRepository(pool),
	}
}

// wrapClubCache puts a Redis read-through cache in front of the club
// repository when REDIS_ADDR is configured. The webhook hot path resolves a
// club on every event; the cache keeps that off postgres.
func wrapClubCache(repo clubs.Repository, cfg *appconfig.Config, logger *logging.Logger) clubs.Repository {
	if cfg.RedisAddr == "" {
		return repo
	}
	opts := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	logger.Info("club cache enabled", "addr", cfg.RedisAddr, "ttl", cfg.ClubCacheTTL)
	return clubs.NewCachedRepository(repo, redis.NewClient(opts), cfg.ClubCacheTTL, logger)
}

// connectStatsDB opens the database/sql handle the dashboard aggregation
// queries run on. Nil when no database is configured.
func connectStatsDB(databaseURL string, logger *logging.Logger) *sql.DB {
	if databaseURL == "" {
		return nil
	}
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		logger.Error("failed to open stats db", "error", err)
		return nil
	}
	return db
}

func setupMetrics() (http.Handler, *metrics.PlatformMetrics) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	platformMetrics := metrics.NewPlatformMetrics(registry)
	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	return handler, platformMetrics
}

func buildEmailSender(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) notifications.EmailSender {
	switch cfg.EmailProvider {
	case "sendgrid":
		sender := notifications.NewSendGridSender(notifications.SendGridConfig{
			APIKey:    cfg.SendGridAPIKey,
			FromEmail: cfg.SendGridFromEmail,
			FromName:  cfg.SendGridFromName,
		}, logger)
		if sender == nil {
			logger.Warn("sendgrid selected but SENDGRID_API_KEY missing, email channel off")
			return nil
		}
		return sender
	case "ses":
		client, err := mainconfig.NewSESClient(ctx, cfg)
		if err != nil {
			logger.Error("failed to build SES client, email channel off", "error", err)
			return nil
		}
		return notifications.NewSESSender(client, notifications.SESConfig{
			FromEmail: cfg.SESFromEmail,
			FromName:  cfg.SESFromName,
		}, logger)
	case "":
		return nil
	default:
		logger.Warn("unknown email provider, email channel off", "provider", cfg.EmailProvider)
		return nil
	}
}
