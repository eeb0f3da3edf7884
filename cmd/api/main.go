package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"payment-broker/config"
	httpHandler "payment-broker/internal/adapter/http/handler"
	"payment-broker/internal/adapter/messaging"
	"payment-broker/internal/adapter/storage/dynamo"
	pgStorage "payment-broker/internal/adapter/storage/postgres"
	redisStorage "payment-broker/internal/adapter/storage/redis"
	"payment-broker/internal/adapter/storage/s3archive"
	"payment-broker/internal/core/domain"
	"payment-broker/internal/core/ports"
	"payment-broker/internal/provider"
	"payment-broker/internal/provider/culqi"
	"payment-broker/internal/provider/stripe"
	"payment-broker/internal/service"
	"payment-broker/pkg/logger"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

const shutdownTimeout = 15 * time.Second

// stores groups the backend chosen by storage.driver.
type stores struct {
	config  ports.ConfigStore
	audit   ports.IndexedAuditStore
	health  ports.HealthChecker
	cleanup func()
}

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "failed to read .env: %v\n", err)
	}

	cfg, err := config.Load(os.Getenv("PB_CONFIG_FILE"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Log.Level, cfg.Log.Pretty)

	log.Info().
		Str("mode", cfg.Server.Mode).
		Int("port", cfg.Server.Port).
		Str("storage", cfg.Storage.Driver).
		Msg("Starting Payment Broker")

	ctx := context.Background()

	// Configuration records and the indexed audit log
	st, err := openStores(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.Storage.Driver).Msg("Failed to open storage")
	}
	defer st.cleanup()

	// Audit archive
	s3Client, err := s3archive.NewClient(ctx, cfg.AWS)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialise S3 client")
	}
	archive := s3archive.NewStore(s3Client, cfg.AWS.S3Bucket, cfg.AWS.Region)

	// Redis: processed webhook events and rate limits
	rdb, err := redisStorage.NewClient(ctx, cfg.Redis, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()
	log.Info().Msg("Redis connected")

	// NATS
	nc, err := messaging.Connect(cfg.NATS, logger.Component(log, "nats"))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to NATS")
	}
	defer nc.Close()
	publisher := messaging.NewPublisher(nc, logger.Component(log, "publisher"))

	// Core services
	codec, err := service.NewAESCodec(cfg.Crypto.Key)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialise crypto codec")
	}
	configSvc := service.NewConfigService(st.config, codec, cfg.Cache.TTL, logger.Component(log, "config"))
	defer configSvc.Stop()

	auditSvc := service.NewAuditService(st.audit, archive, service.AuditOptions{
		MaxAttempts:    cfg.Audit.MaxAttempts,
		RetryStep:      cfg.Audit.RetryStep,
		AttemptTimeout: cfg.Audit.AttemptTimeout,
		QueueSize:      cfg.Audit.QueueSize,
		Workers:        cfg.Audit.Workers,
	}, logger.Component(log, "audit"))

	// Providers
	registry := provider.NewRegistry(logger.Component(log, "registry"))
	stripeDeps := stripe.Deps{
		Auditor:    auditSvc,
		Publisher:  publisher,
		Events:     redisStorage.NewEventStore(rdb),
		EventTTL:   cfg.Stripe.EventTTL,
		SuccessURL: cfg.Stripe.SuccessURL,
		CancelURL:  cfg.Stripe.CancelURL,
		Log:        logger.Component(log, "stripe"),
	}
	registry.Register(domain.PaymentMethodStripe, stripe.Name, func(pc *domain.ProviderConfig) ports.Provider {
		return stripe.New(pc, stripeDeps)
	})
	culqiDeps := culqi.Deps{
		Auditor:      auditSvc,
		HTTPClient:   &http.Client{Timeout: cfg.Culqi.Timeout + 2*time.Second},
		BaseURL:      cfg.Culqi.BaseURL,
		Timeout:      cfg.Culqi.Timeout,
		DefaultEmail: cfg.Culqi.DefaultEmail,
		Log:          logger.Component(log, "culqi"),
	}
	registry.Register(domain.PaymentMethodCulqi, culqi.Name, func(pc *domain.ProviderConfig) ports.Provider {
		return culqi.New(pc, culqiDeps)
	})

	paymentSvc := service.NewPaymentService(configSvc, registry, logger.Component(log, "payments"))

	// Message bus surface
	responder := messaging.NewResponder(nc, cfg.NATS.Queue, paymentSvc, logger.Component(log, "responder"),
		messaging.WithMaxInFlight(cfg.NATS.MaxInFlight))
	if err := responder.Start(); err != nil {
		log.Fatal().Err(err).Msg("Failed to subscribe NATS subjects")
	}

	// HTTP surface
	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		PaymentSvc:  paymentSvc,
		RateLimiter: redisStorage.NewRateLimitStore(rdb),
		HealthCheckers: []ports.HealthChecker{
			st.health,
			redisStorage.NewHealthCheck(rdb),
			messaging.NewHealthCheck(nc),
			s3archive.NewHealthCheck(s3Client, cfg.AWS.S3Bucket),
		},
		Logger: logger.Component(log, "http"),
		Mode:   cfg.Server.Mode,
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := responder.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("NATS requests still running at shutdown")
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	// Audit records produced by the last requests are still written.
	if err := auditSvc.Drain(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Audit queue not fully drained")
	}
	if err := nc.Drain(); err != nil {
		log.Warn().Err(err).Msg("NATS drain failed")
	}

	log.Info().Msg("Server exited")
}

func openStores(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*stores, error) {
	switch cfg.Storage.Driver {
	case "postgres":
		pool, err := pgStorage.NewPool(ctx, cfg.Database, log)
		if err != nil {
			return nil, err
		}
		if err := pgStorage.EnsureSchema(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}
		return &stores{
			config:  pgStorage.NewConfigRepo(pool),
			audit:   pgStorage.NewAuditRepo(pool),
			health:  pgStorage.NewHealthCheck(pool),
			cleanup: pool.Close,
		}, nil

	case "dynamodb":
		client, err := dynamo.NewClient(ctx, cfg.AWS)
		if err != nil {
			return nil, err
		}
		log.Info().
			Str("config_table", cfg.AWS.ConfigTable).
			Str("audit_table", cfg.AWS.AuditTable).
			Msg("DynamoDB client ready")
		return &stores{
			config:  dynamo.NewConfigRepo(client, cfg.AWS.ConfigTable),
			audit:   dynamo.NewAuditRepo(client, cfg.AWS.AuditTable),
			health:  dynamo.NewHealthCheck(client, cfg.AWS.ConfigTable),
			cleanup: func() {},
		}, nil

	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}
