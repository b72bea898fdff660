// cmd/server/main.go
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"garage-backoffice/internal/api"
	"garage-backoffice/internal/common/auth"
	"garage-backoffice/internal/common/aws"
	"garage-backoffice/internal/common/config"
	"garage-backoffice/internal/common/database"
	"garage-backoffice/internal/common/logger"
	"garage-backoffice/internal/common/observability"
	"garage-backoffice/internal/inventory"
	"garage-backoffice/internal/lookup"
	"garage-backoffice/internal/mailer"
	"garage-backoffice/internal/registration"
	"garage-backoffice/internal/serviceprice"
	"garage-backoffice/internal/upload"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2 // Exponential backoff
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()

	// Wrap zap logger with our logger interface
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting garage backoffice server...",
		zap.String("environment", cfg.App.Environment),
		zap.String("version", cfg.App.Version),
	)

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Init PostgreSQL with retry ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		// Test the connection with context
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")

	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	zapLog.Info("PostgreSQL connected successfully")

	// --- Init Redis with retry ---
	var redis *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		redis, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		// Test the connection with context
		return redis.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")

	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer redis.Close()
	zapLog.Info("Redis connected successfully")

	// --- Init Elasticsearch (optional, vehicle search degrades without it) ---
	var esClient *database.ElasticsearchClient
	err = retryWithBackoff(func() error {
		var err error
		esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
		if err != nil {
			return err
		}
		// Test the connection
		return esClient.Ping()
	}, 5, 2*time.Second, zapLog, "Elasticsearch connection")

	var searchIndex *inventory.SearchIndex
	if err != nil {
		zapLog.Warn("elasticsearch unavailable, vehicle search disabled", zap.Error(err))
	} else {
		searchIndex = inventory.NewSearchIndex(esClient)
		zapLog.Info("Elasticsearch connected successfully")
	}

	// --- Init AWS clients ---
	s3Client, err := aws.NewS3Client(ctx,
		cfg.Integrations.AWS.Region,
		cfg.Integrations.AWS.S3.Bucket,
		cfg.Integrations.AWS.S3.PublicURL,
	)
	if err != nil {
		zapLog.Fatal("s3 client failed", zap.Error(err))
	}

	var alerter registration.Alerter
	if cfg.Integrations.AWS.SNS.Enabled {
		snsClient, err := aws.NewSNSClient(ctx, cfg.Integrations.AWS.Region, cfg.Integrations.AWS.SNS.TopicARN)
		if err != nil {
			zapLog.Fatal("sns client failed", zap.Error(err))
		}
		alerter = snsClient
		zapLog.Info("SNS alerts enabled", zap.String("topic", cfg.Integrations.AWS.SNS.TopicARN))
	}

	// --- Init admin authorizer ---
	var authorizer auth.Authorizer
	if cfg.Auth.Keycloak.URL != "" {
		authorizer = auth.NewKeycloakClient(
			cfg.Auth.Keycloak.URL,
			cfg.Auth.Keycloak.Realm,
			cfg.Auth.Keycloak.ClientID,
			cfg.Auth.Keycloak.ClientSecret,
		)
		zapLog.Info("Keycloak authorizer enabled", zap.String("realm", cfg.Auth.Keycloak.Realm))
	} else {
		token := os.Getenv("ADMIN_API_TOKEN")
		if token == "" {
			zapLog.Fatal("no admin authorizer configured: set auth.keycloak.url or ADMIN_API_TOKEN")
		}
		authorizer = &auth.StaticAuthorizer{Secret: token}
		zapLog.Warn("Keycloak not configured, using static admin token")
	}

	// --- Wire domain services ---
	oracle := lookup.NewCachedOracle(
		lookup.NewClient(
			cfg.Integrations.Lookup.BaseURL,
			cfg.Integrations.Lookup.APIKey,
			config.GetDuration(cfg.Integrations.Lookup.Timeout),
			log,
		),
		redis,
		time.Duration(cfg.Registration.LookupCacheTTL)*time.Second,
		log,
	)

	store := registration.NewPostgresStore(pg, log)
	drafts := registration.NewDraftStore(redis, time.Duration(cfg.Registration.DraftTTL)*time.Second)
	mailService := mailer.NewService(cfg.Integrations.SMTP, nil, log)
	wizard := registration.NewWizard(drafts, store, oracle, mailService, alerter, log)
	uploads := upload.NewService(s3Client, log)
	vehicles := inventory.NewRepository(pg, searchIndex, log)
	prices := serviceprice.NewEditor(pg, log)

	server := api.NewServer(api.ServerDeps{
		Logger:          log,
		Observability:   obs,
		Authorizer:      authorizer,
		Wizard:          wizard,
		Store:           store,
		Subscriber:      store,
		Uploads:         uploads,
		Mailer:          mailService,
		Vehicles:        vehicles,
		Search:          searchIndex,
		Prices:          prices,
		ListPageDefault: cfg.Registration.ListPageDefault,
	})

	httpServer := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      server.Handler(),
		ReadTimeout:  config.GetDuration(cfg.Server.ReadTimeout),
		WriteTimeout: config.GetDuration(cfg.Server.WriteTimeout),
	}

	go func() {
		zapLog.Info("HTTP server listening", zap.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLog.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.GetDuration(cfg.Server.ShutdownTimeout))
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error shutting down HTTP server", zap.Error(err))
	}

	zapLog.Info("Server stopped gracefully")
}
