// cmd/eta-server/main.go
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

	"eta-service/internal/captcha"
	"eta-service/internal/common/aws"
	"eta-service/internal/common/config"
	"eta-service/internal/common/database"
	"eta-service/internal/common/logger"
	"eta-service/internal/common/observability"
	"eta-service/internal/notify"
	"eta-service/internal/payment"
	"eta-service/internal/search"
	"eta-service/internal/server"
	"eta-service/internal/status"
	"eta-service/internal/storage"
	"eta-service/internal/store"
	"eta-service/internal/submission"
	"eta-service/internal/validation"
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
			delay *= 2
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
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting eta-server...",
		zap.String("environment", cfg.App.Environment),
		zap.String("version", cfg.App.Version),
	)

	obs := observability.New("eta-server")
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
		return redis.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")
	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer redis.Close()
	zapLog.Info("Redis connected successfully")

	// --- Init Elasticsearch (optional) ---
	var indexer *search.Indexer
	if cfg.Database.Elasticsearch.Enabled {
		var esClient *database.ElasticsearchClient
		err = retryWithBackoff(func() error {
			var err error
			esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
			if err != nil {
				return err
			}
			return esClient.Ping()
		}, 10, 2*time.Second, zapLog, "Elasticsearch connection")
		if err != nil {
			zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
		}
		indexer = search.NewIndexer(esClient.Client, cfg.Database.Elasticsearch.Index, log)
		zapLog.Info("Elasticsearch connected successfully")
	} else {
		zapLog.Info("Elasticsearch disabled, skipping back-office indexing")
	}

	// --- Init AWS clients ---
	sesClient, err := aws.NewSESClient(ctx, cfg.Integrations.AWS.Region)
	if err != nil {
		zapLog.Fatal("ses client init failed", zap.Error(err))
	}
	s3Client, err := aws.NewS3Client(ctx, cfg.Integrations.AWS.Region)
	if err != nil {
		zapLog.Fatal("s3 client init failed", zap.Error(err))
	}

	var texter *notify.Texter
	if cfg.Integrations.AWS.SNS.Enabled {
		snsClient, err := aws.NewSNSClient(ctx, cfg.Integrations.AWS.Region)
		if err != nil {
			zapLog.Fatal("sns client init failed", zap.Error(err))
		}
		texter = notify.NewTexter(snsClient, cfg.Integrations.AWS.SNS.DefaultSMSSenderID, log)
	}

	// --- Assemble the application ---
	appStore := store.NewApplicationStore(pg.DB, log)
	statusCache := store.NewStatusCache(redis.Client)
	paymentClient := payment.NewClient(cfg.Payment)
	captchaGate := captcha.NewVerifier(cfg.Turnstile, log)
	photoStore := storage.NewPhotoStore(
		s3Client,
		cfg.Integrations.AWS.S3.Bucket,
		cfg.Integrations.AWS.S3.PublicBaseURL,
		cfg.Integrations.AWS.Region,
		log,
	)
	mailer := notify.NewMailer(sesClient, cfg.Integrations.AWS.SES.FromEmail, cfg.Notifications, log)
	validator := validation.New()
	pricing := submission.Pricing{
		ServiceFeeMinor:    cfg.Payment.ServiceFeePence,
		ProcessingFeeMinor: cfg.Payment.ProcessingFeePence,
		Currency:           cfg.Payment.Currency,
	}

	newOrch := func() server.Submitter {
		return submission.NewOrchestrator(
			paymentClient, appStore, photoStore, mailer, texter, indexer,
			validator, pricing, log,
		)
	}

	statusSvc := status.NewService(appStore, appStore, statusCache, log)

	srv := server.New(
		cfg, log, obs,
		newOrch, statusSvc, mailer, captchaGate,
		map[string]server.Pinger{
			"postgres": pg,
			"redis":    redis,
		},
	)

	httpServer := &http.Server{
		Addr:         srv.Addr(),
		Handler:      srv.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		zapLog.Info("HTTP server listening", zap.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLog.Fatal("http server failed", zap.Error(err))
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLog.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(ctx, time.Duration(cfg.HTTP.ShutdownTimeout)*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("http server shutdown failed", zap.Error(err))
	}

	zapLog.Info("Shutdown complete")
}
