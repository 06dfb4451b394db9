package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/atelier-web/atelier/internal/app"
	"github.com/atelier-web/atelier/internal/contacts"
	jobmetrics "github.com/atelier-web/atelier/internal/jobs"
	"github.com/atelier-web/atelier/internal/media"
	"github.com/atelier-web/atelier/internal/platform/cache"
	"github.com/atelier-web/atelier/internal/platform/db"
	"github.com/atelier-web/atelier/internal/posts"
	"github.com/atelier-web/atelier/internal/projects"
	"github.com/atelier-web/atelier/internal/seo"
	"github.com/atelier-web/atelier/internal/shared"
	"github.com/atelier-web/atelier/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN, cfg.PGMaxConns)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Warn("redis ping", slog.Any("error", err))
	}

	contentCache := cache.NewContent(redisClient, cfg.ContentCacheTTL)

	contactsRepo := contacts.NewRepository(pool)
	idempotencyStore := shared.NewIdempotencyStore(pool)

	mediaStorage, err := media.NewStorage(ctx, media.StorageConfig{
		Bucket:       cfg.S3Bucket,
		Region:       cfg.S3Region,
		AccessKey:    cfg.S3AccessKey,
		SecretKey:    cfg.S3SecretKey,
		BaseEndpoint: cfg.S3BaseEndpoint,
		PresignTTL:   cfg.S3PresignTTL,
	})
	if err != nil {
		logger.Error("configure object storage", slog.Any("error", err))
		os.Exit(1)
	}
	mediaService := media.NewService(media.NewRepository(pool), mediaStorage, logger)

	seoService := seo.NewService(seo.NewRepository(pool), contentCache, cfg.AppBaseURL,
		posts.NewRepository(pool), projects.NewRepository(pool), logger)

	mailer := jobs.NewMailer(jobs.MailerConfig{
		Addr:      cfg.SMTPAddr,
		From:      cfg.SMTPFrom,
		Username:  cfg.SMTPUsername,
		Password:  cfg.SMTPPassword,
		PerMinute: cfg.MailPerMinute,
	})

	processor := jobs.NewProcessor(jobs.ProcessorConfig{
		Logger:     logger,
		Contacts:   contactsRepo,
		Mailer:     mailer,
		NotifyAddr: cfg.ContactNotifyAddr,
		Media:      mediaService,
		Sitemap:    seoService,
		Keys:       idempotencyStore,
		Metrics:    jobmetrics.NewMetrics(nil),
	})

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers:  processor.Handlers(),
		Cron: []jobs.CronRegistration{
			{Spec: "@every 1h", Task: jobs.NewMediaPruneTask(), Options: []asynq.Option{asynq.MaxRetry(3)}},
			{Spec: "@every 6h", Task: jobs.NewSitemapRefreshTask(), Options: []asynq.Option{asynq.MaxRetry(3)}},
			{Spec: "30 3 * * *", Task: jobs.NewMaintenanceCleanupTask(), Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
