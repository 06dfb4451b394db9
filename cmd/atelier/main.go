package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/atelier-web/atelier/internal/analytics"
	"github.com/atelier-web/atelier/internal/app"
	"github.com/atelier-web/atelier/internal/auth"
	"github.com/atelier-web/atelier/internal/contacts"
	"github.com/atelier-web/atelier/internal/gate"
	"github.com/atelier-web/atelier/internal/media"
	"github.com/atelier-web/atelier/internal/observability"
	"github.com/atelier-web/atelier/internal/offerings"
	"github.com/atelier-web/atelier/internal/platform/cache"
	"github.com/atelier-web/atelier/internal/platform/db"
	"github.com/atelier-web/atelier/internal/posts"
	"github.com/atelier-web/atelier/internal/projects"
	"github.com/atelier-web/atelier/internal/seo"
	"github.com/atelier-web/atelier/internal/shared"
	"github.com/atelier-web/atelier/internal/users"
	"github.com/atelier-web/atelier/internal/view"
	"github.com/atelier-web/atelier/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
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

	if err := db.Migrate(ctx, cfg.PGDSN); err != nil {
		logger.Error("run migrations", slog.Any("error", err))
		os.Exit(1)
	}

	dbpool, err := db.New(ctx, cfg.PGDSN, cfg.PGMaxConns)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Warn("redis ping", slog.Any("error", err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	contentCache := cache.NewContent(redisClient, cfg.ContentCacheTTL)

	templates, err := view.NewEngine()
	if err != nil {
		logger.Error("parse templates", slog.Any("error", err))
		os.Exit(1)
	}

	securityLog := shared.NewSecurityLogger(dbpool, logger)
	idempotencyStore := shared.NewIdempotencyStore(dbpool)

	metrics := observability.NewMetrics()

	signer := gate.NewSigner(cfg.SessionSecret, cfg.SessionTTL)
	revocations := auth.NewRevocationList(redisClient)
	rules := gate.DefaultRules()
	engine := gate.NewEngine(rules)
	logger.Info("access rules loaded", slog.Int("rules", len(rules)))
	requestGate := &gate.Gate{
		Verifier:    signer,
		Revocations: revocations,
		Engine:      engine,
		Events:      securityLog,
		Metrics:     metrics,
		Logger:      logger,
	}
	limiters := gate.NewLimiters(gate.NewCounterStore())

	authRepo := auth.NewRepository(dbpool)
	authService := auth.NewService(authRepo, signer, revocations, logger)
	authHandler := auth.NewHandler(logger, authService, templates, securityLog, cfg.IsProduction())

	jobClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("create job client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()

	postsRepo := posts.NewRepository(dbpool)
	postsService := posts.NewService(postsRepo, contentCache, logger)
	postsHandler := posts.NewHandler(logger, postsService)

	projectsRepo := projects.NewRepository(dbpool)
	projectsService := projects.NewService(projectsRepo, contentCache, logger)
	projectsHandler := projects.NewHandler(logger, projectsService)

	offeringsRepo := offerings.NewRepository(dbpool)
	offeringsService := offerings.NewService(offeringsRepo, contentCache, logger)
	offeringsHandler := offerings.NewHandler(logger, offeringsService)

	contactsRepo := contacts.NewRepository(dbpool)
	contactsService := contacts.NewService(contactsRepo, idempotencyStore, jobClient, logger)
	contactsHandler := contacts.NewHandler(logger, contactsService)

	mediaRepo := media.NewRepository(dbpool)
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
	mediaService := media.NewService(mediaRepo, mediaStorage, logger)
	mediaHandler := media.NewHandler(logger, mediaService)

	seoRepo := seo.NewRepository(dbpool)
	seoService := seo.NewService(seoRepo, contentCache, cfg.AppBaseURL, postsRepo, projectsRepo, logger)
	seoHandler := seo.NewHandler(logger, seoService)

	usersRepo := users.NewRepository(dbpool)
	usersService := users.NewService(usersRepo)
	usersHandler := users.NewHandler(logger, usersService)

	analyticsRepo := analytics.NewRepository(dbpool)
	analyticsService := analytics.NewService(analyticsRepo, contentCache)
	analyticsHandler := analytics.NewHandler(logger, analyticsService)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:    logger,
		Config:    cfg,
		Templates: templates,

		Gate:     requestGate,
		Limiters: limiters,

		AuthHandler:      authHandler,
		PostsHandler:     postsHandler,
		ProjectsHandler:  projectsHandler,
		OfferingsHandler: offeringsHandler,
		ContactsHandler:  contactsHandler,
		MediaHandler:     mediaHandler,
		SeoHandler:       seoHandler,
		UsersHandler:     usersHandler,
		AnalyticsHandler: analyticsHandler,
		JobHandler:       jobHandler,

		SecurityLog: securityLog,
		Metrics:     metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
