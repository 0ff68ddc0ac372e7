package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"leadchat_backend/internal/ai"
	"leadchat_backend/internal/events"
	apphttp "leadchat_backend/internal/http"
	"leadchat_backend/internal/http/router"
	"leadchat_backend/internal/inbound"
	"leadchat_backend/internal/leads"
	"leadchat_backend/internal/leads/sourcing"
	"leadchat_backend/internal/messaging"
	"leadchat_backend/internal/scheduler"
	"leadchat_backend/internal/storage"
	"leadchat_backend/internal/telephony"
	"leadchat_backend/platform/config"
	"leadchat_backend/platform/db"
	"leadchat_backend/platform/logger"
	"leadchat_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize structured logger
	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		return db.RunMigrations(ctx, cfg, "migrations")
	}); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}
	log.Info("database migrations complete")

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()
	log.Info("database connection established")

	// Event bus for decoupled communication between modules
	eventBus := events.NewInMemoryBus(log.Logger)

	// Shared validator instance for dependency injection
	val := validator.New()

	// Campaign attribution rules for inbound referrals
	rules, err := sourcing.LoadRules(cfg.GetSourceRulesFile())
	if err != nil {
		log.Error("failed to load sourcing rules", "error", err)
		panic("failed to load sourcing rules: " + err.Error())
	}
	if len(rules) > 0 {
		log.Info("sourcing rules loaded", "count", len(rules))
	}

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	messagingClient := messaging.NewClient(cfg, log)
	aiClient := ai.NewClient(cfg, log)
	if !aiClient.Enabled() {
		log.Warn("AI_RESPONDER_URL not configured; automatic replies disabled")
	}

	leadsModule := leads.NewModule(pool, messagingClient, eventBus, val, log)

	schedulerClient, closeScheduler := initSchedulerClient(cfg, log)
	if closeScheduler != nil {
		defer closeScheduler()
	}

	var responder inbound.Responder
	if aiClient.Enabled() {
		responder = aiClient
	}
	var enqueuer inbound.Enqueuer
	if schedulerClient != nil {
		enqueuer = schedulerClient
	}

	inboundSvc := inbound.NewService(leadsModule.Service(), responder, messagingClient, enqueuer, rules, log)
	inboundModule := inbound.NewModule(inboundSvc, cfg, log)

	telephonyModule := telephony.NewModule(pool, cfg, eventBus, val, log)
	if !cfg.IsTelephonyEnabled() {
		log.Warn("TELEPHONY_BASE_URL not configured; click-to-call disabled")
	}

	modules := []apphttp.Module{
		inboundModule,
		leadsModule,
		telephonyModule,
	}

	if cfg.IsMinIOEnabled() {
		storageSvc, err := storage.NewMinIOService(cfg)
		if err != nil {
			log.Error("failed to initialize storage service", "error", err)
			panic("failed to initialize storage service: " + err.Error())
		}
		bucket := cfg.GetMinioBucketChatAttachments()
		if err := withRetry(ctx, log, "ensure attachments bucket", 5, 2*time.Second, func() error {
			return storageSvc.EnsureBucketExists(ctx, bucket)
		}); err != nil {
			log.Error("failed to ensure storage bucket exists", "error", err, "bucket", bucket)
			panic("failed to ensure storage bucket exists: " + err.Error())
		}
		modules = append(modules, storage.NewModule(storageSvc, bucket, log))
		log.Info("storage service initialized", "attachmentsBucket", bucket)
	}

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		Health:   db.NewPoolAdapter(pool),
		EventBus: eventBus,
		Modules:  modules,
	}

	engine := router.New(app)

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		return engine.Run(cfg.HTTPAddr)
	})

	if cfg.GetRedisURL() != "" {
		worker, err := scheduler.NewWorker(cfg, inboundSvc, log)
		if err != nil {
			log.Error("failed to initialize scheduler worker", "error", err)
			panic("failed to initialize scheduler worker: " + err.Error())
		}
		group.Go(func() error {
			worker.Run(groupCtx)
			return nil
		})
		log.Info("scheduler worker started", "queue", cfg.GetAsynqQueueName())
	}

	group.Go(func() error {
		<-groupCtx.Done()
		return groupCtx.Err()
	})

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("server error", "error", err)
		panic("server error: " + err.Error())
	}
	log.Info("shutdown complete")
}

func initSchedulerClient(cfg config.SchedulerConfig, log *logger.Logger) (*scheduler.Client, func()) {
	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not configured; AI replies run in-process")
		return nil, nil
	}

	client, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize scheduler client", "error", err)
		return nil, nil
	}

	return client, func() {
		_ = client.Close()
	}
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
