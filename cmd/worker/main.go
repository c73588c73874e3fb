// Package main - точка входа фоновых процессов (Worker) Mentorship Hub.
//
// Worker отвечает за периодические задачи:
// - Протухание заявок, оставшихся без ответа дольше TTL
// - Сверка зеркальных рёбер менторства между леджерами
//
// Обе задачи работают поверх тех же репозиториев, что и API:
// протухание пишет по одному агрегату за раз, сверка по умолчанию
// только сообщает об асимметрии, не исправляя её.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/campus-connect/mentorship-hub/config"
	"github.com/campus-connect/mentorship-hub/internal/application/eventhandler"
	"github.com/campus-connect/mentorship-hub/internal/application/mirror"
	"github.com/campus-connect/mentorship-hub/internal/domain/learner"
	"github.com/campus-connect/mentorship-hub/internal/domain/shared"
	"github.com/campus-connect/mentorship-hub/internal/infrastructure/external/notifier"
	"github.com/campus-connect/mentorship-hub/internal/infrastructure/messaging"
	"github.com/campus-connect/mentorship-hub/internal/infrastructure/persistence/postgres"
	"github.com/campus-connect/mentorship-hub/internal/infrastructure/persistence/redis"
	"github.com/campus-connect/mentorship-hub/internal/infrastructure/scheduler"
	"github.com/campus-connect/mentorship-hub/internal/infrastructure/scheduler/jobs"
	"github.com/campus-connect/mentorship-hub/pkg/logger"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

// eventBus is what the wiring needs from either bus implementation.
type eventBus interface {
	shared.EventBus
	Close() error
}

func run(ctx context.Context) error {
	// ─────────────────────────────────────────────────────────────────────────
	// 1. CONFIGURATION
	// ─────────────────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if !cfg.Scheduler.Enabled {
		return fmt.Errorf("scheduler is disabled, nothing to run (set SCHEDULER_ENABLED=true)")
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 2. LOGGING
	// ─────────────────────────────────────────────────────────────────────────
	logOpts := logger.DefaultOptions()
	logOpts.Level = logger.ParseLevel(cfg.Observability.LogLevel)
	if cfg.App.Debug {
		logOpts.Level = logger.LevelDebug
	}
	log := logger.New(logOpts)

	log.Info("starting Mentorship Hub Worker",
		logger.String("env", string(cfg.App.Environment)),
		logger.String("timezone", cfg.App.Timezone))

	// ─────────────────────────────────────────────────────────────────────────
	// 3. DATABASE
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("connecting to database...")
	dbConn, err := postgres.NewConnectionFromURL(ctx, cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer dbConn.Close()

	if err := dbConn.Ping(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 4. REDIS (optional)
	// ─────────────────────────────────────────────────────────────────────────
	var redisCache *redis.Cache
	if !cfg.Redis.Disabled {
		redisCfg := redis.DefaultConfig()
		redisCfg.Host = cfg.Redis.Host
		redisCfg.Port = cfg.Redis.Port
		redisCfg.Password = cfg.Redis.Password
		redisCfg.DB = cfg.Redis.DB

		redisCache, err = redis.NewCache(redisCfg)
		if err != nil {
			log.Warn("failed to connect to Redis, caching disabled", logger.Err(err))
			redisCache = nil
		} else {
			defer redisCache.Close()
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 5. REPOSITORIES
	// Worker writes go through the same cache-invalidating wrapper as the
	// API, so an expired request never survives in a cached profile.
	// ─────────────────────────────────────────────────────────────────────────
	var learnerRepo learner.Repository = postgres.NewLearnerRepository(dbConn)
	if redisCache != nil {
		profileCache := redis.NewProfileCache(redisCache)
		learnerRepo = redis.NewCachedLearnerRepository(learnerRepo, profileCache, log)
	}
	mentorRepo := postgres.NewMentorRepository(dbConn)

	// ─────────────────────────────────────────────────────────────────────────
	// 6. EVENT BUS
	// ─────────────────────────────────────────────────────────────────────────
	localBusCfg := messaging.DefaultInMemoryEventBusConfig()
	localBusCfg.Logger = log

	var bus eventBus
	if redisCache != nil {
		bus, err = messaging.NewRedisEventBus(messaging.RedisEventBusConfig{
			Client:         redisCache.Client(),
			LocalBusConfig: localBusCfg,
			Logger:         log,
		})
		if err != nil {
			return fmt.Errorf("failed to create event bus: %w", err)
		}
	} else {
		bus = messaging.NewInMemoryEventBus(localBusCfg)
	}
	defer func() { _ = bus.Close() }()

	// ─────────────────────────────────────────────────────────────────────────
	// 7. NOTICE DELIVERY
	// The worker delivers its own notices (expired requests) instead of
	// relying on an API instance being subscribed.
	// ─────────────────────────────────────────────────────────────────────────
	notifierCfg := notifier.DefaultClientConfig(cfg.Notifier.BaseURL)
	notifierCfg.APIKey = cfg.Notifier.APIKey
	notifierCfg.Timeout = cfg.Notifier.RequestTimeout
	notifierCfg.DeferQuietHours = cfg.Notifier.RespectQuietHours
	notifierCfg.Logger = log
	notifierClient := notifier.NewClient(notifierCfg)

	noticeHandler := eventhandler.NewOnNoticeHandler(learnerRepo, mentorRepo, notifierClient, log)
	if err := noticeHandler.Register(bus); err != nil {
		return fmt.Errorf("failed to register notice handler: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 8. SCHEDULER & JOBS
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("initializing scheduler...")
	sched := scheduler.New(scheduler.Config{
		Logger:   log,
		Timezone: cfg.App.Location,
	})

	expireCfg := jobs.DefaultExpireRequestsConfig()
	expireCfg.RequestTTL = cfg.Scheduler.RequestTTL
	expireCfg.NotifyRequester = cfg.Scheduler.NotifyRequester
	expireCfg.Timeout = cfg.Scheduler.JobTimeout
	expireJob := jobs.NewExpireRequestsJob(learnerRepo, bus, log, expireCfg)

	if err := sched.Register(expireJob, scheduler.Every(cfg.Scheduler.ExpireInterval)); err != nil {
		return fmt.Errorf("failed to register expiry job: %w", err)
	}

	reconcileCfg := jobs.DefaultReconcileLedgersConfig()
	reconcileCfg.RepairEnabled = cfg.Scheduler.ReconcileRepairEnabled
	reconcileCfg.MaxRepairsPerRun = cfg.Scheduler.MaxRepairsPerRun
	reconcileCfg.Timeout = cfg.Scheduler.JobTimeout
	auditor := mirror.NewAuditor(learnerRepo, log)
	reconcileJob := jobs.NewReconcileLedgersJob(auditor, bus, log, reconcileCfg)

	reconcileAt := scheduler.DailyAt(
		cfg.Scheduler.ReconcileHour, cfg.Scheduler.ReconcileMinute, cfg.App.Location)
	if err := sched.Register(reconcileJob, reconcileAt); err != nil {
		return fmt.Errorf("failed to register reconciliation job: %w", err)
	}

	if err := sched.Start(ctx); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}

	log.Info("Mentorship Hub Worker is running",
		logger.String("expire_interval", cfg.Scheduler.ExpireInterval.String()),
		logger.String("reconcile_at", reconcileAt.String()),
		logger.Bool("repair_enabled", cfg.Scheduler.ReconcileRepairEnabled))

	// ─────────────────────────────────────────────────────────────────────────
	// 9. GRACEFUL SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	sig := <-sigCh
	log.Info("received shutdown signal", logger.String("signal", sig.String()))

	if err := sched.Stop(); err != nil {
		log.Error("failed to stop scheduler gracefully", logger.Err(err))
		return err
	}

	log.Info("shutdown completed successfully")
	return nil
}
