// Package main - точка входа HTTP API сервиса Mentorship Hub.
//
// Сервис ведёт менторские связи кампуса: peer-менторы, официальные
// менторы, жизненный цикл заявок и оценки. Идентификацию выполняет
// вышестоящий gateway, сервис доверяет заголовку X-Account-ID.
//
// Архитектура следует принципам Clean Architecture и DDD:
// - Domain: чистая бизнес-логика без внешних зависимостей
// - Application: оркестрация use cases (Commands/Queries)
// - Infrastructure: репозитории, внешние API, фоновые задачи
// - Interface: REST API
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/campus-connect/mentorship-hub/config"
	"github.com/campus-connect/mentorship-hub/internal/application/command"
	"github.com/campus-connect/mentorship-hub/internal/application/eventhandler"
	"github.com/campus-connect/mentorship-hub/internal/application/mirror"
	"github.com/campus-connect/mentorship-hub/internal/application/query"
	"github.com/campus-connect/mentorship-hub/internal/domain/learner"
	"github.com/campus-connect/mentorship-hub/internal/domain/shared"
	"github.com/campus-connect/mentorship-hub/internal/infrastructure/external/catalog"
	"github.com/campus-connect/mentorship-hub/internal/infrastructure/external/notifier"
	"github.com/campus-connect/mentorship-hub/internal/infrastructure/messaging"
	"github.com/campus-connect/mentorship-hub/internal/infrastructure/persistence/postgres"
	"github.com/campus-connect/mentorship-hub/internal/infrastructure/persistence/redis"
	httpserver "github.com/campus-connect/mentorship-hub/internal/interface/http"
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

	// ─────────────────────────────────────────────────────────────────────────
	// 2. LOGGING
	// ─────────────────────────────────────────────────────────────────────────
	logOpts := logger.DefaultOptions()
	logOpts.Level = logger.ParseLevel(cfg.Observability.LogLevel)
	if cfg.App.Debug {
		logOpts.Level = logger.LevelDebug
	}
	log := logger.New(logOpts)

	log.Info("starting Mentorship Hub API",
		logger.String("env", string(cfg.App.Environment)),
		logger.String("version", cfg.App.Version),
		logger.String("timezone", cfg.App.Timezone))

	// ─────────────────────────────────────────────────────────────────────────
	// 3. DATABASE (PostgreSQL)
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("connecting to database...")
	dbConn, err := postgres.NewConnectionFromURL(ctx, cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() {
		log.Info("closing database connection...")
		dbConn.Close()
	}()

	if err := dbConn.Ping(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	log.Info("database connection established")

	// ─────────────────────────────────────────────────────────────────────────
	// 4. MIGRATIONS
	// ─────────────────────────────────────────────────────────────────────────
	if cfg.Database.AutoMigrate {
		log.Info("running database migrations...")
		migrator := postgres.NewMigrator(dbConn)
		if err := migrator.Migrate(ctx); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
		log.Info("migrations completed")
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 5. REDIS (optional: profile cache + cross-instance events)
	// ─────────────────────────────────────────────────────────────────────────
	var redisCache *redis.Cache
	if !cfg.Redis.Disabled {
		log.Info("connecting to Redis...")
		redisCfg := redis.DefaultConfig()
		redisCfg.Host = cfg.Redis.Host
		redisCfg.Port = cfg.Redis.Port
		redisCfg.Password = cfg.Redis.Password
		redisCfg.DB = cfg.Redis.DB
		redisCfg.PoolSize = cfg.Redis.PoolSize
		redisCfg.MinIdleConns = cfg.Redis.MinIdleConns
		redisCfg.DialTimeout = cfg.Redis.DialTimeout
		redisCfg.ReadTimeout = cfg.Redis.ReadTimeout
		redisCfg.WriteTimeout = cfg.Redis.WriteTimeout

		redisCache, err = redis.NewCache(redisCfg)
		if err != nil {
			log.Warn("failed to connect to Redis, caching disabled", logger.Err(err))
			redisCache = nil
		} else {
			defer redisCache.Close()
			log.Info("Redis connection established")
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 6. REPOSITORIES
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("initializing repositories...")
	var learnerRepo learner.Repository = postgres.NewLearnerRepository(dbConn)
	mentorRepo := postgres.NewMentorRepository(dbConn)

	var profileCache *redis.ProfileCache
	if redisCache != nil {
		profileCache = redis.NewProfileCache(redisCache)
		learnerRepo = redis.NewCachedLearnerRepository(learnerRepo, profileCache, log)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 7. EVENT BUS
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("initializing event bus...")
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
	defer func() {
		log.Info("closing event bus...")
		_ = bus.Close()
	}()

	// ─────────────────────────────────────────────────────────────────────────
	// 8. EXTERNAL CLIENTS
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("initializing external clients...")

	catalogCfg := catalog.DefaultClientConfig(cfg.Catalog.BaseURL)
	catalogCfg.APIKey = cfg.Catalog.APIKey
	catalogCfg.Timeout = cfg.Catalog.RequestTimeout
	catalogCfg.CacheTTL = cfg.Catalog.CacheTTL
	catalogCfg.Logger = log
	catalogClient := catalog.NewClient(catalogCfg)

	notifierCfg := notifier.DefaultClientConfig(cfg.Notifier.BaseURL)
	notifierCfg.APIKey = cfg.Notifier.APIKey
	notifierCfg.Timeout = cfg.Notifier.RequestTimeout
	notifierCfg.DeferQuietHours = cfg.Notifier.RespectQuietHours
	notifierCfg.Logger = log
	notifierClient := notifier.NewClient(notifierCfg)

	// ─────────────────────────────────────────────────────────────────────────
	// 9. APPLICATION LAYER
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("initializing application layer...")

	mirrorWriter := mirror.NewWriter(learnerRepo, log)

	registerLearnerCmd := command.NewRegisterLearnerHandler(learnerRepo)
	registerMentorCmd := command.NewRegisterMentorHandler(mentorRepo)
	updatePrefsCmd := command.NewUpdatePreferencesHandler(learnerRepo, catalogClient, bus)
	createPeerCmd := command.NewCreatePeerRequestHandler(learnerRepo, catalogClient, mirrorWriter, bus)
	respondPeerCmd := command.NewRespondPeerRequestHandler(learnerRepo, mirrorWriter, bus)
	createOfficialCmd := command.NewCreateOfficialRequestHandler(learnerRepo, mentorRepo, bus)
	respondOfficialCmd := command.NewRespondOfficialRequestHandler(learnerRepo, mentorRepo, bus)
	endRelationshipCmd := command.NewEndRelationshipHandler(learnerRepo, mirrorWriter, bus)
	removeMenteeCmd := command.NewRemoveMenteeHandler(learnerRepo, mentorRepo, bus)
	rateEdgeCmd := command.NewRateEdgeHandler(learnerRepo, bus)

	findMentorsQuery := query.NewFindMentorsHandler(learnerRepo, catalogClient)
	getLedgerQuery := query.NewGetLedgerHandler(learnerRepo, mentorRepo)
	getMenteesQuery := query.NewGetMenteesHandler(learnerRepo, mentorRepo)

	// ─────────────────────────────────────────────────────────────────────────
	// 10. EVENT HANDLERS
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("registering event handlers...")

	noticeHandler := eventhandler.NewOnNoticeHandler(learnerRepo, mentorRepo, notifierClient, log)
	if err := noticeHandler.Register(bus); err != nil {
		return fmt.Errorf("failed to register notice handler: %w", err)
	}

	if profileCache != nil {
		cacheHandler := eventhandler.NewOnProfileUpdatedHandler(profileCache, log)
		if err := cacheHandler.Register(bus); err != nil {
			return fmt.Errorf("failed to register cache handler: %w", err)
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 11. HTTP SERVER
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("initializing HTTP server...")

	httpCfg := httpserver.DefaultConfig()
	httpCfg.Host = cfg.HTTP.Host
	httpCfg.Port = cfg.HTTP.Port
	httpCfg.ReadTimeout = cfg.HTTP.ReadTimeout
	httpCfg.WriteTimeout = cfg.HTTP.WriteTimeout
	httpCfg.IdleTimeout = cfg.HTTP.IdleTimeout
	httpCfg.EnableCORS = cfg.HTTP.EnableCORS
	httpCfg.AllowedOrigins = cfg.HTTP.AllowedOrigins
	httpCfg.RateLimitPerMinute = cfg.HTTP.RateLimitPerMinute

	httpDeps := httpserver.Dependencies{
		RegisterLearnerHandler:        registerLearnerCmd,
		RegisterMentorHandler:         registerMentorCmd,
		UpdatePreferencesHandler:      updatePrefsCmd,
		CreatePeerRequestHandler:      createPeerCmd,
		RespondPeerRequestHandler:     respondPeerCmd,
		CreateOfficialRequestHandler:  createOfficialCmd,
		RespondOfficialRequestHandler: respondOfficialCmd,
		EndRelationshipHandler:        endRelationshipCmd,
		RemoveMenteeHandler:           removeMenteeCmd,
		RateEdgeHandler:               rateEdgeCmd,
		FindMentorsHandler:            findMentorsQuery,
		GetLedgerHandler:              getLedgerQuery,
		GetMenteesHandler:             getMenteesQuery,
		Logger:                        log,
		HealthChecker: &healthChecker{
			db:      dbConn,
			cache:   redisCache,
			catalog: catalogClient,
		},
	}

	srv := httpserver.NewServer(httpCfg, httpDeps)

	// ─────────────────────────────────────────────────────────────────────────
	// 12. START & GRACEFUL SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	log.Info("Mentorship Hub API is running",
		logger.String("address", httpCfg.Address()))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	select {
	case sig := <-sigCh:
		log.Info("received shutdown signal", logger.String("signal", sig.String()))
	case err := <-errCh:
		log.Error("service error", logger.Err(err))
		return err
	}

	log.Info("starting graceful shutdown...",
		logger.Duration("timeout", cfg.App.ShutdownTimeout))

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("failed to stop HTTP server gracefully", logger.Err(err))
		return err
	}

	log.Info("shutdown completed successfully")
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// HEALTH CHECKER
// ══════════════════════════════════════════════════════════════════════════════

// healthChecker assembles a health report from the backing services.
// Redis and the catalog are degradations, not outages: only the
// database makes the service unhealthy.
type healthChecker struct {
	db      *postgres.Connection
	cache   *redis.Cache
	catalog *catalog.Client
}

func (h *healthChecker) Check(ctx context.Context) httpserver.HealthStatus {
	status := httpserver.HealthStatus{
		Healthy: true,
		Checks:  make(map[string]string),
	}

	if err := h.db.Ping(ctx); err != nil {
		status.Healthy = false
		status.Checks["postgres"] = err.Error()
		status.Message = "database unreachable"
	} else {
		status.Checks["postgres"] = "ok"
	}

	if h.cache != nil {
		if err := h.cache.Ping(ctx); err != nil {
			status.Checks["redis"] = err.Error()
		} else {
			status.Checks["redis"] = "ok"
		}
	}

	if h.catalog.IsHealthy(ctx) {
		status.Checks["catalog"] = "ok"
	} else {
		status.Checks["catalog"] = "unreachable"
	}

	return status
}
