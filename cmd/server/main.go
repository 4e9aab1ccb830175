package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rewarddesk/coupon-service/internal/api"
	"github.com/rewarddesk/coupon-service/internal/core/domain"
	"github.com/rewarddesk/coupon-service/internal/core/service"
	"github.com/rewarddesk/coupon-service/internal/infrastructure/config"
	mongodb "github.com/rewarddesk/coupon-service/internal/infrastructure/db/mongo"
	redisdb "github.com/rewarddesk/coupon-service/internal/infrastructure/db/redis"
	"github.com/rewarddesk/coupon-service/internal/infrastructure/queue"
	"github.com/rewarddesk/coupon-service/internal/infrastructure/reward"
	"github.com/rewarddesk/coupon-service/internal/infrastructure/scheduler"
	"github.com/rewarddesk/coupon-service/pkg/logger"
)

const shutdownTimeout = 30 * time.Second

func main() {
	cfg := config.Load()

	log := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: cfg.Env == "development",
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Storage ---
	mongoClient, db, err := mongodb.Connect(ctx, mongodb.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("mongo connection failed")
	}
	defer func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = mongoClient.Disconnect(disconnectCtx)
	}()

	rdb, err := redisdb.Connect(ctx, redisdb.Config{
		Addr: cfg.Redis.Addr,
		DB:   cfg.Redis.DB,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("redis connection failed")
	}
	defer rdb.Close()

	entitlementRepo := mongodb.NewEntitlementRepository(db)
	activityRepo := mongodb.NewActivityRepository(db)
	authRepo := mongodb.NewAuthRepository(db)

	for name, ensure := range map[string]func(context.Context) error{
		"entitlements": entitlementRepo.EnsureIndexes,
		"activity":     activityRepo.EnsureIndexes,
		"clients":      authRepo.EnsureIndexes,
	} {
		if err := ensure(ctx); err != nil {
			log.Fatal().Err(err).Str("collection", name).Msg("index creation failed")
		}
	}

	// --- Background workers ---
	dispatcher := queue.NewActivityDispatcher(cfg.Activity.Workers, activityRepo, logger.Component("activity"))
	dispatcher.Start(ctx)

	// --- Services ---
	policy := domain.NewQuotaPolicy(
		cfg.Quota.NormalMax,
		cfg.Quota.PriorityMax,
		cfg.Quota.PriorityIDs,
		cfg.Quota.BannedIDs,
	)

	rewardClient := reward.NewClient(reward.Config{
		URL:             cfg.Reward.URL,
		GameID:          cfg.Reward.GameID,
		EventID:         cfg.Reward.EventID,
		Timeout:         cfg.Reward.Timeout,
		DefaultCampaign: cfg.Reward.DefaultCampaign,
	}, logger.Component("reward"))

	redemptionService := service.NewRedemptionService(entitlementRepo, rewardClient, dispatcher, policy, log)
	adminService := service.NewAdminService(entitlementRepo, activityRepo, log)
	authService := service.NewAuthService(authRepo, cfg.JWTSecret, 24*time.Hour)

	if cfg.BootstrapAdminSecret != "" {
		if _, err := authService.Register(ctx, "admin", cfg.BootstrapAdminSecret, domain.RoleAdmin); err != nil {
			if !errors.Is(err, domain.ErrClientExists) {
				log.Fatal().Err(err).Msg("admin bootstrap failed")
			}
		} else {
			log.Info().Msg("bootstrap admin client created")
		}
	}

	// --- Daily reset ---
	loc, err := time.LoadLocation(cfg.Reset.Timezone)
	if err != nil {
		log.Fatal().Err(err).Str("timezone", cfg.Reset.Timezone).Msg("invalid reset timezone")
	}
	resetScheduler := scheduler.NewResetScheduler(entitlementRepo, cfg.Reset.Hour, cfg.Reset.Minute, loc, logger.Component("scheduler"))
	resetScheduler.Start()
	defer resetScheduler.Stop()

	// --- HTTP ---
	e := api.NewRouter(api.RouterDeps{
		DB:         db,
		Redis:      rdb,
		Redemption: redemptionService,
		Admin:      adminService,
		Auth:       authService,
		Dedup:      redisdb.NewDeliveryDedup(rdb),
		JWTSecret:  cfg.JWTSecret,
		Log:        log,
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      e,
		ReadTimeout: 15 * time.Second,
		// A priority claim performs up to PriorityMax sequential upstream
		// calls, so the write timeout has to cover the whole batch.
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("forced shutdown")
	}

	log.Info().Msg("server stopped")
}
