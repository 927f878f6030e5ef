package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"investx/config"
	"investx/internal/database"
	"investx/internal/logger"
	"investx/internal/repository"
	"investx/internal/router"
	"investx/internal/scheduler"
	"investx/internal/service"
	"investx/internal/ws"
	"investx/pkg/cloudinary"
)

func main() {
	cfg := config.Load()
	logger.Init(cfg.Log.Level, cfg.Log.Format)

	if cfg.Server.Env == "production" && cfg.JWT.AccessSecret == "change-me-in-production" {
		logger.Fatal().Msg("JWT_ACCESS_SECRET must be set in production")
	}

	db, err := database.NewDB(&cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Str("driver", cfg.Database.Driver).Msg("database")
	}
	if err := database.AutoMigrate(db); err != nil {
		logger.Fatal().Err(err).Msg("migrate")
	}
	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal().Err(err).Msg("database handle")
	}

	ctx := context.Background()
	loc := businessLocation(cfg.Business.Timezone)

	// Repositories
	store := repository.NewGormStore(db)
	settingRepo := repository.NewSettingRepository(db)
	auditRepo := repository.NewAuditLogRepository(db)
	adminUserRepo := repository.NewAdminUserRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	adminRepo := repository.NewAdminRepository(db)

	var uploader service.ProofUploader
	if cfg.Cloudinary.CloudName != "" {
		cloud, err := cloudinary.NewClientFromParams(cfg.Cloudinary.CloudName, cfg.Cloudinary.APIKey, cfg.Cloudinary.APISecret)
		if err != nil {
			logger.Fatal().Err(err).Msg("cloudinary")
		}
		uploader = cloud
		logger.Info().Str("folder", cfg.Cloudinary.Folder).Msg("payment proof uploads enabled")
	} else {
		logger.Info().Msg("payment proof uploads disabled: set CLOUDINARY_CLOUD_NAME to enable")
	}

	var pusher service.Pusher
	if fcm := service.NewFCMService(ctx, cfg.Firebase.ServiceAccountPath); fcm != nil {
		pusher = fcm
		logger.Info().Msg("push notifications enabled")
	} else if cfg.Firebase.ServiceAccountPath != "" {
		logger.Warn().Msg("push notifications disabled: failed to init (check service account file)")
	} else {
		logger.Info().Msg("push notifications disabled: set FIREBASE_SERVICE_ACCOUNT_PATH to enable")
	}

	// Services
	hub := ws.NewHub()
	audit := service.NewAuditService(auditRepo)
	policy := service.NewPolicyService(settingRepo, cfg.Policy)
	notifications := service.NewNotificationService(notificationRepo, store.Accounts(), pusher)
	ledger := service.NewLedgerService(store, policy, service.LedgerOptions{
		Notifier:    notifications,
		Publisher:   hub,
		Uploader:    uploader,
		ProofFolder: cfg.Cloudinary.Folder,
		Location:    loc,
	})
	packages := service.NewPackageService(store, audit)
	adminAuth := service.NewAdminAuthService(&cfg.JWT, adminUserRepo, audit)

	catalog, err := config.LoadPackageSeeds(cfg.Seed.PackagesFile)
	if err != nil {
		logger.Fatal().Err(err).Msg("package seeds")
	}
	if err := database.Seed(ctx, database.Seeds{
		Settings: settingRepo,
		Policy:   policy,
		Packages: packages,
		Admins:   adminAuth,
		Catalog:  catalog,
		Admin:    cfg.Admin,
	}); err != nil {
		logger.Fatal().Err(err).Msg("seed")
	}

	engine, stopLimiters := router.Setup(cfg, router.Services{
		Auth:          service.NewAuthService(&cfg.JWT, store, policy, audit),
		AdminAuth:     adminAuth,
		Admin:         service.NewAdminService(adminRepo, sqlDB),
		Ledger:        ledger,
		Accounts:      service.NewAccountService(store, ledger, policy, cfg.Server.PublicURL),
		Packages:      packages,
		Policy:        policy,
		Audit:         audit,
		Notifications: notifications,
		DB:            sqlDB,
		Hub:           hub,
	})

	var sched *scheduler.Scheduler
	if cfg.Scheduler.Enabled {
		sched, err = scheduler.New(cfg.Scheduler.MaturityCron, ledger)
		if err != nil {
			logger.Fatal().Err(err).Msg("scheduler")
		}
		sched.Start()
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	go func() {
		logger.Info().Str("port", cfg.Server.Port).Str("env", cfg.Server.Env).Str("timezone", loc.String()).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("listen")
		}
	}()
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if sched != nil {
		sched.Stop(shutdownCtx)
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server shutdown")
	}
	stopLimiters()
	if err := sqlDB.Close(); err != nil {
		logger.Error().Err(err).Msg("close database")
	}
	logger.Info().Msg("server stopped")
}

// businessLocation falls back to a fixed UTC+2 zone when tzdata is missing from the image.
func businessLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		logger.Warn().Err(err).Str("timezone", name).Msg("timezone not found, using UTC+2")
		return time.FixedZone("CAT", 2*60*60)
	}
	return loc
}
