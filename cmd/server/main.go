package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/securepass/vault-api/internal/api"
	"github.com/securepass/vault-api/internal/core/service"
	"github.com/securepass/vault-api/internal/infrastructure/config"
	mongodb "github.com/securepass/vault-api/internal/infrastructure/db/mongo"
	redisdb "github.com/securepass/vault-api/internal/infrastructure/db/redis"
	"github.com/securepass/vault-api/internal/infrastructure/queue"
	"github.com/securepass/vault-api/internal/infrastructure/security"
	"github.com/securepass/vault-api/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}

	log := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: cfg.Env == "development",
	})

	client, db, err := mongodb.Connect(ctx, mongodb.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("mongodb connection failed")
	}
	defer func() { _ = client.Disconnect(context.Background()) }()

	rdb, err := redisdb.Connect(ctx, redisdb.Config{
		Addr: cfg.Redis.Addr,
		DB:   cfg.Redis.DB,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("redis connection failed")
	}
	defer func() { _ = rdb.Close() }()

	users := mongodb.NewUserRepository(db)
	if err := users.EnsureIndexes(ctx); err != nil {
		log.Fatal().Err(err).Msg("index creation failed")
	}

	totp := security.NewProvisioner(cfg.Issuer)
	authService := service.NewAuthService(users, totp, cfg.JWTSecret, cfg.TokenTTL, log)
	vaultService := service.NewVaultService(users, log)

	auditService := service.NewAuditService(mongodb.NewAuditRepository(db), log)
	dispatcher := queue.NewDispatcher(0, auditService, log)
	dispatcher.Start(ctx)

	limiter := redisdb.NewLoginLimiter(rdb, cfg.Limiter.MaxAttempts, cfg.Limiter.Window)

	e := api.NewRouter(api.Deps{
		Auth:      authService,
		Vault:     vaultService,
		Limiter:   limiter,
		Audit:     dispatcher,
		JWTSecret: cfg.JWTSecret,
		Logger:    log,
		Mongo:     db,
		Redis:     rdb,
		Metrics:   true,
	})

	go func() {
		log.Info().Str("port", cfg.Port).Msg("server starting")
		if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server stopped")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}
