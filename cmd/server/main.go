package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/kickoff/storefront-api/internal/api"
	"github.com/kickoff/storefront-api/internal/core/ports"
	"github.com/kickoff/storefront-api/internal/core/service"
	"github.com/kickoff/storefront-api/internal/infrastructure/config"
	mongostore "github.com/kickoff/storefront-api/internal/infrastructure/db/mongo"
	redisstore "github.com/kickoff/storefront-api/internal/infrastructure/db/redis"
	"github.com/kickoff/storefront-api/internal/infrastructure/email"
	"github.com/kickoff/storefront-api/internal/infrastructure/queue"
	"github.com/kickoff/storefront-api/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// .env is optional; real environments configure via the process env.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fallback := logger.Init(logger.Options{})
		fallback.Fatal().Err(err).Msg("configuration failed")
	}

	log := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: cfg.Env == "development",
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	mongoClient, db, err := mongostore.Connect(ctx, mongostore.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("mongo connection failed")
	}
	defer func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = mongoClient.Disconnect(disconnectCtx)
	}()

	if err := mongostore.EnsureIndexes(ctx, db); err != nil {
		log.Fatal().Err(err).Msg("index creation failed")
	}

	rdb, err := redisstore.Connect(ctx, redisstore.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("redis connection failed")
	}
	defer rdb.Close()

	var delivery ports.OTPDelivery
	smtpCfg := email.Config{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
		From:     cfg.SMTP.From,
	}
	if smtpCfg.Configured() {
		delivery = email.NewSMTPSender(smtpCfg)
	} else {
		log.Warn().Msg("smtp unconfigured, otp codes will not be delivered")
		delivery = email.NewLogSender(log)
	}

	auditWriter := queue.NewAuditWriter(mongostore.NewAuditRepository(db), log)
	auditWriter.Start(ctx)

	e := api.NewRouter(db, rdb, delivery, auditWriter, service.Config{
		JWTSecret:        cfg.JWTSecret,
		TokenTTL:         cfg.Auth.TokenTTL,
		LockoutThreshold: cfg.Auth.LockoutThreshold,
		LockoutDuration:  cfg.Auth.LockoutDuration,
		OTPLength:        cfg.Auth.OTPLength,
		OTPTTL:           cfg.Auth.OTPTTL,
		OTPMaxAttempts:   cfg.Auth.OTPMaxAttempts,
		BcryptCost:       cfg.Auth.BcryptCost,
		DeliveryTimeout:  cfg.Auth.DeliveryTimeout,
	}, log)

	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server stopped")
		}
	}()
	log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("server started")

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown failed")
	}
}
