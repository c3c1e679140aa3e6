package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/hongminglow/mosque-donations/internal/auth"
	"github.com/hongminglow/mosque-donations/internal/config"
	"github.com/hongminglow/mosque-donations/internal/log"
	"github.com/hongminglow/mosque-donations/internal/ratelimit"
	"github.com/hongminglow/mosque-donations/internal/server"
	"github.com/hongminglow/mosque-donations/internal/storage"
	"github.com/hongminglow/mosque-donations/internal/storage/memory"
	"github.com/hongminglow/mosque-donations/internal/storage/postgres"
)

func main() {
	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fatal(log.Discard(), "load config", err)
	}

	logger, err := log.New(log.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	if err != nil {
		fatal(log.Discard(), "init logger", err)
	}
	log.SetDefault(logger)
	if envErr != nil {
		logger.Info("no .env file found; relying on existing environment")
	}

	ctx := context.Background()
	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		fatal(logger, "init database", err)
	}
	defer store.Close()

	limiter := ratelimit.Limiter(ratelimit.NewMemory(cfg.LoginRateLimit, time.Minute))
	if cfg.RedisURL != "" {
		client, err := ratelimit.Connect(ctx, cfg.RedisURL)
		if err != nil {
			fatal(logger, "connect redis", err)
		}
		defer client.Close()
		limiter = ratelimit.NewRedis(client, cfg.LoginRateLimit, time.Minute)
		logger.Info("using redis rate limiter")
	}

	srv := server.New(cfg, server.Deps{
		Store:   store,
		Tokens:  auth.NewTokenManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTTTL),
		Limiter: limiter,
		Logger:  logger,
	})

	go func() {
		logger.Info("mosque donations backend listening", "addr", cfg.HTTPAddress(), "backend", cfg.DataBackend)
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fatal(logger, "http server error", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctxShutdown); err != nil {
		logger.Error("graceful shutdown error", log.FieldError, err.Error())
	}
}

func openStore(ctx context.Context, cfg config.Config, logger *log.Logger) (storage.Store, error) {
	if cfg.DataBackend == config.BackendMemory {
		logger.Warn("using in-memory store; data is lost on restart")
		return memory.NewSeeded(), nil
	}
	return postgres.NewStore(ctx, cfg.DatabaseURL)
}

func fatal(logger *log.Logger, msg string, err error) {
	logger.Error(msg, log.FieldError, err.Error())
	os.Stderr.WriteString(msg + ": " + err.Error() + "\n")
	os.Exit(1)
}
