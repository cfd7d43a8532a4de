package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/hongminglow/sbc-auth/internal/auth"
	"github.com/hongminglow/sbc-auth/internal/config"
	"github.com/hongminglow/sbc-auth/internal/logging"
	"github.com/hongminglow/sbc-auth/internal/models"
	"github.com/hongminglow/sbc-auth/internal/observability"
	"github.com/hongminglow/sbc-auth/internal/server"
	"github.com/hongminglow/sbc-auth/internal/storage"
	"github.com/hongminglow/sbc-auth/internal/storage/memory"
	"github.com/hongminglow/sbc-auth/internal/storage/postgres"
	redisstore "github.com/hongminglow/sbc-auth/internal/storage/redis"
	"github.com/hongminglow/sbc-auth/internal/storage/seed"
)

func main() {
	envLoaded := loadLocalEnv()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.Setup("sbc-auth", cfg.LogFormat, cfg.LogLevel, os.Stdout)
	slog.SetDefault(logger)
	if !envLoaded {
		logger.Info("no .env file found; relying on existing environment")
	}

	ctx := context.Background()
	store, err := openStore(ctx, cfg)
	if err != nil {
		logger.Error("init store", "backend", cfg.StoreBackend, "error", err)
		os.Exit(1)
	}
	defer store.Close()

	if cfg.SeedFile != "" {
		if err := seedAccounts(ctx, cfg, store); err != nil {
			logger.Error("seed accounts", "file", cfg.SeedFile, "error", err)
			os.Exit(1)
		}
		logRoleCounts(ctx, logger, store, cfg.SeedFile)
	}

	var metrics *observability.Metrics
	if cfg.MetricsEnabled {
		metrics = observability.NewMetrics()
	}
	srv := server.New(cfg, store, logger, metrics)

	go func() {
		logger.Info("auth server listening", "addr", cfg.HTTPAddress(), "backend", cfg.StoreBackend)
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			os.Exit(1)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctxShutdown); err != nil {
		logger.Error("graceful shutdown error", "error", err)
	}
}

func openStore(ctx context.Context, cfg config.Config) (storage.UserStore, error) {
	switch cfg.StoreBackend {
	case config.BackendPostgres:
		return postgres.NewUserStore(ctx, cfg.DatabaseURL)
	case config.BackendRedis:
		client, err := redisstore.NewUniversalClient(cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		store := redisstore.NewUserStore(client)
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := store.Ping(pingCtx); err != nil {
			store.Close()
			return nil, err
		}
		return store, nil
	case config.BackendMemory:
		return memory.NewUserStore(), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}

func seedAccounts(ctx context.Context, cfg config.Config, store storage.UserStore) error {
	accounts, err := seed.Load(cfg.SeedFile)
	if err != nil {
		return err
	}
	return seed.Apply(ctx, store, auth.NewBcryptHasher(cfg.BcryptCost), accounts)
}

// logRoleCounts reports how many accounts hold each role after seeding.
func logRoleCounts(ctx context.Context, logger *slog.Logger, store storage.UserStore, file string) {
	attrs := []any{"file", file}
	for _, role := range models.Roles {
		users, err := store.FindByRole(ctx, role)
		if err != nil {
			logger.Warn("count accounts by role", "role", role, "error", err)
			continue
		}
		attrs = append(attrs, role, len(users))
	}
	logger.Info("seed accounts applied", attrs...)
}

func loadLocalEnv() bool {
	return godotenv.Load() == nil
}
