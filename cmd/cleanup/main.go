package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/aldergrove/cms-auth/internal/infra/config"
	"github.com/aldergrove/cms-auth/internal/infra/database"
	"github.com/aldergrove/cms-auth/internal/infra/logger"
	postgresrepo "github.com/aldergrove/cms-auth/internal/repository/postgres"
	"github.com/aldergrove/cms-auth/internal/usecase"
)

func main() {
	interval := flag.Duration("interval", 0, "sweep repeatedly at this interval; 0 runs a single sweep")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	zlog, err := logger.New(cfg.App.Env)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer func() {
		_ = zlog.Sync()
	}()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg.Postgres, zlog)
	if err != nil {
		zlog.Fatal("failed to init postgres", zap.Error(err))
	}
	defer pool.Close()

	repos := postgresrepo.NewRepositories(pool)
	cleanup := usecase.NewCleanupService(cfg, repos.Tokens, repos.Logins, zlog)

	if err := sweep(ctx, cleanup); err != nil {
		zlog.Error("sweep failed", zap.Error(err))
		if *interval <= 0 {
			os.Exit(1)
		}
	}
	if *interval <= 0 {
		return
	}

	ticker := time.NewTicker(*interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			zlog.Info("cleanup stopped")
			return
		case <-ticker.C:
			if err := sweep(ctx, cleanup); err != nil {
				zlog.Error("sweep failed", zap.Error(err))
			}
		}
	}
}

func sweep(ctx context.Context, cleanup *usecase.CleanupService) error {
	if _, err := cleanup.DeleteExpiredTokenRecords(ctx); err != nil {
		return err
	}
	if _, err := cleanup.DeleteInactiveLogins(ctx); err != nil {
		return err
	}
	return nil
}
