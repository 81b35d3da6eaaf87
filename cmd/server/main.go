package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/avdeyev/parish-ledger/internal/config"
	"github.com/avdeyev/parish-ledger/internal/domain/contributions"
	"github.com/avdeyev/parish-ledger/internal/domain/inventory"
	"github.com/avdeyev/parish-ledger/internal/infra/db"
	httpx "github.com/avdeyev/parish-ledger/internal/infra/http"
	"github.com/avdeyev/parish-ledger/internal/infra/logger"
	"github.com/avdeyev/parish-ledger/internal/infra/notify"
	"github.com/avdeyev/parish-ledger/internal/report"
	"github.com/avdeyev/parish-ledger/internal/sequence"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/robfig/cron/v3"
)

func runMigrations(dsn string) error {
	sqlDB, err := goose.OpenDBWithDriver("pgx", dsn)
	if err != nil {
		return err
	}
	defer func() { _ = sqlDB.Close() }()
	return goose.Up(sqlDB, "migrations")
}

// The admin application calls the domain repos and services directly;
// this process only serves the read-only views and the scheduled
// low-stock alert.
func main() {
	cfg, err := config.Load("config/example.yaml")
	if err != nil {
		panic(err)
	}

	log := logger.New(cfg.App.Env)

	if err := runMigrations(cfg.Postgres.DSN); err != nil {
		log.Error("migrations failed", "err", err)
		return
	}
	log.Info("migrations applied")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.Connect(ctx, cfg.Postgres.DSN)
	if err != nil {
		log.Error("db connect failed", "err", err)
		return
	}
	defer pool.Close()
	log.Info("db connected")

	seq := sequence.NewRepo(pool)
	invRepo := inventory.NewRepo(pool, seq)
	contribRepo := contributions.NewRepo(pool)
	reports := report.NewService(invRepo, contribRepo)

	var sched *cron.Cron
	if cfg.Telegram.Token != "" {
		tg, err := notify.NewTelegram(cfg.Telegram.Token, cfg.Telegram.AdminChatID, log)
		if err != nil {
			log.Error("telegram init failed", "err", err)
			return
		}
		sched = cron.New()
		if _, err := sched.AddFunc(cfg.LowStock.Schedule, func() {
			items, err := invRepo.ListLowStock(context.Background())
			if err != nil {
				log.Warn("low-stock sweep failed", "err", err)
				return
			}
			tg.LowStock(items)
		}); err != nil {
			log.Error("cron schedule invalid", "spec", cfg.LowStock.Schedule, "err", err)
			return
		}
		sched.Start()
		log.Info("low-stock sweep scheduled", "spec", cfg.LowStock.Schedule)
	}

	srv := httpx.New(cfg.HTTP.Addr, cfg.Metrics.Enabled, invRepo, reports)
	go func() {
		if err := srv.Start(); err != nil && err.Error() != "http: Server closed" {
			log.Error("http server error", "err", err)
		}
	}()
	log.Info("HTTP server started", "addr", cfg.HTTP.Addr)

	<-ctx.Done()
	if sched != nil {
		sched.Stop()
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	log.Info("graceful shutdown complete")
}
