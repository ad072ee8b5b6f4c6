package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Cheertaboi/offer-engine/internal/api"
	"github.com/Cheertaboi/offer-engine/internal/cache"
	"github.com/Cheertaboi/offer-engine/internal/config"
	"github.com/Cheertaboi/offer-engine/internal/repository"
	"github.com/Cheertaboi/offer-engine/internal/service"
	"github.com/Cheertaboi/offer-engine/pkg/db"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", slog.Any("error", err))
		os.Exit(1)
	}
	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// load DB config from env
	dbCfg, err := db.LoadPostgresConfig()
	if err != nil {
		log.Error("load db config", slog.Any("error", err))
		os.Exit(1)
	}
	conn, err := db.NewPostgresConnection(ctx, dbCfg)
	if err != nil {
		log.Error("db connect", slog.Any("error", err))
		os.Exit(1)
	}
	defer conn.Close()

	var offerCache cache.OfferSetCache = cache.NewMemoryCache(cfg.CacheTTL)
	if cfg.RedisAddr != "" {
		rc := cache.NewRedisCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.CacheTTL)
		defer rc.Close()
		if err := rc.Ping(ctx); err != nil {
			log.Warn("redis unavailable, offers cached in memory", slog.String("addr", cfg.RedisAddr), slog.Any("error", err))
		} else {
			offerCache = rc
		}
	}

	svc := service.NewOfferService(service.Deps{
		DB:              conn,
		Offers:          repository.NewOfferRepo(conn),
		Ranges:          repository.NewRangeRepo(conn),
		Products:        repository.NewProductRepo(conn),
		Vouchers:        repository.NewVoucherRepo(conn),
		Usage:           repository.NewUsageRepo(conn),
		Cache:           offerCache,
		Logger:          log,
		InclTax:         cfg.InclTax,
		Workers:         cfg.BatchWorkers,
		DefaultShipping: cfg.DefaultShipping,
	})

	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      api.NewRouter(svc, log),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// graceful shutdown
	idleConnsClosed := make(chan struct{})
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("http server shutdown", slog.Any("error", err))
		}
		close(idleConnsClosed)
	}()

	log.Info("starting offer-service", slog.String("addr", cfg.HTTPAddr), slog.Bool("incl_tax", cfg.InclTax))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("listen", slog.Any("error", err))
		os.Exit(1)
	}

	<-idleConnsClosed
	log.Info("server stopped")
}
