package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/ezienecker/discogs-ctl/internal/cache"
	"github.com/ezienecker/discogs-ctl/internal/config"
	"github.com/ezienecker/discogs-ctl/internal/discogs"
	"github.com/ezienecker/discogs-ctl/internal/handler"
	"github.com/ezienecker/discogs-ctl/internal/logger"
	"github.com/ezienecker/discogs-ctl/internal/repository"
	"github.com/ezienecker/discogs-ctl/internal/router"
	"github.com/ezienecker/discogs-ctl/internal/service"
)

func main() {
	cfg := config.MustLoad()

	log := logger.New(cfg.App.Environment)
	defer log.Sync()

	log.Info("starting",
		zap.String("app", cfg.App.Name),
		zap.String("version", cfg.App.Version),
		zap.String("env", cfg.App.Environment),
	)

	ctx := context.Background()

	db, err := repository.Open(ctx, cfg.Store.Driver, cfg.Store.DSN, log)
	if err != nil {
		log.Fatal("failed to open cache store", zap.Error(err))
	}
	defer db.Close()

	checks := map[string]handler.Pinger{"store": db}

	var marketplaceStore repository.MarketplaceStore
	switch cfg.Marketplace.CacheType {
	case "redis":
		rc, err := cache.NewRedisCache(ctx, cache.RedisConfig{
			Addr:      cfg.Redis.Address(),
			Password:  cfg.Redis.Password,
			DB:        cfg.Redis.DB,
			KeyPrefix: cfg.Redis.KeyPrefix,
		}, log)
		if err != nil {
			log.Fatal("failed to initialize redis marketplace cache", zap.Error(err))
		}
		defer rc.Close()
		checks["redis"] = handler.PingFunc(rc.Ping)
		marketplaceStore = repository.NewKVMarketplaceStore(rc, cfg.TTL.Marketplace, nil, log)
	case "memory":
		mc := cache.NewMemoryCache(nil, time.Minute)
		defer mc.Close()
		marketplaceStore = repository.NewKVMarketplaceStore(mc, cfg.TTL.Marketplace, nil, log)
	default:
		marketplaceStore = repository.NewSQLMarketplaceStore(db, cfg.TTL.Marketplace, nil, log)
	}
	log.Info("marketplace cache initialized", zap.String("type", cfg.Marketplace.CacheType))

	client, err := discogs.NewClient(discogs.Options{
		APIURL:    cfg.Discogs.APIURL,
		WebURL:    cfg.Discogs.WebURL,
		Token:     cfg.Discogs.Token,
		UserAgent: cfg.Discogs.UserAgent,
		Timeout:   cfg.Discogs.Timeout,
	})
	if err != nil {
		log.Fatal("failed to create discogs client", zap.Error(err))
	}
	if cfg.Discogs.Token == "" {
		log.Warn("DISCOGS_TOKEN not set, private inventories will be denied")
	}

	stores := service.Stores{
		Collection:  repository.NewCollectionStore(db, cfg.TTL.Collection, nil, log),
		Shop:        repository.NewShopStore(db, cfg.TTL.Shop, nil, log),
		Wantlist:    repository.NewWantlistStore(db, cfg.TTL.Wantlist, nil, log),
		Marketplace: marketplaceStore,
	}

	inventory := service.NewInventory(client, stores, service.Config{
		PerPage: cfg.Discogs.PerPage,
		Marketplace: service.EnricherConfig{
			BatchSize:   cfg.Marketplace.BatchSize,
			Concurrency: cfg.Marketplace.Concurrency,
			SellerLimit: cfg.Marketplace.SellerLimit,
		},
	}, log)

	sweeper := service.NewSweepScheduler([]service.SweepTarget{
		{Name: service.KindCollection, Sweeper: stores.Collection},
		{Name: service.KindShop, Sweeper: stores.Shop},
		{Name: service.KindWantlist, Sweeper: stores.Wantlist},
		{Name: "marketplace", Sweeper: stores.Marketplace},
	}, service.SweepConfig{
		Interval:     cfg.Sweep.Interval,
		InitialDelay: cfg.Sweep.InitialDelay,
	}, log)
	sweeper.Start()
	defer sweeper.Stop()

	r := router.New(router.Config{
		Handler:          handler.New(cfg.App.Version, checks),
		InventoryHandler: handler.NewInventoryHandler(inventory, cfg.Discogs.Username),
		AdminHandler:     handler.NewAdminHandler(sweeper, db, cfg.Marketplace.CacheType),
		Logger:           log,
	})

	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info("server listening", zap.String("addr", cfg.Server.Address()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown error", zap.Error(err))
	}

	log.Info("server stopped")
}
