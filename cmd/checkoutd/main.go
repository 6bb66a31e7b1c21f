package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nikolayk812/cart-checkout/internal/cache"
	"github.com/nikolayk812/cart-checkout/internal/client"
	"github.com/nikolayk812/cart-checkout/internal/config"
	"github.com/nikolayk812/cart-checkout/internal/httpapi"
	"github.com/nikolayk812/cart-checkout/internal/port"
	"github.com/nikolayk812/cart-checkout/internal/repository"
	"github.com/nikolayk812/cart-checkout/internal/service"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var repo port.CartRepository
	if cfg.DatabaseURL != "" {
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Fatal("failed to create postgres pool", zap.Error(err))
		}
		defer pool.Close()

		if err := pool.Ping(ctx); err != nil {
			logger.Fatal("failed to ping postgres", zap.Error(err))
		}
		repo = repository.NewCart(pool)
	} else {
		logger.Warn("DATABASE_URL is empty, carts are kept in memory")
		repo = repository.NewMemoryCart()
	}

	storefront := client.New(client.Config{
		BaseURL:         cfg.StorefrontAPIURL,
		Timeout:         cfg.RequestTimeout,
		BreakerTimeout:  cfg.BreakerTimeout,
		BreakerFailures: cfg.BreakerFailures,
	}, logger.Named("storefront"))

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer redisClient.Close()

	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Warn("redis unavailable, catalog reads go to the storefront", zap.Error(err))
	}
	catalog := cache.NewCatalogCache(redisClient, storefront, cfg.CatalogCacheTTL, logger.Named("catalog_cache"))

	svc := service.NewCheckoutService(repo, service.Collaborators{
		Catalog:  catalog,
		Stock:    storefront,
		Coupons:  storefront,
		Delivery: storefront,
		Address:  storefront,
	}, cfg.Currency, logger)

	cartHandler := httpapi.NewCartHandler(svc, logger.Named("http"))
	catalogHandler := httpapi.NewCatalogHandler(catalog, logger.Named("http"))

	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      httpapi.NewRouter(cartHandler, catalogHandler, cfg.RequestTimeout, logger.Named("http")),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("checkout service started",
			zap.String("addr", cfg.HTTPAddr),
			zap.String("currency", cfg.Currency.String()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
		os.Exit(1)
	}

	logger.Info("server exited")
}
