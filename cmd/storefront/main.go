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

	"github.com/gin-gonic/gin"
	"github.com/manalamro/chippy/internal/config"
	httpDelivery "github.com/manalamro/chippy/internal/delivery/http"
	"github.com/manalamro/chippy/internal/messaging"
	"github.com/manalamro/chippy/internal/messaging/kafka"
	"github.com/manalamro/chippy/internal/payment"
	"github.com/manalamro/chippy/internal/repository"
	"github.com/manalamro/chippy/internal/repository/memory"
	"github.com/manalamro/chippy/internal/repository/postgres"
	"github.com/manalamro/chippy/internal/repository/redis"
	"github.com/manalamro/chippy/internal/service"
)

func main() {
	if err := run(); err != nil {
		slog.Error("Storefront stopped", "err", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.Level()})))
	if cfg.Level() > slog.LevelDebug {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// --- Store ---
	var store repository.UnitOfWork
	switch cfg.StoreDriver {
	case config.DriverMemory:
		slog.Warn("Using in-memory store, data is lost on restart")
		store = memory.NewStore()
	default:
		db, err := postgres.InitDB(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("failed to init database: %w", err)
		}
		defer db.Close()
		store = postgres.NewStore(db)
	}

	// --- Guest carts ---
	var guestStore repository.GuestCartStore
	if cfg.RedisAddr != "" {
		client, err := redis.Connect(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return fmt.Errorf("failed to connect to redis at %s: %w", cfg.RedisAddr, err)
		}
		defer client.Close()
		guestStore = redis.NewGuestCartStore(client)
	} else {
		slog.Warn("REDIS_ADDR not set, guest carts are kept in process")
		guestStore = memory.NewGuestCartStore()
	}

	// --- Kafka ---
	var publisher messaging.Publisher = messaging.NopPublisher{}
	if len(cfg.KafkaBrokers) > 0 {
		kp := kafka.NewPublisher(cfg.KafkaBrokers)
		defer kp.Close()
		publisher = kp
	} else {
		slog.Warn("KAFKA_BROKERS not set, order events are not published")
	}

	// --- Services ---
	products := service.NewProductService(store)
	if cfg.SeedProducts {
		if err := products.SeedProducts(ctx); err != nil {
			return fmt.Errorf("failed to seed products: %w", err)
		}
	}
	carts := service.NewCartService(store)
	guests := service.NewGuestCartService(store, guestStore, cfg.GuestCartTTL)
	handler := httpDelivery.NewHandler(
		products,
		carts,
		guests,
		service.NewMergeService(carts, guests),
		service.NewAddressService(store),
		service.NewOrderService(store, payment.NewMockGateway(), publisher),
	)

	// --- HTTP API ---
	httpServer := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: httpDelivery.NewRouter(handler, httpDelivery.NewAuthenticator(cfg.JWTSecret), cfg.CORSOrigins),
	}

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("HTTP server starting", "port", cfg.Port, "store", cfg.StoreDriver)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
	}
	slog.Info("Shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	return nil
}
