package main

import (
	"context"
	"fmt"
	"kusheet-cart/internal/client"
	"kusheet-cart/internal/config"
	"kusheet-cart/internal/logger"
	"kusheet-cart/internal/repository"
	"kusheet-cart/internal/server"
	"kusheet-cart/internal/service"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	// load .env into os.Environ
	if err := godotenv.Load(); err != nil {
		fmt.Println("No .env file found (ok in prod)")
	}

	cfg := &config.Config{}
	if err := env.Parse(cfg); err != nil {
		fmt.Printf("Failed to parse config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(&cfg.Log)
	if err != nil {
		fmt.Printf("Failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	db, err := client.InitDBClient(&cfg.Database)
	if err != nil {
		log.Fatal("init database", zap.Error(err))
	}

	couponRepo := repository.NewCouponRepository(db)
	couponService := service.NewCouponService(couponRepo)
	if cfg.Discount.SeedDemo {
		if err := couponService.Seed(ctx); err != nil {
			log.Warn("seed coupons", zap.Error(err))
		}
	}

	var rdb *redis.Client
	if cfg.Storage.Driver == "redis" {
		rdb, err = client.InitRedisClient(ctx, &cfg.Redis)
		if err != nil {
			log.Fatal("init redis", zap.Error(err))
		}
		defer rdb.Close()
	}

	var storageRepo repository.StorageRepository
	var identityBus service.IdentityBus
	switch cfg.Storage.Driver {
	case "redis":
		storageRepo = repository.NewRedisStorageRepository(rdb, cfg.Redis.Prefix)
		identityBus, err = service.NewRedisIdentityBus(ctx, rdb, cfg.Redis.Prefix, log)
		if err != nil {
			log.Fatal("init identity bus", zap.Error(err))
		}
	case "memory":
		storageRepo = repository.NewMemoryStorageRepository()
		identityBus = service.NewMemoryIdentityBus()
	default:
		storageRepo = repository.NewStorageRepository(db)
		identityBus = service.NewMemoryIdentityBus()
	}
	defer identityBus.Close()

	discountClient := client.NewDiscountClient(&cfg.Discount)
	sessions := service.NewSessionManager(
		storageRepo,
		discountClient,
		identityBus,
		service.NewJWTVerifier(cfg.Auth.JWTSecret),
		log,
		&cfg.Session,
	)
	defer sessions.Close()
	go sessions.Run(ctx)

	serverAddr := cfg.HTTP.Host + ":" + cfg.HTTP.Port

	// Init HTTP server
	srv := server.NewServer(sessions, couponService)

	log.Info("starting HTTP server",
		zap.String("addr", serverAddr),
		zap.String("environment", cfg.Environment.Name),
		zap.String("storage", cfg.Storage.Driver),
	)
	go func() {
		if err := srv.Start(serverAddr); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("signal received, starting graceful shutdown")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error", zap.Error(err))
	}
}
