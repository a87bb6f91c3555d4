package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/rl1809/retail-ops/internal/adapter/handler"
	"github.com/rl1809/retail-ops/internal/adapter/storage"
	"github.com/rl1809/retail-ops/internal/cli"
	"github.com/rl1809/retail-ops/internal/config"
	"github.com/rl1809/retail-ops/internal/core/domain"
	"github.com/rl1809/retail-ops/internal/core/geo"
	"github.com/rl1809/retail-ops/internal/core/service"
	"github.com/rl1809/retail-ops/internal/scheduler"
	"github.com/rl1809/retail-ops/pkg/logger"
)

func main() {
	cfg, err := config.Load(os.Getenv("RETAILCORE_ENV_FILE"))
	if err != nil {
		panic(err)
	}

	log := logger.Must(logger.New(cfg.Log.Level))
	defer log.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Database.Driver == config.DriverSQLite && cfg.Database.DSN != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(cfg.Database.DSN), 0o755); err != nil {
			log.Fatal("failed to create database directory", zap.Error(err))
		}
	}

	// Initialize the store
	store, err := cli.OpenStore(ctx, cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		log.Fatal("failed to open store", zap.String("driver", cfg.Database.Driver), zap.Error(err))
	}
	log.Info("connected to store", zap.String("driver", store.Driver()))

	if cfg.Database.LoadOnStart {
		if err := store.LoadDemoData(ctx, cfg.Database.DataDir); err != nil {
			log.Fatal("failed to load demo data", zap.String("data_dir", cfg.Database.DataDir), zap.Error(err))
		}
		log.Info("loaded demo data", zap.String("data_dir", cfg.Database.DataDir))
	}

	// Static location and product catalogs are built once
	locations, err := store.Locations(ctx)
	if err != nil {
		log.Fatal("failed to read locations", zap.Error(err))
	}
	products, err := store.Products(ctx)
	if err != nil {
		log.Fatal("failed to read products", zap.Error(err))
	}
	catalog := domain.NewCatalog(products)
	index := geo.NewIndex(locations)
	log.Info("catalogs ready", zap.Int("locations", index.Len()), zap.Int("products", catalog.Len()))

	opts := []service.Option{
		service.WithLogger(logger.Named(log, "gateway")),
		service.WithTokenTTL(cfg.Confirm.TokenTTL),
	}

	// Optional shared SKU set in Redis
	var rdb *redis.Client
	if cfg.Redis.Addr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			PoolSize: 100,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Fatal("failed to connect redis", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
		}
		redisCatalog := storage.NewRedisCatalog(rdb)
		if err := redisCatalog.Publish(ctx, catalog.SKUs()); err != nil {
			log.Fatal("failed to publish catalog", zap.Error(err))
		}
		opts = append(opts, service.WithCatalogProvider(redisCatalog))
		log.Info("connected to redis", zap.String("addr", cfg.Redis.Addr))
	}

	gateway := service.NewGateway(store, catalog, index, opts...)

	// Reorder report
	sched := scheduler.NewScheduler(cfg.Scheduler.ReorderCron, gateway, logger.Named(log, "scheduler"))
	if err := sched.Start(); err != nil {
		log.Fatal("failed to start scheduler", zap.Error(err))
	}

	// Start gRPC server
	grpcServer := handler.NewGRPCServer(handler.NewGRPCHandler(gateway, logger.Named(log, "grpc")), logger.Named(log, "grpc"))
	lis, err := net.Listen("tcp", cfg.Server.GRPCAddr)
	if err != nil {
		log.Fatal("failed to listen", zap.String("addr", cfg.Server.GRPCAddr), zap.Error(err))
	}

	go func() {
		log.Info("gRPC server listening", zap.String("addr", cfg.Server.GRPCAddr))
		if err := grpcServer.Serve(lis); err != nil {
			log.Error("gRPC server error", zap.Error(err))
		}
	}()

	// Start HTTP server
	router := handler.NewRouter(handler.NewHTTPHandler(gateway, logger.Named(log, "http")), logger.Named(log, "http"))
	httpServer := &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("HTTP server listening", zap.String("addr", cfg.Server.HTTPAddr))
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server error", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Warn("HTTP shutdown incomplete", zap.Error(err))
	}
	log.Info("HTTP server stopped")

	grpcServer.GracefulStop()
	log.Info("gRPC server stopped")

	sched.Stop()

	if rdb != nil {
		rdb.Close()
	}
	store.Close()
	log.Info("connections closed")
}
