package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"recipe-matcher/internal/api"
	"recipe-matcher/internal/api/handlers/health"
	"recipe-matcher/internal/api/middleware"
	"recipe-matcher/internal/core/cache"
	"recipe-matcher/internal/core/catalog"
	"recipe-matcher/internal/core/detection"
	"recipe-matcher/internal/core/favorites"
	"recipe-matcher/internal/core/image"
	recipeService "recipe-matcher/internal/core/recipe"
	"recipe-matcher/internal/core/shopping"
	"recipe-matcher/internal/infrastructure/config"
	"recipe-matcher/internal/infrastructure/database"
	"recipe-matcher/internal/pkg/common"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := common.InitLogger(common.LogConfig{Level: cfg.LogLevel, File: cfg.LogFile, Service: cfg.App.Name}); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer common.Sync()

	common.LogInfo("載入設定",
		zap.String("catalog_dir", cfg.Catalog.Dir),
		zap.Bool("detection_enabled", cfg.Detection.Enabled),
		zap.String("detection_model", cfg.Detection.Model),
		zap.String("api_key", config.MaskAPIKey(cfg.Detection.APIKey)),
		zap.String("cache_backend", cfg.Cache.Backend),
		zap.String("database_driver", cfg.Database.Driver),
	)

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// 食譜目錄，SIGHUP 時重新載入
	catalogStore, err := catalog.NewStore(catalog.DirLoader(cfg.Catalog.Dir))
	if err != nil {
		common.LogFatal("Failed to load catalog", zap.Error(err))
	}
	catalogStore.WatchSignals(ctx)

	checks := map[string]health.CheckFunc{}

	// Redis 只在有元件使用時連線
	var redisClient *redis.Client
	if (cfg.Cache.Enabled && cfg.Cache.Backend == "redis") || cfg.Shopping.Backend == "redis" {
		redisClient, err = database.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			common.LogFatal("Failed to connect to Redis", zap.Error(err))
		}
		defer redisClient.Close()
		checks["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	}

	var cacheStore cache.Store
	if cfg.Cache.Enabled {
		switch cfg.Cache.Backend {
		case "redis":
			cacheStore = cache.NewRedisStore(redisClient, "", cfg.Cache.TTL)
		default:
			cacheStore = cache.NewManager(cache.ManagerOptions{
				MaxSize:         cfg.Cache.MaxSize,
				TTL:             cfg.Cache.TTL,
				CleanupInterval: cfg.Cache.CleanupInterval,
			})
		}
		defer cacheStore.Close()
	}

	// 食材辨識
	var (
		detector detection.Detector
		queue    *detection.Queue
	)
	if cfg.Detection.Enabled {
		detector = detection.NewOpenRouterDetector(cfg.Detection)
		queue = detection.NewQueue(cfg.Queue.Workers, cfg.Queue.MaxSize)
		defer queue.Close()
	}
	detectionSvc := detection.NewService(
		image.NewValidator(cfg.Image.MaxSizeBytes, cfg.Image.FetchTimeout),
		detector,
		cacheStore,
		queue,
	)

	// 收藏與瀏覽紀錄
	db, err := database.OpenDB(cfg.Database, cfg.App.Debug, favorites.Models()...)
	if err != nil {
		common.LogFatal("Failed to open database", zap.Error(err))
	}
	defer closeDB(db)
	checks["database"] = func(ctx context.Context) error { return database.PingDB(ctx, db) }
	favoritesRepo := favorites.NewRepository(db, cfg.Database.HistoryLimit)

	var shoppingStore shopping.Store = shopping.NewMemoryStore()
	if cfg.Shopping.Backend == "redis" {
		shoppingStore = shopping.NewRedisStore(redisClient, cfg.Shopping.TTL)
	}

	recipes := recipeService.NewService(catalogStore, cfg.Matching, detectionSvc, favoritesRepo, cfg.Server.DefaultLimit)

	var limiter *middleware.RateLimiter
	if cfg.RateLimit.Enabled {
		limiter = middleware.NewRateLimiter(cfg.RateLimit.Requests, cfg.RateLimit.Window, cfg.RateLimit.Burst)
		limiter.StartCleanup()
		defer limiter.Stop()
	}

	router, err := api.SetupRouter(cfg, api.Dependencies{
		Recipes:   recipes,
		Shopping:  shopping.NewService(shoppingStore),
		Favorites: favoritesRepo,
		Health: health.Options{
			Version:          cfg.App.Version,
			Catalog:          catalogStore,
			Queue:            queue,
			Cache:            cacheStore,
			DetectionEnabled: detectionSvc.Enabled(),
			Checks:           checks,
		},
		RateLimiter: limiter,
	})
	if err != nil {
		common.LogError("Failed to setup router", zap.Error(err))
		return
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		common.LogInfo(common.MsgAppStart,
			zap.String("version", cfg.App.Version),
			zap.String("env", cfg.App.Env),
			zap.Bool("debug", cfg.App.Debug),
			zap.Int("port", cfg.Server.Port),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-serverErr:
		common.LogError("Failed to start server", zap.Error(err))
	}

	common.LogInfo(common.MsgShuttingDown)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		common.LogError("Server forced to shutdown", zap.Error(err))
	}

	common.LogInfo(common.MsgServerExit)
}

func closeDB(db *gorm.DB) {
	if err := database.CloseDB(db); err != nil {
		common.LogWarn("關閉資料庫失敗", zap.Error(err))
	}
}
