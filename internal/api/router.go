package api

import (
	"fmt"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	favoritesHandler "recipe-matcher/internal/api/handlers/favorites"
	"recipe-matcher/internal/api/handlers/health"
	recipeHandler "recipe-matcher/internal/api/handlers/recipe"
	shoppingHandler "recipe-matcher/internal/api/handlers/shopping"
	"recipe-matcher/internal/api/middleware"
	"recipe-matcher/internal/core/favorites"
	recipeService "recipe-matcher/internal/core/recipe"
	"recipe-matcher/internal/core/shopping"
	"recipe-matcher/internal/infrastructure/config"
	"recipe-matcher/internal/pkg/common"
)

// Dependencies 路由所需的服務
type Dependencies struct {
	Recipes   *recipeService.Service
	Shopping  *shopping.Service
	Favorites *favorites.Repository
	Health    health.Options
	// RateLimiter 為 nil 時不限流
	RateLimiter *middleware.RateLimiter
}

// SetupRouter 設置路由
func SetupRouter(cfg *config.Config, deps Dependencies) (*gin.Engine, error) {
	if deps.Recipes == nil {
		return nil, fmt.Errorf("recipe service is required")
	}
	if deps.Shopping == nil {
		return nil, fmt.Errorf("shopping service is required")
	}

	common.LogInfo("Starting router setup",
		zap.Bool("debug_mode", cfg.App.Debug),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Env),
	)

	if !cfg.App.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	router.Use(middleware.Recovery())
	router.Use(requestid.New())
	router.Use(middleware.Logger())

	origins := cfg.Server.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID", middleware.SessionHeader},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: !allowsAll(origins),
		MaxAge:           12 * time.Hour,
	}))

	router.Use(middleware.BodySizeLimit(cfg.Server.BodyLimitBytes))

	// 健康檢查與指標不受限流與逾時影響
	healthHandler := health.NewHandler(deps.Health)
	router.GET("/health", healthHandler.HealthCheck)
	router.GET("/ready", healthHandler.ReadinessCheck)
	router.GET("/live", healthHandler.LivenessCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api/v1")
	if deps.RateLimiter != nil {
		api.Use(middleware.RateLimit(deps.RateLimiter))
	}
	api.Use(middleware.Timeout(cfg.Server.RequestTimeout))
	api.Use(middleware.Session(favorites.DefaultSession))
	{
		recipes := recipeHandler.NewHandler(deps.Recipes)

		ingredientGroup := api.Group("/ingredients")
		{
			ingredientGroup.POST("/normalize", recipes.HandleNormalize)
			ingredientGroup.POST("/detect", recipes.HandleDetect)
		}

		recipeGroup := api.Group("/recipes")
		{
			recipeGroup.POST("/suggest", recipes.HandleSuggest)
			recipeGroup.GET("/local", recipes.HandleLocalDishes)
			recipeGroup.GET("/:id", recipes.HandleDetail)
			recipeGroup.POST("/:id/explain", recipes.HandleExplain)
		}

		shoppingList := shoppingHandler.NewHandler(deps.Shopping, deps.Recipes)
		api.GET("/shopping-list", shoppingList.HandleGet)
		api.POST("/shopping-list", shoppingList.HandleAdd)
		api.DELETE("/shopping-list", shoppingList.HandleClear)

		if deps.Favorites != nil {
			favs := favoritesHandler.NewHandler(deps.Favorites, deps.Recipes)
			api.GET("/favorites", favs.HandleList)
			api.POST("/favorites", favs.HandleSave)
			api.DELETE("/favorites/:id", favs.HandleRemove)
			api.GET("/history", favs.HandleHistory)
		} else {
			common.LogWarn("未設定資料庫，停用收藏與瀏覽紀錄")
		}
	}

	common.LogInfo("Router setup completed successfully",
		zap.Bool("rate_limit", deps.RateLimiter != nil),
		zap.Bool("favorites", deps.Favorites != nil),
		zap.Duration("timeout", cfg.Server.RequestTimeout),
		zap.Int64("max_body_size", cfg.Server.BodyLimitBytes),
	)

	return router, nil
}

// allowsAll 萬用來源不可搭配 credentials
func allowsAll(origins []string) bool {
	for _, o := range origins {
		if o == "*" {
			return true
		}
	}
	return false
}
