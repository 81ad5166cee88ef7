package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/robinhoot/robinhoot_api/internal/cache"
	"github.com/robinhoot/robinhoot_api/internal/config"
	"github.com/robinhoot/robinhoot_api/internal/consumer"
	"github.com/robinhoot/robinhoot_api/internal/database"
	"github.com/robinhoot/robinhoot_api/internal/handler"
	"github.com/robinhoot/robinhoot_api/internal/middleware"
	"github.com/robinhoot/robinhoot_api/internal/models"
	"github.com/robinhoot/robinhoot_api/internal/pricing"
	"github.com/robinhoot/robinhoot_api/internal/repository"
	"github.com/robinhoot/robinhoot_api/internal/service"
	"github.com/robinhoot/robinhoot_api/internal/sse"
	"github.com/robinhoot/robinhoot_api/internal/utils"
	"github.com/robinhoot/robinhoot_api/internal/worker"
)

const (
	loginMaxFailures   = 5
	loginFailureWindow = 15 * time.Minute
)

// main is the application entrypoint for the RobinHoot marketplace API.
func main() {
	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// 2. Setup logger and token signing
	setupLogger(cfg.Env)
	log.Info().Str("env", cfg.Env).Msg("starting robinhoot api")
	utils.InitJWT(cfg.JWTSecret, cfg.JWTTTL)

	// 3. Connect database
	db, err := database.Connect(&cfg.DB)
	if err != nil {
		log.Error().Err(err).Msg("database connection failed")
		fmt.Fprintf(os.Stderr, "database connection failed: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	// 3a. Run migrations
	if err := database.Migrate(db.DB, cfg.DB.MigrationsDir); err != nil {
		log.Error().Err(err).Msg("migration failed")
		fmt.Fprintf(os.Stderr, "migration failed: %v\n", err)
		os.Exit(1)
	}
	log.Info().Msg("migrations completed successfully")

	// 3b. Connect to Redis
	redisClient, err := cache.NewRedisClient(&cfg.Redis)
	if err != nil {
		log.Error().Err(err).Msg("redis connection failed")
		fmt.Fprintf(os.Stderr, "redis connection failed: %v\n", err)
		os.Exit(1)
	}
	defer redisClient.Close()
	log.Info().Msg("redis connected successfully")

	// 4. Pricing calculator
	calc, err := pricing.NewCalculator(pricing.Config{
		StockFloor: cfg.Pricing.StockFloor,
		FinalFloor: cfg.Pricing.FinalFloor,
	})
	if err != nil {
		log.Error().Err(err).Msg("invalid pricing configuration")
		fmt.Fprintf(os.Stderr, "invalid pricing configuration: %v\n", err)
		os.Exit(1)
	}

	// 5. Initialize repositories and caches
	productRepo := repository.NewProductRepository(db)
	historyRepo := repository.NewPriceHistoryRepository(db)
	userRepo := repository.NewUserRepository(db)
	bannerRepo := repository.NewBannerRepository(db)
	settingRepo := repository.NewSiteSettingRepository(db)

	priceCache := cache.NewPriceCache(redisClient, cfg.Pricing.QuoteTTL)
	cartStore := cache.NewCartStore(redisClient, cfg.Cart.TTL)

	// 5a. Price change events
	hub := sse.NewHub()
	notifier := sse.NewHubNotifier(hub)

	// 5b. Banner moderation (disabled without AWS credentials)
	moderator, err := service.NewImageModerator(context.Background(), cfg.AWS, cfg.Moderation)
	if err != nil {
		log.Warn().Err(err).Msg("Image moderation initialization failed - banner images will not be moderated")
		moderator = service.NopModerator{}
	}

	// 6. Initialize services
	pricingSvc := service.NewPricingService(calc, productRepo, historyRepo, priceCache, notifier)
	productSvc := service.NewProductService(productRepo, historyRepo)
	productMgmtSvc := service.NewProductManagementService(productRepo, historyRepo, pricingSvc)
	cartSvc := service.NewCartService(cartStore, productSvc, pricingSvc)
	registerCmd := service.NewRegisterCommandHandler(userRepo)
	authSvc := service.NewAuthService(userRepo)
	bannerSvc := service.NewBannerService(bannerRepo, moderator)
	settingSvc := service.NewSiteSettingService(settingRepo)

	// 7. Initialize middleware
	jwtMw := middleware.NewJWTMiddleware()
	loginLimiter := middleware.NewInvalidAuthRateLimiter(loginMaxFailures, loginFailureWindow)

	// 8. Initialize handlers
	handlers := &Handlers{
		Health:            handler.NewHealthHandler(handler.PingFunc(db.PingContext), redisClient),
		Product:           handler.NewProductHandler(productSvc, pricingSvc),
		ProductManagement: handler.NewProductManagementHandler(productMgmtSvc),
		Cart:              handler.NewCartHandler(cartSvc),
		Auth:              handler.NewAuthHandler(registerCmd, authSvc, loginLimiter),
		Banner:            handler.NewBannerHandler(bannerSvc),
		SiteSetting:       handler.NewSiteSettingHandler(settingSvc),
		SSE:               handler.NewSSEHandler(hub),
	}

	// 9. Setup router
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.NewCORSMiddleware(cfg.CORS.AllowedOrigins))
	router.Use(middleware.LoggingMiddleware())
	router.Use(middleware.MetricsMiddleware())
	setupRoutes(router, handlers, jwtMw, loginLimiter)

	// 10. Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 11. Start workers and consumers
	go worker.NewRepriceWorker(pricingSvc, cfg.Worker.RepriceInterval).Start(ctx)

	dealWorker, err := worker.NewDealExpiryWorker(productRepo, pricingSvc, cfg.Worker.DealExpiryCron)
	if err != nil {
		log.Error().Err(err).Msg("Deal expiry worker disabled")
	} else {
		go dealWorker.Start(ctx)
	}

	if len(cfg.Kafka.Brokers) > 0 {
		reader := consumer.NewKafkaReader(&cfg.Kafka)
		go consumer.NewOrderConsumer(reader, pricingSvc).Start(ctx)
	} else {
		log.Info().Msg("KAFKA_BROKERS not set - order event consumer disabled")
	}

	go loginLimiter.StartCleanup(ctx, time.Minute)

	// 12. Start HTTP server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// 13. Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// 14. Cancel context to stop workers, consumer and SSE streams
	cancel()

	// 15. Shutdown HTTP server with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited")
}

// Handlers groups all HTTP handlers used by the server.
type Handlers struct {
	Health            *handler.HealthHandler
	Product           *handler.ProductHandler
	ProductManagement *handler.ProductManagementHandler
	Cart              *handler.CartHandler
	Auth              *handler.AuthHandler
	Banner            *handler.BannerHandler
	SiteSetting       *handler.SiteSettingHandler
	SSE               *handler.SSEHandler
}

// setupRoutes registers all routes.
func setupRoutes(router *gin.Engine, handlers *Handlers, jwtMiddleware *middleware.JWTMiddleware, loginLimiter *middleware.InvalidAuthRateLimiter) {
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/v1/health", handlers.Health.GetHealth)

	// Public catalog and pricing
	products := router.Group("/v1/products")
	{
		products.GET("", handlers.Product.GetProducts)
		products.GET("/categories", handlers.Product.GetCategories)
		products.GET("/:id", handlers.Product.GetProduct)
		products.GET("/:id/price", handlers.Product.GetPrice)
		products.GET("/:id/price/tiers", handlers.Product.GetTierPrices)
		products.GET("/:id/price-history", handlers.Product.GetPriceHistory)
	}
	router.GET("/v1/prices/stream", handlers.SSE.Stream)
	router.GET("/v1/banners", handlers.Banner.ListPublic)
	router.GET("/v1/settings", handlers.SiteSetting.GetPublic)

	// Auth
	auth := router.Group("/v1/auth")
	{
		auth.POST("/register", handlers.Auth.Register)
		auth.POST("/login", loginLimiter.Guard(), handlers.Auth.Login)
	}

	// Cart (signed-in users)
	cart := router.Group("/v1/cart")
	cart.Use(jwtMiddleware.Handle())
	{
		cart.GET("", handlers.Cart.GetCart)
		cart.DELETE("", handlers.Cart.ClearCart)
		cart.POST("/items", handlers.Cart.AddItem)
		cart.PUT("/items/:productId", handlers.Cart.UpdateItem)
		cart.DELETE("/items/:productId", handlers.Cart.RemoveItem)
	}

	// Admin routes
	admin := router.Group("/v1/admin")
	admin.Use(jwtMiddleware.Handle(), middleware.RequireRole(string(models.UserRoleAdmin)))
	{
		// Product management
		admin.GET("/products", handlers.ProductManagement.ListProducts)
		admin.POST("/products", handlers.ProductManagement.CreateProduct)
		admin.GET("/products/:id", handlers.ProductManagement.GetProduct)
		admin.PUT("/products/:id", handlers.ProductManagement.UpdateProduct)
		admin.DELETE("/products/:id", handlers.ProductManagement.DeleteProduct)
		admin.POST("/products/:id/restock", handlers.ProductManagement.RestockProduct)
		admin.POST("/products/:id/reprice", handlers.ProductManagement.RepriceProduct)

		// Banners
		admin.GET("/banners", handlers.Banner.ListAll)
		admin.POST("/banners", handlers.Banner.Create)
		admin.PUT("/banners/:id", handlers.Banner.Update)
		admin.DELETE("/banners/:id", handlers.Banner.Delete)

		// Site settings
		admin.GET("/settings", handlers.SiteSetting.List)
		admin.PUT("/settings/:key", handlers.SiteSetting.Put)
		admin.DELETE("/settings/:key", handlers.SiteSetting.Delete)
	}
}

func setupLogger(env string) {
	if env == "production" {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
}
