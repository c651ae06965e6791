package main

import (
	"context"
	"os"
	"strconv"

	_ "posbackend/api/swagger" // swagger docs
	"posbackend/internal/cache"
	"posbackend/internal/database"
	"posbackend/internal/handler"
	"posbackend/internal/middleware"
	"posbackend/internal/repository"
	"posbackend/internal/service"
	"posbackend/internal/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title           Retail Platform API
// @version         1.0
// @description     Multi-tenant retail core: FIFO lot inventory, POS stock conversion, order and payment lifecycle, cross-store transfers.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	if level, err := logrus.ParseLevel(os.Getenv("LOG_LEVEL")); err == nil {
		logger.SetLevel(level)
	}

	if err := godotenv.Load("configs/.env"); err != nil {
		logger.Info("No configs/.env file found, using environment as-is")
	}

	dbHost := getenv("DB_HOST", "localhost")
	dbPort := getenv("DB_PORT", "5432")
	dbUser := getenv("DB_USER", "postgres")
	dbPassword := getenv("DB_PASSWORD", "postgres")
	dbName := getenv("DB_NAME", "postgres")
	dbSslMode := getenv("DB_SSLMODE", "disable")

	dsn := "postgres://" + dbUser + ":" + dbPassword + "@" + dbHost + ":" + dbPort + "/" + dbName + "?sslmode=" + dbSslMode

	db, err := database.NewConnection(dsn)
	if err != nil {
		logger.Fatalf("Database connection failed: %v", err)
	}
	logger.Info("Connected to PostgreSQL successfully")

	// Availability cache: Redis when configured, otherwise a no-op stand-in.
	var availabilityCache cache.AvailabilityCache = cache.NoopAvailabilityCache{}
	if redisAddr := os.Getenv("REDIS_ADDR"); redisAddr != "" {
		redisDB, _ := strconv.Atoi(os.Getenv("REDIS_DB"))
		redisCache := cache.NewRedisAvailabilityCache(redisAddr, os.Getenv("REDIS_PASSWORD"), redisDB)
		if err := redisCache.Ping(context.Background()); err != nil {
			logger.Warnf("Redis unreachable, falling back to no-op cache: %v", err)
		} else {
			availabilityCache = redisCache
			logger.Info("Connected to Redis successfully")
		}
	}

	// Set up WebSocket Hub
	wsHub := websocket.NewHub(logger)
	go wsHub.Run()

	// Set up dependencies (Repository -> Service -> Handler)
	txManager := repository.NewTransactionManager(db)
	lotRepo := repository.NewLotRepository(db)
	inventoryRepo := repository.NewInventoryRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	storeRepo := repository.NewStoreRepository(db)
	productRepo := repository.NewProductRepository(db)
	transferRepo := repository.NewTransferRepository(db)
	sequenceRepo := repository.NewSequenceRepository(db)
	userRepo := repository.NewUserRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	ledger := service.NewLotLedger(lotRepo, availabilityCache, logger)
	conversionService := service.NewStockConversionService(inventoryRepo, productRepo, txManager, logger)
	orderService := service.NewOrderService(orderRepo, productRepo, storeRepo, sequenceRepo, auditRepo, ledger, txManager, wsHub, logger)
	lifecycleService := service.NewOrderLifecycleService(orderRepo, auditRepo, ledger, txManager, wsHub, logger)
	transferService := service.NewTransferService(transferRepo, storeRepo, productRepo, sequenceRepo, auditRepo, ledger, txManager, wsHub, logger)
	userService := service.NewUserService(userRepo, middleware.GetJWTSecret())
	auditService := service.NewAuditService(auditRepo)

	// Initialize Handlers
	inventoryHandler := handler.NewInventoryHandler(ledger, conversionService, availabilityCache, logger)
	orderHandler := handler.NewOrderHandler(orderService, lifecycleService)
	transferHandler := handler.NewTransferHandler(transferService)
	userHandler := handler.NewUserHandler(userService)
	auditHandler := handler.NewAuditHandler(auditService)

	// Set up Gin Router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(logger))

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"http://localhost:5173", "http://127.0.0.1:5173", "http://localhost:5174"} // Frontend URL
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "OK"})
	})

	// WebSocket endpoint
	router.GET("/ws", func(c *gin.Context) {
		websocket.ServeWs(wsHub, c, middleware.GetJWTSecret())
	})

	// Register API Routes
	inventoryHandler.RegisterRoutes(router.Group(""))
	orderHandler.RegisterRoutes(router.Group(""))
	transferHandler.RegisterRoutes(router.Group(""))
	userHandler.RegisterRoutes(router.Group(""))
	auditHandler.RegisterRoutes(router.Group(""))

	port := getenv("PORT", "8080")
	logger.Infof("Server listening on :%s", port)
	if err := router.Run(":" + port); err != nil {
		logger.Fatalf("Server failed: %v", err)
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
