package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"storefront-service/common/logger"
	"storefront-service/config"
	"storefront-service/controllers"
	"storefront-service/database"
	"storefront-service/kafka"
	"storefront-service/middleware"
	aws_pkg "storefront-service/pkg/aws"
	"storefront-service/repository"
	"storefront-service/routes"
	"storefront-service/services"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const serviceName = "storefront-service"

func main() {
	ctx := context.Background()

	// --- AWS + config ---
	var awsCfg *sdkaws.Config
	loadAWS := func() *sdkaws.Config {
		if awsCfg == nil {
			cfg, err := aws_pkg.LoadAWSConfig(ctx)
			if err != nil {
				log.Fatalf("Failed to load AWS config: %v", err)
			}
			awsCfg = &cfg
		}
		return awsCfg
	}

	var secrets config.SecretSource
	if config.UseAWSSecrets() {
		secrets = aws_pkg.NewSecretsClient(*loadAWS())
	}

	cfg, err := config.LoadConfig(ctx, secrets)
	if err != nil {
		log.Fatalf("Config load failed: %v", err)
	}

	// --- Logger ---
	if cfg.CloudWatchEnabled {
		cw, err := aws_pkg.NewCloudWatchLogsClient(ctx, *loadAWS(), cfg.CloudWatchLogGroup, serviceName)
		if err != nil {
			log.Printf("CloudWatch Logs unavailable, logging to stdout only: %v", err)
			err = logger.Initialize(cfg.AppEnv)
		} else {
			err = logger.InitializeWithWriter(cfg.AppEnv, cw)
		}
		if err != nil {
			log.Fatalf("failed to initialize logger: %v", err)
		}
	} else if err := logger.Initialize(cfg.AppEnv); err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	zapLogger := logger.Log
	defer zapLogger.Sync()

	// --- Database ---
	db, err := database.ConnectPostgres(cfg.PostgresDSN(), zapLogger)
	if err != nil {
		zapLogger.Fatal("DB connection failed", zap.Error(err))
	}
	repos := repository.NewRepositories(db)

	if cfg.SeedData {
		seedCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		if err := database.Seed(seedCtx, repos, zapLogger); err != nil {
			zapLogger.Error("Seeding failed", zap.Error(err))
		}
		cancel()
	}

	// --- Redis (optional) ---
	redisClient, err := database.NewRedisClient(ctx, cfg.RedisURL, zapLogger)
	if err != nil {
		zapLogger.Warn("Redis unavailable, running without cache and checkout dedupe", zap.Error(err))
		redisClient = nil
	}
	var idem repository.IdempotencyStore
	if redisClient != nil {
		idem = repository.NewRedisIdempotencyStore(redisClient)
	}

	// --- Metrics ---
	var metricsClient *aws_pkg.MetricsClient
	if cfg.CloudWatchEnabled {
		metricsClient = aws_pkg.NewMetricsClient(*loadAWS(), cfg.CloudWatchNS, true)
	}

	// --- Events ---
	var publisher services.EventPublisher
	var kafkaProducer *kafka.Producer
	switch cfg.EventsBackend {
	case "sns":
		publisher = aws_pkg.NewSNSClient(*loadAWS())
	case "kafka":
		kafkaProducer = kafka.NewProducer(cfg.KafkaBrokers, zapLogger)
		publisher = kafkaProducer
	default:
		zapLogger.Info("No events backend configured, domain events are disabled")
	}
	events := services.NewEventEmitter(publisher, cfg.EventsTopic(), zapLogger)

	// --- Product images (optional) ---
	var images services.ImagePresigner
	if cfg.ProductImageBucket != "" {
		images = aws_pkg.NewImageStore(*loadAWS(), cfg.ProductImageBucket, cfg.ProductImageBaseURL)
	}

	// --- Dependency injection ---
	catalogCache := controllers.NewCatalogCache(redisClient, metricsClient, zapLogger)
	tokens := services.NewTokenService(cfg.JWTSecret, cfg.SessionTTL)
	tx := repository.NewGormTransactor(db)

	authService := services.NewAuthService(repos.Users, tokens, zapLogger)
	productService := services.NewProductService(repos.Products, images, catalogCache, zapLogger)
	cartService := services.NewCartService(repos.Carts, repos.Products, zapLogger)
	orderService := services.NewOrderService(tx, repos.Orders, idem, events, metricsClient, zapLogger)
	paymentService := services.NewPaymentService(
		tx, repos.Orders, repos.Payments,
		services.NewPaymentSimulator(cfg.PaymentSuccessRate, nil),
		events, metricsClient, zapLogger,
	)
	reviewService := services.NewReviewService(repos.Reviews, repos.Products, repos.Orders, events, metricsClient, zapLogger)
	adminService := services.NewAdminService(repos, zapLogger)

	validator := controllers.NewRequestValidator()
	view := controllers.NewPageRenderer(cartService, zapLogger, cfg.CookieSecure)
	handlers := routes.Handlers{
		Auth:       controllers.NewAuthController(authService, tokens.TTL(), validator, view, zapLogger),
		Products:   controllers.NewProductController(productService, reviewService, view, zapLogger),
		ProductAPI: controllers.NewProductAPIController(productService, catalogCache, zapLogger),
		Cart:       controllers.NewCartController(cartService, view),
		Orders:     controllers.NewOrderController(orderService, cartService, paymentService, view),
		Payments:   controllers.NewPaymentController(paymentService, orderService, view),
		Reviews:    controllers.NewReviewController(reviewService, productService, validator, view),
		Admin:      controllers.NewAdminController(adminService, productService, orderService, paymentService, validator, view, zapLogger),
	}

	// --- HTTP router ---
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.RequestLogger(zapLogger))
	r.Use(middleware.SecurityHeaders(cfg.CookieSecure))
	r.Use(middleware.MetricsMiddleware(metricsClient, serviceName))
	r.Use(middleware.RequestTimeout(30 * time.Second))
	r.Use(middleware.Authenticate(tokens))

	routes.LoadTemplates(r, cfg.TemplatesGlob)
	r.Static("/static", cfg.StaticDir)

	limiterCtx, stopLimiter := context.WithCancel(ctx)
	defer stopLimiter()
	limiter := middleware.NewRateLimiter(rate.Every(time.Minute/100), 50, 5*time.Minute)
	go limiter.Run(limiterCtx)

	routes.RegisterRoutes(r, handlers, routes.Options{AllowedOrigins: cfg.AllowedOrigins, Limiter: limiter})

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "OK", "service": serviceName})
	})

	// --- HTTP server ---
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		zapLogger.Info("Storefront started", zap.String("port", cfg.Port), zap.String("env", cfg.AppEnv))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Fatal("server failed", zap.Error(err))
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("Initiating graceful shutdown...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("Server shutdown error", zap.Error(err))
	}
	if kafkaProducer != nil {
		if err := kafkaProducer.Close(); err != nil {
			zapLogger.Error("Kafka producer close error", zap.Error(err))
		}
	}
	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			zapLogger.Error("Redis close error", zap.Error(err))
		}
	}
	if err := database.Close(db); err != nil {
		zapLogger.Error("Database close error", zap.Error(err))
	}

	zapLogger.Info("Storefront stopped gracefully")
}
