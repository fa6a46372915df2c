package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"

	"github.com/regalator/wms/config"
	"github.com/regalator/wms/kafka"
	"github.com/regalator/wms/pkg/database"
	"github.com/regalator/wms/pkg/httpx"
	"github.com/regalator/wms/pkg/logger"
	"github.com/regalator/wms/pkg/tracing"

	cataloghttp "github.com/regalator/wms/internal/catalog/delivery/http"
	catalogrepo "github.com/regalator/wms/internal/catalog/repository"
	documenthttp "github.com/regalator/wms/internal/documents/delivery/http"
	documentrepo "github.com/regalator/wms/internal/documents/repository"
	docusecase "github.com/regalator/wms/internal/documents/usecase"
	fulfilldomain "github.com/regalator/wms/internal/fulfillment/domain"
	"github.com/regalator/wms/internal/fulfillment/session"
	inventoryhttp "github.com/regalator/wms/internal/inventory/delivery/http"
	inventoryrepo "github.com/regalator/wms/internal/inventory/repository"
	operatorhttp "github.com/regalator/wms/internal/operator/delivery/http"
	operatorrepo "github.com/regalator/wms/internal/operator/repository"
	ordershttp "github.com/regalator/wms/internal/orders/delivery/http"
	ordersrepo "github.com/regalator/wms/internal/orders/repository"
	ordersusecase "github.com/regalator/wms/internal/orders/usecase"
	pickinghttp "github.com/regalator/wms/internal/picking/delivery/http"
	pickingrepo "github.com/regalator/wms/internal/picking/repository"
	pickingusecase "github.com/regalator/wms/internal/picking/usecase"
	receivinghttp "github.com/regalator/wms/internal/receiving/delivery/http"
	receivingrepo "github.com/regalator/wms/internal/receiving/repository"
	receivingusecase "github.com/regalator/wms/internal/receiving/usecase"
	subiekthttp "github.com/regalator/wms/internal/subiekt/delivery/http"
	subiektdomain "github.com/regalator/wms/internal/subiekt/domain"
	subiektrepo "github.com/regalator/wms/internal/subiekt/repository"
	subiektusecase "github.com/regalator/wms/internal/subiekt/usecase"
	warehousehttp "github.com/regalator/wms/internal/warehouse/delivery/http"
	warehouserepo "github.com/regalator/wms/internal/warehouse/repository"
)

func main() {
	cfg := config.Load()

	logger.Init(cfg.ServiceName, cfg.IsDevelopment())
	logger.SetLevel(cfg.LogLevel)

	logger.Logger.Info().
		Str("service", cfg.ServiceName).
		Str("environment", cfg.Environment).
		Str("log_level", cfg.LogLevel).
		Msg("Starting warehouse service")

	// Initialize tracer
	tp, err := tracing.InitTracer(cfg.ServiceName)
	if err != nil {
		logger.Logger.Error().Err(err).Msg("Failed to initialize tracer")
	} else {
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := tracing.Shutdown(ctx, tp); err != nil {
				logger.Logger.Error().Err(err).Msg("Failed to shutdown tracer")
			}
		}()
	}

	// Connect to database
	db, err := database.NewGormConnection(cfg.Database)
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to connect to database")
	}
	sqlDB, err := db.DB()
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to get database instance")
	}
	defer sqlDB.Close()

	// Repositories
	operatorRepo := operatorrepo.NewGormOperatorRepository(db)
	productRepo := catalogrepo.NewGormProductRepository(db)
	locationRepo := warehouserepo.NewGormLocationRepository(db)
	stockRepo := inventoryrepo.NewGormStockRepositoryWithTracing(db)
	customerRepo := ordersrepo.NewGormCustomerOrderRepository(db)
	supplierRepo := ordersrepo.NewGormSupplierOrderRepository(db)
	pickingRepo := pickingrepo.NewGormPickingRepository(db)
	receivingRepo := receivingrepo.NewGormReceivingRepository(db)
	documentRepo := documentrepo.NewGormDocumentRepository(db)

	// Run migrations
	migrators := []interface{ AutoMigrate() error }{
		operatorRepo, productRepo, locationRepo, stockRepo,
		customerRepo, supplierRepo, pickingRepo, receivingRepo, documentRepo,
	}
	for _, m := range migrators {
		if err := m.AutoMigrate(); err != nil {
			logger.Logger.Fatal().Err(err).Msg("Failed to run migrations")
		}
	}
	logger.Logger.Info().Msg("Database initialized successfully")

	// Scan sessions: Redis when configured, in-process otherwise
	var sessions fulfilldomain.SessionStore = session.NewMemoryStore()
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       0,
		})
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			logger.Logger.Warn().
				Err(err).
				Str("redis_addr", cfg.RedisAddr).
				Msg("Failed to connect to Redis - falling back to in-memory scan sessions")
		} else {
			sessions = session.NewRedisStore(redisClient, cfg.SessionTTL)
			logger.Logger.Info().
				Str("redis_addr", cfg.RedisAddr).
				Msg("Connected to Redis for scan sessions")
		}
	}

	// Event publisher
	var events kafka.EventPublisher = kafka.NopPublisher{}
	if len(cfg.KafkaBrokers) > 0 {
		publisher, err := kafka.NewPublisher(cfg.KafkaBrokers)
		if err != nil {
			logger.Logger.Warn().Err(err).Msg("Failed to connect to Kafka - events disabled")
		} else {
			events = publisher
		}
	}
	defer events.Close()

	// Subiekt mirror: read-only, optional
	var subiektAdapter subiektdomain.Adapter = subiektrepo.NopAdapter{}
	if cfg.SubiektDB.Host != "" {
		subiektDB, err := database.NewSQLConnection(cfg.SubiektDB)
		if err != nil {
			logger.Logger.Warn().Err(err).Msg("Failed to connect to Subiekt mirror - adapter disabled")
		} else {
			defer subiektDB.Close()
			subiektAdapter = subiektrepo.NewSQLAdapter(subiektDB)
			logger.Logger.Info().Str("host", cfg.SubiektDB.Host).Msg("Connected to Subiekt mirror")
		}
	}

	// Use cases
	txManager := database.NewGormTxManager(db)
	documentService := docusecase.NewService(documentRepo)
	reconciler := ordersusecase.NewSupplierOrderReconciler(supplierRepo, receivingRepo)
	importer := subiektusecase.NewImporter(subiektAdapter, productRepo)

	pickingEngine := pickingusecase.NewEngine(
		pickingRepo, customerRepo, productRepo, locationRepo, stockRepo,
		sessions, documentService, txManager, events,
	)
	receivingEngine := receivingusecase.NewEngine(
		receivingRepo, supplierRepo, productRepo, locationRepo, stockRepo,
		sessions, documentService, reconciler, txManager, events,
	)

	// Router
	router := mux.NewRouter()
	httpx.RegisterMiddlewares(router, cfg.ServiceName, 30*time.Second)

	router.Handle("/metrics", promhttp.Handler()).Methods("GET")
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		if err := sqlDB.Ping(); err != nil {
			httpx.RespondError(w, http.StatusServiceUnavailable, "database unreachable")
			return
		}
		httpx.RespondData(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods("GET")

	protected := router.NewRoute().Subrouter()
	protected.Use(operatorhttp.AuthMiddleware)

	operatorhttp.NewOperatorHandler(operatorRepo).RegisterRoutes(router, protected)
	cataloghttp.NewCatalogHandler(productRepo).RegisterRoutes(protected)
	warehousehttp.NewLocationHandler(locationRepo).RegisterRoutes(protected)
	inventoryhttp.NewStockHandler(stockRepo).RegisterRoutes(protected)
	ordershttp.NewOrderHandler(customerRepo, supplierRepo).RegisterRoutes(protected)
	pickinghttp.NewPickingHandler(pickingEngine, pickingRepo).RegisterRoutes(protected)
	receivinghttp.NewReceivingHandler(receivingEngine, receivingRepo).RegisterRoutes(protected)
	documenthttp.NewDocumentHandler(documentRepo).RegisterRoutes(protected)
	subiekthttp.NewSubiektHandler(subiektAdapter, importer).RegisterRoutes(protected)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})

	server := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: corsHandler.Handler(router),
	}

	go func() {
		logger.Logger.Info().
			Str("port", cfg.HTTPPort).
			Str("metrics_endpoint", "/metrics").
			Msg("HTTP server started")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Logger.Fatal().Err(err).Msg("Failed to start HTTP server")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Logger.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Logger.Error().Err(err).Msg("Forced shutdown")
	}

	logger.Logger.Info().Msg("Server stopped")
}
