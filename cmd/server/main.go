package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"storefront/config"
	"storefront/internal/api"
	"storefront/internal/auth"
	"storefront/internal/broker"
	"storefront/internal/cart"
	"storefront/internal/catalog"
	"storefront/internal/redisclient"
	"storefront/internal/service"
	"storefront/internal/store"
	"storefront/internal/util"
	"storefront/internal/worker"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {

	cfg := config.Load()

	if err := util.InitLogger(cfg.Server.Env); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer util.SyncLogger()

	logger := util.GetLogger()
	logger.Info("Starting storefront service")

	tp, err := util.InitTracer("storefront", cfg.Observ.JaegerEndpoint)
	if err != nil {
		log.Fatalf("Failed to initialize tracer: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			log.Printf("Error shutting down tracer: %v", err)
		}
	}()

	// Primary storage. Without a reachable database the service still
	// runs: orders live in memory and the built-in product list is the
	// system of record, mirroring a local dev setup.
	var (
		orderStore store.OrderStore
		primary    catalog.Lookup
	)
	db, err := store.Connect(cfg.Database.URL)
	if err != nil {
		logger.Warn("Database unreachable, running with in-memory order store and built-in catalog",
			zap.Error(err))
		orderStore = store.NewMemoryOrders()
		primary = catalog.NewStatic()
	} else {
		defer db.Close()
		orderStore = store.NewPostgresOrders(db)
		primary = catalog.NewPostgres(db)
		logger.Info("Database connected")
	}

	// Browse-side catalog: redis read-through cache when available,
	// static fallback behind an availability probe. Checkout keeps the
	// undecorated primary.
	browseInner := primary
	redisClient, err := redisclient.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		logger.Warn("Redis unreachable, catalog cache disabled", zap.Error(err))
	} else {
		defer redisClient.Close()
		browseInner = catalog.NewCached(primary, redisClient, cfg.Business.CatalogCacheTTL)
		logger.Info("Redis connected")
	}
	browse := catalog.NewBrowser(browseInner)

	producer := broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicOrder)
	defer producer.Close()
	eventPublisher := broker.NewEventPublisher(producer)

	appCtx, appCancel := context.WithCancel(context.Background())
	defer appCancel()

	cartStore := cart.NewStore(cfg.Business.CartTTL)
	cartStore.StartJanitor(appCtx, time.Minute)

	authService := auth.NewService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL,
		cfg.Auth.AdminEmail, cfg.Auth.AdminPassHash)

	cartService := service.NewCartService(cartStore, browse)
	checkoutService := service.NewCheckoutService(cartStore, primary, orderStore, eventPublisher)
	orderService := service.NewOrderService(orderStore, eventPublisher, cfg.Business.PageSize)
	reportService := service.NewReportService(orderStore, cfg.Business.RecentOrders)

	auditConsumer := broker.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.TopicOrder, cfg.Kafka.ConsumerGroup)
	auditWorker := worker.NewAuditWorker(auditConsumer)
	go func() {
		if err := auditWorker.Start(appCtx); err != nil {
			logger.Warn("Audit worker stopped", zap.Error(err))
		}
	}()

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()
	handler := api.NewHandler(cartService, checkoutService, orderService,
		reportService, authService, browse,
		cfg.Business.SessionCookie, cfg.Business.CartTTL)
	handler.SetupRoutes(router)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		logger.Info("Starting HTTP server", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	appCancel()
	if err := auditWorker.Stop(); err != nil {
		logger.Warn("Audit worker close failed", zap.Error(err))
	}

	logger.Info("Server exited")
}
