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

	"go.uber.org/zap"

	"github.com/megamart/order-payment-service/internal/clients"
	"github.com/megamart/order-payment-service/internal/gateway"
	"github.com/megamart/order-payment-service/internal/handlers"
	"github.com/megamart/order-payment-service/internal/platform/auth"
	"github.com/megamart/order-payment-service/internal/platform/config"
	"github.com/megamart/order-payment-service/internal/platform/observability"
	"github.com/megamart/order-payment-service/internal/repositories/memory"
	"github.com/megamart/order-payment-service/internal/services"
)

func main() {
	baseLogger, err := observability.NewLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialise logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = baseLogger.Sync()
	}()

	logger := baseLogger.Named("api")

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	store := memory.NewStore()
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := store.Close(closeCtx); err != nil {
			logger.Warn("store close error", zap.Error(err))
		}
	}()

	cartClient := clients.NewCartClient(cfg.Peers.CartServiceURL,
		clients.WithRequestTimeout(cfg.Peers.RequestTimeout))
	productClient := clients.NewProductClient(cfg.Peers.ProductServiceURL,
		clients.WithRequestTimeout(cfg.Peers.RequestTimeout))
	userAdminClient := clients.NewUserAdminClient(cfg.Peers.UserAdminServiceURL,
		clients.WithRequestTimeout(cfg.Peers.RequestTimeout))

	eventLogger := observability.ServiceEventLogger(logger)

	userData := services.NewUserDataService(services.UserDataServiceDeps{
		Users:  userAdminClient,
		Logger: eventLogger,
	})

	inventory, err := services.NewInventoryService(services.InventoryServiceDeps{
		Products: productClient,
		Logger:   eventLogger,
	})
	if err != nil {
		logger.Fatal("failed to initialise inventory service", zap.Error(err))
	}

	locks := services.NewOrderLocks()

	orderService, err := services.NewOrderService(services.OrderServiceDeps{
		Orders:    store.Orders(),
		Payments:  store.Payments(),
		Tracking:  store.OrderTracking(),
		UserData:  userData,
		Inventory: inventory,
		Carts:     cartClient,
		Users:     userAdminClient,
		Locks:     locks,
		Logger:    eventLogger,
	})
	if err != nil {
		logger.Fatal("failed to initialise order service", zap.Error(err))
	}

	simulator := gateway.NewSimulator(gateway.WithProcessingDelay(cfg.Gateway.ProcessingDelay))

	paymentService, err := services.NewPaymentService(services.PaymentServiceDeps{
		Payments: store.Payments(),
		Orders:   store.Orders(),
		UserData: userData,
		Gateway:  simulator,
		Locks:    locks,
		Logger:   eventLogger,
	})
	if err != nil {
		logger.Fatal("failed to initialise payment service", zap.Error(err))
	}

	orderHandlers := handlers.NewOrderHandlers(orderService, cfg.Server.Port)
	paymentHandlers := handlers.NewPaymentHandlers(paymentService)
	locationHandlers := handlers.NewProcessingLocationHandlers(store.ProcessingLocations())

	router := handlers.NewRouter(
		handlers.WithMiddlewares(
			observability.InjectLoggerMiddleware(logger),
			observability.TraceMiddleware(),
			auth.HeaderIdentityMiddleware(),
			observability.RequestLoggerMiddleware(),
			observability.RecoveryMiddleware(logger),
		),
		handlers.WithOrderRoutes(orderHandlers.Routes),
		handlers.WithPaymentRoutes(paymentHandlers.Routes),
		handlers.WithProcessingLocationRoutes(locationHandlers.Routes),
	)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	serverLogger := logger.Named("http").With(zap.String("addr", server.Addr))
	go func() {
		serverLogger.Info("order-payment-service listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverLogger.Fatal("http server error", zap.Error(err))
		}
	}()

	<-shutdown
	logger.Info("shutdown signal received; draining requests")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}
