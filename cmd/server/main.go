package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	procapp "github.com/Vinicius2501/aqua-erp-sub001/internal/application/procurement"
	"github.com/Vinicius2501/aqua-erp-sub001/internal/domain/shared"
	"github.com/Vinicius2501/aqua-erp-sub001/internal/infrastructure/cache"
	"github.com/Vinicius2501/aqua-erp-sub001/internal/infrastructure/config"
	"github.com/Vinicius2501/aqua-erp-sub001/internal/infrastructure/event"
	"github.com/Vinicius2501/aqua-erp-sub001/internal/infrastructure/logger"
	"github.com/Vinicius2501/aqua-erp-sub001/internal/infrastructure/telemetry"
	"github.com/Vinicius2501/aqua-erp-sub001/internal/interfaces/http/handler"
	"github.com/Vinicius2501/aqua-erp-sub001/internal/interfaces/http/router"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
		Service:    cfg.App.Name,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	log.Info("Starting procurement service",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", cfg.App.Version),
	)

	ctx := context.Background()

	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    cfg.App.Version,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}

	meterProvider, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.MetricsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ExportInterval:    cfg.Telemetry.MetricsInterval,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    cfg.App.Version,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize meter provider", zap.Error(err))
	}

	businessMetrics, err := telemetry.NewBusinessMetrics(telemetry.BusinessMetricsConfig{
		Meter:  meterProvider.Meter(telemetry.TracerName),
		Logger: log,
	})
	if err != nil {
		log.Fatal("Failed to initialize business metrics", zap.Error(err))
	}

	loc, err := cfg.Procurement.LoadLocation()
	if err != nil {
		log.Fatal("Invalid procurement location", zap.String("location", cfg.Procurement.Location), zap.Error(err))
	}
	clock := shared.NewSystemClock(loc)

	stores, err := cache.NewStoreFactory(cfg.Redis,
		cache.WithLogger(log),
		cache.WithClock(clock),
	).CreateStores(ctx)
	if err != nil {
		log.Fatal("Failed to create preference store", zap.Error(err))
	}
	defer func() {
		if err := stores.Close(); err != nil {
			log.Error("Error closing preference store", zap.Error(err))
		}
	}()

	eventBus := event.NewInMemoryEventBus(log)
	eventBus.Subscribe(procapp.NewLifecycleAuditHandler(log, businessMetrics))

	orderService := procapp.NewPurchaseOrderService(log, clock)
	orderService.SetEventPublisher(eventBus)
	orderService.SetBusinessMetrics(businessMetrics)
	orderService.SetLocker(stores.Locker)
	orderService.SetDecisionStore(stores.KeyValue)
	orderService.SetDefaultPaymentWindowDays(cfg.Procurement.DefaultPaymentWindowDays)

	scheduleService := procapp.NewPaymentScheduleService(log, clock, loc)
	scheduleService.SetBusinessMetrics(businessMetrics)
	scheduleService.SetDefaultPaymentWindowDays(cfg.Procurement.DefaultPaymentWindowDays)

	engine, err := router.NewEngine(router.EngineConfig{
		Logger:         log,
		HTTP:           cfg.HTTP,
		ServiceName:    cfg.Telemetry.ServiceName,
		TracingEnabled: tracerProvider.IsEnabled(),
		MeterProvider:  meterProvider,
	})
	if err != nil {
		log.Fatal("Failed to build HTTP engine", zap.Error(err))
	}

	systemHandler := handler.NewSystemHandler(cfg.App.Name, cfg.App.Version, stores.KeyValue, stores.Backend)
	engine.GET("/health", systemHandler.Health)

	router.NewRouter(engine).
		Register(router.NewProcurementGroup(router.ProcurementHandlers{
			PurchaseOrders:   handler.NewPurchaseOrderHandler(orderService),
			PaymentSchedules: handler.NewPaymentScheduleHandler(scheduleService),
			Preferences:      handler.NewPreferenceHandler(stores.KeyValue),
		})).
		Register(router.NewSystemGroup(systemHandler)).
		Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := meterProvider.Shutdown(shutdownCtx); err != nil {
		log.Error("Error shutting down meter provider", zap.Error(err))
	}
	if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
		log.Error("Error shutting down tracer provider", zap.Error(err))
	}

	published, failed := eventBus.Stats()
	log.Info("Server exited gracefully",
		zap.Int64("events_published", published),
		zap.Int64("events_failed", failed),
	)
}
