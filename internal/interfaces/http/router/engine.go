package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Vinicius2501/aqua-erp-sub001/internal/infrastructure/config"
	"github.com/Vinicius2501/aqua-erp-sub001/internal/infrastructure/logger"
	"github.com/Vinicius2501/aqua-erp-sub001/internal/infrastructure/telemetry"
	"github.com/Vinicius2501/aqua-erp-sub001/internal/interfaces/http/middleware"
)

// EngineConfig configures the gin engine and its middleware chain
type EngineConfig struct {
	Logger         *zap.Logger
	HTTP           config.HTTPConfig
	ServiceName    string
	TracingEnabled bool
	MeterProvider  *telemetry.MeterProvider
}

// NewEngine builds a gin engine with the standard middleware chain:
// recovery, tracing, span error marking, request ID, access log, actor,
// span attributes, metrics, CORS, secure headers and body limit.
func NewEngine(cfg EngineConfig) (*gin.Engine, error) {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	if err := middleware.SetupValidator(); err != nil {
		return nil, err
	}

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	cors := middleware.DefaultCORSConfig()
	cors.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	if len(cfg.HTTP.CORSAllowMethods) > 0 {
		cors.AllowMethods = cfg.HTTP.CORSAllowMethods
	}
	if len(cfg.HTTP.CORSAllowHeaders) > 0 {
		cors.AllowHeaders = cfg.HTTP.CORSAllowHeaders
	}
	cors.MaxAge = 12 * time.Hour

	engine.Use(
		logger.Recovery(log),
		middleware.TracingWithConfig(middleware.TracingConfig{
			ServiceName: cfg.ServiceName,
			Enabled:     cfg.TracingEnabled,
		}),
		middleware.SpanErrorMarker(),
		middleware.RequestID(),
		logger.GinMiddleware(log, "/health"),
		middleware.Actor(),
		middleware.TracingAttributeInjector(),
		middleware.HTTPMetrics(middleware.HTTPMetricsConfig{
			MeterProvider: cfg.MeterProvider,
			Logger:        log,
			Enabled:       cfg.MeterProvider != nil,
		}),
		middleware.CORSWithConfig(cors),
		middleware.Secure(),
	)
	if cfg.HTTP.MaxBodyBytes > 0 {
		engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodyBytes))
	}
	return engine, nil
}
