// routes.go - Route registration helpers
// This file provides a clean way to register all API routes
package api

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/adb-markers/backend/internal/config"
	"github.com/adb-markers/backend/internal/markers"
)

// Dependencies holds all handler dependencies
type Dependencies struct {
	Source   DeviceSource
	Pipeline *markers.Pipeline
	Captures CaptureManager
	Version  string
}

// Handlers holds all handler instances
type Handlers struct {
	Health  HealthHandler
	Device  DeviceHandler
	Capture CaptureHandler
}

// NewHandlers creates all handler instances
func NewHandlers(deps *Dependencies) *Handlers {
	return &Handlers{
		Health:  NewHealthHandler(deps.Version, deps.Captures),
		Device:  NewDeviceHandler(deps.Source, deps.Pipeline),
		Capture: NewCaptureHandler(deps.Captures),
	}
}

// RegisterRoutes registers all API routes with the Echo instance
func RegisterRoutes(e *echo.Echo, handlers *Handlers) {
	// Device routes live at the root, where the profiler's external marker
	// URL points.
	e.GET("/markers", handlers.Device.HandleMarkers)
	e.GET("/markers/msgpack", handlers.Device.HandleMarkersMsgpack)
	e.GET("/events", handlers.Device.HandleEvents)
	e.GET("/events.json", handlers.Device.HandleEventsJSON)
	e.GET("/logcat.json", handlers.Device.HandleLogcatJSON)
	e.GET("/dump", handlers.Device.HandleDump)
	e.GET("/dump-verbose", handlers.Device.HandleDumpVerbose)
	e.GET("/reset", handlers.Device.HandleReset)

	apiGroup := e.Group("/api")

	// Health check
	apiGroup.GET("/health", handlers.Health.HandleHealth)

	// Capture routes
	captureGroup := apiGroup.Group("/captures")
	captureGroup.POST("", handlers.Capture.HandleStartCapture)
	captureGroup.POST("/upload", handlers.Capture.HandleUploadCapture)
	captureGroup.GET("/:id", handlers.Capture.HandleGetCapture)
	captureGroup.GET("/:id/markers", handlers.Capture.HandleCaptureMarkers)
	captureGroup.GET("/:id/markers/msgpack", handlers.Capture.HandleCaptureMarkersMsgpack)
	captureGroup.DELETE("/:id", handlers.Capture.HandleDeleteCapture)
}

// SetupMiddleware configures common middleware from the server config
func SetupMiddleware(e *echo.Echo, cfg *config.AppConfig, logger *slog.Logger) {
	// Use custom error handler
	e.HTTPErrorHandler = ErrorHandler

	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: func() string {
			return uuid.New().String()
		},
	}))

	// Request logging through slog
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		Skipper: func(c echo.Context) bool {
			// Skip logging if disabled in config
			if !cfg.Advanced.EnableRequestLogging {
				return true
			}
			return c.Request().URL.Path == "/api/health"
		},
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []any{
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency", v.Latency,
				"request_id", v.RequestID,
			}
			if v.Error != nil {
				logger.Warn("request failed", append(attrs, "error", v.Error)...)
				return nil
			}
			logger.Info("request", attrs...)
			return nil
		},
	}))

	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		StackSize: 1024 * 4,
	}))

	// Compression middleware
	e.Use(middleware.GzipWithConfig(middleware.GzipConfig{
		Skipper: func(c echo.Context) bool {
			return strings.HasSuffix(c.Request().URL.Path, "/msgpack")
		},
	}))

	// Body limit middleware
	e.Use(middleware.BodyLimit(cfg.Server.BodyLimit))

	// CORS configuration
	if cfg.Server.EnableCORS {
		origins := strings.Split(cfg.Server.AllowOrigins, ",")
		for i := range origins {
			origins[i] = strings.TrimSpace(origins[i])
		}
		if len(origins) == 0 || (len(origins) == 1 && origins[0] == "") {
			origins = []string{"*"}
		}
		e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins: origins,
			AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
			AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
			MaxAge:       int((12 * time.Hour).Seconds()),
		}))
	}
}
