package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"runtime"
	"strings"
	"sync/atomic"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	httpHandlers "github.com/mobilize/core/internal/adapters/http"
	"github.com/mobilize/core/internal/adapters/repository"
	"github.com/mobilize/core/internal/application/services"
	"github.com/mobilize/core/internal/domain/entities"
	"github.com/mobilize/core/internal/infrastructure/config"
	"github.com/mobilize/core/internal/infrastructure/jsonstore"
	"github.com/mobilize/core/internal/infrastructure/logger"
)

// Server represents the HTTP server
type Server struct {
	echo     *echo.Echo
	config   *config.Config
	logger   *logger.Logger
	store    *jsonstore.Store
	registry *prometheus.Registry
	ready    atomic.Bool
}

// CustomValidator wraps the validator
type CustomValidator struct {
	validator *validator.Validate
}

// Validate validates structs
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

// handlers groups the HTTP handlers wired by New
type handlers struct {
	auth      *httpHandlers.AuthHandler
	financial *httpHandlers.FinancialHandler
	civic     *httpHandlers.CivicHandler
	dashboard *httpHandlers.DashboardHandler
}

// New creates a new server instance. registry receives the HTTP metrics and is
// served on /metrics; pass the one the store metrics were registered on.
func New(cfg *config.Config, store *jsonstore.Store, registry *prometheus.Registry, appLogger *logger.Logger) (*Server, error) {
	if store == nil {
		return nil, errors.New("server requires an open store")
	}
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	e := echo.New()

	// Set custom validator
	e.Validator = &CustomValidator{validator: validator.New()}

	// Configure Echo
	e.HideBanner = true
	e.HidePort = true
	e.Debug = cfg.App.Debug && cfg.App.IsDevelopment()

	// Custom error handler
	e.HTTPErrorHandler = customErrorHandler(appLogger)

	// Initialize repositories
	repos := repository.New(store, cfg.Store.FlushTimeout, appLogger)

	// Initialize services
	authService := services.NewAuthService(cfg.Auth, cfg.JWT, appLogger.WithComponent("auth"))
	treasuryService := services.NewTreasuryService(repos.Treasury, repos.Beneficiaries, appLogger)
	flowService := services.NewFlowService(repos.Flows, repos.Boycotts, repos.Taxes, treasuryService, appLogger)
	boycottService := services.NewBoycottService(repos.Boycotts, appLogger)
	taxService := services.NewTaxService(repos.Taxes, appLogger)
	civicService := services.NewCivicService(services.CivicRepositories{
		Beneficiaries: repos.Beneficiaries,
		CameraPoints:  repos.CameraPoints,
		Journal:       repos.Journal,
		Missions:      repos.Missions,
		RICs:          repos.RICs,
		Affaires:      repos.Affaires,
	}, appLogger)
	dashboardService := services.NewDashboardService(services.DashboardRepositories{
		Flows:         repos.Flows,
		Boycotts:      repos.Boycotts,
		Treasury:      repos.Treasury,
		RICs:          repos.RICs,
		Beneficiaries: repos.Beneficiaries,
		Reference:     repos.Reference,
	}, appLogger)

	// Initialize handlers
	h := handlers{
		auth:      httpHandlers.NewAuthHandler(authService, appLogger),
		financial: httpHandlers.NewFinancialHandler(flowService, boycottService, taxService, treasuryService, appLogger),
		civic:     httpHandlers.NewCivicHandler(civicService, appLogger),
		dashboard: httpHandlers.NewDashboardHandler(dashboardService, repos.Reference, appLogger),
	}

	server := &Server{
		echo:     e,
		config:   cfg,
		logger:   appLogger,
		store:    store,
		registry: registry,
	}

	// Setup metrics first so the middleware sees every request
	if cfg.Metrics.Enabled {
		server.setupMetrics()
	}

	// Setup middleware
	server.setupMiddleware()

	// Setup routes
	server.setupRoutes(h, authService)

	server.ready.Store(true)
	return server, nil
}

// setupMiddleware configures middleware
func (s *Server) setupMiddleware() {
	// Recovery middleware
	s.echo.Use(middleware.Recover())

	// Request ID middleware
	s.echo.Use(middleware.RequestID())

	// Logger middleware
	s.echo.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogMethod:    true,
		LogLatency:   true,
		LogError:     true,
		LogRemoteIP:  true,
		LogUserAgent: true,
		LogRequestID: true,
		LogValuesFunc: func(c echo.Context, values middleware.RequestLoggerValues) error {
			latency := float64(values.Latency.Nanoseconds()) / 1000000

			if values.Error != nil {
				s.logger.Errorw("HTTP request failed",
					"method", values.Method,
					"uri", values.URI,
					"status", values.Status,
					"latency_ms", latency,
					"remote_ip", values.RemoteIP,
					"request_id", values.RequestID,
					"error", values.Error.Error(),
				)
				return nil
			}

			s.logger.WithRequestID(values.RequestID).LogRequest(
				values.Method, values.URI, values.Status, values.Latency, values.RemoteIP, values.UserAgent,
			)
			return nil
		},
	}))

	// CORS middleware
	s.echo.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: strings.Split(s.config.Security.CORSAllowedOrigins, ","),
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		AllowMethods: []string{echo.GET, echo.HEAD, echo.PUT, echo.PATCH, echo.POST, echo.DELETE},
	}))

	// Rate limiting middleware
	if s.config.Security.RateLimitRequests > 0 {
		s.echo.Use(middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
			Store: middleware.NewRateLimiterMemoryStoreWithConfig(
				middleware.RateLimiterMemoryStoreConfig{
					Rate:      rate.Limit(s.config.Security.RateLimitRequests),
					Burst:     s.config.Security.RateLimitRequests,
					ExpiresIn: s.config.Security.RateLimitWindow,
				},
			),
			IdentifierExtractor: func(ctx echo.Context) (string, error) {
				return ctx.RealIP(), nil
			},
			ErrorHandler: func(context echo.Context, err error) error {
				return context.JSON(http.StatusForbidden, httpHandlers.ErrorResponse{Error: "rate limit exceeded"})
			},
			DenyHandler: func(context echo.Context, identifier string, err error) error {
				return context.JSON(http.StatusTooManyRequests, httpHandlers.ErrorResponse{Error: "rate limit exceeded"})
			},
		}))
	}

	// Security headers
	secure := middleware.SecureConfig{
		XSSProtection:      "1; mode=block",
		ContentTypeNosniff: "nosniff",
		XFrameOptions:      "SAMEORIGIN",
	}
	if s.config.App.IsProduction() {
		secure.HSTSMaxAge = 31536000
	}
	s.echo.Use(middleware.SecureWithConfig(secure))

	// Timeout middleware
	if s.config.Server.RequestTimeout > 0 {
		s.echo.Use(middleware.TimeoutWithConfig(middleware.TimeoutConfig{
			Timeout:      s.config.Server.RequestTimeout,
			ErrorMessage: `{"error":"request timed out"}`,
		}))
	}
}

// setupRoutes configures all routes
func (s *Server) setupRoutes(h handlers, authService *services.AuthService) {
	// Health check routes
	s.echo.GET("/health", s.healthCheck)
	s.echo.GET("/health/detailed", s.detailedHealthCheck)
	s.echo.GET("/ready", s.readinessCheck)

	// Whole store document
	s.echo.GET("/database.json", h.dashboard.Database)

	// Dashboard front end
	if s.config.Server.PublicDir != "" {
		s.echo.Static("/", s.config.Server.PublicDir)
	}

	operator := s.operatorOnly(authService)
	api := s.echo.Group("/api")

	// Auth routes (public)
	api.POST("/auth/login", h.auth.Login)

	// Financial flows
	api.GET("/financial-flows", h.financial.ListFlows)
	api.POST("/financial-flows", h.financial.CreateFlow)
	api.PUT("/financial-flows/:id", h.financial.UpdateFlow, operator)
	api.DELETE("/financial-flows/:id", h.financial.DeleteFlow, operator)

	// Boycotts
	api.GET("/boycotts", h.financial.ListBoycotts)
	api.POST("/boycotts", h.financial.CreateBoycott)
	api.PUT("/boycotts/:id", h.financial.UpdateBoycott, operator)
	api.DELETE("/boycotts/:id", h.financial.DeleteBoycott, operator)

	// Taxes
	api.GET("/taxes", h.financial.ListTaxes)
	api.POST("/taxes", h.financial.CreateTax, operator)

	// Treasury
	api.GET("/caisse-manifestation", h.financial.GetCaisse)
	api.POST("/caisse-manifestation/transaction", h.financial.RecordTransaction, operator)
	api.GET("/blockchain", h.financial.GetLedger)
	api.POST("/blockchain/transaction", h.financial.RecordBlock, operator)
	api.POST("/blockchain/recevoir-fonds", h.financial.ReceiveFunds, operator)
	api.POST("/blockchain/decaisser-allocations", h.financial.DisburseAllocations, operator)

	// Civic areas
	api.GET("/affaires", h.civic.GetAffaires)
	api.POST("/affaires/event", h.civic.AddAffaireEvent)
	api.GET("/beneficiaries", h.civic.ListBeneficiaries)
	api.POST("/beneficiaries/register", h.civic.RegisterBeneficiary)
	api.GET("/camera-points", h.civic.ListCameraPoints)
	api.POST("/camera-points", h.civic.CreateCameraPoint)
	api.GET("/public-cameras", h.civic.ListCameraPoints)
	api.GET("/missions", h.civic.ListMissions)
	api.POST("/missions", h.civic.CreateMission)
	api.PUT("/missions/:id", h.civic.UpdateMission, operator)
	api.GET("/rics", h.civic.ListRICs)
	api.POST("/rics", h.civic.CreateRIC)
	api.PUT("/rics/:id", h.civic.UpdateRIC, operator)
	api.POST("/rics/:id/vote", h.civic.VoteRIC)

	// Journal
	journal := s.echo.Group("/journal/api/journal")
	journal.GET("/posts", h.civic.ListJournalPosts)
	journal.POST("/posts", h.civic.CreateJournalPost)

	// Dashboard and reference areas
	api.GET("/dashboard/summary", h.dashboard.Summary)
	for path, area := range referenceAreas {
		api.GET(path, h.dashboard.Area(area))
	}
}

// referenceAreas maps read-only routes to the store area they serve
var referenceAreas = map[string]string{
	"/entities":            entities.AreaEntities,
	"/prefectures":         entities.AreaPrefectures,
	"/mairies":             entities.AreaMairies,
	"/roundabout-points":   entities.AreaRoundaboutPoints,
	"/porte-points":        entities.AreaPortePoints,
	"/strategic-locations": entities.AreaStrategicLocations,
	"/syndicats":           entities.AreaSyndicats,
	"/telecoms":            entities.AreaTelecoms,
	"/telegram-sites":      entities.AreaTelegramGroups,
}

// setupMetrics configures Prometheus metrics
func (s *Server) setupMetrics() {
	requestsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	s.registry.MustRegister(
		requestsTotal,
		requestDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	// Custom metrics middleware
	s.echo.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)

			duration := time.Since(start)
			status := c.Response().Status
			if he, ok := err.(*echo.HTTPError); ok {
				status = he.Code
			}

			requestsTotal.WithLabelValues(
				c.Request().Method,
				c.Path(),
				fmt.Sprintf("%d", status),
			).Inc()

			requestDuration.WithLabelValues(
				c.Request().Method,
				c.Path(),
			).Observe(duration.Seconds())

			return err
		}
	})

	// Metrics endpoint
	metricsHandler := promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})
	s.echo.GET("/metrics", echo.WrapHandler(metricsHandler))
}

// Health check handlers
func (s *Server) healthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) detailedHealthCheck(c echo.Context) error {
	status := "ok"
	checks := make(map[string]interface{})

	storeStatus := s.store.Status()
	if storeStatus.Dirty && storeStatus.LastError != "" {
		status = "degraded"
		checks["store"] = map[string]interface{}{
			"status": "error",
			"error":  storeStatus.LastError,
			"stats":  storeStatus,
		}
	} else {
		checks["store"] = map[string]interface{}{
			"status": "ok",
			"stats":  storeStatus,
		}
	}

	response := map[string]interface{}{
		"status": status,
		"time":   time.Now().UTC().Format(time.RFC3339),
		"checks": checks,
		"version": map[string]string{
			"app": s.config.App.Version,
			"go":  runtime.Version(),
		},
	}

	if status == "ok" {
		return c.JSON(http.StatusOK, response)
	}
	return c.JSON(http.StatusServiceUnavailable, response)
}

func (s *Server) readinessCheck(c echo.Context) error {
	if !s.ready.Load() {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{
			"status": "not_ready",
			"reason": "shutting_down",
		})
	}

	return c.JSON(http.StatusOK, map[string]string{
		"status": "ready",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// Handler returns the HTTP handler of the server
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start starts the HTTP server
func (s *Server) Start(address string) error {
	s.echo.Server.ReadTimeout = s.config.Server.ReadTimeout
	s.echo.Server.WriteTimeout = s.config.Server.WriteTimeout
	s.echo.Server.IdleTimeout = s.config.Server.IdleTimeout

	s.logger.Infow("Starting server", "address", address)
	return s.echo.Start(address)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.ready.Store(false)
	s.logger.Infow("Shutting down server")
	return s.echo.Shutdown(ctx)
}

// customErrorHandler handles HTTP errors
func customErrorHandler(logger *logger.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		var (
			code = http.StatusInternalServerError
			msg  = http.StatusText(http.StatusInternalServerError)
		)

		var he *echo.HTTPError
		var ve validator.ValidationErrors
		switch {
		case errors.As(err, &he):
			code = he.Code
			msg = fmt.Sprint(he.Message)
			if he.Internal != nil {
				err = fmt.Errorf("%v, %v", err, he.Internal)
			}
		case errors.As(err, &ve):
			code = http.StatusBadRequest
			msg = ve.Error()
		}

		if code >= http.StatusInternalServerError {
			logger.Errorw("Internal server error", "error", err, "path", c.Request().URL.Path)
		}

		// Send response
		if !c.Response().Committed {
			if c.Request().Method == http.MethodHead {
				err = c.NoContent(code)
			} else {
				err = c.JSON(code, httpHandlers.ErrorResponse{Error: msg})
			}
			if err != nil {
				logger.Errorw("Error sending response", "error", err)
			}
		}
	}
}
