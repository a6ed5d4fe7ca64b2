package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"optical-franchise/internal/api"
	"optical-franchise/internal/applications"
	"optical-franchise/internal/appointments"
	"optical-franchise/internal/auth"
	"optical-franchise/internal/common/config"
	apperrors "optical-franchise/internal/common/errors"
	"optical-franchise/internal/common/logger"
	"optical-franchise/internal/common/validation"
	"optical-franchise/internal/franchises"
	"optical-franchise/internal/inventory"
	"optical-franchise/internal/measurements"
	"optical-franchise/internal/plans"
	"optical-franchise/internal/products"
	"optical-franchise/internal/tickets"
	"optical-franchise/internal/users"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// Handlers groups the resource handlers mounted under /api.
type Handlers struct {
	Auth         *auth.Handler
	Users        *users.Handler
	Franchises   *franchises.Handler
	Plans        *plans.Handler
	Appointments *appointments.Handler
	Measurements *measurements.Handler
	Products     *products.Handler
	Inventory    *inventory.Handler
	Applications *applications.Handler
	Tickets      *tickets.Handler
}

type Options struct {
	Config       *config.Config
	Logger       logger.Logger
	ErrorHandler *apperrors.ErrorHandler
	Sessions     *auth.Store
	Handlers     Handlers
	// ReadyChecks are pinged by /ready, keyed by dependency name.
	ReadyChecks map[string]Pinger
}

type Server struct {
	engine     *gin.Engine
	httpServer *http.Server
	limiter    *RateLimiter
	config     config.ServerConfig
	logger     logger.Logger
}

func New(opts Options) *Server {
	if opts.Config.App.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		validation.RegisterJSONTagNames(v)
	}

	log := opts.Logger.WithFields(map[string]interface{}{"component": "http"})

	engine := gin.New()
	engine.Use(
		gin.Recovery(),
		RequestIDMiddleware(),
		RequestLoggingMiddleware(log),
		MetricsMiddleware(),
		CORSMiddleware(opts.Config.Server.AllowedOrigins),
	)

	s := &Server{
		engine:  engine,
		limiter: NewRateLimiter(opts.Config.RateLimit.AnalysisRPS, opts.Config.RateLimit.AnalysisBurst, 10*time.Minute),
		config:  opts.Config.Server,
		logger:  log,
	}
	s.routes(opts)

	s.httpServer = &http.Server{
		Addr:         opts.Config.Server.Addr(),
		Handler:      engine,
		ReadTimeout:  config.GetDuration(opts.Config.Server.ReadTimeout),
		WriteTimeout: config.GetDuration(opts.Config.Server.WriteTimeout),
	}
	return s
}

func (s *Server) routes(opts Options) {
	h := opts.Handlers
	errs := opts.ErrorHandler
	cookie := opts.Config.Session.CookieName

	s.engine.GET("/health", Health)
	s.engine.GET("/ready", Ready(opts.ReadyChecks))
	s.engine.GET("/metrics", Metrics())

	requireSession := auth.RequireSession(opts.Sessions, cookie, errs)
	adminOnly := auth.RequireRole(errs, api.RoleAdmin)
	staff := auth.RequireRole(errs, api.RoleFranchisee, api.RoleAdmin)
	analysisLimit := RateLimitMiddleware(s.limiter, errs)

	root := s.engine.Group("/api")

	// Public
	authGroup := root.Group("/auth")
	authGroup.POST("/register", h.Auth.Register)
	authGroup.POST("/login", h.Auth.Login)
	root.GET("/plans", auth.OptionalSession(opts.Sessions, cookie), h.Plans.ListPlans)
	root.POST("/franchise-applications", h.Applications.Submit)

	protected := root.Group("", requireSession)

	protected.POST("/auth/logout", h.Auth.Logout)
	protected.POST("/auth/logout-all", h.Auth.LogoutAll)
	protected.GET("/auth/me", h.Auth.Me)

	franchiseGroup := protected.Group("/franchises")
	franchiseGroup.GET("", h.Franchises.List)
	franchiseGroup.POST("", staff, h.Franchises.Create)
	franchiseGroup.GET("/:id", h.Franchises.Get)
	franchiseGroup.PATCH("/:id", staff, h.Franchises.Update)
	franchiseGroup.PATCH("/:id/approve", adminOnly, h.Franchises.Approve)
	franchiseGroup.PATCH("/:id/reject", adminOnly, h.Franchises.Reject)

	protected.POST("/user-plans", h.Plans.Subscribe)
	protected.GET("/user-plans/active", h.Plans.ActivePlan)

	appointmentGroup := protected.Group("/appointments")
	appointmentGroup.GET("", h.Appointments.List)
	appointmentGroup.POST("", h.Appointments.Create)
	appointmentGroup.GET("/:id", h.Appointments.Get)
	appointmentGroup.PATCH("/:id", h.Appointments.Update)

	measurementGroup := protected.Group("/measurements")
	measurementGroup.GET("", h.Measurements.List)
	measurementGroup.POST("", analysisLimit, h.Measurements.Create)
	measurementGroup.POST("/analyze-image", analysisLimit, h.Measurements.AnalyzeImage)
	measurementGroup.GET("/:id", h.Measurements.Get)
	measurementGroup.POST("/:id/reanalyze", analysisLimit, h.Measurements.Reanalyze)

	productGroup := protected.Group("/products")
	productGroup.GET("", h.Products.List)
	productGroup.GET("/search", h.Products.Search)
	productGroup.GET("/:id", h.Products.Get)
	productGroup.POST("", adminOnly, h.Products.Create)
	productGroup.PATCH("/:id", adminOnly, h.Products.Update)
	productGroup.DELETE("/:id", adminOnly, h.Products.Delete)

	inventoryGroup := protected.Group("/inventory", staff)
	inventoryGroup.GET("", h.Inventory.List)
	inventoryGroup.POST("", h.Inventory.Upsert)
	inventoryGroup.PATCH("/:id", h.Inventory.Update)
	inventoryGroup.POST("/:id/adjust", h.Inventory.Adjust)

	ticketGroup := protected.Group("/support-tickets")
	ticketGroup.GET("", h.Tickets.List)
	ticketGroup.POST("", h.Tickets.Create)
	ticketGroup.PATCH("/:id", h.Tickets.Update)

	// Admin
	admin := protected.Group("", adminOnly)

	admin.GET("/users", h.Users.List)
	admin.POST("/users", h.Users.Create)
	admin.PATCH("/users/:id/approve", h.Users.Approve)
	admin.PATCH("/users/:id/reject", h.Users.Reject)

	admin.POST("/plans", h.Plans.CreatePlan)
	admin.PATCH("/plans/:id", h.Plans.UpdatePlan)

	admin.GET("/franchise-applications", h.Applications.List)
	admin.PATCH("/franchise-applications/:id/approve", h.Applications.Approve)
	admin.PATCH("/franchise-applications/:id/reject", h.Applications.Reject)
}

// Handler exposes the engine for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Start blocks until the listener fails or Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info("HTTP server listening", map[string]interface{}{"addr": s.httpServer.Addr})
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests for at most the configured timeout.
func (s *Server) Shutdown(ctx context.Context) error {
	defer s.limiter.Stop()

	ctx, cancel := context.WithTimeout(ctx, config.GetDuration(s.config.ShutdownTimeout))
	defer cancel()
	return s.httpServer.Shutdown(ctx)
}
