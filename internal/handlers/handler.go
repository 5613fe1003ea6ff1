package handlers

import (
	_ "console_rental/docs"
	"console_rental/internal/logger"
	"console_rental/internal/service"

	"github.com/gin-gonic/gin"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Handler wires HTTP layer to services and logging.
type Handler struct {
	services *service.Service
	log      *logger.Logger

	rateRPS   float64
	rateBurst int
}

// Option customizes a Handler.
type Option func(*Handler)

// WithRateLimit throttles /api/v1 per client IP. rps <= 0 disables throttling.
func WithRateLimit(rps float64, burst int) Option {
	return func(h *Handler) {
		h.rateRPS = rps
		h.rateBurst = burst
	}
}

// NewHandler constructs a new HTTP handler with dependencies.
func NewHandler(services *service.Service, log *logger.Logger, opts ...Option) *Handler {
	h := &Handler{services: services, log: log}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// InitRoutes builds and returns the Gin router with all routes registered.
func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), metricsMiddleware())

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	router.GET("/health", h.health)
	router.GET("/metrics", metricsHandler())

	// Auth endpoints
	h.registerAuthRoutes(router)

	// Versioned API endpoints (protected)
	h.registerAPIRoutes(router)

	// Live device timer feed (HTTP upgrade) on the same port
	router.GET("/ws", h.wsConnect)

	return router
}

func (h *Handler) registerAuthRoutes(r *gin.Engine) {
	auth := r.Group("/auth")
	{
		auth.POST("/sign-up", h.signUp)
		auth.POST("/sign-in", h.signIn)
	}
}

func (h *Handler) registerAPIRoutes(r *gin.Engine) {
	middlewares := []gin.HandlerFunc{h.userIdMiddleware}
	if h.rateRPS > 0 {
		middlewares = append([]gin.HandlerFunc{rateLimitMiddleware(h.rateRPS, h.rateBurst)}, middlewares...)
	}

	api := r.Group("/api/v1", middlewares...)
	{
		h.registerDeviceRoutes(api)
		h.registerSessionRoutes(api)
		h.registerActivityRoutes(api)
		api.POST("/sweeper/run", h.runSweep)
	}
}

func (h *Handler) registerDeviceRoutes(api *gin.RouterGroup) {
	devices := api.Group("/devices")
	{
		devices.GET("", h.listDevices)
		devices.GET("/:id", h.getDevice)
		// Body example: {"duration_seconds":3600,"member_id":"m-1","pin":"1234"}
		devices.POST("/:id/start", h.startSession)
		devices.POST("/:id/stop", h.stopSession)
		devices.POST("/:id/resume", h.resumeSession)
		devices.POST("/:id/add-time", h.addTime)
		devices.POST("/:id/end", h.endSession)
	}
}

func (h *Handler) registerSessionRoutes(api *gin.RouterGroup) {
	sessions := api.Group("/sessions")
	{
		sessions.GET("/:id/activity", h.sessionActivity)
		sessions.GET("/:id/usage", h.sessionUsage)
	}
}

func (h *Handler) registerActivityRoutes(api *gin.RouterGroup) {
	api.GET("/activity", h.listActivity)
}
