// Package v1 provides HTTP API version 1.
package v1

import (
	"context"

	"github.com/gin-gonic/gin"

	"oficio/internal/domain/cases"
	"oficio/internal/domain/dispatch"
	"oficio/internal/domain/templates"
	"oficio/internal/domain/units"
	"oficio/internal/infrastructure/http/v1/handlers"
	"oficio/internal/infrastructure/http/v1/middleware"
	"oficio/pkg/logger"
)

// AdminRole may reseed dispatch counters when authentication is required.
const AdminRole = "admin"

// RouterConfig holds router dependencies.
type RouterConfig struct {
	// Logger for request logging
	Logger *logger.Logger

	// JWTValidator validates bearer tokens. Nil disables authentication.
	JWTValidator middleware.JWTValidator

	// RequireAuth rejects API requests without a valid token.
	RequireAuth bool

	Templates *templates.Service
	Cases     *cases.Service
	Sequences *dispatch.Sequences
	Units     units.Repository

	// Ping checks the database for the readiness probe.
	Ping func(ctx context.Context) error
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	if cfg.Logger == nil {
		cfg.Logger = logger.Nop()
	}

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	healthHandler := handlers.NewHealthHandler(cfg.Ping)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
	}

	api := router.Group("/api/v1")
	if cfg.RequireAuth && cfg.JWTValidator != nil {
		api.Use(middleware.Auth(cfg.JWTValidator))
	} else {
		api.Use(middleware.OptionalAuth(cfg.JWTValidator))
	}

	base := handlers.NewBaseHandler()
	registerUnitRoutes(api, base, cfg)
	registerCaseRoutes(api, base, cfg)

	return router
}

func registerUnitRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	unitsGroup := rg.Group("/units/:unitId")

	unitHandler := handlers.NewUnitHandler(base, cfg.Units, cfg.Sequences)
	unitsGroup.GET("/logo", unitHandler.Logo)
	unitsGroup.GET("/sequences/:year", unitHandler.Sequence)
	if cfg.RequireAuth {
		unitsGroup.PUT("/sequences/:year", middleware.RequireRole(AdminRole), unitHandler.SetSequence)
	} else {
		unitsGroup.PUT("/sequences/:year", unitHandler.SetSequence)
	}

	templateHandler := handlers.NewTemplateHandler(base, cfg.Templates)
	tpl := unitsGroup.Group("/templates")
	{
		tpl.GET("", templateHandler.List)
		tpl.POST("", templateHandler.Create)
		tpl.GET("/:id", templateHandler.Get)
		tpl.PUT("/:id", templateHandler.Update)
		tpl.DELETE("/:id", templateHandler.Delete)
		tpl.GET("/:id/file", templateHandler.File)
	}
}

func registerCaseRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	caseHandler := handlers.NewCaseHandler(base, cfg.Cases)
	cs := rg.Group("/cases/:id")
	{
		cs.GET("", caseHandler.Get)
		cs.POST("/complete", caseHandler.Complete)
		cs.POST("/dispatch", caseHandler.GenerateDispatch)
		cs.GET("/dispatch/file", caseHandler.DispatchFile)
	}
}
