package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"github.com/urmzd/devicecontrols/pkg/api/handlers"
	"github.com/urmzd/devicecontrols/pkg/device"
	"github.com/urmzd/devicecontrols/pkg/device/schema"
)

// Router holds the Gin engine and dependencies
type Router struct {
	engine    *gin.Engine
	provider  device.Provider
	validator *schema.Validator
}

// NewRouter creates a new API router
func NewRouter(provider device.Provider, validator *schema.Validator) *Router {
	gin.SetMode(gin.ReleaseMode)

	engine := gin.New()
	SetupMiddleware(engine)

	router := &Router{
		engine:    engine,
		provider:  provider,
		validator: validator,
	}

	router.setupRoutes()

	return router
}

// setupRoutes configures all API routes
func (r *Router) setupRoutes() {
	// Swagger UI
	r.engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	r.engine.GET("/docs", func(c *gin.Context) {
		c.Redirect(http.StatusMovedPermanently, "/swagger/index.html")
	})

	healthHandler := handlers.NewHealthHandler(r.provider)
	r.engine.GET("/health", healthHandler.Health)

	v1 := r.engine.Group("/api/v1")
	{
		v1.GET("/health", healthHandler.Health)

		controlsHandler := handlers.NewControlsHandler(r.provider, r.validator)
		streamHandler := handlers.NewStreamHandler(r.provider)
		controls := v1.Group("/controls")
		{
			controls.GET("", controlsHandler.ListControls)

			// Static segments before :id
			controls.GET("/stream", streamHandler.Events)
			controls.GET("/ws", streamHandler.WebSocket)

			controls.GET("/:id", controlsHandler.GetControl)
			controls.POST("/:id/actions", controlsHandler.PerformAction)
		}
	}
}

// Handler returns the engine for use in an http.Server
func (r *Router) Handler() http.Handler {
	return r.engine
}

// Run starts the HTTP server
func (r *Router) Run(addr string) error {
	return r.engine.Run(addr)
}
