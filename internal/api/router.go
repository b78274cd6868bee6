package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/likekeeper/likekeeper/internal/capture"
	"github.com/likekeeper/likekeeper/internal/db"
	"github.com/likekeeper/likekeeper/internal/export"
	"github.com/likekeeper/likekeeper/pkg/logging"
)

// Router sets up API routes
type Router struct {
	service  *capture.Service
	exporter *export.Exporter
	db       *db.DB
	logger   *zap.Logger
}

// NewRouter creates a new API router
func NewRouter(service *capture.Service, exporter *export.Exporter, database *db.DB) *Router {
	return &Router{
		service:  service,
		exporter: exporter,
		db:       database,
		logger:   logging.WithComponent("api-router"),
	}
}

// SetupRoutes sets up all API routes
func (r *Router) SetupRoutes(engine *gin.Engine, allowedOrigin string) {
	engine.Use(CORS(allowedOrigin))

	// Health check endpoints
	engine.GET("/health", r.healthHandler)
	engine.GET("/.well-known/healthcheck.json", r.healthHandler)

	posts := engine.Group("/api/posts")
	posts.POST("/capture", r.captureHandler)
	posts.DELETE("/unlike", r.unlikeHandler)
	posts.GET("/status", r.statusHandler)
	posts.GET("/export", r.exportHandler)
}

func (r *Router) healthHandler(c *gin.Context) {
	if err := r.db.Health(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":  "unhealthy",
			"service": "likekeeper-api",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":  "OK",
		"service": "likekeeper-api",
	})
}
