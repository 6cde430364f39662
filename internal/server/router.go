package server

import (
	"os"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/pagemarkhq/pagemark-backend/internal/handlers"
	"github.com/pagemarkhq/pagemark-backend/internal/middleware"
)

type RouterConfig struct {
	AuthHandler       *handlers.AuthHandler
	AuthMiddleware    *middleware.AuthMiddleware
	UserHandler       *handlers.UserHandler
	PdfHandler        *handlers.PdfHandler
	AnnotationHandler *handlers.AnnotationHandler
	DrawingHandler    *handlers.DrawingHandler
	SearchHandler     *handlers.SearchHandler
	DriveHandler      *handlers.DriveHandler
	TracingEnabled    bool
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	if cfg.TracingEnabled {
		router.Use(otelgin.Middleware("pagemark-backend"))
	}

	router.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins(),
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	// ===============
	// || Public    ||
	// ===============
	router.GET("/healthcheck", handlers.HealthCheck)
	router.POST("/register", cfg.AuthHandler.Register)
	router.POST("/login", cfg.AuthHandler.Login)

	// ===============
	// || Protected ||
	// ===============
	protected := router.Group("/api")
	protected.Use(cfg.AuthMiddleware.RequireAuth())
	// Auth
	protected.POST("/refresh", cfg.AuthHandler.Refresh)
	protected.POST("/logout", cfg.AuthHandler.Logout)
	// User
	protected.GET("/user", cfg.UserHandler.GetMe)
	// PDFs
	protected.POST("/pdfs", cfg.PdfHandler.Upload)
	protected.GET("/pdfs", cfg.PdfHandler.List)
	protected.GET("/pdfs/:id", cfg.PdfHandler.Get)
	protected.PATCH("/pdfs/:id", cfg.PdfHandler.Rename)
	protected.DELETE("/pdfs/:id", cfg.PdfHandler.Delete)
	protected.POST("/pdfs/:id/index", cfg.SearchHandler.IndexDocument)
	// Annotations
	protected.POST("/pdfs/:id/annotations", cfg.AnnotationHandler.Create)
	protected.GET("/pdfs/:id/annotations", cfg.AnnotationHandler.List)
	protected.DELETE("/annotations/:id", cfg.AnnotationHandler.Delete)
	// Drawings
	protected.POST("/pdfs/:id/drawings", cfg.DrawingHandler.Create)
	protected.GET("/pdfs/:id/drawings", cfg.DrawingHandler.List)
	protected.PATCH("/drawings/:id", cfg.DrawingHandler.Update)
	protected.DELETE("/drawings/:id", cfg.DrawingHandler.Delete)
	// Search
	protected.GET("/search", cfg.SearchHandler.SimpleSearch)
	protected.POST("/search/advanced", cfg.SearchHandler.AdvancedSearch)
	protected.GET("/search/suggestions", cfg.SearchHandler.Suggestions)
	// Drive
	protected.POST("/drive/sync", cfg.DriveHandler.Sync)

	return router
}

func allowedOrigins() []string {
	raw := os.Getenv("CORS_ALLOW_ORIGINS")
	if strings.TrimSpace(raw) == "" {
		raw = "http://localhost:3000,http://localhost:5173"
	}
	parts := strings.Split(raw, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			origins = append(origins, p)
		}
	}
	return origins
}
