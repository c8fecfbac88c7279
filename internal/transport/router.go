package transport

import (
	"FileCollab/internal/service"
	"FileCollab/pkg/appError"
	"FileCollab/pkg/metrics"
	"FileCollab/pkg/ratelimit"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

type Services struct {
	Auth        service.AuthService
	Folders     service.FolderService
	Files       service.FileService
	Access      service.AccessService
	Annotations service.AnnotationService
	Shares      service.ShareService
}

type Handler struct {
	services    Services
	metrics     *metrics.Metrics
	limiter     *ratelimit.Limiter
	corsOrigins []string
	log         zerolog.Logger
}

func NewHandler(services Services, m *metrics.Metrics, limiter *ratelimit.Limiter, corsOrigins []string, log zerolog.Logger) *Handler {
	return &Handler{
		services:    services,
		metrics:     m,
		limiter:     limiter,
		corsOrigins: corsOrigins,
		log:         log,
	}
}

func (h *Handler) corsConfig() cors.Config {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", requestIDHeader},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition", requestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(h.corsOrigins) == 0 {
		cfg.AllowAllOrigins = true
		cfg.AllowCredentials = false
	} else {
		cfg.AllowOrigins = h.corsOrigins
	}
	return cfg
}

func (h *Handler) InitRouter() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), RequestLogger(h.log, h.metrics), cors.New(h.corsConfig()))
	router.NoRoute(func(c *gin.Context) {
		writeError(c, appError.NotFound("route not found"))
	})

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(h.metrics.Handler()))

	requireAuth := RequireAuth(h.services.Auth)
	optionalAuth := OptionalAuth(h.services.Auth)
	rateLimit := RateLimit(h.limiter)

	authHandler := NewAuthHandler(h.services.Auth)
	auth := router.Group("/api/auth")
	{
		auth.POST("/register", rateLimit, authHandler.Register)
		auth.POST("/login", rateLimit, authHandler.Login)
		auth.GET("/verify/:token", authHandler.VerifyEmail)
		auth.GET("/me", requireAuth, authHandler.Me)
		auth.PATCH("/me", requireAuth, authHandler.UpdateMe)
		auth.POST("/password", requireAuth, authHandler.ChangePassword)
	}

	folderHandler := NewFolderHandler(h.services.Folders, h.services.Access)
	folders := router.Group("/api/folders", requireAuth)
	{
		folders.POST("", folderHandler.Create)
		folders.GET("", folderHandler.List)
		folders.GET("/share/:folderId", folderHandler.Shared)
		folders.GET("/:folderId", folderHandler.Get)
		folders.PATCH("/:folderId", folderHandler.Update)
		folders.DELETE("/:folderId", folderHandler.Delete)
	}

	fileHandler := NewFileHandler(h.services.Files)
	shareHandler := NewShareHandler(h.services.Shares)
	annotationHandler := NewAnnotationHandler(h.services.Annotations)

	files := router.Group("/api/files")
	{
		files.GET("/document/:documentId", fileHandler.Metadata)

		owned := files.Group("", requireAuth)
		owned.POST("/upload", fileHandler.Upload)
		owned.GET("/user-files", fileHandler.List)
		owned.GET("/user-files/search", fileHandler.Search)
		owned.PATCH("/:fileId", fileHandler.UpdateDescription)
		owned.PATCH("/:fileId/move", fileHandler.Move)
		owned.GET("/:fileId/download", fileHandler.Download)
		owned.GET("/:fileId/versions", fileHandler.Versions)
		owned.POST("/:fileId/upload", fileHandler.UploadVersions)
		owned.DELETE("/:fileId", fileHandler.Delete)

		owned.POST("/share", shareHandler.Create)
		owned.DELETE("/share", shareHandler.Remove)
		owned.GET("/share/:type/:resourceId/emails", shareHandler.Emails)

		owned.PATCH("/document/:documentId/annotations/:annotationId/resolve", annotationHandler.Resolve)

		// guests may annotate, comment and approve
		open := files.Group("", optionalAuth, rateLimit)
		open.POST("/document/:documentId/annotations", annotationHandler.AddAnnotation)
		open.GET("/document/:documentId/annotations/:annotationId/comments", annotationHandler.GetComments)
		open.POST("/document/:documentId/annotations/:annotationId/comments", annotationHandler.AddComment)
		open.PUT("/document/:documentId/annotations/:annotationId/comments/:commentId", annotationHandler.UpdateComment)
		open.DELETE("/document/:documentId/annotations/:annotationId/comments/:commentId", annotationHandler.DeleteComment)
		open.POST("/documents/:documentId/approve", annotationHandler.Approve)
	}

	return router
}
