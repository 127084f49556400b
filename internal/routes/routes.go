package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	handler "picking-verification-backend/internal/handlers"
	"picking-verification-backend/internal/services/archive"
	"picking-verification-backend/internal/services/auth"
	service "picking-verification-backend/internal/services/reconciliation"
)

type Deps struct {
	Reconciliation *service.ReconciliationService
	Archive        *archive.ArchiveService
	Auth           *auth.AuthService
	MaxUploadSize  int64
	CookieSecure   bool
	Logger         *zap.Logger
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	reconHandler := handler.NewReconciliationHandler(d.Reconciliation, d.MaxUploadSize, d.Logger)
	authHandler := handler.NewAuthHandler(d.Auth, d.CookieSecure)
	adminHandler := handler.NewAdminHandler(d.Archive, d.Reconciliation)

	r.GET("/", handler.Index)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")

	// Health check
	api.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	picking := api.Group("/picking")
	picking.POST("/upload", reconHandler.Upload)
	picking.GET("/batches/:batchId", reconHandler.GetBatch)
	picking.POST("/batches/:batchId/decision", reconHandler.Decide)
	picking.GET("/batches/:batchId/conflicts.xlsx", reconHandler.DownloadConflicts)
	picking.GET("/store", reconHandler.Store)
	picking.GET("/store.xlsx", reconHandler.DownloadStore)

	authGroup := api.Group("/auth")
	authGroup.POST("/login", authHandler.Login)
	authGroup.POST("/logout", authHandler.Logout)

	admin := api.Group("/admin", handler.RequireAdmin(d.Auth))
	{
		admin.POST("/archive", adminHandler.Archive)
		admin.POST("/archive/resume", adminHandler.ResumeArchive)
		admin.DELETE("/pallets/:pallet", adminHandler.DeletePallet)
		admin.GET("/snapshots", adminHandler.Snapshots)
		admin.GET("/batches", adminHandler.ListBatches)
		admin.GET("/batches/:batchId/audit", adminHandler.AuditTrail)
	}
}
