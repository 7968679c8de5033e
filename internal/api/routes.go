package api

import (
	"github.com/JustJay7/kanzlei/internal/aktenzeichen"
	"github.com/JustJay7/kanzlei/internal/cache"
	"github.com/JustJay7/kanzlei/internal/config"
	"github.com/JustJay7/kanzlei/internal/repository"
	"github.com/JustJay7/kanzlei/internal/service"
	"github.com/JustJay7/kanzlei/internal/storage"
	"github.com/JustJay7/kanzlei/pkg/logger"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// SetupRoutes configures all application routes
func SetupRoutes(router *gin.Engine, db *gorm.DB, c cache.Cache, files *storage.FileStore, logger *logger.Logger, cfg *config.Config) {
	h := NewHandlers(db, c, logger)

	mandantenRepo := repository.NewSidecar(repository.NewTable(db, "mandanten"), files, "mandanten", logger, "name", "status")
	gegnerRepo := repository.NewSidecar(repository.NewTable(db, "gegner"), files, "gegner", logger, "name", "akten_id")
	mandanten := service.NewMandantenService(db, mandantenRepo)
	akten := service.NewAktenService(db, mandantenRepo, aktenzeichen.NewGenerator(db, cfg.AktenzeichenStart), files, logger)
	einstellungen := repository.NewTable(db, "einstellungen")

	records := NewRecordHandlers(akten, logger)

	api := router.Group("/api")
	{
		// Health check
		api.GET("/health", h.HealthCheck)

		// Cache stats
		api.GET("/cache/stats", h.CacheStats)

		// Master data and settings
		RegisterCRUD(api.Group("/mandanten"), cache.Wrap("mandanten", mandanten, c), logger)
		RegisterCRUD(api.Group("/dritte-beteiligte"), cache.Wrap("gegner", gegnerRepo, c), logger)
		RegisterCRUD(api.Group("/einstellungen"), cache.Wrap("einstellungen", einstellungen, c), logger)

		// Cases
		api.GET("/aktenzeichen/next", records.NextAktenzeichen)

		rg := api.Group("/records")
		RegisterCRUD(rg, cache.Wrap("akten", akten, c), logger)

		rg.GET("/:id/notes", records.ListNotes)
		rg.POST("/:id/notes", records.CreateNote)
		rg.PUT("/:id/notes/:noteId", records.UpdateNote)
		rg.DELETE("/:id/notes/:noteId", records.DeleteNote)

		rg.GET("/:id/tasks", records.ListTasks)
		rg.POST("/:id/tasks/:noteId/complete", records.CompleteTask)

		rg.GET("/:id/documents", records.ListDocuments)
		rg.POST("/:id/documents", records.CreateDocument)
		rg.DELETE("/:id/documents/:docId", records.DeleteDocument)

		rg.GET("/:id/balance", records.Balance)
	}
}
