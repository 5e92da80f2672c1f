package handlers

import (
	"log/slog"

	"editify-backend/internal/aitask"
	"editify-backend/internal/config"
	"editify-backend/internal/middleware"
	"editify-backend/internal/registry"
	"editify-backend/internal/render"
	"editify-backend/internal/services"

	"github.com/gin-gonic/gin"
)

// Dependencies wires the handlers. Gallery may be nil when Supabase is not
// configured.
type Dependencies struct {
	Config    *config.Config
	Registry  *registry.Registry
	Previewer *render.Previewer
	Frames    *render.FrameGrabber
	Runner    *aitask.Runner
	Gallery   *services.GalleryService
	Logger    *slog.Logger
}

func NewRouter(deps Dependencies) *gin.Engine {
	cfg := deps.Config

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(deps.Logger))
	// Files larger than this spill to disk while parsing.
	router.MaxMultipartMemory = 32 << 20

	healthHandler := NewHealthHandler(deps.Registry, deps.Runner, deps.Frames, deps.Gallery != nil)
	presetsHandler := NewPresetsHandler(deps.Registry.MaxUploadBytes())
	assetsHandler := NewAssetsHandler(deps.Registry, deps.Logger)
	editsHandler := NewEditsHandler(deps.Registry, cfg.HistoryCapacity)
	renderHandler := NewRenderHandler(deps.Previewer, deps.Logger)
	tasksHandler := NewTasksHandler(deps.Runner)
	galleryHandler := NewGalleryHandler(deps.Gallery, deps.Registry)

	router.GET("/health", healthHandler.Health)

	api := router.Group("/api/v1")
	api.GET("/health", healthHandler.Health)
	api.GET("/presets", presetsHandler.GetPresets)

	// Assets and selection
	api.POST("/assets", assetsHandler.Upload)
	api.GET("/assets", assetsHandler.List)
	api.GET("/assets/:asset_id", assetsHandler.Get)
	api.DELETE("/assets/:asset_id", assetsHandler.Delete)
	api.GET("/selection", assetsHandler.GetSelection)
	api.PUT("/selection", assetsHandler.PutSelection)

	// Edits and history
	api.POST("/assets/:asset_id/edits", editsHandler.Commit)
	api.POST("/assets/:asset_id/undo", editsHandler.Undo)
	api.GET("/assets/:asset_id/history", editsHandler.History)

	// Rendering
	api.GET("/assets/:asset_id/preview", renderHandler.Preview)
	api.GET("/assets/:asset_id/canvas", renderHandler.Canvas)
	api.GET("/assets/:asset_id/export", renderHandler.Export)
	api.PUT("/viewport", renderHandler.Resize)

	// AI tasks
	api.POST("/assets/:asset_id/ai", tasksHandler.Start)
	api.GET("/tasks/:task_id", tasksHandler.Get)
	api.DELETE("/tasks/:task_id", tasksHandler.Cancel)

	// Gallery requires a signed-in user. Without a gallery the routes stay
	// open and answer 503.
	gallery := api.Group("/gallery")
	if deps.Gallery != nil {
		gallery.Use(middleware.AuthMiddleware(cfg))
	}
	gallery.GET("", galleryHandler.List)
	gallery.POST("", galleryHandler.Save)
	gallery.POST("/:gallery_id/open", galleryHandler.Open)
	gallery.DELETE("/:gallery_id", galleryHandler.Delete)

	return router
}
