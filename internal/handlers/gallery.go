package handlers

import (
	"net/http"

	"editify-backend/internal/middleware"
	"editify-backend/internal/models"
	"editify-backend/internal/registry"
	"editify-backend/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type GalleryHandler struct {
	gallery *services.GalleryService
	reg     *registry.Registry
}

// NewGalleryHandler accepts a nil service; every route then answers 503.
func NewGalleryHandler(gallery *services.GalleryService, reg *registry.Registry) *GalleryHandler {
	return &GalleryHandler{gallery: gallery, reg: reg}
}

func (h *GalleryHandler) user(c *gin.Context) (uuid.UUID, bool) {
	if h.gallery == nil {
		c.JSON(http.StatusServiceUnavailable, models.ErrorResponse{
			Error:   "gallery not configured",
			Message: "set SUPABASE_URL and DATABASE_URL to enable the gallery",
		})
		return uuid.Nil, false
	}
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "user id not found", Message: err.Error()})
		return uuid.Nil, false
	}
	return userID, true
}

// List godoc
// @Summary     List saved assets
// @Tags        gallery
// @Produce     json
// @Security    Bearer
// @Success     200 {object} models.GalleryListResponse
// @Failure     401 {object} models.ErrorResponse
// @Failure     503 {object} models.ErrorResponse
// @Router      /gallery [get]
func (h *GalleryHandler) List(c *gin.Context) {
	userID, ok := h.user(c)
	if !ok {
		return
	}
	items, err := h.gallery.List(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.GalleryListResponse{Items: items})
}

// Save godoc
// @Summary     Save an asset to the gallery
// @Description Stores the original bytes content-addressed and records the current edit state.
// @Tags        gallery
// @Accept      json
// @Produce     json
// @Security    Bearer
// @Param       request body models.SaveGalleryRequest true "Asset to save"
// @Success     201 {object} models.GalleryItem
// @Failure     400 {object} models.ErrorResponse
// @Failure     404 {object} models.ErrorResponse
// @Failure     409 {object} models.ErrorResponse
// @Router      /gallery [post]
func (h *GalleryHandler) Save(c *gin.Context) {
	userID, ok := h.user(c)
	if !ok {
		return
	}
	var req models.SaveGalleryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body", err)
		return
	}

	item, err := h.gallery.Save(c.Request.Context(), userID, uuid.MustParse(req.AssetID))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

// Open godoc
// @Summary     Open a saved asset
// @Description Downloads the saved media and registers it with its stored edit state as the active asset.
// @Tags        gallery
// @Produce     json
// @Security    Bearer
// @Param       gallery_id path string true "Gallery ID (UUID)"
// @Success     201 {object} models.OpenGalleryResponse
// @Failure     404 {object} models.ErrorResponse
// @Failure     422 {object} models.ErrorResponse
// @Router      /gallery/{gallery_id}/open [post]
func (h *GalleryHandler) Open(c *gin.Context) {
	userID, ok := h.user(c)
	if !ok {
		return
	}
	galleryID, ok := uuidParam(c, "gallery_id")
	if !ok {
		return
	}

	asset, err := h.gallery.Open(c.Request.Context(), userID, galleryID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, models.OpenGalleryResponse{
		GalleryID: galleryID.String(),
		Asset:     assetResponse(h.reg, asset),
	})
}

// Delete godoc
// @Summary     Delete a saved asset
// @Tags        gallery
// @Security    Bearer
// @Param       gallery_id path string true "Gallery ID (UUID)"
// @Success     204
// @Failure     404 {object} models.ErrorResponse
// @Router      /gallery/{gallery_id} [delete]
func (h *GalleryHandler) Delete(c *gin.Context) {
	userID, ok := h.user(c)
	if !ok {
		return
	}
	galleryID, ok := uuidParam(c, "gallery_id")
	if !ok {
		return
	}
	if err := h.gallery.Delete(c.Request.Context(), userID, galleryID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
