package handlers

import (
	"fmt"
	"log/slog"
	"net/http"

	"editify-backend/internal/render"

	"github.com/gin-gonic/gin"
)

type RenderHandler struct {
	previewer *render.Previewer
	logger    *slog.Logger
}

func NewRenderHandler(previewer *render.Previewer, logger *slog.Logger) *RenderHandler {
	return &RenderHandler{previewer: previewer, logger: logger}
}

// Preview godoc
// @Summary     Render a preview
// @Description Renders the asset with its edit state fitted into the viewport and returns a PNG.
// @Description X-Render-Degraded is "true" when a stage failed and the unedited source was shown.
// @Tags        render
// @Produce     png
// @Param       asset_id path string true "Asset ID (UUID)"
// @Param       width query int false "Viewport width"
// @Param       height query int false "Viewport height"
// @Success     200 {file} binary
// @Failure     404 {object} models.ErrorResponse
// @Router      /assets/{asset_id}/preview [get]
func (h *RenderHandler) Preview(c *gin.Context) {
	id, ok := uuidParam(c, "asset_id")
	if !ok {
		return
	}
	vp, ok := viewportQuery(c)
	if !ok {
		return
	}

	res, err := h.previewer.Preview(c.Request.Context(), id, vp)
	if err != nil {
		respondError(c, err)
		return
	}
	data, err := render.EncodePNG(res)
	if err != nil {
		respondError(c, err)
		return
	}

	c.Header("X-Render-Degraded", fmt.Sprintf("%t", res.Degraded))
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "image/png", data)
}

// Canvas godoc
// @Summary     Preview canvas size
// @Tags        render
// @Produce     json
// @Param       asset_id path string true "Asset ID (UUID)"
// @Param       width query int false "Viewport width"
// @Param       height query int false "Viewport height"
// @Success     200 {object} render.Viewport
// @Failure     404 {object} models.ErrorResponse
// @Router      /assets/{asset_id}/canvas [get]
func (h *RenderHandler) Canvas(c *gin.Context) {
	id, ok := uuidParam(c, "asset_id")
	if !ok {
		return
	}
	vp, ok := viewportQuery(c)
	if !ok {
		return
	}
	size, err := h.previewer.CanvasSize(c.Request.Context(), id, vp)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, render.Viewport{Width: size.X, Height: size.Y})
}

// Resize godoc
// @Summary     Record the editor viewport
// @Description Previews requested without width and height use the last recorded viewport.
// @Tags        render
// @Accept      json
// @Produce     json
// @Param       request body render.Viewport true "Viewport"
// @Success     200 {object} render.Viewport
// @Failure     400 {object} models.ErrorResponse
// @Router      /viewport [put]
func (h *RenderHandler) Resize(c *gin.Context) {
	var vp render.Viewport
	if err := c.ShouldBindJSON(&vp); err != nil {
		badRequest(c, "invalid request body", err)
		return
	}
	if vp.IsZero() {
		badRequest(c, "invalid viewport", fmt.Errorf("width and height must be positive"))
		return
	}
	c.JSON(http.StatusOK, h.previewer.Resize(vp))
}

// Export godoc
// @Summary     Export the edited image
// @Description Renders the asset at natural resolution and downloads it as <prefix>-<name>.png.
// @Tags        render
// @Produce     png
// @Param       asset_id path string true "Asset ID (UUID)"
// @Success     200 {file} binary
// @Failure     404 {object} models.ErrorResponse
// @Failure     409 {object} models.ErrorResponse
// @Failure     501 {object} models.ErrorResponse
// @Router      /assets/{asset_id}/export [get]
func (h *RenderHandler) Export(c *gin.Context) {
	id, ok := uuidParam(c, "asset_id")
	if !ok {
		return
	}
	export, err := h.previewer.Export(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	h.logger.Info("asset exported", "asset_id", id, "filename", export.Filename, "bytes", len(export.Data))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.Filename))
	c.Data(http.StatusOK, "image/png", export.Data)
}
