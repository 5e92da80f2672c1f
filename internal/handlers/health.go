package handlers

import (
	"net/http"

	"editify-backend/internal/aitask"
	"editify-backend/internal/models"
	"editify-backend/internal/registry"
	"editify-backend/internal/render"

	"github.com/gin-gonic/gin"
)

type HealthHandler struct {
	reg     *registry.Registry
	runner  *aitask.Runner
	frames  *render.FrameGrabber
	gallery bool
}

func NewHealthHandler(reg *registry.Registry, runner *aitask.Runner, frames *render.FrameGrabber, gallery bool) *HealthHandler {
	return &HealthHandler{reg: reg, runner: runner, frames: frames, gallery: gallery}
}

// Health godoc
// @Summary     Health check
// @Description Returns the health status of the API and the optional integrations it has wired
// @Tags        health
// @Produce     json
// @Success     200 {object} models.HealthResponse
// @Router      /health [get]
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, models.HealthResponse{
		Status:     "ok",
		Assets:     h.reg.Len(),
		Processing: h.reg.Processing(),
		Tasks:      h.runner.Len(),
		Gallery:    h.gallery,
		FFmpeg:     h.frames.Available(),
	})
}
