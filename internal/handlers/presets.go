package handlers

import (
	"net/http"

	"editify-backend/internal/edits"
	"editify-backend/internal/models"
	"editify-backend/internal/registry"

	"github.com/gin-gonic/gin"
)

type PresetsHandler struct {
	maxUploadBytes int64
}

func NewPresetsHandler(maxUploadBytes int64) *PresetsHandler {
	return &PresetsHandler{maxUploadBytes: maxUploadBytes}
}

// GetPresets godoc
// @Summary     Editor catalogue
// @Description Lists filter presets, aspect ratios, background fills, effects, fonts, operation kinds and panel tabs
// @Tags        presets
// @Produce     json
// @Success     200 {object} models.PresetsResponse
// @Router      /presets [get]
func (h *PresetsHandler) GetPresets(c *gin.Context) {
	kinds := make([]string, len(edits.Kinds))
	for i, k := range edits.Kinds {
		kinds[i] = string(k)
	}
	tabs := make([]string, len(registry.Tabs))
	for i, t := range registry.Tabs {
		tabs[i] = string(t)
	}

	c.JSON(http.StatusOK, models.PresetsResponse{
		Filters:             edits.Presets,
		AspectRatios:        edits.AspectRatios,
		BackgroundPresets:   edits.BackgroundPresets,
		Effects:             edits.Effects,
		Fonts:               edits.Fonts,
		Kinds:               kinds,
		Tabs:                tabs,
		MaxUploadBytes:      h.maxUploadBytes,
		DefaultTextSize:     edits.DefaultTextSize,
		DefaultEffectWeight: edits.DefaultEffectIntensity,
	})
}
