package handlers

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"editify-backend/internal/models"
	"editify-backend/internal/registry"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// multipartOverhead is the slack allowed on top of the file ceiling for
// multipart boundaries and headers.
const multipartOverhead = 1 << 20

type AssetsHandler struct {
	reg    *registry.Registry
	logger *slog.Logger
}

func NewAssetsHandler(reg *registry.Registry, logger *slog.Logger) *AssetsHandler {
	return &AssetsHandler{reg: reg, logger: logger}
}

func summarize(reg *registry.Registry, a registry.Asset) models.AssetSummary {
	return models.AssetSummary{
		ID:          a.ID.String(),
		Name:        a.Name,
		Kind:        string(a.Kind),
		ContentType: a.ContentType,
		Size:        a.Size,
		Edited:      a.Edited,
		Processing:  reg.IsProcessing(a.ID),
		CreatedAt:   a.CreatedAt,
	}
}

func assetResponse(reg *registry.Registry, a registry.Asset) models.AssetResponse {
	return models.AssetResponse{AssetSummary: summarize(reg, a), State: a.State}
}

// Upload godoc
// @Summary     Upload an asset
// @Description Registers one image or video with a default edit state and makes it the active asset.
// @Description The declared content type is used when present, otherwise it is sniffed from the bytes.
// @Tags        assets
// @Accept      multipart/form-data
// @Produce     json
// @Param       file formData file true "Image or video"
// @Success     201 {object} models.AssetResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     413 {object} models.ErrorResponse
// @Failure     415 {object} models.ErrorResponse
// @Router      /assets [post]
func (h *AssetsHandler) Upload(c *gin.Context) {
	limit := h.reg.MaxUploadBytes()
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit+multipartOverhead)

	fh, err := c.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			respondError(c, &registry.FileTooLargeError{Limit: limit, Size: max(c.Request.ContentLength, limit+1)})
			return
		}
		badRequest(c, "no file uploaded", fmt.Errorf("provide the media in the %q form field: %w", "file", err))
		return
	}

	up := registry.Upload{
		Name:        fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
	}
	// Oversized files are rejected by the registry without reading them.
	if fh.Size <= limit {
		src, err := fh.Open()
		if err != nil {
			respondError(c, fmt.Errorf("failed to open file: %w", err))
			return
		}
		up.Data, err = io.ReadAll(src)
		src.Close()
		if err != nil {
			respondError(c, fmt.Errorf("failed to read file: %w", err))
			return
		}
		if up.ContentType == "" || up.ContentType == "application/octet-stream" {
			up.ContentType = mimetype.Detect(up.Data).String()
		}
	}

	id, err := h.reg.AddAsset(up)
	if err != nil {
		h.logger.Info("upload rejected", "name", up.Name, "content_type", up.ContentType, "size", up.Size, "error", err)
		respondError(c, err)
		return
	}
	asset, err := h.reg.Get(id)
	if err != nil {
		respondError(c, err)
		return
	}

	h.logger.Info("asset uploaded", "asset_id", id, "kind", asset.Kind, "size", asset.Size)
	c.JSON(http.StatusCreated, assetResponse(h.reg, asset))
}

// List godoc
// @Summary     List assets
// @Tags        assets
// @Produce     json
// @Success     200 {object} models.AssetListResponse
// @Router      /assets [get]
func (h *AssetsHandler) List(c *gin.Context) {
	assets := h.reg.List()
	resp := models.AssetListResponse{Assets: make([]models.AssetSummary, len(assets))}
	for i, a := range assets {
		resp.Assets[i] = summarize(h.reg, a)
	}
	c.JSON(http.StatusOK, resp)
}

// Get godoc
// @Summary     Get an asset with its current edit state
// @Tags        assets
// @Produce     json
// @Param       asset_id path string true "Asset ID (UUID)"
// @Success     200 {object} models.AssetResponse
// @Failure     404 {object} models.ErrorResponse
// @Router      /assets/{asset_id} [get]
func (h *AssetsHandler) Get(c *gin.Context) {
	id, ok := uuidParam(c, "asset_id")
	if !ok {
		return
	}
	asset, err := h.reg.Get(id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, assetResponse(h.reg, asset))
}

// Delete godoc
// @Summary     Remove an asset
// @Description Releases the media and its history. The selection moves to the first remaining asset.
// @Tags        assets
// @Param       asset_id path string true "Asset ID (UUID)"
// @Success     204
// @Failure     404 {object} models.ErrorResponse
// @Router      /assets/{asset_id} [delete]
func (h *AssetsHandler) Delete(c *gin.Context) {
	id, ok := uuidParam(c, "asset_id")
	if !ok {
		return
	}
	if err := h.reg.RemoveAsset(id); err != nil {
		respondError(c, err)
		return
	}
	h.logger.Info("asset removed", "asset_id", id)
	c.Status(http.StatusNoContent)
}

// GetSelection godoc
// @Summary     Active asset and panel tab
// @Tags        selection
// @Produce     json
// @Success     200 {object} registry.Selection
// @Router      /selection [get]
func (h *AssetsHandler) GetSelection(c *gin.Context) {
	c.JSON(http.StatusOK, h.reg.Selection())
}

// PutSelection godoc
// @Summary     Change the active asset and panel tab
// @Description Selecting an unknown asset leaves the selection unchanged.
// @Tags        selection
// @Accept      json
// @Produce     json
// @Param       request body models.SelectionRequest true "Selection"
// @Success     200 {object} registry.Selection
// @Failure     400 {object} models.ErrorResponse
// @Router      /selection [put]
func (h *AssetsHandler) PutSelection(c *gin.Context) {
	var req models.SelectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body", err)
		return
	}

	if req.Tab != nil {
		if err := h.reg.SetActiveTab(registry.Tab(*req.Tab)); err != nil {
			respondError(c, err)
			return
		}
	}
	h.reg.SetActive(uuid.MustParse(req.AssetID))
	c.JSON(http.StatusOK, h.reg.Selection())
}
