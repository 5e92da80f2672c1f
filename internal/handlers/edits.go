package handlers

import (
	"net/http"

	"editify-backend/internal/edits"
	"editify-backend/internal/models"
	"editify-backend/internal/registry"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type EditsHandler struct {
	reg             *registry.Registry
	historyCapacity int
}

func NewEditsHandler(reg *registry.Registry, historyCapacity int) *EditsHandler {
	return &EditsHandler{reg: reg, historyCapacity: historyCapacity}
}

func (h *EditsHandler) respondState(c *gin.Context, id uuid.UUID, state edits.EditState) {
	entries, err := h.reg.History(id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.EditResponse{
		AssetID:      id.String(),
		State:        state,
		HistoryDepth: len(entries),
	})
}

// Commit godoc
// @Summary     Apply an edit operation
// @Description Applies one operation to the asset's edit state and records it in the undo history.
// @Description Operations sharing a gesture_id with the previous commit replace its history entry.
// @Tags        edits
// @Accept      json
// @Produce     json
// @Param       asset_id path string true "Asset ID (UUID)"
// @Param       request body models.EditRequest true "Operation"
// @Success     200 {object} models.EditResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     404 {object} models.ErrorResponse
// @Failure     422 {object} models.ErrorResponse
// @Router      /assets/{asset_id}/edits [post]
func (h *EditsHandler) Commit(c *gin.Context) {
	id, ok := uuidParam(c, "asset_id")
	if !ok {
		return
	}

	var req models.EditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body", err)
		return
	}

	patch, err := edits.Build(edits.Kind(req.Kind), req.Payload)
	if err != nil {
		respondError(c, err)
		return
	}

	state, err := h.reg.CommitGesture(id, req.GestureID, patch)
	if err != nil {
		respondError(c, err)
		return
	}
	h.respondState(c, id, state)
}

// Undo godoc
// @Summary     Undo the last edit
// @Description Restores the previous history entry. With a single entry the state is returned unchanged.
// @Tags        edits
// @Produce     json
// @Param       asset_id path string true "Asset ID (UUID)"
// @Success     200 {object} models.EditResponse
// @Failure     404 {object} models.ErrorResponse
// @Router      /assets/{asset_id}/undo [post]
func (h *EditsHandler) Undo(c *gin.Context) {
	id, ok := uuidParam(c, "asset_id")
	if !ok {
		return
	}
	state, err := h.reg.Undo(id)
	if err != nil {
		respondError(c, err)
		return
	}
	h.respondState(c, id, state)
}

// History godoc
// @Summary     Edit history
// @Tags        edits
// @Produce     json
// @Param       asset_id path string true "Asset ID (UUID)"
// @Success     200 {object} models.HistoryResponse
// @Failure     404 {object} models.ErrorResponse
// @Router      /assets/{asset_id}/history [get]
func (h *EditsHandler) History(c *gin.Context) {
	id, ok := uuidParam(c, "asset_id")
	if !ok {
		return
	}
	entries, err := h.reg.History(id)
	if err != nil {
		respondError(c, err)
		return
	}

	resp := models.HistoryResponse{
		AssetID:  id.String(),
		Capacity: h.historyCapacity,
		Entries:  make([]models.HistoryEntry, len(entries)),
	}
	for i, e := range entries {
		resp.Entries[i] = models.HistoryEntry{State: e.State, Timestamp: e.Timestamp}
	}
	c.JSON(http.StatusOK, resp)
}
