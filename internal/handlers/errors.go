package handlers

import (
	"context"
	"errors"
	"net/http"

	"editify-backend/internal/aitask"
	"editify-backend/internal/edits"
	"editify-backend/internal/models"
	"editify-backend/internal/registry"
	"editify-backend/internal/render"
	"editify-backend/internal/services"
	"editify-backend/internal/supabase"

	"github.com/gin-gonic/gin"
)

type errorMapping struct {
	target error
	status int
	label  string
}

var errorMappings = []errorMapping{
	{registry.ErrAssetNotFound, http.StatusNotFound, "asset not found"},
	{aitask.ErrTaskNotFound, http.StatusNotFound, "task not found"},
	{supabase.ErrGalleryAssetNotFound, http.StatusNotFound, "gallery asset not found"},
	{registry.ErrMediaReleased, http.StatusGone, "media released"},
	{registry.ErrFileTooLarge, http.StatusRequestEntityTooLarge, "file too large"},
	{registry.ErrUnsupportedMediaKind, http.StatusUnsupportedMediaType, "unsupported media kind"},
	{edits.ErrPatchApplication, http.StatusUnprocessableEntity, "patch application failed"},
	{edits.ErrUnknownKind, http.StatusBadRequest, "unknown operation kind"},
	{edits.ErrInvalidPayload, http.StatusBadRequest, "invalid payload"},
	{aitask.ErrInvalidJob, http.StatusBadRequest, "invalid ai job"},
	{registry.ErrInvalidTab, http.StatusBadRequest, "invalid tab"},
	{registry.ErrAlreadyProcessing, http.StatusConflict, "asset is processing"},
	{render.ErrVideoExportUnsupported, http.StatusNotImplemented, "video export not supported"},
	{render.ErrExportFailed, http.StatusInternalServerError, "export failed"},
	{services.ErrBlobCorrupted, http.StatusBadGateway, "stored blob is corrupted"},
	{context.DeadlineExceeded, http.StatusGatewayTimeout, "request timed out"},
	{context.Canceled, http.StatusServiceUnavailable, "request cancelled"},
}

// statusFor maps a domain error to its HTTP status and short label.
func statusFor(err error) (int, string) {
	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			return m.status, m.label
		}
	}
	return http.StatusInternalServerError, "internal error"
}

func respondError(c *gin.Context, err error) {
	status, label := statusFor(err)
	_ = c.Error(err)
	c.JSON(status, models.ErrorResponse{Error: label, Message: err.Error()})
}

func badRequest(c *gin.Context, label string, err error) {
	resp := models.ErrorResponse{Error: label}
	if err != nil {
		resp.Message = err.Error()
	}
	c.JSON(http.StatusBadRequest, resp)
}
