package handlers

import (
	"net/http"

	"editify-backend/internal/aitask"

	"github.com/gin-gonic/gin"
)

type TasksHandler struct {
	runner *aitask.Runner
}

func NewTasksHandler(runner *aitask.Runner) *TasksHandler {
	return &TasksHandler{runner: runner}
}

// Start godoc
// @Summary     Start an AI operation
// @Description Runs a background or effect job on the asset. Progress is published on the asset's
// @Description realtime channel and can be polled from /tasks/{task_id}. Only one job runs per asset.
// @Tags        ai
// @Accept      json
// @Produce     json
// @Param       asset_id path string true "Asset ID (UUID)"
// @Param       request body aitask.Job true "Job"
// @Success     202 {object} aitask.Task
// @Failure     400 {object} models.ErrorResponse
// @Failure     404 {object} models.ErrorResponse
// @Failure     409 {object} models.ErrorResponse
// @Router      /assets/{asset_id}/ai [post]
func (h *TasksHandler) Start(c *gin.Context) {
	id, ok := uuidParam(c, "asset_id")
	if !ok {
		return
	}

	var job aitask.Job
	if err := c.ShouldBindJSON(&job); err != nil {
		badRequest(c, "invalid request body", err)
		return
	}

	task, err := h.runner.Start(id, job)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, task)
}

// Get godoc
// @Summary     AI task status
// @Tags        ai
// @Produce     json
// @Param       task_id path string true "Task ID (UUID)"
// @Success     200 {object} aitask.Task
// @Failure     404 {object} models.ErrorResponse
// @Router      /tasks/{task_id} [get]
func (h *TasksHandler) Get(c *gin.Context) {
	id, ok := uuidParam(c, "task_id")
	if !ok {
		return
	}
	task, err := h.runner.Get(id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

// Cancel godoc
// @Summary     Cancel an AI task
// @Description Aborts a running task without committing its result. Finished tasks are returned as is.
// @Tags        ai
// @Produce     json
// @Param       task_id path string true "Task ID (UUID)"
// @Success     200 {object} aitask.Task
// @Failure     404 {object} models.ErrorResponse
// @Router      /tasks/{task_id} [delete]
func (h *TasksHandler) Cancel(c *gin.Context) {
	id, ok := uuidParam(c, "task_id")
	if !ok {
		return
	}
	task, err := h.runner.Cancel(id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}
