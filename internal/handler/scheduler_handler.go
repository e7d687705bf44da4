package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/conghuan0502/planzaa-api/pkg/jobs"
	"github.com/conghuan0502/planzaa-api/pkg/response"
)

// SchedulerHandler exposes the reminder scheduler's state.
type SchedulerHandler struct {
	runner *jobs.Runner
}

// NewSchedulerHandler constructs a scheduler handler.
func NewSchedulerHandler(runner *jobs.Runner) *SchedulerHandler {
	return &SchedulerHandler{runner: runner}
}

// Status godoc
// @Summary Scheduler status
// @Description Reports whether the reminder scheduler is running and which cadences are active
// @Tags Operations
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /scheduler/status [get]
func (h *SchedulerHandler) Status(c *gin.Context) {
	if h.runner == nil {
		response.JSON(c, http.StatusOK, jobs.Status{Running: false}, nil)
		return
	}
	response.JSON(c, http.StatusOK, h.runner.Status(), nil)
}
