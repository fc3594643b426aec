package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"dreamcut-backend/internal/logger"
	"dreamcut-backend/internal/models"
	"dreamcut-backend/internal/services"
)

type StatusPoller interface {
	PollStatus(ctx context.Context, userID uuid.UUID, q services.StatusQuery) (*models.TaskStatusResponse, error)
}

type StatusHandler struct {
	poller StatusPoller
	log    *logger.Logger
}

func NewStatusHandler(poller StatusPoller, log *logger.Logger) *StatusHandler {
	return &StatusHandler{
		poller: poller,
		log:    log,
	}
}

// GetStatus godoc
// @Summary     Poll a generation task
// @Description Asks KIE for the task state and archives the video once it is ready.
// @Tags        ugc-ads
// @Produce     json
// @Param       taskId query string false "KIE task id"
// @Param       ugcId  query string false "UGC ad id"
// @Success     200 {object} models.TaskStatusResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     404 {object} models.ErrorResponse
// @Router      /api/kie/veo/status [get]
func (h *StatusHandler) GetStatus(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	q := services.StatusQuery{TaskID: c.Query("taskId"), UGCID: c.Query("ugcId")}
	if q.TaskID == "" && q.UGCID == "" {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "taskId or ugcId required"})
		return
	}

	resp, err := h.poller.PollStatus(c.Request.Context(), userID, q)
	switch {
	case errors.Is(err, models.ErrNotFound):
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "UGC ad not found"})
		return
	case errors.Is(err, services.ErrNoTaskOnRecord):
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "No KIE taskId on record"})
		return
	case err != nil:
		h.log.Error("failed to poll status", "user_id", userID, "task_id", q.TaskID, "ugc_id", q.UGCID, "error", err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, resp)
}
