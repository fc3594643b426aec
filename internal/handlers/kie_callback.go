package handlers

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"dreamcut-backend/internal/kie"
	"dreamcut-backend/internal/logger"
	"dreamcut-backend/internal/models"
	"dreamcut-backend/internal/services"
)

type CallbackProcessor interface {
	HandleCallback(ctx context.Context, p kie.CallbackPayload) error
}

type KieCallbackHandler struct {
	processor CallbackProcessor
	token     string
	log       *logger.Logger
}

func NewKieCallbackHandler(processor CallbackProcessor, token string, log *logger.Logger) *KieCallbackHandler {
	return &KieCallbackHandler{
		processor: processor,
		token:     token,
		log:       log,
	}
}

// HandleCallback godoc
// @Summary     KIE Veo completion callback
// @Description Receives task completion from KIE, archives the video and updates the UGC ad.
// @Tags        webhooks
// @Accept      json
// @Produce     json
// @Param       token query string false "shared callback token"
// @Success     200 {object} map[string]interface{}
// @Failure     400 {object} models.ErrorResponse
// @Failure     401 {object} models.ErrorResponse
// @Failure     404 {object} models.ErrorResponse
// @Router      /api/kie/veo/callback [post]
func (h *KieCallbackHandler) HandleCallback(c *gin.Context) {
	if h.token != "" && subtle.ConstantTimeCompare([]byte(c.Query("token")), []byte(h.token)) != 1 {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "Unauthorized"})
		return
	}

	var payload kie.CallbackPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "failed to parse callback",
			Message: err.Error(),
		})
		return
	}

	log := h.log.With("task_id", payload.Data.TaskID, "code", payload.Code)
	err := h.processor.HandleCallback(c.Request.Context(), payload)
	switch {
	case errors.Is(err, services.ErrMissingTaskID):
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "Missing taskId"})
		return
	case errors.Is(err, models.ErrNotFound):
		log.Warn("callback for unknown task")
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "UGC ad not found for taskId"})
		return
	case err != nil:
		log.Error("failed to process callback", "error", err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: err.Error()})
		return
	}

	msg := "success"
	if payload.Code != 200 {
		msg = "ack"
	}
	c.JSON(http.StatusOK, gin.H{"code": 200, "msg": msg})
}
