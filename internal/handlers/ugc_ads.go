package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"dreamcut-backend/internal/logger"
	"dreamcut-backend/internal/models"
	"dreamcut-backend/internal/ugcads"
)

const (
	listCacheControl  = "public, s-maxage=30, stale-while-revalidate=60"
	multipartMemBytes = 32 << 20
)

type UGCAdHandler struct {
	service        *ugcads.Service
	maxUploadBytes int64
	log            *logger.Logger
}

func NewUGCAdHandler(service *ugcads.Service, maxUploadMB int, log *logger.Logger) *UGCAdHandler {
	if maxUploadMB <= 0 {
		maxUploadMB = 50
	}
	return &UGCAdHandler{
		service:        service,
		maxUploadBytes: int64(maxUploadMB) << 20,
		log:            log,
	}
}

// providerEcho is the diagnostic body returned instead of a 502 when the
// caller asked for echo=1.
type providerEcho struct {
	Error          string           `json:"error"`
	KieResponse    interface{}      `json:"kieResponse"`
	KiePayload     interface{}      `json:"kiePayload"`
	Attempts       []ugcads.Attempt `json:"attempts"`
	EnhancedPrompt string           `json:"enhancedPrompt"`
}

// Create godoc
// @Summary     Create a UGC ad
// @Description Validates the multipart form, uploads files, submits the video generation task and stores the request.
// @Tags        ugc-ads
// @Accept      multipart/form-data
// @Produce     json
// @Param       debug query string false "1 returns the assembled prompt without side effects"
// @Param       echo  query string false "1 includes the provider payload in the response"
// @Success     201 {object} models.CreateUGCAdResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     401 {object} models.ErrorResponse
// @Failure     500 {object} models.ErrorResponse
// @Failure     502 {object} models.ErrorResponse
// @Router      /api/ugc-ads [post]
func (h *UGCAdHandler) Create(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	form, err := h.parseForm(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "Invalid request data",
			Message: err.Error(),
		})
		return
	}
	in := ugcads.CreateInput{UserID: userID, Form: form}

	if c.Query("debug") == "1" {
		c.JSON(http.StatusOK, h.service.Preview(in))
		return
	}
	echo := c.Query("echo") == "1"

	result, err := h.service.Create(c.Request.Context(), in)
	if err != nil {
		h.writeError(c, err, echo)
		return
	}

	resp := models.CreateUGCAdResponse{
		Message: "UGC ad created successfully",
		UGCAd:   models.NewUGCAdResponse(result.Record),
		TaskID:  result.TaskID,
	}
	if echo {
		resp.EnhancedPrompt = result.EnhancedPrompt
		resp.KiePayload = result.Payload
	}
	c.JSON(http.StatusCreated, resp)
}

// parseForm accepts multipart bodies and, for clients without files,
// url-encoded ones.
func (h *UGCAdHandler) parseForm(c *gin.Context) (*ugcads.ParsedForm, error) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)
	err := c.Request.ParseMultipartForm(multipartMemBytes)
	switch {
	case err == nil:
		return ugcads.ParseForm(c.Request.MultipartForm), nil
	case errors.Is(err, http.ErrNotMultipart):
		if err := c.Request.ParseForm(); err != nil {
			return nil, err
		}
		return ugcads.NewParsedForm(c.Request.PostForm, nil), nil
	default:
		return nil, err
	}
}

func (h *UGCAdHandler) writeError(c *gin.Context, err error, echo bool) {
	var (
		validationErr  *ugcads.ValidationError
		providerErr    *ugcads.ProviderError
		persistenceErr *ugcads.PersistenceError
	)
	status := ugcads.HTTPStatus(err)

	switch {
	case errors.As(err, &validationErr):
		c.JSON(status, models.ErrorResponse{
			Error:   "Invalid request data",
			Details: validationErr.Details,
		})
	case errors.As(err, &providerErr):
		h.log.Warn("video generation rejected", "error", providerErr.Message, "attempts", len(providerErr.Attempts))
		if echo {
			var kieResponse interface{}
			if providerErr.Response != nil {
				kieResponse = providerErr.Response
			}
			c.JSON(http.StatusOK, providerEcho{
				Error:          providerErr.Message,
				KieResponse:    kieResponse,
				KiePayload:     providerErr.Payload,
				Attempts:       providerErr.Attempts,
				EnhancedPrompt: providerErr.EnhancedPrompt,
			})
			return
		}
		c.JSON(status, models.ErrorResponse{Error: providerErr.Message})
	case errors.As(err, &persistenceErr):
		h.log.Error("failed to persist ugc ad", "op", persistenceErr.Op, "error", persistenceErr.Err)
		c.JSON(status, models.ErrorResponse{Error: "Failed to create UGC ad"})
	default:
		h.log.Error("failed to create ugc ad", "error", err)
		c.JSON(status, models.ErrorResponse{Error: err.Error()})
	}
}

// List godoc
// @Summary     List UGC ads
// @Description Returns the caller's UGC ads, newest first.
// @Tags        ugc-ads
// @Produce     json
// @Param       status query string false "exact status filter"
// @Param       limit  query int    false "page size (default 50)"
// @Param       offset query int    false "rows to skip (default 0)"
// @Success     200 {object} models.UGCAdListResponse
// @Failure     401 {object} models.ErrorResponse
// @Failure     500 {object} models.ErrorResponse
// @Router      /api/ugc-ads [get]
func (h *UGCAdHandler) List(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	ads, err := h.service.List(c.Request.Context(), models.UGCAdListFilter{
		UserID: userID,
		Status: c.Query("status"),
		Limit:  queryInt(c, "limit", 50),
		Offset: queryInt(c, "offset", 0),
	})
	if err != nil {
		h.log.Error("failed to list ugc ads", "user_id", userID, "error", err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to fetch UGC ads"})
		return
	}

	resp := models.UGCAdListResponse{UGCAds: make([]models.UGCAdResponse, 0, len(ads))}
	for i := range ads {
		resp.UGCAds = append(resp.UGCAds, models.NewUGCAdResponse(&ads[i]))
	}
	c.Header("Cache-Control", listCacheControl)
	c.JSON(http.StatusOK, resp)
}

// queryInt returns def when the parameter is absent, malformed or negative.
func queryInt(c *gin.Context, key string, def int) int {
	raw := c.Query(key)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return def
	}
	return n
}
