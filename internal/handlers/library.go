package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"dreamcut-backend/internal/logger"
	"dreamcut-backend/internal/models"
)

const (
	defaultLibraryLimit = 24
	maxLibraryLimit     = 100
)

type LibraryLister interface {
	ListLibraryItems(ctx context.Context, filter models.LibraryListFilter) ([]models.LibraryItem, error)
}

type LibraryHandler struct {
	lister LibraryLister
	log    *logger.Logger
}

func NewLibraryHandler(lister LibraryLister, log *logger.Logger) *LibraryHandler {
	return &LibraryHandler{
		lister: lister,
		log:    log,
	}
}

// List godoc
// @Summary     List library items
// @Description Returns the caller's library index, newest first. content_type wins over category.
// @Tags        library
// @Produce     json
// @Param       content_type query string false "single content type"
// @Param       category     query string false "visuals, audios, motions or edit"
// @Param       page         query int    false "1-based page (default 1)"
// @Param       limit        query int    false "page size (default 24, max 100)"
// @Success     200 {object} models.LibraryListResponse
// @Failure     400 {object} models.ErrorResponse
// @Router      /api/library [get]
func (h *LibraryHandler) List(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	filter := models.LibraryListFilter{UserID: userID}
	if ct := c.Query("content_type"); ct != "" {
		filter.ContentTypes = []string{ct}
	} else if category := c.Query("category"); category != "" {
		types, known := models.LibraryCategories[category]
		if !known {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid category"})
			return
		}
		filter.ContentTypes = types
	}

	page := queryInt(c, "page", 1)
	if page < 1 {
		page = 1
	}
	limit := queryInt(c, "limit", defaultLibraryLimit)
	if limit < 1 {
		limit = defaultLibraryLimit
	}
	if limit > maxLibraryLimit {
		limit = maxLibraryLimit
	}
	filter.Limit = limit
	filter.Offset = (page - 1) * limit

	items, err := h.lister.ListLibraryItems(c.Request.Context(), filter)
	if err != nil {
		h.log.Error("failed to list library items", "user_id", userID, "error", err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to fetch library items"})
		return
	}

	resp := models.LibraryListResponse{
		LibraryItems: make([]models.LibraryItemResponse, 0, len(items)),
		Page:         page,
		Limit:        limit,
	}
	for _, item := range items {
		resp.LibraryItems = append(resp.LibraryItems, models.LibraryItemResponse{
			ID:                 item.ID.String(),
			ContentType:        item.ContentType,
			ContentID:          item.ContentID.String(),
			DateAddedToLibrary: item.DateAddedToLibrary,
			CreatedAt:          item.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, resp)
}
