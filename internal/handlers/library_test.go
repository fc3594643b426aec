package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dreamcut-backend/internal/handlers"
	"dreamcut-backend/internal/logger"
	"dreamcut-backend/internal/models"
)

type fakeLister struct {
	items      []models.LibraryItem
	lastFilter models.LibraryListFilter
}

func (l *fakeLister) ListLibraryItems(_ context.Context, filter models.LibraryListFilter) ([]models.LibraryItem, error) {
	l.lastFilter = filter
	return l.items, nil
}

func getLibrary(l *fakeLister, userID uuid.UUID, target string) *httptest.ResponseRecorder {
	router := newEngine()
	router.GET("/api/library", withUser(userID), handlers.NewLibraryHandler(l, logger.Nop()).List)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
	return w
}

func TestLibraryHandler_Category(t *testing.T) {
	userID := uuid.New()
	contentID := uuid.New()
	l := &fakeLister{items: []models.LibraryItem{{
		ID:                 uuid.New(),
		UserID:             userID,
		ContentType:        models.ContentTypeUGCAds,
		ContentID:          contentID,
		DateAddedToLibrary: time.Now(),
	}}}

	w := getLibrary(l, userID, "/api/library?category=motions&page=3&limit=10")
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, models.LibraryCategories["motions"], l.lastFilter.ContentTypes)
	assert.Equal(t, 10, l.lastFilter.Limit)
	assert.Equal(t, 20, l.lastFilter.Offset)

	var body models.LibraryListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.LibraryItems, 1)
	assert.Equal(t, contentID.String(), body.LibraryItems[0].ContentID)
	assert.Equal(t, 3, body.Page)
}

func TestLibraryHandler_ContentTypeWins(t *testing.T) {
	l := &fakeLister{}
	w := getLibrary(l, uuid.New(), "/api/library?content_type=ugc_ads&category=visuals")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"ugc_ads"}, l.lastFilter.ContentTypes)
	assert.Equal(t, 24, l.lastFilter.Limit)
	assert.Equal(t, 0, l.lastFilter.Offset)
	assert.JSONEq(t, `{"libraryItems":[],"page":1,"limit":24}`, w.Body.String())
}

func TestLibraryHandler_LimitCapped(t *testing.T) {
	l := &fakeLister{}
	getLibrary(l, uuid.New(), "/api/library?limit=1000")
	assert.Equal(t, 100, l.lastFilter.Limit)
}

func TestLibraryHandler_InvalidCategory(t *testing.T) {
	w := getLibrary(&fakeLister{}, uuid.New(), "/api/library?category=holograms")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
