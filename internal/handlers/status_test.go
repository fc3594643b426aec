package handlers_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dreamcut-backend/internal/handlers"
	"dreamcut-backend/internal/logger"
	"dreamcut-backend/internal/models"
	"dreamcut-backend/internal/services"
)

type fakePoller struct {
	resp      *models.TaskStatusResponse
	err       error
	lastUser  uuid.UUID
	lastQuery services.StatusQuery
}

func (p *fakePoller) PollStatus(_ context.Context, userID uuid.UUID, q services.StatusQuery) (*models.TaskStatusResponse, error) {
	p.lastUser, p.lastQuery = userID, q
	return p.resp, p.err
}

func getStatus(p *fakePoller, userID uuid.UUID, target string) *httptest.ResponseRecorder {
	router := newEngine()
	router.GET("/api/kie/veo/status", withUser(userID), handlers.NewStatusHandler(p, logger.Nop()).GetStatus)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
	return w
}

func TestStatusHandler_Completed(t *testing.T) {
	userID := uuid.New()
	p := &fakePoller{resp: &models.TaskStatusResponse{Status: "completed", GeneratedVideoURL: "https://signed/v.mp4", StoragePath: "renders/v.mp4"}}

	w := getStatus(p, userID, "/api/kie/veo/status?taskId=task-1")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"completed","generated_video_url":"https://signed/v.mp4","storage_path":"renders/v.mp4"}`, w.Body.String())
	assert.Equal(t, userID, p.lastUser)
	assert.Equal(t, services.StatusQuery{TaskID: "task-1"}, p.lastQuery)
}

func TestStatusHandler_Retry(t *testing.T) {
	p := &fakePoller{resp: &models.TaskStatusResponse{Status: "retry", Msg: "record-info error"}}
	w := getStatus(p, uuid.New(), "/api/kie/veo/status?ugcId="+uuid.NewString())

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"retry","msg":"record-info error"}`, w.Body.String())
}

func TestStatusHandler_Errors(t *testing.T) {
	tests := []struct {
		name   string
		target string
		err    error
		status int
	}{
		{"no identifier", "/api/kie/veo/status", nil, http.StatusBadRequest},
		{"not found", "/api/kie/veo/status?taskId=other", models.ErrNotFound, http.StatusNotFound},
		{"no task on record", "/api/kie/veo/status?ugcId=x", services.ErrNoTaskOnRecord, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := getStatus(&fakePoller{err: tt.err}, uuid.New(), tt.target)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
		})
	}
}
