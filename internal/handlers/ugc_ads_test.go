package handlers_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dreamcut-backend/internal/events"
	"dreamcut-backend/internal/handlers"
	"dreamcut-backend/internal/kie"
	"dreamcut-backend/internal/logger"
	"dreamcut-backend/internal/models"
	"dreamcut-backend/internal/ugcads"
)

type ugcFixture struct {
	router *gin.Engine
	repo   *fakeRepo
	store  *memStore
	gen    *scriptedGenerator
	userID uuid.UUID
}

func newUGCFixture(responses ...*kie.GenerateResponse) *ugcFixture {
	f := &ugcFixture{
		repo:   &fakeRepo{},
		store:  &memStore{},
		gen:    &scriptedGenerator{responses: responses},
		userID: uuid.New(),
	}
	svc := ugcads.NewService(f.repo, noAssets{}, f.store, f.gen, events.Nop(), ugcads.Options{
		QualityModel: "veo3",
		FastModel:    "veo3_fast",
		CallbackURL:  "https://api.test/api/kie/veo/callback",
	}, logger.Nop())
	h := handlers.NewUGCAdHandler(svc, 10, logger.Nop())

	f.router = newEngine()
	api := f.router.Group("/api", withUser(f.userID))
	api.POST("/ugc-ads", h.Create)
	api.GET("/ugc-ads", h.List)
	return f
}

func (f *ugcFixture) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func TestUGCAdHandler_Create(t *testing.T) {
	f := newUGCFixture(accepted("abc123"))
	req := multipartRequest(t, "/api/ugc-ads",
		map[string]string{"mode": "multi", "brand_name": "Acme", "brand_prompt": "Serum that glows"},
		map[string]string{"image1": "one.png", "image2": "two.png", "image3": "three.png"})

	w := f.do(req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var body struct {
		Message string                 `json:"message"`
		TaskID  string                 `json:"taskId"`
		UGCAd   map[string]interface{} `json:"ugcAd"`
		Payload interface{}            `json:"kiePayload"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "abc123", body.TaskID)
	assert.Equal(t, "pending", body.UGCAd["status"])
	assert.Equal(t, kie.GenerationTypeReference2Video, body.UGCAd["generation_type"])
	assert.Equal(t, f.userID.String(), body.UGCAd["user_id"])
	assert.Nil(t, body.Payload)
	assert.Len(t, f.store.objects, 3)
	require.Len(t, f.repo.ads, 1)
}

func TestUGCAdHandler_CreateEcho(t *testing.T) {
	f := newUGCFixture(accepted("abc123"))
	w := f.do(multipartRequest(t, "/api/ugc-ads?echo=1", map[string]string{"brand_prompt": "p"}, nil))

	require.Equal(t, http.StatusCreated, w.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.NotEmpty(t, body["enhancedPrompt"])
	payload := body["kiePayload"].(map[string]interface{})
	assert.Equal(t, "veo3", payload["model"])
	assert.Equal(t, kie.GenerationTypeText2Video, payload["generationType"])
}

func TestUGCAdHandler_CreateURLEncoded(t *testing.T) {
	f := newUGCFixture(accepted("t-form"))
	req := httptest.NewRequest(http.MethodPost, "/api/ugc-ads", bytesReader("brand_prompt=Glow+serum"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	w := f.do(req)
	assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())
}

func TestUGCAdHandler_CreateValidation(t *testing.T) {
	f := newUGCFixture()
	w := f.do(multipartRequest(t, "/api/ugc-ads", map[string]string{"duration": "abc", "emotional_tone": "300"}, nil))

	require.Equal(t, http.StatusBadRequest, w.Code)
	var body models.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "Invalid request data", body.Error)

	fields := map[string]bool{}
	for _, d := range body.Details {
		fields[d.Field] = true
	}
	assert.True(t, fields["brand_prompt"], body.Details)
	assert.True(t, fields["duration"], body.Details)
	assert.True(t, fields["emotional_tone"], body.Details)
	assert.Zero(t, f.gen.calls)
	assert.Empty(t, f.repo.ads)
}

func TestUGCAdHandler_CreateDebug(t *testing.T) {
	f := newUGCFixture()
	w := f.do(multipartRequest(t, "/api/ugc-ads?debug=1",
		map[string]string{"mode": "dual", "brand_prompt": "p"},
		map[string]string{"image1": "a.png"}))

	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, true, body["debug"])
	assert.Equal(t, kie.GenerationTypeFirstAndLastFrames, body["generationType"])
	assert.NotEmpty(t, body["enhancedPrompt"])
	assert.Empty(t, f.store.objects)
	assert.Zero(t, f.gen.calls)
	assert.Empty(t, f.repo.ads)
}

func TestUGCAdHandler_CreateUploadFailure(t *testing.T) {
	f := newUGCFixture(accepted("never"))
	f.store.failOn = "brand-logos"
	w := f.do(multipartRequest(t, "/api/ugc-ads", map[string]string{"brand_prompt": "p"}, map[string]string{"brand_logo": "logo.png"}))

	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "Failed to upload brand_logo")
	assert.Zero(t, f.gen.calls)
	assert.Empty(t, f.repo.ads)
}

func TestUGCAdHandler_CreateProviderFailure(t *testing.T) {
	f := newUGCFixture(refused(500, "busy"), refused(500, "still busy"))
	w := f.do(multipartRequest(t, "/api/ugc-ads", map[string]string{"brand_prompt": "p"}, nil))

	require.Equal(t, http.StatusBadGateway, w.Code)
	assert.JSONEq(t, `{"error":"still busy"}`, w.Body.String())
	assert.Equal(t, 2, f.gen.calls)
	assert.Empty(t, f.repo.ads)
}

func TestUGCAdHandler_CreateProviderFailureEcho(t *testing.T) {
	f := newUGCFixture(refused(500, "busy"), refused(422, "prompt rejected"))
	w := f.do(multipartRequest(t, "/api/ugc-ads?echo=1", map[string]string{"brand_prompt": "p"}, nil))

	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "prompt rejected", body["error"])
	assert.Equal(t, float64(422), body["kieResponse"].(map[string]interface{})["code"])
	assert.Equal(t, "veo3_fast", body["kiePayload"].(map[string]interface{})["model"])
	assert.Len(t, body["attempts"], 2)
	assert.NotEmpty(t, body["enhancedPrompt"])
}

func TestUGCAdHandler_CreatePersistenceFailure(t *testing.T) {
	f := newUGCFixture(accepted("t-1"))
	f.repo.insertErr = errors.New(`pq: duplicate key value violates unique constraint "ugc_ads_pkey"`)
	w := f.do(multipartRequest(t, "/api/ugc-ads", map[string]string{"brand_prompt": "p"}, nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"Failed to create UGC ad"}`, w.Body.String())
	assert.NotContains(t, w.Body.String(), "pq:")
}

func TestUGCAdHandler_CreateUnauthenticated(t *testing.T) {
	svc := ugcads.NewService(&fakeRepo{}, noAssets{}, &memStore{}, &scriptedGenerator{}, nil, ugcads.Options{}, logger.Nop())
	router := newEngine()
	router.POST("/api/ugc-ads", handlers.NewUGCAdHandler(svc, 10, logger.Nop()).Create)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, multipartRequest(t, "/api/ugc-ads", map[string]string{"brand_prompt": "p"}, nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Unauthorized")
}

func TestUGCAdHandler_List(t *testing.T) {
	f := newUGCFixture(accepted("t-1"))
	require.Equal(t, http.StatusCreated, f.do(multipartRequest(t, "/api/ugc-ads", map[string]string{"brand_prompt": "p"}, nil)).Code)

	w := f.do(httptest.NewRequest(http.MethodGet, "/api/ugc-ads?status=pending&limit=10&offset=20", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "public, s-maxage=30, stale-while-revalidate=60", w.Header().Get("Cache-Control"))

	assert.Equal(t, models.UGCAdListFilter{UserID: f.userID, Status: "pending", Limit: 10, Offset: 20}, f.repo.lastFilter)

	var body models.UGCAdListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.UGCAds, 1)
	assert.Equal(t, "t-1", body.UGCAds[0].KieTaskID)
}

func TestUGCAdHandler_ListDefaults(t *testing.T) {
	f := newUGCFixture()
	w := f.do(httptest.NewRequest(http.MethodGet, "/api/ugc-ads?limit=abc", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"ugcAds":[]}`, w.Body.String())
	assert.Equal(t, 50, f.repo.lastFilter.Limit)
	assert.Equal(t, 0, f.repo.lastFilter.Offset)
}
