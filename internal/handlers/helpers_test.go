package handlers_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"dreamcut-backend/internal/kie"
	"dreamcut-backend/internal/middleware"
	"dreamcut-backend/internal/models"
)

// withUser stands in for AuthMiddleware.
func withUser(userID uuid.UUID) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.UserIDKey, userID.String())
		c.Next()
	}
}

func newEngine() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}

func multipartRequest(t *testing.T, target string, fields map[string]string, files map[string]string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	for field, name := range files {
		part, err := w.CreateFormFile(field, name)
		require.NoError(t, err)
		_, err = part.Write([]byte("data-" + name))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, target, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

type fakeRepo struct {
	mu         sync.Mutex
	ads        []*models.UGCAd
	insertErr  error
	lastFilter models.UGCAdListFilter
}

func (r *fakeRepo) InsertUGCAd(_ context.Context, ad *models.UGCAd) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.insertErr != nil {
		return r.insertErr
	}
	ad.CreatedAt = time.Now()
	ad.UpdatedAt = ad.CreatedAt
	r.ads = append(r.ads, ad)
	return nil
}

func (r *fakeRepo) InsertLibraryItem(context.Context, *models.LibraryItem) error { return nil }

func (r *fakeRepo) ListUGCAds(_ context.Context, filter models.UGCAdListFilter) ([]models.UGCAd, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastFilter = filter
	out := make([]models.UGCAd, 0, len(r.ads))
	for _, ad := range r.ads {
		out = append(out, *ad)
	}
	return out, nil
}

type noAssets struct{}

func (noAssets) GetProduct(context.Context, uuid.UUID, uuid.UUID) (*models.ProductAsset, error) {
	return nil, nil
}

func (noAssets) GetAvatar(context.Context, uuid.UUID, uuid.UUID) (*models.AvatarAsset, error) {
	return nil, nil
}

type memStore struct {
	mu      sync.Mutex
	objects map[string]int
	failOn  string
}

func (s *memStore) Upload(_ context.Context, path, _ string, body io.Reader) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failOn != "" && bytes.Contains([]byte(path), []byte(s.failOn)) {
		return errors.New("bucket unavailable")
	}
	data, _ := io.ReadAll(body)
	if s.objects == nil {
		s.objects = map[string]int{}
	}
	s.objects[path] = len(data)
	return nil
}

func (s *memStore) SignedURL(_ context.Context, path string, _ time.Duration) (string, error) {
	return "https://signed.test/" + path, nil
}

type scriptedGenerator struct {
	mu        sync.Mutex
	responses []*kie.GenerateResponse
	calls     int
}

func (g *scriptedGenerator) Generate(context.Context, kie.GenerateRequest) (*kie.GenerateResponse, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	if len(g.responses) == 0 {
		return nil, errors.New("no scripted response")
	}
	r := g.responses[0]
	g.responses = g.responses[1:]
	return r, nil
}

func accepted(taskID string) *kie.GenerateResponse {
	return &kie.GenerateResponse{Code: 200, Msg: "success", Data: &kie.GenerateData{TaskID: taskID}}
}

func refused(code int, msg string) *kie.GenerateResponse {
	return &kie.GenerateResponse{Code: code, Msg: msg}
}

func bytesReader(s string) *bytes.Reader {
	return bytes.NewReader([]byte(s))
}
