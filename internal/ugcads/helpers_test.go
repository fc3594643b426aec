package ugcads_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime/multipart"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"dreamcut-backend/internal/events"
	"dreamcut-backend/internal/kie"
	"dreamcut-backend/internal/models"
	"dreamcut-backend/internal/ugcads"
)

type formFile struct {
	field, filename, content string
}

// buildForm encodes fields and files as a real multipart body and parses it
// back, so file headers carry sizes and content types.
func buildForm(t *testing.T, fields [][2]string, files ...formFile) *ugcads.ParsedForm {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, f := range fields {
		require.NoError(t, w.WriteField(f[0], f[1]))
	}
	for _, f := range files {
		part, err := w.CreateFormFile(f.field, f.filename)
		require.NoError(t, err)
		_, err = part.Write([]byte(f.content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	form, err := multipart.NewReader(&buf, w.Boundary()).ReadForm(32 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { _ = form.RemoveAll() })
	return ugcads.ParseForm(form)
}

func fields(kv ...string) [][2]string {
	out := make([][2]string, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		out = append(out, [2]string{kv[i], kv[i+1]})
	}
	return out
}

func hasDetail(details []models.FieldDetail, field string) bool {
	for _, d := range details {
		if d.Field == field {
			return true
		}
	}
	return false
}

type fakeStore struct {
	mu         sync.Mutex
	uploads    map[string]string
	uploadErr  map[string]error // keyed by path substring
	signErr    map[string]error // keyed by path substring
	signCalls  int
	uploadCall int
}

func newFakeStore() *fakeStore {
	return &fakeStore{uploads: map[string]string{}, uploadErr: map[string]error{}, signErr: map[string]error{}}
}

func (s *fakeStore) Upload(_ context.Context, path, _ string, body io.Reader) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.uploadCall++
	for frag, err := range s.uploadErr {
		if strings.Contains(path, frag) {
			return err
		}
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	s.uploads[path] = string(data)
	return nil
}

func (s *fakeStore) SignedURL(_ context.Context, path string, ttl time.Duration) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.signCalls++
	for frag, err := range s.signErr {
		if strings.Contains(path, frag) {
			return "", err
		}
	}
	return "https://signed.test/" + path, nil
}

func (s *fakeStore) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.uploadCall + s.signCalls
}

type fakeRepo struct {
	mu         sync.Mutex
	ads        []*models.UGCAd
	items      []*models.LibraryItem
	insertErr  error
	libraryErr error
	lastFilter models.UGCAdListFilter
	calls      int
}

func (r *fakeRepo) InsertUGCAd(_ context.Context, ad *models.UGCAd) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if r.insertErr != nil {
		return r.insertErr
	}
	ad.CreatedAt = time.Now()
	ad.UpdatedAt = ad.CreatedAt
	r.ads = append(r.ads, ad)
	return nil
}

func (r *fakeRepo) InsertLibraryItem(_ context.Context, item *models.LibraryItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if r.libraryErr != nil {
		return r.libraryErr
	}
	r.items = append(r.items, item)
	return nil
}

func (r *fakeRepo) ListUGCAds(_ context.Context, filter models.UGCAdListFilter) ([]models.UGCAd, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	r.lastFilter = filter
	out := make([]models.UGCAd, 0, len(r.ads))
	for _, ad := range r.ads {
		out = append(out, *ad)
	}
	return out, nil
}

type fakeAssets struct {
	product *models.ProductAsset
	avatar  *models.AvatarAsset
	err     error
	calls   int
	mu      sync.Mutex
}

func (a *fakeAssets) GetProduct(context.Context, uuid.UUID, uuid.UUID) (*models.ProductAsset, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.calls++
	return a.product, a.err
}

func (a *fakeAssets) GetAvatar(context.Context, uuid.UUID, uuid.UUID) (*models.AvatarAsset, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.calls++
	return a.avatar, a.err
}

type genResult struct {
	resp *kie.GenerateResponse
	err  error
}

type fakeGenerator struct {
	results  []genResult
	payloads []kie.GenerateRequest
}

func (g *fakeGenerator) Generate(_ context.Context, req kie.GenerateRequest) (*kie.GenerateResponse, error) {
	g.payloads = append(g.payloads, req)
	if len(g.results) == 0 {
		return nil, errors.New("no scripted response")
	}
	r := g.results[0]
	g.results = g.results[1:]
	return r.resp, r.err
}

func ok(taskID string) genResult {
	return genResult{resp: &kie.GenerateResponse{Code: 200, Msg: "success", Data: &kie.GenerateData{TaskID: taskID}}}
}

func rejected(code int, msg string) genResult {
	return genResult{resp: &kie.GenerateResponse{Code: code, Msg: msg}}
}

type recordingSink struct {
	mu  sync.Mutex
	got []events.Event
}

func (r *recordingSink) Publish(_ context.Context, e events.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.got = append(r.got, e)
}

func (r *recordingSink) find(name string) *events.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.got {
		if r.got[i].Name == name {
			return &r.got[i]
		}
	}
	return nil
}

func (r *recordingSink) names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.got))
	for _, e := range r.got {
		out = append(out, e.Name)
	}
	return out
}
