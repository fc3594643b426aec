package supabase

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStorageClient_RequiresURL(t *testing.T) {
	_, err := NewStorageClient("", "key", "dreamcut")
	assert.Error(t, err)
}

func TestStorageClient_Upload(t *testing.T) {
	var gotPath, gotBody, gotContentType string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotContentType = r.Header.Get("Content-Type")
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"Key":"dreamcut/renders/ugc-ads/u/a.png"}`))
	}))
	defer server.Close()

	client, err := NewStorageClient(server.URL, "service-key", "dreamcut")
	require.NoError(t, err)

	err = client.Upload(context.Background(), "renders/ugc-ads/u/a.png", "image/png", strings.NewReader("png-bytes"))
	require.NoError(t, err)

	assert.True(t, strings.HasSuffix(gotPath, "/object/dreamcut/renders/ugc-ads/u/a.png"), gotPath)
	assert.Equal(t, "image/png", gotContentType)
	assert.Equal(t, "png-bytes", gotBody)
}

func TestStorageClient_SignedURL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"signedURL":"/object/sign/dreamcut/a.png?token=abc"}`))
	}))
	defer server.Close()

	client, err := NewStorageClient(server.URL, "service-key", "dreamcut")
	require.NoError(t, err)

	url, err := client.SignedURL(context.Background(), "a.png", time.Hour)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, server.URL), url)
	assert.Contains(t, url, "/object/sign/dreamcut/a.png?token=abc")
}

func TestStorageClient_Absolute(t *testing.T) {
	s := &StorageClient{baseURL: "https://proj.supabase.co"}

	assert.Equal(t, "https://cdn.example/x", s.absolute("https://cdn.example/x"))
	assert.Equal(t, "https://proj.supabase.co/storage/v1/object/sign/b/x", s.absolute("/object/sign/b/x"))
	assert.Equal(t, "https://proj.supabase.co/storage/v1/object/sign/b/x", s.absolute("object/sign/b/x"))
	assert.Equal(t, "https://proj.supabase.co/storage/v1/object/sign/b/x", s.absolute("/storage/v1/object/sign/b/x"))
}
