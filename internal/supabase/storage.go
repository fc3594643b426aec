package supabase

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	storage "github.com/supabase-community/storage-go"
)

type StorageClient struct {
	client       *storage.Client
	bucket       string
	baseURL      string
	cacheControl string
}

func NewStorageClient(supabaseURL, serviceRoleKey, bucket string) (*StorageClient, error) {
	baseURL := strings.TrimSuffix(supabaseURL, "/")
	if baseURL == "" {
		return nil, fmt.Errorf("supabase url is required")
	}
	client := storage.NewClient(baseURL+"/storage/v1", serviceRoleKey, nil)

	return &StorageClient{
		client:       client,
		bucket:       bucket,
		baseURL:      baseURL,
		cacheControl: "3600",
	}, nil
}

// Upload writes body to path. Existing objects are never overwritten.
func (s *StorageClient) Upload(_ context.Context, path, contentType string, body io.Reader) error {
	upsert := false
	_, err := s.client.UploadFile(s.bucket, path, body, storage.FileOptions{
		ContentType:  &contentType,
		CacheControl: &s.cacheControl,
		Upsert:       &upsert,
	})
	if err != nil {
		return fmt.Errorf("failed to upload file: %w", err)
	}
	return nil
}

// SignedURL returns a time-limited URL for a private object.
func (s *StorageClient) SignedURL(_ context.Context, path string, ttl time.Duration) (string, error) {
	resp, err := s.client.CreateSignedUrl(s.bucket, path, int(ttl.Seconds()))
	if err != nil {
		return "", fmt.Errorf("failed to sign %s: %w", path, err)
	}
	if resp.SignedURL == "" {
		return "", fmt.Errorf("failed to sign %s: empty signed url", path)
	}
	return s.absolute(resp.SignedURL), nil
}

// absolute prefixes relative signed paths returned by older storage APIs.
func (s *StorageClient) absolute(signed string) string {
	if strings.HasPrefix(signed, "http://") || strings.HasPrefix(signed, "https://") {
		return signed
	}
	if !strings.HasPrefix(signed, "/") {
		signed = "/" + signed
	}
	if !strings.HasPrefix(signed, "/storage/v1") {
		signed = "/storage/v1" + signed
	}
	return s.baseURL + signed
}
