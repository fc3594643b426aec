package kie

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	GenerationTypeText2Video         = "TEXT_2_VIDEO"
	GenerationTypeFirstAndLastFrames = "FIRST_AND_LAST_FRAMES_2_VIDEO"
	GenerationTypeReference2Video    = "REFERENCE_2_VIDEO"
)

type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	backoffs   []time.Duration
}

// GenerateRequest is the body of POST /api/v1/veo/generate.
type GenerateRequest struct {
	Prompt            string   `json:"prompt"`
	ImageURLs         []string `json:"imageUrls,omitempty"`
	Model             string   `json:"model"`
	GenerationType    string   `json:"generationType,omitempty"`
	AspectRatio       string   `json:"aspectRatio,omitempty"` // "16:9", "9:16", "Auto"
	Seeds             *int     `json:"seeds,omitempty"`
	CallBackURL       string   `json:"callBackUrl,omitempty"`
	EnableTranslation *bool    `json:"enableTranslation,omitempty"`
	Watermark         string   `json:"watermark,omitempty"`
}

// GenerateResponse is the envelope KIE returns for generate and extend.
// Code mirrors an HTTP status; anything other than 200 is a failure.
type GenerateResponse struct {
	Code int           `json:"code"`
	Msg  string        `json:"msg"`
	Data *GenerateData `json:"data,omitempty"`
}

type GenerateData struct {
	TaskID string `json:"taskId"`
}

// TaskID returns the task identifier or "" when the response carries none.
func (r *GenerateResponse) TaskID() string {
	if r == nil || r.Data == nil {
		return ""
	}
	return r.Data.TaskID
}

// RecordInfoResponse is returned by GET /api/v1/veo/record-info.
type RecordInfoResponse struct {
	Code int         `json:"code"`
	Msg  string      `json:"msg"`
	Data *RecordInfo `json:"data,omitempty"`
}

type RecordInfo struct {
	TaskID       string        `json:"taskId"`
	ParamJSON    string        `json:"paramJson,omitempty"`
	CompleteTime string        `json:"completeTime,omitempty"`
	Response     *TaskResponse `json:"response,omitempty"`
	SuccessFlag  int           `json:"successFlag"` // 0 generating, 1 success, 2/3 failed
	ErrorCode    *int          `json:"errorCode,omitempty"`
	ErrorMessage *string       `json:"errorMessage,omitempty"`
	CreateTime   string        `json:"createTime,omitempty"`
	FallbackFlag bool          `json:"fallbackFlag,omitempty"`
}

// TaskResponse lists the result videos of a finished task. The callback
// body carries the same shape under data.info.
type TaskResponse struct {
	TaskID     string   `json:"taskId,omitempty"`
	ResultURLs []string `json:"resultUrls,omitempty"`
	OriginURLs []string `json:"originUrls,omitempty"`
	Resolution string   `json:"resolution,omitempty"`
}

// CallbackPayload is the body KIE posts to callBackUrl when a task ends.
type CallbackPayload struct {
	Code int          `json:"code"`
	Msg  string       `json:"msg"`
	Data CallbackData `json:"data"`
}

type CallbackData struct {
	TaskID       string        `json:"taskId"`
	Info         *TaskResponse `json:"info,omitempty"`
	FallbackFlag bool          `json:"fallbackFlag"`
}

// HDResponse is returned by GET /api/v1/veo/get-1080p-video.
type HDResponse struct {
	Code int     `json:"code"`
	Msg  string  `json:"msg"`
	Data *HDData `json:"data,omitempty"`
}

type HDData struct {
	ResultURL string `json:"resultUrl,omitempty"`
}

type ExtendRequest struct {
	TaskID      string `json:"taskId"`
	Prompt      string `json:"prompt"`
	Seeds       *int   `json:"seeds,omitempty"`
	Watermark   string `json:"watermark,omitempty"`
	CallBackURL string `json:"callBackUrl,omitempty"`
}

// APIError is returned when KIE answers with a non-2xx HTTP status.
type APIError struct {
	StatusCode int
	Body       string
	Op         string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("KIE %s failed: HTTP %d, body: %s", e.Op, e.StatusCode, e.Body)
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		backoffs: []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second},
	}
}

// Generate submits a Veo generation task.
func (c *Client) Generate(ctx context.Context, reqBody GenerateRequest) (*GenerateResponse, error) {
	if reqBody.EnableTranslation == nil {
		enable := true
		reqBody.EnableTranslation = &enable
	}
	var result GenerateResponse
	if err := c.doJSON(ctx, "generate", http.MethodPost, c.baseURL+"/api/v1/veo/generate", reqBody, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// RecordInfo fetches the current state of a task.
func (c *Client) RecordInfo(ctx context.Context, taskID string) (*RecordInfoResponse, error) {
	params := url.Values{}
	params.Set("taskId", taskID)
	var result RecordInfoResponse
	if err := c.doJSON(ctx, "record-info", http.MethodGet, c.baseURL+"/api/v1/veo/record-info?"+params.Encode(), nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Get1080p asks for the 1080p rendition of a finished task. index selects a
// single video when the task produced several.
func (c *Client) Get1080p(ctx context.Context, taskID string, index *int) (*HDResponse, error) {
	params := url.Values{}
	params.Set("taskId", taskID)
	if index != nil {
		params.Set("index", strconv.Itoa(*index))
	}
	var result HDResponse
	if err := c.doJSON(ctx, "get-1080p", http.MethodGet, c.baseURL+"/api/v1/veo/get-1080p-video?"+params.Encode(), nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Extend continues a finished task with a follow-up segment.
func (c *Client) Extend(ctx context.Context, reqBody ExtendRequest) (*GenerateResponse, error) {
	var result GenerateResponse
	if err := c.doJSON(ctx, "extend", http.MethodPost, c.baseURL+"/api/v1/veo/extend", reqBody, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Download fetches a result video. Result URLs are public CDN links, so no
// auth header is sent.
func (c *Client) Download(ctx context.Context, fileURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &APIError{Op: "download", StatusCode: resp.StatusCode, Body: string(body)}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return data, nil
}

func (c *Client) doJSON(ctx context.Context, op, method, endpointURL string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		jsonData, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpointURL, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{Op: op, StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to decode response: %w, body: %s", err, string(respBody))
	}
	return nil
}

// RetryWithBackoff executes a function with exponential backoff retry logic
func (c *Client) RetryWithBackoff(ctx context.Context, fn func() error, maxRetries int) error {
	var lastErr error
	for i := 0; i < maxRetries; i++ {
		err := fn()
		if err == nil {
			return nil
		}

		lastErr = err
		if i < len(c.backoffs) && i < maxRetries-1 {
			select {
			case <-ctx.Done():
				return fmt.Errorf("retry aborted: %w", ctx.Err())
			case <-time.After(c.backoffs[i]):
			}
		}
	}

	return fmt.Errorf("failed after %d retries: %w", maxRetries, lastErr)
}

// AspectRatio maps the form's aspect ratio onto the values Veo accepts.
func AspectRatio(ratio string) string {
	switch ratio {
	case "16:9", "9:16":
		return ratio
	default:
		return "Auto"
	}
}
