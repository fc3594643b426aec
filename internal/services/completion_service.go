package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"dreamcut-backend/internal/events"
	"dreamcut-backend/internal/kie"
	"dreamcut-backend/internal/logger"
	"dreamcut-backend/internal/models"
	"dreamcut-backend/internal/ugcads"
)

const (
	// ExtendThreshold is the requested duration (seconds) above which a
	// finished clip is extended once.
	ExtendThreshold = 8
	ExtendPrompt    = "Continue the story seamlessly with consistent style and pacing."

	downloadAttempts = 3
)

var (
	ErrMissingTaskID  = errors.New("missing taskId")
	ErrNoTaskOnRecord = errors.New("no KIE taskId on record")
)

type CompletionRepository interface {
	GetUGCAd(ctx context.Context, id, userID uuid.UUID) (*models.UGCAd, error)
	GetUGCAdByTaskID(ctx context.Context, taskID string) (*models.UGCAd, error)
	UpdateUGCAdStatus(ctx context.Context, id uuid.UUID, status string) error
	UpdateUGCAdCompletion(ctx context.Context, id uuid.UUID, c models.UGCAdCompletion) error
}

// TaskProvider is the subset of the KIE client used after submission.
type TaskProvider interface {
	RecordInfo(ctx context.Context, taskID string) (*kie.RecordInfoResponse, error)
	Get1080p(ctx context.Context, taskID string, index *int) (*kie.HDResponse, error)
	Extend(ctx context.Context, req kie.ExtendRequest) (*kie.GenerateResponse, error)
	Download(ctx context.Context, fileURL string) ([]byte, error)
	RetryWithBackoff(ctx context.Context, fn func() error, maxRetries int) error
}

// CompletionService archives finished generations into storage and moves
// ugc_ads rows to their terminal status. It is driven by the provider
// callback and by client polling.
type CompletionService struct {
	repo          CompletionRepository
	provider      TaskProvider
	store         ugcads.ObjectStore
	sink          events.Sink
	callbackURL   string
	archiveURLTTL time.Duration
	log           *logger.Logger
}

func NewCompletionService(
	repo CompletionRepository,
	provider TaskProvider,
	store ugcads.ObjectStore,
	sink events.Sink,
	callbackURL string,
	archiveURLTTL time.Duration,
	log *logger.Logger,
) *CompletionService {
	if sink == nil {
		sink = events.Nop()
	}
	if archiveURLTTL <= 0 {
		archiveURLTTL = 24 * time.Hour
	}
	return &CompletionService{
		repo:          repo,
		provider:      provider,
		store:         store,
		sink:          sink,
		callbackURL:   callbackURL,
		archiveURLTTL: archiveURLTTL,
		log:           log,
	}
}

// HandleCallback applies a provider callback. It returns models.ErrNotFound
// when no row matches the task.
func (s *CompletionService) HandleCallback(ctx context.Context, p kie.CallbackPayload) error {
	taskID := p.Data.TaskID
	if taskID == "" {
		return ErrMissingTaskID
	}

	ad, err := s.repo.GetUGCAdByTaskID(ctx, taskID)
	if err != nil {
		return err
	}
	log := s.log.With("ugc_ad_id", ad.ID, "task_id", taskID)

	if p.Code == 200 && settled(ad, taskID) {
		log.Info("task already archived, ignoring callback", "status", ad.Status)
		return nil
	}

	if p.Code != 200 {
		log.Warn("generation failed", "code", p.Code, "msg", p.Msg)
		err := s.repo.UpdateUGCAdCompletion(ctx, ad.ID, models.UGCAdCompletion{
			Status: models.StatusFailed,
			MetadataPatch: map[string]interface{}{
				"kie_callback": map[string]interface{}{"code": p.Code, "msg": p.Msg},
			},
		})
		if err != nil {
			return err
		}
		s.sink.Publish(ctx, events.New(events.UGCAdFailed, ad.UserID, events.FailedPayload(ad.ID, taskID, p.Msg)))
		return nil
	}

	callback := map[string]interface{}{
		"code":         p.Code,
		"msg":          p.Msg,
		"fallbackFlag": p.Data.FallbackFlag,
		"resolution":   nil,
		"originUrls":   nil,
	}
	var resultURLs []string
	if info := p.Data.Info; info != nil {
		resultURLs = info.ResultURLs
		if info.Resolution != "" {
			callback["resolution"] = info.Resolution
		}
		if len(info.OriginURLs) > 0 {
			callback["originUrls"] = info.OriginURLs
		}
	}

	_, err = s.complete(ctx, ad, taskID, p.Data.FallbackFlag, resultURLs, map[string]interface{}{"kie_callback": callback})
	return err
}

type StatusQuery struct {
	TaskID string
	UGCID  string
}

// PollStatus asks the provider for the task state and, once it succeeded,
// archives the video the same way the callback does. Lookups are scoped to
// the caller.
func (s *CompletionService) PollStatus(ctx context.Context, userID uuid.UUID, q StatusQuery) (*models.TaskStatusResponse, error) {
	ad, taskID, err := s.lookup(ctx, userID, q)
	if err != nil {
		return nil, err
	}
	log := s.log.With("ugc_ad_id", ad.ID, "task_id", taskID)

	if settled(ad, taskID) {
		return s.stored(ctx, ad), nil
	}

	info, err := s.provider.RecordInfo(ctx, taskID)
	if err != nil {
		log.Warn("record-info failed", "error", err)
		return &models.TaskStatusResponse{Status: "retry", Msg: "record-info error"}, nil
	}
	if info.Code != 200 || info.Data == nil {
		return &models.TaskStatusResponse{Status: "unknown", Msg: info.Msg}, nil
	}

	d := info.Data
	switch d.SuccessFlag {
	case 0:
		return &models.TaskStatusResponse{Status: "generating"}, nil
	case 1:
	default:
		if err := s.repo.UpdateUGCAdStatus(ctx, ad.ID, models.StatusFailed); err != nil {
			return nil, err
		}
		resp := &models.TaskStatusResponse{Status: models.StatusFailed, ErrorCode: d.ErrorCode}
		if d.ErrorMessage != nil {
			resp.ErrorMessage = *d.ErrorMessage
		}
		s.sink.Publish(ctx, events.New(events.UGCAdFailed, ad.UserID, events.FailedPayload(ad.ID, taskID, resp.ErrorMessage)))
		return resp, nil
	}

	var resultURLs []string
	if d.Response != nil {
		resultURLs = d.Response.ResultURLs
	}
	archived, err := s.complete(ctx, ad, taskID, d.FallbackFlag, resultURLs, map[string]interface{}{
		"polled":       true,
		"fallbackFlag": d.FallbackFlag,
	})
	if err != nil {
		return nil, err
	}
	return &models.TaskStatusResponse{
		Status:            models.StatusCompleted,
		GeneratedVideoURL: archived.URL,
		StoragePath:       archived.Path,
	}, nil
}

func (s *CompletionService) lookup(ctx context.Context, userID uuid.UUID, q StatusQuery) (*models.UGCAd, string, error) {
	if q.UGCID != "" {
		id, err := uuid.Parse(q.UGCID)
		if err != nil {
			return nil, "", models.ErrNotFound
		}
		ad, err := s.repo.GetUGCAd(ctx, id, userID)
		if err != nil {
			return nil, "", err
		}
		taskID := ad.TaskID()
		if taskID == "" {
			return nil, "", ErrNoTaskOnRecord
		}
		return ad, taskID, nil
	}

	if q.TaskID == "" {
		return nil, "", ErrMissingTaskID
	}
	ad, err := s.repo.GetUGCAdByTaskID(ctx, q.TaskID)
	if err != nil {
		return nil, "", err
	}
	if ad.UserID != userID {
		return nil, "", models.ErrNotFound
	}
	return ad, q.TaskID, nil
}

// settled reports whether the video produced by taskID is already in
// storage. Once the original clip is stored, later states of the row
// (extending, or the extension's own archive) supersede it.
func settled(ad *models.UGCAd, taskID string) bool {
	if !ad.Archived() {
		return false
	}
	if taskID == ad.TaskID() {
		return true
	}
	return ad.Status == models.StatusCompleted
}

// stored answers from the row, re-signing the archive so the URL is fresh.
func (s *CompletionService) stored(ctx context.Context, ad *models.UGCAd) *models.TaskStatusResponse {
	resp := &models.TaskStatusResponse{
		Status:            ad.Status,
		GeneratedVideoURL: ad.GeneratedVideoURL.String,
		StoragePath:       ad.StoragePath.String,
	}
	signed, err := s.store.SignedURL(ctx, ad.StoragePath.String, s.archiveURLTTL)
	if err != nil {
		s.log.Warn("failed to re-sign archived video", "ugc_ad_id", ad.ID, "path", ad.StoragePath.String, "error", err)
		return resp
	}
	resp.GeneratedVideoURL = signed
	return resp
}

type archivedVideo struct {
	URL  string
	Path string
}

func (s *CompletionService) complete(
	ctx context.Context,
	ad *models.UGCAd,
	taskID string,
	fallback bool,
	resultURLs []string,
	patch map[string]interface{},
) (archivedVideo, error) {
	var out archivedVideo

	if source := s.archivalURL(ctx, taskID, fallback, resultURLs); source != "" {
		path, err := s.archive(ctx, ad.UserID, source)
		if err != nil {
			return out, err
		}
		out.Path = path

		signed, err := s.store.SignedURL(ctx, path, s.archiveURLTTL)
		if err != nil {
			s.log.Warn("failed to sign archived video", "path", path, "error", err)
		}
		out.URL = signed
	}

	err := s.repo.UpdateUGCAdCompletion(ctx, ad.ID, models.UGCAdCompletion{
		Status:            models.StatusCompleted,
		GeneratedVideoURL: out.URL,
		StoragePath:       out.Path,
		MetadataPatch:     patch,
	})
	if err != nil {
		return out, err
	}
	s.sink.Publish(ctx, events.New(events.UGCAdCompleted, ad.UserID, events.CompletedPayload(ad.ID, taskID, out.Path)))

	// Extension results come back on their own task; only the original
	// task may trigger one, and only once.
	if taskID == ad.TaskID() && ad.ExtendTaskID() == "" && ad.RequestedDuration() > ExtendThreshold {
		s.extend(ctx, ad, taskID)
	}
	return out, nil
}

// archivalURL prefers the 1080p render unless the provider fell back to a
// model that has none.
func (s *CompletionService) archivalURL(ctx context.Context, taskID string, fallback bool, resultURLs []string) string {
	if !fallback {
		hd, err := s.provider.Get1080p(ctx, taskID, nil)
		if err == nil && hd.Code == 200 && hd.Data != nil && hd.Data.ResultURL != "" {
			return hd.Data.ResultURL
		}
		if err != nil {
			s.log.Debug("1080p unavailable", "task_id", taskID, "error", err)
		}
	}
	if len(resultURLs) > 0 {
		return resultURLs[0]
	}
	return ""
}

func (s *CompletionService) archive(ctx context.Context, userID uuid.UUID, source string) (string, error) {
	var data []byte
	err := s.provider.RetryWithBackoff(ctx, func() error {
		var err error
		data, err = s.provider.Download(ctx, source)
		return err
	}, downloadAttempts)
	if err != nil {
		return "", fmt.Errorf("failed to fetch video: %w", err)
	}

	path := fmt.Sprintf("renders/ugc-ads/%s/generated/%s.mp4", userID, uuid.New())
	if err := s.store.Upload(ctx, path, "video/mp4", bytes.NewReader(data)); err != nil {
		return "", fmt.Errorf("failed to archive video: %w", err)
	}
	return path, nil
}

// extend is best effort: the row stays completed if the provider refuses.
func (s *CompletionService) extend(ctx context.Context, ad *models.UGCAd, taskID string) {
	resp, err := s.provider.Extend(ctx, kie.ExtendRequest{
		TaskID:      taskID,
		Prompt:      ExtendPrompt,
		CallBackURL: s.callbackURL,
	})
	if err != nil || resp.Code != 200 {
		s.log.Warn("extend not accepted", "ugc_ad_id", ad.ID, "task_id", taskID, "error", err)
		return
	}

	extendTaskID := resp.TaskID()
	err = s.repo.UpdateUGCAdCompletion(ctx, ad.ID, models.UGCAdCompletion{
		Status:        models.StatusExtending,
		MetadataPatch: map[string]interface{}{"extend_task_id": extendTaskID},
	})
	if err != nil {
		s.log.Error("failed to mark ugc ad extending", "ugc_ad_id", ad.ID, "error", err)
		return
	}
	s.sink.Publish(ctx, events.New(events.UGCAdExtending, ad.UserID, events.ExtendingPayload(ad.ID, taskID, extendTaskID)))
}
