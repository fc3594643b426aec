package events

import (
	"context"
	"time"

	"github.com/google/uuid"

	"dreamcut-backend/internal/logger"
)

const (
	UGCAdSubmitted     = "ugc_ad.submitted"
	UGCAdCompleted     = "ugc_ad.completed"
	UGCAdFailed        = "ugc_ad.failed"
	UGCAdExtending     = "ugc_ad.extending"
	LibraryIndexFailed = "library_index.failed"
	UploadsOrphaned    = "uploads.orphaned"
)

// Event is a non-critical notification. Publishing never fails the caller.
type Event struct {
	Name    string                 `json:"event"`
	UserID  string                 `json:"user_id,omitempty"`
	Payload map[string]interface{} `json:"payload,omitempty"`
	At      time.Time              `json:"at"`
}

func New(name string, userID uuid.UUID, payload map[string]interface{}) Event {
	e := Event{Name: name, Payload: payload, At: time.Now().UTC()}
	if userID != uuid.Nil {
		e.UserID = userID.String()
	}
	return e
}

type Sink interface {
	Publish(ctx context.Context, e Event)
}

// LogSink writes every event through the structured logger. Failure events
// go out at warn level.
type LogSink struct {
	log *logger.Logger
}

func NewLogSink(log *logger.Logger) *LogSink {
	return &LogSink{log: log.With("service", "events")}
}

func (s *LogSink) Publish(_ context.Context, e Event) {
	kv := []interface{}{"event", e.Name, "user_id", e.UserID}
	for k, v := range e.Payload {
		kv = append(kv, k, v)
	}
	switch e.Name {
	case LibraryIndexFailed, UploadsOrphaned, UGCAdFailed:
		s.log.Warn("event", kv...)
	default:
		s.log.Info("event", kv...)
	}
}

// Multi fans an event out to every sink.
type Multi []Sink

func (m Multi) Publish(ctx context.Context, e Event) {
	for _, s := range m {
		if s != nil {
			s.Publish(ctx, e)
		}
	}
}

type nopSink struct{}

func (nopSink) Publish(context.Context, Event) {}

func Nop() Sink { return nopSink{} }

func SubmittedPayload(ugcAdID uuid.UUID, taskID, model string, fallbackUsed bool) map[string]interface{} {
	return map[string]interface{}{
		"ugc_ad_id":     ugcAdID.String(),
		"task_id":       taskID,
		"model":         model,
		"fallback_used": fallbackUsed,
	}
}

func LibraryIndexFailedPayload(contentType string, contentID uuid.UUID, err error) map[string]interface{} {
	return map[string]interface{}{
		"content_type": contentType,
		"content_id":   contentID.String(),
		"error":        err.Error(),
	}
}

func UploadsOrphanedPayload(paths []string, reason string) map[string]interface{} {
	return map[string]interface{}{
		"paths":  paths,
		"reason": reason,
	}
}

func CompletedPayload(ugcAdID uuid.UUID, taskID, storagePath string) map[string]interface{} {
	return map[string]interface{}{
		"ugc_ad_id":    ugcAdID.String(),
		"task_id":      taskID,
		"status":       "completed",
		"storage_path": storagePath,
	}
}

func FailedPayload(ugcAdID uuid.UUID, taskID, errorMsg string) map[string]interface{} {
	return map[string]interface{}{
		"ugc_ad_id": ugcAdID.String(),
		"task_id":   taskID,
		"status":    "failed",
		"error":     errorMsg,
	}
}

func ExtendingPayload(ugcAdID uuid.UUID, taskID, extendTaskID string) map[string]interface{} {
	return map[string]interface{}{
		"ugc_ad_id":      ugcAdID.String(),
		"task_id":        taskID,
		"status":         "extending",
		"extend_task_id": extendTaskID,
	}
}
