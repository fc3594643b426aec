package models

import (
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
	StatusExtending = "extending"
)

var ErrNotFound = errors.New("not found")

// UGCAd is a persisted UGC-ad generation request.
type UGCAd struct {
	ID                    uuid.UUID
	UserID                uuid.UUID
	Title                 string
	BrandName             string
	BrandPrompt           string
	ProductName           sql.NullString
	Mode                  string
	AspectRatio           string
	Duration              int
	Language              string
	EmotionalTone         sql.NullInt64
	CharacterPresence     string
	CharacterSource       sql.NullString
	CharacterDescription  sql.NullString
	PartialType           sql.NullString
	TwoImageMode          sql.NullString
	ProductID             uuid.NullUUID
	AvatarID              uuid.NullUUID
	DialogueScript        sql.NullString
	DialogueVoiceType     sql.NullString
	DialogueTone          sql.NullString
	Template              sql.NullString
	SceneDescription      sql.NullString
	CharacterDescriptions json.RawMessage
	DialogueLines         json.RawMessage
	SceneScripts          json.RawMessage
	BrandLogoPath         sql.NullString
	CustomProductPath     sql.NullString
	ProductImagePath      sql.NullString
	CharacterImagePath    sql.NullString
	ImagePaths            json.RawMessage
	GenerationType        string
	Status                string
	KieTaskID             sql.NullString
	GeneratedVideoURL     sql.NullString
	StoragePath           sql.NullString
	Metadata              json.RawMessage
	Content               json.RawMessage
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

type ugcAdMetadata struct {
	RequestedDuration float64 `json:"requested_duration"`
	ExtendTaskID      string  `json:"extend_task_id"`
}

func (a *UGCAd) metadata() ugcAdMetadata {
	var meta ugcAdMetadata
	if len(a.Metadata) > 0 {
		_ = json.Unmarshal(a.Metadata, &meta)
	}
	return meta
}

// RequestedDuration reads metadata.requested_duration, returning 0 when absent.
func (a *UGCAd) RequestedDuration() int {
	return int(a.metadata().RequestedDuration)
}

// ExtendTaskID is the provider task of the extension started for this row,
// if any.
func (a *UGCAd) ExtendTaskID() string {
	return a.metadata().ExtendTaskID
}

// Archived reports whether a finished video is already stored for the row.
func (a *UGCAd) Archived() bool {
	if !a.StoragePath.Valid || a.StoragePath.String == "" {
		return false
	}
	return a.Status == StatusCompleted || a.Status == StatusExtending
}

// TaskID is the provider task the row was submitted as. Older rows only
// carry it under content.kie.taskId.
func (a *UGCAd) TaskID() string {
	if a.KieTaskID.Valid && a.KieTaskID.String != "" {
		return a.KieTaskID.String
	}
	var content struct {
		Kie struct {
			TaskID string `json:"taskId"`
		} `json:"kie"`
	}
	if len(a.Content) == 0 || json.Unmarshal(a.Content, &content) != nil {
		return ""
	}
	return content.Kie.TaskID
}

// UGCAdListFilter scopes GET /api/ugc-ads. Rows returned are the inclusive
// range [Offset, Offset+Limit-1] of the user's rows, newest first.
type UGCAdListFilter struct {
	UserID uuid.UUID
	Status string
	Limit  int
	Offset int
}

// UGCAdCompletion carries the columns updated when a generation task
// finishes.
type UGCAdCompletion struct {
	Status            string
	GeneratedVideoURL string
	StoragePath       string
	MetadataPatch     map[string]interface{}
}
