package models

import (
	"encoding/json"
	"time"
)

type ErrorResponse struct {
	Error   string        `json:"error"`
	Message string        `json:"message,omitempty"`
	Details []FieldDetail `json:"details,omitempty"`
}

type FieldDetail struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type UGCAdResponse struct {
	ID                    string          `json:"id"`
	UserID                string          `json:"user_id"`
	Title                 string          `json:"title"`
	BrandName             string          `json:"brand_name"`
	BrandPrompt           string          `json:"brand_prompt"`
	ProductName           string          `json:"product_name,omitempty"`
	Mode                  string          `json:"mode"`
	AspectRatio           string          `json:"aspect_ratio"`
	Duration              int             `json:"duration"`
	Language              string          `json:"language"`
	EmotionalTone         *int64          `json:"emotional_tone,omitempty"`
	CharacterPresence     string          `json:"character_presence"`
	CharacterSource       string          `json:"character_source,omitempty"`
	CharacterDescription  string          `json:"character_description,omitempty"`
	PartialType           string          `json:"partial_type,omitempty"`
	TwoImageMode          string          `json:"two_image_mode,omitempty"`
	ProductID             string          `json:"product_id,omitempty"`
	AvatarID              string          `json:"avatar_id,omitempty"`
	DialogueScript        string          `json:"dialogue_script,omitempty"`
	DialogueVoiceType     string          `json:"dialogue_voice_type,omitempty"`
	DialogueTone          string          `json:"dialogue_tone,omitempty"`
	Template              string          `json:"template,omitempty"`
	SceneDescription      string          `json:"scene_description,omitempty"`
	CharacterDescriptions json.RawMessage `json:"character_descriptions,omitempty"`
	DialogueLines         json.RawMessage `json:"dialogue_lines,omitempty"`
	SceneScripts          json.RawMessage `json:"scene_scripts,omitempty"`
	BrandLogoPath         string          `json:"brand_logo_path,omitempty"`
	CustomProductPath     string          `json:"custom_product_image_path,omitempty"`
	ProductImagePath      string          `json:"product_image_path,omitempty"`
	CharacterImagePath    string          `json:"character_image_path,omitempty"`
	ImagePaths            json.RawMessage `json:"image_paths,omitempty"`
	GenerationType        string          `json:"generation_type"`
	Status                string          `json:"status"`
	KieTaskID             string          `json:"kie_task_id,omitempty"`
	GeneratedVideoURL     string          `json:"generated_video_url,omitempty"`
	StoragePath           string          `json:"storage_path,omitempty"`
	Metadata              json.RawMessage `json:"metadata,omitempty"`
	Content               json.RawMessage `json:"content,omitempty"`
	CreatedAt             time.Time       `json:"created_at"`
	UpdatedAt             time.Time       `json:"updated_at"`
}

func NewUGCAdResponse(a *UGCAd) UGCAdResponse {
	resp := UGCAdResponse{
		ID:                    a.ID.String(),
		UserID:                a.UserID.String(),
		Title:                 a.Title,
		BrandName:             a.BrandName,
		BrandPrompt:           a.BrandPrompt,
		ProductName:           a.ProductName.String,
		Mode:                  a.Mode,
		AspectRatio:           a.AspectRatio,
		Duration:              a.Duration,
		Language:              a.Language,
		CharacterPresence:     a.CharacterPresence,
		CharacterSource:       a.CharacterSource.String,
		CharacterDescription:  a.CharacterDescription.String,
		PartialType:           a.PartialType.String,
		TwoImageMode:          a.TwoImageMode.String,
		DialogueScript:        a.DialogueScript.String,
		DialogueVoiceType:     a.DialogueVoiceType.String,
		DialogueTone:          a.DialogueTone.String,
		Template:              a.Template.String,
		SceneDescription:      a.SceneDescription.String,
		CharacterDescriptions: a.CharacterDescriptions,
		DialogueLines:         a.DialogueLines,
		SceneScripts:          a.SceneScripts,
		BrandLogoPath:         a.BrandLogoPath.String,
		CustomProductPath:     a.CustomProductPath.String,
		ProductImagePath:      a.ProductImagePath.String,
		CharacterImagePath:    a.CharacterImagePath.String,
		ImagePaths:            a.ImagePaths,
		GenerationType:        a.GenerationType,
		Status:                a.Status,
		KieTaskID:             a.KieTaskID.String,
		GeneratedVideoURL:     a.GeneratedVideoURL.String,
		StoragePath:           a.StoragePath.String,
		Metadata:              a.Metadata,
		Content:               a.Content,
		CreatedAt:             a.CreatedAt,
		UpdatedAt:             a.UpdatedAt,
	}
	if a.EmotionalTone.Valid {
		v := a.EmotionalTone.Int64
		resp.EmotionalTone = &v
	}
	if a.ProductID.Valid {
		resp.ProductID = a.ProductID.UUID.String()
	}
	if a.AvatarID.Valid {
		resp.AvatarID = a.AvatarID.UUID.String()
	}
	return resp
}

type UGCAdListResponse struct {
	UGCAds []UGCAdResponse `json:"ugcAds"`
}

type CreateUGCAdResponse struct {
	Message        string        `json:"message"`
	UGCAd          UGCAdResponse `json:"ugcAd"`
	TaskID         string        `json:"taskId"`
	EnhancedPrompt string        `json:"enhancedPrompt,omitempty"`
	KiePayload     interface{}   `json:"kiePayload,omitempty"`
}

type LibraryItemResponse struct {
	ID                 string    `json:"id"`
	ContentType        string    `json:"content_type"`
	ContentID          string    `json:"content_id"`
	DateAddedToLibrary time.Time `json:"date_added_to_library"`
	CreatedAt          time.Time `json:"created_at"`
}

type LibraryListResponse struct {
	LibraryItems []LibraryItemResponse `json:"libraryItems"`
	Page         int                   `json:"page"`
	Limit        int                   `json:"limit"`
}

type TaskStatusResponse struct {
	Status            string `json:"status"`
	Msg               string `json:"msg,omitempty"`
	GeneratedVideoURL string `json:"generated_video_url,omitempty"`
	StoragePath       string `json:"storage_path,omitempty"`
	ErrorCode         *int   `json:"errorCode,omitempty"`
	ErrorMessage      string `json:"errorMessage,omitempty"`
}

type HealthResponse struct {
	Status string `json:"status"`
}
