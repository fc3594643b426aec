package models

import (
	"time"

	"github.com/google/uuid"
)

const ContentTypeUGCAds = "ugc_ads"

// LibraryItem is the denormalized pointer that lets the library view list
// heterogeneous content types without per-type queries.
type LibraryItem struct {
	ID                 uuid.UUID
	UserID             uuid.UUID
	ContentType        string
	ContentID          uuid.UUID
	DateAddedToLibrary time.Time
	CreatedAt          time.Time
}

type LibraryListFilter struct {
	UserID       uuid.UUID
	ContentTypes []string
	Limit        int
	Offset       int
}

// LibraryCategories groups content types for the library view.
var LibraryCategories = map[string][]string{
	"visuals": {"comics", "illustrations", "avatars", "product_mockups", "concept_worlds", "charts_infographics"},
	"audios":  {"voice_creations", "voiceovers", "music_jingles", "sound_fx"},
	"motions": {"explainers", "ugc_ads", "product_motion", "cinematic_clips", "social_cuts", "talking_avatars"},
	"edit":    {"subtitles", "sound_to_video", "watermarks", "video_translations"},
}

// ProductAsset is the projection of a product_mockups row used for prompts.
type ProductAsset struct {
	ID          uuid.UUID
	Title       string
	Description string
	ImageURL    string
	StoragePath string
}

// AvatarAsset is the projection of an avatars_personas row used for prompts.
type AvatarAsset struct {
	ID        uuid.UUID
	Name      string
	Ethnicity string
	Gender    string
}
