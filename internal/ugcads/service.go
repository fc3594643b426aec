package ugcads

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"dreamcut-backend/internal/events"
	"dreamcut-backend/internal/kie"
	"dreamcut-backend/internal/logger"
	"dreamcut-backend/internal/models"
)

// Repository is the ugc_ads / library_items persistence the pipeline writes to.
type Repository interface {
	InsertUGCAd(ctx context.Context, ad *models.UGCAd) error
	InsertLibraryItem(ctx context.Context, item *models.LibraryItem) error
	ListUGCAds(ctx context.Context, filter models.UGCAdListFilter) ([]models.UGCAd, error)
}

type Options struct {
	QualityModel string
	FastModel    string
	CallbackURL  string
	SignedURLTTL time.Duration
}

type Service struct {
	repo      Repository
	assets    AssetStore
	store     ObjectStore
	submitter *Submitter
	events    events.Sink
	opts      Options
	log       *logger.Logger
}

func NewService(repo Repository, assets AssetStore, store ObjectStore, generator VideoGenerator, sink events.Sink, opts Options, log *logger.Logger) *Service {
	if opts.SignedURLTTL <= 0 {
		opts.SignedURLTTL = time.Hour
	}
	if sink == nil {
		sink = events.Nop()
	}
	log = log.With("service", "UGCAdService")
	return &Service{
		repo:      repo,
		assets:    assets,
		store:     store,
		submitter: NewSubmitter(generator, opts.QualityModel, opts.FastModel, log),
		events:    sink,
		opts:      opts,
		log:       log,
	}
}

type CreateInput struct {
	UserID uuid.UUID
	Form   *ParsedForm
}

type CreateResult struct {
	Record         *models.UGCAd
	TaskID         string
	EnhancedPrompt string
	Payload        kie.GenerateRequest
}

// Create runs validation, asset resolution, uploads, prompt assembly,
// submission and persistence in order. Each stage's failure maps to one
// of the typed errors in errors.go.
func (s *Service) Create(ctx context.Context, in CreateInput) (*CreateResult, error) {
	req, err := Normalize(in.Form)
	if err != nil {
		return nil, err
	}

	assets := resolveAssets(ctx, s.assets, s.log, in.UserID, req)

	uploads, err := uploadAll(ctx, s.store, in.UserID, in.Form)
	if err != nil {
		s.log.Error("upload failed", "user_id", in.UserID, "error", err)
		s.reportOrphans(ctx, in.UserID, uploads, "upload failed")
		return nil, err
	}

	refs := SelectImages(req.Mode, uploads, assets.Product)
	imageURLs := signImages(ctx, s.store, refs, s.opts.SignedURLTTL, func(ref ImageRef, err error) {
		s.log.Warn("failed to sign reference image, omitting it", "field", ref.Field, "path", ref.Path, "error", err)
	})

	prompt := BuildPrompt(NewPromptInput(req, assets))
	payload := kie.GenerateRequest{
		Prompt:         prompt,
		ImageURLs:      imageURLs,
		GenerationType: GenerationType(req.Mode, len(imageURLs)),
		AspectRatio:    kie.AspectRatio(req.AspectRatio),
		CallBackURL:    s.opts.CallbackURL,
	}

	sub, err := s.submitter.Submit(ctx, payload)
	if err != nil {
		if perr, ok := err.(*ProviderError); ok {
			perr.EnhancedPrompt = prompt
		}
		s.reportOrphans(ctx, in.UserID, uploads, "provider submission failed")
		return nil, err
	}
	payload.Model = sub.Model

	record, err := buildRecord(in.UserID, req, assets, uploads, payload, sub)
	if err != nil {
		s.reportOrphans(ctx, in.UserID, uploads, "record encoding failed")
		return nil, &PersistenceError{Op: "encode ugc ad", Err: err}
	}
	if err := s.repo.InsertUGCAd(ctx, record); err != nil {
		s.log.Error("failed to insert ugc ad", "user_id", in.UserID, "task_id", sub.TaskID, "error", err)
		s.reportOrphans(ctx, in.UserID, uploads, "ugc_ads insert failed")
		return nil, &PersistenceError{Op: "create UGC ad", Err: err}
	}

	s.indexInLibrary(ctx, record)

	s.events.Publish(ctx, events.New(events.UGCAdSubmitted, in.UserID,
		events.SubmittedPayload(record.ID, sub.TaskID, sub.Model, sub.FallbackUsed)))

	return &CreateResult{
		Record:         record,
		TaskID:         sub.TaskID,
		EnhancedPrompt: prompt,
		Payload:        payload,
	}, nil
}

// indexInLibrary writes the library pointer row. Its failure only produces an
// event.
func (s *Service) indexInLibrary(ctx context.Context, record *models.UGCAd) {
	item := &models.LibraryItem{
		ID:                 uuid.New(),
		UserID:             record.UserID,
		ContentType:        models.ContentTypeUGCAds,
		ContentID:          record.ID,
		DateAddedToLibrary: time.Now().UTC(),
	}
	if err := s.repo.InsertLibraryItem(ctx, item); err != nil {
		s.events.Publish(ctx, events.New(events.LibraryIndexFailed, record.UserID,
			events.LibraryIndexFailedPayload(models.ContentTypeUGCAds, record.ID, err)))
	}
}

func (s *Service) reportOrphans(ctx context.Context, userID uuid.UUID, uploads UploadSet, reason string) {
	if len(uploads) == 0 {
		return
	}
	s.events.Publish(ctx, events.New(events.UploadsOrphaned, userID,
		events.UploadsOrphanedPayload(uploads.Paths(), reason)))
}

// DebugResult is the body returned for debug=1.
type DebugResult struct {
	Debug            bool                 `json:"debug"`
	EnhancedPrompt   string               `json:"enhancedPrompt"`
	Normalized       *NormalizedRequest   `json:"normalized"`
	ValidationErrors []models.FieldDetail `json:"validationErrors"`
	GenerationType   string               `json:"generationType"`
	ImageSelection   []ImageRef           `json:"imageSelection"`
}

// Preview computes what Create would send without touching storage, the
// database or the provider. Asset projections are left empty.
func (s *Service) Preview(in CreateInput) *DebugResult {
	req, err := Normalize(in.Form)
	out := &DebugResult{
		Debug:            true,
		Normalized:       req,
		ValidationErrors: []models.FieldDetail{},
		ImageSelection:   []ImageRef{},
	}
	if verr, ok := err.(*ValidationError); ok {
		out.ValidationErrors = verr.Details
	}

	present := map[string]string{}
	for _, slot := range uploadSlots {
		if in.Form.HasFile(append([]string{slot.Field}, slot.Aliases...)...) {
			present[slot.Field] = ""
		}
	}
	if refs := SelectImages(req.Mode, present, nil); len(refs) > 0 {
		out.ImageSelection = refs
	}
	out.GenerationType = GenerationType(req.Mode, len(out.ImageSelection))
	out.EnhancedPrompt = BuildPrompt(NewPromptInput(req, ResolvedAssets{}))
	return out
}

// List returns the caller's ads, newest first.
func (s *Service) List(ctx context.Context, filter models.UGCAdListFilter) ([]models.UGCAd, error) {
	if filter.Limit <= 0 {
		filter.Limit = 50
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	ads, err := s.repo.ListUGCAds(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list ugc ads: %w", err)
	}
	return ads, nil
}

// GenerationType derives the provider generation type from mode and the
// number of reference images actually sent.
func GenerationType(mode string, imageCount int) string {
	switch mode {
	case ModeDual:
		return kie.GenerationTypeFirstAndLastFrames
	case ModeMulti:
		return kie.GenerationTypeReference2Video
	default:
		if imageCount > 0 {
			return kie.GenerationTypeFirstAndLastFrames
		}
		return kie.GenerationTypeText2Video
	}
}

type storedImage struct {
	ImageSlot
	Path string `json:"path,omitempty"`
}

func buildRecord(userID uuid.UUID, req *NormalizedRequest, assets ResolvedAssets, uploads UploadSet, payload kie.GenerateRequest, sub *Submission) (*models.UGCAd, error) {
	_, hasLogo := uploads[FieldBrandLogo]
	_, hasCustom := uploads[FieldCustomProductImage]
	_, hasProduct := uploads[FieldProductImage]
	_, hasCharacter := uploads[FieldCharacterImage]
	scenes := uploads.SceneImages()

	metadata, err := json.Marshal(map[string]interface{}{
		"uploads": map[string]interface{}{
			FieldBrandLogo:          hasLogo,
			FieldCustomProductImage: hasCustom,
			FieldProductImage:       hasProduct,
			FieldCharacterImage:     hasCharacter,
			"scene_images":          len(scenes),
		},
		"kie": map[string]interface{}{
			"model":          sub.Model,
			"fallbackUsed":   sub.FallbackUsed,
			"attempts":       sub.Attempts,
			"imageUrlsCount": len(payload.ImageURLs),
			"generationType": payload.GenerationType,
		},
		"image_count":        len(uploads),
		"requested_duration": req.Duration,
	})
	if err != nil {
		return nil, err
	}

	images := make([]storedImage, 0, len(req.Images))
	for _, slot := range req.Images {
		images = append(images, storedImage{ImageSlot: slot, Path: uploads[fmt.Sprintf("image%d", slot.Index)]})
	}
	var originalConfig interface{}
	if len(req.RawConfig) > 0 {
		originalConfig = req.RawConfig
	}
	content, err := json.Marshal(map[string]interface{}{
		"original_config": originalConfig,
		"custom_fields":   req.CustomFields(),
		"enhanced_prompt": payload.Prompt,
		"images":          images,
		"kie":             map[string]interface{}{"taskId": sub.TaskID},
	})
	if err != nil {
		return nil, err
	}

	ad := &models.UGCAd{
		ID:                   uuid.New(),
		UserID:               userID,
		Title:                req.ProjectTitle,
		BrandName:            req.BrandName,
		BrandPrompt:          req.BrandPrompt,
		ProductName:          nullString(req.ProductName),
		Mode:                 req.Mode,
		AspectRatio:          req.AspectRatio,
		Duration:             req.Duration,
		Language:             req.DialogueLanguage,
		CharacterPresence:    req.CharacterPresence,
		CharacterSource:      nullString(req.CharacterSource),
		CharacterDescription: nullString(req.CharacterDescription),
		PartialType:          nullString(req.PartialType),
		TwoImageMode:         nullString(req.TwoImageMode),
		DialogueScript:       nullString(req.DialogueScript),
		DialogueVoiceType:    nullString(req.DialogueVoiceType),
		DialogueTone:         nullString(req.DialogueTone),
		Template:             nullString(req.Template),
		SceneDescription:     nullString(req.SceneDescription),
		BrandLogoPath:        nullString(uploads[FieldBrandLogo]),
		CustomProductPath:    nullString(uploads[FieldCustomProductImage]),
		ProductImagePath:     nullString(uploads[FieldProductImage]),
		CharacterImagePath:   nullString(uploads[FieldCharacterImage]),
		GenerationType:       payload.GenerationType,
		Status:               models.StatusPending,
		KieTaskID:            nullString(sub.TaskID),
		Metadata:             metadata,
		Content:              content,
	}
	if req.EmotionalTone != nil {
		ad.EmotionalTone = sql.NullInt64{Int64: int64(*req.EmotionalTone), Valid: true}
	}
	if assets.Product != nil {
		ad.ProductID = uuid.NullUUID{UUID: assets.Product.ID, Valid: true}
	} else if id, err := uuid.Parse(req.ProductID); err == nil {
		ad.ProductID = uuid.NullUUID{UUID: id, Valid: true}
	}
	if id, err := uuid.Parse(req.AvatarID); err == nil {
		ad.AvatarID = uuid.NullUUID{UUID: id, Valid: true}
	}
	if ad.CharacterDescriptions, err = marshalIfAny(len(req.CharacterDescriptions) > 0, req.CharacterDescriptions); err != nil {
		return nil, err
	}
	if ad.DialogueLines, err = marshalIfAny(len(req.DialogueLines) > 0, req.DialogueLines); err != nil {
		return nil, err
	}
	if ad.SceneScripts, err = marshalIfAny(req.SceneScripts != nil, req.SceneScripts); err != nil {
		return nil, err
	}
	if ad.ImagePaths, err = marshalIfAny(len(scenes) > 0, scenes); err != nil {
		return nil, err
	}
	return ad, nil
}

func marshalIfAny(present bool, v interface{}) (json.RawMessage, error) {
	if !present {
		return nil, nil
	}
	return json.Marshal(v)
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
