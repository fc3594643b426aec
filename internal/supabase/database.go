package supabase

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"dreamcut-backend/internal/models"
)

type DatabaseClient struct {
	db *sql.DB
}

func NewDatabaseClient(connectionString string) (*DatabaseClient, error) {
	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DatabaseClient{db: db}, nil
}

// DB exposes the pool for schema migrations.
func (d *DatabaseClient) DB() *sql.DB {
	return d.db
}

func (d *DatabaseClient) Ping(ctx context.Context) error {
	return d.db.PingContext(ctx)
}

const ugcAdColumns = `id, user_id, title, brand_name, brand_prompt, product_name, mode, aspect_ratio,
	duration, language, emotional_tone, character_presence, character_source, character_description,
	partial_type, two_image_mode, product_id, avatar_id, dialogue_script, dialogue_voice_type,
	dialogue_tone, template, scene_description, character_descriptions, dialogue_lines, scene_scripts,
	brand_logo_path, custom_product_image_path, product_image_path, character_image_path, image_paths,
	generation_type, status, kie_task_id, generated_video_url, storage_path, metadata, content,
	created_at, updated_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanUGCAd(row rowScanner) (*models.UGCAd, error) {
	var (
		ad                                   models.UGCAd
		characterDescriptions, dialogueLines []byte
		sceneScripts, imagePaths             []byte
		metadata, content                    []byte
	)
	err := row.Scan(
		&ad.ID, &ad.UserID, &ad.Title, &ad.BrandName, &ad.BrandPrompt, &ad.ProductName, &ad.Mode, &ad.AspectRatio,
		&ad.Duration, &ad.Language, &ad.EmotionalTone, &ad.CharacterPresence, &ad.CharacterSource, &ad.CharacterDescription,
		&ad.PartialType, &ad.TwoImageMode, &ad.ProductID, &ad.AvatarID, &ad.DialogueScript, &ad.DialogueVoiceType,
		&ad.DialogueTone, &ad.Template, &ad.SceneDescription, &characterDescriptions, &dialogueLines, &sceneScripts,
		&ad.BrandLogoPath, &ad.CustomProductPath, &ad.ProductImagePath, &ad.CharacterImagePath, &imagePaths,
		&ad.GenerationType, &ad.Status, &ad.KieTaskID, &ad.GeneratedVideoURL, &ad.StoragePath, &metadata, &content,
		&ad.CreatedAt, &ad.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	ad.CharacterDescriptions = characterDescriptions
	ad.DialogueLines = dialogueLines
	ad.SceneScripts = sceneScripts
	ad.ImagePaths = imagePaths
	ad.Metadata = metadata
	ad.Content = content
	return &ad, nil
}

// jsonParam passes raw JSON as text so Postgres casts it into the jsonb
// column; empty input becomes NULL.
func jsonParam(raw json.RawMessage) interface{} {
	if len(raw) == 0 {
		return nil
	}
	return string(raw)
}

func (d *DatabaseClient) InsertUGCAd(ctx context.Context, ad *models.UGCAd) error {
	if ad.ID == uuid.Nil {
		ad.ID = uuid.New()
	}
	err := d.db.QueryRowContext(ctx, `
		INSERT INTO ugc_ads (
			id, user_id, title, brand_name, brand_prompt, product_name, mode, aspect_ratio,
			duration, language, emotional_tone, character_presence, character_source, character_description,
			partial_type, two_image_mode, product_id, avatar_id, dialogue_script, dialogue_voice_type,
			dialogue_tone, template, scene_description, character_descriptions, dialogue_lines, scene_scripts,
			brand_logo_path, custom_product_image_path, product_image_path, character_image_path, image_paths,
			generation_type, status, kie_task_id, metadata, content
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18,
			$19, $20, $21, $22, $23, $24, $25, $26, $27, $28, $29, $30, $31, $32, $33, $34, $35, $36)
		RETURNING created_at, updated_at
	`,
		ad.ID, ad.UserID, ad.Title, ad.BrandName, ad.BrandPrompt, ad.ProductName, ad.Mode, ad.AspectRatio,
		ad.Duration, ad.Language, ad.EmotionalTone, ad.CharacterPresence, ad.CharacterSource, ad.CharacterDescription,
		ad.PartialType, ad.TwoImageMode, ad.ProductID, ad.AvatarID, ad.DialogueScript, ad.DialogueVoiceType,
		ad.DialogueTone, ad.Template, ad.SceneDescription,
		jsonParam(ad.CharacterDescriptions), jsonParam(ad.DialogueLines), jsonParam(ad.SceneScripts),
		ad.BrandLogoPath, ad.CustomProductPath, ad.ProductImagePath, ad.CharacterImagePath, jsonParam(ad.ImagePaths),
		ad.GenerationType, ad.Status, ad.KieTaskID, jsonParam(ad.Metadata), jsonParam(ad.Content),
	).Scan(&ad.CreatedAt, &ad.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create ugc ad: %w", err)
	}
	return nil
}

// buildListQuery renders GET /api/ugc-ads as SQL. LIMIT/OFFSET select rows
// [offset, offset+limit-1] of the user's ads, newest first.
func buildListQuery(filter models.UGCAdListFilter) (string, []interface{}) {
	var b strings.Builder
	args := []interface{}{filter.UserID}

	b.WriteString("SELECT ")
	b.WriteString(ugcAdColumns)
	b.WriteString("\n\tFROM ugc_ads\n\tWHERE user_id = $1")
	if filter.Status != "" {
		args = append(args, filter.Status)
		fmt.Fprintf(&b, " AND status = $%d", len(args))
	}
	b.WriteString("\n\tORDER BY created_at DESC")
	args = append(args, filter.Limit, filter.Offset)
	fmt.Fprintf(&b, "\n\tLIMIT $%d OFFSET $%d", len(args)-1, len(args))
	return b.String(), args
}

func (d *DatabaseClient) ListUGCAds(ctx context.Context, filter models.UGCAdListFilter) ([]models.UGCAd, error) {
	query, args := buildListQuery(filter)
	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list ugc ads: %w", err)
	}
	defer rows.Close()

	ads := []models.UGCAd{}
	for rows.Next() {
		ad, err := scanUGCAd(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ugc ad: %w", err)
		}
		ads = append(ads, *ad)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list ugc ads: %w", err)
	}
	return ads, nil
}

func (d *DatabaseClient) GetUGCAd(ctx context.Context, id, userID uuid.UUID) (*models.UGCAd, error) {
	row := d.db.QueryRowContext(ctx, "SELECT "+ugcAdColumns+" FROM ugc_ads WHERE id = $1 AND user_id = $2", id, userID)
	ad, err := scanUGCAd(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get ugc ad: %w", err)
	}
	return ad, nil
}

// GetUGCAdByTaskID is used by the provider callback, so it is not user scoped.
// Rows written before kie_task_id existed carry the id in content.kie.taskId;
// extension tasks are recorded in metadata.extend_task_id.
func (d *DatabaseClient) GetUGCAdByTaskID(ctx context.Context, taskID string) (*models.UGCAd, error) {
	row := d.db.QueryRowContext(ctx, "SELECT "+ugcAdColumns+` FROM ugc_ads
		WHERE kie_task_id = $1
			OR content->'kie'->>'taskId' = $1
			OR metadata->>'extend_task_id' = $1
		ORDER BY created_at DESC
		LIMIT 1`, taskID)
	ad, err := scanUGCAd(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get ugc ad by task id: %w", err)
	}
	return ad, nil
}

func (d *DatabaseClient) UpdateUGCAdStatus(ctx context.Context, id uuid.UUID, status string) error {
	_, err := d.db.ExecContext(ctx, `
		UPDATE ugc_ads
		SET status = $1, updated_at = NOW()
		WHERE id = $2
	`, status, id)
	if err != nil {
		return fmt.Errorf("failed to update ugc ad status: %w", err)
	}
	return nil
}

// UpdateUGCAdCompletion sets the final status and merges MetadataPatch into
// the existing metadata object. Empty URL/path fields keep their old value.
func (d *DatabaseClient) UpdateUGCAdCompletion(ctx context.Context, id uuid.UUID, c models.UGCAdCompletion) error {
	patch := c.MetadataPatch
	if patch == nil {
		patch = map[string]interface{}{}
	}
	patchJSON, err := json.Marshal(patch)
	if err != nil {
		return fmt.Errorf("failed to encode metadata patch: %w", err)
	}

	_, err = d.db.ExecContext(ctx, `
		UPDATE ugc_ads
		SET status = $1,
			generated_video_url = COALESCE(NULLIF($2, ''), generated_video_url),
			storage_path = COALESCE(NULLIF($3, ''), storage_path),
			metadata = COALESCE(metadata, '{}'::jsonb) || $4::jsonb,
			updated_at = NOW()
		WHERE id = $5
	`, c.Status, c.GeneratedVideoURL, c.StoragePath, string(patchJSON), id)
	if err != nil {
		return fmt.Errorf("failed to update ugc ad: %w", err)
	}
	return nil
}

func (d *DatabaseClient) InsertLibraryItem(ctx context.Context, item *models.LibraryItem) error {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	err := d.db.QueryRowContext(ctx, `
		INSERT INTO library_items (id, user_id, content_type, content_id, date_added_to_library)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`, item.ID, item.UserID, item.ContentType, item.ContentID, item.DateAddedToLibrary).Scan(&item.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create library item: %w", err)
	}
	return nil
}

func buildLibraryQuery(filter models.LibraryListFilter) (string, []interface{}) {
	var b strings.Builder
	args := []interface{}{filter.UserID}

	b.WriteString(`SELECT id, user_id, content_type, content_id, date_added_to_library, created_at
	FROM library_items
	WHERE user_id = $1`)
	if len(filter.ContentTypes) > 0 {
		args = append(args, pq.Array(filter.ContentTypes))
		fmt.Fprintf(&b, " AND content_type = ANY($%d)", len(args))
	}
	b.WriteString("\n\tORDER BY date_added_to_library DESC")
	args = append(args, filter.Limit, filter.Offset)
	fmt.Fprintf(&b, "\n\tLIMIT $%d OFFSET $%d", len(args)-1, len(args))
	return b.String(), args
}

func (d *DatabaseClient) ListLibraryItems(ctx context.Context, filter models.LibraryListFilter) ([]models.LibraryItem, error) {
	query, args := buildLibraryQuery(filter)
	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list library items: %w", err)
	}
	defer rows.Close()

	items := []models.LibraryItem{}
	for rows.Next() {
		var item models.LibraryItem
		if err := rows.Scan(&item.ID, &item.UserID, &item.ContentType, &item.ContentID, &item.DateAddedToLibrary, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan library item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list library items: %w", err)
	}
	return items, nil
}

func (d *DatabaseClient) Close() error {
	return d.db.Close()
}
