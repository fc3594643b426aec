package supabase

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/supabase-community/supabase-go"

	"dreamcut-backend/internal/models"
)

// AssetClient reads the user's saved products and avatars through PostgREST.
// Every lookup is scoped by user_id so a caller can never resolve another
// user's asset.
type AssetClient struct {
	client *supabase.Client
}

func NewAssetClient(client *supabase.Client) *AssetClient {
	return &AssetClient{client: client}
}

type productRow struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	ImageURL    string `json:"image_url"`
	StoragePath string `json:"storage_path"`
}

type avatarRow struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Ethnicity string `json:"ethnicity"`
	Gender    string `json:"gender"`
}

// GetProduct returns nil, nil when the product does not exist for the user.
func (a *AssetClient) GetProduct(_ context.Context, userID, productID uuid.UUID) (*models.ProductAsset, error) {
	var rows []productRow
	_, err := a.client.From("product_mockups").
		Select("id,title,description,image_url,storage_path", "", false).
		Eq("id", productID.String()).
		Eq("user_id", userID.String()).
		ExecuteTo(&rows)
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	row := rows[0]
	id, err := uuid.Parse(row.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid product id %q: %w", row.ID, err)
	}
	return &models.ProductAsset{
		ID:          id,
		Title:       row.Title,
		Description: row.Description,
		ImageURL:    row.ImageURL,
		StoragePath: row.StoragePath,
	}, nil
}

// GetAvatar returns nil, nil when the avatar does not exist for the user.
func (a *AssetClient) GetAvatar(_ context.Context, userID, avatarID uuid.UUID) (*models.AvatarAsset, error) {
	var rows []avatarRow
	_, err := a.client.From("avatars_personas").
		Select("id,name,ethnicity,gender", "", false).
		Eq("id", avatarID.String()).
		Eq("user_id", userID.String()).
		ExecuteTo(&rows)
	if err != nil {
		return nil, fmt.Errorf("failed to get avatar: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	row := rows[0]
	id, err := uuid.Parse(row.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid avatar id %q: %w", row.ID, err)
	}
	return &models.AvatarAsset{
		ID:        id,
		Name:      row.Name,
		Ethnicity: row.Ethnicity,
		Gender:    row.Gender,
	}, nil
}
