package ugcads

import (
	"context"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"dreamcut-backend/internal/logger"
	"dreamcut-backend/internal/models"
)

// AssetStore performs user-scoped point lookups. A missing row is (nil, nil).
type AssetStore interface {
	GetProduct(ctx context.Context, userID, productID uuid.UUID) (*models.ProductAsset, error)
	GetAvatar(ctx context.Context, userID, avatarID uuid.UUID) (*models.AvatarAsset, error)
}

type ResolvedAssets struct {
	Product *models.ProductAsset
	Avatar  *models.AvatarAsset
}

// resolveAssets looks up the referenced product and avatar. Lookup errors are
// logged and the asset is treated as absent.
func resolveAssets(ctx context.Context, store AssetStore, log *logger.Logger, userID uuid.UUID, req *NormalizedRequest) ResolvedAssets {
	var out ResolvedAssets
	if store == nil {
		return out
	}

	g, gctx := errgroup.WithContext(ctx)
	if id, err := uuid.Parse(req.ProductID); err == nil {
		g.Go(func() error {
			product, err := store.GetProduct(gctx, userID, id)
			if err != nil {
				log.Warn("product lookup failed, continuing without it", "product_id", id, "error", err)
				return nil
			}
			out.Product = product
			return nil
		})
	}
	if id, err := uuid.Parse(req.AvatarID); err == nil {
		g.Go(func() error {
			avatar, err := store.GetAvatar(gctx, userID, id)
			if err != nil {
				log.Warn("avatar lookup failed, continuing without it", "avatar_id", id, "error", err)
				return nil
			}
			out.Avatar = avatar
			return nil
		})
	}
	_ = g.Wait()
	return out
}
