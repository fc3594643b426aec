package ugcads

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"regexp"
	"sort"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"dreamcut-backend/internal/models"
)

// ObjectStore is the private bucket uploads land in. Upload must not
// overwrite an existing object.
type ObjectStore interface {
	Upload(ctx context.Context, path, contentType string, body io.Reader) error
	SignedURL(ctx context.Context, path string, ttl time.Duration) (string, error)
}

const (
	FieldBrandLogo          = "brand_logo"
	FieldCustomProductImage = "custom_product_image"
	FieldProductImage       = "product_image"
	FieldCharacterImage     = "character_image"
)

type uploadSlot struct {
	Field    string
	Aliases  []string
	Category string
}

// uploadSlots lists every file part the pipeline stores, in path-selection
// order for the scene images.
var uploadSlots = []uploadSlot{
	{Field: FieldBrandLogo, Category: "brand-logos"},
	{Field: FieldCustomProductImage, Aliases: []string{"productFile"}, Category: "products"},
	{Field: FieldProductImage, Category: "products"},
	{Field: FieldCharacterImage, Aliases: []string{"characterFile"}, Category: "characters"},
	{Field: "image1", Category: "scenes"},
	{Field: "image2", Category: "scenes"},
	{Field: "image3", Category: "scenes"},
}

// UploadSet maps a canonical field name to the storage path it was written to.
type UploadSet map[string]string

// SceneImages returns the stored image{n} paths in index order.
func (u UploadSet) SceneImages() []string {
	var paths []string
	for i := 1; i <= maxImageSlots; i++ {
		if p, ok := u[fmt.Sprintf("image%d", i)]; ok {
			paths = append(paths, p)
		}
	}
	return paths
}

func (u UploadSet) Paths() []string {
	paths := make([]string, 0, len(u))
	for _, p := range u {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

var unsafeFilenameChars = regexp.MustCompile(`[^a-zA-Z0-9_.-]`)

func sanitizeFilename(name string) string {
	if name == "" {
		return "file"
	}
	return unsafeFilenameChars.ReplaceAllString(name, "_")
}

// UploadPath builds renders/ugc-ads/{user}/{category}/{uuid}-{filename}.
func UploadPath(userID uuid.UUID, category, filename string) string {
	return fmt.Sprintf("renders/ugc-ads/%s/%s/%s-%s", userID, category, uuid.New(), sanitizeFilename(filename))
}

// uploadAll writes every present file part concurrently. The first failure
// cancels the rest and is returned as an *UploadError, together with the
// parts that were stored anyway.
func uploadAll(ctx context.Context, store ObjectStore, userID uuid.UUID, form *ParsedForm) (UploadSet, error) {
	type job struct {
		slot uploadSlot
		file *multipart.FileHeader
		path string
		done bool
	}

	var jobs []*job
	for _, slot := range uploadSlots {
		names := append([]string{slot.Field}, slot.Aliases...)
		fh, _ := form.File(names...)
		if fh == nil {
			continue
		}
		jobs = append(jobs, &job{slot: slot, file: fh, path: UploadPath(userID, slot.Category, fh.Filename)})
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, j := range jobs {
		j := j
		g.Go(func() error {
			if err := uploadFile(gctx, store, j.path, j.file); err != nil {
				return &UploadError{Field: j.slot.Field, Err: err}
			}
			j.done = true
			return nil
		})
	}
	err := g.Wait()

	set := UploadSet{}
	for _, j := range jobs {
		if j.done {
			set[j.slot.Field] = j.path
		}
	}
	return set, err
}

func uploadFile(ctx context.Context, store ObjectStore, path string, fh *multipart.FileHeader) error {
	f, err := fh.Open()
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	contentType := fh.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return store.Upload(ctx, path, contentType, f)
}

// ImageRef is one candidate reference image for the provider.
type ImageRef struct {
	Field string `json:"field"`
	Path  string `json:"path,omitempty"`
	URL   string `json:"url,omitempty"`
}

// SelectImages picks up to one, two or three reference images depending on
// mode, lowest index first. available maps field names to storage paths; an
// empty path means the file is known to be present but not stored yet.
func SelectImages(mode string, available map[string]string, product *models.ProductAsset) []ImageRef {
	var refs []ImageRef
	pick := func(limit int, fields ...string) {
		for _, f := range fields {
			if len(refs) >= limit {
				return
			}
			if p, ok := available[f]; ok {
				refs = append(refs, ImageRef{Field: f, Path: p})
			}
		}
	}

	switch mode {
	case ModeDual:
		pick(2, "image1", "image2")
	case ModeMulti:
		pick(3, "image1", "image2", "image3")
	default:
		pick(1, FieldCustomProductImage, FieldProductImage, "image1")
		if len(refs) == 0 && product != nil {
			switch {
			case product.StoragePath != "":
				refs = append(refs, ImageRef{Field: "product_id", Path: product.StoragePath})
			case product.ImageURL != "":
				refs = append(refs, ImageRef{Field: "product_id", URL: product.ImageURL})
			}
		}
	}
	return refs
}

// signImages turns refs into provider-readable URLs, keeping order. A ref
// whose path cannot be signed is dropped.
func signImages(ctx context.Context, store ObjectStore, refs []ImageRef, ttl time.Duration, onErr func(ImageRef, error)) []string {
	urls := make([]string, len(refs))
	g, gctx := errgroup.WithContext(ctx)
	for i, ref := range refs {
		if ref.Path == "" {
			urls[i] = ref.URL
			continue
		}
		i, ref := i, ref
		g.Go(func() error {
			signed, err := store.SignedURL(gctx, ref.Path, ttl)
			if err != nil {
				if onErr != nil {
					onErr(ref, err)
				}
				return nil
			}
			urls[i] = signed
			return nil
		})
	}
	_ = g.Wait()

	out := make([]string, 0, len(urls))
	for _, u := range urls {
		if u != "" {
			out = append(out, u)
		}
	}
	return out
}
