// Package processors implements the per-stage work of the asset pipeline.
// Each processor is side-effect idempotent: re-running a stage overwrites the
// artifacts of the previous run instead of duplicating them.
package processors

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"
	"path"

	"github.com/nfnt/resize"

	"mediavault_backend/internal/adapters/storage"
	"mediavault_backend/internal/assets/domain"
	"mediavault_backend/internal/assets/repository"
	"mediavault_backend/platform/logger"
)

// thumbnailSizes maps rendition names to their bounding box in pixels.
var thumbnailSizes = map[string]uint{
	"thumb_128": 128,
	"thumb_256": 256,
	"thumb_720": 720,
}

const jpegQuality = 80

// Thumbnailer produces thumbnail renditions for images and a preview
// rendition record for video and PDF assets.
type Thumbnailer struct {
	repo             repository.Repository
	storage          storage.StorageService
	originalsBucket  string
	renditionsBucket string
	log              *logger.Logger
}

// NewThumbnailer creates the thumbnail stage processor.
func NewThumbnailer(repo repository.Repository, storageSvc storage.StorageService, originalsBucket, renditionsBucket string, log *logger.Logger) *Thumbnailer {
	return &Thumbnailer{
		repo:             repo,
		storage:          storageSvc,
		originalsBucket:  originalsBucket,
		renditionsBucket: renditionsBucket,
		log:              log,
	}
}

// Process generates the renditions for one asset.
func (t *Thumbnailer) Process(ctx context.Context, asset repository.Asset) error {
	switch asset.Kind {
	case domain.KindImage:
		return t.processImage(ctx, asset)
	case domain.KindVideo, domain.KindPDF:
		return t.recordPreview(ctx, asset)
	default:
		// Stage plans keep other kinds out of this stage; tolerate stray tasks.
		return nil
	}
}

func (t *Thumbnailer) processImage(ctx context.Context, asset repository.Asset) error {
	reader, err := t.storage.DownloadFile(ctx, t.originalsBucket, asset.FileKey)
	if err != nil {
		return fmt.Errorf("download original: %w", err)
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return fmt.Errorf("read original: %w", err)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("decode image %s: %w", asset.FileName, err)
	}

	for name, size := range thumbnailSizes {
		thumbnail := resize.Thumbnail(size, size, img, resize.Lanczos3)

		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, thumbnail, &jpeg.Options{Quality: jpegQuality}); err != nil {
			return fmt.Errorf("encode %s: %w", name, err)
		}

		folder := path.Join(asset.OrganizationID.String(), asset.ID.String())
		fileName := fmt.Sprintf("%s.jpg", name)
		fileKey, err := t.storage.UploadFile(ctx, t.renditionsBucket, folder, fileName, "image/jpeg", bytes.NewReader(buf.Bytes()), int64(buf.Len()))
		if err != nil {
			return fmt.Errorf("upload %s: %w", name, err)
		}

		bounds := thumbnail.Bounds()
		if _, err := t.repo.CreateRendition(ctx, repository.CreateRenditionParams{
			AssetID:     asset.ID,
			Name:        name,
			FileKey:     fileKey,
			ContentType: "image/jpeg",
			Width:       bounds.Dx(),
			Height:      bounds.Dy(),
			SizeBytes:   int64(buf.Len()),
		}); err != nil {
			return err
		}
	}

	t.log.PipelineStage(asset.ID.String(), domain.StageThumbnail, "renditions_created", 0)
	return nil
}

// recordPreview records a preview rendition that references the original
// object. Real transcoding and page rasterization are out of scope; clients
// stream the original through the preview rendition's download URL.
func (t *Thumbnailer) recordPreview(ctx context.Context, asset repository.Asset) error {
	_, err := t.repo.CreateRendition(ctx, repository.CreateRenditionParams{
		AssetID:     asset.ID,
		Name:        "preview",
		FileKey:     asset.FileKey,
		ContentType: asset.ContentType,
		SizeBytes:   asset.SizeBytes,
	})
	return err
}
