package processors

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"image"
	"io"
	"time"

	"github.com/rwcarlsen/goexif/exif"

	"mediavault_backend/internal/adapters/storage"
	"mediavault_backend/internal/assets/domain"
	"mediavault_backend/internal/assets/repository"
	"mediavault_backend/platform/logger"
)

// Extractor builds the metadata document for an asset: generic file facts
// for every kind, EXIF fields for images.
type Extractor struct {
	repo            repository.Repository
	storage         storage.StorageService
	originalsBucket string
	log             *logger.Logger
}

// NewExtractor creates the metadata extraction stage processor.
func NewExtractor(repo repository.Repository, storageSvc storage.StorageService, originalsBucket string, log *logger.Logger) *Extractor {
	return &Extractor{
		repo:            repo,
		storage:         storageSvc,
		originalsBucket: originalsBucket,
		log:             log,
	}
}

// Process extracts and stores the metadata document for one asset.
func (e *Extractor) Process(ctx context.Context, asset repository.Asset) error {
	reader, err := e.storage.DownloadFile(ctx, e.originalsBucket, asset.FileKey)
	if err != nil {
		return fmt.Errorf("download original: %w", err)
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return fmt.Errorf("read original: %w", err)
	}

	checksum := sha256.Sum256(data)
	document := map[string]interface{}{
		"fileName":    asset.FileName,
		"contentType": asset.ContentType,
		"sizeBytes":   int64(len(data)),
		"sha256":      hex.EncodeToString(checksum[:]),
		"extractedAt": time.Now().UTC().Format(time.RFC3339),
	}

	if asset.Kind == domain.KindImage {
		mergeImageFacts(document, data, e.log, asset.ID.String())
	}

	if err := e.repo.UpsertMetadata(ctx, asset.ID, document); err != nil {
		return err
	}

	e.log.PipelineStage(asset.ID.String(), domain.StageExtract, "metadata_extracted", 0)
	return nil
}

// mergeImageFacts adds image dimensions and EXIF fields to the document.
// Missing or corrupt EXIF data is common and never fails the stage.
func mergeImageFacts(document map[string]interface{}, data []byte, log *logger.Logger, assetID string) {
	if cfg, format, err := image.DecodeConfig(bytes.NewReader(data)); err == nil {
		document["width"] = cfg.Width
		document["height"] = cfg.Height
		document["format"] = format
	}

	parsed, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		log.Debug("no exif data", "assetId", assetID, "error", err)
		return
	}

	if tag, err := parsed.Get(exif.Make); err == nil {
		if value, err := tag.StringVal(); err == nil {
			document["cameraMake"] = value
		}
	}
	if tag, err := parsed.Get(exif.Model); err == nil {
		if value, err := tag.StringVal(); err == nil {
			document["cameraModel"] = value
		}
	}
	if takenAt, err := parsed.DateTime(); err == nil {
		document["takenAt"] = takenAt.UTC().Format(time.RFC3339)
	}
	if _, _, err := parsed.LatLong(); err == nil {
		document["hasGPS"] = true
	}
}
