package processors

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/google/uuid"

	"mediavault_backend/internal/assets/domain"
	"mediavault_backend/internal/assets/repository"
	"mediavault_backend/platform/logger"
)

func TestExtractorBuildsGenericFacts(t *testing.T) {
	blob := []byte("not an image, just bytes")
	repo := &fakeRepo{}
	extractor := NewExtractor(repo, &fakeStorage{blob: blob}, "originals", logger.New("test"))

	asset := repository.Asset{
		ID:          uuid.New(),
		Kind:        domain.KindOther,
		FileKey:     "org/originals/report.bin",
		FileName:    "report.bin",
		ContentType: "application/octet-stream",
	}

	if err := extractor.Process(context.Background(), asset); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.metadata == nil {
		t.Fatalf("expected a metadata document")
	}

	if repo.metadata["fileName"] != "report.bin" {
		t.Fatalf("fileName = %v", repo.metadata["fileName"])
	}
	if repo.metadata["sizeBytes"] != int64(len(blob)) {
		t.Fatalf("sizeBytes = %v, want %d", repo.metadata["sizeBytes"], len(blob))
	}
	sum := sha256.Sum256(blob)
	if repo.metadata["sha256"] != hex.EncodeToString(sum[:]) {
		t.Fatalf("sha256 mismatch: %v", repo.metadata["sha256"])
	}
	if _, ok := repo.metadata["extractedAt"]; !ok {
		t.Fatalf("extractedAt missing")
	}
	if _, ok := repo.metadata["width"]; ok {
		t.Fatalf("non-image assets must not get image dimensions")
	}
}

func TestExtractorAddsImageDimensions(t *testing.T) {
	repo := &fakeRepo{}
	extractor := NewExtractor(repo, &fakeStorage{blob: encodeTestPNG(t, 320, 240)}, "originals", logger.New("test"))

	asset := repository.Asset{
		ID:          uuid.New(),
		Kind:        domain.KindImage,
		FileKey:     "org/originals/photo.png",
		FileName:    "photo.png",
		ContentType: "image/png",
	}

	if err := extractor.Process(context.Background(), asset); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if repo.metadata["width"] != 320 || repo.metadata["height"] != 240 {
		t.Fatalf("dimensions = %vx%v, want 320x240", repo.metadata["width"], repo.metadata["height"])
	}
	if repo.metadata["format"] != "png" {
		t.Fatalf("format = %v, want png", repo.metadata["format"])
	}
	// PNGs carry no EXIF; camera facts must simply be absent, not errors.
	if _, ok := repo.metadata["cameraMake"]; ok {
		t.Fatalf("unexpected cameraMake for a PNG")
	}
}
