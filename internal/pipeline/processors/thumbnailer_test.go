package processors

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"io"
	"testing"

	"github.com/google/uuid"

	"mediavault_backend/internal/adapters/storage"
	"mediavault_backend/internal/assets/domain"
	"mediavault_backend/internal/assets/repository"
	"mediavault_backend/platform/logger"
)

// fakeStorage serves a fixed blob and records uploads. Unused methods panic
// via the embedded nil interface.
type fakeStorage struct {
	storage.StorageService
	blob    []byte
	uploads map[string][]byte
}

func (f *fakeStorage) DownloadFile(ctx context.Context, bucket, fileKey string) (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(f.blob)), nil
}

func (f *fakeStorage) UploadFile(ctx context.Context, bucket, folder, fileName, contentType string, reader io.Reader, size int64) (string, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return "", err
	}
	key := folder + "/" + fileName
	if f.uploads == nil {
		f.uploads = make(map[string][]byte)
	}
	f.uploads[key] = data
	return key, nil
}

// fakeRepo records renditions and metadata writes.
type fakeRepo struct {
	repository.Repository
	renditions []repository.CreateRenditionParams
	metadata   map[string]interface{}
}

func (f *fakeRepo) CreateRendition(ctx context.Context, params repository.CreateRenditionParams) (repository.Rendition, error) {
	f.renditions = append(f.renditions, params)
	return repository.Rendition{ID: uuid.New(), AssetID: params.AssetID, Name: params.Name}, nil
}

func (f *fakeRepo) UpsertMetadata(ctx context.Context, assetID uuid.UUID, document map[string]interface{}) error {
	f.metadata = document
	return nil
}

func encodeTestPNG(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func TestThumbnailerProcessImage(t *testing.T) {
	repo := &fakeRepo{}
	store := &fakeStorage{blob: encodeTestPNG(t, 1000, 500)}
	thumbnailer := NewThumbnailer(repo, store, "originals", "renditions", logger.New("test"))

	asset := repository.Asset{
		ID:             uuid.New(),
		OrganizationID: uuid.New(),
		Kind:           domain.KindImage,
		FileKey:        "org/originals/photo.png",
		FileName:       "photo.png",
		ContentType:    "image/png",
	}

	if err := thumbnailer.Process(context.Background(), asset); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(repo.renditions) != len(thumbnailSizes) {
		t.Fatalf("expected %d renditions, got %d", len(thumbnailSizes), len(repo.renditions))
	}
	seen := make(map[string]repository.CreateRenditionParams)
	for _, r := range repo.renditions {
		seen[r.Name] = r
	}
	for name, size := range thumbnailSizes {
		r, ok := seen[name]
		if !ok {
			t.Fatalf("missing rendition %s", name)
		}
		if r.ContentType != "image/jpeg" {
			t.Fatalf("rendition %s content type = %s", name, r.ContentType)
		}
		if r.Width > int(size) || r.Height > int(size) {
			t.Fatalf("rendition %s is %dx%d, exceeds bounding box %d", name, r.Width, r.Height, size)
		}
		// The source is wider than tall, so the width should hit the box.
		if r.Width != int(size) {
			t.Fatalf("rendition %s width = %d, want %d", name, r.Width, size)
		}
		if r.SizeBytes == 0 {
			t.Fatalf("rendition %s has no size", name)
		}
		if len(store.uploads[r.FileKey]) == 0 {
			t.Fatalf("rendition %s has no uploaded bytes under key %s", name, r.FileKey)
		}
	}
}

func TestThumbnailerRecordsPreviewForVideo(t *testing.T) {
	repo := &fakeRepo{}
	thumbnailer := NewThumbnailer(repo, &fakeStorage{}, "originals", "renditions", logger.New("test"))

	asset := repository.Asset{
		ID:          uuid.New(),
		Kind:        domain.KindVideo,
		FileKey:     "org/originals/clip.mp4",
		ContentType: "video/mp4",
		SizeBytes:   1 << 20,
	}

	if err := thumbnailer.Process(context.Background(), asset); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(repo.renditions) != 1 {
		t.Fatalf("expected 1 preview rendition, got %d", len(repo.renditions))
	}
	preview := repo.renditions[0]
	if preview.Name != "preview" {
		t.Fatalf("rendition name = %s, want preview", preview.Name)
	}
	if preview.FileKey != asset.FileKey {
		t.Fatalf("preview must reference the original object, got %s", preview.FileKey)
	}
	if preview.ContentType != asset.ContentType {
		t.Fatalf("preview content type = %s, want %s", preview.ContentType, asset.ContentType)
	}
}

func TestThumbnailerIgnoresKindsOutsidePlan(t *testing.T) {
	repo := &fakeRepo{}
	thumbnailer := NewThumbnailer(repo, &fakeStorage{}, "originals", "renditions", logger.New("test"))

	asset := repository.Asset{ID: uuid.New(), Kind: domain.KindArchive}
	if err := thumbnailer.Process(context.Background(), asset); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(repo.renditions) != 0 {
		t.Fatalf("archives must not produce renditions")
	}
}
