package processors

import (
	"context"
	"fmt"
	"strings"

	"mediavault_backend/internal/assets/domain"
	"mediavault_backend/internal/assets/repository"
	"mediavault_backend/platform/ai/embeddingapi"
	"mediavault_backend/platform/logger"
)

// EmbeddingClient is the narrow interface the embedder needs from the
// embedding API client.
type EmbeddingClient interface {
	EmbedText(ctx context.Context, text string) ([]float32, error)
}

// Embedder vectorizes an asset's descriptive text for similarity search.
type Embedder struct {
	repo   repository.Repository
	client EmbeddingClient
	model  string
	log    *logger.Logger
}

// NewEmbedder creates the embedding stage processor. A nil client disables
// embedding; the stage then completes without storing a vector.
func NewEmbedder(repo repository.Repository, client EmbeddingClient, log *logger.Logger) *Embedder {
	return &Embedder{
		repo:   repo,
		client: client,
		model:  "default",
		log:    log,
	}
}

// Process embeds the asset's descriptive text and stores the vector.
func (e *Embedder) Process(ctx context.Context, asset repository.Asset) error {
	if e.client == nil {
		e.log.Debug("embedding disabled, skipping", "assetId", asset.ID)
		return nil
	}

	text, err := e.buildDescription(ctx, asset)
	if err != nil {
		return err
	}

	vector, err := e.client.EmbedText(ctx, text)
	if err != nil {
		return fmt.Errorf("embed asset text: %w", err)
	}
	if len(vector) != embeddingapi.Dimension {
		return fmt.Errorf("embedding API returned %d dimensions, expected %d", len(vector), embeddingapi.Dimension)
	}

	if err := e.repo.UpsertEmbedding(ctx, asset.ID, vector, e.model); err != nil {
		return err
	}

	e.log.PipelineStage(asset.ID.String(), domain.StageEmbed, "embedding_stored", 0)
	return nil
}

// buildDescription assembles the text that represents the asset: file name,
// kind, tags and notable metadata fields.
func (e *Embedder) buildDescription(ctx context.Context, asset repository.Asset) (string, error) {
	parts := []string{asset.FileName, asset.Kind, asset.ContentType}

	tags, err := e.repo.ListTags(ctx, asset.ID)
	if err != nil {
		return "", err
	}
	for _, tag := range tags {
		parts = append(parts, tag.Value)
	}

	document, err := e.repo.GetMetadata(ctx, asset.ID)
	if err != nil {
		return "", err
	}
	for _, key := range []string{"cameraMake", "cameraModel", "format", "takenAt"} {
		if value, ok := document[key].(string); ok && value != "" {
			parts = append(parts, value)
		}
	}

	return strings.Join(parts, " "), nil
}
