package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"mediavault_backend/platform/apperr"
)

// UpsertMetadata stores the extracted metadata document for an asset.
func (r *Repo) UpsertMetadata(ctx context.Context, assetID uuid.UUID, document map[string]interface{}) error {
	query := `
		INSERT INTO asset_metadata (asset_id, document)
		VALUES ($1, $2)
		ON CONFLICT (asset_id) DO UPDATE
		SET document = EXCLUDED.document, updated_at = now()`

	if _, err := r.pool.Exec(ctx, query, assetID, document); err != nil {
		return fmt.Errorf("upsert metadata: %w", err)
	}
	return nil
}

// GetMetadata retrieves the metadata document for an asset. Returns an empty
// map when extraction has not run yet.
func (r *Repo) GetMetadata(ctx context.Context, assetID uuid.UUID) (map[string]interface{}, error) {
	query := `SELECT document FROM asset_metadata WHERE asset_id = $1`

	var document map[string]interface{}
	if err := r.pool.QueryRow(ctx, query, assetID).Scan(&document); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return map[string]interface{}{}, nil
		}
		return nil, fmt.Errorf("get metadata: %w", err)
	}
	return document, nil
}

// AddTags adds tags to an asset. Duplicate values update the source and
// confidence instead of failing, so AI re-tagging is idempotent.
func (r *Repo) AddTags(ctx context.Context, assetID uuid.UUID, tags []TagParams) error {
	if len(tags) == 0 {
		return nil
	}

	query := `
		INSERT INTO asset_tags (asset_id, value, source, confidence)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (asset_id, value) DO UPDATE
		SET source = EXCLUDED.source, confidence = EXCLUDED.confidence`

	for _, tag := range tags {
		if _, err := r.pool.Exec(ctx, query, assetID, tag.Value, tag.Source, tag.Confidence); err != nil {
			return fmt.Errorf("add tag %q: %w", tag.Value, err)
		}
	}
	return nil
}

// DeleteTag removes a tag from an asset by value.
func (r *Repo) DeleteTag(ctx context.Context, assetID uuid.UUID, value string) error {
	query := `DELETE FROM asset_tags WHERE asset_id = $1 AND value = $2`
	result, err := r.pool.Exec(ctx, query, assetID, value)
	if err != nil {
		return fmt.Errorf("delete tag: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.NotFound("tag not found")
	}
	return nil
}

// ListTags lists the tags of an asset.
func (r *Repo) ListTags(ctx context.Context, assetID uuid.UUID) ([]Tag, error) {
	query := `
		SELECT id, asset_id, value, source, confidence, created_at
		FROM asset_tags
		WHERE asset_id = $1
		ORDER BY value`

	rows, err := r.pool.Query(ctx, query, assetID)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	defer rows.Close()

	tags := make([]Tag, 0)
	for rows.Next() {
		var tag Tag
		if err := rows.Scan(&tag.ID, &tag.AssetID, &tag.Value, &tag.Source, &tag.Confidence, &tag.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan tag: %w", err)
		}
		tags = append(tags, tag)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list tags rows: %w", err)
	}
	return tags, nil
}
