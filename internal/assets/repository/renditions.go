package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"mediavault_backend/platform/apperr"
)

const renditionColumns = `id, asset_id, name, file_key, content_type, width, height, size_bytes, created_at`

func scanRendition(row pgx.Row) (Rendition, error) {
	var rendition Rendition
	err := row.Scan(
		&rendition.ID, &rendition.AssetID, &rendition.Name, &rendition.FileKey,
		&rendition.ContentType, &rendition.Width, &rendition.Height,
		&rendition.SizeBytes, &rendition.CreatedAt,
	)
	return rendition, err
}

// CreateRendition records a derived file. Re-running a stage overwrites the
// previous record for the same (asset, name) pair so retries stay idempotent.
func (r *Repo) CreateRendition(ctx context.Context, params CreateRenditionParams) (Rendition, error) {
	query := `
		INSERT INTO asset_renditions (asset_id, name, file_key, content_type, width, height, size_bytes)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (asset_id, name) DO UPDATE
		SET file_key = EXCLUDED.file_key,
			content_type = EXCLUDED.content_type,
			width = EXCLUDED.width,
			height = EXCLUDED.height,
			size_bytes = EXCLUDED.size_bytes
		RETURNING ` + renditionColumns

	rendition, err := scanRendition(r.pool.QueryRow(ctx, query,
		params.AssetID, params.Name, params.FileKey, params.ContentType,
		params.Width, params.Height, params.SizeBytes,
	))
	if err != nil {
		return Rendition{}, fmt.Errorf("create rendition: %w", err)
	}
	return rendition, nil
}

// GetRenditionByID retrieves a rendition scoped to its asset.
func (r *Repo) GetRenditionByID(ctx context.Context, assetID, id uuid.UUID) (Rendition, error) {
	query := `SELECT ` + renditionColumns + ` FROM asset_renditions WHERE id = $1 AND asset_id = $2`

	rendition, err := scanRendition(r.pool.QueryRow(ctx, query, id, assetID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Rendition{}, apperr.NotFound(renditionNotFoundMessage)
		}
		return Rendition{}, fmt.Errorf("get rendition by id: %w", err)
	}
	return rendition, nil
}

// ListRenditions lists all renditions of an asset.
func (r *Repo) ListRenditions(ctx context.Context, assetID uuid.UUID) ([]Rendition, error) {
	query := `SELECT ` + renditionColumns + ` FROM asset_renditions WHERE asset_id = $1 ORDER BY name`

	rows, err := r.pool.Query(ctx, query, assetID)
	if err != nil {
		return nil, fmt.Errorf("list renditions: %w", err)
	}
	defer rows.Close()

	renditions := make([]Rendition, 0)
	for rows.Next() {
		rendition, err := scanRendition(rows)
		if err != nil {
			return nil, fmt.Errorf("scan rendition: %w", err)
		}
		renditions = append(renditions, rendition)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list renditions rows: %w", err)
	}
	return renditions, nil
}
