package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
)

// UpsertEmbedding stores the embedding vector for an asset. The vector is
// passed as its text representation and cast server-side, which avoids
// registering the pgvector codec on every pool connection.
func (r *Repo) UpsertEmbedding(ctx context.Context, assetID uuid.UUID, vector []float32, model string) error {
	query := `
		INSERT INTO asset_embeddings (asset_id, embedding, model)
		VALUES ($1, $2::vector, $3)
		ON CONFLICT (asset_id) DO UPDATE
		SET embedding = EXCLUDED.embedding, model = EXCLUDED.model, updated_at = now()`

	if _, err := r.pool.Exec(ctx, query, assetID, pgvector.NewVector(vector).String(), model); err != nil {
		return fmt.Errorf("upsert embedding: %w", err)
	}
	return nil
}

// HasEmbedding reports whether an embedding exists for the asset.
func (r *Repo) HasEmbedding(ctx context.Context, assetID uuid.UUID) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM asset_embeddings WHERE asset_id = $1)`

	var exists bool
	if err := r.pool.QueryRow(ctx, query, assetID).Scan(&exists); err != nil {
		return false, fmt.Errorf("has embedding: %w", err)
	}
	return exists, nil
}

// SearchSimilarAssets returns ready assets of the same tenant ordered by
// cosine distance to the given asset's embedding.
func (r *Repo) SearchSimilarAssets(ctx context.Context, organizationID, assetID uuid.UUID, limit int) ([]Asset, error) {
	if limit <= 0 || limit > 50 {
		limit = 10
	}

	query := `
		SELECT ` + prefixedAssetColumns("a") + `
		FROM assets a
		JOIN asset_embeddings e ON e.asset_id = a.id
		WHERE a.organization_id = $1
		  AND a.id <> $2
		  AND a.status = 'ready'
		ORDER BY e.embedding <=> (SELECT embedding FROM asset_embeddings WHERE asset_id = $2)
		LIMIT $3`

	rows, err := r.pool.Query(ctx, query, organizationID, assetID, limit)
	if err != nil {
		return nil, fmt.Errorf("search similar assets: %w", err)
	}
	defer rows.Close()

	assets := make([]Asset, 0)
	for rows.Next() {
		asset, err := scanAsset(rows)
		if err != nil {
			return nil, fmt.Errorf("scan similar asset: %w", err)
		}
		assets = append(assets, asset)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("search similar assets rows: %w", err)
	}
	return assets, nil
}

func prefixedAssetColumns(alias string) string {
	return alias + `.id, ` + alias + `.organization_id, ` + alias + `.brand_id, ` + alias + `.kind, ` +
		alias + `.file_key, ` + alias + `.file_name, ` + alias + `.content_type, ` + alias + `.size_bytes, ` +
		alias + `.checksum, ` + alias + `.status, ` + alias + `.attempts, ` + alias + `.last_error, ` +
		alias + `.processing_started_at, ` + alias + `.ready_at, ` + alias + `.uploaded_by, ` +
		alias + `.created_at, ` + alias + `.updated_at`
}
