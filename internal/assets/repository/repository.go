package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"mediavault_backend/internal/assets/domain"
	"mediavault_backend/platform/apperr"
)

const (
	assetNotFoundMessage     = "asset not found"
	renditionNotFoundMessage = "rendition not found"

	assetColumns = `id, organization_id, brand_id, kind, file_key, file_name, content_type,
		size_bytes, checksum, status, attempts, last_error, processing_started_at,
		ready_at, uploaded_by, created_at, updated_at`
)

// Repo implements the assets repository.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new assets repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Compile-time check that Repo implements Repository.
var _ Repository = (*Repo)(nil)

func scanAsset(row pgx.Row) (Asset, error) {
	var asset Asset
	err := row.Scan(
		&asset.ID, &asset.OrganizationID, &asset.BrandID, &asset.Kind, &asset.FileKey,
		&asset.FileName, &asset.ContentType, &asset.SizeBytes, &asset.Checksum,
		&asset.Status, &asset.Attempts, &asset.LastError, &asset.ProcessingStartedAt,
		&asset.ReadyAt, &asset.UploadedBy, &asset.CreatedAt, &asset.UpdatedAt,
	)
	return asset, err
}

// CreateAsset reserves an upload slot in pending_upload status.
func (r *Repo) CreateAsset(ctx context.Context, params CreateAssetParams) (Asset, error) {
	query := `
		INSERT INTO assets (organization_id, brand_id, kind, file_key, file_name, content_type, size_bytes, status, uploaded_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING ` + assetColumns

	asset, err := scanAsset(r.pool.QueryRow(ctx, query,
		params.OrganizationID, params.BrandID, params.Kind, params.FileKey,
		params.FileName, params.ContentType, params.SizeBytes,
		domain.StatusPendingUpload, params.UploadedBy,
	))
	if err != nil {
		return Asset{}, fmt.Errorf("create asset: %w", err)
	}
	return asset, nil
}

// GetAssetByID retrieves an asset scoped to a tenant.
func (r *Repo) GetAssetByID(ctx context.Context, organizationID, id uuid.UUID) (Asset, error) {
	query := `SELECT ` + assetColumns + ` FROM assets WHERE id = $1 AND organization_id = $2`

	asset, err := scanAsset(r.pool.QueryRow(ctx, query, id, organizationID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Asset{}, apperr.NotFound(assetNotFoundMessage)
		}
		return Asset{}, fmt.Errorf("get asset by id: %w", err)
	}
	return asset, nil
}

// GetAssetAnyTenant retrieves an asset without a tenant filter. Only the
// pipeline worker and self-healing loops use this.
func (r *Repo) GetAssetAnyTenant(ctx context.Context, id uuid.UUID) (Asset, error) {
	query := `SELECT ` + assetColumns + ` FROM assets WHERE id = $1`

	asset, err := scanAsset(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Asset{}, apperr.NotFound(assetNotFoundMessage)
		}
		return Asset{}, fmt.Errorf("get asset: %w", err)
	}
	return asset, nil
}

// ListAssets lists assets with filters and pagination. Returns the page and
// the total count of matching rows.
func (r *Repo) ListAssets(ctx context.Context, params ListAssetsParams) ([]Asset, int, error) {
	whereClauses := []string{"organization_id = $1"}
	args := []interface{}{params.OrganizationID}

	if params.BrandID != nil {
		args = append(args, *params.BrandID)
		whereClauses = append(whereClauses, fmt.Sprintf("brand_id = $%d", len(args)))
	}
	if params.Kind != "" {
		args = append(args, params.Kind)
		whereClauses = append(whereClauses, fmt.Sprintf("kind = $%d", len(args)))
	}
	if params.Status != "" {
		args = append(args, params.Status)
		whereClauses = append(whereClauses, fmt.Sprintf("status = $%d", len(args)))
	}
	if params.Search != "" {
		args = append(args, "%"+params.Search+"%")
		whereClauses = append(whereClauses, fmt.Sprintf("file_name ILIKE $%d", len(args)))
	}

	where := strings.Join(whereClauses, " AND ")

	var total int
	countQuery := `SELECT COUNT(*) FROM assets WHERE ` + where
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count assets: %w", err)
	}

	limit := params.Limit
	if limit <= 0 || limit > 100 {
		limit = 25
	}
	args = append(args, limit, params.Offset)
	listQuery := fmt.Sprintf(
		`SELECT %s FROM assets WHERE %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		assetColumns, where, len(args)-1, len(args),
	)

	rows, err := r.pool.Query(ctx, listQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list assets: %w", err)
	}
	defer rows.Close()

	assets := make([]Asset, 0)
	for rows.Next() {
		asset, err := scanAsset(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan asset: %w", err)
		}
		assets = append(assets, asset)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list assets rows: %w", err)
	}

	return assets, total, nil
}

// DeleteAsset removes an asset. Renditions, metadata, tags, embeddings,
// compliance reports and timeline entries cascade via foreign keys.
func (r *Repo) DeleteAsset(ctx context.Context, organizationID, id uuid.UUID) error {
	query := `DELETE FROM assets WHERE id = $1 AND organization_id = $2`
	result, err := r.pool.Exec(ctx, query, id, organizationID)
	if err != nil {
		return fmt.Errorf("delete asset: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.NotFound(assetNotFoundMessage)
	}
	return nil
}

// TransitionStatus performs a compare-and-swap status update. A transition
// into a transient status stamps processing_started_at so the watchdog can
// measure how long the stage has been in flight.
func (r *Repo) TransitionStatus(ctx context.Context, id uuid.UUID, from, to string) (bool, error) {
	if !domain.CanTransition(from, to) {
		return false, apperr.Conflict(fmt.Sprintf("illegal status transition %s -> %s", from, to))
	}

	query := `
		UPDATE assets
		SET status = $3, updated_at = now()
		WHERE id = $1 AND status = $2`
	if domain.IsTransientStatus(to) {
		query = `
			UPDATE assets
			SET status = $3, processing_started_at = now(), updated_at = now()
			WHERE id = $1 AND status = $2`
	}

	result, err := r.pool.Exec(ctx, query, id, from, to)
	if err != nil {
		return false, fmt.Errorf("transition status: %w", err)
	}
	return result.RowsAffected() > 0, nil
}

// MarkUploaded records the verified object size and checksum and moves the
// asset from pending_upload to uploaded.
func (r *Repo) MarkUploaded(ctx context.Context, id uuid.UUID, sizeBytes int64, checksum string) (bool, error) {
	query := `
		UPDATE assets
		SET status = $4, size_bytes = $2, checksum = NULLIF($3, ''), updated_at = now()
		WHERE id = $1 AND status = $5`

	result, err := r.pool.Exec(ctx, query, id, sizeBytes, checksum, domain.StatusUploaded, domain.StatusPendingUpload)
	if err != nil {
		return false, fmt.Errorf("mark uploaded: %w", err)
	}
	return result.RowsAffected() > 0, nil
}

// MarkFailed moves an in-flight asset to failed, records the error and
// increments the attempt counter. Returns false when the asset was not in a
// transient status (a concurrent worker already resolved it).
func (r *Repo) MarkFailed(ctx context.Context, id uuid.UUID, lastError string) (bool, error) {
	query := `
		UPDATE assets
		SET status = $3, last_error = $2, attempts = attempts + 1, updated_at = now()
		WHERE id = $1 AND status = ANY($4)`

	result, err := r.pool.Exec(ctx, query, id, lastError, domain.StatusFailed, transientStatusList())
	if err != nil {
		return false, fmt.Errorf("mark failed: %w", err)
	}
	return result.RowsAffected() > 0, nil
}

// MarkQuarantined moves an asset from scoring to quarantined with the
// rejection reason.
func (r *Repo) MarkQuarantined(ctx context.Context, id uuid.UUID, reason string) (bool, error) {
	query := `
		UPDATE assets
		SET status = $3, last_error = $2, updated_at = now()
		WHERE id = $1 AND status = $4`

	result, err := r.pool.Exec(ctx, query, id, reason, domain.StatusQuarantined, domain.StatusScoring)
	if err != nil {
		return false, fmt.Errorf("mark quarantined: %w", err)
	}
	return result.RowsAffected() > 0, nil
}

// MarkReady completes the pipeline: finalizing -> ready, stamps ready_at and
// clears any stale error.
func (r *Repo) MarkReady(ctx context.Context, id uuid.UUID) (bool, error) {
	query := `
		UPDATE assets
		SET status = $2, ready_at = now(), last_error = NULL, updated_at = now()
		WHERE id = $1 AND status = $3`

	result, err := r.pool.Exec(ctx, query, id, domain.StatusReady, domain.StatusFinalizing)
	if err != nil {
		return false, fmt.Errorf("mark ready: %w", err)
	}
	return result.RowsAffected() > 0, nil
}

// TouchProcessing resets the processing clock for an asset. Auto-recovery
// uses this when it re-enqueues a stuck stage.
func (r *Repo) TouchProcessing(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE assets SET processing_started_at = now(), updated_at = now() WHERE id = $1`
	if _, err := r.pool.Exec(ctx, query, id); err != nil {
		return fmt.Errorf("touch processing: %w", err)
	}
	return nil
}

// IncrementAttempts bumps the attempt counter and returns the new value.
func (r *Repo) IncrementAttempts(ctx context.Context, id uuid.UUID) (int, error) {
	query := `UPDATE assets SET attempts = attempts + 1, updated_at = now() WHERE id = $1 RETURNING attempts`

	var attempts int
	if err := r.pool.QueryRow(ctx, query, id).Scan(&attempts); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, apperr.NotFound(assetNotFoundMessage)
		}
		return 0, fmt.Errorf("increment attempts: %w", err)
	}
	return attempts, nil
}

// ResetAttempts clears the attempt counter, used when an admin retries or
// releases an asset.
func (r *Repo) ResetAttempts(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE assets SET attempts = 0, last_error = NULL, updated_at = now() WHERE id = $1`
	if _, err := r.pool.Exec(ctx, query, id); err != nil {
		return fmt.Errorf("reset attempts: %w", err)
	}
	return nil
}

// GetAssetStats returns per-status and per-kind counts for a tenant.
func (r *Repo) GetAssetStats(ctx context.Context, organizationID uuid.UUID) ([]StatusCount, []KindCount, error) {
	statusQuery := `SELECT status, COUNT(*) FROM assets WHERE organization_id = $1 GROUP BY status ORDER BY status`
	rows, err := r.pool.Query(ctx, statusQuery, organizationID)
	if err != nil {
		return nil, nil, fmt.Errorf("asset status stats: %w", err)
	}
	defer rows.Close()

	statusCounts := make([]StatusCount, 0)
	for rows.Next() {
		var row StatusCount
		if err := rows.Scan(&row.Status, &row.Count); err != nil {
			return nil, nil, fmt.Errorf("scan status stats: %w", err)
		}
		statusCounts = append(statusCounts, row)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("asset status stats rows: %w", err)
	}

	kindQuery := `SELECT kind, COUNT(*) FROM assets WHERE organization_id = $1 GROUP BY kind ORDER BY kind`
	kindRows, err := r.pool.Query(ctx, kindQuery, organizationID)
	if err != nil {
		return nil, nil, fmt.Errorf("asset kind stats: %w", err)
	}
	defer kindRows.Close()

	kindCounts := make([]KindCount, 0)
	for kindRows.Next() {
		var row KindCount
		if err := kindRows.Scan(&row.Kind, &row.Count); err != nil {
			return nil, nil, fmt.Errorf("scan kind stats: %w", err)
		}
		kindCounts = append(kindCounts, row)
	}
	if err := kindRows.Err(); err != nil {
		return nil, nil, fmt.Errorf("asset kind stats rows: %w", err)
	}

	return statusCounts, kindCounts, nil
}

// ListStuckAssets finds assets sitting in a transient status longer than the
// given threshold. This scan is cross-tenant: stuck work is an operational
// concern, not a tenant-facing one.
func (r *Repo) ListStuckAssets(ctx context.Context, params StuckAssetsParams) ([]Asset, error) {
	limit := params.Limit
	if limit <= 0 {
		limit = 100
	}
	cutoff := time.Now().Add(-params.OlderThan)

	query := `
		SELECT ` + assetColumns + `
		FROM assets
		WHERE status = ANY($1) AND processing_started_at IS NOT NULL AND processing_started_at < $2
		ORDER BY processing_started_at ASC
		LIMIT $3`

	rows, err := r.pool.Query(ctx, query, transientStatusList(), cutoff, limit)
	if err != nil {
		return nil, fmt.Errorf("list stuck assets: %w", err)
	}
	defer rows.Close()

	assets := make([]Asset, 0)
	for rows.Next() {
		asset, err := scanAsset(rows)
		if err != nil {
			return nil, fmt.Errorf("scan stuck asset: %w", err)
		}
		assets = append(assets, asset)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list stuck assets rows: %w", err)
	}
	return assets, nil
}

// ListAssetsForReconcile finds non-terminal assets that have not moved
// recently, for state derivation. pending_upload is skipped because there is
// nothing to derive before the object exists.
func (r *Repo) ListAssetsForReconcile(ctx context.Context, params ReconcileScanParams) ([]Asset, error) {
	limit := params.Limit
	if limit <= 0 {
		limit = 200
	}
	cutoff := time.Now().Add(-params.OlderThan)

	whereClauses := []string{
		"status NOT IN ($1, $2, $3)",
		"updated_at < $4",
	}
	args := []interface{}{domain.StatusPendingUpload, domain.StatusReady, domain.StatusQuarantined, cutoff}

	if params.OrganizationID != nil {
		args = append(args, *params.OrganizationID)
		whereClauses = append(whereClauses, fmt.Sprintf("organization_id = $%d", len(args)))
	}

	args = append(args, limit)
	query := fmt.Sprintf(
		`SELECT %s FROM assets WHERE %s ORDER BY updated_at ASC LIMIT $%d`,
		assetColumns, strings.Join(whereClauses, " AND "), len(args),
	)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list assets for reconcile: %w", err)
	}
	defer rows.Close()

	assets := make([]Asset, 0)
	for rows.Next() {
		asset, err := scanAsset(rows)
		if err != nil {
			return nil, fmt.Errorf("scan reconcile asset: %w", err)
		}
		assets = append(assets, asset)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list assets for reconcile rows: %w", err)
	}
	return assets, nil
}

func transientStatusList() []string {
	return []string{
		domain.StatusThumbnailing,
		domain.StatusExtracting,
		domain.StatusEmbedding,
		domain.StatusScoring,
		domain.StatusFinalizing,
	}
}
