package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"mediavault_backend/platform/apperr"
)

// UpsertComplianceReport stores the compliance scoring result for an asset.
func (r *Repo) UpsertComplianceReport(ctx context.Context, assetID uuid.UUID, score int, verdict string, reasons []string) error {
	query := `
		INSERT INTO asset_compliance_reports (asset_id, score, verdict, reasons)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (asset_id) DO UPDATE
		SET score = EXCLUDED.score, verdict = EXCLUDED.verdict, reasons = EXCLUDED.reasons, updated_at = now()`

	if _, err := r.pool.Exec(ctx, query, assetID, score, verdict, reasons); err != nil {
		return fmt.Errorf("upsert compliance report: %w", err)
	}
	return nil
}

// GetComplianceReport retrieves the compliance report for an asset.
func (r *Repo) GetComplianceReport(ctx context.Context, assetID uuid.UUID) (ComplianceReport, error) {
	query := `
		SELECT asset_id, score, verdict, reasons, created_at, updated_at
		FROM asset_compliance_reports
		WHERE asset_id = $1`

	var report ComplianceReport
	if err := r.pool.QueryRow(ctx, query, assetID).Scan(
		&report.AssetID, &report.Score, &report.Verdict, &report.Reasons,
		&report.CreatedAt, &report.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ComplianceReport{}, apperr.NotFound("compliance report not found")
		}
		return ComplianceReport{}, fmt.Errorf("get compliance report: %w", err)
	}
	return report, nil
}

// GetAssetFacts aggregates the artifacts an asset has produced. The
// reconciler derives the status the asset should be in from these facts.
func (r *Repo) GetAssetFacts(ctx context.Context, assetID uuid.UUID) (AssetFacts, error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM asset_renditions WHERE asset_id = $1),
			EXISTS (SELECT 1 FROM asset_metadata WHERE asset_id = $1),
			EXISTS (SELECT 1 FROM asset_embeddings WHERE asset_id = $1),
			COALESCE((SELECT verdict FROM asset_compliance_reports WHERE asset_id = $1), '')`

	var facts AssetFacts
	if err := r.pool.QueryRow(ctx, query, assetID).Scan(
		&facts.RenditionCount, &facts.HasMetadata, &facts.HasEmbedding, &facts.ComplianceVerdict,
	); err != nil {
		return AssetFacts{}, fmt.Errorf("get asset facts: %w", err)
	}
	return facts, nil
}

// AppendTimelineEvent appends one audit record for an asset.
func (r *Repo) AppendTimelineEvent(ctx context.Context, params AppendTimelineParams) error {
	query := `
		INSERT INTO asset_timeline_events (organization_id, asset_id, event_type, description, actor_id)
		VALUES ($1, $2, $3, $4, $5)`

	if _, err := r.pool.Exec(ctx, query,
		params.OrganizationID, params.AssetID, params.EventType, params.Description, params.ActorID,
	); err != nil {
		return fmt.Errorf("append timeline event: %w", err)
	}
	return nil
}

// ListTimeline lists the newest timeline entries for an asset.
func (r *Repo) ListTimeline(ctx context.Context, organizationID, assetID uuid.UUID, limit int) ([]TimelineEvent, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	query := `
		SELECT id, organization_id, asset_id, event_type, description, actor_id, created_at
		FROM asset_timeline_events
		WHERE organization_id = $1 AND asset_id = $2
		ORDER BY created_at DESC
		LIMIT $3`

	rows, err := r.pool.Query(ctx, query, organizationID, assetID, limit)
	if err != nil {
		return nil, fmt.Errorf("list timeline: %w", err)
	}
	defer rows.Close()

	events := make([]TimelineEvent, 0)
	for rows.Next() {
		var event TimelineEvent
		if err := rows.Scan(
			&event.ID, &event.OrganizationID, &event.AssetID, &event.EventType,
			&event.Description, &event.ActorID, &event.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan timeline event: %w", err)
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list timeline rows: %w", err)
	}
	return events, nil
}
