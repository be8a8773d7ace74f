package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Asset represents a stored media asset and its pipeline state.
type Asset struct {
	ID                  uuid.UUID  `db:"id"`
	OrganizationID      uuid.UUID  `db:"organization_id"`
	BrandID             *uuid.UUID `db:"brand_id"`
	Kind                string     `db:"kind"`
	FileKey             string     `db:"file_key"`
	FileName            string     `db:"file_name"`
	ContentType         string     `db:"content_type"`
	SizeBytes           int64      `db:"size_bytes"`
	Checksum            *string    `db:"checksum"`
	Status              string     `db:"status"`
	Attempts            int        `db:"attempts"`
	LastError           *string    `db:"last_error"`
	ProcessingStartedAt *time.Time `db:"processing_started_at"`
	ReadyAt             *time.Time `db:"ready_at"`
	UploadedBy          uuid.UUID  `db:"uploaded_by"`
	CreatedAt           time.Time  `db:"created_at"`
	UpdatedAt           time.Time  `db:"updated_at"`
}

// Rendition is a derived file (thumbnail or preview) for an asset.
type Rendition struct {
	ID          uuid.UUID `db:"id"`
	AssetID     uuid.UUID `db:"asset_id"`
	Name        string    `db:"name"`
	FileKey     string    `db:"file_key"`
	ContentType string    `db:"content_type"`
	Width       int       `db:"width"`
	Height      int       `db:"height"`
	SizeBytes   int64     `db:"size_bytes"`
	CreatedAt   time.Time `db:"created_at"`
}

// Tag is a label on an asset, either user-assigned or AI-suggested.
type Tag struct {
	ID         uuid.UUID `db:"id"`
	AssetID    uuid.UUID `db:"asset_id"`
	Value      string    `db:"value"`
	Source     string    `db:"source"` // "user" or "ai"
	Confidence *float64  `db:"confidence"`
	CreatedAt  time.Time `db:"created_at"`
}

// ComplianceReport is the result of compliance scoring for an asset.
type ComplianceReport struct {
	AssetID   uuid.UUID `db:"asset_id"`
	Score     int       `db:"score"`
	Verdict   string    `db:"verdict"` // "pass", "review" or "reject"
	Reasons   []string  `db:"reasons"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// TimelineEvent is an append-only audit record of a pipeline or governance action.
type TimelineEvent struct {
	ID             uuid.UUID  `db:"id"`
	OrganizationID uuid.UUID  `db:"organization_id"`
	AssetID        uuid.UUID  `db:"asset_id"`
	EventType      string     `db:"event_type"`
	Description    string     `db:"description"`
	ActorID        *uuid.UUID `db:"actor_id"`
	CreatedAt      time.Time  `db:"created_at"`
}

// AssetFacts are the artifact aggregates used to derive the status an asset
// should be in. The reconciler compares the stored status against what the
// facts support.
type AssetFacts struct {
	RenditionCount    int
	HasMetadata       bool
	HasEmbedding      bool
	ComplianceVerdict string // "" when no report exists
}

// CreateAssetParams contains data for reserving an upload slot.
type CreateAssetParams struct {
	OrganizationID uuid.UUID
	BrandID        *uuid.UUID
	Kind           string
	FileKey        string
	FileName       string
	ContentType    string
	SizeBytes      int64
	UploadedBy     uuid.UUID
}

// ListAssetsParams defines filters for listing assets.
type ListAssetsParams struct {
	OrganizationID uuid.UUID
	BrandID        *uuid.UUID
	Kind           string
	Status         string
	Search         string
	Offset         int
	Limit          int
}

// StuckAssetsParams defines the watchdog scan window.
type StuckAssetsParams struct {
	OlderThan time.Duration
	Limit     int
}

// ReconcileScanParams defines which assets the reconciler examines.
type ReconcileScanParams struct {
	OrganizationID *uuid.UUID
	OlderThan      time.Duration
	Limit          int
}

// CreateRenditionParams contains data for recording a derived file.
type CreateRenditionParams struct {
	AssetID     uuid.UUID
	Name        string
	FileKey     string
	ContentType string
	Width       int
	Height      int
	SizeBytes   int64
}

// TagParams contains data for adding a tag to an asset.
type TagParams struct {
	Value      string
	Source     string
	Confidence *float64
}

// StatusCount is one row of the per-status stats aggregation.
type StatusCount struct {
	Status string
	Count  int
}

// KindCount is one row of the per-kind stats aggregation.
type KindCount struct {
	Kind  string
	Count int
}

// AppendTimelineParams contains data for one timeline entry.
type AppendTimelineParams struct {
	OrganizationID uuid.UUID
	AssetID        uuid.UUID
	EventType      string
	Description    string
	ActorID        *uuid.UUID
}

// Repository defines asset storage operations.
type Repository interface {
	CreateAsset(ctx context.Context, params CreateAssetParams) (Asset, error)
	GetAssetByID(ctx context.Context, organizationID, id uuid.UUID) (Asset, error)
	GetAssetAnyTenant(ctx context.Context, id uuid.UUID) (Asset, error)
	ListAssets(ctx context.Context, params ListAssetsParams) ([]Asset, int, error)
	DeleteAsset(ctx context.Context, organizationID, id uuid.UUID) error

	// TransitionStatus performs a compare-and-swap status update. It returns
	// false (and no error) when the asset was not in the expected status.
	TransitionStatus(ctx context.Context, id uuid.UUID, from, to string) (bool, error)
	MarkUploaded(ctx context.Context, id uuid.UUID, sizeBytes int64, checksum string) (bool, error)
	MarkFailed(ctx context.Context, id uuid.UUID, lastError string) (bool, error)
	MarkQuarantined(ctx context.Context, id uuid.UUID, reason string) (bool, error)
	MarkReady(ctx context.Context, id uuid.UUID) (bool, error)
	TouchProcessing(ctx context.Context, id uuid.UUID) error
	IncrementAttempts(ctx context.Context, id uuid.UUID) (int, error)
	ResetAttempts(ctx context.Context, id uuid.UUID) error

	GetAssetStats(ctx context.Context, organizationID uuid.UUID) ([]StatusCount, []KindCount, error)
	ListStuckAssets(ctx context.Context, params StuckAssetsParams) ([]Asset, error)
	ListAssetsForReconcile(ctx context.Context, params ReconcileScanParams) ([]Asset, error)

	CreateRendition(ctx context.Context, params CreateRenditionParams) (Rendition, error)
	GetRenditionByID(ctx context.Context, assetID, id uuid.UUID) (Rendition, error)
	ListRenditions(ctx context.Context, assetID uuid.UUID) ([]Rendition, error)

	UpsertMetadata(ctx context.Context, assetID uuid.UUID, document map[string]interface{}) error
	GetMetadata(ctx context.Context, assetID uuid.UUID) (map[string]interface{}, error)

	AddTags(ctx context.Context, assetID uuid.UUID, tags []TagParams) error
	DeleteTag(ctx context.Context, assetID uuid.UUID, value string) error
	ListTags(ctx context.Context, assetID uuid.UUID) ([]Tag, error)

	UpsertEmbedding(ctx context.Context, assetID uuid.UUID, vector []float32, model string) error
	HasEmbedding(ctx context.Context, assetID uuid.UUID) (bool, error)
	SearchSimilarAssets(ctx context.Context, organizationID, assetID uuid.UUID, limit int) ([]Asset, error)

	UpsertComplianceReport(ctx context.Context, assetID uuid.UUID, score int, verdict string, reasons []string) error
	GetComplianceReport(ctx context.Context, assetID uuid.UUID) (ComplianceReport, error)

	GetAssetFacts(ctx context.Context, assetID uuid.UUID) (AssetFacts, error)

	AppendTimelineEvent(ctx context.Context, params AppendTimelineParams) error
	ListTimeline(ctx context.Context, organizationID, assetID uuid.UUID, limit int) ([]TimelineEvent, error)
}
