// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"mediavault_backend/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// =============================================================================
// Asset Domain Events
// =============================================================================

// AssetUploadInitiated is published when an upload slot is reserved and a
// presigned PUT URL is handed to the client.
type AssetUploadInitiated struct {
	BaseEvent
	AssetID    uuid.UUID `json:"assetId"`
	TenantID   uuid.UUID `json:"tenantId"`
	UploaderID uuid.UUID `json:"uploaderId"`
	FileName   string    `json:"fileName"`
	StorageKey string    `json:"storageKey"`
}

func (e AssetUploadInitiated) EventName() string { return "assets.upload.initiated" }

// AssetUploaded is published when the client confirms the upload and the
// object is verified in the originals bucket. This kicks off the pipeline.
type AssetUploaded struct {
	BaseEvent
	AssetID   uuid.UUID `json:"assetId"`
	TenantID  uuid.UUID `json:"tenantId"`
	Kind      string    `json:"kind"`
	SizeBytes int64     `json:"sizeBytes"`
	Checksum  string    `json:"checksum,omitempty"`
}

func (e AssetUploaded) EventName() string { return "assets.asset.uploaded" }

// AssetStageCompleted is published when a pipeline stage finishes for an asset.
type AssetStageCompleted struct {
	BaseEvent
	AssetID    uuid.UUID `json:"assetId"`
	TenantID   uuid.UUID `json:"tenantId"`
	Stage      string    `json:"stage"`
	DurationMs int64     `json:"durationMs"`
}

func (e AssetStageCompleted) EventName() string { return "assets.stage.completed" }

// AssetReady is published when the full pipeline completes and the asset is
// available for browsing and download.
type AssetReady struct {
	BaseEvent
	AssetID  uuid.UUID `json:"assetId"`
	TenantID uuid.UUID `json:"tenantId"`
}

func (e AssetReady) EventName() string { return "assets.asset.ready" }

// AssetFailed is published when a pipeline stage fails and the asset moves to
// the retryable failed status.
type AssetFailed struct {
	BaseEvent
	AssetID  uuid.UUID `json:"assetId"`
	TenantID uuid.UUID `json:"tenantId"`
	Stage    string    `json:"stage"`
	Reason   string    `json:"reason"`
	Attempt  int       `json:"attempt"`
}

func (e AssetFailed) EventName() string { return "assets.asset.failed" }

// AssetQuarantined is published when an asset exhausts its retry budget or
// compliance scoring rejects it. Quarantined assets need an admin release.
type AssetQuarantined struct {
	BaseEvent
	AssetID  uuid.UUID `json:"assetId"`
	TenantID uuid.UUID `json:"tenantId"`
	Reason   string    `json:"reason"`
}

func (e AssetQuarantined) EventName() string { return "assets.asset.quarantined" }

// AssetReleased is published when an admin releases a quarantined asset back
// into the pipeline.
type AssetReleased struct {
	BaseEvent
	AssetID    uuid.UUID `json:"assetId"`
	TenantID   uuid.UUID `json:"tenantId"`
	ReleasedBy uuid.UUID `json:"releasedBy"`
}

func (e AssetReleased) EventName() string { return "assets.asset.released" }

// AssetStuck is published by the watchdog when an asset has sat in an
// in-flight stage longer than the stuck threshold.
type AssetStuck struct {
	BaseEvent
	AssetID      uuid.UUID `json:"assetId"`
	TenantID     uuid.UUID `json:"tenantId"`
	Status       string    `json:"status"`
	StuckMinutes int       `json:"stuckMinutes"`
}

func (e AssetStuck) EventName() string { return "assets.asset.stuck" }

// AssetRecovered is published when auto-recovery resets a stuck asset and
// re-enqueues its current stage.
type AssetRecovered struct {
	BaseEvent
	AssetID    uuid.UUID `json:"assetId"`
	TenantID   uuid.UUID `json:"tenantId"`
	FromStatus string    `json:"fromStatus"`
	ToStatus   string    `json:"toStatus"`
}

func (e AssetRecovered) EventName() string { return "assets.asset.recovered" }

// AssetStateReconciled is published when the reconciler corrects an asset
// whose stored status diverged from the state derived from its artifacts.
type AssetStateReconciled struct {
	BaseEvent
	AssetID    uuid.UUID `json:"assetId"`
	TenantID   uuid.UUID `json:"tenantId"`
	FromStatus string    `json:"fromStatus"`
	ToStatus   string    `json:"toStatus"`
	Reason     string    `json:"reason"`
}

func (e AssetStateReconciled) EventName() string { return "assets.asset.state_reconciled" }

// AssetDeleted is published when an asset is soft-deleted.
type AssetDeleted struct {
	BaseEvent
	AssetID   uuid.UUID `json:"assetId"`
	TenantID  uuid.UUID `json:"tenantId"`
	DeletedBy uuid.UUID `json:"deletedBy"`
}

func (e AssetDeleted) EventName() string { return "assets.asset.deleted" }

// AssetTagsChanged is published when tags are added to or removed from an asset.
type AssetTagsChanged struct {
	BaseEvent
	AssetID  uuid.UUID `json:"assetId"`
	TenantID uuid.UUID `json:"tenantId"`
	Added    []string  `json:"added,omitempty"`
	Removed  []string  `json:"removed,omitempty"`
}

func (e AssetTagsChanged) EventName() string { return "assets.tags.changed" }

// =============================================================================
// AI Tagging Domain Events
// =============================================================================

// AutoTaggingCompleted is published when the AI tagger finishes suggesting
// tags for an asset.
type AutoTaggingCompleted struct {
	BaseEvent
	AssetID  uuid.UUID `json:"assetId"`
	TenantID uuid.UUID `json:"tenantId"`
	TagCount int       `json:"tagCount"`
	Summary  string    `json:"summary,omitempty"`
}

func (e AutoTaggingCompleted) EventName() string { return "ai.auto_tagging.completed" }

// AutoTaggingFailed is published when AI tagging cannot be completed.
// Tagging is best-effort so this never fails the pipeline.
type AutoTaggingFailed struct {
	BaseEvent
	AssetID      uuid.UUID `json:"assetId"`
	TenantID     uuid.UUID `json:"tenantId"`
	ErrorMessage string    `json:"errorMessage"`
}

func (e AutoTaggingFailed) EventName() string { return "ai.auto_tagging.failed" }

// =============================================================================
// Brand Domain Events
// =============================================================================

// BrandCreated is published when a brand workspace is created.
type BrandCreated struct {
	BaseEvent
	BrandID   uuid.UUID `json:"brandId"`
	TenantID  uuid.UUID `json:"tenantId"`
	Name      string    `json:"name"`
	CreatedBy uuid.UUID `json:"createdBy"`
}

func (e BrandCreated) EventName() string { return "brands.brand.created" }
