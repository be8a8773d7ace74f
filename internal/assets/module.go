// Package assets provides the asset management bounded context module.
package assets

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"mediavault_backend/internal/adapters/storage"
	"mediavault_backend/internal/assets/handler"
	"mediavault_backend/internal/assets/repository"
	"mediavault_backend/internal/assets/service"
	"mediavault_backend/internal/events"
	apphttp "mediavault_backend/internal/http"
	"mediavault_backend/platform/logger"
	"mediavault_backend/platform/validator"
)

// Module is the assets bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	repo    repository.Repository
	log     *logger.Logger
}

// NewModule creates and initializes the assets module.
func NewModule(
	pool *pgxpool.Pool,
	storageSvc storage.StorageService,
	enqueuer service.PipelineEnqueuer,
	bus events.Bus,
	originalsBucket, renditionsBucket string,
	val *validator.Validator,
	log *logger.Logger,
) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, storageSvc, enqueuer, bus, originalsBucket, renditionsBucket, log)
	h := handler.New(svc, val)

	return &Module{
		handler: h,
		service: svc,
		repo:    repo,
		log:     log,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "assets"
}

// Service returns the service layer for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// Repository returns the repository for direct access if needed.
func (m *Module) Repository() repository.Repository {
	return m.repo
}

// RegisterRoutes mounts asset routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	assets := ctx.Protected.Group("/assets")

	// Presigned-URL handouts get the stricter upload limiter.
	assets.POST("/uploads", ctx.UploadRateLimiter.RateLimit(), m.handler.InitUpload)
	assets.POST("/:id/uploads/complete", m.handler.CompleteUpload)

	assets.GET("", m.handler.ListAssets)
	assets.GET("/stats", m.handler.Stats)
	assets.GET("/:id", m.handler.GetAsset)
	assets.DELETE("/:id", m.handler.DeleteAsset)
	assets.GET("/:id/download", m.handler.Download)
	assets.GET("/:id/renditions/:renditionId/download", m.handler.DownloadRendition)
	assets.GET("/:id/share-qr", m.handler.ShareQR)
	assets.GET("/:id/similar", m.handler.Similar)
	assets.GET("/:id/timeline", m.handler.Timeline)
	assets.POST("/:id/tags", m.handler.AddTags)
	assets.DELETE("/:id/tags/:value", m.handler.RemoveTag)

	// Governance actions are admin-only.
	adminGroup := ctx.Admin.Group("/assets")
	adminGroup.POST("/:id/retry", m.handler.Retry)
	adminGroup.POST("/:id/release", m.handler.Release)
}

// RegisterHandlers subscribes the module to the domain events it turns into
// timeline entries. The timeline is the per-asset audit trail surfaced via
// GET /assets/:id/timeline.
func (m *Module) RegisterHandlers(bus *events.InMemoryBus) {
	names := []string{
		events.AssetUploaded{}.EventName(),
		events.AssetReady{}.EventName(),
		events.AssetFailed{}.EventName(),
		events.AssetQuarantined{}.EventName(),
		events.AssetReleased{}.EventName(),
		events.AssetStuck{}.EventName(),
		events.AssetRecovered{}.EventName(),
		events.AssetStateReconciled{}.EventName(),
		events.AssetTagsChanged{}.EventName(),
		events.AutoTaggingCompleted{}.EventName(),
	}
	for _, name := range names {
		bus.Subscribe(name, m)
	}
}

// Handle appends a timeline entry for each subscribed domain event.
func (m *Module) Handle(ctx context.Context, event events.Event) error {
	switch e := event.(type) {
	case events.AssetUploaded:
		return m.appendTimeline(ctx, e.TenantID, e.AssetID, "asset.uploaded",
			fmt.Sprintf("upload confirmed (%d bytes, kind %s)", e.SizeBytes, e.Kind), nil)
	case events.AssetReady:
		return m.appendTimeline(ctx, e.TenantID, e.AssetID, "asset.ready",
			"pipeline completed, asset ready", nil)
	case events.AssetFailed:
		return m.appendTimeline(ctx, e.TenantID, e.AssetID, "pipeline.failed",
			fmt.Sprintf("stage %s failed (attempt %d): %s", e.Stage, e.Attempt, e.Reason), nil)
	case events.AssetQuarantined:
		return m.appendTimeline(ctx, e.TenantID, e.AssetID, "asset.quarantined", e.Reason, nil)
	case events.AssetReleased:
		return m.appendTimeline(ctx, e.TenantID, e.AssetID, "asset.released",
			"released from quarantine, re-running compliance scoring", &e.ReleasedBy)
	case events.AssetStuck:
		return m.appendTimeline(ctx, e.TenantID, e.AssetID, "watchdog.stuck",
			fmt.Sprintf("stuck in %s for %d minutes", e.Status, e.StuckMinutes), nil)
	case events.AssetRecovered:
		return m.appendTimeline(ctx, e.TenantID, e.AssetID, "watchdog.recovered",
			fmt.Sprintf("auto-recovered, re-enqueued stage for status %s", e.FromStatus), nil)
	case events.AssetStateReconciled:
		return m.appendTimeline(ctx, e.TenantID, e.AssetID, "reconciler.corrected",
			fmt.Sprintf("status corrected %s -> %s: %s", e.FromStatus, e.ToStatus, e.Reason), nil)
	case events.AssetTagsChanged:
		return m.appendTimeline(ctx, e.TenantID, e.AssetID, "tags.changed",
			describeTagChange(e.Added, e.Removed), nil)
	case events.AutoTaggingCompleted:
		return m.appendTimeline(ctx, e.TenantID, e.AssetID, "ai.tagged",
			fmt.Sprintf("AI tagging suggested %d tags", e.TagCount), nil)
	default:
		return nil
	}
}

func (m *Module) appendTimeline(ctx context.Context, tenantID, assetID uuid.UUID, eventType, description string, actorID *uuid.UUID) error {
	err := m.repo.AppendTimelineEvent(ctx, repository.AppendTimelineParams{
		OrganizationID: tenantID,
		AssetID:        assetID,
		EventType:      eventType,
		Description:    description,
		ActorID:        actorID,
	})
	if err != nil {
		m.log.Warn("failed to append timeline entry", "assetId", assetID, "eventType", eventType, "error", err)
	}
	return err
}

func describeTagChange(added, removed []string) string {
	switch {
	case len(added) > 0 && len(removed) > 0:
		return fmt.Sprintf("tags added: %v, removed: %v", added, removed)
	case len(added) > 0:
		return fmt.Sprintf("tags added: %v", added)
	case len(removed) > 0:
		return fmt.Sprintf("tags removed: %v", removed)
	default:
		return "tags unchanged"
	}
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
