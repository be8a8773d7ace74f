package selfheal

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"mediavault_backend/internal/assets/domain"
	"mediavault_backend/internal/assets/repository"
	"mediavault_backend/internal/events"
	"mediavault_backend/platform/apperr"
	"mediavault_backend/platform/logger"
)

const reconcileScanBatch = 200

// Reconciler compares each asset's stored status against the status its
// recorded artifacts (renditions, metadata, embedding, compliance report)
// actually support, and corrects the stored status when they diverge.
// Divergence happens when a worker crashed between writing an artifact and
// updating the status, or when a status update was applied out of order.
type Reconciler struct {
	repo     repository.Repository
	enqueuer Enqueuer
	bus      events.Bus
	interval time.Duration
	window   time.Duration
	log      *logger.Logger
}

// NewReconciler creates a reconciler. The window is how long an asset must
// have gone without updates before it is examined.
func NewReconciler(repo repository.Repository, enqueuer Enqueuer, bus events.Bus, interval, window time.Duration, log *logger.Logger) *Reconciler {
	return &Reconciler{
		repo:     repo,
		enqueuer: enqueuer,
		bus:      bus,
		interval: interval,
		window:   window,
		log:      log,
	}
}

// Run reconciles on the configured interval until the context is cancelled.
func (r *Reconciler) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.log.Info("reconciler started", "interval", r.interval.String(), "window", r.window.String())
	for {
		select {
		case <-ctx.Done():
			r.log.Info("reconciler stopped")
			return
		case <-ticker.C:
			result, err := r.ReconcileOnce(ctx, ReconcileParams{OlderThan: r.window, Limit: reconcileScanBatch})
			if err != nil {
				r.log.Error("reconcile pass failed", "error", err)
				continue
			}
			if result.Corrected > 0 || result.Requeued > 0 {
				r.log.Info("reconcile pass finished",
					"examined", result.Examined, "corrected", result.Corrected, "requeued", result.Requeued)
			}
		}
	}
}

// ReconcileParams controls one reconcile pass.
type ReconcileParams struct {
	OrganizationID *uuid.UUID
	OlderThan      time.Duration
	Limit          int
	DryRun         bool
}

// ReconcileResult summarizes one reconcile pass.
type ReconcileResult struct {
	Examined  int
	Corrected int
	Requeued  int
	Failed    int
}

// ReconcileOnce performs a single reconcile pass and returns what it did.
// With DryRun set it only reports what it would have done.
func (r *Reconciler) ReconcileOnce(ctx context.Context, params ReconcileParams) (ReconcileResult, error) {
	limit := params.Limit
	if limit <= 0 {
		limit = reconcileScanBatch
	}

	assets, err := r.repo.ListAssetsForReconcile(ctx, repository.ReconcileScanParams{
		OrganizationID: params.OrganizationID,
		OlderThan:      params.OlderThan,
		Limit:          limit,
	})
	if err != nil {
		return ReconcileResult{}, err
	}

	var result ReconcileResult
	result.Examined = len(assets)

	for _, asset := range assets {
		facts, err := r.repo.GetAssetFacts(ctx, asset.ID)
		if err != nil {
			r.log.Error("failed to load asset facts", "assetId", asset.ID, "error", err)
			result.Failed++
			continue
		}

		desired, reason := deriveDesiredAssetState(asset, facts)
		if desired == domain.StatusUnchanged || desired == asset.Status {
			// Status and artifacts agree. A stale uploaded asset still means
			// the pipeline kickoff got lost, so re-arm it.
			if asset.Status == domain.StatusUploaded {
				if params.DryRun {
					result.Requeued++
					continue
				}
				stage := domain.FirstStage(asset.Kind)
				if err := r.enqueuer.EnqueueStage(ctx, stage, asset.ID, asset.OrganizationID); err != nil {
					r.log.Error("failed to re-enqueue first stage", "assetId", asset.ID, "error", err)
					result.Failed++
					continue
				}
				result.Requeued++
			}
			continue
		}

		if params.DryRun {
			r.log.Info("would reconcile asset",
				"assetId", asset.ID, "from", asset.Status, "to", desired, "reason", reason)
			result.Corrected++
			continue
		}

		if err := r.applyCorrection(ctx, asset, desired, reason); err != nil {
			r.log.Error("failed to reconcile asset",
				"assetId", asset.ID, "from", asset.Status, "to", desired, "error", err)
			result.Failed++
			continue
		}
		result.Corrected++
	}

	return result, nil
}

// deriveDesiredAssetState returns the status the asset's artifacts support,
// plus a human-readable reason. StatusUnchanged means the stored status is
// already consistent with the artifacts.
func deriveDesiredAssetState(asset repository.Asset, facts repository.AssetFacts) (string, string) {
	// Terminal statuses are never scanned; guard anyway so a caller cannot
	// talk the reconciler into moving one.
	if domain.IsTerminalStatus(asset.Status) {
		return domain.StatusUnchanged, ""
	}

	// A reject verdict belongs in quarantine no matter what the status says.
	if facts.ComplianceVerdict == "reject" {
		return domain.StatusQuarantined, "compliance report verdict is reject"
	}

	// Failed is consistent with any artifact state: the operator decides.
	if asset.Status == domain.StatusFailed {
		return domain.StatusUnchanged, ""
	}

	stage := firstIncompleteStage(asset.Kind, facts)

	// Uploaded with no artifacts is the normal pre-pipeline state.
	if asset.Status == domain.StatusUploaded && stage == domain.FirstStage(asset.Kind) {
		return domain.StatusUnchanged, ""
	}

	desired := domain.ActiveStatus(stage)
	if desired == asset.Status {
		return domain.StatusUnchanged, ""
	}
	return desired, fmt.Sprintf("artifacts support stage %s, status was %s", stage, asset.Status)
}

// firstIncompleteStage walks the kind's plan and returns the first stage
// whose artifact is missing. Finalize leaves no artifact of its own, so it
// is the fallback; finalize completion is observable as status ready, which
// the reconciler never scans.
func firstIncompleteStage(kind string, facts repository.AssetFacts) string {
	for _, stage := range domain.StagePlan(kind) {
		switch stage {
		case domain.StageThumbnail:
			if facts.RenditionCount == 0 {
				return stage
			}
		case domain.StageExtract:
			if !facts.HasMetadata {
				return stage
			}
		case domain.StageEmbed:
			if !facts.HasEmbedding {
				return stage
			}
		case domain.StageScore:
			if facts.ComplianceVerdict == "" {
				return stage
			}
		case domain.StageFinalize:
			return stage
		}
	}
	return domain.StageFinalize
}

// applyCorrection moves the asset to the derived status and re-enqueues the
// corresponding stage. Corrections that are not a single legal transition
// are routed through failed, which fans out to every stage entry.
func (r *Reconciler) applyCorrection(ctx context.Context, asset repository.Asset, desired, reason string) error {
	if desired == domain.StatusQuarantined {
		// MarkQuarantined only moves scoring assets; anything else first has
		// to be walked back to scoring via the failed route.
		if asset.Status != domain.StatusScoring {
			if err := r.transitionViaFailed(ctx, asset, domain.StatusScoring); err != nil {
				return err
			}
		}
		ok, err := r.repo.MarkQuarantined(ctx, asset.ID, reason)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("asset %s left scoring before quarantine could be applied", asset.ID)
		}
		r.publishCorrection(ctx, asset, domain.StatusQuarantined, reason)
		return nil
	}

	ok, err := r.repo.TransitionStatus(ctx, asset.ID, asset.Status, desired)
	if err != nil {
		if apperr.GetKind(err) != apperr.KindConflict {
			return err
		}
		if err := r.transitionViaFailed(ctx, asset, desired); err != nil {
			return err
		}
	} else if !ok {
		// Someone else moved the asset since the scan. Leave it alone.
		return nil
	}

	r.publishCorrection(ctx, asset, desired, reason)

	stage := domain.StageForStatus(desired)
	if stage == "" {
		return nil
	}
	return r.enqueuer.EnqueueStage(ctx, stage, asset.ID, asset.OrganizationID)
}

// transitionViaFailed moves an asset to a stage entry that is not directly
// reachable from its current status. failed is reachable from every
// in-flight status and fans out to every stage's active status.
func (r *Reconciler) transitionViaFailed(ctx context.Context, asset repository.Asset, desired string) error {
	marked, err := r.repo.MarkFailed(ctx, asset.ID, "reconciler correction in progress")
	if err != nil {
		return err
	}
	if !marked {
		return fmt.Errorf("asset %s status changed during reconcile", asset.ID)
	}
	ok, err := r.repo.TransitionStatus(ctx, asset.ID, domain.StatusFailed, desired)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("asset %s status changed during reconcile", asset.ID)
	}
	return nil
}

func (r *Reconciler) publishCorrection(ctx context.Context, asset repository.Asset, desired, reason string) {
	if r.bus == nil {
		return
	}
	r.bus.Publish(ctx, events.AssetStateReconciled{
		BaseEvent:  events.NewBaseEvent(),
		AssetID:    asset.ID,
		TenantID:   asset.OrganizationID,
		FromStatus: asset.Status,
		ToStatus:   desired,
		Reason:     reason,
	})
}
