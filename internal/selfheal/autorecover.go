package selfheal

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"mediavault_backend/internal/assets/domain"
	"mediavault_backend/internal/assets/repository"
	"mediavault_backend/internal/events"
	"mediavault_backend/platform/logger"
)

// Enqueuer re-enqueues a pipeline stage for an asset.
type Enqueuer interface {
	EnqueueStage(ctx context.Context, stage string, assetID, organizationID uuid.UUID) error
}

// AutoRecover turns a stuck asset back into a running one. An asset with
// recovery attempts left gets its in-flight stage re-enqueued; one that
// exhausted its budget is marked failed so an operator can decide.
type AutoRecover struct {
	repo        repository.Repository
	enqueuer    Enqueuer
	bus         events.Bus
	maxAttempts int
	log         *logger.Logger
}

// NewAutoRecover creates an auto-recoverer.
func NewAutoRecover(repo repository.Repository, enqueuer Enqueuer, bus events.Bus, maxAttempts int, log *logger.Logger) *AutoRecover {
	return &AutoRecover{
		repo:        repo,
		enqueuer:    enqueuer,
		bus:         bus,
		maxAttempts: maxAttempts,
		log:         log,
	}
}

// Recover handles one stuck asset. The asset stays in its in-flight status;
// re-enqueueing relies on the worker's claim step accepting tasks for assets
// already in the stage's active status.
func (r *AutoRecover) Recover(ctx context.Context, asset repository.Asset) error {
	stage := domain.StageForStatus(asset.Status)
	if stage == "" {
		return fmt.Errorf("asset %s status %s has no in-flight stage", asset.ID, asset.Status)
	}

	if asset.Attempts >= r.maxAttempts {
		marked, err := r.repo.MarkFailed(ctx, asset.ID, fmt.Sprintf("recovery attempts exhausted in %s", asset.Status))
		if err != nil {
			return err
		}
		if marked {
			r.log.Warn("asset recovery budget exhausted, marked failed",
				"assetId", asset.ID, "status", asset.Status, "attempts", asset.Attempts)
			r.publish(ctx, events.AssetFailed{
				BaseEvent: events.NewBaseEvent(),
				AssetID:   asset.ID,
				TenantID:  asset.OrganizationID,
				Stage:     stage,
				Reason:    "recovery attempts exhausted",
				Attempt:   asset.Attempts + 1,
			})
		}
		return nil
	}

	// Restart the stall clock so the next watchdog pass does not pick the
	// asset up again before the re-enqueued task had a chance to run.
	if err := r.repo.TouchProcessing(ctx, asset.ID); err != nil {
		return err
	}
	if _, err := r.repo.IncrementAttempts(ctx, asset.ID); err != nil {
		return err
	}
	if err := r.enqueuer.EnqueueStage(ctx, stage, asset.ID, asset.OrganizationID); err != nil {
		return err
	}

	r.log.Info("stuck asset re-enqueued", "assetId", asset.ID, "stage", stage, "attempts", asset.Attempts+1)
	r.publish(ctx, events.AssetRecovered{
		BaseEvent:  events.NewBaseEvent(),
		AssetID:    asset.ID,
		TenantID:   asset.OrganizationID,
		FromStatus: asset.Status,
		ToStatus:   asset.Status,
	})
	return nil
}

func (r *AutoRecover) publish(ctx context.Context, event events.Event) {
	if r.bus == nil {
		return
	}
	r.bus.Publish(ctx, event)
}
