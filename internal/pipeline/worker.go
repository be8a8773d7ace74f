package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"

	"mediavault_backend/internal/assets/domain"
	"mediavault_backend/internal/assets/repository"
	"mediavault_backend/internal/events"
	"mediavault_backend/internal/pipeline/processors"
	"mediavault_backend/platform/apperr"
	"mediavault_backend/platform/config"
	"mediavault_backend/platform/logger"
)

// Processors bundles the per-stage processors the worker dispatches to.
type Processors struct {
	Thumbnailer *processors.Thumbnailer
	Extractor   *processors.Extractor
	Embedder    *processors.Embedder
	Scorer      *processors.Scorer
	Finalizer   *processors.Finalizer
}

// Worker consumes pipeline stage tasks. Each handler claims its stage with a
// compare-and-swap status update, runs the processor, and enqueues the next
// stage of the asset's plan.
type Worker struct {
	server     *asynq.Server
	mux        *asynq.ServeMux
	repo       repository.Repository
	enqueuer   Enqueuer
	processors Processors
	bus        events.Bus
	log        *logger.Logger
}

// NewWorker creates the pipeline worker.
func NewWorker(cfg config.QueueConfig, pool *pgxpool.Pool, enqueuer Enqueuer, procs Processors, bus events.Bus, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server:     server,
		mux:        mux,
		repo:       repository.New(pool),
		enqueuer:   enqueuer,
		processors: procs,
		bus:        bus,
		log:        log,
	}

	mux.HandleFunc(TaskAssetThumbnail, w.stageHandler(domain.StageThumbnail))
	mux.HandleFunc(TaskAssetExtract, w.stageHandler(domain.StageExtract))
	mux.HandleFunc(TaskAssetEmbed, w.stageHandler(domain.StageEmbed))
	mux.HandleFunc(TaskAssetScore, w.stageHandler(domain.StageScore))
	mux.HandleFunc(TaskAssetFinalize, w.stageHandler(domain.StageFinalize))

	return w, nil
}

// Run serves tasks until the context is cancelled.
func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("pipeline worker stopped", "error", err)
	}
}

func (w *Worker) stageHandler(stage string) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		payload, err := ParseStagePayload(task)
		if err != nil {
			return err
		}
		assetID, err := uuid.Parse(payload.AssetID)
		if err != nil {
			return err
		}

		asset, err := w.repo.GetAssetAnyTenant(ctx, assetID)
		if err != nil {
			if apperr.GetKind(err) == apperr.KindNotFound {
				w.log.Warn("stage task for missing asset", "assetId", payload.AssetID, "stage", stage)
				return nil
			}
			return err
		}

		if !domain.HasStage(asset.Kind, stage) {
			w.log.Warn("stage not in asset plan", "assetId", asset.ID, "kind", asset.Kind, "stage", stage)
			return nil
		}

		claimed, err := w.claimStage(ctx, asset, stage)
		if err != nil {
			return err
		}
		if !claimed {
			return nil
		}

		// Reload: the claim stamps processing_started_at and another run may
		// have recorded artifacts since the task was enqueued.
		asset, err = w.repo.GetAssetAnyTenant(ctx, assetID)
		if err != nil {
			return err
		}

		start := time.Now()
		if err := w.runStage(ctx, stage, asset); err != nil {
			return w.failStage(ctx, asset, stage, err)
		}
		w.log.PipelineStage(asset.ID.String(), stage, "completed", float64(time.Since(start).Milliseconds()))

		return w.advance(ctx, asset, stage)
	}
}

// claimStage moves the asset into the stage's active status. Re-delivered
// tasks find the asset already active and proceed; retried tasks find it
// failed and re-claim it; anything else is a stale task and is dropped.
func (w *Worker) claimStage(ctx context.Context, asset repository.Asset, stage string) (bool, error) {
	entry := domain.EntryStatus(asset.Kind, stage)
	active := domain.ActiveStatus(stage)

	ok, err := w.repo.TransitionStatus(ctx, asset.ID, entry, active)
	if err != nil {
		return false, err
	}
	if ok {
		return true, nil
	}

	current, err := w.repo.GetAssetAnyTenant(ctx, asset.ID)
	if err != nil {
		return false, err
	}
	switch current.Status {
	case active:
		return true, nil
	case domain.StatusFailed:
		return w.repo.TransitionStatus(ctx, asset.ID, domain.StatusFailed, active)
	default:
		w.log.Warn("dropping stale stage task",
			"assetId", asset.ID, "stage", stage, "status", current.Status)
		return false, nil
	}
}

func (w *Worker) runStage(ctx context.Context, stage string, asset repository.Asset) error {
	switch stage {
	case domain.StageThumbnail:
		return w.processors.Thumbnailer.Process(ctx, asset)
	case domain.StageExtract:
		return w.processors.Extractor.Process(ctx, asset)
	case domain.StageEmbed:
		return w.processors.Embedder.Process(ctx, asset)
	case domain.StageScore:
		verdict, err := w.processors.Scorer.Process(ctx, asset)
		if err != nil {
			return err
		}
		if verdict == processors.VerdictReject {
			return w.quarantine(ctx, asset, verdict)
		}
		return nil
	case domain.StageFinalize:
		return w.processors.Finalizer.Process(ctx, asset)
	default:
		return fmt.Errorf("unknown stage %q", stage)
	}
}

// quarantine is returned as errSkipRemaining via a sentinel-free path: the
// asset leaves the pipeline here, so advance must not chain the next stage.
type quarantinedError struct{ assetID uuid.UUID }

func (e quarantinedError) Error() string {
	return fmt.Sprintf("asset %s quarantined by compliance", e.assetID)
}

func (w *Worker) quarantine(ctx context.Context, asset repository.Asset, verdict string) error {
	report, err := w.repo.GetComplianceReport(ctx, asset.ID)
	reason := "compliance verdict: reject"
	if err == nil && len(report.Reasons) > 0 {
		reason = report.Reasons[0]
	}

	ok, err := w.repo.MarkQuarantined(ctx, asset.ID, reason)
	if err != nil {
		return err
	}
	if ok {
		w.publish(ctx, events.AssetQuarantined{
			BaseEvent: events.NewBaseEvent(),
			AssetID:   asset.ID,
			TenantID:  asset.OrganizationID,
			Reason:    reason,
		})
	}
	return quarantinedError{assetID: asset.ID}
}

// failStage records the failure and returns the processor error so asynq
// retries the task. Quarantine is terminal, not a failure.
func (w *Worker) failStage(ctx context.Context, asset repository.Asset, stage string, procErr error) error {
	if _, ok := procErr.(quarantinedError); ok {
		return nil
	}

	marked, err := w.repo.MarkFailed(ctx, asset.ID, fmt.Sprintf("%s: %v", stage, procErr))
	if err != nil {
		w.log.Error("failed to mark asset failed", "assetId", asset.ID, "error", err)
	}
	if marked {
		updated, getErr := w.repo.GetAssetAnyTenant(ctx, asset.ID)
		attempt := asset.Attempts + 1
		if getErr == nil {
			attempt = updated.Attempts
		}
		w.publish(ctx, events.AssetFailed{
			BaseEvent: events.NewBaseEvent(),
			AssetID:   asset.ID,
			TenantID:  asset.OrganizationID,
			Stage:     stage,
			Reason:    procErr.Error(),
			Attempt:   attempt,
		})
	}

	w.log.PipelineStage(asset.ID.String(), stage, "failed", 0)
	return procErr
}

// advance finishes the stage: the final stage marks the asset ready,
// intermediate stages enqueue their successor.
func (w *Worker) advance(ctx context.Context, asset repository.Asset, stage string) error {
	if stage == domain.StageFinalize {
		ok, err := w.repo.MarkReady(ctx, asset.ID)
		if err != nil {
			return err
		}
		if ok {
			w.publish(ctx, events.AssetReady{
				BaseEvent: events.NewBaseEvent(),
				AssetID:   asset.ID,
				TenantID:  asset.OrganizationID,
			})
		}
		return nil
	}

	next, ok := domain.NextStage(asset.Kind, stage)
	if !ok {
		return fmt.Errorf("no next stage after %s for kind %s", stage, asset.Kind)
	}
	return w.enqueuer.EnqueueStage(ctx, next, asset.ID, asset.OrganizationID)
}

func (w *Worker) publish(ctx context.Context, event events.Event) {
	if w.bus == nil {
		return
	}
	w.bus.Publish(ctx, event)
}
