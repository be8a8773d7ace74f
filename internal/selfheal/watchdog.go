// Package selfheal contains the background loops that keep the asset
// pipeline healthy without human intervention: a watchdog that detects
// stalled assets, an auto-recoverer that re-enqueues them, and a
// reconciler that corrects assets whose stored status diverged from the
// artifacts that actually exist.
package selfheal

import (
	"context"
	"time"

	"mediavault_backend/internal/assets/repository"
	"mediavault_backend/internal/events"
	"mediavault_backend/platform/logger"
)

const stuckScanBatch = 100

// Watchdog periodically scans for assets that have been sitting in an
// in-flight status longer than the stuck threshold, flags them, and hands
// them to the auto-recoverer.
type Watchdog struct {
	repo      repository.Repository
	recoverer *AutoRecover
	bus       events.Bus
	interval  time.Duration
	threshold time.Duration
	log       *logger.Logger
}

// NewWatchdog creates a watchdog.
func NewWatchdog(repo repository.Repository, recoverer *AutoRecover, bus events.Bus, interval, threshold time.Duration, log *logger.Logger) *Watchdog {
	return &Watchdog{
		repo:      repo,
		recoverer: recoverer,
		bus:       bus,
		interval:  interval,
		threshold: threshold,
		log:       log,
	}
}

// Run scans on the configured interval until the context is cancelled.
func (w *Watchdog) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.log.Info("watchdog started", "interval", w.interval.String(), "stuckThreshold", w.threshold.String())
	for {
		select {
		case <-ctx.Done():
			w.log.Info("watchdog stopped")
			return
		case <-ticker.C:
			w.Scan(ctx)
		}
	}
}

// Scan performs one detection pass.
func (w *Watchdog) Scan(ctx context.Context) {
	stuck, err := w.repo.ListStuckAssets(ctx, repository.StuckAssetsParams{
		OlderThan: w.threshold,
		Limit:     stuckScanBatch,
	})
	if err != nil {
		w.log.Error("watchdog scan failed", "error", err)
		return
	}
	if len(stuck) == 0 {
		return
	}

	w.log.Warn("watchdog found stuck assets", "count", len(stuck))
	for _, asset := range stuck {
		stuckFor := w.threshold
		if asset.ProcessingStartedAt != nil {
			stuckFor = time.Since(*asset.ProcessingStartedAt)
		}

		w.publish(ctx, events.AssetStuck{
			BaseEvent:    events.NewBaseEvent(),
			AssetID:      asset.ID,
			TenantID:     asset.OrganizationID,
			Status:       asset.Status,
			StuckMinutes: int(stuckFor.Minutes()),
		})

		if err := w.recoverer.Recover(ctx, asset); err != nil {
			w.log.Error("auto-recovery failed", "assetId", asset.ID, "status", asset.Status, "error", err)
		}
	}
}

func (w *Watchdog) publish(ctx context.Context, event events.Event) {
	if w.bus == nil {
		return
	}
	w.bus.Publish(ctx, event)
}
