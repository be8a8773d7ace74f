// asset-reconcile runs a single reconciliation pass over the asset store and
// exits. Operators use it to audit or repair status drift on demand; the
// worker binary runs the same logic periodically.
package main

import (
	"context"
	"flag"
	"time"

	"github.com/google/uuid"

	"mediavault_backend/internal/assets/repository"
	"mediavault_backend/internal/pipeline"
	"mediavault_backend/internal/selfheal"
	"mediavault_backend/platform/config"
	"mediavault_backend/platform/db"
	"mediavault_backend/platform/logger"
)

func main() {
	dryRun := flag.Bool("dry-run", false, "report corrections without applying them")
	tenant := flag.String("tenant", "", "limit the pass to one organization id")
	olderThan := flag.Duration("older-than", 10*time.Minute, "only examine assets not updated for this long")
	limit := flag.Int("limit", 500, "maximum number of assets to examine")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting asset reconciliation pass", "dryRun", *dryRun, "olderThan", olderThan.String())

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()

	pipelineClient, err := pipeline.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize pipeline client", "error", err)
		panic("failed to initialize pipeline client: " + err.Error())
	}
	defer func() { _ = pipelineClient.Close() }()

	params := selfheal.ReconcileParams{
		OlderThan: *olderThan,
		Limit:     *limit,
		DryRun:    *dryRun,
	}
	if *tenant != "" {
		tenantID, err := uuid.Parse(*tenant)
		if err != nil {
			log.Error("invalid tenant id", "tenant", *tenant)
			panic("invalid tenant id: " + *tenant)
		}
		params.OrganizationID = &tenantID
	}

	repo := repository.New(pool)
	reconciler := selfheal.NewReconciler(repo, pipelineClient, nil, time.Minute, *olderThan, log)

	result, err := reconciler.ReconcileOnce(ctx, params)
	if err != nil {
		log.Error("reconciliation pass failed", "error", err)
		panic("reconciliation pass failed: " + err.Error())
	}

	log.Info("reconciliation pass finished",
		"examined", result.Examined,
		"corrected", result.Corrected,
		"requeued", result.Requeued,
		"failed", result.Failed,
		"dryRun", *dryRun,
	)
}
