package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"mediavault_backend/internal/adapters/storage"
	"mediavault_backend/internal/assets/repository"
	"mediavault_backend/internal/events"
	"mediavault_backend/internal/pipeline"
	"mediavault_backend/internal/pipeline/agent"
	"mediavault_backend/internal/pipeline/processors"
	"mediavault_backend/internal/selfheal"
	"mediavault_backend/platform/ai/embeddingapi"
	"mediavault_backend/platform/config"
	"mediavault_backend/platform/db"
	"mediavault_backend/platform/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting pipeline worker", "env", cfg.Env, "queue", cfg.AsynqQueueName)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()
	log.Info("database connection established")

	eventBus := events.NewInMemoryBus(log)

	storageSvc, err := storage.NewMinIOService(cfg)
	if err != nil {
		log.Error("failed to initialize storage service", "error", err)
		panic("failed to initialize storage service: " + err.Error())
	}

	pipelineClient, err := pipeline.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize pipeline client", "error", err)
		panic("failed to initialize pipeline client: " + err.Error())
	}
	defer func() { _ = pipelineClient.Close() }()

	repo := repository.New(pool)

	// ========================================================================
	// Stage Processors
	// ========================================================================

	var embedClient processors.EmbeddingClient
	if cfg.IsEmbeddingEnabled() {
		embedClient = embeddingapi.NewClient(embeddingapi.Config{
			BaseURL: cfg.GetEmbeddingAPIURL(),
			APIKey:  cfg.GetEmbeddingAPIKey(),
		})
		log.Info("embedding client initialized", "url", cfg.GetEmbeddingAPIURL())
	} else {
		log.Warn("EMBEDDING_API_URL not configured; embed stage will be skipped")
	}

	var tagger processors.Tagger
	if cfg.IsTaggerEnabled() {
		assetTagger, err := agent.NewAssetTagger(cfg.GetMoonshotAPIKey(), storageSvc, cfg.GetMinioBucketOriginals(), log)
		if err != nil {
			log.Error("failed to initialize AI tagger", "error", err)
			panic("failed to initialize AI tagger: " + err.Error())
		}
		tagger = assetTagger
		log.Info("AI tagging agent initialized")
	} else {
		log.Warn("MOONSHOT_API_KEY not configured; AI tagging disabled")
	}

	ruleset, err := processors.LoadRuleset(cfg.GetComplianceRulesetPath())
	if err != nil {
		log.Error("failed to load compliance ruleset", "error", err, "path", cfg.GetComplianceRulesetPath())
		panic("failed to load compliance ruleset: " + err.Error())
	}

	procs := pipeline.Processors{
		Thumbnailer: processors.NewThumbnailer(repo, storageSvc, cfg.GetMinioBucketOriginals(), cfg.GetMinioBucketRenditions(), log),
		Extractor:   processors.NewExtractor(repo, storageSvc, cfg.GetMinioBucketOriginals(), log),
		Embedder:    processors.NewEmbedder(repo, embedClient, log),
		Scorer:      processors.NewScorer(repo, ruleset, tagger, log),
		Finalizer:   processors.NewFinalizer(repo, log),
	}

	worker, err := pipeline.NewWorker(cfg, pool, pipelineClient, procs, eventBus, log)
	if err != nil {
		log.Error("failed to initialize pipeline worker", "error", err)
		panic("failed to initialize pipeline worker: " + err.Error())
	}

	// ========================================================================
	// Self-Healing Loops
	// ========================================================================

	recoverer := selfheal.NewAutoRecover(repo, pipelineClient, eventBus, cfg.GetPipelineMaxAttempts(), log)
	watchdog := selfheal.NewWatchdog(repo, recoverer, eventBus, cfg.GetWatchdogInterval(), cfg.GetStuckThreshold(), log)
	reconciler := selfheal.NewReconciler(repo, pipelineClient, eventBus, cfg.GetReconcileInterval(), cfg.GetStuckThreshold(), log)

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		worker.Run(groupCtx)
		return nil
	})
	group.Go(func() error {
		watchdog.Run(groupCtx)
		return nil
	})
	group.Go(func() error {
		reconciler.Run(groupCtx)
		return nil
	})

	if err := group.Wait(); err != nil {
		log.Error("worker stopped with error", "error", err)
		panic("worker stopped with error: " + err.Error())
	}
	log.Info("worker shut down cleanly")
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
