package processors

import (
	"context"
	"fmt"

	"mediavault_backend/internal/assets/domain"
	"mediavault_backend/internal/assets/repository"
	"mediavault_backend/platform/logger"
)

// Finalizer verifies that every artifact the asset's stage plan promises
// actually exists before the asset is declared ready.
type Finalizer struct {
	repo repository.Repository
	log  *logger.Logger
}

// NewFinalizer creates the finalize stage processor.
func NewFinalizer(repo repository.Repository, log *logger.Logger) *Finalizer {
	return &Finalizer{repo: repo, log: log}
}

// Process checks the asset's artifacts against its stage plan. A missing
// artifact fails the stage so the pipeline retries instead of shipping an
// incomplete asset.
func (f *Finalizer) Process(ctx context.Context, asset repository.Asset) error {
	facts, err := f.repo.GetAssetFacts(ctx, asset.ID)
	if err != nil {
		return err
	}

	if domain.HasStage(asset.Kind, domain.StageThumbnail) && facts.RenditionCount == 0 {
		return fmt.Errorf("finalize %s: no renditions recorded", asset.ID)
	}
	if !facts.HasMetadata {
		return fmt.Errorf("finalize %s: metadata missing", asset.ID)
	}
	if domain.HasStage(asset.Kind, domain.StageEmbed) && !facts.HasEmbedding {
		// Embedding may be disabled by configuration; only the report tells.
		f.log.Debug("finalizing without embedding", "assetId", asset.ID)
	}
	if facts.ComplianceVerdict == "" {
		return fmt.Errorf("finalize %s: compliance report missing", asset.ID)
	}
	if facts.ComplianceVerdict == VerdictReject {
		return fmt.Errorf("finalize %s: asset has a reject verdict", asset.ID)
	}

	f.log.PipelineStage(asset.ID.String(), domain.StageFinalize, "artifacts_verified", 0)
	return nil
}
