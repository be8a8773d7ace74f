// Package service implements the asset lifecycle: upload handshake, pipeline
// kickoff, governance actions and tenant-scoped queries.
package service

import (
	"context"
	"path"
	"strings"

	"github.com/google/uuid"

	"mediavault_backend/internal/adapters/storage"
	"mediavault_backend/internal/assets/domain"
	"mediavault_backend/internal/assets/repository"
	"mediavault_backend/internal/assets/transport"
	"mediavault_backend/internal/events"
	"mediavault_backend/platform/apperr"
	"mediavault_backend/platform/logger"
)

// PipelineEnqueuer enqueues a pipeline stage for an asset. Satisfied by the
// pipeline client; kept as a local interface so this package stays decoupled
// from the queue implementation.
type PipelineEnqueuer interface {
	EnqueueStage(ctx context.Context, stage string, assetID, organizationID uuid.UUID) error
}

// Service provides business logic for assets.
type Service struct {
	repo             repository.Repository
	storage          storage.StorageService
	enqueuer         PipelineEnqueuer
	bus              events.Bus
	originalsBucket  string
	renditionsBucket string
	log              *logger.Logger
}

// New creates a new assets service.
func New(
	repo repository.Repository,
	storageSvc storage.StorageService,
	enqueuer PipelineEnqueuer,
	bus events.Bus,
	originalsBucket, renditionsBucket string,
	log *logger.Logger,
) *Service {
	return &Service{
		repo:             repo,
		storage:          storageSvc,
		enqueuer:         enqueuer,
		bus:              bus,
		originalsBucket:  originalsBucket,
		renditionsBucket: renditionsBucket,
		log:              log,
	}
}

// InitUpload validates the upload request, reserves a pending_upload asset
// and hands out a presigned PUT URL for the originals bucket.
func (s *Service) InitUpload(ctx context.Context, tenantID, userID uuid.UUID, req transport.InitUploadRequest) (transport.InitUploadResponse, error) {
	fileName := strings.TrimSpace(req.FileName)
	if strings.ContainsAny(fileName, "/\\") {
		return transport.InitUploadResponse{}, apperr.Validation("file name must not contain path separators")
	}
	if err := s.storage.ValidateContentType(req.ContentType); err != nil {
		return transport.InitUploadResponse{}, apperr.Validation(err.Error())
	}
	if err := s.storage.ValidateFileSize(req.SizeBytes); err != nil {
		return transport.InitUploadResponse{}, apperr.Validation(err.Error())
	}

	folder := path.Join(tenantID.String(), "originals")
	presigned, err := s.storage.GenerateUploadURL(ctx, s.originalsBucket, folder, fileName, req.ContentType, req.SizeBytes)
	if err != nil {
		return transport.InitUploadResponse{}, err
	}

	asset, err := s.repo.CreateAsset(ctx, repository.CreateAssetParams{
		OrganizationID: tenantID,
		BrandID:        req.BrandID,
		Kind:           domain.KindFromContentType(req.ContentType),
		FileKey:        presigned.FileKey,
		FileName:       fileName,
		ContentType:    req.ContentType,
		SizeBytes:      req.SizeBytes,
		UploadedBy:     userID,
	})
	if err != nil {
		return transport.InitUploadResponse{}, err
	}

	s.publish(ctx, events.AssetUploadInitiated{
		BaseEvent:  events.NewBaseEvent(),
		AssetID:    asset.ID,
		TenantID:   tenantID,
		UploaderID: userID,
		FileName:   fileName,
		StorageKey: presigned.FileKey,
	})
	s.log.Info("upload initiated", "assetId", asset.ID, "fileName", fileName, "kind", asset.Kind)

	return transport.InitUploadResponse{
		Asset:     toAssetResponse(asset),
		UploadURL: presigned.URL,
		FileKey:   presigned.FileKey,
		ExpiresAt: presigned.ExpiresAt,
	}, nil
}

// CompleteUpload verifies the object actually landed in the originals
// bucket, records its size and checksum, and enqueues the first pipeline
// stage for the asset's kind.
func (s *Service) CompleteUpload(ctx context.Context, tenantID, id uuid.UUID, req transport.CompleteUploadRequest) (transport.AssetResponse, error) {
	asset, err := s.repo.GetAssetByID(ctx, tenantID, id)
	if err != nil {
		return transport.AssetResponse{}, err
	}
	if asset.Status != domain.StatusPendingUpload {
		return transport.AssetResponse{}, apperr.Conflict("upload already completed")
	}

	info, err := s.storage.StatObject(ctx, s.originalsBucket, asset.FileKey)
	if err != nil {
		return transport.AssetResponse{}, apperr.BadRequest("uploaded object not found in storage")
	}

	ok, err := s.repo.MarkUploaded(ctx, asset.ID, info.SizeBytes, req.Checksum)
	if err != nil {
		return transport.AssetResponse{}, err
	}
	if !ok {
		return transport.AssetResponse{}, apperr.Conflict("upload already completed")
	}

	asset, err = s.repo.GetAssetByID(ctx, tenantID, id)
	if err != nil {
		return transport.AssetResponse{}, err
	}

	s.publish(ctx, events.AssetUploaded{
		BaseEvent: events.NewBaseEvent(),
		AssetID:   asset.ID,
		TenantID:  tenantID,
		Kind:      asset.Kind,
		SizeBytes: asset.SizeBytes,
		Checksum:  req.Checksum,
	})

	firstStage := domain.FirstStage(asset.Kind)
	if err := s.enqueuer.EnqueueStage(ctx, firstStage, asset.ID, tenantID); err != nil {
		// The reconciler picks up uploaded assets whose kickoff was lost.
		s.log.Error("failed to enqueue first stage", "assetId", asset.ID, "stage", firstStage, "error", err)
	}

	s.log.Info("upload completed", "assetId", asset.ID, "sizeBytes", info.SizeBytes)
	return toAssetResponse(asset), nil
}

// Retry re-enqueues a failed asset at its first incomplete stage.
func (s *Service) Retry(ctx context.Context, tenantID, id, actorID uuid.UUID) (transport.AssetResponse, error) {
	asset, err := s.repo.GetAssetByID(ctx, tenantID, id)
	if err != nil {
		return transport.AssetResponse{}, err
	}
	if asset.Status != domain.StatusFailed {
		return transport.AssetResponse{}, apperr.Conflict("only failed assets can be retried")
	}

	facts, err := s.repo.GetAssetFacts(ctx, asset.ID)
	if err != nil {
		return transport.AssetResponse{}, err
	}
	stage := firstIncompleteStage(asset.Kind, facts)

	if err := s.repo.ResetAttempts(ctx, asset.ID); err != nil {
		return transport.AssetResponse{}, err
	}
	if err := s.enqueuer.EnqueueStage(ctx, stage, asset.ID, tenantID); err != nil {
		return transport.AssetResponse{}, err
	}

	if err := s.repo.AppendTimelineEvent(ctx, repository.AppendTimelineParams{
		OrganizationID: tenantID,
		AssetID:        asset.ID,
		EventType:      "pipeline.retried",
		Description:    "retry requested, resuming at stage " + stage,
		ActorID:        &actorID,
	}); err != nil {
		s.log.Warn("failed to record retry timeline entry", "assetId", asset.ID, "error", err)
	}

	s.log.Info("asset retry enqueued", "assetId", asset.ID, "stage", stage, "actorId", actorID)
	return toAssetResponse(asset), nil
}

// Release moves a quarantined asset back into scoring so compliance can be
// re-evaluated, typically after rules changed or a human reviewed the file.
func (s *Service) Release(ctx context.Context, tenantID, id, actorID uuid.UUID) (transport.AssetResponse, error) {
	asset, err := s.repo.GetAssetByID(ctx, tenantID, id)
	if err != nil {
		return transport.AssetResponse{}, err
	}
	if asset.Status != domain.StatusQuarantined {
		return transport.AssetResponse{}, apperr.Conflict("only quarantined assets can be released")
	}

	ok, err := s.repo.TransitionStatus(ctx, asset.ID, domain.StatusQuarantined, domain.StatusScoring)
	if err != nil {
		return transport.AssetResponse{}, err
	}
	if !ok {
		return transport.AssetResponse{}, apperr.Conflict("asset is no longer quarantined")
	}

	if err := s.repo.ResetAttempts(ctx, asset.ID); err != nil {
		return transport.AssetResponse{}, err
	}
	if err := s.enqueuer.EnqueueStage(ctx, domain.StageScore, asset.ID, tenantID); err != nil {
		return transport.AssetResponse{}, err
	}

	s.publish(ctx, events.AssetReleased{
		BaseEvent:  events.NewBaseEvent(),
		AssetID:    asset.ID,
		TenantID:   tenantID,
		ReleasedBy: actorID,
	})

	asset, err = s.repo.GetAssetByID(ctx, tenantID, id)
	if err != nil {
		return transport.AssetResponse{}, err
	}
	s.log.Info("asset released from quarantine", "assetId", asset.ID, "actorId", actorID)
	return toAssetResponse(asset), nil
}

// Delete removes an asset, its renditions and their stored objects.
func (s *Service) Delete(ctx context.Context, tenantID, id, actorID uuid.UUID) error {
	asset, err := s.repo.GetAssetByID(ctx, tenantID, id)
	if err != nil {
		return err
	}

	renditions, err := s.repo.ListRenditions(ctx, asset.ID)
	if err != nil {
		return err
	}
	for _, rendition := range renditions {
		if rendition.FileKey == asset.FileKey {
			// Preview renditions reference the original object.
			continue
		}
		if err := s.storage.DeleteObject(ctx, s.renditionsBucket, rendition.FileKey); err != nil {
			s.log.Warn("failed to delete rendition object", "assetId", asset.ID, "fileKey", rendition.FileKey, "error", err)
		}
	}
	if err := s.storage.DeleteObject(ctx, s.originalsBucket, asset.FileKey); err != nil {
		s.log.Warn("failed to delete original object", "assetId", asset.ID, "fileKey", asset.FileKey, "error", err)
	}

	if err := s.repo.DeleteAsset(ctx, tenantID, id); err != nil {
		return err
	}

	s.publish(ctx, events.AssetDeleted{
		BaseEvent: events.NewBaseEvent(),
		AssetID:   id,
		TenantID:  tenantID,
		DeletedBy: actorID,
	})
	s.log.Info("asset deleted", "assetId", id, "actorId", actorID)
	return nil
}

// AddTags adds user tags to an asset.
func (s *Service) AddTags(ctx context.Context, tenantID, id uuid.UUID, req transport.AddTagsRequest) ([]transport.TagResponse, error) {
	asset, err := s.repo.GetAssetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	params := make([]repository.TagParams, 0, len(req.Tags))
	added := make([]string, 0, len(req.Tags))
	for _, value := range req.Tags {
		normalized := strings.ToLower(strings.TrimSpace(value))
		if normalized == "" {
			continue
		}
		params = append(params, repository.TagParams{Value: normalized, Source: "user"})
		added = append(added, normalized)
	}
	if len(params) == 0 {
		return nil, apperr.Validation("no usable tags provided")
	}

	if err := s.repo.AddTags(ctx, asset.ID, params); err != nil {
		return nil, err
	}

	s.publish(ctx, events.AssetTagsChanged{
		BaseEvent: events.NewBaseEvent(),
		AssetID:   asset.ID,
		TenantID:  tenantID,
		Added:     added,
	})

	tags, err := s.repo.ListTags(ctx, asset.ID)
	if err != nil {
		return nil, err
	}
	return toTagResponses(tags), nil
}

// RemoveTag removes a tag from an asset by value.
func (s *Service) RemoveTag(ctx context.Context, tenantID, id uuid.UUID, value string) error {
	asset, err := s.repo.GetAssetByID(ctx, tenantID, id)
	if err != nil {
		return err
	}

	normalized := strings.ToLower(strings.TrimSpace(value))
	if err := s.repo.DeleteTag(ctx, asset.ID, normalized); err != nil {
		return err
	}

	s.publish(ctx, events.AssetTagsChanged{
		BaseEvent: events.NewBaseEvent(),
		AssetID:   asset.ID,
		TenantID:  tenantID,
		Removed:   []string{normalized},
	})
	return nil
}

// firstIncompleteStage walks the kind's plan and returns the first stage
// whose artifact is missing. Finalize never leaves an artifact, so it is the
// fallback.
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

func (s *Service) publish(ctx context.Context, event events.Event) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(ctx, event)
}
