package service

import (
	"context"

	"github.com/google/uuid"
	qrcode "github.com/skip2/go-qrcode"

	"mediavault_backend/internal/assets/repository"
	"mediavault_backend/internal/assets/transport"
	"mediavault_backend/platform/apperr"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// GetAsset returns an asset with its renditions, tags, metadata and
// compliance report.
func (s *Service) GetAsset(ctx context.Context, tenantID, id uuid.UUID) (transport.AssetDetailResponse, error) {
	asset, err := s.repo.GetAssetByID(ctx, tenantID, id)
	if err != nil {
		return transport.AssetDetailResponse{}, err
	}

	renditions, err := s.repo.ListRenditions(ctx, asset.ID)
	if err != nil {
		return transport.AssetDetailResponse{}, err
	}
	tags, err := s.repo.ListTags(ctx, asset.ID)
	if err != nil {
		return transport.AssetDetailResponse{}, err
	}
	metadata, err := s.repo.GetMetadata(ctx, asset.ID)
	if err != nil {
		return transport.AssetDetailResponse{}, err
	}

	detail := transport.AssetDetailResponse{
		AssetResponse: toAssetResponse(asset),
		Renditions:    toRenditionResponses(renditions),
		Tags:          toTagResponses(tags),
		Metadata:      metadata,
	}

	report, err := s.repo.GetComplianceReport(ctx, asset.ID)
	if err == nil {
		detail.Compliance = &transport.ComplianceResponse{
			Score:   report.Score,
			Verdict: report.Verdict,
			Reasons: report.Reasons,
		}
	} else if apperr.GetKind(err) != apperr.KindNotFound {
		return transport.AssetDetailResponse{}, err
	}

	return detail, nil
}

// ListAssets returns a filtered, paginated asset listing.
func (s *Service) ListAssets(ctx context.Context, tenantID uuid.UUID, req transport.ListAssetsRequest) (transport.AssetListResponse, error) {
	page := req.Page
	if page < 1 {
		page = 1
	}
	pageSize := req.PageSize
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	params := repository.ListAssetsParams{
		OrganizationID: tenantID,
		Kind:           req.Kind,
		Status:         req.Status,
		Search:         req.Search,
		Offset:         (page - 1) * pageSize,
		Limit:          pageSize,
	}
	if req.BrandID != "" {
		brandID, err := uuid.Parse(req.BrandID)
		if err != nil {
			return transport.AssetListResponse{}, apperr.Validation("invalid brand id")
		}
		params.BrandID = &brandID
	}

	assets, total, err := s.repo.ListAssets(ctx, params)
	if err != nil {
		return transport.AssetListResponse{}, err
	}

	totalPages := total / pageSize
	if total%pageSize > 0 {
		totalPages++
	}

	return transport.AssetListResponse{
		Items:      toAssetResponses(assets),
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}, nil
}

// DownloadURL returns a presigned download URL for the original object.
func (s *Service) DownloadURL(ctx context.Context, tenantID, id uuid.UUID) (transport.DownloadResponse, error) {
	asset, err := s.repo.GetAssetByID(ctx, tenantID, id)
	if err != nil {
		return transport.DownloadResponse{}, err
	}

	presigned, err := s.storage.GenerateDownloadURL(ctx, s.originalsBucket, asset.FileKey)
	if err != nil {
		return transport.DownloadResponse{}, err
	}
	return transport.DownloadResponse{URL: presigned.URL, ExpiresAt: presigned.ExpiresAt}, nil
}

// RenditionDownloadURL returns a presigned download URL for a rendition.
// Preview renditions share the original's object, so they are served from
// the originals bucket.
func (s *Service) RenditionDownloadURL(ctx context.Context, tenantID, id, renditionID uuid.UUID) (transport.DownloadResponse, error) {
	asset, err := s.repo.GetAssetByID(ctx, tenantID, id)
	if err != nil {
		return transport.DownloadResponse{}, err
	}
	rendition, err := s.repo.GetRenditionByID(ctx, asset.ID, renditionID)
	if err != nil {
		return transport.DownloadResponse{}, err
	}

	bucket := s.renditionsBucket
	if rendition.FileKey == asset.FileKey {
		bucket = s.originalsBucket
	}

	presigned, err := s.storage.GenerateDownloadURL(ctx, bucket, rendition.FileKey)
	if err != nil {
		return transport.DownloadResponse{}, err
	}
	return transport.DownloadResponse{URL: presigned.URL, ExpiresAt: presigned.ExpiresAt}, nil
}

// ShareQR renders a QR code PNG pointing at a presigned download URL for
// the asset, for handing a file to a phone or a kiosk.
func (s *Service) ShareQR(ctx context.Context, tenantID, id uuid.UUID) ([]byte, error) {
	download, err := s.DownloadURL(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	png, err := qrcode.Encode(download.URL, qrcode.Medium, 256)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to generate QR code", err)
	}
	return png, nil
}

// Stats returns per-status and per-kind asset counts for the tenant.
func (s *Service) Stats(ctx context.Context, tenantID uuid.UUID) (transport.StatsResponse, error) {
	byStatus, byKind, err := s.repo.GetAssetStats(ctx, tenantID)
	if err != nil {
		return transport.StatsResponse{}, err
	}

	resp := transport.StatsResponse{
		ByStatus: make(map[string]int, len(byStatus)),
		ByKind:   make(map[string]int, len(byKind)),
	}
	for _, row := range byStatus {
		resp.ByStatus[row.Status] = row.Count
		resp.Total += row.Count
	}
	for _, row := range byKind {
		resp.ByKind[row.Kind] = row.Count
	}
	return resp, nil
}

// Similar returns ready assets ordered by embedding similarity.
func (s *Service) Similar(ctx context.Context, tenantID, id uuid.UUID, limit int) (transport.SimilarAssetsResponse, error) {
	asset, err := s.repo.GetAssetByID(ctx, tenantID, id)
	if err != nil {
		return transport.SimilarAssetsResponse{}, err
	}

	hasEmbedding, err := s.repo.HasEmbedding(ctx, asset.ID)
	if err != nil {
		return transport.SimilarAssetsResponse{}, err
	}
	if !hasEmbedding {
		return transport.SimilarAssetsResponse{}, apperr.Conflict("asset has no embedding to search with")
	}

	similar, err := s.repo.SearchSimilarAssets(ctx, tenantID, asset.ID, limit)
	if err != nil {
		return transport.SimilarAssetsResponse{}, err
	}
	return transport.SimilarAssetsResponse{Items: toAssetResponses(similar)}, nil
}

// Timeline returns the audit trail of an asset, newest first.
func (s *Service) Timeline(ctx context.Context, tenantID, id uuid.UUID, limit int) ([]transport.TimelineEventResponse, error) {
	asset, err := s.repo.GetAssetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	entries, err := s.repo.ListTimeline(ctx, tenantID, asset.ID, limit)
	if err != nil {
		return nil, err
	}
	return toTimelineResponses(entries), nil
}
