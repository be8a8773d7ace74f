package service

import (
	"mediavault_backend/internal/assets/repository"
	"mediavault_backend/internal/assets/transport"
)

func toAssetResponse(asset repository.Asset) transport.AssetResponse {
	return transport.AssetResponse{
		ID:          asset.ID,
		BrandID:     asset.BrandID,
		Kind:        asset.Kind,
		FileName:    asset.FileName,
		ContentType: asset.ContentType,
		SizeBytes:   asset.SizeBytes,
		Checksum:    asset.Checksum,
		Status:      asset.Status,
		Attempts:    asset.Attempts,
		LastError:   asset.LastError,
		ReadyAt:     asset.ReadyAt,
		UploadedBy:  asset.UploadedBy,
		CreatedAt:   asset.CreatedAt,
		UpdatedAt:   asset.UpdatedAt,
	}
}

func toAssetResponses(assets []repository.Asset) []transport.AssetResponse {
	out := make([]transport.AssetResponse, 0, len(assets))
	for _, asset := range assets {
		out = append(out, toAssetResponse(asset))
	}
	return out
}

func toRenditionResponses(renditions []repository.Rendition) []transport.RenditionResponse {
	out := make([]transport.RenditionResponse, 0, len(renditions))
	for _, rendition := range renditions {
		out = append(out, transport.RenditionResponse{
			ID:          rendition.ID,
			Name:        rendition.Name,
			ContentType: rendition.ContentType,
			Width:       rendition.Width,
			Height:      rendition.Height,
			SizeBytes:   rendition.SizeBytes,
		})
	}
	return out
}

func toTagResponses(tags []repository.Tag) []transport.TagResponse {
	out := make([]transport.TagResponse, 0, len(tags))
	for _, tag := range tags {
		out = append(out, transport.TagResponse{
			Value:      tag.Value,
			Source:     tag.Source,
			Confidence: tag.Confidence,
		})
	}
	return out
}

func toTimelineResponses(entries []repository.TimelineEvent) []transport.TimelineEventResponse {
	out := make([]transport.TimelineEventResponse, 0, len(entries))
	for _, entry := range entries {
		out = append(out, transport.TimelineEventResponse{
			ID:          entry.ID,
			EventType:   entry.EventType,
			Description: entry.Description,
			ActorID:     entry.ActorID,
			CreatedAt:   entry.CreatedAt,
		})
	}
	return out
}
