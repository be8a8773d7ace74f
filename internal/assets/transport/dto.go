// Package transport defines the request and response DTOs of the assets API.
package transport

import (
	"time"

	"github.com/google/uuid"
)

// Uploads

type InitUploadRequest struct {
	FileName    string     `json:"fileName" validate:"required,min=1,max=255"`
	ContentType string     `json:"contentType" validate:"required,min=1,max=255"`
	SizeBytes   int64      `json:"sizeBytes" validate:"required,min=1"`
	BrandID     *uuid.UUID `json:"brandId,omitempty" validate:"omitempty"`
}

type InitUploadResponse struct {
	Asset     AssetResponse `json:"asset"`
	UploadURL string        `json:"uploadUrl"`
	FileKey   string        `json:"fileKey"`
	ExpiresAt time.Time     `json:"expiresAt"`
}

type CompleteUploadRequest struct {
	Checksum string `json:"checksum,omitempty" validate:"omitempty,len=64,hexadecimal"`
}

// Assets

type ListAssetsRequest struct {
	BrandID  string `form:"brandId" validate:"omitempty,uuid"`
	Kind     string `form:"kind" validate:"omitempty,oneof=image video pdf archive other"`
	Status   string `form:"status" validate:"omitempty,max=32"`
	Search   string `form:"search" validate:"max=100"`
	Page     int    `form:"page" validate:"omitempty,min=1"`
	PageSize int    `form:"pageSize" validate:"omitempty,min=1,max=100"`
}

type AssetResponse struct {
	ID          uuid.UUID  `json:"id"`
	BrandID     *uuid.UUID `json:"brandId,omitempty"`
	Kind        string     `json:"kind"`
	FileName    string     `json:"fileName"`
	ContentType string     `json:"contentType"`
	SizeBytes   int64      `json:"sizeBytes"`
	Checksum    *string    `json:"checksum,omitempty"`
	Status      string     `json:"status"`
	Attempts    int        `json:"attempts"`
	LastError   *string    `json:"lastError,omitempty"`
	ReadyAt     *time.Time `json:"readyAt,omitempty"`
	UploadedBy  uuid.UUID  `json:"uploadedBy"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

type AssetDetailResponse struct {
	AssetResponse
	Renditions []RenditionResponse    `json:"renditions"`
	Tags       []TagResponse          `json:"tags"`
	Metadata   map[string]interface{} `json:"metadata"`
	Compliance *ComplianceResponse    `json:"compliance,omitempty"`
}

type AssetListResponse struct {
	Items      []AssetResponse `json:"items"`
	Total      int             `json:"total"`
	Page       int             `json:"page"`
	PageSize   int             `json:"pageSize"`
	TotalPages int             `json:"totalPages"`
}

type RenditionResponse struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	ContentType string    `json:"contentType"`
	Width       int       `json:"width,omitempty"`
	Height      int       `json:"height,omitempty"`
	SizeBytes   int64     `json:"sizeBytes"`
}

type TagResponse struct {
	Value      string   `json:"value"`
	Source     string   `json:"source"`
	Confidence *float64 `json:"confidence,omitempty"`
}

type ComplianceResponse struct {
	Score   int      `json:"score"`
	Verdict string   `json:"verdict"`
	Reasons []string `json:"reasons"`
}

// Downloads

type DownloadResponse struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Tags

type AddTagsRequest struct {
	Tags []string `json:"tags" validate:"required,min=1,max=25,dive,min=1,max=64"`
}

// Stats

type StatsResponse struct {
	Total    int            `json:"total"`
	ByStatus map[string]int `json:"byStatus"`
	ByKind   map[string]int `json:"byKind"`
}

// Timeline

type TimelineEventResponse struct {
	ID          uuid.UUID  `json:"id"`
	EventType   string     `json:"eventType"`
	Description string     `json:"description"`
	ActorID     *uuid.UUID `json:"actorId,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// Similar

type SimilarAssetsResponse struct {
	Items []AssetResponse `json:"items"`
}
