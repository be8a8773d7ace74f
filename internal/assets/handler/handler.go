// Package handler exposes the assets API over HTTP.
package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"mediavault_backend/internal/assets/service"
	"mediavault_backend/internal/assets/transport"
	"mediavault_backend/platform/httpkit"
	"mediavault_backend/platform/validator"
)

// Handler handles HTTP requests for assets.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgInvalidID        = "invalid asset id"
)

// New creates a new assets handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// InitUpload reserves an asset and returns a presigned upload URL.
// POST /api/v1/assets/uploads
func (h *Handler) InitUpload(c *gin.Context) {
	var req transport.InitUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	result, err := h.svc.InitUpload(c.Request.Context(), identity.TenantID(), identity.UserID(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, result)
}

// CompleteUpload confirms the client finished the presigned PUT.
// POST /api/v1/assets/:id/uploads/complete
func (h *Handler) CompleteUpload(c *gin.Context) {
	id, ok := h.assetID(c)
	if !ok {
		return
	}
	var req transport.CompleteUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	result, err := h.svc.CompleteUpload(c.Request.Context(), identity.TenantID(), id, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// ListAssets retrieves a filtered asset listing.
// GET /api/v1/assets
func (h *Handler) ListAssets(c *gin.Context) {
	var req transport.ListAssetsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	result, err := h.svc.ListAssets(c.Request.Context(), identity.TenantID(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// GetAsset retrieves an asset with renditions, tags, metadata and compliance.
// GET /api/v1/assets/:id
func (h *Handler) GetAsset(c *gin.Context) {
	id, ok := h.assetID(c)
	if !ok {
		return
	}
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	result, err := h.svc.GetAsset(c.Request.Context(), identity.TenantID(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// DeleteAsset removes an asset and its stored objects.
// DELETE /api/v1/assets/:id
func (h *Handler) DeleteAsset(c *gin.Context) {
	id, ok := h.assetID(c)
	if !ok {
		return
	}
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	err := h.svc.Delete(c.Request.Context(), identity.TenantID(), id, identity.UserID())
	if httpkit.HandleError(c, err) {
		return
	}
	c.Status(http.StatusNoContent)
}

// Download returns a presigned URL for the original file.
// GET /api/v1/assets/:id/download
func (h *Handler) Download(c *gin.Context) {
	id, ok := h.assetID(c)
	if !ok {
		return
	}
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	result, err := h.svc.DownloadURL(c.Request.Context(), identity.TenantID(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// DownloadRendition returns a presigned URL for a rendition.
// GET /api/v1/assets/:id/renditions/:renditionId/download
func (h *Handler) DownloadRendition(c *gin.Context) {
	id, ok := h.assetID(c)
	if !ok {
		return
	}
	renditionID, err := uuid.Parse(c.Param("renditionId"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid rendition id", nil)
		return
	}
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	result, err := h.svc.RenditionDownloadURL(c.Request.Context(), identity.TenantID(), id, renditionID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// ShareQR returns a QR code PNG encoding a presigned download URL.
// GET /api/v1/assets/:id/share-qr
func (h *Handler) ShareQR(c *gin.Context) {
	id, ok := h.assetID(c)
	if !ok {
		return
	}
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	png, err := h.svc.ShareQR(c.Request.Context(), identity.TenantID(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}

// AddTags adds user tags to an asset.
// POST /api/v1/assets/:id/tags
func (h *Handler) AddTags(c *gin.Context) {
	id, ok := h.assetID(c)
	if !ok {
		return
	}
	var req transport.AddTagsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	result, err := h.svc.AddTags(c.Request.Context(), identity.TenantID(), id, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// RemoveTag removes a tag by value.
// DELETE /api/v1/assets/:id/tags/:value
func (h *Handler) RemoveTag(c *gin.Context) {
	id, ok := h.assetID(c)
	if !ok {
		return
	}
	value := c.Param("value")
	if value == "" {
		httpkit.Error(c, http.StatusBadRequest, "tag value is required", nil)
		return
	}
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	err := h.svc.RemoveTag(c.Request.Context(), identity.TenantID(), id, value)
	if httpkit.HandleError(c, err) {
		return
	}
	c.Status(http.StatusNoContent)
}

// Similar returns ready assets ranked by embedding similarity.
// GET /api/v1/assets/:id/similar
func (h *Handler) Similar(c *gin.Context) {
	id, ok := h.assetID(c)
	if !ok {
		return
	}
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	result, err := h.svc.Similar(c.Request.Context(), identity.TenantID(), id, queryInt(c, "limit"))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// Timeline returns the audit trail of an asset.
// GET /api/v1/assets/:id/timeline
func (h *Handler) Timeline(c *gin.Context) {
	id, ok := h.assetID(c)
	if !ok {
		return
	}
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	result, err := h.svc.Timeline(c.Request.Context(), identity.TenantID(), id, queryInt(c, "limit"))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// Stats returns per-status and per-kind asset counts for the tenant.
// GET /api/v1/assets/stats
func (h *Handler) Stats(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	result, err := h.svc.Stats(c.Request.Context(), identity.TenantID())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// Retry re-enqueues a failed asset at its first incomplete stage.
// POST /api/v1/admin/assets/:id/retry
func (h *Handler) Retry(c *gin.Context) {
	id, ok := h.assetID(c)
	if !ok {
		return
	}
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	result, err := h.svc.Retry(c.Request.Context(), identity.TenantID(), id, identity.UserID())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// Release moves a quarantined asset back into compliance scoring.
// POST /api/v1/admin/assets/:id/release
func (h *Handler) Release(c *gin.Context) {
	id, ok := h.assetID(c)
	if !ok {
		return
	}
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	result, err := h.svc.Release(c.Request.Context(), identity.TenantID(), id, identity.UserID())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

func (h *Handler) assetID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return uuid.UUID{}, false
	}
	return id, true
}

func queryInt(c *gin.Context, name string) int {
	value, err := strconv.Atoi(c.Query(name))
	if err != nil {
		return 0
	}
	return value
}
