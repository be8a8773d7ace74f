// Package service implements brand workspace management.
package service

import (
	"context"
	"strings"
	"unicode"

	"github.com/google/uuid"

	"mediavault_backend/internal/brands/repository"
	"mediavault_backend/internal/brands/transport"
	"mediavault_backend/internal/events"
	"mediavault_backend/platform/logger"
)

// Service provides business logic for brands.
type Service struct {
	repo repository.Repository
	bus  events.Bus
	log  *logger.Logger
}

// New creates a new brands service.
func New(repo repository.Repository, bus events.Bus, log *logger.Logger) *Service {
	return &Service{repo: repo, bus: bus, log: log}
}

// Create creates a brand workspace.
func (s *Service) Create(ctx context.Context, tenantID, userID uuid.UUID, req transport.CreateBrandRequest) (transport.BrandResponse, error) {
	brand, err := s.repo.CreateBrand(ctx, repository.CreateBrandParams{
		OrganizationID: tenantID,
		Name:           strings.TrimSpace(req.Name),
		Slug:           slugify(req.Name),
		Description:    req.Description,
		CreatedBy:      userID,
	})
	if err != nil {
		return transport.BrandResponse{}, err
	}

	if s.bus != nil {
		s.bus.Publish(ctx, events.BrandCreated{
			BaseEvent: events.NewBaseEvent(),
			BrandID:   brand.ID,
			TenantID:  tenantID,
			Name:      brand.Name,
			CreatedBy: userID,
		})
	}
	s.log.Info("brand created", "brandId", brand.ID, "name", brand.Name)
	return toBrandResponse(brand, 0), nil
}

// Get returns one brand.
func (s *Service) Get(ctx context.Context, tenantID, id uuid.UUID) (transport.BrandResponse, error) {
	brand, err := s.repo.GetBrandByID(ctx, tenantID, id)
	if err != nil {
		return transport.BrandResponse{}, err
	}
	return toBrandResponse(brand, 0), nil
}

// List returns all brands of the tenant with asset counts.
func (s *Service) List(ctx context.Context, tenantID uuid.UUID) (transport.BrandListResponse, error) {
	brands, err := s.repo.ListBrands(ctx, tenantID)
	if err != nil {
		return transport.BrandListResponse{}, err
	}

	items := make([]transport.BrandResponse, 0, len(brands))
	for _, brand := range brands {
		items = append(items, toBrandResponse(brand.Brand, brand.AssetCount))
	}
	return transport.BrandListResponse{Items: items}, nil
}

// Update renames a brand or changes its description. The slug is stable.
func (s *Service) Update(ctx context.Context, tenantID, id uuid.UUID, req transport.UpdateBrandRequest) (transport.BrandResponse, error) {
	brand, err := s.repo.UpdateBrand(ctx, tenantID, id, repository.UpdateBrandParams{
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
	})
	if err != nil {
		return transport.BrandResponse{}, err
	}
	return toBrandResponse(brand, 0), nil
}

// Delete removes a brand. Assets in the brand are detached, not deleted.
func (s *Service) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	return s.repo.DeleteBrand(ctx, tenantID, id)
}

func toBrandResponse(brand repository.Brand, assetCount int) transport.BrandResponse {
	return transport.BrandResponse{
		ID:          brand.ID,
		Name:        brand.Name,
		Slug:        brand.Slug,
		Description: brand.Description,
		AssetCount:  assetCount,
		CreatedBy:   brand.CreatedBy,
		CreatedAt:   brand.CreatedAt,
		UpdatedAt:   brand.UpdatedAt,
	}
}

// slugify lowercases the name and collapses everything that is not a letter
// or digit into single dashes.
func slugify(name string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastDash = false
		case !lastDash:
			b.WriteByte('-')
			lastDash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
