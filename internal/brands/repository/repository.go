// Package repository provides pgx-backed persistence for brand workspaces.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"mediavault_backend/platform/apperr"
)

// Brand is a workspace grouping assets inside a tenant.
type Brand struct {
	ID             uuid.UUID `db:"id"`
	OrganizationID uuid.UUID `db:"organization_id"`
	Name           string    `db:"name"`
	Slug           string    `db:"slug"`
	Description    *string   `db:"description"`
	CreatedBy      uuid.UUID `db:"created_by"`
	CreatedAt      time.Time `db:"created_at"`
	UpdatedAt      time.Time `db:"updated_at"`
}

// BrandWithCount is a brand plus its current asset count.
type BrandWithCount struct {
	Brand
	AssetCount int
}

// CreateBrandParams contains data for creating a brand.
type CreateBrandParams struct {
	OrganizationID uuid.UUID
	Name           string
	Slug           string
	Description    *string
	CreatedBy      uuid.UUID
}

// UpdateBrandParams contains data for updating a brand.
type UpdateBrandParams struct {
	Name        string
	Description *string
}

// Repository defines brand storage operations.
type Repository interface {
	CreateBrand(ctx context.Context, params CreateBrandParams) (Brand, error)
	GetBrandByID(ctx context.Context, organizationID, id uuid.UUID) (Brand, error)
	ListBrands(ctx context.Context, organizationID uuid.UUID) ([]BrandWithCount, error)
	UpdateBrand(ctx context.Context, organizationID, id uuid.UUID, params UpdateBrandParams) (Brand, error)
	DeleteBrand(ctx context.Context, organizationID, id uuid.UUID) error
}

// Repo implements Repository using pgx.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new brands repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

const brandColumns = `id, organization_id, name, slug, description, created_by, created_at, updated_at`

func scanBrand(row pgx.Row) (Brand, error) {
	var b Brand
	err := row.Scan(
		&b.ID, &b.OrganizationID, &b.Name, &b.Slug,
		&b.Description, &b.CreatedBy, &b.CreatedAt, &b.UpdatedAt,
	)
	return b, err
}

// CreateBrand inserts a new brand.
func (r *Repo) CreateBrand(ctx context.Context, params CreateBrandParams) (Brand, error) {
	query := `
		INSERT INTO brands (organization_id, name, slug, description, created_by)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + brandColumns

	brand, err := scanBrand(r.pool.QueryRow(ctx, query,
		params.OrganizationID, params.Name, params.Slug, params.Description, params.CreatedBy,
	))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Brand{}, apperr.Conflict("a brand with this slug already exists")
		}
		return Brand{}, fmt.Errorf("create brand: %w", err)
	}
	return brand, nil
}

// GetBrandByID fetches a brand scoped to the organization.
func (r *Repo) GetBrandByID(ctx context.Context, organizationID, id uuid.UUID) (Brand, error) {
	query := `SELECT ` + brandColumns + ` FROM brands WHERE organization_id = $1 AND id = $2`

	brand, err := scanBrand(r.pool.QueryRow(ctx, query, organizationID, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Brand{}, apperr.NotFound("brand not found")
		}
		return Brand{}, fmt.Errorf("get brand: %w", err)
	}
	return brand, nil
}

// ListBrands returns all brands of the organization with their asset counts.
func (r *Repo) ListBrands(ctx context.Context, organizationID uuid.UUID) ([]BrandWithCount, error) {
	query := `
		SELECT b.id, b.organization_id, b.name, b.slug, b.description, b.created_by,
		       b.created_at, b.updated_at,
		       COUNT(a.id) AS asset_count
		FROM brands b
		LEFT JOIN assets a ON a.brand_id = b.id
		WHERE b.organization_id = $1
		GROUP BY b.id
		ORDER BY b.name ASC`

	rows, err := r.pool.Query(ctx, query, organizationID)
	if err != nil {
		return nil, fmt.Errorf("list brands: %w", err)
	}
	defer rows.Close()

	var brands []BrandWithCount
	for rows.Next() {
		var b BrandWithCount
		if err := rows.Scan(
			&b.ID, &b.OrganizationID, &b.Name, &b.Slug, &b.Description,
			&b.CreatedBy, &b.CreatedAt, &b.UpdatedAt, &b.AssetCount,
		); err != nil {
			return nil, fmt.Errorf("scan brand: %w", err)
		}
		brands = append(brands, b)
	}
	return brands, rows.Err()
}

// UpdateBrand updates a brand's mutable fields.
func (r *Repo) UpdateBrand(ctx context.Context, organizationID, id uuid.UUID, params UpdateBrandParams) (Brand, error) {
	query := `
		UPDATE brands
		SET name = $3, description = $4, updated_at = now()
		WHERE organization_id = $1 AND id = $2
		RETURNING ` + brandColumns

	brand, err := scanBrand(r.pool.QueryRow(ctx, query, organizationID, id, params.Name, params.Description))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Brand{}, apperr.NotFound("brand not found")
		}
		return Brand{}, fmt.Errorf("update brand: %w", err)
	}
	return brand, nil
}

// DeleteBrand removes a brand. Assets keep existing with brand_id set to NULL.
func (r *Repo) DeleteBrand(ctx context.Context, organizationID, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM brands WHERE organization_id = $1 AND id = $2`, organizationID, id)
	if err != nil {
		return fmt.Errorf("delete brand: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("brand not found")
	}
	return nil
}

// Compile-time interface check
var _ Repository = (*Repo)(nil)
