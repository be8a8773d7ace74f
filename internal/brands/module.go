// Package brands provides the brand workspace bounded context module.
package brands

import (
	"github.com/jackc/pgx/v5/pgxpool"

	"mediavault_backend/internal/brands/handler"
	"mediavault_backend/internal/brands/repository"
	"mediavault_backend/internal/brands/service"
	"mediavault_backend/internal/events"
	apphttp "mediavault_backend/internal/http"
	"mediavault_backend/platform/logger"
	"mediavault_backend/platform/validator"
)

// Module is the brands bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	repo    repository.Repository
}

// NewModule creates and initializes the brands module.
func NewModule(pool *pgxpool.Pool, bus events.Bus, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, bus, log)
	h := handler.New(svc, val)

	return &Module{
		handler: h,
		service: svc,
		repo:    repo,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "brands"
}

// Service returns the service layer for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts brand routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Protected.GET("/brands", m.handler.ListBrands)
	ctx.Protected.GET("/brands/:id", m.handler.GetBrand)

	adminGroup := ctx.Admin.Group("/brands")
	adminGroup.POST("", m.handler.CreateBrand)
	adminGroup.PUT("/:id", m.handler.UpdateBrand)
	adminGroup.DELETE("/:id", m.handler.DeleteBrand)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
