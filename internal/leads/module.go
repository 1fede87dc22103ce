// Package leads provides the lead records bounded context module.
package leads

import (
	apphttp "salesops_backend/internal/http"
	"salesops_backend/internal/leads/handler"
	"salesops_backend/internal/leads/repository"
	"salesops_backend/internal/leads/service"
	"salesops_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the leads bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	repo    *repository.Repository
}

// NewModule creates and initializes the leads module.
func NewModule(pool *pgxpool.Pool, val *validator.Validator) *Module {
	repo := repository.New(pool)
	svc := service.New(repo)
	h := handler.New(svc, val)

	return &Module{
		handler: h,
		service: svc,
		repo:    repo,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "leads"
}

// Service returns the service layer for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// Repository returns the repository for modules that query the lead pool.
func (m *Module) Repository() *repository.Repository {
	return m.repo
}

// RegisterRoutes mounts lead routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Protected.GET("/leads", m.handler.List)
	ctx.Protected.GET("/leads/mine", m.handler.ListMine)
	ctx.Protected.GET("/leads/:id", m.handler.GetByID)
	ctx.Protected.GET("/leads/:id/interactions", m.handler.ListInteractions)

	adminGroup := ctx.Admin.Group("/leads")
	adminGroup.POST("", m.handler.Create)
	adminGroup.PUT("/:id", m.handler.Update)
	adminGroup.DELETE("/:id", m.handler.Delete)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
