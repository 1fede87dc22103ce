// Package assignments provides the assignment lifecycle bounded context module.
package assignments

import (
	"salesops_backend/internal/assignments/handler"
	"salesops_backend/internal/assignments/repository"
	"salesops_backend/internal/assignments/service"
	apphttp "salesops_backend/internal/http"
	leadsrepo "salesops_backend/internal/leads/repository"
	"salesops_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the assignments bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	repo    *repository.Repository
}

// NewModule creates and initializes the assignments module.
func NewModule(pool *pgxpool.Pool, leadsRepo *leadsrepo.Repository, val *validator.Validator) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, leadsRepo)
	h := handler.New(svc, val)

	return &Module{
		handler: h,
		service: svc,
		repo:    repo,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "assignments"
}

// Repository returns the repository for modules that manage assignments in
// bulk (distribution and recycling).
func (m *Module) Repository() *repository.Repository {
	return m.repo
}

// RegisterRoutes mounts assignment routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.Protected.Group("/assignments")
	group.GET("/mine", m.handler.ListMine)
	group.GET("/:id", m.handler.GetByID)
	group.PUT("/:id/status", m.handler.UpdateStatus)
	group.POST("/:id/interactions", m.handler.LogInteraction)
	group.PUT("/:id/reschedule", m.handler.Reschedule)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
