package distribution

import (
	apphttp "salesops_backend/internal/http"
)

// routeRegistrar lets the module wire its handler without importing the
// handler package (which imports this one).
type routeRegistrar interface {
	Register(ctx *apphttp.RouterContext)
}

// Module is the distribution bounded context module implementing http.Module.
type Module struct {
	service   *Service
	registrar routeRegistrar
}

// NewModule wraps a fully built service and its route registrar. The
// composition root builds the service because its dependencies span three
// other modules.
func NewModule(svc *Service, registrar routeRegistrar) *Module {
	return &Module{service: svc, registrar: registrar}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "distribution"
}

// Service returns the service layer for the scheduler process.
func (m *Module) Service() *Service {
	return m.service
}

// RegisterRoutes mounts distribution routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.registrar.Register(ctx)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
