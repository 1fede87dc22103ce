package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"salesops_backend/internal/assignments/service"
	"salesops_backend/internal/assignments/transport"
	"salesops_backend/platform/httpkit"
	"salesops_backend/platform/validator"
)

// Handler handles HTTP requests for assignments.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgInvalidID        = "invalid assignment id"
)

// New creates a new assignments handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// ListMine retrieves the caller's live assignments.
// GET /api/v1/assignments/mine
func (h *Handler) ListMine(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	items, err := h.svc.ListMine(c.Request.Context(), identity)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.NewAssignmentResponses(items))
}

// GetByID retrieves an assignment.
// GET /api/v1/assignments/:id
func (h *Handler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return
	}
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	a, err := h.svc.GetByID(c.Request.Context(), identity, id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.NewAssignmentResponse(a))
}

// UpdateStatus moves an assignment to a new status.
// PUT /api/v1/assignments/:id/status
func (h *Handler) UpdateStatus(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return
	}
	var req transport.UpdateStatusRequest
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

	a, err := h.svc.UpdateStatus(c.Request.Context(), identity, id, req.Status, req.Note)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.NewAssignmentResponse(a))
}

// LogInteraction appends a touch to an assignment.
// POST /api/v1/assignments/:id/interactions
func (h *Handler) LogInteraction(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return
	}
	var req transport.LogInteractionRequest
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

	a, err := h.svc.LogInteraction(c.Request.Context(), identity, id, req.Note)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, transport.NewAssignmentResponse(a))
}

// Reschedule sets a follow-up date on an assignment.
// PUT /api/v1/assignments/:id/reschedule
func (h *Handler) Reschedule(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return
	}
	var req transport.RescheduleRequest
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

	a, err := h.svc.Reschedule(c.Request.Context(), identity, id, req.DueDate, req.Note)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.NewAssignmentResponse(a))
}
