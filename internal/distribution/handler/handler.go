package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"salesops_backend/internal/distribution"
	"salesops_backend/internal/distribution/transport"
	apphttp "salesops_backend/internal/http"
	"salesops_backend/platform/httpkit"
	"salesops_backend/platform/validator"
)

// Handler handles HTTP requests for distribution configuration and runs.
type Handler struct {
	svc *distribution.Service
	val *validator.Validator
}

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgInvalidID        = "invalid id"
)

// New creates a new distribution handler.
func New(svc *distribution.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// Register mounts distribution routes. Policy management and runs are
// supervisor territory; export downloads are too, since advisors receive
// their file out of band.
func (h *Handler) Register(ctx *apphttp.RouterContext) {
	group := ctx.Supervisor.Group("/distribution")
	group.GET("/config", h.GetActiveConfig)
	group.GET("/configs", h.ListConfigs)
	group.POST("/configs", h.CreateConfig)
	group.PUT("/configs/:id", h.UpdateConfig)
	group.POST("/trigger", h.TriggerNow)
	group.GET("/runs", h.ListRuns)
	group.GET("/runs/:id/exports/:advisorId", h.GetExportDownloadURL)
	group.GET("/advisors", h.ListAdvisors)
}

// GetActiveConfig retrieves the active distribution policy.
// GET /api/v1/supervisor/distribution/config
func (h *Handler) GetActiveConfig(c *gin.Context) {
	cfg, err := h.svc.ActiveConfig(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.NewConfigResponse(cfg))
}

// ListConfigs retrieves all stored policies.
// GET /api/v1/supervisor/distribution/configs
func (h *Handler) ListConfigs(c *gin.Context) {
	cfgs, err := h.svc.ListConfigs(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.NewConfigResponses(cfgs))
}

// CreateConfig stores a new policy.
// POST /api/v1/supervisor/distribution/configs
func (h *Handler) CreateConfig(c *gin.Context) {
	var req transport.SaveConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	cfg, err := h.svc.SaveConfig(c.Request.Context(), req.ToConfig())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, transport.NewConfigResponse(cfg))
}

// UpdateConfig replaces a policy.
// PUT /api/v1/supervisor/distribution/configs/:id
func (h *Handler) UpdateConfig(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return
	}
	var req transport.SaveConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	cfg := req.ToConfig()
	cfg.ID = id
	updated, err := h.svc.UpdateConfig(c.Request.Context(), cfg)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.NewConfigResponse(updated))
}

// TriggerNow runs the active policy immediately.
// POST /api/v1/supervisor/distribution/trigger
func (h *Handler) TriggerNow(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	result, err := h.svc.TriggerNow(c.Request.Context(), identity.UserID())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.NewRunResultResponse(result))
}

// ListRuns retrieves recent distribution runs.
// GET /api/v1/supervisor/distribution/runs
func (h *Handler) ListRuns(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	runs, err := h.svc.ListRuns(c.Request.Context(), limit)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.NewRunRecordResponses(runs))
}

// GetExportDownloadURL returns a presigned link for a run's CSV artifact.
// GET /api/v1/supervisor/distribution/runs/:id/exports/:advisorId
func (h *Handler) GetExportDownloadURL(c *gin.Context) {
	runID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return
	}
	advisorID, err := uuid.Parse(c.Param("advisorId"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return
	}

	url, err := h.svc.ExportDownloadURL(c.Request.Context(), runID, advisorID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.DownloadURLResponse{URL: url})
}

// ListAdvisors retrieves the active roster for building destination configs.
// GET /api/v1/supervisor/distribution/advisors
func (h *Handler) ListAdvisors(c *gin.Context) {
	advisors, err := h.svc.Advisors(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.NewAdvisorResponses(advisors))
}
