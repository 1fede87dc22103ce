package transport

import (
	"time"

	"salesops_backend/internal/distribution"
	"salesops_backend/internal/distribution/exportconfig"

	"github.com/google/uuid"
)

type MixRequest struct {
	Enabled  bool `json:"enabled"`
	FreshPct int  `json:"freshPct" validate:"gte=0,lte=100"`
}

type CategoryQuotaRequest struct {
	ObraSocial string `json:"obraSocial" validate:"required,max=100"`
	Count      int    `json:"count" validate:"required,gt=0"`
}

type AgeRangeRequest struct {
	Min *int `json:"min,omitempty" validate:"omitempty,gte=0,lte=120"`
	Max *int `json:"max,omitempty" validate:"omitempty,gte=0,lte=120"`
}

type DestinationRequest struct {
	AdvisorID  uuid.UUID              `json:"advisorId" validate:"required"`
	Quantity   int                    `json:"quantity" validate:"required,gt=0"`
	Mix        MixRequest             `json:"mix"`
	Categories []CategoryQuotaRequest `json:"categories,omitempty" validate:"omitempty,dive"`
	AgeRange   *AgeRangeRequest       `json:"ageRange,omitempty"`
}

type SaveConfigRequest struct {
	SendType         string               `json:"sendType" validate:"required,oneof=masivo avanzado"`
	ScheduledTime    string               `json:"scheduledTime" validate:"required"`
	CancellationType string               `json:"cancellationType" validate:"omitempty,oneof=none today indefinite"`
	SkipDate         *time.Time           `json:"skipDate,omitempty"`
	Active           bool                 `json:"active"`
	Destinations     []DestinationRequest `json:"destinations" validate:"required,min=1,dive"`
}

// ToConfig maps the request onto the domain policy. Validate runs in the
// service, not here.
func (r SaveConfigRequest) ToConfig() exportconfig.Config {
	cancellation := r.CancellationType
	if cancellation == "" {
		cancellation = exportconfig.CancellationNone
	}

	destinations := make([]exportconfig.Destination, 0, len(r.Destinations))
	for _, d := range r.Destinations {
		dest := exportconfig.Destination{
			AdvisorID: d.AdvisorID,
			Quantity:  d.Quantity,
			Mix:       exportconfig.Mix{Enabled: d.Mix.Enabled, FreshPct: d.Mix.FreshPct},
		}
		for _, cat := range d.Categories {
			dest.Categories = append(dest.Categories, exportconfig.CategoryQuota{
				ObraSocial: cat.ObraSocial,
				Count:      cat.Count,
			})
		}
		if d.AgeRange != nil {
			dest.AgeRange = &exportconfig.AgeRange{Min: d.AgeRange.Min, Max: d.AgeRange.Max}
		}
		destinations = append(destinations, dest)
	}

	return exportconfig.Config{
		SendType:         r.SendType,
		ScheduledTime:    r.ScheduledTime,
		CancellationType: cancellation,
		SkipDate:         r.SkipDate,
		Active:           r.Active,
		Settings:         exportconfig.Settings{Destinations: destinations},
	}
}

type ConfigResponse struct {
	ID               uuid.UUID                  `json:"id"`
	SendType         string                     `json:"sendType"`
	ScheduledTime    string                     `json:"scheduledTime"`
	CancellationType string                     `json:"cancellationType"`
	SkipDate         *time.Time                 `json:"skipDate,omitempty"`
	LastExecuted     *time.Time                 `json:"lastExecuted,omitempty"`
	Active           bool                       `json:"active"`
	Destinations     []exportconfig.Destination `json:"destinations"`
	CreatedAt        time.Time                  `json:"createdAt"`
	UpdatedAt        time.Time                  `json:"updatedAt"`
}

func NewConfigResponse(cfg exportconfig.Config) ConfigResponse {
	return ConfigResponse{
		ID:               cfg.ID,
		SendType:         cfg.SendType,
		ScheduledTime:    cfg.ScheduledTime,
		CancellationType: cfg.CancellationType,
		SkipDate:         cfg.SkipDate,
		LastExecuted:     cfg.LastExecuted,
		Active:           cfg.Active,
		Destinations:     cfg.Settings.Destinations,
		CreatedAt:        cfg.CreatedAt,
		UpdatedAt:        cfg.UpdatedAt,
	}
}

func NewConfigResponses(cfgs []exportconfig.Config) []ConfigResponse {
	out := make([]ConfigResponse, 0, len(cfgs))
	for _, cfg := range cfgs {
		out = append(out, NewConfigResponse(cfg))
	}
	return out
}

type DestinationResultResponse struct {
	AdvisorID uuid.UUID `json:"advisorId"`
	Requested int       `json:"requested"`
	Assigned  int       `json:"assigned"`
	Deficit   int       `json:"deficit"`
}

type RunResultResponse struct {
	RunID          uuid.UUID                   `json:"runId"`
	TotalRequested int                         `json:"totalRequested"`
	TotalAssigned  int                         `json:"totalAssigned"`
	TotalDeficit   int                         `json:"totalDeficit"`
	Destinations   []DestinationResultResponse `json:"destinations"`
}

func NewRunResultResponse(result distribution.Result) RunResultResponse {
	resp := RunResultResponse{
		RunID:          result.RunID,
		TotalRequested: result.TotalRequested(),
		TotalAssigned:  result.TotalAssigned(),
		TotalDeficit:   result.TotalDeficit(),
	}
	for _, dest := range result.Destinations {
		resp.Destinations = append(resp.Destinations, DestinationResultResponse{
			AdvisorID: dest.AdvisorID,
			Requested: dest.Requested,
			Assigned:  dest.Assigned,
			Deficit:   dest.Deficit,
		})
	}
	return resp
}

type RunRecordResponse struct {
	ID             uuid.UUID                        `json:"id"`
	ExecutedAt     time.Time                        `json:"executedAt"`
	Trigger        string                           `json:"trigger"`
	TotalRequested int                              `json:"totalRequested"`
	TotalAssigned  int                              `json:"totalAssigned"`
	Destinations   []distribution.DestinationRecord `json:"destinations"`
}

func NewRunRecordResponses(records []distribution.RunRecord) []RunRecordResponse {
	out := make([]RunRecordResponse, 0, len(records))
	for _, rec := range records {
		out = append(out, RunRecordResponse{
			ID:             rec.ID,
			ExecutedAt:     rec.ExecutedAt,
			Trigger:        rec.Trigger,
			TotalRequested: rec.TotalRequested,
			TotalAssigned:  rec.TotalAssigned,
			Destinations:   rec.Destinations,
		})
	}
	return out
}

type AdvisorResponse struct {
	ID       uuid.UUID `json:"id"`
	FullName string    `json:"fullName"`
	Email    string    `json:"email"`
	Role     string    `json:"role"`
}

func NewAdvisorResponses(advisors []distribution.Advisor) []AdvisorResponse {
	out := make([]AdvisorResponse, 0, len(advisors))
	for _, a := range advisors {
		out = append(out, AdvisorResponse{ID: a.ID, FullName: a.FullName, Email: a.Email, Role: a.Role})
	}
	return out
}

type DownloadURLResponse struct {
	URL string `json:"url"`
}
