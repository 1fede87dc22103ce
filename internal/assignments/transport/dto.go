package transport

import (
	"time"

	"salesops_backend/internal/assignments/repository"

	"github.com/google/uuid"
)

type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required,min=1,max=50"`
	Note   string `json:"note" validate:"omitempty,max=2000"`
}

type LogInteractionRequest struct {
	Note string `json:"note" validate:"required,min=1,max=2000"`
}

type RescheduleRequest struct {
	DueDate time.Time `json:"dueDate" validate:"required"`
	Note    string    `json:"note" validate:"omitempty,max=2000"`
}

type AssignmentResponse struct {
	ID         uuid.UUID  `json:"id"`
	LeadID     uuid.UUID  `json:"leadId"`
	AdvisorID  uuid.UUID  `json:"advisorId"`
	Status     string     `json:"status"`
	SubStatus  *string    `json:"subStatus,omitempty"`
	DueDate    *time.Time `json:"dueDate,omitempty"`
	SourceType string     `json:"sourceType"`
	Active     bool       `json:"active"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}

func NewAssignmentResponse(a repository.Assignment) AssignmentResponse {
	return AssignmentResponse{
		ID:         a.ID,
		LeadID:     a.LeadID,
		AdvisorID:  a.AdvisorID,
		Status:     string(a.Status),
		SubStatus:  a.SubStatus,
		DueDate:    a.DueDate,
		SourceType: a.SourceType,
		Active:     a.Active,
		CreatedAt:  a.CreatedAt,
		UpdatedAt:  a.UpdatedAt,
	}
}

func NewAssignmentResponses(items []repository.Assignment) []AssignmentResponse {
	out := make([]AssignmentResponse, 0, len(items))
	for _, a := range items {
		out = append(out, NewAssignmentResponse(a))
	}
	return out
}
