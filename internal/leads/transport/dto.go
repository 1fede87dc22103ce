package transport

import (
	"time"

	"github.com/google/uuid"
)

// Request DTOs

type CreateLeadRequest struct {
	FullName   string   `json:"fullName" validate:"required,min=1,max=200"`
	TaxID      string   `json:"taxId" validate:"required,min=7,max=20"`
	Phones     []string `json:"phones" validate:"required,min=1,max=5,dive,min=5,max=20"`
	Locality   string   `json:"locality" validate:"omitempty,max=100"`
	ObraSocial string   `json:"obraSocial" validate:"omitempty,max=100"`
	Age        *int     `json:"age,omitempty" validate:"omitempty,gte=0,lte=120"`
	SourceFile string   `json:"sourceFile,omitempty" validate:"omitempty,max=255"`
}

type UpdateLeadRequest struct {
	FullName   string   `json:"fullName" validate:"required,min=1,max=200"`
	Phones     []string `json:"phones" validate:"required,min=1,max=5,dive,min=5,max=20"`
	Locality   string   `json:"locality" validate:"omitempty,max=100"`
	ObraSocial string   `json:"obraSocial" validate:"omitempty,max=100"`
	Age        *int     `json:"age,omitempty" validate:"omitempty,gte=0,lte=120"`
}

type ListLeadsRequest struct {
	Status     string `form:"status"`
	ObraSocial string `form:"obraSocial"`
	Search     string `form:"search"`
	Limit      int    `form:"limit"`
	Offset     int    `form:"offset"`
}

// Response DTOs

type LeadResponse struct {
	ID              uuid.UUID  `json:"id"`
	FullName        string     `json:"fullName"`
	TaxID           string     `json:"taxId"`
	Phones          []string   `json:"phones"`
	Locality        string     `json:"locality"`
	ObraSocial      string     `json:"obraSocial"`
	Age             *int       `json:"age,omitempty"`
	SourceFile      *string    `json:"sourceFile,omitempty"`
	BatchID         *uuid.UUID `json:"batchId,omitempty"`
	Exported        bool       `json:"exported"`
	IsUsed          bool       `json:"isUsed"`
	Status          string     `json:"status"`
	AssignedTo      *uuid.UUID `json:"assignedTo,omitempty"`
	AssignedAt      *time.Time `json:"assignedAt,omitempty"`
	LastInteraction *time.Time `json:"lastInteraction,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

type InteractionResponse struct {
	ID           uuid.UUID  `json:"id"`
	AssignmentID *uuid.UUID `json:"assignmentId,omitempty"`
	Status       string     `json:"status"`
	Note         string     `json:"note"`
	ActorID      *uuid.UUID `json:"actorId,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
}

// ImportResult summarizes a batch import run.
type ImportResult struct {
	BatchID    uuid.UUID `json:"batchId"`
	Imported   int       `json:"imported"`
	Duplicates int       `json:"duplicates"`
	Failed     int       `json:"failed"`
}
