package scheduler

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// Task types carried over the asynq queue.
const (
	TypeDestinationNotify = "notify:destination_assigned"
	TypeRunSummaryNotify  = "notify:run_completed"
)

// DestinationNotifyPayload carries one advisor's batch outcome to the worker.
type DestinationNotifyPayload struct {
	RunID        uuid.UUID `json:"runId"`
	AdvisorID    uuid.UUID `json:"advisorId"`
	AdvisorName  string    `json:"advisorName"`
	AdvisorEmail string    `json:"advisorEmail"`
	Requested    int       `json:"requested"`
	Assigned     int       `json:"assigned"`
	Deficit      int       `json:"deficit"`
	ExportKey    string    `json:"exportKey,omitempty"`
}

// RunSummaryNotifyPayload carries the operator summary to the worker.
type RunSummaryNotifyPayload struct {
	RunID          uuid.UUID `json:"runId"`
	Destinations   int       `json:"destinations"`
	TotalRequested int       `json:"totalRequested"`
	TotalAssigned  int       `json:"totalAssigned"`
	TotalDeficit   int       `json:"totalDeficit"`
}

// NewDestinationNotifyTask builds the queue task for one destination.
func NewDestinationNotifyTask(payload DestinationNotifyPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeDestinationNotify, data, asynq.MaxRetry(3)), nil
}

// NewRunSummaryNotifyTask builds the queue task for the run summary.
func NewRunSummaryNotifyTask(payload RunSummaryNotifyPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeRunSummaryNotify, data, asynq.MaxRetry(3)), nil
}
