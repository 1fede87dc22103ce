package events

import (
	platformevents "salesops_backend/platform/events"

	"github.com/google/uuid"
)

// Re-export platform event types so modules only import internal/events.
type (
	Event       = platformevents.Event
	BaseEvent   = platformevents.BaseEvent
	Bus         = platformevents.Bus
	Handler     = platformevents.Handler
	HandlerFunc = platformevents.HandlerFunc
)

// NewBaseEvent creates a new base event with the current timestamp.
func NewBaseEvent() BaseEvent {
	return platformevents.NewBaseEvent()
}

// DestinationAssigned is published once per destination after a distribution
// run hands leads to that advisor.
type DestinationAssigned struct {
	BaseEvent
	RunID        uuid.UUID
	AdvisorID    uuid.UUID
	AdvisorName  string
	AdvisorEmail string
	Requested    int
	Assigned     int
	Deficit      int
	ExportKey    string
}

// EventName returns the unique event identifier.
func (e DestinationAssigned) EventName() string { return "distribution.destination_assigned" }

// DistributionCompleted is published once per run with the operator summary.
type DistributionCompleted struct {
	BaseEvent
	RunID          uuid.UUID
	Destinations   int
	TotalRequested int
	TotalAssigned  int
	TotalDeficit   int
}

// EventName returns the unique event identifier.
func (e DistributionCompleted) EventName() string { return "distribution.run_completed" }

// LeadsRecycled is published after the nightly recycling job returns leads to
// their pools.
type LeadsRecycled struct {
	BaseEvent
	FreshReturned    int64
	ReusableReturned int64
}

// EventName returns the unique event identifier.
func (e LeadsRecycled) EventName() string { return "leads.recycled" }
