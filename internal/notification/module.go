// Package notification delivers email for distribution events. It runs in
// the worker process, where queued tasks are replayed onto the local bus.
package notification

import (
	"context"

	"salesops_backend/internal/email"
	"salesops_backend/internal/events"
	"salesops_backend/platform/logger"
)

// Module subscribes to distribution events and sends the corresponding mail.
type Module struct {
	sender        email.Sender
	operatorEmail string
	log           *logger.Logger
}

func NewModule(sender email.Sender, operatorEmail string, log *logger.Logger) *Module {
	return &Module{
		sender:        sender,
		operatorEmail: operatorEmail,
		log:           log,
	}
}

// RegisterHandlers subscribes to the distribution events.
func (m *Module) RegisterHandlers(bus events.Bus) {
	bus.Subscribe(events.DestinationAssigned{}.EventName(), m)
	bus.Subscribe(events.DistributionCompleted{}.EventName(), m)
}

// Handle routes events to the appropriate sender method.
func (m *Module) Handle(ctx context.Context, event events.Event) error {
	switch e := event.(type) {
	case events.DestinationAssigned:
		if e.AdvisorEmail == "" {
			return nil
		}
		return m.sender.SendBatchAssignedEmail(ctx, e.AdvisorEmail, e.AdvisorName, e.Assigned, e.Deficit)
	case events.DistributionCompleted:
		if m.operatorEmail == "" {
			return nil
		}
		return m.sender.SendRunSummaryEmail(ctx, m.operatorEmail, e.Destinations, e.TotalRequested, e.TotalAssigned, e.TotalDeficit)
	default:
		return nil
	}
}
