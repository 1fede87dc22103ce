// Package domain provides core business rules for the assignments bounded context.
package domain

// Status is the lifecycle state of a lead assignment.
type Status string

const (
	// StatusPendiente is the initial state: no management attempt occurred yet.
	StatusPendiente Status = "Pendiente"
	// StatusEnGestion is entered automatically when the advisor first acts on
	// the assignment (interaction logged or reschedule requested).
	StatusEnGestion Status = "En Gestión"

	StatusContactado Status = "Contactado"
	StatusVenta      Status = "Venta"
	StatusNoInteresa Status = "No Interesa"
	StatusNoContesta Status = "No Contesta"
	StatusDerivado   Status = "Derivado"

	// StatusReciclable and StatusReciclado are terminal and set only by the
	// recycling job, never by user action.
	StatusReciclable Status = "Reciclable"
	StatusReciclado  Status = "Reciclado"
)

// SubStatusReprogramado marks a rescheduled assignment.
const SubStatusReprogramado = "Reprogramado"

// managedStatuses are the states an advisor may move an assignment into.
var managedStatuses = map[Status]bool{
	StatusEnGestion:  true,
	StatusContactado: true,
	StatusVenta:      true,
	StatusNoInteresa: true,
	StatusNoContesta: true,
	StatusDerivado:   true,
}

// terminalStatuses are recycler-owned states where no further advisor actions
// should occur.
var terminalStatuses = map[Status]bool{
	StatusReciclable: true,
	StatusReciclado:  true,
}

// Parse converts a raw string into a Status, reporting whether it is a known
// value. Caller-supplied strings must go through Parse at the boundary.
func Parse(raw string) (Status, bool) {
	s := Status(raw)
	if s == StatusPendiente || managedStatuses[s] || terminalStatuses[s] {
		return s, true
	}
	return "", false
}

// IsTerminal returns true for recycler-owned states.
func IsTerminal(s Status) bool {
	return terminalStatuses[s]
}

// IsManaged returns true if the status reflects at least one management attempt.
func IsManaged(s Status) bool {
	return managedStatuses[s]
}

// ReturnsFresh reports whether an assignment left in this status returns its
// lead to the fresh pool when recycled. Only untouched assignments do; every
// other live status counts as managed and returns the lead as reusable.
func ReturnsFresh(s Status) bool {
	return s == StatusPendiente
}

// CanTransition reports whether an advisor-driven status update from one state
// to another is allowed. Terminal states can neither be left nor entered by
// user action, and the target must be a managed status.
func CanTransition(from, to Status) bool {
	if terminalStatuses[from] || terminalStatuses[to] {
		return false
	}
	if to == StatusPendiente {
		return false
	}
	return managedStatuses[to]
}
