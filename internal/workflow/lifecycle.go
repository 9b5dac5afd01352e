package workflow

import "fmt"

// PickupStatus is the lifecycle state of a PickupRecord.
type PickupStatus string

const (
	StatusPending   PickupStatus = "Pending"
	StatusScheduled PickupStatus = "Scheduled"
	StatusInTransit PickupStatus = "In Transit"
	StatusCollected PickupStatus = "Collected"
	StatusDelivered PickupStatus = "Delivered"
	StatusVerified  PickupStatus = "Verified"
	StatusCancelled PickupStatus = "Cancelled"
)

// Inspection statuses.
const (
	InspectionPending    = "pending"
	InspectionInProgress = "in_progress"
	InspectionCompleted  = "completed"
)

// Payment statuses.
const (
	PaymentPending    = "pending"
	PaymentProposed   = "proposed"
	PaymentFinalizing = "finalizing"
	PaymentCompleted  = "completed"
	PaymentRejected   = "rejected"
)

// State machine for pickup status transitions. Cancellation is handled
// separately because it is reachable from every non-terminal state.
var validTransitions = map[PickupStatus][]PickupStatus{
	StatusPending:   {StatusScheduled},
	StatusScheduled: {StatusInTransit},
	StatusInTransit: {StatusCollected},
	StatusCollected: {StatusDelivered},
	StatusDelivered: {StatusVerified},
	StatusVerified:  {}, // terminal
	StatusCancelled: {}, // terminal
}

// TransitionError is the typed rejection for an illegal status change.
type TransitionError struct {
	From PickupStatus
	To   PickupStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("invalid pickup transition from %q to %q", e.From, e.To)
}

// IsTerminal reports whether no further transitions are possible.
func IsTerminal(s PickupStatus) bool {
	return s == StatusVerified || s == StatusCancelled
}

// IsValidStatus reports whether s is one of the known pickup statuses.
func IsValidStatus(s PickupStatus) bool {
	_, ok := validTransitions[s]
	return ok
}

// ValidateTransition checks the transition table. Any non-terminal state may
// move to Cancelled; everything else must follow the directed graph.
func ValidateTransition(current, next PickupStatus) error {
	allowed, exists := validTransitions[current]
	if !exists {
		return fmt.Errorf("unknown pickup status %q", current)
	}
	if !IsValidStatus(next) {
		return fmt.Errorf("unknown pickup status %q", next)
	}

	if next == StatusCancelled {
		if IsTerminal(current) {
			return &TransitionError{From: current, To: next}
		}
		return nil
	}

	for _, s := range allowed {
		if s == next {
			return nil
		}
	}
	return &TransitionError{From: current, To: next}
}

// AllowedTransitions returns the next statuses reachable from current,
// including Cancelled for non-terminal states.
func AllowedTransitions(current PickupStatus) []PickupStatus {
	next := append([]PickupStatus{}, validTransitions[current]...)
	if !IsTerminal(current) {
		next = append(next, StatusCancelled)
	}
	return next
}

// Device conditions a completed inspection may report.
var validConditions = map[string]bool{
	"excellent": true,
	"good":      true,
	"fair":      true,
	"poor":      true,
}

// IsValidCondition reports whether c is an accepted inspection condition.
func IsValidCondition(c string) bool {
	return validConditions[c]
}
