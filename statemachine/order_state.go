package statemachine

import (
	"fmt"

	"github.com/dfierro/tavola-api/models"
)

// validTransitions is the authoritative kitchen workflow definition.
// The workflow is monotonic: pending → preparing → ready → served, and
// served is terminal. Repeating a status or moving backward is a conflict,
// not a no-op.
var validTransitions = map[string]string{
	models.OrderPending:   models.OrderPreparing,
	models.OrderPreparing: models.OrderReady,
	models.OrderReady:     models.OrderServed,
}

// validStatuses is the closed set of order statuses accepted on the wire
var validStatuses = map[string]bool{
	models.OrderPending:   true,
	models.OrderPreparing: true,
	models.OrderReady:     true,
	models.OrderServed:    true,
}

// IsValidStatus reports whether the given value is a known order status
func IsValidStatus(status string) bool {
	return validStatuses[status]
}

// CanTransition checks whether an order may move from one status to
// another. It returns an error describing the violation when the move is
// not the single allowed forward step.
func CanTransition(from, to string) error {
	if next, ok := validTransitions[from]; ok && next == to {
		return nil
	}
	if from == models.OrderServed {
		return fmt.Errorf("order is already served; served is a terminal status")
	}
	return fmt.Errorf("cannot move order from %q to %q; next status must be %q", from, to, validTransitions[from])
}

// NextStatus returns the single allowed next status, or empty for the
// terminal status.
func NextStatus(from string) string {
	return validTransitions[from]
}
