package order

import (
	"fmt"

	"github.com/vardar-pos/api/internal/enum"
)

// allowedTransitions defines valid status transitions.
// The lifecycle only ever advances: OPEN → SENT → CLOSED.
var allowedTransitions = map[string][]string{
	enum.OrderStatusOpen: {enum.OrderStatusSent},
	enum.OrderStatusSent: {enum.OrderStatusClosed},
}

// ValidateTransition checks that moving from current to next is allowed.
func ValidateTransition(current, next string) error {
	for _, s := range allowedTransitions[current] {
		if s == next {
			return nil
		}
	}
	return fmt.Errorf("cannot transition from %s to %s", current, next)
}
