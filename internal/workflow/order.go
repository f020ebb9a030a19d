// Package workflow holds the legal status-transition tables for the stateful
// entities. Handlers validate every status change against these tables instead
// of trusting the client to only offer legal actions.
package workflow

import (
	"fmt"

	"github.com/hmes-platform/api/internal/enum"
)

// orderTransitions defines valid order status transitions.
// Key is current status, value is the set of statuses it can transition to.
// Cancellation is only possible before fulfilment starts; Delivered and
// Cancelled are terminal.
var orderTransitions = map[string][]string{
	enum.OrderStatusPending:    {enum.OrderStatusProcessing, enum.OrderStatusCancelled},
	enum.OrderStatusProcessing: {enum.OrderStatusShipped},
	enum.OrderStatusShipped:    {enum.OrderStatusDelivered},
}

// IsOrderStatus reports whether s is a member of the order status vocabulary.
func IsOrderStatus(s string) bool {
	switch s {
	case enum.OrderStatusPending,
		enum.OrderStatusProcessing,
		enum.OrderStatusShipped,
		enum.OrderStatusDelivered,
		enum.OrderStatusCancelled:
		return true
	}
	return false
}

// CanTransitionOrder reports whether an order may move from one status to another.
func CanTransitionOrder(from, to string) bool {
	for _, s := range orderTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// ValidateOrderTransition returns a descriptive error when the transition is illegal.
func ValidateOrderTransition(from, to string) error {
	if _, ok := orderTransitions[from]; !ok {
		return fmt.Errorf("cannot transition from %s", from)
	}
	if !CanTransitionOrder(from, to) {
		return fmt.Errorf("cannot transition from %s to %s", from, to)
	}
	return nil
}

// OrderMutable reports whether an order may still be edited or deleted.
// Shipped and Delivered orders are locked.
func OrderMutable(status string) bool {
	return status != enum.OrderStatusShipped && status != enum.OrderStatusDelivered
}
