package workflow

import (
	"fmt"

	"github.com/hmes-platform/api/internal/enum"
)

// incomeTransitions defines valid payment status transitions for employee
// income records. The forward chain is Pending → Processing → Processed →
// Completed; a record may be cancelled before completion, and both Completed
// and Cancelled can be reverted to Pending to correct mistakes.
var incomeTransitions = map[string][]string{
	enum.PaymentStatusPending: {
		enum.PaymentStatusProcessing,
		enum.PaymentStatusCancelled,
	},
	enum.PaymentStatusProcessing: {
		enum.PaymentStatusProcessed,
		enum.PaymentStatusPending,
		enum.PaymentStatusCancelled,
	},
	enum.PaymentStatusProcessed: {
		enum.PaymentStatusCompleted,
		enum.PaymentStatusPending,
		enum.PaymentStatusCancelled,
	},
	enum.PaymentStatusCompleted: {
		enum.PaymentStatusPending,
	},
	enum.PaymentStatusCancelled: {
		enum.PaymentStatusPending,
	},
}

// IsPaymentStatus reports whether s is a member of the payment status vocabulary.
func IsPaymentStatus(s string) bool {
	switch s {
	case enum.PaymentStatusPending,
		enum.PaymentStatusProcessing,
		enum.PaymentStatusProcessed,
		enum.PaymentStatusCompleted,
		enum.PaymentStatusCancelled:
		return true
	}
	return false
}

// CanTransitionIncome reports whether a payment status change is allowed.
func CanTransitionIncome(from, to string) bool {
	for _, s := range incomeTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// ValidateIncomeTransition returns a descriptive error when the transition is illegal.
func ValidateIncomeTransition(from, to string) error {
	if !CanTransitionIncome(from, to) {
		return fmt.Errorf("cannot transition from %s to %s", from, to)
	}
	return nil
}

// SetsPaymentDate reports whether entering the status stamps the payment date.
func SetsPaymentDate(to string) bool {
	return to == enum.PaymentStatusCompleted
}

// ClearsPaymentDate reports whether entering the status clears the payment date.
func ClearsPaymentDate(to string) bool {
	return to == enum.PaymentStatusPending || to == enum.PaymentStatusCancelled
}

// IncomeDeletable reports whether the record may be deleted. Only records that
// have not entered payment processing can be removed.
func IncomeDeletable(status string) bool {
	return status == enum.PaymentStatusPending
}
