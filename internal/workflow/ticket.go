package workflow

import (
	"fmt"

	"github.com/hmes-platform/api/internal/enum"
)

// ticketTransitions defines valid ticket status transitions. Done and Closed
// are reachable from every active state; a transfer request is only possible
// while the ticket is being worked on, and a rejected transfer leaves the
// handler in place.
var ticketTransitions = map[string][]string{
	enum.TicketStatusPending: {
		enum.TicketStatusInProgress,
		enum.TicketStatusDone,
		enum.TicketStatusClosed,
	},
	enum.TicketStatusInProgress: {
		enum.TicketStatusIsTransferring,
		enum.TicketStatusDone,
		enum.TicketStatusClosed,
	},
	enum.TicketStatusIsTransferring: {
		enum.TicketStatusInProgress,
		enum.TicketStatusTransferRejected,
		enum.TicketStatusDone,
		enum.TicketStatusClosed,
	},
	enum.TicketStatusTransferRejected: {
		enum.TicketStatusDone,
		enum.TicketStatusClosed,
	},
}

// IsTicketStatus reports whether s is a member of the ticket status vocabulary.
func IsTicketStatus(s string) bool {
	switch s {
	case enum.TicketStatusPending,
		enum.TicketStatusInProgress,
		enum.TicketStatusIsTransferring,
		enum.TicketStatusTransferRejected,
		enum.TicketStatusDone,
		enum.TicketStatusClosed:
		return true
	}
	return false
}

// TicketActive reports whether the ticket is still open. Done and Closed are terminal.
func TicketActive(status string) bool {
	return status != enum.TicketStatusDone && status != enum.TicketStatusClosed
}

// TicketAcceptsResponses reports whether responses may be appended.
// Only a ticket that is actively being handled takes responses.
func TicketAcceptsResponses(status string) bool {
	return status == enum.TicketStatusInProgress || status == enum.TicketStatusTransferRejected
}

// CanTransitionTicket reports whether a ticket may move from one status to another.
func CanTransitionTicket(from, to string) bool {
	for _, s := range ticketTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// ValidateTicketTransition returns a descriptive error when the transition is illegal.
func ValidateTicketTransition(from, to string) error {
	if _, ok := ticketTransitions[from]; !ok {
		return fmt.Errorf("cannot transition from %s", from)
	}
	if !CanTransitionTicket(from, to) {
		return fmt.Errorf("cannot transition from %s to %s", from, to)
	}
	return nil
}
