package workflow

import (
	"testing"

	"github.com/hmes-platform/api/internal/enum"
	"github.com/stretchr/testify/assert"
)

func TestOrderTransitions(t *testing.T) {
	cases := []struct {
		from, to string
		allowed  bool
	}{
		{enum.OrderStatusPending, enum.OrderStatusProcessing, true},
		{enum.OrderStatusPending, enum.OrderStatusCancelled, true},
		{enum.OrderStatusPending, enum.OrderStatusShipped, false},
		{enum.OrderStatusPending, enum.OrderStatusDelivered, false},
		{enum.OrderStatusProcessing, enum.OrderStatusShipped, true},
		{enum.OrderStatusProcessing, enum.OrderStatusCancelled, false},
		{enum.OrderStatusProcessing, enum.OrderStatusPending, false},
		{enum.OrderStatusShipped, enum.OrderStatusDelivered, true},
		{enum.OrderStatusShipped, enum.OrderStatusCancelled, false},
		{enum.OrderStatusDelivered, enum.OrderStatusShipped, false},
		{enum.OrderStatusCancelled, enum.OrderStatusPending, false},
	}
	for _, c := range cases {
		assert.Equal(t, c.allowed, CanTransitionOrder(c.from, c.to), "%s -> %s", c.from, c.to)
		err := ValidateOrderTransition(c.from, c.to)
		if c.allowed {
			assert.NoError(t, err, "%s -> %s", c.from, c.to)
		} else {
			assert.Error(t, err, "%s -> %s", c.from, c.to)
		}
	}
}

func TestOrderMutable(t *testing.T) {
	assert.True(t, OrderMutable(enum.OrderStatusPending))
	assert.True(t, OrderMutable(enum.OrderStatusProcessing))
	assert.False(t, OrderMutable(enum.OrderStatusShipped))
	assert.False(t, OrderMutable(enum.OrderStatusDelivered))
	assert.True(t, OrderMutable(enum.OrderStatusCancelled))
}

func TestTicketTransitions(t *testing.T) {
	cases := []struct {
		from, to string
		allowed  bool
	}{
		{enum.TicketStatusPending, enum.TicketStatusInProgress, true},
		{enum.TicketStatusPending, enum.TicketStatusIsTransferring, false},
		{enum.TicketStatusInProgress, enum.TicketStatusIsTransferring, true},
		{enum.TicketStatusInProgress, enum.TicketStatusDone, true},
		{enum.TicketStatusIsTransferring, enum.TicketStatusInProgress, true},
		{enum.TicketStatusIsTransferring, enum.TicketStatusTransferRejected, true},
		{enum.TicketStatusTransferRejected, enum.TicketStatusIsTransferring, false},
		{enum.TicketStatusTransferRejected, enum.TicketStatusClosed, true},
		{enum.TicketStatusDone, enum.TicketStatusClosed, false},
		{enum.TicketStatusClosed, enum.TicketStatusInProgress, false},
	}
	for _, c := range cases {
		assert.Equal(t, c.allowed, CanTransitionTicket(c.from, c.to), "%s -> %s", c.from, c.to)
	}
}

// Every active state must be closeable with either terminal status.
func TestTicketCloseFromAnyActiveState(t *testing.T) {
	active := []string{
		enum.TicketStatusPending,
		enum.TicketStatusInProgress,
		enum.TicketStatusIsTransferring,
		enum.TicketStatusTransferRejected,
	}
	for _, from := range active {
		assert.True(t, CanTransitionTicket(from, enum.TicketStatusDone), "%s -> Done", from)
		assert.True(t, CanTransitionTicket(from, enum.TicketStatusClosed), "%s -> Closed", from)
	}
}

func TestTicketAcceptsResponses(t *testing.T) {
	assert.True(t, TicketAcceptsResponses(enum.TicketStatusInProgress))
	assert.True(t, TicketAcceptsResponses(enum.TicketStatusTransferRejected))
	assert.False(t, TicketAcceptsResponses(enum.TicketStatusPending))
	assert.False(t, TicketAcceptsResponses(enum.TicketStatusIsTransferring))
	assert.False(t, TicketAcceptsResponses(enum.TicketStatusDone))
	assert.False(t, TicketAcceptsResponses(enum.TicketStatusClosed))
}

func TestIncomeTransitions(t *testing.T) {
	cases := []struct {
		from, to string
		allowed  bool
	}{
		{enum.PaymentStatusPending, enum.PaymentStatusProcessing, true},
		{enum.PaymentStatusPending, enum.PaymentStatusCompleted, false},
		{enum.PaymentStatusProcessing, enum.PaymentStatusProcessed, true},
		{enum.PaymentStatusProcessed, enum.PaymentStatusCompleted, true},
		{enum.PaymentStatusCompleted, enum.PaymentStatusPending, true},
		{enum.PaymentStatusCompleted, enum.PaymentStatusCancelled, false},
		{enum.PaymentStatusCancelled, enum.PaymentStatusPending, true},
		{enum.PaymentStatusCancelled, enum.PaymentStatusCompleted, false},
	}
	for _, c := range cases {
		assert.Equal(t, c.allowed, CanTransitionIncome(c.from, c.to), "%s -> %s", c.from, c.to)
	}
}

func TestIncomePaymentDateRules(t *testing.T) {
	assert.True(t, SetsPaymentDate(enum.PaymentStatusCompleted))
	assert.False(t, SetsPaymentDate(enum.PaymentStatusProcessed))
	assert.True(t, ClearsPaymentDate(enum.PaymentStatusPending))
	assert.True(t, ClearsPaymentDate(enum.PaymentStatusCancelled))
	assert.False(t, ClearsPaymentDate(enum.PaymentStatusCompleted))
}

func TestIncomeDeletable(t *testing.T) {
	assert.True(t, IncomeDeletable(enum.PaymentStatusPending))
	assert.False(t, IncomeDeletable(enum.PaymentStatusProcessing))
	assert.False(t, IncomeDeletable(enum.PaymentStatusCompleted))
}
