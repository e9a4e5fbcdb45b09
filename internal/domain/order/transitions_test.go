package order

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransitionOrder(t *testing.T) {
	tests := []struct {
		from    OrderStatus
		to      OrderStatus
		allowed bool
	}{
		{OrderStatusPending, OrderStatusConfirmed, true},
		{OrderStatusPending, OrderStatusProcessing, true},
		{OrderStatusPending, OrderStatusCancelled, true},
		{OrderStatusPending, OrderStatusDelivered, false},
		{OrderStatusConfirmed, OrderStatusShipped, true},
		{OrderStatusProcessing, OrderStatusShipped, true},
		{OrderStatusProcessing, OrderStatusConfirmed, false},
		{OrderStatusShipped, OrderStatusDelivered, true},
		{OrderStatusShipped, OrderStatusCancelled, false},
		{OrderStatusDelivered, OrderStatusRefunded, true},
		{OrderStatusDelivered, OrderStatusShipped, false},
		{OrderStatusCancelled, OrderStatusPending, false},
		{OrderStatusRefunded, OrderStatusPending, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.allowed, CanTransitionOrder(tt.from, tt.to),
			"%s -> %s", tt.from, tt.to)
	}
}

func TestCanTransitionPayment(t *testing.T) {
	tests := []struct {
		from    PaymentStatus
		to      PaymentStatus
		allowed bool
	}{
		{PaymentStatusPending, PaymentStatusPaid, true},
		{PaymentStatusPending, PaymentStatusFailed, true},
		{PaymentStatusPending, PaymentStatusRefunded, false},
		{PaymentStatusPaid, PaymentStatusRefunded, true},
		{PaymentStatusPaid, PaymentStatusPartiallyRefunded, true},
		{PaymentStatusPaid, PaymentStatusPending, false},
		{PaymentStatusFailed, PaymentStatusPending, true},
		{PaymentStatusFailed, PaymentStatusPaid, true},
		{PaymentStatusPartiallyRefunded, PaymentStatusRefunded, true},
		{PaymentStatusRefunded, PaymentStatusPaid, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.allowed, CanTransitionPayment(tt.from, tt.to),
			"%s -> %s", tt.from, tt.to)
	}
}

func TestValidateJointState(t *testing.T) {
	// A refunded order needs a refund-class payment status
	assert.Error(t, ValidateJointState(OrderStatusRefunded, PaymentStatusPaid))
	assert.NoError(t, ValidateJointState(OrderStatusRefunded, PaymentStatusRefunded))
	assert.NoError(t, ValidateJointState(OrderStatusRefunded, PaymentStatusPartiallyRefunded))

	// Refund-class payment statuses need a delivered, cancelled or refunded order
	assert.Error(t, ValidateJointState(OrderStatusProcessing, PaymentStatusRefunded))
	assert.NoError(t, ValidateJointState(OrderStatusDelivered, PaymentStatusRefunded))
	assert.NoError(t, ValidateJointState(OrderStatusCancelled, PaymentStatusRefunded))

	// Ordinary combinations pass
	assert.NoError(t, ValidateJointState(OrderStatusPending, PaymentStatusPending))
	assert.NoError(t, ValidateJointState(OrderStatusShipped, PaymentStatusPaid))
}

func TestValidateTransition(t *testing.T) {
	current := &Order{
		OrderStatus:   OrderStatusConfirmed,
		PaymentStatus: PaymentStatusPaid,
	}

	// Unchanged fields are left alone
	assert.NoError(t, ValidateTransition(current, OrderStatusConfirmed, PaymentStatusPaid))

	// Valid single-field moves
	assert.NoError(t, ValidateTransition(current, OrderStatusShipped, PaymentStatusPaid))

	// Invalid order move
	err := ValidateTransition(current, OrderStatusDelivered, PaymentStatusPaid)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	// Invalid payment move
	err = ValidateTransition(current, OrderStatusConfirmed, PaymentStatusPending)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	// Individually valid moves rejected by the joint guard
	delivered := &Order{
		OrderStatus:   OrderStatusDelivered,
		PaymentStatus: PaymentStatusPaid,
	}
	err = ValidateTransition(delivered, OrderStatusRefunded, PaymentStatusPaid)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	assert.NoError(t, ValidateTransition(delivered, OrderStatusRefunded, PaymentStatusRefunded))
}
