// internal/domain/order/transitions.go
package order

import (
	"errors"
	"fmt"
)

// ErrInvalidTransition is returned when a status change is not permitted by
// the transition tables or the joint-state guards
var ErrInvalidTransition = errors.New("invalid status transition")

// orderStatusTransitions lists the allowed successors per order status.
// Terminal states (cancelled, refunded) have no successors.
var orderStatusTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending: {
		OrderStatusConfirmed,
		OrderStatusProcessing,
		OrderStatusCancelled,
	},
	OrderStatusConfirmed: {
		OrderStatusProcessing,
		OrderStatusShipped,
		OrderStatusCancelled,
	},
	OrderStatusProcessing: {
		OrderStatusShipped,
		OrderStatusCancelled,
	},
	OrderStatusShipped: {
		OrderStatusDelivered,
	},
	OrderStatusDelivered: {
		OrderStatusRefunded,
	},
}

// paymentStatusTransitions lists the allowed successors per payment status
var paymentStatusTransitions = map[PaymentStatus][]PaymentStatus{
	PaymentStatusPending: {
		PaymentStatusPaid,
		PaymentStatusFailed,
	},
	PaymentStatusPaid: {
		PaymentStatusRefunded,
		PaymentStatusPartiallyRefunded,
	},
	PaymentStatusFailed: {
		PaymentStatusPending,
		PaymentStatusPaid,
	},
	PaymentStatusPartiallyRefunded: {
		PaymentStatusRefunded,
	},
}

// CanTransitionOrder reports whether the order status may move from one
// status to another
func CanTransitionOrder(from, to OrderStatus) bool {
	for _, allowed := range orderStatusTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// CanTransitionPayment reports whether the payment status may move from one
// status to another
func CanTransitionPayment(from, to PaymentStatus) bool {
	for _, allowed := range paymentStatusTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// ValidateJointState rejects order/payment combinations that make no sense
// together: a refunded order requires a refund-class payment status, and a
// refund-class payment status requires the order to be delivered, cancelled
// or refunded.
func ValidateJointState(orderStatus OrderStatus, paymentStatus PaymentStatus) error {
	if orderStatus == OrderStatusRefunded &&
		paymentStatus != PaymentStatusRefunded && paymentStatus != PaymentStatusPartiallyRefunded {
		return fmt.Errorf("%w: order cannot be refunded while payment status is %q",
			ErrInvalidTransition, paymentStatus)
	}

	if paymentStatus == PaymentStatusRefunded || paymentStatus == PaymentStatusPartiallyRefunded {
		switch orderStatus {
		case OrderStatusDelivered, OrderStatusCancelled, OrderStatusRefunded:
		default:
			return fmt.Errorf("%w: payment status %q requires a delivered, cancelled or refunded order, got %q",
				ErrInvalidTransition, paymentStatus, orderStatus)
		}
	}

	return nil
}

// ValidateTransition checks a proposed status update against the transition
// tables and the joint-state guards. Either target may equal the current
// value, meaning that field is left untouched.
func ValidateTransition(current *Order, toOrder OrderStatus, toPayment PaymentStatus) error {
	if toOrder != current.OrderStatus && !CanTransitionOrder(current.OrderStatus, toOrder) {
		return fmt.Errorf("%w: order status %q cannot follow %q",
			ErrInvalidTransition, toOrder, current.OrderStatus)
	}

	if toPayment != current.PaymentStatus && !CanTransitionPayment(current.PaymentStatus, toPayment) {
		return fmt.Errorf("%w: payment status %q cannot follow %q",
			ErrInvalidTransition, toPayment, current.PaymentStatus)
	}

	return ValidateJointState(toOrder, toPayment)
}
