package order

import (
	"fmt"

	"github.com/Zhima-Mochi/minishop-fulfillment/app/internal/domain/errs"
)

// OrderState implements the state pattern for order lifecycle transitions.
type OrderState interface {
	Status() Status
	OnProcessing(o *Order) (OrderState, error)
	OnPaymentSucceeded(o *Order) (OrderState, error)
	OnPaymentFailed(o *Order, reason string) (OrderState, error)
	OnCancel(o *Order) (OrderState, error)
	OnShipped(o *Order) (OrderState, error)
}

func stateFor(s Status) OrderState {
	switch s {
	case StatusProcessing:
		return processingState{}
	case StatusCompleted:
		return completedState{}
	case StatusCancelled:
		return cancelledState{}
	case StatusShipped:
		return shippedState{}
	default:
		return pendingState{}
	}
}

func invalid(from Status, action string) error {
	return fmt.Errorf("%w: cannot %s a %s order", ErrInvalidStateTransition, action, from)
}

func cannotCancel(o *Order, reason string) error {
	return &errs.CannotCancelError{OrderID: o.ID, Status: string(o.Status), Reason: reason}
}

type pendingState struct{}

func (pendingState) Status() Status { return StatusPending }

func (pendingState) OnProcessing(*Order) (OrderState, error) {
	return processingState{}, nil
}

func (pendingState) OnPaymentSucceeded(o *Order) (OrderState, error) {
	o.FailureReason = ""
	return completedState{}, nil
}

func (pendingState) OnPaymentFailed(o *Order, reason string) (OrderState, error) {
	o.FailureReason = reason
	return cancelledState{}, nil
}

func (pendingState) OnCancel(o *Order) (OrderState, error) {
	o.FailureReason = "cancelled_by_customer"
	return cancelledState{}, nil
}

func (pendingState) OnShipped(*Order) (OrderState, error) {
	return nil, invalid(StatusPending, "ship")
}

type processingState struct{}

func (processingState) Status() Status { return StatusProcessing }

func (processingState) OnProcessing(*Order) (OrderState, error) {
	return processingState{}, nil
}

func (processingState) OnPaymentSucceeded(o *Order) (OrderState, error) {
	o.FailureReason = ""
	return completedState{}, nil
}

func (processingState) OnPaymentFailed(o *Order, reason string) (OrderState, error) {
	o.FailureReason = reason
	return cancelledState{}, nil
}

func (processingState) OnCancel(o *Order) (OrderState, error) {
	o.FailureReason = "cancelled_by_customer"
	return cancelledState{}, nil
}

func (processingState) OnShipped(*Order) (OrderState, error) {
	return nil, invalid(StatusProcessing, "ship")
}

type completedState struct{}

func (completedState) Status() Status { return StatusCompleted }

func (completedState) OnProcessing(*Order) (OrderState, error) {
	return nil, invalid(StatusCompleted, "process")
}

func (completedState) OnPaymentSucceeded(*Order) (OrderState, error) {
	return nil, invalid(StatusCompleted, "settle")
}

func (completedState) OnPaymentFailed(*Order, string) (OrderState, error) {
	return nil, invalid(StatusCompleted, "settle")
}

func (completedState) OnCancel(o *Order) (OrderState, error) {
	return nil, cannotCancel(o, "order already completed")
}

func (completedState) OnShipped(*Order) (OrderState, error) {
	return shippedState{}, nil
}

type cancelledState struct{}

func (cancelledState) Status() Status { return StatusCancelled }

func (cancelledState) OnProcessing(*Order) (OrderState, error) {
	return nil, invalid(StatusCancelled, "process")
}

func (cancelledState) OnPaymentSucceeded(*Order) (OrderState, error) {
	return nil, invalid(StatusCancelled, "settle")
}

func (cancelledState) OnPaymentFailed(*Order, string) (OrderState, error) {
	return nil, invalid(StatusCancelled, "settle")
}

func (cancelledState) OnCancel(o *Order) (OrderState, error) {
	return nil, cannotCancel(o, "order already cancelled")
}

func (cancelledState) OnShipped(*Order) (OrderState, error) {
	return nil, invalid(StatusCancelled, "ship")
}

type shippedState struct{}

func (shippedState) Status() Status { return StatusShipped }

func (shippedState) OnProcessing(*Order) (OrderState, error) {
	return nil, invalid(StatusShipped, "process")
}

func (shippedState) OnPaymentSucceeded(*Order) (OrderState, error) {
	return nil, invalid(StatusShipped, "settle")
}

func (shippedState) OnPaymentFailed(*Order, string) (OrderState, error) {
	return nil, invalid(StatusShipped, "settle")
}

func (shippedState) OnCancel(o *Order) (OrderState, error) {
	return nil, cannotCancel(o, "order already shipped")
}

func (shippedState) OnShipped(*Order) (OrderState, error) {
	return nil, invalid(StatusShipped, "ship")
}
