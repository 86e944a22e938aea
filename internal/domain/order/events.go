package order

import "time"

// LifecycleEvent is the payload shared by every order lifecycle event. Events
// are published after the owning transaction commits and are consumed by other
// bounded contexts (e.g., the Kafka forwarder).
type LifecycleEvent struct {
	OrderID     string    `json:"order_id"`
	CustomerID  string    `json:"customer_id"`
	Status      Status    `json:"status"`
	TotalAmount string    `json:"total_amount"`
	ItemCount   int       `json:"item_count"`
	Reason      string    `json:"reason,omitempty"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// Lifecycle exposes the shared payload of any embedding event.
func (e LifecycleEvent) Lifecycle() LifecycleEvent { return e }

func newLifecycleEvent(o *Order, reason string) LifecycleEvent {
	return LifecycleEvent{
		OrderID:     o.ID,
		CustomerID:  o.CustomerID,
		Status:      o.Status,
		TotalAmount: o.TotalAmount.StringFixed(2),
		ItemCount:   o.Quantity(),
		Reason:      reason,
		OccurredAt:  time.Now().UTC(),
	}
}

// OrderCreatedEvent is emitted once stock is reserved and the order is stored.
type OrderCreatedEvent struct{ LifecycleEvent }

func (OrderCreatedEvent) EventName() string { return "order.created" }

func NewOrderCreatedEvent(o *Order) OrderCreatedEvent {
	return OrderCreatedEvent{newLifecycleEvent(o, "")}
}

// OrderPaymentSucceededEvent is emitted when a settlement completes the order.
type OrderPaymentSucceededEvent struct{ LifecycleEvent }

func (OrderPaymentSucceededEvent) EventName() string { return "order.payment_succeeded" }

func NewOrderPaymentSucceededEvent(o *Order) OrderPaymentSucceededEvent {
	return OrderPaymentSucceededEvent{newLifecycleEvent(o, "")}
}

// OrderPaymentFailedEvent is emitted when a declined settlement cancels the order.
type OrderPaymentFailedEvent struct{ LifecycleEvent }

func (OrderPaymentFailedEvent) EventName() string { return "order.payment_failed" }

func NewOrderPaymentFailedEvent(o *Order) OrderPaymentFailedEvent {
	return OrderPaymentFailedEvent{newLifecycleEvent(o, o.FailureReason)}
}

// OrderCancelledEvent is emitted on explicit cancellation.
type OrderCancelledEvent struct{ LifecycleEvent }

func (OrderCancelledEvent) EventName() string { return "order.cancelled" }

func NewOrderCancelledEvent(o *Order) OrderCancelledEvent {
	return OrderCancelledEvent{newLifecycleEvent(o, o.FailureReason)}
}

// OrderShippedEvent is emitted when a completed order leaves the warehouse.
type OrderShippedEvent struct{ LifecycleEvent }

func (OrderShippedEvent) EventName() string { return "order.shipped" }

func NewOrderShippedEvent(o *Order) OrderShippedEvent {
	return OrderShippedEvent{newLifecycleEvent(o, "")}
}

// EventNames lists every lifecycle event, in lifecycle order.
func EventNames() []string {
	return []string{
		OrderCreatedEvent{}.EventName(),
		OrderPaymentSucceededEvent{}.EventName(),
		OrderPaymentFailedEvent{}.EventName(),
		OrderCancelledEvent{}.EventName(),
		OrderShippedEvent{}.EventName(),
	}
}
