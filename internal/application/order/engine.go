package order

import (
	"context"
	"errors"
	"strings"

	"github.com/Zhima-Mochi/minishop-fulfillment/app/internal/application"
	"github.com/Zhima-Mochi/minishop-fulfillment/app/internal/domain/errs"
	domorder "github.com/Zhima-Mochi/minishop-fulfillment/app/internal/domain/order"
	"github.com/Zhima-Mochi/minishop-fulfillment/app/internal/domain/payment"
	"github.com/Zhima-Mochi/minishop-fulfillment/app/internal/observability"

	"go.opentelemetry.io/otel/attribute"
)

const (
	useCaseGet  = "order.get"
	useCaseList = "order.list_by_customer"
)

// Engine is the order lifecycle entry point used by transports.
type Engine struct {
	checkout *CheckoutUseCase
	settle   *ApplyPaymentOutcomeUseCase
	cancel   *CancelOrderUseCase
	ship     *ShipOrderUseCase

	store application.Store
	inst  application.Instruments
}

func NewEngine(d Deps) *Engine {
	return &Engine{
		checkout: NewCheckoutUseCase(d),
		settle:   NewApplyPaymentOutcomeUseCase(d),
		cancel:   NewCancelOrderUseCase(d),
		ship:     NewShipOrderUseCase(d),
		store:    d.Store,
		inst:     application.NewInstruments(d.Tel, orderService),
	}
}

func (e *Engine) Checkout(ctx context.Context, in CheckoutInput) (*CheckoutResult, error) {
	return e.checkout.Execute(ctx, in)
}

func (e *Engine) ApplyPaymentOutcome(ctx context.Context, orderID string, outcome payment.Outcome) (*SettleResult, error) {
	return e.settle.Execute(ctx, SettleInput{OrderID: orderID, Outcome: outcome})
}

func (e *Engine) Cancel(ctx context.Context, orderID string) (*TransitionResult, error) {
	return e.cancel.Execute(ctx, orderID)
}

func (e *Engine) Ship(ctx context.Context, orderID string) (*TransitionResult, error) {
	return e.ship.Execute(ctx, orderID)
}

func (e *Engine) Get(ctx context.Context, orderID string) (_ *domorder.Order, err error) {
	ctx, sc := application.Begin(ctx, e.inst, useCaseGet, "GetOrder",
		attribute.String("order.id", orderID),
	)
	defer func() { sc.End(err) }()

	if strings.TrimSpace(orderID) == "" {
		sc.Reject("ORDER_ID_REQUIRED")
		return nil, errs.Invalid("order id is required")
	}

	var o *domorder.Order
	err = e.store.Atomic(ctx, func(ctx context.Context, repos application.Repositories) error {
		var err error
		o, err = repos.Orders().Get(ctx, orderID)
		return err
	})
	if errors.Is(err, errs.ErrNotFound) {
		sc.Reject("ORDER_NOT_FOUND")
		return nil, err
	}
	if err != nil {
		sc.Fail("GET_TX_FAILED")
		return nil, errs.Storage(err)
	}
	return o, nil
}

// ListByCustomer returns the customer's orders, newest first.
func (e *Engine) ListByCustomer(ctx context.Context, customerID string) (_ []*domorder.Order, err error) {
	ctx, sc := application.Begin(ctx, e.inst, useCaseList, "ListOrders",
		attribute.String("order.customer_id", customerID),
	)
	defer func() { sc.End(err) }()

	if strings.TrimSpace(customerID) == "" {
		sc.Reject("CUSTOMER_ID_REQUIRED")
		return nil, errs.Invalid("customer id is required")
	}

	var orders []*domorder.Order
	err = e.store.Atomic(ctx, func(ctx context.Context, repos application.Repositories) error {
		var err error
		orders, err = repos.Orders().ListByCustomer(ctx, customerID)
		return err
	})
	if err != nil {
		sc.Fail("LIST_TX_FAILED")
		return nil, errs.Storage(err)
	}
	sc.Add(observability.F("count", len(orders)))
	return orders, nil
}
