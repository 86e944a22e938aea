package order

import (
	"context"
	"errors"
	"strings"

	"github.com/Zhima-Mochi/minishop-fulfillment/app/internal/application"
	domaudit "github.com/Zhima-Mochi/minishop-fulfillment/app/internal/domain/audit"
	"github.com/Zhima-Mochi/minishop-fulfillment/app/internal/domain/errs"
	domorder "github.com/Zhima-Mochi/minishop-fulfillment/app/internal/domain/order"
	"github.com/Zhima-Mochi/minishop-fulfillment/app/internal/observability"

	"go.opentelemetry.io/otel/attribute"
)

const (
	useCaseCancel = "order.cancel"
	useCaseShip   = "order.ship"
)

type TransitionResult struct {
	OrderID string
	Status  domorder.Status
	Message string
}

type CancelOrderUseCase struct {
	store   application.Store
	ledger  Ledger
	effects effects
	inst    application.Instruments
}

var _ application.UseCase[string, *TransitionResult] = (*CancelOrderUseCase)(nil)

func NewCancelOrderUseCase(d Deps) *CancelOrderUseCase {
	return &CancelOrderUseCase{
		store:   d.Store,
		ledger:  d.Ledger,
		effects: newEffects(d),
		inst:    application.NewInstruments(d.Tel, orderService),
	}
}

// Execute cancels a Pending order and restores its stock. Completed, Shipped
// and already Cancelled orders are refused with *errs.CannotCancelError.
func (uc *CancelOrderUseCase) Execute(ctx context.Context, orderID string) (_ *TransitionResult, err error) {
	ctx, sc := application.Begin(ctx, uc.inst, useCaseCancel, "CancelOrder",
		attribute.String("order.id", orderID),
	)
	defer func() { sc.End(err) }()

	if strings.TrimSpace(orderID) == "" {
		sc.Reject("ORDER_ID_REQUIRED")
		return nil, errs.Invalid("order id is required")
	}

	var (
		o    *domorder.Order
		from domorder.Status
	)
	err = uc.store.Atomic(ctx, func(ctx context.Context, repos application.Repositories) error {
		var err error
		o, err = repos.Orders().Get(ctx, orderID)
		if err != nil {
			return err
		}
		from = o.Status
		if err := o.Cancel(); err != nil {
			return err
		}
		if err := releaseAll(ctx, uc.ledger, repos, o); err != nil {
			return err
		}
		return repos.Orders().Update(ctx, o)
	})
	if err != nil {
		var cc *errs.CannotCancelError
		switch {
		case errors.As(err, &cc):
			sc.Reject("CANNOT_CANCEL")
			sc.Add(observability.F("order_status", cc.Status))
		case errors.Is(err, errs.ErrNotFound):
			sc.Reject("ORDER_NOT_FOUND")
		default:
			sc.Fail("CANCEL_TX_FAILED")
		}
		return nil, errs.Storage(err)
	}

	sc.Add(observability.F("order_id", o.ID))
	uc.effects.committed(ctx, sc, o, from, domaudit.ActionOrderCancelled, domorder.NewOrderCancelledEvent(o))

	return &TransitionResult{OrderID: o.ID, Status: o.Status, Message: "order cancelled; stock restored"}, nil
}

type ShipOrderUseCase struct {
	store   application.Store
	effects effects
	inst    application.Instruments
}

var _ application.UseCase[string, *TransitionResult] = (*ShipOrderUseCase)(nil)

func NewShipOrderUseCase(d Deps) *ShipOrderUseCase {
	return &ShipOrderUseCase{
		store:   d.Store,
		effects: newEffects(d),
		inst:    application.NewInstruments(d.Tel, orderService),
	}
}

// Execute hands a Completed order to shipping. Shipped orders can no longer be
// cancelled.
func (uc *ShipOrderUseCase) Execute(ctx context.Context, orderID string) (_ *TransitionResult, err error) {
	ctx, sc := application.Begin(ctx, uc.inst, useCaseShip, "ShipOrder",
		attribute.String("order.id", orderID),
	)
	defer func() { sc.End(err) }()

	if strings.TrimSpace(orderID) == "" {
		sc.Reject("ORDER_ID_REQUIRED")
		return nil, errs.Invalid("order id is required")
	}

	var o *domorder.Order
	err = uc.store.Atomic(ctx, func(ctx context.Context, repos application.Repositories) error {
		var err error
		o, err = repos.Orders().Get(ctx, orderID)
		if err != nil {
			return err
		}
		if err := o.Ship(); err != nil {
			return err
		}
		return repos.Orders().Update(ctx, o)
	})
	if err != nil {
		switch {
		case errors.Is(err, errs.ErrNotFound):
			sc.Reject("ORDER_NOT_FOUND")
		case errors.Is(err, errs.ErrInvalidTransition):
			sc.Reject("NOT_SHIPPABLE")
		default:
			sc.Fail("SHIP_TX_FAILED")
		}
		return nil, errs.Storage(err)
	}

	sc.Add(observability.F("order_id", o.ID))
	uc.effects.committed(ctx, sc, o, domorder.StatusCompleted, domaudit.ActionOrderShipped, domorder.NewOrderShippedEvent(o))

	return &TransitionResult{OrderID: o.ID, Status: o.Status, Message: "order shipped"}, nil
}
