package order

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/Zhima-Mochi/minishop-fulfillment/app/internal/application"
	domaudit "github.com/Zhima-Mochi/minishop-fulfillment/app/internal/domain/audit"
	"github.com/Zhima-Mochi/minishop-fulfillment/app/internal/domain/errs"
	domorder "github.com/Zhima-Mochi/minishop-fulfillment/app/internal/domain/order"
	domoutbox "github.com/Zhima-Mochi/minishop-fulfillment/app/internal/domain/outbox"
	"github.com/Zhima-Mochi/minishop-fulfillment/app/internal/domain/payment"
	"github.com/Zhima-Mochi/minishop-fulfillment/app/internal/observability"

	"go.opentelemetry.io/otel/attribute"
)

const (
	useCaseSettle = "order.apply_payment_outcome"

	// ReasonPaymentDeclined is recorded on orders cancelled by a failed settlement.
	ReasonPaymentDeclined = "payment_declined"
)

type SettleInput struct {
	OrderID string
	Outcome payment.Outcome
}

type SettleResult struct {
	OrderID string
	Status  domorder.Status
	Outcome payment.Outcome
}

type ApplyPaymentOutcomeUseCase struct {
	store   application.Store
	ledger  Ledger
	effects effects
	inst    application.Instruments
}

var _ application.UseCase[SettleInput, *SettleResult] = (*ApplyPaymentOutcomeUseCase)(nil)

func NewApplyPaymentOutcomeUseCase(d Deps) *ApplyPaymentOutcomeUseCase {
	return &ApplyPaymentOutcomeUseCase{
		store:   d.Store,
		ledger:  d.Ledger,
		effects: newEffects(d),
		inst:    application.NewInstruments(d.Tel, orderService),
	}
}

// Execute settles a Pending order. Success completes it; failure cancels it
// and returns every reserved unit to stock in the same transaction.
func (uc *ApplyPaymentOutcomeUseCase) Execute(ctx context.Context, in SettleInput) (_ *SettleResult, err error) {
	ctx, sc := application.Begin(ctx, uc.inst, useCaseSettle, "ApplyPaymentOutcome",
		attribute.String("order.id", in.OrderID),
		attribute.String("payment.outcome", string(in.Outcome)),
	)
	defer func() { sc.End(err) }()

	if strings.TrimSpace(in.OrderID) == "" {
		sc.Reject("ORDER_ID_REQUIRED")
		return nil, errs.Invalid("order id is required")
	}
	if !in.Outcome.Valid() {
		sc.Reject("INVALID_OUTCOME")
		return nil, errs.Invalid("payment outcome must be Success or Failure")
	}

	var (
		o    *domorder.Order
		from domorder.Status
	)
	err = uc.store.Atomic(ctx, func(ctx context.Context, repos application.Repositories) error {
		var err error
		o, err = repos.Orders().Get(ctx, in.OrderID)
		if err != nil {
			return err
		}
		from = o.Status
		if !o.CanSettle() {
			return fmt.Errorf("%w: order %s is %s", domorder.ErrInvalidStateTransition, o.ID, o.Status)
		}

		if o.Status == domorder.StatusPending {
			if err := o.StartProcessing(); err != nil {
				return err
			}
		}
		if in.Outcome == payment.OutcomeSuccess {
			if err := o.PaymentSucceeded(); err != nil {
				return err
			}
			return repos.Orders().Update(ctx, o)
		}

		if err := o.PaymentFailed(ReasonPaymentDeclined); err != nil {
			return err
		}
		if err := releaseAll(ctx, uc.ledger, repos, o); err != nil {
			return err
		}
		return repos.Orders().Update(ctx, o)
	})
	if err != nil {
		switch {
		case errors.Is(err, errs.ErrNotFound):
			sc.Reject("ORDER_NOT_FOUND")
		case errors.Is(err, errs.ErrInvalidTransition):
			sc.Reject("NOT_SETTLEABLE")
		default:
			sc.Fail("SETTLE_TX_FAILED")
		}
		return nil, errs.Storage(err)
	}

	action := domaudit.ActionPaymentSucceeded
	var event domoutbox.Event = domorder.NewOrderPaymentSucceededEvent(o)
	if in.Outcome == payment.OutcomeFailure {
		action = domaudit.ActionPaymentFailed
		event = domorder.NewOrderPaymentFailedEvent(o)
	}
	sc.Add(
		observability.F("order_id", o.ID),
		observability.F("order_status", string(o.Status)),
	)
	uc.effects.committed(ctx, sc, o, from, action, event)

	return &SettleResult{OrderID: o.ID, Status: o.Status, Outcome: in.Outcome}, nil
}

// releaseAll returns every unit held by o, in the same product id order
// checkout reserves in. The order keeps its items as history.
func releaseAll(ctx context.Context, ledger Ledger, repos application.Repositories, o *domorder.Order) error {
	items := slices.SortedFunc(slices.Values(o.Items), func(a, b domorder.Item) int {
		return strings.Compare(a.ProductID, b.ProductID)
	})
	for _, it := range items {
		if _, err := ledger.Release(ctx, repos.Products(), it.ProductID, it.Quantity); err != nil {
			return err
		}
	}
	return nil
}
