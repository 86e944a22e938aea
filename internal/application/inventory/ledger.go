package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/Zhima-Mochi/minishop-fulfillment/app/internal/domain/errs"
	dominv "github.com/Zhima-Mochi/minishop-fulfillment/app/internal/domain/inventory"
	"github.com/Zhima-Mochi/minishop-fulfillment/app/internal/observability"
	"github.com/Zhima-Mochi/minishop-fulfillment/app/internal/observability/logctx"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	componentLedger  = "inventory_ledger"
	operationReserve = "reserve"
	operationRelease = "release"
)

// Ledger is the only component allowed to change product stock. It has no
// transaction of its own: callers pass the repository bound to theirs, so a
// reservation commits or rolls back together with the order that needs it.
type Ledger struct {
	log       observability.Logger
	tracer    observability.Tracer
	opCounter observability.Counter // inventory_operations_total{operation,outcome}
}

func NewLedger(tel observability.Observability) *Ledger {
	tel = observability.OrNop(tel)
	return &Ledger{
		log:       tel.Logger().With(observability.F("component", componentLedger)),
		tracer:    tel.Tracer(),
		opCounter: tel.Metrics().Counter(observability.MInventoryOperations),
	}
}

// Reserve decrements stock by quantity, or fails with an *errs.OutOfStockError
// naming the product and leaves stock untouched.
func (l *Ledger) Reserve(ctx context.Context, products dominv.Repository, productID string, quantity int) (*dominv.Product, error) {
	return l.run(ctx, operationReserve, productID, quantity, products.Reserve)
}

// Release adds quantity back to stock. It only fails when the product is gone.
func (l *Ledger) Release(ctx context.Context, products dominv.Repository, productID string, quantity int) (*dominv.Product, error) {
	return l.run(ctx, operationRelease, productID, quantity, products.Release)
}

func (l *Ledger) run(
	ctx context.Context,
	operation, productID string,
	quantity int,
	apply func(context.Context, string, int) (*dominv.Product, error),
) (*dominv.Product, error) {
	ctx, span := l.tracer.Start(ctx, "Ledger."+operation,
		attribute.String("product.id", productID),
		attribute.Int("inventory.quantity", quantity),
	)
	defer span.End()

	if productID == "" {
		return nil, l.done(ctx, operation, productID, quantity, nil, errs.Invalid("product id is required"))
	}
	if quantity <= 0 {
		return nil, l.done(ctx, operation, productID, quantity, nil, dominv.ErrInvalidQuantity)
	}

	product, err := apply(ctx, productID, quantity)
	if err != nil {
		err = errs.Storage(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, failureReasonFromError(err))
		return nil, l.done(ctx, operation, productID, quantity, nil, fmt.Errorf("inventory: %s: %w", operation, err))
	}

	span.SetAttributes(attribute.Int("inventory.stock_after", product.Stock))
	span.SetStatus(codes.Ok, "OK")
	return product, l.done(ctx, operation, productID, quantity, product, nil)
}

func (l *Ledger) done(ctx context.Context, operation, productID string, quantity int, product *dominv.Product, err error) error {
	outcome := "success"
	if err != nil {
		outcome = failureReasonFromError(err)
	}
	l.opCounter.Add(1,
		observability.L("operation", operation),
		observability.L("outcome", outcome),
	)

	logger := logctx.FromOr(ctx, l.log).With(
		observability.F("component", componentLedger),
		observability.F("operation", operation),
		observability.F("product_id", productID),
		observability.F("quantity", quantity),
	)
	switch {
	case err == nil:
		logger.Debug("stock_changed", observability.F("stock_after", product.Stock))
	case errors.Is(err, errs.ErrStorage):
		logger.Error("stock_change_failed", observability.F("outcome", outcome), observability.Err(err))
	default:
		logger.Info("stock_change_rejected", observability.F("outcome", outcome), observability.Err(err))
	}
	return err
}

func failureReasonFromError(err error) string {
	switch {
	case errors.Is(err, errs.ErrNotFound):
		return dominv.FailureReasonNotFound
	case errors.Is(err, errs.ErrInvalidInput):
		return dominv.FailureReasonInvalidQuantity
	case errors.Is(err, errs.ErrOutOfStock):
		return dominv.FailureReasonInsufficientStock
	default:
		return dominv.FailureReasonPersistenceError
	}
}
