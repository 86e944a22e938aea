package order

import (
	"context"
	"errors"
	"slices"
	"strings"

	"github.com/Zhima-Mochi/minishop-fulfillment/app/internal/application"
	domaudit "github.com/Zhima-Mochi/minishop-fulfillment/app/internal/domain/audit"
	domcart "github.com/Zhima-Mochi/minishop-fulfillment/app/internal/domain/cart"
	"github.com/Zhima-Mochi/minishop-fulfillment/app/internal/domain/errs"
	dominv "github.com/Zhima-Mochi/minishop-fulfillment/app/internal/domain/inventory"
	domorder "github.com/Zhima-Mochi/minishop-fulfillment/app/internal/domain/order"
	"github.com/Zhima-Mochi/minishop-fulfillment/app/internal/observability"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
)

const useCaseCheckout = "order.checkout"

type CheckoutInput struct {
	CustomerID      string
	ShippingAddress string
}

type CheckoutResult struct {
	OrderID     string
	Status      domorder.Status
	TotalAmount decimal.Decimal
}

type CheckoutUseCase struct {
	store       application.Store
	idGenerator application.IDGenerator
	ledger      Ledger
	effects     effects
	inst        application.Instruments
}

var _ application.UseCase[CheckoutInput, *CheckoutResult] = (*CheckoutUseCase)(nil)

func NewCheckoutUseCase(d Deps) *CheckoutUseCase {
	return &CheckoutUseCase{
		store:       d.Store,
		idGenerator: d.IDGenerator,
		ledger:      d.Ledger,
		effects:     newEffects(d),
		inst:        application.NewInstruments(d.Tel, orderService),
	}
}

// Execute converts the customer's active cart into a Pending order. Stock for
// every line is reserved, the order stored with its price snapshot and the cart
// converted in a single transaction; any failure leaves all three untouched.
func (uc *CheckoutUseCase) Execute(ctx context.Context, in CheckoutInput) (_ *CheckoutResult, err error) {
	ctx, sc := application.Begin(ctx, uc.inst, useCaseCheckout, "Checkout",
		attribute.String("order.customer_id", in.CustomerID),
	)
	defer func() { sc.End(err) }()

	if strings.TrimSpace(in.CustomerID) == "" {
		sc.Reject("CUSTOMER_ID_REQUIRED")
		return nil, errs.Invalid("customer id is required")
	}
	if strings.TrimSpace(in.ShippingAddress) == "" {
		sc.Reject("SHIPPING_ADDRESS_REQUIRED")
		return nil, domorder.ErrShippingAddress
	}

	var o *domorder.Order
	err = uc.store.Atomic(ctx, func(ctx context.Context, repos application.Repositories) error {
		c, err := repos.Carts().FindActive(ctx, in.CustomerID)
		if errors.Is(err, domcart.ErrNotFound) {
			return domcart.ErrEmpty
		}
		if err != nil {
			return err
		}
		if c.IsEmpty() {
			return domcart.ErrEmpty
		}

		// Reserve in product id order so concurrent checkouts lock product rows
		// in the same sequence; the order keeps the cart's line order.
		lines := slices.SortedFunc(slices.Values(c.Items), func(a, b domcart.Item) int {
			return strings.Compare(a.ProductID, b.ProductID)
		})
		reserved := make(map[string]*dominv.Product, len(lines))
		for _, line := range lines {
			p, err := uc.ledger.Reserve(ctx, repos.Products(), line.ProductID, line.Quantity)
			if err != nil {
				return err
			}
			reserved[line.ProductID] = p
		}

		items := make([]domorder.Item, 0, len(c.Items))
		for _, line := range c.Items {
			p := reserved[line.ProductID]
			items = append(items, domorder.Item{
				ProductID:   p.ID,
				ProductName: p.Name,
				Quantity:    line.Quantity,
				UnitPrice:   p.UnitPrice,
			})
		}

		o, err = domorder.New(uc.idGenerator.NewID(), in.CustomerID, in.ShippingAddress, items)
		if err != nil {
			return err
		}
		if err := repos.Orders().Insert(ctx, o); err != nil {
			return err
		}

		if err := c.Convert(o.ID); err != nil {
			return err
		}
		return repos.Carts().Save(ctx, c)
	})
	if err != nil {
		switch {
		case errors.Is(err, errs.ErrEmptyCart):
			sc.Reject("EMPTY_CART")
		case errors.Is(err, errs.ErrOutOfStock):
			sc.Reject("OUT_OF_STOCK")
		case errors.Is(err, errs.ErrNotFound):
			sc.Reject("PRODUCT_NOT_FOUND")
		case errors.Is(err, errs.ErrInvalidInput):
			sc.Reject("INVALID_INPUT")
		default:
			sc.Fail("CHECKOUT_TX_FAILED")
		}
		return nil, errs.Storage(err)
	}

	sc.Span().SetAttributes(attribute.String("order.id", o.ID))
	sc.Add(
		observability.F("order_id", o.ID),
		observability.F("total_amount", o.TotalAmount.StringFixed(2)),
		observability.F("item_count", o.Quantity()),
	)
	uc.effects.committed(ctx, sc, o, "", domaudit.ActionOrderCreated, domorder.NewOrderCreatedEvent(o))

	return &CheckoutResult{OrderID: o.ID, Status: o.Status, TotalAmount: o.TotalAmount}, nil
}
