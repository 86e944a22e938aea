package cart

import (
	"context"
	"errors"
	"strings"

	"github.com/Zhima-Mochi/minishop-fulfillment/app/internal/application"
	domcart "github.com/Zhima-Mochi/minishop-fulfillment/app/internal/domain/cart"
	"github.com/Zhima-Mochi/minishop-fulfillment/app/internal/domain/errs"
	dominv "github.com/Zhima-Mochi/minishop-fulfillment/app/internal/domain/inventory"
	"github.com/Zhima-Mochi/minishop-fulfillment/app/internal/observability"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
)

const (
	cartService        = "cart-service"
	useCaseCartGet     = "cart.get_or_create"
	useCaseCartAdd     = "cart.add_item"
	useCaseCartDec     = "cart.decrease_item"
	useCaseCartRemove  = "cart.remove_item"
	useCaseCartItems   = "cart.items"
	useCaseCartCount   = "cart.count"
	statusCustomerReq  = "CUSTOMER_ID_REQUIRED"
	statusProductReq   = "PRODUCT_ID_REQUIRED"
	statusCartTxFailed = "CART_TX_FAILED"
)

// Line is the display projection of a cart item, priced live.
type Line struct {
	ProductID string
	Name      string
	Price     decimal.Decimal
	Quantity  int
	LineTotal decimal.Decimal
}

// View is the cart as a caller sees it after a mutation.
type View struct {
	CartID     string
	CustomerID string
	Lines      []Line
	Total      decimal.Decimal
	Count      int
}

type AddItemInput struct {
	CustomerID string
	ProductID  string
	// Quantity defaults to one when zero or negative.
	Quantity int
}

type ItemInput struct {
	CustomerID string
	ProductID  string
}

type Service struct {
	store       application.Store
	idGenerator application.IDGenerator
	inst        application.Instruments
}

func NewService(store application.Store, idGen application.IDGenerator, tel observability.Observability) *Service {
	return &Service{
		store:       store,
		idGenerator: idGen,
		inst:        application.NewInstruments(tel, cartService),
	}
}

// GetOrCreateActive returns the customer's active cart, creating an empty one
// if none exists.
func (s *Service) GetOrCreateActive(ctx context.Context, customerID string) (_ *domcart.Cart, err error) {
	ctx, sc := application.Begin(ctx, s.inst, useCaseCartGet, "GetOrCreateCart",
		attribute.String("cart.customer_id", customerID),
	)
	defer func() { sc.End(err) }()

	if strings.TrimSpace(customerID) == "" {
		sc.Reject(statusCustomerReq)
		return nil, errs.Invalid("customer id is required")
	}

	var c *domcart.Cart
	err = s.store.Atomic(ctx, func(ctx context.Context, repos application.Repositories) error {
		var aerr error
		c, aerr = ActiveCart(ctx, repos.Carts(), s.idGenerator, customerID)
		return aerr
	})
	if err != nil {
		sc.Fail(statusCartTxFailed)
		return nil, errs.Storage(err)
	}
	sc.Add(observability.F("cart_id", c.ID))
	return c, nil
}

func (s *Service) AddItem(ctx context.Context, cmd AddItemInput) (_ *View, err error) {
	ctx, sc := application.Begin(ctx, s.inst, useCaseCartAdd, "AddCartItem",
		attribute.String("cart.customer_id", cmd.CustomerID),
		attribute.String("product.id", cmd.ProductID),
		attribute.Int("cart.quantity", cmd.Quantity),
	)
	defer func() { sc.End(err) }()

	if err := validate(sc, cmd.CustomerID, cmd.ProductID); err != nil {
		return nil, err
	}

	view, err := s.mutate(ctx, cmd.CustomerID, true, func(ctx context.Context, repos application.Repositories, c *domcart.Cart) error {
		if _, err := repos.Products().Get(ctx, cmd.ProductID); err != nil {
			return err
		}
		return c.Add(cmd.ProductID, cmd.Quantity)
	})
	return s.finish(sc, view, err)
}

// DecreaseItem removes one unit; a line reaching zero is deleted. Decreasing a
// product that is not in the cart is a no-op.
func (s *Service) DecreaseItem(ctx context.Context, cmd ItemInput) (_ *View, err error) {
	ctx, sc := application.Begin(ctx, s.inst, useCaseCartDec, "DecreaseCartItem",
		attribute.String("cart.customer_id", cmd.CustomerID),
		attribute.String("product.id", cmd.ProductID),
	)
	defer func() { sc.End(err) }()

	if err := validate(sc, cmd.CustomerID, cmd.ProductID); err != nil {
		return nil, err
	}

	view, err := s.mutate(ctx, cmd.CustomerID, false, func(_ context.Context, _ application.Repositories, c *domcart.Cart) error {
		return c.Decrease(cmd.ProductID)
	})
	return s.finish(sc, view, err)
}

func (s *Service) RemoveItem(ctx context.Context, cmd ItemInput) (_ *View, err error) {
	ctx, sc := application.Begin(ctx, s.inst, useCaseCartRemove, "RemoveCartItem",
		attribute.String("cart.customer_id", cmd.CustomerID),
		attribute.String("product.id", cmd.ProductID),
	)
	defer func() { sc.End(err) }()

	if err := validate(sc, cmd.CustomerID, cmd.ProductID); err != nil {
		return nil, err
	}

	view, err := s.mutate(ctx, cmd.CustomerID, false, func(_ context.Context, _ application.Repositories, c *domcart.Cart) error {
		return c.Remove(cmd.ProductID)
	})
	return s.finish(sc, view, err)
}

// Items lists the active cart's lines at current prices. A customer without an
// active cart has no lines.
func (s *Service) Items(ctx context.Context, customerID string) (_ []Line, err error) {
	view, err := s.read(ctx, useCaseCartItems, "ListCartItems", customerID)
	if err != nil {
		return nil, err
	}
	return view.Lines, nil
}

// Count is the number of units in the active cart.
func (s *Service) Count(ctx context.Context, customerID string) (int, error) {
	view, err := s.read(ctx, useCaseCartCount, "CountCartItems", customerID)
	if err != nil {
		return 0, err
	}
	return view.Count, nil
}

func (s *Service) read(ctx context.Context, useCase, spanName, customerID string) (_ *View, err error) {
	ctx, sc := application.Begin(ctx, s.inst, useCase, spanName,
		attribute.String("cart.customer_id", customerID),
	)
	defer func() { sc.End(err) }()

	if strings.TrimSpace(customerID) == "" {
		sc.Reject(statusCustomerReq)
		return nil, errs.Invalid("customer id is required")
	}

	var view *View
	err = s.store.Atomic(ctx, func(ctx context.Context, repos application.Repositories) error {
		c, ferr := repos.Carts().FindActive(ctx, customerID)
		if errors.Is(ferr, domcart.ErrNotFound) {
			view = emptyView(customerID)
			return nil
		}
		if ferr != nil {
			return ferr
		}
		products, lerr := loadProducts(ctx, repos.Products(), c.ProductIDs())
		if lerr != nil {
			return lerr
		}
		view = newView(c, products)
		return nil
	})
	if err != nil {
		sc.Fail(statusCartTxFailed)
		return nil, errs.Storage(err)
	}
	sc.Add(observability.F("count", view.Count))
	return view, nil
}

type mutation func(ctx context.Context, repos application.Repositories, c *domcart.Cart) error

// mutate applies fn to the active cart and reprices it from the post-mutation
// item set, all in one transaction. With create false a missing cart is left
// missing and an empty view returned.
func (s *Service) mutate(ctx context.Context, customerID string, create bool, fn mutation) (*View, error) {
	var view *View
	err := s.store.Atomic(ctx, func(ctx context.Context, repos application.Repositories) error {
		var (
			c   *domcart.Cart
			err error
		)
		if create {
			c, err = ActiveCart(ctx, repos.Carts(), s.idGenerator, customerID)
		} else {
			c, err = repos.Carts().FindActive(ctx, customerID)
			if errors.Is(err, domcart.ErrNotFound) {
				view = emptyView(customerID)
				return nil
			}
		}
		if err != nil {
			return err
		}

		if err := fn(ctx, repos, c); err != nil {
			return err
		}

		products, err := loadProducts(ctx, repos.Products(), c.ProductIDs())
		if err != nil {
			return err
		}
		if err := c.Reprice(prices(products)); err != nil {
			return err
		}
		if err := repos.Carts().Save(ctx, c); err != nil {
			return err
		}
		view = newView(c, products)
		return nil
	})
	if err != nil {
		return nil, errs.Storage(err)
	}
	return view, nil
}

func (s *Service) finish(sc *application.Scope, view *View, err error) (*View, error) {
	switch {
	case err == nil:
		sc.Add(
			observability.F("cart_id", view.CartID),
			observability.F("count", view.Count),
			observability.F("total", view.Total.StringFixed(2)),
		)
		return view, nil
	case errors.Is(err, errs.ErrNotFound):
		sc.Reject("PRODUCT_NOT_FOUND")
	case errors.Is(err, errs.ErrInvalidInput):
		sc.Reject("INVALID_INPUT")
	default:
		sc.Fail(statusCartTxFailed)
	}
	return nil, err
}

// ActiveCart looks up the customer's active cart or creates one. A concurrent
// creator winning the insert is resolved by reading its cart back.
func ActiveCart(ctx context.Context, carts domcart.Repository, idGen application.IDGenerator, customerID string) (*domcart.Cart, error) {
	c, err := carts.FindActive(ctx, customerID)
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, domcart.ErrNotFound) {
		return nil, err
	}

	c = domcart.New(idGen.NewID(), customerID)
	if err := carts.Insert(ctx, c); err != nil {
		if errors.Is(err, domcart.ErrConflict) {
			return carts.FindActive(ctx, customerID)
		}
		return nil, err
	}
	return c, nil
}

func validate(sc *application.Scope, customerID, productID string) error {
	if strings.TrimSpace(customerID) == "" {
		sc.Reject(statusCustomerReq)
		return errs.Invalid("customer id is required")
	}
	if strings.TrimSpace(productID) == "" {
		sc.Reject(statusProductReq)
		return errs.Invalid("product id is required")
	}
	return nil
}

func loadProducts(ctx context.Context, repo dominv.Repository, ids []string) (map[string]*dominv.Product, error) {
	out := make(map[string]*dominv.Product, len(ids))
	for _, id := range ids {
		p, err := repo.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		out[id] = p
	}
	return out, nil
}

func prices(products map[string]*dominv.Product) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(products))
	for id, p := range products {
		out[id] = p.UnitPrice
	}
	return out
}

func newView(c *domcart.Cart, products map[string]*dominv.Product) *View {
	view := &View{
		CartID:     c.ID,
		CustomerID: c.CustomerID,
		Lines:      make([]Line, 0, len(c.Items)),
		Total:      c.Total,
		Count:      c.Count(),
	}
	live := decimal.Zero
	for _, it := range c.Items {
		p := products[it.ProductID]
		line := Line{ProductID: it.ProductID, Quantity: it.Quantity}
		if p != nil {
			line.Name = p.Name
			line.Price = p.UnitPrice
			line.LineTotal = p.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity)))
		}
		live = live.Add(line.LineTotal)
		view.Lines = append(view.Lines, line)
	}
	// Reads reprice too: the cached total may predate a catalog price change.
	view.Total = live
	return view
}

func emptyView(customerID string) *View {
	return &View{CustomerID: customerID, Lines: []Line{}, Total: decimal.Zero}
}
