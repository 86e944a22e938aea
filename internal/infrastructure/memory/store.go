// Package memory is the in-process Store. A single writer lock serializes
// transactions; writes are staged in an overlay that only reaches the committed
// state when the transaction function returns nil.
package memory

import (
	"context"
	"sync"

	"github.com/Zhima-Mochi/minishop-fulfillment/app/internal/application"
	domaudit "github.com/Zhima-Mochi/minishop-fulfillment/app/internal/domain/audit"
	domcart "github.com/Zhima-Mochi/minishop-fulfillment/app/internal/domain/cart"
	dominv "github.com/Zhima-Mochi/minishop-fulfillment/app/internal/domain/inventory"
	domorder "github.com/Zhima-Mochi/minishop-fulfillment/app/internal/domain/order"
)

type Store struct {
	mu sync.Mutex

	products map[string]*dominv.Product
	carts    map[string]*domcart.Cart
	// active maps a customer to their single Active cart.
	active map[string]string
	orders map[string]*domorder.Order
	audit  []*domaudit.Entry
}

var _ application.Store = (*Store)(nil)

func NewStore() *Store {
	return &Store{
		products: make(map[string]*dominv.Product),
		carts:    make(map[string]*domcart.Cart),
		active:   make(map[string]string),
		orders:   make(map[string]*domorder.Order),
	}
}

func (s *Store) Atomic(ctx context.Context, fn func(ctx context.Context, repos application.Repositories) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	t := newTx(s)
	if err := fn(ctx, t); err != nil {
		return err
	}
	// A context cancelled mid-transaction discards the overlay.
	if err := ctx.Err(); err != nil {
		return err
	}
	t.commit()
	return nil
}

// tx is one transaction's overlay over the committed state.
type tx struct {
	s        *Store
	products map[string]*dominv.Product
	carts    map[string]*domcart.Cart
	orders   map[string]*domorder.Order
	audit    []*domaudit.Entry
}

func newTx(s *Store) *tx {
	return &tx{
		s:        s,
		products: make(map[string]*dominv.Product),
		carts:    make(map[string]*domcart.Cart),
		orders:   make(map[string]*domorder.Order),
	}
}

func (t *tx) Products() dominv.Repository { return productRepo{t} }
func (t *tx) Carts() domcart.Repository   { return cartRepo{t} }
func (t *tx) Orders() domorder.Repository { return orderRepo{t} }
func (t *tx) Audit() domaudit.Repository  { return auditRepo{t} }

func (t *tx) commit() {
	s := t.s
	for id, p := range t.products {
		s.products[id] = p
	}
	for id, c := range t.carts {
		s.carts[id] = c
		switch {
		case c.Status == domcart.StatusActive:
			s.active[c.CustomerID] = id
		case s.active[c.CustomerID] == id:
			delete(s.active, c.CustomerID)
		}
	}
	for id, o := range t.orders {
		s.orders[id] = o
	}
	s.audit = append(s.audit, t.audit...)
}
