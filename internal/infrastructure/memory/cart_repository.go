package memory

import (
	"context"

	domcart "github.com/Zhima-Mochi/minishop-fulfillment/app/internal/domain/cart"
)

type cartRepo struct{ t *tx }

// FindActive needs no row lock: the store's writer lock already serializes
// every transaction.
func (r cartRepo) FindActive(_ context.Context, customerID string) (*domcart.Cart, error) {
	if c := r.active(customerID); c != nil {
		return c.Clone(), nil
	}
	return nil, domcart.ErrNotFound
}

func (r cartRepo) active(customerID string) *domcart.Cart {
	for _, c := range r.t.carts {
		if c.CustomerID == customerID && c.Status == domcart.StatusActive {
			return c
		}
	}
	id, ok := r.t.s.active[customerID]
	if !ok {
		return nil
	}
	if _, staged := r.t.carts[id]; staged {
		// Staged and no longer active, or it would have matched above.
		return nil
	}
	return r.t.s.carts[id]
}

func (r cartRepo) exists(id string) bool {
	if _, ok := r.t.carts[id]; ok {
		return true
	}
	_, ok := r.t.s.carts[id]
	return ok
}

func (r cartRepo) Insert(_ context.Context, cart *domcart.Cart) error {
	if cart == nil || cart.ID == "" {
		return domcart.ErrNotFound
	}
	if r.exists(cart.ID) {
		return domcart.ErrConflict
	}
	if cart.Status == domcart.StatusActive && r.active(cart.CustomerID) != nil {
		return domcart.ErrConflict
	}
	r.t.carts[cart.ID] = cart.Clone()
	return nil
}

func (r cartRepo) Save(_ context.Context, cart *domcart.Cart) error {
	if cart == nil || !r.exists(cart.ID) {
		return domcart.ErrNotFound
	}
	if cart.Status == domcart.StatusActive {
		if other := r.active(cart.CustomerID); other != nil && other.ID != cart.ID {
			return domcart.ErrConflict
		}
	}
	r.t.carts[cart.ID] = cart.Clone()
	return nil
}
