package memory

import (
	"context"
	"fmt"
	"sort"

	domorder "github.com/Zhima-Mochi/minishop-fulfillment/app/internal/domain/order"
)

type orderRepo struct{ t *tx }

func (r orderRepo) lookup(id string) (*domorder.Order, bool) {
	if o, ok := r.t.orders[id]; ok {
		return o, true
	}
	o, ok := r.t.s.orders[id]
	return o, ok
}

func (r orderRepo) Insert(_ context.Context, order *domorder.Order) error {
	if order == nil || order.ID == "" {
		return fmt.Errorf("order repository: id is required")
	}
	if _, exists := r.lookup(order.ID); exists {
		return domorder.ErrConflict
	}
	r.t.orders[order.ID] = order.Clone()
	return nil
}

func (r orderRepo) Get(_ context.Context, id string) (*domorder.Order, error) {
	o, ok := r.lookup(id)
	if !ok {
		return nil, domorder.ErrNotFound
	}
	return o.Clone(), nil
}

func (r orderRepo) Update(_ context.Context, order *domorder.Order) error {
	if order == nil {
		return domorder.ErrNotFound
	}
	if _, exists := r.lookup(order.ID); !exists {
		return domorder.ErrNotFound
	}
	r.t.orders[order.ID] = order.Clone()
	return nil
}

// ListByCustomer returns newest orders first.
func (r orderRepo) ListByCustomer(_ context.Context, customerID string) ([]*domorder.Order, error) {
	var out []*domorder.Order
	for id, o := range r.t.s.orders {
		if _, staged := r.t.orders[id]; staged || o.CustomerID != customerID {
			continue
		}
		out = append(out, o.Clone())
	}
	for _, o := range r.t.orders {
		if o.CustomerID == customerID {
			out = append(out, o.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}
