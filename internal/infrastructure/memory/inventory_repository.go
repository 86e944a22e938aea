package memory

import (
	"context"
	"sort"

	dominv "github.com/Zhima-Mochi/minishop-fulfillment/app/internal/domain/inventory"
)

type productRepo struct{ t *tx }

func (r productRepo) lookup(id string) (*dominv.Product, bool) {
	if p, ok := r.t.products[id]; ok {
		return p, true
	}
	p, ok := r.t.s.products[id]
	return p, ok
}

func (r productRepo) Get(_ context.Context, productID string) (*dominv.Product, error) {
	p, ok := r.lookup(productID)
	if !ok {
		return nil, dominv.ErrNotFound
	}
	return p.Clone(), nil
}

// List orders products by name, then id.
func (r productRepo) List(context.Context) ([]*dominv.Product, error) {
	out := make([]*dominv.Product, 0, len(r.t.s.products)+len(r.t.products))
	for id, p := range r.t.s.products {
		if _, staged := r.t.products[id]; staged {
			continue
		}
		out = append(out, p.Clone())
	}
	for _, p := range r.t.products {
		out = append(out, p.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r productRepo) Insert(_ context.Context, product *dominv.Product) error {
	if product == nil || product.ID == "" {
		return dominv.ErrInvalidName
	}
	if _, exists := r.lookup(product.ID); exists {
		return dominv.ErrConflict
	}
	r.t.products[product.ID] = product.Clone()
	return nil
}

func (r productRepo) Update(_ context.Context, product *dominv.Product) error {
	if product == nil {
		return dominv.ErrNotFound
	}
	if _, exists := r.lookup(product.ID); !exists {
		return dominv.ErrNotFound
	}
	r.t.products[product.ID] = product.Clone()
	return nil
}

func (r productRepo) Reserve(_ context.Context, productID string, quantity int) (*dominv.Product, error) {
	return r.adjust(productID, func(p *dominv.Product) error { return p.Reserve(quantity) })
}

func (r productRepo) Release(_ context.Context, productID string, quantity int) (*dominv.Product, error) {
	return r.adjust(productID, func(p *dominv.Product) error { return p.Release(quantity) })
}

func (r productRepo) adjust(productID string, fn func(*dominv.Product) error) (*dominv.Product, error) {
	current, ok := r.lookup(productID)
	if !ok {
		return nil, dominv.ErrNotFound
	}
	p := current.Clone()
	if err := fn(p); err != nil {
		return nil, err
	}
	r.t.products[productID] = p
	return p.Clone(), nil
}
