package application

import (
	"context"

	"github.com/Zhima-Mochi/minishop-fulfillment/app/internal/domain/audit"
	"github.com/Zhima-Mochi/minishop-fulfillment/app/internal/domain/cart"
	"github.com/Zhima-Mochi/minishop-fulfillment/app/internal/domain/inventory"
	"github.com/Zhima-Mochi/minishop-fulfillment/app/internal/domain/order"
)

type UseCase[C any, R any] interface {
	Execute(ctx context.Context, cmd C) (R, error)
}

type IDGenerator interface {
	NewID() string
}

// Repositories is the set of repositories bound to one transaction.
type Repositories interface {
	Products() inventory.Repository
	Carts() cart.Repository
	Orders() order.Repository
	Audit() audit.Repository
}

// Store runs fn inside a single transaction. Any error returned by fn, or a
// panic, rolls back every write made through repos.
type Store interface {
	Atomic(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error
}
