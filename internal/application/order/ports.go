package order

import (
	"context"

	dominv "github.com/Zhima-Mochi/minishop-fulfillment/app/internal/domain/inventory"
)

// Ledger is the stock authority. Calls join the caller's transaction through
// the repository they are given.
type Ledger interface {
	Reserve(ctx context.Context, products dominv.Repository, productID string, quantity int) (*dominv.Product, error)
	Release(ctx context.Context, products dominv.Repository, productID string, quantity int) (*dominv.Product, error)
}

// AuditRecorder appends audit entries on a best-effort basis.
type AuditRecorder interface {
	Record(ctx context.Context, action, entityType, entityID string)
}
