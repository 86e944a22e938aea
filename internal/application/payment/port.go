package payment

import (
	"context"

	apporder "github.com/Zhima-Mochi/minishop-fulfillment/app/internal/application/order"
	dompay "github.com/Zhima-Mochi/minishop-fulfillment/app/internal/domain/payment"
)

// Settler applies a decided outcome to an order. The order engine implements it.
type Settler interface {
	ApplyPaymentOutcome(ctx context.Context, orderID string, outcome dompay.Outcome) (*apporder.SettleResult, error)
}
