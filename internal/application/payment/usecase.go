package payment

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/Zhima-Mochi/minishop-fulfillment/app/internal/application"
	apporder "github.com/Zhima-Mochi/minishop-fulfillment/app/internal/application/order"
	"github.com/Zhima-Mochi/minishop-fulfillment/app/internal/domain/errs"
	dompay "github.com/Zhima-Mochi/minishop-fulfillment/app/internal/domain/payment"
	"github.com/Zhima-Mochi/minishop-fulfillment/app/internal/observability"

	"go.opentelemetry.io/otel/attribute"
)

const (
	paymentService        = "payment-service"
	useCasePaymentSettle  = "payment.settle"
	processorPeer         = "payment_simulator"
	processorEndpoint     = "decide"
	statusProcessorFailed = "PAYMENT_PROCESSOR_FAILED"
)

// SettleUseCase asks the processor for an outcome and applies it to the order
// immediately, so a reservation never outlives a decided payment.
type SettleUseCase struct {
	processor dompay.Processor
	settler   Settler

	inst         application.Instruments
	extCounter   observability.Counter   // external_requests_total{peer,endpoint,outcome}
	extHistogram observability.Histogram // external_request_duration_seconds{peer,endpoint}
}

var _ application.UseCase[string, *apporder.SettleResult] = (*SettleUseCase)(nil)

func NewSettleUseCase(processor dompay.Processor, settler Settler, tel observability.Observability) *SettleUseCase {
	metrics := observability.OrNop(tel).Metrics()
	return &SettleUseCase{
		processor:    processor,
		settler:      settler,
		inst:         application.NewInstruments(tel, paymentService),
		extCounter:   metrics.Counter(observability.MExternalRequests),
		extHistogram: metrics.Histogram(observability.MExternalRequestDuration),
	}
}

func (uc *SettleUseCase) Execute(ctx context.Context, orderID string) (_ *apporder.SettleResult, err error) {
	ctx, sc := application.Begin(ctx, uc.inst, useCasePaymentSettle, "SettlePayment",
		attribute.String("order.id", orderID),
	)
	defer func() { sc.End(err) }()

	if strings.TrimSpace(orderID) == "" {
		sc.Reject("ORDER_ID_REQUIRED")
		return nil, errs.Invalid("order id is required")
	}

	outcome, err := uc.decide(ctx, orderID)
	if err != nil {
		sc.Fail(statusProcessorFailed)
		return nil, err
	}
	sc.Span().SetAttributes(attribute.String("payment.outcome", string(outcome)))
	sc.Add(observability.F("payment_outcome", string(outcome)))

	res, err := uc.settler.ApplyPaymentOutcome(ctx, orderID, outcome)
	if err != nil {
		switch {
		case errors.Is(err, errs.ErrNotFound):
			sc.Reject("ORDER_NOT_FOUND")
		case errors.Is(err, errs.ErrInvalidTransition):
			sc.Reject("NOT_SETTLEABLE")
		default:
			sc.Fail("SETTLE_FAILED")
		}
		return nil, err
	}
	sc.Add(observability.F("order_status", string(res.Status)))
	return res, nil
}

// Simulated forces a chosen outcome, bypassing the processor.
func (uc *SettleUseCase) Simulated(ctx context.Context, orderID string, outcome dompay.Outcome) (*apporder.SettleResult, error) {
	return uc.settler.ApplyPaymentOutcome(ctx, orderID, outcome)
}

func (uc *SettleUseCase) decide(ctx context.Context, orderID string) (dompay.Outcome, error) {
	start := time.Now()
	outcome, err := uc.processor.Decide(ctx, orderID)
	label := "success"
	switch {
	case err != nil && ctx.Err() != nil:
		label = "canceled"
	case err != nil:
		label = "error"
	case !outcome.Valid():
		label = "error"
		err = errs.Invalid("processor returned unknown outcome " + string(outcome))
	}
	uc.extCounter.Add(1,
		observability.L("peer", processorPeer),
		observability.L("endpoint", processorEndpoint),
		observability.L("outcome", label),
	)
	uc.extHistogram.Observe(time.Since(start).Seconds(),
		observability.L("peer", processorPeer),
		observability.L("endpoint", processorEndpoint),
	)
	return outcome, err
}
