package order

import (
	"context"
	"time"

	"github.com/Zhima-Mochi/minishop-fulfillment/app/internal/application"
	domaudit "github.com/Zhima-Mochi/minishop-fulfillment/app/internal/domain/audit"
	domorder "github.com/Zhima-Mochi/minishop-fulfillment/app/internal/domain/order"
	domoutbox "github.com/Zhima-Mochi/minishop-fulfillment/app/internal/domain/outbox"
	"github.com/Zhima-Mochi/minishop-fulfillment/app/internal/observability"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	orderService   = "order-service"
	publishPeer    = "outbox"
	publishTimeout = 300 * time.Millisecond
)

// Deps are the collaborators shared by every order use case.
type Deps struct {
	Store       application.Store
	IDGenerator application.IDGenerator
	Ledger      Ledger
	Audit       AuditRecorder
	// Publisher is optional; nil disables lifecycle events.
	Publisher domoutbox.Publisher
	Tel       observability.Observability
}

// effects runs the post-commit side effects: audit, lifecycle event, metrics.
// None of them can fail the operation that triggered them.
type effects struct {
	audit        AuditRecorder
	publisher    domoutbox.Publisher
	transitions  observability.Counter   // order_transitions_total{from,to}
	extCounter   observability.Counter   // external_requests_total{peer,endpoint,outcome}
	extHistogram observability.Histogram // external_request_duration_seconds{peer,endpoint}
}

func newEffects(d Deps) effects {
	metrics := observability.OrNop(d.Tel).Metrics()
	return effects{
		audit:        d.Audit,
		publisher:    d.Publisher,
		transitions:  metrics.Counter(observability.MOrderTransitions),
		extCounter:   metrics.Counter(observability.MExternalRequests),
		extHistogram: metrics.Histogram(observability.MExternalRequestDuration),
	}
}

func (e effects) committed(ctx context.Context, sc *application.Scope, o *domorder.Order, from domorder.Status, action string, event domoutbox.Event) {
	fromLabel := string(from)
	if fromLabel == "" {
		fromLabel = "none"
	}
	e.transitions.Add(1,
		observability.L("from", fromLabel),
		observability.L("to", string(o.Status)),
	)

	if e.audit != nil {
		e.audit.Record(ctx, action, domaudit.EntityOrder, o.ID)
	}

	sc.Span().SetAttributes(attribute.String("order.status", string(o.Status)))
	sc.Span().AddEvent(event.EventName(),
		trace.WithAttributes(attribute.String("order.id", o.ID)),
	)

	if err := e.publish(ctx, event); err != nil {
		sc.Status("EVENT_PUBLISH_FAILED")
		sc.Add(observability.F("event_publish_error", err.Error()))
	}
}

func (e effects) publish(ctx context.Context, event domoutbox.Event) error {
	if e.publisher == nil || event == nil {
		return nil
	}

	pubCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	start := time.Now()
	err := e.publisher.Publish(pubCtx, event)
	outcome := "success"
	if err != nil {
		outcome = "error"
	} else if pubCtx.Err() != nil {
		outcome = "canceled"
		err = pubCtx.Err()
	}

	e.extCounter.Add(1,
		observability.L("peer", publishPeer),
		observability.L("endpoint", event.EventName()),
		observability.L("outcome", outcome),
	)
	e.extHistogram.Observe(time.Since(start).Seconds(),
		observability.L("peer", publishPeer),
		observability.L("endpoint", event.EventName()),
	)
	return err
}
