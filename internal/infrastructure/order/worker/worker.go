package worker

import (
	"context"
	"fmt"
	"time"

	domorder "github.com/Zhima-Mochi/minishop-fulfillment/app/internal/domain/order"
	domoutbox "github.com/Zhima-Mochi/minishop-fulfillment/app/internal/domain/outbox"
	"github.com/Zhima-Mochi/minishop-fulfillment/app/internal/observability"
	"github.com/Zhima-Mochi/minishop-fulfillment/app/internal/observability/logctx"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	componentForwarder = "order_event_forwarder"
	forwardPeer        = "kafka"
)

// Sink receives lifecycle events leaving the process. The Kafka writer
// implements it.
type Sink interface {
	Send(ctx context.Context, key, eventName string, payload any) error
}

type lifecycle interface {
	Lifecycle() domorder.LifecycleEvent
}

// Worker forwards every order lifecycle event from the in-process bus to a
// Sink. Forwarding is best effort; the order is already committed.
type Worker struct {
	subscriber   domoutbox.Subscriber
	sink         Sink
	log          observability.Logger
	tracer       observability.Tracer
	extCounter   observability.Counter   // external_requests_total{peer,endpoint,outcome}
	extHistogram observability.Histogram // external_request_duration_seconds{peer,endpoint}
}

func New(subscriber domoutbox.Subscriber, sink Sink, tel observability.Observability) *Worker {
	tel = observability.OrNop(tel)
	return &Worker{
		subscriber:   subscriber,
		sink:         sink,
		log:          tel.Logger().With(observability.F("component", componentForwarder)),
		tracer:       tel.Tracer(),
		extCounter:   tel.Metrics().Counter(observability.MExternalRequests),
		extHistogram: tel.Metrics().Histogram(observability.MExternalRequestDuration),
	}
}

func (w *Worker) Start() {
	if w.subscriber == nil || w.sink == nil {
		return
	}
	for _, name := range domorder.EventNames() {
		w.subscriber.Subscribe(name, w.forward)
	}
}

func (w *Worker) forward(ctx context.Context, e domoutbox.Event) error {
	evt, ok := e.(lifecycle)
	if !ok {
		return nil
	}
	payload := evt.Lifecycle()
	name := e.EventName()

	ctx, span := w.tracer.Start(ctx, "Forward."+name,
		attribute.String("order.id", payload.OrderID),
		attribute.String("messaging.system", forwardPeer),
	)
	defer span.End()

	logger := logctx.FromOr(ctx, w.log).With(
		observability.F("component", componentForwarder),
		observability.F("order_id", payload.OrderID),
	)

	start := time.Now()
	err := w.sink.Send(ctx, payload.OrderID, name, payload)
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	w.extCounter.Add(1,
		observability.L("peer", forwardPeer),
		observability.L("endpoint", name),
		observability.L("outcome", outcome),
	)
	w.extHistogram.Observe(time.Since(start).Seconds(),
		observability.L("peer", forwardPeer),
		observability.L("endpoint", name),
	)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "FORWARD_FAILED")
		logger.Warn("order_event_forward_failed", observability.Err(err))
		return fmt.Errorf("order worker: forward %s: %w", name, err)
	}
	span.SetStatus(codes.Ok, "OK")
	logger.Debug("order_event_forwarded")
	return nil
}
