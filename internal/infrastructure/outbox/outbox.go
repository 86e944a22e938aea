package outbox

import (
	"context"
	"errors"
	"runtime/debug"
	"sync"
	"time"

	domoutbox "github.com/Zhima-Mochi/minishop-fulfillment/app/internal/domain/outbox"
	"github.com/Zhima-Mochi/minishop-fulfillment/app/internal/observability"
	"github.com/Zhima-Mochi/minishop-fulfillment/app/internal/observability/logctx"
	workerpresentation "github.com/Zhima-Mochi/minishop-fulfillment/app/internal/presentation/worker"

	"go.opentelemetry.io/otel/trace"
)

const (
	componentOutbox = "outbox"
	queueSize       = 1024
	handlerTimeout  = 30 * time.Second
)

var ErrClosed = errors.New("outbox: bus stopped")

var _ domoutbox.Bus = (*Bus)(nil)

// Bus is an in-memory, non-durable event bus. Events are published after the
// owning transaction commits, so losing one never breaks a stock or order
// invariant; subscribers only mirror state elsewhere.
type Bus struct {
	mu   sync.RWMutex // guards subs
	subs map[string][]domoutbox.Handler

	// sendMu guards closed and the close of queue. Publishers hold it shared
	// while sending; it is never taken by the dispatcher.
	sendMu      sync.RWMutex
	closed      bool
	queue       chan envelope
	quit        chan struct{}
	startOnce   sync.Once
	stopOnce    sync.Once
	done        chan struct{}
	concurrency int
	log         observability.Logger
	tel         observability.Observability
}

// envelope keeps the publisher's span so handlers log under the same trace.
type envelope struct {
	event domoutbox.Event
	span  trace.SpanContext
}

func NewBus(tel observability.Observability) *Bus {
	return newBus(tel, queueSize)
}

func newBus(tel observability.Observability, size int) *Bus {
	tel = observability.OrNop(tel)
	return &Bus{
		subs:        make(map[string][]domoutbox.Handler),
		queue:       make(chan envelope, size),
		quit:        make(chan struct{}),
		done:        make(chan struct{}),
		concurrency: 8,
		log:         tel.Logger().With(observability.F("component", componentOutbox)),
		tel:         tel,
	}
}

func (b *Bus) Subscribe(eventName string, h domoutbox.Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs[eventName] = append(b.subs[eventName], h)
}

func (b *Bus) Start(ctx context.Context) {
	b.startOnce.Do(func() {
		go b.dispatchLoop(context.WithoutCancel(ctx))
		logctx.FromOr(ctx, b.log).Info("event_bus_started")
	})
}

// Stop refuses new events and waits until queued ones are handled or ctx ends.
// Publishers blocked on a full queue are released with ErrClosed.
func (b *Bus) Stop(ctx context.Context) {
	b.stopOnce.Do(func() {
		close(b.quit)
		b.sendMu.Lock()
		b.closed = true
		close(b.queue)
		b.sendMu.Unlock()

		select {
		case <-b.done:
		case <-ctx.Done():
			logctx.FromOr(ctx, b.log).Warn("event_bus_drain_aborted", observability.Err(ctx.Err()))
		}
		logctx.FromOr(ctx, b.log).Info("event_bus_stopped")
	})
}

func (b *Bus) Publish(ctx context.Context, e domoutbox.Event) error {
	if e == nil {
		return nil
	}
	logger := logctx.FromOr(ctx, b.log).With(observability.F("event", e.EventName()))

	// The shared send lock keeps Stop from closing the queue mid-send.
	b.sendMu.RLock()
	defer b.sendMu.RUnlock()
	if b.closed {
		logger.Warn("event_enqueue_after_stop")
		return ErrClosed
	}

	select {
	case b.queue <- envelope{event: e, span: trace.SpanContextFromContext(ctx)}:
		logger.Debug("event_enqueued")
		return nil
	case <-b.quit:
		logger.Warn("event_enqueue_after_stop")
		return ErrClosed
	case <-ctx.Done():
		logger.Warn("event_enqueue_aborted", observability.Err(ctx.Err()))
		return ctx.Err()
	}
}

func (b *Bus) dispatchLoop(ctx context.Context) {
	defer close(b.done)
	for env := range b.queue {
		b.fanout(ctx, env)
	}
}

func (b *Bus) fanout(ctx context.Context, env envelope) {
	name := env.event.EventName()

	b.mu.RLock()
	handlers := append([]domoutbox.Handler(nil), b.subs[name]...)
	b.mu.RUnlock()

	if len(handlers) == 0 {
		b.log.Debug("event_dropped_no_subscriber", observability.F("event", name))
		return
	}

	if env.span.IsValid() {
		ctx = trace.ContextWithRemoteSpanContext(ctx, env.span)
	}
	ctx = workerpresentation.WithEventContext(ctx, b.log, b.tel,
		env.span.TraceID(), env.span.SpanID(),
		map[string]string{"event": name},
	)
	logger := logctx.FromOr(ctx, b.log)

	sem := make(chan struct{}, b.concurrency)
	var wg sync.WaitGroup

	for _, h := range handlers {
		sem <- struct{}{}
		wg.Add(1)
		go func() {
			defer func() {
				if r := recover(); r != nil {
					logger.Error("event_handler_panic",
						observability.F("panic", r),
						observability.F("stack", string(debug.Stack())),
					)
				}
				<-sem
				wg.Done()
			}()

			hctx, cancel := context.WithTimeout(ctx, handlerTimeout)
			defer cancel()
			if err := h(hctx, env.event); err != nil {
				logger.Warn("event_handler_error", observability.Err(err))
			}
		}()
	}

	wg.Wait()
	logger.Debug("event_fanned_out", observability.F("handlers", len(handlers)))
}
