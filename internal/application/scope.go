package application

import (
	"context"
	"time"

	"github.com/Zhima-Mochi/minishop-fulfillment/app/internal/observability"
	"github.com/Zhima-Mochi/minishop-fulfillment/app/internal/observability/logctx"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	spanPrefix = "UC."

	OutcomeSuccess  = "success"
	OutcomeError    = "error"
	OutcomeRejected = "rejected"
)

// Instruments are the per-service handles a Scope reports to. Build them once
// at construction time; never inside a use case.
type Instruments struct {
	Log          observability.Logger
	Tracer       observability.Tracer
	reqCounter   observability.Counter   // usecase_requests_total{use_case,outcome}
	durHistogram observability.Histogram // usecase_duration_seconds{use_case}
}

func NewInstruments(tel observability.Observability, service string) Instruments {
	tel = observability.OrNop(tel)
	metrics := tel.Metrics()
	return Instruments{
		Log:          tel.Logger().With(observability.F("service", service)),
		Tracer:       tel.Tracer(),
		reqCounter:   metrics.Counter(observability.MUsecaseRequests),
		durHistogram: metrics.Histogram(observability.MUsecaseDuration),
	}
}

// Scope tracks one use-case execution: span, RED metrics and the single
// use_case_done log line emitted by End.
type Scope struct {
	inst    Instruments
	ctx     context.Context
	span    trace.Span
	logger  observability.Logger
	useCase string
	start   time.Time
	outcome string
	status  string
	fields  []observability.Field
}

// Begin starts a span named UC.<spanName> and binds a use_case logger to the
// returned context so downstream components log with the same fields.
func Begin(ctx context.Context, inst Instruments, useCase, spanName string, attrs ...attribute.KeyValue) (context.Context, *Scope) {
	if inst.Log == nil {
		inst.Log = observability.NopLogger()
	}
	if inst.Tracer == nil {
		inst.Tracer = observability.NopTracer()
	}

	logger := logctx.FromOr(ctx, inst.Log).With(observability.F("use_case", useCase))
	attrs = append([]attribute.KeyValue{attribute.String("use_case", useCase)}, attrs...)
	ctx, span := inst.Tracer.Start(ctx, spanPrefix+spanName, attrs...)
	ctx = logctx.With(ctx, logger)

	return ctx, &Scope{
		inst:    inst,
		ctx:     ctx,
		span:    span,
		logger:  logger,
		useCase: useCase,
		start:   time.Now(),
		outcome: OutcomeSuccess,
		status:  "OK",
	}
}

// Fail marks the run as a fault.
func (s *Scope) Fail(status string) {
	s.outcome, s.status = OutcomeError, status
}

// Reject marks the run as a business rejection: reported, but not a fault.
func (s *Scope) Reject(status string) {
	s.outcome, s.status = OutcomeRejected, status
}

// Status overrides the status text without changing the outcome.
func (s *Scope) Status(status string) {
	s.status = status
}

// Add appends fields to the use_case_done line.
func (s *Scope) Add(fields ...observability.Field) {
	s.fields = append(s.fields, fields...)
}

func (s *Scope) Span() trace.Span { return s.span }

func (s *Scope) Logger() observability.Logger { return s.logger }

// End closes the span and records metrics and the use_case_done line. A
// non-nil err on a run still marked successful is recorded as a fault.
func (s *Scope) End(err error) {
	if err != nil && s.outcome == OutcomeSuccess {
		s.Fail("ERROR")
	}
	lat := time.Since(s.start).Seconds()

	if s.span != nil {
		if err != nil {
			s.span.RecordError(err)
		}
		if s.outcome == OutcomeError {
			s.span.SetStatus(codes.Error, s.status)
		} else {
			s.span.SetStatus(codes.Ok, s.status)
		}
		s.span.End()
	}

	if s.inst.reqCounter != nil {
		s.inst.reqCounter.Add(1,
			observability.L("use_case", s.useCase),
			observability.L("outcome", s.outcome),
		)
	}
	if s.inst.durHistogram != nil {
		s.inst.durHistogram.Observe(lat,
			observability.L("use_case", s.useCase),
		)
	}

	fields := []observability.Field{
		observability.F("outcome", s.outcome),
		observability.F("status", s.status),
		observability.F("latency_seconds", lat),
	}
	if sc := trace.SpanContextFromContext(s.ctx); sc.IsValid() {
		fields = append(fields,
			observability.F("trace_id", sc.TraceID().String()),
			observability.F("span_id", sc.SpanID().String()),
		)
	}
	fields = append(fields, s.fields...)
	if err != nil {
		fields = append(fields, observability.Err(err))
	}

	s.logger.Info("use_case_done", fields...)
}
