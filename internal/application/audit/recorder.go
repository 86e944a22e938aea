package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/Zhima-Mochi/minishop-fulfillment/app/internal/application"
	domaudit "github.com/Zhima-Mochi/minishop-fulfillment/app/internal/domain/audit"
	"github.com/Zhima-Mochi/minishop-fulfillment/app/internal/domain/errs"
	"github.com/Zhima-Mochi/minishop-fulfillment/app/internal/observability"
	"github.com/Zhima-Mochi/minishop-fulfillment/app/internal/observability/logctx"

	"go.opentelemetry.io/otel/attribute"
)

const (
	auditService       = "audit-service"
	componentRecorder  = "audit_recorder"
	useCaseAuditList   = "audit.list"
	DefaultRecentLimit = 100
)

// Recorder appends audit entries. It is best effort: failures are logged and
// never reach the caller.
type Recorder struct {
	store       application.Store
	idGenerator application.IDGenerator
	now         func() time.Time
	log         observability.Logger
	inst        application.Instruments
}

func NewRecorder(store application.Store, idGen application.IDGenerator, tel observability.Observability) *Recorder {
	tel = observability.OrNop(tel)
	return &Recorder{
		store:       store,
		idGenerator: idGen,
		now:         func() time.Time { return time.Now().UTC() },
		log:         tel.Logger().With(observability.F("component", componentRecorder)),
		inst:        application.NewInstruments(tel, auditService),
	}
}

// Record appends one entry in its own transaction.
func (r *Recorder) Record(ctx context.Context, action, entityType, entityID string) {
	entry := &domaudit.Entry{
		ID:         r.idGenerator.NewID(),
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Timestamp:  r.now(),
	}

	var err error
	func() {
		defer func() {
			if rec := recover(); rec != nil {
				err = &recorderPanic{value: rec}
			}
		}()
		err = r.store.Atomic(ctx, func(ctx context.Context, repos application.Repositories) error {
			return repos.Audit().Append(ctx, entry)
		})
	}()

	logger := logctx.FromOr(ctx, r.log).With(
		observability.F("component", componentRecorder),
		observability.F("action", action),
		observability.F("entity_type", entityType),
		observability.F("entity_id", entityID),
	)
	if err != nil {
		logger.Warn("audit_record_failed", observability.Err(err))
		return
	}
	logger.Debug("audit_recorded", observability.F("audit_id", entry.ID))
}

// ListRecent returns up to limit entries, newest first. Non-positive or
// oversized limits fall back to DefaultRecentLimit.
func (r *Recorder) ListRecent(ctx context.Context, limit int) (_ []*domaudit.Entry, err error) {
	if limit <= 0 || limit > DefaultRecentLimit {
		limit = DefaultRecentLimit
	}
	ctx, sc := application.Begin(ctx, r.inst, useCaseAuditList, "ListAudit",
		attribute.Int("audit.limit", limit),
	)
	defer func() { sc.End(err) }()

	var entries []*domaudit.Entry
	err = r.store.Atomic(ctx, func(ctx context.Context, repos application.Repositories) error {
		var lerr error
		entries, lerr = repos.Audit().ListRecent(ctx, limit)
		return lerr
	})
	if err != nil {
		sc.Fail("AUDIT_LIST_FAILED")
		return nil, errs.Storage(err)
	}
	sc.Add(observability.F("count", len(entries)))
	return entries, nil
}

type recorderPanic struct{ value any }

func (p *recorderPanic) Error() string { return fmt.Sprintf("audit: recorder panic: %v", p.value) }
