package memory

import (
	"context"

	domaudit "github.com/Zhima-Mochi/minishop-fulfillment/app/internal/domain/audit"
)

type auditRepo struct{ t *tx }

func (r auditRepo) Append(_ context.Context, entry *domaudit.Entry) error {
	if entry == nil {
		return nil
	}
	clone := *entry
	r.t.audit = append(r.t.audit, &clone)
	return nil
}

// ListRecent returns up to limit entries, newest first.
func (r auditRepo) ListRecent(_ context.Context, limit int) ([]*domaudit.Entry, error) {
	all := make([]*domaudit.Entry, 0, len(r.t.s.audit)+len(r.t.audit))
	all = append(all, r.t.s.audit...)
	all = append(all, r.t.audit...)

	if limit <= 0 || limit > len(all) {
		limit = len(all)
	}
	out := make([]*domaudit.Entry, 0, limit)
	for i := len(all) - 1; i >= 0 && len(out) < limit; i-- {
		clone := *all[i]
		out = append(out, &clone)
	}
	return out, nil
}
