package postgres

import (
	"context"
	"fmt"

	domaudit "github.com/Zhima-Mochi/minishop-fulfillment/app/internal/domain/audit"

	"github.com/jackc/pgx/v5"
)

type auditRepo struct{ tx pgx.Tx }

func (r auditRepo) Append(ctx context.Context, e *domaudit.Entry) error {
	_, err := r.tx.Exec(ctx,
		`INSERT INTO auditlog (logid, action, entitytype, entityid, timestamp) VALUES ($1, $2, $3, $4, $5)`,
		e.ID, e.Action, e.EntityType, e.EntityID, e.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("postgres: append audit: %w", err)
	}
	return nil
}

func (r auditRepo) ListRecent(ctx context.Context, limit int) ([]*domaudit.Entry, error) {
	rows, err := r.tx.Query(ctx,
		`SELECT logid, action, entitytype, entityid, timestamp FROM auditlog ORDER BY seq DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: list audit: %w", err)
	}
	defer rows.Close()

	var out []*domaudit.Entry
	for rows.Next() {
		var e domaudit.Entry
		if err := rows.Scan(&e.ID, &e.Action, &e.EntityType, &e.EntityID, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("postgres: list audit: %w", err)
		}
		out = append(out, &e)
	}
	return out, rows.Err()
}
