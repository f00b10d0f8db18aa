package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/VincentYu328/luckystar-sub000/core"
)

// =============================================================================
// AUDIT LOG (core.AuditSink)
// =============================================================================

type auditRow struct {
	ID         string    `db:"id"`
	ActorID    string    `db:"actor_id"`
	Action     string    `db:"action"`
	TargetType string    `db:"target_type"`
	TargetID   string    `db:"target_id"`
	Details    string    `db:"details"`
	CreatedAt  time.Time `db:"created_at"`
}

// AppendAudit writes one entry outside any business transaction.
func (s *Store) AppendAudit(ctx context.Context, e core.AuditEntry) error {
	details := []byte("{}")
	if len(e.Details) > 0 {
		var err error
		if details, err = json.Marshal(e.Details); err != nil {
			return fmt.Errorf("marshal audit details: %w", err)
		}
	}
	_, err := sqlx.NamedExecContext(ctx, s.db, `
		INSERT INTO audit_log (id, actor_id, action, target_type, target_id, details, created_at)
		VALUES (:id, :actor_id, :action, :target_type, :target_id, :details, :created_at)`, auditRow{
		ID:         e.ID,
		ActorID:    string(e.ActorID),
		Action:     string(e.Action),
		TargetType: e.TargetType,
		TargetID:   e.TargetID,
		Details:    string(details),
		CreatedAt:  e.CreatedAt,
	})
	return core.Storage("append audit", err)
}

// ListAudit returns entries for one target, oldest first. An empty targetID
// matches every target of the type.
func (s *Store) ListAudit(ctx context.Context, targetType, targetID string, limit int) ([]core.AuditEntry, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []auditRow
	err := sqlx.SelectContext(ctx, s.db, &rows, `
		SELECT id, actor_id, action, target_type, target_id, details, created_at
		FROM audit_log
		WHERE target_type = ? AND (? = '' OR target_id = ?)
		ORDER BY created_at, rowid
		LIMIT ?`, targetType, targetID, targetID, limit)
	if err != nil {
		return nil, core.Storage("list audit", err)
	}

	entries := make([]core.AuditEntry, 0, len(rows))
	for _, r := range rows {
		e := core.AuditEntry{
			ID:         r.ID,
			ActorID:    core.ActorID(r.ActorID),
			Action:     core.AuditAction(r.Action),
			TargetType: r.TargetType,
			TargetID:   r.TargetID,
			CreatedAt:  r.CreatedAt,
		}
		if err := json.Unmarshal([]byte(r.Details), &e.Details); err != nil {
			return nil, core.Storage("decode audit details", err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}
