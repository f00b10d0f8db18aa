package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/VincentYu328/luckystar-sub000/core"
)

// =============================================================================
// SETTINGS (inventory.SettingsStore)
// =============================================================================

func (c conn) Setting(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := sqlx.GetContext(ctx, c.q, &value, `SELECT value FROM settings WHERE key = ?`, key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, core.Storage("read setting", err)
	}
	return value, true, nil
}

func (c conn) PutSetting(ctx context.Context, key, value string) error {
	_, err := c.q.ExecContext(ctx, `
		INSERT INTO settings (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().UTC())
	return core.Storage("write setting", err)
}
