/*
mode.go - Mode Controller

PURPOSE:
  A single persisted flag decides how the stock projection is maintained.
  The flag is read through Settings on every operation, never cached, so a
  switch takes effect on the next call without a restart.

GUARANTEES (documented behavior callers rely on):
  prod: StockLevel.quantity_on_hand is kept continuously equal to the ledger
        sum. Every append and its balance update commit together.
  dev:  StockLevel is only as fresh as the last explicit rebuild. Appends
        succeed without touching it, so reports may lag the ledger.

SWITCHING:
  Changing the mode never rewrites history. After dev -> prod the projection
  keeps whatever drift accumulated until RebuildStock runs; from then on every
  append keeps it exact.

SEE ALSO:
  - projection.go: The strategy each mode selects
*/
package inventory

import (
	"context"
	"fmt"

	"github.com/VincentYu328/luckystar-sub000/core"
)

type Mode string

const (
	ModeDev  Mode = "dev"
	ModeProd Mode = "prod"
)

// ModeSettingKey names the settings row holding the flag.
const ModeSettingKey = "inventory_mode"

func (m Mode) Valid() bool { return m == ModeDev || m == ModeProd }

// Guarantee describes what the projection promises in this mode.
func (m Mode) Guarantee() string {
	switch m {
	case ModeProd:
		return "stock levels are continuously equal to the ledger sum"
	case ModeDev:
		return "stock levels are only as fresh as the last rebuild"
	default:
		return "unknown"
	}
}

// ParseMode validates the enum.
func ParseMode(s string) (Mode, error) {
	m := Mode(s)
	if !m.Valid() {
		return "", &core.ValidationError{Field: "mode", Reason: fmt.Sprintf("must be %q or %q, got %q", ModeDev, ModeProd, s)}
	}
	return m, nil
}

// Settings is the accessor for the persisted mode flag.
type Settings struct {
	store    SettingsStore
	fallback Mode
}

// NewSettings reads and writes the flag through store. fallback applies only
// while the flag has never been written.
func NewSettings(store SettingsStore, fallback Mode) Settings {
	if !fallback.Valid() {
		fallback = ModeProd
	}
	return Settings{store: store, fallback: fallback}
}

func (s Settings) Mode(ctx context.Context) (Mode, error) {
	v, ok, err := s.store.Setting(ctx, ModeSettingKey)
	if err != nil {
		return "", core.Storage("read mode", err)
	}
	if !ok {
		return s.fallback, nil
	}
	m := Mode(v)
	if !m.Valid() {
		return "", &core.StorageError{Op: "read mode", Err: fmt.Errorf("stored mode %q is not dev or prod", v)}
	}
	return m, nil
}

func (s Settings) SetMode(ctx context.Context, m Mode) error {
	if !m.Valid() {
		_, err := ParseMode(string(m))
		return err
	}
	return core.Storage("write mode", s.store.PutSetting(ctx, ModeSettingKey, string(m)))
}
