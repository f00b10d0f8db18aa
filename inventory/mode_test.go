package inventory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/VincentYu328/luckystar-sub000/core"
	"github.com/VincentYu328/luckystar-sub000/inventory"
)

func TestParseMode(t *testing.T) {
	m, err := inventory.ParseMode("dev")
	require.NoError(t, err)
	assert.Equal(t, inventory.ModeDev, m)

	_, err = inventory.ParseMode("staging")
	assert.ErrorIs(t, err, core.ErrValidation)
}

func TestSettings_FallbackUntilWritten(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	settings := inventory.NewSettings(store, inventory.ModeDev)

	m, err := settings.Mode(ctx)
	require.NoError(t, err)
	assert.Equal(t, inventory.ModeDev, m)

	require.NoError(t, settings.SetMode(ctx, inventory.ModeProd))
	m, err = settings.Mode(ctx)
	require.NoError(t, err)
	assert.Equal(t, inventory.ModeProd, m)
}

func TestSettings_InvalidFallbackIsProd(t *testing.T) {
	store := newTestStore(t)
	m, err := inventory.NewSettings(store, "").Mode(context.Background())
	require.NoError(t, err)
	assert.Equal(t, inventory.ModeProd, m)
}

func TestSettings_RejectsUnknownMode(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	err := inventory.NewSettings(store, inventory.ModeProd).SetMode(ctx, "staging")
	assert.ErrorIs(t, err, core.ErrValidation)

	_, ok, err := store.Setting(ctx, inventory.ModeSettingKey)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSettings_CorruptFlagIsStorageError(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.PutSetting(ctx, inventory.ModeSettingKey, "maybe"))

	_, err := inventory.NewSettings(store, inventory.ModeProd).Mode(ctx)
	assert.ErrorIs(t, err, core.ErrStorage)
}

func TestMode_SwitchTakesEffectOnNextCall(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	svc := newTestService(store, inventory.ModeProd)

	_, err := svc.RecordIncoming(ctx, shirtID, 5, inventory.Metadata{})
	require.NoError(t, err)
	require.NoError(t, svc.SetMode(ctx, inventory.ModeDev, "admin-1"))
	_, err = svc.RecordIncoming(ctx, shirtID, 5, inventory.Metadata{})
	require.NoError(t, err)

	qty, err := svc.CurrentStock(ctx, shirtID)
	require.NoError(t, err)
	assert.Equal(t, int64(5), qty, "second append ran deferred")

	txs, err := svc.History(ctx, shirtID)
	require.NoError(t, err)
	assert.Len(t, txs, 2, "switching never rewrites history")
}
