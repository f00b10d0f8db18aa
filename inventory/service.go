package inventory

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/VincentYu328/luckystar-sub000/core"
)

// =============================================================================
// SERVICE - Operations exposed to the catalog, sale and report paths
// =============================================================================

// Options configures a Service.
type Options struct {
	// DefaultMode applies while the mode flag has never been written.
	DefaultMode Mode

	// AllowNegative lets an outgoing movement take the ledger sum below zero.
	AllowNegative bool

	Audit  *core.AuditRecorder
	Logger zerolog.Logger
	Now    func() time.Time
}

// Service is the entry point for stock movements, reads and audits.
type Service struct {
	store         Store
	defaultMode   Mode
	allowNegative bool
	audit         *core.AuditRecorder
	log           zerolog.Logger
	now           func() time.Time
}

func NewService(store Store, opts Options) *Service {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		store:         store,
		defaultMode:   opts.DefaultMode,
		allowNegative: opts.AllowNegative,
		audit:         opts.Audit,
		log:           opts.Logger.With().Str("component", "inventory").Logger(),
		now:           now,
	}
}

// Settings returns the mode accessor bound to the store.
func (s *Service) Settings() Settings {
	return NewSettings(s.store, s.defaultMode)
}

// =============================================================================
// MOVEMENTS
// =============================================================================

// RecordIncoming appends a positive movement (goods received).
func (s *Service) RecordIncoming(ctx context.Context, productID core.ProductID, quantity int64, meta Metadata) (TransactionID, error) {
	if quantity <= 0 {
		return 0, invalidQuantity(quantity)
	}
	if meta.Reason == "" {
		meta.Reason = ReasonPurchase
	}
	return s.record(ctx, newEntry(productID, quantity, meta), core.AuditStockIncoming)
}

// RecordOutgoing appends a negative movement (sale, consumption).
// quantity is the positive number of units leaving stock.
func (s *Service) RecordOutgoing(ctx context.Context, productID core.ProductID, quantity int64, meta Metadata) (TransactionID, error) {
	if quantity <= 0 {
		return 0, invalidQuantity(quantity)
	}
	if meta.Reason == "" {
		meta.Reason = ReasonSale
	}
	return s.record(ctx, newEntry(productID, -quantity, meta), core.AuditStockOutgoing)
}

// RecordCorrection appends an offsetting entry. delta is signed and non-zero.
func (s *Service) RecordCorrection(ctx context.Context, productID core.ProductID, delta int64, meta Metadata) (TransactionID, error) {
	if delta == 0 {
		return 0, invalidQuantity(0)
	}
	meta.Reason = ReasonCorrection
	return s.record(ctx, newEntry(productID, delta, meta), core.AuditStockCorrection)
}

func (s *Service) record(ctx context.Context, entry Transaction, action core.AuditAction) (TransactionID, error) {
	entry.CreatedAt = s.now().UTC()

	var mode Mode
	err := s.store.WithTx(ctx, func(tx Tx) error {
		// Read the flag inside the unit so the append and its strategy agree.
		m, err := NewSettings(tx, s.defaultMode).Mode(ctx)
		if err != nil {
			return err
		}
		mode = m

		if entry.QuantityChange < 0 && !s.allowNegative {
			available, err := NewLedger(tx).Sum(ctx, entry.ProductID)
			if err != nil {
				return err
			}
			if available+entry.QuantityChange < 0 {
				return &InsufficientStockError{
					ProductID: entry.ProductID,
					Available: available,
					Requested: -entry.QuantityChange,
				}
			}
		}
		return ProjectionFor(m).Append(ctx, tx, &entry)
	})
	if err != nil {
		return 0, core.Storage("record movement", err)
	}

	s.log.Debug().
		Int64("product_id", int64(entry.ProductID)).
		Int64("quantity_change", entry.QuantityChange).
		Int64("transaction_id", int64(entry.ID)).
		Str("mode", string(mode)).
		Msg("stock movement recorded")

	s.audit.Record(ctx, entry.OperatedBy, action, "product", strconv.FormatInt(int64(entry.ProductID), 10), map[string]any{
		"transaction_id":  entry.ID,
		"quantity_change": entry.QuantityChange,
		"reason":          entry.Reason,
		"reference_type":  entry.ReferenceType,
		"reference_id":    entry.ReferenceID,
		"mode":            mode,
	})
	return entry.ID, nil
}

// =============================================================================
// READS
// =============================================================================

// StockView is the catalog-facing summary of one product's stock.
type StockView struct {
	Product        core.Product `json:"product"`
	Mode           Mode         `json:"mode"`
	Guarantee      string       `json:"guarantee"`
	QuantityOnHand int64        `json:"quantity_on_hand"`
	Fabric         *FabricStock `json:"fabric,omitempty"`
}

// CurrentStock returns quantity_on_hand for a product.
func (s *Service) CurrentStock(ctx context.Context, productID core.ProductID) (int64, error) {
	p, err := s.store.GetProduct(ctx, productID)
	if err != nil {
		return 0, core.Storage("get product", err)
	}
	return CurrentLevel(ctx, s.store, *p)
}

// Stock returns the full view including the mode's guarantee.
func (s *Service) Stock(ctx context.Context, productID core.ProductID) (StockView, error) {
	p, err := s.store.GetProduct(ctx, productID)
	if err != nil {
		return StockView{}, core.Storage("get product", err)
	}
	mode, err := s.Settings().Mode(ctx)
	if err != nil {
		return StockView{}, err
	}
	qty, err := CurrentLevel(ctx, s.store, *p)
	if err != nil {
		return StockView{}, err
	}
	view := StockView{Product: *p, Mode: mode, Guarantee: mode.Guarantee(), QuantityOnHand: qty}
	if p.Type == core.ProductFabric {
		fs, err := s.store.FabricStock(ctx, p.ID)
		if err != nil {
			return StockView{}, core.Storage("read fabric stock", err)
		}
		view.Fabric = &fs
	}
	return view, nil
}

// FabricStock returns received/consumed/net for a fabric.
func (s *Service) FabricStock(ctx context.Context, productID core.ProductID) (FabricStock, error) {
	p, err := s.store.GetProduct(ctx, productID)
	if err != nil {
		return FabricStock{}, core.Storage("get product", err)
	}
	if p.Type != core.ProductFabric {
		return FabricStock{}, &core.ValidationError{Field: "product_id", Reason: fmt.Sprintf("product %d is a %s, not a fabric", p.ID, p.Type)}
	}
	fs, err := s.store.FabricStock(ctx, p.ID)
	return fs, core.Storage("read fabric stock", err)
}

// History returns the ledger for a product in replay order.
func (s *Service) History(ctx context.Context, productID core.ProductID) ([]Transaction, error) {
	if _, err := s.store.GetProduct(ctx, productID); err != nil {
		return nil, core.Storage("get product", err)
	}
	txs, err := s.store.ListByProduct(ctx, productID)
	if err != nil {
		return nil, core.Storage("list ledger", err)
	}
	if txs == nil {
		txs = []Transaction{}
	}
	return txs, nil
}

// =============================================================================
// RECONCILIATION
// =============================================================================

// ReconcileStock runs the checker under the current mode. A prod-mode
// divergence is logged as a critical health signal; callers inspect
// Report.Err to surface it.
func (s *Service) ReconcileStock(ctx context.Context) (Report, error) {
	mode, err := s.Settings().Mode(ctx)
	if err != nil {
		return Report{}, err
	}

	// Products, ledger sums and levels must come from one committed state,
	// or an append landing between the reads shows up as drift.
	var report Report
	err = s.store.WithSnapshot(ctx, func(r Reader) error {
		checker := NewChecker(r)
		checker.now = s.now
		var err error
		report, err = checker.Reconcile(ctx, mode)
		return err
	})
	if err != nil {
		return Report{}, core.Storage("reconcile stock", err)
	}

	if cerr := report.Err(); cerr != nil {
		ids := make([]int64, len(report.Divergences))
		for i, d := range report.Divergences {
			ids[i] = int64(d.ProductID)
		}
		s.log.Error().Err(cerr).
			Str("health", "critical").
			Ints64("product_ids", ids).
			Msg("stock projection diverges from ledger")
	} else if len(report.Divergences) > 0 {
		s.log.Info().
			Int("divergences", len(report.Divergences)).
			Str("mode", string(mode)).
			Msg("stock projection lags ledger")
	}
	return report, nil
}

// RebuildStock recomputes every StockLevel from the ledger in one unit.
func (s *Service) RebuildStock(ctx context.Context, actor core.ActorID) (int, error) {
	var n int
	err := s.store.WithTx(ctx, func(tx Tx) error {
		var err error
		n, err = Rebuild(ctx, tx, s.now().UTC())
		return err
	})
	if err != nil {
		return 0, core.Storage("rebuild stock", err)
	}
	s.log.Info().Int("products", n).Msg("stock projection rebuilt")
	s.audit.Record(ctx, actor, core.AuditStockRebuilt, "stock_levels", "*", map[string]any{"products": n})
	return n, nil
}

// =============================================================================
// MODE
// =============================================================================

func (s *Service) Mode(ctx context.Context) (Mode, error) {
	return s.Settings().Mode(ctx)
}

// SetMode validates and persists the flag. History is untouched.
func (s *Service) SetMode(ctx context.Context, mode Mode, actor core.ActorID) error {
	settings := s.Settings()
	previous, err := settings.Mode(ctx)
	if err != nil {
		return err
	}
	if err := settings.SetMode(ctx, mode); err != nil {
		return err
	}
	s.log.Info().Str("from", string(previous)).Str("to", string(mode)).Msg("inventory mode changed")
	s.audit.Record(ctx, actor, core.AuditModeChanged, "setting", ModeSettingKey, map[string]any{
		"from": previous,
		"to":   mode,
	})
	return nil
}
