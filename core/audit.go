package core

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// =============================================================================
// AUDIT LOG - Separate from the ledger, tracks who did what when
// =============================================================================

type AuditAction string

const (
	AuditStockIncoming    AuditAction = "stock_incoming"
	AuditStockOutgoing    AuditAction = "stock_outgoing"
	AuditStockCorrection  AuditAction = "stock_correction"
	AuditStockRebuilt     AuditAction = "stock_rebuilt"
	AuditModeChanged      AuditAction = "inventory_mode_changed"
	AuditOrderCreated     AuditAction = "order_created"
	AuditOrderStatus      AuditAction = "order_status_changed"
	AuditOrderCancelled   AuditAction = "order_cancelled"
	AuditOrderReopened    AuditAction = "order_reopened"
	AuditPaymentCreated   AuditAction = "payment_created"
	AuditTransferVerified AuditAction = "transfer_verified"
	AuditProductPriceSet  AuditAction = "product_price_changed"
	AuditScenarioLoaded   AuditAction = "scenario_loaded"
)

// AuditEntry records who did what when.
type AuditEntry struct {
	ID         string         `json:"id"`
	ActorID    ActorID        `json:"actor_id"`
	Action     AuditAction    `json:"action"`
	TargetType string         `json:"target_type"`
	TargetID   string         `json:"target_id"`
	Details    map[string]any `json:"details,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}

// AuditSink persists audit entries. Append-only.
type AuditSink interface {
	AppendAudit(ctx context.Context, entry AuditEntry) error
}

// AuditRecorder is the fire-and-forget front of an AuditSink. A failed write
// never reaches the caller; it is logged instead.
type AuditRecorder struct {
	Sink   AuditSink
	Logger zerolog.Logger
	Now    func() time.Time
}

func NewAuditRecorder(sink AuditSink, logger zerolog.Logger) *AuditRecorder {
	return &AuditRecorder{Sink: sink, Logger: logger, Now: time.Now}
}

// Record writes one entry. Safe on a nil recorder or nil sink.
func (r *AuditRecorder) Record(ctx context.Context, actor ActorID, action AuditAction, targetType, targetID string, details map[string]any) {
	if r == nil || r.Sink == nil {
		return
	}
	now := time.Now
	if r.Now != nil {
		now = r.Now
	}
	entry := AuditEntry{
		ID:         uuid.NewString(),
		ActorID:    actor,
		Action:     action,
		TargetType: targetType,
		TargetID:   targetID,
		Details:    details,
		CreatedAt:  now().UTC(),
	}
	if err := r.Sink.AppendAudit(ctx, entry); err != nil {
		r.Logger.Warn().Err(err).
			Str("actor", string(actor)).
			Str("action", string(action)).
			Str("target_type", targetType).
			Str("target_id", targetID).
			Msg("audit write failed")
	}
}
