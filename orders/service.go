package orders

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/VincentYu328/luckystar-sub000/core"
)

// DefaultNumberAttempts bounds the order-number retry loop.
const DefaultNumberAttempts = 5

// =============================================================================
// SERVICE - Order creation and settlement
// =============================================================================

type Options struct {
	// NumberAttempts is how many order numbers CreateOrder tries before
	// surfacing the conflict.
	NumberAttempts int
	NewNumber      NumberGenerator

	Audit  *core.AuditRecorder
	Logger zerolog.Logger
	Now    func() time.Time
}

type Service struct {
	store     Store
	attempts  int
	newNumber NumberGenerator
	audit     *core.AuditRecorder
	log       zerolog.Logger
	now       func() time.Time
}

func NewService(store Store, opts Options) *Service {
	s := &Service{
		store:     store,
		attempts:  opts.NumberAttempts,
		newNumber: opts.NewNumber,
		audit:     opts.Audit,
		log:       opts.Logger.With().Str("component", "orders").Logger(),
		now:       opts.Now,
	}
	if s.attempts <= 0 {
		s.attempts = DefaultNumberAttempts
	}
	if s.newNumber == nil {
		s.newNumber = RandomNumber
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// =============================================================================
// CREATION
// =============================================================================

// CreateOrder writes the header and all items in one atomic unit. Unit prices
// are snapshotted from the catalog unless overridden. An order-number
// collision is retried with a fresh number.
func (s *Service) CreateOrder(ctx context.Context, req CreateRequest) (*Order, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	if req.Actor == "" {
		req.Actor = core.ActorSystem
	}

	var (
		order *Order
		err   error
	)
	for attempt := 1; attempt <= s.attempts; attempt++ {
		order, err = s.createOnce(ctx, req)
		if err == nil {
			break
		}
		if !errors.Is(err, ErrDuplicateOrderNumber) {
			return nil, core.Storage("create order", err)
		}
		s.log.Warn().Int("attempt", attempt).Err(err).Msg("order number collision, retrying")
	}
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Int64("order_id", int64(order.ID)).
		Str("order_number", order.OrderNumber).
		Str("total_amount", order.TotalAmount.StringFixed(2)).
		Int("items", len(order.Items)).
		Msg("order created")
	s.audit.Record(ctx, req.Actor, core.AuditOrderCreated, "order", orderTarget(order.ID), map[string]any{
		"order_number": order.OrderNumber,
		"total_amount": order.TotalAmount.StringFixed(2),
		"items":        len(order.Items),
		"status":       order.Status,
	})
	return order, nil
}

func (s *Service) createOnce(ctx context.Context, req CreateRequest) (*Order, error) {
	now := s.now().UTC()
	var order *Order
	err := s.store.WithTx(ctx, func(tx Tx) error {
		lines := make([]Item, 0, len(req.Items))
		for _, r := range req.Items {
			p, err := tx.GetProduct(ctx, r.ProductID)
			if err != nil {
				return err
			}
			price := p.Price
			if r.UnitPrice != nil {
				price = *r.UnitPrice
			}
			price = core.RoundMoney(price)
			lines = append(lines, Item{
				ProductID: r.ProductID,
				Quantity:  r.Quantity,
				UnitPrice: price,
				Subtotal:  LineSubtotal(price, r.Quantity),
			})
		}

		totals := ComputeTotals(lines, req.Discount)
		o := &Order{
			OrderNumber:   s.newNumber(now),
			CustomerID:    req.CustomerID,
			Status:        StatusPending,
			Subtotal:      totals.Subtotal,
			Discount:      totals.Discount,
			TotalAmount:   totals.Total,
			DepositAmount: core.RoundMoney(req.DepositAmount),
			CreatedBy:     req.Actor,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if err := tx.InsertOrder(ctx, o); err != nil {
			return err
		}
		for i := range lines {
			lines[i].OrderID = o.ID
			if err := tx.InsertItem(ctx, &lines[i]); err != nil {
				return core.Storage(fmt.Sprintf("insert item %d", i+1), err)
			}
		}
		o.Items = lines
		order = o
		return nil
	})
	return order, err
}

func (r CreateRequest) validate() error {
	if len(r.Items) == 0 {
		return &core.ValidationError{Field: "items", Reason: "at least one item is required", Err: ErrEmptyOrder}
	}
	for i, it := range r.Items {
		field := fmt.Sprintf("items[%d]", i)
		if it.ProductID <= 0 {
			return invalid(field+".product_id", "required")
		}
		if it.Quantity <= 0 {
			return invalid(field+".quantity", "must be greater than zero")
		}
		if it.UnitPrice != nil && it.UnitPrice.IsNegative() {
			return invalid(field+".unit_price", "must not be negative")
		}
	}
	if r.DepositAmount.IsNegative() {
		return invalid("deposit_amount", "must not be negative")
	}
	return r.Discount.Validate()
}

// =============================================================================
// SETTLEMENT
// =============================================================================

// RecordPayment appends a payment and re-derives the order status in the
// same atomic unit. A transfer counts only when verified is true or after
// VerifyTransfer.
func (s *Service) RecordPayment(ctx context.Context, req PaymentRequest) (Settlement, error) {
	if !req.Amount.IsPositive() {
		return Settlement{}, invalid("amount", "must be greater than zero")
	}
	if !req.Method.Valid() {
		return Settlement{}, invalid("method", fmt.Sprintf("unknown payment method %q", req.Method))
	}
	if req.Actor == "" {
		req.Actor = core.ActorSystem
	}

	now := s.now().UTC()
	var (
		result  Settlement
		payment Payment
	)
	err := s.store.WithTx(ctx, func(tx Tx) error {
		order, err := tx.GetOrder(ctx, req.OrderID)
		if err != nil {
			return err
		}
		if order.Status == StatusCancelled {
			return &core.ValidationError{Field: "order_id", Reason: "order is cancelled", Err: ErrOrderCancelled}
		}

		payment = Payment{
			OrderType: OrderTypeRetail,
			OrderID:   order.ID,
			Amount:    core.RoundMoney(req.Amount),
			Method:    req.Method,
			CreatedBy: req.Actor,
			CreatedAt: now,
		}
		if req.Verified && req.Method.RequiresVerification() {
			actor := req.Actor
			payment.TransferVerified = true
			payment.VerifiedBy = &actor
			payment.VerifiedAt = &now
		}
		if err := tx.InsertPayment(ctx, &payment); err != nil {
			return core.Storage("insert payment", err)
		}

		result, err = s.settle(ctx, tx, order, now)
		return err
	})
	if err != nil {
		return Settlement{}, core.Storage("record payment", err)
	}
	result.PaymentID = payment.ID

	s.log.Info().
		Int64("order_id", int64(req.OrderID)).
		Int64("payment_id", int64(payment.ID)).
		Str("amount", payment.Amount.StringFixed(2)).
		Str("method", string(payment.Method)).
		Str("status", string(result.Status)).
		Msg("payment recorded")
	s.audit.Record(ctx, req.Actor, core.AuditPaymentCreated, "payment", strconv.FormatInt(int64(payment.ID), 10), map[string]any{
		"order_id":          req.OrderID,
		"amount":            payment.Amount.StringFixed(2),
		"method":            payment.Method,
		"transfer_verified": payment.TransferVerified,
		"status":            result.Status,
	})
	s.recordTransition(ctx, req.Actor, result, "payment")
	return result, nil
}

// VerifyTransfer marks a transfer as verified and re-derives the order
// status. Verifying an already verified transfer changes nothing.
func (s *Service) VerifyTransfer(ctx context.Context, paymentID PaymentID, verifier core.ActorID) (Settlement, error) {
	if verifier == "" {
		return Settlement{}, invalid("verifier", "required")
	}

	now := s.now().UTC()
	var (
		result  Settlement
		payment *Payment
		fresh   bool
	)
	err := s.store.WithTx(ctx, func(tx Tx) error {
		var err error
		payment, err = tx.GetPayment(ctx, paymentID)
		if err != nil {
			return err
		}
		if !payment.Method.RequiresVerification() {
			return &core.ValidationError{Field: "payment_id", Reason: fmt.Sprintf("payment %d is %s, not a transfer", paymentID, payment.Method), Err: ErrNotTransfer}
		}
		if payment.OrderType != OrderTypeRetail {
			return invalid("payment_id", fmt.Sprintf("payment belongs to a %q order", payment.OrderType))
		}
		order, err := tx.GetOrder(ctx, payment.OrderID)
		if err != nil {
			return err
		}
		if !payment.TransferVerified {
			if err := tx.MarkPaymentVerified(ctx, paymentID, verifier, now); err != nil {
				return core.Storage("verify transfer", err)
			}
			fresh = true
		}
		result, err = s.settle(ctx, tx, order, now)
		return err
	})
	if err != nil {
		return Settlement{}, core.Storage("verify transfer", err)
	}
	result.PaymentID = paymentID

	if fresh {
		s.log.Info().
			Int64("payment_id", int64(paymentID)).
			Str("verifier", string(verifier)).
			Str("status", string(result.Status)).
			Msg("transfer verified")
		s.audit.Record(ctx, verifier, core.AuditTransferVerified, "payment", strconv.FormatInt(int64(paymentID), 10), map[string]any{
			"order_id": payment.OrderID,
			"amount":   payment.Amount.StringFixed(2),
			"status":   result.Status,
		})
	}
	s.recordTransition(ctx, verifier, result, "transfer_verified")
	return result, nil
}

// RecomputeStatus re-runs settlement from the full payment set. Running it
// again without new payments changes nothing.
func (s *Service) RecomputeStatus(ctx context.Context, id OrderID, actor core.ActorID) (Settlement, error) {
	now := s.now().UTC()
	var result Settlement
	err := s.store.WithTx(ctx, func(tx Tx) error {
		order, err := tx.GetOrder(ctx, id)
		if err != nil {
			return err
		}
		result, err = s.settle(ctx, tx, order, now)
		return err
	})
	if err != nil {
		return Settlement{}, core.Storage("recompute status", err)
	}
	s.recordTransition(ctx, actor, result, "recompute")
	return result, nil
}

// settle derives the status from the stored payments and writes it back when
// anything changed. It must run inside the unit that wrote the payment.
func (s *Service) settle(ctx context.Context, tx Tx, order *Order, now time.Time) (Settlement, error) {
	payments, err := tx.ListPayments(ctx, OrderTypeRetail, order.ID)
	if err != nil {
		return Settlement{}, core.Storage("list payments", err)
	}
	paid := PaidTotal(payments)
	next := Settle(order.Status, order.TotalAmount, paid)
	deposit := order.DepositPaid || DepositSettled(order.DepositAmount, paid)

	if next != order.Status || deposit != order.DepositPaid {
		if err := tx.UpdateOrderState(ctx, order.ID, next, deposit, now); err != nil {
			return Settlement{}, core.Storage("update order status", err)
		}
	}
	return Settlement{
		OrderID:     order.ID,
		Previous:    order.Status,
		Status:      next,
		PaidTotal:   paid,
		DepositPaid: deposit,
	}, nil
}

func (s *Service) recordTransition(ctx context.Context, actor core.ActorID, r Settlement, trigger string) {
	if !r.Changed() {
		return
	}
	s.log.Info().
		Int64("order_id", int64(r.OrderID)).
		Str("from", string(r.Previous)).
		Str("to", string(r.Status)).
		Str("trigger", trigger).
		Msg("order status changed")
	s.audit.Record(ctx, actor, core.AuditOrderStatus, "order", orderTarget(r.OrderID), map[string]any{
		"from":       r.Previous,
		"to":         r.Status,
		"paid_total": r.PaidTotal.StringFixed(2),
		"trigger":    trigger,
	})
}

// =============================================================================
// ADMINISTRATIVE TRANSITIONS
// =============================================================================

// CancelOrder moves a pending or confirmed order to cancelled.
func (s *Service) CancelOrder(ctx context.Context, id OrderID, actor core.ActorID, reason string) (*Order, error) {
	order, previous, err := s.transition(ctx, id, StatusCancelled, func(from Status) bool {
		return from == StatusPending || from == StatusConfirmed
	})
	if err != nil {
		return nil, err
	}
	s.log.Info().Int64("order_id", int64(id)).Str("from", string(previous)).Msg("order cancelled")
	s.audit.Record(ctx, actor, core.AuditOrderCancelled, "order", orderTarget(id), map[string]any{
		"from":   previous,
		"to":     StatusCancelled,
		"reason": reason,
	})
	return order, nil
}

// ReopenOrder is the explicit downgrade of a completed order to confirmed or
// pending. A reason is required; the move is audited.
func (s *Service) ReopenOrder(ctx context.Context, id OrderID, target Status, actor core.ActorID, reason string) (*Order, error) {
	if target != StatusPending && target != StatusConfirmed {
		return nil, invalid("status", fmt.Sprintf("reopen target must be %s or %s", StatusPending, StatusConfirmed))
	}
	if reason == "" {
		return nil, invalid("reason", "required")
	}
	order, previous, err := s.transition(ctx, id, target, func(from Status) bool {
		return from == StatusCompleted
	})
	if err != nil {
		return nil, err
	}
	s.log.Warn().Int64("order_id", int64(id)).Str("to", string(target)).Str("actor", string(actor)).Msg("order reopened")
	s.audit.Record(ctx, actor, core.AuditOrderReopened, "order", orderTarget(id), map[string]any{
		"from":   previous,
		"to":     target,
		"reason": reason,
	})
	return order, nil
}

func (s *Service) transition(ctx context.Context, id OrderID, to Status, allowed func(Status) bool) (*Order, Status, error) {
	now := s.now().UTC()
	var (
		order    *Order
		previous Status
	)
	err := s.store.WithTx(ctx, func(tx Tx) error {
		var err error
		order, err = tx.GetOrder(ctx, id)
		if err != nil {
			return err
		}
		previous = order.Status
		if !allowed(order.Status) {
			return &TransitionError{From: order.Status, To: to}
		}
		if err := tx.UpdateOrderState(ctx, id, to, order.DepositPaid, now); err != nil {
			return core.Storage("update order status", err)
		}
		order.Status = to
		order.UpdatedAt = now
		return nil
	})
	if err != nil {
		return nil, "", core.Storage("order transition", err)
	}
	return order, previous, nil
}

// =============================================================================
// READS
// =============================================================================

func (s *Service) GetOrder(ctx context.Context, id OrderID) (*Order, error) {
	o, err := s.store.GetOrder(ctx, id)
	return o, core.Storage("get order", err)
}

func (s *Service) ListOrders(ctx context.Context, status Status) ([]Order, error) {
	if status != "" && !status.Valid() {
		return nil, invalid("status", fmt.Sprintf("unknown status %q", status))
	}
	orders, err := s.store.ListOrders(ctx, status)
	if err != nil {
		return nil, core.Storage("list orders", err)
	}
	if orders == nil {
		orders = []Order{}
	}
	return orders, nil
}

// Payments returns the order's payments and the amount that currently counts.
func (s *Service) Payments(ctx context.Context, id OrderID) ([]Payment, decimal.Decimal, error) {
	if _, err := s.store.GetOrder(ctx, id); err != nil {
		return nil, decimal.Zero, core.Storage("get order", err)
	}
	payments, err := s.store.ListPayments(ctx, OrderTypeRetail, id)
	if err != nil {
		return nil, decimal.Zero, core.Storage("list payments", err)
	}
	if payments == nil {
		payments = []Payment{}
	}
	return payments, PaidTotal(payments), nil
}

func orderTarget(id OrderID) string { return strconv.FormatInt(int64(id), 10) }
