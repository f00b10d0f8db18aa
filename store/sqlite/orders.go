package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/VincentYu328/luckystar-sub000/core"
	"github.com/VincentYu328/luckystar-sub000/orders"
)

// =============================================================================
// ORDER STORE (orders.Store interface)
// =============================================================================

// OrderStore is the orders.Store view of the database.
type OrderStore struct {
	conn
	s *Store
}

// WithTx executes fn within a database transaction.
// If fn returns error, transaction is rolled back.
func (o *OrderStore) WithTx(ctx context.Context, fn func(orders.Tx) error) error {
	return o.s.withTx(ctx, func(tx *txStore) error { return fn(tx) })
}

const orderColumns = `id, order_number, customer_id, status, subtotal, discount, total_amount,
	deposit_amount, deposit_paid, created_by, created_at, updated_at`

const paymentColumns = `id, order_type, order_id, amount, method, transfer_verified,
	verified_by, verified_at, created_by, created_at`

// =============================================================================
// READS
// =============================================================================

func (c conn) GetOrder(ctx context.Context, id orders.OrderID) (*orders.Order, error) {
	var o orders.Order
	err := sqlx.GetContext(ctx, c.q, &o, `SELECT `+orderColumns+` FROM orders WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, orders.OrderNotFound(id)
	}
	if err != nil {
		return nil, core.Storage("get order", err)
	}

	err = sqlx.SelectContext(ctx, c.q, &o.Items, `
		SELECT id, order_id, product_id, quantity, unit_price, subtotal
		FROM order_items WHERE order_id = ? ORDER BY id`, id)
	if err != nil {
		return nil, core.Storage("list order items", err)
	}
	return &o, nil
}

func (c conn) ListOrders(ctx context.Context, status orders.Status) ([]orders.Order, error) {
	var list []orders.Order
	var err error
	if status == "" {
		err = sqlx.SelectContext(ctx, c.q, &list,
			`SELECT `+orderColumns+` FROM orders ORDER BY created_at DESC, id DESC`)
	} else {
		err = sqlx.SelectContext(ctx, c.q, &list,
			`SELECT `+orderColumns+` FROM orders WHERE status = ? ORDER BY created_at DESC, id DESC`, status)
	}
	if err != nil {
		return nil, core.Storage("list orders", err)
	}
	return list, nil
}

func (c conn) GetPayment(ctx context.Context, id orders.PaymentID) (*orders.Payment, error) {
	var p orders.Payment
	err := sqlx.GetContext(ctx, c.q, &p, `SELECT `+paymentColumns+` FROM payments WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, orders.PaymentNotFound(id)
	}
	if err != nil {
		return nil, core.Storage("get payment", err)
	}
	return &p, nil
}

func (c conn) ListPayments(ctx context.Context, orderType string, orderID orders.OrderID) ([]orders.Payment, error) {
	var payments []orders.Payment
	err := sqlx.SelectContext(ctx, c.q, &payments, `
		SELECT `+paymentColumns+` FROM payments
		WHERE order_type = ? AND order_id = ?
		ORDER BY id`, orderType, orderID)
	if err != nil {
		return nil, core.Storage("list payments", err)
	}
	return payments, nil
}

// =============================================================================
// WRITES (orders.Writer, transaction only)
// =============================================================================

func (ts *txStore) InsertOrder(ctx context.Context, o *orders.Order) error {
	res, err := sqlx.NamedExecContext(ctx, ts.q, `
		INSERT INTO orders (
			order_number, customer_id, status, subtotal, discount, total_amount,
			deposit_amount, deposit_paid, created_by, created_at, updated_at
		) VALUES (
			:order_number, :customer_id, :status, :subtotal, :discount, :total_amount,
			:deposit_amount, :deposit_paid, :created_by, :created_at, :updated_at
		)`, o)
	if isUniqueViolation(err, "orders.order_number") {
		return orders.DuplicateOrderNumber(o.OrderNumber)
	}
	if err != nil {
		return core.Storage("insert order", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Storage("insert order", err)
	}
	o.ID = orders.OrderID(id)
	return nil
}

func (ts *txStore) InsertItem(ctx context.Context, it *orders.Item) error {
	res, err := sqlx.NamedExecContext(ctx, ts.q, `
		INSERT INTO order_items (order_id, product_id, quantity, unit_price, subtotal)
		VALUES (:order_id, :product_id, :quantity, :unit_price, :subtotal)`, it)
	if err != nil {
		return core.Storage("insert order item", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Storage("insert order item", err)
	}
	it.ID = id
	return nil
}

func (ts *txStore) UpdateOrderState(ctx context.Context, id orders.OrderID, status orders.Status, depositPaid bool, at time.Time) error {
	res, err := ts.q.ExecContext(ctx,
		`UPDATE orders SET status = ?, deposit_paid = ?, updated_at = ? WHERE id = ?`,
		status, depositPaid, at, id)
	if err != nil {
		return core.Storage("update order status", err)
	}
	n, err := rowsAffected(res, "update order status")
	if err != nil {
		return err
	}
	if n == 0 {
		return orders.OrderNotFound(id)
	}
	return nil
}

func (ts *txStore) InsertPayment(ctx context.Context, p *orders.Payment) error {
	res, err := sqlx.NamedExecContext(ctx, ts.q, `
		INSERT INTO payments (
			order_type, order_id, amount, method, transfer_verified,
			verified_by, verified_at, created_by, created_at
		) VALUES (
			:order_type, :order_id, :amount, :method, :transfer_verified,
			:verified_by, :verified_at, :created_by, :created_at
		)`, p)
	if err != nil {
		return core.Storage("insert payment", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Storage("insert payment", err)
	}
	p.ID = orders.PaymentID(id)
	return nil
}

func (ts *txStore) MarkPaymentVerified(ctx context.Context, id orders.PaymentID, verifier core.ActorID, at time.Time) error {
	res, err := ts.q.ExecContext(ctx, `
		UPDATE payments SET transfer_verified = 1, verified_by = ?, verified_at = ?
		WHERE id = ? AND transfer_verified = 0`, verifier, at, id)
	if err != nil {
		return core.Storage("verify payment", err)
	}
	n, err := rowsAffected(res, "verify payment")
	if err != nil {
		return err
	}
	if n == 0 {
		return orders.PaymentNotFound(id)
	}
	return nil
}
