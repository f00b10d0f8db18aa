package orders_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/VincentYu328/luckystar-sub000/core"
	"github.com/VincentYu328/luckystar-sub000/orders"
	"github.com/VincentYu328/luckystar-sub000/store/sqlite"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

var fixedNow = time.Date(2025, time.March, 3, 10, 0, 0, 0, time.UTC)

func newTestStore(t *testing.T) *sqlite.Store {
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func addProduct(t *testing.T, store *sqlite.Store, sku string, typ core.ProductType, price string) core.ProductID {
	p := &core.Product{SKU: sku, Name: sku, Type: typ, Price: money(price)}
	require.NoError(t, store.CreateProduct(context.Background(), p))
	return p.ID
}

// sequence returns the given numbers in order, then a fresh one per call.
func sequence(numbers ...string) orders.NumberGenerator {
	i := 0
	return func(time.Time) string {
		i++
		if i <= len(numbers) {
			return numbers[i-1]
		}
		return fmt.Sprintf("ORD-20250303-%06d", 900000+i)
	}
}

func newTestService(store orders.Store, opts orders.Options) *orders.Service {
	opts.Logger = zerolog.Nop()
	opts.Now = func() time.Time { return fixedNow }
	return orders.NewService(store, opts)
}

// failingStore fails the n-th item insert of every unit.
type failingStore struct {
	orders.Store
	failOnItem int
}

func (f failingStore) WithTx(ctx context.Context, fn func(orders.Tx) error) error {
	return f.Store.WithTx(ctx, func(tx orders.Tx) error {
		return fn(&failingTx{Tx: tx, failOn: f.failOnItem})
	})
}

type failingTx struct {
	orders.Tx
	failOn int
	n      int
}

func (f *failingTx) InsertItem(ctx context.Context, it *orders.Item) error {
	f.n++
	if f.n == f.failOn {
		return errors.New("disk I/O error")
	}
	return f.Tx.InsertItem(ctx, it)
}

// createOrder builds a single-line order worth total.
func createOrder(t *testing.T, svc *orders.Service, productID core.ProductID, total string) *orders.Order {
	price := money(total)
	order, err := svc.CreateOrder(context.Background(), orders.CreateRequest{
		Items: []orders.ItemRequest{{ProductID: productID, Quantity: 1, UnitPrice: &price}},
		Actor: "clerk-1",
	})
	require.NoError(t, err)
	return order
}

// =============================================================================
// ORDER CREATION
// =============================================================================

func TestCreateOrder_SnapshotsPricesAndTotals(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	shirt := addProduct(t, store, "SH-001", core.ProductGarment, "45.00")
	linen := addProduct(t, store, "FB-LIN", core.ProductFabric, "12.50")
	svc := newTestService(store.Orders(), orders.Options{})

	override := money("40")
	customer := int64(77)
	order, err := svc.CreateOrder(ctx, orders.CreateRequest{
		CustomerID: &customer,
		Items: []orders.ItemRequest{
			{ProductID: shirt, Quantity: 2},
			{ProductID: linen, Quantity: 3},
			{ProductID: shirt, Quantity: 1, UnitPrice: &override},
		},
		Discount:      orders.Discount{Amount: money("10")},
		DepositAmount: money("50"),
		Actor:         "clerk-1",
	})
	require.NoError(t, err)

	assert.NotZero(t, order.ID)
	assert.Regexp(t, `^ORD-20250303-\d{6}$`, order.OrderNumber)
	assert.Equal(t, orders.StatusPending, order.Status)
	assert.Equal(t, "167.50", order.Subtotal.StringFixed(2))
	assert.Equal(t, "10.00", order.Discount.StringFixed(2))
	assert.Equal(t, "157.50", order.TotalAmount.StringFixed(2))
	require.Len(t, order.Items, 3)
	assert.Equal(t, "40.00", order.Items[2].UnitPrice.StringFixed(2))

	stored, err := svc.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.OrderNumber, stored.OrderNumber)
	require.NotNil(t, stored.CustomerID)
	assert.Equal(t, int64(77), *stored.CustomerID)
	assert.True(t, stored.TotalAmount.Equal(order.TotalAmount))
	assert.True(t, stored.DepositAmount.Equal(money("50")))
	assert.Equal(t, core.ActorID("clerk-1"), stored.CreatedBy)
	require.Len(t, stored.Items, 3)
	assert.Equal(t, "90.00", stored.Items[0].Subtotal.StringFixed(2))
	assert.Equal(t, "37.50", stored.Items[1].Subtotal.StringFixed(2))
}

func TestCreateOrder_PriceSnapshotSurvivesCatalogChange(t *testing.T) {
	// GIVEN: an order for a shirt at 45
	// WHEN: the catalog price changes to 60
	// THEN: the order still says 45
	store := newTestStore(t)
	ctx := context.Background()
	shirt := addProduct(t, store, "SH-001", core.ProductGarment, "45.00")
	svc := newTestService(store.Orders(), orders.Options{})

	order, err := svc.CreateOrder(ctx, orders.CreateRequest{
		Items: []orders.ItemRequest{{ProductID: shirt, Quantity: 2}},
	})
	require.NoError(t, err)

	_, err = store.UpdatePrice(ctx, shirt, money("60"))
	require.NoError(t, err)

	stored, err := svc.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, "45.00", stored.Items[0].UnitPrice.StringFixed(2))
	assert.Equal(t, "90.00", stored.Items[0].Subtotal.StringFixed(2))
	assert.Equal(t, "90.00", stored.TotalAmount.StringFixed(2))
}

func TestCreateOrder_IsAtomicWhenItemInsertFails(t *testing.T) {
	// GIVEN: a store whose second item insert fails
	// WHEN: a 3-line order is created
	// THEN: no order row and no item rows exist afterward
	store := newTestStore(t)
	ctx := context.Background()
	shirt := addProduct(t, store, "SH-001", core.ProductGarment, "45.00")
	svc := newTestService(failingStore{Store: store.Orders(), failOnItem: 2}, orders.Options{})

	_, err := svc.CreateOrder(ctx, orders.CreateRequest{
		Items: []orders.ItemRequest{
			{ProductID: shirt, Quantity: 1},
			{ProductID: shirt, Quantity: 2},
			{ProductID: shirt, Quantity: 3},
		},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrStorage)

	list, err := store.Orders().ListOrders(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, list)
	_, err = store.Orders().GetOrder(ctx, 1)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestCreateOrder_UnknownProductAbortsWholeOrder(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	shirt := addProduct(t, store, "SH-001", core.ProductGarment, "45.00")
	svc := newTestService(store.Orders(), orders.Options{})

	_, err := svc.CreateOrder(ctx, orders.CreateRequest{
		Items: []orders.ItemRequest{
			{ProductID: shirt, Quantity: 1},
			{ProductID: 999, Quantity: 1},
			{ProductID: shirt, Quantity: 1},
		},
	})
	assert.ErrorIs(t, err, core.ErrProductNotFound)

	list, err := store.Orders().ListOrders(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestCreateOrder_Validation(t *testing.T) {
	store := newTestStore(t)
	shirt := addProduct(t, store, "SH-001", core.ProductGarment, "45.00")
	svc := newTestService(store.Orders(), orders.Options{})
	negative := money("-1")

	cases := map[string]orders.CreateRequest{
		"no items":        {},
		"zero quantity":   {Items: []orders.ItemRequest{{ProductID: shirt}}},
		"missing product": {Items: []orders.ItemRequest{{Quantity: 1}}},
		"negative price":  {Items: []orders.ItemRequest{{ProductID: shirt, Quantity: 1, UnitPrice: &negative}}},
		"bad rate":        {Items: []orders.ItemRequest{{ProductID: shirt, Quantity: 1}}, Discount: orders.Discount{Rate: money("2")}},
		"negative deposit": {Items: []orders.ItemRequest{{ProductID: shirt, Quantity: 1}},
			DepositAmount: money("-5")},
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.CreateOrder(context.Background(), req)
			assert.ErrorIs(t, err, core.ErrValidation)
		})
	}

	_, err := svc.CreateOrder(context.Background(), orders.CreateRequest{})
	assert.ErrorIs(t, err, orders.ErrEmptyOrder)
}

func TestCreateOrder_RetriesDuplicateOrderNumber(t *testing.T) {
	store := newTestStore(t)
	shirt := addProduct(t, store, "SH-001", core.ProductGarment, "45.00")
	svc := newTestService(store.Orders(), orders.Options{
		NewNumber: sequence("ORD-20250303-000001", "ORD-20250303-000001", "ORD-20250303-000002"),
	})

	first := createOrder(t, svc, shirt, "10")
	second := createOrder(t, svc, shirt, "10")
	assert.Equal(t, "ORD-20250303-000001", first.OrderNumber)
	assert.Equal(t, "ORD-20250303-000002", second.OrderNumber)
}

func TestCreateOrder_GivesUpAfterAttempts(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	shirt := addProduct(t, store, "SH-001", core.ProductGarment, "45.00")
	svc := newTestService(store.Orders(), orders.Options{
		NumberAttempts: 3,
		NewNumber:      func(time.Time) string { return "ORD-20250303-000001" },
	})

	createOrder(t, svc, shirt, "10")
	_, err := svc.CreateOrder(ctx, orders.CreateRequest{Items: []orders.ItemRequest{{ProductID: shirt, Quantity: 1}}})
	assert.ErrorIs(t, err, orders.ErrDuplicateOrderNumber)
	assert.ErrorIs(t, err, core.ErrConflict)
	assert.True(t, core.IsRetryable(err))
}

// =============================================================================
// SETTLEMENT
// =============================================================================

func TestRecordPayment_PartialThenFull(t *testing.T) {
	// GIVEN: an order with total_amount = 100
	// WHEN: verified payments of 40 and then 60 arrive
	// THEN: confirmed, then completed
	store := newTestStore(t)
	ctx := context.Background()
	shirt := addProduct(t, store, "SH-001", core.ProductGarment, "45.00")
	svc := newTestService(store.Orders(), orders.Options{})
	order := createOrder(t, svc, shirt, "100")

	res, err := svc.RecordPayment(ctx, orders.PaymentRequest{OrderID: order.ID, Amount: money("40"), Method: orders.MethodCash, Actor: "clerk-1"})
	require.NoError(t, err)
	assert.NotZero(t, res.PaymentID)
	assert.Equal(t, orders.StatusPending, res.Previous)
	assert.Equal(t, orders.StatusConfirmed, res.Status)
	assert.Equal(t, "40.00", res.PaidTotal.StringFixed(2))

	res, err = svc.RecordPayment(ctx, orders.PaymentRequest{OrderID: order.ID, Amount: money("60"), Method: orders.MethodCard, Actor: "clerk-1"})
	require.NoError(t, err)
	assert.Equal(t, orders.StatusCompleted, res.Status)

	stored, err := svc.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, orders.StatusCompleted, stored.Status)
}

func TestRecordPayment_TransferWaitsForVerification(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	shirt := addProduct(t, store, "SH-001", core.ProductGarment, "45.00")
	svc := newTestService(store.Orders(), orders.Options{})
	order := createOrder(t, svc, shirt, "100")

	res, err := svc.RecordPayment(ctx, orders.PaymentRequest{OrderID: order.ID, Amount: money("100"), Method: orders.MethodTransfer, Actor: "clerk-1"})
	require.NoError(t, err)
	assert.Equal(t, orders.StatusPending, res.Status)
	assert.True(t, res.PaidTotal.IsZero())

	res, err = svc.VerifyTransfer(ctx, res.PaymentID, "manager-1")
	require.NoError(t, err)
	assert.Equal(t, orders.StatusCompleted, res.Status)
	assert.Equal(t, orders.StatusPending, res.Previous)

	payments, paid, err := svc.Payments(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, payments, 1)
	assert.True(t, payments[0].TransferVerified)
	require.NotNil(t, payments[0].VerifiedBy)
	assert.Equal(t, core.ActorID("manager-1"), *payments[0].VerifiedBy)
	require.NotNil(t, payments[0].VerifiedAt)
	assert.True(t, paid.Equal(money("100")))

	again, err := svc.VerifyTransfer(ctx, res.PaymentID, "manager-1")
	require.NoError(t, err)
	assert.False(t, again.Changed())
}

func TestRecordPayment_PreverifiedTransferCounts(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	shirt := addProduct(t, store, "SH-001", core.ProductGarment, "45.00")
	svc := newTestService(store.Orders(), orders.Options{})
	order := createOrder(t, svc, shirt, "100")

	res, err := svc.RecordPayment(ctx, orders.PaymentRequest{OrderID: order.ID, Amount: money("30"), Method: orders.MethodTransfer, Verified: true, Actor: "manager-1"})
	require.NoError(t, err)
	assert.Equal(t, orders.StatusConfirmed, res.Status)
}

func TestVerifyTransfer_RejectsNonTransfer(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	shirt := addProduct(t, store, "SH-001", core.ProductGarment, "45.00")
	svc := newTestService(store.Orders(), orders.Options{})
	order := createOrder(t, svc, shirt, "100")

	res, err := svc.RecordPayment(ctx, orders.PaymentRequest{OrderID: order.ID, Amount: money("10"), Method: orders.MethodCash})
	require.NoError(t, err)
	_, err = svc.VerifyTransfer(ctx, res.PaymentID, "manager-1")
	assert.ErrorIs(t, err, orders.ErrNotTransfer)

	_, err = svc.VerifyTransfer(ctx, 999, "manager-1")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestRecordPayment_CompletedIsMonotonic(t *testing.T) {
	// GIVEN: a completed order
	// WHEN: an overpayment correction arrives
	// THEN: status stays completed
	store := newTestStore(t)
	ctx := context.Background()
	shirt := addProduct(t, store, "SH-001", core.ProductGarment, "45.00")
	svc := newTestService(store.Orders(), orders.Options{})
	order := createOrder(t, svc, shirt, "100")

	_, err := svc.RecordPayment(ctx, orders.PaymentRequest{OrderID: order.ID, Amount: money("120"), Method: orders.MethodCash})
	require.NoError(t, err)
	res, err := svc.RecordPayment(ctx, orders.PaymentRequest{OrderID: order.ID, Amount: money("5"), Method: orders.MethodOther})
	require.NoError(t, err)
	assert.Equal(t, orders.StatusCompleted, res.Status)
	assert.False(t, res.Changed())
	assert.Equal(t, "125.00", res.PaidTotal.StringFixed(2))
}

func TestRecomputeStatus_IsIdempotent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	shirt := addProduct(t, store, "SH-001", core.ProductGarment, "45.00")
	svc := newTestService(store.Orders(), orders.Options{})
	order := createOrder(t, svc, shirt, "100")

	_, err := svc.RecordPayment(ctx, orders.PaymentRequest{OrderID: order.ID, Amount: money("40"), Method: orders.MethodCash})
	require.NoError(t, err)

	first, err := svc.RecomputeStatus(ctx, order.ID, "admin-1")
	require.NoError(t, err)
	second, err := svc.RecomputeStatus(ctx, order.ID, "admin-1")
	require.NoError(t, err)
	assert.Equal(t, orders.StatusConfirmed, first.Status)
	assert.Equal(t, first.Status, second.Status)
	assert.False(t, second.Changed())
}

func TestRecordPayment_Validation(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	shirt := addProduct(t, store, "SH-001", core.ProductGarment, "45.00")
	svc := newTestService(store.Orders(), orders.Options{})
	order := createOrder(t, svc, shirt, "100")

	_, err := svc.RecordPayment(ctx, orders.PaymentRequest{OrderID: order.ID, Amount: decimal.Zero, Method: orders.MethodCash})
	assert.ErrorIs(t, err, core.ErrValidation)
	_, err = svc.RecordPayment(ctx, orders.PaymentRequest{OrderID: order.ID, Amount: money("1"), Method: "cheque"})
	assert.ErrorIs(t, err, core.ErrValidation)
	_, err = svc.RecordPayment(ctx, orders.PaymentRequest{OrderID: 999, Amount: money("1"), Method: orders.MethodCash})
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestDepositPaid(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	shirt := addProduct(t, store, "SH-001", core.ProductGarment, "45.00")
	svc := newTestService(store.Orders(), orders.Options{})
	price := money("200")
	order, err := svc.CreateOrder(ctx, orders.CreateRequest{
		Items:         []orders.ItemRequest{{ProductID: shirt, Quantity: 1, UnitPrice: &price}},
		DepositAmount: money("50"),
	})
	require.NoError(t, err)

	res, err := svc.RecordPayment(ctx, orders.PaymentRequest{OrderID: order.ID, Amount: money("20"), Method: orders.MethodCash})
	require.NoError(t, err)
	assert.False(t, res.DepositPaid)

	res, err = svc.RecordPayment(ctx, orders.PaymentRequest{OrderID: order.ID, Amount: money("30"), Method: orders.MethodCash})
	require.NoError(t, err)
	assert.True(t, res.DepositPaid)

	stored, err := svc.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.True(t, stored.DepositPaid)
	assert.Equal(t, orders.StatusConfirmed, stored.Status)
}

// =============================================================================
// ADMINISTRATIVE TRANSITIONS
// =============================================================================

func TestCancelOrder(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	shirt := addProduct(t, store, "SH-001", core.ProductGarment, "45.00")
	svc := newTestService(store.Orders(), orders.Options{})

	pending := createOrder(t, svc, shirt, "100")
	cancelled, err := svc.CancelOrder(ctx, pending.ID, "manager-1", "customer changed mind")
	require.NoError(t, err)
	assert.Equal(t, orders.StatusCancelled, cancelled.Status)

	_, err = svc.RecordPayment(ctx, orders.PaymentRequest{OrderID: pending.ID, Amount: money("10"), Method: orders.MethodCash})
	assert.ErrorIs(t, err, orders.ErrOrderCancelled)

	_, err = svc.CancelOrder(ctx, pending.ID, "manager-1", "again")
	var terr *orders.TransitionError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, orders.StatusCancelled, terr.From)
}

func TestCancelOrder_NotFromCompleted(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	shirt := addProduct(t, store, "SH-001", core.ProductGarment, "45.00")
	svc := newTestService(store.Orders(), orders.Options{})
	order := createOrder(t, svc, shirt, "100")

	_, err := svc.RecordPayment(ctx, orders.PaymentRequest{OrderID: order.ID, Amount: money("100"), Method: orders.MethodCash})
	require.NoError(t, err)

	_, err = svc.CancelOrder(ctx, order.ID, "manager-1", "")
	assert.ErrorIs(t, err, orders.ErrInvalidTransition)
	assert.ErrorIs(t, err, core.ErrValidation)
}

func TestReopenOrder_ExplicitDowngrade(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	shirt := addProduct(t, store, "SH-001", core.ProductGarment, "45.00")
	audit := core.NewAuditRecorder(store, zerolog.Nop())
	svc := newTestService(store.Orders(), orders.Options{Audit: audit})
	order := createOrder(t, svc, shirt, "100")

	_, err := svc.RecordPayment(ctx, orders.PaymentRequest{OrderID: order.ID, Amount: money("100"), Method: orders.MethodCash})
	require.NoError(t, err)

	_, err = svc.ReopenOrder(ctx, order.ID, orders.StatusCompleted, "admin-1", "refund")
	assert.ErrorIs(t, err, core.ErrValidation)
	_, err = svc.ReopenOrder(ctx, order.ID, orders.StatusConfirmed, "admin-1", "")
	assert.ErrorIs(t, err, core.ErrValidation)

	reopened, err := svc.ReopenOrder(ctx, order.ID, orders.StatusConfirmed, "admin-1", "partial refund issued")
	require.NoError(t, err)
	assert.Equal(t, orders.StatusConfirmed, reopened.Status)

	entries, err := store.ListAudit(ctx, "order", fmt.Sprint(order.ID), 0)
	require.NoError(t, err)
	var actions []core.AuditAction
	for _, e := range entries {
		actions = append(actions, e.Action)
	}
	assert.Equal(t, []core.AuditAction{
		core.AuditOrderCreated,
		core.AuditOrderStatus,
		core.AuditOrderReopened,
	}, actions)
	assert.Equal(t, core.ActorID("admin-1"), entries[2].ActorID)
	assert.Equal(t, "partial refund issued", entries[2].Details["reason"])

	_, err = svc.ReopenOrder(ctx, order.ID, orders.StatusPending, "admin-1", "twice")
	assert.ErrorIs(t, err, orders.ErrInvalidTransition)
}

func TestPaymentAuditCarriesActorAmountAndStatus(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	shirt := addProduct(t, store, "SH-001", core.ProductGarment, "45.00")
	svc := newTestService(store.Orders(), orders.Options{Audit: core.NewAuditRecorder(store, zerolog.Nop())})
	order := createOrder(t, svc, shirt, "100")

	res, err := svc.RecordPayment(ctx, orders.PaymentRequest{OrderID: order.ID, Amount: money("40"), Method: orders.MethodCash, Actor: "clerk-2"})
	require.NoError(t, err)

	entries, err := store.ListAudit(ctx, "payment", fmt.Sprint(res.PaymentID), 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	e := entries[0]
	assert.Equal(t, core.AuditPaymentCreated, e.Action)
	assert.Equal(t, core.ActorID("clerk-2"), e.ActorID)
	assert.Equal(t, "40.00", e.Details["amount"])
	assert.Equal(t, string(orders.StatusConfirmed), e.Details["status"])
}
