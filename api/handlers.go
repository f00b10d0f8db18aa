/*
handlers.go - HTTP API handlers for the tailoring shop back office

PURPOSE:
  Exposes the inventory ledger and the order settlement engine over REST.
  Handles HTTP request/response and JSON, and delegates to the services.

ENDPOINTS:
  Catalog:
    GET    /api/products                      List products with stock (?type=)
    POST   /api/products                      Create product
    PUT    /api/products/{id}/price           Change catalog price

  Inventory:
    GET    /api/inventory/{id}                Stock view (mode, guarantee, fabric split)
    GET    /api/inventory/{id}/ledger         Ledger in replay order
    POST   /api/inventory/{id}/in             Goods received
    POST   /api/inventory/{id}/out            Sale or consumption
    POST   /api/inventory/{id}/corrections    Offsetting entry
    GET    /api/inventory/reconcile           Consistency report
    POST   /api/inventory/rebuild             Rebuild StockLevel from the ledger

  Settings:
    GET    /api/settings/mode                 Current inventory mode
    PUT    /api/settings/mode                 Switch mode

  Orders:
    GET    /api/orders                        List orders (?status=)
    POST   /api/orders                        Create order
    GET    /api/orders/{id}                   Order with items
    GET    /api/orders/{id}/payments          Payments and counted total
    POST   /api/orders/{id}/payments          Record payment
    POST   /api/orders/{id}/recompute         Re-derive status
    POST   /api/orders/{id}/cancel            Cancel
    POST   /api/orders/{id}/reopen            Reopen a completed order
    POST   /api/payments/{id}/verify          Verify a bank transfer

  Health and audit:
    GET    /api/health/stock                  503 when prod mode diverges
    GET    /api/audit                         Audit entries (?target_type=&target_id=)

ACTOR:
  Mutating routes require the X-Actor-ID header (see middleware.go).

ERROR HANDLING:
  Errors carry their category; writeError maps it to a status:
  - 400: Validation errors, invalid input
  - 404: Resource not found
  - 409: Conflict (duplicate SKU or order number)
  - 503: Consistency violation
  - 500: Everything else, with a generic message

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo data loaders
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/VincentYu328/luckystar-sub000/core"
	"github.com/VincentYu328/luckystar-sub000/inventory"
	"github.com/VincentYu328/luckystar-sub000/orders"
	"github.com/VincentYu328/luckystar-sub000/store/sqlite"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store     *sqlite.Store
	Inventory *inventory.Service
	Orders    *orders.Service
	Audit     *core.AuditRecorder

	log zerolog.Logger
}

// NewHandler creates a new handler over already constructed services.
func NewHandler(store *sqlite.Store, inv *inventory.Service, ord *orders.Service, audit *core.AuditRecorder, logger zerolog.Logger) *Handler {
	return &Handler{
		Store:     store,
		Inventory: inv,
		Orders:    ord,
		Audit:     audit,
		log:       logger.With().Str("component", "api").Logger(),
	}
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	writeError(w, r, h.log, err)
}

// =============================================================================
// CATALOG HANDLERS
// =============================================================================

// ListProducts returns the catalog with each product's quantity on hand.
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	typ := core.ProductType(r.URL.Query().Get("type"))
	if typ != "" && !typ.Valid() {
		h.fail(w, r, &core.ValidationError{Field: "type", Reason: "unknown product type"})
		return
	}

	products, err := h.Store.ListProducts(r.Context(), typ)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	dtos := make([]ProductDTO, len(products))
	for i, p := range products {
		qty, err := inventory.CurrentLevel(r.Context(), h.Store.Inventory(), p)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		dtos[i] = ProductDTO{Product: p, QuantityOnHand: qty}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateProduct adds a catalog entry.
func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req CreateProductRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	p := core.Product{SKU: req.SKU, Name: req.Name, Type: req.Type, Price: req.Price}
	if err := h.Store.CreateProduct(r.Context(), &p); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, ProductDTO{Product: p})
}

// UpdatePrice changes the catalog price. Order items keep their snapshot.
func (h *Handler) UpdatePrice(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var req UpdatePriceRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	before, err := h.Store.GetProduct(r.Context(), core.ProductID(id))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	p, err := h.Store.UpdatePrice(r.Context(), core.ProductID(id), req.Price)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	h.Audit.Record(r.Context(), actorFrom(r.Context()), core.AuditProductPriceSet, "product", strconv.FormatInt(id, 10), map[string]any{
		"from": before.Price.String(),
		"to":   p.Price.String(),
	})
	writeJSON(w, http.StatusOK, p)
}

// =============================================================================
// INVENTORY HANDLERS
// =============================================================================

// GetStock returns the stock view for one product.
func (h *Handler) GetStock(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	view, err := h.Inventory.Stock(r.Context(), core.ProductID(id))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// GetLedger returns the product's movements in replay order.
func (h *Handler) GetLedger(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	txs, err := h.Inventory.History(r.Context(), core.ProductID(id))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, LedgerResponse{ProductID: core.ProductID(id), Transactions: txs})
}

// RecordIncoming handles POST /inventory/{id}/in.
func (h *Handler) RecordIncoming(w http.ResponseWriter, r *http.Request) {
	h.recordMovement(w, r, h.Inventory.RecordIncoming)
}

// RecordOutgoing handles POST /inventory/{id}/out.
func (h *Handler) RecordOutgoing(w http.ResponseWriter, r *http.Request) {
	h.recordMovement(w, r, h.Inventory.RecordOutgoing)
}

type movementFunc func(ctx context.Context, id core.ProductID, quantity int64, meta inventory.Metadata) (inventory.TransactionID, error)

func (h *Handler) recordMovement(w http.ResponseWriter, r *http.Request, record movementFunc) {
	id, err := pathID(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var req MovementRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	txID, err := record(r.Context(), core.ProductID(id), req.Quantity, inventory.Metadata{
		ReferenceType: req.ReferenceType,
		ReferenceID:   req.ReferenceID,
		Reason:        req.Reason,
		OperatedBy:    actorFrom(r.Context()),
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeMovement(w, r, core.ProductID(id), txID)
}

// RecordCorrection appends an offsetting entry with a signed delta.
func (h *Handler) RecordCorrection(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var req CorrectionRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	txID, err := h.Inventory.RecordCorrection(r.Context(), core.ProductID(id), req.Delta, inventory.Metadata{
		ReferenceType: req.ReferenceType,
		ReferenceID:   req.ReferenceID,
		OperatedBy:    actorFrom(r.Context()),
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeMovement(w, r, core.ProductID(id), txID)
}

func (h *Handler) writeMovement(w http.ResponseWriter, r *http.Request, id core.ProductID, txID inventory.TransactionID) {
	view, err := h.Inventory.Stock(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, MovementResponse{
		TransactionID:  txID,
		QuantityOnHand: view.QuantityOnHand,
		Mode:           view.Mode,
	})
}

// Reconcile runs the consistency checker and returns its report. A prod-mode
// divergence is still a 200 here; /api/health/stock is the alerting surface.
func (h *Handler) Reconcile(w http.ResponseWriter, r *http.Request) {
	report, err := h.Inventory.ReconcileStock(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// Rebuild overwrites StockLevel with fresh ledger sums.
func (h *Handler) Rebuild(w http.ResponseWriter, r *http.Request) {
	n, err := h.Inventory.RebuildStock(r.Context(), actorFrom(r.Context()))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, RebuildResponse{Products: n})
}

// StockHealth reports 503 when prod mode shows drift.
func (h *Handler) StockHealth(w http.ResponseWriter, r *http.Request) {
	report, err := h.Inventory.ReconcileStock(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if report.Err() != nil {
		writeJSON(w, http.StatusServiceUnavailable, StockHealthDTO{Status: "critical", Report: report})
		return
	}
	writeJSON(w, http.StatusOK, StockHealthDTO{Status: "ok", Report: report})
}

// =============================================================================
// SETTINGS HANDLERS
// =============================================================================

func (h *Handler) GetMode(w http.ResponseWriter, r *http.Request) {
	mode, err := h.Inventory.Mode(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ModeDTO{Mode: mode, Guarantee: mode.Guarantee()})
}

func (h *Handler) SetMode(w http.ResponseWriter, r *http.Request) {
	var req SetModeRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	mode, err := inventory.ParseMode(req.Mode)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.Inventory.SetMode(r.Context(), mode, actorFrom(r.Context())); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ModeDTO{Mode: mode, Guarantee: mode.Guarantee()})
}

// =============================================================================
// ORDER HANDLERS
// =============================================================================

// ListOrders returns orders newest first, optionally filtered by status.
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	list, err := h.Orders.ListOrders(r.Context(), orders.Status(r.URL.Query().Get("status")))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// CreateOrder snapshots prices and writes the order with its items.
func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req CreateOrderRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	items := make([]orders.ItemRequest, len(req.Items))
	for i, it := range req.Items {
		items[i] = orders.ItemRequest{ProductID: it.ProductID, Quantity: it.Quantity, UnitPrice: it.UnitPrice}
	}
	order, err := h.Orders.CreateOrder(r.Context(), orders.CreateRequest{
		CustomerID:    req.CustomerID,
		Items:         items,
		Discount:      orders.Discount{Amount: req.Discount, Rate: req.DiscountRate},
		DepositAmount: req.DepositAmount,
		Actor:         actorFrom(r.Context()),
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, CreateOrderResponse{OrderID: order.ID, OrderNumber: order.OrderNumber, Order: order})
}

func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	order, err := h.Orders.GetOrder(r.Context(), orders.OrderID(id))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

// ListPayments returns payments and the total that counts toward settlement.
func (h *Handler) ListPayments(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	payments, paid, err := h.Orders.Payments(r.Context(), orders.OrderID(id))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, PaymentsResponse{OrderID: orders.OrderID(id), PaidTotal: paid, Payments: payments})
}

// RecordPayment appends a payment and settles the order in one unit.
func (h *Handler) RecordPayment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var req RecordPaymentRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	result, err := h.Orders.RecordPayment(r.Context(), orders.PaymentRequest{
		OrderID:  orders.OrderID(id),
		Amount:   req.Amount,
		Method:   req.Method,
		Verified: req.Verified,
		Actor:    actorFrom(r.Context()),
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

// VerifyTransfer marks a bank transfer as verified and re-settles its order.
func (h *Handler) VerifyTransfer(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	result, err := h.Orders.VerifyTransfer(r.Context(), orders.PaymentID(id), actorFrom(r.Context()))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) RecomputeStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	result, err := h.Orders.RecomputeStatus(r.Context(), orders.OrderID(id), actorFrom(r.Context()))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var req CancelOrderRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &req); err != nil {
			h.fail(w, r, err)
			return
		}
	}
	order, err := h.Orders.CancelOrder(r.Context(), orders.OrderID(id), actorFrom(r.Context()), req.Reason)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func (h *Handler) ReopenOrder(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var req ReopenOrderRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	order, err := h.Orders.ReopenOrder(r.Context(), orders.OrderID(id), req.Status, actorFrom(r.Context()), req.Reason)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

// =============================================================================
// AUDIT HANDLERS
// =============================================================================

// ListAudit returns audit entries for a target, oldest first.
func (h *Handler) ListAudit(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Get("target_type") == "" {
		h.fail(w, r, &core.ValidationError{Field: "target_type", Reason: "required"})
		return
	}
	limit := 0
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			h.fail(w, r, &core.ValidationError{Field: "limit", Reason: "must be a positive integer"})
			return
		}
		limit = n
	}
	entries, err := h.Store.ListAudit(r.Context(), q.Get("target_type"), q.Get("target_id"), limit)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}
