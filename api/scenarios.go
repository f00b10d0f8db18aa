/*
scenarios.go - Demo scenario loaders for development and demonstrations

PURPOSE:
  Populates the database with a small tailoring shop: fabrics by the metre,
  finished garments, opening balances and a handful of orders in different
  settlement states.

AVAILABLE SCENARIOS:
  starter-catalog:  Fabrics and garments with opening stock
  open-orders:      Starter catalog plus orders in pending, confirmed and
                    completed states, one with an unverified bank transfer

HOW SCENARIOS WORK:
  1. Require dev inventory mode
  2. Create catalog entries that do not exist yet (matched by SKU)
  3. Record opening balances for newly created products only
  4. Create orders and payments through the order service
  5. Audit the load

  Loading the catalog twice is harmless. Orders are appended on every load.

USAGE VIA API:
  POST /api/scenarios/load
  {"scenario_id": "open-orders"}

USAGE VIA CLI:
  tailorshop seed --scenario open-orders

SEE ALSO:
  - handlers.go: Handler dependencies
  - cmd/server/main.go: seed command
*/
package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/VincentYu328/luckystar-sub000/core"
	"github.com/VincentYu328/luckystar-sub000/inventory"
	"github.com/VincentYu328/luckystar-sub000/orders"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

const (
	ScenarioStarterCatalog = "starter-catalog"
	ScenarioOpenOrders     = "open-orders"
)

var scenarios = []ScenarioDTO{
	{
		ID:          ScenarioStarterCatalog,
		Name:        "Starter Catalog",
		Description: "Three fabrics and three garments with opening stock",
		Category:    "inventory",
	},
	{
		ID:          ScenarioOpenOrders,
		Name:        "Open Orders",
		Description: "Starter catalog plus pending, confirmed and completed orders",
		Category:    "orders",
	},
}

type seedProduct struct {
	product core.Product
	opening int64
}

func starterCatalog() []seedProduct {
	return []seedProduct{
		{core.Product{SKU: "FAB-LINEN-WHT", Name: "White Linen (m)", Type: core.ProductFabric, Price: decimal.RequireFromString("18.50")}, 120},
		{core.Product{SKU: "FAB-WOOL-NVY", Name: "Navy Wool (m)", Type: core.ProductFabric, Price: decimal.RequireFromString("42.00")}, 80},
		{core.Product{SKU: "FAB-SILK-RED", Name: "Red Silk (m)", Type: core.ProductFabric, Price: decimal.RequireFromString("65.00")}, 30},
		{core.Product{SKU: "GAR-SHIRT-OX", Name: "Oxford Shirt", Type: core.ProductGarment, Price: decimal.RequireFromString("89.00")}, 25},
		{core.Product{SKU: "GAR-JACKET-NVY", Name: "Navy Jacket", Type: core.ProductGarment, Price: decimal.RequireFromString("420.00")}, 8},
		{core.Product{SKU: "GAR-TROUSER-GRY", Name: "Grey Trousers", Type: core.ProductGarment, Price: decimal.RequireFromString("160.00")}, 12},
	}
}

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// LoadScenario loads a scenario by ID.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	result, err := h.Seed(r.Context(), req.ScenarioID, actorFrom(r.Context()))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// Seed loads a scenario. It refuses to run unless inventory mode is dev.
func (h *Handler) Seed(ctx context.Context, id string, actor core.ActorID) (ScenarioResult, error) {
	known := false
	for _, s := range scenarios {
		if s.ID == id {
			known = true
		}
	}
	if !known {
		return ScenarioResult{}, &core.ValidationError{Field: "scenario_id", Reason: "unknown scenario " + strconv.Quote(id)}
	}

	mode, err := h.Inventory.Mode(ctx)
	if err != nil {
		return ScenarioResult{}, err
	}
	if mode != inventory.ModeDev {
		return ScenarioResult{}, &core.ValidationError{Field: "mode", Reason: "scenarios load only in dev mode"}
	}

	result := ScenarioResult{ScenarioID: id, Orders: []orders.OrderID{}}
	skus, err := h.loadCatalog(ctx, actor, &result)
	if err != nil {
		return result, err
	}
	if id == ScenarioOpenOrders {
		if err := h.loadOrders(ctx, actor, skus, &result); err != nil {
			return result, err
		}
	}

	h.log.Info().
		Str("scenario", id).
		Int("products_created", result.ProductsCreated).
		Int("orders", len(result.Orders)).
		Msg("scenario loaded")
	h.Audit.Record(ctx, actor, core.AuditScenarioLoaded, "scenario", id, map[string]any{
		"products_created": result.ProductsCreated,
		"movements":        result.Movements,
		"orders":           len(result.Orders),
	})
	return result, nil
}

// loadCatalog creates missing products and returns every seed SKU's ID.
func (h *Handler) loadCatalog(ctx context.Context, actor core.ActorID, result *ScenarioResult) (map[string]core.ProductID, error) {
	ids := make(map[string]core.ProductID)
	for _, sp := range starterCatalog() {
		existing, err := h.Store.GetProductBySKU(ctx, sp.product.SKU)
		if err == nil {
			ids[sp.product.SKU] = existing.ID
			continue
		}
		if !errors.Is(err, core.ErrNotFound) {
			return nil, err
		}

		p := sp.product
		if err := h.Store.CreateProduct(ctx, &p); err != nil {
			return nil, err
		}
		ids[p.SKU] = p.ID
		result.ProductsCreated++

		if _, err := h.Inventory.RecordIncoming(ctx, p.ID, sp.opening, inventory.Metadata{
			Reason:     inventory.ReasonOpening,
			OperatedBy: actor,
		}); err != nil {
			return nil, err
		}
		result.Movements++
	}
	return ids, nil
}

func (h *Handler) loadOrders(ctx context.Context, actor core.ActorID, skus map[string]core.ProductID, result *ScenarioResult) error {
	shirt, jacket, trousers := skus["GAR-SHIRT-OX"], skus["GAR-JACKET-NVY"], skus["GAR-TROUSER-GRY"]

	type seedPayment struct {
		amount   string
		method   orders.Method
		verified bool
	}
	seeds := []struct {
		req      orders.CreateRequest
		payments []seedPayment
		ship     bool
	}{
		{
			// Deposit by bank transfer, not yet verified: stays pending.
			req: orders.CreateRequest{
				Items:         []orders.ItemRequest{{ProductID: shirt, Quantity: 2}},
				DepositAmount: decimal.RequireFromString("50"),
			},
			payments: []seedPayment{{"50", orders.MethodTransfer, false}},
		},
		{
			// Suit with a 10% discount and a cash deposit: confirmed.
			req: orders.CreateRequest{
				Items: []orders.ItemRequest{
					{ProductID: jacket, Quantity: 1},
					{ProductID: trousers, Quantity: 1},
				},
				Discount:      orders.Discount{Rate: decimal.RequireFromString("0.10")},
				DepositAmount: decimal.RequireFromString("200"),
			},
			payments: []seedPayment{{"200", orders.MethodCash, false}},
		},
		{
			// Paid in full by card and handed over.
			req: orders.CreateRequest{
				Items: []orders.ItemRequest{{ProductID: shirt, Quantity: 1}},
			},
			payments: []seedPayment{{"89", orders.MethodCard, false}},
			ship:     true,
		},
	}

	for _, s := range seeds {
		s.req.Actor = actor
		order, err := h.Orders.CreateOrder(ctx, s.req)
		if err != nil {
			return err
		}
		result.Orders = append(result.Orders, order.ID)

		for _, p := range s.payments {
			if _, err := h.Orders.RecordPayment(ctx, orders.PaymentRequest{
				OrderID:  order.ID,
				Amount:   decimal.RequireFromString(p.amount),
				Method:   p.method,
				Verified: p.verified,
				Actor:    actor,
			}); err != nil {
				return err
			}
		}

		if !s.ship {
			continue
		}
		for _, it := range order.Items {
			if _, err := h.Inventory.RecordOutgoing(ctx, it.ProductID, it.Quantity, inventory.Metadata{
				ReferenceType: "order",
				ReferenceID:   order.OrderNumber,
				OperatedBy:    actor,
			}); err != nil {
				return err
			}
			result.Movements++
		}
	}
	return nil
}
