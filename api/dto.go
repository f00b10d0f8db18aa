/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. Domain types that are
  already stable on the wire (core.Product, orders.Order, inventory.Report)
  are returned as they are; these types cover request bodies and the few
  responses that combine several domain values.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

MONEY:
  Amounts are decimal.Decimal. Requests accept either a JSON string
  ("120.50") or a number; responses always carry strings.

VALIDATION:
  Validation is done in the services, not in DTOs. DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"github.com/shopspring/decimal"

	"github.com/VincentYu328/luckystar-sub000/core"
	"github.com/VincentYu328/luckystar-sub000/inventory"
	"github.com/VincentYu328/luckystar-sub000/orders"
)

// =============================================================================
// CATALOG
// =============================================================================

// ProductDTO is a catalog entry with its current stock.
type ProductDTO struct {
	core.Product
	QuantityOnHand int64 `json:"quantity_on_hand"`
}

type CreateProductRequest struct {
	SKU   string           `json:"sku"`
	Name  string           `json:"name"`
	Type  core.ProductType `json:"type"`
	Price decimal.Decimal  `json:"price"`
}

type UpdatePriceRequest struct {
	Price decimal.Decimal `json:"price"`
}

// =============================================================================
// INVENTORY
// =============================================================================

// MovementRequest is the body of POST /inventory/{id}/in and /out.
type MovementRequest struct {
	Quantity      int64  `json:"quantity"`
	ReferenceType string `json:"reference_type,omitempty"`
	ReferenceID   string `json:"reference_id,omitempty"`
	Reason        string `json:"reason,omitempty"`
}

// CorrectionRequest carries a signed, non-zero delta.
type CorrectionRequest struct {
	Delta         int64  `json:"delta"`
	ReferenceType string `json:"reference_type,omitempty"`
	ReferenceID   string `json:"reference_id,omitempty"`
}

type MovementResponse struct {
	TransactionID  inventory.TransactionID `json:"transaction_id"`
	QuantityOnHand int64                   `json:"quantity_on_hand"`
	Mode           inventory.Mode          `json:"mode"`
}

type LedgerResponse struct {
	ProductID    core.ProductID          `json:"product_id"`
	Transactions []inventory.Transaction `json:"transactions"`
}

type RebuildResponse struct {
	Products int `json:"products"`
}

type ModeDTO struct {
	Mode      inventory.Mode `json:"mode"`
	Guarantee string         `json:"guarantee"`
}

type SetModeRequest struct {
	Mode string `json:"mode"`
}

// StockHealthDTO is the body of GET /api/health/stock.
type StockHealthDTO struct {
	Status string           `json:"status"`
	Report inventory.Report `json:"report"`
}

// =============================================================================
// ORDERS
// =============================================================================

type OrderItemRequest struct {
	ProductID core.ProductID   `json:"product_id"`
	Quantity  int64            `json:"quantity"`
	UnitPrice *decimal.Decimal `json:"unit_price,omitempty"`
}

type CreateOrderRequest struct {
	CustomerID    *int64             `json:"customer_id,omitempty"`
	Items         []OrderItemRequest `json:"items"`
	Discount      decimal.Decimal    `json:"discount,omitempty"`
	DiscountRate  decimal.Decimal    `json:"discount_rate,omitempty"`
	DepositAmount decimal.Decimal    `json:"deposit_amount,omitempty"`
}

type CreateOrderResponse struct {
	OrderID     orders.OrderID `json:"order_id"`
	OrderNumber string         `json:"order_number"`
	Order       *orders.Order  `json:"order"`
}

type RecordPaymentRequest struct {
	Amount   decimal.Decimal `json:"amount"`
	Method   orders.Method   `json:"method"`
	Verified bool            `json:"verified,omitempty"`
}

type PaymentsResponse struct {
	OrderID   orders.OrderID   `json:"order_id"`
	PaidTotal decimal.Decimal  `json:"paid_total"`
	Payments  []orders.Payment `json:"payments"`
}

type CancelOrderRequest struct {
	Reason string `json:"reason,omitempty"`
}

type ReopenOrderRequest struct {
	Status orders.Status `json:"status"`
	Reason string        `json:"reason"`
}

// =============================================================================
// SCENARIOS
// =============================================================================

type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
}

type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id"`
}

// ScenarioResult summarizes what a load wrote.
type ScenarioResult struct {
	ScenarioID      string           `json:"scenario_id"`
	ProductsCreated int              `json:"products_created"`
	Movements       int              `json:"movements"`
	Orders          []orders.OrderID `json:"orders"`
}

// =============================================================================
// ERRORS
// =============================================================================

type ErrorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}
