/*
Package core holds the vocabulary shared by the inventory and order subsystems.

PURPOSE:
  Both the stock ledger and the order engine talk about products, actors,
  money and failures. Those concepts live here so neither domain package has
  to import the other.

KEY CONCEPTS IN THIS FILE (types.go):
  - Product: catalog identity (sku, name), classification and current price
  - ProductType: fabric or garment; decides how stock is projected
  - Catalog: the read contract consumed from catalog management

DESIGN PRINCIPLES:
  1. Identity is immutable: the ledger references products, never mutates them
  2. Money is decimal.Decimal, never float64
  3. The catalog is an external collaborator; only GetProduct is relied on

SEE ALSO:
  - errors.go: Error taxonomy shared by every operation
  - audit.go: Audit sink contract
*/
package core

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// PRODUCT
// =============================================================================

type ProductID int64

type ProductType string

const (
	ProductFabric  ProductType = "fabric"
	ProductGarment ProductType = "garment"
)

func (t ProductType) Valid() bool {
	return t == ProductFabric || t == ProductGarment
}

type Product struct {
	ID        ProductID       `json:"id" db:"id"`
	SKU       string          `json:"sku" db:"sku"`
	Name      string          `json:"name" db:"name"`
	Type      ProductType     `json:"type" db:"product_type"`
	Price     decimal.Decimal `json:"price" db:"price"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt time.Time       `json:"updated_at" db:"updated_at"`
}

// Validate checks the fields catalog management must supply.
func (p Product) Validate() error {
	if p.SKU == "" {
		return &ValidationError{Field: "sku", Reason: "required"}
	}
	if p.Name == "" {
		return &ValidationError{Field: "name", Reason: "required"}
	}
	if !p.Type.Valid() {
		return &ValidationError{Field: "type", Reason: fmt.Sprintf("must be %q or %q", ProductFabric, ProductGarment)}
	}
	if p.Price.IsNegative() {
		return &ValidationError{Field: "price", Reason: "must not be negative"}
	}
	return nil
}

// Catalog resolves products. GetProduct fails with ErrProductNotFound.
type Catalog interface {
	GetProduct(ctx context.Context, id ProductID) (*Product, error)
}

// =============================================================================
// ACTOR
// =============================================================================

// ActorID identifies the authenticated user behind a mutating call.
// Authorization has already happened upstream.
type ActorID string

const ActorSystem ActorID = "system"

// =============================================================================
// MONEY
// =============================================================================

// RoundMoney rounds to cents, half away from zero.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// ParseMoney parses a decimal string such as "120.50".
func ParseMoney(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, &ValidationError{Field: "amount", Reason: "not a decimal number"}
	}
	return d, nil
}
