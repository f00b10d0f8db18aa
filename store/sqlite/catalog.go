package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/VincentYu328/luckystar-sub000/core"
)

// =============================================================================
// CATALOG (core.Catalog + management)
// =============================================================================

const productColumns = `id, sku, name, product_type, price, created_at, updated_at`

func (c conn) GetProduct(ctx context.Context, id core.ProductID) (*core.Product, error) {
	var p core.Product
	err := sqlx.GetContext(ctx, c.q, &p, `SELECT `+productColumns+` FROM products WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &core.NotFoundError{Kind: "product", ID: strconv.FormatInt(int64(id), 10)}
	}
	if err != nil {
		return nil, core.Storage("get product", err)
	}
	return &p, nil
}

// GetProductBySKU returns the product with the given sku.
func (c conn) GetProductBySKU(ctx context.Context, sku string) (*core.Product, error) {
	var p core.Product
	err := sqlx.GetContext(ctx, c.q, &p, `SELECT `+productColumns+` FROM products WHERE sku = ?`, sku)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &core.NotFoundError{Kind: "product", ID: sku}
	}
	if err != nil {
		return nil, core.Storage("get product by sku", err)
	}
	return &p, nil
}

func (c conn) ListProducts(ctx context.Context, typ core.ProductType) ([]core.Product, error) {
	var products []core.Product
	var err error
	if typ == "" {
		err = sqlx.SelectContext(ctx, c.q, &products, `SELECT `+productColumns+` FROM products ORDER BY id`)
	} else {
		err = sqlx.SelectContext(ctx, c.q, &products, `SELECT `+productColumns+` FROM products WHERE product_type = ? ORDER BY id`, typ)
	}
	if err != nil {
		return nil, core.Storage("list products", err)
	}
	return products, nil
}

// CreateProduct inserts p and sets its ID and timestamps.
func (s *Store) CreateProduct(ctx context.Context, p *core.Product) error {
	if err := p.Validate(); err != nil {
		return err
	}
	now := time.Now().UTC()
	p.Price = core.RoundMoney(p.Price)
	p.CreatedAt, p.UpdatedAt = now, now

	res, err := sqlx.NamedExecContext(ctx, s.db, `
		INSERT INTO products (sku, name, product_type, price, created_at, updated_at)
		VALUES (:sku, :name, :product_type, :price, :created_at, :updated_at)`, p)
	if isUniqueViolation(err, "products.sku") {
		return &core.ConflictError{Resource: "product sku", Value: p.SKU}
	}
	if err != nil {
		return core.Storage("create product", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Storage("create product", err)
	}
	p.ID = core.ProductID(id)
	return nil
}

// UpdatePrice changes the catalog price. Existing order items keep their snapshot.
func (s *Store) UpdatePrice(ctx context.Context, id core.ProductID, price decimal.Decimal) (*core.Product, error) {
	if price.IsNegative() {
		return nil, &core.ValidationError{Field: "price", Reason: "must not be negative"}
	}
	res, err := s.db.ExecContext(ctx, `UPDATE products SET price = ?, updated_at = ? WHERE id = ?`,
		core.RoundMoney(price), time.Now().UTC(), id)
	if err != nil {
		return nil, core.Storage("update price", err)
	}
	n, err := rowsAffected(res, "update price")
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, &core.NotFoundError{Kind: "product", ID: strconv.FormatInt(int64(id), 10)}
	}
	return s.GetProduct(ctx, id)
}
