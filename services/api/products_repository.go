package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrInsufficientStock is raised when a guarded stock decrement would take
// the stock below zero. Under the row locks taken by the order flow this
// should not trip; it is the last line of defense for the stock >= 0
// invariant.
var ErrInsufficientStock = errors.New("insufficient stock")

// ProductFilter enumerates the recognized product listing filters.
type ProductFilter struct {
	CategoryID string
	Search     string
	ActiveOnly bool
	Page       int
	Limit      int
}

// ProductRepository defines product persistence and the inventory store
// operations. Stock mutations go through IncrementStock only.
type ProductRepository interface {
	CreateProduct(ctx context.Context, product *Product) error
	UpdateProduct(ctx context.Context, product *Product) error
	DeleteProduct(ctx context.Context, productID string) error

	// GetProduct returns the product or nil when it does not exist.
	GetProduct(ctx context.Context, productID string) (*Product, error)

	// GetProductForUpdate loads the product with a row lock inside the
	// caller's transaction, so stock checks and decrements of concurrent
	// orders for the same product serialize instead of racing.
	GetProductForUpdate(ctx context.Context, tx Tx, productID string) (*Product, error)

	// IncrementStock atomically adds delta (negative to decrement) to the
	// product's stock as a single guarded UPDATE. Restoring stock for a
	// product that no longer exists is a silent no-op.
	IncrementStock(ctx context.Context, tx Tx, productID string, delta int) error

	// UpdateRating stores the denormalized review aggregate.
	UpdateRating(ctx context.Context, productID string, average float64, count int) error

	ListProducts(ctx context.Context, filter ProductFilter) ([]Product, error)
	CountProducts(ctx context.Context, filter ProductFilter) (int, error)
}

// PostgresProductRepository implements ProductRepository using PostgreSQL.
type PostgresProductRepository struct {
	db *pgxpool.Pool
}

// NewProductRepository creates a new PostgresProductRepository.
func NewProductRepository(db *pgxpool.Pool) ProductRepository {
	return &PostgresProductRepository{db: db}
}

const productColumns = `id, name, description, price, stock, category_id, image_url, unit, is_active, average_rating, num_reviews, created_at, updated_at`

// prefixedProductColumns qualifies the product column list with a table alias
// for joined queries.
func prefixedProductColumns(alias string) string {
	cols := strings.Split(productColumns, ", ")
	for i, col := range cols {
		cols[i] = alias + "." + col
	}
	return strings.Join(cols, ", ")
}

func scanProduct(row pgx.Row) (*Product, error) {
	var p Product
	err := row.Scan(
		&p.ID, &p.Name, &p.Description, &p.Price, &p.Stock, &p.CategoryID,
		&p.ImageURL, &p.Unit, &p.IsActive, &p.AverageRating, &p.NumReviews,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// CreateProduct inserts a new product.
func (r *PostgresProductRepository) CreateProduct(ctx context.Context, product *Product) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO products (id, name, description, price, stock, category_id, image_url, unit, is_active, average_rating, num_reviews, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`, product.ID, product.Name, product.Description, product.Price, product.Stock,
		product.CategoryID, product.ImageURL, product.Unit, product.IsActive,
		product.AverageRating, product.NumReviews, product.CreatedAt, product.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert product: %w", err)
	}
	return nil
}

// UpdateProduct rewrites the product's catalog fields. Stock is deliberately
// not part of this statement; it only moves through IncrementStock.
func (r *PostgresProductRepository) UpdateProduct(ctx context.Context, product *Product) error {
	_, err := r.db.Exec(ctx, `
		UPDATE products
		SET name = $1, description = $2, price = $3, category_id = $4,
		    image_url = $5, unit = $6, is_active = $7, updated_at = NOW()
		WHERE id = $8
	`, product.Name, product.Description, product.Price, product.CategoryID,
		product.ImageURL, product.Unit, product.IsActive, product.ID)
	if err != nil {
		return fmt.Errorf("failed to update product: %w", err)
	}
	return nil
}

// DeleteProduct removes the product record.
func (r *PostgresProductRepository) DeleteProduct(ctx context.Context, productID string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM products WHERE id = $1`, productID)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	return nil
}

// GetProduct returns the product or nil when it does not exist.
func (r *PostgresProductRepository) GetProduct(ctx context.Context, productID string) (*Product, error) {
	p, err := scanProduct(r.db.QueryRow(ctx, `
		SELECT `+productColumns+` FROM products WHERE id = $1
	`, productID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return p, nil
}

// GetProductForUpdate obtains the product with a pessimistic lock
// (SELECT ... FOR UPDATE) inside the caller's transaction. Returns nil when
// the product does not exist.
func (r *PostgresProductRepository) GetProductForUpdate(ctx context.Context, tx Tx, productID string) (*Product, error) {
	p, err := scanProduct(pgxTx(tx).QueryRow(ctx, `
		SELECT `+productColumns+` FROM products WHERE id = $1 FOR UPDATE
	`, productID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get product with lock: %w", err)
	}
	return p, nil
}

// IncrementStock applies a single atomic stock adjustment. The guard keeps
// stock from ever going negative; a decrement that would cross zero matches
// no row and reports ErrInsufficientStock. An increment that matches no row
// means the product is gone and the restoration is dropped silently.
func (r *PostgresProductRepository) IncrementStock(ctx context.Context, tx Tx, productID string, delta int) error {
	tag, err := pgxTx(tx).Exec(ctx, `
		UPDATE products
		SET stock = stock + $1, updated_at = NOW()
		WHERE id = $2 AND stock + $1 >= 0
	`, delta, productID)
	if err != nil {
		return fmt.Errorf("failed to adjust stock: %w", err)
	}
	if tag.RowsAffected() == 0 && delta < 0 {
		return fmt.Errorf("product %s: %w", productID, ErrInsufficientStock)
	}
	return nil
}

// UpdateRating stores the recomputed review aggregate on the product row.
func (r *PostgresProductRepository) UpdateRating(ctx context.Context, productID string, average float64, count int) error {
	_, err := r.db.Exec(ctx, `
		UPDATE products
		SET average_rating = $1, num_reviews = $2, updated_at = NOW()
		WHERE id = $3
	`, average, count, productID)
	if err != nil {
		return fmt.Errorf("failed to update product rating: %w", err)
	}
	return nil
}

// ListProducts returns one page of products matching the filter, newest first.
func (r *PostgresProductRepository) ListProducts(ctx context.Context, filter ProductFilter) ([]Product, error) {
	query := `SELECT ` + productColumns + ` FROM products`
	where, args := productFilterClause(filter)
	query += where

	offset := (filter.Page - 1) * filter.Limit
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, filter.Limit, offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	var products []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, *p)
	}
	return products, rows.Err()
}

// CountProducts returns the number of products matching the filter.
func (r *PostgresProductRepository) CountProducts(ctx context.Context, filter ProductFilter) (int, error) {
	query := `SELECT COUNT(*) FROM products`
	where, args := productFilterClause(filter)
	query += where

	var count int
	if err := r.db.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count products: %w", err)
	}
	return count, nil
}

func productFilterClause(filter ProductFilter) (string, []any) {
	where := ""
	var args []any
	if filter.CategoryID != "" {
		args = append(args, filter.CategoryID)
		where += fmt.Sprintf(" AND category_id = $%d", len(args))
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		where += fmt.Sprintf(" AND name ILIKE $%d", len(args))
	}
	if filter.ActiveOnly {
		where += " AND is_active = TRUE"
	}
	if where == "" {
		return "", nil
	}
	return " WHERE" + where[4:], args
}
