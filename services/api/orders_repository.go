package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Tx is the transaction handle passed through repository calls that must
// observe the same database transaction.
type Tx interface {
	Commit() error
	Rollback() error
}

// PostgresTx implements Tx over a pgx transaction.
type PostgresTx struct {
	tx pgx.Tx
}

func (t *PostgresTx) Commit() error {
	return t.tx.Commit(context.Background())
}

func (t *PostgresTx) Rollback() error {
	return t.tx.Rollback(context.Background())
}

func pgxTx(tx Tx) pgx.Tx {
	return tx.(*PostgresTx).tx
}

// OrderFilter enumerates the recognized order listing filters. Zero values
// mean "no filter"; Page and Limit are normalized by the use case.
type OrderFilter struct {
	UserID string
	Status string
	Page   int
	Limit  int
}

// OrderRepository defines the order persistence operations.
type OrderRepository interface {
	BeginTx(ctx context.Context) (Tx, error)

	// CreateOrder inserts the order and its item snapshots.
	CreateOrder(ctx context.Context, tx Tx, order *Order) error

	// GetOrder returns the order expanded with user and product display
	// fields, or nil when no such order exists.
	GetOrder(ctx context.Context, orderID string) (*Order, error)

	// GetOrderForUpdate loads the order and its items with a row lock, so a
	// status change or deletion cannot race a concurrent transition.
	GetOrderForUpdate(ctx context.Context, tx Tx, orderID string) (*Order, error)

	UpdateOrderStatus(ctx context.Context, tx Tx, orderID string, status string) error
	DeleteOrder(ctx context.Context, tx Tx, orderID string) error

	ListOrders(ctx context.Context, filter OrderFilter) ([]Order, error)
	CountOrders(ctx context.Context, filter OrderFilter) (int, error)
}

// PostgresOrderRepository implements OrderRepository using PostgreSQL.
type PostgresOrderRepository struct {
	db *pgxpool.Pool
}

// NewOrderRepository creates a new PostgresOrderRepository.
func NewOrderRepository(db *pgxpool.Pool) OrderRepository {
	return &PostgresOrderRepository{db: db}
}

// BeginTx starts a new database transaction.
func (r *PostgresOrderRepository) BeginTx(ctx context.Context) (Tx, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return &PostgresTx{tx: tx}, nil
}

// CreateOrder inserts the order row and one row per item snapshot, all inside
// the caller's transaction.
func (r *PostgresOrderRepository) CreateOrder(ctx context.Context, tx Tx, order *Order) error {
	pgTx := pgxTx(tx)

	_, err := pgTx.Exec(ctx, `
		INSERT INTO orders (id, user_id, total_amount, status, shipping_address, note, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, order.ID, order.UserID, order.TotalAmount, order.Status, order.ShippingAddress, order.Note, order.CreatedAt, order.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}

	for i, item := range order.Items {
		_, err := pgTx.Exec(ctx, `
			INSERT INTO order_items (order_id, position, product_id, quantity, price, unit)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, order.ID, i, item.ProductID, item.Quantity, item.Price, item.Unit)
		if err != nil {
			return fmt.Errorf("failed to insert order item: %w", err)
		}
	}

	return nil
}

// GetOrder returns the order with user and product display fields, or nil
// when the order does not exist.
func (r *PostgresOrderRepository) GetOrder(ctx context.Context, orderID string) (*Order, error) {
	var order Order
	err := r.db.QueryRow(ctx, `
		SELECT o.id, o.user_id, u.full_name, u.email,
		       o.total_amount, o.status, o.shipping_address, o.note, o.created_at, o.updated_at
		FROM orders o
		JOIN users u ON u.id = o.user_id
		WHERE o.id = $1
	`, orderID).Scan(
		&order.ID, &order.UserID, &order.UserName, &order.UserEmail,
		&order.TotalAmount, &order.Status, &order.ShippingAddress, &order.Note,
		&order.CreatedAt, &order.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	items, err := r.queryItems(ctx, orderID)
	if err != nil {
		return nil, err
	}
	order.Items = items

	return &order, nil
}

func (r *PostgresOrderRepository) queryItems(ctx context.Context, orderID string) ([]OrderItem, error) {
	rows, err := r.db.Query(ctx, `
		SELECT i.product_id, COALESCE(p.name, ''), COALESCE(p.image_url, ''),
		       i.quantity, i.price, i.unit
		FROM order_items i
		LEFT JOIN products p ON p.id = i.product_id
		WHERE i.order_id = $1
		ORDER BY i.position
	`, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to query order items: %w", err)
	}
	defer rows.Close()

	var items []OrderItem
	for rows.Next() {
		var item OrderItem
		if err := rows.Scan(&item.ProductID, &item.ProductName, &item.ImageURL, &item.Quantity, &item.Price, &item.Unit); err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// GetOrderForUpdate loads the order row with FOR UPDATE plus its items, inside
// the caller's transaction. Returns nil when the order does not exist.
func (r *PostgresOrderRepository) GetOrderForUpdate(ctx context.Context, tx Tx, orderID string) (*Order, error) {
	pgTx := pgxTx(tx)

	var order Order
	err := pgTx.QueryRow(ctx, `
		SELECT id, user_id, total_amount, status, shipping_address, note, created_at, updated_at
		FROM orders
		WHERE id = $1
		FOR UPDATE
	`, orderID).Scan(
		&order.ID, &order.UserID, &order.TotalAmount, &order.Status,
		&order.ShippingAddress, &order.Note, &order.CreatedAt, &order.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get order with lock: %w", err)
	}

	rows, err := pgTx.Query(ctx, `
		SELECT product_id, quantity, price, unit
		FROM order_items
		WHERE order_id = $1
		ORDER BY position
	`, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to query order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item OrderItem
		if err := rows.Scan(&item.ProductID, &item.Quantity, &item.Price, &item.Unit); err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		order.Items = append(order.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &order, nil
}

// UpdateOrderStatus sets the order status inside the caller's transaction.
func (r *PostgresOrderRepository) UpdateOrderStatus(ctx context.Context, tx Tx, orderID string, status string) error {
	_, err := pgxTx(tx).Exec(ctx, `
		UPDATE orders
		SET status = $1, updated_at = NOW()
		WHERE id = $2
	`, status, orderID)
	if err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}
	return nil
}

// DeleteOrder removes the order record; item rows go with it via cascade.
func (r *PostgresOrderRepository) DeleteOrder(ctx context.Context, tx Tx, orderID string) error {
	_, err := pgxTx(tx).Exec(ctx, `DELETE FROM orders WHERE id = $1`, orderID)
	if err != nil {
		return fmt.Errorf("failed to delete order: %w", err)
	}
	return nil
}

// ListOrders returns one page of orders matching the filter, newest first.
func (r *PostgresOrderRepository) ListOrders(ctx context.Context, filter OrderFilter) ([]Order, error) {
	query := `
		SELECT o.id, o.user_id, u.full_name, u.email,
		       o.total_amount, o.status, o.shipping_address, o.note, o.created_at, o.updated_at
		FROM orders o
		JOIN users u ON u.id = o.user_id
	`
	where, args := orderFilterClause(filter)
	query += where

	offset := (filter.Page - 1) * filter.Limit
	query += fmt.Sprintf(" ORDER BY o.created_at DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, filter.Limit, offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	var orders []Order
	for rows.Next() {
		var order Order
		if err := rows.Scan(
			&order.ID, &order.UserID, &order.UserName, &order.UserEmail,
			&order.TotalAmount, &order.Status, &order.ShippingAddress, &order.Note,
			&order.CreatedAt, &order.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range orders {
		items, err := r.queryItems(ctx, orders[i].ID)
		if err != nil {
			return nil, err
		}
		orders[i].Items = items
	}

	return orders, nil
}

// CountOrders returns the number of orders matching the filter.
func (r *PostgresOrderRepository) CountOrders(ctx context.Context, filter OrderFilter) (int, error) {
	query := `SELECT COUNT(*) FROM orders o`
	where, args := orderFilterClause(filter)
	query += where

	var count int
	if err := r.db.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count orders: %w", err)
	}
	return count, nil
}

func orderFilterClause(filter OrderFilter) (string, []any) {
	where := ""
	var args []any
	if filter.UserID != "" {
		args = append(args, filter.UserID)
		where += fmt.Sprintf(" AND o.user_id = $%d", len(args))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		where += fmt.Sprintf(" AND o.status = $%d", len(args))
	}
	if where == "" {
		return "", nil
	}
	return " WHERE" + where[4:], args
}
