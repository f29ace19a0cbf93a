package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// CreateOrderItemInput is one requested order line.
type CreateOrderItemInput struct {
	ProductID string `json:"product_id" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required,gt=0"`
}

// CreateOrderInput is the payload for placing an order.
type CreateOrderInput struct {
	Items           []CreateOrderItemInput `json:"items" binding:"required,dive"`
	ShippingAddress string                 `json:"shipping_address"`
	Note            string                 `json:"note"`
}

// Pagination describes one page of a listing.
type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

// OrderPage is one page of orders plus its pagination envelope.
type OrderPage struct {
	Orders     []Order    `json:"orders"`
	Pagination Pagination `json:"pagination"`
}

// OrderUseCase orchestrates the order lifecycle: creation with stock
// validation and decrement, the status-transition workflow, and compensating
// stock restoration on cancellation and deletion.
type OrderUseCase struct {
	orders   OrderRepository
	products ProductRepository
	logger   *zap.Logger
	tracer   trace.Tracer
	metrics  *Metrics
}

// NewOrderUseCase creates a new OrderUseCase.
func NewOrderUseCase(
	orders OrderRepository,
	products ProductRepository,
	logger *zap.Logger,
	tracer trace.Tracer,
	metrics *Metrics,
) *OrderUseCase {
	return &OrderUseCase{
		orders:   orders,
		products: products,
		logger:   logger,
		tracer:   tracer,
		metrics:  metrics,
	}
}

// CreateOrder places an order for the given user.
//
// Validation, the order insert and every stock decrement run inside one
// transaction with the product rows locked in item order, so creation is
// all-or-nothing and two concurrent orders for the same product cannot
// jointly overdraw stock: the stock check and the decrement serialize on the
// row lock.
func (uc *OrderUseCase) CreateOrder(ctx context.Context, userID string, input CreateOrderInput) (*Order, error) {
	ctx, span := uc.tracer.Start(ctx, "order.create")
	defer span.End()
	span.SetAttributes(
		attribute.String("user_id", userID),
		attribute.Int("order.item_count", len(input.Items)),
	)

	if len(input.Items) == 0 {
		return nil, NewValidationError("order must contain at least one item")
	}
	if strings.TrimSpace(input.ShippingAddress) == "" {
		return nil, NewValidationError("shipping address is required")
	}
	for _, item := range input.Items {
		if item.Quantity < 1 {
			return nil, NewValidationError("item quantity must be a positive integer")
		}
	}

	tx, err := uc.orders.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Validate every item before touching anything, taking row locks in
	// input order. Prices and units are snapshotted here. A product listed on
	// several lines is locked once and checked against its summed quantity,
	// so a duplicate-line order that jointly exceeds stock is rejected here
	// rather than tripping the decrement guard mid-transaction.
	items := make([]OrderItem, 0, len(input.Items))
	locked := make(map[string]*Product)
	requested := make(map[string]int)
	for _, item := range input.Items {
		product, ok := locked[item.ProductID]
		if !ok {
			product, err = uc.products.GetProductForUpdate(ctx, tx, item.ProductID)
			if err != nil {
				return nil, err
			}
			if product == nil {
				return nil, NewNotFoundError("product %s does not exist", item.ProductID)
			}
			locked[item.ProductID] = product
		}
		requested[item.ProductID] += item.Quantity
		if product.Stock < requested[item.ProductID] {
			return nil, NewValidationError("product %s is short on stock: %d left", product.Name, product.Stock)
		}
		items = append(items, OrderItem{
			ProductID: product.ID,
			Quantity:  item.Quantity,
			Price:     product.Price,
			Unit:      product.Unit,
		})
	}

	order := NewOrder(uuid.New().String(), userID, items, input.ShippingAddress, input.Note)
	if err := uc.orders.CreateOrder(ctx, tx, order); err != nil {
		return nil, err
	}

	// Decrement stock per item, in input order, inside the same transaction.
	for _, item := range order.Items {
		if err := uc.products.IncrementStock(ctx, tx, item.ProductID, -item.Quantity); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit order: %w", err)
	}

	span.SetAttributes(attribute.String("order_id", order.ID))
	uc.metrics.OrderCreated(ctx, len(order.Items))
	uc.logger.Info("order created",
		zap.String("order_id", order.ID),
		zap.String("user_id", userID),
		zap.Int("total_amount", order.TotalAmount),
	)

	return uc.orders.GetOrder(ctx, order.ID)
}

// UpdateOrderStatus applies one transition of the order status state machine.
// Moving into cancelled restores every item's stock before the status row is
// updated; no other transition touches stock. Terminal states reject all
// transitions, so cancelling twice fails instead of restoring twice.
func (uc *OrderUseCase) UpdateOrderStatus(ctx context.Context, orderID string, newStatus string) (*Order, error) {
	ctx, span := uc.tracer.Start(ctx, "order.update_status")
	defer span.End()
	span.SetAttributes(
		attribute.String("order_id", orderID),
		attribute.String("order.requested_status", newStatus),
	)

	if !IsValidOrderStatus(newStatus) {
		return nil, NewValidationError("unknown order status %q", newStatus)
	}

	tx, err := uc.orders.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	order, err := uc.orders.GetOrderForUpdate(ctx, tx, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, NewNotFoundError("order %s does not exist", orderID)
	}

	if !CanTransition(order.Status, newStatus) {
		return nil, NewValidationError("cannot transition order from %s to %s", order.Status, newStatus)
	}

	if newStatus == OrderStatusCancelled {
		if err := uc.restoreStock(ctx, tx, order); err != nil {
			return nil, err
		}
	}

	if err := uc.orders.UpdateOrderStatus(ctx, tx, orderID, newStatus); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit status update: %w", err)
	}

	if newStatus == OrderStatusCancelled {
		uc.metrics.OrderCancelled(ctx)
	}
	uc.logger.Info("order status updated",
		zap.String("order_id", orderID),
		zap.String("from", order.Status),
		zap.String("to", newStatus),
	)

	return uc.orders.GetOrder(ctx, orderID)
}

// DeleteOrder removes a pending order and restores its stock. Customers may
// only delete their own orders; no order past pending can be deleted since
// later states hold decremented stock.
func (uc *OrderUseCase) DeleteOrder(ctx context.Context, orderID, userID, role string) error {
	ctx, span := uc.tracer.Start(ctx, "order.delete")
	defer span.End()
	span.SetAttributes(attribute.String("order_id", orderID))

	tx, err := uc.orders.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	order, err := uc.orders.GetOrderForUpdate(ctx, tx, orderID)
	if err != nil {
		return err
	}
	if order == nil {
		return NewNotFoundError("order %s does not exist", orderID)
	}
	if role != RoleAdmin && order.UserID != userID {
		return NewUnauthorizedError("you do not have access to this order")
	}
	if order.Status != OrderStatusPending {
		return NewValidationError("only pending orders may be deleted")
	}

	if err := uc.restoreStock(ctx, tx, order); err != nil {
		return err
	}
	if err := uc.orders.DeleteOrder(ctx, tx, orderID); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit order deletion: %w", err)
	}

	uc.logger.Info("order deleted", zap.String("order_id", orderID))
	return nil
}

// restoreStock increments every item's product stock by its ordered quantity.
// Products deleted since the order was placed are skipped silently by the
// store.
func (uc *OrderUseCase) restoreStock(ctx context.Context, tx Tx, order *Order) error {
	for _, item := range order.Items {
		if err := uc.products.IncrementStock(ctx, tx, item.ProductID, item.Quantity); err != nil {
			return err
		}
	}
	uc.metrics.StockRestored(ctx, len(order.Items))
	return nil
}

// GetOrderByID returns one order. Customers can only read their own orders;
// admins can read any.
func (uc *OrderUseCase) GetOrderByID(ctx context.Context, orderID, userID, role string) (*Order, error) {
	order, err := uc.orders.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, NewNotFoundError("order %s does not exist", orderID)
	}
	if role != RoleAdmin && order.UserID != userID {
		return nil, NewUnauthorizedError("you do not have access to this order")
	}
	return order, nil
}

// ListOrders returns one page of orders matching the filter, newest first.
func (uc *OrderUseCase) ListOrders(ctx context.Context, filter OrderFilter) (*OrderPage, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 10
	}
	if filter.Limit > 100 {
		filter.Limit = 100
	}
	if filter.Status != "" && !IsValidOrderStatus(filter.Status) {
		return nil, NewValidationError("unknown order status %q", filter.Status)
	}

	orders, err := uc.orders.ListOrders(ctx, filter)
	if err != nil {
		return nil, err
	}
	total, err := uc.orders.CountOrders(ctx, filter)
	if err != nil {
		return nil, err
	}

	totalPages := (total + filter.Limit - 1) / filter.Limit
	return &OrderPage{
		Orders: orders,
		Pagination: Pagination{
			Page:       filter.Page,
			Limit:      filter.Limit,
			Total:      total,
			TotalPages: totalPages,
		},
	}, nil
}
