package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CartRepository defines cart persistence operations. Cart items are keyed by
// (user, product); there is one cart per user.
type CartRepository interface {
	GetCart(ctx context.Context, userID string) (*Cart, error)
	// UpsertItem adds the product to the cart or replaces its quantity.
	UpsertItem(ctx context.Context, userID, productID string, quantity int) error
	RemoveItem(ctx context.Context, userID, productID string) error
	ClearCart(ctx context.Context, userID string) error
}

// PostgresCartRepository implements CartRepository using PostgreSQL.
type PostgresCartRepository struct {
	db *pgxpool.Pool
}

// NewCartRepository creates a new PostgresCartRepository.
func NewCartRepository(db *pgxpool.Pool) CartRepository {
	return &PostgresCartRepository{db: db}
}

func (r *PostgresCartRepository) GetCart(ctx context.Context, userID string) (*Cart, error) {
	rows, err := r.db.Query(ctx, `
		SELECT c.product_id, p.name, p.price, p.unit, c.quantity
		FROM cart_items c
		JOIN products p ON p.id = c.product_id
		WHERE c.user_id = $1
		ORDER BY c.added_at
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query cart: %w", err)
	}
	defer rows.Close()

	cart := &Cart{UserID: userID, Items: []CartItem{}}
	for rows.Next() {
		var item CartItem
		if err := rows.Scan(&item.ProductID, &item.ProductName, &item.Price, &item.Unit, &item.Quantity); err != nil {
			return nil, fmt.Errorf("failed to scan cart item: %w", err)
		}
		cart.Items = append(cart.Items, item)
	}
	return cart, rows.Err()
}

func (r *PostgresCartRepository) UpsertItem(ctx context.Context, userID, productID string, quantity int) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO cart_items (user_id, product_id, quantity, added_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (user_id, product_id) DO UPDATE SET quantity = EXCLUDED.quantity
	`, userID, productID, quantity)
	if err != nil {
		return fmt.Errorf("failed to upsert cart item: %w", err)
	}
	return nil
}

func (r *PostgresCartRepository) RemoveItem(ctx context.Context, userID, productID string) error {
	_, err := r.db.Exec(ctx, `
		DELETE FROM cart_items WHERE user_id = $1 AND product_id = $2
	`, userID, productID)
	if err != nil {
		return fmt.Errorf("failed to remove cart item: %w", err)
	}
	return nil
}

func (r *PostgresCartRepository) ClearCart(ctx context.Context, userID string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM cart_items WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}

// CartItemInput is the payload for adding or updating a cart line.
type CartItemInput struct {
	ProductID string `json:"product_id" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required,gt=0"`
}

// CartUseCase implements the shopping cart. The cart never touches stock;
// stock moves when the cart is turned into an order.
type CartUseCase struct {
	carts    CartRepository
	products ProductRepository
}

// NewCartUseCase creates a new CartUseCase.
func NewCartUseCase(carts CartRepository, products ProductRepository) *CartUseCase {
	return &CartUseCase{carts: carts, products: products}
}

// GetCart returns the user's cart with current product prices.
func (uc *CartUseCase) GetCart(ctx context.Context, userID string) (*Cart, error) {
	return uc.carts.GetCart(ctx, userID)
}

// SetItem adds a product to the cart or replaces its quantity.
func (uc *CartUseCase) SetItem(ctx context.Context, userID string, input CartItemInput) (*Cart, error) {
	if input.Quantity < 1 {
		return nil, NewValidationError("item quantity must be a positive integer")
	}

	product, err := uc.products.GetProduct(ctx, input.ProductID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, NewNotFoundError("product %s does not exist", input.ProductID)
	}
	if !product.IsActive {
		return nil, NewValidationError("product %s is not available", product.Name)
	}
	if !product.InStock() {
		return nil, NewValidationError("product %s is out of stock", product.Name)
	}

	if err := uc.carts.UpsertItem(ctx, userID, input.ProductID, input.Quantity); err != nil {
		return nil, err
	}
	return uc.carts.GetCart(ctx, userID)
}

// RemoveItem removes one product line from the cart.
func (uc *CartUseCase) RemoveItem(ctx context.Context, userID, productID string) (*Cart, error) {
	if err := uc.carts.RemoveItem(ctx, userID, productID); err != nil {
		return nil, err
	}
	return uc.carts.GetCart(ctx, userID)
}

// ClearCart empties the cart.
func (uc *CartUseCase) ClearCart(ctx context.Context, userID string) error {
	return uc.carts.ClearCart(ctx, userID)
}

// CartHandler contains the cart HTTP handlers.
type CartHandler struct {
	useCase *CartUseCase
	resp    *responder
}

// NewCartHandler creates a new CartHandler.
func NewCartHandler(useCase *CartUseCase, resp *responder) *CartHandler {
	return &CartHandler{useCase: useCase, resp: resp}
}

// Get handles GET /api/cart.
func (h *CartHandler) Get(c *gin.Context) {
	userID, _ := currentUser(c)
	cart, err := h.useCase.GetCart(c.Request.Context(), userID)
	if err != nil {
		h.resp.fail(c, err)
		return
	}
	h.resp.ok(c, http.StatusOK, "", cart)
}

// SetItem handles POST /api/cart/items.
func (h *CartHandler) SetItem(c *gin.Context) {
	var input CartItemInput
	if err := c.ShouldBindJSON(&input); err != nil {
		h.resp.badRequest(c, err)
		return
	}

	userID, _ := currentUser(c)
	cart, err := h.useCase.SetItem(c.Request.Context(), userID, input)
	if err != nil {
		h.resp.fail(c, err)
		return
	}
	h.resp.ok(c, http.StatusOK, "cart updated", cart)
}

// RemoveItem handles DELETE /api/cart/items/:productId.
func (h *CartHandler) RemoveItem(c *gin.Context) {
	userID, _ := currentUser(c)
	cart, err := h.useCase.RemoveItem(c.Request.Context(), userID, c.Param("productId"))
	if err != nil {
		h.resp.fail(c, err)
		return
	}
	h.resp.ok(c, http.StatusOK, "item removed", cart)
}

// Clear handles DELETE /api/cart.
func (h *CartHandler) Clear(c *gin.Context) {
	userID, _ := currentUser(c)
	if err := h.useCase.ClearCart(c.Request.Context(), userID); err != nil {
		h.resp.fail(c, err)
		return
	}
	h.resp.ok(c, http.StatusOK, "cart cleared", nil)
}
