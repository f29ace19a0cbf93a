package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
)

// WishlistRepository defines wishlist persistence operations. A wishlist is a
// set of product ids per user; adding twice is a no-op.
type WishlistRepository interface {
	ListWishlist(ctx context.Context, userID string) ([]Product, error)
	AddToWishlist(ctx context.Context, userID, productID string) error
	RemoveFromWishlist(ctx context.Context, userID, productID string) error
}

// PostgresWishlistRepository implements WishlistRepository using PostgreSQL.
type PostgresWishlistRepository struct {
	db *pgxpool.Pool
}

// NewWishlistRepository creates a new PostgresWishlistRepository.
func NewWishlistRepository(db *pgxpool.Pool) WishlistRepository {
	return &PostgresWishlistRepository{db: db}
}

func (r *PostgresWishlistRepository) ListWishlist(ctx context.Context, userID string) ([]Product, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+prefixedProductColumns("p")+`
		FROM wishlist_items w
		JOIN products p ON p.id = w.product_id
		WHERE w.user_id = $1
		ORDER BY w.added_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query wishlist: %w", err)
	}
	defer rows.Close()

	products := []Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan wishlist product: %w", err)
		}
		products = append(products, *p)
	}
	return products, rows.Err()
}

func (r *PostgresWishlistRepository) AddToWishlist(ctx context.Context, userID, productID string) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO wishlist_items (user_id, product_id, added_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (user_id, product_id) DO NOTHING
	`, userID, productID)
	if err != nil {
		return fmt.Errorf("failed to add wishlist item: %w", err)
	}
	return nil
}

func (r *PostgresWishlistRepository) RemoveFromWishlist(ctx context.Context, userID, productID string) error {
	_, err := r.db.Exec(ctx, `
		DELETE FROM wishlist_items WHERE user_id = $1 AND product_id = $2
	`, userID, productID)
	if err != nil {
		return fmt.Errorf("failed to remove wishlist item: %w", err)
	}
	return nil
}

// WishlistUseCase implements the wishlist.
type WishlistUseCase struct {
	wishlists WishlistRepository
	products  ProductRepository
}

// NewWishlistUseCase creates a new WishlistUseCase.
func NewWishlistUseCase(wishlists WishlistRepository, products ProductRepository) *WishlistUseCase {
	return &WishlistUseCase{wishlists: wishlists, products: products}
}

// ListWishlist returns the user's wishlisted products.
func (uc *WishlistUseCase) ListWishlist(ctx context.Context, userID string) ([]Product, error) {
	return uc.wishlists.ListWishlist(ctx, userID)
}

// AddToWishlist adds a product to the wishlist; adding it again is a no-op.
func (uc *WishlistUseCase) AddToWishlist(ctx context.Context, userID, productID string) error {
	product, err := uc.products.GetProduct(ctx, productID)
	if err != nil {
		return err
	}
	if product == nil {
		return NewNotFoundError("product %s does not exist", productID)
	}
	return uc.wishlists.AddToWishlist(ctx, userID, productID)
}

// RemoveFromWishlist drops a product from the wishlist.
func (uc *WishlistUseCase) RemoveFromWishlist(ctx context.Context, userID, productID string) error {
	return uc.wishlists.RemoveFromWishlist(ctx, userID, productID)
}

// WishlistHandler contains the wishlist HTTP handlers.
type WishlistHandler struct {
	useCase *WishlistUseCase
	resp    *responder
}

// NewWishlistHandler creates a new WishlistHandler.
func NewWishlistHandler(useCase *WishlistUseCase, resp *responder) *WishlistHandler {
	return &WishlistHandler{useCase: useCase, resp: resp}
}

// List handles GET /api/wishlist.
func (h *WishlistHandler) List(c *gin.Context) {
	userID, _ := currentUser(c)
	products, err := h.useCase.ListWishlist(c.Request.Context(), userID)
	if err != nil {
		h.resp.fail(c, err)
		return
	}
	h.resp.ok(c, http.StatusOK, "", products)
}

// Add handles POST /api/wishlist/:productId.
func (h *WishlistHandler) Add(c *gin.Context) {
	userID, _ := currentUser(c)
	if err := h.useCase.AddToWishlist(c.Request.Context(), userID, c.Param("productId")); err != nil {
		h.resp.fail(c, err)
		return
	}
	h.resp.ok(c, http.StatusCreated, "added to wishlist", nil)
}

// Remove handles DELETE /api/wishlist/:productId.
func (h *WishlistHandler) Remove(c *gin.Context) {
	userID, _ := currentUser(c)
	if err := h.useCase.RemoveFromWishlist(c.Request.Context(), userID, c.Param("productId")); err != nil {
		h.resp.fail(c, err)
		return
	}
	h.resp.ok(c, http.StatusOK, "removed from wishlist", nil)
}
