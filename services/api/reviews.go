package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// ReviewRepository defines review persistence operations.
type ReviewRepository interface {
	CreateReview(ctx context.Context, review *Review) error
	// HasReviewed reports whether the user already reviewed the product.
	HasReviewed(ctx context.Context, userID, productID string) (bool, error)
	ListByProduct(ctx context.Context, productID string) ([]Review, error)
	// RatingSummary returns the average rating and review count of a product.
	RatingSummary(ctx context.Context, productID string) (float64, int, error)
}

// PostgresReviewRepository implements ReviewRepository using PostgreSQL.
type PostgresReviewRepository struct {
	db *pgxpool.Pool
}

// NewReviewRepository creates a new PostgresReviewRepository.
func NewReviewRepository(db *pgxpool.Pool) ReviewRepository {
	return &PostgresReviewRepository{db: db}
}

func (r *PostgresReviewRepository) CreateReview(ctx context.Context, review *Review) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO reviews (id, product_id, user_id, rating, comment, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, review.ID, review.ProductID, review.UserID, review.Rating, review.Comment, review.CreatedAt, review.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert review: %w", err)
	}
	return nil
}

func (r *PostgresReviewRepository) HasReviewed(ctx context.Context, userID, productID string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM reviews WHERE user_id = $1 AND product_id = $2)
	`, userID, productID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check review existence: %w", err)
	}
	return exists, nil
}

func (r *PostgresReviewRepository) ListByProduct(ctx context.Context, productID string) ([]Review, error) {
	rows, err := r.db.Query(ctx, `
		SELECT r.id, r.product_id, r.user_id, u.full_name, r.rating, r.comment, r.created_at, r.updated_at
		FROM reviews r
		JOIN users u ON u.id = r.user_id
		WHERE r.product_id = $1
		ORDER BY r.created_at DESC
	`, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	defer rows.Close()

	var reviews []Review
	for rows.Next() {
		var review Review
		if err := rows.Scan(
			&review.ID, &review.ProductID, &review.UserID, &review.UserName,
			&review.Rating, &review.Comment, &review.CreatedAt, &review.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan review: %w", err)
		}
		reviews = append(reviews, review)
	}
	return reviews, rows.Err()
}

func (r *PostgresReviewRepository) RatingSummary(ctx context.Context, productID string) (float64, int, error) {
	var average float64
	var count int
	err := r.db.QueryRow(ctx, `
		SELECT COALESCE(AVG(rating), 0), COUNT(*)
		FROM reviews WHERE product_id = $1
	`, productID).Scan(&average, &count)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to summarize ratings: %w", err)
	}
	return average, count, nil
}

// ReviewInput is the payload for posting a review.
type ReviewInput struct {
	Rating  int    `json:"rating" binding:"required,min=1,max=5"`
	Comment string `json:"comment"`
}

// ReviewUseCase implements product reviews with a denormalized rating
// aggregate on the product row.
type ReviewUseCase struct {
	reviews  ReviewRepository
	products ProductRepository
	logger   *zap.Logger
}

// NewReviewUseCase creates a new ReviewUseCase.
func NewReviewUseCase(reviews ReviewRepository, products ProductRepository, logger *zap.Logger) *ReviewUseCase {
	return &ReviewUseCase{
		reviews:  reviews,
		products: products,
		logger:   logger,
	}
}

// AddReview posts one review per user per product and refreshes the product's
// rating aggregate.
func (uc *ReviewUseCase) AddReview(ctx context.Context, userID, productID string, input ReviewInput) (*Review, error) {
	if input.Rating < 1 || input.Rating > 5 {
		return nil, NewValidationError("rating must be between 1 and 5")
	}

	product, err := uc.products.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, NewNotFoundError("product %s does not exist", productID)
	}

	reviewed, err := uc.reviews.HasReviewed(ctx, userID, productID)
	if err != nil {
		return nil, err
	}
	if reviewed {
		return nil, NewConflictError("you have already reviewed this product")
	}

	review := &Review{
		ID:        uuid.New().String(),
		ProductID: productID,
		UserID:    userID,
		Rating:    input.Rating,
		Comment:   input.Comment,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	if err := uc.reviews.CreateReview(ctx, review); err != nil {
		return nil, err
	}

	average, count, err := uc.reviews.RatingSummary(ctx, productID)
	if err != nil {
		return nil, err
	}
	if err := uc.products.UpdateRating(ctx, productID, average, count); err != nil {
		return nil, err
	}

	uc.logger.Info("review added",
		zap.String("product_id", productID),
		zap.Int("rating", input.Rating),
	)
	return review, nil
}

// ListReviews returns a product's reviews, newest first.
func (uc *ReviewUseCase) ListReviews(ctx context.Context, productID string) ([]Review, error) {
	product, err := uc.products.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, NewNotFoundError("product %s does not exist", productID)
	}
	return uc.reviews.ListByProduct(ctx, productID)
}

// ReviewHandler contains the review HTTP handlers.
type ReviewHandler struct {
	useCase *ReviewUseCase
	resp    *responder
}

// NewReviewHandler creates a new ReviewHandler.
func NewReviewHandler(useCase *ReviewUseCase, resp *responder) *ReviewHandler {
	return &ReviewHandler{useCase: useCase, resp: resp}
}

// Create handles POST /api/products/:id/reviews.
func (h *ReviewHandler) Create(c *gin.Context) {
	var input ReviewInput
	if err := c.ShouldBindJSON(&input); err != nil {
		h.resp.badRequest(c, err)
		return
	}

	userID, _ := currentUser(c)
	review, err := h.useCase.AddReview(c.Request.Context(), userID, c.Param("id"), input)
	if err != nil {
		h.resp.fail(c, err)
		return
	}
	h.resp.ok(c, http.StatusCreated, "review added", review)
}

// List handles GET /api/products/:id/reviews.
func (h *ReviewHandler) List(c *gin.Context) {
	reviews, err := h.useCase.ListReviews(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.resp.fail(c, err)
		return
	}
	h.resp.ok(c, http.StatusOK, "", reviews)
}
