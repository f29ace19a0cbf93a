package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	pgx "github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CategoryRepository defines category persistence operations.
type CategoryRepository interface {
	CreateCategory(ctx context.Context, category *Category) error
	UpdateCategory(ctx context.Context, category *Category) error
	DeleteCategory(ctx context.Context, categoryID string) error
	GetCategory(ctx context.Context, categoryID string) (*Category, error)
	GetCategoryByName(ctx context.Context, name string) (*Category, error)
	ListCategories(ctx context.Context) ([]Category, error)
}

// PostgresCategoryRepository implements CategoryRepository using PostgreSQL.
type PostgresCategoryRepository struct {
	db *pgxpool.Pool
}

// NewCategoryRepository creates a new PostgresCategoryRepository.
func NewCategoryRepository(db *pgxpool.Pool) CategoryRepository {
	return &PostgresCategoryRepository{db: db}
}

func (r *PostgresCategoryRepository) CreateCategory(ctx context.Context, category *Category) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO categories (id, name, description, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, category.ID, category.Name, category.Description, category.IsActive, category.CreatedAt, category.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert category: %w", err)
	}
	return nil
}

func (r *PostgresCategoryRepository) UpdateCategory(ctx context.Context, category *Category) error {
	_, err := r.db.Exec(ctx, `
		UPDATE categories
		SET name = $1, description = $2, is_active = $3, updated_at = NOW()
		WHERE id = $4
	`, category.Name, category.Description, category.IsActive, category.ID)
	if err != nil {
		return fmt.Errorf("failed to update category: %w", err)
	}
	return nil
}

func (r *PostgresCategoryRepository) DeleteCategory(ctx context.Context, categoryID string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM categories WHERE id = $1`, categoryID)
	if err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}
	return nil
}

func (r *PostgresCategoryRepository) getCategory(ctx context.Context, where string, arg any) (*Category, error) {
	var category Category
	err := r.db.QueryRow(ctx, `
		SELECT id, name, description, is_active, created_at, updated_at
		FROM categories WHERE `+where+` = $1
	`, arg).Scan(
		&category.ID, &category.Name, &category.Description,
		&category.IsActive, &category.CreatedAt, &category.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get category: %w", err)
	}
	return &category, nil
}

func (r *PostgresCategoryRepository) GetCategory(ctx context.Context, categoryID string) (*Category, error) {
	return r.getCategory(ctx, "id", categoryID)
}

func (r *PostgresCategoryRepository) GetCategoryByName(ctx context.Context, name string) (*Category, error) {
	return r.getCategory(ctx, "name", name)
}

func (r *PostgresCategoryRepository) ListCategories(ctx context.Context) ([]Category, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, name, description, is_active, created_at, updated_at
		FROM categories ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	var categories []Category
	for rows.Next() {
		var category Category
		if err := rows.Scan(
			&category.ID, &category.Name, &category.Description,
			&category.IsActive, &category.CreatedAt, &category.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, category)
	}
	return categories, rows.Err()
}

// CategoryInput is the payload for creating or updating a category.
type CategoryInput struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	IsActive    *bool  `json:"is_active"`
}

// CategoryUseCase implements category management.
type CategoryUseCase struct {
	categories CategoryRepository
}

// NewCategoryUseCase creates a new CategoryUseCase.
func NewCategoryUseCase(categories CategoryRepository) *CategoryUseCase {
	return &CategoryUseCase{categories: categories}
}

// CreateCategory adds a category; names are unique.
func (uc *CategoryUseCase) CreateCategory(ctx context.Context, input CategoryInput) (*Category, error) {
	existing, err := uc.categories.GetCategoryByName(ctx, input.Name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, NewConflictError("category %q already exists", input.Name)
	}

	category := &Category{
		ID:          uuid.New().String(),
		Name:        input.Name,
		Description: input.Description,
		IsActive:    true,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	if input.IsActive != nil {
		category.IsActive = *input.IsActive
	}

	if err := uc.categories.CreateCategory(ctx, category); err != nil {
		return nil, err
	}
	return category, nil
}

// UpdateCategory rewrites a category's fields.
func (uc *CategoryUseCase) UpdateCategory(ctx context.Context, categoryID string, input CategoryInput) (*Category, error) {
	category, err := uc.categories.GetCategory(ctx, categoryID)
	if err != nil {
		return nil, err
	}
	if category == nil {
		return nil, NewNotFoundError("category %s does not exist", categoryID)
	}

	category.Name = input.Name
	category.Description = input.Description
	if input.IsActive != nil {
		category.IsActive = *input.IsActive
	}

	if err := uc.categories.UpdateCategory(ctx, category); err != nil {
		return nil, err
	}
	return category, nil
}

// DeleteCategory removes a category.
func (uc *CategoryUseCase) DeleteCategory(ctx context.Context, categoryID string) error {
	category, err := uc.categories.GetCategory(ctx, categoryID)
	if err != nil {
		return err
	}
	if category == nil {
		return NewNotFoundError("category %s does not exist", categoryID)
	}
	return uc.categories.DeleteCategory(ctx, categoryID)
}

// GetCategory returns one category.
func (uc *CategoryUseCase) GetCategory(ctx context.Context, categoryID string) (*Category, error) {
	category, err := uc.categories.GetCategory(ctx, categoryID)
	if err != nil {
		return nil, err
	}
	if category == nil {
		return nil, NewNotFoundError("category %s does not exist", categoryID)
	}
	return category, nil
}

// ListCategories returns every category sorted by name.
func (uc *CategoryUseCase) ListCategories(ctx context.Context) ([]Category, error) {
	return uc.categories.ListCategories(ctx)
}

// CategoryHandler contains the category HTTP handlers.
type CategoryHandler struct {
	useCase *CategoryUseCase
	resp    *responder
}

// NewCategoryHandler creates a new CategoryHandler.
func NewCategoryHandler(useCase *CategoryUseCase, resp *responder) *CategoryHandler {
	return &CategoryHandler{useCase: useCase, resp: resp}
}

func (h *CategoryHandler) Create(c *gin.Context) {
	var input CategoryInput
	if err := c.ShouldBindJSON(&input); err != nil {
		h.resp.badRequest(c, err)
		return
	}
	category, err := h.useCase.CreateCategory(c.Request.Context(), input)
	if err != nil {
		h.resp.fail(c, err)
		return
	}
	h.resp.ok(c, http.StatusCreated, "category created", category)
}

func (h *CategoryHandler) Update(c *gin.Context) {
	var input CategoryInput
	if err := c.ShouldBindJSON(&input); err != nil {
		h.resp.badRequest(c, err)
		return
	}
	category, err := h.useCase.UpdateCategory(c.Request.Context(), c.Param("id"), input)
	if err != nil {
		h.resp.fail(c, err)
		return
	}
	h.resp.ok(c, http.StatusOK, "category updated", category)
}

func (h *CategoryHandler) Delete(c *gin.Context) {
	if err := h.useCase.DeleteCategory(c.Request.Context(), c.Param("id")); err != nil {
		h.resp.fail(c, err)
		return
	}
	h.resp.ok(c, http.StatusOK, "category deleted", nil)
}

func (h *CategoryHandler) Get(c *gin.Context) {
	category, err := h.useCase.GetCategory(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.resp.fail(c, err)
		return
	}
	h.resp.ok(c, http.StatusOK, "", category)
}

func (h *CategoryHandler) List(c *gin.Context) {
	categories, err := h.useCase.ListCategories(c.Request.Context())
	if err != nil {
		h.resp.fail(c, err)
		return
	}
	h.resp.ok(c, http.StatusOK, "", categories)
}
