package main

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ProductInput is the payload for creating or updating a product.
type ProductInput struct {
	Name        string `json:"name" binding:"required,max=100"`
	Description string `json:"description"`
	Price       int    `json:"price" binding:"min=0"`
	Stock       int    `json:"stock" binding:"min=0"`
	CategoryID  string `json:"category_id" binding:"required"`
	ImageURL    string `json:"image_url"`
	Unit        string `json:"unit" binding:"required"`
	IsActive    *bool  `json:"is_active"`
}

// ProductPage is one page of products plus its pagination envelope.
type ProductPage struct {
	Products   []Product  `json:"products"`
	Pagination Pagination `json:"pagination"`
}

// ProductUseCase implements catalog management. Stock set here is the initial
// count only; afterwards stock moves exclusively through the order flow.
type ProductUseCase struct {
	products   ProductRepository
	categories CategoryRepository
	logger     *zap.Logger
}

// NewProductUseCase creates a new ProductUseCase.
func NewProductUseCase(products ProductRepository, categories CategoryRepository, logger *zap.Logger) *ProductUseCase {
	return &ProductUseCase{
		products:   products,
		categories: categories,
		logger:     logger,
	}
}

func (uc *ProductUseCase) validateInput(ctx context.Context, input ProductInput) error {
	if !IsValidUnit(input.Unit) {
		return NewValidationError("unknown product unit %q", input.Unit)
	}
	category, err := uc.categories.GetCategory(ctx, input.CategoryID)
	if err != nil {
		return err
	}
	if category == nil {
		return NewNotFoundError("category %s does not exist", input.CategoryID)
	}
	return nil
}

// CreateProduct adds a catalog entry with its initial stock.
func (uc *ProductUseCase) CreateProduct(ctx context.Context, input ProductInput) (*Product, error) {
	if err := uc.validateInput(ctx, input); err != nil {
		return nil, err
	}

	product := &Product{
		ID:          uuid.New().String(),
		Name:        input.Name,
		Description: input.Description,
		Price:       input.Price,
		Stock:       input.Stock,
		CategoryID:  input.CategoryID,
		ImageURL:    input.ImageURL,
		Unit:        input.Unit,
		IsActive:    true,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	if input.IsActive != nil {
		product.IsActive = *input.IsActive
	}

	if err := uc.products.CreateProduct(ctx, product); err != nil {
		return nil, err
	}

	uc.logger.Info("product created", zap.String("product_id", product.ID), zap.Int("stock", product.Stock))
	return product, nil
}

// UpdateProduct rewrites a product's catalog fields. Stock is untouched; it
// only moves through order creation and cancellation.
func (uc *ProductUseCase) UpdateProduct(ctx context.Context, productID string, input ProductInput) (*Product, error) {
	product, err := uc.products.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, NewNotFoundError("product %s does not exist", productID)
	}
	if err := uc.validateInput(ctx, input); err != nil {
		return nil, err
	}

	product.Name = input.Name
	product.Description = input.Description
	product.Price = input.Price
	product.CategoryID = input.CategoryID
	product.ImageURL = input.ImageURL
	product.Unit = input.Unit
	if input.IsActive != nil {
		product.IsActive = *input.IsActive
	}

	if err := uc.products.UpdateProduct(ctx, product); err != nil {
		return nil, err
	}
	return uc.products.GetProduct(ctx, productID)
}

// DeleteProduct removes a product from the catalog.
func (uc *ProductUseCase) DeleteProduct(ctx context.Context, productID string) error {
	product, err := uc.products.GetProduct(ctx, productID)
	if err != nil {
		return err
	}
	if product == nil {
		return NewNotFoundError("product %s does not exist", productID)
	}
	return uc.products.DeleteProduct(ctx, productID)
}

// GetProduct returns one product.
func (uc *ProductUseCase) GetProduct(ctx context.Context, productID string) (*Product, error) {
	product, err := uc.products.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, NewNotFoundError("product %s does not exist", productID)
	}
	return product, nil
}

// ListProducts returns one page of products matching the filter.
func (uc *ProductUseCase) ListProducts(ctx context.Context, filter ProductFilter) (*ProductPage, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 10
	}
	if filter.Limit > 100 {
		filter.Limit = 100
	}

	products, err := uc.products.ListProducts(ctx, filter)
	if err != nil {
		return nil, err
	}
	total, err := uc.products.CountProducts(ctx, filter)
	if err != nil {
		return nil, err
	}

	return &ProductPage{
		Products: products,
		Pagination: Pagination{
			Page:       filter.Page,
			Limit:      filter.Limit,
			Total:      total,
			TotalPages: (total + filter.Limit - 1) / filter.Limit,
		},
	}, nil
}
