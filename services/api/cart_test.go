package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestCartSetItem_RejectsUnknownProduct(t *testing.T) {
	// Arrange
	carts := new(MockCartRepository)
	products := new(MockProductRepository)
	uc := NewCartUseCase(carts, products)
	products.On("GetProduct", mock.Anything, "missing").Return(nil, nil)

	// Act
	_, err := uc.SetItem(context.Background(), "user-1", CartItemInput{ProductID: "missing", Quantity: 1})

	// Assert
	appErr, ok := AsAppError(err)
	assert.True(t, ok)
	assert.Equal(t, ErrKindNotFound, appErr.Kind)
	carts.AssertNotCalled(t, "UpsertItem", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCartSetItem_RejectsInactiveProduct(t *testing.T) {
	carts := new(MockCartRepository)
	products := new(MockProductRepository)
	uc := NewCartUseCase(carts, products)
	products.On("GetProduct", mock.Anything, "p1").Return(&Product{
		ID: "p1", Name: "Apples", Stock: 5, IsActive: false,
	}, nil)

	_, err := uc.SetItem(context.Background(), "user-1", CartItemInput{ProductID: "p1", Quantity: 1})

	appErr, ok := AsAppError(err)
	assert.True(t, ok)
	assert.Equal(t, ErrKindValidation, appErr.Kind)
	carts.AssertNotCalled(t, "UpsertItem", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCartSetItem_RejectsOutOfStockProduct(t *testing.T) {
	carts := new(MockCartRepository)
	products := new(MockProductRepository)
	uc := NewCartUseCase(carts, products)
	products.On("GetProduct", mock.Anything, "p1").Return(&Product{
		ID: "p1", Name: "Apples", Stock: 0, IsActive: true,
	}, nil)

	_, err := uc.SetItem(context.Background(), "user-1", CartItemInput{ProductID: "p1", Quantity: 1})

	appErr, ok := AsAppError(err)
	assert.True(t, ok)
	assert.Equal(t, ErrKindValidation, appErr.Kind)
	assert.Contains(t, appErr.Message, "out of stock")
	carts.AssertNotCalled(t, "UpsertItem", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCartSetItem_UpsertsAndReturnsCart(t *testing.T) {
	// Arrange
	carts := new(MockCartRepository)
	products := new(MockProductRepository)
	uc := NewCartUseCase(carts, products)
	products.On("GetProduct", mock.Anything, "p1").Return(&Product{
		ID: "p1", Name: "Apples", Price: 15000, Stock: 5, IsActive: true,
	}, nil)
	carts.On("UpsertItem", mock.Anything, "user-1", "p1", 2).Return(nil)
	carts.On("GetCart", mock.Anything, "user-1").Return(&Cart{
		UserID: "user-1",
		Items:  []CartItem{{ProductID: "p1", Price: 15000, Quantity: 2}},
	}, nil)

	// Act
	cart, err := uc.SetItem(context.Background(), "user-1", CartItemInput{ProductID: "p1", Quantity: 2})

	// Assert
	assert.NoError(t, err)
	assert.Equal(t, 30000, cart.Subtotal())
	carts.AssertExpectations(t)
}
