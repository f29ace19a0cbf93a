package main

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockTx simulates a database transaction.
type MockTx struct {
	mock.Mock
}

func (m *MockTx) Commit() error {
	return m.Called().Error(0)
}

func (m *MockTx) Rollback() error {
	return m.Called().Error(0)
}

// MockOrderRepository is a testify mock of OrderRepository.
type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) BeginTx(ctx context.Context) (Tx, error) {
	args := m.Called(ctx)
	tx, _ := args.Get(0).(Tx)
	return tx, args.Error(1)
}

func (m *MockOrderRepository) CreateOrder(ctx context.Context, tx Tx, order *Order) error {
	return m.Called(ctx, tx, order).Error(0)
}

func (m *MockOrderRepository) GetOrder(ctx context.Context, orderID string) (*Order, error) {
	args := m.Called(ctx, orderID)
	order, _ := args.Get(0).(*Order)
	return order, args.Error(1)
}

func (m *MockOrderRepository) GetOrderForUpdate(ctx context.Context, tx Tx, orderID string) (*Order, error) {
	args := m.Called(ctx, tx, orderID)
	order, _ := args.Get(0).(*Order)
	return order, args.Error(1)
}

func (m *MockOrderRepository) UpdateOrderStatus(ctx context.Context, tx Tx, orderID string, status string) error {
	return m.Called(ctx, tx, orderID, status).Error(0)
}

func (m *MockOrderRepository) DeleteOrder(ctx context.Context, tx Tx, orderID string) error {
	return m.Called(ctx, tx, orderID).Error(0)
}

func (m *MockOrderRepository) ListOrders(ctx context.Context, filter OrderFilter) ([]Order, error) {
	args := m.Called(ctx, filter)
	orders, _ := args.Get(0).([]Order)
	return orders, args.Error(1)
}

func (m *MockOrderRepository) CountOrders(ctx context.Context, filter OrderFilter) (int, error) {
	args := m.Called(ctx, filter)
	return args.Int(0), args.Error(1)
}

// MockProductRepository is a testify mock of ProductRepository.
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) CreateProduct(ctx context.Context, product *Product) error {
	return m.Called(ctx, product).Error(0)
}

func (m *MockProductRepository) UpdateProduct(ctx context.Context, product *Product) error {
	return m.Called(ctx, product).Error(0)
}

func (m *MockProductRepository) DeleteProduct(ctx context.Context, productID string) error {
	return m.Called(ctx, productID).Error(0)
}

func (m *MockProductRepository) GetProduct(ctx context.Context, productID string) (*Product, error) {
	args := m.Called(ctx, productID)
	product, _ := args.Get(0).(*Product)
	return product, args.Error(1)
}

func (m *MockProductRepository) GetProductForUpdate(ctx context.Context, tx Tx, productID string) (*Product, error) {
	args := m.Called(ctx, tx, productID)
	product, _ := args.Get(0).(*Product)
	return product, args.Error(1)
}

func (m *MockProductRepository) IncrementStock(ctx context.Context, tx Tx, productID string, delta int) error {
	return m.Called(ctx, tx, productID, delta).Error(0)
}

func (m *MockProductRepository) UpdateRating(ctx context.Context, productID string, average float64, count int) error {
	return m.Called(ctx, productID, average, count).Error(0)
}

func (m *MockProductRepository) ListProducts(ctx context.Context, filter ProductFilter) ([]Product, error) {
	args := m.Called(ctx, filter)
	products, _ := args.Get(0).([]Product)
	return products, args.Error(1)
}

func (m *MockProductRepository) CountProducts(ctx context.Context, filter ProductFilter) (int, error) {
	args := m.Called(ctx, filter)
	return args.Int(0), args.Error(1)
}

// MockCartRepository is a testify mock of CartRepository.
type MockCartRepository struct {
	mock.Mock
}

func (m *MockCartRepository) GetCart(ctx context.Context, userID string) (*Cart, error) {
	args := m.Called(ctx, userID)
	cart, _ := args.Get(0).(*Cart)
	return cart, args.Error(1)
}

func (m *MockCartRepository) UpsertItem(ctx context.Context, userID, productID string, quantity int) error {
	return m.Called(ctx, userID, productID, quantity).Error(0)
}

func (m *MockCartRepository) RemoveItem(ctx context.Context, userID, productID string) error {
	return m.Called(ctx, userID, productID).Error(0)
}

func (m *MockCartRepository) ClearCart(ctx context.Context, userID string) error {
	return m.Called(ctx, userID).Error(0)
}

// MockUserRepository is a testify mock of UserRepository.
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) CreateUser(ctx context.Context, user *User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *MockUserRepository) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	args := m.Called(ctx, email)
	user, _ := args.Get(0).(*User)
	return user, args.Error(1)
}

func (m *MockUserRepository) GetUserByID(ctx context.Context, userID string) (*User, error) {
	args := m.Called(ctx, userID)
	user, _ := args.Get(0).(*User)
	return user, args.Error(1)
}
