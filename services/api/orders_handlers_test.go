package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

type MockOrderUseCase struct {
	mock.Mock
}

func (m *MockOrderUseCase) CreateOrder(ctx context.Context, userID string, input CreateOrderInput) (*Order, error) {
	args := m.Called(ctx, userID, input)
	order, _ := args.Get(0).(*Order)
	return order, args.Error(1)
}

func (m *MockOrderUseCase) UpdateOrderStatus(ctx context.Context, orderID string, newStatus string) (*Order, error) {
	args := m.Called(ctx, orderID, newStatus)
	order, _ := args.Get(0).(*Order)
	return order, args.Error(1)
}

func (m *MockOrderUseCase) DeleteOrder(ctx context.Context, orderID, userID, role string) error {
	args := m.Called(ctx, orderID, userID, role)
	return args.Error(0)
}

func (m *MockOrderUseCase) GetOrderByID(ctx context.Context, orderID, userID, role string) (*Order, error) {
	args := m.Called(ctx, orderID, userID, role)
	order, _ := args.Get(0).(*Order)
	return order, args.Error(1)
}

func (m *MockOrderUseCase) ListOrders(ctx context.Context, filter OrderFilter) (*OrderPage, error) {
	args := m.Called(ctx, filter)
	page, _ := args.Get(0).(*OrderPage)
	return page, args.Error(1)
}

func newOrderTestRouter(useCase OrderUseCaseInterface, userID, role string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	handler := NewOrderHandler(useCase, &responder{logger: zap.NewNop(), production: true})

	router := gin.New()
	authed := router.Group("/api", func(c *gin.Context) {
		c.Set(ctxUserID, userID)
		c.Set(ctxUserRole, role)
	})
	authed.POST("/orders", handler.CreateOrder)
	authed.GET("/orders", handler.GetMyOrders)
	authed.GET("/orders/all", handler.GetAllOrders)
	authed.GET("/orders/:id", handler.GetOrderByID)
	authed.PATCH("/orders/:id/status", handler.UpdateOrderStatus)
	authed.DELETE("/orders/:id", handler.DeleteOrder)
	return router
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) apiResponse {
	t.Helper()
	var resp apiResponse
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestCreateOrderHandler_Created(t *testing.T) {
	// Arrange
	useCase := new(MockOrderUseCase)
	router := newOrderTestRouter(useCase, "user-1", RoleCustomer)

	input := CreateOrderInput{
		Items:           []CreateOrderItemInput{{ProductID: "p1", Quantity: 2}},
		ShippingAddress: "12 Market Street",
	}
	useCase.On("CreateOrder", mock.Anything, "user-1", input).Return(&Order{ID: "order-1"}, nil)

	body, _ := json.Marshal(input)
	req := httptest.NewRequest(http.MethodPost, "/api/orders", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	// Act
	router.ServeHTTP(rec, req)

	// Assert
	assert.Equal(t, http.StatusCreated, rec.Code)
	resp := decodeResponse(t, rec)
	assert.True(t, resp.Success)
	assert.Equal(t, "order created", resp.Message)
	useCase.AssertExpectations(t)
}

func TestCreateOrderHandler_MalformedBody(t *testing.T) {
	useCase := new(MockOrderUseCase)
	router := newOrderTestRouter(useCase, "user-1", RoleCustomer)

	req := httptest.NewRequest(http.MethodPost, "/api/orders", bytes.NewReader([]byte(`{"items":`)))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeResponse(t, rec)
	assert.False(t, resp.Success)
	useCase.AssertNotCalled(t, "CreateOrder", mock.Anything, mock.Anything, mock.Anything)
}

func TestCreateOrderHandler_ValidationErrorMapsTo400(t *testing.T) {
	useCase := new(MockOrderUseCase)
	router := newOrderTestRouter(useCase, "user-1", RoleCustomer)

	useCase.On("CreateOrder", mock.Anything, "user-1", mock.Anything).
		Return(nil, NewValidationError("product Apples is short on stock: 1 left"))

	body, _ := json.Marshal(CreateOrderInput{
		Items:           []CreateOrderItemInput{{ProductID: "p1", Quantity: 2}},
		ShippingAddress: "12 Market Street",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/orders", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeResponse(t, rec)
	assert.False(t, resp.Success)
	assert.Equal(t, "product Apples is short on stock: 1 left", resp.Message)
}

func TestGetOrderHandler_NotFoundMapsTo404(t *testing.T) {
	useCase := new(MockOrderUseCase)
	router := newOrderTestRouter(useCase, "user-1", RoleCustomer)

	useCase.On("GetOrderByID", mock.Anything, "missing", "user-1", RoleCustomer).
		Return(nil, NewNotFoundError("order missing does not exist"))

	req := httptest.NewRequest(http.MethodGet, "/api/orders/missing", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	resp := decodeResponse(t, rec)
	assert.False(t, resp.Success)
	assert.Equal(t, "order missing does not exist", resp.Message)
}

func TestGetMyOrdersHandler_ForcesCallerAsFilter(t *testing.T) {
	// The user_id query parameter must not let a customer read someone
	// else's orders.
	useCase := new(MockOrderUseCase)
	router := newOrderTestRouter(useCase, "user-1", RoleCustomer)

	expected := OrderFilter{UserID: "user-1", Status: "pending", Page: 2, Limit: 5}
	useCase.On("ListOrders", mock.Anything, expected).Return(&OrderPage{
		Orders:     []Order{},
		Pagination: Pagination{Page: 2, Limit: 5},
	}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/orders?status=pending&page=2&limit=5&user_id=someone-else", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	useCase.AssertExpectations(t)
}

func TestGetAllOrdersHandler_PassesUserFilter(t *testing.T) {
	useCase := new(MockOrderUseCase)
	router := newOrderTestRouter(useCase, "admin-1", RoleAdmin)

	expected := OrderFilter{UserID: "user-2", Page: 1, Limit: 10}
	useCase.On("ListOrders", mock.Anything, expected).Return(&OrderPage{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/orders/all?user_id=user-2", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	useCase.AssertExpectations(t)
}

func TestUpdateOrderStatusHandler_OK(t *testing.T) {
	useCase := new(MockOrderUseCase)
	router := newOrderTestRouter(useCase, "admin-1", RoleAdmin)

	useCase.On("UpdateOrderStatus", mock.Anything, "order-1", OrderStatusConfirmed).
		Return(&Order{ID: "order-1", Status: OrderStatusConfirmed}, nil)

	body := []byte(`{"status":"confirmed"}`)
	req := httptest.NewRequest(http.MethodPatch, "/api/orders/order-1/status", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	assert.True(t, resp.Success)
	assert.Equal(t, "order status updated", resp.Message)
}

func TestUpdateOrderStatusHandler_MissingStatusRejected(t *testing.T) {
	useCase := new(MockOrderUseCase)
	router := newOrderTestRouter(useCase, "admin-1", RoleAdmin)

	req := httptest.NewRequest(http.MethodPatch, "/api/orders/order-1/status", bytes.NewReader([]byte(`{}`)))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	useCase.AssertNotCalled(t, "UpdateOrderStatus", mock.Anything, mock.Anything, mock.Anything)
}

func TestDeleteOrderHandler_OK(t *testing.T) {
	useCase := new(MockOrderUseCase)
	router := newOrderTestRouter(useCase, "user-1", RoleCustomer)

	useCase.On("DeleteOrder", mock.Anything, "order-1", "user-1", RoleCustomer).Return(nil)

	req := httptest.NewRequest(http.MethodDelete, "/api/orders/order-1", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	assert.True(t, resp.Success)
	assert.Equal(t, "order deleted", resp.Message)
}

func TestResponderHidesInternalErrorsInProduction(t *testing.T) {
	useCase := new(MockOrderUseCase)
	router := newOrderTestRouter(useCase, "user-1", RoleCustomer)

	useCase.On("GetOrderByID", mock.Anything, "order-1", "user-1", RoleCustomer).
		Return(nil, errors.New("pq: connection refused"))

	req := httptest.NewRequest(http.MethodGet, "/api/orders/order-1", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	resp := decodeResponse(t, rec)
	assert.False(t, resp.Success)
	assert.Equal(t, "internal server error", resp.Message)
	assert.Empty(t, resp.Error)
	assert.Empty(t, resp.Stack)
}
