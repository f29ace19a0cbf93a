package main

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// OrderUseCaseInterface defines the order operations the handlers depend on.
type OrderUseCaseInterface interface {
	CreateOrder(ctx context.Context, userID string, input CreateOrderInput) (*Order, error)
	UpdateOrderStatus(ctx context.Context, orderID string, newStatus string) (*Order, error)
	DeleteOrder(ctx context.Context, orderID, userID, role string) error
	GetOrderByID(ctx context.Context, orderID, userID, role string) (*Order, error)
	ListOrders(ctx context.Context, filter OrderFilter) (*OrderPage, error)
}

// OrderHandler contains the order HTTP handlers.
type OrderHandler struct {
	useCase OrderUseCaseInterface
	resp    *responder
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(useCase OrderUseCaseInterface, resp *responder) *OrderHandler {
	return &OrderHandler{useCase: useCase, resp: resp}
}

// CreateOrder handles POST /api/orders.
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	var input CreateOrderInput
	if err := c.ShouldBindJSON(&input); err != nil {
		h.resp.badRequest(c, err)
		return
	}

	userID, _ := currentUser(c)
	order, err := h.useCase.CreateOrder(c.Request.Context(), userID, input)
	if err != nil {
		h.resp.fail(c, err)
		return
	}

	h.resp.ok(c, http.StatusCreated, "order created", order)
}

// GetMyOrders handles GET /api/orders: the caller's own orders, newest first.
func (h *OrderHandler) GetMyOrders(c *gin.Context) {
	userID, _ := currentUser(c)
	filter := orderFilterFromQuery(c)
	filter.UserID = userID

	page, err := h.useCase.ListOrders(c.Request.Context(), filter)
	if err != nil {
		h.resp.fail(c, err)
		return
	}

	h.resp.ok(c, http.StatusOK, "", page)
}

// GetAllOrders handles GET /api/orders/all (admin): every order, filterable
// by user and status.
func (h *OrderHandler) GetAllOrders(c *gin.Context) {
	filter := orderFilterFromQuery(c)
	filter.UserID = c.Query("user_id")

	page, err := h.useCase.ListOrders(c.Request.Context(), filter)
	if err != nil {
		h.resp.fail(c, err)
		return
	}

	h.resp.ok(c, http.StatusOK, "", page)
}

// GetOrderByID handles GET /api/orders/:id.
func (h *OrderHandler) GetOrderByID(c *gin.Context) {
	userID, role := currentUser(c)
	order, err := h.useCase.GetOrderByID(c.Request.Context(), c.Param("id"), userID, role)
	if err != nil {
		h.resp.fail(c, err)
		return
	}

	h.resp.ok(c, http.StatusOK, "", order)
}

type updateOrderStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// UpdateOrderStatus handles PATCH /api/orders/:id/status (admin).
func (h *OrderHandler) UpdateOrderStatus(c *gin.Context) {
	var req updateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.resp.badRequest(c, err)
		return
	}

	order, err := h.useCase.UpdateOrderStatus(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		h.resp.fail(c, err)
		return
	}

	h.resp.ok(c, http.StatusOK, "order status updated", order)
}

// DeleteOrder handles DELETE /api/orders/:id.
func (h *OrderHandler) DeleteOrder(c *gin.Context) {
	userID, role := currentUser(c)
	if err := h.useCase.DeleteOrder(c.Request.Context(), c.Param("id"), userID, role); err != nil {
		h.resp.fail(c, err)
		return
	}

	h.resp.ok(c, http.StatusOK, "order deleted", nil)
}

func orderFilterFromQuery(c *gin.Context) OrderFilter {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	return OrderFilter{
		Status: c.Query("status"),
		Page:   page,
		Limit:  limit,
	}
}
