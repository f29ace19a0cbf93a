package main

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// ProductHandler contains the product HTTP handlers.
type ProductHandler struct {
	useCase *ProductUseCase
	resp    *responder
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(useCase *ProductUseCase, resp *responder) *ProductHandler {
	return &ProductHandler{useCase: useCase, resp: resp}
}

// Create handles POST /api/products (admin).
func (h *ProductHandler) Create(c *gin.Context) {
	var input ProductInput
	if err := c.ShouldBindJSON(&input); err != nil {
		h.resp.badRequest(c, err)
		return
	}
	product, err := h.useCase.CreateProduct(c.Request.Context(), input)
	if err != nil {
		h.resp.fail(c, err)
		return
	}
	h.resp.ok(c, http.StatusCreated, "product created", product)
}

// Update handles PUT /api/products/:id (admin).
func (h *ProductHandler) Update(c *gin.Context) {
	var input ProductInput
	if err := c.ShouldBindJSON(&input); err != nil {
		h.resp.badRequest(c, err)
		return
	}
	product, err := h.useCase.UpdateProduct(c.Request.Context(), c.Param("id"), input)
	if err != nil {
		h.resp.fail(c, err)
		return
	}
	h.resp.ok(c, http.StatusOK, "product updated", product)
}

// Delete handles DELETE /api/products/:id (admin).
func (h *ProductHandler) Delete(c *gin.Context) {
	if err := h.useCase.DeleteProduct(c.Request.Context(), c.Param("id")); err != nil {
		h.resp.fail(c, err)
		return
	}
	h.resp.ok(c, http.StatusOK, "product deleted", nil)
}

// Get handles GET /api/products/:id.
func (h *ProductHandler) Get(c *gin.Context) {
	product, err := h.useCase.GetProduct(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.resp.fail(c, err)
		return
	}
	h.resp.ok(c, http.StatusOK, "", product)
}

// List handles GET /api/products with category/search/active filters.
func (h *ProductHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	activeOnly := c.DefaultQuery("active", "true") != "false"

	result, err := h.useCase.ListProducts(c.Request.Context(), ProductFilter{
		CategoryID: c.Query("category_id"),
		Search:     c.Query("search"),
		ActiveOnly: activeOnly,
		Page:       page,
		Limit:      limit,
	})
	if err != nil {
		h.resp.fail(c, err)
		return
	}
	h.resp.ok(c, http.StatusOK, "", result)
}
