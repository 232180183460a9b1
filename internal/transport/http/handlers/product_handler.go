package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mnesleha/Shopwise/internal/repository"
	"github.com/mnesleha/Shopwise/internal/transport/http/dto"
)

// ProductHandler — витринные чтения каталога.
type ProductHandler struct {
	products repository.ProductRepo
	log      *zap.Logger
}

func NewProductHandler(products repository.ProductRepo, log *zap.Logger) *ProductHandler {
	return &ProductHandler{products: products, log: log}
}

// List godoc
// @Summary Список активных товаров
// @Tags products
// @Router /products/ [get]
func (h *ProductHandler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	products, total, err := h.products.List(c.Request.Context(), repository.ProductListFilter{
		ActiveOnly: true,
		Limit:      limit,
		Offset:     offset,
	})
	if err != nil {
		h.log.Error("failed to list products", zap.Error(err))
		c.JSON(http.StatusInternalServerError, dto.NewInternalError())
		return
	}

	resp := dto.ProductListResponse{Products: make([]dto.ProductResponse, 0, len(products)), Total: total}
	for i := range products {
		resp.Products = append(resp.Products, dto.NewProductResponse(&products[i]))
	}
	c.JSON(http.StatusOK, resp)
}

// Get godoc
// @Summary Товар по id
// @Tags products
// @Router /products/{id}/ [get]
func (h *ProductHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, dto.NewError(dto.CodeNotFound, "not found"))
		return
	}

	product, err := h.products.GetByID(c.Request.Context(), id)
	if err != nil {
		h.log.Error("failed to get product", zap.Error(err))
		c.JSON(http.StatusInternalServerError, dto.NewInternalError())
		return
	}
	if product == nil || !product.IsActive {
		c.JSON(http.StatusNotFound, dto.NewError(dto.CodeNotFound, "not found"))
		return
	}
	c.JSON(http.StatusOK, dto.NewProductResponse(product))
}
