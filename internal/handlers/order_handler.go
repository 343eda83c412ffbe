package handlers

import (
	"net/http"
	"strconv"

	"fuel_dispatch/internal/middleware"
	"fuel_dispatch/internal/services"

	"github.com/gin-gonic/gin"
)

type OrderHandler struct {
	orderService services.OrderService
}

func NewOrderHandler(orderService services.OrderService) *OrderHandler {
	return &OrderHandler{orderService: orderService}
}

func (h *OrderHandler) Create(c *gin.Context) {
	var req struct {
		Type     string   `json:"type" binding:"required"`
		Quantity float64  `json:"quantity" binding:"required"`
		AssetID  string   `json:"assetId"`
		PumpID   string   `json:"pumpId"`
		Lat      *float64 `json:"lat"`
		Lng      *float64 `json:"lng"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	customerID := c.GetUint(middleware.CtxUserID)
	order, err := h.orderService.CreateOrder(c.Request.Context(), customerID, services.CreateOrderInput{
		Type:     req.Type,
		Quantity: req.Quantity,
		AssetID:  req.AssetID,
		PumpID:   req.PumpID,
		Lat:      req.Lat,
		Lng:      req.Lng,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, order)
}

func (h *OrderHandler) List(c *gin.Context) {
	userID := c.GetUint(middleware.CtxUserID)
	role := c.GetString(middleware.CtxRole)

	orders, err := h.orderService.ListOrders(c.Request.Context(), userID, role)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, orders)
}

func (h *OrderHandler) Get(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order id"})
		return
	}

	order, err := h.orderService.GetOrder(c.Request.Context(), uint(id))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, order)
}

func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order id"})
		return
	}

	var req struct {
		Status  string `json:"status" binding:"required"`
		Remarks string `json:"remarks"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	actorID := c.GetUint(middleware.CtxUserID)
	order, err := h.orderService.UpdateStatus(c.Request.Context(), uint(id), actorID, services.UpdateStatusInput{
		Status:  req.Status,
		Remarks: req.Remarks,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, order)
}
