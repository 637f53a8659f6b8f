package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"smartcopy/internal/middleware"
	"smartcopy/internal/models"
	"smartcopy/internal/repository"
	"smartcopy/internal/service"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type OrderHandler struct {
	orderSvc  *service.OrderService
	orderRepo *repository.OrderRepository
}

func NewOrderHandler(orderSvc *service.OrderService, orderRepo *repository.OrderRepository) *OrderHandler {
	return &OrderHandler{orderSvc: orderSvc, orderRepo: orderRepo}
}

type TextRequest struct {
	Topic    string `json:"topic" binding:"required"`
	Length   int    `json:"length" binding:"required,min=1"`
	Pages    int    `json:"pages"`
	Language string `json:"language" binding:"required"`
	TextType string `json:"text_type" binding:"required"`
}

type CreateOrderRequest struct {
	Texts []TextRequest `json:"texts" binding:"required,min=1,dive"`
	Notes string        `json:"notes"`
}

// Create handles POST /api/v1/orders: prices the texts, charges the wallet
// and creates the order atomically.
func (h *OrderHandler) Create(c *gin.Context) {
	userID := middleware.GetUserID(c)
	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	specs := make([]service.TextSpec, 0, len(req.Texts))
	for _, t := range req.Texts {
		specs = append(specs, service.TextSpec{
			Topic:    t.Topic,
			Length:   t.Length,
			Pages:    t.Pages,
			Language: t.Language,
			TextType: t.TextType,
		})
	}
	o, err := h.orderSvc.PlaceOrder(userID, specs, req.Notes)
	if err != nil {
		switch err {
		case service.ErrInsufficientBalance, service.ErrInvalidTextType, service.ErrInvalidLength, service.ErrNoTexts:
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "order creation failed"})
		}
		return
	}
	c.JSON(http.StatusCreated, orderView(o, time.Now()))
}

// List returns the caller's orders, newest first. Safe to poll: a pure read.
func (h *OrderHandler) List(c *gin.Context) {
	userID := middleware.GetUserID(c)
	orders, err := h.orderRepo.ListByUser(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list orders"})
		return
	}
	now := time.Now()
	views := make([]gin.H, 0, len(orders))
	for i := range orders {
		views = append(views, orderView(&orders[i], now))
	}
	c.JSON(http.StatusOK, gin.H{"data": views})
}

// Get returns one order with per-text progress. Clients poll this every 5s
// while any text is non-terminal; the read never mutates state.
func (h *OrderHandler) Get(c *gin.Context) {
	o, ok := h.loadOwned(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, orderView(o, time.Now()))
}

// Cancel handles POST /api/v1/orders/:id/cancel. Data-only flag: the driver
// observes it between stages.
func (h *OrderHandler) Cancel(c *gin.Context) {
	o, ok := h.loadOwned(c)
	if !ok {
		return
	}
	updated, err := h.orderSvc.CancelOrder(o.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "cancel failed"})
		return
	}
	c.JSON(http.StatusOK, orderView(updated, time.Now()))
}

// Delete handles DELETE /api/v1/orders/:id with the refund policy: full
// refund for non-PENDING orders, none for PENDING.
func (h *OrderHandler) Delete(c *gin.Context) {
	o, ok := h.loadOwned(c)
	if !ok {
		return
	}
	refund, err := h.orderSvc.DeleteOrder(o.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete failed"})
		return
	}
	resp := gin.H{"deleted": true}
	if refund != nil {
		resp["refund"] = refund
	}
	c.JSON(http.StatusOK, resp)
}

func (h *OrderHandler) loadOwned(c *gin.Context) (*models.Order, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return nil, false
	}
	o, err := h.orderRepo.GetByID(uint(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load order"})
		}
		return nil, false
	}
	if o.UserID != middleware.GetUserID(c) {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return nil, false
	}
	return o, true
}
