package handler

import (
	"fmt"
	"net/http"
	"time"

	"smartcopy/config"
	"smartcopy/internal/middleware"
	"smartcopy/internal/models"
	"smartcopy/internal/repository"
	"smartcopy/pkg/payment"

	"github.com/gin-gonic/gin"
)

type DepositHandler struct {
	cfg         *config.Config
	paymentRepo *repository.PaymentRepository
	userRepo    *repository.UserRepository
	provider    payment.Provider
}

func NewDepositHandler(cfg *config.Config, paymentRepo *repository.PaymentRepository, userRepo *repository.UserRepository, provider payment.Provider) *DepositHandler {
	return &DepositHandler{cfg: cfg, paymentRepo: paymentRepo, userRepo: userRepo, provider: provider}
}

type DepositRequest struct {
	AmountCents int64 `json:"amount_cents" binding:"required,min=100"`
}

// Initiate handles POST /api/v1/deposit/initiate: starts a card payment and
// records it PENDING. The wallet is only credited by the webhook.
func (h *DepositHandler) Initiate(c *gin.Context) {
	userID := middleware.GetUserID(c)
	var req DepositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	u, err := h.userRepo.GetByID(userID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	idemKey := fmt.Sprintf("deposit_%d_%d", userID, time.Now().UnixNano())
	resp, err := h.provider.InitiatePayment(c.Request.Context(), payment.PaymentRequest{
		UserID:         userID,
		AmountCents:    req.AmountCents,
		Currency:       "USD",
		IdempotencyKey: idemKey,
		Description:    "wallet deposit",
		ExpiresIn:      h.cfg.Payment.PaymentExpiry,
		CustomerEmail:  u.Email,
	})
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "payment initiation failed"})
		return
	}
	p := &models.Payment{
		UserID:         userID,
		AmountCents:    req.AmountCents,
		Currency:       "USD",
		Provider:       "card",
		ProviderRef:    resp.Reference,
		Status:         "PENDING",
		IdempotencyKey: idemKey,
		ExpiresAt:      &resp.ExpiresAt,
	}
	if err := h.paymentRepo.Create(p); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to record payment"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"payment":      p,
		"checkout_url": resp.CheckoutURL,
	})
}
