package handler

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"smartcopy/config"
	"smartcopy/internal/models"
	"smartcopy/internal/repository"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// PaymentProcessor is the slice of PaymentRepository the webhook needs;
// completion and credit happen atomically behind it.
type PaymentProcessor interface {
	CompleteAndCredit(providerRef string) (*models.Payment, *models.Transaction, error)
	MarkFailed(providerRef string) error
}

type PaymentWebhookHandler struct {
	cfg       *config.Config
	payments  PaymentProcessor
	auditRepo *repository.AuditLogRepository
}

func NewPaymentWebhookHandler(cfg *config.Config, payments PaymentProcessor, auditRepo *repository.AuditLogRepository) *PaymentWebhookHandler {
	return &PaymentWebhookHandler{cfg: cfg, payments: payments, auditRepo: auditRepo}
}

// Handle expects JSON {"reference": "...", "status": "COMPLETED"} signed with
// X-Webhook-Signature. A completed payment credits the wallet through the
// ledger exactly once; replays are acknowledged without a second credit, and
// a failed credit leaves the payment PENDING so the provider's retry can
// complete it.
func (h *PaymentWebhookHandler) Handle(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	if h.cfg.Payment.WebhookSecret == "" {
		// Unsigned webhooks would let anyone credit a wallet by naming a
		// pending reference; only development may run without a secret.
		if h.cfg.Server.Env != "development" {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "webhook secret not configured"})
			return
		}
		log.Printf("[webhook] PAYMENT_WEBHOOK_SECRET not set, accepting unsigned webhooks")
	} else if !h.verifySignature(body, c.GetHeader("X-Webhook-Signature")) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid signature"})
		return
	}
	var payload struct {
		Reference string `json:"reference"`
		Status    string `json:"status"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if payload.Reference == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "reference required"})
		return
	}
	switch payload.Status {
	case "COMPLETED", "completed":
		p, _, err := h.payments.CompleteAndCredit(payload.Reference)
		if err != nil {
			// Unknown references and replays are acknowledged so the
			// provider stops retrying; anything else must be retried.
			if errors.Is(err, repository.ErrPaymentNotPending) || errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusOK, gin.H{"received": true})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "credit failed"})
			return
		}
		if h.auditRepo != nil {
			_ = h.auditRepo.Create(&models.AuditLog{
				UserID:     &p.UserID,
				Action:     "payment_completed",
				Resource:   "payment",
				ResourceID: payload.Reference,
				IP:         c.ClientIP(),
				UserAgent:  c.Request.UserAgent(),
			})
		}
	case "FAILED", "failed":
		if err := h.payments.MarkFailed(payload.Reference); err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"received": true})
}

func (h *PaymentWebhookHandler) verifySignature(body []byte, signature string) bool {
	mac := hmac.New(sha256.New, []byte(h.cfg.Payment.WebhookSecret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(signature), []byte(expected))
}
