package handler

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"smartcopy/config"
	"smartcopy/internal/models"
	"smartcopy/internal/repository"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type fakePaymentProcessor struct {
	payments map[string]*models.Payment
	credits  []string
	failNext error
}

func (f *fakePaymentProcessor) CompleteAndCredit(ref string) (*models.Payment, *models.Transaction, error) {
	if f.failNext != nil {
		err := f.failNext
		f.failNext = nil
		return nil, nil, err
	}
	p, ok := f.payments[ref]
	if !ok {
		return nil, nil, gorm.ErrRecordNotFound
	}
	if p.Status != "PENDING" {
		return nil, nil, repository.ErrPaymentNotPending
	}
	p.Status = "COMPLETED"
	f.credits = append(f.credits, ref)
	return p, &models.Transaction{UserID: p.UserID, AmountCents: p.AmountCents}, nil
}

func (f *fakePaymentProcessor) MarkFailed(ref string) error {
	if p, ok := f.payments[ref]; ok && p.Status == "PENDING" {
		p.Status = "FAILED"
	}
	return nil
}

func webhookRouter(env, secret string, payments PaymentProcessor) *gin.Engine {
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{}
	cfg.Server.Env = env
	cfg.Payment.WebhookSecret = secret
	h := NewPaymentWebhookHandler(cfg, payments, nil)
	r := gin.New()
	r.POST("/webhooks/payment", h.Handle)
	return r
}

func sign(secret, body string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(body))
	return hex.EncodeToString(mac.Sum(nil))
}

func postWebhook(r *gin.Engine, body, signature string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/webhooks/payment", strings.NewReader(body))
	if signature != "" {
		req.Header.Set("X-Webhook-Signature", signature)
	}
	r.ServeHTTP(w, req)
	return w
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	r := webhookRouter("development", "whsec", nil)
	body := `{"reference":"ref-1","status":"COMPLETED"}`

	if w := postWebhook(r, body, "deadbeef"); w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
}

func TestWebhookRejectsMissingSignature(t *testing.T) {
	r := webhookRouter("development", "whsec", nil)

	if w := postWebhook(r, `{}`, ""); w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
}

func TestWebhookRefusesWithoutSecretOutsideDevelopment(t *testing.T) {
	proc := &fakePaymentProcessor{payments: map[string]*models.Payment{
		"ref-1": {ProviderRef: "ref-1", UserID: 1, AmountCents: 5000, Status: "PENDING"},
	}}
	r := webhookRouter("production", "", proc)
	body := `{"reference":"ref-1","status":"COMPLETED"}`

	if w := postWebhook(r, body, ""); w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", w.Code)
	}
	if len(proc.credits) != 0 {
		t.Errorf("unsigned webhook credited %v", proc.credits)
	}
}

func TestWebhookRejectsBadPayload(t *testing.T) {
	r := webhookRouter("development", "whsec", nil)
	cases := []struct {
		name string
		body string
	}{
		{"invalid json", `not json`},
		{"missing reference", `{"status":"COMPLETED"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if w := postWebhook(r, tc.body, sign("whsec", tc.body)); w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", w.Code)
			}
		})
	}
}

func TestWebhookCreditsExactlyOnce(t *testing.T) {
	proc := &fakePaymentProcessor{payments: map[string]*models.Payment{
		"ref-1": {ProviderRef: "ref-1", UserID: 1, AmountCents: 5000, Status: "PENDING"},
	}}
	r := webhookRouter("development", "whsec", proc)
	body := `{"reference":"ref-1","status":"COMPLETED"}`

	for i := 0; i < 2; i++ {
		if w := postWebhook(r, body, sign("whsec", body)); w.Code != http.StatusOK {
			t.Fatalf("delivery %d: status = %d, want 200", i+1, w.Code)
		}
	}
	if len(proc.credits) != 1 {
		t.Fatalf("credits = %v, want exactly one", proc.credits)
	}
	if proc.payments["ref-1"].Status != "COMPLETED" {
		t.Errorf("status = %q, want COMPLETED", proc.payments["ref-1"].Status)
	}
}

func TestWebhookRetriesAfterCreditFailure(t *testing.T) {
	proc := &fakePaymentProcessor{
		payments: map[string]*models.Payment{
			"ref-1": {ProviderRef: "ref-1", UserID: 1, AmountCents: 5000, Status: "PENDING"},
		},
		failNext: errors.New("db down"),
	}
	r := webhookRouter("development", "whsec", proc)
	body := `{"reference":"ref-1","status":"COMPLETED"}`

	// A failed credit must not be acknowledged; the payment stays PENDING.
	if w := postWebhook(r, body, sign("whsec", body)); w.Code != http.StatusInternalServerError {
		t.Fatalf("first delivery: status = %d, want 500", w.Code)
	}
	if proc.payments["ref-1"].Status != "PENDING" {
		t.Fatalf("status after failed credit = %q, want PENDING", proc.payments["ref-1"].Status)
	}

	// The provider's retry then completes and credits the deposit.
	if w := postWebhook(r, body, sign("whsec", body)); w.Code != http.StatusOK {
		t.Fatalf("retry: status = %d, want 200", w.Code)
	}
	if len(proc.credits) != 1 {
		t.Fatalf("credits after retry = %v, want exactly one", proc.credits)
	}
}

func TestWebhookUnknownReferenceAcked(t *testing.T) {
	proc := &fakePaymentProcessor{payments: map[string]*models.Payment{}}
	r := webhookRouter("development", "whsec", proc)
	body := `{"reference":"nope","status":"COMPLETED"}`

	if w := postWebhook(r, body, sign("whsec", body)); w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if len(proc.credits) != 0 {
		t.Errorf("unknown reference credited %v", proc.credits)
	}
}

func TestWebhookFailedStatus(t *testing.T) {
	proc := &fakePaymentProcessor{payments: map[string]*models.Payment{
		"ref-1": {ProviderRef: "ref-1", UserID: 1, AmountCents: 5000, Status: "PENDING"},
	}}
	r := webhookRouter("development", "whsec", proc)
	body := `{"reference":"ref-1","status":"FAILED"}`

	if w := postWebhook(r, body, sign("whsec", body)); w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if proc.payments["ref-1"].Status != "FAILED" {
		t.Errorf("status = %q, want FAILED", proc.payments["ref-1"].Status)
	}
	if len(proc.credits) != 0 {
		t.Errorf("failed payment credited %v", proc.credits)
	}
}
