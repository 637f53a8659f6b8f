package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"smartcopy/internal/domain"
	"smartcopy/internal/middleware"
	"smartcopy/internal/models"
	"smartcopy/internal/repository"
	"smartcopy/internal/service"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type AdminHandler struct {
	adminRepo  *repository.AdminRepository
	userRepo   *repository.UserRepository
	ledgerRepo *repository.LedgerRepository
	orderRepo  *repository.OrderRepository
	textRepo   *repository.TextRepository
	orderSvc   *service.OrderService
	auditRepo  *repository.AuditLogRepository
}

func NewAdminHandler(
	adminRepo *repository.AdminRepository,
	userRepo *repository.UserRepository,
	ledgerRepo *repository.LedgerRepository,
	orderRepo *repository.OrderRepository,
	textRepo *repository.TextRepository,
	orderSvc *service.OrderService,
	auditRepo *repository.AuditLogRepository,
) *AdminHandler {
	return &AdminHandler{
		adminRepo:  adminRepo,
		userRepo:   userRepo,
		ledgerRepo: ledgerRepo,
		orderRepo:  orderRepo,
		textRepo:   textRepo,
		orderSvc:   orderSvc,
		auditRepo:  auditRepo,
	}
}

// Dashboard handles GET /admin/dashboard.
func (h *AdminHandler) Dashboard(c *gin.Context) {
	stats, err := h.adminRepo.GetDashboardStats()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load stats"})
		return
	}
	c.JSON(http.StatusOK, stats)
}

// ListUsers handles GET /admin/users — users with order/transaction counts.
func (h *AdminHandler) ListUsers(c *gin.Context) {
	search := c.Query("search")
	page, limit := parsePagination(c)
	users, total, err := h.adminRepo.ListUsers(search, page, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list users"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": users, "total": total, "page": page, "limit": limit})
}

// GetUser handles GET /admin/users/:id — detail + orders + last 10 transactions.
func (h *AdminHandler) GetUser(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	u, err := h.adminRepo.GetUserDetail(id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	c.JSON(http.StatusOK, u)
}

type AdjustBalanceRequest struct {
	AmountCents int64  `json:"amount_cents" binding:"required"`
	Reason      string `json:"reason" binding:"required"`
}

// AdjustBalance handles PATCH /admin/users/:id/balance. Sign picks the
// transaction type: positive amounts log a DEPOSIT, negative a REFUND, with
// the magnitude stored.
func (h *AdminHandler) AdjustBalance(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req AdjustBalanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	txType := domain.TxTypeDeposit
	if req.AmountCents < 0 {
		txType = domain.TxTypeRefund
	}
	tx, err := h.ledgerRepo.ApplyDelta(id, req.AmountCents, txType, req.Reason, nil)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.auditAdmin(c, "adjust_balance", "user", c.Param("id"))
	c.JSON(http.StatusOK, gin.H{"transaction": tx})
}

type UpdateRoleRequest struct {
	Role string `json:"role" binding:"required,oneof=USER ADMIN"`
}

// UpdateRole handles PATCH /admin/users/:id/role.
func (h *AdminHandler) UpdateRole(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req UpdateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if _, err := h.userRepo.GetByID(id); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	if err := h.userRepo.UpdateRole(id, req.Role); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	h.auditAdmin(c, "update_role", "user", c.Param("id"))
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// DeleteUser handles DELETE /admin/users/:id — hard delete, cascades to
// owned orders, texts and transactions.
func (h *AdminHandler) DeleteUser(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if _, err := h.userRepo.GetByID(id); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	if err := h.userRepo.Delete(id); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete failed"})
		return
	}
	h.auditAdmin(c, "delete_user", "user", c.Param("id"))
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

// ListOrders handles GET /admin/orders.
func (h *AdminHandler) ListOrders(c *gin.Context) {
	status := c.Query("status")
	page, limit := parsePagination(c)
	orders, total, err := h.orderRepo.List(status, page, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list orders"})
		return
	}
	now := time.Now()
	views := make([]gin.H, 0, len(orders))
	for i := range orders {
		v := orderView(&orders[i], now)
		v["user"] = orders[i].User
		views = append(views, v)
	}
	c.JSON(http.StatusOK, gin.H{"data": views, "total": total, "page": page, "limit": limit})
}

// GetOrder handles GET /admin/orders/:id — order with texts and its ledger entries.
func (h *AdminHandler) GetOrder(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	o, err := h.orderRepo.GetByIDWithUser(id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
		return
	}
	txs, _ := h.ledgerRepo.ListByOrder(id)
	v := orderView(o, time.Now())
	v["user"] = o.User
	v["transactions"] = txs
	c.JSON(http.StatusOK, v)
}

type UpdateOrderRequest struct {
	Status *string `json:"status"`
	Notes  *string `json:"notes"`
}

// UpdateOrder handles PATCH /admin/orders/:id — partial update, absent
// fields untouched.
func (h *AdminHandler) UpdateOrder(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req UpdateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	o, err := h.orderSvc.UpdateOrder(id, req.Status, req.Notes)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
			return
		}
		if err == service.ErrInvalidStatus {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	h.auditAdmin(c, "update_order", "order", c.Param("id"))
	c.JSON(http.StatusOK, orderView(o, time.Now()))
}

// DeleteOrder handles DELETE /admin/orders/:id — refund-if-non-pending,
// then cascade delete.
func (h *AdminHandler) DeleteOrder(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	refund, err := h.orderSvc.DeleteOrder(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete failed"})
		return
	}
	h.auditAdmin(c, "delete_order", "order", c.Param("id"))
	resp := gin.H{"deleted": true}
	if refund != nil {
		resp["refund"] = refund
	}
	c.JSON(http.StatusOK, resp)
}

// GetTextDetails handles GET /admin/texts/:id/details — text with its full
// prompt/response audit trail, owning order and user.
func (h *AdminHandler) GetTextDetails(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	t, err := h.textRepo.GetWithOrderAndUser(id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "text not found"})
		return
	}
	v := textDetailView(t, time.Now())
	v["order"] = gin.H{
		"id":           t.Order.ID,
		"order_number": t.Order.OrderNumber,
		"status":       t.Order.Status,
	}
	v["user"] = t.Order.User
	c.JSON(http.StatusOK, v)
}

type OverwriteContentRequest struct {
	HTMLContent string `json:"htmlContent" binding:"required"`
}

// OverwriteContent handles PATCH /admin/texts/:id/content — merges the
// supplied HTML into the artifacts blob with lastEditedAt/editedBy set.
func (h *AdminHandler) OverwriteContent(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req OverwriteContentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if _, err := h.textRepo.OverwriteContent(id, req.HTMLContent, "admin"); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "text not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	h.auditAdmin(c, "overwrite_content", "text", c.Param("id"))
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *AdminHandler) auditAdmin(c *gin.Context, action, resource, resourceID string) {
	adminID := middleware.GetUserID(c)
	_ = h.auditRepo.Create(&models.AuditLog{
		UserID:     &adminID,
		Action:     action,
		Resource:   resource,
		ResourceID: resourceID,
		IP:         c.ClientIP(),
		UserAgent:  c.Request.UserAgent(),
	})
}

func parseID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return uint(id), true
}

func parsePagination(c *gin.Context) (page, limit int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return page, limit
}
