package handler

import (
	"net/http"

	"smartcopy/internal/middleware"
	"smartcopy/internal/repository"

	"github.com/gin-gonic/gin"
)

type MeHandler struct {
	userRepo   *repository.UserRepository
	orderRepo  *repository.OrderRepository
	ledgerRepo *repository.LedgerRepository
}

func NewMeHandler(userRepo *repository.UserRepository, orderRepo *repository.OrderRepository, ledgerRepo *repository.LedgerRepository) *MeHandler {
	return &MeHandler{userRepo: userRepo, orderRepo: orderRepo, ledgerRepo: ledgerRepo}
}

func (h *MeHandler) GetProfile(c *gin.Context) {
	userID := middleware.GetUserID(c)
	u, err := h.userRepo.GetByID(userID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	orderCount, _ := h.orderRepo.CountByUser(userID)
	c.JSON(http.StatusOK, gin.H{"user": u, "order_count": orderCount})
}

func (h *MeHandler) GetBalance(c *gin.Context) {
	userID := middleware.GetUserID(c)
	u, err := h.userRepo.GetByID(userID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"balance_cents": u.BalanceCents})
}

func (h *MeHandler) GetTransactions(c *gin.Context) {
	userID := middleware.GetUserID(c)
	list, err := h.ledgerRepo.ListByUser(userID, 50)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list transactions"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": list})
}
