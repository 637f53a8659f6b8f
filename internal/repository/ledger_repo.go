package repository

import (
	"errors"

	"smartcopy/internal/domain"
	"smartcopy/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrZeroAmount = errors.New("ledger delta must be nonzero")

// LedgerRepository owns every balance mutation. Each call writes the new
// balance and an append-only Transaction row in one database transaction, so
// balance_before/balance_after always come from the snapshot that performed
// the update. There are no Update or Delete methods on transactions.
type LedgerRepository struct {
	db *gorm.DB
}

func NewLedgerRepository(db *gorm.DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

// ApplyDelta mutates a user's balance by deltaCents and records the ledger
// entry. deltaCents carries the sign (charges negative); the stored amount is
// the positive magnitude per txType convention. No overdraft check here:
// callers that need one (order placement) enforce it before charging.
func (r *LedgerRepository) ApplyDelta(userID uint, deltaCents int64, txType, description string, orderID *uint) (*models.Transaction, error) {
	if deltaCents == 0 {
		return nil, ErrZeroAmount
	}
	magnitude := deltaCents
	if magnitude < 0 {
		magnitude = -magnitude
	}
	var tx *models.Transaction
	err := r.db.Transaction(func(dbtx *gorm.DB) error {
		var u models.User
		if err := dbtx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&u, userID).Error; err != nil {
			return err
		}
		before := u.BalanceCents
		after := before + deltaCents
		if err := dbtx.Model(&u).Update("balance_cents", after).Error; err != nil {
			return err
		}
		tx = &models.Transaction{
			UserID:             userID,
			OrderID:            orderID,
			Type:               txType,
			AmountCents:        magnitude,
			BalanceBeforeCents: before,
			BalanceAfterCents:  after,
			Description:        description,
		}
		return dbtx.Create(tx).Error
	})
	if err != nil {
		return nil, err
	}
	return tx, nil
}

// Charge debits the given magnitude from the user.
func (r *LedgerRepository) Charge(userID uint, amountCents int64, description string, orderID *uint) (*models.Transaction, error) {
	return r.ApplyDelta(userID, domain.SignedAmount(domain.TxTypeCharge, amountCents), domain.TxTypeCharge, description, orderID)
}

// Refund credits the given magnitude back to the user.
func (r *LedgerRepository) Refund(userID uint, amountCents int64, description string, orderID *uint) (*models.Transaction, error) {
	return r.ApplyDelta(userID, amountCents, domain.TxTypeRefund, description, orderID)
}

// Deposit credits a completed card payment.
func (r *LedgerRepository) Deposit(userID uint, amountCents int64, description string) (*models.Transaction, error) {
	return r.ApplyDelta(userID, amountCents, domain.TxTypeDeposit, description, nil)
}

// ListByUser returns the newest transactions for a user.
func (r *LedgerRepository) ListByUser(userID uint, limit int) ([]models.Transaction, error) {
	var list []models.Transaction
	q := r.db.Where("user_id = ?", userID).Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&list).Error
	return list, err
}

// ListByOrder returns transactions tied to an order, oldest first.
func (r *LedgerRepository) ListByOrder(orderID uint) ([]models.Transaction, error) {
	var list []models.Transaction
	err := r.db.Where("order_id = ?", orderID).Order("created_at ASC").Find(&list).Error
	return list, err
}

func (r *LedgerRepository) CountByUser(userID uint) (int64, error) {
	var n int64
	err := r.db.Model(&models.Transaction{}).Where("user_id = ?", userID).Count(&n).Error
	return n, err
}
