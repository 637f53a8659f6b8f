package repository

import (
	"errors"
	"time"

	"smartcopy/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrPaymentNotPending = errors.New("payment is not pending")

type PaymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

func (r *PaymentRepository) Create(p *models.Payment) error {
	return r.db.Create(p).Error
}

func (r *PaymentRepository) GetByProviderRef(ref string) (*models.Payment, error) {
	var p models.Payment
	err := r.db.Where("provider_ref = ?", ref).First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PaymentRepository) GetByIdempotencyKey(key string) (*models.Payment, error) {
	var p models.Payment
	err := r.db.Where("idempotency_key = ?", key).First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PaymentRepository) Update(p *models.Payment) error {
	return r.db.Save(p).Error
}

// CompleteAndCredit flips a PENDING payment to COMPLETED and credits the
// wallet, both inside one database transaction: a failed credit rolls the
// status back so a provider retry can complete it later. The row lock plus
// status guard make the credit exactly-once; replays and concurrent
// deliveries see a non-PENDING row and get ErrPaymentNotPending with nothing
// written.
func (r *PaymentRepository) CompleteAndCredit(providerRef string) (*models.Payment, *models.Transaction, error) {
	var p *models.Payment
	var credit *models.Transaction
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var pay models.Payment
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("provider_ref = ?", providerRef).First(&pay).Error; err != nil {
			return err
		}
		if pay.Status != "PENDING" {
			return ErrPaymentNotPending
		}
		now := time.Now()
		pay.Status = "COMPLETED"
		pay.CompletedAt = &now
		if err := tx.Save(&pay).Error; err != nil {
			return err
		}
		ledger := &LedgerRepository{db: tx}
		created, err := ledger.Deposit(pay.UserID, pay.AmountCents, "card deposit "+pay.ProviderRef)
		if err != nil {
			return err
		}
		p = &pay
		credit = created
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return p, credit, nil
}

// MarkFailed records a failed charge; non-PENDING payments are left alone.
func (r *PaymentRepository) MarkFailed(providerRef string) error {
	return r.db.Model(&models.Payment{}).
		Where("provider_ref = ? AND status = ?", providerRef, "PENDING").
		Update("status", "FAILED").Error
}

func (r *PaymentRepository) ListByUser(userID uint, limit int) ([]models.Payment, error) {
	var list []models.Payment
	q := r.db.Where("user_id = ?", userID).Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&list).Error
	return list, err
}
