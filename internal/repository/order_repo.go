package repository

import (
	"smartcopy/internal/domain"
	"smartcopy/internal/models"

	"gorm.io/gorm"
)

type OrderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// CreateWithCharge creates the order with its texts and the CHARGE ledger
// entry in one database transaction, so a failed charge never leaves an
// unpaid order behind.
func (r *OrderRepository) CreateWithCharge(o *models.Order, texts []models.Text) (*models.Transaction, error) {
	var ledgerTx *models.Transaction
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(o).Error; err != nil {
			return err
		}
		for i := range texts {
			texts[i].OrderID = o.ID
		}
		if err := tx.Create(&texts).Error; err != nil {
			return err
		}
		ledger := &LedgerRepository{db: tx}
		created, err := ledger.Charge(o.UserID, o.TotalPriceCents, "order "+o.OrderNumber, &o.ID)
		if err != nil {
			return err
		}
		ledgerTx = created
		o.Texts = texts
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ledgerTx, nil
}

func (r *OrderRepository) GetByID(id uint) (*models.Order, error) {
	var o models.Order
	err := r.db.Preload("Texts").First(&o, id).Error
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *OrderRepository) GetByIDWithUser(id uint) (*models.Order, error) {
	var o models.Order
	err := r.db.Preload("Texts").Preload("User").First(&o, id).Error
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *OrderRepository) ListByUser(userID uint) ([]models.Order, error) {
	var list []models.Order
	err := r.db.Preload("Texts").Where("user_id = ?", userID).Order("created_at DESC").Find(&list).Error
	return list, err
}

// List returns orders with optional status filter and pagination, for admin views.
func (r *OrderRepository) List(status string, page, limit int) ([]models.Order, int64, error) {
	q := r.db.Model(&models.Order{})
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var total int64
	q.Count(&total)
	var list []models.Order
	err := q.Preload("Texts").Preload("User").Order("created_at DESC").Limit(limit).Offset((page - 1) * limit).Find(&list).Error
	return list, total, err
}

// UpdateFields applies a partial update; absent fields stay untouched.
func (r *OrderRepository) UpdateFields(id uint, fields map[string]interface{}) error {
	return r.db.Model(&models.Order{}).Where("id = ?", id).Updates(fields).Error
}

func (r *OrderRepository) SetStatus(id uint, status string) error {
	return r.db.Model(&models.Order{}).Where("id = ?", id).Update("status", status).Error
}

// MarkInProgress transitions a PENDING order when the driver picks up its
// first text; a no-op for orders already past PENDING.
func (r *OrderRepository) MarkInProgress(id uint) error {
	return r.db.Model(&models.Order{}).
		Where("id = ? AND status = ?", id, domain.OrderStatusPending).
		Update("status", domain.OrderStatusInProgress).Error
}

// CompleteIfAllTextsDone flips the order to COMPLETED when every text has
// reached the completed stage. Returns true when the transition happened.
func (r *OrderRepository) CompleteIfAllTextsDone(id uint) (bool, error) {
	var remaining int64
	err := r.db.Model(&models.Text{}).
		Where("order_id = ? AND progress <> ?", id, domain.StageCompleted).
		Count(&remaining).Error
	if err != nil {
		return false, err
	}
	if remaining > 0 {
		return false, nil
	}
	res := r.db.Model(&models.Order{}).
		Where("id = ? AND status = ?", id, domain.OrderStatusInProgress).
		Update("status", domain.OrderStatusCompleted)
	return res.RowsAffected > 0, res.Error
}

// DeleteWithRefund implements the delete contract: for non-PENDING orders a
// full REFUND is written through the ledger first, then the order and its
// texts are removed. Refund-then-delete ordering matters: deleting first
// would destroy the record needed to compute the refund if the credit failed.
func (r *OrderRepository) DeleteWithRefund(id uint) (*models.Transaction, error) {
	var refund *models.Transaction
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var o models.Order
		if err := tx.First(&o, id).Error; err != nil {
			return err
		}
		if o.Status != domain.OrderStatusPending {
			ledger := &LedgerRepository{db: tx}
			created, err := ledger.Refund(o.UserID, o.TotalPriceCents, "refund for deleted order "+o.OrderNumber, &o.ID)
			if err != nil {
				return err
			}
			refund = created
		}
		if err := tx.Unscoped().Where("order_id = ?", id).Delete(&models.Text{}).Error; err != nil {
			return err
		}
		return tx.Unscoped().Delete(&models.Order{}, id).Error
	})
	if err != nil {
		return nil, err
	}
	return refund, nil
}

func (r *OrderRepository) CountByUser(userID uint) (int64, error) {
	var n int64
	err := r.db.Model(&models.Order{}).Where("user_id = ?", userID).Count(&n).Error
	return n, err
}
