package repository

import (
	"time"

	"smartcopy/internal/domain"
	"smartcopy/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type TextRepository struct {
	db *gorm.DB
}

func NewTextRepository(db *gorm.DB) *TextRepository {
	return &TextRepository{db: db}
}

func (r *TextRepository) GetByID(id uint) (*models.Text, error) {
	var t models.Text
	err := r.db.First(&t, id).Error
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// GetWithOrderAndUser loads a text with its owning order and that order's user.
func (r *TextRepository) GetWithOrderAndUser(id uint) (*models.Text, error) {
	var t models.Text
	err := r.db.Preload("Order").Preload("Order.User").First(&t, id).Error
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *TextRepository) Save(t *models.Text) error {
	return r.db.Save(t).Error
}

// ListClaimable returns texts not yet picked up by the driver whose order is
// still runnable, oldest first.
func (r *TextRepository) ListClaimable(limit int) ([]models.Text, error) {
	var list []models.Text
	err := r.db.
		Joins("JOIN orders ON orders.id = texts.order_id").
		Where("texts.progress = ? AND orders.status IN ?", "",
			[]string{domain.OrderStatusPending, domain.OrderStatusInProgress}).
		Order("texts.created_at ASC").
		Limit(limit).
		Find(&list).Error
	return list, err
}

// Claim marks a text as entering its first stage; the progress guard makes
// the claim safe against a concurrent scan picking the same row.
func (r *TextRepository) Claim(id uint) (bool, error) {
	now := time.Now()
	res := r.db.Model(&models.Text{}).
		Where("id = ? AND progress = ?", id, "").
		Updates(map[string]interface{}{"progress": domain.StageQuery, "start_time": now})
	return res.RowsAffected > 0, res.Error
}

// OrderStatus reads the current status of the text's owning order; the driver
// uses it between stages to honor cancellation.
func (r *TextRepository) OrderStatus(textID uint) (string, error) {
	var status string
	err := r.db.Model(&models.Order{}).
		Joins("JOIN texts ON texts.order_id = orders.id").
		Where("texts.id = ?", textID).
		Pluck("orders.status", &status).Error
	return status, err
}

// OverwriteContent merges an admin-supplied body into the artifacts blob.
// Runs inside a row-locking transaction so it cannot interleave with a
// writer-pass persist; the merge itself is last-writer-wins.
func (r *TextRepository) OverwriteContent(id uint, htmlContent, editedBy string) (*models.Text, error) {
	var out *models.Text
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var t models.Text
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&t, id).Error; err != nil {
			return err
		}
		now := time.Now()
		a := t.Artifacts()
		a.GeneratedContent = htmlContent
		a.LastEditedAt = &now
		a.EditedBy = editedBy
		if err := t.SetArtifacts(a); err != nil {
			return err
		}
		if err := tx.Save(&t).Error; err != nil {
			return err
		}
		out = &t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *TextRepository) Count() (int64, error) {
	var n int64
	err := r.db.Model(&models.Text{}).Count(&n).Error
	return n, err
}
