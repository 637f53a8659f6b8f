package models

import (
	"time"

	"smartcopy/internal/domain"

	"gorm.io/gorm"
)

type Order struct {
	ID              uint           `gorm:"primaryKey" json:"id"`
	OrderNumber     string         `gorm:"uniqueIndex;size:32;not null" json:"order_number"`
	UserID          uint           `gorm:"not null;index" json:"user_id"`
	Status          string         `gorm:"size:20;not null;index" json:"status"` // PENDING, IN_PROGRESS, COMPLETED, CANCELLED
	TotalPriceCents int64          `gorm:"not null" json:"total_price_cents"`    // sum of text prices at creation; never recomputed
	Notes           string         `gorm:"size:1024" json:"notes"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`

	User  User   `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Texts []Text `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"texts,omitempty"`
}

func (Order) TableName() string {
	return "orders"
}

func (o *Order) IsTerminal() bool {
	return o.Status == domain.OrderStatusCompleted || o.Status == domain.OrderStatusCancelled
}
