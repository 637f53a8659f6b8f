package models

import "time"

// Transaction is one immutable entry in the wallet ledger. Amount is a
// positive magnitude; the sign applied to the balance is derived from Type.
// Rows are never updated or deleted after creation.
type Transaction struct {
	ID                 uint      `gorm:"primaryKey" json:"id"`
	UserID             uint      `gorm:"not null;index" json:"user_id"`
	OrderID            *uint     `gorm:"index" json:"order_id"`
	Type               string    `gorm:"size:20;not null;index" json:"type"` // DEPOSIT, REFUND, CHARGE
	AmountCents        int64     `gorm:"not null" json:"amount_cents"`
	BalanceBeforeCents int64     `gorm:"not null" json:"balance_before_cents"`
	BalanceAfterCents  int64     `gorm:"not null" json:"balance_after_cents"`
	Description        string    `gorm:"size:255" json:"description"`
	CreatedAt          time.Time `json:"created_at"`

	User User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

func (Transaction) TableName() string {
	return "transactions"
}
