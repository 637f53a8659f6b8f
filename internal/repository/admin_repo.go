package repository

import (
	"smartcopy/internal/domain"
	"smartcopy/internal/models"

	"gorm.io/gorm"
)

type DashboardStats struct {
	TotalUsers      int64 `json:"total_users"`
	TotalOrders     int64 `json:"total_orders"`
	OrdersInFlight  int64 `json:"orders_in_flight"`
	TotalTexts      int64 `json:"total_texts"`
	CompletedTexts  int64 `json:"completed_texts"`
	FailedTexts     int64 `json:"failed_texts"`
	TotalRevenue    int64 `json:"total_revenue_cents"`
	TotalRefunded   int64 `json:"total_refunded_cents"`
	PublishedPosts  int64 `json:"published_posts"`
}

// UserListRow is a user row decorated with order/transaction counts for the
// admin list view.
type UserListRow struct {
	models.User
	OrderCount       int64 `json:"order_count"`
	TransactionCount int64 `json:"transaction_count"`
}

type AdminRepository struct {
	db *gorm.DB
}

func NewAdminRepository(db *gorm.DB) *AdminRepository {
	return &AdminRepository{db: db}
}

func (r *AdminRepository) GetDashboardStats() (*DashboardStats, error) {
	var s DashboardStats
	r.db.Model(&models.User{}).Count(&s.TotalUsers)
	r.db.Model(&models.Order{}).Count(&s.TotalOrders)
	r.db.Model(&models.Order{}).Where("status IN ?",
		[]string{domain.OrderStatusPending, domain.OrderStatusInProgress}).Count(&s.OrdersInFlight)
	r.db.Model(&models.Text{}).Count(&s.TotalTexts)
	r.db.Model(&models.Text{}).Where("progress = ?", domain.StageCompleted).Count(&s.CompletedTexts)
	r.db.Model(&models.Text{}).Where("progress = ?", domain.StageFailed).Count(&s.FailedTexts)

	var rev struct{ Total int64 }
	r.db.Model(&models.Transaction{}).Select("COALESCE(SUM(amount_cents), 0) as total").
		Where("type = ?", domain.TxTypeCharge).Scan(&rev)
	s.TotalRevenue = rev.Total

	var ref struct{ Total int64 }
	r.db.Model(&models.Transaction{}).Select("COALESCE(SUM(amount_cents), 0) as total").
		Where("type = ?", domain.TxTypeRefund).Scan(&ref)
	s.TotalRefunded = ref.Total

	r.db.Model(&models.BlogPost{}).Where("status = ?", domain.BlogStatusPublished).Count(&s.PublishedPosts)
	return &s, nil
}

// ListUsers returns users with search filter, pagination, and per-user
// order/transaction counts.
func (r *AdminRepository) ListUsers(search string, page, limit int) ([]UserListRow, int64, error) {
	q := r.db.Model(&models.User{})
	if search != "" {
		q = q.Where("username LIKE ? OR email LIKE ?", "%"+search+"%", "%"+search+"%")
	}
	var total int64
	q.Count(&total)
	var users []models.User
	if err := q.Order("created_at DESC").Limit(limit).Offset((page - 1) * limit).Find(&users).Error; err != nil {
		return nil, 0, err
	}
	rows := make([]UserListRow, 0, len(users))
	for _, u := range users {
		row := UserListRow{User: u}
		r.db.Model(&models.Order{}).Where("user_id = ?", u.ID).Count(&row.OrderCount)
		r.db.Model(&models.Transaction{}).Where("user_id = ?", u.ID).Count(&row.TransactionCount)
		rows = append(rows, row)
	}
	return rows, total, nil
}

// GetUserDetail returns a user with orders and the last 10 transactions.
func (r *AdminRepository) GetUserDetail(id uint) (*models.User, error) {
	var u models.User
	err := r.db.
		Preload("Orders", func(db *gorm.DB) *gorm.DB { return db.Order("created_at DESC").Preload("Texts") }).
		Preload("Transactions", func(db *gorm.DB) *gorm.DB { return db.Order("created_at DESC").Limit(10) }).
		First(&u, id).Error
	if err != nil {
		return nil, err
	}
	return &u, nil
}
