package service

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"smartcopy/internal/domain"
	"smartcopy/internal/models"
)

var (
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrNoTexts             = errors.New("order must contain at least one text")
	ErrInvalidTextType     = errors.New("unknown text type")
	ErrInvalidLength       = errors.New("length must be positive")
	ErrInvalidStatus       = errors.New("invalid order status")
)

// TextSpec is one commissioned text in an order request.
type TextSpec struct {
	Topic    string
	Length   int
	Pages    int
	Language string
	TextType string
}

// OrderStore and UserStore are satisfied by the gorm repositories; the
// service depends on the narrow interfaces so the lifecycle rules are
// testable with fakes.
type OrderStore interface {
	CreateWithCharge(o *models.Order, texts []models.Text) (*models.Transaction, error)
	GetByID(id uint) (*models.Order, error)
	GetByIDWithUser(id uint) (*models.Order, error)
	DeleteWithRefund(id uint) (*models.Transaction, error)
	UpdateFields(id uint, fields map[string]interface{}) error
	ListByUser(userID uint) ([]models.Order, error)
}

type UserStore interface {
	GetByID(id uint) (*models.User, error)
}

type OrderService struct {
	orders OrderStore
	users  UserStore
}

func NewOrderService(orders OrderStore, users UserStore) *OrderService {
	return &OrderService{orders: orders, users: users}
}

// PlaceOrder prices the requested texts, declines if the balance cannot
// cover the total, and creates order + texts + CHARGE atomically. The total
// is fixed at creation time and never recomputed.
func (s *OrderService) PlaceOrder(userID uint, specs []TextSpec, notes string) (*models.Order, error) {
	if len(specs) == 0 {
		return nil, ErrNoTexts
	}
	texts := make([]models.Text, 0, len(specs))
	var total int64
	for _, spec := range specs {
		if !domain.ValidTextType(spec.TextType) {
			return nil, ErrInvalidTextType
		}
		if spec.Length <= 0 {
			return nil, ErrInvalidLength
		}
		pages := spec.Pages
		if pages < 1 {
			pages = 1
		}
		price := domain.PriceFor(spec.TextType, spec.Length)
		total += price
		texts = append(texts, models.Text{
			Topic:      spec.Topic,
			Length:     spec.Length,
			Pages:      pages,
			Language:   spec.Language,
			TextType:   spec.TextType,
			PriceCents: price,
		})
	}
	u, err := s.users.GetByID(userID)
	if err != nil {
		return nil, err
	}
	if u.BalanceCents < total {
		return nil, ErrInsufficientBalance
	}
	o := &models.Order{
		OrderNumber:     NewOrderNumber(time.Now()),
		UserID:          userID,
		Status:          domain.OrderStatusPending,
		TotalPriceCents: total,
		Notes:           notes,
	}
	if _, err := s.orders.CreateWithCharge(o, texts); err != nil {
		return nil, err
	}
	return o, nil
}

// DeleteOrder applies the refund policy: non-PENDING orders get a full
// unprorated REFUND of the total before the delete; PENDING orders are
// deleted with no transaction. Returns the refund, nil when none was due.
func (s *OrderService) DeleteOrder(orderID uint) (*models.Transaction, error) {
	return s.orders.DeleteWithRefund(orderID)
}

// UpdateOrder is a partial update: nil fields stay untouched.
func (s *OrderService) UpdateOrder(orderID uint, status, notes *string) (*models.Order, error) {
	if _, err := s.orders.GetByID(orderID); err != nil {
		return nil, err
	}
	fields := map[string]interface{}{}
	if status != nil {
		if !domain.ValidOrderStatus(*status) {
			return nil, ErrInvalidStatus
		}
		fields["status"] = *status
	}
	if notes != nil {
		fields["notes"] = *notes
	}
	if len(fields) > 0 {
		if err := s.orders.UpdateFields(orderID, fields); err != nil {
			return nil, err
		}
	}
	return s.orders.GetByID(orderID)
}

// CancelOrder flags the order CANCELLED; the driver checks the flag between
// stages and abandons in-flight texts.
func (s *OrderService) CancelOrder(orderID uint) (*models.Order, error) {
	o, err := s.orders.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if o.IsTerminal() {
		return o, nil
	}
	if err := s.orders.UpdateFields(orderID, map[string]interface{}{"status": domain.OrderStatusCancelled}); err != nil {
		return nil, err
	}
	return s.orders.GetByID(orderID)
}

// NewOrderNumber builds a human-readable unique code, e.g. SC-20240115-3F7A2C.
func NewOrderNumber(t time.Time) string {
	buf := make([]byte, 3)
	_, _ = rand.Read(buf)
	return fmt.Sprintf("SC-%s-%s", t.Format("20060102"), hex.EncodeToString(buf))
}
