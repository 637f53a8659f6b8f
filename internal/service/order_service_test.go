package service

import (
	"errors"
	"regexp"
	"testing"
	"time"

	"smartcopy/internal/domain"
	"smartcopy/internal/models"
)

type fakeOrderStore struct {
	orders  map[uint]*models.Order
	nextID  uint
	created [][]models.Text
	updates []map[string]interface{}
	refunds []uint
}

func newFakeOrderStore() *fakeOrderStore {
	return &fakeOrderStore{orders: map[uint]*models.Order{}, nextID: 1}
}

func (s *fakeOrderStore) CreateWithCharge(o *models.Order, texts []models.Text) (*models.Transaction, error) {
	o.ID = s.nextID
	s.nextID++
	cp := *o
	s.orders[o.ID] = &cp
	s.created = append(s.created, texts)
	return &models.Transaction{Type: domain.TxTypeCharge, AmountCents: o.TotalPriceCents}, nil
}

func (s *fakeOrderStore) GetByID(id uint) (*models.Order, error) {
	o, ok := s.orders[id]
	if !ok {
		return nil, errors.New("order not found")
	}
	cp := *o
	return &cp, nil
}

func (s *fakeOrderStore) GetByIDWithUser(id uint) (*models.Order, error) { return s.GetByID(id) }

func (s *fakeOrderStore) DeleteWithRefund(id uint) (*models.Transaction, error) {
	o, ok := s.orders[id]
	if !ok {
		return nil, errors.New("order not found")
	}
	delete(s.orders, id)
	if o.Status == domain.OrderStatusPending {
		return nil, nil
	}
	s.refunds = append(s.refunds, id)
	return &models.Transaction{Type: domain.TxTypeRefund, AmountCents: o.TotalPriceCents}, nil
}

func (s *fakeOrderStore) UpdateFields(id uint, fields map[string]interface{}) error {
	o, ok := s.orders[id]
	if !ok {
		return errors.New("order not found")
	}
	s.updates = append(s.updates, fields)
	if v, ok := fields["status"]; ok {
		o.Status = v.(string)
	}
	if v, ok := fields["notes"]; ok {
		o.Notes = v.(string)
	}
	return nil
}

func (s *fakeOrderStore) ListByUser(userID uint) ([]models.Order, error) {
	var out []models.Order
	for _, o := range s.orders {
		if o.UserID == userID {
			out = append(out, *o)
		}
	}
	return out, nil
}

type fakeUserStore struct {
	users map[uint]*models.User
}

func (s *fakeUserStore) GetByID(id uint) (*models.User, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, errors.New("user not found")
	}
	return u, nil
}

func newService(balanceCents int64) (*OrderService, *fakeOrderStore) {
	orders := newFakeOrderStore()
	users := &fakeUserStore{users: map[uint]*models.User{
		1: {ID: 1, Email: "buyer@example.com", BalanceCents: balanceCents},
	}}
	return NewOrderService(orders, users), orders
}

func TestPlaceOrderPricesAndCharges(t *testing.T) {
	svc, store := newService(500000)
	specs := []TextSpec{
		{Topic: "espresso", Length: 2500, Language: "en", TextType: domain.TextTypeArticle},
		{Topic: "grinders", Length: 1000, Pages: 2, Language: "en", TextType: domain.TextTypeBlogPost},
	}
	o, err := svc.PlaceOrder(1, specs, "rush job")
	if err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}
	// 2500 chars of article = 3 started thousands at 800, 1000 of blog_post = 1 at 700.
	want := int64(3*800 + 1*700)
	if o.TotalPriceCents != want {
		t.Errorf("total = %d, want %d", o.TotalPriceCents, want)
	}
	if o.Status != domain.OrderStatusPending {
		t.Errorf("status = %q, want PENDING", o.Status)
	}
	if o.Notes != "rush job" {
		t.Errorf("notes = %q", o.Notes)
	}
	if len(store.created) != 1 || len(store.created[0]) != 2 {
		t.Fatalf("texts persisted = %v", store.created)
	}
	texts := store.created[0]
	if texts[0].PriceCents != 2400 || texts[1].PriceCents != 700 {
		t.Errorf("per-text prices = %d, %d", texts[0].PriceCents, texts[1].PriceCents)
	}
	if texts[0].Pages != 1 {
		t.Errorf("pages defaulted to %d, want 1", texts[0].Pages)
	}
}

func TestPlaceOrderValidation(t *testing.T) {
	svc, _ := newService(500000)
	cases := []struct {
		name  string
		specs []TextSpec
		want  error
	}{
		{"no texts", nil, ErrNoTexts},
		{"bad type", []TextSpec{{Topic: "x", Length: 100, TextType: "poem"}}, ErrInvalidTextType},
		{"zero length", []TextSpec{{Topic: "x", Length: 0, TextType: domain.TextTypeArticle}}, ErrInvalidLength},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.PlaceOrder(1, tc.specs, ""); !errors.Is(err, tc.want) {
				t.Errorf("err = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestPlaceOrderInsufficientBalance(t *testing.T) {
	svc, store := newService(799)
	_, err := svc.PlaceOrder(1, []TextSpec{{Topic: "x", Length: 500, Language: "en", TextType: domain.TextTypeArticle}}, "")
	if !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("err = %v, want ErrInsufficientBalance", err)
	}
	if len(store.created) != 0 {
		t.Error("declined order must not persist anything")
	}
}

func TestUpdateOrderPartial(t *testing.T) {
	svc, _ := newService(500000)
	o, err := svc.PlaceOrder(1, []TextSpec{{Topic: "x", Length: 500, Language: "en", TextType: domain.TextTypeArticle}}, "keep me")
	if err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}

	status := domain.OrderStatusCompleted
	got, err := svc.UpdateOrder(o.ID, &status, nil)
	if err != nil {
		t.Fatalf("UpdateOrder: %v", err)
	}
	if got.Status != domain.OrderStatusCompleted {
		t.Errorf("status = %q, want COMPLETED", got.Status)
	}
	if got.Notes != "keep me" {
		t.Errorf("nil notes field must stay untouched, got %q", got.Notes)
	}

	bad := "SHIPPED"
	if _, err := svc.UpdateOrder(o.ID, &bad, nil); !errors.Is(err, ErrInvalidStatus) {
		t.Errorf("err = %v, want ErrInvalidStatus", err)
	}

	if _, err := svc.UpdateOrder(o.ID, nil, nil); err != nil {
		t.Errorf("no-op update: %v", err)
	}
}

func TestCancelOrder(t *testing.T) {
	svc, store := newService(500000)
	o, _ := svc.PlaceOrder(1, []TextSpec{{Topic: "x", Length: 500, Language: "en", TextType: domain.TextTypeArticle}}, "")

	got, err := svc.CancelOrder(o.ID)
	if err != nil {
		t.Fatalf("CancelOrder: %v", err)
	}
	if got.Status != domain.OrderStatusCancelled {
		t.Errorf("status = %q, want CANCELLED", got.Status)
	}

	// Terminal orders are left alone.
	store.orders[o.ID].Status = domain.OrderStatusCompleted
	before := len(store.updates)
	got, err = svc.CancelOrder(o.ID)
	if err != nil {
		t.Fatalf("CancelOrder terminal: %v", err)
	}
	if got.Status != domain.OrderStatusCompleted {
		t.Errorf("terminal status changed to %q", got.Status)
	}
	if len(store.updates) != before {
		t.Error("terminal cancel must not write")
	}
}

func TestDeleteOrderRefundPolicy(t *testing.T) {
	svc, store := newService(500000)
	pending, _ := svc.PlaceOrder(1, []TextSpec{{Topic: "a", Length: 500, Language: "en", TextType: domain.TextTypeArticle}}, "")
	active, _ := svc.PlaceOrder(1, []TextSpec{{Topic: "b", Length: 500, Language: "en", TextType: domain.TextTypeArticle}}, "")
	store.orders[active.ID].Status = domain.OrderStatusInProgress

	tx, err := svc.DeleteOrder(pending.ID)
	if err != nil {
		t.Fatalf("delete pending: %v", err)
	}
	if tx != nil {
		t.Errorf("pending delete produced refund %+v", tx)
	}

	tx, err = svc.DeleteOrder(active.ID)
	if err != nil {
		t.Fatalf("delete active: %v", err)
	}
	if tx == nil || tx.Type != domain.TxTypeRefund || tx.AmountCents != active.TotalPriceCents {
		t.Errorf("active delete refund = %+v, want full REFUND of %d", tx, active.TotalPriceCents)
	}
}

func TestNewOrderNumberFormat(t *testing.T) {
	ts := time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)
	re := regexp.MustCompile(`^SC-20240115-[0-9a-f]{6}$`)
	n1, n2 := NewOrderNumber(ts), NewOrderNumber(ts)
	if !re.MatchString(n1) {
		t.Errorf("order number %q does not match format", n1)
	}
	if n1 == n2 {
		t.Errorf("consecutive order numbers collided: %q", n1)
	}
}
