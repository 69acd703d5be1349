package order

import (
	"context"
	"database/sql"
	"orderservice/internal/db"
	"orderservice/internal/events"
	"orderservice/internal/order/model"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

var logger = zap.NewExample().Sugar()

type mockDBStorage struct {
	mock.Mock
}

func (m *mockDBStorage) SaveOrder(ctx context.Context, order *model.Order) (string, error) {
	args := m.Called(order)
	return args.String(0), args.Error(1)
}

func (m *mockDBStorage) GetOrder(ctx context.Context, id string) (*model.Order, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *mockDBStorage) GetOrders(ctx context.Context, userID string) ([]model.Order, error) {
	args := m.Called(userID)
	return args.Get(0).([]model.Order), args.Error(1)
}

func (m *mockDBStorage) GetAllOrders(ctx context.Context) ([]model.Order, error) {
	args := m.Called()
	return args.Get(0).([]model.Order), args.Error(1)
}

func (m *mockDBStorage) SetPayment(ctx context.Context, id string, paid bool) (*model.Order, error) {
	args := m.Called(id, paid)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *mockDBStorage) SetStatus(ctx context.Context, id string, status string) (*model.Order, error) {
	args := m.Called(id, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *mockDBStorage) DeleteOrder(ctx context.Context, id string) (*model.Order, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *mockDBStorage) GetOrderByIntent(ctx context.Context, intentID string) (*model.Order, error) {
	args := m.Called(intentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *mockDBStorage) SavePendingCapture(ctx context.Context, capture *model.PendingCapture) error {
	return m.Called(capture).Error(0)
}

func (m *mockDBStorage) DeletePendingCapture(ctx context.Context, intentID string) error {
	return m.Called(intentID).Error(0)
}

func (m *mockDBStorage) CompletePendingCapture(ctx context.Context, order *model.Order) (string, error) {
	args := m.Called(order)
	return args.String(0), args.Error(1)
}

func (m *mockDBStorage) GetPendingCaptures(ctx context.Context, before time.Time, offset, limit int) ([]model.PendingCapture, error) {
	args := m.Called(before, offset, limit)
	return args.Get(0).([]model.PendingCapture), args.Error(1)
}

type mockGateway struct {
	mock.Mock
}

func (m *mockGateway) CreateIntent(ctx context.Context, amount decimal.Decimal) (string, error) {
	args := m.Called(amount.String())
	return args.String(0), args.Error(1)
}

func (m *mockGateway) CaptureIntent(ctx context.Context, intentID string) (string, error) {
	args := m.Called(intentID)
	return args.String(0), args.Error(1)
}

func (m *mockGateway) IntentStatus(ctx context.Context, intentID string) (string, error) {
	args := m.Called(intentID)
	return args.String(0), args.Error(1)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(ctx context.Context, event events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	types := make([]string, len(p.events))
	for i, e := range p.events {
		types[i] = e.Type
	}
	return types
}

// memStorage keeps orders in memory with the same not-found semantics as the sql storage.
type memStorage struct {
	mu       sync.Mutex
	orders   map[string]model.Order
	pending  map[string]model.PendingCapture
	sequence []string
}

func newMemStorage() *memStorage {
	return &memStorage{orders: map[string]model.Order{}, pending: map[string]model.PendingCapture{}}
}

func (s *memStorage) SaveOrder(ctx context.Context, order *model.Order) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	order.ID = uuid.New().String()
	order.CreatedAt = time.Now()
	s.orders[order.ID] = *order
	s.sequence = append(s.sequence, order.ID)
	return order.ID, nil
}

func (s *memStorage) GetOrder(ctx context.Context, id string) (*model.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return nil, db.ErrOrderNotFound
	}
	return &o, nil
}

func (s *memStorage) GetOrders(ctx context.Context, userID string) ([]model.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	orders := []model.Order{}
	for _, id := range s.sequence {
		if o, ok := s.orders[id]; ok && o.UserID == userID {
			orders = append(orders, o)
		}
	}
	return orders, nil
}

func (s *memStorage) GetAllOrders(ctx context.Context) ([]model.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	orders := []model.Order{}
	for _, id := range s.sequence {
		if o, ok := s.orders[id]; ok {
			orders = append(orders, o)
		}
	}
	return orders, nil
}

func (s *memStorage) SetPayment(ctx context.Context, id string, paid bool) (*model.Order, error) {
	return s.update(id, func(o *model.Order) { o.Payment = paid })
}

func (s *memStorage) SetStatus(ctx context.Context, id string, status string) (*model.Order, error) {
	return s.update(id, func(o *model.Order) { o.Status = status })
}

func (s *memStorage) update(id string, f func(o *model.Order)) (*model.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return nil, db.ErrOrderNotFound
	}
	f(&o)
	s.orders[id] = o
	return &o, nil
}

func (s *memStorage) DeleteOrder(ctx context.Context, id string) (*model.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return nil, db.ErrOrderNotFound
	}
	delete(s.orders, id)
	return &o, nil
}

func (s *memStorage) GetOrderByIntent(ctx context.Context, intentID string) (*model.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range s.orders {
		if o.IntentID.Valid && o.IntentID.String == intentID {
			return &o, nil
		}
	}
	return nil, db.ErrOrderNotFound
}

func (s *memStorage) SavePendingCapture(ctx context.Context, capture *model.PendingCapture) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if held, ok := s.pending[capture.IntentID]; ok && (held.UserID != capture.UserID || !held.Amount.Equal(capture.Amount)) {
		return db.ErrIntentClaimed
	}
	s.pending[capture.IntentID] = *capture
	return nil
}

func (s *memStorage) DeletePendingCapture(ctx context.Context, intentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pending, intentID)
	return nil
}

func (s *memStorage) CompletePendingCapture(ctx context.Context, order *model.Order) (string, error) {
	intentID := order.IntentID.String
	if existing, err := s.GetOrderByIntent(ctx, intentID); err == nil {
		return existing.ID, s.DeletePendingCapture(ctx, intentID)
	}
	order.IntentID = sql.NullString{String: intentID, Valid: true}
	id, err := s.SaveOrder(ctx, order)
	if err != nil {
		return "", err
	}
	return id, s.DeletePendingCapture(ctx, intentID)
}

func (s *memStorage) GetPendingCaptures(ctx context.Context, before time.Time, offset, limit int) ([]model.PendingCapture, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	captures := []model.PendingCapture{}
	for _, c := range s.pending {
		captures = append(captures, c)
	}
	return captures, nil
}
