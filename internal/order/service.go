package order

import (
	"context"
	"errors"
	"fmt"
	"orderservice/internal/db"
	"orderservice/internal/events"
	"orderservice/internal/order/model"
	"orderservice/internal/payment"

	"github.com/jmoiron/sqlx/types"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

// Service implements the order lifecycle on top of an order store and a payment gateway.
// It holds no per-request state; concurrent calls on one order are last-write-wins in the store.
type Service struct {
	db      db.Storage
	gateway payment.Gateway
	events  events.Publisher
	logger  *zap.SugaredLogger
}

func NewService(storage db.Storage, gateway payment.Gateway, publisher events.Publisher, logger *zap.SugaredLogger) *Service {
	return &Service{db: storage, gateway: gateway, events: publisher, logger: logger}
}

// PlaceOrder stores a new unpaid order and returns its id.
func (s *Service) PlaceOrder(ctx context.Context, userID string, items types.JSONText, amount decimal.Decimal, address types.JSONText) (string, error) {
	if err := validateOrder(userID, amount); err != nil {
		return "", err
	}

	order := model.NewOrder(userID, items, address, amount, false)
	id, err := s.db.SaveOrder(ctx, order)
	if err != nil {
		return "", err
	}
	s.publish(ctx, events.OrderPlaced, order)
	return id, nil
}

// VerifyOrder marks the order paid when success is set and deletes it otherwise.
// The returned bool reports whether the order is now paid.
func (s *Service) VerifyOrder(ctx context.Context, orderID string, success bool) (bool, error) {
	if orderID == "" {
		return false, &ValidationError{Field: "orderId", Reason: "is required"}
	}

	if success {
		order, err := s.db.SetPayment(ctx, orderID, true)
		if err != nil {
			return false, err
		}
		s.publish(ctx, events.OrderPaid, order)
		return true, nil
	}

	order, err := s.db.DeleteOrder(ctx, orderID)
	if err != nil {
		return false, err
	}
	s.publish(ctx, events.OrderCancelled, order)
	return false, nil
}

func (s *Service) UserOrders(ctx context.Context, userID string) ([]model.Order, error) {
	if userID == "" {
		return nil, &ValidationError{Field: "userId", Reason: "is required"}
	}
	return s.db.GetOrders(ctx, userID)
}

// ListOrders returns every order. Callers must be authorized at the HTTP boundary.
func (s *Service) ListOrders(ctx context.Context) ([]model.Order, error) {
	return s.db.GetAllOrders(ctx)
}

func (s *Service) GetOrder(ctx context.Context, orderID string) (*model.Order, error) {
	return s.db.GetOrder(ctx, orderID)
}

// UpdateStatus overwrites the status with any non-empty string.
func (s *Service) UpdateStatus(ctx context.Context, orderID, status string) error {
	if orderID == "" {
		return &ValidationError{Field: "orderId", Reason: "is required"}
	}
	if status == "" {
		return &ValidationError{Field: "status", Reason: "is required"}
	}

	order, err := s.db.SetStatus(ctx, orderID, status)
	if err != nil {
		return err
	}
	s.publish(ctx, events.OrderStatusUpdated, order)
	return nil
}

func (s *Service) CreatePaymentIntent(ctx context.Context, amount decimal.Decimal) (string, error) {
	if _, err := payment.FormatAmount(amount); err != nil {
		return "", &ValidationError{Field: "amount", Reason: "must be positive with at most two decimal places"}
	}
	return s.gateway.CreateIntent(ctx, amount)
}

// CapturePaymentIntent captures intentID and stores a paid order for it. completed is false
// when the gateway answered with any status other than COMPLETED, or when the intent is
// already captured or being captured for another user or amount; no order is stored then.
// The pending-capture record written before the gateway call is only removed once the
// outcome is stored.
func (s *Service) CapturePaymentIntent(ctx context.Context, intentID, userID string, items types.JSONText, amount decimal.Decimal, address types.JSONText) (orderID string, completed bool, err error) {
	if intentID == "" {
		return "", false, &ValidationError{Field: "intentId", Reason: "is required"}
	}
	if err := validateOrder(userID, amount); err != nil {
		return "", false, err
	}

	if existing, err := s.db.GetOrderByIntent(ctx, intentID); err == nil {
		if existing.UserID != userID || !existing.Amount.Equal(amount) {
			s.logger.Warnw("intent captured for another order", "intent", intentID, "user", userID)
			return "", false, nil
		}
		s.logger.Infow("intent already captured", "intent", intentID, "order", existing.ID)
		return existing.ID, true, nil
	} else if !errors.Is(err, db.ErrOrderNotFound) {
		return "", false, err
	}

	pending := model.NewPendingCapture(intentID, model.NewOrder(userID, items, address, amount, false))
	if err := s.db.SavePendingCapture(ctx, pending); errors.Is(err, db.ErrIntentClaimed) {
		s.logger.Warnw("intent claimed by another capture", "intent", intentID, "user", userID)
		return "", false, nil
	} else if err != nil {
		return "", false, err
	}

	status, err := s.gateway.CaptureIntent(ctx, intentID)
	if err != nil {
		return "", false, err
	}
	if status != payment.StatusCompleted {
		s.logger.Infow("capture not completed", "intent", intentID, "status", status)
		if err := s.db.DeletePendingCapture(ctx, intentID); err != nil {
			s.logger.Errorw("failed to drop pending capture", "intent", intentID, "error", err)
		}
		return "", false, nil
	}

	order := pending.PaidOrder()
	id, err := s.db.CompletePendingCapture(ctx, order)
	if err != nil {
		s.logger.Errorw("payment captured but order not stored, left for reconciliation", "intent", intentID, "error", err)
		return "", false, err
	}
	order.ID = id
	s.publish(ctx, events.OrderPaid, order)
	return id, true, nil
}

func validateOrder(userID string, amount decimal.Decimal) error {
	if userID == "" {
		return &ValidationError{Field: "userId", Reason: "is required"}
	}
	if amount.IsNegative() || !amount.Equal(amount.Round(2)) {
		return &ValidationError{Field: "amount", Reason: "must be non-negative with at most two decimal places"}
	}
	return nil
}

func (s *Service) publish(ctx context.Context, eventType string, order *model.Order) {
	event := events.Event{
		Type:     eventType,
		OrderID:  order.ID,
		UserID:   order.UserID,
		Amount:   order.Amount.StringFixed(2),
		Payment:  order.Payment,
		Status:   order.Status,
		IntentID: order.IntentID.String,
	}
	if err := s.events.Publish(ctx, event); err != nil {
		s.logger.Errorw("failed to publish order event", "type", eventType, "order", order.ID, "error", err)
	}
}
