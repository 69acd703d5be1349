package processing

import (
	"context"
	"orderservice/internal/db"
	"orderservice/internal/events"
	"orderservice/internal/order/model"
	"orderservice/internal/payment"
	"sync"
	"time"

	"go.uber.org/zap"
)

const pageSize = 10

// Reconciler settles pending captures left behind when a capture succeeded at the
// gateway but the paid order was never stored.
type Reconciler struct {
	db      db.Storage
	gateway payment.Gateway
	events  events.Publisher
	logger  *zap.SugaredLogger

	// grace keeps in-flight captures out of reach; ttl bounds how long an unsettled intent is kept.
	grace time.Duration
	ttl   time.Duration
	now   func() time.Time
}

func NewReconciler(storage db.Storage, gateway payment.Gateway, publisher events.Publisher, grace, ttl time.Duration, logger *zap.SugaredLogger) *Reconciler {
	return &Reconciler{db: storage, gateway: gateway, events: publisher, logger: logger, grace: grace, ttl: ttl, now: time.Now}
}

type outcome int

const (
	kept outcome = iota
	settled
	dropped
)

// RunOnce walks all pending captures older than the grace period and returns how many
// were turned into paid orders.
func (r *Reconciler) RunOnce(ctx context.Context) (int, error) {
	now := r.now()
	offset := 0
	total := 0
	for {
		captures, err := r.db.GetPendingCaptures(ctx, now.Add(-r.grace), offset, pageSize)
		if err != nil {
			return total, err
		}

		for i := range captures {
			switch r.reconcile(ctx, &captures[i], now) {
			case settled:
				total++
			case kept:
				offset++
			}
		}
		if len(captures) < pageSize || ctx.Err() != nil {
			return total, ctx.Err()
		}
	}
}

func (r *Reconciler) reconcile(ctx context.Context, capture *model.PendingCapture, now time.Time) outcome {
	status, err := r.gateway.IntentStatus(ctx, capture.IntentID)
	if err != nil {
		r.logger.Errorw("failed to read intent status", "intent", capture.IntentID, "error", err)
		return kept
	}

	switch {
	case status == payment.StatusCompleted:
		order := capture.PaidOrder()
		id, err := r.db.CompletePendingCapture(ctx, order)
		if err != nil {
			r.logger.Errorw("failed to store reconciled order", "intent", capture.IntentID, "error", err)
			return kept
		}
		order.ID = id
		r.logger.Infow("pending capture settled", "intent", capture.IntentID, "order", id)
		r.publish(ctx, order)
		return settled
	case status == payment.StatusVoided || now.Sub(capture.CreatedAt) > r.ttl:
		if err := r.db.DeletePendingCapture(ctx, capture.IntentID); err != nil {
			r.logger.Errorw("failed to drop pending capture", "intent", capture.IntentID, "error", err)
			return kept
		}
		r.logger.Infow("pending capture dropped", "intent", capture.IntentID, "status", status)
		return dropped
	default:
		return kept
	}
}

func (r *Reconciler) publish(ctx context.Context, order *model.Order) {
	event := events.Event{
		Type:     events.OrderPaid,
		OrderID:  order.ID,
		UserID:   order.UserID,
		Amount:   order.Amount.StringFixed(2),
		Payment:  true,
		Status:   order.Status,
		IntentID: order.IntentID.String,
	}
	if err := r.events.Publish(ctx, event); err != nil {
		r.logger.Errorw("failed to publish order event", "type", event.Type, "order", order.ID, "error", err)
	}
}

// RunDaemon runs r every interval until ctx is done.
func RunDaemon(ctx context.Context, r *Reconciler, interval time.Duration, wg *sync.WaitGroup) {
	wg.Add(1)
	go func() {
		defer wg.Done()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				r.logger.Debug("run pending capture reconciliation...")
				if n, err := r.RunOnce(ctx); err != nil {
					r.logger.Errorw("reconciliation failed", "settled", n, "error", err)
				} else if n > 0 {
					r.logger.Infow("reconciliation finished", "settled", n)
				}
			case <-ctx.Done():
				return
			}
		}
	}()
}
