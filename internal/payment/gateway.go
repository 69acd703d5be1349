package payment

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/plutov/paypal/v4"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const currencyUSD = "USD"

// Intent statuses reported by the gateway.
const (
	StatusCreated   = "CREATED"
	StatusApproved  = "APPROVED"
	StatusVoided    = "VOIDED"
	StatusCompleted = "COMPLETED"
)

var ErrGateway = errors.New("payment gateway error")

type Gateway interface {
	// CreateIntent returns the id of a new USD intent for amount.
	CreateIntent(ctx context.Context, amount decimal.Decimal) (string, error)
	// CaptureIntent captures a previously approved intent and returns the capture status.
	CaptureIntent(ctx context.Context, intentID string) (string, error)
	IntentStatus(ctx context.Context, intentID string) (string, error)
}

type paypalGateway struct {
	client *paypal.Client
	logger *zap.SugaredLogger

	mu         sync.Mutex
	authorized bool
}

func NewPayPalGateway(clientID, secret string, sandbox bool, logger *zap.SugaredLogger) (Gateway, error) {
	apiBase := paypal.APIBaseLive
	if sandbox {
		apiBase = paypal.APIBaseSandBox
	}
	return newPayPalGateway(clientID, secret, apiBase, logger)
}

func newPayPalGateway(clientID, secret, apiBase string, logger *zap.SugaredLogger) (*paypalGateway, error) {
	client, err := paypal.NewClient(clientID, secret, apiBase)
	if err != nil {
		return nil, fmt.Errorf("create paypal client: %w", err)
	}
	return &paypalGateway{client: client, logger: logger}, nil
}

// authorize fetches the first access token; the client renews it on its own afterwards.
func (g *paypalGateway) authorize(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.authorized {
		return nil
	}
	if _, err := g.client.GetAccessToken(ctx); err != nil {
		return g.wrap("authorize", "", err)
	}
	g.authorized = true
	return nil
}

func (g *paypalGateway) CreateIntent(ctx context.Context, amount decimal.Decimal) (string, error) {
	value, err := FormatAmount(amount)
	if err != nil {
		return "", err
	}
	if err := g.authorize(ctx); err != nil {
		return "", err
	}

	units := []paypal.PurchaseUnitRequest{{
		Amount: &paypal.PurchaseUnitAmount{Currency: currencyUSD, Value: value},
	}}
	order, err := g.client.CreateOrder(ctx, paypal.OrderIntentCapture, units, nil, nil)
	if err != nil {
		return "", g.wrap("create intent", "", err)
	}
	g.logger.Infow("payment intent created", "intent", order.ID, "amount", value)
	return order.ID, nil
}

func (g *paypalGateway) CaptureIntent(ctx context.Context, intentID string) (string, error) {
	if err := g.authorize(ctx); err != nil {
		return "", err
	}

	capture, err := g.client.CaptureOrder(ctx, intentID, paypal.CaptureOrderRequest{})
	if err != nil {
		return "", g.wrap("capture intent", intentID, err)
	}
	g.logger.Infow("payment intent captured", "intent", intentID, "status", capture.Status)
	return capture.Status, nil
}

func (g *paypalGateway) IntentStatus(ctx context.Context, intentID string) (string, error) {
	if err := g.authorize(ctx); err != nil {
		return "", err
	}

	order, err := g.client.GetOrder(ctx, intentID)
	if err != nil {
		return "", g.wrap("get intent", intentID, err)
	}
	return order.Status, nil
}

func (g *paypalGateway) wrap(op, intentID string, err error) error {
	var errResp *paypal.ErrorResponse
	if errors.As(err, &errResp) {
		g.logger.Errorw("gateway rejected request", "op", op, "intent", intentID, "name", errResp.Name, "debugId", errResp.DebugID, "message", errResp.Message)
	} else {
		g.logger.Errorw("gateway unreachable", "op", op, "intent", intentID, "error", err)
	}
	return fmt.Errorf("%w: %s: %v", ErrGateway, op, err)
}
