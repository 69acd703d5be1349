package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"orderservice/internal/auth"
	"orderservice/internal/db"
	"orderservice/internal/events"
	"orderservice/internal/order"
	"orderservice/internal/order/model"
	"orderservice/internal/order/model/api"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var logger = zap.NewExample().Sugar()

const adminSecret = "admin-secret"

type mockDBStorage struct {
	db.Storage
	mock.Mock
}

func (m *mockDBStorage) GetAllOrders(ctx context.Context) ([]model.Order, error) {
	args := m.Called()
	return args.Get(0).([]model.Order), args.Error(1)
}

func (m *mockDBStorage) GetOrder(ctx context.Context, id string) (*model.Order, error) {
	args := m.Called(id)
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

func newTestServer(t *testing.T, storage *mockDBStorage, gateway *mockGateway) *httptest.Server {
	service := order.NewService(storage, gateway, events.NewNopPublisher(), logger)
	ts := httptest.NewServer(NewRouter(service, adminSecret, logger))
	t.Cleanup(ts.Close)
	return ts
}

func decode(t *testing.T, res *http.Response) api.Response {
	defer res.Body.Close()
	var body api.Response
	require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
	return body
}

func TestRouter_health(t *testing.T) {
	ts := newTestServer(t, new(mockDBStorage), new(mockGateway))

	res, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.True(t, decode(t, res).Success)
}

func TestRouter_adminRoutes(t *testing.T) {
	storage := new(mockDBStorage)
	storage.On("GetAllOrders").Return([]model.Order{}, nil)
	storage.On("SetStatus", "order-1", "Delivered").Return(&model.Order{ID: "order-1", Status: "Delivered"}, nil)
	ts := newTestServer(t, storage, new(mockGateway))

	token, err := auth.GetAdminToken("ops", adminSecret, time.Minute)
	require.NoError(t, err)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		token  string
		code   int
	}{
		{name: "list without token", method: http.MethodGet, path: "/api/order/list-orders", code: 401},
		{name: "list with token", method: http.MethodGet, path: "/api/order/list-orders", token: token, code: 200},
		{name: "update without token", method: http.MethodPost, path: "/api/order/update-status", body: `{"orderId":"order-1","status":"Delivered"}`, code: 401},
		{name: "update with token", method: http.MethodPost, path: "/api/order/update-status", body: `{"orderId":"order-1","status":"Delivered"}`, token: token, code: 200},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			request, err := http.NewRequest(tt.method, ts.URL+tt.path, bytes.NewReader([]byte(tt.body)))
			require.NoError(t, err)
			if tt.token != "" {
				request.Header.Set("Authorization", "Bearer "+tt.token)
			}

			res, err := http.DefaultClient.Do(request)
			require.NoError(t, err)
			assert.Equal(t, tt.code, res.StatusCode, "wrong status")
			assert.Equal(t, tt.code == 200, decode(t, res).Success)
		})
	}
}

func TestRouter_paymentAliases(t *testing.T) {
	gateway := new(mockGateway)
	gateway.On("CreateIntent", "10").Return("5O190127TN364715T", nil)
	ts := newTestServer(t, new(mockDBStorage), gateway)

	for _, path := range []string{"/api/order/create-payment-intent", "/api/order/create-paypal-order"} {
		res, err := http.Post(ts.URL+path, "application/json", bytes.NewReader([]byte(`{"amount":10}`)))
		require.NoError(t, err)
		assert.Equal(t, api.Response{Success: true, ID: "5O190127TN364715T"}, decode(t, res), path)
	}
	gateway.AssertNumberOfCalls(t, "CreateIntent", 2)
}

func TestRouter_getOrder(t *testing.T) {
	storage := new(mockDBStorage)
	o := model.NewOrder("u1", nil, nil, decimal.RequireFromString("4.20"), true)
	o.ID = "order-1"
	storage.On("GetOrder", "order-1").Return(o, nil)
	ts := newTestServer(t, storage, new(mockGateway))

	res, err := http.Get(ts.URL + "/api/order/order-1")
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
	assert.Equal(t, api.Fail("Not Authorized Login Again"), decode(t, res))
	storage.AssertNotCalled(t, "GetOrder", mock.Anything)

	token, err := auth.GetAdminToken("ops", adminSecret, time.Minute)
	require.NoError(t, err)
	request, err := http.NewRequest(http.MethodGet, ts.URL+"/api/order/order-1", nil)
	require.NoError(t, err)
	request.AddCookie(&http.Cookie{Name: "token", Value: token})

	res, err = http.DefaultClient.Do(request)
	require.NoError(t, err)
	defer res.Body.Close()

	var result struct {
		Success bool      `json:"success"`
		Data    api.Order `json:"data"`
	}
	require.NoError(t, json.NewDecoder(res.Body).Decode(&result))
	assert.True(t, result.Success)
	assert.Equal(t, "order-1", result.Data.ID)
	assert.Equal(t, 4.2, result.Data.Amount)
	assert.True(t, result.Data.Payment)
}
