package order

import (
	"encoding/json"
	"errors"
	"net/http"
	"orderservice/internal/db"
	"orderservice/internal/order/model"
	"orderservice/internal/order/model/api"
	"orderservice/internal/utils"

	"github.com/go-chi/chi"
	"go.uber.org/zap"
)

type handler struct {
	service *Service
	logger  *zap.SugaredLogger
}

func NewHandler(service *Service, logger *zap.SugaredLogger) *handler {
	return &handler{service: service, logger: logger}
}

func (h *handler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	var req api.PlaceOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.badRequest(w, err)
	} else if id, err := h.service.PlaceOrder(r.Context(), req.UserID, req.Items, req.Amount, req.Address); err != nil {
		h.fail(w, "placeOrder", err, "Error placing order")
	} else {
		h.writeJSON(w, http.StatusOK, api.Response{Success: true, Message: "Order placed successfully", OrderID: id})
	}
}

func (h *handler) VerifyOrder(w http.ResponseWriter, r *http.Request) {
	var req api.VerifyOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.badRequest(w, err)
	} else if paid, err := h.service.VerifyOrder(r.Context(), req.OrderID, bool(req.Success)); err != nil {
		h.fail(w, "verifyOrder", err, "Error verifying order")
	} else if paid {
		h.writeJSON(w, http.StatusOK, api.Response{Success: true, Message: "Order verified"})
	} else {
		h.writeJSON(w, http.StatusOK, api.Fail("Order cancelled"))
	}
}

func (h *handler) UserOrders(w http.ResponseWriter, r *http.Request) {
	var req api.UserOrdersRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.badRequest(w, err)
	} else if orders, err := h.service.UserOrders(r.Context(), req.UserID); err != nil {
		h.fail(w, "userOrders", err, "Error fetching orders")
	} else {
		h.writeJSON(w, http.StatusOK, api.Response{Success: true, Data: model.ToAPI(orders)})
	}
}

func (h *handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	if orders, err := h.service.ListOrders(r.Context()); err != nil {
		h.fail(w, "listOrders", err, "Error fetching orders")
	} else {
		h.writeJSON(w, http.StatusOK, api.Response{Success: true, Data: model.ToAPI(orders)})
	}
}

func (h *handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	if order, err := h.service.GetOrder(r.Context(), chi.URLParam(r, "orderId")); err != nil {
		h.fail(w, "getOrder", err, "Error fetching order")
	} else {
		h.writeJSON(w, http.StatusOK, api.Response{Success: true, Data: order.ToAPI()})
	}
}

func (h *handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req api.UpdateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.badRequest(w, err)
	} else if err := h.service.UpdateStatus(r.Context(), req.OrderID, req.Status); err != nil {
		h.fail(w, "updateStatus", err, "Error updating status")
	} else {
		h.writeJSON(w, http.StatusOK, api.Response{Success: true, Message: "Order status updated"})
	}
}

func (h *handler) CreatePaymentIntent(w http.ResponseWriter, r *http.Request) {
	var req api.CreatePaymentIntentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.badRequest(w, err)
	} else if id, err := h.service.CreatePaymentIntent(r.Context(), req.Amount); err != nil {
		h.fail(w, "createPaymentIntent", err, "Payment intent creation failed")
	} else {
		h.writeJSON(w, http.StatusOK, api.Response{Success: true, ID: id})
	}
}

func (h *handler) CapturePaymentIntent(w http.ResponseWriter, r *http.Request) {
	var req api.CapturePaymentIntentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.badRequest(w, err)
	} else if id, completed, err := h.service.CapturePaymentIntent(r.Context(), req.Intent(), req.UserID, req.Items, req.Amount, req.Address); err != nil {
		h.fail(w, "capturePaymentIntent", err, "Payment capture failed")
	} else if !completed {
		h.writeJSON(w, http.StatusOK, api.Fail("Payment not completed"))
	} else {
		h.writeJSON(w, http.StatusOK, api.Response{Success: true, Message: "Payment captured & order placed", OrderID: id})
	}
}

func (h *handler) badRequest(w http.ResponseWriter, err error) {
	h.writeJSON(w, http.StatusBadRequest, api.Fail("Malformed request: "+err.Error()))
}

// fail logs err and answers with the envelope. Only validation and not-found errors
// reach the caller verbatim; everything else is replaced by message.
func (h *handler) fail(w http.ResponseWriter, op string, err error, message string) {
	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		h.writeJSON(w, http.StatusBadRequest, api.Fail(validationErr.Error()))
		return
	}

	h.logger.Errorw("order operation failed", "op", op, "error", err)
	if errors.Is(err, db.ErrOrderNotFound) {
		h.writeJSON(w, http.StatusOK, api.Fail("Order not found"))
	} else {
		h.writeJSON(w, http.StatusOK, api.Fail(message))
	}
}

func (h *handler) writeJSON(w http.ResponseWriter, code int, v interface{}) {
	if err := utils.WriteJSON(w, code, v); err != nil {
		h.logger.Errorw("failed to write response", "code", code, "error", err)
	}
}
