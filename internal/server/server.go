package server

import (
	"context"
	"errors"
	"net/http"
	"orderservice/internal/auth"
	"orderservice/internal/config"
	"orderservice/internal/order"
	"orderservice/internal/order/model/api"
	"orderservice/internal/utils"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

func NewRouter(service *order.Service, adminSecret string, logger *zap.SugaredLogger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))

	orderHandler := order.NewHandler(service, logger)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		if err := utils.WriteJSON(w, http.StatusOK, api.Response{Success: true}); err != nil {
			logger.Errorw("failed to write response", "error", err)
		}
	})

	r.Route("/api/order", func(r chi.Router) {
		r.Post("/place-order", orderHandler.PlaceOrder)
		r.Post("/verify-order", orderHandler.VerifyOrder)
		r.Post("/user-orders", orderHandler.UserOrders)
		r.Post("/create-payment-intent", orderHandler.CreatePaymentIntent)
		r.Post("/capture-payment-intent", orderHandler.CapturePaymentIntent)
		r.Post("/create-paypal-order", orderHandler.CreatePaymentIntent)
		r.Post("/capture-paypal-order", orderHandler.CapturePaymentIntent)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAdmin(adminSecret, logger))
			r.Get("/list-orders", orderHandler.ListOrders)
			r.Post("/update-status", orderHandler.UpdateStatus)
			r.Get("/{orderId}", orderHandler.GetOrder)
		})
	})

	return r
}

// Run serves handler on cfg.Address until ctx is done, then shuts the server down.
func Run(ctx context.Context, handler http.Handler, cfg *config.Config, logger *zap.SugaredLogger) {
	server := &http.Server{Addr: cfg.Address, Handler: handler}

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("server start error: %v", err)
		}
	}()
	logger.Infow("server started successfuly", "address", cfg.Address, "mode", cfg.Mode)

	<-ctx.Done()
	logger.Info("get stop signal, start shutdown server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("server shutdown failed: %v", err)
	} else {
		logger.Info("server stopped successfully")
	}
}
