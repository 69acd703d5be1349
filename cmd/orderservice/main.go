package main

import (
	"context"
	"log"
	"orderservice/internal/config"
	"orderservice/internal/db"
	"orderservice/internal/events"
	"orderservice/internal/order"
	"orderservice/internal/payment"
	"orderservice/internal/processing"
	mainServer "orderservice/internal/server"
	"os/signal"
	"sync"
	"syscall"

	"go.uber.org/zap"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT)
	defer cancel()

	l, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("error on create logger: %v", err)
	}
	logger := l.Sugar()
	defer logger.Sync()

	cnfg, err := config.NewConfig()
	if err != nil {
		logger.Fatalf("failed to parse config, %v", err)
	}
	logger.Infow("config loaded", "address", cnfg.Address, "mode", cnfg.Mode, "sandbox", cnfg.Sandbox())

	storage, err := db.NewStorage(ctx, cnfg.DBURL, logger)
	if err != nil {
		logger.Fatalf("failed to create storage, %v", err)
	}

	gateway, err := payment.NewPayPalGateway(cnfg.PayPalClientID, cnfg.PayPalClientSecret, cnfg.Sandbox(), logger)
	if err != nil {
		logger.Fatalf("failed to create payment gateway, %v", err)
	}

	publisher := events.NewNopPublisher()
	if cnfg.AMQPURL != "" {
		if publisher, err = events.NewAMQPPublisher(cnfg.AMQPURL, cnfg.EventsExchange, logger); err != nil {
			logger.Fatalf("failed to create event publisher, %v", err)
		}
	}
	defer publisher.Close()

	if cnfg.AdminSecret == "" {
		logger.Warn("ADMIN_SECRET is not set, admin routes are unprotected")
	}

	service := order.NewService(storage, gateway, publisher, logger)
	wg := &sync.WaitGroup{}

	reconciler := processing.NewReconciler(storage, gateway, publisher, cnfg.PendingCaptureGrace, cnfg.PendingCaptureTTL, logger)
	processing.RunDaemon(ctx, reconciler, cnfg.ReconcileInterval, wg)
	mainServer.Run(ctx, mainServer.NewRouter(service, cnfg.AdminSecret, logger), cnfg, logger)

	wg.Wait()
}
