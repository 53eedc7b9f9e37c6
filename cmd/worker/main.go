// Package main runs the tracking consumer as a standalone worker for
// deployments that scale statistics processing separately from the
// HTTP tier.
package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/fizzlabs/fizzbuzz-service/internal/app"
)

func main() {
	_ = godotenv.Load()

	application, err := app.New(app.Options{
		EnableConsumer:   true,
		EnableReconciler: true,
	})
	if err != nil {
		log.Fatalf("failed to initialize worker: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application.Logger().Info("tracking worker started")
	if err := application.Run(ctx); err != nil {
		application.Logger().WithError(err).Fatal("worker failed")
	}

	if err := application.Shutdown(context.Background()); err != nil {
		application.Logger().WithError(err).Error("shutdown failed")
	}
}
