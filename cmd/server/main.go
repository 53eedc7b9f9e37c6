// Package main runs the fizzbuzz HTTP service with the tracking
// consumer and the reconciliation runner in-process.
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
	// Optional local overrides; absence is not an error.
	_ = godotenv.Load()

	application, err := app.New(app.Options{
		EnableHTTP:       true,
		EnableConsumer:   true,
		EnableReconciler: true,
	})
	if err != nil {
		log.Fatalf("failed to initialize application: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := application.Run(ctx); err != nil {
		application.Logger().WithError(err).Fatal("application failed")
	}

	if err := application.Shutdown(context.Background()); err != nil {
		application.Logger().WithError(err).Error("shutdown failed")
	}
}
