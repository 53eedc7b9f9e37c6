// Package main runs a single reconciliation sweep and exits. Suitable
// for cron-style invocation outside the long-running server.
package main

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"

	"github.com/fizzlabs/fizzbuzz-service/internal/app"
)

const sweepTimeout = 2 * time.Minute

func main() {
	_ = godotenv.Load()

	application, err := app.New(app.Options{EnableReconciler: true})
	if err != nil {
		log.Fatalf("failed to initialize reconciler: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
	defer cancel()

	if err := application.ReconcileOnce(ctx); err != nil {
		application.Logger().WithError(err).Fatal("reconciliation sweep failed")
	}
	application.Logger().Info("reconciliation sweep completed")

	if err := application.Shutdown(context.Background()); err != nil {
		application.Logger().WithError(err).Error("shutdown failed")
	}
}
