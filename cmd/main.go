package main

import (
	"context"
	"fmt"
	"os"

	"github.com/caselens/caselens-backend/internal/app"
	"github.com/caselens/caselens-backend/internal/pkg/shutdown"
)

func main() {
	a, err := app.New()
	if err != nil {
		fmt.Printf("Failed to initialize application: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := shutdown.NotifyContext(context.Background())
	defer stop()

	if err := a.Start(ctx); err != nil {
		a.Log.Error("Failed to start background components", "error", err)
		a.Close()
		os.Exit(1)
	}

	if a.Cfg.RunServer {
		a.Log.Info("Starting HTTP server", "port", a.Cfg.Port)
		if err := a.Run(":" + a.Cfg.Port); err != nil {
			a.Log.Error("HTTP server exited", "error", err)
			a.Close()
			os.Exit(1)
		}
	} else {
		// Worker-only process: block until a signal arrives.
		a.Log.Info("HTTP server disabled; waiting for shutdown signal")
		<-ctx.Done()
	}

	a.Close()
}
