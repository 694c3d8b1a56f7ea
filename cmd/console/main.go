// Command console serves the browser console for managing users.
package main

import (
	"context"
	"log"

	"user-console/cmd/console/di"
	"user-console/cmd/internal/app"
	"user-console/cmd/internal/server"
	"user-console/internal/config"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("application exited with error: %v", err)
	}
}

func run() error {
	a, err := app.New(context.Background(), app.Service{
		Port:  func(cfg *config.Config) string { return cfg.Console.HTTPPort },
		Build: di.NewContainer,
	})
	if err != nil {
		return err
	}

	ctx, stop := server.WithSignal(context.Background(), a.Logger)
	defer stop()

	return a.Run(ctx)
}
