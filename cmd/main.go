package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"minu.io/hub/internal/application/ports"
	"minu.io/hub/internal/interfaces/cli"
	"minu.io/hub/internal/interfaces/di"
)

func main() {
	container, err := di.NewContainer()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize application: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		container.Logger.Log(ports.LogLevelInfo, "Received shutdown signal, shutting down gracefully", nil)
		cancel()

		if err := container.Shutdown(ctx); err != nil {
			container.Logger.LogError(err, "Error during shutdown", nil)
		}
		os.Exit(0)
	}()

	cli.Execute(container.GetCLIContainer())
}
