package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/castanaut/castanaut/cli"
	"github.com/castanaut/castanaut/commands"
	"github.com/castanaut/castanaut/utils"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// setup signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	done := make(chan error, 1)
	go func() {
		done <- cli.Execute(ctx)
	}()

	select {
	case sig := <-sigChan:
		// cancelling aborts a foreground screenplay; its cleanup still runs
		// and removes the sentinel
		utils.Info("received %v, stopping", sig)
		cancel()
		commands.StopRunCommand()

		cfg := commands.GetConfig()
		select {
		case err := <-done:
			exit(err)
		case <-time.After(cfg.Run.GracePeriod + cfg.Run.PollInterval):
			os.Exit(1)
		}
	case err := <-done:
		exit(err)
	}
}

func exit(err error) {
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	os.Exit(0)
}
