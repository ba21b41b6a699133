package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/psds-microservice/search-facade/internal/application"
	"github.com/psds-microservice/search-facade/internal/config"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Run Kafka consumer (apply document events through the façade). Deploy separately from api.",
	RunE:  runWorker,
}

func runWorker(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	worker, err := application.NewWorker(ctx, cfg)
	if err != nil {
		return err
	}
	worker.Logger.Info("worker: starting Kafka consumer")
	return worker.Run(ctx)
}
