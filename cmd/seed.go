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
	"github.com/psds-microservice/search-facade/internal/model"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load the sample e-commerce orders into the e-commerce index",
	RunE:  runSeed,
}

func runSeed(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	core, err := application.NewCore(ctx, cfg)
	if err != nil {
		return err
	}
	defer core.Close()

	out, err := core.Service.LoadOrders(ctx, model.SampleOrders())
	if err != nil {
		return fmt.Errorf("seed: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "indexed %d orders into %s (%d failed)\n", out.ItemCount-out.Failed(), cfg.Indices.Ecommerce, out.Failed())
	if out.Errors {
		return fmt.Errorf("seed: %d orders failed", out.Failed())
	}
	return nil
}
