package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kapu/santoral-go/internal/app"
	"github.com/kapu/santoral-go/internal/config"
	"github.com/kapu/santoral-go/internal/util"
)

var rootCmd = &cobra.Command{
	Use:           "santoral",
	Short:         "santoral builds the saints calendar and daily readings files.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

// withContainer loads configuration, builds the service container and runs fn.
// Input validation happens before this so bad flags never touch the network.
func withContainer(cmd *cobra.Command, fn func(ctx context.Context, c *app.Container) error) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := util.NewLogger(cfg.Logging.Level, cfg.Logging.File)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	buildCtx, buildCancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	container, err := app.Build(buildCtx, cfg, logger)
	buildCancel()
	if err != nil {
		logger.Error("Failed to assemble application services", zap.Error(err))
		return err
	}
	defer container.Close()

	logger.Info("santoral starting",
		zap.String("command", cmd.CommandPath()),
		zap.String("log_level", cfg.Logging.Level),
	)
	return fn(cmd.Context(), container)
}
