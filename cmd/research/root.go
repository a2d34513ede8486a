package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kapu/kdp-keyword-go/internal/app"
	"github.com/kapu/kdp-keyword-go/internal/config"
	"github.com/kapu/kdp-keyword-go/internal/util"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	verbose   bool
	container *app.Container
	logger    *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:           "research",
	Short:         "research scores KDP keyword opportunities and manages saved sessions.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		level := "warn"
		if verbose {
			level = cfg.Logging.Level
		}
		logger, err = util.NewLogger(level, cfg.Logging.File)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		buildCtx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()
		container, err = app.Build(buildCtx, cfg, logger)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		container.Close()
		_ = logger.Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log at the configured LOG_LEVEL instead of warn")
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
