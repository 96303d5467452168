// Package cmd implements the harvester command-line interface.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"listing-harvester/config"
	"listing-harvester/metrics"
	"listing-harvester/utils"
)

var (
	// cfgFile holds the path to the configuration file.
	cfgFile string

	// debug forces debug-level, console-encoded development logging.
	debug bool

	rootCmd = &cobra.Command{
		Use:   "harvester",
		Short: "Harvest real-estate listings from aruodas.lt",
		Long: `harvester walks the aruodas.lt catalog for each configured category,
fetches every listing, and loads them through a staging table into durable
storage with one audit row per category run.`,
		SilenceUsage:      true,
		PersistentPreRunE: setup,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
)

// app carries what every subcommand needs.
type app struct {
	cfg     *config.Config
	logger  *utils.Logger
	metrics *metrics.Metrics
}

type appKey struct{}

// Execute runs the root command. SIGINT and SIGTERM cancel the context.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "debug-level console logging")

	rootCmd.AddCommand(runCommand())
	rootCmd.AddCommand(exportCommand())
	rootCmd.AddCommand(tasksCommand())
	rootCmd.AddCommand(reportCommand())
	rootCmd.AddCommand(serveCommand())
}

func setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	if debug {
		cfg.Debug = true
		cfg.LogLevel = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := utils.NewLogger(cfg.LogLevel, cfg.Debug)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	logger = logger.With(
		zap.String("invocation_id", uuid.NewString()),
		zap.String("command", cmd.Name()))

	a := &app{cfg: cfg, logger: logger, metrics: metrics.New()}
	cmd.SetContext(context.WithValue(cmd.Context(), appKey{}, a))
	return nil
}

func appFrom(cmd *cobra.Command) *app {
	return cmd.Context().Value(appKey{}).(*app)
}
