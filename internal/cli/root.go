package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"house-inspect/config"
	"house-inspect/internal/container"
	"house-inspect/internal/logger"
	"house-inspect/internal/metrics"
)

// Version задаётся при сборке через ldflags
var Version = "dev"

func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return NewRootCmd().ExecuteContext(ctx)
}

// NewRootCmd собирает дерево команд
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "house-inspect",
		Short: "Video inspection of residential and commercial property",
		Long: `house-inspect extracts frames from a walkthrough video, detects visible
problems, deduplicates them across frames and produces a scored report.

Run it as a Telegram bot, as an HTTP API, or analyze files directly.`,
		SilenceUsage: true,
	}

	root.PersistentFlags().StringP("config", "c", "", "config file (default is .inspect.yaml)")
	root.PersistentFlags().Bool("no-color", false, "disable colored output")

	root.AddCommand(
		newBotCmd(),
		newServeCmd(),
		newInspectCmd(),
		newRecordCmd(),
		newReportsCmd(),
		&cobra.Command{
			Use:   "version",
			Short: "Print the version number",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "house-inspect version %s\n", Version)
			},
		},
	)
	return root
}

// loadConfig читает и проверяет конфигурацию из флага --config
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// bootstrap создаёт логгер, метрики и контейнер зависимостей
func bootstrap(cmd *cobra.Command, cfg *config.Config) (*container.Container, error) {
	logCfg := logger.FromConfig(cfg.Log.Level, cfg.Log.Format)
	logCfg.Output = cmd.ErrOrStderr()
	log := logger.New(logCfg)

	metrics.Register(prometheus.DefaultRegisterer)

	c, err := container.New(cfg, log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize: %w", err)
	}
	return c, nil
}

func colorEnabled(cmd *cobra.Command) bool {
	noColor, _ := cmd.Flags().GetBool("no-color")
	return !noColor && !color.NoColor
}
