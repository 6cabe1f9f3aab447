package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/sarinfocom/intellij-extra-icons/internal/config"
	"github.com/sarinfocom/intellij-extra-icons/internal/infrastructure"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// rootFlags are shared by every subcommand
type rootFlags struct {
	configFile string
	testMode   bool
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	root := &cobra.Command{
		Use:   config.AppSlug,
		Short: "License-gated icon refresh coordinator for Extra Icons",
		Long: `Extra Icons identifies which edition of the plugin is installed and, for paid
editions, periodically verifies the license. A failed verification disables
the gated icons and asks every registered icon consumer to refresh.
`,
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&flags.configFile, "config", "",
		"config file (default is extra-icons.config.yaml or $"+config.EnvPrefix+"_CONFIG)")
	root.PersistentFlags().BoolVar(&flags.testMode, "test-mode", false,
		"use the short license check timings")

	root.AddCommand(serveCmd(flags))
	root.AddCommand(checkCmd(flags))
	root.AddCommand(resolveCmd(flags))
	root.AddCommand(versionCmd())

	return root
}

// setup loads the configuration and the process-wide logger
func setup(cmd *cobra.Command, flags *rootFlags) (*config.Config, *slog.Logger, error) {
	var (
		cfg *config.Config
		err error
	)
	if flags.configFile != "" {
		cfg, err = config.LoadFrom(flags.configFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, nil, err
	}

	if cmd.Flags().Changed("test-mode") {
		cfg.TestMode = flags.testMode
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return cfg, logger, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
