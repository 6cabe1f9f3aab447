package main

import (
	"github.com/spf13/cobra"

	"github.com/sarinfocom/intellij-extra-icons/internal/app"
)

func serveCmd(flags *rootFlags) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the license check scheduler and the diagnostics API",
		Long: `Run the license check scheduler, the icon settings watcher and the diagnostics
API until SIGINT or SIGTERM.
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := setup(cmd, flags)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("port") {
				cfg.Server.Port = port
			}

			a, err := app.New(cfg, logger)
			if err != nil {
				return err
			}
			return a.Run(cmd.Context())
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "diagnostics API port")
	return cmd
}
