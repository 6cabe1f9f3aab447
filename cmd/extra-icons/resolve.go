package main

import (
	"github.com/spf13/cobra"

	"github.com/sarinfocom/intellij-extra-icons/internal/plugin"
)

// resolveResult is what the resolve command prints
type resolveResult struct {
	Name            string `json:"name"`
	PluginID        string `json:"plugin_id,omitempty"`
	ProductCode     string `json:"product_code,omitempty"`
	RequiresLicense bool   `json:"requires_license"`
}

func resolveCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve",
		Short: "Print which Extra Icons edition is installed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := setup(cmd, flags)
			if err != nil {
				return err
			}

			registry := plugin.NewManifestRegistry(cfg.Plugins.Dir, logger)
			t := plugin.NewResolver(registry, cfg.Plugins.Component, logger).Resolve(cmd.Context())

			return writeJSON(cmd.OutOrStdout(), resolveResult{
				Name:            t.Name,
				PluginID:        t.PluginID,
				ProductCode:     t.ProductCode,
				RequiresLicense: t.RequiresLicense,
			})
		},
	}
}
