package main

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/sarinfocom/intellij-extra-icons/internal/app"
	"github.com/sarinfocom/intellij-extra-icons/internal/license"
)

var errNotLicensed = errors.New("installed plugin is not licensed")

// checkResult is what the check command prints
type checkResult struct {
	PluginType      string `json:"plugin_type"`
	ProductCode     string `json:"product_code,omitempty"`
	RequiresLicense bool   `json:"requires_license"`
	Verdict         string `json:"verdict,omitempty"`
}

func checkCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Verify the license of the installed plugin once",
		Long: `Resolve the installed plugin type and, when it requires a license, ask the
configured verifiers once. Exits non-zero when the license is missing.
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := setup(cmd, flags)
			if err != nil {
				return err
			}
			cfg.Server.Enabled = false

			a, err := app.New(cfg, logger)
			if err != nil {
				return err
			}
			defer a.Stop(context.WithoutCancel(cmd.Context()))

			ctx := cmd.Context()
			t := a.Resolver.Resolve(ctx)
			result := checkResult{
				PluginType:      t.Name,
				ProductCode:     t.ProductCode,
				RequiresLicense: t.RequiresLicense,
			}

			var verdict license.Verdict
			if t.RequiresLicense {
				verdict = a.Verifier.IsLicensed(ctx, t.ProductCode)
				result.Verdict = verdict.String()
			}

			if err := writeJSON(cmd.OutOrStdout(), result); err != nil {
				return err
			}
			if verdict == license.Unlicensed {
				return errNotLicensed
			}
			return nil
		},
	}
}
