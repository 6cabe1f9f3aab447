package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sarinfocom/intellij-extra-icons/pkg/contracts"
)

func versionCmd() *cobra.Command {
	var detailed bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Display the binary version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if detailed {
				return writeJSON(cmd.OutOrStdout(), contracts.GetVersionInfo())
			}
			_, err := fmt.Fprintln(cmd.OutOrStdout(), contracts.GetFullVersionString())
			return err
		},
	}

	cmd.Flags().BoolVar(&detailed, "json", false, "print version details as JSON")
	return cmd
}
