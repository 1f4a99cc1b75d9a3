package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func NewAuthCmd(deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "auth",
		Short: "Authorize uploads and cache the OAuth token",
		Long: "Runs the console consent flow against the configured client secrets file " +
			"and stores the resulting token in the configured token cache.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := deps.App()
			if err != nil {
				return err
			}

			app.Credentials.Prompt = cmd.InOrStdin()
			app.Credentials.Out = cmd.OutOrStdout()
			if err := app.Credentials.Authorize(cmd.Context()); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Token stored in %s\n", app.Credentials.TokenPath)
			return nil
		},
	}
}
