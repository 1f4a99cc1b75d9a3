package cli

import (
	"github.com/civicarchive/councilcast/internal/api"
	"github.com/spf13/cobra"
)

func NewServeCmd(deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP trigger and read-only API",
		Long: "Serves GET /api/cron/ to trigger a run (query parameters override the run defaults), " +
			"GET /api/meetings/ and GET /api/uploads/.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := deps.App()
			if err != nil {
				return err
			}

			gateway := api.NewRestGateway(&deps.Config.API, app, app, app)
			return gateway.Run(cmd.Context())
		},
	}
}
