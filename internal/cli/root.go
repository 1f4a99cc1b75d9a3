package cli

import (
	"fmt"
	"os"

	"github.com/civicarchive/councilcast/internal"
	"github.com/spf13/cobra"
)

// Dependencies are resolved once the root command has parsed its
// flags, as the config path is itself a flag.
type Dependencies struct {
	ConfigPath string
	Config     *internal.Config

	app *internal.App
}

func NewRootCmd(deps *Dependencies) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "councilcast",
		Short: "Republish council meeting recordings to YouTube",
		Long: "Scrapes a Granicus meeting archive, downloads the video, agenda and minutes of a meeting, " +
			"optionally transcribes the recording, and uploads it to YouTube.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if deps.Config != nil {
				return nil
			}

			config, err := internal.LoadConfig(deps.ConfigPath)
			if err != nil {
				return err
			}

			config.ApplyLogLevel()
			deps.Config = config
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return deps.Close()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&deps.ConfigPath, "config", "c", os.Getenv("COUNCILCAST_CONFIG"), "path to a YAML or TOML config file")

	rootCmd.AddCommand(NewRunCmd(deps))
	rootCmd.AddCommand(NewListCmd(deps))
	rootCmd.AddCommand(NewAuthCmd(deps))
	rootCmd.AddCommand(NewHistoryCmd(deps))
	rootCmd.AddCommand(NewServeCmd(deps))

	return rootCmd
}

// App lazily constructs the application, so that commands which fail
// validation never touch the database.
func (deps *Dependencies) App() (*internal.App, error) {
	if deps.app != nil {
		return deps.app, nil
	}

	app, err := internal.New(deps.Config)
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}

	deps.app = app
	return app, nil
}

func (deps *Dependencies) Close() error {
	if deps.app == nil {
		return nil
	}

	err := deps.app.Close()
	deps.app = nil
	return err
}
