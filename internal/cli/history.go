package cli

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/civicarchive/councilcast/internal/history"
	"github.com/spf13/cobra"
)

func NewHistoryCmd(deps *Dependencies) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show previously uploaded meetings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := deps.App()
			if err != nil {
				return err
			}

			uploads, err := app.Uploads(limit)
			if err != nil {
				return err
			}

			if len(uploads) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No uploads recorded")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "UPLOADED\tVIDEO\tPRIVACY\tMEETING\tDATE")
			for _, upload := range uploads {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", upload.UploadedAt.Local().Format(time.DateTime), upload.VideoID, upload.PrivacyStatus, upload.Title, upload.MeetingDate)
			}

			return w.Flush()
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", history.DefaultListLimit, "maximum number of uploads to show")
	return cmd
}
