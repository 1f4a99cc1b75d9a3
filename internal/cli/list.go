package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/civicarchive/councilcast/internal/meeting"
	"github.com/spf13/cobra"
)

// SearchSimilarity is the lowest title similarity shown by list --search.
const SearchSimilarity = 0.75

func NewListCmd(deps *Dependencies) *cobra.Command {
	var search string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List meetings with a video, and their run index",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := deps.App()
			if err != nil {
				return err
			}

			records, err := app.FetchMeetings(cmd.Context())
			if err != nil {
				return err
			}

			matches := meeting.Search(records, search, SearchSimilarity)
			if len(matches) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No meetings found")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "INDEX\tDATE\tTIME\tTITLE\tARTIFACTS\tUPLOADED")
			for _, match := range matches {
				uploaded := "-"
				if uploads, err := app.UploadsForMeeting(match.Record); err == nil && len(uploads) > 0 {
					uploaded = uploads[0].VideoID
				}

				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n", match.Index, match.Record.Date, match.Record.Time, match.Record.Title, artifacts(match.Record), uploaded)
			}

			return w.Flush()
		},
	}

	cmd.Flags().StringVarP(&search, "search", "s", "", "only show meetings whose title resembles this query")
	return cmd
}

func artifacts(record meeting.Record) string {
	kinds := []string{meeting.KindVideo}
	if record.AgendaURL != "" {
		kinds = append(kinds, meeting.KindAgenda)
	}
	if record.MinutesURL != "" {
		kinds = append(kinds, meeting.KindMinutes)
	}

	return strings.Join(kinds, ",")
}
