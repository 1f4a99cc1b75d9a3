package cli

import (
	"fmt"

	"github.com/civicarchive/councilcast/internal"
	"github.com/spf13/cobra"
)

func NewRunCmd(deps *Dependencies) *cobra.Command {
	var (
		index           int
		privacy         string
		transcribe      bool
		useMeetingTitle bool
		keywords        string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Process and upload a single meeting",
		Long: "Downloads the meeting at --index (0 is the most recent meeting with a video) " +
			"and uploads it to YouTube. Omitted flags fall back to the configured run defaults.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := deps.Config.Run.Options()
			flags := cmd.Flags()
			if flags.Changed("index") {
				opts.Index = index
			}
			if flags.Changed("privacy") {
				opts.PrivacyStatus = privacy
			}
			if flags.Changed("transcribe") {
				opts.Transcribe = transcribe
			}
			if flags.Changed("meeting-title") {
				opts.UseMeetingTitle = useMeetingTitle
			}
			if flags.Changed("keywords") {
				opts.Keywords = keywords
			}

			app, err := deps.App()
			if err != nil {
				return err
			}

			result, err := app.Pipeline.ProcessMeeting(cmd.Context(), opts)
			if err != nil {
				return err
			}

			printResult(cmd, result)
			return nil
		},
	}

	cmd.Flags().IntVarP(&index, "index", "i", 0, "index of the meeting to process")
	cmd.Flags().StringVarP(&privacy, "privacy", "p", "unlisted", "privacy status: public, private or unlisted")
	cmd.Flags().BoolVarP(&transcribe, "transcribe", "t", false, "transcribe the video and include an excerpt in the description")
	cmd.Flags().BoolVar(&useMeetingTitle, "meeting-title", true, "use the scraped meeting title rather than a placeholder")
	cmd.Flags().StringVarP(&keywords, "keywords", "k", "", "comma separated video tags")

	return cmd
}

func printResult(cmd *cobra.Command, result *internal.Result) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Run:     %s\n", result.RunID)
	fmt.Fprintf(out, "Outcome: %s\n", result.Outcome)
	if result.Record != nil {
		fmt.Fprintf(out, "Meeting: %s\n", result.Record)
	}
	if result.Upload != nil {
		fmt.Fprintf(out, "Upload:  %d attempts, %d retries\n", result.Upload.Attempts, result.Upload.Retries)
	}
	fmt.Fprintln(out, result.Message())
}
