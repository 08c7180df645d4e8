package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/fmueller/jabcount/internal/listen"
	"github.com/fmueller/jabcount/internal/session"
	"github.com/spf13/cobra"
)

func newFeedCmd(app *appState) *cobra.Command {
	return &cobra.Command{
		Use:   "feed [transcript-file]",
		Short: "Count detections in transcript lines read from a file or stdin",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var in io.Reader = cmd.InOrStdin()
			if len(args) == 1 && args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("open transcript file: %w", err)
				}
				defer f.Close()
				in = f
			}

			c, err := app.newCounter(cmd.Context(), "transcript feed")
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			loop := app.newLoop(c, listen.NewLineSource(in))
			loop.OnBatch = func(b listen.Batch) {
				if b.Result.Outcome == session.OutcomeAccepted {
					fmt.Fprintf(out, "%d\t+%d\t%s\n", b.Result.Total, b.Result.Added, b.Transcript)
				}
			}

			if err := app.run(cmd.Context(), c, loop); err != nil {
				return err
			}
			fmt.Fprintf(out, "total\t%d\n", c.session.Count())
			return nil
		},
	}
}
