package cli

import (
	"fmt"
	"io"

	"github.com/fmueller/jabcount/internal/match"
	"github.com/spf13/cobra"
)

func newScanCmd(app *appState) *cobra.Command {
	return &cobra.Command{
		Use:   "scan <text>...",
		Short: "Print the matches found in each text without counting",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			scanner := match.NewScanner()
			for _, text := range args {
				printMatches(cmd.OutOrStdout(), text, scanner.Scan(text, app.cfg.Threshold))
			}
			return nil
		},
	}
}

func printMatches(w io.Writer, text string, matches []match.Match) {
	fmt.Fprintf(w, "%q: %d match(es)\n", text, len(matches))
	for _, m := range matches {
		entry := m.Entry
		if entry == "" {
			entry = "-"
		}
		fmt.Fprintf(w, "  %-7s %-12s %-10s %.2f", m.Method, m.Text, entry, m.Confidence)
		if m.HasSpan() {
			fmt.Fprintf(w, " [%d,%d)", m.Span.Start, m.Span.End)
		}
		fmt.Fprintln(w)
	}
}
