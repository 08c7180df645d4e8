package cli

import (
	"fmt"

	"github.com/fmueller/jabcount/internal/version"
	"github.com/spf13/cobra"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version and build information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			info := version.Current()
			fmt.Fprintf(cmd.OutOrStdout(), "jabcount v%s\n", info.Version)
			if info.Revision != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "revision: %s\n", info.Revision)
			}
			if info.BuildTime != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "built:    %s\n", info.BuildTime)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "go:       %s\n", info.GoVersion)
			return nil
		},
	}
}
