package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version info set via ldflags at build time.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// defaultConfigPath is the config file every command reads unless -c is given.
const defaultConfigPath = "isotrack.yaml"

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "isotrack",
		Short:        "Isotrack: isometric revisions and change impacts",
		Long:         "Isotrack tracks client revisions of piping isometrics, imports their fabrication detail and records what changed between revisions for review.",
		SilenceUsage: true,
	}

	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newDBCmd())
	cmd.AddCommand(newAnnounceCmd())
	cmd.AddCommand(newImportCmd())
	cmd.AddCommand(newIsoCmd())
	cmd.AddCommand(newImpactsCmd())
	cmd.AddCommand(newServeCmd())
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "isotrack %s (commit: %s, built: %s)\n", Version, Commit, Date)
		},
	}
}

func execute(cmd *cobra.Command) int {
	if err := cmd.Execute(); err != nil {
		return 1
	}
	return 0
}

func main() {
	os.Exit(execute(newRootCmd()))
}
