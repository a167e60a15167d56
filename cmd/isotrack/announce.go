package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/zulandar/isotrack/internal/rows"
)

func newAnnounceCmd() *cobra.Command {
	var (
		configPath string
		project    string
	)

	cmd := &cobra.Command{
		Use:   "announce <file>",
		Short: "Apply a revision announcement",
		Long: `Reads a YAML or JSON list of announcement rows and registers the
isometrics and revisions they declare. Existing revisions are skipped and
reported; the highest revision of each isometric becomes current.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnnounce(cmd, configPath, project, args[0])
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to isotrack config file")
	cmd.Flags().StringVar(&project, "project", "", "project id (defaults to the config project)")
	return cmd
}

func runAnnounce(cmd *cobra.Command, configPath, project, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	raw, err := rows.Decode(data)
	if err != nil {
		return err
	}

	a, err := newApp(configPath)
	if err != nil {
		return err
	}
	defer a.Close()

	projectID, err := a.project(project)
	if err != nil {
		return err
	}

	res, err := a.announcer.Process(context.Background(), projectID, rows.NormalizeAnnouncements(raw))
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, d := range res.Details {
		fmt.Fprintf(out, "  %s\n", d)
	}
	fmt.Fprintf(out, "Processed %d revisions, %d errors\n", res.Processed, res.Errors)
	return nil
}
