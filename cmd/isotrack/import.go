package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/zulandar/isotrack/internal/detail"
	"github.com/zulandar/isotrack/internal/rows"
)

func newImportCmd() *cobra.Command {
	var (
		configPath string
		project    string
		iso        string
		rev        string
	)

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import fabrication detail for a current revision",
		Long: `Reads a YAML or JSON document with bolted_joints, spools_welds and
material_take_off lists and attaches them to the isometric's current revision.
The --rev code must match the current revision exactly.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd, configPath, project, iso, rev, args[0])
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to isotrack config file")
	cmd.Flags().StringVar(&project, "project", "", "project id (defaults to the config project)")
	cmd.Flags().StringVar(&iso, "iso", "", "isometric code (required)")
	cmd.Flags().StringVar(&rev, "rev", "", "revision code of the detail file (required)")
	cmd.MarkFlagRequired("iso")
	cmd.MarkFlagRequired("rev")
	return cmd
}

func runImport(cmd *cobra.Command, configPath, project, iso, rev, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	d, err := rows.DecodeDetail(data)
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

	res, err := a.importer.Import(context.Background(), detail.Request{
		ProjectID:     projectID,
		IsometricCode: iso,
		RevisionCode:  rev,
		Detail:        d,
	})
	out := cmd.OutOrStdout()
	for _, w := range res.Warnings {
		fmt.Fprintf(out, "  warning: %s\n", w)
	}
	if err != nil {
		return err
	}

	fmt.Fprintln(out, res.Message)
	if res.ImpactsDetected {
		fmt.Fprintf(out, "%d impacts pending review (batch %s)\n", res.ImpactCount, res.BatchID)
	} else {
		fmt.Fprintln(out, "No impacts detected")
	}
	return nil
}
