package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/zulandar/isotrack/internal/models"
	"github.com/zulandar/isotrack/internal/revision"
)

func newIsoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "iso",
		Short: "Isometric inspection commands",
	}

	cmd.AddCommand(newIsoListCmd())
	cmd.AddCommand(newIsoShowCmd())
	return cmd
}

func newIsoListCmd() *cobra.Command {
	var (
		configPath string
		project    string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List isometrics and their current revision",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIsoList(cmd, configPath, project)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to isotrack config file")
	cmd.Flags().StringVar(&project, "project", "", "project id (defaults to the config project)")
	return cmd
}

func runIsoList(cmd *cobra.Command, configPath, project string) error {
	cfg, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}
	if project == "" {
		project = cfg.Project
	}

	isos, err := revision.ListIsometrics(gormDB, project)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(isos) == 0 {
		fmt.Fprintln(out, "No isometrics found.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "CODE\tLINE\tAREA\tCURRENT\tREVISIONS")
	for _, iso := range isos {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\n",
			iso.Code, dash(iso.LineNumber), dash(iso.Area), currentCode(iso.Revisions), len(iso.Revisions))
	}
	w.Flush()
	return nil
}

func newIsoShowCmd() *cobra.Command {
	var (
		configPath string
		project    string
	)

	cmd := &cobra.Command{
		Use:   "show <code>",
		Short: "Show an isometric with its revisions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIsoShow(cmd, configPath, project, args[0])
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to isotrack config file")
	cmd.Flags().StringVar(&project, "project", "", "project id (defaults to the config project)")
	return cmd
}

func runIsoShow(cmd *cobra.Command, configPath, project, code string) error {
	cfg, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}
	if project == "" {
		project = cfg.Project
	}

	found, err := revision.FindIsometric(gormDB, project, code)
	if err != nil {
		return err
	}
	iso, err := revision.GetIsometric(gormDB, found.ID)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Isometric:  %s\n", iso.Code)
	fmt.Fprintf(out, "Project:    %s\n", iso.ProjectID)
	fmt.Fprintf(out, "Line:       %s\n", dash(iso.LineNumber))
	fmt.Fprintf(out, "Area:       %s / %s\n", dash(iso.Area), dash(iso.SubArea))
	fmt.Fprintf(out, "Line type:  %s\n", dash(iso.LineType))
	fmt.Fprintln(out)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tREV\tSTATUS\tEMITTED\tTRANSMITTAL\tSPOOLING")
	for _, r := range iso.Revisions {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n",
			r.ID, r.Code, r.Status, r.EmissionDate.Format("2006-01-02"), dash(r.TransmittalNumber), r.SpoolingStatus)
	}
	w.Flush()
	return nil
}

// currentCode returns the code of the CURRENT revision, or "-".
func currentCode(revs []models.Revision) string {
	for _, r := range revs {
		if r.Status == models.RevisionCurrent {
			return r.Code
		}
	}
	return "-"
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
