package main

import (
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/zulandar/isotrack/internal/impact"
	"github.com/zulandar/isotrack/internal/models"
)

func newImpactsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "impacts",
		Short: "Impact review commands",
	}

	cmd.AddCommand(newImpactsListCmd())
	cmd.AddCommand(newImpactsApproveCmd())
	cmd.AddCommand(newImpactsRejectCmd())
	return cmd
}

func newImpactsListCmd() *cobra.Command {
	var (
		configPath string
		project    string
		revisionID uint
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List impacts pending review",
		Long:  "Lists the project's pending impacts, or every impact of one revision with --revision.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImpactsList(cmd, configPath, project, revisionID)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to isotrack config file")
	cmd.Flags().StringVar(&project, "project", "", "project id (defaults to the config project)")
	cmd.Flags().UintVar(&revisionID, "revision", 0, "list every impact of this revision id")
	return cmd
}

func runImpactsList(cmd *cobra.Command, configPath, project string, revisionID uint) error {
	cfg, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}
	if project == "" {
		project = cfg.Project
	}

	var impacts []models.Impact
	if revisionID > 0 {
		impacts, err = impact.ListByRevision(gormDB, revisionID)
	} else {
		impacts, err = impact.ListPending(gormDB, project)
	}
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(impacts) == 0 {
		fmt.Fprintln(out, "No impacts found.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tREVISION\tENTITY\tKEY\tCHANGE\tSTATUS\tFIELDS")
	for _, imp := range impacts {
		fmt.Fprintf(w, "%d\t%d\t%s\t%s\t%s\t%s\t%s\n",
			imp.ID, imp.RevisionID, imp.EntityType, imp.EntityKey, imp.ChangeKind, imp.Status, describeChanges(imp))
	}
	w.Flush()
	return nil
}

// describeChanges renders a MODIFIED payload as "field: before -> after".
func describeChanges(imp models.Impact) string {
	changes, err := imp.FieldChanges()
	if err != nil || len(changes) == 0 {
		return "-"
	}
	parts := make([]string, 0, len(changes))
	for _, c := range changes {
		parts = append(parts, fmt.Sprintf("%s: %s -> %s", c.Field, dash(c.Before), dash(c.After)))
	}
	return strings.Join(parts, "; ")
}

func newImpactsApproveCmd() *cobra.Command {
	var (
		configPath string
		reviewer   string
	)

	cmd := &cobra.Command{
		Use:   "approve <id>",
		Short: "Approve a pending impact",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImpactReview(cmd, args[0], func(id uint) (*models.Impact, error) {
				_, gormDB, err := connectFromConfig(configPath)
				if err != nil {
					return nil, err
				}
				return impact.Approve(gormDB, id, reviewer)
			})
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to isotrack config file")
	cmd.Flags().StringVar(&reviewer, "reviewer", "", "name recorded as the reviewer")
	return cmd
}

func newImpactsRejectCmd() *cobra.Command {
	var (
		configPath string
		reviewer   string
		reason     string
	)

	cmd := &cobra.Command{
		Use:   "reject <id>",
		Short: "Reject a pending impact",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImpactReview(cmd, args[0], func(id uint) (*models.Impact, error) {
				_, gormDB, err := connectFromConfig(configPath)
				if err != nil {
					return nil, err
				}
				return impact.Reject(gormDB, id, reason, reviewer)
			})
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to isotrack config file")
	cmd.Flags().StringVar(&reviewer, "reviewer", "", "name recorded as the reviewer")
	cmd.Flags().StringVar(&reason, "reason", "", "why the impact is rejected (required)")
	return cmd
}

func runImpactReview(cmd *cobra.Command, rawID string, review func(id uint) (*models.Impact, error)) error {
	id, err := strconv.ParseUint(rawID, 10, 64)
	if err != nil || id == 0 {
		return fmt.Errorf("invalid impact id %q", rawID)
	}
	imp, err := review(uint(id))
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Impact %d (%s %s %s) is now %s\n",
		imp.ID, imp.EntityType, imp.EntityKey, imp.ChangeKind, imp.Status)
	return nil
}
