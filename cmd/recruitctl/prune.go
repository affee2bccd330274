package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"alfredoptarigan/recruit-dashboard/internal/app"
	"alfredoptarigan/recruit-dashboard/internal/services"
)

var pruneCmd = &cobra.Command{
	Use:   "prune-uploads",
	Short: "Delete stored CV files that no upload record refers to",
	Long: "Files kept for duplicates that were never resolved, or left behind by failed extractions, " +
		"stay in the upload directory. prune-uploads removes those older than --min-age.",
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		minAge, _ := cmd.Flags().GetDuration("min-age")
		dryRun, _ := cmd.Flags().GetBool("dry-run")

		return withContainer(cmd, func(ctx context.Context, c *app.Container, log *zap.Logger) error {
			report, err := services.PruneUploads(ctx, c.Storage, c.Uploads, minAge, dryRun, log)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), report)
		})
	},
}

func init() {
	rootCmd.AddCommand(pruneCmd)

	pruneCmd.Flags().Duration("min-age", 7*24*time.Hour, "only delete files older than this")
	pruneCmd.Flags().Bool("dry-run", false, "list the files that would be deleted")
}
