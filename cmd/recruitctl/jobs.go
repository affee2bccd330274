package main

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"alfredoptarigan/recruit-dashboard/internal/app"
	"alfredoptarigan/recruit-dashboard/internal/services"
)

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "Manage job postings",
}

var jobsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List job postings, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withContainer(cmd, func(ctx context.Context, c *app.Container, _ *zap.Logger) error {
			jobs, err := c.Jobs.List(ctx)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), jobs)
		})
	},
}

var jobsCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a job posting",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		var input services.JobInput
		input.Title, _ = cmd.Flags().GetString("title")
		input.Description, _ = cmd.Flags().GetString("description")
		input.Requirements, _ = cmd.Flags().GetString("requirements")

		return withContainer(cmd, func(ctx context.Context, c *app.Container, log *zap.Logger) error {
			job, err := c.Jobs.Create(ctx, input)
			if err != nil {
				return err
			}
			log.Info("job created", zap.String("id", job.ID.String()))
			return printJSON(cmd.OutOrStdout(), job)
		})
	},
}

func init() {
	rootCmd.AddCommand(jobsCmd)
	jobsCmd.AddCommand(jobsListCmd, jobsCreateCmd)

	jobsCreateCmd.Flags().StringP("title", "t", "", "job title")
	jobsCreateCmd.Flags().String("description", "", "job description")
	jobsCreateCmd.Flags().StringP("requirements", "r", "", "requirements used for fit scoring")
}
