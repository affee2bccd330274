package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"alfredoptarigan/recruit-dashboard/internal/app"
	"alfredoptarigan/recruit-dashboard/internal/models"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve <ingest-result.json>",
	Short: "Apply one resolution mode to every duplicate of an ingest result",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		modeFlag, _ := cmd.Flags().GetString("mode")
		mode := models.ResolutionMode(modeFlag)
		switch mode {
		case models.ModeMerge, models.ModeReplace, models.ModeCreateNew:
		default:
			return fmt.Errorf("unknown mode %q, expected merge, replace or create_new", modeFlag)
		}

		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", args[0], err)
		}
		var result models.IngestionResult
		if err := json.Unmarshal(data, &result); err != nil {
			return fmt.Errorf("failed to parse %s: %w", args[0], err)
		}

		items := resolutionItems(result.Duplicates, mode)
		if len(items) == 0 {
			return printJSON(cmd.OutOrStdout(), []models.ResolutionResult{})
		}

		return withContainer(cmd, func(ctx context.Context, c *app.Container, log *zap.Logger) error {
			results := c.Resolver.Resolve(ctx, items)
			log.Info("duplicates resolved", zap.String("mode", modeFlag), zap.Int("count", len(results)))
			return printJSON(cmd.OutOrStdout(), results)
		})
	},
}

func init() {
	rootCmd.AddCommand(resolveCmd)

	resolveCmd.Flags().StringP("mode", "m", string(models.ModeMerge), "merge, replace or create_new")
}

func resolutionItems(duplicates []models.DuplicateItem, mode models.ResolutionMode) []models.ResolutionItem {
	items := make([]models.ResolutionItem, 0, len(duplicates))
	for _, d := range duplicates {
		items = append(items, models.ResolutionItem{
			ExistingCVID: d.ExistingCVID.String(),
			NewData:      d.NewData,
			Mode:         mode,
		})
	}
	return items
}
