package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"alfredoptarigan/recruit-dashboard/internal/app"
	"alfredoptarigan/recruit-dashboard/internal/logger"
	"alfredoptarigan/recruit-dashboard/internal/services"
)

const reindexPageSize = 100

var reindexCmd = &cobra.Command{
	Use:   "reindex",
	Short: "Rebuild the similarity index for every candidate",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withContainer(cmd, func(ctx context.Context, c *app.Container, log *zap.Logger) error {
			indexed, failed := 0, 0

			for page := 1; ; page++ {
				resp, err := c.Candidates.List(ctx, page, reindexPageSize)
				if err != nil {
					return err
				}

				for _, item := range resp.Candidates {
					err := c.Indexer.Index(ctx, item.ID)
					if errors.Is(err, services.ErrIndexDisabled) {
						return fmt.Errorf("QDRANT_URL is not set: %w", err)
					}
					if err != nil {
						failed++
						log.Error("failed to index candidate",
							zap.String(logger.FieldCandidateID, item.ID.String()),
							zap.Error(err))
						continue
					}
					indexed++
				}

				if len(resp.Candidates) < reindexPageSize {
					break
				}
			}

			log.Info("reindex finished", zap.Int("indexed", indexed), zap.Int("failed", failed))
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(reindexCmd)
}
