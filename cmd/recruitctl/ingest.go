package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"alfredoptarigan/recruit-dashboard/internal/app"
	"alfredoptarigan/recruit-dashboard/internal/logger"
	"alfredoptarigan/recruit-dashboard/internal/services"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <file-or-dir>...",
	Short: "Ingest CV files for a job and print the batch result as JSON",
	Long: "Ingest reads every given file, and every regular file directly inside a given directory, " +
		"and runs them through the same pipeline as POST /api/v1/cv/upload. " +
		"Duplicates in the output can be fed to the resolve command.",
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		jobID, _ := cmd.Flags().GetString("job")
		if jobID == "" {
			return fmt.Errorf("--job is required")
		}

		return withContainer(cmd, func(ctx context.Context, c *app.Container, log *zap.Logger) error {
			files, err := collectFiles(args, log)
			if err != nil {
				return err
			}
			log.Info("ingesting files", zap.String(logger.FieldJobID, jobID), zap.Int("count", len(files)))

			result, err := c.Ingestion.Ingest(ctx, jobID, files)
			if err != nil {
				return err
			}

			log.Info("ingestion finished",
				zap.Int("new", len(result.NewCVs)),
				zap.Int("duplicates", len(result.Duplicates)),
				zap.Int("errors", len(result.Errors)))

			return printJSON(cmd.OutOrStdout(), result)
		})
	},
}

func init() {
	rootCmd.AddCommand(ingestCmd)

	ingestCmd.Flags().StringP("job", "J", "", "id of the job the CVs are submitted to")
}

func collectFiles(paths []string, log *zap.Logger) ([]services.UploadedFile, error) {
	var names []string
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("failed to stat %s: %w", path, err)
		}
		if !info.IsDir() {
			names = append(names, path)
			continue
		}

		entries, err := os.ReadDir(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read directory %s: %w", path, err)
		}
		for _, entry := range entries {
			if entry.Type().IsRegular() {
				names = append(names, filepath.Join(path, entry.Name()))
			}
		}
	}
	sort.Strings(names)

	files := make([]services.UploadedFile, 0, len(names))
	for _, name := range names {
		content, err := os.ReadFile(name)
		if err != nil {
			log.Warn("skipping unreadable file", zap.String(logger.FieldFileName, name), zap.Error(err))
			continue
		}
		files = append(files, services.UploadedFile{Name: filepath.Base(name), Content: content})
	}
	return files, nil
}
