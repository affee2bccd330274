package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"alfredoptarigan/recruit-dashboard/internal/logger"
	"alfredoptarigan/recruit-dashboard/internal/repositories"
)

type PruneReport struct {
	Scanned int      `json:"scanned"`
	Removed []string `json:"removed"`
	Failed  []string `json:"failed"`
}

// PruneUploads deletes stored files that no CV upload refers to. Files
// younger than minAge are skipped since an ingestion may still be about to
// record them. With dryRun set nothing is deleted and Removed lists what
// would be.
func PruneUploads(ctx context.Context, storage StorageService, uploads repositories.CVUploadRepository, minAge time.Duration, dryRun bool, log *zap.Logger) (*PruneReport, error) {
	log = logger.OrNop(log).Named("prune")

	urls, err := uploads.ListFileURLs(ctx)
	if err != nil {
		return nil, err
	}
	referenced := make(map[string]struct{}, len(urls))
	for _, url := range urls {
		referenced[strings.TrimPrefix(url, UploadURLPrefix)] = struct{}{}
	}

	files, err := storage.ListFiles()
	if err != nil {
		return nil, err
	}

	report := &PruneReport{Scanned: len(files), Removed: []string{}, Failed: []string{}}
	cutoff := time.Now().Add(-minAge)

	for _, f := range files {
		if _, ok := referenced[f.Filename]; ok || f.ModTime.After(cutoff) {
			continue
		}

		if dryRun {
			report.Removed = append(report.Removed, f.Filename)
			continue
		}

		if err := storage.DeleteFile(f.Filename); err != nil {
			log.Warn("failed to delete orphaned file", zap.String(logger.FieldFileName, f.Filename), zap.Error(err))
			report.Failed = append(report.Failed, f.Filename)
			continue
		}
		report.Removed = append(report.Removed, f.Filename)
	}

	log.Info("upload prune finished",
		zap.Int("scanned", report.Scanned),
		zap.Int("removed", len(report.Removed)),
		zap.Int("failed", len(report.Failed)),
		zap.Bool("dry_run", dryRun))

	if err := ctx.Err(); err != nil {
		return report, fmt.Errorf("prune interrupted: %w", err)
	}
	return report, nil
}
