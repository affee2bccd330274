package services

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"alfredoptarigan/recruit-dashboard/internal/logger"
	"alfredoptarigan/recruit-dashboard/internal/models"
	"alfredoptarigan/recruit-dashboard/internal/repositories"
)

const (
	msgExistingNotFound = "Existing CV or candidate not found"
	msgInvalidMode      = "Invalid mode"
)

type ResolverService interface {
	Resolve(ctx context.Context, items []models.ResolutionItem) []models.ResolutionResult
}

type ResolverDeps struct {
	Candidates repositories.CandidateRepository
	Uploads    repositories.CVUploadRepository
	Publisher  EventPublisher
	Indexer    CandidateIndexer
}

type resolverService struct {
	deps ResolverDeps
	log  *zap.Logger
}

func NewResolverService(deps ResolverDeps, log *zap.Logger) ResolverService {
	if deps.Publisher == nil {
		deps.Publisher = NewNoopPublisher()
	}
	if deps.Indexer == nil {
		deps.Indexer = NewNoopIndexer()
	}
	return &resolverService{deps: deps, log: logger.OrNop(log).Named("resolver")}
}

// Resolve implements ResolverService. Items are applied in order and
// independently; every item yields exactly one result.
func (r *resolverService) Resolve(ctx context.Context, items []models.ResolutionItem) []models.ResolutionResult {
	results := make([]models.ResolutionResult, 0, len(items))

	for _, item := range items {
		res := r.resolveItem(ctx, item)

		log := r.log.With(
			zap.String(logger.FieldCVUploadID, item.ExistingCVID),
			zap.String("mode", string(item.Mode)),
			zap.String("status", string(res.Status)))
		if res.Status == models.ResolutionError {
			log.Warn("duplicate resolution failed", zap.String("message", res.Message))
		} else {
			log.Info("duplicate resolved")
		}

		CVResolutions.WithLabelValues(resolutionModeLabel(item.Mode), string(res.Status)).Inc()
		results = append(results, res)
	}

	return results
}

// resolutionModeLabel keeps the metric's mode label to a fixed set.
func resolutionModeLabel(mode models.ResolutionMode) string {
	switch mode {
	case models.ModeMerge, models.ModeReplace, models.ModeCreateNew:
		return string(mode)
	default:
		return "invalid"
	}
}

func (r *resolverService) resolveItem(ctx context.Context, item models.ResolutionItem) models.ResolutionResult {
	res := models.ResolutionResult{ExistingCVID: item.ExistingCVID}
	failed := func(message string) models.ResolutionResult {
		res.Status = models.ResolutionError
		res.Message = message
		return res
	}

	id, err := uuid.Parse(item.ExistingCVID)
	if err != nil {
		return failed(msgExistingNotFound)
	}

	existing, err := r.deps.Uploads.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return failed(msgExistingNotFound)
		}
		return failed(err.Error())
	}
	if existing.Candidate == nil {
		return failed(msgExistingNotFound)
	}

	candidate := existing.Candidate
	affected := candidate.ID

	switch item.Mode {
	case models.ModeMerge:
		candidate.Merge(item.NewData)
		if err := r.deps.Candidates.Save(ctx, candidate); err != nil {
			return failed(err.Error())
		}
		res.Status = models.ResolutionMerged

	case models.ModeReplace:
		candidate.Replace(item.NewData)
		if err := r.deps.Candidates.Save(ctx, candidate); err != nil {
			return failed(err.Error())
		}
		res.Status = models.ResolutionReplaced

	case models.ModeCreateNew:
		created := models.NewCandidate(item.NewData)
		upload := &models.CVUpload{
			JobID:   existing.JobID,
			FileURL: existing.FileURL,
			Hash:    "",
			Status:  models.CVStatusProcessed,
		}
		if err := r.deps.Candidates.CreateWithUpload(ctx, created, upload); err != nil {
			return failed(err.Error())
		}
		res.Status = models.ResolutionCreatedNew
		res.NewCandidateID = &created.ID
		affected = created.ID

	default:
		return failed(msgInvalidMode)
	}

	publishBestEffort(ctx, r.deps.Publisher, r.log, Event{
		Type:        EventDuplicateResolved,
		CandidateID: &affected,
		CVUploadID:  &existing.ID,
		JobID:       &existing.JobID,
		Status:      string(res.Status),
	})
	r.deps.Indexer.Enqueue(affected)

	return res
}
