package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"alfredoptarigan/recruit-dashboard/internal/apperrors"
	"alfredoptarigan/recruit-dashboard/internal/logger"
	"alfredoptarigan/recruit-dashboard/internal/models"
	"alfredoptarigan/recruit-dashboard/internal/repositories"
)

const msgMissingJobOrFiles = "Missing job_id or files"

type UploadedFile struct {
	Name    string
	Content []byte
}

type IngestionService interface {
	Ingest(ctx context.Context, jobID string, files []UploadedFile) (*models.IngestionResult, error)
}

type IngestionDeps struct {
	Jobs       repositories.JobRepository
	Candidates repositories.CandidateRepository
	Uploads    repositories.CVUploadRepository
	Storage    StorageService
	Extractor  Extractor
	Publisher  EventPublisher
	Indexer    CandidateIndexer
}

type ingestionService struct {
	deps IngestionDeps
	log  *zap.Logger
}

func NewIngestionService(deps IngestionDeps, log *zap.Logger) IngestionService {
	if deps.Publisher == nil {
		deps.Publisher = NewNoopPublisher()
	}
	if deps.Indexer == nil {
		deps.Indexer = NewNoopIndexer()
	}
	return &ingestionService{deps: deps, log: logger.OrNop(log).Named("ingestion")}
}

// Ingest implements IngestionService. Request validation failures are
// returned as *apperrors.AppError before any file is touched; after that,
// every file ends up in exactly one of the result lists.
func (s *ingestionService) Ingest(ctx context.Context, jobID string, files []UploadedFile) (*models.IngestionResult, error) {
	jobID = strings.TrimSpace(jobID)
	if jobID == "" || len(files) == 0 {
		return nil, apperrors.NewValidationError(msgMissingJobOrFiles)
	}

	job, err := s.loadJob(ctx, jobID)
	if err != nil {
		return nil, err
	}

	log := s.log.With(zap.String(logger.FieldJobID, job.ID.String()))
	log.Info("ingesting cv batch", zap.Int("files", len(files)))

	result := models.NewIngestionResult()
	// Files are handled one at a time so that a file sees the uploads
	// committed for earlier files in the same batch.
	for _, file := range files {
		s.ingestFile(ctx, log, job, file, result)
	}

	log.Info("cv batch finished",
		zap.Int("ingested", len(result.NewCVs)),
		zap.Int("duplicates", len(result.Duplicates)),
		zap.Int("errors", len(result.Errors)))

	return result, nil
}

func (s *ingestionService) loadJob(ctx context.Context, jobID string) (*models.Job, error) {
	id, err := uuid.Parse(jobID)
	if err != nil {
		return nil, apperrors.NewJobNotFoundError(jobID)
	}

	job, err := s.deps.Jobs.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, apperrors.NewJobNotFoundError(jobID)
		}
		return nil, apperrors.NewInternalError("Failed to load job", err)
	}
	return job, nil
}

func (s *ingestionService) ingestFile(ctx context.Context, log *zap.Logger, job *models.Job, file UploadedFile, result *models.IngestionResult) {
	log = log.With(zap.String(logger.FieldFileName, file.Name))

	fail := func(err error) {
		log.Warn("cv file failed", zap.Error(err))
		result.Errors = append(result.Errors, models.FileError{FileName: file.Name, Message: err.Error()})
		CVFilesProcessed.WithLabelValues(outcomeFailed).Inc()
		publishBestEffort(ctx, s.deps.Publisher, log, Event{
			Type:     EventCVFailed,
			JobID:    &job.ID,
			FileName: file.Name,
			Message:  err.Error(),
		})
	}

	stored, err := s.deps.Storage.SaveFile(file.Content, file.Name)
	if err != nil {
		fail(err)
		return
	}
	hash := Fingerprint(file.Content)
	log = log.With(zap.String("hash", hash))

	data, err := s.extract(ctx, log, stored.Path, file.Name, job.Requirements)
	if err != nil {
		fail(err)
		return
	}

	existing, reason, err := s.findDuplicate(ctx, hash, data.Email)
	if err != nil {
		fail(err)
		return
	}

	if existing != nil {
		item := models.DuplicateItem{
			ExistingCVID:    existing.ID,
			FileName:        file.Name,
			DuplicateReason: reason,
			Existing:        models.ExistingCandidate{OldCVURL: existing.FileURL},
			NewData:         data,
		}
		if existing.Candidate != nil {
			item.Existing.Name = existing.Candidate.FullName
			item.Existing.Email = existing.Candidate.Email
		}
		result.Duplicates = append(result.Duplicates, item)

		log.Info("duplicate cv detected",
			zap.String("reason", string(reason)),
			zap.String(logger.FieldCVUploadID, existing.ID.String()))
		CVFilesProcessed.WithLabelValues(outcomeDuplicate).Inc()
		CVDuplicatesDetected.WithLabelValues(string(reason)).Inc()
		publishBestEffort(ctx, s.deps.Publisher, log, Event{
			Type:       EventDuplicateDetected,
			CVUploadID: &existing.ID,
			JobID:      &job.ID,
			FileName:   file.Name,
			Reason:     string(reason),
		})
		return
	}

	candidate := models.NewCandidate(data)
	upload := &models.CVUpload{
		JobID:   job.ID,
		FileURL: stored.URL,
		Hash:    hash,
		Status:  models.CVStatusProcessed,
	}
	if err := s.deps.Candidates.CreateWithUpload(ctx, candidate, upload); err != nil {
		fail(err)
		return
	}

	result.NewCVs = append(result.NewCVs, *candidate)

	log.Info("cv ingested",
		zap.String(logger.FieldCandidateID, candidate.ID.String()),
		zap.String(logger.FieldCVUploadID, upload.ID.String()))
	CVFilesProcessed.WithLabelValues(outcomeIngested).Inc()
	publishBestEffort(ctx, s.deps.Publisher, log, Event{
		Type:        EventCVIngested,
		CandidateID: &candidate.ID,
		CVUploadID:  &upload.ID,
		JobID:       &job.ID,
		FileName:    file.Name,
	})
	s.deps.Indexer.Enqueue(candidate.ID)
}

// extract runs both extraction calls on one remote document and always
// releases it before returning.
func (s *ingestionService) extract(ctx context.Context, log *zap.Logger, path, fileName, requirements string) (data models.CandidateData, err error) {
	start := time.Now()
	defer func() {
		outcome := "ok"
		if err != nil {
			outcome = "error"
		}
		CVExtractionDuration.WithLabelValues(outcome).Observe(time.Since(start).Seconds())
	}()

	doc, err := s.deps.Extractor.Open(ctx, path, fileName)
	if doc != nil {
		defer func() {
			if releaseErr := s.deps.Extractor.Release(context.WithoutCancel(ctx), doc); releaseErr != nil {
				log.Warn("failed to release remote document", zap.Error(releaseErr))
			}
		}()
	}
	if err != nil {
		return data, err
	}

	fields, err := s.deps.Extractor.ExtractFields(ctx, doc)
	if err != nil {
		return data, err
	}

	fit, err := s.deps.Extractor.ScoreFit(ctx, doc, requirements)
	if err != nil {
		return data, err
	}

	return ToCandidateData(fields, fit), nil
}

// findDuplicate reports a hash match before an email match. A blank email
// never matches.
func (s *ingestionService) findDuplicate(ctx context.Context, hash string, email *string) (*models.CVUpload, models.DuplicateReason, error) {
	upload, err := s.deps.Uploads.FindByHash(ctx, hash)
	if err == nil {
		return upload, models.DuplicateByHash, nil
	}
	if !errors.Is(err, repositories.ErrNotFound) {
		return nil, "", fmt.Errorf("duplicate check failed: %w", err)
	}

	if email == nil || strings.TrimSpace(*email) == "" {
		return nil, "", nil
	}

	upload, err = s.deps.Uploads.FindByCandidateEmail(ctx, strings.TrimSpace(*email))
	if err == nil {
		return upload, models.DuplicateByEmail, nil
	}
	if !errors.Is(err, repositories.ErrNotFound) {
		return nil, "", fmt.Errorf("duplicate check failed: %w", err)
	}

	return nil, "", nil
}
