package services

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"alfredoptarigan/recruit-dashboard/internal/apperrors"
	"alfredoptarigan/recruit-dashboard/internal/logger"
	"alfredoptarigan/recruit-dashboard/internal/models"
	"alfredoptarigan/recruit-dashboard/internal/repositories"
)

const maxPageSize = 100

type CandidateService interface {
	List(ctx context.Context, page, limit int) (*models.CandidateListResponse, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Candidate, error)
	Create(ctx context.Context, data models.CandidateData) (*models.Candidate, error)
	Update(ctx context.Context, id uuid.UUID, data models.CandidateData) (*models.Candidate, error)
	Delete(ctx context.Context, id uuid.UUID) error
	SearchSimilar(ctx context.Context, query string, limit int) ([]models.SimilarCandidate, error)
}

type candidateService struct {
	candidates repositories.CandidateRepository
	indexer    CandidateIndexer
	log        *zap.Logger
}

func NewCandidateService(candidates repositories.CandidateRepository, indexer CandidateIndexer, log *zap.Logger) CandidateService {
	if indexer == nil {
		indexer = NewNoopIndexer()
	}
	return &candidateService{
		candidates: candidates,
		indexer:    indexer,
		log:        logger.OrNop(log).Named("candidates"),
	}
}

func (s *candidateService) List(ctx context.Context, page, limit int) (*models.CandidateListResponse, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	items, total, err := s.candidates.List(ctx, page, limit)
	if err != nil {
		return nil, apperrors.NewInternalError("Failed to fetch candidates", err)
	}

	return &models.CandidateListResponse{
		Candidates: items,
		Total:      total,
		Page:       page,
		Limit:      limit,
	}, nil
}

func (s *candidateService) Get(ctx context.Context, id uuid.UUID) (*models.Candidate, error) {
	candidate, err := s.candidates.FindByID(ctx, id)
	if err != nil {
		return nil, candidateLookupError(err)
	}
	return candidate, nil
}

func (s *candidateService) Create(ctx context.Context, data models.CandidateData) (*models.Candidate, error) {
	candidate := models.NewCandidate(data)
	if err := s.candidates.Create(ctx, candidate); err != nil {
		return nil, apperrors.NewInternalError("Failed to create candidate", err)
	}

	s.indexer.Enqueue(candidate.ID)
	return candidate, nil
}

// Update overwrites the whole record, like a replace resolution.
func (s *candidateService) Update(ctx context.Context, id uuid.UUID, data models.CandidateData) (*models.Candidate, error) {
	candidate, err := s.candidates.FindByID(ctx, id)
	if err != nil {
		return nil, candidateLookupError(err)
	}

	candidate.Replace(data)
	if err := s.candidates.Save(ctx, candidate); err != nil {
		return nil, apperrors.NewInternalError("Failed to update candidate", err)
	}

	s.indexer.Enqueue(candidate.ID)
	return candidate, nil
}

// Delete removes the candidate, its CV uploads and its index entries.
func (s *candidateService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.candidates.Delete(ctx, id); err != nil {
		return candidateLookupError(err)
	}

	if err := s.indexer.Remove(ctx, id); err != nil {
		s.log.Warn("failed to remove candidate from index",
			zap.String(logger.FieldCandidateID, id.String()),
			zap.Error(err))
	}
	return nil
}

func (s *candidateService) SearchSimilar(ctx context.Context, query string, limit int) ([]models.SimilarCandidate, error) {
	if query == "" {
		return nil, apperrors.NewValidationError("Missing query")
	}

	results, err := s.indexer.SearchSimilar(ctx, query, limit)
	if err != nil {
		if errors.Is(err, ErrIndexDisabled) {
			return nil, apperrors.NewUnavailableError("Candidate search is not configured", err)
		}
		return nil, apperrors.NewInternalError("Failed to search candidates", err)
	}
	return results, nil
}

func candidateLookupError(err error) error {
	if errors.Is(err, repositories.ErrNotFound) {
		return apperrors.NewNotFoundError("Candidate not found")
	}
	return apperrors.NewInternalError("Failed to load candidate", err)
}
