package services

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"alfredoptarigan/recruit-dashboard/internal/apperrors"
	"alfredoptarigan/recruit-dashboard/internal/models"
	"alfredoptarigan/recruit-dashboard/internal/repositories"
)

type JobInput struct {
	Title        string `json:"title"`
	Description  string `json:"description"`
	Requirements string `json:"requirements"`
}

type JobService interface {
	List(ctx context.Context) ([]models.Job, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Job, error)
	Create(ctx context.Context, input JobInput) (*models.Job, error)
	Update(ctx context.Context, id uuid.UUID, input JobInput) (*models.Job, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type jobService struct {
	jobs repositories.JobRepository
}

func NewJobService(jobs repositories.JobRepository) JobService {
	return &jobService{jobs: jobs}
}

func (s *jobService) List(ctx context.Context) ([]models.Job, error) {
	jobs, err := s.jobs.FindAll(ctx)
	if err != nil {
		return nil, apperrors.NewInternalError("Failed to fetch jobs", err)
	}
	if jobs == nil {
		jobs = []models.Job{}
	}
	return jobs, nil
}

func (s *jobService) Get(ctx context.Context, id uuid.UUID) (*models.Job, error) {
	job, err := s.jobs.FindByID(ctx, id)
	if err != nil {
		return nil, jobLookupError(id, err)
	}
	return job, nil
}

func (s *jobService) Create(ctx context.Context, input JobInput) (*models.Job, error) {
	if strings.TrimSpace(input.Title) == "" {
		return nil, apperrors.NewValidationError("Missing title")
	}

	job := &models.Job{
		Title:        strings.TrimSpace(input.Title),
		Description:  input.Description,
		Requirements: input.Requirements,
	}
	if err := s.jobs.Create(ctx, job); err != nil {
		return nil, apperrors.NewInternalError("Failed to create job", err)
	}
	return job, nil
}

func (s *jobService) Update(ctx context.Context, id uuid.UUID, input JobInput) (*models.Job, error) {
	if strings.TrimSpace(input.Title) == "" {
		return nil, apperrors.NewValidationError("Missing title")
	}

	job, err := s.jobs.FindByID(ctx, id)
	if err != nil {
		return nil, jobLookupError(id, err)
	}

	job.Title = strings.TrimSpace(input.Title)
	job.Description = input.Description
	job.Requirements = input.Requirements
	if err := s.jobs.Save(ctx, job); err != nil {
		return nil, apperrors.NewInternalError("Failed to update job", err)
	}
	return job, nil
}

func (s *jobService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.jobs.Delete(ctx, id); err != nil {
		return jobLookupError(id, err)
	}
	return nil
}

func jobLookupError(id uuid.UUID, err error) error {
	if errors.Is(err, repositories.ErrNotFound) {
		return apperrors.NewJobNotFoundError(id.String())
	}
	return apperrors.NewInternalError("Failed to load job", err)
}
