package repositories

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"alfredoptarigan/recruit-dashboard/internal/models"
)

type CVUploadRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.CVUpload, error)
	FindByHash(ctx context.Context, hash string) (*models.CVUpload, error)
	FindByCandidateEmail(ctx context.Context, email string) (*models.CVUpload, error)
	FindLatestProcessed(ctx context.Context, candidateID uuid.UUID) (*models.CVUpload, error)
	ListFileURLs(ctx context.Context) ([]string, error)
}

type cvUploadRepository struct {
	db *gorm.DB
}

func NewCVUploadRepository(db *gorm.DB) CVUploadRepository {
	return &cvUploadRepository{db: db}
}

// FindByID implements CVUploadRepository. The owning candidate is preloaded
// and is nil when it no longer exists.
func (r *cvUploadRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.CVUpload, error) {
	var upload models.CVUpload
	err := r.db.WithContext(ctx).
		Preload("Candidate").
		Where("id = ?", id).
		First(&upload).Error
	if err != nil {
		if notFound(err) {
			return nil, fmt.Errorf("cv upload not found: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to find cv upload: %w", err)
	}

	return &upload, nil
}

// FindByHash implements CVUploadRepository. An empty hash never matches, so
// uploads created without a fingerprint are not treated as duplicates.
func (r *cvUploadRepository) FindByHash(ctx context.Context, hash string) (*models.CVUpload, error) {
	if hash == "" {
		return nil, fmt.Errorf("cv upload not found: %w", ErrNotFound)
	}

	var upload models.CVUpload
	err := r.db.WithContext(ctx).
		Preload("Candidate").
		Where("hash = ?", hash).
		Order("created_at DESC").
		First(&upload).Error
	if err != nil {
		if notFound(err) {
			return nil, fmt.Errorf("cv upload not found: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to find cv upload by hash: %w", err)
	}

	return &upload, nil
}

// FindByCandidateEmail implements CVUploadRepository.
func (r *cvUploadRepository) FindByCandidateEmail(ctx context.Context, email string) (*models.CVUpload, error) {
	if email == "" {
		return nil, fmt.Errorf("cv upload not found: %w", ErrNotFound)
	}

	var upload models.CVUpload
	err := r.db.WithContext(ctx).
		Preload("Candidate").
		Joins("JOIN candidates ON candidates.id = cv_uploads.candidate_id").
		Where("candidates.email = ?", email).
		Order("cv_uploads.created_at DESC").
		First(&upload).Error
	if err != nil {
		if notFound(err) {
			return nil, fmt.Errorf("cv upload not found: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to find cv upload by email: %w", err)
	}

	return &upload, nil
}

// FindLatestProcessed implements CVUploadRepository.
func (r *cvUploadRepository) FindLatestProcessed(ctx context.Context, candidateID uuid.UUID) (*models.CVUpload, error) {
	var upload models.CVUpload
	err := r.db.WithContext(ctx).
		Where("candidate_id = ? AND status = ?", candidateID, models.CVStatusProcessed).
		Order("created_at DESC").
		First(&upload).Error
	if err != nil {
		if notFound(err) {
			return nil, fmt.Errorf("cv upload not found: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to find latest cv upload: %w", err)
	}

	return &upload, nil
}

// ListFileURLs returns every distinct file_url still referenced by an upload.
func (r *cvUploadRepository) ListFileURLs(ctx context.Context) ([]string, error) {
	var urls []string
	err := r.db.WithContext(ctx).
		Model(&models.CVUpload{}).
		Distinct("file_url").
		Pluck("file_url", &urls).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list cv file urls: %w", err)
	}

	return urls, nil
}
