package repositories

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"alfredoptarigan/recruit-dashboard/internal/models"
)

type CandidateRepository interface {
	Create(ctx context.Context, candidate *models.Candidate) error
	CreateWithUpload(ctx context.Context, candidate *models.Candidate, upload *models.CVUpload) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Candidate, error)
	List(ctx context.Context, page, limit int) ([]models.CandidateListItem, int64, error)
	Save(ctx context.Context, candidate *models.Candidate) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type candidateRepository struct {
	db *gorm.DB
}

func NewCandidateRepository(db *gorm.DB) CandidateRepository {
	return &candidateRepository{db: db}
}

func (r *candidateRepository) Create(ctx context.Context, candidate *models.Candidate) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(candidate).Error; err != nil {
		return fmt.Errorf("failed to create candidate: %w", err)
	}
	return nil
}

// CreateWithUpload inserts the candidate and its CV upload atomically; the
// upload is linked to the new candidate id.
func (r *candidateRepository) CreateWithUpload(ctx context.Context, candidate *models.Candidate, upload *models.CVUpload) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if candidate.ID == uuid.Nil {
			candidate.ID = uuid.New()
		}
		if err := tx.Omit(clause.Associations).Create(candidate).Error; err != nil {
			return fmt.Errorf("failed to create candidate: %w", err)
		}

		upload.CandidateID = candidate.ID
		if upload.ID == uuid.Nil {
			upload.ID = uuid.New()
		}
		if err := tx.Omit(clause.Associations).Create(upload).Error; err != nil {
			return fmt.Errorf("failed to create cv upload: %w", err)
		}
		return nil
	})
}

func (r *candidateRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Candidate, error) {
	var candidate models.Candidate
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&candidate).Error; err != nil {
		if notFound(err) {
			return nil, fmt.Errorf("candidate not found: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to find candidate: %w", err)
	}
	return &candidate, nil
}

// List returns one page of candidates, each with the file URL of its most
// recent processed CV.
func (r *candidateRepository) List(ctx context.Context, page, limit int) ([]models.CandidateListItem, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}

	var total int64
	if err := r.db.WithContext(ctx).Model(&models.Candidate{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count candidates: %w", err)
	}

	var candidates []models.Candidate
	err := r.db.WithContext(ctx).
		Preload("CVUploads", func(db *gorm.DB) *gorm.DB {
			return db.Where("status = ?", models.CVStatusProcessed).Order("created_at DESC")
		}).
		Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&candidates).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list candidates: %w", err)
	}

	items := make([]models.CandidateListItem, 0, len(candidates))
	for _, c := range candidates {
		item := models.CandidateListItem{Candidate: c}
		if len(c.CVUploads) > 0 {
			url := c.CVUploads[0].FileURL
			item.FileURL = &url
		}
		items = append(items, item)
	}

	return items, total, nil
}

// Save writes every column of the candidate, including nulls.
func (r *candidateRepository) Save(ctx context.Context, candidate *models.Candidate) error {
	result := r.db.WithContext(ctx).Omit(clause.Associations).Save(candidate)
	if result.Error != nil {
		return fmt.Errorf("failed to update candidate: %w", result.Error)
	}
	return nil
}

// Delete removes the candidate together with its CV uploads.
func (r *candidateRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("candidate_id = ?", id).Delete(&models.CVUpload{}).Error; err != nil {
			return fmt.Errorf("failed to delete cv uploads: %w", err)
		}

		result := tx.Where("id = ?", id).Delete(&models.Candidate{})
		if result.Error != nil {
			return fmt.Errorf("failed to delete candidate: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("candidate not found: %w", ErrNotFound)
		}
		return nil
	})
}
