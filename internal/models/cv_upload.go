package models

import (
	"time"

	"github.com/google/uuid"
)

const CVStatusProcessed = "processed"

type CVUpload struct {
	ID          uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	CandidateID uuid.UUID `gorm:"type:uuid;not null;index" json:"candidate_id"`
	JobID       uuid.UUID `gorm:"type:uuid;not null;index" json:"job_id"`
	FileURL     string    `gorm:"type:text;not null" json:"file_url"`
	Hash        string    `gorm:"type:text;index" json:"hash"`
	Status      string    `gorm:"type:text;not null;default:'processed'" json:"status"`
	CreatedAt   time.Time `gorm:"type:timestamp;default:now()" json:"created_at"`

	// Relations
	Candidate *Candidate `gorm:"foreignKey:CandidateID;constraint:OnDelete:CASCADE" json:"candidate,omitempty"`
	Job       *Job       `gorm:"foreignKey:JobID" json:"-"`
}

func (CVUpload) TableName() string {
	return "cv_uploads"
}

type Job struct {
	ID           uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	Title        string    `gorm:"type:text;not null" json:"title"`
	Description  string    `gorm:"type:text" json:"description"`
	Requirements string    `gorm:"type:text" json:"requirements"`
	CreatedAt    time.Time `gorm:"type:timestamp;default:now()" json:"created_at"`
	UpdatedAt    time.Time `gorm:"type:timestamp;default:now()" json:"updated_at"`
}

func (Job) TableName() string {
	return "jobs"
}
