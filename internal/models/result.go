package models

import (
	"github.com/google/uuid"
)

type DuplicateReason string

const (
	DuplicateByHash  DuplicateReason = "hash"
	DuplicateByEmail DuplicateReason = "email"
)

type ResolutionMode string

const (
	ModeMerge     ResolutionMode = "merge"
	ModeReplace   ResolutionMode = "replace"
	ModeCreateNew ResolutionMode = "create_new"
)

type ResolutionStatus string

const (
	ResolutionMerged     ResolutionStatus = "merged"
	ResolutionReplaced   ResolutionStatus = "replaced"
	ResolutionCreatedNew ResolutionStatus = "created_new"
	ResolutionError      ResolutionStatus = "error"
)

type ExistingCandidate struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	OldCVURL string `json:"old_cv_url"`
}

type DuplicateItem struct {
	ExistingCVID    uuid.UUID         `json:"existingCvId"`
	FileName        string            `json:"file_name"`
	DuplicateReason DuplicateReason   `json:"duplicate_reason"`
	Existing        ExistingCandidate `json:"existing"`
	NewData         CandidateData     `json:"newData"`
}

type FileError struct {
	FileName string `json:"file_name"`
	Message  string `json:"message"`
}

type IngestionResult struct {
	NewCVs     []Candidate     `json:"new_cvs"`
	Duplicates []DuplicateItem `json:"duplicates"`
	Errors     []FileError     `json:"errors"`
}

func NewIngestionResult() *IngestionResult {
	return &IngestionResult{
		NewCVs:     []Candidate{},
		Duplicates: []DuplicateItem{},
		Errors:     []FileError{},
	}
}

// ResolutionItem keeps the existing CV id as a raw string so a malformed id
// is reported on the item instead of failing the whole request.
type ResolutionItem struct {
	ExistingCVID string         `json:"existingCvId"`
	NewData      CandidateData  `json:"newData"`
	Mode         ResolutionMode `json:"mode"`
}

type ResolutionResult struct {
	ExistingCVID   string           `json:"existingCvId"`
	Status         ResolutionStatus `json:"status"`
	Message        string           `json:"message,omitempty"`
	NewCandidateID *uuid.UUID       `json:"newCandidateId,omitempty"`
}

type CandidateListItem struct {
	Candidate
	FileURL *string `json:"file_url"`
}

type CandidateListResponse struct {
	Candidates []CandidateListItem `json:"candidates"`
	Total      int64               `json:"total"`
	Page       int                 `json:"page"`
	Limit      int                 `json:"limit"`
}

type SimilarCandidate struct {
	CandidateID uuid.UUID `json:"candidate_id"`
	Score       float32   `json:"score"`
	Snippet     string    `json:"snippet"`
}
