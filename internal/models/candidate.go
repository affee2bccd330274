package models

import (
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

const BirthdateLayout = "2006-01-02"

const (
	MinFitScore = 0.0
	MaxFitScore = 100.0
)

type Candidate struct {
	ID         uuid.UUID      `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	FullName   string         `gorm:"type:text;not null;default:''" json:"full_name"`
	Email      string         `gorm:"type:text;not null;default:'';index" json:"email"`
	Birthdate  *time.Time     `gorm:"type:date" json:"birthdate"`
	Gender     *string        `gorm:"type:text" json:"gender"`
	Experience *int           `gorm:"type:integer" json:"experience"`
	Skills     pq.StringArray `gorm:"type:text[];not null;default:'{}'" json:"skills"`
	Address    *string        `gorm:"type:text" json:"address"`
	FitScore   *float64       `gorm:"type:double precision" json:"fit_score"`
	Strengths  pq.StringArray `gorm:"type:text[];not null;default:'{}'" json:"strengths"`
	Weaknesses pq.StringArray `gorm:"type:text[];not null;default:'{}'" json:"weaknesses"`
	CreatedAt  time.Time      `gorm:"type:timestamp;default:now()" json:"created_at"`
	UpdatedAt  time.Time      `gorm:"type:timestamp;default:now()" json:"updated_at"`

	// Relations
	CVUploads []CVUpload `gorm:"foreignKey:CandidateID;constraint:OnDelete:CASCADE" json:"-"`
}

func (Candidate) TableName() string {
	return "candidates"
}

// CandidateData is a partial candidate as proposed by extraction or by a
// reconciliation request. Nil means the field is absent.
type CandidateData struct {
	FullName   *string  `json:"full_name"`
	Email      *string  `json:"email"`
	Birthdate  *string  `json:"birthdate"`
	Gender     *string  `json:"gender,omitempty"`
	Experience *int     `json:"experience"`
	Skills     []string `json:"skills"`
	Address    *string  `json:"address,omitempty"`
	FitScore   *float64 `json:"fit_score"`
	Strengths  []string `json:"strengths"`
	Weaknesses []string `json:"weaknesses"`
}

// NewCandidate builds a candidate from d: absent text fields become "",
// optional scalars stay null, lists become empty and fit_score defaults to 0.
func NewCandidate(d CandidateData) *Candidate {
	c := &Candidate{}
	c.overwrite(d)
	return c
}

// Replace overwrites every field of c with d under the same defaulting rule
// as NewCandidate. Identity and creation time are kept.
func (c *Candidate) Replace(d CandidateData) {
	c.overwrite(d)
}

// Merge unions list fields and overwrites scalar fields with the proposed
// value, even when that value is empty or absent.
func (c *Candidate) Merge(d CandidateData) {
	c.FullName = stringOrEmpty(d.FullName)
	c.Email = stringOrEmpty(d.Email)
	c.Birthdate = ParseBirthdate(d.Birthdate)
	c.Gender = d.Gender
	c.Experience = d.Experience
	c.Address = d.Address
	c.FitScore = d.FitScore

	c.Skills = UnionStrings(c.Skills, d.Skills)
	c.Strengths = UnionStrings(c.Strengths, d.Strengths)
	c.Weaknesses = UnionStrings(c.Weaknesses, d.Weaknesses)

	c.normalize()
}

func (c *Candidate) overwrite(d CandidateData) {
	score := 0.0
	if d.FitScore != nil {
		score = *d.FitScore
	}

	c.FullName = stringOrEmpty(d.FullName)
	c.Email = stringOrEmpty(d.Email)
	c.Birthdate = ParseBirthdate(d.Birthdate)
	c.Gender = d.Gender
	c.Experience = d.Experience
	c.Skills = listOrEmpty(d.Skills)
	c.Address = d.Address
	c.FitScore = &score
	c.Strengths = listOrEmpty(d.Strengths)
	c.Weaknesses = listOrEmpty(d.Weaknesses)

	c.normalize()
}

// normalize keeps fit_score within MinFitScore..MaxFitScore and drops a
// negative experience, whatever path the values came in through.
func (c *Candidate) normalize() {
	if c.FitScore != nil {
		score := math.Max(MinFitScore, math.Min(MaxFitScore, *c.FitScore))
		if math.IsNaN(*c.FitScore) {
			score = MinFitScore
		}
		c.FitScore = &score
	}
	if c.Experience != nil && *c.Experience < 0 {
		c.Experience = nil
	}
}

// UnionStrings returns existing followed by the proposed values it lacks,
// with duplicates removed.
func UnionStrings(existing, proposed []string) pq.StringArray {
	seen := make(map[string]struct{}, len(existing)+len(proposed))
	out := make(pq.StringArray, 0, len(existing)+len(proposed))
	for _, list := range [][]string{existing, proposed} {
		for _, v := range list {
			if _, ok := seen[v]; ok {
				continue
			}
			seen[v] = struct{}{}
			out = append(out, v)
		}
	}
	return out
}

// ParseBirthdate accepts YYYY-MM-DD or RFC 3339 and returns nil for anything
// else.
func ParseBirthdate(s *string) *time.Time {
	if s == nil {
		return nil
	}
	value := strings.TrimSpace(*s)
	if value == "" {
		return nil
	}
	for _, layout := range []string{BirthdateLayout, time.RFC3339} {
		if t, err := time.Parse(layout, value); err == nil {
			return &t
		}
	}
	return nil
}

func stringOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func listOrEmpty(list []string) pq.StringArray {
	out := make(pq.StringArray, len(list))
	copy(out, list)
	return out
}
