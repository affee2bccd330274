package models

import (
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestNewCandidateDefaults(t *testing.T) {
	c := NewCandidate(CandidateData{})

	assert.Equal(t, "", c.FullName)
	assert.Equal(t, "", c.Email)
	assert.Nil(t, c.Birthdate)
	assert.Nil(t, c.Gender)
	assert.Nil(t, c.Experience)
	assert.Nil(t, c.Address)
	require.NotNil(t, c.FitScore)
	assert.Equal(t, 0.0, *c.FitScore)
	assert.NotNil(t, c.Skills)
	assert.Empty(t, c.Skills)
	assert.NotNil(t, c.Strengths)
	assert.NotNil(t, c.Weaknesses)
}

func TestNewCandidateCopiesFields(t *testing.T) {
	c := NewCandidate(CandidateData{
		FullName:   ptr("Ada Lovelace"),
		Email:      ptr("ada@example.com"),
		Birthdate:  ptr("1990-12-10"),
		Experience: ptr(7),
		Skills:     []string{"Go"},
		FitScore:   ptr(88.5),
	})

	assert.Equal(t, "Ada Lovelace", c.FullName)
	require.NotNil(t, c.Birthdate)
	assert.Equal(t, time.Date(1990, 12, 10, 0, 0, 0, 0, time.UTC), *c.Birthdate)
	assert.Equal(t, 7, *c.Experience)
	assert.Equal(t, pq.StringArray{"Go"}, c.Skills)
	assert.Equal(t, 88.5, *c.FitScore)
}

func TestMergeUnionsListsAndOverwritesScalars(t *testing.T) {
	c := &Candidate{
		FullName: "Existing Name",
		Email:    "old@example.com",
		Address:  ptr("Hanoi"),
		Skills:   pq.StringArray{"Go"},
		FitScore: ptr(50.0),
	}

	c.Merge(CandidateData{
		FullName: ptr(""),
		Email:    ptr("new@example.com"),
		Skills:   []string{"Go", "Rust"},
	})

	assert.ElementsMatch(t, []string{"Go", "Rust"}, c.Skills)
	assert.Equal(t, "", c.FullName)
	assert.Equal(t, "new@example.com", c.Email)
	assert.Nil(t, c.Address)
	assert.Nil(t, c.FitScore)
}

func TestReplaceResetsAbsentFields(t *testing.T) {
	c := &Candidate{
		FullName:  "Existing",
		Address:   ptr("Da Nang"),
		Skills:    pq.StringArray{"Go"},
		Strengths: pq.StringArray{"Teamwork"},
	}

	c.Replace(CandidateData{FullName: ptr("Replaced"), Skills: []string{"Rust"}})

	assert.Equal(t, "Replaced", c.FullName)
	assert.Nil(t, c.Address)
	assert.Equal(t, pq.StringArray{"Rust"}, c.Skills)
	assert.Empty(t, c.Strengths)
	require.NotNil(t, c.FitScore)
	assert.Equal(t, 0.0, *c.FitScore)
}

func TestUnionStrings(t *testing.T) {
	assert.Equal(t, pq.StringArray{"a", "b", "c"}, UnionStrings([]string{"a", "b", "a"}, []string{"c", "b"}))
	assert.Equal(t, pq.StringArray{}, UnionStrings(nil, nil))
}

func TestParseBirthdate(t *testing.T) {
	assert.Nil(t, ParseBirthdate(nil))
	assert.Nil(t, ParseBirthdate(ptr("")))
	assert.Nil(t, ParseBirthdate(ptr("not a date")))
	assert.NotNil(t, ParseBirthdate(ptr("1995-03-15")))
	assert.NotNil(t, ParseBirthdate(ptr("1995-03-15T00:00:00Z")))
}

func TestCandidateScalarsAreNormalized(t *testing.T) {
	tests := []struct {
		name           string
		apply          func(c *Candidate, d CandidateData)
		score          float64
		experience     int
		wantScore      float64
		wantExperience *int
	}{
		{name: "new above range", apply: func(c *Candidate, d CandidateData) { *c = *NewCandidate(d) }, score: 250, experience: -3, wantScore: 100},
		{name: "replace below range", apply: func(c *Candidate, d CandidateData) { c.Replace(d) }, score: -10, experience: 4, wantScore: 0, wantExperience: ptr(4)},
		{name: "merge above range", apply: func(c *Candidate, d CandidateData) { c.Merge(d) }, score: 100.5, experience: -1, wantScore: 100},
		{name: "in range untouched", apply: func(c *Candidate, d CandidateData) { c.Merge(d) }, score: 42.5, experience: 0, wantScore: 42.5, wantExperience: ptr(0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Candidate{FullName: "Existing"}
			tt.apply(c, CandidateData{FitScore: ptr(tt.score), Experience: ptr(tt.experience)})

			require.NotNil(t, c.FitScore)
			assert.Equal(t, tt.wantScore, *c.FitScore)
			assert.Equal(t, tt.wantExperience, c.Experience)
		})
	}
}
