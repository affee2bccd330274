package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"alfredoptarigan/recruit-dashboard/internal/models"
)

func TestCollectFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.pdf"), []byte("b"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("a"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested"), 0o755))
	single := filepath.Join(t.TempDir(), "c.md")
	require.NoError(t, os.WriteFile(single, []byte("c"), 0o644))

	files, err := collectFiles([]string{dir, single}, zap.NewNop())

	require.NoError(t, err)
	require.Len(t, files, 3)
	var names []string
	for _, f := range files {
		names = append(names, f.Name)
	}
	assert.ElementsMatch(t, []string{"a.txt", "b.pdf", "c.md"}, names)
}

func TestCollectFiles_MissingPath(t *testing.T) {
	_, err := collectFiles([]string{filepath.Join(t.TempDir(), "nope")}, zap.NewNop())
	assert.Error(t, err)
}

func TestResolutionItems(t *testing.T) {
	id := uuid.New()
	name := "Jane"
	duplicates := []models.DuplicateItem{{
		ExistingCVID: id,
		FileName:     "jane.pdf",
		NewData:      models.CandidateData{FullName: &name},
	}}

	items := resolutionItems(duplicates, models.ModeReplace)

	require.Len(t, items, 1)
	assert.Equal(t, id.String(), items[0].ExistingCVID)
	assert.Equal(t, models.ModeReplace, items[0].Mode)
	assert.Equal(t, "Jane", *items[0].NewData.FullName)
	assert.Empty(t, resolutionItems(nil, models.ModeMerge))
}
