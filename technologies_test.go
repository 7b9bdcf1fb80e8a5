package folio

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitTechNames(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{"React, Node, Go", []string{"React", "Node", "Go"}},
		{"  React ,,  Go  ", []string{"React", "Go"}},
		{"Go, go, Go", []string{"Go", "go"}}, // case-sensitive dedupe
		{"", nil},
		{" , , ", nil},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, SplitTechNames(tc.input), "input %q", tc.input)
	}
}

func createProject(t *testing.T, s *Store, title string) int64 {
	t.Helper()
	id, err := s.CreateBlock(context.Background(), ContentBlock{Type: BlockProject, Title: title})
	require.NoError(t, err)
	return id
}

func TestRelinkRoundTrip(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	projectID := createProject(t, s, "Shop")

	linked, err := s.RelinkProjectTechnologies(ctx, projectID, []string{"React", "Node", "Go"})
	require.NoError(t, err)
	require.Len(t, linked, 3)

	got, err := s.ProjectTechnologies(ctx, projectID)
	require.NoError(t, err)
	names := make([]string, len(got))
	for i, tech := range got {
		names[i] = tech.Name
	}
	assert.Equal(t, []string{"Go", "Node", "React"}, names) // name order
}

func TestRelinkReusesExistingTechnologyRows(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	first := createProject(t, s, "Shop")
	second := createProject(t, s, "Blog")

	a, err := s.RelinkProjectTechnologies(ctx, first, []string{"React", "Go"})
	require.NoError(t, err)
	b, err := s.RelinkProjectTechnologies(ctx, second, []string{"Go", "SQLite"})
	require.NoError(t, err)

	// "Go" must be the same technologies row in both link sets.
	var goA, goB int64
	for _, tech := range a {
		if tech.Name == "Go" {
			goA = tech.ID
		}
	}
	for _, tech := range b {
		if tech.Name == "Go" {
			goB = tech.ID
		}
	}
	require.NotZero(t, goA)
	assert.Equal(t, goA, goB)

	all, err := s.ListTechnologies(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestRelinkReplacesOldLinks(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	projectID := createProject(t, s, "Shop")

	_, err := s.RelinkProjectTechnologies(ctx, projectID, []string{"React", "Node"})
	require.NoError(t, err)
	_, err = s.RelinkProjectTechnologies(ctx, projectID, []string{"Vue"})
	require.NoError(t, err)

	got, err := s.ProjectTechnologies(ctx, projectID)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Vue", got[0].Name)

	// Unlinking everything is just a relink with no names.
	_, err = s.RelinkProjectTechnologies(ctx, projectID, nil)
	require.NoError(t, err)
	got, err = s.ProjectTechnologies(ctx, projectID)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRelinkFailureKeepsPriorLinks(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	projectID := createProject(t, s, "Shop")

	_, err := s.RelinkProjectTechnologies(ctx, projectID, []string{"React", "Go"})
	require.NoError(t, err)

	// The second name trips the length constraint, so the whole relink
	// rolls back: no partial delete, no partial insert.
	tooLong := strings.Repeat("x", 101)
	_, err = s.RelinkProjectTechnologies(ctx, projectID, []string{"Vue", tooLong})
	require.Error(t, err)

	got, err := s.ProjectTechnologies(ctx, projectID)
	require.NoError(t, err)
	names := make([]string, len(got))
	for i, tech := range got {
		names[i] = tech.Name
	}
	assert.Equal(t, []string{"Go", "React"}, names)
}

func TestTechnologiesByProject(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	shop := createProject(t, s, "Shop")
	blog := createProject(t, s, "Blog")

	_, err := s.RelinkProjectTechnologies(ctx, shop, []string{"React"})
	require.NoError(t, err)
	_, err = s.RelinkProjectTechnologies(ctx, blog, []string{"Go", "SQLite"})
	require.NoError(t, err)

	byProject, err := s.TechnologiesByProject(ctx)
	require.NoError(t, err)
	require.Len(t, byProject[shop], 1)
	require.Len(t, byProject[blog], 2)
	assert.Equal(t, "React", byProject[shop][0].Name)
}

func TestDeleteProjectCascadesLinks(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	projectID := createProject(t, s, "Shop")

	_, err := s.RelinkProjectTechnologies(ctx, projectID, []string{"React"})
	require.NoError(t, err)
	require.NoError(t, s.DeleteBlock(ctx, projectID))

	n, err := s.Count(ctx, "project_technologies", nil)
	require.NoError(t, err)
	assert.Zero(t, n)

	// The technologies row itself survives; only links cascade.
	all, err := s.ListTechnologies(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}
