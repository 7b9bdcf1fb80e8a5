package folio

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedQueryBlocks(t *testing.T, s *Store) {
	t.Helper()
	ctx := context.Background()
	for _, b := range []ContentBlock{
		{Type: BlockProject, Title: "Shop", IsFeatured: true, DisplayOrder: 1},
		{Type: BlockProject, Title: "Blog", DisplayOrder: 2},
		{Type: BlockSkill, Title: "Go", IsFeatured: true, DisplayOrder: 1},
	} {
		_, err := s.CreateBlock(ctx, b)
		require.NoError(t, err)
	}
}

func TestSelectEmptyFilterReturnsEverything(t *testing.T) {
	s := setupTestStore(t)
	seedQueryBlocks(t, s)

	rows, err := s.Select(context.Background(), "content_blocks", Query{})
	require.NoError(t, err)
	assert.Len(t, rows, 3)
	// Full column set when Fields is empty.
	assert.Contains(t, rows[0], "title")
	assert.Contains(t, rows[0], "metadata")
}

func TestSelectEqualityFiltersCombineWithAnd(t *testing.T) {
	s := setupTestStore(t)
	seedQueryBlocks(t, s)

	rows, err := s.Select(context.Background(), "content_blocks", Query{
		Filter: map[string]any{"type": "project", "is_featured": true},
	})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Shop", rows[0]["title"])
}

func TestSelectProjectionOrderAndLimit(t *testing.T) {
	s := setupTestStore(t)
	seedQueryBlocks(t, s)

	rows, err := s.Select(context.Background(), "content_blocks", Query{
		Fields:  []string{"title"},
		Filter:  map[string]any{"type": "project"},
		OrderBy: Desc("display_order"),
		Limit:   1,
	})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Blog", rows[0]["title"])
	assert.NotContains(t, rows[0], "id")
}

func TestSelectRejectsUnknownIdentifiers(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	_, err := s.Select(ctx, "users", Query{})
	assert.ErrorContains(t, err, "unknown collection")

	_, err = s.Select(ctx, "content_blocks", Query{Fields: []string{"password"}})
	assert.ErrorContains(t, err, "unknown column")

	_, err = s.Select(ctx, "content_blocks", Query{Filter: map[string]any{"title; DROP TABLE": "x"}})
	assert.ErrorContains(t, err, "unknown filter column")

	_, err = s.Select(ctx, "content_blocks", Query{OrderBy: Asc("rowid")})
	assert.ErrorContains(t, err, "unknown order column")
}

func TestSelectIsRepeatable(t *testing.T) {
	s := setupTestStore(t)
	seedQueryBlocks(t, s)
	q := Query{Filter: map[string]any{"type": "skill"}, OrderBy: Asc("id")}

	first, err := s.Select(context.Background(), "content_blocks", q)
	require.NoError(t, err)
	second, err := s.Select(context.Background(), "content_blocks", q)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestCount(t *testing.T) {
	s := setupTestStore(t)
	seedQueryBlocks(t, s)
	ctx := context.Background()

	total, err := s.Count(ctx, "content_blocks", nil)
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)

	featured, err := s.Count(ctx, "content_blocks", map[string]any{"is_featured": true})
	require.NoError(t, err)
	assert.EqualValues(t, 2, featured)

	_, err = s.Count(ctx, "sessions", nil)
	assert.ErrorContains(t, err, "unknown collection")
}
