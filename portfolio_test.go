package folio

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupTestPortfolio(t *testing.T) (*Portfolio, *Store) {
	t.Helper()
	s := setupTestStore(t)
	return NewPortfolio(s, NewProjector(zap.NewNop())), s
}

func TestGroupSkills(t *testing.T) {
	groups := GroupSkills([]Skill{
		{Name: "React", Category: "Frontend"},
		{Name: "Go", Category: "Backend"},
		{Name: "Vue", Category: "Frontend"},
		{Name: "Figma"},
	})

	assert.Equal(t, map[string][]string{
		"Frontend": {"React", "Vue"},
		"Backend":  {"Go"},
		"Other":    {"Figma"},
	}, groups)
}

func TestProjectsMergeLinkedTechnologies(t *testing.T) {
	p, s := setupTestPortfolio(t)
	ctx := context.Background()

	withMeta, err := s.CreateBlock(ctx, ContentBlock{
		Type:     BlockProject,
		Title:    "Legacy",
		Metadata: `{"tech_stack":["jQuery"]}`,
	})
	require.NoError(t, err)
	linked, err := s.CreateBlock(ctx, ContentBlock{Type: BlockProject, Title: "Modern", DisplayOrder: 1})
	require.NoError(t, err)
	_, err = s.RelinkProjectTechnologies(ctx, linked, []string{"Go", "React"})
	require.NoError(t, err)
	// Linked rows must not override an embedded tech_stack.
	_, err = s.RelinkProjectTechnologies(ctx, withMeta, []string{"Svelte"})
	require.NoError(t, err)

	projects, err := p.Projects(ctx)
	require.NoError(t, err)
	require.Len(t, projects, 2)

	byTitle := map[string]Project{}
	for _, pr := range projects {
		byTitle[pr.Title] = pr
	}
	require.Len(t, byTitle["Legacy"].TechStack, 1)
	assert.Equal(t, "jQuery", byTitle["Legacy"].TechStack[0].Name)
	require.Len(t, byTitle["Modern"].TechStack, 2)
	assert.Equal(t, "Go", byTitle["Modern"].TechStack[0].Name)
}

func TestSkillsAndRolesProjection(t *testing.T) {
	p, s := setupTestPortfolio(t)
	ctx := context.Background()

	_, err := s.CreateBlock(ctx, ContentBlock{Type: BlockSkill, Title: "Go", Metadata: `{"category":"Backend"}`})
	require.NoError(t, err)
	_, err = s.CreateBlock(ctx, ContentBlock{Type: BlockRole, Title: "Full Stack Developer"})
	require.NoError(t, err)

	skills, err := p.Skills(ctx)
	require.NoError(t, err)
	require.Len(t, skills, 1)
	assert.Equal(t, "Backend", skills[0].Category)

	roles, err := p.Roles(ctx)
	require.NoError(t, err)
	require.Len(t, roles, 1)
	assert.Equal(t, "Full Stack Developer", roles[0].Title)
}

func TestSettingsDefaults(t *testing.T) {
	p, s := setupTestPortfolio(t)
	ctx := context.Background()

	require.NoError(t, s.SetSetting(ctx, "hero_title", "Xin chào, mình là", ""))
	require.NoError(t, s.SetSetting(ctx, "custom_footer", "© 2026", ""))

	settings, err := p.SiteSettings(ctx)
	require.NoError(t, err)

	assert.Equal(t, "Xin chào, mình là", settings.Get("hero_title"))
	assert.Equal(t, "About Me", settings.Get("about_title")) // declared default
	assert.Equal(t, "© 2026", settings.Get("custom_footer"))
	assert.Empty(t, settings.Get("no_such_key"))

	resolved := settings.Resolved()
	assert.Equal(t, "Xin chào, mình là", resolved["hero_title"])
	assert.Equal(t, "100", resolved["typing_speed"])
	assert.Equal(t, "© 2026", resolved["custom_footer"])
}
