package chat

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "chat.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	s, err := NewStore(db)
	require.NoError(t, err)
	return s
}

func testContext() Context {
	return Context{
		Name:        "Nguyen Van Khanh",
		DisplayName: "Khanh",
		Title:       "Full Stack Developer",
		Email:       "khanh@example.com",
		Skills: []SkillInfo{
			{Name: "React", Category: "Frontend", Featured: true},
			{Name: "Go", Category: "Backend", Featured: true},
			{Name: "Figma", Category: "Design"},
		},
		Projects: []ProjectInfo{
			{Title: "Shop Platform", Featured: true},
			{Title: "Side Blog"},
		},
		Certificates: []CertInfo{{Title: "AWS SAA", Issuer: "Amazon"}},
	}
}

func TestMatchKnowledge(t *testing.T) {
	entries := []KnowledgeEntry{
		{ID: 1, Question: "Kỹ năng của bạn?", Answer: "React, Go và SQLite.", Keywords: []string{"skill"}},
		{ID: 2, Question: "Where do you work?", Answer: "Remote.", Keywords: []string{"work", "company"}},
	}

	tests := []struct {
		name  string
		query string
		want  []int64
	}{
		{"keyword inside query", "bạn có skill gì", []int64{1}},
		{"query inside question", "kỹ năng", []int64{1}},
		{"query inside answer", "sqlite", []int64{1}},
		{"keyword bidirectional", "company", []int64{2}},
		{"no match", "weather today", nil},
		{"empty query", "   ", nil},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			matched := MatchKnowledge(tc.query, entries)
			ids := make([]int64, 0, len(matched))
			for _, e := range matched {
				ids = append(ids, e.ID)
			}
			if tc.want == nil {
				assert.Empty(t, ids)
			} else {
				assert.Equal(t, tc.want, ids)
			}
		})
	}
}

func TestRespondKnowledgeBaseWinsOverTopicRules(t *testing.T) {
	s := setupTestStore(t)
	svc := NewService(s, nil, zap.NewNop())
	ctx := context.Background()

	_, err := s.CreateKnowledge(ctx, KnowledgeEntry{
		Question: "Kỹ năng của bạn?",
		Answer:   "Mình chuyên về React và Go.",
		Keywords: []string{"skill"},
		IsActive: true,
	})
	require.NoError(t, err)

	reply := svc.Respond(ctx, "sess-1", "bạn có skill gì", testContext())
	assert.Equal(t, "Mình chuyên về React và Go.", reply)
}

func TestRespondIgnoresInactiveKnowledge(t *testing.T) {
	s := setupTestStore(t)
	svc := NewService(s, nil, zap.NewNop())
	ctx := context.Background()

	_, err := s.CreateKnowledge(ctx, KnowledgeEntry{
		Question: "skill?",
		Answer:   "outdated answer",
		Keywords: []string{"skill"},
		IsActive: false,
	})
	require.NoError(t, err)

	reply := svc.Respond(ctx, "sess-1", "skill", testContext())
	assert.NotEqual(t, "outdated answer", reply)
	assert.Contains(t, reply, "React") // falls through to the topic rule
}

func TestTopicRules(t *testing.T) {
	s := setupTestStore(t)
	svc := NewService(s, nil, zap.NewNop())
	pctx := testContext()

	tests := []struct {
		name    string
		message string
		want    []string
	}{
		{"greeting", "xin chào", []string{"Xin chào", "Khanh"}},
		{"name", "what is your name", []string{"Khanh", "Full Stack Developer"}},
		{"skills prefer featured", "kỹ năng của bạn", []string{"React", "Go"}},
		{"projects prefer featured", "tell me about your projects", []string{"Shop Platform"}},
		{"contact", "how can I contact you", []string{"khanh@example.com"}},
		{"certificates", "chứng chỉ", []string{"AWS SAA"}},
		{"thanks", "cảm ơn nhé", []string{"welcome"}},
		{"default", "zzz qqq", []string{"skills, projects, certificates"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			reply := svc.Respond(context.Background(), "sess-topic", tc.message, pctx)
			for _, want := range tc.want {
				assert.Contains(t, reply, want)
			}
		})
	}

	// Featured filtering: the unfeatured entries stay out of the lists.
	reply := svc.Respond(context.Background(), "sess-topic", "skill", pctx)
	assert.NotContains(t, reply, "Figma")
	reply = svc.Respond(context.Background(), "sess-topic", "project", pctx)
	assert.NotContains(t, reply, "Side Blog")
}

func TestTopicRulesEmptyPortfolio(t *testing.T) {
	s := setupTestStore(t)
	svc := NewService(s, nil, zap.NewNop())
	pctx := Context{}

	reply := svc.Respond(context.Background(), "s", "skill", pctx)
	assert.Contains(t, reply, "the site owner")
	reply = svc.Respond(context.Background(), "s", "contact", pctx)
	assert.Contains(t, reply, "contact form")
}

func TestRespondRecordsHistory(t *testing.T) {
	s := setupTestStore(t)
	svc := NewService(s, nil, zap.NewNop())
	ctx := context.Background()

	reply := svc.Respond(ctx, "sess-9", "hello", testContext())
	require.NotEmpty(t, reply)

	hist, err := s.ListHistory(ctx, 10)
	require.NoError(t, err)
	require.Len(t, hist, 1)
	assert.Equal(t, "sess-9", hist[0].SessionID)
	assert.Equal(t, "hello", hist[0].UserMessage)
	assert.Equal(t, reply, hist[0].BotResponse)
}

func TestKnowledgeCRUD(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	id, err := s.CreateKnowledge(ctx, KnowledgeEntry{
		Question: "Q", Answer: "A", Category: "general",
		Keywords: []string{"q"}, IsActive: true,
	})
	require.NoError(t, err)

	entries, err := s.ListKnowledge(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, []string{"q"}, entries[0].Keywords)

	entries[0].IsActive = false
	require.NoError(t, s.UpdateKnowledge(ctx, entries[0]))

	active, err := s.ActiveKnowledge(ctx)
	require.NoError(t, err)
	assert.Empty(t, active)

	assert.ErrorIs(t, s.UpdateKnowledge(ctx, KnowledgeEntry{ID: 999}), sql.ErrNoRows)

	require.NoError(t, s.DeleteKnowledge(ctx, id))
	entries, err = s.ListKnowledge(ctx)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestListHistoryNewestFirst(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	for _, msg := range []string{"first", "second", "third"} {
		require.NoError(t, s.SaveHistory(ctx, HistoryEntry{SessionID: "s", UserMessage: msg, BotResponse: "r"}))
	}

	hist, err := s.ListHistory(ctx, 2)
	require.NoError(t, err)
	require.Len(t, hist, 2)
	assert.Equal(t, "third", hist[0].UserMessage)
	assert.Equal(t, "second", hist[1].UserMessage)
}
