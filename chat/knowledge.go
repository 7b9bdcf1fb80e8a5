package chat

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"
)

// Store manages the chatbot's knowledge base and chat history tables. It
// shares the site's database handle rather than owning its own file, since
// knowledge entries are admin-managed alongside the rest of the content.
type Store struct {
	db *sql.DB
}

// NewStore wraps db and ensures the chat tables exist.
func NewStore(db *sql.DB) (*Store, error) {
	s := &Store{db: db}
	if err := s.ensureSchema(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) ensureSchema() error {
	_, err := s.db.Exec(`
CREATE TABLE IF NOT EXISTS chatbot_knowledge (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    question TEXT NOT NULL,
    answer TEXT NOT NULL,
    category TEXT NOT NULL DEFAULT '',
    keywords TEXT NOT NULL DEFAULT '[]',
    is_active INTEGER NOT NULL DEFAULT 1,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS chat_history (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    session_id TEXT NOT NULL,
    user_message TEXT NOT NULL,
    bot_response TEXT NOT NULL,
    response_time_ms INTEGER NOT NULL DEFAULT 0,
    created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_chat_history_session ON chat_history(session_id, created_at);
`)
	return err
}

// KnowledgeEntry is one admin-curated question/answer pair. Keywords are
// matched against user input in both containment directions.
type KnowledgeEntry struct {
	ID        int64    `json:"id"`
	Question  string   `json:"question"`
	Answer    string   `json:"answer"`
	Category  string   `json:"category"`
	Keywords  []string `json:"keywords"`
	IsActive  bool     `json:"is_active"`
	CreatedAt string   `json:"created_at"`
	UpdatedAt string   `json:"updated_at"`
}

func nowStamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}

func encodeKeywords(kw []string) string {
	if kw == nil {
		kw = []string{}
	}
	b, err := json.Marshal(kw)
	if err != nil {
		return "[]"
	}
	return string(b)
}

func decodeKeywords(raw string) []string {
	var kw []string
	if err := json.Unmarshal([]byte(raw), &kw); err != nil {
		return []string{}
	}
	return kw
}

func (s *Store) listKnowledge(ctx context.Context, activeOnly bool) ([]KnowledgeEntry, error) {
	q := `SELECT id, question, answer, category, keywords, is_active, created_at, updated_at FROM chatbot_knowledge`
	if activeOnly {
		q += ` WHERE is_active = 1`
	}
	q += ` ORDER BY id ASC`
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []KnowledgeEntry
	for rows.Next() {
		var e KnowledgeEntry
		var keywords string
		var active int
		if err := rows.Scan(&e.ID, &e.Question, &e.Answer, &e.Category, &keywords, &active, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, err
		}
		e.Keywords = decodeKeywords(keywords)
		e.IsActive = active == 1
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// ListKnowledge returns every knowledge entry, active or not (admin view).
func (s *Store) ListKnowledge(ctx context.Context) ([]KnowledgeEntry, error) {
	return s.listKnowledge(ctx, false)
}

// ActiveKnowledge returns only the entries the bot may answer from.
func (s *Store) ActiveKnowledge(ctx context.Context) ([]KnowledgeEntry, error) {
	return s.listKnowledge(ctx, true)
}

// CreateKnowledge inserts a new entry and returns its id.
func (s *Store) CreateKnowledge(ctx context.Context, e KnowledgeEntry) (int64, error) {
	now := nowStamp()
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO chatbot_knowledge (question, answer, category, keywords, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.Question, e.Answer, e.Category, encodeKeywords(e.Keywords), boolToInt(e.IsActive), now, now)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// UpdateKnowledge rewrites an existing entry.
func (s *Store) UpdateKnowledge(ctx context.Context, e KnowledgeEntry) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE chatbot_knowledge
		SET question = ?, answer = ?, category = ?, keywords = ?, is_active = ?, updated_at = ?
		WHERE id = ?`,
		e.Question, e.Answer, e.Category, encodeKeywords(e.Keywords), boolToInt(e.IsActive), nowStamp(), e.ID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// DeleteKnowledge removes an entry by id.
func (s *Store) DeleteKnowledge(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM chatbot_knowledge WHERE id = ?`, id)
	return err
}

// HistoryEntry is one exchanged message pair.
type HistoryEntry struct {
	ID             int64  `json:"id"`
	SessionID      string `json:"session_id"`
	UserMessage    string `json:"user_message"`
	BotResponse    string `json:"bot_response"`
	ResponseTimeMs int64  `json:"response_time_ms"`
	CreatedAt      string `json:"created_at"`
}

// SaveHistory appends one exchange to the history log.
func (s *Store) SaveHistory(ctx context.Context, h HistoryEntry) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO chat_history (session_id, user_message, bot_response, response_time_ms, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		h.SessionID, h.UserMessage, h.BotResponse, h.ResponseTimeMs, nowStamp())
	return err
}

// ListHistory returns the most recent exchanges, newest first.
func (s *Store) ListHistory(ctx context.Context, limit int) ([]HistoryEntry, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, session_id, user_message, bot_response, response_time_ms, created_at
		FROM chat_history ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []HistoryEntry
	for rows.Next() {
		var h HistoryEntry
		if err := rows.Scan(&h.ID, &h.SessionID, &h.UserMessage, &h.BotResponse, &h.ResponseTimeMs, &h.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, h)
	}
	return entries, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
