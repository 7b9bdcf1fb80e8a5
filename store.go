package folio

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = sql.ErrNoRows

// Store wraps a SQLite database and provides CRUD operations for every
// portfolio collection. The store is the single owner of the data; readers
// always re-fetch rather than mutating a local copy.
type Store struct {
	db *sql.DB
}

// NewStore opens (or creates) the SQLite database at path, ensures the data
// directory exists, and runs schema migrations.
func NewStore(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// WAL for concurrent read/write access, busy_timeout so writers wait
	// instead of returning SQLITE_BUSY, synchronous=NORMAL is safe with WAL
	// and avoids an fsync per transaction.
	if _, err := db.Exec(`
		PRAGMA journal_mode=WAL;
		PRAGMA busy_timeout=5000;
		PRAGMA synchronous=NORMAL;
		PRAGMA foreign_keys=ON;
	`); err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(4)
	s := &Store{db: db}
	if err := s.ensureSchema(); err != nil {
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB exposes the underlying handle so sub-packages (chat) can manage their
// own tables on the same database file.
func (s *Store) DB() *sql.DB {
	return s.db
}

func (s *Store) ensureSchema() error {
	_, err := s.db.Exec(`
CREATE TABLE IF NOT EXISTS content_blocks (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    type TEXT NOT NULL,
    title TEXT NOT NULL DEFAULT '',
    subtitle TEXT NOT NULL DEFAULT '',
    description TEXT NOT NULL DEFAULT '',
    long_description TEXT NOT NULL DEFAULT '',
    url TEXT NOT NULL DEFAULT '',
    metadata TEXT NOT NULL DEFAULT '',
    is_featured INTEGER NOT NULL DEFAULT 0,
    display_order INTEGER NOT NULL DEFAULT 0,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_content_blocks_type ON content_blocks(type, display_order);

CREATE TABLE IF NOT EXISTS profile (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL DEFAULT '',
    display_name TEXT NOT NULL DEFAULT '',
    title TEXT NOT NULL DEFAULT '',
    bio TEXT NOT NULL DEFAULT '',
    email TEXT NOT NULL DEFAULT '',
    phone TEXT NOT NULL DEFAULT '',
    location TEXT NOT NULL DEFAULT '',
    avatar_url TEXT NOT NULL DEFAULT '',
    about_image_url TEXT NOT NULL DEFAULT '',
    resume_url TEXT NOT NULL DEFAULT '',
    resume_filename TEXT NOT NULL DEFAULT '',
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS site_settings (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    setting_key TEXT NOT NULL UNIQUE,
    setting_value TEXT NOT NULL DEFAULT '',
    description TEXT NOT NULL DEFAULT '',
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS technologies (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL UNIQUE CHECK (length(name) > 0 AND length(name) <= 100),
    color TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS project_technologies (
    project_id INTEGER NOT NULL REFERENCES content_blocks(id) ON DELETE CASCADE,
    technology_id INTEGER NOT NULL REFERENCES technologies(id) ON DELETE CASCADE,
    PRIMARY KEY (project_id, technology_id)
);

CREATE TABLE IF NOT EXISTS contact_messages (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL,
    email TEXT NOT NULL,
    message TEXT NOT NULL,
    is_read INTEGER NOT NULL DEFAULT 0,
    replied_at TEXT NOT NULL DEFAULT '',
    created_at TEXT NOT NULL
);
`)
	return err
}

func nowStamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// --- Content blocks ---

const blockColumns = `id, type, title, subtitle, description, long_description, url, metadata, is_featured, display_order, created_at, updated_at`

func scanBlock(row interface{ Scan(...any) error }) (ContentBlock, error) {
	var b ContentBlock
	var featured int
	err := row.Scan(&b.ID, &b.Type, &b.Title, &b.Subtitle, &b.Description, &b.LongDescription,
		&b.URL, &b.Metadata, &featured, &b.DisplayOrder, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return ContentBlock{}, err
	}
	b.IsFeatured = featured == 1
	return b, nil
}

// ListBlocks returns all blocks of one type ordered by display_order, with
// created_at descending as the tie-breaker (recency wins when display
// orders collide — they are not unique).
func (s *Store) ListBlocks(ctx context.Context, typ BlockType) ([]ContentBlock, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+blockColumns+` FROM content_blocks WHERE type = ? ORDER BY display_order ASC, created_at DESC`, string(typ))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var blocks []ContentBlock
	for rows.Next() {
		b, err := scanBlock(rows)
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, b)
	}
	return blocks, rows.Err()
}

// GetBlock returns a single block by id.
func (s *Store) GetBlock(ctx context.Context, id int64) (ContentBlock, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+blockColumns+` FROM content_blocks WHERE id = ?`, id)
	return scanBlock(row)
}

// CreateBlock inserts a new block and returns its assigned id.
func (s *Store) CreateBlock(ctx context.Context, b ContentBlock) (int64, error) {
	if !ValidBlockType(b.Type) {
		return 0, fmt.Errorf("unknown block type %q", b.Type)
	}
	now := nowStamp()
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO content_blocks (type, title, subtitle, description, long_description, url, metadata, is_featured, display_order, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		string(b.Type), b.Title, b.Subtitle, b.Description, b.LongDescription, b.URL, b.Metadata,
		boolToInt(b.IsFeatured), b.DisplayOrder, now, now)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// UpdateBlock updates every mutable field of an existing block. The type
// column is deliberately not in the SET list: re-typing a block is
// unsupported.
func (s *Store) UpdateBlock(ctx context.Context, b ContentBlock) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE content_blocks
		SET title = ?, subtitle = ?, description = ?, long_description = ?, url = ?, metadata = ?, is_featured = ?, display_order = ?, updated_at = ?
		WHERE id = ?`,
		b.Title, b.Subtitle, b.Description, b.LongDescription, b.URL, b.Metadata,
		boolToInt(b.IsFeatured), b.DisplayOrder, nowStamp(), b.ID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteBlock removes a block by id. Technology links cascade away with it.
func (s *Store) DeleteBlock(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM content_blocks WHERE id = ?`, id)
	return err
}

// NextDisplayOrder returns one past the highest display_order for a type,
// so newly created blocks land at the end of their section.
func (s *Store) NextDisplayOrder(ctx context.Context, typ BlockType) (int, error) {
	var max sql.NullInt64
	err := s.db.QueryRowContext(ctx,
		`SELECT MAX(display_order) FROM content_blocks WHERE type = ?`, string(typ)).Scan(&max)
	if err != nil {
		return 0, err
	}
	return int(max.Int64) + 1, nil
}

// --- Profile ---

// Profile is the singleton-style owner record. The store does not enforce
// uniqueness; readers consume at most one row (lowest id) and SaveProfile
// upserts that same row.
type Profile struct {
	ID             int64  `json:"id"`
	Name           string `json:"name"`
	DisplayName    string `json:"display_name"`
	Title          string `json:"title"`
	Bio            string `json:"bio"`
	Email          string `json:"email"`
	Phone          string `json:"phone"`
	Location       string `json:"location"`
	AvatarURL      string `json:"avatar_url"`
	AboutImageURL  string `json:"about_image_url"`
	ResumeURL      string `json:"resume_url"`
	ResumeFilename string `json:"resume_filename"`
	CreatedAt      string `json:"created_at"`
	UpdatedAt      string `json:"updated_at"`
}

// GetProfile returns the first profile row.
func (s *Store) GetProfile(ctx context.Context) (Profile, error) {
	var p Profile
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, display_name, title, bio, email, phone, location, avatar_url, about_image_url, resume_url, resume_filename, created_at, updated_at
		FROM profile ORDER BY id ASC LIMIT 1`).
		Scan(&p.ID, &p.Name, &p.DisplayName, &p.Title, &p.Bio, &p.Email, &p.Phone, &p.Location,
			&p.AvatarURL, &p.AboutImageURL, &p.ResumeURL, &p.ResumeFilename, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

// SaveProfile updates the singleton profile row, creating it on first use.
func (s *Store) SaveProfile(ctx context.Context, p Profile) error {
	existing, err := s.GetProfile(ctx)
	now := nowStamp()
	if errors.Is(err, sql.ErrNoRows) {
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO profile (name, display_name, title, bio, email, phone, location, avatar_url, about_image_url, resume_url, resume_filename, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			p.Name, p.DisplayName, p.Title, p.Bio, p.Email, p.Phone, p.Location,
			p.AvatarURL, p.AboutImageURL, p.ResumeURL, p.ResumeFilename, now, now)
		return err
	}
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		UPDATE profile
		SET name = ?, display_name = ?, title = ?, bio = ?, email = ?, phone = ?, location = ?, avatar_url = ?, about_image_url = ?, resume_url = ?, resume_filename = ?, updated_at = ?
		WHERE id = ?`,
		p.Name, p.DisplayName, p.Title, p.Bio, p.Email, p.Phone, p.Location,
		p.AvatarURL, p.AboutImageURL, p.ResumeURL, p.ResumeFilename, now, existing.ID)
	return err
}

// --- Site settings ---

// SiteSetting is one key/value pair of site copy or tuning.
type SiteSetting struct {
	ID          int64  `json:"id"`
	Key         string `json:"setting_key"`
	Value       string `json:"setting_value"`
	Description string `json:"description"`
	UpdatedAt   string `json:"updated_at"`
}

// ListSettings returns every setting ordered by key.
func (s *Store) ListSettings(ctx context.Context) ([]SiteSetting, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, setting_key, setting_value, description, updated_at FROM site_settings ORDER BY setting_key ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var settings []SiteSetting
	for rows.Next() {
		var st SiteSetting
		if err := rows.Scan(&st.ID, &st.Key, &st.Value, &st.Description, &st.UpdatedAt); err != nil {
			return nil, err
		}
		settings = append(settings, st)
	}
	return settings, rows.Err()
}

// SetSetting upserts one setting by key.
func (s *Store) SetSetting(ctx context.Context, key, value, description string) error {
	now := nowStamp()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO site_settings (setting_key, setting_value, description, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(setting_key) DO UPDATE SET setting_value = excluded.setting_value, description = excluded.description, updated_at = excluded.updated_at`,
		key, value, description, now, now)
	return err
}

// DeleteSetting removes a setting by key.
func (s *Store) DeleteSetting(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM site_settings WHERE setting_key = ?`, key)
	return err
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
