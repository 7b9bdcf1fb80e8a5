package folio

import (
	"context"
)

// ContactMessage is one submission from the public contact form.
type ContactMessage struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Message   string `json:"message"`
	IsRead    bool   `json:"is_read"`
	RepliedAt string `json:"replied_at"`
	CreatedAt string `json:"created_at"`
}

// CreateContactMessage stores a new submission and returns its id.
func (s *Store) CreateContactMessage(ctx context.Context, name, email, message string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO contact_messages (name, email, message, is_read, created_at)
		VALUES (?, ?, ?, 0, ?)`,
		name, email, message, nowStamp())
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// ListContactMessages returns every submission, newest first.
func (s *Store) ListContactMessages(ctx context.Context) ([]ContactMessage, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, email, message, is_read, replied_at, created_at
		FROM contact_messages ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var msgs []ContactMessage
	for rows.Next() {
		var m ContactMessage
		var read int
		if err := rows.Scan(&m.ID, &m.Name, &m.Email, &m.Message, &read, &m.RepliedAt, &m.CreatedAt); err != nil {
			return nil, err
		}
		m.IsRead = read == 1
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

// MarkMessageRead flags a submission as handled and stamps replied_at.
func (s *Store) MarkMessageRead(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE contact_messages SET is_read = 1, replied_at = ? WHERE id = ?`, nowStamp(), id)
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
