package folio

import (
	"context"
	"database/sql"
	"errors"
	"strings"
)

// SplitTechNames splits a comma-separated technology input into trimmed,
// deduplicated names. Matching against existing rows is case-sensitive, so
// deduplication is too.
func SplitTechNames(input string) []string {
	parts := strings.Split(input, ",")
	seen := make(map[string]struct{}, len(parts))
	var names []string
	for _, p := range parts {
		name := strings.TrimSpace(p)
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	return names
}

// ListTechnologies returns every technology ordered by name.
func (s *Store) ListTechnologies(ctx context.Context) ([]Technology, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, color FROM technologies ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var techs []Technology
	for rows.Next() {
		var t Technology
		if err := rows.Scan(&t.ID, &t.Name, &t.Color); err != nil {
			return nil, err
		}
		techs = append(techs, t)
	}
	return techs, rows.Err()
}

// ProjectTechnologies returns the technologies linked to one project.
func (s *Store) ProjectTechnologies(ctx context.Context, projectID int64) ([]Technology, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT t.id, t.name, t.color
		FROM project_technologies pt
		JOIN technologies t ON t.id = pt.technology_id
		WHERE pt.project_id = ?
		ORDER BY t.name ASC`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var techs []Technology
	for rows.Next() {
		var t Technology
		if err := rows.Scan(&t.ID, &t.Name, &t.Color); err != nil {
			return nil, err
		}
		techs = append(techs, t)
	}
	return techs, rows.Err()
}

// TechnologiesByProject returns the linked technologies for every project
// in one query, keyed by project id.
func (s *Store) TechnologiesByProject(ctx context.Context) (map[int64][]Technology, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT pt.project_id, t.id, t.name, t.color
		FROM project_technologies pt
		JOIN technologies t ON t.id = pt.technology_id
		ORDER BY pt.project_id ASC, t.name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[int64][]Technology)
	for rows.Next() {
		var pid int64
		var t Technology
		if err := rows.Scan(&pid, &t.ID, &t.Name, &t.Color); err != nil {
			return nil, err
		}
		out[pid] = append(out[pid], t)
	}
	return out, rows.Err()
}

// RelinkProjectTechnologies replaces a project's technology set with the
// given names. Names are matched case-sensitively to existing rows; unknown
// names get inserted; ids of pre-existing names are reused. The delete of
// the old links and the insert of the new set run in one transaction, so a
// failure partway leaves the prior link set intact instead of a project
// with zero links.
func (s *Store) RelinkProjectTechnologies(ctx context.Context, projectID int64, names []string) ([]Technology, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	techs := make([]Technology, 0, len(names))
	for _, name := range names {
		var t Technology
		err := tx.QueryRowContext(ctx, `SELECT id, name, color FROM technologies WHERE name = ?`, name).
			Scan(&t.ID, &t.Name, &t.Color)
		if errors.Is(err, sql.ErrNoRows) {
			res, insErr := tx.ExecContext(ctx, `INSERT INTO technologies (name) VALUES (?)`, name)
			if insErr != nil {
				return nil, insErr
			}
			t.ID, insErr = res.LastInsertId()
			if insErr != nil {
				return nil, insErr
			}
			t.Name = name
		} else if err != nil {
			return nil, err
		}
		techs = append(techs, t)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM project_technologies WHERE project_id = ?`, projectID); err != nil {
		return nil, err
	}
	for _, t := range techs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO project_technologies (project_id, technology_id) VALUES (?, ?)`, projectID, t.ID); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return techs, nil
}
