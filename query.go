package folio

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// Query is a declarative read over one collection: an optional field
// projection, equality-only filters combined with AND, an optional order-by
// (ascending unless stated otherwise) and an optional row limit. There is
// deliberately no inequality, range, or OR support — every caller in the
// engine gets by on equality.
type Query struct {
	Fields  []string
	Filter  map[string]any
	OrderBy *OrderBy
	Limit   int
}

// OrderBy names a sort column. Ascending defaults to false on the zero
// value, so constructors should set it explicitly; Select treats a nil
// OrderBy as "no ordering".
type OrderBy struct {
	Column    string
	Ascending bool
}

// Asc is a convenience constructor for an ascending order-by.
func Asc(column string) *OrderBy {
	return &OrderBy{Column: column, Ascending: true}
}

// Desc is a convenience constructor for a descending order-by.
func Desc(column string) *OrderBy {
	return &OrderBy{Column: column, Ascending: false}
}

// Row is one generic result row keyed by column name.
type Row map[string]any

// collections allowlists every queryable collection and its columns.
// Identifiers are only ever taken from this table; caller-supplied values
// are always bound as parameters, never spliced into SQL.
var collections = map[string][]string{
	"content_blocks": {"id", "type", "title", "subtitle", "description", "long_description",
		"url", "metadata", "is_featured", "display_order", "created_at", "updated_at"},
	"profile": {"id", "name", "display_name", "title", "bio", "email", "phone", "location",
		"avatar_url", "about_image_url", "resume_url", "resume_filename", "created_at", "updated_at"},
	"site_settings":        {"id", "setting_key", "setting_value", "description", "created_at", "updated_at"},
	"technologies":         {"id", "name", "color"},
	"project_technologies": {"project_id", "technology_id"},
	"contact_messages":     {"id", "name", "email", "message", "is_read", "replied_at", "created_at"},
	"chatbot_knowledge":    {"id", "question", "answer", "category", "keywords", "is_active", "created_at", "updated_at"},
	"chat_history":         {"id", "session_id", "user_message", "bot_response", "response_time_ms", "created_at"},
}

func collectionColumns(collection string) ([]string, error) {
	cols, ok := collections[collection]
	if !ok {
		return nil, fmt.Errorf("unknown collection %q", collection)
	}
	return cols, nil
}

func validColumn(cols []string, name string) bool {
	for _, c := range cols {
		if c == name {
			return true
		}
	}
	return false
}

// Select runs a declarative query against one collection. An empty Filter
// adds no predicate (the whole collection comes back, subject to Limit);
// an empty Fields list selects every allowlisted column.
func (s *Store) Select(ctx context.Context, collection string, q Query) ([]Row, error) {
	cols, err := collectionColumns(collection)
	if err != nil {
		return nil, err
	}

	fields := q.Fields
	if len(fields) == 0 {
		fields = cols
	}
	for _, f := range fields {
		if !validColumn(cols, f) {
			return nil, fmt.Errorf("unknown column %q in collection %q", f, collection)
		}
	}

	var sb strings.Builder
	sb.WriteString("SELECT ")
	sb.WriteString(strings.Join(fields, ", "))
	sb.WriteString(" FROM ")
	sb.WriteString(collection)

	where, args, err := buildFilter(cols, collection, q.Filter)
	if err != nil {
		return nil, err
	}
	sb.WriteString(where)

	if q.OrderBy != nil {
		if !validColumn(cols, q.OrderBy.Column) {
			return nil, fmt.Errorf("unknown order column %q in collection %q", q.OrderBy.Column, collection)
		}
		sb.WriteString(" ORDER BY ")
		sb.WriteString(q.OrderBy.Column)
		if q.OrderBy.Ascending {
			sb.WriteString(" ASC")
		} else {
			sb.WriteString(" DESC")
		}
	}
	if q.Limit > 0 {
		sb.WriteString(fmt.Sprintf(" LIMIT %d", q.Limit))
	}

	rows, err := s.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		values := make([]any, len(fields))
		ptrs := make([]any, len(fields))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		row := make(Row, len(fields))
		for i, f := range fields {
			if b, ok := values[i].([]byte); ok {
				row[f] = string(b)
			} else {
				row[f] = values[i]
			}
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// Count returns the number of rows in a collection matching an equality
// filter. Used by the admin dashboard statistics.
func (s *Store) Count(ctx context.Context, collection string, filter map[string]any) (int64, error) {
	cols, err := collectionColumns(collection)
	if err != nil {
		return 0, err
	}
	where, args, err := buildFilter(cols, collection, filter)
	if err != nil {
		return 0, err
	}
	var n int64
	err = s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+collection+where, args...).Scan(&n)
	return n, err
}

// buildFilter renders an AND-combined equality WHERE clause. Filter keys
// are sorted for a deterministic statement text.
func buildFilter(cols []string, collection string, filter map[string]any) (string, []any, error) {
	if len(filter) == 0 {
		return "", nil, nil
	}
	keys := make([]string, 0, len(filter))
	for k := range filter {
		if !validColumn(cols, k) {
			return "", nil, fmt.Errorf("unknown filter column %q in collection %q", k, collection)
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	preds := make([]string, 0, len(keys))
	args := make([]any, 0, len(keys))
	for _, k := range keys {
		preds = append(preds, k+" = ?")
		v := filter[k]
		// SQLite stores booleans as integers.
		if b, ok := v.(bool); ok {
			v = boolToInt(b)
		}
		args = append(args, v)
	}
	return " WHERE " + strings.Join(preds, " AND "), args, nil
}
