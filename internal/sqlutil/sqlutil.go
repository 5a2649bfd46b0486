// Package sqlutil holds small database/sql helpers shared by the store.
package sqlutil

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
)

// InClauseArgs returns a comma-separated list of "?" placeholders and the
// corresponding args slice.
//
// If items is empty, it returns "NULL" and no args, so `IN (NULL)` matches nothing.
func InClauseArgs(items []string) (placeholders string, args []any) {
	if len(items) == 0 {
		return "NULL", nil
	}
	ph := make([]string, len(items))
	args = make([]any, len(items))
	for i, item := range items {
		ph[i] = "?"
		args[i] = item
	}
	return strings.Join(ph, ", "), args
}

// ScanRows scans all rows into a slice using the provided scanner.
func ScanRows[T any](rows *sql.Rows, scan func(*sql.Rows) (T, error)) ([]T, error) {
	defer rows.Close()

	out := []T{}
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

// EscapeLike escapes LIKE wildcards so s matches literally. Use with
// `ESCAPE '\'`.
func EscapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// JSONColumn encodes v for storage in a JSON text column. A nil value is
// stored as SQL NULL.
func JSONColumn(v any) (sql.NullString, error) {
	if v == nil {
		return sql.NullString{}, nil
	}
	if m, ok := v.(map[string]any); ok && m == nil {
		return sql.NullString{}, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("encode json column: %w", err)
	}
	return sql.NullString{String: string(b), Valid: true}, nil
}

// DecodeJSONColumn decodes a JSON text column into a generic value. NULL and
// empty strings decode to nil.
func DecodeJSONColumn(col sql.NullString) (any, error) {
	if !col.Valid || col.String == "" {
		return nil, nil
	}
	var v any
	if err := json.Unmarshal([]byte(col.String), &v); err != nil {
		return nil, fmt.Errorf("decode json column: %w", err)
	}
	return v, nil
}

// DecodeJSONObject decodes a JSON object column. NULL decodes to nil, a
// non-object value is an error.
func DecodeJSONObject(col sql.NullString) (map[string]any, error) {
	if !col.Valid || col.String == "" {
		return nil, nil
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(col.String), &m); err != nil {
		return nil, fmt.Errorf("decode json object column: %w", err)
	}
	return m, nil
}
