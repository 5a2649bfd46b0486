package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/divehq/dive/internal/model"
	"github.com/divehq/dive/internal/sqlutil"
)

type rowScanner interface {
	Scan(dest ...any) error
}

const objectColumns = "id, type, name, path, content, properties, created_at, updated_at"

func scanObject(s rowScanner) (model.Object, error) {
	var (
		obj        model.Object
		path       sql.NullString
		content    sql.NullString
		properties sql.NullString
	)
	if err := s.Scan(&obj.ID, &obj.Type, &obj.Name, &path, &content, &properties, &obj.CreatedAt, &obj.UpdatedAt); err != nil {
		return model.Object{}, err
	}
	obj.Path = path.String

	var err error
	if obj.Content, err = sqlutil.DecodeJSONColumn(content); err != nil {
		return model.Object{}, fmt.Errorf("object %s: %w", obj.ID, err)
	}
	if obj.Properties, err = sqlutil.DecodeJSONObject(properties); err != nil {
		return model.Object{}, fmt.Errorf("object %s: %w", obj.ID, err)
	}
	return obj, nil
}

func scanObjectRows(rows *sql.Rows) (model.Object, error) {
	return scanObject(rows)
}

func nullIfEmpty(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// isUniqueViolation reports whether err is a SQLite UNIQUE/PRIMARY KEY
// constraint failure. modernc reports these as extended code 2067 / 1555.
func isUniqueViolation(err error) bool {
	var coded interface{ Code() int }
	if errors.As(err, &coded) {
		switch coded.Code() {
		case 2067, 1555:
			return true
		}
	}
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
