package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

var nameQuotes = strings.NewReplacer(`"`, "", `'`, "", "«", "", "»", "", "“", "", "”", "")

// FirstNameGenders loads the first-name lookup table keyed by lowercased
// name. A NULL gender is returned as "".
func (s *Store) FirstNameGenders(ctx context.Context) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name, gender FROM first_name_genders`)
	if err != nil {
		return nil, fmt.Errorf("query first name genders: %w", err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var name string
		var gender sql.NullString
		if err := rows.Scan(&name, &gender); err != nil {
			return nil, fmt.Errorf("scan first name gender: %w", err)
		}
		key := strings.ToLower(strings.TrimSpace(name))
		if key == "" {
			continue
		}
		out[key] = strings.ToUpper(strings.TrimSpace(gender.String))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate first name genders: %w", err)
	}
	return out, nil
}

// InsertFirstNameGender records a first name unless it is already present
// (case-insensitive). An empty gender is stored as NULL.
func (s *Store) InsertFirstNameGender(ctx context.Context, name, gender string) error {
	clean := strings.TrimSpace(nameQuotes.Replace(name))
	if clean == "" {
		return nil
	}
	var existing string
	err := s.db.QueryRowContext(ctx, s.rebind(
		`SELECT name FROM first_name_genders WHERE LOWER(name) = LOWER(?)`), clean).Scan(&existing)
	if err == nil {
		return nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("check first name %q: %w", clean, err)
	}
	_, err = s.db.ExecContext(ctx, s.rebind(
		`INSERT INTO first_name_genders (name, gender) VALUES (?, ?)`), clean, nullableString(gender))
	if err != nil {
		if errors.Is(MapError(err), ErrDuplicate) {
			return nil
		}
		return fmt.Errorf("insert first name %q: %w", clean, err)
	}
	return nil
}
