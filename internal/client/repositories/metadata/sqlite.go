// Package metadata persists account and token data for offline login.
package metadata

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/dmitrijs2005/afterlight/internal/dbx"
)

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := r.db.QueryRowContext(ctx, `SELECT value FROM metadata WHERE key = ?`, key).Scan(&value)
	if err != nil {
		return nil, fmt.Errorf("get metadata[%s]: %w", key, dbx.MapError(err))
	}
	return value, nil
}

func (r *SQLiteRepository) Set(ctx context.Context, key string, value []byte) error {
	if err := r.SetMany(ctx, map[string][]byte{key: value}); err != nil {
		return fmt.Errorf("set metadata[%s]: %w", key, err)
	}
	return nil
}

// SetMany upserts all pairs in a single statement.
func (r *SQLiteRepository) SetMany(ctx context.Context, values map[string][]byte) error {
	if len(values) == 0 {
		return nil
	}

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	rows := make([]string, 0, len(keys))
	args := make([]any, 0, 2*len(keys))
	for _, k := range keys {
		v := values[k]
		if v == nil {
			v = []byte{}
		}
		rows = append(rows, "(?, ?)")
		args = append(args, k, v)
	}

	q := `INSERT INTO metadata (key, value) VALUES ` + strings.Join(rows, ", ") + `
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`
	if _, err := r.db.ExecContext(ctx, q, args...); err != nil {
		return fmt.Errorf("upsert metadata: %w", err)
	}
	return nil
}

// GetMany returns the stored values of keys. Missing keys are absent from
// the result.
func (r *SQLiteRepository) GetMany(ctx context.Context, keys ...string) (map[string][]byte, error) {
	result := make(map[string][]byte, len(keys))
	if len(keys) == 0 {
		return result, nil
	}

	args := make([]any, len(keys))
	for i, k := range keys {
		args[i] = k
	}
	marks := strings.TrimSuffix(strings.Repeat("?, ", len(keys)), ", ")

	rows, err := r.db.QueryContext(ctx, `SELECT key, value FROM metadata WHERE key IN (`+marks+`)`, args...)
	if err != nil {
		return nil, fmt.Errorf("get metadata: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var key string
		var value []byte
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("scan metadata row: %w", err)
		}
		result[key] = value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate metadata rows: %w", err)
	}
	return result, nil
}

func (r *SQLiteRepository) Clear(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM metadata`)
	if err != nil {
		return fmt.Errorf("clear metadata: %w", err)
	}
	return nil
}
