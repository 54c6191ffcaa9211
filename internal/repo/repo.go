package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"tasklock/internal/domain"
)

// DBTX is the subset of *sql.DB and *sql.Tx the repo needs, so the same
// queries run inside or outside a transaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Repo is the SQLite-backed config surface plus event queries.
type Repo struct {
	DB  DBTX
	Now func() time.Time
}

var ErrNotFound = errors.New("not found")

func (r Repo) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

// GetString returns the value stored under group/key. ok is false when absent.
func (r Repo) GetString(ctx context.Context, group, key string) (string, bool, error) {
	var value string
	err := r.DB.QueryRowContext(ctx, `SELECT value FROM config_items WHERE group_name=? AND key_name=?`, group, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get %s.%s: %w", group, key, err)
	}
	return value, true, nil
}

// SetString writes value under group/key in a single statement.
func (r Repo) SetString(ctx context.Context, group, key, value string) error {
	ts := r.now().UTC().Format(time.RFC3339)
	_, err := r.DB.ExecContext(ctx, `INSERT INTO config_items(group_name,key_name,value,updated_at) VALUES (?,?,?,?)
ON CONFLICT(group_name,key_name) DO UPDATE SET value=excluded.value, updated_at=excluded.updated_at`,
		group, key, value, ts)
	if err != nil {
		return fmt.Errorf("set %s.%s: %w", group, key, err)
	}
	return nil
}

// UnsetString removes group/key. It returns ErrNotFound when nothing was stored.
func (r Repo) UnsetString(ctx context.Context, group, key string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM config_items WHERE group_name=? AND key_name=?`, group, key)
	if err != nil {
		return fmt.Errorf("unset %s.%s: %w", group, key, err)
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

// UpdatedAt returns when group/key was last written.
func (r Repo) UpdatedAt(ctx context.Context, group, key string) (string, error) {
	var ts string
	err := r.DB.QueryRowContext(ctx, `SELECT updated_at FROM config_items WHERE group_name=? AND key_name=?`, group, key).Scan(&ts)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	return ts, err
}

// LatestEvents returns up to n events, newest first, optionally filtered by type.
func (r Repo) LatestEvents(ctx context.Context, n int, evtType string) ([]domain.Event, error) {
	if n <= 0 {
		n = 20
	}
	query := `SELECT id,ts,type,op_id,COALESCE(task,''),payload_json FROM events`
	args := []any{}
	if evtType != "" {
		query += ` WHERE type=?`
		args = append(args, evtType)
	}
	query += ` ORDER BY id DESC LIMIT ?`
	args = append(args, n)
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	res := []domain.Event{}
	for rows.Next() {
		var e domain.Event
		if err := rows.Scan(&e.ID, &e.TS, &e.Type, &e.OpID, &e.Task, &e.Payload); err != nil {
			return nil, err
		}
		res = append(res, e)
	}
	return res, rows.Err()
}
