package journal

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const schemaVersion = 1

const schema = `
CREATE TABLE IF NOT EXISTS schema_meta (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS entries (
	seq          INTEGER PRIMARY KEY AUTOINCREMENT,
	id           TEXT NOT NULL,
	action_type  TEXT NOT NULL,
	source       TEXT NOT NULL DEFAULT '',
	recorded_at  INTEGER NOT NULL,
	action       BLOB,
	before_state BLOB,
	after_state  BLOB,
	published    INTEGER NOT NULL DEFAULT 0,
	duration_ns  INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_entries_action_type ON entries(action_type);
CREATE INDEX IF NOT EXISTS idx_entries_recorded_at ON entries(recorded_at);
`

// SQLite is a Journal stored in a SQLite database.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) a SQLite journal at path and ensures the
// schema is at the current version. An outdated schema is dropped and
// recreated; the journal holds diagnostic data, not a system of record.
func OpenSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open journal db: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set journal mode: %w", err)
	}

	if err := ensureSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &SQLite{db: db}, nil
}

func ensureSchema(db *sql.DB) error {
	ver, err := currentSchemaVersion(db)
	if err != nil {
		return fmt.Errorf("check schema version: %w", err)
	}
	if ver == schemaVersion {
		return nil
	}

	if ver > 0 {
		for _, stmt := range []string{
			"DROP TABLE IF EXISTS entries",
			"DROP TABLE IF EXISTS schema_meta",
		} {
			if _, err := db.Exec(stmt); err != nil {
				return fmt.Errorf("drop table: %w", err)
			}
		}
	}

	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	if _, err := db.Exec("INSERT INTO schema_meta (version) VALUES (?)", schemaVersion); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}
	return nil
}

// currentSchemaVersion returns the version from schema_meta, or 0 for a
// fresh database.
func currentSchemaVersion(db *sql.DB) (int, error) {
	var count int
	err := db.QueryRow(`
		SELECT COUNT(*) FROM sqlite_master
		WHERE type='table' AND name='schema_meta'
	`).Scan(&count)
	if err != nil {
		return 0, err
	}
	if count == 0 {
		return 0, nil
	}

	var ver int
	err = db.QueryRow("SELECT version FROM schema_meta LIMIT 1").Scan(&ver)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	return ver, err
}

// Record implements Journal.
func (j *SQLite) Record(ctx context.Context, entry *Entry) error {
	if entry == nil {
		return ErrNilEntry
	}
	if entry.RecordedAt.IsZero() {
		entry.RecordedAt = time.Now().UTC()
	}

	res, err := j.db.ExecContext(ctx, `
		INSERT INTO entries (id, action_type, source, recorded_at, action, before_state, after_state, published, duration_ns)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.ActionType, entry.Source, entry.RecordedAt.UnixNano(),
		[]byte(entry.Action), []byte(entry.BeforeState), []byte(entry.AfterState),
		entry.Published, entry.Duration.Nanoseconds(),
	)
	if err != nil {
		return fmt.Errorf("record journal entry: %w", err)
	}

	seq, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("read journal seq: %w", err)
	}
	entry.Seq = seq
	return nil
}

// Entries implements Journal.
func (j *SQLite) Entries(ctx context.Context, q Query) ([]*Entry, error) {
	query := `SELECT seq, id, action_type, source, recorded_at, action, before_state, after_state, published, duration_ns FROM entries`
	var conds []string
	var args []any

	if q.ActionType != "" {
		conds = append(conds, "action_type = ?")
		args = append(args, q.ActionType)
	}
	if q.Source != "" {
		conds = append(conds, "source = ?")
		args = append(args, q.Source)
	}
	if !q.Since.IsZero() {
		conds = append(conds, "recorded_at >= ?")
		args = append(args, q.Since.UnixNano())
	}
	if !q.Until.IsZero() {
		conds = append(conds, "recorded_at < ?")
		args = append(args, q.Until.UnixNano())
	}
	if q.AfterSeq > 0 {
		conds = append(conds, "seq > ?")
		args = append(args, q.AfterSeq)
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY seq ASC"
	if q.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, q.Limit)
	}

	rows, err := j.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query journal: %w", err)
	}
	defer rows.Close()

	var out []*Entry
	for rows.Next() {
		var e Entry
		var recordedAt, durationNs int64
		var action, before, after []byte
		if err := rows.Scan(&e.Seq, &e.ID, &e.ActionType, &e.Source, &recordedAt, &action, &before, &after, &e.Published, &durationNs); err != nil {
			return nil, fmt.Errorf("scan journal entry: %w", err)
		}
		e.RecordedAt = time.Unix(0, recordedAt).UTC()
		e.Duration = time.Duration(durationNs)
		e.Action = action
		e.BeforeState = before
		e.AfterState = after
		out = append(out, &e)
	}
	return out, rows.Err()
}

// Stats implements Journal.
func (j *SQLite) Stats(ctx context.Context) (*Stats, error) {
	stats := &Stats{
		EntriesByType:   make(map[string]int64),
		EntriesBySource: make(map[string]int64),
	}

	var avg sql.NullFloat64
	var last sql.NullInt64
	err := j.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(published), 0), AVG(duration_ns), MAX(recorded_at) FROM entries
	`).Scan(&stats.TotalEntries, &stats.PublishedCount, &avg, &last)
	if err != nil {
		return nil, fmt.Errorf("journal stats: %w", err)
	}
	if avg.Valid {
		stats.AverageDuration = time.Duration(int64(avg.Float64))
	}
	if last.Valid {
		stats.LastEntry = time.Unix(0, last.Int64).UTC()
	}

	for _, group := range []struct {
		column string
		into   map[string]int64
	}{
		{"action_type", stats.EntriesByType},
		{"source", stats.EntriesBySource},
	} {
		rows, err := j.db.QueryContext(ctx, fmt.Sprintf("SELECT %s, COUNT(*) FROM entries GROUP BY %s", group.column, group.column))
		if err != nil {
			return nil, fmt.Errorf("journal stats by %s: %w", group.column, err)
		}
		for rows.Next() {
			var key string
			var count int64
			if err := rows.Scan(&key, &count); err != nil {
				rows.Close()
				return nil, fmt.Errorf("scan journal stats: %w", err)
			}
			group.into[key] = count
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return nil, err
		}
		rows.Close()
	}

	return stats, nil
}

// Clear implements Journal.
func (j *SQLite) Clear(ctx context.Context, olderThan time.Duration) (int, error) {
	cutoff := time.Now().Add(-olderThan).UnixNano()
	res, err := j.db.ExecContext(ctx, "DELETE FROM entries WHERE recorded_at < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("clear journal: %w", err)
	}
	n, err := res.RowsAffected()
	return int(n), err
}

// Close implements Journal.
func (j *SQLite) Close() error {
	return j.db.Close()
}
