package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/ofirbed/DataTaggingLibrary/pkg/runtime"
)

// SQLiteConfig contains configuration for the SQLite store.
type SQLiteConfig struct {
	// Path is the database file path. ":memory:" keeps the database in
	// memory for the lifetime of the store.
	Path string

	// MaxOpenConns is the maximum number of open connections.
	// Default: 10
	MaxOpenConns int

	// MaxIdleConns is the maximum number of idle connections.
	// Default: 5
	MaxIdleConns int

	// WALMode enables write-ahead logging.
	// Default: true
	WALMode bool

	// BusyTimeout is how long to wait when the database is locked.
	// Default: 5 seconds
	BusyTimeout time.Duration
}

// DefaultSQLiteConfig returns the default SQLite configuration.
func DefaultSQLiteConfig() *SQLiteConfig {
	return &SQLiteConfig{
		Path:         "data/snapshots.db",
		MaxOpenConns: 10,
		MaxIdleConns: 5,
		WALMode:      true,
		BusyTimeout:  5 * time.Second,
	}
}

// SQLiteStore implements Store on a SQLite database.
type SQLiteStore struct {
	db     *sql.DB
	config *SQLiteConfig
	opts   *options
}

// NewSQLiteStore opens the database and creates the schema if needed.
func NewSQLiteStore(config *SQLiteConfig, opts ...Option) (*SQLiteStore, error) {
	if config == nil {
		config = DefaultSQLiteConfig()
	}
	o := defaultOptions("storage.sqlite", opts)

	db, err := sql.Open("sqlite", dsn(config))
	if err != nil {
		return nil, newStorageError("sqlite", "open", err)
	}
	if config.Path == ":memory:" {
		// Every connection to ":memory:" is a separate database.
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(config.MaxOpenConns)
		db.SetMaxIdleConns(config.MaxIdleConns)
	}

	s := &SQLiteStore{db: db, config: config, opts: o}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	o.logger.Info("SQLite snapshot store initialized",
		"path", config.Path,
		"wal_mode", config.WALMode,
	)
	return s, nil
}

// dsn carries the pragmas in the connection string so that every pooled
// connection gets them, not just the first.
func dsn(config *SQLiteConfig) string {
	var pragmas []string
	if config.BusyTimeout > 0 {
		pragmas = append(pragmas, fmt.Sprintf("_pragma=busy_timeout(%d)", config.BusyTimeout.Milliseconds()))
	}
	if config.WALMode && config.Path != ":memory:" {
		pragmas = append(pragmas, "_pragma=journal_mode(WAL)")
	}
	if len(pragmas) == 0 {
		return config.Path
	}
	return config.Path + "?" + strings.Join(pragmas, "&")
}

func (s *SQLiteStore) initialize() error {
	if _, err := s.db.Exec(Schema); err != nil {
		return newStorageError("sqlite", "create_schema", err)
	}
	if _, err := s.db.Exec(InsertSchemaVersion, SchemaVersion); err != nil {
		return newStorageError("sqlite", "insert_schema_version", err)
	}

	var version int
	if err := s.db.QueryRow(GetSchemaVersion).Scan(&version); err != nil {
		return newStorageError("sqlite", "get_schema_version", err)
	}
	if version != SchemaVersion {
		return newStorageError("sqlite", "schema_version_mismatch",
			fmt.Errorf("expected schema version %d, got %d", SchemaVersion, version))
	}
	return nil
}

func (s *SQLiteStore) Save(ctx context.Context, runID string, snap *runtime.Snapshot) error {
	if err := validateSave(runID, snap); err != nil {
		return newStorageError("sqlite", "save", err)
	}
	data, err := snap.Encode()
	if err != nil {
		return newStorageError("sqlite", "save", err)
	}
	now := s.opts.now().UnixNano()
	_, err = s.db.ExecContext(ctx, upsertSnapshot,
		runID, snap.ModelSource, snap.ModelVersion, string(snap.Status), string(data), now, now)
	if err != nil {
		return newStorageError("sqlite", "save", err)
	}
	return nil
}

func (s *SQLiteStore) Load(ctx context.Context, runID string) (*Record, error) {
	row := s.db.QueryRowContext(ctx, selectColumns+" WHERE run_id = ?", runID)
	rec, err := scanRecord(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSnapshotNotFound
	}
	if err != nil {
		return nil, newStorageError("sqlite", "load", err)
	}
	return rec, nil
}

func (s *SQLiteStore) List(ctx context.Context, f *Filter) ([]*Record, error) {
	where, args := buildWhereClause(f)
	query := selectColumns + where + " ORDER BY updated_at ASC, run_id ASC"
	if f != nil && (f.Limit > 0 || f.Offset > 0) {
		limit := f.Limit
		if limit <= 0 {
			limit = -1
		}
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", limit, f.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, newStorageError("sqlite", "list", err)
	}
	defer rows.Close()

	out := []*Record{}
	for rows.Next() {
		rec, err := scanRecord(rows.Scan)
		if err != nil {
			return nil, newStorageError("sqlite", "list", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, newStorageError("sqlite", "list", err)
	}
	return out, nil
}

func (s *SQLiteStore) Count(ctx context.Context, f *Filter) (int64, error) {
	where, args := buildWhereClause(f)
	var n int64
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM snapshots"+where, args...).Scan(&n); err != nil {
		return 0, newStorageError("sqlite", "count", err)
	}
	return n, nil
}

func (s *SQLiteStore) Delete(ctx context.Context, runID string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM snapshots WHERE run_id = ?", runID)
	if err != nil {
		return newStorageError("sqlite", "delete", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return newStorageError("sqlite", "delete", err)
	}
	if n == 0 {
		return ErrSnapshotNotFound
	}
	return nil
}

func (s *SQLiteStore) DeleteMatching(ctx context.Context, f *Filter) (int64, error) {
	where, args := buildWhereClause(f)
	res, err := s.db.ExecContext(ctx, "DELETE FROM snapshots"+where, args...)
	if err != nil {
		return 0, newStorageError("sqlite", "delete", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, newStorageError("sqlite", "delete", err)
	}
	s.opts.logger.Debug("deleted snapshots", "count", n)
	return n, nil
}

func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return newStorageError("sqlite", "close", err)
	}
	return nil
}

func buildWhereClause(f *Filter) (string, []any) {
	if f == nil {
		return "", nil
	}
	var conds []string
	var args []any
	if f.ModelSource != "" {
		conds = append(conds, "model_source = ?")
		args = append(args, f.ModelSource)
	}
	if len(f.Statuses) > 0 {
		marks := make([]string, len(f.Statuses))
		for i, st := range f.Statuses {
			marks[i] = "?"
			args = append(args, string(st))
		}
		conds = append(conds, "status IN ("+strings.Join(marks, ", ")+")")
	}
	if f.UpdatedBefore != nil {
		conds = append(conds, "updated_at < ?")
		args = append(args, f.UpdatedBefore.UnixNano())
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func scanRecord(scan func(dest ...any) error) (*Record, error) {
	var (
		rec              Record
		data             string
		created, updated int64
	)
	if err := scan(&rec.RunID, &data, &created, &updated); err != nil {
		return nil, err
	}
	snap, err := runtime.DecodeSnapshot([]byte(data))
	if err != nil {
		return nil, err
	}
	rec.Snapshot = snap
	rec.CreatedAt = time.Unix(0, created)
	rec.UpdatedAt = time.Unix(0, updated)
	return &rec, nil
}
