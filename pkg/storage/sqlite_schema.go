package storage

// SchemaVersion is the current database schema version.
const SchemaVersion = 1

// Schema creates the snapshot tables. Times are stored as Unix nanoseconds.
const Schema = `
CREATE TABLE IF NOT EXISTS snapshots (
    run_id TEXT PRIMARY KEY,
    model_source TEXT NOT NULL,
    model_version TEXT NOT NULL,
    status TEXT NOT NULL,
    data TEXT NOT NULL,
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_snapshots_updated_at ON snapshots(updated_at);
CREATE INDEX IF NOT EXISTS idx_snapshots_model_source ON snapshots(model_source);
CREATE INDEX IF NOT EXISTS idx_snapshots_status ON snapshots(status);

CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY
);
`

const InsertSchemaVersion = `INSERT OR IGNORE INTO schema_version (version) VALUES (?)`

const GetSchemaVersion = `SELECT MAX(version) FROM schema_version`

const upsertSnapshot = `
INSERT INTO snapshots (run_id, model_source, model_version, status, data, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(run_id) DO UPDATE SET
    model_source = excluded.model_source,
    model_version = excluded.model_version,
    status = excluded.status,
    data = excluded.data,
    updated_at = excluded.updated_at
`

const selectColumns = `SELECT run_id, data, created_at, updated_at FROM snapshots`
