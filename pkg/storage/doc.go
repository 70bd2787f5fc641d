// Package storage persists run snapshots keyed by run id.
//
// # Backends
//
//   - SQLite: durable storage in a single database file (pure Go driver)
//   - Memory: in-process storage for tests and short-lived tools
//
// Both backends are safe for concurrent use. Saving a snapshot under an
// existing run id replaces it and keeps the original creation time.
//
// # Basic Usage
//
//	store, err := storage.NewSQLiteStore(&storage.SQLiteConfig{
//	    Path:    "data/snapshots.db",
//	    WALMode: true,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer store.Close()
//
//	// Persist a suspended run
//	err = store.Save(ctx, eval.RunID(), eval.Snapshot())
//
//	// Resume it later
//	rec, err := store.Load(ctx, runID)
//	eval, err := runtime.Restore(m, rec.Snapshot, runtime.WithRunID(rec.RunID))
//
// # Errors
//
// Load and Delete return ErrSnapshotNotFound for unknown run ids. Backend
// failures are reported as *StorageError.
package storage
