// Package source provides model sources: places a compiled policy model is
// loaded from and, optionally, reloaded from when it changes.
//
// # File Source
//
// The file source loads a model from a YAML file on disk and watches it
// for changes using fsnotify:
//
//	src := source.NewFileSource("models/dataset.yaml", logger)
//	m, warnings, err := src.Load(ctx)
//
// # Hot-Reload
//
// A Manager keeps the current model of a source and swaps in each
// successfully reloaded version. A reload that fails to compile leaves the
// previous model in place:
//
//	mgr := source.NewManager(src, logger)
//	if err := mgr.Load(ctx); err != nil { ... }
//	go mgr.Watch(ctx)
//	m := mgr.Current()
//
// Evaluators hold on to the model they were started with, so a reload never
// changes a run in progress. Snapshots taken before a reload fail to restore
// against a model with a different version.
//
// # In-Memory Source
//
// The in-memory source is useful for testing:
//
//	src := source.NewMemorySource(m)
//	src.Set(next) // delivered to watchers
package source
