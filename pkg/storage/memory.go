package storage

import (
	"context"
	"sort"
	"sync"

	"github.com/ofirbed/DataTaggingLibrary/pkg/runtime"
)

// MemoryStore keeps snapshots in a map. Stored snapshots are round-tripped
// through their JSON form so callers never share state with the store.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]*memoryRecord
	opts    *options
}

type memoryRecord struct {
	Record
	data []byte
}

func NewMemoryStore(opts ...Option) *MemoryStore {
	return &MemoryStore{
		records: make(map[string]*memoryRecord),
		opts:    defaultOptions("storage.memory", opts),
	}
}

func (s *MemoryStore) Save(ctx context.Context, runID string, snap *runtime.Snapshot) error {
	if err := validateSave(runID, snap); err != nil {
		return newStorageError("memory", "save", err)
	}
	data, err := snap.Encode()
	if err != nil {
		return newStorageError("memory", "save", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.opts.now()
	rec := &memoryRecord{Record: Record{RunID: runID, CreatedAt: now, UpdatedAt: now}, data: data}
	if old, ok := s.records[runID]; ok {
		rec.CreatedAt = old.CreatedAt
	}
	s.records[runID] = rec
	return nil
}

func (s *MemoryStore) Load(ctx context.Context, runID string) (*Record, error) {
	s.mu.RLock()
	rec, ok := s.records[runID]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrSnapshotNotFound
	}
	return rec.decode()
}

func (r *memoryRecord) decode() (*Record, error) {
	snap, err := runtime.DecodeSnapshot(r.data)
	if err != nil {
		return nil, newStorageError("memory", "decode", err)
	}
	out := r.Record
	out.Snapshot = snap
	return &out, nil
}

// matching returns the decoded records selected by f, oldest update first.
func (s *MemoryStore) matching(f *Filter) ([]*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*Record
	for _, r := range s.records {
		rec, err := r.decode()
		if err != nil {
			return nil, err
		}
		if f.matches(rec) {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].UpdatedAt.Before(out[j].UpdatedAt)
		}
		return out[i].RunID < out[j].RunID
	})
	return out, nil
}

func (s *MemoryStore) List(ctx context.Context, f *Filter) ([]*Record, error) {
	out, err := s.matching(f)
	if err != nil || f == nil {
		return out, err
	}
	if f.Offset >= len(out) {
		return []*Record{}, nil
	}
	out = out[f.Offset:]
	if f.Limit > 0 && f.Limit < len(out) {
		out = out[:f.Limit]
	}
	return out, nil
}

func (s *MemoryStore) Count(ctx context.Context, f *Filter) (int64, error) {
	out, err := s.matching(f)
	return int64(len(out)), err
}

func (s *MemoryStore) Delete(ctx context.Context, runID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[runID]; !ok {
		return ErrSnapshotNotFound
	}
	delete(s.records, runID)
	return nil
}

func (s *MemoryStore) DeleteMatching(ctx context.Context, f *Filter) (int64, error) {
	out, err := s.matching(f)
	if err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, r := range out {
		if _, ok := s.records[r.RunID]; ok {
			delete(s.records, r.RunID)
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore) Close() error { return nil }
