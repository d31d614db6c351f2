package store

import (
	"context"
	"maps"
	"slices"
	"sync"
	"time"

	pkgio "github.com/matzehuels/cellgraph/pkg/io"
)

// MemoryStore keeps workbooks in process memory. Documents are stored in
// encoded form, so callers never share state with the store.
type MemoryStore struct {
	mu        sync.RWMutex
	workbooks map[string]memoryEntry
	now       func() time.Time
}

type memoryEntry struct {
	enc       encoded
	updatedAt time.Time
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{workbooks: make(map[string]memoryEntry), now: time.Now}
}

func (s *MemoryStore) Get(ctx context.Context, name string) (*pkgio.Document, error) {
	if err := checkName(name); err != nil {
		return nil, err
	}
	s.mu.RLock()
	e, ok := s.workbooks[name]
	s.mu.RUnlock()
	if !ok {
		return nil, notFound(name)
	}
	return decode(name, e.enc.data)
}

func (s *MemoryStore) Put(ctx context.Context, name string, doc *pkgio.Document) error {
	if err := checkName(name); err != nil {
		return err
	}
	enc, err := encode(doc)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.workbooks[name] = memoryEntry{enc: enc, updatedAt: s.now().UTC()}
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, name string) error {
	if err := checkName(name); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.workbooks[name]; !ok {
		return notFound(name)
	}
	delete(s.workbooks, name)
	return nil
}

func (s *MemoryStore) List(ctx context.Context) ([]Info, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	infos := make([]Info, 0, len(s.workbooks))
	for _, name := range slices.Sorted(maps.Keys(s.workbooks)) {
		e := s.workbooks[name]
		infos = append(infos, Info{Name: name, Cells: e.enc.cells, Digest: e.enc.digest, UpdatedAt: e.updatedAt})
	}
	return infos, nil
}

func (s *MemoryStore) Close() error { return nil }

var _ Store = (*MemoryStore)(nil)
