package tables

import (
	"sort"
	"sync"
)

// MemoryBackend is an in-memory Backend: a map[string][]byte behind a
// sync.RWMutex. It is used for tests and for ephemeral/dev nodes.
type MemoryBackend struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemoryBackend returns an empty in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{data: make(map[string][]byte)}
}

func (m *MemoryBackend) Get(key []byte) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[string(key)]
	if !ok {
		return nil, false
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, true
}

func (m *MemoryBackend) Set(key, value []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]byte, len(value))
	copy(cp, value)
	m.data[string(key)] = cp
}

func (m *MemoryBackend) Remove(key []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, string(key))
}

func (m *MemoryBackend) Iterate(prefix []byte, fn func(key, value []byte) bool) {
	m.mu.RLock()
	keys := make([]string, 0, len(m.data))
	for k := range m.data {
		if len(k) >= len(prefix) && k[:len(prefix)] == string(prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	snapshot := make(map[string][]byte, len(keys))
	for _, k := range keys {
		snapshot[k] = m.data[k]
	}
	m.mu.RUnlock()

	for _, k := range keys {
		if !fn([]byte(k), snapshot[k]) {
			return
		}
	}
}

// NewBatch returns a Batch that stages writes in memory until CommitBatch
// applies them.
func (m *MemoryBackend) NewBatch() Batch { return &memoryBatch{} }

type memoryOp struct {
	key    []byte
	value  []byte
	remove bool
}

type memoryBatch struct {
	ops []memoryOp
}

func (b *memoryBatch) Set(key, value []byte) {
	b.ops = append(b.ops, memoryOp{key: append([]byte(nil), key...), value: append([]byte(nil), value...)})
}

func (b *memoryBatch) Remove(key []byte) {
	b.ops = append(b.ops, memoryOp{key: append([]byte(nil), key...), remove: true})
}

// CommitBatch applies every staged op atomically with respect to other
// readers: the write lock is held for the whole apply.
func (m *MemoryBackend) CommitBatch(batch Batch) error {
	b, ok := batch.(*memoryBatch)
	if !ok {
		return errInvalidBatch
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, op := range b.ops {
		if op.remove {
			delete(m.data, string(op.key))
			continue
		}
		m.data[string(op.key)] = op.value
	}
	return nil
}

var _ Committer = (*MemoryBackend)(nil)
