package tables

import "sort"

// Overlay is the atomic scope of one block: all mutations produced while
// executing the block accumulate in an uncommitted in-memory diff that no
// other component can observe; Commit publishes them to the underlying
// Backend atomically, Discard drops them. Overlay itself implements Backend,
// so Ref[K,V] tables can be bound directly to an Overlay for the duration of
// one block, and every read inside transaction Ti+1 observes the writes of
// T0...Ti.
type Overlay struct {
	base      Committer
	dirty     map[string][]byte
	tombstone map[string]bool
	// order records each touched key once, in first-touch order, so Commit
	// and Iterate walk the staged keys deterministically; Iterate still
	// sorts the merged keys on every call.
	order []string
}

// NewOverlay opens a fresh atomic scope over base.
func NewOverlay(base Committer) *Overlay {
	return &Overlay{
		base:      base,
		dirty:     make(map[string][]byte),
		tombstone: make(map[string]bool),
	}
}

func (o *Overlay) touch(key string) {
	if _, seen := o.dirty[key]; seen {
		return
	}
	if o.tombstone[key] {
		return
	}
	o.order = append(o.order, key)
}

func (o *Overlay) Get(key []byte) ([]byte, bool) {
	k := string(key)
	if o.tombstone[k] {
		return nil, false
	}
	if v, ok := o.dirty[k]; ok {
		out := make([]byte, len(v))
		copy(out, v)
		return out, true
	}
	return o.base.Get(key)
}

func (o *Overlay) Set(key, value []byte) {
	k := string(key)
	o.touch(k)
	delete(o.tombstone, k)
	cp := make([]byte, len(value))
	copy(cp, value)
	o.dirty[k] = cp
}

func (o *Overlay) Remove(key []byte) {
	k := string(key)
	o.touch(k)
	delete(o.dirty, k)
	o.tombstone[k] = true
}

func (o *Overlay) Iterate(prefix []byte, fn func(key, value []byte) bool) {
	seen := make(map[string]bool, len(o.order))
	merged := make(map[string][]byte)
	var keys []string
	p := string(prefix)
	for _, k := range o.order {
		if len(k) < len(p) || k[:len(p)] != p {
			continue
		}
		seen[k] = true
		if o.tombstone[k] {
			continue
		}
		merged[k] = o.dirty[k]
		keys = append(keys, k)
	}
	o.base.Iterate(prefix, func(key, value []byte) bool {
		k := string(key)
		if seen[k] {
			return true
		}
		merged[k] = value
		keys = append(keys, k)
		return true
	})
	sort.Strings(keys)
	for _, k := range keys {
		if !fn([]byte(k), merged[k]) {
			return
		}
	}
}

// Commit publishes every staged write/remove to the underlying backend in
// one atomic batch. On success the overlay is reset to a clean state so it
// can be reused for the next block. A failure leaves the overlay's staged
// writes intact and is fatal to the containing block: callers must abort,
// not retry Commit.
func (o *Overlay) Commit() error {
	batch := o.base.NewBatch()
	for _, k := range o.order {
		if o.tombstone[k] {
			batch.Remove([]byte(k))
			continue
		}
		batch.Set([]byte(k), o.dirty[k])
	}
	if err := o.base.CommitBatch(batch); err != nil {
		return err
	}
	o.reset()
	return nil
}

// Discard drops every staged write/remove without touching the backend.
func (o *Overlay) Discard() { o.reset() }

func (o *Overlay) reset() {
	o.dirty = make(map[string][]byte)
	o.tombstone = make(map[string]bool)
	o.order = nil
}

var _ Backend = (*Overlay)(nil)
