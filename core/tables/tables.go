// Package tables abstracts an ordered keyed storage layer. Each typed table
// is a Ref[K, V] bound to a Backend; backends supply the raw byte-oriented
// get/set/remove/iterate capability set that Ref encodes and decodes on top
// of.
package tables

import "fmt"

// Codec converts a typed key or value to and from its canonical byte
// encoding. Key encodings must preserve byte-wise ordering of the natural
// ordering of K, since Backend.Iterate walks keys in byte order.
type Codec[T any] interface {
	Encode(T) []byte
	Decode([]byte) (T, error)
}

// Backend is the minimal capability set every storage implementation must
// provide. Reads never fail by contract; a read of a missing key
// simply reports ok=false.
type Backend interface {
	Get(key []byte) (value []byte, ok bool)
	Set(key, value []byte)
	Remove(key []byte)
	// Iterate calls fn for every key in the given prefix, in ascending
	// byte-wise order, until fn returns false or keys are exhausted.
	Iterate(prefix []byte, fn func(key, value []byte) bool)
}

// Committer is implemented by backends that support batched, atomic writes.
// Overlay uses it to publish an entire block's writes in one call.
type Committer interface {
	Backend
	NewBatch() Batch
	CommitBatch(Batch) error
}

// Batch accumulates writes to be applied atomically by CommitBatch.
type Batch interface {
	Set(key, value []byte)
	Remove(key []byte)
}

// Ref is a typed, ordered keyed reference into a table. All keys share a
// single-byte table tag prefix (see the table tag constants in package
// state) so that distinct tables
// can coexist in one Backend/Overlay namespace.
type Ref[K any, V any] struct {
	tag      byte
	backend  Backend
	keyCodec Codec[K]
	valCodec Codec[V]
}

// NewRef binds a typed table to a backend under the given single-byte tag.
func NewRef[K any, V any](tag byte, backend Backend, keyCodec Codec[K], valCodec Codec[V]) Ref[K, V] {
	return Ref[K, V]{tag: tag, backend: backend, keyCodec: keyCodec, valCodec: valCodec}
}

func (r Ref[K, V]) encodeKey(k K) []byte {
	enc := r.keyCodec.Encode(k)
	out := make([]byte, 1+len(enc))
	out[0] = r.tag
	copy(out[1:], enc)
	return out
}

// Get returns the latest committed (or in-progress, if backend is an
// Overlay) value for k.
func (r Ref[K, V]) Get(k K) (v V, ok bool) {
	raw, present := r.backend.Get(r.encodeKey(k))
	if !present {
		return v, false
	}
	v, err := r.valCodec.Decode(raw)
	if err != nil {
		// A decode error on data this table itself wrote is a programming
		// error, not a caller-recoverable condition.
		panic(fmt.Sprintf("tables: corrupt value for tag %d: %v", r.tag, err))
	}
	return v, true
}

// Set upserts k -> v.
func (r Ref[K, V]) Set(k K, v V) {
	r.backend.Set(r.encodeKey(k), r.valCodec.Encode(v))
}

// Remove deletes k, if present.
func (r Ref[K, V]) Remove(k K) {
	r.backend.Remove(r.encodeKey(k))
}

// Keys returns every key currently present in the table, in ascending order.
func (r Ref[K, V]) Keys() []K {
	var out []K
	r.backend.Iterate([]byte{r.tag}, func(key, _ []byte) bool {
		k, err := r.keyCodec.Decode(key[1:])
		if err == nil {
			out = append(out, k)
		}
		return true
	})
	return out
}

// Entry is one (key, value) pair surfaced by Iter.
type Entry[K any, V any] struct {
	Key   K
	Value V
}

// Iter walks every (key, value) pair in the table in ascending key order.
func (r Ref[K, V]) Iter() []Entry[K, V] {
	return r.IterPrefix(nil)
}

// IterPrefix walks every (key, value) pair whose key starts with the table's
// tag followed by rawPrefix (a caller-supplied prefix of the key's own
// canonical encoding, e.g. the encoded leading field of a composite key).
// Entries are visited in ascending byte-wise order.
func (r Ref[K, V]) IterPrefix(rawPrefix []byte) []Entry[K, V] {
	prefix := make([]byte, 1+len(rawPrefix))
	prefix[0] = r.tag
	copy(prefix[1:], rawPrefix)

	var out []Entry[K, V]
	r.backend.Iterate(prefix, func(key, value []byte) bool {
		k, err := r.keyCodec.Decode(key[1:])
		if err != nil {
			return true
		}
		v, err := r.valCodec.Decode(value)
		if err != nil {
			return true
		}
		out = append(out, Entry[K, V]{Key: k, Value: v})
		return true
	})
	return out
}
