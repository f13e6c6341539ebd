package tables

import (
	"encoding/binary"
	"path/filepath"
	"testing"
)

type uint64Codec struct{}

func (uint64Codec) Encode(v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b
}

func (uint64Codec) Decode(b []byte) (uint64, error) {
	return binary.BigEndian.Uint64(b), nil
}

type stringCodec struct{}

func (stringCodec) Encode(v string) []byte          { return []byte(v) }
func (stringCodec) Decode(b []byte) (string, error) { return string(b), nil }

func TestRefGetSetRemove(t *testing.T) {
	backend := NewMemoryBackend()
	ref := NewRef[uint64, string](1, backend, uint64Codec{}, stringCodec{})

	if _, ok := ref.Get(42); ok {
		t.Fatalf("expected miss on empty table")
	}

	ref.Set(42, "hello")
	v, ok := ref.Get(42)
	if !ok || v != "hello" {
		t.Fatalf("got %q, %v", v, ok)
	}

	ref.Remove(42)
	if _, ok := ref.Get(42); ok {
		t.Fatalf("expected miss after remove")
	}
}

func TestRefIterOrdering(t *testing.T) {
	backend := NewMemoryBackend()
	ref := NewRef[uint64, string](2, backend, uint64Codec{}, stringCodec{})
	for _, k := range []uint64{5, 1, 3, 2, 4} {
		ref.Set(k, "v")
	}
	entries := ref.Iter()
	var prev uint64
	for i, e := range entries {
		if i > 0 && e.Key <= prev {
			t.Fatalf("iteration not ascending: %v", entries)
		}
		prev = e.Key
	}
	if len(entries) != 5 {
		t.Fatalf("want 5 entries, got %d", len(entries))
	}
}

func TestOverlayIsolationAndCommit(t *testing.T) {
	backend := NewMemoryBackend()
	ref := NewRef[uint64, string](3, backend, uint64Codec{}, stringCodec{})
	ref.Set(1, "base")

	overlay := NewOverlay(backend)
	overlayRef := NewRef[uint64, string](3, overlay, uint64Codec{}, stringCodec{})

	overlayRef.Set(1, "overlay-write")
	overlayRef.Set(2, "overlay-only")

	// Base backend must not observe overlay writes before commit.
	if v, _ := ref.Get(1); v != "base" {
		t.Fatalf("base leaked overlay write: %q", v)
	}
	if _, ok := ref.Get(2); ok {
		t.Fatalf("base leaked overlay-only key")
	}

	// Overlay reads its own prior writes within the same block.
	if v, _ := overlayRef.Get(1); v != "overlay-write" {
		t.Fatalf("overlay did not see its own write: %q", v)
	}

	if err := overlay.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}

	if v, _ := ref.Get(1); v != "overlay-write" {
		t.Fatalf("commit did not publish to base: %q", v)
	}
	if v, _ := ref.Get(2); v != "overlay-only" {
		t.Fatalf("commit did not publish new key: %q", v)
	}
}

func TestOverlayDiscard(t *testing.T) {
	backend := NewMemoryBackend()
	ref := NewRef[uint64, string](4, backend, uint64Codec{}, stringCodec{})
	ref.Set(1, "base")

	overlay := NewOverlay(backend)
	overlayRef := NewRef[uint64, string](4, overlay, uint64Codec{}, stringCodec{})
	overlayRef.Set(1, "discarded")
	overlay.Discard()

	if v, _ := ref.Get(1); v != "base" {
		t.Fatalf("discard leaked write: %q", v)
	}
}

func TestLevelDBBackendRoundTrip(t *testing.T) {
	dir := t.TempDir()
	backend, err := OpenLevelDBBackend(filepath.Join(dir, "db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer backend.Close()

	ref := NewRef[uint64, string](5, backend, uint64Codec{}, stringCodec{})
	ref.Set(7, "disk")
	v, ok := ref.Get(7)
	if !ok || v != "disk" {
		t.Fatalf("got %q, %v", v, ok)
	}

	overlay := NewOverlay(backend)
	overlayRef := NewRef[uint64, string](5, overlay, uint64Codec{}, stringCodec{})
	overlayRef.Remove(7)
	if err := overlay.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if _, ok := ref.Get(7); ok {
		t.Fatalf("expected removal to persist")
	}
}
