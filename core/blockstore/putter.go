package blockstore

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// CompressionTag accompanies each written block and is stored as a 1-byte
// header on each block file. Only CompressionNone is mandatory; adding a
// codec means decoding the payload on read where the header says so, an
// extension point no current caller exercises.
type CompressionTag byte

const CompressionNone CompressionTag = 0

// Putter ingests one blob block-by-block, optionally verified against a
// known root. It stages blocks under a temporary directory until Finalize
// promotes them, so a Putter dropped before Finalize never leaves a partial
// result visible to readers.
type Putter struct {
	store        *Blockstore
	expectedRoot *Digest
	tmpDir       string

	mu           sync.Mutex
	pendingProof *decodedProof
	count        int
	failed       error
	finalized    bool
	finalRoot    Digest
}

// FeedProof supplies the inclusion proof for the next block to be written.
// Proofs are only meaningful when the Putter was opened with an expected
// root; empty bytes are accepted as "no proof" for an unverified
// (expectedRoot == nil) Putter.
func (p *Putter) FeedProof(proofBytes []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failed != nil {
		return p.failed
	}
	if len(proofBytes) == 0 {
		p.pendingProof = nil
		return nil
	}
	proof, err := decodeProof(proofBytes)
	if err != nil {
		p.failed = ErrInvalidProof
		return p.failed
	}
	p.pendingProof = &proof
	return nil
}

// Write appends one block. If the Putter carries an expected root, the
// block's hash is folded against the most recently fed proof and
// checked; a mismatch fails with ErrInvalidContent and the Putter becomes
// terminally failed.
func (p *Putter) Write(block []byte, tag CompressionTag) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failed != nil {
		return p.failed
	}

	if p.expectedRoot != nil {
		if p.pendingProof == nil {
			p.failed = ErrInvalidProof
			return p.failed
		}
		leaf := leafHash(block)
		computed := foldProof(leaf, p.pendingProof.steps)
		if computed != *p.expectedRoot {
			p.failed = ErrInvalidContent
			return p.failed
		}
		p.pendingProof = nil
	}

	path := filepath.Join(p.tmpDir, fmt.Sprintf("%d.blk", p.count))
	framed := make([]byte, 1+len(block))
	framed[0] = byte(tag)
	copy(framed[1:], block)
	if err := os.WriteFile(path, framed, 0o644); err != nil {
		p.failed = fmt.Errorf("%w: %v", ErrIoError, err)
		return p.failed
	}
	p.count++
	return nil
}

// Finalize returns the verified root: expectedRoot if one was supplied,
// otherwise the root computed from every written block. Finalize is
// idempotent: calling it again after a successful call returns the same
// root with no further side effects.
func (p *Putter) Finalize() (Digest, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failed != nil {
		return Digest{}, p.failed
	}
	if p.finalized {
		return p.finalRoot, nil
	}

	blocks := make([][]byte, p.count)
	leaves := make([]Digest, p.count)
	for i := 0; i < p.count; i++ {
		b, err := os.ReadFile(filepath.Join(p.tmpDir, fmt.Sprintf("%d.blk", i)))
		if err != nil || len(b) == 0 {
			p.failed = fmt.Errorf("%w: %v", ErrIoError, err)
			return Digest{}, p.failed
		}
		// The leaf hash covers the payload only, not the 1-byte tag header.
		blocks[i] = b
		leaves[i] = leafHash(b[1:])
	}
	t := buildTree(leaves)
	root := t.root()
	if p.expectedRoot != nil && root != *p.expectedRoot {
		p.failed = ErrInvalidContent
		return Digest{}, p.failed
	}

	if err := p.store.promote(root, blocks, t); err != nil {
		p.failed = err
		return Digest{}, err
	}
	p.finalized = true
	p.finalRoot = root
	os.RemoveAll(p.tmpDir)
	return root, nil
}

// Discard cancels the Putter, removing its staged blocks. Safe to call on
// an already-finalized or already-failed Putter.
func (p *Putter) Discard() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.finalized {
		os.RemoveAll(p.tmpDir)
	}
}
