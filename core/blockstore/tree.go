// Package blockstore implements a content-addressed chunk store with
// streaming verified ingestion: payloads are split into fixed 256 KiB
// blocks, hashed into a Blake3 binary Merkle tree, and addressed by that
// tree's root.
package blockstore

import "lukechampine.com/blake3"

// BlockSize is the fixed chunk size payloads are split into.
const BlockSize = 256 * 1024

// Digest is a 32-byte Blake3 hash, identifying either a leaf block or an
// internal tree node.
type Digest [digestSize]byte

const digestSize = 32

const (
	leafDomain     = 0x00
	internalDomain = 0x01
)

func leafHash(block []byte) Digest {
	h := blake3.New(32, nil)
	h.Write([]byte{leafDomain})
	h.Write(block)
	var d Digest
	copy(d[:], h.Sum(nil))
	return d
}

func internalHash(left, right Digest) Digest {
	h := blake3.New(32, nil)
	h.Write([]byte{internalDomain})
	h.Write(left[:])
	h.Write(right[:])
	var d Digest
	copy(d[:], h.Sum(nil))
	return d
}

// chunk splits data into BlockSize blocks, the last possibly shorter.
func chunk(data []byte) [][]byte {
	if len(data) == 0 {
		return [][]byte{{}}
	}
	var blocks [][]byte
	for off := 0; off < len(data); off += BlockSize {
		end := off + BlockSize
		if end > len(data) {
			end = len(data)
		}
		blocks = append(blocks, data[off:end])
	}
	return blocks
}

// tree is the full set of levels of a binary Merkle tree over a sequence of
// leaf hashes, levels[0] being the leaves and the last level the root.
// An odd node at any level is promoted unchanged to the next level (no
// duplication), matching a standard unbalanced binary Merkle tree.
type tree struct {
	levels [][]Digest
}

func buildTree(leaves []Digest) tree {
	t := tree{levels: [][]Digest{leaves}}
	level := leaves
	for len(level) > 1 {
		next := make([]Digest, 0, (len(level)+1)/2)
		for i := 0; i < len(level); i += 2 {
			if i+1 < len(level) {
				next = append(next, internalHash(level[i], level[i+1]))
			} else {
				next = append(next, level[i])
			}
		}
		t.levels = append(t.levels, next)
		level = next
	}
	return t
}

func (t tree) root() Digest {
	last := t.levels[len(t.levels)-1]
	return last[0]
}

// proofFor returns the inclusion proof for leaf index i: one (sibling,
// isRight) pair per level from the leaves up to (excluding) the root.
func (t tree) proofFor(i int) []proofStep {
	var steps []proofStep
	idx := i
	for level := 0; level < len(t.levels)-1; level++ {
		nodes := t.levels[level]
		if idx^1 < len(nodes) {
			sibling := nodes[idx^1]
			steps = append(steps, proofStep{sibling: sibling, siblingIsRight: idx%2 == 0})
		}
		idx /= 2
	}
	return steps
}

type proofStep struct {
	sibling        Digest
	siblingIsRight bool
}

// foldProof recomputes the root implied by leaf combined with steps.
func foldProof(leaf Digest, steps []proofStep) Digest {
	cur := leaf
	for _, s := range steps {
		if s.siblingIsRight {
			cur = internalHash(cur, s.sibling)
		} else {
			cur = internalHash(s.sibling, cur)
		}
	}
	return cur
}
