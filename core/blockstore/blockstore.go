package blockstore

import (
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Blockstore is a content-addressed chunk store rooted at a directory on
// disk. Multiple Putters may run concurrently, including against the
// same root; the store's own locking makes the first finalize win.
type Blockstore struct {
	rootDir string

	locksMu sync.Mutex
	locks   map[Digest]*sync.Mutex

	treeCache *lru.Cache[Digest, tree]
	metrics   *metrics
}

// Open binds a Blockstore to rootDir, creating the blocks/trees/tmp
// subdirectories if absent.
func Open(rootDir string) (*Blockstore, error) {
	for _, sub := range []string{"blocks", "trees", "tmp"} {
		if err := os.MkdirAll(filepath.Join(rootDir, sub), 0o755); err != nil {
			return nil, fmt.Errorf("blockstore: open %s: %w", sub, err)
		}
	}
	cache, err := lru.New[Digest, tree](256)
	if err != nil {
		return nil, fmt.Errorf("blockstore: tree cache: %w", err)
	}
	return &Blockstore{
		rootDir:   rootDir,
		locks:     make(map[Digest]*sync.Mutex),
		treeCache: cache,
		metrics:   newMetrics(),
	}, nil
}

func (bs *Blockstore) lockFor(root Digest) *sync.Mutex {
	bs.locksMu.Lock()
	defer bs.locksMu.Unlock()
	l, ok := bs.locks[root]
	if !ok {
		l = &sync.Mutex{}
		bs.locks[root] = l
	}
	return l
}

func (bs *Blockstore) blocksDir(root Digest) string {
	return filepath.Join(bs.rootDir, "blocks", hex.EncodeToString(root[:]))
}

func (bs *Blockstore) treePath(root Digest) string {
	return filepath.Join(bs.rootDir, "trees", hex.EncodeToString(root[:])+".tree")
}

// Put begins an ingestion. With expectedRoot nil, the returned Putter
// computes the root itself; with expectedRoot set, every block is verified
// against it.
func (bs *Blockstore) Put(expectedRoot *Digest) (*Putter, error) {
	tmpDir, err := os.MkdirTemp(filepath.Join(bs.rootDir, "tmp"), "putter-*")
	if err != nil {
		return nil, fmt.Errorf("blockstore: stage tmp dir: %w", err)
	}
	return &Putter{store: bs, expectedRoot: expectedRoot, tmpDir: tmpDir}, nil
}

// promote publishes a finalized Putter's blocks under root, guarded by
// root's own lock so that concurrent putters for the same root are
// admissible and the first finalize wins.
func (bs *Blockstore) promote(root Digest, blocks [][]byte, t tree) error {
	lock := bs.lockFor(root)
	lock.Lock()
	defer lock.Unlock()

	if bs.hasRoot(root) {
		return nil
	}

	dir := bs.blocksDir(root)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: %v", ErrIoError, err)
	}
	for i, b := range blocks {
		path := filepath.Join(dir, fmt.Sprintf("%d.blk", i))
		if err := os.WriteFile(path, b, 0o644); err != nil {
			return fmt.Errorf("%w: %v", ErrIoError, err)
		}
	}
	// The tree file holds the concatenated leaf hash layer; every higher
	// internal hash is a pure function of the leaves. Written last so its
	// presence marks the root as fully promoted.
	treeBytes := make([]byte, 0, len(t.levels[0])*digestSize)
	for _, leaf := range t.levels[0] {
		treeBytes = append(treeBytes, leaf[:]...)
	}
	if err := os.WriteFile(bs.treePath(root), treeBytes, 0o644); err != nil {
		return fmt.Errorf("%w: %v", ErrIoError, err)
	}
	bs.treeCache.Add(root, t)
	bs.metrics.rootsFinalized.Inc()
	bs.metrics.blocksWritten.Add(float64(len(blocks)))
	return nil
}

// hasRoot reports whether root has already been finalized on disk.
func (bs *Blockstore) hasRoot(root Digest) bool {
	_, err := os.Stat(bs.treePath(root))
	return err == nil
}

// GetTree returns the leaf hash sequence for root, or ok=false if root is
// unknown. The tree is represented at leaf granularity since every higher
// internal hash is a pure function of the leaves and re-derivable via
// buildTree.
func (bs *Blockstore) GetTree(root Digest) (leaves []Digest, ok bool) {
	if t, hit := bs.treeCache.Get(root); hit {
		bs.metrics.treeCacheHits.Inc()
		return append([]Digest(nil), t.levels[0]...), true
	}
	bs.metrics.treeCacheMisses.Inc()
	raw, err := os.ReadFile(bs.treePath(root))
	if err != nil || len(raw)%digestSize != 0 || len(raw) == 0 {
		return nil, false
	}
	leaves = make([]Digest, len(raw)/digestSize)
	for i := range leaves {
		copy(leaves[i][:], raw[i*digestSize:])
	}
	bs.treeCache.Add(root, buildTree(leaves))
	return leaves, true
}

// GetBlock returns block i of root's payload, or ok=false if either is
// unknown. The stored 1-byte compression header is stripped; a non-None tag
// would be decoded here once a codec exists.
func (bs *Blockstore) GetBlock(root Digest, i int) (block []byte, ok bool) {
	path := filepath.Join(bs.blocksDir(root), fmt.Sprintf("%d.blk", i))
	b, err := os.ReadFile(path)
	if err != nil || len(b) == 0 {
		return nil, false
	}
	return b[1:], true
}

// ReadAll reconstructs and returns the full payload for root.
func (bs *Blockstore) ReadAll(root Digest) (data []byte, ok bool) {
	entries, err := os.ReadDir(bs.blocksDir(root))
	if err != nil {
		return nil, false
	}
	for i := range entries {
		b, ok := bs.GetBlock(root, i)
		if !ok {
			return nil, false
		}
		data = append(data, b...)
	}
	return data, true
}
