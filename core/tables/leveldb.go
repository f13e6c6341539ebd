package tables

import (
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/iterator"
	"github.com/syndtr/goleveldb/leveldb/util"
)

// LevelDBBackend is the disk-backed Backend implementation, keeping chain
// state in a LevelDB store. Reads never fail by contract; any I/O error on a
// read is treated as a miss. Write-path I/O errors surface through
// CommitBatch and are fatal to the containing block.
type LevelDBBackend struct {
	db *leveldb.DB
}

// OpenLevelDBBackend opens (creating if absent) a LevelDB database at path.
func OpenLevelDBBackend(path string) (*LevelDBBackend, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, err
	}
	return &LevelDBBackend{db: db}, nil
}

// Close releases the underlying database handle.
func (l *LevelDBBackend) Close() error { return l.db.Close() }

func (l *LevelDBBackend) Get(key []byte) ([]byte, bool) {
	v, err := l.db.Get(key, nil)
	if err != nil {
		return nil, false
	}
	return v, true
}

func (l *LevelDBBackend) Set(key, value []byte) {
	_ = l.db.Put(key, value, nil)
}

func (l *LevelDBBackend) Remove(key []byte) {
	_ = l.db.Delete(key, nil)
}

func (l *LevelDBBackend) Iterate(prefix []byte, fn func(key, value []byte) bool) {
	var it iterator.Iterator
	if len(prefix) == 0 {
		it = l.db.NewIterator(nil, nil)
	} else {
		it = l.db.NewIterator(util.BytesPrefix(prefix), nil)
	}
	defer it.Release()
	for it.Next() {
		if !fn(it.Key(), it.Value()) {
			return
		}
	}
}

func (l *LevelDBBackend) NewBatch() Batch { return &leveldbBatch{b: new(leveldb.Batch)} }

type leveldbBatch struct {
	b *leveldb.Batch
}

func (b *leveldbBatch) Set(key, value []byte) { b.b.Put(key, value) }
func (b *leveldbBatch) Remove(key []byte)     { b.b.Delete(key) }

// CommitBatch writes every staged op to disk atomically.
func (l *LevelDBBackend) CommitBatch(batch Batch) error {
	b, ok := batch.(*leveldbBatch)
	if !ok {
		return errInvalidBatch
	}
	return l.db.Write(b.b, nil)
}

var _ Committer = (*LevelDBBackend)(nil)
