package storage

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/dgraph-io/badger/v3"
	"github.com/est31/mimas-go/nameidmap"
	"github.com/est31/mimas-go/world"
)

// writesPerTransaction batches writes into one Badger transaction before
// committing, since each commit carries a fixed time cost that otherwise
// dominates at one transaction per write.
const writesPerTransaction = 50

// BadgerBackend is the Badger-backed Backend implementation. Chunks live
// under "c/<x>/<y>/<z>", global key-value pairs under "g/<key>", and
// per-player key-value pairs under "p/<id_src>/<id>/<key>".
type BadgerBackend struct {
	db *badger.DB
	m  *nameidmap.Map

	mu      sync.Mutex
	txn     *badger.Txn
	pending int
}

// OpenBadger opens (or creates) a Badger database at path. m resolves
// block IDs found in stored chunks.
func OpenBadger(path string, m *nameidmap.Map) (*BadgerBackend, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("opening badger db at %s: %w", path, err)
	}
	return &BadgerBackend{db: db, m: m}, nil
}

// SetNameMap replaces the map used to decode stored chunks, for callers
// that only learn the real name-ID map (via LoadNameIDMap) after already
// opening the database it lives in.
func (b *BadgerBackend) SetNameMap(m *nameidmap.Map) {
	b.m = m
}

func chunkKey(pos world.ChunkPos) []byte {
	return []byte(fmt.Sprintf("c/%d/%d/%d", pos.X, pos.Y, pos.Z))
}

func globalKey(key string) []byte {
	return []byte("g/" + key)
}

func playerKey(id PlayerIDKV, key string) []byte {
	return []byte(fmt.Sprintf("p/%d/%d/%s", id.IDSrc, id.ID, key))
}

// withWriteTxn runs fn against a transaction shared across up to
// writesPerTransaction writes, committing and opening a fresh one once
// that budget is exhausted, mirroring the reference's maybe_begin_commit.
func (b *BadgerBackend) withWriteTxn(fn func(txn *badger.Txn) error) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.txn == nil {
		b.txn = b.db.NewTransaction(true)
		b.pending = 0
	}
	if err := fn(b.txn); err != nil {
		if errors.Is(err, badger.ErrTxnTooBig) {
			if cerr := b.txn.Commit(); cerr != nil {
				return cerr
			}
			b.txn = b.db.NewTransaction(true)
			b.pending = 0
			if err := fn(b.txn); err != nil {
				return err
			}
		} else {
			return err
		}
	}
	b.pending++
	if b.pending >= writesPerTransaction {
		if err := b.txn.Commit(); err != nil {
			return err
		}
		b.txn = nil
		b.pending = 0
	}
	return nil
}

func (b *BadgerBackend) readValue(key []byte) ([]byte, bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []byte
	read := func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			out = append([]byte{}, val...)
			return nil
		})
	}
	// Read through the open batch transaction, if any, so writes not yet
	// committed by Tick are visible.
	var err error
	if b.txn != nil {
		err = read(b.txn)
	} else {
		err = b.db.View(read)
	}
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return out, true, nil
}

// StoreChunk implements Backend.
func (b *BadgerBackend) StoreChunk(pos world.ChunkPos, data *world.ChunkData) error {
	encoded, err := encodeChunk(data)
	if err != nil {
		return fmt.Errorf("encoding chunk %v: %w", pos, err)
	}
	return b.withWriteTxn(func(txn *badger.Txn) error {
		return txn.Set(chunkKey(pos), encoded)
	})
}

// LoadChunk implements Backend.
func (b *BadgerBackend) LoadChunk(pos world.ChunkPos) (*world.ChunkData, bool, error) {
	raw, ok, err := b.readValue(chunkKey(pos))
	if err != nil || !ok {
		return nil, ok, err
	}
	data, err := decodeChunk(raw, b.m)
	if err != nil {
		return nil, false, fmt.Errorf("decoding chunk %v: %w", pos, err)
	}
	return data, true, nil
}

// GetGlobalKV implements Backend.
func (b *BadgerBackend) GetGlobalKV(key string) ([]byte, bool, error) {
	return b.readValue(globalKey(key))
}

// SetGlobalKV implements Backend.
func (b *BadgerBackend) SetGlobalKV(key string, content []byte) error {
	return b.withWriteTxn(func(txn *badger.Txn) error {
		return txn.Set(globalKey(key), content)
	})
}

// GetPlayerKV implements Backend.
func (b *BadgerBackend) GetPlayerKV(id PlayerIDKV, key string) ([]byte, bool, error) {
	return b.readValue(playerKey(id, key))
}

// SetPlayerKV implements Backend.
func (b *BadgerBackend) SetPlayerKV(id PlayerIDKV, key string, content []byte) error {
	return b.withWriteTxn(func(txn *badger.Txn) error {
		return txn.Set(playerKey(id, key), content)
	})
}

// Tick implements Backend: it flushes any transaction left open by
// batched writes so nothing outlives a server tick uncommitted.
func (b *BadgerBackend) Tick() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.txn == nil {
		return nil
	}
	err := b.txn.Commit()
	b.txn = nil
	b.pending = 0
	return err
}

// Close implements Backend.
func (b *BadgerBackend) Close() error {
	if err := b.Tick(); err != nil {
		return err
	}
	return b.db.Close()
}

// IterateChunkKeys calls fn with the raw key of every stored chunk, used
// by maintenance tooling (cmd/mimasd's migrate subcommand) that needs to
// walk the whole keyspace rather than look up one position at a time.
// Iteration stops at the first error fn returns.
func (b *BadgerBackend) IterateChunkKeys(fn func(key string) error) error {
	return b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		prefix := []byte("c/")
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if err := fn(string(it.Item().Key())); err != nil {
				return err
			}
		}
		return nil
	})
}

// ParseChunkKey recovers the chunk position encoded by chunkKey, used by
// maintenance tooling that iterates the raw keyspace.
func ParseChunkKey(key string) (world.ChunkPos, error) {
	parts := strings.Split(strings.TrimPrefix(key, "c/"), "/")
	if len(parts) != 3 {
		return world.ChunkPos{}, fmt.Errorf("malformed chunk key %q", key)
	}
	x, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return world.ChunkPos{}, err
	}
	y, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return world.ChunkPos{}, err
	}
	z, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil {
		return world.ChunkPos{}, err
	}
	return world.ChunkPos{X: x, Y: y, Z: z}, nil
}
