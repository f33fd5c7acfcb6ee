// Package storage persists world chunks and key-value state to a Badger
// embedded database, replacing the reference implementation's SQLite
// tables with Badger key prefixes.
//
// Grounded on original_source/mimas-server/map_storage.rs.
package storage

import "github.com/est31/mimas-go/world"

// PlayerIDKV identifies the per-player key-value namespace: (auth source,
// numeric player id).
type PlayerIDKV struct {
	IDSrc uint8
	ID    uint64
}

// Backend is the storage contract every world persistence layer
// implements: chunk blobs, global key-value pairs (name-ID map, mapgen
// metadata), and per-player key-value pairs (position, inventory).
type Backend interface {
	// StoreChunk persists the chunk at pos, overwriting any prior value.
	StoreChunk(pos world.ChunkPos, data *world.ChunkData) error
	// LoadChunk returns the chunk at pos, or ok=false if it was never
	// stored.
	LoadChunk(pos world.ChunkPos) (*world.ChunkData, bool, error)

	// GetGlobalKV returns the value stored under key, or ok=false.
	GetGlobalKV(key string) ([]byte, bool, error)
	// SetGlobalKV stores content under key.
	SetGlobalKV(key string, content []byte) error

	// GetPlayerKV returns the value stored under (id, key), or ok=false.
	GetPlayerKV(id PlayerIDKV, key string) ([]byte, bool, error)
	// SetPlayerKV stores content under (id, key).
	SetPlayerKV(id PlayerIDKV, key string, content []byte) error

	// Tick flushes any pending batched writes. Called once per server
	// tick so writes are never held open indefinitely.
	Tick() error

	// Close releases the underlying database handle.
	Close() error
}
