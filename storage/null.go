package storage

import "github.com/est31/mimas-go/world"

// NullBackend discards everything written to it and reports every read as
// a miss. Used when no map_storage_path is configured: the world still
// runs, just without persistence across restarts.
type NullBackend struct{}

var _ Backend = NullBackend{}

func (NullBackend) StoreChunk(world.ChunkPos, *world.ChunkData) error { return nil }

func (NullBackend) LoadChunk(world.ChunkPos) (*world.ChunkData, bool, error) {
	return nil, false, nil
}

func (NullBackend) GetGlobalKV(string) ([]byte, bool, error) { return nil, false, nil }
func (NullBackend) SetGlobalKV(string, []byte) error         { return nil }

func (NullBackend) GetPlayerKV(PlayerIDKV, string) ([]byte, bool, error) {
	return nil, false, nil
}
func (NullBackend) SetPlayerKV(PlayerIDKV, string, []byte) error { return nil }

func (NullBackend) Tick() error  { return nil }
func (NullBackend) Close() error { return nil }
