// Package servermap is the in-memory chunk cache the game server reads and
// writes through: it owns no generation logic itself, delegating that to a
// mapgen.Thread, and notifies a registered callback whenever a chunk's
// contents change so the caller can broadcast the update to players.
//
// Grounded on original_source/mehlon-server/map.rs's generic Map<B>
// wrapper, instantiated here over mapgen.Thread the way the reference
// instantiates it as ServerMap = Map<MapgenThread>.
package servermap

import (
	"sync"

	"github.com/est31/mimas-go/mapgen"
	"github.com/est31/mimas-go/storage"
	"github.com/est31/mimas-go/world"
)

// OnChangeFunc is invoked whenever a chunk's stored contents change, either
// because generation produced it or because a caller mutated a block in
// it. pos is the chunk coordinate.
type OnChangeFunc func(pos world.ChunkPos, data *world.ChunkData)

// Map is the chunk cache: a mutex-guarded map of already-known chunks, a
// handle to the generation worker, and an on-change callback. Safe for
// concurrent use.
type Map struct {
	mu       sync.RWMutex
	chunks   map[world.ChunkPos]*world.ChunkData
	thread   *mapgen.Thread
	onChange OnChangeFunc
}

// New wraps thread in an empty chunk cache. A no-op on-change callback is
// installed until RegisterOnChange sets a real one.
func New(thread *mapgen.Thread) *Map {
	return &Map{
		chunks:   make(map[world.ChunkPos]*world.ChunkData),
		thread:   thread,
		onChange: func(world.ChunkPos, *world.ChunkData) {},
	}
}

// RegisterOnChange installs f as the callback run after every chunk
// insertion or mutation.
func (m *Map) RegisterOnChange(f OnChangeFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onChange = f
}

// GetChunk returns the cached chunk at pos, if any.
func (m *Map) GetChunk(pos world.ChunkPos) (*world.ChunkData, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.chunks[pos]
	return c, ok
}

// SetChunk installs data as the chunk at pos, overwriting any prior
// value, persists it via the generation worker, and runs the on-change
// callback.
func (m *Map) SetChunk(pos world.ChunkPos, data *world.ChunkData) {
	m.mu.Lock()
	m.chunks[pos] = data
	onChange := m.onChange
	m.mu.Unlock()

	m.thread.ChunkChanged(pos, data)
	onChange(pos, data)
}

// GenChunksInArea asks the generation worker to ensure every chunk in the
// chunk-coordinate box [min,max] exists, reporting results through Tick.
func (m *Map) GenChunksInArea(min, max world.ChunkPos) {
	m.thread.GenArea(min, max)
}

// Tick drains newly-generated chunks from the worker, installing each in
// the cache and running the on-change callback. Call once per server
// tick.
func (m *Map) Tick() {
	m.mu.Lock()
	onChange := m.onChange
	m.mu.Unlock()

	m.thread.RunForGeneratedChunks(func(res mapgen.ChunkResult) {
		m.mu.Lock()
		m.chunks[res.Pos] = res.Data
		m.mu.Unlock()
		onChange(res.Pos, res.Data)
	})
}

// GetBlk returns the block at the world-space position p, or (Air, false)
// if its chunk hasn't been loaded yet.
func (m *Map) GetBlk(p world.Pos) (world.Block, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.chunks[world.ChunkOf(p)]
	if !ok {
		return world.Air, false
	}
	x, y, z := world.InChunk(p)
	return c.Get(x, y, z), true
}

// GetBlkMeta returns the metadata entry at p and whether p's chunk is
// loaded. A loaded chunk with no metadata at p returns a zero
// MetadataEntry with loaded=true; only an unloaded chunk returns
// loaded=false. Callers must not conflate the two the way a plain
// "entry, ok" pair invites, matching the reference's get_blk_meta
// returning Option<Option<MetadataEntry>> (outer None is "chunk not
// loaded", Some(None) is "loaded, no metadata").
func (m *Map) GetBlkMeta(p world.Pos) (entry world.MetadataEntry, loaded bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.chunks[world.ChunkOf(p)]
	if !ok {
		return world.MetadataEntry{}, false
	}
	x, y, z := world.InChunk(p)
	return c.MetaAt(x, y, z), true
}

// SetBlkMeta installs the metadata entry at p, persisting the owning
// chunk and running the on-change callback. Returns false if the chunk
// hasn't been loaded yet.
func (m *Map) SetBlkMeta(p world.Pos, entry world.MetadataEntry) bool {
	cpos := world.ChunkOf(p)
	m.mu.Lock()
	c, ok := m.chunks[cpos]
	if !ok {
		m.mu.Unlock()
		return false
	}
	x, y, z := world.InChunk(p)
	c.SetMeta(x, y, z, entry)
	onChange := m.onChange
	m.mu.Unlock()

	m.thread.ChunkChanged(cpos, c)
	onChange(cpos, c)
	return true
}

// SetBlk writes the block at the world-space position p, persisting the
// owning chunk and running the on-change callback. Returns false if the
// chunk hasn't been loaded yet (e.g. it's outside the currently generated
// area).
func (m *Map) SetBlk(p world.Pos, b world.Block) bool {
	cpos := world.ChunkOf(p)
	m.mu.Lock()
	c, ok := m.chunks[cpos]
	if !ok {
		m.mu.Unlock()
		return false
	}
	x, y, z := world.InChunk(p)
	c.Set(x, y, z, b)
	onChange := m.onChange
	m.mu.Unlock()

	m.thread.ChunkChanged(cpos, c)
	onChange(cpos, c)
	return true
}

// FakeChange re-runs the on-change callback for p's chunk without
// modifying or re-persisting it, matching the reference's
// BlockHandle::fake_change. Used to re-broadcast a chunk's true contents
// to a client whose optimistic local prediction guessed wrong (e.g. a dig
// rejected because the chest it targeted wasn't actually empty). Returns
// false if the chunk hasn't been loaded yet.
func (m *Map) FakeChange(p world.Pos) bool {
	cpos := world.ChunkOf(p)
	m.mu.RLock()
	c, ok := m.chunks[cpos]
	onChange := m.onChange
	m.mu.RUnlock()
	if !ok {
		return false
	}
	onChange(cpos, c)
	return true
}

// SetPlayerKV asynchronously persists one per-player key-value pair
// through the generation worker.
func (m *Map) SetPlayerKV(id storage.PlayerIDKV, key string, value []byte) {
	m.thread.SetPlayerKV(id, key, value)
}

// GetPlayerKV asynchronously requests one per-player key-value pair; the
// answer arrives via RunForKVResults.
func (m *Map) GetPlayerKV(id storage.PlayerIDKV, key string, payload uint32) {
	m.thread.GetPlayerKV(id, key, payload)
}

// RunForKVResults drains every pending GetPlayerKV answer, invoking f for
// each. Call once per server tick.
func (m *Map) RunForKVResults(f func(mapgen.KVResult)) {
	m.thread.RunForKVResults(f)
}

// ChunkPositionsAround returns the inclusive chunk-coordinate box spanning
// an xyradius/zradius window around the block-space position pos,
// matching the reference's chunk_positions_around.
func ChunkPositionsAround(pos world.Pos, xyRadius, zRadius int64) (min, max world.ChunkPos) {
	center := world.ChunkOf(pos)
	return world.ChunkPos{X: center.X - xyRadius, Y: center.Y - xyRadius, Z: center.Z - zRadius},
		world.ChunkPos{X: center.X + xyRadius, Y: center.Y + xyRadius, Z: center.Z + zRadius}
}
