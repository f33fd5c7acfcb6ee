package mapgen

import (
	"github.com/est31/mimas-go/gameparams"
	"github.com/est31/mimas-go/storage"
	"github.com/est31/mimas-go/world"
	"github.com/sirupsen/logrus"
)

// chunkChangedMsg asks the worker to persist an externally-mutated chunk
// (e.g. after a player dug or placed a block) without re-running
// generation.
type chunkChangedMsg struct {
	pos  world.ChunkPos
	data *world.ChunkData
}

// genAreaMsg asks the worker to ensure every chunk in [Min,Max] (chunk
// coordinates, inclusive) is generated and Done, reporting each one newly
// reaching Done via the worker's result channel.
type genAreaMsg struct {
	min, max world.ChunkPos
}

// setPlayerKVMsg asks the worker to persist one per-player key-value pair.
type setPlayerKVMsg struct {
	id      storage.PlayerIDKV
	key     string
	content []byte
}

// getPlayerKVMsg asks the worker to fetch one per-player key-value pair.
// Payload is an opaque caller tag threaded back through to the result so
// callers can match a result to its request without a blocking round trip.
type getPlayerKVMsg struct {
	id      storage.PlayerIDKV
	key     string
	payload uint32
}

// tickMsg asks the worker to flush the storage backend's pending writes.
type tickMsg struct{}

// mapgenMsg is the sum type of everything the worker goroutine accepts,
// matching original_source/mehlon-server/mapgen.rs's MapgenMsg enum.
type mapgenMsg interface{ isMapgenMsg() }

func (chunkChangedMsg) isMapgenMsg() {}
func (genAreaMsg) isMapgenMsg()      {}
func (setPlayerKVMsg) isMapgenMsg()  {}
func (getPlayerKVMsg) isMapgenMsg()  {}
func (tickMsg) isMapgenMsg()         {}

// ChunkResult is one chunk that newly reached the Done generation phase,
// reported back from the worker goroutine.
type ChunkResult struct {
	Pos  world.ChunkPos
	Data *world.ChunkData
}

// KVResult is the answer to a previously-issued GetPlayerKV request.
type KVResult struct {
	ID      storage.PlayerIDKV
	Payload uint32
	Key     string
	Content []byte
	Found   bool
}

// Thread owns a MapgenMap on a dedicated goroutine and exposes it through
// channels, so every other subsystem can request generation or persistence
// work without taking a lock or blocking on terrain synthesis.
//
// Grounded on original_source/mehlon-server/mapgen.rs's MapgenThread /
// MapBackend impl: a single owning goroutine reading a request channel,
// writing results to two reply channels that callers drain non-blockingly
// once per tick.
type Thread struct {
	reqCh    chan mapgenMsg
	resultCh chan ChunkResult
	kvCh     chan KVResult
	done     chan struct{}
}

// NewThread starts the worker goroutine and returns a handle to it.
func NewThread(seed uint64, params *gameparams.GameParams, backend storage.Backend) *Thread {
	t := &Thread{
		reqCh:    make(chan mapgenMsg, 256),
		resultCh: make(chan ChunkResult, 256),
		kvCh:     make(chan KVResult, 256),
		done:     make(chan struct{}),
	}
	m := NewMapgenMap(seed, params, backend)
	go t.run(m)
	return t
}

func (t *Thread) run(m *MapgenMap) {
	defer close(t.done)
	for msg := range t.reqCh {
		switch req := msg.(type) {
		case chunkChangedMsg:
			if err := m.storage.StoreChunk(req.pos, req.data); err != nil {
				logrus.WithError(err).WithField("chunk", req.pos).Fatal("mapgen: storing changed chunk")
			}
		case tickMsg:
			if err := m.storage.Tick(); err != nil {
				logrus.WithError(err).Fatal("mapgen: flushing storage")
			}
		case genAreaMsg:
			m.genChunksInArea(req.min, req.max, func(pos world.ChunkPos, data *world.ChunkData) {
				t.resultCh <- ChunkResult{Pos: pos, Data: data}
			})
		case setPlayerKVMsg:
			if err := m.storage.SetPlayerKV(req.id, req.key, req.content); err != nil {
				logrus.WithError(err).Fatal("mapgen: storing player key-value pair")
			}
		case getPlayerKVMsg:
			content, found, err := m.storage.GetPlayerKV(req.id, req.key)
			if err != nil {
				logrus.WithError(err).Fatal("mapgen: loading player key-value pair")
			}
			t.kvCh <- KVResult{ID: req.id, Payload: req.payload, Key: req.key, Content: content, Found: found}
		}
	}
}

// GenArea requests generation of every chunk in the inclusive chunk-space
// box [min,max]. Results stream back through RunForGeneratedChunks.
func (t *Thread) GenArea(min, max world.ChunkPos) {
	t.reqCh <- genAreaMsg{min: min, max: max}
}

// ChunkChanged persists data for pos without touching its generation
// phase, and should be called whenever a player mutates a block.
func (t *Thread) ChunkChanged(pos world.ChunkPos, data *world.ChunkData) {
	t.reqCh <- chunkChangedMsg{pos: pos, data: data}
}

// SetPlayerKV asynchronously persists one per-player key-value pair.
func (t *Thread) SetPlayerKV(id storage.PlayerIDKV, key string, content []byte) {
	t.reqCh <- setPlayerKVMsg{id: id, key: key, content: content}
}

// GetPlayerKV asynchronously requests one per-player key-value pair; the
// answer arrives via RunForKVResults tagged with payload.
func (t *Thread) GetPlayerKV(id storage.PlayerIDKV, key string, payload uint32) {
	t.reqCh <- getPlayerKVMsg{id: id, key: key, payload: payload}
}

// RunForGeneratedChunks drains every chunk result produced since the last
// call, invoking f for each, then signals the worker to flush storage.
// Intended to be called once per server tick.
func (t *Thread) RunForGeneratedChunks(f func(ChunkResult)) {
	for {
		select {
		case res := <-t.resultCh:
			f(res)
		default:
			t.reqCh <- tickMsg{}
			return
		}
	}
}

// RunForKVResults drains every pending GetPlayerKV answer, invoking f for
// each.
func (t *Thread) RunForKVResults(f func(KVResult)) {
	for {
		select {
		case res := <-t.kvCh:
			f(res)
		default:
			return
		}
	}
}

// Close stops the worker goroutine, after which no further requests may be
// sent.
func (t *Thread) Close() {
	close(t.reqCh)
	<-t.done
}
