package mapgen

import (
	"testing"
	"time"

	"github.com/est31/mimas-go/gameparams"
	"github.com/est31/mimas-go/nameidmap"
	"github.com/est31/mimas-go/storage"
	"github.com/est31/mimas-go/world"
)

func testParams(t *testing.T) *gameparams.GameParams {
	t.Helper()
	cfg, err := gameparams.LoadDefault()
	if err != nil {
		t.Fatalf("LoadDefault: %v", err)
	}
	params, err := gameparams.Compile(cfg, nameidmap.New())
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	return params
}

func TestGenChunkPhaseOneIsDeterministic(t *testing.T) {
	params := testParams(t)
	m1 := NewMapgenMap(42, params, storage.NullBackend{})
	m2 := NewMapgenMap(42, params, storage.NullBackend{})

	pos := world.ChunkPos{X: 3, Y: -2, Z: 0}
	m1.genChunkPhaseOne(pos)
	m2.genChunkPhaseOne(pos)

	c1, ok1 := m1.GetChunk(pos)
	c2, ok2 := m2.GetChunk(pos)
	if !ok1 || !ok2 {
		t.Fatal("expected both chunks to be generated")
	}
	if c1.data.Blocks != c2.data.Blocks {
		t.Fatal("same seed and position produced different terrain")
	}
}

func TestGenChunkPhaseOneDifferentSeedsDiffer(t *testing.T) {
	params := testParams(t)
	m1 := NewMapgenMap(1, params, storage.NullBackend{})
	m2 := NewMapgenMap(2, params, storage.NullBackend{})

	pos := world.ChunkPos{X: 0, Y: 0, Z: 0}
	m1.genChunkPhaseOne(pos)
	m2.genChunkPhaseOne(pos)

	c1, _ := m1.GetChunk(pos)
	c2, _ := m2.GetChunk(pos)
	if c1.data.Blocks == c2.data.Blocks {
		t.Fatal("different seeds produced identical terrain, expected divergence")
	}
}

func TestGenChunkPhaseOneIsIdempotent(t *testing.T) {
	params := testParams(t)
	m := NewMapgenMap(7, params, storage.NullBackend{})
	pos := world.ChunkPos{X: 0, Y: 0, Z: 0}

	m.genChunkPhaseOne(pos)
	before, _ := m.GetChunk(pos)
	beforeBlocks := before.data.Blocks

	m.genChunkPhaseOne(pos)
	after, _ := m.GetChunk(pos)
	if after.data.Blocks != beforeBlocks {
		t.Fatal("regenerating an already-cached chunk mutated its contents")
	}
}

func TestGenChunksInAreaMarksDone(t *testing.T) {
	params := testParams(t)
	m := NewMapgenMap(99, params, storage.NullBackend{})

	var reported []world.ChunkPos
	min := world.ChunkPos{X: 0, Y: 0, Z: 0}
	max := world.ChunkPos{X: 1, Y: 1, Z: 1}
	m.genChunksInArea(min, max, func(pos world.ChunkPos, _ *world.ChunkData) {
		reported = append(reported, pos)
	})

	if len(reported) == 0 {
		t.Fatal("expected at least one chunk to be reported as generated")
	}
	for x := min.X; x <= max.X; x++ {
		for y := min.Y; y <= max.Y; y++ {
			for z := min.Z; z <= max.Z; z++ {
				pos := world.ChunkPos{X: x, Y: y, Z: z}
				c, ok := m.GetChunk(pos)
				if !ok {
					t.Fatalf("chunk %v was not generated", pos)
				}
				if c.phase != world.PhaseDone {
					t.Fatalf("chunk %v phase = %v, want Done", pos, c.phase)
				}
			}
		}
	}
}

func TestGenChunksInAreaSkipsWhenAlreadyDone(t *testing.T) {
	params := testParams(t)
	m := NewMapgenMap(5, params, storage.NullBackend{})

	min := world.ChunkPos{X: 0, Y: 0, Z: 0}
	max := world.ChunkPos{X: 1, Y: 1, Z: 1}
	callCount := 0
	report := func(world.ChunkPos, *world.ChunkData) { callCount++ }

	m.genChunksInArea(min, max, report)
	firstCount := callCount
	if firstCount == 0 {
		t.Fatal("expected the first pass to report the chunk")
	}

	m.genChunksInArea(min, max, report)
	if callCount != firstCount {
		t.Fatalf("second pass over an already-Done area reported again: %d calls", callCount-firstCount)
	}
}

func TestThreadGenAreaRoundTrip(t *testing.T) {
	params := testParams(t)
	th := NewThread(3, params, storage.NullBackend{})
	defer th.Close()

	min := world.ChunkPos{X: 0, Y: 0, Z: 0}
	max := world.ChunkPos{X: 1, Y: 1, Z: 1}
	th.GenArea(min, max)

	var got []ChunkResult
	for i := 0; i < 100 && len(got) < 8; i++ {
		th.RunForGeneratedChunks(func(r ChunkResult) { got = append(got, r) })
		if len(got) < 8 {
			time.Sleep(5 * time.Millisecond)
		}
	}

	if len(got) != 8 {
		t.Fatalf("got %d chunk results, want 8", len(got))
	}
	foundMin := false
	for _, r := range got {
		if r.Pos == min {
			foundMin = true
		}
	}
	if !foundMin {
		t.Fatalf("chunk results did not include %v", min)
	}
}

func TestThreadPlayerKVRoundTrip(t *testing.T) {
	params := testParams(t)
	backend, err := storage.OpenBadger(t.TempDir(), nameidmap.New())
	if err != nil {
		t.Fatalf("OpenBadger: %v", err)
	}
	defer backend.Close()

	th := NewThread(1, params, backend)
	defer th.Close()

	id := storage.PlayerIDKV{IDSrc: 0, ID: 1}
	th.SetPlayerKV(id, "pos", []byte{1, 2, 3})
	th.GetPlayerKV(id, "pos", 123)

	var got []KVResult
	for i := 0; i < 100 && len(got) == 0; i++ {
		th.RunForKVResults(func(r KVResult) { got = append(got, r) })
		if len(got) == 0 {
			time.Sleep(5 * time.Millisecond)
		}
	}

	if len(got) != 1 {
		t.Fatalf("got %d kv results, want 1", len(got))
	}
	if !got[0].Found || got[0].Payload != 123 {
		t.Fatalf("unexpected kv result: %+v", got[0])
	}
}
