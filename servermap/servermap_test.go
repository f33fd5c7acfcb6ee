package servermap

import (
	"testing"
	"time"

	"github.com/est31/mimas-go/gameparams"
	"github.com/est31/mimas-go/mapgen"
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

func waitForChunk(t *testing.T, m *Map, pos world.ChunkPos) *world.ChunkData {
	t.Helper()
	for i := 0; i < 100; i++ {
		m.Tick()
		if c, ok := m.GetChunk(pos); ok {
			return c
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("chunk %v never appeared", pos)
	return nil
}

func TestGenChunksInAreaPopulatesCache(t *testing.T) {
	params := testParams(t)
	thread := mapgen.NewThread(1, params, storage.NullBackend{})
	defer thread.Close()

	m := New(thread)
	var changed []world.ChunkPos
	m.RegisterOnChange(func(pos world.ChunkPos, _ *world.ChunkData) {
		changed = append(changed, pos)
	})

	pos := world.ChunkPos{X: 0, Y: 0, Z: 0}
	m.GenChunksInArea(pos, pos)
	waitForChunk(t, m, pos)

	if len(changed) == 0 {
		t.Fatal("expected the on-change callback to fire")
	}
}

func TestSetBlkRequiresLoadedChunk(t *testing.T) {
	params := testParams(t)
	thread := mapgen.NewThread(2, params, storage.NullBackend{})
	defer thread.Close()

	m := New(thread)
	pos := world.Pos{X: 1000, Y: 1000, Z: 1000}
	if m.SetBlk(pos, world.Air) {
		t.Fatal("expected SetBlk to fail on an unloaded chunk")
	}
}

func TestSetChunkAndGetBlkRoundTrip(t *testing.T) {
	params := testParams(t)
	thread := mapgen.NewThread(3, params, storage.NullBackend{})
	defer thread.Close()

	m := New(thread)
	cpos := world.ChunkPos{X: 2, Y: 0, Z: 0}
	data := world.NewChunkData()
	data.Set(5, 6, 7, params.StoneID)
	m.SetChunk(cpos, data)

	p := cpos.Origin().Add(world.Pos{X: 5, Y: 6, Z: 7})
	blk, ok := m.GetBlk(p)
	if !ok || blk != params.StoneID {
		t.Fatalf("GetBlk = (%v, %v), want (%v, true)", blk, ok, params.StoneID)
	}
}

func TestChunkPositionsAround(t *testing.T) {
	center := world.Pos{X: 40, Y: -20, Z: 0}
	min, max := ChunkPositionsAround(center, 2, 1)
	c := world.ChunkOf(center)
	if min != (world.ChunkPos{X: c.X - 2, Y: c.Y - 2, Z: c.Z - 1}) {
		t.Fatalf("min = %v", min)
	}
	if max != (world.ChunkPos{X: c.X + 2, Y: c.Y + 2, Z: c.Z + 1}) {
		t.Fatalf("max = %v", max)
	}
}
