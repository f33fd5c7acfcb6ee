package storage

import (
	"testing"

	"github.com/est31/mimas-go/nameidmap"
	"github.com/est31/mimas-go/world"
)

func newTestMap(t *testing.T) *nameidmap.Map {
	t.Helper()
	m := nameidmap.New()
	if _, err := m.GetOrExtend("default:air"); err != nil {
		t.Fatal(err)
	}
	if _, err := m.GetOrExtend("default:stone"); err != nil {
		t.Fatal(err)
	}
	return m
}

func TestChunkCodecRoundTrip(t *testing.T) {
	m := newTestMap(t)
	stone, _ := m.GetID("default:stone")

	data := world.NewChunkData()
	data.Set(1, 2, 3, stone)
	data.SetMeta(1, 2, 3, world.MetadataEntry{Inventory: []byte{0, 0, 0, 0, 0, 0}})

	encoded, err := encodeChunk(data)
	if err != nil {
		t.Fatalf("encodeChunk: %v", err)
	}
	decoded, err := decodeChunk(encoded, m)
	if err != nil {
		t.Fatalf("decodeChunk: %v", err)
	}
	if decoded.Get(1, 2, 3) != stone {
		t.Fatalf("decoded block = %v, want %v", decoded.Get(1, 2, 3), stone)
	}
	if _, ok := decoded.Meta(1, 2, 3); !ok {
		t.Fatal("expected metadata to survive round trip")
	}
}

func TestBadgerBackendChunkRoundTrip(t *testing.T) {
	m := newTestMap(t)
	stone, _ := m.GetID("default:stone")

	b, err := OpenBadger(t.TempDir(), m)
	if err != nil {
		t.Fatalf("OpenBadger: %v", err)
	}
	defer b.Close()

	pos := world.ChunkPos{X: 1, Y: -2, Z: 3}
	data := world.NewChunkData()
	data.Set(0, 0, 0, stone)

	if err := b.StoreChunk(pos, data); err != nil {
		t.Fatalf("StoreChunk: %v", err)
	}
	if err := b.Tick(); err != nil {
		t.Fatalf("Tick: %v", err)
	}

	loaded, ok, err := b.LoadChunk(pos)
	if err != nil || !ok {
		t.Fatalf("LoadChunk: ok=%v err=%v", ok, err)
	}
	if loaded.Get(0, 0, 0) != stone {
		t.Fatalf("loaded block = %v, want %v", loaded.Get(0, 0, 0), stone)
	}

	_, ok, err = b.LoadChunk(world.ChunkPos{X: 99, Y: 99, Z: 99})
	if err != nil || ok {
		t.Fatalf("expected miss for unstored chunk, got ok=%v err=%v", ok, err)
	}
}

func TestBadgerBackendGlobalAndPlayerKV(t *testing.T) {
	m := newTestMap(t)
	b, err := OpenBadger(t.TempDir(), m)
	if err != nil {
		t.Fatalf("OpenBadger: %v", err)
	}
	defer b.Close()

	if err := b.SetGlobalKV("mapgen_seed", []byte("1234")); err != nil {
		t.Fatal(err)
	}
	v, ok, err := b.GetGlobalKV("mapgen_seed")
	if err != nil || !ok || string(v) != "1234" {
		t.Fatalf("got (%q,%v,%v), want (1234,true,nil)", v, ok, err)
	}

	id := PlayerIDKV{IDSrc: 0, ID: 42}
	if err := b.SetPlayerKV(id, "position", []byte("pos")); err != nil {
		t.Fatal(err)
	}
	v, ok, err = b.GetPlayerKV(id, "position")
	if err != nil || !ok || string(v) != "pos" {
		t.Fatalf("got (%q,%v,%v), want (pos,true,nil)", v, ok, err)
	}
}

func TestNameIDMapLoadSaveRoundTrip(t *testing.T) {
	backend := NullBackend{}
	m, err := LoadNameIDMap(backend, []string{"default:air", "default:stone"})
	if err != nil {
		t.Fatalf("LoadNameIDMap: %v", err)
	}
	if m.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", m.Len())
	}

	b, err := OpenBadger(t.TempDir(), m)
	if err != nil {
		t.Fatalf("OpenBadger: %v", err)
	}
	defer b.Close()
	if err := SaveNameIDMap(b, m); err != nil {
		t.Fatalf("SaveNameIDMap: %v", err)
	}
	loaded, err := LoadNameIDMap(b, nil)
	if err != nil {
		t.Fatalf("LoadNameIDMap after save: %v", err)
	}
	if loaded.Len() != m.Len() {
		t.Fatalf("loaded Len() = %d, want %d", loaded.Len(), m.Len())
	}
}

func TestBatchedWritesCommitAfterThreshold(t *testing.T) {
	m := newTestMap(t)
	b, err := OpenBadger(t.TempDir(), m)
	if err != nil {
		t.Fatalf("OpenBadger: %v", err)
	}
	defer b.Close()

	for i := 0; i < writesPerTransaction+5; i++ {
		if err := b.SetGlobalKV("k", []byte("v")); err != nil {
			t.Fatalf("write %d: %v", i, err)
		}
	}
	if b.pending != 5 {
		t.Fatalf("pending = %d after %d writes, want 5 (first %d committed)", b.pending, writesPerTransaction+5, writesPerTransaction)
	}
	if err := b.Tick(); err != nil {
		t.Fatalf("Tick: %v", err)
	}
	v, ok, err := b.GetGlobalKV("k")
	if err != nil || !ok || string(v) != "v" {
		t.Fatalf("got (%q,%v,%v)", v, ok, err)
	}
}
