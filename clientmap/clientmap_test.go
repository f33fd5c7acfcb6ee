package clientmap

import (
	"testing"
	"time"

	"github.com/est31/mimas-go/gameparams"
	"github.com/est31/mimas-go/meshgen"
	"github.com/est31/mimas-go/nameidmap"
	"github.com/est31/mimas-go/world"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCache(t *testing.T) (*meshgen.TextureIDCache, *nameidmap.Map) {
	t.Helper()
	cfg, err := gameparams.LoadDefault()
	require.NoError(t, err)
	nm := nameidmap.New()
	params, err := gameparams.Compile(cfg, nm)
	require.NoError(t, err)
	return meshgen.NewTextureIDCache(params), nm
}

func recvMesh(t *testing.T, m *Map, d time.Duration) MeshResult {
	t.Helper()
	select {
	case r := <-m.Results():
		return r
	case <-time.After(d):
		t.Fatal("no mesh result within timeout")
		return MeshResult{}
	}
}

func TestSetChunkStoresAndMeshesIt(t *testing.T) {
	cache, nm := testCache(t)
	stoneID, _ := nm.GetID("default:stone")

	m := New(cache)
	defer m.Close()

	chunk := world.NewChunkData()
	chunk.Set(0, 0, 0, stoneID)
	pos := world.ChunkPos{X: 1, Y: 2, Z: 3}
	m.SetChunk(pos, chunk)

	got, ok := m.GetChunk(pos)
	require.True(t, ok)
	assert.Same(t, chunk, got)

	res := recvMesh(t, m, time.Second)
	assert.Equal(t, pos, res.Pos)
	assert.NotEmpty(t, res.Mesh.Opaque, "expected a non-empty opaque mesh for a chunk containing stone")
}

func TestPredictPlaceBlockRequeuesMeshing(t *testing.T) {
	cache, nm := testCache(t)
	stoneID, _ := nm.GetID("default:stone")

	m := New(cache)
	defer m.Close()

	pos := world.ChunkPos{}
	m.SetChunk(pos, world.NewChunkData())
	recvMesh(t, m, time.Second) // drain the initial (empty) mesh

	require.True(t, m.PredictPlaceBlock(world.Pos{X: 0, Y: 0, Z: 0}, stoneID),
		"expected PredictPlaceBlock to succeed against a mirrored chunk")
	blk, ok := m.GetBlk(world.Pos{X: 0, Y: 0, Z: 0})
	require.True(t, ok)
	assert.Equal(t, stoneID, blk)

	res := recvMesh(t, m, time.Second)
	assert.NotEmpty(t, res.Mesh.Opaque, "expected remeshing after a predicted placement")
}

func TestPredictPlaceBlockFailsForUnmirroredChunk(t *testing.T) {
	cache, nm := testCache(t)
	stoneID, _ := nm.GetID("default:stone")

	m := New(cache)
	defer m.Close()

	assert.False(t, m.PredictPlaceBlock(world.Pos{X: 100, Y: 100, Z: 100}, stoneID),
		"expected PredictPlaceBlock to fail against an unmirrored chunk")
}

func TestDigTimerCompletesAfterItsDuration(t *testing.T) {
	var timer DigTimer
	pos := world.Pos{X: 1, Y: 2, Z: 3}
	timer.Start(pos, 100*time.Millisecond)

	_, done := timer.Tick(60 * time.Millisecond)
	assert.False(t, done, "expected the dig to still be in progress")

	p := timer.Progress(100 * time.Millisecond)
	assert.True(t, p > 0 && p < 1, "progress mid-dig = %v, want strictly between 0 and 1", p)

	donePos, done := timer.Tick(60 * time.Millisecond)
	require.True(t, done)
	assert.Equal(t, pos, donePos)

	_, active := timer.Active()
	assert.False(t, active, "expected the timer to be inactive after completion")
}

func TestComputeDigDurationPrefersSelectedToolOverHand(t *testing.T) {
	dg := gameparams.DigGroup{Group: "cracky", Hardness: 1.5}
	hand := []gameparams.ToolGroupEntry{{Group: "cracky", Speed: 1, MaxHardness: 3}}
	pick := []gameparams.ToolGroupEntry{{Group: "cracky", Speed: 4, MaxHardness: 3}}

	d, ok := ComputeDigDuration(dg, pick, hand)
	require.True(t, ok, "expected a matching tool group")
	assert.InDelta(t, 0.01+1.0/4.0, d.Seconds(), 0.001, "duration should reflect the picked tool, not the hand")
}

func TestComputeDigDurationFailsWhenTooHard(t *testing.T) {
	dg := gameparams.DigGroup{Group: "cracky", Hardness: 5}
	hand := []gameparams.ToolGroupEntry{{Group: "cracky", Speed: 1, MaxHardness: 3}}

	_, ok := ComputeDigDuration(dg, nil, hand)
	assert.False(t, ok, "expected digging to fail when hardness exceeds every group's threshold")
}
