package meshgen

import (
	"testing"

	"github.com/est31/mimas-go/gameparams"
	"github.com/est31/mimas-go/nameidmap"
	"github.com/est31/mimas-go/world"
	"github.com/stretchr/testify/require"
)

func testCache(t *testing.T) (*TextureIDCache, *gameparams.GameParams, *nameidmap.Map) {
	t.Helper()
	cfg, err := gameparams.LoadDefault()
	require.NoError(t, err)
	nm := nameidmap.New()
	params, err := gameparams.Compile(cfg, nm)
	require.NoError(t, err)
	return NewTextureIDCache(params), params, nm
}

func TestMeshForChunkIsolatedBlockEmitsSixFaces(t *testing.T) {
	cache, params, nm := testCache(t)
	stoneID, ok := nm.GetID("default:stone")
	require.True(t, ok, "default:stone missing from compiled params")
	require.Equal(t, gameparams.DrawBlocky, params.Block(stoneID).DrawStyle)

	chunk := world.NewChunkData()
	chunk.Set(8, 8, 8, stoneID)

	mesh := MeshForChunk(world.Pos{}, chunk, cache)

	const vertsPerFace = 6
	require.Len(t, mesh.Opaque, 6*vertsPerFace, "expected six faces on an isolated cube")
	require.Empty(t, mesh.Transparent, "a blocky block has no transparent geometry")
}

func TestMeshForChunkAdjacentSolidBlocksMergeIntoOneBox(t *testing.T) {
	cache, _, nm := testCache(t)
	stoneID, _ := nm.GetID("default:stone")

	chunk := world.NewChunkData()
	// Two stone blocks stacked along y: the shared face is occluded on
	// both sides, and every remaining face direction sweeps along y, so
	// the pair run-merges into a single 1x2x1 box with the same six-face
	// vertex count as one isolated cube.
	chunk.Set(4, 4, 4, stoneID)
	chunk.Set(4, 5, 4, stoneID)

	mesh := MeshForChunk(world.Pos{}, chunk, cache)

	const vertsPerFace = 6
	require.Len(t, mesh.Opaque, 6*vertsPerFace, "two y-merged adjacent cubes should mesh like one box")
}

func TestMeshForChunkCrossedBlockOnlyProducesTransparentGeometry(t *testing.T) {
	cache, params, nm := testCache(t)
	saplingID, ok := nm.GetID("default:sapling")
	require.True(t, ok, "default:sapling missing from compiled params")
	require.Equal(t, gameparams.DrawCrossed, params.Block(saplingID).DrawStyle)

	chunk := world.NewChunkData()
	chunk.Set(1, 1, 1, saplingID)

	mesh := MeshForChunk(world.Pos{}, chunk, cache)

	require.Empty(t, mesh.Opaque, "a crossed block has no opaque geometry")
	// Two diagonal quads, each bidirectional (front + back winding), six
	// vertices per triangle pair.
	const want = 2 * 2 * 6
	require.Len(t, mesh.Transparent, want)
}

func TestTextureIDCacheInternsTextureNamesOnce(t *testing.T) {
	cache, _, nm := testCache(t)
	stoneID, _ := nm.GetID("default:stone")
	ids, ok := cache.blockTexIDs(stoneID)
	require.True(t, ok, "expected default:stone to carry blocky texture ids")
	name, ok := cache.TextureName(ids.Top)
	require.True(t, ok)
	require.NotEmpty(t, name)
}
