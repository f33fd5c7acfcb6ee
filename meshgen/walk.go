package meshgen

import "github.com/est31/mimas-go/world"

// faceWalker tracks a run of identical texture indices along a chunk's
// sweep axis, emitting one merged quad each time the run ends or changes,
// matching the reference's Walker<TextureId>.
type faceWalker struct {
	hasLast  bool
	lastV    float32
	lastItem uint16
}

// next feeds one sweep-axis sample (v, item) through the walker. item is
// nil when this block has no visible face here. emit is called with the
// run's texture index, its start coordinate, and its length whenever a run
// ends, matching Walker::next.
func (w *faceWalker) next(v float32, item *uint16, emit func(item uint16, lastV, length float32)) {
	switch {
	case item == nil && w.hasLast:
		emit(w.lastItem, w.lastV, v-w.lastV)
		w.hasLast = false
	case item != nil && w.hasLast:
		if *item != w.lastItem {
			emit(w.lastItem, w.lastV, v-w.lastV)
			w.lastV, w.lastItem = v, *item
		}
	case item != nil && !w.hasLast:
		w.hasLast = true
		w.lastV, w.lastItem = v, *item
	default:
		// No item and no run in progress: nothing to do.
	}
}

const chunkSize = world.CHUNKSIZE

// inChunk reports whether x, y, z each lie within [0, chunkSize).
func inChunk(x, y, z int) bool {
	return x >= 0 && x < chunkSize && y >= 0 && y < chunkSize && z >= 0 && z < chunkSize
}

// blocked reports whether the neighbor of (x,y,z) offset by (dx,dy,dz)
// occludes a face drawn on that side: out-of-chunk neighbors never occlude
// (so chunk-boundary faces are always emitted), and only blocky blocks
// occlude, matching the reference's blocked().
func blocked(chunk *world.ChunkData, cache *TextureIDCache, x, y, z, dx, dy, dz int) bool {
	nx, ny, nz := x+dx, y+dy, z+dz
	if !inChunk(nx, ny, nz) {
		return false
	}
	blk := chunk.Get(uint8(nx), uint8(ny), uint8(nz))
	_, ok := cache.blockTexIDs(blk)
	return ok
}

// getTexInd resolves the outward-facing texture index of the blocky block
// at (x,y,z) in the (dx,dy,dz) direction, or reports ok=false if this
// block has no blocky texture at all or its neighbor in that direction
// occludes the face, matching the reference's get_tex_ind.
func getTexInd(chunk *world.ChunkData, cache *TextureIDCache, x, y, z, dx, dy, dz int, face func(BlockTextureIDs) uint16) (uint16, bool) {
	blk := chunk.Get(uint8(x), uint8(y), uint8(z))
	ids, ok := cache.blockTexIDs(blk)
	if !ok {
		return 0, false
	}
	if blocked(chunk, cache, x, y, z, dx, dy, dz) {
		return 0, false
	}
	return face(ids), true
}

// walkForAllBlocks sweeps every (c1, c2) column of a chunk along a fixed
// direction, feeding the per-block texture index into a faceWalker and
// flushing a final run past the chunk boundary, matching the reference's
// walk_for_all_blocks.
func walkForAllBlocks(chunk *world.ChunkData, cache *TextureIDCache,
	coordFn func(c1, c2, cinner int) (x, y, z int),
	face func(BlockTextureIDs) uint16,
	dx, dy, dz int,
	emit func(w *faceWalker, tex *uint16, x, y, z int),
) {
	for c1 := 0; c1 < chunkSize; c1++ {
		for c2 := 0; c2 < chunkSize; c2++ {
			var w faceWalker
			for cinner := 0; cinner < chunkSize; cinner++ {
				x, y, z := coordFn(c1, c2, cinner)
				tex, ok := getTexInd(chunk, cache, x, y, z, dx, dy, dz, face)
				var texPtr *uint16
				if ok {
					t := tex
					texPtr = &t
				}
				emit(&w, texPtr, x, y, z)
			}
			x, y, z := coordFn(c1, c2, chunkSize)
			emit(&w, nil, x, y, z)
		}
	}
}

func faceSides(b BlockTextureIDs) uint16  { return b.Sides }
func faceTop(b BlockTextureIDs) uint16    { return b.Top }
func faceBottom(b BlockTextureIDs) uint16 { return b.Bottom }

// MeshForChunk greedily meshes one chunk: six passes (one per axis-aligned
// face direction) each run-merge texture-identical faces along one sweep
// axis into a single quad, followed by one pass emitting a bidirectional
// sprite quad pair for every crossed (plant) block. offs is the chunk's
// origin in block coordinates. Matches the reference's mesh_for_chunk.
func MeshForChunk(offs world.Pos, chunk *world.ChunkData, cache *TextureIDCache) ChunkMesh {
	var r []Vertex
	const siz = 1.0

	ox, oy, oz := float32(offs.X), float32(offs.Y), float32(offs.Z)

	// Bottom face (-z neighbor), unify over y.
	walkForAllBlocks(chunk, cache,
		func(c1, c2, cinner int) (int, int, int) { return c1, cinner, c2 },
		faceBottom, 0, 0, -1,
		func(w *faceWalker, tex *uint16, x, y, z int) {
			w.next(float32(y), tex, func(t uint16, lastY, yLen float32) {
				fx, fz := float32(x), float32(z)
				r = appendFace(r, ox+fx, oy+lastY, oz+fz, siz, 0, yLen, 0, t)
			})
		},
	)

	// -Y side face, unify over x.
	walkForAllBlocks(chunk, cache,
		func(c1, c2, cinner int) (int, int, int) { return cinner, c1, c2 },
		faceSides, 0, -1, 0,
		func(w *faceWalker, tex *uint16, x, y, z int) {
			w.next(float32(x), tex, func(t uint16, lastX, xLen float32) {
				fy, fz := float32(y), float32(z)
				r = appendFaceRev(r, ox+lastX, oy+fy, oz+fz, xLen, 0, 0, siz, t)
			})
		},
	)

	// -X side face, unify over y.
	walkForAllBlocks(chunk, cache,
		func(c1, c2, cinner int) (int, int, int) { return c1, cinner, c2 },
		faceSides, -1, 0, 0,
		func(w *faceWalker, tex *uint16, x, y, z int) {
			w.next(float32(y), tex, func(t uint16, lastY, yLen float32) {
				fx, fz := float32(x), float32(z)
				r = appendFace(r, ox+fx, oy+lastY, oz+fz, 0, siz, 0, yLen, t)
			})
		},
	)

	// Top face (+z neighbor), unify over y.
	walkForAllBlocks(chunk, cache,
		func(c1, c2, cinner int) (int, int, int) { return c1, cinner, c2 },
		faceTop, 0, 0, 1,
		func(w *faceWalker, tex *uint16, x, y, z int) {
			w.next(float32(y), tex, func(t uint16, lastY, yLen float32) {
				fx, fz := float32(x), float32(z)
				r = appendFaceRev(r, ox+fx, oy+lastY, oz+fz+siz, siz, 0, yLen, 0, t)
			})
		},
	)

	// +Y side face, unify over x.
	walkForAllBlocks(chunk, cache,
		func(c1, c2, cinner int) (int, int, int) { return cinner, c1, c2 },
		faceSides, 0, 1, 0,
		func(w *faceWalker, tex *uint16, x, y, z int) {
			w.next(float32(x), tex, func(t uint16, lastX, xLen float32) {
				fy, fz := float32(y), float32(z)
				r = appendFace(r, ox+lastX, oy+fy+siz, oz+fz, xLen, 0, 0, siz, t)
			})
		},
	)

	// +X side face, unify over y.
	walkForAllBlocks(chunk, cache,
		func(c1, c2, cinner int) (int, int, int) { return c1, cinner, c2 },
		faceSides, 1, 0, 0,
		func(w *faceWalker, tex *uint16, x, y, z int) {
			w.next(float32(y), tex, func(t uint16, lastY, yLen float32) {
				fx, fz := float32(x), float32(z)
				r = appendFaceRev(r, ox+fx+siz, oy+lastY, oz+fz, 0, yLen, 0, siz, t)
			})
		},
	)

	var rt []Vertex
	for x := 0; x < chunkSize; x++ {
		for y := 0; y < chunkSize; y++ {
			for z := 0; z < chunkSize; z++ {
				blk := chunk.Get(uint8(x), uint8(y), uint8(z))
				tex, ok := cache.crossedTexID(blk)
				if !ok {
					continue
				}

				const sq = siz * 0.7071068 // siz * sqrt(2) / 2
				const sqh = sq * 0.5
				const tsiz = siz * 0.5

				fx := ox + float32(x) + 0.5*siz
				fy := oy + float32(y) + 0.5*siz
				fz := oz + float32(z)

				// X-Z diagonal.
				rt = appendFaceBidi(rt, fx-sqh, fy-sqh, fz, sq, sq, 0, siz*0.95, tsiz, tsiz, 0, siz*0.95, tex)
				// Y-Z diagonal.
				rt = appendFaceBidi(rt, fx+sqh, fy-sqh, fz, -sq, sq, 0, siz*0.95, tsiz, tsiz, 0, siz*0.95, tex)
			}
		}
	}

	return ChunkMesh{Opaque: r, Transparent: rt}
}
