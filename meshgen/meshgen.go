// Package meshgen turns one chunk's dense block array into the vertex
// buffers a renderer needs: an opaque buffer for blocky, axis-aligned faces
// and a transparent buffer for crossed (plant-style) sprites. It holds no
// rendering-backend state of its own (this module is headless) and is meant
// to be called from a single-threaded mesh worker that consumes
// (position, chunk) pairs, matching SPEC_FULL.md 4.9/4.10's client mesh
// pipeline.
//
// Grounded on original_source/mimas-meshgen/lib.rs in its entirety: the
// TextureIdCache/BlockTextureIds/MeshDrawStyle types, the zsig/rpush_face*
// vertex-emission formulas, the per-face-direction Walker run-length
// tracker, and the crossed-block bidirectional quad loop.
package meshgen

import "github.com/est31/mimas-go/gameparams"
import "github.com/est31/mimas-go/world"

// Vertex is one corner of one triangle, matching
// original_source/mimas-meshgen/lib.rs's Vertex (tex_ind, tex_pos, position,
// normal).
type Vertex struct {
	TexIndex uint16
	TexUV    [2]float32
	Position [3]float32
	Normal   [3]float32
}

// ChunkMesh holds the two vertex buffers produced for one chunk: a
// triangle list of blocky faces and a separate triangle list of crossed
// (plant) sprite quads, matching the reference's ChunkMesh{intransparent,
// transparent}.
type ChunkMesh struct {
	Opaque      []Vertex
	Transparent []Vertex
}

// BlockTextureIDs names the three texture indices a blocky block draws
// with, matching the reference's BlockTextureIds.
type BlockTextureIDs struct {
	Sides, Top, Bottom uint16
}

// TextureIDCache assigns a stable uint16 index to every distinct texture
// name referenced by a compiled parameter table, and records each block's
// draw style in terms of those indices. Built once per GameParams and
// reused across every chunk meshed against it, matching the reference's
// TextureIdCache::from_hdl.
type TextureIDCache struct {
	names []string
	index map[string]uint16

	hasBlocky  []bool
	blocky     []BlockTextureIDs
	hasCrossed []bool
	crossedTex []uint16
}

// NewTextureIDCache compiles params' per-block draw styles into a texture
// index table. Block IDs outside params.Blocks (there should be none in a
// well-formed chunk) are treated as having no texture, matching the
// reference's Vec::get-based out-of-range handling.
func NewTextureIDCache(params *gameparams.GameParams) *TextureIDCache {
	c := &TextureIDCache{index: make(map[string]uint16)}
	c.hasBlocky = make([]bool, len(params.Blocks))
	c.blocky = make([]BlockTextureIDs, len(params.Blocks))
	c.hasCrossed = make([]bool, len(params.Blocks))
	c.crossedTex = make([]uint16, len(params.Blocks))

	for id, bp := range params.Blocks {
		switch bp.DrawStyle {
		case gameparams.DrawBlocky:
			c.hasBlocky[id] = true
			c.blocky[id] = BlockTextureIDs{
				Sides:  c.intern(bp.TextureSides),
				Top:    c.intern(bp.TextureTop),
				Bottom: c.intern(bp.TextureBottom),
			}
		case gameparams.DrawCrossed:
			c.hasCrossed[id] = true
			c.crossedTex[id] = c.intern(bp.TextureTop)
		}
	}
	return c
}

func (c *TextureIDCache) intern(name string) uint16 {
	if id, ok := c.index[name]; ok {
		return id
	}
	id := uint16(len(c.names))
	c.names = append(c.names, name)
	c.index[name] = id
	return id
}

// TextureName resolves a texture index back to its name, for building the
// client's texture atlas.
func (c *TextureIDCache) TextureName(id uint16) (string, bool) {
	if int(id) < len(c.names) {
		return c.names[id], true
	}
	return "", false
}

func (c *TextureIDCache) blockTexIDs(b world.Block) (BlockTextureIDs, bool) {
	if int(b) >= len(c.hasBlocky) || !c.hasBlocky[b] {
		return BlockTextureIDs{}, false
	}
	return c.blocky[b], true
}

func (c *TextureIDCache) crossedTexID(b world.Block) (uint16, bool) {
	if int(b) >= len(c.hasCrossed) || !c.hasCrossed[b] {
		return 0, false
	}
	return c.crossedTex[b], true
}

// zsig is NOT f32's signum: for 0 it returns 0 rather than picking a sign,
// matching the reference's zsig (needed since face normals are built by
// summing axis deltas that are often exactly zero).
func zsig(v float32) float32 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}

func sign3(x, y, z float32) [3]float32 {
	return [3]float32{zsig(x), zsig(y), zsig(z)}
}

// appendFace pushes one quad as two triangles, matching rpush_face!.
func appendFace(dst []Vertex, x, y, z, xsd, ysd, yd, zd float32, texInd uint16) []Vertex {
	n := sign3(xsd, ysd+yd, zd)
	dst = append(dst,
		Vertex{TexIndex: texInd, TexUV: [2]float32{0, 0}, Position: [3]float32{x, y, z}, Normal: n},
		Vertex{TexIndex: texInd, TexUV: [2]float32{xsd + ysd, 0}, Position: [3]float32{x + xsd, y + ysd, z}, Normal: n},
		Vertex{TexIndex: texInd, TexUV: [2]float32{0, yd + zd}, Position: [3]float32{x, y + yd, z + zd}, Normal: n},

		Vertex{TexIndex: texInd, TexUV: [2]float32{xsd + ysd, 0}, Position: [3]float32{x + xsd, y + ysd, z}, Normal: n},
		Vertex{TexIndex: texInd, TexUV: [2]float32{xsd + ysd, yd + zd}, Position: [3]float32{x + xsd, y + yd + ysd, z + zd}, Normal: n},
		Vertex{TexIndex: texInd, TexUV: [2]float32{0, yd + zd}, Position: [3]float32{x, y + yd, z + zd}, Normal: n},
	)
	return dst
}

// appendFaceRev pushes the same quad with the opposite winding and negated
// normal, matching rpush_face_rev!.
func appendFaceRev(dst []Vertex, x, y, z, xsd, ysd, yd, zd float32, texInd uint16) []Vertex {
	n := sign3(-xsd, -ysd-yd, -zd)
	dst = append(dst,
		Vertex{TexIndex: texInd, TexUV: [2]float32{0, yd + zd}, Position: [3]float32{x, y + yd, z + zd}, Normal: n},
		Vertex{TexIndex: texInd, TexUV: [2]float32{xsd + ysd, 0}, Position: [3]float32{x + xsd, y + ysd, z}, Normal: n},
		Vertex{TexIndex: texInd, TexUV: [2]float32{0, 0}, Position: [3]float32{x, y, z}, Normal: n},

		Vertex{TexIndex: texInd, TexUV: [2]float32{0, yd + zd}, Position: [3]float32{x, y + yd, z + zd}, Normal: n},
		Vertex{TexIndex: texInd, TexUV: [2]float32{xsd + ysd, yd + zd}, Position: [3]float32{x + xsd, y + yd + ysd, z + zd}, Normal: n},
		Vertex{TexIndex: texInd, TexUV: [2]float32{xsd + ysd, 0}, Position: [3]float32{x + xsd, y + ysd, z}, Normal: n},
	)
	return dst
}

// appendFaceBidi pushes a double-sided quad (both windings, opposite
// normals), using a separate texture-edge length from the geometric edge
// length so a diagonal sprite quad still tiles its texture at the block's
// nominal size, matching rpush_face_bidi!.
func appendFaceBidi(dst []Vertex, x, y, z, xsd, ysd, yd, zd, xstd, ystd, ytd, ztd float32, texInd uint16) []Vertex {
	n := sign3(xsd, ysd+yd, zd)
	rn := sign3(-xsd, -ysd-yd, -zd)
	dst = append(dst,
		Vertex{TexIndex: texInd, TexUV: [2]float32{0, 0}, Position: [3]float32{x, y, z}, Normal: n},
		Vertex{TexIndex: texInd, TexUV: [2]float32{xstd + ystd, 0}, Position: [3]float32{x + xsd, y + ysd, z}, Normal: n},
		Vertex{TexIndex: texInd, TexUV: [2]float32{0, ytd + ztd}, Position: [3]float32{x, y + yd, z + zd}, Normal: n},

		Vertex{TexIndex: texInd, TexUV: [2]float32{xstd + ystd, 0}, Position: [3]float32{x + xsd, y + ysd, z}, Normal: n},
		Vertex{TexIndex: texInd, TexUV: [2]float32{xstd + ystd, ytd + ztd}, Position: [3]float32{x + xsd, y + yd + ysd, z + zd}, Normal: n},
		Vertex{TexIndex: texInd, TexUV: [2]float32{0, ytd + ztd}, Position: [3]float32{x, y + yd, z + zd}, Normal: n},

		Vertex{TexIndex: texInd, TexUV: [2]float32{0, ytd + ztd}, Position: [3]float32{x, y + yd, z + zd}, Normal: rn},
		Vertex{TexIndex: texInd, TexUV: [2]float32{xstd + ystd, 0}, Position: [3]float32{x + xsd, y + ysd, z}, Normal: rn},
		Vertex{TexIndex: texInd, TexUV: [2]float32{0, 0}, Position: [3]float32{x, y, z}, Normal: rn},

		Vertex{TexIndex: texInd, TexUV: [2]float32{0, ytd + ztd}, Position: [3]float32{x, y + yd, z + zd}, Normal: rn},
		Vertex{TexIndex: texInd, TexUV: [2]float32{xstd + ystd, ytd + ztd}, Position: [3]float32{x + xsd, y + yd + ysd, z + zd}, Normal: rn},
		Vertex{TexIndex: texInd, TexUV: [2]float32{xstd + ystd, 0}, Position: [3]float32{x + xsd, y + ysd, z}, Normal: rn},
	)
	return dst
}
