// Package gameparams carries the block/tool/recipe/ore/plant definitions
// that parameterize a world: draw style, solidity, dig groups, schematics,
// and the texture content store. Definitions are loaded from an embedded
// default TOML document and may be overridden by a user-supplied one.
//
// Grounded on original_source/mimas-common/game_params.rs.
package gameparams

import "github.com/est31/mimas-go/world"

// DrawStyle describes how a block is meshed.
type DrawStyle int

const (
	// DrawInvisible is used for air and other non-rendered blocks.
	DrawInvisible DrawStyle = iota
	// DrawBlocky is the ordinary six-face cube style, greedily meshed.
	DrawBlocky
	// DrawCrossed is the "plant" style: two bidirectional diagonal quads.
	DrawCrossed
)

// DigGroup names the resistance class of a block (group id + hardness).
type DigGroup struct {
	Group    string
	Hardness float32
}

// ToolGroupEntry describes what a tool can dig, and at what speed.
type ToolGroupEntry struct {
	Group       string
	Speed       float32
	MaxHardness float32
}

// BlockParams is the per-ID set of properties the rest of the system reads.
type BlockParams struct {
	Name             string
	DrawStyle        DrawStyle
	TextureTop       string
	TextureSides     string
	TextureBottom    string
	Pointable        bool
	Placeable        bool
	Solid            bool
	Climbable        bool
	InventorySize    int // 0 means "no container"
	Drops            Stack
	DigGroup         DigGroup
	ToolGroups       []ToolGroupEntry
	OnPlacePlantsTree bool
}

// HasContainer reports whether this block carries a container inventory.
func (b BlockParams) HasContainer() bool {
	return b.InventorySize > 0
}

// Stack is the minimal (block, count) pair gameparams needs to describe a
// drop table; the authoritative Stack type with full arithmetic lives in
// package inventory. Kept separate so gameparams does not depend on
// inventory; drop lookups happen in package session.
type Stack struct {
	Block world.Block
	Count uint16
}

// SchematicBlock is one (relative offset, block) insertion of a schematic.
type SchematicBlock struct {
	Offset world.Pos
	Block  world.Block
}

// Recipe is a shaped crafting rule: an input grid (row-major, zero value
// meaning "must be empty") and an output stack.
type Recipe struct {
	Inputs []*world.Block // nil entries are "must be empty"
	Output Stack
}

// OreParams describes one ore's noise-driven placement rule.
type OreParams struct {
	Name          string
	Block         world.Block
	Freq          float64 // 3D noise frequency
	LimitBoundary int64   // z below this uses LimitB, else LimitA
	LimitA        float32 // noise threshold, at/above LimitBoundary
	LimitB        float32 // noise threshold, below LimitBoundary
	PcgThresh     float32 // per-candidate PCG draw threshold
	NoiseSeed     string  // 8-byte ASCII label for the noise field
	PcgSeed       string  // 8-byte ASCII label for the per-chunk PCG stream
}

// PlantParams describes one non-tree plant's spawn rule.
type PlantParams struct {
	Name     string
	Block    world.Block
	PcgLimit float32
	PcgSeed  string
}

// GameParams is the fully compiled, immutable parameter table for a running
// world. It is produced by Compile from a Config (the TOML-shaped document)
// and a NameIdMap.
type GameParams struct {
	Blocks  []BlockParams // indexed by world.Block
	Recipes []Recipe

	Ores   []OreParams
	Plants []PlantParams

	TreeSchematic   []SchematicBlock
	CactusSchematic []SchematicBlock

	// Built-in role IDs, resolved once at compile time.
	AirID       world.Block
	StoneID     world.Block
	WaterID     world.Block
	SandID      world.Block
	GroundID    world.Block
	GroundTopID world.Block

	// HandToolGroups describes what the empty hand can dig, and how fast.
	HandToolGroups []ToolGroupEntry

	// TextureDigests maps a texture filename to its SHA-256 hex digest, and
	// TextureBlobs maps a digest to its content bytes (the "hashed blob"
	// store referenced by GetHashedBlobs in the wire protocol).
	TextureDigests map[string]string
	TextureBlobs   map[string][]byte
}

// Block returns the params for id, or the zero value if id is out of range.
func (g *GameParams) Block(id world.Block) BlockParams {
	if int(id) >= len(g.Blocks) {
		return BlockParams{}
	}
	return g.Blocks[id]
}
