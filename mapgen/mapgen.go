package mapgen

import (
	"github.com/est31/mimas-go/gameparams"
	"github.com/est31/mimas-go/storage"
	"github.com/est31/mimas-go/world"
	"github.com/sirupsen/logrus"
)

// treeSpawnPoint is a queued phase-two schematic insertion: the world
// position of the trunk's base, and whether it should be the desert
// (cactus) schematic rather than the tree one.
type treeSpawnPoint struct {
	pos      world.Pos
	inDesert bool
}

// MapChunk is one in-memory chunk plus its generation-phase marker and any
// tree/cactus spawn points queued for phase two.
type MapChunk struct {
	data            *world.ChunkData
	phase           world.Phase
	treeSpawnPoints []treeSpawnPoint
}

// GetBlk returns the block at the chunk-local coordinate.
func (c *MapChunk) GetBlk(x, y, z uint8) world.Block {
	return c.data.Get(x, y, z)
}

// SetBlk writes the block at the chunk-local coordinate.
func (c *MapChunk) SetBlk(x, y, z uint8, b world.Block) {
	c.data.Set(x, y, z, b)
}

// MapgenMap owns the in-memory chunk cache, the world seed, the compiled
// game parameters, and the storage backend chunks are loaded from and
// flushed to. It is not safe for concurrent use by itself; Thread
// serializes access to it on a dedicated goroutine.
type MapgenMap struct {
	seed    uint64
	params  *gameparams.GameParams
	chunks  map[world.ChunkPos]*MapChunk
	storage storage.Backend
}

// NewMapgenMap constructs an empty chunk cache over backend, seeded by
// seed and parameterized by params.
func NewMapgenMap(seed uint64, params *gameparams.GameParams, backend storage.Backend) *MapgenMap {
	return &MapgenMap{
		seed:    seed,
		params:  params,
		chunks:  make(map[world.ChunkPos]*MapChunk),
		storage: backend,
	}
}

// GetChunk returns the cached chunk at pos, if any.
func (m *MapgenMap) GetChunk(pos world.ChunkPos) (*MapChunk, bool) {
	c, ok := m.chunks[pos]
	return c, ok
}

// getBlkP1Mut returns a mutable pointer to the block at p, provided its
// chunk has at least reached phase one. Used by schematic placement, which
// may write into a neighbouring chunk that's only been phase-one generated
// so far.
func (m *MapgenMap) getBlkP1Mut(p world.Pos) (func(world.Block), bool) {
	cpos := world.ChunkOf(p)
	c, ok := m.chunks[cpos]
	if !ok {
		return nil, false
	}
	x, y, z := world.InChunk(p)
	return func(b world.Block) { c.SetBlk(x, y, z, b) }, true
}

// genChunkPhaseOne generates pos's basic terrain (elevation, stone/ground/
// water, ore veins, caves, biome-based ground cover, tree/plant spawn
// points) if it isn't already cached.
//
// Grounded line-for-line on original_source/mehlon-server/mapgen.rs's
// gen_chunk_phase_one: the same named noise fields, the same per-column
// elevation/ore/cave/biome/tree-density formulas, seeded by the same
// PCG32-derived labels.
func (m *MapgenMap) genChunkPhaseOne(pos world.ChunkPos) {
	if _, ok := m.chunks[pos]; ok {
		return
	}
	m.chunks[pos] = m.generatePhaseOne(pos)
}

func (m *MapgenMap) generatePhaseOne(pos world.ChunkPos) *MapChunk {
	p := m.params

	noise := newNoiseMag(DeriveSeed32(m.seed, "chn-base"), 0.02356, 8.3)
	mnoise := newNoiseMag(DeriveSeed32(m.seed, "chn-mcro"), 0.0018671, 23.27713)
	smnoise := newNoiseMag(DeriveSeed32(m.seed, "chn-smcr"), 0.00043571, 137.479131)
	ampnoise := newNoise(DeriveSeed32(m.seed, "chn-ampl"), 0.0023473)
	ampnoise2 := newNoise(DeriveSeed32(m.seed, "chn-ampt"), 0.0023473)
	tnoise := newNoise(DeriveSeed32(m.seed, "trenoise"), 0.0088971)
	mtnoise := newNoise(DeriveSeed32(m.seed, "mtrnoise"), 0.00093952)
	binoise := newNoiseMag(DeriveSeed32(m.seed, "biom-bas"), 0.0023881, 0.4)
	mbinoise := newNoiseMag(DeriveSeed32(m.seed, "biom-mac"), 0.00113881, 0.6)
	caNoise := newNoise(DeriveSeed32(m.seed, "nois-cav"), 0.052951)
	mcaNoise := newNoise(DeriveSeed32(m.seed, "mnoi-cav"), 0.0094951)

	ph := posHash(pos)
	tpcg := NewPCG32(DeriveSeed64(m.seed, "pcg-tree"), ph)

	type oreRng struct {
		ore   gameparams.OreParams
		noise *noise
		pcg   *PCG32
	}
	oreRngs := make([]oreRng, len(p.Ores))
	for i, ore := range p.Ores {
		oreRngs[i] = oreRng{
			ore:   ore,
			noise: newNoise(DeriveSeed32(m.seed, ore.NoiseSeed), ore.Freq),
			pcg:   NewPCG32(DeriveSeed64(m.seed, ore.PcgSeed), ph),
		}
	}

	type plantRng struct {
		plant gameparams.PlantParams
		pcg   *PCG32
	}
	plantRngs := make([]plantRng, len(p.Plants))
	for i, plant := range p.Plants {
		plantRngs[i] = plantRng{
			plant: plant,
			pcg:   NewPCG32(DeriveSeed64(m.seed, plant.PcgSeed), ph),
		}
	}

	chnk := &MapChunk{data: world.NewChunkData(), phase: world.PhaseOne}
	origin := pos.Origin()

	for lx := 0; lx < world.CHUNKSIZE; lx++ {
		for ly := 0; ly < world.CHUNKSIZE; ly++ {
			wx := float64(origin.X) + float64(lx)
			wy := float64(origin.Y) + float64(ly)

			smElev := smnoise.get2D(wx, wy)
			amp := 1.0 + ampnoise.get2D(wx, wy)*0.9
			amp2 := 0.6 + ampnoise2.get2D(wx, wy)*0.5
			baseNoise := amp*noise.get2D(wx, wy) + amp2*mnoise.get2D(wx, wy)
			elev := baseNoise + smElev
			elevBlocks := int64(elev)

			elevInChunk := elevBlocks - origin.Z
			els := clampInt64(elevInChunk-4, 0, world.CHUNKSIZE)
			elg := clampInt64(elevInChunk, 0, world.CHUNKSIZE)

			for lz := int64(0); lz < els; lz++ {
				chnk.SetBlk(uint8(lx), uint8(ly), uint8(lz), p.StoneID)

				wz := float64(origin.Z) + float64(lz)
				zAbs := origin.Z + lz

				for _, r := range oreRngs {
					limit := float64(r.ore.LimitA)
					if zAbs < r.ore.LimitBoundary {
						limit = float64(r.ore.LimitB)
					}
					if r.noise.get3D(wx, wy, wz) > limit {
						if r.pcg.NextF64() > float64(r.ore.PcgThresh) {
							chnk.SetBlk(uint8(lx), uint8(ly), uint8(lz), r.ore.Block)
						}
					}
				}

				var mcaveThresh float64
				if zAbs > -400 {
					mcaveThresh = 2.0
				} else {
					v := float64(zAbs+600) / 300.0
					if v < -0.502 {
						v = -0.502
					}
					if v > 0.0 {
						v = 0.0
					}
					mcaveThresh = 1.0 + v
				}
				caveBlock := mcaNoise.get3D(wx, wy, wz) > mcaveThresh || caNoise.get3D(wx, wy, wz) > 0.45
				if lz+10 < elevInChunk && caveBlock {
					chnk.SetBlk(uint8(lx), uint8(ly), uint8(lz), p.AirID)
				}
			}

			if pos.Z < 0 {
				for lz := els; lz < world.CHUNKSIZE; lz++ {
					chnk.SetBlk(uint8(lx), uint8(ly), uint8(lz), p.WaterID)
				}
				continue
			}

			groundBl, groundTop := p.GroundID, p.GroundTopID
			inDesert := false
			if binoise.get2D(wx, wy)+mbinoise.get2D(wx, wy) >= 0.3 {
				groundBl, groundTop = p.SandID, p.SandID
				inDesert = true
			}
			for lz := els; lz < elg; lz++ {
				chnk.SetBlk(uint8(lx), uint8(ly), uint8(lz), groundBl)
			}
			if elg > els {
				topZ := elg - 1
				if elevInChunk <= world.CHUNKSIZE {
					chnk.SetBlk(uint8(lx), uint8(ly), uint8(topZ), groundTop)
				}
			}
			if pos.Z == 0 && elg <= 0 {
				chnk.SetBlk(uint8(lx), uint8(ly), 0, p.WaterID)
			}
			if elg > 0 && elg < world.CHUNKSIZE {
				treeDensity := 0.4
				if inDesert {
					treeDensity = 0.1
				}
				macroDensity := mtnoise.get2D(wx, wy)
				if macroDensity < 0.0 {
					macroDensity = 0.0
				}
				localDensity := tnoise.get2D(wx, wy) + macroDensity

				spawningTree := false
				if localDensity > 1.0-treeDensity {
					limit := 0.91
					if inDesert {
						limit = 0.99
					}
					if tpcg.NextF64() > limit {
						spawningTree = true
						chnk.treeSpawnPoints = append(chnk.treeSpawnPoints, treeSpawnPoint{
							pos:      world.Pos{X: origin.X + int64(lx), Y: origin.Y + int64(ly), Z: origin.Z + elg},
							inDesert: inDesert,
						})
					}
				}

				if !spawningTree {
					for _, r := range plantRngs {
						if r.pcg.NextF64() > float64(r.plant.PcgLimit) {
							chnk.SetBlk(uint8(lx), uint8(ly), uint8(elg), r.plant.Block)
						}
					}
				}
			}
		}
	}
	return chnk
}

func clampInt64(v, lo, hi int64) int64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// genChunkPhaseTwo applies any queued tree/cactus schematics for pos and
// marks it phase two. It's a no-op if pos has already reached phase two.
func (m *MapgenMap) genChunkPhaseTwo(pos world.ChunkPos) {
	c, ok := m.chunks[pos]
	if !ok || c.phase >= world.PhaseTwo {
		return
	}
	c.phase = world.PhaseTwo
	points := c.treeSpawnPoints
	c.treeSpawnPoints = nil

	for _, pt := range points {
		schematic := m.params.TreeSchematic
		if pt.inDesert {
			schematic = m.params.CactusSchematic
		}
		for _, sb := range schematic {
			target := pt.pos.Add(sb.Offset)
			set, ok := m.getBlkP1Mut(target)
			if ok {
				set(sb.Block)
			}
		}
	}
}

// genChunksInArea is the three-pass area-generation algorithm: check
// whether anything in [posMin,posMax] (in chunk coordinates) is missing
// or undone, generate phase one over an expanded margin, apply phase two
// over a smaller margin, then mark every chunk in the exact requested
// area Done, persisting and reporting each newly-Done chunk via onChunk.
//
// Grounded on original_source/mehlon-server/mapgen.rs's
// gen_chunks_in_area (ex=2, s=2, t=1 expansion radii).
func (m *MapgenMap) genChunksInArea(posMin, posMax world.ChunkPos, onChunk func(world.ChunkPos, *world.ChunkData)) {
	const ex, s, t = 2, 2, 1

	somethingToGenerate := false
	for x := posMin.X - ex; x <= posMax.X+ex; x++ {
		for y := posMin.Y - ex; y <= posMax.Y+ex; y++ {
			for z := posMin.Z - ex; z <= posMax.Z+ex; z++ {
				pos := world.ChunkPos{X: x, Y: y, Z: z}
				inRequested := x >= posMin.X && x <= posMax.X && y >= posMin.Y && y <= posMax.Y && z >= posMin.Z && z <= posMax.Z
				if c, ok := m.chunks[pos]; ok {
					if inRequested && c.phase != world.PhaseDone {
						somethingToGenerate = true
					}
					continue
				}
				if data, found, err := m.storage.LoadChunk(pos); err == nil && found {
					c := &MapChunk{data: data, phase: world.PhaseDone}
					onChunk(pos, c.data)
					m.chunks[pos] = c
				} else if inRequested {
					somethingToGenerate = true
				}
			}
		}
	}
	if !somethingToGenerate {
		return
	}

	for x := posMin.X - s; x <= posMax.X+s; x++ {
		for y := posMin.Y - s; y <= posMax.Y+s; y++ {
			for z := posMin.Z - s; z <= posMax.Z+s; z++ {
				m.genChunkPhaseOne(world.ChunkPos{X: x, Y: y, Z: z})
			}
		}
	}
	for x := posMin.X - t; x <= posMax.X+t; x++ {
		for y := posMin.Y - t; y <= posMax.Y+t; y++ {
			for z := posMin.Z - t; z <= posMax.Z+t; z++ {
				m.genChunkPhaseTwo(world.ChunkPos{X: x, Y: y, Z: z})
			}
		}
	}
	for x := posMin.X; x <= posMax.X; x++ {
		for y := posMin.Y; y <= posMax.Y; y++ {
			for z := posMin.Z; z <= posMax.Z; z++ {
				pos := world.ChunkPos{X: x, Y: y, Z: z}
				c := m.chunks[pos]
				if c.phase != world.PhaseDone {
					c.phase = world.PhaseDone
					if err := m.storage.StoreChunk(pos, c.data); err != nil {
						logrus.WithError(err).WithField("chunk", pos).Fatal("mapgen: storing generated chunk")
					}
					onChunk(pos, c.data)
				}
			}
		}
	}
}
