package gameparams

import (
	"embed"
	"fmt"

	"github.com/pelletier/go-toml/v2"

	"github.com/est31/mimas-go/nameidmap"
	"github.com/est31/mimas-go/world"
)

//go:embed data/default.toml
var embeddedFS embed.FS

// Config is the TOML-shaped document game params are loaded from: an
// embedded default, optionally overridden by a user-supplied document with
// the same shape. OverrideDefault, if true, discards the embedded default
// entirely before merging the user document in.
type Config struct {
	OverrideDefault bool `toml:"override-default"`

	Blocks []BlockConfig `toml:"block"`
	Recipe []RecipeConfig `toml:"recipe"`
	Ore    []OreConfig    `toml:"ore"`
	Plant  []PlantConfig  `toml:"plant"`

	Schematics SchematicsConfig `toml:"schematics"`
}

type BlockConfig struct {
	Name              string   `toml:"name"`
	DrawStyle         string   `toml:"draw_style"` // "blocky" | "crossed" | "invisible"
	TextureTop        string   `toml:"texture_top"`
	TextureSides      string   `toml:"texture_sides"`
	TextureBottom     string   `toml:"texture_bottom"`
	Pointable         bool     `toml:"pointable"`
	Placeable         bool     `toml:"placeable"`
	Solid             bool     `toml:"solid"`
	Climbable         bool     `toml:"climbable"`
	InventorySize     int      `toml:"inventory_size"`
	DropName          string   `toml:"drop_name"`
	DropCount         uint16   `toml:"drop_count"`
	DigGroup          string   `toml:"dig_group"`
	DigHardness       float32  `toml:"dig_hardness"`
	OnPlacePlantsTree bool     `toml:"on_place_plants_tree"`
}

type RecipeConfig struct {
	// Inputs is a 1-D row-major list; "" denotes an empty cell. The grid
	// size is the integer square root of len(Inputs).
	Inputs     []string `toml:"inputs"`
	OutputName string   `toml:"output_name"`
	OutputCount uint16  `toml:"output_count"`
}

type OreConfig struct {
	Name          string  `toml:"name"`
	Block         string  `toml:"block"`
	Freq          float64 `toml:"freq"`
	LimitBoundary int64   `toml:"limit_boundary"`
	LimitA        float32 `toml:"limit_a"`
	LimitB        float32 `toml:"limit_b"`
	PcgThresh     float32 `toml:"pcg_thresh"`
	NoiseSeed     string  `toml:"noise_seed"`
	PcgSeed       string  `toml:"pcg_seed"`
}

type PlantConfig struct {
	Name     string  `toml:"name"`
	Block    string  `toml:"block"`
	PcgLimit float32 `toml:"pcg_limit"`
	PcgSeed  string  `toml:"pcg_seed"`
}

type SchematicsConfig struct {
	Tree    []SchematicBlockConfig `toml:"tree"`
	Cactus  []SchematicBlockConfig `toml:"cactus"`
}

type SchematicBlockConfig struct {
	X     int64  `toml:"x"`
	Y     int64  `toml:"y"`
	Z     int64  `toml:"z"`
	Block string `toml:"block"`
}

// LoadDefault parses the module's embedded default game params document.
func LoadDefault() (Config, error) {
	data, err := embeddedFS.ReadFile("data/default.toml")
	if err != nil {
		return Config{}, fmt.Errorf("reading embedded default game params: %w", err)
	}
	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing embedded default game params: %w", err)
	}
	return cfg, nil
}

// LoadOverride parses a user-supplied game params TOML document.
func LoadOverride(data []byte) (Config, error) {
	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing game params override: %w", err)
	}
	return cfg, nil
}

// Merge layers override on top of base. If override.OverrideDefault is set,
// base's declarations are dropped entirely; otherwise override's entries
// are appended after base's (later entries win on name collision only at
// block-compile time, not here), except schematics: those are always
// base's, and override's schematics are dropped.
func Merge(base, override Config) Config {
	if override.OverrideDefault {
		return override
	}
	return Config{
		Blocks:     append(append([]BlockConfig{}, base.Blocks...), override.Blocks...),
		Recipe:     append(append([]RecipeConfig{}, base.Recipe...), override.Recipe...),
		Ore:        append(append([]OreConfig{}, base.Ore...), override.Ore...),
		Plant:      append(append([]PlantConfig{}, base.Plant...), override.Plant...),
		Schematics: base.Schematics,
	}
}

// Compile resolves a Config's textual block names against m (appending new
// names as needed, per the name-ID map's append-only discipline) and
// produces a runtime GameParams table.
func Compile(cfg Config, m *nameidmap.Map) (*GameParams, error) {
	g := &GameParams{
		TextureDigests: make(map[string]string),
		TextureBlobs:   make(map[string][]byte),
	}

	if _, err := m.GetOrExtend("default:air"); err != nil {
		return nil, fmt.Errorf("registering air: %w", err)
	}

	nameToID := make(map[string]world.Block)
	maxID := world.Block(0)
	for _, bc := range cfg.Blocks {
		id, err := m.GetOrExtend(bc.Name)
		if err != nil {
			return nil, fmt.Errorf("registering block %q: %w", bc.Name, err)
		}
		nameToID[bc.Name] = id
		if id > maxID {
			maxID = id
		}
	}
	nameToID["default:air"] = world.Air

	g.Blocks = make([]BlockParams, int(maxID)+1)
	g.Blocks[world.Air] = BlockParams{Name: "default:air", DrawStyle: DrawInvisible}

	for _, bc := range cfg.Blocks {
		id := nameToID[bc.Name]
		var style DrawStyle
		switch bc.DrawStyle {
		case "crossed":
			style = DrawCrossed
		case "invisible":
			style = DrawInvisible
		default:
			style = DrawBlocky
		}
		var drop Stack
		if bc.DropName != "" {
			dropID, ok := nameToID[bc.DropName]
			if !ok {
				return nil, fmt.Errorf("block %q drops unknown block %q", bc.Name, bc.DropName)
			}
			count := bc.DropCount
			if count == 0 {
				count = 1
			}
			drop = Stack{Block: dropID, Count: count}
		}
		g.Blocks[id] = BlockParams{
			Name:              bc.Name,
			DrawStyle:         style,
			TextureTop:        bc.TextureTop,
			TextureSides:      bc.TextureSides,
			TextureBottom:     bc.TextureBottom,
			Pointable:         bc.Pointable,
			Placeable:         bc.Placeable,
			Solid:             bc.Solid,
			Climbable:         bc.Climbable,
			InventorySize:     bc.InventorySize,
			Drops:             drop,
			DigGroup:          DigGroup{Group: bc.DigGroup, Hardness: bc.DigHardness},
			OnPlacePlantsTree: bc.OnPlacePlantsTree,
		}
	}

	for _, rc := range cfg.Recipe {
		inputs := make([]*world.Block, len(rc.Inputs))
		for i, name := range rc.Inputs {
			if name == "" {
				continue
			}
			id, ok := nameToID[name]
			if !ok {
				return nil, fmt.Errorf("recipe references unknown block %q", name)
			}
			idCopy := id
			inputs[i] = &idCopy
		}
		outID, ok := nameToID[rc.OutputName]
		if !ok {
			return nil, fmt.Errorf("recipe output references unknown block %q", rc.OutputName)
		}
		count := rc.OutputCount
		if count == 0 {
			count = 1
		}
		g.Recipes = append(g.Recipes, Recipe{
			Inputs: inputs,
			Output: Stack{Block: outID, Count: count},
		})
	}

	for _, oc := range cfg.Ore {
		id, ok := nameToID[oc.Block]
		if !ok {
			return nil, fmt.Errorf("ore %q references unknown block %q", oc.Name, oc.Block)
		}
		g.Ores = append(g.Ores, OreParams{
			Name: oc.Name, Block: id, Freq: oc.Freq, LimitBoundary: oc.LimitBoundary,
			LimitA: oc.LimitA, LimitB: oc.LimitB,
			PcgThresh: oc.PcgThresh, NoiseSeed: oc.NoiseSeed, PcgSeed: oc.PcgSeed,
		})
	}

	for _, pc := range cfg.Plant {
		id, ok := nameToID[pc.Block]
		if !ok {
			return nil, fmt.Errorf("plant %q references unknown block %q", pc.Name, pc.Block)
		}
		g.Plants = append(g.Plants, PlantParams{
			Name: pc.Name, Block: id, PcgLimit: pc.PcgLimit, PcgSeed: pc.PcgSeed,
		})
	}

	resolveSchematic := func(blocks []SchematicBlockConfig) ([]SchematicBlock, error) {
		out := make([]SchematicBlock, 0, len(blocks))
		for _, b := range blocks {
			id, ok := nameToID[b.Block]
			if !ok {
				return nil, fmt.Errorf("schematic references unknown block %q", b.Block)
			}
			out = append(out, SchematicBlock{
				Offset: world.Pos{X: b.X, Y: b.Y, Z: b.Z},
				Block:  id,
			})
		}
		return out, nil
	}
	var err error
	if g.TreeSchematic, err = resolveSchematic(cfg.Schematics.Tree); err != nil {
		return nil, err
	}
	if g.CactusSchematic, err = resolveSchematic(cfg.Schematics.Cactus); err != nil {
		return nil, err
	}

	g.AirID = world.Air
	if id, ok := nameToID["default:stone"]; ok {
		g.StoneID = id
	}
	if id, ok := nameToID["default:water"]; ok {
		g.WaterID = id
	}
	if id, ok := nameToID["default:sand"]; ok {
		g.SandID = id
	}
	if id, ok := nameToID["default:dirt"]; ok {
		g.GroundID = id
	}
	if id, ok := nameToID["default:grass"]; ok {
		g.GroundTopID = id
	}

	return g, nil
}
