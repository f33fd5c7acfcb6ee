package gameparams

import (
	"testing"

	"github.com/est31/mimas-go/nameidmap"
	"github.com/est31/mimas-go/world"
)

func TestLoadDefaultCompiles(t *testing.T) {
	cfg, err := LoadDefault()
	if err != nil {
		t.Fatalf("LoadDefault: %v", err)
	}
	if len(cfg.Blocks) == 0 {
		t.Fatal("expected embedded default to declare blocks")
	}

	m := nameidmap.New()
	g, err := Compile(cfg, m)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if g.Block(world.Air).DrawStyle != DrawInvisible {
		t.Fatal("air must be invisible")
	}
	stoneID, ok := m.GetID("default:stone")
	if !ok {
		t.Fatal("expected default:stone to be registered")
	}
	stone := g.Block(stoneID)
	if !stone.Solid || !stone.Placeable {
		t.Errorf("default:stone params = %+v, want solid+placeable", stone)
	}
	if len(g.TreeSchematic) == 0 {
		t.Error("expected tree schematic to be populated")
	}
	if len(g.Ores) == 0 {
		t.Error("expected ore table to be populated")
	}
}

func TestMergeOverrideDefaultDiscardsBase(t *testing.T) {
	base, err := LoadDefault()
	if err != nil {
		t.Fatalf("LoadDefault: %v", err)
	}
	override := Config{
		OverrideDefault: true,
		Blocks: []BlockConfig{
			{Name: "custom:only", DrawStyle: "blocky", Solid: true, Placeable: true},
		},
	}
	merged := Merge(base, override)
	if len(merged.Blocks) != 1 {
		t.Fatalf("override-default merge kept %d blocks, want 1", len(merged.Blocks))
	}
}

func TestMergeWithoutOverrideAppends(t *testing.T) {
	base, err := LoadDefault()
	if err != nil {
		t.Fatalf("LoadDefault: %v", err)
	}
	override := Config{
		Blocks: []BlockConfig{
			{Name: "custom:extra", DrawStyle: "blocky", Solid: true, Placeable: true},
		},
	}
	merged := Merge(base, override)
	if len(merged.Blocks) != len(base.Blocks)+1 {
		t.Fatalf("merged block count = %d, want %d", len(merged.Blocks), len(base.Blocks)+1)
	}
}
