package crafting

import (
	"testing"

	"github.com/est31/mimas-go/gameparams"
	"github.com/est31/mimas-go/inventory"
	"github.com/est31/mimas-go/world"
)

func blockPtr(b world.Block) *world.Block { return &b }

func TestMatchesExactSizeGrid(t *testing.T) {
	wood := world.Block(5)
	plank := world.Block(6)
	recipe := gameparams.Recipe{
		Inputs: []*world.Block{
			blockPtr(wood), blockPtr(wood),
			blockPtr(wood), blockPtr(wood),
		},
		Output: gameparams.Stack{Block: plank, Count: 4},
	}
	params := &gameparams.GameParams{Recipes: []gameparams.Recipe{recipe}}

	inv := inventory.EmptyWithSize(4)
	inv.SetSlot(0, inventory.With(wood, 1))
	inv.SetSlot(1, inventory.With(wood, 1))
	inv.SetSlot(2, inventory.With(wood, 1))
	inv.SetSlot(3, inventory.With(wood, 1))

	block, count, ok := Craft(inv, params)
	if !ok || block != plank || count != 4 {
		t.Fatalf("Craft = (%v,%v,%v), want (%v,4,true)", block, count, ok, plank)
	}
}

// TestRecipeTranslationInvariance matches SPEC_FULL.md §8 property 7: a
// recipe that matches in a 2x2 corner of a 3x3 grid also matches when the
// same shape is shifted to any other corner, as long as the rest of the
// grid stays empty.
func TestRecipeTranslationInvariance(t *testing.T) {
	wood := world.Block(5)
	plank := world.Block(6)
	recipe := gameparams.Recipe{
		Inputs: []*world.Block{
			blockPtr(wood), blockPtr(wood),
			blockPtr(wood), nil,
		},
		Output: gameparams.Stack{Block: plank, Count: 2},
	}
	params := &gameparams.GameParams{Recipes: []gameparams.Recipe{recipe}}

	// Place the L-shape in the bottom-right 2x2 corner of a 3x3 grid
	// (offset line=1, col=1) instead of the top-left.
	inv := inventory.EmptyWithSize(9)
	inv.SetSlot(4, inventory.With(wood, 1)) // (1,1)
	inv.SetSlot(5, inventory.With(wood, 1)) // (1,2)
	inv.SetSlot(7, inventory.With(wood, 1)) // (2,1)
	// slot 8 (2,2) stays empty, matching the recipe's nil entry.

	_, _, ok := Craft(inv, params)
	if !ok {
		t.Fatal("expected translated recipe to match")
	}
}

func TestNoMatchWhenExtraItemsPresent(t *testing.T) {
	wood := world.Block(5)
	plank := world.Block(6)
	recipe := gameparams.Recipe{
		Inputs: []*world.Block{blockPtr(wood)},
		Output: gameparams.Stack{Block: plank, Count: 1},
	}
	params := &gameparams.GameParams{Recipes: []gameparams.Recipe{recipe}}

	inv := inventory.EmptyWithSize(4)
	inv.SetSlot(0, inventory.With(wood, 1))
	inv.SetSlot(1, inventory.With(wood, 1)) // extra item outside the 1x1 footprint

	_, _, ok := Craft(inv, params)
	if ok {
		t.Fatal("expected no match: extra item breaks the recipe's empty-elsewhere requirement")
	}
}

func TestIsqrtMatchesPerfectSquares(t *testing.T) {
	for v := 0; v < 10; v++ {
		got := isqrt(v * v)
		if got != v {
			t.Errorf("isqrt(%d) = %d, want %d", v*v, got, v)
		}
	}
}
