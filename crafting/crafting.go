// Package crafting matches a crafting grid's contents against the shaped
// recipes in gameparams.GameParams.
//
// Grounded on original_source/mimas-common/crafting.rs.
package crafting

import (
	"github.com/est31/mimas-go/gameparams"
	"github.com/est31/mimas-go/inventory"
	"github.com/est31/mimas-go/world"
)

var sqrtTable = buildSqrtTable(128)

// buildSqrtTable precomputes isqrt(v) for every perfect square v < n.
func buildSqrtTable(n int) []uint8 {
	res := make([]uint8, n)
	for v := 1; v*v < n; v++ {
		res[v*v] = uint8(v)
	}
	return res
}

// isqrt returns the integer square root of v. Values outside the lookup
// table go through float64SqrtFloor, an exact integer binary search.
func isqrt(v int) int {
	if v < len(sqrtTable) {
		return int(sqrtTable[v])
	}
	return int(float64SqrtFloor(v))
}

func float64SqrtFloor(v int) int {
	lo, hi := 0, v
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if mid*mid <= v {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	return lo
}

// matches reports whether inv's contents match recipe under some
// translation offset within the grid.
func matches(recipe gameparams.Recipe, inv *inventory.SelectableInventory) bool {
	stacks := inv.Stacks()
	if len(stacks) < len(recipe.Inputs) {
		return false
	}
	invSqrt := isqrt(len(stacks))
	recipeSqrt := isqrt(len(recipe.Inputs))
	sizeSqrtDiff := invSqrt - recipeSqrt

	for offsLine := 0; offsLine <= sizeSqrtDiff; offsLine++ {
		for offsCol := 0; offsCol <= sizeSqrtDiff; offsCol++ {
			if matchesAtOffset(recipe, stacks, invSqrt, recipeSqrt, offsLine, offsCol) {
				return true
			}
		}
	}
	return false
}

func matchesAtOffset(recipe gameparams.Recipe, stacks []inventory.Stack, invSqrt, recipeSqrt, offsLine, offsCol int) bool {
	for i, stack := range stacks {
		block, _, ok := stack.Content()
		line := i / invSqrt
		col := i % invSqrt
		lineRecipe := line - offsLine
		colRecipe := col - offsCol
		if lineRecipe >= 0 && colRecipe >= 0 && lineRecipe < recipeSqrt && colRecipe < recipeSqrt {
			recipeIdx := lineRecipe*recipeSqrt + colRecipe
			want := recipe.Inputs[recipeIdx]
			if ok != (want != nil) {
				return false
			}
			if ok && block != *want {
				return false
			}
			continue
		}
		// Outside the recipe's footprint: the grid must be empty there.
		if ok {
			return false
		}
	}
	return true
}

// GetMatchingRecipe returns the first recipe in params whose shape matches
// inv's contents at some translation, or ok=false if none match.
func GetMatchingRecipe(inv *inventory.SelectableInventory, params *gameparams.GameParams) (gameparams.Recipe, bool) {
	for _, r := range params.Recipes {
		if matches(r, inv) {
			return r, true
		}
	}
	return gameparams.Recipe{}, false
}

// Craft checks inv against params' recipes and, on a match, returns the
// output stack that would be produced. It does not mutate inv; callers
// consume the inputs (e.g. via inventory.Stack.TakeN on every non-empty
// slot) only after deciding to commit the craft.
func Craft(inv *inventory.SelectableInventory, params *gameparams.GameParams) (world.Block, uint16, bool) {
	recipe, ok := GetMatchingRecipe(inv, params)
	if !ok {
		return 0, 0, false
	}
	return recipe.Output.Block, recipe.Output.Count, true
}
