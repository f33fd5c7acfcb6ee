package inventory

import "github.com/est31/mimas-go/world"

// SelectableInventory is a fixed-length ordered sequence of stacks with an
// optional selection index, used for HUD, main inventory, craft grid, and
// chest contents.
type SelectableInventory struct {
	selection int // -1 means "none"
	stacks    []Stack
}

// New returns the default-sized (16-slot) empty inventory.
func New() *SelectableInventory {
	return EmptyWithSize(16)
}

// EmptyWithSize returns an empty inventory with the given slot count.
func EmptyWithSize(size int) *SelectableInventory {
	return FromStacks(make([]Stack, size))
}

// FromStacks wraps an existing stack slice (e.g. restored from storage).
func FromStacks(stacks []Stack) *SelectableInventory {
	return &SelectableInventory{selection: -1, stacks: stacks}
}

// CraftingInv returns an empty 3x3 (9-slot) crafting grid.
func CraftingInv() *SelectableInventory {
	return EmptyWithSize(9)
}

// Len returns the number of slots.
func (inv *SelectableInventory) Len() int {
	return len(inv.stacks)
}

// Stacks returns the underlying slice directly; callers that mutate it are
// responsible for keeping selection invariants sane (prefer Put/TakeN).
func (inv *SelectableInventory) Stacks() []Stack {
	return inv.stacks
}

// Slot returns the stack at idx.
func (inv *SelectableInventory) Slot(idx int) Stack {
	return inv.stacks[idx]
}

// SetSlot overwrites the stack at idx.
func (inv *SelectableInventory) SetSlot(idx int, s Stack) {
	inv.stacks[idx] = s
}

// IsEmpty reports whether every slot is empty.
func (inv *SelectableInventory) IsEmpty() bool {
	for _, s := range inv.stacks {
		if !s.IsEmpty() {
			return false
		}
	}
	return true
}

// Selection returns the selected index, or -1 if none.
func (inv *SelectableInventory) Selection() int {
	return inv.selection
}

// SetSelection sets the selected index; pass -1 to clear it.
func (inv *SelectableInventory) SetSelection(idx int) {
	inv.selection = idx
}

// GetSelIdxAndContent returns (idx, block, true) if a selection exists and
// its slot is non-empty.
func (inv *SelectableInventory) GetSelIdxAndContent() (int, Stack, bool) {
	if inv.selection < 0 {
		return 0, Empty, false
	}
	s := inv.stacks[inv.selection]
	if s.IsEmpty() {
		return 0, Empty, false
	}
	return inv.selection, s, true
}

// TakeSelected removes one item from the selected slot.
func (inv *SelectableInventory) TakeSelected() (block world.Block, emptied bool, ok bool) {
	if inv.selection < 0 {
		return 0, false, false
	}
	b, emp, present := inv.stacks[inv.selection].TakeOne()
	if !present {
		return 0, false, false
	}
	return b, emp, true
}

// Rotate moves the selection by +-1, modulo the HUD slot count, matching
// the reference's hotbar-scroll behavior. If no slot was previously
// selected, rotation starts from slot 0.
func (inv *SelectableInventory) Rotate(forwards bool) {
	selection := inv.selection
	if selection < 0 {
		selection = 0
	}
	stackCount := len(inv.stacks)
	if stackCount > HUDSlotCount {
		stackCount = HUDSlotCount
	}
	if stackCount == 0 {
		return
	}
	var idx int
	if forwards {
		idx = (selection + 1) % stackCount
	} else {
		idx = (stackCount + selection - 1) % stackCount
	}
	inv.selection = idx
}

// Put inserts stack into the inventory: a first pass fills non-empty
// compatible stacks starting at the selection, then a second pass fills
// empty slots; the residue (what could not be placed) is returned. If no
// selection was set and anything changed, the selection becomes the last
// slot touched.
func (inv *SelectableInventory) Put(stack Stack) Stack {
	selection := inv.selection
	if selection < 0 {
		selection = 0
	}
	stackCount := len(inv.stacks)
	if stackCount == 0 {
		return stack
	}
	lastIdxChanged := -1

	for offs := 0; offs < stackCount; offs++ {
		idx := (selection + offs) % stackCount
		newStack := inv.stacks[idx].Put(stack, false, StackSizeLimit)
		if stack != newStack {
			lastIdxChanged = idx
		}
		stack = newStack
		if stack.IsEmpty() {
			break
		}
	}
	for offs := 0; offs < stackCount && !stack.IsEmpty(); offs++ {
		idx := (selection + offs) % stackCount
		newStack := inv.stacks[idx].Put(stack, true, StackSizeLimit)
		if stack != newStack {
			lastIdxChanged = idx
		}
		stack = newStack
	}
	if inv.selection < 0 && lastIdxChanged >= 0 {
		inv.selection = lastIdxChanged
	}
	return stack
}
