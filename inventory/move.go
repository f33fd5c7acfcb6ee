package inventory

// SlotRef names one slot of one inventory in a slice passed to
// MergeOrSwap/MoveNIfPossible: (inventory index, slot index).
type SlotRef struct {
	Inv  int
	Slot int
}

// MergeOrSwap implements the reference's merge_or_swap: try to Put the
// "from" stack into "to"; if nothing could be merged (different blocks, or
// "to" full), fall back to swapping the two slots outright. A no-op if
// from == to.
func MergeOrSwap(invs []*SelectableInventory, from, to SlotRef) {
	if from == to {
		return
	}
	stackFrom := invs[from.Inv].stacks[from.Slot]
	newStack := invs[to.Inv].stacks[to.Slot].Put(stackFrom, false, StackSizeLimit)
	if stackFrom != newStack {
		invs[from.Inv].stacks[from.Slot] = newStack
		return
	}
	tmp := invs[to.Inv].stacks[to.Slot]
	invs[to.Inv].stacks[to.Slot] = invs[from.Inv].stacks[from.Slot]
	invs[from.Inv].stacks[from.Slot] = tmp
}

// MoveNIfPossible moves up to count items from "from" into "to", allowing
// the destination to be empty, and puts any residue back into "from".
func MoveNIfPossible(invs []*SelectableInventory, from, to SlotRef, count uint16) {
	taken, _ := invs[from.Inv].stacks[from.Slot].TakeN(count)
	newStack := invs[to.Inv].stacks[to.Slot].Put(taken, true, StackSizeLimit)
	invs[from.Inv].stacks[from.Slot].Put(newStack, true, StackSizeLimit)
}
