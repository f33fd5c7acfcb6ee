// Package inventory implements stack arithmetic and the selectable
// inventory used for the HUD, main inventory, crafting grid, and chest
// contents.
//
// Grounded line-for-line on original_source/mimas-server/inventory.rs.
package inventory

import "github.com/est31/mimas-go/world"

// StackSizeLimit is the maximum count a single stack may hold.
const StackSizeLimit = 60

// HUDSlotCount is the number of slots considered part of the hotbar/HUD.
const HUDSlotCount = 8

// Stack is either empty, or holds (block, count) with 1 <= count <= 60.
// The zero value is the empty stack.
type Stack struct {
	block   world.Block
	count   uint16
	nonZero bool
}

// With returns a stack of count items of block. count == 0 yields Empty.
func With(block world.Block, count uint16) Stack {
	if count == 0 {
		return Stack{}
	}
	return Stack{block: block, count: count, nonZero: true}
}

// Empty is the zero-value empty stack, named for readability at call sites.
var Empty = Stack{}

// IsEmpty reports whether the stack holds nothing.
func (s Stack) IsEmpty() bool {
	return !s.nonZero
}

// Content returns (block, count, true) if non-empty, or (_, _, false)
// otherwise.
func (s Stack) Content() (world.Block, uint16, bool) {
	if !s.nonZero {
		return 0, 0, false
	}
	return s.block, s.count, true
}

// Put merges other into s, matching the reference's Stack::put. If s is
// empty: when allowEmpty, s becomes other and Empty is returned; otherwise
// other is returned unchanged (rejected). If s is non-empty and other holds
// the same block, the counts are summed and clamped to limit; any
// overflow is returned as a new stack of the same block. In every other
// case, other is returned unchanged.
func (s *Stack) Put(other Stack, allowEmpty bool, limit uint16) Stack {
	if s.IsEmpty() {
		if !allowEmpty {
			return other
		}
		*s = other
		return Empty
	}
	if otherBlock, otherCount, ok := other.Content(); ok {
		if otherBlock == s.block {
			wanted := uint32(s.count) + uint32(otherCount)
			overflow := uint32(0)
			if wanted > uint32(limit) {
				overflow = wanted - uint32(limit)
			}
			*s = With(s.block, uint16(wanted-overflow))
			return With(s.block, uint16(overflow))
		}
	}
	return other
}

// TakeN removes up to n items from the stack, returning the removed stack
// and whether s became empty as a result.
func (s *Stack) TakeN(n uint16) (taken Stack, emptied bool) {
	if s.IsEmpty() {
		return Empty, false
	}
	newCount := s.count
	if n >= newCount {
		removed := newCount
		block := s.block
		*s = Empty
		return With(block, removed), true
	}
	newCount -= n
	block := s.block
	*s = With(block, newCount)
	return With(block, n), false
}

// TakeOne removes a single item, returning (block, emptied, true), or
// (_, _, false) if the stack was already empty.
func (s *Stack) TakeOne() (world.Block, bool, bool) {
	taken, emptied := s.TakeN(1)
	block, _, ok := taken.Content()
	return block, emptied, ok
}
