package session

import "github.com/est31/mimas-go/inventory"
import "github.com/est31/mimas-go/world"

// toWireInventory converts inv into its wire representation. Only the
// slot contents and selection are sent; the server remains the sole
// authority, so no other state crosses the wire.
func toWireInventory(inv *inventory.SelectableInventory) SetInventoryMsg {
	stacks := make([]SerializedStack, inv.Len())
	for i := 0; i < inv.Len(); i++ {
		block, count, _ := inv.Slot(i).Content()
		stacks[i] = SerializedStack{Block: block, Count: count}
	}
	return SetInventoryMsg{Selection: inv.Selection(), Stacks: stacks}
}

// toWireChunk flattens a chunk's dense block array for the ChunkUpdated
// message. Per-block metadata (chest contents) is not mirrored to
// clients; chest UIs are driven purely by InventorySwap against
// LocationWorldMeta, so the client never needs to read a chest's stacks
// directly.
func toWireChunk(pos world.ChunkPos, data *world.ChunkData) ChunkUpdatedMsg {
	blocks := make([]world.Block, world.BlocksPerChunk)
	copy(blocks, data.Blocks[:])
	return ChunkUpdatedMsg{Pos: pos, Blocks: blocks}
}

func modesSlice(s slowStates) []PlayerMode {
	if s.Modes == nil {
		return []PlayerMode{}
	}
	return s.Modes
}
