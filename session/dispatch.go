package session

import (
	"github.com/est31/mimas-go/crafting"
	"github.com/est31/mimas-go/inventory"
	"github.com/est31/mimas-go/transport"
	"github.com/est31/mimas-go/world"
)

// dispatch applies one authenticated player's queued message, matching
// the reference's tick()'s ClientToServerMsg match arm (minus LogIn/
// SendHash/SendM1/SetPos, which are handled before a connection becomes a
// player or intercepted in getMsgs).
func (s *Server) dispatch(id world.PlayerID, e transport.Envelope) {
	p, ok := s.players[id]
	if !ok {
		return
	}
	switch e.Tag {
	case TagGetHashedBlobs:
		var m GetHashedBlobsMsg
		if decodeOrClose(p.c, e, &m) != nil {
			return
		}
		s.handleGetHashedBlobs(p, m)
	case TagPlaceBlock:
		var m PlaceBlockMsg
		if decodeOrClose(p.c, e, &m) != nil {
			return
		}
		s.handlePlaceBlock(id, p, m)
	case TagPlaceTree:
		var m PlaceTreeMsg
		if decodeOrClose(p.c, e, &m) != nil {
			return
		}
		s.handlePlaceTree(id, p, m)
	case TagDig:
		var m DigMsg
		if decodeOrClose(p.c, e, &m) != nil {
			return
		}
		s.handleDig(id, m.Pos)
	case TagSetMode:
		var m SetModeMsg
		if decodeOrClose(p.c, e, &m) != nil {
			return
		}
		p.slow.setMode(m.Mode, m.Enabled)
	case TagInventorySwap:
		var m InventorySwapMsg
		if decodeOrClose(p.c, e, &m) != nil {
			return
		}
		s.handleInvMoveOrSwap(id, m.From, m.To, m.OnlyMoveOne)
	case TagCraft:
		s.handleCraft(id)
	case TagInventorySelect:
		var m InventorySelectMsg
		if decodeOrClose(p.c, e, &m) != nil {
			return
		}
		if m.Index == nil {
			p.inv.SetSelection(-1)
		} else {
			p.inv.SetSelection(*m.Index)
		}
	case TagChat:
		var m ChatMsg
		if decodeOrClose(p.c, e, &m) != nil {
			return
		}
		s.handleChat(id, p, m.Text)
	default:
		// LogIn/SendHash/SendM1 and unknown tags are ignored post-auth,
		// matching the reference's "invalid at this state".
	}
}

func (s *Server) handleGetHashedBlobs(p *player, m GetHashedBlobsMsg) {
	var pairs []HashedBlobPair
	for _, h := range m.Hashes {
		if blob, ok := s.params.TextureBlobs[h]; ok {
			pairs = append(pairs, HashedBlobPair{Hash: h, Blob: blob})
		}
	}
	if err := p.c.send(TagHashedBlobs, HashedBlobsMsg{Blobs: pairs}); err != nil {
		s.closePlayers([]world.PlayerID{p.id})
	}
}

// handlePlaceBlock validates the client's claimed selection against the
// server's inventory state, unconditionally consuming the selected item
// once it matches (even if the subsequent placement below fails), then
// writes the block and, if it carries a container, an empty inventory at
// its metadata slot. Matches the reference's PlaceBlock arm exactly,
// including that ordering quirk.
func (s *Server) handlePlaceBlock(id world.PlayerID, p *player, m PlaceBlockMsg) {
	selIdx, stack, ok := p.inv.GetSelIdxAndContent()
	block, _, _ := stack.Content()
	if !ok || selIdx != m.SelIdx || block != m.Block {
		return
	}
	p.inv.TakeSelected()

	blockSet := s.smap.SetBlk(m.Pos, m.Block)
	params := s.params.Block(m.Block)
	if blockSet && params.HasContainer() {
		s.smap.SetBlkMeta(m.Pos, world.MetadataEntry{Inventory: inventory.EmptyWithSize(params.InventorySize).Serialize()})
	}
}

// handlePlaceTree mirrors handlePlaceBlock's selection bookkeeping, then
// stamps the tree or cactus schematic rooted at m.Pos if the block allows
// it, matching the reference's PlaceTree arm / map::spawn_tree.
func (s *Server) handlePlaceTree(id world.PlayerID, p *player, m PlaceTreeMsg) {
	selIdx, stack, ok := p.inv.GetSelIdxAndContent()
	block, _, _ := stack.Content()
	if !ok || selIdx != m.SelIdx || block != m.Block {
		return
	}
	p.inv.TakeSelected()

	if !s.params.Block(m.Block).OnPlacePlantsTree {
		return
	}
	schematic := s.params.TreeSchematic
	if below, ok := s.smap.GetBlk(m.Pos.Add(world.Pos{X: 0, Y: -1, Z: 0})); ok && below == s.params.SandID {
		schematic = s.params.CactusSchematic
	}
	for _, sb := range schematic {
		s.smap.SetBlk(m.Pos.Add(sb.Offset), sb.Block)
	}
}

// handleDig rejects digging a chest with leftover contents or a block in
// an unloaded chunk (re-broadcasting the block's true, unchanged contents
// to override the client's optimistic prediction), otherwise replaces the
// block with air, clears its metadata, and deposits the drop into the
// player's inventory. The inventory is resent unconditionally afterward,
// matching the reference's handle_dig.
func (s *Server) handleDig(id world.PlayerID, pos world.Pos) {
	p, ok := s.players[id]
	if !ok {
		return
	}
	remove := true
	if meta, loaded := s.smap.GetBlkMeta(pos); loaded {
		if len(meta.Inventory) > 0 {
			if inv, err := inventory.Deserialize(meta.Inventory, s.nameMap); err == nil && !inv.IsEmpty() {
				remove = false
			}
		}
	} else {
		// Chunk not loaded: nothing to dig.
		remove = false
	}

	if remove {
		blk, _ := s.smap.GetBlk(pos)
		dropStack := s.params.Block(blk).Drops
		s.smap.SetBlk(pos, world.Air)
		s.smap.SetBlkMeta(pos, world.MetadataEntry{})
		if dropStack.Count > 0 {
			p.inv.Put(inventory.With(dropStack.Block, dropStack.Count))
		}
	} else {
		s.smap.FakeChange(pos)
	}
	if err := p.c.send(TagSetInventory, toWireInventory(p.inv)); err != nil {
		s.closePlayers([]world.PlayerID{id})
	}
}

// invRef resolves an InventoryPos to the inventory it names, or an empty
// zero-slot inventory if it points at an unloaded/absent chest.
func (s *Server) invRef(id world.PlayerID, loc InventoryPos) *inventory.SelectableInventory {
	switch loc.Location {
	case LocationPlayerInv:
		return s.players[id].inv
	case LocationCraftInv:
		return s.players[id].craftInv
	default:
		meta, ok := s.smap.GetBlkMeta(loc.WorldPos)
		if !ok || len(meta.Inventory) == 0 {
			return inventory.EmptyWithSize(0)
		}
		inv, err := inventory.Deserialize(meta.Inventory, s.nameMap)
		if err != nil {
			return inventory.EmptyWithSize(0)
		}
		return inv
	}
}

// handleInvMoveOrSwap moves or swaps one slot between two inventory
// locations, rejecting a chest-to-chest move (unsupported, matching the
// reference), and writing any touched chest's contents back to its
// metadata.
func (s *Server) handleInvMoveOrSwap(id world.PlayerID, from, to InventoryPos, onlyMoveOne bool) {
	if from.IsWorldMeta() && to.IsWorldMeta() {
		return
	}
	fromInv := s.invRef(id, from)
	if from.Location == to.Location && from.IsWorldMeta() {
		// Same chest: operate on one fetched copy for both sides.
		if onlyMoveOne {
			inventory.MoveNIfPossible([]*inventory.SelectableInventory{fromInv}, inventory.SlotRef{Inv: 0, Slot: from.StackPos}, inventory.SlotRef{Inv: 0, Slot: to.StackPos}, 1)
		} else {
			inventory.MergeOrSwap([]*inventory.SelectableInventory{fromInv}, inventory.SlotRef{Inv: 0, Slot: from.StackPos}, inventory.SlotRef{Inv: 0, Slot: to.StackPos})
		}
		s.writeBackInv(from, fromInv)
		return
	}
	if from.Location == to.Location {
		if onlyMoveOne {
			inventory.MoveNIfPossible([]*inventory.SelectableInventory{fromInv}, inventory.SlotRef{Inv: 0, Slot: from.StackPos}, inventory.SlotRef{Inv: 0, Slot: to.StackPos}, 1)
		} else {
			inventory.MergeOrSwap([]*inventory.SelectableInventory{fromInv}, inventory.SlotRef{Inv: 0, Slot: from.StackPos}, inventory.SlotRef{Inv: 0, Slot: to.StackPos})
		}
		s.writeBackInv(from, fromInv)
		return
	}
	toInv := s.invRef(id, to)
	invs := []*inventory.SelectableInventory{fromInv, toInv}
	if onlyMoveOne {
		inventory.MoveNIfPossible(invs, inventory.SlotRef{Inv: 0, Slot: from.StackPos}, inventory.SlotRef{Inv: 1, Slot: to.StackPos}, 1)
	} else {
		inventory.MergeOrSwap(invs, inventory.SlotRef{Inv: 0, Slot: from.StackPos}, inventory.SlotRef{Inv: 1, Slot: to.StackPos})
	}
	s.writeBackInv(from, fromInv)
	s.writeBackInv(to, toInv)
}

// writeBackInv persists inv back to wherever loc names it, a no-op for
// player/craft inventories since invRef returned the live pointer already.
func (s *Server) writeBackInv(loc InventoryPos, inv *inventory.SelectableInventory) {
	if !loc.IsWorldMeta() {
		return
	}
	s.smap.SetBlkMeta(loc.WorldPos, world.MetadataEntry{Inventory: inv.Serialize()})
}

// handleCraft matches the player's craft grid against the recipe table,
// puts any output into the main inventory, and unconditionally takes one
// item from every craft-grid slot, matching the reference's handle_craft
// (which decrements every slot, not just the ones the matched recipe
// used).
func (s *Server) handleCraft(id world.PlayerID) {
	p, ok := s.players[id]
	if !ok {
		return
	}
	block, count, ok := crafting.Craft(p.craftInv, s.params)
	if !ok {
		return
	}
	p.inv.Put(inventory.With(block, count))
	for i := 0; i < p.craftInv.Len(); i++ {
		stack := p.craftInv.Slot(i)
		stack.TakeN(1)
		p.craftInv.SetSlot(i, stack)
	}
}
