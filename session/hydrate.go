package session

import (
	"fmt"

	"github.com/est31/mimas-go/gameparams"
	"github.com/est31/mimas-go/inventory"
	"github.com/est31/mimas-go/mapgen"
	"github.com/est31/mimas-go/world"
	"github.com/pelletier/go-toml/v2"
)

// kvPayload is the opaque tag threaded through GetPlayerKV/RunForKVResults;
// every request uses 0 since a player's four keys are disambiguated by
// key name alone, matching the reference's unused PAYLOAD constant.
const kvPayload = 0

// addPlayerWaiting requests the four pieces of per-player state needed
// before a connection can become a full player, matching the reference's
// add_player_waiting.
func (s *Server) addPlayerWaiting(c *conn, id world.PlayerID, nick string) {
	idKV := s.playerIDKV(id)
	s.smap.GetPlayerKV(idKV, "position", kvPayload)
	s.smap.GetPlayerKV(idKV, "inventory", kvPayload)
	s.smap.GetPlayerKV(idKV, "craft_inventory", kvPayload)
	s.smap.GetPlayerKV(idKV, "slow_states", kvPayload)
	s.waitingKV[id] = newKvWaitingPlayer(c, id, nick)
}

// handlePlayersWaitingForKV applies every pending GetPlayerKV answer to
// its waiting player, promoting any player whose all four keys have now
// arrived, matching the reference's handle_players_waiting_for_kv.
func (s *Server) handlePlayersWaitingForKV() {
	var ready []*kvWaitingPlayer
	s.smap.RunForKVResults(func(res mapgen.KVResult) {
		id := world.PlayerID{Src: res.ID.IDSrc, ID: res.ID.ID}
		w, ok := s.waitingKV[id]
		if !ok {
			// No player is waiting on this id; discard silently. A
			// waiting player that disconnects stays in waitingKV, is
			// promoted, and is then dropped once its conn reports dead.
			return
		}
		switch res.Key {
		case "position":
			pos := DefaultPlayerPosition()
			if res.Found {
				var got PlayerPosition
				if err := toml.Unmarshal(res.Content, &got); err == nil {
					pos = got
				}
			}
			w.pos = &pos
		case "inventory":
			inv := inventory.New()
			if res.Found {
				if got, err := inventory.Deserialize(res.Content, s.nameMap); err == nil {
					inv = got
				}
			}
			w.inv = inv
		case "craft_inventory":
			inv := inventory.CraftingInv()
			if res.Found {
				if got, err := inventory.Deserialize(res.Content, s.nameMap); err == nil {
					inv = got
				}
			}
			w.craftInv = inv
		case "slow_states":
			st := newSlowStates(w.nick)
			if res.Found {
				var got slowStates
				if err := toml.Unmarshal(res.Content, &got); err == nil {
					st = got
				}
			}
			w.slowStates = &st
		}
		if w.ready() {
			ready = append(ready, w)
		}
	})
	for _, w := range ready {
		delete(s.waitingKV, w.id)
		s.addPlayer(w)
	}
}

// addPlayer sends the initial hydration burst and promotes w to a full
// player, matching the reference's add_player.
func (s *Server) addPlayer(w *kvWaitingPlayer) {
	_ = w.c.send(TagGameParams, toWireGameParams(s.params))
	_ = w.c.send(TagSetPos, SetPosMsg{Pos: *w.pos})
	_ = w.c.send(TagSetInventory, toWireInventory(w.inv))
	_ = w.c.send(TagSetCraftInv, toWireInventory(w.craftInv))
	_ = w.c.send(TagSetModes, SetModesMsg{Modes: modesSlice(*w.slowStates)})

	p := newPlayer(w)
	s.players[w.id] = p

	if !s.isSingleplayer {
		s.handleChatMsg(fmt.Sprintf("New player %s joined. Number of players: %d", w.nick, len(s.players)))
	}
}

// toWireGameParams reduces the compiled parameter table to what a client
// needs to resolve block names, draw styles, and textures; recipes, mapgen
// ore/plant rules, and schematics stay server-side since crafting/digging
// prediction is outside this module's scope (SPEC_FULL.md 4.9).
func toWireGameParams(p *gameparams.GameParams) GameParamsMsg {
	blocks := make([]WireBlockParams, len(p.Blocks))
	for i, b := range p.Blocks {
		blocks[i] = WireBlockParams{
			Name:          b.Name,
			DrawStyle:     int(b.DrawStyle),
			TextureTop:    b.TextureTop,
			TextureSides:  b.TextureSides,
			TextureBottom: b.TextureBottom,
			Pointable:     b.Pointable,
			Placeable:     b.Placeable,
			Solid:         b.Solid,
			Climbable:     b.Climbable,
			InventorySize: b.InventorySize,
		}
	}
	return GameParamsMsg{Blocks: blocks, TextureDigests: p.TextureDigests}
}
