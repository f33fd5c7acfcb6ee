package session

import (
	"time"

	"github.com/est31/mimas-go/servermap"
	"github.com/est31/mimas-go/transport"
	"github.com/est31/mimas-go/world"
	"github.com/pelletier/go-toml/v2"
)

// idMsg pairs a queued envelope with the player it came from, preserving
// per-connection ordering across players the way a flat slice (rather than
// a map) must.
type idMsg struct {
	id  world.PlayerID
	env transport.Envelope
}

// sendChunksToPlayer streams every not-yet-sent chunk within the
// configured radius of p's position, matching the reference's
// send_chunks_to_player.
func (s *Server) sendChunksToPlayer(p *player) bool {
	min, max := servermap.ChunkPositionsAround(p.pos.Pos(), s.cfg.SentChunksRadiusXY, s.cfg.SentChunksRadiusZ)
	for x := min.X; x <= max.X; x++ {
		for y := min.Y; y <= max.Y; y++ {
			for z := min.Z; z <= max.Z; z++ {
				cp := world.ChunkPos{X: x, Y: y, Z: z}
				if p.sentChunks[cp] {
					continue
				}
				data, ok := s.smap.GetChunk(cp)
				if !ok {
					continue
				}
				if err := p.c.send(TagChunkUpdated, toWireChunk(cp, data)); err != nil {
					return false
				}
				p.sentChunks[cp] = true
			}
		}
	}
	return true
}

// sendChunksToPlayers visits every player whose chunk position has changed
// since the last tick and streams them their newly-visible chunks,
// matching the reference's send_chunks_to_players.
func (s *Server) sendChunksToPlayers() {
	var dead []world.PlayerID
	for id, p := range s.players {
		cp := world.ChunkOf(p.pos.Pos())
		if cp == p.lastChunkAt {
			continue
		}
		p.lastChunkAt = cp
		if !s.sendChunksToPlayer(p) {
			dead = append(dead, id)
		}
	}
	s.closePlayers(dead)
}

// sendPositionsToPlayers broadcasts every player's current position to
// every player, each tagged with that player's own id so clients can tell
// their own entry apart, matching the reference's send_positions_to_players.
func (s *Server) sendPositionsToPlayers() {
	positions := make([]PlayerPositionEntry, 0, len(s.players))
	for id, p := range s.players {
		positions = append(positions, PlayerPositionEntry{ID: id, Pos: p.pos})
	}
	var dead []world.PlayerID
	for id, p := range s.players {
		msg := PlayerPositionsMsg{OwnID: id, Positions: positions}
		if err := p.c.send(TagPlayerPositions, msg); err != nil {
			dead = append(dead, id)
		}
	}
	s.closePlayers(dead)
}

// storePlayerKVs persists position (throttled) and inventory/craft
// inventory/slow-state (on change) for every connected player, matching
// the reference's store_player_kvs.
func (s *Server) storePlayerKVs() {
	s.storePlayerPositions()
	s.storePlayerInventories()
}

// storePlayerPositions persists every player's position no more often
// than every 1.5s, to keep write pressure on the storage backend bounded.
func (s *Server) storePlayerPositions() {
	const interval = 1500 * time.Millisecond
	now := time.Now()
	if !s.lastPosStorageTime.IsZero() && now.Sub(s.lastPosStorageTime) < interval {
		return
	}
	s.lastPosStorageTime = now
	for _, p := range s.players {
		data, err := toml.Marshal(p.pos)
		if err != nil {
			continue
		}
		s.smap.SetPlayerKV(s.playerIDKV(p.id), "position", data)
	}
}

// storePlayerInventories persists inventory/craft inventory/slow states
// only when they've changed since the last persisted snapshot, matching
// the reference's store_player_inventories.
func (s *Server) storePlayerInventories() {
	for _, p := range s.players {
		invSer := p.inv.Serialize()
		if string(invSer) != string(p.invLastSer) {
			s.smap.SetPlayerKV(s.playerIDKV(p.id), "inventory", invSer)
			p.invLastSer = invSer
		}
		craftSer := p.craftInv.Serialize()
		if string(craftSer) != string(p.craftLastSer) {
			s.smap.SetPlayerKV(s.playerIDKV(p.id), "craft_inventory", craftSer)
			p.craftLastSer = craftSer
		}
		if !equalSlowStates(p.slow, p.slowLastSaved) {
			data, err := toml.Marshal(p.slow)
			if err == nil {
				s.smap.SetPlayerKV(s.playerIDKV(p.id), "slow_states", data)
				p.slowLastSaved = p.slow
			}
		}
	}
}

// getMsgs drains every connected player's queued envelopes, applying
// SetPos directly (it never reaches dispatch) and collecting everything
// else in arrival order, matching the reference's get_msgs.
func (s *Server) getMsgs() []idMsg {
	var out []idMsg
	var dead []world.PlayerID
	for id, p := range s.players {
		for {
			e, ok := p.c.tryRecv()
			if !ok {
				if p.c.dead() {
					dead = append(dead, id)
				}
				break
			}
			if e.Tag == TagSetPos {
				var m SetPosMsg
				if decodeOrClose(p.c, e, &m) == nil {
					p.pos = m.Pos
				}
				continue
			}
			out = append(out, idMsg{id: id, env: e})
		}
	}
	s.closePlayers(dead)
	return out
}
