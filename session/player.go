package session

import (
	"github.com/est31/mimas-go/inventory"
	"github.com/est31/mimas-go/world"
)

// slowStates is the rarely-changing per-player data persisted as a TOML
// document under the "slow_states" key, matching the reference's
// PlayerSlowStates (nick cache + the set of enabled PlayerModes).
type slowStates struct {
	Nick  string       `toml:"nick"`
	Modes []PlayerMode `toml:"modes"`
}

func newSlowStates(nick string) slowStates {
	return slowStates{Nick: nick, Modes: nil}
}

func (s slowStates) hasMode(m PlayerMode) bool {
	for _, got := range s.Modes {
		if got == m {
			return true
		}
	}
	return false
}

func (s *slowStates) setMode(m PlayerMode, enabled bool) {
	if enabled {
		if !s.hasMode(m) {
			s.Modes = append(s.Modes, m)
		}
		return
	}
	out := s.Modes[:0]
	for _, got := range s.Modes {
		if got != m {
			out = append(out, got)
		}
	}
	s.Modes = out
}

// equalSlowStates reports whether two slowStates values carry the same nick and
// mode set, used for the "only persist on change" throttle.
func equalSlowStates(a, b slowStates) bool {
	if a.Nick != b.Nick || len(a.Modes) != len(b.Modes) {
		return false
	}
	for i := range a.Modes {
		if a.Modes[i] != b.Modes[i] {
			return false
		}
	}
	return true
}

// kvWaitingPlayer accumulates the four asynchronous per-player KV
// hydration replies (position, inventory, craft_inventory, slow_states)
// before being promoted to a full player, matching the reference's
// KvWaitingPlayer.
type kvWaitingPlayer struct {
	c    *conn
	id   world.PlayerID
	nick string

	pos        *PlayerPosition
	inv        *inventory.SelectableInventory
	craftInv   *inventory.SelectableInventory
	slowStates *slowStates
}

func newKvWaitingPlayer(c *conn, id world.PlayerID, nick string) *kvWaitingPlayer {
	return &kvWaitingPlayer{c: c, id: id, nick: nick}
}

func (w *kvWaitingPlayer) ready() bool {
	return w.pos != nil && w.inv != nil && w.craftInv != nil && w.slowStates != nil
}

// player is a fully authenticated, connected player: cached mutable state
// plus the snapshots needed to detect changes before persisting, matching
// the reference's Player<C>.
type player struct {
	c    *conn
	id   world.PlayerID
	nick string

	pos PlayerPosition

	inv           *inventory.SelectableInventory
	invLastSer    []byte
	craftInv      *inventory.SelectableInventory
	craftLastSer  []byte
	slow          slowStates
	slowLastSaved slowStates

	sentChunks  map[world.ChunkPos]bool
	lastChunkAt world.ChunkPos
}

func newPlayer(w *kvWaitingPlayer) *player {
	slow := *w.slowStates
	if slow.Nick != w.nick {
		slow.Nick = w.nick
	}
	return &player{
		c:             w.c,
		id:            w.id,
		nick:          w.nick,
		pos:           *w.pos,
		inv:           w.inv,
		invLastSer:    w.inv.Serialize(),
		craftInv:      w.craftInv,
		craftLastSer:  w.craftInv.Serialize(),
		slow:          slow,
		slowLastSaved: *w.slowStates,
		sentChunks:    make(map[world.ChunkPos]bool),
	}
}
