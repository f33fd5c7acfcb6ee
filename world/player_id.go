package world

import "fmt"

// PlayerID is the (source, id) pair identifying a player record. Source
// distinguishes which auth backend minted the numeric ID (so two backends,
// e.g. a local and a federated one, never collide); id is the backend's own
// 56-bit counter. (0, 1) is reserved for the singleplayer player.
type PlayerID struct {
	Src uint8
	ID  uint64 // must fit in 56 bits
}

// Singleplayer is the reserved identity used when no auth backend is
// consulted.
var Singleplayer = PlayerID{Src: 0, ID: 1}

const idMask = (uint64(1) << 56) - 1

// Compose packs (src, id) into a single uint64, matching the reference's
// PlayerIdPair bit layout: the source byte occupies the top 8 bits, the id
// occupies the low 56 bits.
func Compose(src uint8, id uint64) uint64 {
	return (uint64(src) << 56) | (id & idMask)
}

// Decompose is the inverse of Compose.
func Decompose(v uint64) (src uint8, id uint64) {
	return uint8(v >> 56), v & idMask
}

// Packed returns the composed uint64 form of this PlayerID, suitable for use
// as a map key or storage key component.
func (p PlayerID) Packed() uint64 {
	return Compose(p.Src, p.ID)
}

// IsSingleplayer reports whether this is the reserved singleplayer identity.
func (p PlayerID) IsSingleplayer() bool {
	return p == Singleplayer
}

func (p PlayerID) String() string {
	return fmt.Sprintf("(%d,%d)", p.Src, p.ID)
}
