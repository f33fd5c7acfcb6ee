package mapgen

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
	"github.com/est31/mimas-go/world"
)

// posHash xxhashes a chunk position, seeding the per-chunk PCG streams
// used by tree and ore placement. Matches the reference's pos_hash: an
// XxHash64 seeded with 0, fed the position's three components as
// native-endian (little-endian on the reference's target platforms)
// i64s.
func posHash(pos world.ChunkPos) uint64 {
	var buf [24]byte
	binary.LittleEndian.PutUint64(buf[0:8], uint64(pos.X))
	binary.LittleEndian.PutUint64(buf[8:16], uint64(pos.Y))
	binary.LittleEndian.PutUint64(buf[16:24], uint64(pos.Z))
	return xxhash.Sum64(buf[:])
}
