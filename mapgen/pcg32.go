// Package mapgen implements deterministic, multi-phase procedural terrain
// generation: layered Perlin noise fields, a PCG32-driven pseudorandom
// stream per seed label, schematic (tree/cactus) placement, and a
// dedicated worker goroutine that owns the in-memory chunk cache and
// delegates persistence to a storage.Backend.
//
// Grounded on original_source/mehlon-server/mapgen.rs.
package mapgen

import "encoding/binary"

// pcg32Multiplier is the LCG multiplier used by the PCG XSH-RR 64/32
// variant (the same constant the reference's rand_pcg crate uses).
const pcg32Multiplier = 6364136223846793005

// PCG32 is a minimal permuted congruential generator producing uniform
// 32-bit and float64 draws from a (seed, stream) pair. Reimplemented
// directly: no corpus library ships this exact PCG variant, and swapping
// in a different RNG family would change every generated world's output,
// breaking the determinism the reference's "same seed, same world"
// contract depends on.
type PCG32 struct {
	state uint64
	inc   uint64
}

// NewPCG32 seeds a generator the way rand_pcg::Pcg32::new(seed, stream)
// does: the stream selects the LCG increment, then the standard
// initialization step folds in the seed.
func NewPCG32(seed, stream uint64) *PCG32 {
	p := &PCG32{inc: (stream << 1) | 1}
	p.state = p.state*pcg32Multiplier + p.inc
	p.state += seed
	p.state = p.state*pcg32Multiplier + p.inc
	return p
}

// NextU32 returns the next 32-bit draw (PCG XSH-RR output permutation).
func (p *PCG32) NextU32() uint32 {
	oldState := p.state
	p.state = oldState*pcg32Multiplier + p.inc
	xorshifted := uint32(((oldState >> 18) ^ oldState) >> 27)
	rot := uint32(oldState >> 59)
	return (xorshifted >> rot) | (xorshifted << ((-rot) & 31))
}

// NextU64 composes two NextU32 draws into a 64-bit value, matching how a
// Rust RngCore backed only by next_u32 derives next_u64.
func (p *PCG32) NextU64() uint64 {
	lo := uint64(p.NextU32())
	hi := uint64(p.NextU32())
	return (hi << 32) | lo
}

// NextF64 returns a uniform draw in [0, 1), using 53 bits of a NextU64
// draw as the mantissa, matching the precision rand's gen::<f64>() uses.
func (p *PCG32) NextF64() float64 {
	return float64(p.NextU64()>>11) / float64(uint64(1)<<53)
}

// labelToU64 packs an 8-byte ASCII seed label into a big-endian u64, the
// same packing original_source/mehlon-server/mapgen.rs's `s!` macro
// applies via u64::from_be_bytes.
func labelToU64(label string) uint64 {
	var b [8]byte
	copy(b[:], label)
	return binary.BigEndian.Uint64(b[:])
}

// DeriveSeed32 derives a 32-bit noise seed from the world seed and an
// 8-byte ASCII label, matching the reference's `s!(label)` (u32 variant).
func DeriveSeed32(worldSeed uint64, label string) uint32 {
	return NewPCG32(worldSeed, labelToU64(label)).NextU32()
}

// DeriveSeed64 derives a 64-bit PCG seed from the world seed and an
// 8-byte ASCII label, matching the reference's `s!(label, u64)`.
func DeriveSeed64(worldSeed uint64, label string) uint64 {
	return NewPCG32(worldSeed, labelToU64(label)).NextU64()
}
