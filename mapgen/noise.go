package mapgen

import "github.com/aquilax/go-perlin"

// perlinAlpha/perlinBeta/perlinOctaves are fixed across every named noise
// field, matching the reference's use of a single default-tuned Perlin
// generator type for all of them.
const (
	perlinAlpha   = 2.0
	perlinBeta    = 2.0
	perlinOctaves = 3
)

// noise wraps a single-frequency Perlin field, matching the reference's
// unmagnified Noise helper.
type noise struct {
	freq   float64
	perlin *perlin.Perlin
}

func newNoise(seed uint32, freq float64) *noise {
	return &noise{freq: freq, perlin: perlin.NewPerlin(perlinAlpha, perlinBeta, perlinOctaves, int64(seed))}
}

func (n *noise) get2D(x, y float64) float64 {
	return n.perlin.Noise2D(x*n.freq, y*n.freq)
}

func (n *noise) get3D(x, y, z float64) float64 {
	return n.perlin.Noise3D(x*n.freq, y*n.freq, z*n.freq)
}

// noiseMag wraps a Perlin field scaled by a fixed magnitude, matching the
// reference's NoiseMag helper used for elevation fields.
type noiseMag struct {
	freq, mag float64
	perlin    *perlin.Perlin
}

func newNoiseMag(seed uint32, freq, mag float64) *noiseMag {
	return &noiseMag{freq: freq, mag: mag, perlin: perlin.NewPerlin(perlinAlpha, perlinBeta, perlinOctaves, int64(seed))}
}

func (n *noiseMag) get2D(x, y float64) float64 {
	return n.perlin.Noise2D(x*n.freq, y*n.freq) * n.mag
}
