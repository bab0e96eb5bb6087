// Package biome classifies world coordinates into biome kinds. The
// classifier is a pure function of its own seed; the world generator
// consults it through the Classifier interface only.
package biome

// Kind is a biome classification for a world coordinate.
type Kind string

const (
	Forest Kind = "forest"
	Meadow Kind = "meadow"
	Rocky  Kind = "rocky"
)

// Classifier is the narrow query surface the generator depends on.
type Classifier interface {
	Classify(x, y float64) Kind
}

// NoiseClassifier derives biomes from hash-based value noise over a coarse
// lattice. Stable across runs for a fixed seed; no RNG state is walked.
type NoiseClassifier struct {
	seed uint32
}

// cellSize is the biome lattice pitch in world pixels. Coarser than the
// resource grid so biomes span many resource cells.
const cellSize = 800.0

func NewNoiseClassifier(seed int64) *NoiseClassifier {
	return &NoiseClassifier{seed: uint32(seed)}
}

func (c *NoiseClassifier) Classify(x, y float64) Kind {
	v := c.valueNoise(x/cellSize, y/cellSize)
	switch {
	case v < 0.38:
		return Meadow
	case v < 0.80:
		return Forest
	default:
		return Rocky
	}
}

// valueNoise samples bilinear-interpolated lattice noise at (u, v).
func (c *NoiseClassifier) valueNoise(u, v float64) float64 {
	x0 := floorInt(u)
	y0 := floorInt(v)
	fx := u - float64(x0)
	fy := v - float64(y0)

	// Smoothstep fade keeps biome borders from looking gridded.
	fx = fx * fx * (3 - 2*fx)
	fy = fy * fy * (3 - 2*fy)

	n00 := c.lattice(x0, y0)
	n10 := c.lattice(x0+1, y0)
	n01 := c.lattice(x0, y0+1)
	n11 := c.lattice(x0+1, y0+1)

	nx0 := n00 + (n10-n00)*fx
	nx1 := n01 + (n11-n01)*fx
	return nx0 + (nx1-nx0)*fy
}

func (c *NoiseClassifier) lattice(x, y int32) float64 {
	return float64(hash2(c.seed, x, y)) / float64(^uint32(0))
}

// hash2 mixes 2D integer coordinates + seed into a well-distributed
// 32-bit output (Murmur-finalizer style avalanching).
func hash2(seed uint32, x, y int32) uint32 {
	h := seed
	h ^= uint32(x) * 0x9e3779b1
	h ^= uint32(y) * 0x85ebca6b
	h ^= h >> 16
	h *= 0x7feb352d
	h ^= h >> 15
	h *= 0x846ca68b
	h ^= h >> 16
	return h
}

func floorInt(f float64) int32 {
	i := int32(f)
	if f < float64(i) {
		i--
	}
	return i
}
