package metadata

import (
	"fmt"
	"hash/fnv"
	"strconv"
)

/** @brief A 2-component vector, used for the UV tiling factor. */
type Vec2 struct {
	X float32
	Y float32
}

/**
 * @brief The compile-time configuration knobs of a shader build. Knobs are
 * resolved exactly once, at compile time, by injecting macro definitions into
 * the compiler invocation; there is no post-build reconfiguration path.
 *
 * Values are deliberately not validated for physical sanity: a zero or
 * negative tiling factor compiles fine and simply produces degenerate or
 * mirrored sampling.
 */
type KnobSet struct {
	/** @brief Scale applied to the texture coordinate before sampling. */
	Tiling Vec2
	/** @brief Inverts the second coordinate component (v' = 1 - v) when set. */
	FlipV bool
}

// DefaultKnobs returns the knob values compiled in when no override is given.
func DefaultKnobs() KnobSet {
	return KnobSet{Tiling: Vec2{X: 1, Y: 1}}
}

// IsDefault reports whether the set matches the compiled-in defaults.
func (k KnobSet) IsDefault() bool {
	return k == DefaultKnobs()
}

// Defines renders the knob set as macro definitions for the compiler
// invocation. The order is fixed so identical resolutions always produce an
// identical command line.
func (k KnobSet) Defines() []string {
	flip := "0"
	if k.FlipV {
		flip = "1"
	}
	return []string{
		"TILE_U=" + formatKnobFloat(k.Tiling.X),
		"TILE_V=" + formatKnobFloat(k.Tiling.Y),
		"FLIP_V=" + flip,
	}
}

// Hash returns a short stable digest of the resolved knob values, used to key
// artifact paths of non-default resolutions.
func (k KnobSet) Hash() string {
	h := fnv.New32a()
	for _, d := range k.Defines() {
		h.Write([]byte(d))
		h.Write([]byte{0})
	}
	return fmt.Sprintf("%08x", h.Sum32())
}

// TransformUV is the host-side mirror of the UV transform the compiled shader
// performs: tiling first, then the vertical flip.
func (k KnobSet) TransformUV(u, v float32) (float32, float32) {
	u *= k.Tiling.X
	v *= k.Tiling.Y
	if k.FlipV {
		v = 1 - v
	}
	return u, v
}

func formatKnobFloat(f float32) string {
	return strconv.FormatFloat(float64(f), 'g', -1, 32)
}
