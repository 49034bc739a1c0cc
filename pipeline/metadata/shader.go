package metadata

import "fmt"

/** @brief The pipeline stage a shader source targets. */
type ShaderStage int

const (
	/** @brief Vertex stage. */
	ShaderStageVertex ShaderStage = iota
	/** @brief Fragment stage. */
	ShaderStageFragment
)

func (s ShaderStage) String() string {
	switch s {
	case ShaderStageVertex:
		return "vertex"
	case ShaderStageFragment:
		return "fragment"
	}
	return "unknown"
}

// Short returns the conventional filename infix for the stage ("vert"/"frag").
func (s ShaderStage) Short() string {
	switch s {
	case ShaderStageVertex:
		return "vert"
	case ShaderStageFragment:
		return "frag"
	}
	return "unknown"
}

// ParseShaderStage resolves a stage keyword from the build manifest.
func ParseShaderStage(value string) (ShaderStage, error) {
	switch value {
	case "vertex", "vert":
		return ShaderStageVertex, nil
	case "fragment", "frag":
		return ShaderStageFragment, nil
	}
	return 0, fmt.Errorf("unknown shader stage '%s'", value)
}

/**
 * @brief A human-authored shading-language source. Immutable once loaded;
 * a new variant requires a new source, never a mutation of an existing one.
 */
type ShaderSource struct {
	/** @brief Logical name, shared by every artifact compiled from this source. */
	Name string
	/** @brief The pipeline stage this source targets. */
	Stage ShaderStage
	/** @brief The full file path of the source. */
	FullPath string
	/** @brief The raw source text. */
	Text string
	/** @brief The descriptor bindings the source declares. */
	Bindings []DescriptorBinding
}

// Key identifies a source within a build batch.
func (s *ShaderSource) Key() string {
	return s.Name + "." + s.Stage.Short()
}
