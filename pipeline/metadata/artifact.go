package metadata

import (
	"github.com/google/uuid"
)

/** @brief First word of every SPIR-V binary, little-endian. */
const SpirvMagic uint32 = 0x07230203

/**
 * @brief The compiled binary form of a shader source, ready for device
 * execution. Never mutated after a successful build: a rebuild produces a
 * replacement artifact, it does not edit this one.
 */
type CompiledArtifact struct {
	/** @brief Identifier of the build invocation that produced the artifact. */
	ID uuid.UUID
	/** @brief Logical name of the source this was compiled from. */
	SourceName string
	/** @brief The pipeline stage of the artifact. */
	Stage ShaderStage
	/** @brief The execution environment the artifact targets, e.g. "vulkan1.0". */
	TargetEnv string
	/** @brief The knob values resolved into this artifact. */
	Knobs KnobSet
	/** @brief Where the binary lives on durable storage. */
	FullPath string
	/** @brief The binary payload. */
	Payload []byte
	/** @brief The descriptor bindings the source declared. */
	Bindings []DescriptorBinding
}

// Key identifies the artifact within a batch: source identity plus stage,
// with the knob digest appended for non-default resolutions.
func (a *CompiledArtifact) Key() string {
	return ArtifactKey(a.SourceName, a.Stage, a.Knobs)
}

// ArtifactKey builds the storage/batch key for a (source, stage, knobs)
// resolution. Default-knob builds keep the short predictable form.
func ArtifactKey(sourceName string, stage ShaderStage, knobs KnobSet) string {
	key := sourceName + "." + stage.Short()
	if !knobs.IsDefault() {
		key += "." + knobs.Hash()
	}
	return key
}
