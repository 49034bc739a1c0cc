package metadata

/**
 * @brief Represents the current state of a variant pair.
 */
type VariantState int

const (
	/** @brief No build has been attempted yet. The variant is unusable. */
	VariantStateUnbuilt VariantState = iota
	/** @brief One or both halves are being compiled. The variant is unusable. */
	VariantStateBuilding
	/** @brief Both halves compiled and the binding contract holds. */
	VariantStateValidated
	/** @brief The variant is registered and selectable by the host renderer. */
	VariantStateActive
	/** @brief Compilation or contract validation failed. Terminal until an
	explicit rebuild is requested. */
	VariantStateFailed
)

func (s VariantState) String() string {
	switch s {
	case VariantStateUnbuilt:
		return "unbuilt"
	case VariantStateBuilding:
		return "building"
	case VariantStateValidated:
		return "validated"
	case VariantStateActive:
		return "active"
	case VariantStateFailed:
		return "failed"
	}
	return "unknown"
}

/**
 * @brief A named, interchangeable pairing of one compiled vertex artifact and
 * one compiled fragment artifact that together satisfy the descriptor layout
 * contract. Created only after both artifacts exist and validate; replaced
 * wholesale by rebuilding both halves, never edited in place.
 */
type VariantPair struct {
	/** @brief The name the host renderer selects the pair by. */
	Name string
	/** @brief The vertex-stage artifact. */
	Vertex *CompiledArtifact
	/** @brief The fragment-stage artifact. */
	Fragment *CompiledArtifact
	/** @brief The merged, contract-validated binding surface of both halves. */
	Bindings []DescriptorBinding
	/** @brief The internal state of the pair. */
	State VariantState
}
