package metadata

/** @brief The kind of GPU resource a descriptor binding addresses. */
type ResourceKind int

const (
	/** @brief A uniform buffer binding. */
	ResourceKindUniformBuffer ResourceKind = iota
	/** @brief A combined image/sampler binding. */
	ResourceKindSampledImage
)

func (k ResourceKind) String() string {
	switch k {
	case ResourceKindUniformBuffer:
		return "uniform-buffer"
	case ResourceKindSampledImage:
		return "sampled-image"
	}
	return "unknown"
}

/**
 * @brief A named GPU resource slot addressed by a (set, binding) pair.
 * Every binding shared by the two halves of a variant pair must agree
 * on kind and logical name; the host renderer binds exactly this surface.
 */
type DescriptorBinding struct {
	/** @brief The descriptor set index. */
	Set uint32
	/** @brief The binding index within the set. */
	Binding uint32
	/** @brief The resource kind bound at this slot. */
	Kind ResourceKind
	/** @brief The logical name declared in the source. */
	Name string
	/** @brief The stage that declared the binding. */
	Stage ShaderStage
}
