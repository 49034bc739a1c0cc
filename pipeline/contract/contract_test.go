package contract

import (
	"errors"
	"testing"

	"github.com/spaghettifunk/cubic/pipeline/core"
	"github.com/spaghettifunk/cubic/pipeline/metadata"
)

const vertexText = `#version 450
layout(location = 0) in vec3 inPos;
layout(location = 1) in vec3 inColor;

layout(set = 0, binding = 0) uniform Camera { mat4 mvp; } u;

layout(location = 0) out vec3 vColor;

void main() {
    vColor = inColor;
    gl_Position = u.mvp * vec4(inPos, 1.0);
}
`

const fragmentText = `#version 450
layout(location = 0) in vec3 vColor;
layout(set = 1, binding = 0) uniform sampler2D uAlbedo;
layout(location = 0) out vec4 outColor;

void main() {
    outColor = texture(uAlbedo, vColor.xy) * vec4(vColor, 1.0);
}
`

func TestParseBindings_UniformBlock(t *testing.T) {
	bindings, err := ParseBindings("cube", metadata.ShaderStageVertex, vertexText)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(bindings) != 1 {
		t.Fatalf("expected 1 binding, got %d", len(bindings))
	}

	b := bindings[0]
	if b.Set != 0 || b.Binding != 0 {
		t.Errorf("expected (set=0, binding=0), got (set=%d, binding=%d)", b.Set, b.Binding)
	}
	if b.Kind != metadata.ResourceKindUniformBuffer {
		t.Errorf("expected uniform-buffer, got %s", b.Kind)
	}
	if b.Name != "Camera" {
		t.Errorf("expected logical name 'Camera', got %q", b.Name)
	}
	if b.Stage != metadata.ShaderStageVertex {
		t.Errorf("expected vertex stage, got %s", b.Stage)
	}
}

func TestParseBindings_Sampler(t *testing.T) {
	bindings, err := ParseBindings("cube", metadata.ShaderStageFragment, fragmentText)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(bindings) != 1 {
		t.Fatalf("expected 1 binding, got %d", len(bindings))
	}

	b := bindings[0]
	if b.Set != 1 || b.Binding != 0 {
		t.Errorf("expected (set=1, binding=0), got (set=%d, binding=%d)", b.Set, b.Binding)
	}
	if b.Kind != metadata.ResourceKindSampledImage {
		t.Errorf("expected sampled-image, got %s", b.Kind)
	}
	if b.Name != "uAlbedo" {
		t.Errorf("expected logical name 'uAlbedo', got %q", b.Name)
	}
}

func TestParseBindings_IgnoresAttributesAndOutputs(t *testing.T) {
	text := `#version 450
layout(location = 0) in vec3 inPos;
layout(location = 0) out vec4 outColor;
void main() {}
`
	bindings, err := ParseBindings("plain", metadata.ShaderStageFragment, text)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(bindings) != 0 {
		t.Errorf("expected no bindings, got %d", len(bindings))
	}
}

func TestParseBindings_MalformedDeclaration(t *testing.T) {
	text := `#version 450
layout(set = 0, binding = 0) uniform ;
`
	_, err := ParseBindings("broken", metadata.ShaderStageVertex, text)

	var srcErr *core.SourceError
	if !errors.As(err, &srcErr) {
		t.Fatalf("expected SourceError, got %v", err)
	}
	if srcErr.Name != "broken" {
		t.Errorf("expected source identity 'broken', got %q", srcErr.Name)
	}
	if srcErr.Line != 2 {
		t.Errorf("expected line 2, got %d", srcErr.Line)
	}
}

func artifact(name string, stage metadata.ShaderStage, bindings ...metadata.DescriptorBinding) *metadata.CompiledArtifact {
	return &metadata.CompiledArtifact{
		SourceName: name,
		Stage:      stage,
		TargetEnv:  "vulkan1.0",
		Knobs:      metadata.DefaultKnobs(),
		Bindings:   bindings,
	}
}

func TestValidatePair_DisjointBindings(t *testing.T) {
	vert := artifact("cube", metadata.ShaderStageVertex, metadata.DescriptorBinding{
		Set: 0, Binding: 0, Kind: metadata.ResourceKindUniformBuffer, Name: "Camera", Stage: metadata.ShaderStageVertex,
	})
	frag := artifact("cube", metadata.ShaderStageFragment, metadata.DescriptorBinding{
		Set: 1, Binding: 0, Kind: metadata.ResourceKindSampledImage, Name: "uAlbedo", Stage: metadata.ShaderStageFragment,
	})

	merged, err := ValidatePair("cube", vert, frag)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(merged) != 2 {
		t.Fatalf("expected 2 merged bindings, got %d", len(merged))
	}
	// Sorted by (set, binding).
	if merged[0].Name != "Camera" || merged[1].Name != "uAlbedo" {
		t.Errorf("unexpected merge order: %q, %q", merged[0].Name, merged[1].Name)
	}
}

func TestValidatePair_SharedBindingAgrees(t *testing.T) {
	shared := metadata.DescriptorBinding{
		Set: 0, Binding: 0, Kind: metadata.ResourceKindUniformBuffer, Name: "Camera",
	}
	vertBinding := shared
	vertBinding.Stage = metadata.ShaderStageVertex
	fragBinding := shared
	fragBinding.Stage = metadata.ShaderStageFragment

	merged, err := ValidatePair("cube",
		artifact("cube", metadata.ShaderStageVertex, vertBinding),
		artifact("cube", metadata.ShaderStageFragment, fragBinding))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(merged) != 1 {
		t.Errorf("expected the shared slot merged into 1 binding, got %d", len(merged))
	}
}

func TestValidatePair_KindMismatch(t *testing.T) {
	vert := artifact("cube", metadata.ShaderStageVertex, metadata.DescriptorBinding{
		Set: 0, Binding: 0, Kind: metadata.ResourceKindUniformBuffer, Name: "Camera", Stage: metadata.ShaderStageVertex,
	})
	frag := artifact("bad", metadata.ShaderStageFragment, metadata.DescriptorBinding{
		Set: 0, Binding: 0, Kind: metadata.ResourceKindSampledImage, Name: "Camera", Stage: metadata.ShaderStageFragment,
	})

	_, err := ValidatePair("cube", vert, frag)
	var violation *core.ContractViolationError
	if !errors.As(err, &violation) {
		t.Fatalf("expected ContractViolationError, got %v", err)
	}
	if violation.Set != 0 || violation.Binding != 0 {
		t.Errorf("violation should locate (set=0, binding=0), got (set=%d, binding=%d)", violation.Set, violation.Binding)
	}
}

func TestValidatePair_NameMismatch(t *testing.T) {
	vert := artifact("cube", metadata.ShaderStageVertex, metadata.DescriptorBinding{
		Set: 1, Binding: 0, Kind: metadata.ResourceKindSampledImage, Name: "uAlbedo", Stage: metadata.ShaderStageVertex,
	})
	frag := artifact("bad", metadata.ShaderStageFragment, metadata.DescriptorBinding{
		Set: 1, Binding: 0, Kind: metadata.ResourceKindSampledImage, Name: "uNormalMap", Stage: metadata.ShaderStageFragment,
	})

	_, err := ValidatePair("cube", vert, frag)
	var violation *core.ContractViolationError
	if !errors.As(err, &violation) {
		t.Fatalf("expected ContractViolationError, got %v", err)
	}
}

func TestValidatePair_WrongStages(t *testing.T) {
	vert := artifact("cube", metadata.ShaderStageVertex)
	frag := artifact("cube", metadata.ShaderStageFragment)

	if _, err := ValidatePair("cube", frag, vert); err == nil {
		t.Error("expected error when stages are swapped")
	}
}
