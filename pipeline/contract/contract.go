// Package contract defines and validates the descriptor layout surface shared
// between every shader variant and the host renderer. Bindings are reflected
// from the declared GLSL text, grouped by (set, binding), and any disagreement
// between the two halves of a variant pair is reported before the pair is ever
// registered, never discovered at draw time.
package contract

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/exp/slices"

	"github.com/spaghettifunk/cubic/pipeline/core"
	"github.com/spaghettifunk/cubic/pipeline/metadata"
)

// ValidatePair checks that the descriptor bindings declared by a vertex and a
// fragment artifact can coexist in one pipeline. Every (set, binding) slot
// referenced by both halves must agree on resource kind and logical name. On
// success it returns the merged binding surface, sorted by (set, binding).
func ValidatePair(variantName string, vertex, fragment *metadata.CompiledArtifact) ([]metadata.DescriptorBinding, error) {
	if vertex.Stage != metadata.ShaderStageVertex {
		return nil, &core.ContractViolationError{
			Variant: variantName,
			Detail:  fmt.Sprintf("artifact '%s' is a %s shader, expected vertex", vertex.SourceName, vertex.Stage),
		}
	}
	if fragment.Stage != metadata.ShaderStageFragment {
		return nil, &core.ContractViolationError{
			Variant: variantName,
			Detail:  fmt.Sprintf("artifact '%s' is a %s shader, expected fragment", fragment.SourceName, fragment.Stage),
		}
	}

	type slot struct {
		set     uint32
		binding uint32
	}
	merged := map[slot]metadata.DescriptorBinding{}

	all := make([]metadata.DescriptorBinding, 0, len(vertex.Bindings)+len(fragment.Bindings))
	all = append(all, vertex.Bindings...)
	all = append(all, fragment.Bindings...)

	for _, b := range all {
		key := slot{set: b.Set, binding: b.Binding}
		prev, seen := merged[key]
		if !seen {
			merged[key] = b
			continue
		}
		if prev.Kind != b.Kind {
			return nil, &core.ContractViolationError{
				Variant: variantName,
				Set:     b.Set,
				Binding: b.Binding,
				Detail:  fmt.Sprintf("resource kind mismatch: %s declares %s, %s declares %s", prev.Stage, prev.Kind, b.Stage, b.Kind),
			}
		}
		if prev.Name != b.Name {
			return nil, &core.ContractViolationError{
				Variant: variantName,
				Set:     b.Set,
				Binding: b.Binding,
				Detail:  fmt.Sprintf("logical name mismatch: %s declares '%s', %s declares '%s'", prev.Stage, prev.Name, b.Stage, b.Name),
			}
		}
	}

	out := make([]metadata.DescriptorBinding, 0, len(merged))
	for _, b := range merged {
		out = append(out, b)
	}
	slices.SortFunc(out, func(a, b metadata.DescriptorBinding) int {
		if a.Set != b.Set {
			return int(a.Set) - int(b.Set)
		}
		return int(a.Binding) - int(b.Binding)
	})
	return out, nil
}

// ParseBindings reflects the descriptor bindings a GLSL source declares by
// scanning its `layout(set = N, binding = M) uniform ...` declarations.
// A declaration naming a sampler type is a sampled image; a block declaration
// is a uniform buffer whose logical name is the block name.
func ParseBindings(name string, stage metadata.ShaderStage, text string) ([]metadata.DescriptorBinding, error) {
	var bindings []metadata.DescriptorBinding

	scanner := bufio.NewScanner(strings.NewReader(text))
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())

		// Skip comments and empty lines
		if strings.HasPrefix(line, "//") || line == "" {
			continue
		}

		set, binding, rest, ok := parseLayoutQualifier(line)
		if !ok {
			continue
		}

		typeName, identifier, ok := splitDeclaration(rest)
		if !ok {
			return nil, &core.SourceError{
				Name:   name,
				Line:   lineNo,
				Detail: fmt.Sprintf("cannot parse uniform declaration: %s", line),
			}
		}

		b := metadata.DescriptorBinding{
			Set:     set,
			Binding: binding,
			Stage:   stage,
		}
		if strings.Contains(strings.ToLower(typeName), "sampler") {
			b.Kind = metadata.ResourceKindSampledImage
			b.Name = identifier
		} else {
			// A block declaration: the block name is the logical name.
			b.Kind = metadata.ResourceKindUniformBuffer
			b.Name = typeName
		}
		bindings = append(bindings, b)
	}
	if err := scanner.Err(); err != nil {
		return nil, &core.SourceError{Name: name, Detail: err.Error()}
	}
	return bindings, nil
}

// parseLayoutQualifier matches `layout(set = N, binding = M) uniform <rest>`.
// Lines without both a set and a binding index (vertex attributes, stage
// outputs, push constants) are not descriptor bindings and report !ok.
func parseLayoutQualifier(line string) (set, binding uint32, rest string, ok bool) {
	if !strings.HasPrefix(line, "layout") {
		return 0, 0, "", false
	}
	open := strings.Index(line, "(")
	closing := strings.Index(line, ")")
	if open < 0 || closing < open {
		return 0, 0, "", false
	}

	haveSet, haveBinding := false, false
	for _, part := range strings.Split(line[open+1:closing], ",") {
		kv := strings.SplitN(part, "=", 2)
		if len(kv) != 2 {
			continue
		}
		value, err := strconv.ParseUint(strings.TrimSpace(kv[1]), 10, 32)
		if err != nil {
			continue
		}
		switch strings.TrimSpace(kv[0]) {
		case "set":
			set = uint32(value)
			haveSet = true
		case "binding":
			binding = uint32(value)
			haveBinding = true
		}
	}
	if !haveSet || !haveBinding {
		return 0, 0, "", false
	}

	rest = strings.TrimSpace(line[closing+1:])
	if !strings.HasPrefix(rest, "uniform") {
		return 0, 0, "", false
	}
	return set, binding, strings.TrimSpace(strings.TrimPrefix(rest, "uniform")), true
}

// splitDeclaration takes the text after the `uniform` keyword and returns the
// type (or block) name and, when present, the declared identifier.
func splitDeclaration(rest string) (typeName, identifier string, ok bool) {
	// Drop the block body, if any: `Camera { mat4 mvp; } u;` -> `Camera`.
	if brace := strings.Index(rest, "{"); brace >= 0 {
		typeName = strings.TrimSpace(rest[:brace])
		return typeName, "", typeName != ""
	}
	fields := strings.Fields(strings.TrimSuffix(strings.TrimSpace(rest), ";"))
	if len(fields) < 2 {
		return "", "", false
	}
	return fields[0], strings.TrimSuffix(fields[1], ";"), true
}
