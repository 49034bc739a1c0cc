package assets

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/spaghettifunk/cubic/pipeline/metadata"
)

/** @brief The build manifest: everything one batch build needs to know. */
type Manifest struct {
	/** @brief Versioned execution environment the artifacts target. */
	TargetEnv string `toml:"target_env"`
	/** @brief Whether the compiler optimizes the artifacts. */
	Optimize bool `toml:"optimize"`
	/** @brief Directory compiled artifacts are written to. */
	OutputDir string `toml:"output_dir"`
	/** @brief Directory the shader sources live in. */
	ShaderDir string `toml:"shader_dir"`
	/** @brief The authored shader sources. */
	Sources []SourceConfig `toml:"sources"`
	/** @brief The variant pairs to build and register. */
	Variants []VariantConfig `toml:"variants"`
}

/** @brief One authored shader source. */
type SourceConfig struct {
	Name  string `toml:"name"`
	Stage string `toml:"stage"`
	Path  string `toml:"path"`
}

/** @brief One variant pair, with optional knob overrides. */
type VariantConfig struct {
	Name     string `toml:"name"`
	Vertex   string `toml:"vertex"`
	Fragment string `toml:"fragment"`
	/** @brief UV tiling factor override; compiled-in default when absent. */
	Tiling []float32 `toml:"tiling"`
	/** @brief Vertical UV flip override. */
	Flip bool `toml:"flip"`
}

// Knobs resolves the variant's knob overrides against the defaults.
func (vc *VariantConfig) Knobs() metadata.KnobSet {
	knobs := metadata.DefaultKnobs()
	if len(vc.Tiling) == 2 {
		knobs.Tiling = metadata.Vec2{X: vc.Tiling[0], Y: vc.Tiling[1]}
	}
	knobs.FlipV = vc.Flip
	return knobs
}

// LoadManifest parses and validates a TOML build manifest.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load manifest %q: %w", path, err)
	}

	m := &Manifest{
		TargetEnv: "vulkan1.0",
		ShaderDir: "shaders",
		OutputDir: "shaders/bin",
	}
	if err := toml.Unmarshal(data, m); err != nil {
		return nil, fmt.Errorf("parse manifest %q: %w", path, err)
	}
	if err := m.validate(); err != nil {
		return nil, fmt.Errorf("manifest %q: %w", path, err)
	}
	return m, nil
}

func (m *Manifest) validate() error {
	if len(m.Sources) == 0 {
		return fmt.Errorf("no shader sources declared")
	}

	sources := map[string]bool{}
	for i := range m.Sources {
		sc := &m.Sources[i]
		if sc.Name == "" || sc.Path == "" {
			return fmt.Errorf("source %d: name and path are required", i)
		}
		stage, err := metadata.ParseShaderStage(sc.Stage)
		if err != nil {
			return fmt.Errorf("source '%s': %w", sc.Name, err)
		}
		key := sc.Name + "." + stage.Short()
		if sources[key] {
			return fmt.Errorf("duplicate source '%s' for stage %s", sc.Name, stage)
		}
		sources[key] = true
	}

	variants := map[string]bool{}
	for i := range m.Variants {
		vc := &m.Variants[i]
		if vc.Name == "" {
			return fmt.Errorf("variant %d: name is required", i)
		}
		if variants[vc.Name] {
			return fmt.Errorf("duplicate variant '%s'", vc.Name)
		}
		variants[vc.Name] = true
		if len(vc.Tiling) != 0 && len(vc.Tiling) != 2 {
			return fmt.Errorf("variant '%s': tiling needs exactly 2 components, got %d", vc.Name, len(vc.Tiling))
		}
		if !sources[vc.Vertex+".vert"] {
			return fmt.Errorf("variant '%s': no vertex source named '%s'", vc.Name, vc.Vertex)
		}
		if !sources[vc.Fragment+".frag"] {
			return fmt.Errorf("variant '%s': no fragment source named '%s'", vc.Name, vc.Fragment)
		}
	}
	return nil
}

// FindSource returns the source declaration for a (name, stage) pair.
func (m *Manifest) FindSource(name string, stage metadata.ShaderStage) (*SourceConfig, error) {
	for i := range m.Sources {
		sc := &m.Sources[i]
		if sc.Name != name {
			continue
		}
		scStage, err := metadata.ParseShaderStage(sc.Stage)
		if err != nil {
			continue
		}
		if scStage == stage {
			return sc, nil
		}
	}
	return nil, fmt.Errorf("no %s source named '%s'", stage, name)
}
