package assets

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spaghettifunk/cubic/pipeline/contract"
	"github.com/spaghettifunk/cubic/pipeline/metadata"
)

// LoadSource reads a shader source from disk and reflects its declared
// descriptor bindings. The returned source is immutable from here on.
func LoadSource(shaderDir string, cfg *SourceConfig) (*metadata.ShaderSource, error) {
	stage, err := metadata.ParseShaderStage(cfg.Stage)
	if err != nil {
		return nil, err
	}

	fullPath := filepath.Join(shaderDir, cfg.Path)
	data, err := os.ReadFile(fullPath)
	if err != nil {
		return nil, fmt.Errorf("load shader %q: %w", cfg.Name, err)
	}

	text := string(data)
	bindings, err := contract.ParseBindings(cfg.Name, stage, text)
	if err != nil {
		return nil, err
	}

	return &metadata.ShaderSource{
		Name:     cfg.Name,
		Stage:    stage,
		FullPath: fullPath,
		Text:     text,
		Bindings: bindings,
	}, nil
}

// LoadArtifact reads a compiled binary back from durable storage for
// host-renderer consumption, rejecting files that are not SPIR-V modules.
func LoadArtifact(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load artifact %q: %w", path, err)
	}
	if len(data) < 4 || len(data)%4 != 0 {
		return nil, fmt.Errorf("artifact %q: not a SPIR-V module (size %d)", path, len(data))
	}
	if magic := binary.LittleEndian.Uint32(data[:4]); magic != metadata.SpirvMagic {
		return nil, fmt.Errorf("artifact %q: bad magic 0x%08x", path, magic)
	}
	return data, nil
}
