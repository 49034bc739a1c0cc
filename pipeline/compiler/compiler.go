// Package compiler turns shader sources into versioned binary artifacts.
// The actual translation is delegated to an external tool behind the Compiler
// boundary; everything that can fail there is converted into the pipeline's
// error taxonomy instead of leaking process-level faults.
package compiler

import (
	"context"
	"path/filepath"

	"github.com/spaghettifunk/cubic/pipeline/metadata"
)

// Compiler produces exactly one compiled artifact from one source, or fails.
// Implementations must be deterministic: identical jobs yield byte-identical
// payloads, which is what makes build caching and reproducible distribution
// possible.
type Compiler interface {
	Compile(ctx context.Context, job Job) (*metadata.CompiledArtifact, error)
}

// Job is one fully resolved compiler invocation: a source, a target
// environment and the knob values baked into this build.
type Job struct {
	Source    *metadata.ShaderSource
	TargetEnv string
	Optimize  bool
	Knobs     metadata.KnobSet
	OutputDir string
}

// Key identifies the job's (source identity, resolved knobs) pair inside a
// batch. Two variants sharing a stage with equal knobs share one job.
func (j Job) Key() string {
	return metadata.ArtifactKey(j.Source.Name, j.Source.Stage, j.Knobs)
}

// ArtifactPath is the durable location the compiled binary is written to.
// Default-knob builds land at the predictable `<name>.<stage>.spv`; other
// knob resolutions carry the knob digest so they never clobber the default.
func (j Job) ArtifactPath() string {
	return filepath.Join(j.OutputDir, j.Key()+".spv")
}
