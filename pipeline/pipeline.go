// Package pipeline wires the shader build pipeline together: manifest in,
// compiled artifacts out, validated variant pairs registered for the host
// renderer to select at draw time.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/spaghettifunk/cubic/pipeline/assets"
	"github.com/spaghettifunk/cubic/pipeline/compiler"
	"github.com/spaghettifunk/cubic/pipeline/core"
	"github.com/spaghettifunk/cubic/pipeline/metadata"
	"github.com/spaghettifunk/cubic/pipeline/registry"
)

type Pipeline struct {
	manifest *assets.Manifest
	compiler compiler.Compiler
	registry *registry.VariantRegistry
	watcher  *assets.SourceWatcher

	// Loaded sources by source key. Replaced wholesale on reload, entries are
	// never mutated in place.
	sources map[string]*metadata.ShaderSource
	// Source-load failures, reported with the next build so a broken source
	// does not hide its siblings.
	loadFailures []error

	mutex sync.RWMutex
}

type Option func(*Pipeline)

// WithCompiler overrides the default glslc-backed compiler.
func WithCompiler(c compiler.Compiler) Option {
	return func(p *Pipeline) {
		p.compiler = c
	}
}

func New(manifest *assets.Manifest, options ...Option) *Pipeline {
	p := &Pipeline{
		manifest: manifest,
		compiler: compiler.NewGlslc(),
		registry: registry.NewVariantRegistry(),
		sources:  make(map[string]*metadata.ShaderSource),
	}
	for _, o := range options {
		o(p)
	}
	return p
}

// Initialize loads every declared shader source and reflects its bindings.
// A source that fails to load is recorded, not fatal: sibling sources still
// load and variants that depend on the broken one fail at build time.
func (p *Pipeline) Initialize() error {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	for i := range p.manifest.Sources {
		cfg := &p.manifest.Sources[i]
		source, err := assets.LoadSource(p.manifest.ShaderDir, cfg)
		if err != nil {
			core.LogError("%v", err)
			p.loadFailures = append(p.loadFailures, err)
			continue
		}
		p.sources[source.Key()] = source
		core.LogDebug("loaded %s (%d binding(s))", source.Key(), len(source.Bindings))
	}
	return nil
}

// Build compiles every variant in the manifest and registers the pairs whose
// halves built and validate. All per-artifact failures are collected and
// returned together; one failure never aborts the rest of the batch.
func (p *Pipeline) Build(ctx context.Context) error {
	variants := make([]*assets.VariantConfig, 0, len(p.manifest.Variants))
	for i := range p.manifest.Variants {
		variants = append(variants, &p.manifest.Variants[i])
	}
	return p.buildVariants(ctx, variants)
}

func (p *Pipeline) buildVariants(ctx context.Context, variants []*assets.VariantConfig) error {
	batch := compiler.NewBatch(p.compiler)

	type pending struct {
		config  *assets.VariantConfig
		vertKey string
		fragKey string
	}
	var wanted []pending
	var failures []error

	p.mutex.RLock()
	failures = append(failures, p.loadFailures...)
	for _, vc := range variants {
		vert, vertOK := p.sources[vc.Vertex+".vert"]
		frag, fragOK := p.sources[vc.Fragment+".frag"]
		if !vertOK || !fragOK {
			// The load failure of the missing half is already collected.
			core.LogWarn("variant '%s' skipped: missing source", vc.Name)
			continue
		}
		knobs := vc.Knobs()
		wanted = append(wanted, pending{
			config: vc,
			vertKey: batch.Add(compiler.Job{
				Source:    vert,
				TargetEnv: p.manifest.TargetEnv,
				Optimize:  p.manifest.Optimize,
				Knobs:     knobs,
				OutputDir: p.manifest.OutputDir,
			}),
			fragKey: batch.Add(compiler.Job{
				Source:    frag,
				TargetEnv: p.manifest.TargetEnv,
				Optimize:  p.manifest.Optimize,
				Knobs:     knobs,
				OutputDir: p.manifest.OutputDir,
			}),
		})
	}
	p.mutex.RUnlock()

	result := batch.Run(ctx)
	failures = append(failures, result.Failures...)

	for _, w := range wanted {
		vert := result.Artifacts[w.vertKey]
		frag := result.Artifacts[w.fragKey]
		if vert == nil || frag == nil {
			// Compile failure already collected; the prior registration for
			// this name, if any, stays in force.
			core.LogWarn("variant '%s' not registered: build incomplete", w.config.Name)
			continue
		}
		if _, err := p.registry.Register(w.config.Name, vert, frag); err != nil {
			failures = append(failures, err)
		}
	}
	return errors.Join(failures...)
}

// Watch rebuilds and re-registers variants whenever their sources change on
// disk. Blocks until the context is cancelled.
func (p *Pipeline) Watch(ctx context.Context) error {
	watcher, err := assets.NewSourceWatcher(func(paths []string) {
		p.rebuildChanged(context.Background(), paths)
	})
	if err != nil {
		return err
	}
	if err := watcher.Initialize(p.manifest.ShaderDir); err != nil {
		_ = watcher.Shutdown()
		return err
	}

	p.mutex.Lock()
	p.watcher = watcher
	p.mutex.Unlock()

	<-ctx.Done()
	return p.Shutdown()
}

// rebuildChanged reloads the sources behind the changed paths and rebuilds
// only the variants that reference them.
func (p *Pipeline) rebuildChanged(ctx context.Context, paths []string) {
	changed := map[string]bool{}
	for _, path := range paths {
		changed[filepath.Clean(path)] = true
	}

	reloaded := map[string]bool{}
	p.mutex.Lock()
	for i := range p.manifest.Sources {
		cfg := &p.manifest.Sources[i]
		fullPath := filepath.Clean(filepath.Join(p.manifest.ShaderDir, cfg.Path))
		if !changed[fullPath] {
			continue
		}
		source, err := assets.LoadSource(p.manifest.ShaderDir, cfg)
		if err != nil {
			core.LogError("reload failed: %v", err)
			continue
		}
		p.sources[source.Key()] = source
		reloaded[cfg.Name] = true
	}
	p.mutex.Unlock()

	if len(reloaded) == 0 {
		return
	}

	var affected []*assets.VariantConfig
	for i := range p.manifest.Variants {
		vc := &p.manifest.Variants[i]
		if reloaded[vc.Vertex] || reloaded[vc.Fragment] {
			affected = append(affected, vc)
		}
	}
	if len(affected) == 0 {
		return
	}

	core.LogInfo("rebuilding %d variant(s) after source change", len(affected))
	if err := p.buildVariants(ctx, affected); err != nil {
		core.LogError("rebuild: %v", err)
	}
}

// Registry exposes the variant catalog the host renderer selects from.
func (p *Pipeline) Registry() *registry.VariantRegistry {
	return p.registry
}

// Describe logs the registered variants and their binding surface, for
// diagnostics.
func (p *Pipeline) Describe() {
	for _, name := range p.registry.Names() {
		pair, err := p.registry.Select(name)
		if err != nil {
			continue
		}
		core.LogInfo("variant '%s': vert=%s frag=%s", name, pair.Vertex.Key(), pair.Fragment.Key())
		for _, b := range pair.Bindings {
			core.LogInfo("  set=%d binding=%d %s '%s' (%s)", b.Set, b.Binding, b.Kind, b.Name, b.Stage)
		}
	}
}

func (p *Pipeline) Shutdown() error {
	p.mutex.Lock()
	watcher := p.watcher
	p.watcher = nil
	p.mutex.Unlock()

	if watcher != nil {
		if err := watcher.Shutdown(); err != nil {
			return fmt.Errorf("shutdown watcher: %w", err)
		}
	}
	return nil
}
