// Package registry holds the catalog of named variant pairs and answers the
// host renderer's "which artifacts are active for shader X" queries.
// Selection is always explicit by name; the registry never guesses.
package registry

import (
	"fmt"
	"sync"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/spaghettifunk/cubic/pipeline/contract"
	"github.com/spaghettifunk/cubic/pipeline/core"
	"github.com/spaghettifunk/cubic/pipeline/metadata"
)

type VariantRegistry struct {
	// Registered pairs by variant name. Values are immutable once stored:
	// a rebuild swaps in a whole new pair, so a concurrent Select sees either
	// the fully-previous or the fully-new pair, never a torn one.
	variants map[string]*metadata.VariantPair

	mutex sync.RWMutex
}

func NewVariantRegistry() *VariantRegistry {
	return &VariantRegistry{
		variants: make(map[string]*metadata.VariantPair),
	}
}

// Register validates the pair against the descriptor layout contract and
// stores it under the given name. All-or-nothing: on any validation failure
// the catalog is untouched and the prior registration for the name, if any,
// stays in force.
func (r *VariantRegistry) Register(name string, vertex, fragment *metadata.CompiledArtifact) (*metadata.VariantPair, error) {
	bindings, err := contract.ValidatePair(name, vertex, fragment)
	if err != nil {
		core.LogError("register '%s' rejected: %v", name, err)
		return nil, err
	}

	pair := &metadata.VariantPair{
		Name:     name,
		Vertex:   vertex,
		Fragment: fragment,
		Bindings: bindings,
		State:    metadata.VariantStateActive,
	}

	r.mutex.Lock()
	_, replacing := r.variants[name]
	r.variants[name] = pair
	r.mutex.Unlock()

	if replacing {
		core.LogInfo("variant '%s' replaced (vert=%s, frag=%s)", name, vertex.Key(), fragment.Key())
	} else {
		core.LogInfo("variant '%s' registered (vert=%s, frag=%s)", name, vertex.Key(), fragment.Key())
	}
	return pair, nil
}

// Select returns the currently active pair for the name. This is the only
// read path the host renderer uses and is safe to call while concurrent
// Register calls are rebuilding other names.
func (r *VariantRegistry) Select(name string) (*metadata.VariantPair, error) {
	r.mutex.RLock()
	pair, found := r.variants[name]
	r.mutex.RUnlock()

	if !found {
		return nil, fmt.Errorf("'%s': %w", name, core.ErrVariantNotFound)
	}
	return pair, nil
}

// Names lists the registered variant names in sorted order.
func (r *VariantRegistry) Names() []string {
	r.mutex.RLock()
	names := maps.Keys(r.variants)
	r.mutex.RUnlock()

	slices.Sort(names)
	return names
}

func (r *VariantRegistry) Len() int {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return len(r.variants)
}
