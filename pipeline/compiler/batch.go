package compiler

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/spaghettifunk/cubic/pipeline/core"
	"github.com/spaghettifunk/cubic/pipeline/metadata"
)

// BatchResult collects the outcome of a batch build: every artifact that
// succeeded and every failure, so a single typo never hides other errors.
type BatchResult struct {
	// Artifacts successfully built, keyed by Job.Key().
	Artifacts map[string]*metadata.CompiledArtifact
	// Failures of individual jobs, in no particular order.
	Failures []error
}

// Err folds the per-job failures into one error, nil when the batch is clean.
func (r *BatchResult) Err() error {
	return errors.Join(r.Failures...)
}

// Batch fans out one compiler invocation per (source, knob resolution) pair.
// Jobs are independent and run concurrently; the only join point is the
// result collection at the end.
type Batch struct {
	compiler Compiler
	jobs     []Job
	seen     map[string]bool
}

func NewBatch(c Compiler) *Batch {
	return &Batch{
		compiler: c,
		seen:     map[string]bool{},
	}
}

// Add queues a job unless an identical (source, knobs) resolution is already
// queued. Returns the job key either way.
func (b *Batch) Add(job Job) string {
	key := job.Key()
	if b.seen[key] {
		return key
	}
	b.seen[key] = true
	b.jobs = append(b.jobs, job)
	return key
}

func (b *Batch) Len() int {
	return len(b.jobs)
}

// Run executes every queued job and joins on completion. Cancellation is
// honored between job launches; invocations already in flight run to
// completion under their own timeout, so no partial artifact is ever
// reported as built.
func (b *Batch) Run(ctx context.Context) *BatchResult {
	batchID := uuid.New()
	core.LogInfo("batch %s: building %d artifact(s)", batchID, len(b.jobs))

	result := &BatchResult{
		Artifacts: make(map[string]*metadata.CompiledArtifact, len(b.jobs)),
	}

	var wg sync.WaitGroup
	var mutex sync.Mutex

	for _, job := range b.jobs {
		if ctx.Err() != nil {
			result.Failures = append(result.Failures,
				fmt.Errorf("'%s': %w", job.Key(), core.ErrBuildAborted))
			continue
		}
		wg.Add(1)
		go func(job Job) {
			defer wg.Done()
			artifact, err := b.compiler.Compile(ctx, job)

			mutex.Lock()
			defer mutex.Unlock()
			if err != nil {
				core.LogError("batch %s: %v", batchID, err)
				result.Failures = append(result.Failures, err)
				return
			}
			result.Artifacts[job.Key()] = artifact
		}(job)
	}
	wg.Wait()

	if len(result.Failures) > 0 {
		core.LogWarn("batch %s: %d of %d job(s) failed", batchID, len(result.Failures), len(b.jobs))
	} else {
		core.LogInfo("batch %s: done", batchID)
	}
	return result
}
