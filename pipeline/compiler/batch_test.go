package compiler

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/spaghettifunk/cubic/pipeline/core"
	"github.com/spaghettifunk/cubic/pipeline/metadata"
)

// fakeCompiler compiles in-process: the payload is a digest of everything
// that legally influences the artifact, so identical jobs are byte-identical
// and different knob resolutions are not. Sources containing "!!" fail the
// way a syntax error would.
type fakeCompiler struct{}

func (f *fakeCompiler) Compile(_ context.Context, job Job) (*metadata.CompiledArtifact, error) {
	if strings.Contains(job.Source.Text, "!!") {
		return nil, &core.SourceError{Name: job.Source.Name, Line: 1, Detail: "syntax error"}
	}

	h := sha256.New()
	h.Write([]byte(job.Source.Text))
	h.Write([]byte(job.TargetEnv))
	for _, d := range job.Knobs.Defines() {
		h.Write([]byte(d))
	}

	payload := binary.LittleEndian.AppendUint32(nil, metadata.SpirvMagic)
	payload = append(payload, h.Sum(nil)...)

	return &metadata.CompiledArtifact{
		ID:         uuid.New(),
		SourceName: job.Source.Name,
		Stage:      job.Source.Stage,
		TargetEnv:  job.TargetEnv,
		Knobs:      job.Knobs,
		FullPath:   job.ArtifactPath(),
		Payload:    payload,
		Bindings:   job.Source.Bindings,
	}, nil
}

func testSource(name string, stage metadata.ShaderStage, text string) *metadata.ShaderSource {
	return &metadata.ShaderSource{
		Name:     name,
		Stage:    stage,
		FullPath: "shaders/" + name,
		Text:     text,
	}
}

func testJob(source *metadata.ShaderSource, knobs metadata.KnobSet) Job {
	return Job{
		Source:    source,
		TargetEnv: "vulkan1.0",
		Optimize:  true,
		Knobs:     knobs,
		OutputDir: "out",
	}
}

func TestCompile_Deterministic(t *testing.T) {
	fake := &fakeCompiler{}
	job := testJob(testSource("cube", metadata.ShaderStageVertex, "void main() {}"), metadata.DefaultKnobs())

	first, err := fake.Compile(context.Background(), job)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := fake.Compile(context.Background(), job)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !bytes.Equal(first.Payload, second.Payload) {
		t.Error("same source and knobs must produce byte-identical payloads")
	}

	// A different knob resolution is a different artifact.
	flipped := testJob(job.Source, metadata.KnobSet{Tiling: metadata.Vec2{X: 1, Y: 1}, FlipV: true})
	third, err := fake.Compile(context.Background(), flipped)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if bytes.Equal(first.Payload, third.Payload) {
		t.Error("distinct knob values must yield distinct payloads")
	}
}

func TestBatch_FailureIsolation(t *testing.T) {
	batch := NewBatch(&fakeCompiler{})
	batch.Add(testJob(testSource("good_a", metadata.ShaderStageVertex, "void main() {}"), metadata.DefaultKnobs()))
	batch.Add(testJob(testSource("broken", metadata.ShaderStageFragment, "!!"), metadata.DefaultKnobs()))
	batch.Add(testJob(testSource("good_b", metadata.ShaderStageFragment, "void main() {}"), metadata.DefaultKnobs()))

	result := batch.Run(context.Background())

	if len(result.Failures) != 1 {
		t.Fatalf("expected exactly 1 failure, got %d (%v)", len(result.Failures), result.Failures)
	}
	var srcErr *core.SourceError
	if !errors.As(result.Failures[0], &srcErr) {
		t.Errorf("expected SourceError, got %v", result.Failures[0])
	}
	if srcErr.Name != "broken" {
		t.Errorf("failure should carry the source identity, got %q", srcErr.Name)
	}

	if len(result.Artifacts) != 2 {
		t.Fatalf("siblings must still build, expected 2 artifacts, got %d", len(result.Artifacts))
	}
	if result.Artifacts["good_a.vert"] == nil || result.Artifacts["good_b.frag"] == nil {
		t.Error("expected artifacts for good_a.vert and good_b.frag")
	}

	if result.Err() == nil {
		t.Error("a batch with any failure must report a non-nil error")
	}
}

func TestBatch_DeduplicatesJobs(t *testing.T) {
	batch := NewBatch(&fakeCompiler{})
	source := testSource("cube", metadata.ShaderStageVertex, "void main() {}")

	keyA := batch.Add(testJob(source, metadata.DefaultKnobs()))
	keyB := batch.Add(testJob(source, metadata.DefaultKnobs()))

	if keyA != keyB {
		t.Errorf("identical resolutions must share a key: %q vs %q", keyA, keyB)
	}
	if batch.Len() != 1 {
		t.Errorf("expected 1 queued job, got %d", batch.Len())
	}

	// A different knob resolution of the same source is its own job.
	keyC := batch.Add(testJob(source, metadata.KnobSet{Tiling: metadata.Vec2{X: 2, Y: 1}}))
	if keyC == keyA {
		t.Error("distinct knob resolutions must not share a key")
	}
	if batch.Len() != 2 {
		t.Errorf("expected 2 queued jobs, got %d", batch.Len())
	}
}

func TestBatch_CancelledBeforeRun(t *testing.T) {
	batch := NewBatch(&fakeCompiler{})
	batch.Add(testJob(testSource("cube", metadata.ShaderStageVertex, "void main() {}"), metadata.DefaultKnobs()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := batch.Run(ctx)
	if len(result.Artifacts) != 0 {
		t.Errorf("no artifact may be produced after cancellation, got %d", len(result.Artifacts))
	}
	if len(result.Failures) != 1 || !errors.Is(result.Failures[0], core.ErrBuildAborted) {
		t.Errorf("expected a single ErrBuildAborted failure, got %v", result.Failures)
	}
}
