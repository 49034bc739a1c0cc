package compiler

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/spaghettifunk/cubic/pipeline/core"
	"github.com/spaghettifunk/cubic/pipeline/metadata"
)

const defaultTimeout = 30 * time.Second

// Glslc drives the glslc shader compiler as an external process. One
// invocation per artifact; the process either completes or is killed at the
// timeout, it is never allowed to hang the batch.
type Glslc struct {
	binary  string
	timeout time.Duration
}

type GlslcOption func(*Glslc)

// WithBinary overrides the compiler executable looked up on PATH.
func WithBinary(binary string) GlslcOption {
	return func(g *Glslc) {
		g.binary = binary
	}
}

// WithTimeout bounds a single compiler invocation.
func WithTimeout(timeout time.Duration) GlslcOption {
	return func(g *Glslc) {
		g.timeout = timeout
	}
}

func NewGlslc(options ...GlslcOption) *Glslc {
	g := &Glslc{
		binary:  "glslc",
		timeout: defaultTimeout,
	}
	for _, o := range options {
		o(g)
	}
	return g
}

// Matches glslc diagnostics of the form `path:line: error: ...` and
// `path:line:column: error: ...`.
var diagnosticRe = regexp.MustCompile(`(?m)^.*?:(\d+):(?:(\d+):)?\s*error:\s*(.+)$`)

func (g *Glslc) Compile(ctx context.Context, job Job) (*metadata.CompiledArtifact, error) {
	path, err := exec.LookPath(g.binary)
	if err != nil {
		return nil, &core.ExternalToolError{
			Tool:   g.binary,
			Detail: "compiler not found on PATH",
			Err:    err,
		}
	}

	if err := os.MkdirAll(job.OutputDir, 0o755); err != nil {
		return nil, &core.ExternalToolError{Tool: g.binary, Detail: "cannot create output directory", Err: err}
	}

	artifactPath := job.ArtifactPath()
	// Compile to a scratch path and rename, so a crashed invocation never
	// leaves a truncated artifact at the durable location.
	tmpPath := artifactPath + ".tmp"
	defer os.Remove(tmpPath)

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, path, g.args(job, tmpPath)...)
	var output bytes.Buffer
	cmd.Stdout = &output
	cmd.Stderr = &output

	if err := cmd.Run(); err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, &core.ExternalToolError{
				Tool:   g.binary,
				Detail: "invocation timed out compiling '" + job.Source.Name + "'",
				Err:    ctx.Err(),
			}
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			if srcErr := parseDiagnostics(job.Source.Name, output.String()); srcErr != nil {
				return nil, srcErr
			}
		}
		return nil, &core.ExternalToolError{
			Tool:   g.binary,
			Detail: "compiler failed on '" + job.Source.Name + "': " + output.String(),
			Err:    err,
		}
	}

	if err := os.Rename(tmpPath, artifactPath); err != nil {
		return nil, &core.ExternalToolError{Tool: g.binary, Detail: "cannot place artifact", Err: err}
	}

	payload, err := os.ReadFile(artifactPath)
	if err != nil {
		return nil, &core.ExternalToolError{Tool: g.binary, Detail: "cannot read back artifact", Err: err}
	}

	core.LogDebug("compiled %s -> %s (%d bytes)", job.Source.FullPath, artifactPath, len(payload))

	return &metadata.CompiledArtifact{
		ID:         uuid.New(),
		SourceName: job.Source.Name,
		Stage:      job.Source.Stage,
		TargetEnv:  job.TargetEnv,
		Knobs:      job.Knobs,
		FullPath:   artifactPath,
		Payload:    payload,
		Bindings:   job.Source.Bindings,
	}, nil
}

// args builds the glslc command line. The define order is fixed by
// KnobSet.Defines so identical jobs always produce identical invocations.
func (g *Glslc) args(job Job, outputPath string) []string {
	args := []string{
		"-fshader-stage=" + job.Source.Stage.String(),
		"--target-env=" + job.TargetEnv,
	}
	if job.Optimize {
		args = append(args, "-O")
	}
	for _, d := range job.Knobs.Defines() {
		args = append(args, "-D"+d)
	}
	args = append(args, filepath.ToSlash(job.Source.FullPath), "-o", outputPath)
	return args
}

// parseDiagnostics extracts the first positioned error from compiler output.
// Returns nil when the output carries no recognizable source diagnostic, in
// which case the failure is treated as a tool fault instead.
func parseDiagnostics(sourceName, output string) *core.SourceError {
	m := diagnosticRe.FindStringSubmatch(output)
	if m == nil {
		return nil
	}
	line, _ := strconv.Atoi(m[1])
	column := 0
	if m[2] != "" {
		column, _ = strconv.Atoi(m[2])
	}
	return &core.SourceError{
		Name:   sourceName,
		Line:   line,
		Column: column,
		Detail: m[3],
	}
}
