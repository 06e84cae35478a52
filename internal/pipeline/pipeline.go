// Package pipeline loads YAML pass pipelines and runs them over a module.
//
// A pipeline names a synthetic workload, an ordered list of passes and the
// policy around them:
//
//	name: fold-chain
//	description: Fold a constant-folding chain down to one constant.
//	workload:
//	  kind: constant-folding
//	  size: 100
//	  seed: 7
//	passes: [canonicalize]
//	max_rewrites: 10000
//	verify: true
//	expect:
//	  ops: [arith.constant, test.op]
package pipeline

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/roach88/irx/internal/catalog"
	"github.com/roach88/irx/internal/dialect"
	"github.com/roach88/irx/internal/dialect/arith"
	"github.com/roach88/irx/internal/dialect/builtin"
	"github.com/roach88/irx/internal/ir"
	"github.com/roach88/irx/internal/transforms"
	"github.com/roach88/irx/internal/workload"
)

// Pipeline is a named, ordered list of passes over a workload.
type Pipeline struct {
	// Name identifies the pipeline in reports and the journal.
	Name string `yaml:"name"`

	// Description explains what the pipeline exercises.
	Description string `yaml:"description,omitempty"`

	// Catalogs lists CUE trait catalog directories to load in addition to
	// the builtin and arith dialects. Relative paths are resolved against
	// the pipeline file's directory by Load.
	Catalogs []string `yaml:"catalogs,omitempty"`

	// AllowUnregistered accepts operation kinds no dialect declares.
	// Defaults to true.
	AllowUnregistered *bool `yaml:"allow_unregistered,omitempty"`

	// Workload selects the module the passes run on.
	Workload Workload `yaml:"workload"`

	// Passes are pass names, run in order.
	Passes []string `yaml:"passes"`

	// MaxRewrites bounds the graph changes of each pass. Zero means the
	// driver default.
	MaxRewrites int `yaml:"max_rewrites,omitempty"`

	// Verify runs the verifier before the first pass and after every pass.
	// Defaults to true.
	Verify *bool `yaml:"verify,omitempty"`

	// Expect holds optional checks on the final module.
	Expect *Expect `yaml:"expect,omitempty"`
}

// Workload selects a synthetic module.
type Workload struct {
	Kind string `yaml:"kind"`
	Size *int   `yaml:"size,omitempty"`
	Seed uint64 `yaml:"seed,omitempty"`
}

// Expect describes the final module.
type Expect struct {
	// Ops are the operation kinds of the module body, in order.
	Ops []string `yaml:"ops,omitempty"`
}

// Load reads, parses and validates a pipeline file. Relative catalog paths
// are resolved against the file's directory.
func Load(path string) (*Pipeline, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read pipeline file: %w", err)
	}
	p, err := Parse(data)
	if err != nil {
		return nil, err
	}
	base := filepath.Dir(path)
	for i, dir := range p.Catalogs {
		if !filepath.IsAbs(dir) {
			p.Catalogs[i] = filepath.Join(base, dir)
		}
	}
	return p, nil
}

// Parse decodes and validates a pipeline. Unknown fields are rejected.
func Parse(data []byte) (*Pipeline, error) {
	var p Pipeline
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&p); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("invalid pipeline: %w", err)
	}
	return &p, nil
}

// Validate checks required fields and that every pass and workload exists.
func (p *Pipeline) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("name is required")
	}
	if len(p.Passes) == 0 {
		return fmt.Errorf("passes list is required and must be non-empty")
	}
	for i, name := range p.Passes {
		if _, err := transforms.Lookup(name); err != nil {
			return fmt.Errorf("passes[%d]: %w", i, err)
		}
	}
	if p.Workload.Kind == "" {
		return fmt.Errorf("workload.kind is required")
	}
	if !slices.Contains(workload.Kinds(), p.Workload.Kind) {
		return fmt.Errorf("workload.kind: unknown workload %q", p.Workload.Kind)
	}
	if p.Workload.Size != nil && *p.Workload.Size < 0 {
		return fmt.Errorf("workload.size must not be negative")
	}
	if p.MaxRewrites < 0 {
		return fmt.Errorf("max_rewrites must not be negative")
	}
	return nil
}

// VerifyEnabled reports whether the verifier runs around passes.
func (p *Pipeline) VerifyEnabled() bool {
	return p.Verify == nil || *p.Verify
}

// UnregisteredAllowed reports whether unknown operation kinds are accepted.
func (p *Pipeline) UnregisteredAllowed() bool {
	return p.AllowUnregistered == nil || *p.AllowUnregistered
}

// NewContext builds the dialect context the pipeline runs in: builtin,
// arith, then each catalog in order.
func (p *Pipeline) NewContext() (*dialect.Context, error) {
	var opts []dialect.ContextOption
	if p.UnregisteredAllowed() {
		opts = append(opts, dialect.WithAllowUnregistered())
	}
	dctx := dialect.NewContext(opts...)
	if err := dctx.Load(builtin.Dialect()); err != nil {
		return nil, err
	}
	if err := dctx.Load(arith.Dialect()); err != nil {
		return nil, err
	}
	for _, dir := range p.Catalogs {
		if _, err := catalog.LoadInto(dctx, dir); err != nil {
			return nil, fmt.Errorf("catalog %s: %w", dir, err)
		}
	}
	return dctx, nil
}

// BuildModule creates a fresh module for the pipeline's workload.
func (p *Pipeline) BuildModule() (*ir.Operation, error) {
	size := workload.DefaultSize
	if p.Workload.Size != nil {
		size = *p.Workload.Size
	}
	return workload.Build(p.Workload.Kind, size, p.Workload.Seed)
}
