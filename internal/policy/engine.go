package policy

import (
	"context"
	_ "embed"
	"fmt"
	"sort"
	"time"

	"github.com/open-policy-agent/opa/v1/rego"
	"github.com/spf13/afero"
)

// Package is the Rego package every upload rule lives in.
const Package = "azubihub.uploads"

//go:embed uploads.rego
var builtinPolicy string

// Engine evaluates the built-in rules plus any extra .rego files from the
// policies directory. The query is prepared once and safe for concurrent use.
type Engine struct {
	policies []*PolicyFile
	deny     rego.PreparedEvalQuery
	now      func() time.Time
}

// EngineConfig configures NewEngine.
type EngineConfig struct {
	// PoliciesDir holds extra rules. Empty means built-in rules only.
	PoliciesDir string
	// Fs defaults to the OS filesystem.
	Fs afero.Fs
}

// NewEngine loads and compiles the rules.
func NewEngine(ctx context.Context, cfg EngineConfig) (*Engine, error) {
	if cfg.Fs == nil {
		cfg.Fs = afero.NewOsFs()
	}

	policies := []*PolicyFile{{Path: "builtin/uploads.rego", Name: "uploads", Content: builtinPolicy}}
	if cfg.PoliciesDir != "" {
		extra, err := NewLoader(cfg.Fs, cfg.PoliciesDir).LoadAll()
		if err != nil {
			return nil, fmt.Errorf("load policies: %w", err)
		}
		policies = append(policies, extra...)
	}
	return NewEngineWithPolicies(ctx, policies)
}

// NewEngineWithPolicies compiles exactly the given modules.
func NewEngineWithPolicies(ctx context.Context, policies []*PolicyFile) (*Engine, error) {
	opts := []func(*rego.Rego){rego.Query("data." + Package + ".deny")}
	for _, p := range policies {
		opts = append(opts, rego.Module(p.Path, p.Content))
	}
	deny, err := rego.New(opts...).PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("compile policies: %w", err)
	}
	return &Engine{policies: policies, deny: deny, now: time.Now}, nil
}

// PolicyNames returns the names of the loaded modules.
func (e *Engine) PolicyNames() []string {
	names := make([]string, len(e.policies))
	for i, p := range e.policies {
		names[i] = p.Name
	}
	return names
}

// Evaluate collects the deny messages for in.
func (e *Engine) Evaluate(ctx context.Context, in UploadInput) (*Decision, error) {
	rs, err := e.deny.Eval(ctx, rego.EvalInput(in))
	if err != nil {
		return nil, fmt.Errorf("evaluate upload policy: %w", err)
	}

	var violations []string
	for _, result := range rs {
		for _, expr := range result.Expressions {
			set, ok := expr.Value.([]any)
			if !ok {
				continue
			}
			for _, item := range set {
				if s, ok := item.(string); ok {
					violations = append(violations, s)
				}
			}
		}
	}
	sort.Strings(violations)

	return &Decision{
		Allowed:     len(violations) == 0,
		Violations:  violations,
		EvaluatedAt: e.now().UTC(),
	}, nil
}

// CheckUpload returns a *DeniedError when any rule fires.
func (e *Engine) CheckUpload(ctx context.Context, in UploadInput) error {
	d, err := e.Evaluate(ctx, in)
	if err != nil {
		return err
	}
	if !d.Allowed {
		return &DeniedError{Violations: d.Violations}
	}
	return nil
}

// ValidatePolicy reports whether content is valid Rego.
func ValidatePolicy(ctx context.Context, content string) error {
	_, err := rego.New(
		rego.Query("data"),
		rego.Module("validation.rego", content),
	).PrepareForEval(ctx)
	if err != nil {
		return fmt.Errorf("invalid policy: %w", err)
	}
	return nil
}
