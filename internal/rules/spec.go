package rules

import (
	"fmt"
	"strings"

	"cuelang.org/go/cue/token"
)

// DefaultSource is the variable name of the source node when a spec does
// not set one.
const DefaultSource = "src"

// Spec is one declarative mapping.
type Spec struct {
	// Name is the label under the mapping struct.
	Name string `yaml:"-" json:"name"`

	// Kind is construct, insert or delete.
	Kind string `yaml:"kind" json:"kind"`

	// TargetGraph scopes INSERT/DELETE templates (WITH, or GRAPH in the
	// DATA forms).
	TargetGraph string `yaml:"target_graph,omitempty" json:"target_graph,omitempty"`

	// SourceGraph scopes the WHERE patterns reading source values.
	SourceGraph string `yaml:"source_graph,omitempty" json:"source_graph,omitempty"`

	// Source names the variable holding the source node.
	Source string `yaml:"source,omitempty" json:"source,omitempty"`

	// SourceType restricts source nodes to instances of a class.
	SourceType string `yaml:"source_type,omitempty" json:"source_type,omitempty"`

	// Prefixes are registered before anything else.
	Prefixes map[string]string `yaml:"prefixes,omitempty" json:"prefixes,omitempty"`

	// Node mints the target node. Without it, the source node is the target.
	Node *NodeSpec `yaml:"node,omitempty" json:"node,omitempty"`

	Types    []string          `yaml:"types,omitempty" json:"types,omitempty"`
	Values   map[string]string `yaml:"values,omitempty" json:"values,omitempty"`
	Optional map[string]string `yaml:"optional,omitempty" json:"optional,omitempty"`
	Filters  []string          `yaml:"filters,omitempty" json:"filters,omitempty"`

	// Pos is the CUE position of the spec, if it came from CUE.
	Pos token.Pos `yaml:"-" json:"-"`
}

// NodeSpec mints a target node with a function expression.
type NodeSpec struct {
	Hint string `yaml:"hint" json:"hint"`
	Expr string `yaml:"expr" json:"expr"`
}

// SourceName returns the source variable name, defaulting to DefaultSource.
func (s *Spec) SourceName() string {
	if s.Source == "" {
		return DefaultSource
	}
	return strings.TrimLeft(s.Source, "?$")
}

// check validates the shape of s. Value expressions are checked when the
// spec is compiled.
func (s *Spec) check() error {
	if s.Name == "" {
		return s.errorf("name", "mapping name is required")
	}
	if strings.TrimSpace(s.Kind) == "" {
		return s.errorf("kind", "kind is required")
	}
	if len(s.Types) == 0 && len(s.Values) == 0 && len(s.Optional) == 0 {
		return s.errorf("values", "mapping has no template statements")
	}
	if s.Node != nil && strings.TrimSpace(s.Node.Expr) == "" {
		return s.errorf("node.expr", "node expression is required")
	}
	return nil
}

func (s *Spec) errorf(field, format string, args ...any) *CompileError {
	return &CompileError{
		Mapping: s.Name,
		Field:   field,
		Message: fmt.Sprintf(format, args...),
		Pos:     s.Pos,
	}
}

// wrap attaches err to a field of s, keeping it reachable through
// errors.As.
func (s *Spec) wrap(field string, err error) *CompileError {
	return &CompileError{
		Mapping: s.Name,
		Field:   field,
		Message: err.Error(),
		Pos:     s.Pos,
		Err:     err,
	}
}
