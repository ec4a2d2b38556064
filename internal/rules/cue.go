package rules

import (
	"fmt"
	"sort"
	"strings"

	"cuelang.org/go/cue"
)

// specFields lists the fields a mapping struct may declare.
var specFields = map[string]bool{
	"kind":         true,
	"target_graph": true,
	"source_graph": true,
	"source":       true,
	"source_type":  true,
	"prefixes":     true,
	"node":         true,
	"types":        true,
	"values":       true,
	"optional":     true,
	"filters":      true,
}

// ParseCUE parses one mapping struct. The spec name is the last label of
// the value's path.
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`mapping: people: { kind: "construct", ... }`)
//	spec, err := ParseCUE(v.LookupPath(cue.ParsePath("mapping.people")))
func ParseCUE(v cue.Value) (*Spec, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	spec := &Spec{Pos: v.Pos()}
	labels := v.Path().Selectors()
	if len(labels) > 0 {
		if sel := labels[len(labels)-1]; sel.LabelType() == cue.StringLabel {
			spec.Name = sel.Unquoted()
		} else {
			spec.Name = sel.String()
		}
	}

	iter, err := v.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	for iter.Next() {
		label := iter.Label()
		if !specFields[label] {
			return nil, &CompileError{
				Mapping: spec.Name,
				Field:   label,
				Message: fmt.Sprintf("unknown field (expected one of %s)", strings.Join(fieldNames(), ", ")),
				Pos:     iter.Value().Pos(),
			}
		}
	}

	strs := []struct {
		field string
		dst   *string
	}{
		{"kind", &spec.Kind},
		{"target_graph", &spec.TargetGraph},
		{"source_graph", &spec.SourceGraph},
		{"source", &spec.Source},
		{"source_type", &spec.SourceType},
	}
	for _, f := range strs {
		if *f.dst, err = optionalString(v, f.field); err != nil {
			return nil, err
		}
	}

	if spec.Prefixes, err = stringMap(v, "prefixes"); err != nil {
		return nil, err
	}
	if spec.Values, err = stringMap(v, "values"); err != nil {
		return nil, err
	}
	if spec.Optional, err = stringMap(v, "optional"); err != nil {
		return nil, err
	}
	if spec.Types, err = stringList(v, "types"); err != nil {
		return nil, err
	}
	if spec.Filters, err = stringList(v, "filters"); err != nil {
		return nil, err
	}

	nodeVal := v.LookupPath(cue.ParsePath("node"))
	if nodeVal.Exists() {
		node := &NodeSpec{}
		if node.Hint, err = optionalString(nodeVal, "hint"); err != nil {
			return nil, err
		}
		if node.Expr, err = optionalString(nodeVal, "expr"); err != nil {
			return nil, err
		}
		spec.Node = node
	}

	if err := spec.check(); err != nil {
		return nil, err
	}
	return spec, nil
}

func optionalString(v cue.Value, field string) (string, error) {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		return "", nil
	}
	s, err := fv.String()
	if err != nil {
		return "", formatCUEError(err)
	}
	return s, nil
}

func stringMap(v cue.Value, field string) (map[string]string, error) {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		return nil, nil
	}
	iter, err := fv.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	out := make(map[string]string)
	for iter.Next() {
		s, err := iter.Value().String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		out[iter.Label()] = s
	}
	return out, nil
}

func stringList(v cue.Value, field string) ([]string, error) {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		return nil, nil
	}
	iter, err := fv.List()
	if err != nil {
		return nil, formatCUEError(err)
	}
	var out []string
	for iter.Next() {
		s, err := iter.Value().String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		out = append(out, s)
	}
	return out, nil
}

func fieldNames() []string {
	names := make([]string, 0, len(specFields))
	for name := range specFields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
