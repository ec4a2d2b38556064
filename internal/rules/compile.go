package rules

import (
	"errors"
	"log/slog"
	"sort"

	"github.com/roach88/rdflift/internal/expr"
	"github.com/roach88/rdflift/internal/mapping"
	"github.com/roach88/rdflift/internal/prefix"
	"github.com/roach88/rdflift/internal/query"
	"github.com/roach88/rdflift/internal/term"
)

// Options configure compilation.
type Options struct {
	// Prefixes are registered in every query after the spec's own
	// prefixes. The spec wins on a clash of name or namespace.
	Prefixes map[string]string

	// Functions resolves function names; nil means the SPARQL built-ins.
	Functions *expr.Registry
}

// Compile builds the query described by spec.
//
// Order of construction: prefixes, graphs, source node, source type
// pattern, minted node, rdf:type triples, values, optional values, filters.
// Value maps are processed in sorted key order, so the same spec always
// yields the same query.
func Compile(spec *Spec, opts Options) (*query.Query, error) {
	if err := spec.check(); err != nil {
		return nil, err
	}

	kind, err := query.ParseKind(spec.Kind)
	if err != nil {
		return nil, spec.wrap("kind", err)
	}
	q, err := query.New(kind)
	if err != nil {
		return nil, spec.wrap("kind", err)
	}

	if err := registerPrefixes(q.Prefixes(), opts.Prefixes, spec.Prefixes); err != nil {
		return nil, spec.wrap("prefixes", err)
	}

	if spec.TargetGraph != "" {
		g, err := q.IRI(spec.TargetGraph)
		if err != nil {
			return nil, spec.wrap("target_graph", err)
		}
		if err := q.SetTargetGraph(g); err != nil {
			return nil, spec.wrap("target_graph", err)
		}
	}

	var source term.Term
	if spec.SourceGraph != "" {
		g, err := q.IRI(spec.SourceGraph)
		if err != nil {
			return nil, spec.wrap("source_graph", err)
		}
		source = g
	}

	from, err := q.Variable(spec.SourceName())
	if err != nil {
		return nil, spec.wrap("source", err)
	}

	if spec.SourceType != "" {
		typ, err := q.IRI(spec.SourceType)
		if err != nil {
			return nil, spec.wrap("source_type", err)
		}
		rdfType, _ := q.IRIIn(prefix.RDF, "type")
		if err := q.WhereIn(query.RootGroup, source, from, rdfType, typ); err != nil {
			return nil, spec.wrap("source_type", err)
		}
	}

	m := mapping.New(q, opts.Functions)

	var to term.Term = from
	if spec.Node != nil {
		hint := spec.Node.Hint
		if hint == "" {
			hint = "node"
		}
		node, err := m.Mint(source, from, hint, spec.Node.Expr, false)
		if err != nil {
			return nil, spec.wrap("node", err)
		}
		to = node
	}

	if err := m.Types(to, spec.Types...); err != nil {
		return nil, spec.wrap("types", err)
	}
	if err := m.Map(source, from, to, spec.Values, false); err != nil {
		return nil, spec.wrap("values", err)
	}
	if err := m.Map(source, from, to, spec.Optional, true); err != nil {
		return nil, spec.wrap("optional", err)
	}
	for _, f := range spec.Filters {
		if err := m.Filter(source, from, f); err != nil {
			return nil, spec.wrap("filters", err)
		}
	}

	slog.Debug("mapping compiled",
		"mapping", spec.Name,
		"kind", kind.String(),
		"triples", len(q.Triples()),
		"bindings", len(q.Bindings()),
		"groups", q.GroupCount())
	return q, nil
}

// registerPrefixes registers the spec's prefixes, then the shared ones in
// sorted order. A shared prefix whose name or namespace is already taken is
// skipped.
func registerPrefixes(reg *prefix.Registry, shared, own map[string]string) error {
	for _, p := range sortedKeys(own) {
		if err := reg.Register(p, own[p]); err != nil {
			return err
		}
	}
	for _, p := range sortedKeys(shared) {
		if _, taken := reg.Lookup(p); taken {
			continue
		}
		err := reg.Register(p, shared[p])
		if err != nil && !errors.Is(err, prefix.ErrConflict) {
			return err
		}
	}
	return nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
