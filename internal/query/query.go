package query

import (
	"strings"

	"github.com/roach88/rdflift/internal/prefix"
	"github.com/roach88/rdflift/internal/symbol"
	"github.com/roach88/rdflift/internal/term"
)

// Query is a CONSTRUCT, INSERT or DELETE query under construction.
type Query struct {
	kind        Kind
	targetGraph term.Term

	// triples is the template: the CONSTRUCT / INSERT / DELETE body.
	triples []Statement

	// groups is the WHERE arena; groups[RootGroup] is the DEFAULT root.
	groups    []Group
	groupKeys map[string]GroupID

	bindings []Binding

	prefixes *prefix.Registry
	symbols  *symbol.Allocator

	// Names already present in the query, so fresh symbols never collide.
	variables  map[string]bool
	blankNodes map[string]bool
}

// New creates an empty query of the given kind.
func New(kind Kind) (*Query, error) {
	if !kind.Valid() {
		return nil, NewInvalidArgument("invalid query kind", nil)
	}
	symbols := symbol.New()
	return &Query{
		kind:       kind,
		groups:     []Group{{ID: RootGroup, Type: GroupDefault, Parent: NoParent}},
		groupKeys:  make(map[string]GroupID),
		prefixes:   prefix.NewRegistry(symbols),
		symbols:    symbols,
		variables:  make(map[string]bool),
		blankNodes: make(map[string]bool),
	}, nil
}

// MustNew is like New but panics on error.
func MustNew(kind Kind) *Query {
	q, err := New(kind)
	if err != nil {
		panic(err)
	}
	return q
}

// Kind returns the query form.
func (q *Query) Kind() Kind { return q.kind }

// TargetGraph returns the WITH graph, or nil.
func (q *Query) TargetGraph() term.Term { return q.targetGraph }

// Prefixes returns the query's prefix registry.
func (q *Query) Prefixes() *prefix.Registry { return q.prefixes }

// Symbols returns the query's symbol allocator.
func (q *Query) Symbols() *symbol.Allocator { return q.symbols }

// Triples returns a copy of the template statements in insertion order.
func (q *Query) Triples() []Statement {
	return append([]Statement(nil), q.triples...)
}

// Bindings returns a copy of the BIND list in insertion order.
func (q *Query) Bindings() []Binding {
	return append([]Binding(nil), q.bindings...)
}

// HasWhere reports whether the query has a WHERE body to serialize.
func (q *Query) HasWhere() bool {
	return len(q.bindings) > 0 || !q.IsEmptyGroup(RootGroup)
}

// IRI builds an IRI from a prefixed name (ex:Thing) with a resolvable
// prefix, a bracketed IRI, or an absolute IRI. Unknown prefixes are not an
// error: the name is taken as an absolute IRI.
func (q *Query) IRI(name string) (term.IRI, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return term.IRI{}, NewInvalidArgument("IRI is blank", nil)
	}
	if !strings.HasPrefix(name, "<") {
		if expanded, ok := q.prefixes.Expand(name); ok {
			name = expanded
		}
	}
	iri, err := term.NewIRI(name)
	if err != nil {
		return term.IRI{}, NewInvalidArgument("invalid IRI", err)
	}
	return iri, nil
}

// IRIIn builds namespace+local. The first argument is resolved as a prefix
// (with or without a trailing colon) against registered and well-known
// prefixes; otherwise it is a namespace URI and is registered.
func (q *Query) IRIIn(namespaceOrPrefix, local string) (term.IRI, error) {
	ns := strings.TrimSpace(namespaceOrPrefix)
	if ns == "" {
		return term.IRI{}, NewInvalidArgument("namespace is blank", nil)
	}
	candidate := strings.TrimSuffix(ns, ":")
	if prefix.ValidPrefixName(candidate) {
		if resolved, ok := q.prefixes.Resolve(candidate); ok {
			return q.IRI("<" + resolved + local + ">")
		}
	}
	iri, err := q.IRI("<" + ns + local + ">")
	if err != nil {
		return term.IRI{}, err
	}
	q.prefixes.PrefixFor(ns)
	return iri, nil
}

// Variable returns the variable called name. An empty name allocates a
// fresh one.
func (q *Query) Variable(name string) (term.Variable, error) {
	if name == "" {
		return q.FreshVariable(""), nil
	}
	v, err := term.NewVariable(name)
	if err != nil {
		return term.Variable{}, NewInvalidArgument("invalid variable name", err)
	}
	q.variables[v.Name] = true
	return v, nil
}

// FreshVariable returns a variable not yet used in the query. The hint is
// sanitized and used as the name when it is free; otherwise the allocator
// supplies v<n>.
func (q *Query) FreshVariable(hint string) term.Variable {
	name := term.VariableName(hint)
	if name == "" || q.variables[name] {
		name = symbol.FreshFunc(q.symbols.Variable, func(n string) bool { return q.variables[n] })
	}
	q.variables[name] = true
	return term.Variable{Name: name}
}

// BlankNode returns the blank node labelled label. An empty label
// allocates a fresh one.
func (q *Query) BlankNode(label string) (term.BlankNode, error) {
	if label == "" {
		return q.FreshBlankNode(), nil
	}
	b, err := term.NewBlankNode(label)
	if err != nil {
		return term.BlankNode{}, NewInvalidArgument("invalid blank node label", err)
	}
	q.blankNodes[b.Label] = true
	return b, nil
}

// FreshBlankNode returns a blank node not yet used in the query.
func (q *Query) FreshBlankNode() term.BlankNode {
	label := symbol.FreshFunc(q.symbols.BlankNode, func(l string) bool { return q.blankNodes[l] })
	q.blankNodes[label] = true
	return term.BlankNode{Label: label}
}

// Literal converts v (string, bool, int, int32, int64, float64) to a
// literal. The xsd prefix is registered when the literal will be written
// with its datatype.
func (q *Query) Literal(v any) (term.Literal, error) {
	lit, err := term.FromValue(v)
	if err != nil {
		return term.Literal{}, NewInvalidArgument("unsupported literal value", err)
	}
	q.NoteLiteral(lit)
	return lit, nil
}

// NoteLiteral registers the prefix of lit's datatype when the serializer
// will write it out.
func (q *Query) NoteLiteral(lit term.Literal) {
	if lit.Datatype == "" || lit.Abbreviable() {
		return
	}
	ns, _ := term.LocalName(lit.Datatype)
	if ns != "" {
		q.prefixes.PrefixFor(ns)
	}
}

// Triple appends s p o to the template.
func (q *Query) Triple(s, p, o term.Term) error {
	return q.Quad(s, p, o, nil)
}

// Quad appends s p o to the template, inside GRAPH g when g is non-nil.
func (q *Query) Quad(s, p, o, g term.Term) error {
	st := Statement{Subject: s, Predicate: p, Object: o, Graph: g}
	if err := checkStatement(st); err != nil {
		return err
	}
	q.noteTerms(statementTerms(st)...)
	q.triples = append(q.triples, st)
	return nil
}

// RDFType appends s rdf:type typ to the template. The rdf prefix is
// registered.
func (q *Query) RDFType(s, typ, g term.Term) error {
	q.prefixes.PrefixFor(prefix.RDF)
	return q.Quad(s, term.IRI{Value: prefix.RDFType}, typ, g)
}

// Bind appends BIND(e AS ?v) to the WHERE body.
func (q *Query) Bind(e Expression, v term.Variable) error {
	if !term.ValidVariableName(v.Name) {
		return NewInvalidArgument("invalid BIND variable", nil)
	}
	if err := checkExpression(e); err != nil {
		return NewInvalidArgument("invalid BIND expression", err)
	}
	q.variables[v.Name] = true
	q.bindings = append(q.bindings, Binding{Expression: e, Variable: v})
	return nil
}

// SetTargetGraph sets the WITH graph of an INSERT or DELETE. A nil graph
// clears it.
func (q *Query) SetTargetGraph(g term.Term) error {
	switch g.(type) {
	case nil, term.IRI:
		q.targetGraph = g
		return nil
	default:
		return invalidPosition("target graph", g)
	}
}

// noteTerms records variable names and blank labels so fresh symbols avoid
// them.
func (q *Query) noteTerms(terms ...term.Term) {
	for _, t := range terms {
		switch v := t.(type) {
		case term.Variable:
			q.variables[v.Name] = true
		case term.BlankNode:
			q.blankNodes[v.Label] = true
		case term.Literal:
			q.NoteLiteral(v)
		}
	}
}
