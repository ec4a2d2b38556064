// Package mapping expands predicate → value-expression dictionaries into
// query templates, WHERE patterns and BIND expressions.
//
// Each value is parsed by package expr and classified:
//
//  1. Quoted literal: emitted directly as `to predicate literal`.
//  2. Function call: URI arguments are bound from the source node through
//     WHERE patterns, the call becomes BIND(call AS ?v), and the template
//     gets `to predicate ?v`.
//  3. Number: integer, or double when it has a '.' or ',' separator.
//  4. URI reference: bound through `from uri ?v` in the source graph, and
//     the template gets `to predicate ?v`.
//
// WHERE patterns go to the Mapper's group, or to an OPTIONAL child of it
// when optional is requested.
package mapping

import (
	"fmt"
	"log/slog"
	"sort"
	"strconv"

	"github.com/roach88/rdflift/internal/expr"
	"github.com/roach88/rdflift/internal/query"
	"github.com/roach88/rdflift/internal/term"
)

// Mapper applies mapping rules to one Query.
type Mapper struct {
	q     *query.Query
	funcs *expr.Registry
	group query.GroupID

	// vars caches the variable bound for each pattern the Mapper added.
	// Variable names come from the URI's local name; a second URI with the
	// same local name gets a fresh variable instead of aliasing the first.
	vars map[binding]term.Variable
}

// binding identifies one `from uri ?v` pattern: the group it was added to
// (the parent, for OPTIONAL patterns), the graph it reads and whether it
// sits in its own OPTIONAL block.
type binding struct {
	group    query.GroupID
	source   term.Term
	from     term.Term
	uri      term.IRI
	optional bool
}

// mode says how a URI reference is bound.
type mode int

const (
	bindRequired mode = iota
	bindOptional
	// bindFilter reuses optional bindings of the current group so that
	// bound() sees them, and binds anything new as required.
	bindFilter
)

func modeOf(opt bool) mode {
	if opt {
		return bindOptional
	}
	return bindRequired
}

// New returns a Mapper writing into q. A nil registry means the SPARQL
// built-ins only.
func New(q *query.Query, funcs *expr.Registry) *Mapper {
	if funcs == nil {
		funcs = expr.NewRegistry()
	}
	return &Mapper{
		q:     q,
		funcs: funcs,
		group: query.RootGroup,
		vars:  make(map[binding]term.Variable),
	}
}

// Within directs subsequent WHERE patterns into group.
func (m *Mapper) Within(group query.GroupID) error {
	if _, ok := m.q.GroupInfo(group); !ok {
		return query.NewInvalidArgument(fmt.Sprintf("group %d does not exist", int(group)), nil)
	}
	m.group = group
	return nil
}

// Map expands values for the node pair (from, to). Keys are predicates
// (prefixed names or IRIs) and are processed in sorted order. source is
// the graph the WHERE patterns read from; nil means the default graph.
//
// Unknown function names return the registry's error unchanged.
func (m *Mapper) Map(source, from, to term.Term, values map[string]string, optional bool) error {
	if from == nil || to == nil {
		return query.NewInvalidArgument("mapping node is nil", nil)
	}

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		pred, err := m.q.IRI(key)
		if err != nil {
			return err
		}
		if ns, local := term.LocalName(pred.Value); ns != "" && local != "" {
			m.q.Prefixes().PrefixFor(ns)
		}
		obj, err := m.value(source, from, pred, key, values[key], modeOf(optional))
		if err != nil {
			return err
		}
		if err := m.q.Triple(to, pred, obj); err != nil {
			return err
		}
		slog.Debug("mapped value", "predicate", key, "object", obj.String())
	}
	return nil
}

// Mint binds a fresh variable, named after hint when possible, to a
// function expression computing a node, typically
// iri(concat("http://ex/person/", ex:id)). The variable is returned for
// use as the target node of Map.
func (m *Mapper) Mint(source, from term.Term, hint, expression string, optional bool) (term.Variable, error) {
	node, err := expr.Parse(expression)
	if err != nil {
		return term.Variable{}, query.NewInvalidMappingValueError(hint, expression, err)
	}
	call, ok := node.(expr.Call)
	if !ok {
		return term.Variable{}, query.NewInvalidMappingValueError(hint, expression,
			fmt.Errorf("node expression must be a function call, got %s", node))
	}
	e, err := m.call(source, from, hint, expression, call, modeOf(optional))
	if err != nil {
		return term.Variable{}, err
	}
	v := m.q.FreshVariable(hint)
	if err := m.q.Bind(e, v); err != nil {
		return term.Variable{}, err
	}
	return v, nil
}

// Filter adds FILTER(expression) to the Mapper's group. The expression must
// be a function call; its URI arguments are bound from the source node like
// the values of Map, reusing variables already bound for the same pair.
func (m *Mapper) Filter(source, from term.Term, expression string) error {
	node, err := expr.Parse(expression)
	if err != nil {
		return query.NewInvalidMappingValueError("FILTER", expression, err)
	}
	call, ok := node.(expr.Call)
	if !ok {
		return query.NewInvalidMappingValueError("FILTER", expression,
			fmt.Errorf("filter must be a function call, got %s", node))
	}
	e, err := m.call(source, from, "FILTER", expression, call, bindFilter)
	if err != nil {
		return err
	}
	return m.q.Filter(m.group, e)
}

// Types adds `to rdf:type t` template triples.
func (m *Mapper) Types(to term.Term, types ...string) error {
	for _, name := range types {
		iri, err := m.q.IRI(name)
		if err != nil {
			return err
		}
		if err := m.q.RDFType(to, iri, nil); err != nil {
			return err
		}
	}
	return nil
}

// value classifies raw and returns the template object.
func (m *Mapper) value(source, from term.Term, pred term.IRI, key, raw string, md mode) (term.Term, error) {
	node, err := expr.Parse(raw)
	if err != nil {
		return nil, query.NewInvalidMappingValueError(key, raw, err)
	}

	var obj term.Term
	switch n := node.(type) {
	case expr.Quoted:
		obj, err = m.quoted(key, raw, n)
	case expr.Number:
		obj, err = m.number(key, raw, n)
	case expr.Var:
		obj, err = m.q.Variable(n.Name)
	case expr.Call:
		var e query.Expression
		e, err = m.call(source, from, key, raw, n, md)
		if err != nil {
			return nil, err
		}
		_, local := term.LocalName(pred.Value)
		v := m.q.FreshVariable(local)
		obj, err = v, m.q.Bind(e, v)
	case expr.Ref:
		var uri term.IRI
		uri, err = m.reference(key, raw, n)
		if err != nil {
			return nil, err
		}
		obj, err = m.bind(source, from, uri, md)
	default:
		return nil, query.NewInvalidMappingValueError(key, raw, fmt.Errorf("unsupported expression %T", node))
	}
	if err != nil {
		return nil, err
	}
	return obj, nil
}

// call converts a parsed call into a query expression. Registry errors are
// returned as is.
func (m *Mapper) call(source, from term.Term, key, raw string, c expr.Call, md mode) (query.Expression, error) {
	fn, err := m.funcs.Resolve(c.Name, len(c.Args))
	if err != nil {
		return nil, err
	}
	name := fn.Name
	if fn.Extension {
		iri, err := m.q.IRI(fn.Name)
		if err != nil {
			return nil, query.NewInvalidMappingValueError(key, raw, err)
		}
		name = iri.Value
	}

	out := query.Call{Name: name, Extension: fn.Extension}
	for _, arg := range c.Args {
		e, err := m.argument(source, from, key, raw, arg, md)
		if err != nil {
			return nil, err
		}
		out.Args = append(out.Args, e)
	}
	return out, nil
}

func (m *Mapper) argument(source, from term.Term, key, raw string, arg expr.Node, md mode) (query.Expression, error) {
	switch a := arg.(type) {
	case expr.Quoted:
		lit, err := m.quoted(key, raw, a)
		if err != nil {
			return nil, err
		}
		return query.T(lit), nil
	case expr.Number:
		lit, err := m.number(key, raw, a)
		if err != nil {
			return nil, err
		}
		return query.T(lit), nil
	case expr.Var:
		v, err := m.q.Variable(a.Name)
		if err != nil {
			return nil, err
		}
		return query.T(v), nil
	case expr.Call:
		return m.call(source, from, key, raw, a, md)
	case expr.Ref:
		uri, err := m.reference(key, raw, a)
		if err != nil {
			return nil, err
		}
		v, err := m.bind(source, from, uri, md)
		if err != nil {
			return nil, err
		}
		return query.T(v), nil
	default:
		return nil, query.NewInvalidMappingValueError(key, raw, fmt.Errorf("unsupported argument %T", arg))
	}
}

func (m *Mapper) quoted(key, raw string, n expr.Quoted) (term.Literal, error) {
	switch {
	case n.Lang != "":
		lit, err := term.NewLangString(n.Value, n.Lang)
		if err != nil {
			return term.Literal{}, query.NewInvalidMappingValueError(key, raw, err)
		}
		return lit, nil
	case n.Datatype != "":
		dt, err := m.q.IRI(n.Datatype)
		if err != nil {
			return term.Literal{}, query.NewInvalidMappingValueError(key, raw, err)
		}
		lit := term.NewTypedLiteral(n.Value, dt)
		m.q.NoteLiteral(lit)
		return lit, nil
	default:
		return term.NewString(n.Value), nil
	}
}

// number parses an integer, or a double when a '.' or ',' is present.
func (m *Mapper) number(key, raw string, n expr.Number) (term.Literal, error) {
	if n.IsDecimal() {
		f, err := strconv.ParseFloat(n.Normalized(), 64)
		if err != nil {
			return term.Literal{}, query.NewInvalidMappingValueError(key, raw, err)
		}
		lit := term.NewDouble(f)
		m.q.NoteLiteral(lit)
		return lit, nil
	}
	i, err := strconv.ParseInt(n.Text, 10, 64)
	if err != nil {
		return term.Literal{}, query.NewInvalidMappingValueError(key, raw, err)
	}
	return term.NewInteger(i), nil
}

// reference resolves a prefixed name or IRI and registers its namespace.
func (m *Mapper) reference(key, raw string, n expr.Ref) (term.IRI, error) {
	uri, err := m.q.IRI(n.Text)
	if err != nil {
		return term.IRI{}, query.NewInvalidMappingValueError(key, raw, err)
	}
	if ns, local := term.LocalName(uri.Value); ns != "" && local != "" {
		m.q.Prefixes().PrefixFor(ns)
	}
	return uri, nil
}

// bind returns the variable holding `from uri ?v` in source, adding the
// WHERE pattern unless one is already in scope of the Mapper's group.
func (m *Mapper) bind(source, from term.Term, uri term.IRI, md mode) (term.Variable, error) {
	if v, ok := m.lookup(source, from, uri, md); ok {
		return v, nil
	}

	_, local := term.LocalName(uri.Value)
	v := m.q.FreshVariable(local)

	id := binding{group: m.group, source: source, from: from, uri: uri, optional: md == bindOptional}
	group := m.group
	if md == bindOptional {
		g, err := m.q.WhereGroup(optionalKey(m.group, source, from, uri), query.GroupOptional, m.group)
		if err != nil {
			return term.Variable{}, err
		}
		group = g
	}
	if err := m.q.WhereIn(group, source, from, uri, v); err != nil {
		return term.Variable{}, err
	}
	m.vars[id] = v
	return v, nil
}

// lookup finds a variable already bound for (source, from, uri) that is
// visible from the Mapper's group: a required pattern in the group or an
// enclosing one, or, unless md is bindRequired, an OPTIONAL pattern of the
// group itself. The own patterns of an enclosing UNION are a sibling branch and
// are skipped.
func (m *Mapper) lookup(source, from term.Term, uri term.IRI, md mode) (term.Variable, bool) {
	if md != bindRequired {
		id := binding{group: m.group, source: source, from: from, uri: uri, optional: true}
		if v, ok := m.vars[id]; ok {
			return v, true
		}
	}
	for id := m.group; id != query.NoParent; {
		g, ok := m.q.GroupInfo(id)
		if !ok {
			break
		}
		if g.Type != query.GroupUnion || id == m.group {
			if v, ok := m.vars[binding{group: id, source: source, from: from, uri: uri}]; ok {
				return v, true
			}
		}
		id = g.Parent
	}
	return term.Variable{}, false
}

// optionalKey names the OPTIONAL group of one (source, from, uri) binding.
func optionalKey(parent query.GroupID, source, from term.Term, uri term.IRI) string {
	graph := ""
	if source != nil {
		graph = term.Key(source)
	}
	return fmt.Sprintf("optional/%d/%s/%s/%s", int(parent), graph, term.Key(from), uri.Value)
}
