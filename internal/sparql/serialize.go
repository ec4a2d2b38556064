// Package sparql serializes a query.Query to SPARQL text.
//
// Output is deterministic: statements are sorted by (graph, subject,
// predicate) using raw string comparison, prefixes are emitted in registry
// order and groups in creation order. Serializing an unmodified query twice
// yields identical bytes.
package sparql

import (
	"sort"
	"strings"

	"github.com/roach88/rdflift/internal/prefix"
	"github.com/roach88/rdflift/internal/query"
	"github.com/roach88/rdflift/internal/term"
)

// Serialize renders q. It has no side effects on q and cannot fail for a
// query built through the query API.
//
// Layout:
//
//	PREFIX ex: <http://example.org/>
//
//	WITH <g>                 (INSERT/DELETE with a WHERE body only)
//	INSERT {                 (INSERT DATA / DELETE DATA without WHERE body)
//			ex:s	ex:p	ex:o .
//	}
//	WHERE {
//		ex:s	ex:p	?o .
//		OPTIONAL {
//			...
//		}
//		BIND(... AS ?v)
//	}
func Serialize(q *query.Query) string {
	w := &writer{q: q, reg: q.Prefixes()}
	w.prefixes()
	w.template()
	if q.HasWhere() {
		w.where()
	}
	return w.b.String()
}

type writer struct {
	q   *query.Query
	reg *prefix.Registry
	b   strings.Builder
}

func (w *writer) line(depth int, s string) {
	w.b.WriteString(strings.Repeat("\t", depth))
	w.b.WriteString(s)
	w.b.WriteByte('\n')
}

func (w *writer) prefixes() {
	entries := w.reg.Entries()
	for _, e := range entries {
		w.line(0, "PREFIX "+e.Prefix+": <"+e.Namespace+">")
	}
	if len(entries) > 0 {
		w.b.WriteByte('\n')
	}
}

func (w *writer) template() {
	q := w.q
	triples := q.Triples()
	keyword := q.Kind().String()

	if q.Kind().IsUpdate() {
		if !q.HasWhere() {
			keyword += " DATA"
			// Without WITH, the target graph scopes DATA statements directly.
			if g := q.TargetGraph(); g != nil {
				for i := range triples {
					if triples[i].Graph == nil {
						triples[i].Graph = g
					}
				}
			}
		} else if g := q.TargetGraph(); g != nil {
			w.line(0, "WITH "+w.iri(g.(term.IRI)))
		}
	}

	w.line(0, keyword+" {")
	w.statements(triples, 2)
	w.line(0, "}")
}

func (w *writer) where() {
	w.line(0, "WHERE {")
	w.contents(query.RootGroup, 1)
	for _, b := range w.q.Bindings() {
		w.line(1, "BIND("+w.expression(b.Expression)+" AS "+b.Variable.String()+")")
	}
	w.line(0, "}")
}

// contents writes a group's statements, child groups and filters with
// statements at depth.
func (w *writer) contents(id query.GroupID, depth int) {
	g, _ := w.q.GroupInfo(id)
	w.statements(g.Statements, depth)
	for _, child := range g.Children {
		w.group(child, depth)
	}
	w.filters(g.Filters, depth)
}

// group writes a non-root group whose header sits at level.
func (w *writer) group(id query.GroupID, level int) {
	if w.q.IsEmptyGroup(id) {
		return
	}
	g, _ := w.q.GroupInfo(id)

	switch g.Type {
	case query.GroupOptional:
		w.line(level, "OPTIONAL {")
		w.contents(id, level+1)
		w.line(level, "}")
	case query.GroupUnion:
		w.union(g, level)
	default:
		w.line(level, "{")
		w.contents(id, level+1)
		w.line(level, "}")
	}
}

// union writes the group's own statements as the first branch, then each
// non-empty child as a further branch, separated by UNION. Filters of a
// UNION group apply to the enclosing group and follow the branches.
func (w *writer) union(g query.Group, level int) {
	first := true
	branch := func(write func()) {
		if !first {
			w.line(level, "UNION")
		}
		first = false
		w.line(level, "{")
		write()
		w.line(level, "}")
	}

	if len(g.Statements) > 0 {
		branch(func() { w.statements(g.Statements, level+1) })
	}
	for _, child := range g.Children {
		if w.q.IsEmptyGroup(child) {
			continue
		}
		c, _ := w.q.GroupInfo(child)
		if c.Type == query.GroupDefault {
			branch(func() { w.contents(child, level+1) })
		} else {
			branch(func() { w.group(child, level+1) })
		}
	}
	w.filters(g.Filters, level)
}

func (w *writer) filters(filters []query.Expression, depth int) {
	for _, f := range filters {
		w.line(depth, "FILTER("+w.expression(f)+")")
	}
}

// statements writes a compacted statement list at depth. GRAPH blocks add
// one level.
func (w *writer) statements(stmts []query.Statement, depth int) {
	if len(stmts) == 0 {
		return
	}
	sorted := append([]query.Statement(nil), stmts...)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if c := term.Compare(a.Graph, b.Graph); c != 0 {
			return c < 0
		}
		if c := term.Compare(a.Subject, b.Subject); c != 0 {
			return c < 0
		}
		return term.Compare(a.Predicate, b.Predicate) < 0
	})

	indent := depth
	for i, st := range sorted {
		var prev, next *query.Statement
		if i > 0 {
			prev = &sorted[i-1]
		}
		if i+1 < len(sorted) {
			next = &sorted[i+1]
		}

		graphChanged := prev == nil || !term.Equal(prev.Graph, st.Graph)
		if graphChanged {
			if prev != nil && prev.Graph != nil {
				w.line(depth, "}")
			}
			indent = depth
			if st.Graph != nil {
				w.line(depth, "GRAPH "+w.term(st.Graph)+" {")
				indent = depth + 1
			}
		}

		sameSubject := !graphChanged && term.Equal(prev.Subject, st.Subject)
		samePredicate := sameSubject && term.Equal(prev.Predicate, st.Predicate)

		var text string
		switch {
		case samePredicate:
			text = "\t\t" + w.term(st.Object)
		case sameSubject:
			text = "\t" + w.predicate(st.Predicate) + "\t" + w.term(st.Object)
		default:
			text = w.term(st.Subject) + "\t" + w.predicate(st.Predicate) + "\t" + w.term(st.Object)
		}

		switch {
		case next != nil && term.Equal(next.Graph, st.Graph) && term.Equal(next.Subject, st.Subject) &&
			term.Equal(next.Predicate, st.Predicate):
			text += " ,"
		case next != nil && term.Equal(next.Graph, st.Graph) && term.Equal(next.Subject, st.Subject):
			text += " ;"
		default:
			text += " ."
		}
		w.line(indent, text)
	}
	if sorted[len(sorted)-1].Graph != nil {
		w.line(depth, "}")
	}
}

func (w *writer) predicate(t term.Term) string {
	if iri, ok := t.(term.IRI); ok && iri.Value == prefix.RDFType {
		return "a"
	}
	return w.term(t)
}

// term renders t, compacting IRIs against registered prefixes.
func (w *writer) term(t term.Term) string {
	switch v := t.(type) {
	case term.IRI:
		return w.iri(v)
	case term.Literal:
		return w.literal(v)
	case term.BlankNode:
		return v.String()
	case term.Variable:
		return v.String()
	default:
		return ""
	}
}

func (w *writer) iri(iri term.IRI) string {
	if short, ok := w.reg.Compact(iri.Value); ok {
		return short
	}
	return iri.String()
}

func (w *writer) literal(l term.Literal) string {
	if l.Abbreviable() {
		return l.Lexical
	}
	s := `"` + term.EscapeString(l.Lexical) + `"`
	switch {
	case l.Lang != "":
		return s + "@" + l.Lang
	case l.Datatype != "":
		return s + "^^" + w.iri(term.IRI{Value: l.Datatype})
	default:
		return s
	}
}

func (w *writer) expression(e query.Expression) string {
	switch ex := e.(type) {
	case query.TermExpr:
		return w.term(ex.Term)
	case query.Call:
		name := ex.Name
		if ex.Extension {
			name = w.iri(term.IRI{Value: ex.Name})
		}
		args := make([]string, len(ex.Args))
		for i, a := range ex.Args {
			args[i] = w.expression(a)
		}
		return name + "(" + strings.Join(args, ", ") + ")"
	case query.Binary:
		return w.operand(ex.Left) + " " + ex.Op + " " + w.operand(ex.Right)
	default:
		return ""
	}
}

func (w *writer) operand(e query.Expression) string {
	if _, ok := e.(query.Binary); ok {
		return "(" + w.expression(e) + ")"
	}
	return w.expression(e)
}
