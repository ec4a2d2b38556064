// Package expr parses the value expressions of mapping rules.
//
// A value expression is one of:
//
//	"text"  "text"@en  "42"^^xsd:integer   quoted literal
//	12  -3  12.5  12,5                      number (comma decimal at top level only)
//	concat(ex:first, " ", ex:last)          function call, arguments nested freely
//	?name                                   variable
//	ex:label  <http://ex/p>  http://ex/p    reference (anything else)
//
// Parse produces a small AST. Classification into template literals,
// WHERE bindings and BIND expressions is done by package mapping.
package expr

import (
	"strings"

	"github.com/roach88/rdflift/internal/term"
)

// Node is a sealed interface over parsed expression nodes.
type Node interface {
	// String returns the node in expression syntax.
	String() string

	exprNode() // Sealed
}

// Quoted is a quoted literal. At most one of Lang and Datatype is set.
// Datatype is kept as written (prefixed name or <iri>).
type Quoted struct {
	Value    string
	Lang     string
	Datatype string
}

func (Quoted) exprNode() {}

func (q Quoted) String() string {
	s := `"` + term.EscapeString(q.Value) + `"`
	switch {
	case q.Lang != "":
		return s + "@" + q.Lang
	case q.Datatype != "":
		return s + "^^" + q.Datatype
	default:
		return s
	}
}

// Number is an unquoted numeric literal, kept as written.
type Number struct {
	Text string
}

func (Number) exprNode() {}

func (n Number) String() string { return n.Text }

// IsDecimal reports whether the number has a fractional part
// ('.' or ',' separator).
func (n Number) IsDecimal() bool {
	return strings.ContainsAny(n.Text, ".,")
}

// Normalized returns the text with a comma decimal separator replaced by a
// dot.
func (n Number) Normalized() string {
	return strings.Replace(n.Text, ",", ".", 1)
}

// Var is a ?name variable reference.
type Var struct {
	Name string
}

func (Var) exprNode() {}

func (v Var) String() string { return "?" + v.Name }

// Ref is a prefixed name or IRI, kept as written.
type Ref struct {
	Text string
}

func (Ref) exprNode() {}

func (r Ref) String() string { return r.Text }

// Call is a function call.
type Call struct {
	Name string
	Args []Node
}

func (Call) exprNode() {}

func (c Call) String() string {
	parts := make([]string, len(c.Args))
	for i, a := range c.Args {
		parts[i] = a.String()
	}
	return c.Name + "(" + strings.Join(parts, ", ") + ")"
}
