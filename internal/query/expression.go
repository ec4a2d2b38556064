package query

import (
	"fmt"

	"github.com/roach88/rdflift/internal/term"
)

// Expression is a sealed interface over BIND and FILTER expressions.
//
// Expression types:
//   - TermExpr: a single term (variable, IRI or literal)
//   - Call: a function call, built-in or extension
//   - Binary: an infix operator
type Expression interface {
	expressionNode() // Marker method - seals interface to this package
}

// TermExpr wraps a term used as an expression.
type TermExpr struct {
	Term term.Term
}

func (TermExpr) expressionNode() {}

// Call is a function call.
//
// For built-ins Name is the SPARQL keyword (CONCAT, STR, ...). For
// extension functions Extension is true and Name is the function IRI.
type Call struct {
	Name      string
	Extension bool
	Args      []Expression
}

func (Call) expressionNode() {}

// Binary is an infix operation such as ?a = ?b or ?n > 5.
type Binary struct {
	Op    string
	Left  Expression
	Right Expression
}

func (Binary) expressionNode() {}

// BinaryOperators lists the operators Binary accepts.
var BinaryOperators = map[string]bool{
	"=": true, "!=": true, "<": true, ">": true, "<=": true, ">=": true,
	"&&": true, "||": true, "+": true, "-": true, "*": true, "/": true,
}

// T is shorthand for TermExpr{Term: t}.
func T(t term.Term) TermExpr {
	return TermExpr{Term: t}
}

// Fn is shorthand for a built-in Call.
func Fn(name string, args ...Expression) Call {
	return Call{Name: name, Args: args}
}

// Binding is a BIND(expression AS ?variable).
type Binding struct {
	Expression Expression
	Variable   term.Variable
}

// checkExpression rejects nil nodes anywhere in the tree.
func checkExpression(e Expression) error {
	switch ex := e.(type) {
	case nil:
		return fmt.Errorf("nil expression")
	case TermExpr:
		if ex.Term == nil {
			return fmt.Errorf("term expression without term")
		}
	case Call:
		if ex.Name == "" {
			return fmt.Errorf("function call without name")
		}
		for i, arg := range ex.Args {
			if err := checkExpression(arg); err != nil {
				return fmt.Errorf("%s argument %d: %w", ex.Name, i+1, err)
			}
		}
	case Binary:
		if !BinaryOperators[ex.Op] {
			return fmt.Errorf("unsupported operator %q", ex.Op)
		}
		if err := checkExpression(ex.Left); err != nil {
			return fmt.Errorf("left of %s: %w", ex.Op, err)
		}
		if err := checkExpression(ex.Right); err != nil {
			return fmt.Errorf("right of %s: %w", ex.Op, err)
		}
	default:
		return fmt.Errorf("unsupported expression type: %T", e)
	}
	return nil
}

// ExpressionVariables returns the variables referenced by e, in order of
// first appearance.
func ExpressionVariables(e Expression) []term.Variable {
	var out []term.Variable
	seen := make(map[term.Variable]bool)
	var walk func(Expression)
	walk = func(e Expression) {
		switch ex := e.(type) {
		case TermExpr:
			if v, ok := ex.Term.(term.Variable); ok && !seen[v] {
				seen[v] = true
				out = append(out, v)
			}
		case Call:
			for _, a := range ex.Args {
				walk(a)
			}
		case Binary:
			walk(ex.Left)
			walk(ex.Right)
		}
	}
	walk(e)
	return out
}
