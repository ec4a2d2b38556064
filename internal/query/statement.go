package query

import (
	"fmt"

	"github.com/roach88/rdflift/internal/term"
)

// Statement is a triple template, optionally scoped to a graph.
//
// Subject is an IRI, Variable or BlankNode. Predicate is an IRI or
// Variable. Graph is nil for the default graph, otherwise an IRI or
// Variable. Statements are values; once appended they are never changed.
type Statement struct {
	Subject   term.Term
	Predicate term.Term
	Object    term.Term
	Graph     term.Term
}

// checkStatement enforces positional term rules.
func checkStatement(s Statement) error {
	switch s.Subject.(type) {
	case term.IRI, term.Variable, term.BlankNode:
	case nil:
		return NewInvalidArgument("subject is nil", nil)
	default:
		return invalidPosition("subject", s.Subject)
	}

	switch s.Predicate.(type) {
	case term.IRI, term.Variable:
	case nil:
		return NewInvalidArgument("predicate is nil", nil)
	default:
		return invalidPosition("predicate", s.Predicate)
	}

	if s.Object == nil {
		return NewInvalidArgument("object is nil", nil)
	}

	switch s.Graph.(type) {
	case nil, term.IRI, term.Variable:
	default:
		return invalidPosition("graph", s.Graph)
	}
	return nil
}

func invalidPosition(position string, t term.Term) *Error {
	return &Error{
		Code:    ErrCodeInvalidArgument,
		Message: fmt.Sprintf("%s cannot be a %s", position, t.Kind()),
		Details: map[string]string{position: t.String()},
	}
}

// statementTerms returns the non-nil terms of s in position order.
func statementTerms(s Statement) []term.Term {
	out := make([]term.Term, 0, 4)
	for _, t := range []term.Term{s.Subject, s.Predicate, s.Object, s.Graph} {
		if t != nil {
			out = append(out, t)
		}
	}
	return out
}
