package query

import (
	"fmt"

	"github.com/roach88/rdflift/internal/term"
)

// ValidationResult lists constructs that serialize fine but will be
// rejected or silently ignored by a SPARQL endpoint.
type ValidationResult struct {
	// Valid is true when there are no warnings.
	Valid bool

	// Warnings describes each problem, in a deterministic order.
	Warnings []string
}

// Validate inspects a built query without modifying it.
//
// Checks:
//  1. Template variables must be bound by the WHERE body.
//  2. INSERT DATA / DELETE DATA templates cannot contain variables.
//  3. DELETE templates cannot contain blank nodes.
//  4. A BIND target must not be bound earlier in the same WHERE body.
//  5. Empty groups are dropped by the serializer.
//  6. CONSTRUCT ignores the target graph.
//
// Validate never fails: a nil query yields a single warning.
func Validate(q *Query) ValidationResult {
	v := &validator{warnings: []string{}}
	if q == nil {
		v.addWarning("nil query")
	} else {
		v.validate(q)
	}
	return ValidationResult{
		Valid:    len(v.warnings) == 0,
		Warnings: v.warnings,
	}
}

type validator struct {
	warnings []string
}

func (v *validator) addWarning(format string, args ...any) {
	v.warnings = append(v.warnings, fmt.Sprintf(format, args...))
}

func (v *validator) validate(q *Query) {
	if q.kind == KindConstruct && q.targetGraph != nil {
		v.addWarning("target graph %s is ignored by CONSTRUCT", q.targetGraph)
	}

	bound := make(map[term.Variable]bool)
	v.collectBound(q, RootGroup, bound)

	v.validateBindings(q, bound)
	v.validateTemplate(q, bound)
	v.validateGroups(q)
}

// collectBound records every variable appearing in a WHERE pattern.
func (v *validator) collectBound(q *Query, id GroupID, bound map[term.Variable]bool) {
	g := &q.groups[id]
	for _, st := range g.Statements {
		for _, t := range statementTerms(st) {
			if tv, ok := t.(term.Variable); ok {
				bound[tv] = true
			}
		}
	}
	for _, child := range g.Children {
		v.collectBound(q, child, bound)
	}
}

func (v *validator) validateBindings(q *Query, bound map[term.Variable]bool) {
	seen := make(map[term.Variable]bool)
	for _, b := range q.bindings {
		switch {
		case seen[b.Variable]:
			v.addWarning("%s is the target of more than one BIND", b.Variable)
		case bound[b.Variable]:
			v.addWarning("BIND target %s is already bound by a WHERE pattern", b.Variable)
		}
		seen[b.Variable] = true
	}
	for tv := range seen {
		bound[tv] = true
	}
}

func (v *validator) validateTemplate(q *Query, bound map[term.Variable]bool) {
	dataForm := q.kind.IsUpdate() && !q.HasWhere()
	reported := make(map[term.Term]bool)

	for _, st := range q.triples {
		for _, t := range statementTerms(st) {
			if reported[t] {
				continue
			}
			switch tt := t.(type) {
			case term.Variable:
				switch {
				case dataForm:
					v.addWarning("%s DATA cannot contain variable %s", q.kind, tt)
					reported[t] = true
				case !bound[tt]:
					v.addWarning("template variable %s is not bound in WHERE", tt)
					reported[t] = true
				}
			case term.BlankNode:
				if q.kind == KindDelete {
					v.addWarning("DELETE template cannot contain blank node %s", tt)
					reported[t] = true
				}
			}
		}
	}
}

func (v *validator) validateGroups(q *Query) {
	for i := 1; i < len(q.groups); i++ {
		g := &q.groups[i]
		if q.IsEmptyGroup(g.ID) {
			v.addWarning("%s group %q is empty and will be omitted", g.Type, g.Key)
		}
	}
}
