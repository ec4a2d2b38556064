package query

import (
	"fmt"
	"strconv"

	"github.com/roach88/rdflift/internal/symbol"
	"github.com/roach88/rdflift/internal/term"
)

// GroupType is the kind of a graph-pattern group.
type GroupType int

const (
	GroupDefault GroupType = iota
	GroupOptional
	GroupUnion
)

func (t GroupType) String() string {
	switch t {
	case GroupDefault:
		return "DEFAULT"
	case GroupOptional:
		return "OPTIONAL"
	case GroupUnion:
		return "UNION"
	default:
		return fmt.Sprintf("GroupType(%d)", int(t))
	}
}

// GroupID indexes a group in the Query's arena.
type GroupID int

const (
	// RootGroup is the DEFAULT group every Query starts with.
	RootGroup GroupID = 0

	// NoParent is the parent of the root group.
	NoParent GroupID = -1
)

// Group is a node of the WHERE tree.
//
// Values returned by Query.GroupInfo are copies; mutate through the Query.
type Group struct {
	ID         GroupID
	Type       GroupType
	Key        string
	Parent     GroupID
	Statements []Statement
	Filters    []Expression
	Children   []GroupID
}

// LookupGroup returns the group registered under key. The empty key is the
// root group. An unregistered key is an UNKNOWN_GROUP error: without a
// type there is nothing to create.
func (q *Query) LookupGroup(key string) (GroupID, error) {
	if key == "" {
		return RootGroup, nil
	}
	id, ok := q.groupKeys[key]
	if !ok {
		return 0, NewUnknownGroupError(key)
	}
	return id, nil
}

// WhereGroup retrieves the group registered under key, or creates it.
//
// On creation an empty key is replaced by a synthesized "w<n>" key, and
// the group is attached as the last child of parent. An existing group is
// returned as is; typ and parent are not compared against it.
func (q *Query) WhereGroup(key string, typ GroupType, parent GroupID) (GroupID, error) {
	if key != "" {
		if id, ok := q.groupKeys[key]; ok {
			return id, nil
		}
	}
	if typ < GroupDefault || typ > GroupUnion {
		return 0, NewInvalidArgument(fmt.Sprintf("unknown group type %d", int(typ)), nil)
	}
	if !q.validGroup(parent) {
		return 0, &Error{
			Code:    ErrCodeInvalidArgument,
			Message: "parent group does not exist",
			Details: map[string]string{"parent": strconv.Itoa(int(parent))},
		}
	}
	if key == "" {
		key = symbol.FreshFunc(q.symbols.GroupKey, func(k string) bool {
			_, taken := q.groupKeys[k]
			return taken
		})
	}

	id := GroupID(len(q.groups))
	q.groups = append(q.groups, Group{
		ID:     id,
		Type:   typ,
		Key:    key,
		Parent: parent,
	})
	q.groups[parent].Children = append(q.groups[parent].Children, id)
	q.groupKeys[key] = id
	return id, nil
}

// GroupInfo returns a copy of group id.
func (q *Query) GroupInfo(id GroupID) (Group, bool) {
	if !q.validGroup(id) {
		return Group{}, false
	}
	g := q.groups[id]
	g.Statements = append([]Statement(nil), g.Statements...)
	g.Filters = append([]Expression(nil), g.Filters...)
	g.Children = append([]GroupID(nil), g.Children...)
	return g, true
}

// GroupCount returns the number of groups, root included.
func (q *Query) GroupCount() int {
	return len(q.groups)
}

// IsEmptyGroup reports whether id has no statements and no non-empty
// descendants. Empty groups are not serialized.
func (q *Query) IsEmptyGroup(id GroupID) bool {
	if !q.validGroup(id) {
		return true
	}
	g := &q.groups[id]
	if len(g.Statements) > 0 {
		return false
	}
	for _, child := range g.Children {
		if !q.IsEmptyGroup(child) {
			return false
		}
	}
	return true
}

// Where appends a pattern to the root group.
func (q *Query) Where(s, p, o term.Term) error {
	return q.WhereIn(RootGroup, nil, s, p, o)
}

// WhereIn appends a pattern to group, scoped to graph when it is non-nil.
func (q *Query) WhereIn(group GroupID, graph, s, p, o term.Term) error {
	if !q.validGroup(group) {
		return NewInvalidArgument(fmt.Sprintf("group %d does not exist", int(group)), nil)
	}
	st := Statement{Subject: s, Predicate: p, Object: o, Graph: graph}
	if err := checkStatement(st); err != nil {
		return err
	}
	q.noteTerms(statementTerms(st)...)
	q.groups[group].Statements = append(q.groups[group].Statements, st)
	return nil
}

// Filter adds a FILTER constraint to group.
func (q *Query) Filter(group GroupID, e Expression) error {
	if !q.validGroup(group) {
		return NewInvalidArgument(fmt.Sprintf("group %d does not exist", int(group)), nil)
	}
	if err := checkExpression(e); err != nil {
		return NewInvalidArgument("invalid filter expression", err)
	}
	q.groups[group].Filters = append(q.groups[group].Filters, e)
	return nil
}

func (q *Query) validGroup(id GroupID) bool {
	return id >= 0 && int(id) < len(q.groups)
}
