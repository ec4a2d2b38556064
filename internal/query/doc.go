// Package query provides the mutable model of a SPARQL CONSTRUCT, INSERT or
// DELETE query.
//
// A Query is created once per mapping operation, built up through its
// methods, serialized once by package sparql, and discarded. It owns:
//
//   - the triple template (CONSTRUCT / INSERT / DELETE body)
//   - the WHERE clause as a tree of pattern groups
//   - BIND expressions
//   - a prefix registry and a symbol allocator
//
// PATTERN GROUPS:
//
// Groups live in an arena indexed by GroupID. Group 0 is the DEFAULT root.
// Every other group records its parent as an index, set once at creation.
// Because a group can only be attached to an already existing parent, the
// structure is always a tree.
//
// Groups are retrieved or created by key, so mapping code processing rules
// in any order can share one OPTIONAL block without tracking whether it
// already exists:
//
//	opt, _ := q.WhereGroup("address", query.GroupOptional, query.RootGroup)
//	_ = q.WhereIn(opt, nil, person, street, streetVar)
//	// later, from another rule:
//	opt, _ = q.WhereGroup("address", query.GroupOptional, query.RootGroup) // same group
//
// CONCURRENCY:
//
// A Query has no internal synchronization. Build and serialize it on one
// goroutine; concurrent mapping operations each use their own Query.
package query
