// Package symbol allocates fresh names for variables, blank nodes,
// namespace prefixes and pattern-group keys.
//
// An Allocator is owned by exactly one query. Counters are monotonic and
// never reset, so names are unique within that query. Allocators are not
// safe for concurrent use; concurrent mapping operations each use their own
// query and therefore their own Allocator.
package symbol

import "strconv"

// Name prefixes for allocated symbols.
const (
	VariablePrefix  = "v"
	BlankNodePrefix = "b"
	PrefixPrefix    = "p"
	GroupKeyPrefix  = "w"
)

// Allocator hands out fresh symbol names from independent counters.
type Allocator struct {
	variables  int
	blankNodes int
	prefixes   int
	groups     int
}

// New returns an Allocator with all counters at zero.
func New() *Allocator {
	return &Allocator{}
}

// Variable returns the next variable name (v1, v2, ...).
func (a *Allocator) Variable() string {
	a.variables++
	return VariablePrefix + strconv.Itoa(a.variables)
}

// BlankNode returns the next blank node label (b1, b2, ...).
func (a *Allocator) BlankNode() string {
	a.blankNodes++
	return BlankNodePrefix + strconv.Itoa(a.blankNodes)
}

// Prefix returns the next namespace prefix (p1, p2, ...).
func (a *Allocator) Prefix() string {
	a.prefixes++
	return PrefixPrefix + strconv.Itoa(a.prefixes)
}

// GroupKey returns the next synthetic pattern-group key (w1, w2, ...).
func (a *Allocator) GroupKey() string {
	a.groups++
	return GroupKeyPrefix + strconv.Itoa(a.groups)
}

// FreshFunc wraps a generator so that names rejected by taken are skipped.
// The generator keeps advancing, so a skipped name is never handed out
// later either.
func FreshFunc(next func() string, taken func(string) bool) string {
	for {
		name := next()
		if !taken(name) {
			return name
		}
	}
}
