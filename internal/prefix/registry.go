// Package prefix maintains the namespace ↔ prefix table of a single query.
//
// A Registry starts empty and is seeded lazily from the well-known table:
// the first time a well-known namespace or prefix is used it is registered
// under its conventional name. Only registered entries are emitted as
// PREFIX declarations, so a query declares exactly the prefixes it uses.
//
// Entries are append-only for the lifetime of the Registry.
package prefix

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/roach88/rdflift/internal/symbol"
)

var (
	// ErrInvalid is returned for malformed prefixes or namespaces.
	ErrInvalid = errors.New("invalid prefix")

	// ErrConflict is returned when a registration contradicts an existing one.
	ErrConflict = errors.New("prefix conflict")
)

// Registry is a bidirectional prefix table. Not safe for concurrent use.
type Registry struct {
	byPrefix    map[string]string
	byNamespace map[string]string
	order       []Entry
	alloc       *symbol.Allocator
}

// NewRegistry creates an empty registry allocating fresh prefixes from
// alloc. A nil alloc gets a private allocator.
func NewRegistry(alloc *symbol.Allocator) *Registry {
	if alloc == nil {
		alloc = symbol.New()
	}
	return &Registry{
		byPrefix:    make(map[string]string),
		byNamespace: make(map[string]string),
		alloc:       alloc,
	}
}

// PrefixFor returns the prefix for namespace, registering one if needed.
//
// Resolution order: an existing registration, then the well-known table,
// then a freshly allocated "p<n>" prefix. Repeated calls return the same
// prefix. Input that already looks like a prefix (a valid prefix name
// followed by ':') is returned without the colon.
func (r *Registry) PrefixFor(namespace string) string {
	if name, ok := strings.CutSuffix(namespace, ":"); ok && ValidPrefixName(name) {
		return name
	}
	if p, ok := r.byNamespace[namespace]; ok {
		return p
	}
	if p, ok := wellKnownByNamespace[namespace]; ok {
		if _, taken := r.byPrefix[p]; !taken {
			r.add(p, namespace)
			return p
		}
	}
	p := symbol.FreshFunc(r.alloc.Prefix, r.taken)
	r.add(p, namespace)
	return p
}

// Register binds prefix to namespace explicitly. Registering the same pair
// twice is a no-op.
func (r *Registry) Register(prefix, namespace string) error {
	if !ValidPrefixName(prefix) {
		return fmt.Errorf("%w: prefix name %q", ErrInvalid, prefix)
	}
	if namespace == "" {
		return fmt.Errorf("%w: empty namespace for prefix %q", ErrInvalid, prefix)
	}
	if existing, ok := r.byPrefix[prefix]; ok {
		if existing == namespace {
			return nil
		}
		return fmt.Errorf("%w: %q is bound to <%s>, not <%s>", ErrConflict, prefix, existing, namespace)
	}
	if existing, ok := r.byNamespace[namespace]; ok {
		return fmt.Errorf("%w: <%s> is already bound to %q", ErrConflict, namespace, existing)
	}
	r.add(prefix, namespace)
	return nil
}

// Resolve returns the namespace of prefix. A well-known prefix that is not
// yet registered is registered as a side effect.
func (r *Registry) Resolve(prefix string) (string, bool) {
	if ns, ok := r.byPrefix[prefix]; ok {
		return ns, true
	}
	ns, ok := wellKnownByPrefix[prefix]
	if !ok {
		return "", false
	}
	if _, taken := r.byNamespace[ns]; taken {
		return "", false
	}
	r.add(prefix, ns)
	return ns, true
}

// Lookup returns the namespace of a registered prefix without side effects.
func (r *Registry) Lookup(prefix string) (string, bool) {
	ns, ok := r.byPrefix[prefix]
	return ns, ok
}

// Expand turns a prefixed name (prefix:local) into a full IRI when prefix
// resolves. Returns false for anything else, including absolute IRIs whose
// scheme is not a registered prefix.
func (r *Registry) Expand(name string) (string, bool) {
	p, local, ok := strings.Cut(name, ":")
	if !ok || !ValidPrefixName(p) || strings.HasPrefix(local, "//") {
		return "", false
	}
	ns, ok := r.Resolve(p)
	if !ok {
		return "", false
	}
	return ns + local, true
}

// Compact returns prefix:local for iri using the longest registered
// namespace whose remainder is a valid local name. It never registers.
func (r *Registry) Compact(iri string) (string, bool) {
	best := -1
	for i, e := range r.order {
		if !strings.HasPrefix(iri, e.Namespace) || !validLocalName(iri[len(e.Namespace):]) {
			continue
		}
		if best < 0 || len(e.Namespace) > len(r.order[best].Namespace) {
			best = i
		}
	}
	if best < 0 {
		return "", false
	}
	e := r.order[best]
	return e.Prefix + ":" + iri[len(e.Namespace):], true
}

// Entries returns registered entries in emission order: well-known entries
// in table order first, then all others in registration order.
func (r *Registry) Entries() []Entry {
	out := make([]Entry, len(r.order))
	copy(out, r.order)
	sort.SliceStable(out, func(i, j int) bool {
		ri, iok := wellKnownRank[out[i]]
		rj, jok := wellKnownRank[out[j]]
		switch {
		case iok && jok:
			return ri < rj
		case iok != jok:
			return iok
		default:
			return false
		}
	})
	return out
}

// Len returns the number of registered entries.
func (r *Registry) Len() int {
	return len(r.order)
}

func (r *Registry) add(prefix, namespace string) {
	r.byPrefix[prefix] = namespace
	r.byNamespace[namespace] = prefix
	r.order = append(r.order, Entry{Prefix: prefix, Namespace: namespace})
}

func (r *Registry) taken(prefix string) bool {
	_, ok := r.byPrefix[prefix]
	return ok
}

// ValidPrefixName reports whether s is a usable PN_PREFIX: a letter
// followed by letters, digits, '_', '-' or '.', not ending in '.'.
func ValidPrefixName(s string) bool {
	if s == "" || strings.HasSuffix(s, ".") {
		return false
	}
	for i, r := range s {
		if i == 0 {
			if !unicode.IsLetter(r) {
				return false
			}
			continue
		}
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' && r != '-' && r != '.' {
			return false
		}
	}
	return true
}

func validLocalName(s string) bool {
	if s == "" {
		return true
	}
	if strings.HasPrefix(s, "-") || strings.HasPrefix(s, ".") || strings.HasSuffix(s, ".") {
		return false
	}
	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' && r != '-' && r != '.' {
			return false
		}
	}
	return true
}
