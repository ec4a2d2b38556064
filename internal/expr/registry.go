package expr

import (
	"fmt"
	"sort"
	"strings"
)

// Function describes a callable the serializer can emit.
type Function struct {
	// Name is the SPARQL keyword for built-ins, or the function IRI or
	// prefixed name for extension functions.
	Name string

	// Extension marks non-built-in functions, called by IRI.
	Extension bool

	// MinArgs and MaxArgs bound the argument count. MaxArgs < 0 means
	// variadic.
	MinArgs int
	MaxArgs int
}

// UnknownFunctionError is returned for a name that is neither a built-in,
// a registered alias nor an extension function IRI.
type UnknownFunctionError struct {
	Name string
}

func (e *UnknownFunctionError) Error() string {
	return fmt.Sprintf("unknown function %q", e.Name)
}

// ArityError is returned when a call has the wrong number of arguments.
type ArityError struct {
	Function Function
	Got      int
}

func (e *ArityError) Error() string {
	switch {
	case e.Function.MaxArgs < 0:
		return fmt.Sprintf("%s takes at least %d argument(s), got %d", e.Function.Name, e.Function.MinArgs, e.Got)
	case e.Function.MinArgs == e.Function.MaxArgs:
		return fmt.Sprintf("%s takes %d argument(s), got %d", e.Function.Name, e.Function.MinArgs, e.Got)
	default:
		return fmt.Sprintf("%s takes %d to %d arguments, got %d", e.Function.Name, e.Function.MinArgs, e.Function.MaxArgs, e.Got)
	}
}

// builtins are the SPARQL 1.1 functions usable in BIND, with arity.
var builtins = []Function{
	{Name: "STR", MinArgs: 1, MaxArgs: 1},
	{Name: "LANG", MinArgs: 1, MaxArgs: 1},
	{Name: "LANGMATCHES", MinArgs: 2, MaxArgs: 2},
	{Name: "DATATYPE", MinArgs: 1, MaxArgs: 1},
	{Name: "BOUND", MinArgs: 1, MaxArgs: 1},
	{Name: "IRI", MinArgs: 1, MaxArgs: 1},
	{Name: "URI", MinArgs: 1, MaxArgs: 1},
	{Name: "BNODE", MinArgs: 0, MaxArgs: 1},
	{Name: "RAND", MinArgs: 0, MaxArgs: 0},
	{Name: "ABS", MinArgs: 1, MaxArgs: 1},
	{Name: "CEIL", MinArgs: 1, MaxArgs: 1},
	{Name: "FLOOR", MinArgs: 1, MaxArgs: 1},
	{Name: "ROUND", MinArgs: 1, MaxArgs: 1},
	{Name: "CONCAT", MinArgs: 0, MaxArgs: -1},
	{Name: "STRLEN", MinArgs: 1, MaxArgs: 1},
	{Name: "UCASE", MinArgs: 1, MaxArgs: 1},
	{Name: "LCASE", MinArgs: 1, MaxArgs: 1},
	{Name: "ENCODE_FOR_URI", MinArgs: 1, MaxArgs: 1},
	{Name: "CONTAINS", MinArgs: 2, MaxArgs: 2},
	{Name: "STRSTARTS", MinArgs: 2, MaxArgs: 2},
	{Name: "STRENDS", MinArgs: 2, MaxArgs: 2},
	{Name: "STRBEFORE", MinArgs: 2, MaxArgs: 2},
	{Name: "STRAFTER", MinArgs: 2, MaxArgs: 2},
	{Name: "SUBSTR", MinArgs: 2, MaxArgs: 3},
	{Name: "REPLACE", MinArgs: 3, MaxArgs: 4},
	{Name: "REGEX", MinArgs: 2, MaxArgs: 3},
	{Name: "YEAR", MinArgs: 1, MaxArgs: 1},
	{Name: "MONTH", MinArgs: 1, MaxArgs: 1},
	{Name: "DAY", MinArgs: 1, MaxArgs: 1},
	{Name: "HOURS", MinArgs: 1, MaxArgs: 1},
	{Name: "MINUTES", MinArgs: 1, MaxArgs: 1},
	{Name: "SECONDS", MinArgs: 1, MaxArgs: 1},
	{Name: "TIMEZONE", MinArgs: 1, MaxArgs: 1},
	{Name: "TZ", MinArgs: 1, MaxArgs: 1},
	{Name: "NOW", MinArgs: 0, MaxArgs: 0},
	{Name: "UUID", MinArgs: 0, MaxArgs: 0},
	{Name: "STRUUID", MinArgs: 0, MaxArgs: 0},
	{Name: "MD5", MinArgs: 1, MaxArgs: 1},
	{Name: "SHA1", MinArgs: 1, MaxArgs: 1},
	{Name: "SHA256", MinArgs: 1, MaxArgs: 1},
	{Name: "SHA384", MinArgs: 1, MaxArgs: 1},
	{Name: "SHA512", MinArgs: 1, MaxArgs: 1},
	{Name: "COALESCE", MinArgs: 1, MaxArgs: -1},
	{Name: "IF", MinArgs: 3, MaxArgs: 3},
	{Name: "STRLANG", MinArgs: 2, MaxArgs: 2},
	{Name: "STRDT", MinArgs: 2, MaxArgs: 2},
	{Name: "SAMETERM", MinArgs: 2, MaxArgs: 2},
	{Name: "ISIRI", MinArgs: 1, MaxArgs: 1},
	{Name: "ISURI", MinArgs: 1, MaxArgs: 1},
	{Name: "ISBLANK", MinArgs: 1, MaxArgs: 1},
	{Name: "ISLITERAL", MinArgs: 1, MaxArgs: 1},
	{Name: "ISNUMERIC", MinArgs: 1, MaxArgs: 1},
}

// Registry resolves function names used in mapping expressions.
// Lookups are case-insensitive. Not safe for concurrent registration.
type Registry struct {
	funcs map[string]Function
}

// NewRegistry returns a registry holding the SPARQL built-ins.
func NewRegistry() *Registry {
	r := &Registry{funcs: make(map[string]Function, len(builtins))}
	for _, fn := range builtins {
		r.funcs[strings.ToLower(fn.Name)] = fn
	}
	return r
}

// Alias makes name resolve to fn. Aliases may shadow built-ins.
func (r *Registry) Alias(name string, fn Function) error {
	if !isFunctionName(name) || strings.Contains(name, ":") {
		return fmt.Errorf("invalid alias name %q", name)
	}
	if fn.Name == "" {
		return fmt.Errorf("alias %q has no target function", name)
	}
	r.funcs[strings.ToLower(name)] = fn
	return nil
}

// Resolve returns the function called name with argc arguments.
//
// A prefixed name (ex:fn) or bracketed IRI that is not registered resolves
// to an extension function of any arity.
func (r *Registry) Resolve(name string, argc int) (Function, error) {
	fn, ok := r.funcs[strings.ToLower(name)]
	if !ok {
		if !isExtensionName(name) {
			return Function{}, &UnknownFunctionError{Name: name}
		}
		fn = Function{Name: name, Extension: true, MaxArgs: -1}
	}
	if argc < fn.MinArgs || (fn.MaxArgs >= 0 && argc > fn.MaxArgs) {
		return Function{}, &ArityError{Function: fn, Got: argc}
	}
	return fn, nil
}

// Names returns the registered names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.funcs))
	for name := range r.funcs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func isExtensionName(name string) bool {
	if strings.HasPrefix(name, "<") && strings.HasSuffix(name, ">") && len(name) > 2 {
		return true
	}
	p, local, ok := strings.Cut(name, ":")
	return ok && p != "" && local != "" && isFunctionName(name)
}
