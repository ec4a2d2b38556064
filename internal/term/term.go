package term

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// ErrInvalid is wrapped by every constructor error in this package.
var ErrInvalid = errors.New("invalid term")

// Kind identifies the variant of a Term.
type Kind uint8

const (
	KindIRI Kind = iota + 1
	KindLiteral
	KindBlankNode
	KindVariable
)

func (k Kind) String() string {
	switch k {
	case KindIRI:
		return "iri"
	case KindLiteral:
		return "literal"
	case KindBlankNode:
		return "blank node"
	case KindVariable:
		return "variable"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Term is a sealed interface over the four RDF term variants.
type Term interface {
	// Kind reports the variant.
	Kind() Kind

	// String returns the full, prefix-free rendering of the term
	// (<iri>, "lexical"^^<dt>, _:label, ?name).
	String() string

	term() // Sealed - only types in this package implement it
}

// IRI is an absolute IRI reference.
type IRI struct {
	Value string
}

func (IRI) term()      {}
func (IRI) Kind() Kind { return KindIRI }

func (i IRI) String() string {
	return "<" + i.Value + ">"
}

// BlankNode is an anonymous node scoped to a single query.
type BlankNode struct {
	Label string
}

func (BlankNode) term()      {}
func (BlankNode) Kind() Kind { return KindBlankNode }

func (b BlankNode) String() string {
	return "_:" + b.Label
}

// Variable is a SPARQL query variable.
type Variable struct {
	Name string
}

func (Variable) term()      {}
func (Variable) Kind() Kind { return KindVariable }

func (v Variable) String() string {
	return "?" + v.Name
}

// NewIRI validates and returns an IRI. Angle brackets around the value are
// stripped.
func NewIRI(value string) (IRI, error) {
	value = strings.TrimSpace(value)
	if strings.HasPrefix(value, "<") && strings.HasSuffix(value, ">") {
		value = value[1 : len(value)-1]
	}
	if value == "" {
		return IRI{}, fmt.Errorf("%w: empty IRI", ErrInvalid)
	}
	for _, r := range value {
		if r <= 0x20 || strings.ContainsRune("<>\"{}|^`\\", r) {
			return IRI{}, fmt.Errorf("%w: IRI %q contains %q", ErrInvalid, value, r)
		}
	}
	return IRI{Value: value}, nil
}

// MustIRI is like NewIRI but panics on error.
// Use only for constants and in tests.
func MustIRI(value string) IRI {
	iri, err := NewIRI(value)
	if err != nil {
		panic(err)
	}
	return iri
}

// NewVariable validates and returns a Variable. A leading ? or $ is
// stripped.
func NewVariable(name string) (Variable, error) {
	name = strings.TrimPrefix(strings.TrimPrefix(name, "?"), "$")
	if !ValidVariableName(name) {
		return Variable{}, fmt.Errorf("%w: variable name %q", ErrInvalid, name)
	}
	return Variable{Name: name}, nil
}

// NewBlankNode validates and returns a BlankNode. A leading _: is stripped.
func NewBlankNode(label string) (BlankNode, error) {
	label = strings.TrimPrefix(label, "_:")
	if !ValidBlankNodeLabel(label) {
		return BlankNode{}, fmt.Errorf("%w: blank node label %q", ErrInvalid, label)
	}
	return BlankNode{Label: label}, nil
}

// ValidVariableName reports whether name is a usable SPARQL VARNAME.
func ValidVariableName(name string) bool {
	if name == "" {
		return false
	}
	for _, r := range name {
		if !isNameRune(r) {
			return false
		}
	}
	return true
}

// ValidBlankNodeLabel reports whether label is a usable BLANK_NODE_LABEL.
// Dots and hyphens are allowed after the first rune; a trailing dot is not.
func ValidBlankNodeLabel(label string) bool {
	if label == "" || strings.HasSuffix(label, ".") {
		return false
	}
	for i, r := range label {
		if isNameRune(r) {
			continue
		}
		if i > 0 && (r == '-' || r == '.') {
			continue
		}
		return false
	}
	return true
}

// VariableName turns an arbitrary local name into a valid variable name by
// replacing every disallowed rune with an underscore. Returns "" when the
// input contains no letter or digit.
func VariableName(s string) string {
	var b strings.Builder
	meaningful := false
	for _, r := range s {
		if isNameRune(r) {
			if r != '_' {
				meaningful = true
			}
			b.WriteRune(r)
			continue
		}
		b.WriteByte('_')
	}
	if !meaningful {
		return ""
	}
	return b.String()
}

func isNameRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// Equal reports structural equality. Two nil terms are equal.
func Equal(a, b Term) bool {
	return a == b
}

// Key returns the ordering key of t. The nil term has the empty key, so it
// sorts before every other term.
func Key(t Term) string {
	if t == nil {
		return ""
	}
	return t.String()
}

// Compare orders two terms by raw string comparison of their keys.
func Compare(a, b Term) int {
	return strings.Compare(Key(a), Key(b))
}

// LocalName splits an IRI at its last '#', '/' or ':' and returns the
// namespace and the local part. The local part is empty when the IRI ends
// with a separator.
func LocalName(iri string) (namespace, local string) {
	idx := strings.LastIndexAny(iri, "#/:")
	if idx < 0 {
		return "", iri
	}
	return iri[:idx+1], iri[idx+1:]
}
