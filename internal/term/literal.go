package term

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// XSD namespace and the datatypes the builder produces.
const XSD = "http://www.w3.org/2001/XMLSchema#"

var (
	XSDString  = IRI{Value: XSD + "string"}
	XSDInteger = IRI{Value: XSD + "integer"}
	XSDDecimal = IRI{Value: XSD + "decimal"}
	XSDDouble  = IRI{Value: XSD + "double"}
	XSDBoolean = IRI{Value: XSD + "boolean"}
)

// Literal is an RDF literal. At most one of Datatype and Lang is set; a
// literal with neither is a simple string literal.
type Literal struct {
	Lexical  string
	Datatype string // datatype IRI, without brackets
	Lang     string // language tag, without @
}

func (Literal) term()      {}
func (Literal) Kind() Kind { return KindLiteral }

// String renders the literal with its lexical form escaped.
func (l Literal) String() string {
	s := `"` + EscapeString(l.Lexical) + `"`
	switch {
	case l.Lang != "":
		return s + "@" + l.Lang
	case l.Datatype != "":
		return s + "^^<" + l.Datatype + ">"
	default:
		return s
	}
}

// HasDatatype reports whether the literal carries datatype dt.
func (l Literal) HasDatatype(dt IRI) bool {
	return l.Datatype == dt.Value
}

// Abbreviable reports whether the literal can be written without quotes
// or datatype: integers, decimals and booleans in their plain lexical form.
func (l Literal) Abbreviable() bool {
	if l.Lang != "" {
		return false
	}
	switch l.Datatype {
	case XSDInteger.Value:
		return isInteger(l.Lexical)
	case XSDDecimal.Value:
		whole, frac, ok := strings.Cut(l.Lexical, ".")
		if !ok || frac == "" || !isDigits(frac) {
			return false
		}
		return whole == "" || whole == "+" || whole == "-" || isInteger(whole)
	case XSDBoolean.Value:
		return l.Lexical == "true" || l.Lexical == "false"
	default:
		return false
	}
}

func isInteger(s string) bool {
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		s = s[1:]
	}
	return isDigits(s)
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// NewString returns a simple string literal.
func NewString(s string) Literal {
	return Literal{Lexical: s}
}

// NewLangString returns a language-tagged string literal.
func NewLangString(s, lang string) (Literal, error) {
	if !validLangTag(lang) {
		return Literal{}, fmt.Errorf("%w: language tag %q", ErrInvalid, lang)
	}
	return Literal{Lexical: s, Lang: lang}, nil
}

// NewTypedLiteral returns a literal with an explicit datatype.
// xsd:string collapses to a simple literal.
func NewTypedLiteral(lexical string, datatype IRI) Literal {
	if datatype == XSDString {
		return Literal{Lexical: lexical}
	}
	return Literal{Lexical: lexical, Datatype: datatype.Value}
}

// NewInteger returns an xsd:integer literal.
func NewInteger(n int64) Literal {
	return Literal{Lexical: strconv.FormatInt(n, 10), Datatype: XSDInteger.Value}
}

// NewDecimal returns an xsd:decimal literal from its lexical form. The form
// is not checked; use Abbreviable to test for a canonical one.
func NewDecimal(lexical string) Literal {
	return Literal{Lexical: lexical, Datatype: XSDDecimal.Value}
}

// NewDouble returns an xsd:double literal.
func NewDouble(f float64) Literal {
	var lex string
	switch {
	case math.IsNaN(f):
		lex = "NaN"
	case math.IsInf(f, 1):
		lex = "INF"
	case math.IsInf(f, -1):
		lex = "-INF"
	default:
		lex = strconv.FormatFloat(f, 'f', -1, 64)
	}
	return Literal{Lexical: lex, Datatype: XSDDouble.Value}
}

// NewBoolean returns an xsd:boolean literal.
func NewBoolean(b bool) Literal {
	return Literal{Lexical: strconv.FormatBool(b), Datatype: XSDBoolean.Value}
}

// FromValue converts a Go value to a literal. Supported: string, bool, int,
// int32, int64 and float64.
func FromValue(v any) (Literal, error) {
	switch val := v.(type) {
	case string:
		return NewString(val), nil
	case bool:
		return NewBoolean(val), nil
	case int:
		return NewInteger(int64(val)), nil
	case int32:
		return NewInteger(int64(val)), nil
	case int64:
		return NewInteger(val), nil
	case float64:
		return NewDouble(val), nil
	default:
		return Literal{}, fmt.Errorf("%w: unsupported literal type %T", ErrInvalid, v)
	}
}

// EscapeString escapes a lexical form for embedding between double quotes
// in SPARQL or N-Triples text.
func EscapeString(s string) string {
	if !needsEscape(s) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s) + 8)
	for _, r := range s {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '"':
			b.WriteString(`\"`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		case '\b':
			b.WriteString(`\b`)
		case '\f':
			b.WriteString(`\f`)
		default:
			if r < 0x20 || r == 0x7f {
				fmt.Fprintf(&b, `\u%04X`, r)
				continue
			}
			b.WriteRune(r)
		}
	}
	return b.String()
}

func needsEscape(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < 0x20 || c == 0x7f || c == '"' || c == '\\' {
			return true
		}
	}
	return false
}

func validLangTag(tag string) bool {
	if tag == "" {
		return false
	}
	for i, part := range strings.Split(tag, "-") {
		if part == "" {
			return false
		}
		for _, r := range part {
			isAlpha := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
			isDigit := r >= '0' && r <= '9'
			if !isAlpha && !(isDigit && i > 0) {
				return false
			}
		}
	}
	return true
}
