package expr

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

// SyntaxError reports malformed expression text.
type SyntaxError struct {
	Input   string
	Offset  int
	Message string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error at offset %d in %q: %s", e.Offset, e.Input, e.Message)
}

// numberPattern matches a whole numeric value; ',' is accepted as decimal
// separator.
var numberPattern = regexp.MustCompile(`^[+-]?(?:[0-9]+(?:[.,][0-9]+)?|[.,][0-9]+)$`)

// Parse parses a single value expression.
func Parse(input string) (Node, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return nil, &SyntaxError{Input: input, Message: "empty expression"}
	}
	// At top level a comma cannot be an argument separator.
	if numberPattern.MatchString(trimmed) {
		return Number{Text: trimmed}, nil
	}

	p := &parser{input: input}
	node, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	p.skipWhitespace()
	if p.pos < len(p.input) {
		return nil, p.errorf("unexpected %q after expression", p.input[p.pos:])
	}
	return node, nil
}

// parser is a byte-position recursive-descent parser.
type parser struct {
	input string
	pos   int
}

func (p *parser) errorf(format string, args ...any) *SyntaxError {
	return &SyntaxError{Input: p.input, Offset: p.pos, Message: fmt.Sprintf(format, args...)}
}

func (p *parser) peek() byte {
	if p.pos >= len(p.input) {
		return 0
	}
	return p.input[p.pos]
}

func (p *parser) skipWhitespace() {
	for p.pos < len(p.input) && isSpace(p.input[p.pos]) {
		p.pos++
	}
}

func (p *parser) readWhile(predicate func(byte) bool) string {
	start := p.pos
	for p.pos < len(p.input) && predicate(p.input[p.pos]) {
		p.pos++
	}
	return p.input[start:p.pos]
}

func (p *parser) parseExpr() (Node, error) {
	p.skipWhitespace()
	switch c := p.peek(); {
	case c == 0:
		return nil, p.errorf("expected expression")
	case c == '"' || c == '\'':
		return p.parseQuoted()
	case c == '?' || c == '$':
		return p.parseVar()
	case c == '<':
		iri, err := p.parseBracketed()
		if err != nil {
			return nil, err
		}
		return p.maybeCall(iri, true)
	default:
		atom := p.readWhile(isAtomByte)
		if atom == "" {
			return nil, p.errorf("unexpected %q", string(c))
		}
		if numberPattern.MatchString(atom) && !strings.Contains(atom, ",") {
			return Number{Text: atom}, nil
		}
		return p.maybeCall(atom, isFunctionName(atom))
	}
}

// maybeCall parses an argument list when name is followed by '('.
func (p *parser) maybeCall(name string, callable bool) (Node, error) {
	save := p.pos
	p.skipWhitespace()
	if p.peek() != '(' || !callable {
		p.pos = save
		return Ref{Text: name}, nil
	}
	p.pos++

	call := Call{Name: name}
	p.skipWhitespace()
	if p.peek() == ')' {
		p.pos++
		return call, nil
	}
	for {
		arg, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		call.Args = append(call.Args, arg)
		p.skipWhitespace()
		switch p.peek() {
		case ',':
			p.pos++
		case ')':
			p.pos++
			return call, nil
		case 0:
			return nil, p.errorf("unterminated argument list of %s", name)
		default:
			return nil, p.errorf("expected ',' or ')' in arguments of %s", name)
		}
	}
}

func (p *parser) parseQuoted() (Node, error) {
	quote := p.input[p.pos]
	p.pos++

	var b strings.Builder
	for {
		if p.pos >= len(p.input) {
			return nil, p.errorf("unterminated string")
		}
		c := p.input[p.pos]
		p.pos++
		if c == quote {
			break
		}
		if c != '\\' {
			b.WriteByte(c)
			continue
		}
		if p.pos >= len(p.input) {
			return nil, p.errorf("unterminated escape")
		}
		esc := p.input[p.pos]
		p.pos++
		switch esc {
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case 'r':
			b.WriteByte('\r')
		case '"', '\'', '\\':
			b.WriteByte(esc)
		default:
			return nil, p.errorf("unknown escape \\%c", esc)
		}
	}

	q := Quoted{Value: b.String()}
	switch {
	case p.peek() == '@':
		p.pos++
		q.Lang = p.readWhile(func(c byte) bool { return isAlnum(c) || c == '-' })
		if q.Lang == "" {
			return nil, p.errorf("empty language tag")
		}
	case strings.HasPrefix(p.input[p.pos:], "^^"):
		p.pos += 2
		if p.peek() == '<' {
			dt, err := p.parseBracketed()
			if err != nil {
				return nil, err
			}
			q.Datatype = dt
		} else {
			q.Datatype = p.readWhile(isAtomByte)
		}
		if q.Datatype == "" {
			return nil, p.errorf("empty datatype")
		}
	}
	return q, nil
}

func (p *parser) parseVar() (Node, error) {
	p.pos++
	name := p.readWhile(func(c byte) bool { return isAlnum(c) || c == '_' })
	if name == "" {
		return nil, p.errorf("empty variable name")
	}
	return Var{Name: name}, nil
}

// parseBracketed reads <...> and returns it including the brackets.
func (p *parser) parseBracketed() (string, error) {
	end := strings.IndexByte(p.input[p.pos:], '>')
	if end < 0 {
		return "", p.errorf("unterminated IRI")
	}
	iri := p.input[p.pos : p.pos+end+1]
	p.pos += end + 1
	return iri, nil
}

// isFunctionName accepts identifiers and prefixed names. IRIs with a
// scheme-relative part (http://...) are references, never calls.
func isFunctionName(s string) bool {
	if strings.Contains(s, "//") {
		return false
	}
	for i, r := range s {
		if i == 0 && !unicode.IsLetter(r) {
			return false
		}
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && !strings.ContainsRune("_-.:", r) {
			return false
		}
	}
	return s != ""
}

func isAtomByte(c byte) bool {
	return !isSpace(c) && c != '(' && c != ')' && c != ',' && c != '"' && c != '\''
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func isAlnum(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c >= 0x80
}
