package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/rdflift/internal/prefix"
	"github.com/roach88/rdflift/internal/term"
)

func newConstruct(t *testing.T) *Query {
	t.Helper()
	q, err := New(KindConstruct)
	require.NoError(t, err)
	require.NoError(t, q.Prefixes().Register("ex", "http://example.org/"))
	return q
}

func TestNew_InvalidKind(t *testing.T) {
	_, err := New(Kind(0))
	require.Error(t, err)
	assert.True(t, IsInvalidArgument(err))
}

func TestParseKind(t *testing.T) {
	testCases := []struct {
		in   string
		want Kind
	}{
		{"CONSTRUCT", KindConstruct},
		{"insert", KindInsert},
		{" Delete ", KindDelete},
	}
	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseKind(tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}

	_, err := ParseKind("")
	assert.True(t, IsInvalidArgument(err))

	_, err = ParseKind("   ")
	assert.True(t, IsInvalidArgument(err))

	_, err = ParseKind("SELECT")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `kind="SELECT"`)
}

func TestIRI(t *testing.T) {
	q := newConstruct(t)

	iri, err := q.IRI("ex:Thing")
	require.NoError(t, err)
	assert.Equal(t, "http://example.org/Thing", iri.Value)

	iri, err = q.IRI("<http://example.org/Other>")
	require.NoError(t, err)
	assert.Equal(t, "http://example.org/Other", iri.Value)

	iri, err = q.IRI("http://elsewhere.example/x")
	require.NoError(t, err)
	assert.Equal(t, "http://elsewhere.example/x", iri.Value)

	// Unknown prefixes are accepted as absolute IRIs.
	iri, err = q.IRI("unknown:thing")
	require.NoError(t, err)
	assert.Equal(t, "unknown:thing", iri.Value)

	_, err = q.IRI("  ")
	assert.True(t, IsInvalidArgument(err))

	_, err = q.IRI("http://bad example/")
	assert.True(t, IsInvalidArgument(err))
}

func TestIRIIn(t *testing.T) {
	q := newConstruct(t)

	iri, err := q.IRIIn("ex", "Thing")
	require.NoError(t, err)
	assert.Equal(t, "http://example.org/Thing", iri.Value)

	iri, err = q.IRIIn("ex:", "Thing")
	require.NoError(t, err)
	assert.Equal(t, "http://example.org/Thing", iri.Value)

	iri, err = q.IRIIn("foaf", "name")
	require.NoError(t, err)
	assert.Equal(t, prefix.FOAF+"name", iri.Value)

	iri, err = q.IRIIn("http://vocab.example/", "term")
	require.NoError(t, err)
	assert.Equal(t, "http://vocab.example/term", iri.Value)
	p, ok := q.Prefixes().Compact("http://vocab.example/term")
	require.True(t, ok, "namespace registered on use")
	assert.Equal(t, "p1:term", p)
}

func TestVariable_Fresh(t *testing.T) {
	q := newConstruct(t)

	named, err := q.Variable("v1")
	require.NoError(t, err)
	assert.Equal(t, "v1", named.Name)

	fresh, err := q.Variable("")
	require.NoError(t, err)
	assert.Equal(t, "v2", fresh.Name, "v1 is taken")

	hinted := q.FreshVariable("first-name")
	assert.Equal(t, "first_name", hinted.Name)

	again := q.FreshVariable("first-name")
	assert.Equal(t, "v3", again.Name, "taken hint falls back to the allocator")

	_, err = q.Variable("not valid")
	assert.True(t, IsInvalidArgument(err))
}

func TestBlankNode_Fresh(t *testing.T) {
	q := newConstruct(t)
	s := term.MustIRI("http://example.org/s")
	p := term.MustIRI("http://example.org/p")
	require.NoError(t, q.Triple(s, p, term.BlankNode{Label: "b1"}))

	b, err := q.BlankNode("")
	require.NoError(t, err)
	assert.Equal(t, "b2", b.Label)

	named, err := q.BlankNode("_:node")
	require.NoError(t, err)
	assert.Equal(t, "node", named.Label)
}

func TestLiteral_RegistersXSD(t *testing.T) {
	q := newConstruct(t)

	lit, err := q.Literal(12)
	require.NoError(t, err)
	assert.Equal(t, term.NewInteger(12), lit)
	_, ok := q.Prefixes().Lookup("xsd")
	assert.False(t, ok, "integers are written bare")

	lit, err = q.Literal(12.5)
	require.NoError(t, err)
	assert.Equal(t, term.NewDouble(12.5), lit)
	_, ok = q.Prefixes().Lookup("xsd")
	assert.True(t, ok)

	_, err = q.Literal([]byte("x"))
	assert.True(t, IsInvalidArgument(err))
}

func TestTriple_PositionRules(t *testing.T) {
	q := newConstruct(t)
	s := term.MustIRI("http://example.org/s")
	p := term.MustIRI("http://example.org/p")
	lit := term.NewString("x")

	require.NoError(t, q.Triple(s, p, lit))
	require.NoError(t, q.Triple(term.Variable{Name: "s"}, term.Variable{Name: "p"}, term.Variable{Name: "o"}))

	testCases := []struct {
		name       string
		s, p, o, g term.Term
	}{
		{"nil subject", nil, p, lit, nil},
		{"literal subject", lit, p, lit, nil},
		{"nil predicate", s, nil, lit, nil},
		{"blank predicate", s, term.BlankNode{Label: "b"}, lit, nil},
		{"nil object", s, p, nil, nil},
		{"literal graph", s, p, lit, lit},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := q.Quad(tc.s, tc.p, tc.o, tc.g)
			require.Error(t, err)
			assert.True(t, IsInvalidArgument(err))
		})
	}

	assert.Len(t, q.Triples(), 2, "rejected statements are not appended")
}

func TestRDFType(t *testing.T) {
	q := newConstruct(t)
	thing, err := q.IRI("ex:Thing")
	require.NoError(t, err)

	require.NoError(t, q.RDFType(term.Variable{Name: "s"}, thing, nil))

	triples := q.Triples()
	require.Len(t, triples, 1)
	assert.Equal(t, term.IRI{Value: prefix.RDFType}, triples[0].Predicate)
	assert.Equal(t, []prefix.Entry{{Prefix: "rdf", Namespace: prefix.RDF}, {Prefix: "ex", Namespace: "http://example.org/"}},
		q.Prefixes().Entries())
}

func TestBind(t *testing.T) {
	q := newConstruct(t)
	v := term.Variable{Name: "label"}

	require.NoError(t, q.Bind(Fn("STR", T(term.Variable{Name: "x"})), v))
	assert.True(t, q.HasWhere(), "bindings alone make a WHERE body")

	err := q.Bind(nil, v)
	assert.True(t, IsInvalidArgument(err))

	err = q.Bind(Binary{Op: "??", Left: T(v), Right: T(v)}, term.Variable{Name: "y"})
	assert.True(t, IsInvalidArgument(err))

	err = q.Bind(T(v), term.Variable{})
	assert.True(t, IsInvalidArgument(err))

	assert.Len(t, q.Bindings(), 1)
}

func TestSetTargetGraph(t *testing.T) {
	q := MustNew(KindInsert)
	g := term.MustIRI("http://example.org/g")

	require.NoError(t, q.SetTargetGraph(g))
	assert.Equal(t, g, q.TargetGraph())

	require.NoError(t, q.SetTargetGraph(nil))
	assert.Nil(t, q.TargetGraph())

	err := q.SetTargetGraph(term.Variable{Name: "g"})
	assert.True(t, IsInvalidArgument(err))
}

func TestExpressionVariables(t *testing.T) {
	a := term.Variable{Name: "a"}
	b := term.Variable{Name: "b"}
	e := Fn("CONCAT", T(a), Binary{Op: "+", Left: T(b), Right: T(a)}, T(term.NewString("x")))

	assert.Equal(t, []term.Variable{a, b}, ExpressionVariables(e))
}
