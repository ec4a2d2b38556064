package sparql

import (
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/rdflift/internal/mapping"
	"github.com/roach88/rdflift/internal/prefix"
	"github.com/roach88/rdflift/internal/query"
	"github.com/roach88/rdflift/internal/term"
)

const ex = "http://example.org/"

func newQuery(t *testing.T, kind query.Kind) *query.Query {
	t.Helper()
	q := query.MustNew(kind)
	require.NoError(t, q.Prefixes().Register("ex", ex))
	return q
}

func iri(t *testing.T, q *query.Query, name string) term.IRI {
	t.Helper()
	v, err := q.IRI(name)
	require.NoError(t, err)
	return v
}

func assertGolden(t *testing.T, name string, got string) {
	t.Helper()
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, []byte(got))
}

func TestSerialize_RoundTripShape(t *testing.T) {
	q := newQuery(t, query.KindConstruct)
	require.NoError(t, q.RDFType(term.Variable{Name: "s"}, iri(t, q, "ex:Thing"), nil))

	want := "PREFIX rdf: <" + prefix.RDF + ">\n" +
		"PREFIX ex: <" + ex + ">\n" +
		"\n" +
		"CONSTRUCT {\n" +
		"\t\t?s\ta\tex:Thing .\n" +
		"}\n"
	assert.Equal(t, want, Serialize(q))
}

func TestSerialize_SubjectPredicateCompaction(t *testing.T) {
	want := "PREFIX ex: <" + ex + ">\n" +
		"\n" +
		"CONSTRUCT {\n" +
		"\t\tex:s\tex:p1\tex:o1 ,\n" +
		"\t\t\t\tex:o2 ;\n" +
		"\t\t\tex:p2\tex:o3 .\n" +
		"}\n"

	orders := [][]int{{0, 1, 2}, {2, 0, 1}, {0, 2, 1}}
	for _, order := range orders {
		q := newQuery(t, query.KindConstruct)
		triples := [][3]string{
			{"ex:s", "ex:p1", "ex:o1"},
			{"ex:s", "ex:p1", "ex:o2"},
			{"ex:s", "ex:p2", "ex:o3"},
		}
		for _, i := range order {
			tr := triples[i]
			require.NoError(t, q.Triple(iri(t, q, tr[0]), iri(t, q, tr[1]), iri(t, q, tr[2])))
		}
		assert.Equal(t, want, Serialize(q), "insertion order %v", order)
	}
}

func TestSerialize_NamedGraphScoping(t *testing.T) {
	q := newQuery(t, query.KindConstruct)
	p := iri(t, q, "ex:p")
	require.NoError(t, q.Quad(iri(t, q, "ex:a"), p, iri(t, q, "ex:b"), iri(t, q, "ex:g2")))
	require.NoError(t, q.Triple(iri(t, q, "ex:c"), p, iri(t, q, "ex:d")))
	require.NoError(t, q.Quad(iri(t, q, "ex:e"), p, iri(t, q, "ex:f"), iri(t, q, "ex:g1")))

	want := "PREFIX ex: <" + ex + ">\n" +
		"\n" +
		"CONSTRUCT {\n" +
		"\t\tex:c\tex:p\tex:d .\n" +
		"\t\tGRAPH ex:g1 {\n" +
		"\t\t\tex:e\tex:p\tex:f .\n" +
		"\t\t}\n" +
		"\t\tGRAPH ex:g2 {\n" +
		"\t\t\tex:a\tex:p\tex:b .\n" +
		"\t\t}\n" +
		"}\n"
	assert.Equal(t, want, Serialize(q))
}

func TestSerialize_SameSubjectAcrossGraphs(t *testing.T) {
	q := newQuery(t, query.KindConstruct)
	s := iri(t, q, "ex:s")
	p := iri(t, q, "ex:p")
	require.NoError(t, q.Triple(s, p, iri(t, q, "ex:a")))
	require.NoError(t, q.Quad(s, p, iri(t, q, "ex:b"), iri(t, q, "ex:g")))

	want := "PREFIX ex: <" + ex + ">\n" +
		"\n" +
		"CONSTRUCT {\n" +
		"\t\tex:s\tex:p\tex:a .\n" +
		"\t\tGRAPH ex:g {\n" +
		"\t\t\tex:s\tex:p\tex:b .\n" +
		"\t\t}\n" +
		"}\n"
	assert.Equal(t, want, Serialize(q), "compaction never crosses a graph boundary")
}

func TestSerialize_NestedOptional(t *testing.T) {
	q := newQuery(t, query.KindConstruct)
	s := term.Variable{Name: "s"}
	o := term.Variable{Name: "o"}
	p := iri(t, q, "ex:p")

	opt, err := q.WhereGroup("opt1", query.GroupOptional, query.RootGroup)
	require.NoError(t, err)
	require.NoError(t, q.WhereIn(opt, nil, s, p, o))
	require.NoError(t, q.Triple(s, p, o))

	want := "PREFIX ex: <" + ex + ">\n" +
		"\n" +
		"CONSTRUCT {\n" +
		"\t\t?s\tex:p\t?o .\n" +
		"}\n" +
		"WHERE {\n" +
		"\tOPTIONAL {\n" +
		"\t\t?s\tex:p\t?o .\n" +
		"\t}\n" +
		"}\n"
	assert.Equal(t, want, Serialize(q))
}

func TestSerialize_DeepNesting(t *testing.T) {
	q := newQuery(t, query.KindConstruct)
	s := term.Variable{Name: "s"}
	p := iri(t, q, "ex:p")

	outer, err := q.WhereGroup("outer", query.GroupOptional, query.RootGroup)
	require.NoError(t, err)
	inner, err := q.WhereGroup("inner", query.GroupOptional, outer)
	require.NoError(t, err)
	require.NoError(t, q.WhereIn(inner, nil, s, p, term.Variable{Name: "o"}))

	want := "WHERE {\n" +
		"\tOPTIONAL {\n" +
		"\t\tOPTIONAL {\n" +
		"\t\t\t?s\tex:p\t?o .\n" +
		"\t\t}\n" +
		"\t}\n" +
		"}\n"
	assert.Contains(t, Serialize(q), want)
}

func TestSerialize_EmptyGroupsOmitted(t *testing.T) {
	q := newQuery(t, query.KindConstruct)
	s := term.Variable{Name: "s"}
	p := iri(t, q, "ex:p")

	_, err := q.WhereGroup("empty", query.GroupOptional, query.RootGroup)
	require.NoError(t, err)
	union, err := q.WhereGroup("u", query.GroupUnion, query.RootGroup)
	require.NoError(t, err)
	_, err = q.WhereGroup("empty-branch", query.GroupDefault, union)
	require.NoError(t, err)
	require.NoError(t, q.Triple(s, p, s))

	out := Serialize(q)
	assert.NotContains(t, out, "WHERE", "no non-empty group means no WHERE body")
	assert.NotContains(t, out, "{}")

	require.NoError(t, q.Where(s, p, s))
	out = Serialize(q)
	assert.Contains(t, out, "WHERE {\n\t?s\tex:p\t?s .\n}\n")
	assert.NotContains(t, out, "OPTIONAL")
	assert.NotContains(t, out, "UNION")
}

func TestSerialize_UnionOwnStatementsFirst(t *testing.T) {
	q := newQuery(t, query.KindConstruct)
	s := term.Variable{Name: "s"}

	union, err := q.WhereGroup("u", query.GroupUnion, query.RootGroup)
	require.NoError(t, err)
	branch, err := q.WhereGroup("b", query.GroupDefault, union)
	require.NoError(t, err)
	require.NoError(t, q.WhereIn(branch, nil, s, iri(t, q, "ex:b"), term.Variable{Name: "x"}))
	require.NoError(t, q.WhereIn(union, nil, s, iri(t, q, "ex:a"), term.Variable{Name: "x"}))

	want := "WHERE {\n" +
		"\t{\n" +
		"\t\t?s\tex:a\t?x .\n" +
		"\t}\n" +
		"\tUNION\n" +
		"\t{\n" +
		"\t\t?s\tex:b\t?x .\n" +
		"\t}\n" +
		"}\n"
	assert.Contains(t, Serialize(q), want)
}

func TestSerialize_UnionWrapsOptionalBranch(t *testing.T) {
	q := newQuery(t, query.KindConstruct)
	s := term.Variable{Name: "s"}

	union, err := q.WhereGroup("u", query.GroupUnion, query.RootGroup)
	require.NoError(t, err)
	require.NoError(t, q.WhereIn(union, nil, s, iri(t, q, "ex:a"), term.Variable{Name: "x"}))
	opt, err := q.WhereGroup("o", query.GroupOptional, union)
	require.NoError(t, err)
	require.NoError(t, q.WhereIn(opt, nil, s, iri(t, q, "ex:b"), term.Variable{Name: "y"}))

	want := "\tUNION\n" +
		"\t{\n" +
		"\t\tOPTIONAL {\n" +
		"\t\t\t?s\tex:b\t?y .\n" +
		"\t\t}\n" +
		"\t}\n"
	assert.Contains(t, Serialize(q), want)
}

func TestSerialize_Literals(t *testing.T) {
	q := newQuery(t, query.KindConstruct)
	s := iri(t, q, "ex:s")
	lang, err := term.NewLangString("hallo", "de")
	require.NoError(t, err)
	dbl, err := q.Literal(2.5)
	require.NoError(t, err)

	objects := []struct {
		pred string
		obj  term.Term
	}{
		{"ex:a", term.NewString("tab\there \"q\"")},
		{"ex:b", lang},
		{"ex:c", term.NewInteger(-7)},
		{"ex:d", term.NewDecimal("1.50")},
		{"ex:e", term.NewBoolean(true)},
		{"ex:f", dbl},
		{"ex:g", term.NewTypedLiteral("x", term.MustIRI("http://types.example/custom"))},
	}
	for _, o := range objects {
		require.NoError(t, q.Triple(s, iri(t, q, o.pred), o.obj))
	}

	want := "CONSTRUCT {\n" +
		"\t\tex:s\tex:a\t\"tab\\there \\\"q\\\"\" ;\n" +
		"\t\t\tex:b\t\"hallo\"@de ;\n" +
		"\t\t\tex:c\t-7 ;\n" +
		"\t\t\tex:d\t1.50 ;\n" +
		"\t\t\tex:e\ttrue ;\n" +
		"\t\t\tex:f\t\"2.5\"^^xsd:double ;\n" +
		"\t\t\tex:g\t\"x\"^^p1:custom .\n" +
		"}\n"
	assert.Contains(t, Serialize(q), want)
}

func TestSerialize_InsertDataAndWith(t *testing.T) {
	q := newQuery(t, query.KindInsert)
	require.NoError(t, q.SetTargetGraph(iri(t, q, "ex:g")))
	require.NoError(t, q.Triple(iri(t, q, "ex:s"), iri(t, q, "ex:p"), term.NewString("v")))

	want := "PREFIX ex: <" + ex + ">\n" +
		"\n" +
		"INSERT DATA {\n" +
		"\t\tGRAPH ex:g {\n" +
		"\t\t\tex:s\tex:p\t\"v\" .\n" +
		"\t\t}\n" +
		"}\n"
	assert.Equal(t, want, Serialize(q))

	require.NoError(t, q.Where(iri(t, q, "ex:s"), iri(t, q, "ex:q"), term.Variable{Name: "o"}))
	want = "PREFIX ex: <" + ex + ">\n" +
		"\n" +
		"WITH ex:g\n" +
		"INSERT {\n" +
		"\t\tex:s\tex:p\t\"v\" .\n" +
		"}\n" +
		"WHERE {\n" +
		"\tex:s\tex:q\t?o .\n" +
		"}\n"
	assert.Equal(t, want, Serialize(q))
}

func TestSerialize_ConstructIgnoresTargetGraph(t *testing.T) {
	q := newQuery(t, query.KindConstruct)
	require.NoError(t, q.SetTargetGraph(iri(t, q, "ex:g")))

	assert.NotContains(t, Serialize(q), "WITH")
}

func TestSerialize_Expressions(t *testing.T) {
	q := newQuery(t, query.KindConstruct)
	a := term.Variable{Name: "a"}
	b := term.Variable{Name: "b"}
	require.NoError(t, q.Where(a, iri(t, q, "ex:p"), b))
	require.NoError(t, q.Filter(query.RootGroup, query.Binary{
		Op:    "&&",
		Left:  query.Binary{Op: ">", Left: query.T(b), Right: query.T(term.NewInteger(1))},
		Right: query.Fn("BOUND", query.T(a)),
	}))
	require.NoError(t, q.Bind(query.Call{
		Name:      ex + "normalize",
		Extension: true,
		Args:      []query.Expression{query.T(b)},
	}, term.Variable{Name: "n"}))
	require.NoError(t, q.Bind(query.Call{
		Name:      "http://other.example/fn/x-y",
		Extension: true,
	}, term.Variable{Name: "m"}))

	want := "WHERE {\n" +
		"\t?a\tex:p\t?b .\n" +
		"\tFILTER((?b > 1) && BOUND(?a))\n" +
		"\tBIND(ex:normalize(?b) AS ?n)\n" +
		"\tBIND(<http://other.example/fn/x-y>() AS ?m)\n" +
		"}\n"
	assert.Contains(t, Serialize(q), want)
}

func TestSerialize_Idempotent(t *testing.T) {
	q := newQuery(t, query.KindConstruct)
	s := term.Variable{Name: "s"}
	require.NoError(t, q.Where(s, iri(t, q, "ex:p"), term.Variable{Name: "o"}))
	require.NoError(t, q.RDFType(s, iri(t, q, "ex:T"), nil))

	first := Serialize(q)
	second := Serialize(q)

	assert.Equal(t, first, second)
	assert.Len(t, q.Prefixes().Entries(), 2, "serialization registers nothing")
}

func TestSerialize_Golden_UnionOptionalFilter(t *testing.T) {
	q := newQuery(t, query.KindConstruct)
	person := term.Variable{Name: "person"}
	name := term.Variable{Name: "name"}
	age := term.Variable{Name: "age"}
	upper := term.Variable{Name: "upper"}

	require.NoError(t, q.RDFType(person, iri(t, q, "foaf:Person"), nil))
	require.NoError(t, q.Triple(person, iri(t, q, "foaf:name"), name))
	require.NoError(t, q.Triple(person, iri(t, q, "ex:label"), upper))

	require.NoError(t, q.Where(person, iri(t, q, "ex:kind"), iri(t, q, "ex:Human")))

	union, err := q.WhereGroup("names", query.GroupUnion, query.RootGroup)
	require.NoError(t, err)
	given, err := q.WhereGroup("given", query.GroupDefault, union)
	require.NoError(t, err)
	require.NoError(t, q.WhereIn(given, nil, person, iri(t, q, "ex:givenName"), name))
	full, err := q.WhereGroup("full", query.GroupDefault, union)
	require.NoError(t, err)
	require.NoError(t, q.WhereIn(full, nil, person, iri(t, q, "ex:fullName"), name))

	opt, err := q.WhereGroup("age", query.GroupOptional, query.RootGroup)
	require.NoError(t, err)
	require.NoError(t, q.WhereIn(opt, nil, person, iri(t, q, "ex:age"), age))
	require.NoError(t, q.Filter(opt, query.Binary{Op: ">", Left: query.T(age), Right: query.T(term.NewInteger(17))}))

	_, err = q.WhereGroup("unused", query.GroupOptional, query.RootGroup)
	require.NoError(t, err)

	require.NoError(t, q.Bind(query.Fn("UCASE", query.T(name)), upper))

	assertGolden(t, "union_optional_filter", Serialize(q))
}

func TestSerialize_Golden_MappingInsert(t *testing.T) {
	q := newQuery(t, query.KindInsert)
	require.NoError(t, q.SetTargetGraph(term.MustIRI(ex+"graph/people")))
	source := term.MustIRI(ex + "graph/source")
	row := term.Variable{Name: "row"}

	m := mapping.New(q, nil)
	node, err := m.Mint(source, row, "person", `iri(concat("http://example.org/person/", ex:id))`, false)
	require.NoError(t, err)
	require.NoError(t, m.Types(node, "foaf:Person"))
	require.NoError(t, m.Map(source, row, node, map[string]string{
		"foaf:name":    `concat(ex:first, " ", ex:last)`,
		"ex:age":       "ex:age",
		"ex:score":     "12,5",
		"rdfs:comment": `"imported"@en`,
	}, false))
	require.NoError(t, m.Map(source, row, node, map[string]string{"foaf:mbox": "ex:email"}, true))

	assertGolden(t, "mapping_insert", Serialize(q))
}

func TestSerialize_Golden_DeleteData(t *testing.T) {
	q := newQuery(t, query.KindDelete)
	require.NoError(t, q.SetTargetGraph(iri(t, q, "ex:g")))
	s := iri(t, q, "ex:s")
	require.NoError(t, q.Triple(s, iri(t, q, "ex:p"), term.NewString("a \"quoted\"\nline")))
	require.NoError(t, q.Triple(s, iri(t, q, "ex:n"), term.NewInteger(3)))
	require.NoError(t, q.Quad(iri(t, q, "ex:t"), iri(t, q, "ex:p"), iri(t, q, "ex:o"), iri(t, q, "ex:other")))

	assertGolden(t, "delete_data", Serialize(q))
}
