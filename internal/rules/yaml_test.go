package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseYAML(t *testing.T) {
	data := []byte(`
mapping:
  zeta:
    kind: delete
    types: ["ex:Obsolete"]
  alpha:
    kind: construct
    source: item
    values:
      rdfs:label: ex:name
    node:
      hint: thing
      expr: iri(ex:id)
---
mapping:
  beta:
    kind: insert
    values:
      ex:p: '"x"@en'
`)

	specs, err := ParseYAML(data)
	require.NoError(t, err)
	require.Len(t, specs, 3)

	assert.Equal(t, "alpha", specs[0].Name, "sorted within a document")
	assert.Equal(t, "zeta", specs[1].Name)
	assert.Equal(t, "beta", specs[2].Name, "documents in file order")

	assert.Equal(t, "item", specs[0].SourceName())
	assert.Equal(t, &NodeSpec{Hint: "thing", Expr: "iri(ex:id)"}, specs[0].Node)
	assert.Equal(t, `"x"@en`, specs[2].Values["ex:p"])
	assert.False(t, specs[0].Pos.IsValid())
}

func TestParseYAMLUnknownField(t *testing.T) {
	_, err := ParseYAML([]byte(`
mapping:
  typo:
    kind: construct
    valeus:
      ex:p: ex:q
`))
	require.Error(t, err)

	var compileErr *CompileError
	require.ErrorAs(t, err, &compileErr)
	assert.Equal(t, "yaml", compileErr.Field)
	assert.Contains(t, err.Error(), "valeus")
}

func TestParseYAMLEmptyBody(t *testing.T) {
	_, err := ParseYAML([]byte("mapping:\n  nothing:\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nothing.mapping: mapping body is empty")
}

func TestParseYAMLMissingKind(t *testing.T) {
	_, err := ParseYAML([]byte("mapping:\n  m:\n    types: [\"ex:T\"]\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "m.kind: kind is required")
}

func TestMarshalYAMLRoundTrip(t *testing.T) {
	specs := []*Spec{{
		Name:     "people",
		Kind:     "construct",
		Prefixes: map[string]string{"ex": "http://example.org/"},
		Values:   map[string]string{"foaf:name": `concat(ex:first, " ", ex:last)`},
	}}

	data, err := MarshalYAML(specs)
	require.NoError(t, err)

	back, err := ParseYAML(data)
	require.NoError(t, err)
	require.Len(t, back, 1)
	assert.Equal(t, specs[0], back[0])

	_, err = MarshalYAML([]*Spec{specs[0], specs[0]})
	assert.Error(t, err)
}
