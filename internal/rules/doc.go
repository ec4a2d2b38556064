// Package rules loads mapping specs and compiles them into queries.
//
// A mapping spec describes one query declaratively: its kind, graphs,
// prefixes, the node to mint for each source row, rdf:type assertions, and
// predicate → value-expression dictionaries. Specs are written in CUE or
// YAML under a top-level "mapping" struct keyed by name:
//
//	mapping: people: {
//		kind:         "insert"
//		target_graph: "ex:graph/people"
//		source_type:  "ex:Row"
//		prefixes: ex: "http://example.org/"
//		node: {
//			hint: "person"
//			expr: "iri(concat(\"http://example.org/person/\", ex:id))"
//		}
//		types: ["foaf:Person"]
//		values: "foaf:name": "concat(ex:first, \" \", ex:last)"
//		optional: "foaf:mbox": "ex:email"
//	}
//
// CUE errors carry source positions through CompileError.
package rules
