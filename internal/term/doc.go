// Package term provides the RDF term model used by the query builder.
//
// This package contains value types only. All other internal packages
// import term; term imports nothing internal.
//
// Term is a sealed interface. Only IRI, Literal, BlankNode and Variable
// implement it, so a type switch over a Term in the serializer is
// exhaustive:
//
//	switch t := tm.(type) {
//	case term.IRI:
//	case term.Literal:
//	case term.BlankNode:
//	case term.Variable:
//	}
//
// All variants are comparable value types. Two terms are equal exactly
// when they are == to each other, which makes Equal structural.
//
// Ordering (Compare, Key) is a raw byte-wise comparison of the N-Triples
// style rendering. It is not locale or Unicode-normalization aware.
package term
