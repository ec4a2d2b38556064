package prefix

// Entry is a single prefix ↔ namespace pair.
type Entry struct {
	Prefix    string `json:"prefix" yaml:"prefix"`
	Namespace string `json:"namespace" yaml:"namespace"`
}

// Well-known namespaces.
const (
	RDF     = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"
	RDFS    = "http://www.w3.org/2000/01/rdf-schema#"
	OWL     = "http://www.w3.org/2002/07/owl#"
	XSD     = "http://www.w3.org/2001/XMLSchema#"
	DC      = "http://purl.org/dc/elements/1.1/"
	DCTerms = "http://purl.org/dc/terms/"
	FOAF    = "http://xmlns.com/foaf/0.1/"
	SKOS    = "http://www.w3.org/2004/02/skos/core#"
	PROV    = "http://www.w3.org/ns/prov#"
	Schema  = "http://schema.org/"
	Geo     = "http://www.w3.org/2003/01/geo/wgs84_pos#"
	VoID    = "http://rdfs.org/ns/void#"
)

// RDFType is the full IRI of rdf:type.
const RDFType = RDF + "type"

// wellKnown is the process-wide default table. It is read-only after
// package initialization and shared by every Registry.
var wellKnown = []Entry{
	{Prefix: "rdf", Namespace: RDF},
	{Prefix: "rdfs", Namespace: RDFS},
	{Prefix: "owl", Namespace: OWL},
	{Prefix: "xsd", Namespace: XSD},
	{Prefix: "dc", Namespace: DC},
	{Prefix: "dcterms", Namespace: DCTerms},
	{Prefix: "foaf", Namespace: FOAF},
	{Prefix: "skos", Namespace: SKOS},
	{Prefix: "prov", Namespace: PROV},
	{Prefix: "schema", Namespace: Schema},
	{Prefix: "geo", Namespace: Geo},
	{Prefix: "void", Namespace: VoID},
}

var (
	wellKnownByPrefix    = indexWellKnown(func(e Entry) (string, string) { return e.Prefix, e.Namespace })
	wellKnownByNamespace = indexWellKnown(func(e Entry) (string, string) { return e.Namespace, e.Prefix })
	wellKnownRank        = rankWellKnown()
)

func indexWellKnown(kv func(Entry) (string, string)) map[string]string {
	m := make(map[string]string, len(wellKnown))
	for _, e := range wellKnown {
		k, v := kv(e)
		m[k] = v
	}
	return m
}

func rankWellKnown() map[Entry]int {
	m := make(map[Entry]int, len(wellKnown))
	for i, e := range wellKnown {
		m[e] = i
	}
	return m
}

// WellKnown returns a copy of the default table in its canonical order.
func WellKnown() []Entry {
	out := make([]Entry, len(wellKnown))
	copy(out, wellKnown)
	return out
}

// WellKnownNamespace returns the default namespace for prefix, if any.
func WellKnownNamespace(prefix string) (string, bool) {
	ns, ok := wellKnownByPrefix[prefix]
	return ns, ok
}
