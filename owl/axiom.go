// Package owl models an OWL 2 ontology converted from RDF triples and
// performs RL-fragment classification, realization, consistency checking
// and profile conformance checking. The axiom shapes below generalize the
// kahefi-ontograph OntologyClass/OntologyObjectProperty/OntologyDataProperty/
// OntologyIndividual structs (URI plus explicit relation slices) from
// human-authored ontology construction to axioms derived by RDF conversion.
package owl

// Class is a named OWL class.
type Class struct {
	URI          string
	EquivalentTo []string
	SubClassOf   []string
	DisjointWith []string
}

// ObjectProperty is a named OWL object property.
type ObjectProperty struct {
	URI                 string
	EquivalentTo        []string
	SubPropertyOf       []string
	InverseOf           []string
	Domains             []string
	Ranges              []string
	DisjointWith        []string
	PropertyChain       [][]string // each entry is an ordered chain p1...pn entailing URI
	IsFunctional        bool
	IsInverseFunctional bool
	IsTransitive        bool
	IsSymmetric         bool
	IsAsymmetric        bool
	IsReflexive         bool
	IsIrreflexive       bool
}

// DataProperty is a named OWL datatype property.
type DataProperty struct {
	URI           string
	EquivalentTo  []string
	SubPropertyOf []string
	Domains       []string
	Ranges        []string
	DisjointWith  []string
	IsFunctional  bool
}

// Individual is a named individual and the axioms asserted directly about it.
type Individual struct {
	URI              string
	Types            []string
	SameIndividualAs []string
	DifferentFrom    []string
}

// ClassExpressionKind distinguishes the OWL 2 constructs a profile checker
// inspects when it decides whether an axiom falls within a profile's grammar.
type ClassExpressionKind string

const (
	ExprNamedClass            ClassExpressionKind = "NamedClass"
	ExprSomeValuesFrom        ClassExpressionKind = "ObjectSomeValuesFrom"
	ExprIntersectionOf        ClassExpressionKind = "ObjectIntersectionOf"
	ExprDisjointUnionOf       ClassExpressionKind = "DisjointUnionOf"
)

// DisjointUnion records a DisjointUnionOf(c, members...) axiom, which the EL
// and QL profiles both reject.
type DisjointUnion struct {
	Class   string
	Members []string
}
