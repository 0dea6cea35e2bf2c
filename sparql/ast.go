// Package sparql implements a pragmatic subset of SPARQL 1.1 query
// evaluation (SELECT, ASK, CONSTRUCT, DESCRIBE) sufficient for the store's
// query surface: basic graph patterns, optional GRAPH blocks, a small FILTER
// expression grammar, DISTINCT, ORDER BY, LIMIT and OFFSET. No example in the
// corpus ships a SPARQL query engine (rdf2go only supports pattern lookups),
// so this is a hand-written evaluator over the RDF term model in package rdf.
package sparql

import "github.com/kahefi/epcis-graph/rdf"

// Form identifies the query type.
type Form int

const (
	FormSelect Form = iota
	FormAsk
	FormConstruct
	FormDescribe
)

// PatternTerm is one slot of a triple pattern: either a bound rdf.Term or a
// variable (Var != "").
type PatternTerm struct {
	Var   string
	Bound rdf.Term
}

// IsVar reports whether the slot is a variable.
func (p PatternTerm) IsVar() bool {
	return p.Var != ""
}

// TriplePattern is a triple template with variables.
type TriplePattern struct {
	Subject   PatternTerm
	Predicate PatternTerm
	Object    PatternTerm
}

// FilterOp enumerates the comparison operators supported by FILTER.
type FilterOp string

const (
	OpEqual    FilterOp = "="
	OpNotEqual FilterOp = "!="
	OpLess     FilterOp = "<"
	OpGreater  FilterOp = ">"
	OpLessEq   FilterOp = "<="
	OpGreaterEq FilterOp = ">="
	OpBound    FilterOp = "bound"
	OpRegex    FilterOp = "regex"
)

// Filter is a single FILTER(...) constraint over a bound variable.
type Filter struct {
	Var   string
	Op    FilterOp
	Value rdf.Term // comparison literal/IRI, or regex pattern as a plain string literal
}

// GroupPattern is a basic graph pattern: a conjunction of triple patterns,
// optionally scoped to one named graph, plus FILTER constraints and a set of
// OPTIONAL sub-patterns (left outer join).
type GroupPattern struct {
	GraphVar     string // variable bound to the matched graph IRI, if GRAPH ?g was used
	GraphIRI     string // fixed graph IRI, if GRAPH <iri> was used
	Patterns     []TriplePattern
	Filters      []Filter
	Optionals    []GroupPattern
}

// OrderTerm is one ORDER BY key.
type OrderTerm struct {
	Var  string
	Desc bool
}

// Query is a parsed SPARQL query.
type Query struct {
	Form        Form
	Prefixes    map[string]string
	Vars        []string // projected variables for SELECT; nil/empty means "*"
	Distinct    bool
	Construct   []TriplePattern
	Where       GroupPattern
	OrderBy     []OrderTerm
	Limit       int // 0 means unset
	Offset      int
}
