package rdf

import "fmt"

// Triple represents a subject-predicate-object statement. Invariant: the
// predicate is always an IRI, never a blank node or literal.
type Triple struct {
	Subject   Term
	Predicate Term
	Object    Term
}

// NewTriple creates a new triple from the given terms, validating the RDF
// shape invariants. Use the Triple struct literal directly when the terms
// are already known to be valid.
func NewTriple(subj, pred, obj Term) (Triple, error) {
	if !subj.IsResource() {
		return Triple{}, fmt.Errorf("rdf: subject %q is not an IRI or blank node", subj)
	}
	if !pred.IsIRI() {
		return Triple{}, fmt.Errorf("rdf: predicate %q is not an IRI", pred)
	}
	if !obj.IsResource() && !obj.IsLiteral() {
		return Triple{}, fmt.Errorf("rdf: object %q is not a resource or literal", obj)
	}
	return Triple{Subject: subj, Predicate: pred, Object: obj}, nil
}

// String renders the triple in NTriple syntax (without trailing period).
func (t Triple) String() string {
	return fmt.Sprintf("%s %s %s", t.Subject, t.Predicate, t.Object)
}

// Quad is a Triple in the context of a named graph.
type Quad struct {
	Triple
	Graph Term
}

// DefaultGraphIRI is the IRI of the default graph, used when a quad is not
// associated with any named graph.
const DefaultGraphIRI = "urn:epcis:default"

// String renders the quad in NQuad syntax (without trailing period).
func (q Quad) String() string {
	return fmt.Sprintf("%s %s", q.Triple.String(), q.Graph)
}
