package owl

import (
	"sync"

	"github.com/kahefi/epcis-graph/rdf"
)

// Ontology is the mutable container of converted OWL axioms plus the raw
// ABox triples that rule 7 of the conversion table keeps as-is. It is
// shared-ownership (§9 Shared ownership design note) and exposes
// interior-synchronized mutation and read methods, the same way
// store.Store does for named graphs.
type Ontology struct {
	mu sync.RWMutex

	Classes         map[string]*Class
	ObjectProps     map[string]*ObjectProperty
	DataProps       map[string]*DataProperty
	Individuals     map[string]*Individual
	DisjointUnions  []DisjointUnion
	ABox            []rdf.Triple // triples kept as-is by conversion rule 7

	warnings []string
}

// NewOntology creates an empty ontology.
func NewOntology() *Ontology {
	return &Ontology{
		Classes:     make(map[string]*Class),
		ObjectProps: make(map[string]*ObjectProperty),
		DataProps:   make(map[string]*DataProperty),
		Individuals: make(map[string]*Individual),
	}
}

func (o *Ontology) classOrNew(uri string) *Class {
	c, ok := o.Classes[uri]
	if !ok {
		c = &Class{URI: uri}
		o.Classes[uri] = c
	}
	return c
}

func (o *Ontology) objectPropOrNew(uri string) *ObjectProperty {
	p, ok := o.ObjectProps[uri]
	if !ok {
		p = &ObjectProperty{URI: uri}
		o.ObjectProps[uri] = p
	}
	return p
}

func (o *Ontology) dataPropOrNew(uri string) *DataProperty {
	p, ok := o.DataProps[uri]
	if !ok {
		p = &DataProperty{URI: uri}
		o.DataProps[uri] = p
	}
	return p
}

func (o *Ontology) individualOrNew(uri string) *Individual {
	i, ok := o.Individuals[uri]
	if !ok {
		i = &Individual{URI: uri}
		o.Individuals[uri] = i
	}
	return i
}

// IsObjectOrDataProperty reports whether uri names a declared property
// of either kind (object or data).
func (o *Ontology) IsObjectOrDataProperty(uri string) bool {
	_, isObj := o.ObjectProps[uri]
	_, isData := o.DataProps[uri]
	return isObj || isData
}

// IsMetaClass reports whether uri names one of the RDFS/OWL classes that
// rule 6 must not turn into a ClassAssertion target.
func IsMetaClass(uri string) bool {
	switch uri {
	case rdf.OWLClass, rdf.RDFSClass, rdf.OWLObjectProperty, rdf.OWLDatatypeProperty,
		rdf.OWLOntology, rdf.OWLNamedIndividual, rdf.OWLFunctionalProperty,
		rdf.OWLInverseFunctionalProperty, rdf.OWLTransitiveProperty, rdf.OWLSymmetricProperty,
		rdf.OWLAsymmetricProperty, rdf.OWLReflexiveProperty, rdf.OWLIrreflexiveProperty,
		rdf.RDFSDatatype:
		return true
	}
	return false
}

// Warnings returns a copy of the warnings recorded by every LoadAxioms call
// so far; reading them does not clear them.
func (o *Ontology) Warnings() []string {
	o.mu.RLock()
	defer o.mu.RUnlock()
	out := make([]string, len(o.warnings))
	copy(out, o.warnings)
	return out
}

// ClassURIs returns every named class URI, for classification/checking.
func (o *Ontology) ClassURIs() []string {
	o.mu.RLock()
	defer o.mu.RUnlock()
	out := make([]string, 0, len(o.Classes))
	for uri := range o.Classes {
		out = append(out, uri)
	}
	return out
}
