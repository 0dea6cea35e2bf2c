package owl

import "github.com/kahefi/epcis-graph/rdf"

// LoadAxioms converts an RDF graph into OWL axioms and merges them into o,
// applying the conversion table in the documented order (first match wins
// per triple). Triples driving no specific rule are kept as-is in the ABox.
// Malformed triples are skipped with a recorded warning rather than
// aborting the whole conversion, mirroring the reasoner's failure semantics
// for a single bad axiom.
func (o *Ontology) LoadAxioms(triples []rdf.Triple) {
	o.mu.Lock()
	defer o.mu.Unlock()

	// rdf:List-valued axioms (propertyChainAxiom, disjointUnionOf) need
	// their list spine resolved against the whole batch, so collect list
	// triples up front before doing the single-triple rule dispatch. This
	// is not one of the spec's seven conversion rules; it supplements them
	// so R7 (property chains) has axioms to act on.
	listHeads := make(map[string][]rdf.Triple)
	for _, t := range triples {
		if t.Predicate.Value() == rdf.OWLPropertyChainAxiom || t.Predicate.Value() == rdf.OWLDisjointUnionOf {
			listHeads[t.Object.Value()] = nil
		}
	}
	byFirst := make(map[string]rdf.Term)
	byRest := make(map[string]rdf.Term)
	for _, t := range triples {
		switch t.Predicate.Value() {
		case rdf.RDFFirst:
			byFirst[t.Subject.Value()] = t.Object
		case rdf.RDFRest:
			byRest[t.Subject.Value()] = t.Object
		}
	}
	resolveList := func(head rdf.Term) []string {
		var out []string
		cur := head
		for cur != "" && cur.Value() != rdf.RDFNil {
			v, ok := byFirst[cur.Value()]
			if !ok {
				break
			}
			out = append(out, v.Value())
			cur, ok = byRest[cur.Value()]
			if !ok {
				break
			}
		}
		return out
	}

	for _, t := range triples {
		subj, pred, obj := t.Subject.Value(), t.Predicate.Value(), t.Object.Value()

		// Schema predicates need a class or property as object; a literal
		// there makes the triple malformed, so it is skipped with a warning.
		switch pred {
		case rdf.RDFType, rdf.RDFSSubClassOf, rdf.RDFSDomain, rdf.RDFSRange, rdf.RDFSSubPropertyOf,
			rdf.OWLEquivalentClass, rdf.OWLDisjointWith, rdf.OWLInverseOf:
			if t.Object.IsLiteral() {
				o.warnings = append(o.warnings, "skipped malformed triple "+t.String()+": object of "+pred+" is a literal")
				continue
			}
		}

		switch {
		// Rule 1: (c, rdf:type, rdfs:Class|owl:Class) -> declare Class(c).
		case pred == rdf.RDFType && (obj == rdf.RDFSClass || obj == rdf.OWLClass):
			o.classOrNew(subj)

		// Rule 2: (p, rdf:type, owl:ObjectProperty|owl:DatatypeProperty) -> declare property, default domain owl:Thing.
		case pred == rdf.RDFType && obj == rdf.OWLObjectProperty:
			p := o.objectPropOrNew(subj)
			if len(p.Domains) == 0 {
				p.Domains = []string{rdf.OWLThing}
			}
		case pred == rdf.RDFType && obj == rdf.OWLDatatypeProperty:
			p := o.dataPropOrNew(subj)
			if len(p.Domains) == 0 {
				p.Domains = []string{rdf.OWLThing}
			}

		// Logical property-kind declarations fold into the same ObjectProperty record.
		case pred == rdf.RDFType && obj == rdf.OWLFunctionalProperty:
			o.markFunctional(subj)
		case pred == rdf.RDFType && obj == rdf.OWLInverseFunctionalProperty:
			o.objectPropOrNew(subj).IsInverseFunctional = true
		case pred == rdf.RDFType && obj == rdf.OWLTransitiveProperty:
			o.objectPropOrNew(subj).IsTransitive = true
		case pred == rdf.RDFType && obj == rdf.OWLSymmetricProperty:
			o.objectPropOrNew(subj).IsSymmetric = true
		case pred == rdf.RDFType && obj == rdf.OWLAsymmetricProperty:
			o.objectPropOrNew(subj).IsAsymmetric = true
		case pred == rdf.RDFType && obj == rdf.OWLReflexiveProperty:
			o.objectPropOrNew(subj).IsReflexive = true
		case pred == rdf.RDFType && obj == rdf.OWLIrreflexiveProperty:
			o.objectPropOrNew(subj).IsIrreflexive = true

		// Rule 3: (a, rdfs:subClassOf, b) -> SubClassOf(Class(a), Class(b)).
		case pred == rdf.RDFSSubClassOf:
			o.classOrNew(subj).SubClassOf = append(o.classOrNew(subj).SubClassOf, obj)
			o.classOrNew(obj)

		// Rule 4: (p, rdfs:domain, c) -> PropertyDomain(p, Class(c)).
		case pred == rdf.RDFSDomain:
			o.addDomain(subj, obj)

		// Rule 5: (p, rdfs:range, c) -> PropertyRange(p, Class(c)).
		case pred == rdf.RDFSRange:
			o.addRange(subj, obj)

		case pred == rdf.OWLEquivalentClass:
			o.classOrNew(subj).EquivalentTo = append(o.classOrNew(subj).EquivalentTo, obj)
		case pred == rdf.OWLDisjointWith:
			o.classOrNew(subj).DisjointWith = append(o.classOrNew(subj).DisjointWith, obj)
		case pred == rdf.RDFSSubPropertyOf:
			o.addSubProperty(subj, obj)
		case pred == rdf.OWLInverseOf:
			o.objectPropOrNew(subj).InverseOf = append(o.objectPropOrNew(subj).InverseOf, obj)
		case pred == rdf.OWLDisjointUnionOf:
			members := resolveList(t.Object)
			o.DisjointUnions = append(o.DisjointUnions, DisjointUnion{Class: subj, Members: members})
		case pred == rdf.OWLPropertyChainAxiom:
			// subj is the chain head list's subject property via the
			// owning triple (p, owl:propertyChainAxiom, _:list); the
			// entailed property p is the chain's subject here.
			chain := resolveList(t.Object)
			if len(chain) > 0 {
				p := o.objectPropOrNew(subj)
				p.PropertyChain = append(p.PropertyChain, chain)
			}

		// Rule 6: (i, rdf:type, c) where c is not a meta-class -> ClassAssertion(Class(c), Individual(i)).
		case pred == rdf.RDFType && !IsMetaClass(obj):
			ind := o.individualOrNew(subj)
			ind.Types = append(ind.Types, obj)
			o.classOrNew(obj)

		// Rule 7: anything else is kept as-is in the ABox.
		default:
			o.ABox = append(o.ABox, t)
		}
	}
}

func (o *Ontology) markFunctional(uri string) {
	if _, ok := o.DataProps[uri]; ok {
		o.DataProps[uri].IsFunctional = true
		return
	}
	o.objectPropOrNew(uri).IsFunctional = true
}

func (o *Ontology) addDomain(propURI, classURI string) {
	if p, ok := o.DataProps[propURI]; ok {
		p.Domains = append(p.Domains, classURI)
	} else {
		o.objectPropOrNew(propURI).Domains = append(o.objectPropOrNew(propURI).Domains, classURI)
	}
	o.classOrNew(classURI)
}

func (o *Ontology) addRange(propURI, rangeURI string) {
	if p, ok := o.DataProps[propURI]; ok {
		p.Ranges = append(p.Ranges, rangeURI)
		return
	}
	o.objectPropOrNew(propURI).Ranges = append(o.objectPropOrNew(propURI).Ranges, rangeURI)
}

func (o *Ontology) addSubProperty(subURI, superURI string) {
	if p, ok := o.DataProps[subURI]; ok {
		p.SubPropertyOf = append(p.SubPropertyOf, superURI)
		return
	}
	o.objectPropOrNew(subURI).SubPropertyOf = append(o.objectPropOrNew(subURI).SubPropertyOf, superURI)
}
