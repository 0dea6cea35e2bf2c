package materialize

import (
	"github.com/kahefi/epcis-graph/owl"
	"github.com/kahefi/epcis-graph/rdf"
)

// tripleIndex is a read-only, by-subject/by-predicate lookup over
// one ABox snapshot, rebuilt once per materialization iteration so rule
// joins never rescan the full triple list (§5 "reads from the pre-cycle
// snapshot").
type tripleIndex struct {
	all     []rdf.Triple
	byPred  map[rdf.Term][]rdf.Triple
	bySubj  map[rdf.Term][]rdf.Triple
}

func newTripleIndex(triples []rdf.Triple) *tripleIndex {
	idx := &tripleIndex{
		all:    triples,
		byPred: make(map[rdf.Term][]rdf.Triple),
		bySubj: make(map[rdf.Term][]rdf.Triple),
	}
	for _, t := range triples {
		idx.byPred[t.Predicate] = append(idx.byPred[t.Predicate], t)
		idx.bySubj[t.Subject] = append(idx.bySubj[t.Subject], t)
	}
	return idx
}

// ruleFunc derives entailed triples from the current ABox snapshot and the
// loaded ontology's schema axioms. Each rule is pure: it never mutates idx
// or ont, only reads them, so batches can run concurrently against the
// same snapshot (§5 Parallel materialization).
type ruleFunc func(idx *tripleIndex, ont *owl.Ontology, hierarchy *owl.ClassHierarchy) []rdf.Triple

// ruleR1SubclassTransitivity materializes the transitive rdfs:subClassOf
// closure already computed by owl.ClassHierarchy as explicit triples.
func ruleR1SubclassTransitivity(idx *tripleIndex, ont *owl.Ontology, h *owl.ClassHierarchy) []rdf.Triple {
	var out []rdf.Triple
	for sub, supers := range h.Subsumptions {
		for sup := range supers {
			if sub == sup || sup == owl.OWLThingURI {
				continue
			}
			out = append(out, mustTriple(rdf.NewIRITerm(sub), rdf.NewIRITerm(rdf.RDFSSubClassOf), rdf.NewIRITerm(sup)))
		}
	}
	return out
}

// ruleR2TypePropagation: (x, type, a) ∧ (a, sc, b) ⇒ (x, type, b).
func ruleR2TypePropagation(idx *tripleIndex, ont *owl.Ontology, h *owl.ClassHierarchy) []rdf.Triple {
	var out []rdf.Triple
	for _, t := range idx.byPred[rdf.NewIRITerm(rdf.RDFType)] {
		class := t.Object.Value()
		supers, ok := h.Subsumptions[class]
		if !ok {
			continue
		}
		for sup := range supers {
			if sup == class || sup == owl.OWLThingURI {
				continue
			}
			out = append(out, mustTriple(t.Subject, rdf.NewIRITerm(rdf.RDFType), rdf.NewIRITerm(sup)))
		}
	}
	return out
}

// subPropertyClosure computes the transitive rdfs:subPropertyOf closure
// over both object and data properties (R3).
func subPropertyClosure(ont *owl.Ontology) map[string]map[string]bool {
	closure := make(map[string]map[string]bool)
	add := func(uri string, supers []string) {
		if closure[uri] == nil {
			closure[uri] = map[string]bool{uri: true}
		}
		for _, s := range supers {
			closure[uri][s] = true
		}
	}
	for uri, p := range ont.ObjectProps {
		add(uri, p.SubPropertyOf)
	}
	for uri, p := range ont.DataProps {
		add(uri, p.SubPropertyOf)
	}
	for {
		changed := false
		for uri, supers := range closure {
			var additions []string
			for s := range supers {
				if s == uri {
					continue
				}
				if supOfSup, ok := closure[s]; ok {
					for ss := range supOfSup {
						if !supers[ss] {
							additions = append(additions, ss)
						}
					}
				}
			}
			for _, a := range additions {
				supers[a] = true
				changed = true
			}
		}
		if !changed {
			break
		}
	}
	return closure
}

// ruleR3SubpropertyTransitivity materializes the transitive subPropertyOf
// closure as explicit triples.
func ruleR3SubpropertyTransitivity(idx *tripleIndex, ont *owl.Ontology, h *owl.ClassHierarchy) []rdf.Triple {
	var out []rdf.Triple
	for sub, supers := range subPropertyClosure(ont) {
		for sup := range supers {
			if sub == sup {
				continue
			}
			out = append(out, mustTriple(rdf.NewIRITerm(sub), rdf.NewIRITerm(rdf.RDFSSubPropertyOf), rdf.NewIRITerm(sup)))
		}
	}
	return out
}

// ruleR4PropertyRewriting: (x, p, y) ∧ (p, sp, q) ⇒ (x, q, y).
func ruleR4PropertyRewriting(idx *tripleIndex, ont *owl.Ontology, h *owl.ClassHierarchy) []rdf.Triple {
	closure := subPropertyClosure(ont)
	var out []rdf.Triple
	for _, t := range idx.all {
		supers, ok := closure[t.Predicate.Value()]
		if !ok {
			continue
		}
		for sup := range supers {
			if sup == t.Predicate.Value() {
				continue
			}
			out = append(out, mustTriple(t.Subject, rdf.NewIRITerm(sup), t.Object))
		}
	}
	return out
}

// ruleR5Domain: (x, p, y) ∧ (p, dom, c) ⇒ (x, type, c).
func ruleR5Domain(idx *tripleIndex, ont *owl.Ontology, h *owl.ClassHierarchy) []rdf.Triple {
	var out []rdf.Triple
	domains := make(map[string][]string)
	for uri, p := range ont.ObjectProps {
		domains[uri] = p.Domains
	}
	for uri, p := range ont.DataProps {
		domains[uri] = p.Domains
	}
	for _, t := range idx.all {
		doms, ok := domains[t.Predicate.Value()]
		if !ok {
			continue
		}
		for _, c := range doms {
			if c == owl.OWLThingURI {
				continue // every resource trivially satisfies owl:Thing; skip the noise triple
			}
			out = append(out, mustTriple(t.Subject, rdf.NewIRITerm(rdf.RDFType), rdf.NewIRITerm(c)))
		}
	}
	return out
}

// ruleR6Range: (x, p, y) ∧ (p, rng, c) ⇒ (y, type, c), only when y is an IRI.
func ruleR6Range(idx *tripleIndex, ont *owl.Ontology, h *owl.ClassHierarchy) []rdf.Triple {
	var out []rdf.Triple
	for uri, p := range ont.ObjectProps {
		if len(p.Ranges) == 0 {
			continue
		}
		for _, t := range idx.byPred[rdf.NewIRITerm(uri)] {
			if !t.Object.IsIRI() {
				continue
			}
			for _, c := range p.Ranges {
				out = append(out, mustTriple(t.Object, rdf.NewIRITerm(rdf.RDFType), rdf.NewIRITerm(c)))
			}
		}
	}
	return out
}

// ruleR7PropertyChain walks every declared chain p1...pn ⊑ p and emits a
// p-edge for every connected path found in the current ABox.
func ruleR7PropertyChain(idx *tripleIndex, ont *owl.Ontology, h *owl.ClassHierarchy) []rdf.Triple {
	var out []rdf.Triple
	for uri, p := range ont.ObjectProps {
		for _, chain := range p.PropertyChain {
			if len(chain) == 0 {
				continue
			}
			starts := make(map[rdf.Term]map[rdf.Term]bool) // current node -> every start node whose path reaches it
			first := true
			for _, step := range chain {
				next := make(map[rdf.Term]map[rdf.Term]bool)
				add := func(node, start rdf.Term) {
					if next[node] == nil {
						next[node] = make(map[rdf.Term]bool)
					}
					next[node][start] = true
				}
				stepPred := rdf.NewIRITerm(step)
				if first {
					for _, t := range idx.byPred[stepPred] {
						add(t.Object, t.Subject)
					}
					first = false
				} else {
					for node, nodeStarts := range starts {
						for _, t := range idx.bySubj[node] {
							if t.Predicate != stepPred {
								continue
							}
							for start := range nodeStarts {
								add(t.Object, start)
							}
						}
					}
				}
				starts = next
			}
			for end, endStarts := range starts {
				for start := range endStarts {
					out = append(out, mustTriple(start, rdf.NewIRITerm(uri), end))
				}
			}
		}
	}
	return out
}

// ruleR8Inverse: (x, p, y) ∧ InverseOf(p, q) ⇒ (y, q, x).
func ruleR8Inverse(idx *tripleIndex, ont *owl.Ontology, h *owl.ClassHierarchy) []rdf.Triple {
	inverse := make(map[string][]string)
	for uri, p := range ont.ObjectProps {
		for _, inv := range p.InverseOf {
			inverse[uri] = append(inverse[uri], inv)
			inverse[inv] = append(inverse[inv], uri) // owl:inverseOf is symmetric by definition
		}
	}
	var out []rdf.Triple
	for propURI, invs := range inverse {
		for _, t := range idx.byPred[rdf.NewIRITerm(propURI)] {
			for _, inv := range invs {
				out = append(out, mustTriple(t.Object, rdf.NewIRITerm(inv), t.Subject))
			}
		}
	}
	return out
}

// AllRules lists the forward rule set in the order named by the spec.
func AllRules() []ruleFunc {
	return []ruleFunc{
		ruleR1SubclassTransitivity,
		ruleR2TypePropagation,
		ruleR3SubpropertyTransitivity,
		ruleR4PropertyRewriting,
		ruleR5Domain,
		ruleR6Range,
		ruleR7PropertyChain,
		ruleR8Inverse,
	}
}

func mustTriple(s, p, o rdf.Term) rdf.Triple {
	t, err := rdf.NewTriple(s, p, o)
	if err != nil {
		// Every caller above constructs s/p/o from well-formed terms already
		// present in the ABox or ontology, so this indicates an invariant
		// breach rather than bad input.
		return rdf.Triple{}
	}
	return t
}
