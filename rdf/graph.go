package rdf

import "sort"

// NamedGraph is a deduplicated, in-memory set of triples identified by an
// IRI. It is the transfer representation used between the store, the
// reasoner and the materializer; the store's persistence backends keep their
// own indexed representation internally.
type NamedGraph struct {
	IRI     string
	triples map[Triple]struct{}
}

// NewNamedGraph creates an empty named graph with the given IRI.
func NewNamedGraph(iri string) *NamedGraph {
	return &NamedGraph{IRI: iri, triples: make(map[Triple]struct{})}
}

// Add inserts a triple into the graph. Returns true if the triple was newly
// added, false if it was already present.
func (g *NamedGraph) Add(t Triple) bool {
	if _, ok := g.triples[t]; ok {
		return false
	}
	g.triples[t] = struct{}{}
	return true
}

// Remove deletes a triple from the graph. Returns true if it was present.
func (g *NamedGraph) Remove(t Triple) bool {
	if _, ok := g.triples[t]; !ok {
		return false
	}
	delete(g.triples, t)
	return true
}

// Contains reports whether the triple is textually present in the graph.
func (g *NamedGraph) Contains(t Triple) bool {
	_, ok := g.triples[t]
	return ok
}

// Len returns the number of triples in the graph.
func (g *NamedGraph) Len() int {
	return len(g.triples)
}

// Triples returns all triples in the graph in a deterministic (sorted) order.
func (g *NamedGraph) Triples() []Triple {
	out := make([]Triple, 0, len(g.triples))
	for t := range g.triples {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Subject != out[j].Subject {
			return out[i].Subject < out[j].Subject
		}
		if out[i].Predicate != out[j].Predicate {
			return out[i].Predicate < out[j].Predicate
		}
		return out[i].Object < out[j].Object
	})
	return out
}

// Match returns every triple matching the given pattern; an empty Term in
// any position acts as a wildcard.
func (g *NamedGraph) Match(subj, pred, obj Term) []Triple {
	var out []Triple
	for t := range g.triples {
		if subj != "" && t.Subject != subj {
			continue
		}
		if pred != "" && t.Predicate != pred {
			continue
		}
		if obj != "" && t.Object != obj {
			continue
		}
		out = append(out, t)
	}
	return out
}

// Clear removes every triple from the graph, leaving its IRI unchanged.
func (g *NamedGraph) Clear() {
	g.triples = make(map[Triple]struct{})
}
