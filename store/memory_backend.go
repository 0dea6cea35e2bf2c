package store

import (
	"sync"

	"github.com/deiu/rdf2go"
	"github.com/kahefi/epcis-graph/rdf"
)

// memoryBackend keeps one rdf2go.Graph per named graph IRI. It backs
// Store.OpenMemory and is also what a ":memory:" path resolves to.
type memoryBackend struct {
	mu     sync.Mutex
	graphs map[string]*rdf2go.Graph
}

func newMemoryBackend() *memoryBackend {
	return &memoryBackend{graphs: make(map[string]*rdf2go.Graph)}
}

func (b *memoryBackend) graphFor(iri string) *rdf2go.Graph {
	g, ok := b.graphs[iri]
	if !ok {
		g = rdf2go.NewGraph(iri)
		b.graphs[iri] = g
	}
	return g
}

func toRdf2go(t rdf.Term) rdf2go.Term {
	if t == "" {
		return nil
	}
	switch {
	case t.IsIRI():
		return rdf2go.NewResource(t.Value())
	case t.IsBlankNode():
		return rdf2go.NewBlankNode(t.Value())
	case t.IsLiteral():
		if t.Language() != "" {
			return rdf2go.NewLiteralWithLanguage(t.Value(), t.Language())
		}
		if dt := t.Datatype(); dt != "" {
			return rdf2go.NewLiteralWithDatatype(t.Value(), rdf2go.NewResource(dt))
		}
		return rdf2go.NewLiteral(t.Value())
	}
	return nil
}

func fromRdf2go(t rdf2go.Term) rdf.Term {
	switch v := t.(type) {
	case *rdf2go.Resource:
		return rdf.NewIRITerm(v.URI)
	case *rdf2go.BlankNode:
		return rdf.NewBlankNodeTerm(v.ID)
	case *rdf2go.Literal:
		if v.Language != "" {
			return rdf.NewLiteralTerm(v.Value, v.Language, "")
		}
		if v.Datatype != nil {
			return rdf.NewLiteralTerm(v.Value, "", v.Datatype.String())
		}
		return rdf.NewLiteralTerm(v.Value, "", "")
	}
	return ""
}

func (b *memoryBackend) matches(graphIRI string, subj, pred, obj rdf.Term) ([]rdf.Quad, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	var out []rdf.Quad
	s, p, o := toRdf2go(subj), toRdf2go(pred), toRdf2go(obj)
	visit := func(iri string, g *rdf2go.Graph) {
		for _, trp := range g.All(s, p, o) {
			out = append(out, rdf.Quad{
				Triple: rdf.Triple{
					Subject:   fromRdf2go(trp.Subject),
					Predicate: fromRdf2go(trp.Predicate),
					Object:    fromRdf2go(trp.Object),
				},
				Graph: rdf.NewIRITerm(iri),
			})
		}
	}
	if graphIRI != "" {
		visit(graphIRI, b.graphFor(graphIRI))
		return out, nil
	}
	for iri, g := range b.graphs {
		visit(iri, g)
	}
	return out, nil
}

func (b *memoryBackend) addTriples(graphIRI string, triples []rdf.Triple) (added, already []rdf.Triple, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	g := b.graphFor(graphIRI)
	for _, t := range triples {
		s, p, o := toRdf2go(t.Subject), toRdf2go(t.Predicate), toRdf2go(t.Object)
		if g.One(s, p, o) != nil {
			already = append(already, t)
			continue
		}
		g.AddTriple(s, p, o)
		added = append(added, t)
	}
	return added, already, nil
}

func (b *memoryBackend) removeTriples(graphIRI string, triples []rdf.Triple) (removed, notPresent []rdf.Triple, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	g := b.graphFor(graphIRI)
	for _, t := range triples {
		s, p, o := toRdf2go(t.Subject), toRdf2go(t.Predicate), toRdf2go(t.Object)
		found := g.One(s, p, o)
		if found == nil {
			notPresent = append(notPresent, t)
			continue
		}
		g.Remove(found)
		removed = append(removed, t)
	}
	return removed, notPresent, nil
}

func (b *memoryBackend) clearGraph(graphIRI string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.graphs[graphIRI] = rdf2go.NewGraph(graphIRI)
	return nil
}

func (b *memoryBackend) graphs_() []string {
	out := make([]string, 0, len(b.graphs))
	for iri := range b.graphs {
		out = append(out, iri)
	}
	return out
}

func (b *memoryBackend) graphs() ([]string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.graphs_(), nil
}

func (b *memoryBackend) graphSize(graphIRI string) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	g, ok := b.graphs[graphIRI]
	if !ok {
		return 0, nil
	}
	return g.Len(), nil
}

func (b *memoryBackend) allTriples() ([]rdf.Quad, error) {
	return b.matches("", "", "", "")
}

func (b *memoryBackend) close() error {
	return nil
}

func (b *memoryBackend) path() string {
	return ":memory:"
}
