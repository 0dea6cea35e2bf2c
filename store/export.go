package store

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/deiu/rdf2go"

	"github.com/kahefi/epcis-graph/rdf"
)

// ExportFormat is an ingress/egress RDF serialization.
type ExportFormat string

const (
	FormatTurtle   ExportFormat = "Turtle"
	FormatNTriples ExportFormat = "NTriples"
	FormatJSONLD   ExportFormat = "JsonLd"
)

// Export serializes every triple in graphIRI into the requested format.
func (s *Store) Export(graphIRI string, format ExportFormat) ([]byte, error) {
	quads, err := s.Match(graphIRI, "", "", "")
	if err != nil {
		return nil, err
	}
	triples := make([]rdf.Triple, len(quads))
	for i, q := range quads {
		triples[i] = q.Triple
	}
	switch format {
	case FormatTurtle:
		return exportTurtle(graphIRI, triples)
	case FormatNTriples:
		return exportNTriples(triples), nil
	case FormatJSONLD:
		return exportJSONLD(triples)
	}
	return nil, fmt.Errorf("store: unsupported export format %q", format)
}

// exportTurtle delegates to rdf2go's serializer the same way
// memory_store.go's ExportGraph did, by rebuilding a throwaway graph from
// the triple slice.
func exportTurtle(graphIRI string, triples []rdf.Triple) ([]byte, error) {
	g := rdf2go.NewGraph(graphIRI)
	for _, t := range triples {
		g.AddTriple(toRdf2go(t.Subject), toRdf2go(t.Predicate), toRdf2go(t.Object))
	}
	var buf bytes.Buffer
	if err := g.Serialize(&buf, "text/turtle"); err != nil {
		return nil, fmt.Errorf("store: serialize turtle: %w", err)
	}
	return buf.Bytes(), nil
}

// exportNTriples writes one line per triple; no library in the corpus
// offers an N-Triples writer, so this is a direct textual serialization of
// terms already kept in NTriple lexical form.
func exportNTriples(triples []rdf.Triple) []byte {
	var buf bytes.Buffer
	for _, t := range triples {
		fmt.Fprintf(&buf, "%s %s %s .\n", t.Subject, t.Predicate, t.Object)
	}
	return buf.Bytes()
}

type jsonldValue struct {
	ID       string
	Value    string
	Language string
	Type     string
}

// exportJSONLD groups triples by subject into flattened JSON-LD nodes. No
// JSON-LD library in the corpus exposes a safe encode-from-triples API
// (linkeddata/gojsonld appears only as the teacher's transitive,
// unexercised dependency with document-centric, not triple-centric,
// entry points), so this is a hand-rolled flattened-form encoder that
// writes the (small, fixed) JSON-LD shape directly.
func exportJSONLD(triples []rdf.Triple) ([]byte, error) {
	order := make([]string, 0)
	bySubject := make(map[string]map[string][]jsonldValue)
	for _, t := range triples {
		subj := t.Subject.Value()
		if _, ok := bySubject[subj]; !ok {
			bySubject[subj] = make(map[string][]jsonldValue)
			order = append(order, subj)
		}
		pred := t.Predicate.Value()
		var val jsonldValue
		switch {
		case t.Object.IsIRI():
			val = jsonldValue{ID: t.Object.Value()}
		case t.Object.IsBlankNode():
			val = jsonldValue{ID: "_:" + t.Object.Value()}
		default:
			val = jsonldValue{Value: t.Object.Value(), Language: t.Object.Language(), Type: t.Object.Datatype()}
		}
		bySubject[subj][pred] = append(bySubject[subj][pred], val)
	}

	var sb bytes.Buffer
	sb.WriteString("[\n")
	for i, subj := range order {
		id := subj
		if !isAbsoluteIRI(subj) {
			id = "_:" + subj
		}
		fmt.Fprintf(&sb, "  {\n    \"@id\": %q", id)
		preds := make([]string, 0, len(bySubject[subj]))
		for pred := range bySubject[subj] {
			preds = append(preds, pred)
		}
		sort.Strings(preds)
		for _, pred := range preds {
			vals := bySubject[subj][pred]
			fmt.Fprintf(&sb, ",\n    %q: [", pred)
			for j, v := range vals {
				if j > 0 {
					sb.WriteString(", ")
				}
				switch {
				case v.ID != "":
					fmt.Fprintf(&sb, "{\"@id\": %q}", v.ID)
				case v.Language != "":
					fmt.Fprintf(&sb, "{\"@value\": %q, \"@language\": %q}", v.Value, v.Language)
				case v.Type != "":
					fmt.Fprintf(&sb, "{\"@value\": %q, \"@type\": %q}", v.Value, v.Type)
				default:
					fmt.Fprintf(&sb, "{\"@value\": %q}", v.Value)
				}
			}
			sb.WriteString("]")
		}
		sb.WriteString("\n  }")
		if i < len(order)-1 {
			sb.WriteString(",")
		}
		sb.WriteString("\n")
	}
	sb.WriteString("]\n")
	return sb.Bytes(), nil
}

func isAbsoluteIRI(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] == ':' {
			return i > 0
		}
		if s[i] == '/' || s[i] == ' ' {
			return false
		}
	}
	return false
}
