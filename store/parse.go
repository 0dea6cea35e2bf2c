package store

import (
	"bufio"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/deiu/rdf2go"

	"github.com/kahefi/epcis-graph/errs"
	"github.com/kahefi/epcis-graph/rdf"
)

// IngressFormat is a recognized input RDF serialization.
type IngressFormat string

const (
	FormatTurtleIn IngressFormat = "Turtle"
	FormatNTriplesIn IngressFormat = "NTriples"
	FormatRDFXML   IngressFormat = "RdfXml"
	FormatJSONLDIn IngressFormat = "JsonLd"
)

// ParseTriples decodes r in the given format into a triple slice, or
// returns a *errs.Error of kind ParseError. N-Triples errors carry the
// failing line as their span; the other formats report the decoder's
// message without a span. Every
// parser here rejects the whole payload on the first syntax error; nothing
// is ever partially returned.
func ParseTriples(r io.Reader, format IngressFormat) ([]rdf.Triple, error) {
	switch format {
	case FormatTurtleIn:
		return parseTurtle(r)
	case FormatNTriplesIn:
		return parseNTriples(r)
	case FormatRDFXML:
		return parseRDFXML(r)
	case FormatJSONLDIn:
		return parseJSONLD(r)
	}
	return nil, errs.ParseError("unsupported ingress format %q", format)
}

func parseTurtle(r io.Reader) ([]rdf.Triple, error) {
	g := rdf2go.NewGraph("")
	if err := g.Parse(r, "text/turtle"); err != nil {
		return nil, errs.ParseError("turtle: %v", err)
	}
	var out []rdf.Triple
	for trp := range g.IterTriples() {
		t, err := rdf.NewTriple(fromRdf2go(trp.Subject), fromRdf2go(trp.Predicate), fromRdf2go(trp.Object))
		if err != nil {
			return nil, errs.ParseError("turtle: %v", err)
		}
		out = append(out, t)
	}
	return out, nil
}

// parseNTriples reads one "subj pred obj ." statement per line. No library
// in the corpus offers a standalone N-Triples reader (rdf2go only exposes
// Turtle parsing), so this walks the already-NTriple-lexical Term syntax
// directly, reusing rdf.Term's own lexical form as the wire format.
func parseNTriples(r io.Reader) ([]rdf.Triple, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	var out []rdf.Triple
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		text = strings.TrimSuffix(text, ".")
		text = strings.TrimSpace(text)
		parts, err := splitNTriple(text)
		if err != nil {
			return nil, errs.ParseError("ntriples: line %d: %v", line, err).WithSpan(errs.Span{Line: line})
		}
		t, err := rdf.NewTriple(rdf.Term(parts[0]), rdf.Term(parts[1]), rdf.Term(parts[2]))
		if err != nil {
			return nil, errs.ParseError("ntriples: line %d: %v", line, err).WithSpan(errs.Span{Line: line})
		}
		out = append(out, t)
	}
	if err := scanner.Err(); err != nil {
		return nil, errs.ParseError("ntriples: %v", err)
	}
	return out, nil
}

// splitNTriple splits a single NTriple statement body into its three
// whitespace-delimited terms, treating quoted literals and bracketed IRIs
// as atomic tokens.
func splitNTriple(line string) ([3]string, error) {
	var parts [3]string
	pos := 0
	for i := 0; i < 3; i++ {
		for pos < len(line) && line[pos] == ' ' {
			pos++
		}
		if pos >= len(line) {
			return parts, fmt.Errorf("expected 3 terms, found %d", i)
		}
		start := pos
		switch line[pos] {
		case '<':
			end := strings.IndexByte(line[pos:], '>')
			if end < 0 {
				return parts, fmt.Errorf("unterminated IRI")
			}
			pos += end + 1
		case '"':
			pos++
			for pos < len(line) && line[pos] != '"' {
				if line[pos] == '\\' {
					pos++
				}
				pos++
			}
			pos++ // closing quote
			// optional @lang or ^^<dt> suffix
			for pos < len(line) && line[pos] != ' ' {
				pos++
			}
		default: // blank node "_:label"
			for pos < len(line) && line[pos] != ' ' {
				pos++
			}
		}
		parts[i] = line[start:pos]
	}
	return parts, nil
}

// rdfXMLDoc mirrors the minimal subset of the RDF/XML abbreviated and
// striped syntaxes that parseRDFXML reads: rdf:Description elements with
// rdf:about, nested property elements with either rdf:resource or a text
// literal.
type rdfXMLDoc struct {
	XMLName      xml.Name          `xml:"RDF"`
	Descriptions []rdfDescription  `xml:"Description"`
}

type rdfDescription struct {
	About      string      `xml:"about,attr"`
	NodeID     string      `xml:"nodeID,attr"`
	Properties []rdfXMLAny `xml:",any"`
}

type rdfXMLAny struct {
	XMLName  xml.Name
	Resource string `xml:"resource,attr"`
	Lang     string `xml:"lang,attr"`
	Datatype string `xml:"datatype,attr"`
	Value    string `xml:",chardata"`
}

// parseRDFXML decodes the RDF/XML striped syntax. No example repo in the
// corpus ships an RDF/XML decoder (deiu/gon3 is a teacher transitive
// dependency of unknown exact API surface), so this is hand-rolled on
// encoding/xml, covering the rdf:Description/rdf:about/rdf:resource shape
// of commonly seen hand-authored documents. Export does not write RDF/XML.
func parseRDFXML(r io.Reader) ([]rdf.Triple, error) {
	dec := xml.NewDecoder(r)
	var doc rdfXMLDoc
	if err := dec.Decode(&doc); err != nil {
		return nil, errs.ParseError("rdfxml: %v", err)
	}
	var out []rdf.Triple
	for _, d := range doc.Descriptions {
		var subj rdf.Term
		switch {
		case d.About != "":
			subj = rdf.NewIRITerm(d.About)
		case d.NodeID != "":
			subj = rdf.NewBlankNodeTerm(d.NodeID)
		default:
			return nil, errs.ParseError("rdfxml: Description missing rdf:about or rdf:nodeID")
		}
		for _, p := range d.Properties {
			predIRI := p.XMLName.Space + p.XMLName.Local
			pred := rdf.NewIRITerm(predIRI)
			var obj rdf.Term
			switch {
			case p.Resource != "":
				obj = rdf.NewIRITerm(p.Resource)
			default:
				obj = rdf.NewLiteralTerm(strings.TrimSpace(p.Value), p.Lang, p.Datatype)
			}
			t, err := rdf.NewTriple(subj, pred, obj)
			if err != nil {
				return nil, errs.ParseError("rdfxml: %v", err)
			}
			out = append(out, t)
		}
	}
	return out, nil
}

// parseJSONLD decodes the flattened JSON-LD array form produced by
// exportJSONLD: a top-level array of node objects keyed by "@id" plus
// property arrays of {"@id": ...} or {"@value": ..., "@language"/"@type": ...}.
// Hand-rolled for the same reason as exportJSONLD: no safely inspectable
// triple-level JSON-LD library exists in the corpus.
func parseJSONLD(r io.Reader) ([]rdf.Triple, error) {
	var raw []map[string]json.RawMessage
	dec := json.NewDecoder(r)
	if err := dec.Decode(&raw); err != nil {
		return nil, errs.ParseError("jsonld: %v", err)
	}
	var out []rdf.Triple
	for _, node := range raw {
		idRaw, ok := node["@id"]
		if !ok {
			return nil, errs.ParseError("jsonld: node missing @id")
		}
		var id string
		if err := json.Unmarshal(idRaw, &id); err != nil {
			return nil, errs.ParseError("jsonld: invalid @id: %v", err)
		}
		var subj rdf.Term
		if strings.HasPrefix(id, "_:") {
			subj = rdf.NewBlankNodeTerm(strings.TrimPrefix(id, "_:"))
		} else {
			subj = rdf.NewIRITerm(id)
		}
		for pred, valuesRaw := range node {
			if pred == "@id" {
				continue
			}
			var values []map[string]string
			if err := json.Unmarshal(valuesRaw, &values); err != nil {
				return nil, errs.ParseError("jsonld: property %q: %v", pred, err)
			}
			for _, v := range values {
				var obj rdf.Term
				switch {
				case v["@id"] != "":
					obj = rdf.NewIRITerm(v["@id"])
				default:
					obj = rdf.NewLiteralTerm(v["@value"], v["@language"], v["@type"])
				}
				t, err := rdf.NewTriple(subj, rdf.NewIRITerm(pred), obj)
				if err != nil {
					return nil, errs.ParseError("jsonld: %v", err)
				}
				out = append(out, t)
			}
		}
	}
	return out, nil
}
