package sparql

import (
	"encoding/csv"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"strings"
)

// jsonBinding is one row of the SPARQL 1.1 Query Results JSON Format.
type jsonBinding map[string]jsonTerm

type jsonTerm struct {
	Type     string `json:"type"`
	Value    string `json:"value"`
	Lang     string `json:"xml:lang,omitempty"`
	Datatype string `json:"datatype,omitempty"`
}

type jsonResults struct {
	Head    jsonHead    `json:"head"`
	Results *jsonBody   `json:"results,omitempty"`
	Boolean *bool       `json:"boolean,omitempty"`
}

type jsonHead struct {
	Vars []string `json:"vars,omitempty"`
}

type jsonBody struct {
	Bindings []jsonBinding `json:"bindings"`
}

// EncodeJSON renders a SELECT or ASK result as SPARQL 1.1 Query Results JSON.
func EncodeJSON(r *Result) ([]byte, error) {
	if r.Form == FormAsk {
		b := r.Boolean
		return json.MarshalIndent(jsonResults{Head: jsonHead{}, Boolean: &b}, "", "  ")
	}
	out := jsonResults{Head: jsonHead{Vars: r.Vars}, Results: &jsonBody{}}
	for _, b := range r.Bindings {
		row := make(jsonBinding)
		for _, v := range r.Vars {
			term, ok := b[v]
			if !ok {
				continue
			}
			jt := jsonTerm{}
			switch {
			case term.IsIRI():
				jt.Type = "uri"
				jt.Value = term.Value()
			case term.IsBlankNode():
				jt.Type = "bnode"
				jt.Value = term.Value()
			default:
				jt.Type = "literal"
				jt.Value = term.Value()
				jt.Lang = term.Language()
				jt.Datatype = term.Datatype()
			}
			row[v] = jt
		}
		out.Results.Bindings = append(out.Results.Bindings, row)
	}
	return json.MarshalIndent(out, "", "  ")
}

// EncodeCSV renders a SELECT result as SPARQL 1.1 Query Results CSV.
func EncodeCSV(r *Result) ([]byte, error) {
	var sb strings.Builder
	w := csv.NewWriter(&sb)
	if err := w.Write(r.Vars); err != nil {
		return nil, err
	}
	for _, b := range r.Bindings {
		row := make([]string, len(r.Vars))
		for i, v := range r.Vars {
			if term, ok := b[v]; ok {
				row[i] = term.Value()
			}
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return []byte(sb.String()), nil
}

// XML result encoding per the SPARQL 1.1 Query Results XML Format.
type xmlSparql struct {
	XMLName xml.Name   `xml:"sparql"`
	Head    xmlHead    `xml:"head"`
	Results *xmlResults `xml:"results,omitempty"`
	Boolean *bool      `xml:"boolean,omitempty"`
}

type xmlHead struct {
	Vars []xmlVar `xml:"variable"`
}

type xmlVar struct {
	Name string `xml:"name,attr"`
}

type xmlResults struct {
	Rows []xmlResult `xml:"result"`
}

type xmlResult struct {
	Bindings []xmlBinding `xml:"binding"`
}

type xmlBinding struct {
	Name    string    `xml:"name,attr"`
	URI     string    `xml:"uri,omitempty"`
	BNode   string    `xml:"bnode,omitempty"`
	Literal *xmlLiteral `xml:"literal,omitempty"`
}

type xmlLiteral struct {
	Value    string `xml:",chardata"`
	Lang     string `xml:"xml:lang,attr,omitempty"`
	Datatype string `xml:"datatype,attr,omitempty"`
}

// EncodeXML renders a SELECT or ASK result as SPARQL 1.1 Query Results XML.
func EncodeXML(r *Result) ([]byte, error) {
	doc := xmlSparql{Head: xmlHead{}}
	for _, v := range r.Vars {
		doc.Head.Vars = append(doc.Head.Vars, xmlVar{Name: v})
	}
	if r.Form == FormAsk {
		b := r.Boolean
		doc.Boolean = &b
	} else {
		res := &xmlResults{}
		for _, b := range r.Bindings {
			var row xmlResult
			for _, v := range r.Vars {
				term, ok := b[v]
				if !ok {
					continue
				}
				xb := xmlBinding{Name: v}
				switch {
				case term.IsIRI():
					xb.URI = term.Value()
				case term.IsBlankNode():
					xb.BNode = term.Value()
				default:
					xb.Literal = &xmlLiteral{Value: term.Value(), Lang: term.Language(), Datatype: term.Datatype()}
				}
				row.Bindings = append(row.Bindings, xb)
			}
			res.Rows = append(res.Rows, row)
		}
		doc.Results = res
	}
	body, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), body...), nil
}

// EncodeTurtle renders CONSTRUCT/DESCRIBE triples as a flat Turtle document
// using full IRIs throughout (no prefix compaction, to keep output
// unambiguous without tracking a namespace table here).
func EncodeTurtle(r *Result) ([]byte, error) {
	var sb strings.Builder
	for _, t := range r.Triples {
		fmt.Fprintf(&sb, "%s %s %s .\n", t.Subject, t.Predicate, t.Object)
	}
	return []byte(sb.String()), nil
}
