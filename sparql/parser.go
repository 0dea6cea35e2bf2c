package sparql

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/kahefi/epcis-graph/rdf"
)

// Parser parses SPARQL query text into a Query AST.
type Parser struct {
	lex      *lexer
	prefixes map[string]string
}

// Parse parses a single SPARQL query.
func Parse(query string) (*Query, error) {
	p := &Parser{lex: newLexer(query), prefixes: map[string]string{"rdf": "http://www.w3.org/1999/02/22-rdf-syntax-ns#"}}
	return p.parseQuery()
}

func (p *Parser) parseQuery() (*Query, error) {
	q := &Query{Prefixes: p.prefixes}

	for {
		tok, err := p.lex.peek()
		if err != nil {
			return nil, err
		}
		if tok.kind != tokKeyword || tok.text != "PREFIX" {
			break
		}
		if err := p.parsePrefixDecl(); err != nil {
			return nil, err
		}
	}

	tok, err := p.lex.next()
	if err != nil {
		return nil, err
	}
	if tok.kind != tokKeyword {
		return nil, p.errf(tok, "expected query form keyword")
	}
	switch tok.text {
	case "SELECT":
		q.Form = FormSelect
		if err := p.parseSelectClause(q); err != nil {
			return nil, err
		}
	case "ASK":
		q.Form = FormAsk
	case "CONSTRUCT":
		q.Form = FormConstruct
		tmpl, err := p.parseBracedTemplate()
		if err != nil {
			return nil, err
		}
		q.Construct = tmpl
	case "DESCRIBE":
		q.Form = FormDescribe
		if err := p.parseSelectClause(q); err != nil {
			return nil, err
		}
	default:
		return nil, p.errf(tok, "unsupported query form %q", tok.text)
	}

	// The WHERE keyword before the group pattern is optional.
	if next, err := p.lex.peek(); err != nil {
		return nil, err
	} else if next.kind == tokKeyword && next.text == "WHERE" {
		if _, err := p.lex.next(); err != nil {
			return nil, err
		}
	}
	where, err := p.parseGroupGraphPattern()
	if err != nil {
		return nil, err
	}
	q.Where = where

	if err := p.parseSolutionModifiers(q); err != nil {
		return nil, err
	}
	return q, nil
}

func (p *Parser) parsePrefixDecl() error {
	if _, err := p.lex.next(); err != nil { // consume PREFIX
		return err
	}
	nameTok, err := p.lex.next()
	if err != nil {
		return err
	}
	prefix := strings.TrimSuffix(nameTok.text, ":")
	iriTok, err := p.lex.next()
	if err != nil {
		return err
	}
	if iriTok.kind != tokIRI {
		return p.errf(iriTok, "expected IRI after PREFIX %s:", prefix)
	}
	p.prefixes[prefix] = iriTok.text
	return nil
}

func (p *Parser) parseSelectClause(q *Query) error {
	tok, err := p.lex.peek()
	if err != nil {
		return err
	}
	if tok.kind == tokKeyword && tok.text == "DISTINCT" {
		q.Distinct = true
		if _, err := p.lex.next(); err != nil {
			return err
		}
		tok, err = p.lex.peek()
		if err != nil {
			return err
		}
	}
	if tok.kind == tokPunct && tok.text == "*" {
		if _, err := p.lex.next(); err != nil {
			return err
		}
		q.Vars = nil
		return nil
	}
	for {
		tok, err := p.lex.peek()
		if err != nil {
			return err
		}
		if tok.kind != tokVariable {
			break
		}
		if _, err := p.lex.next(); err != nil {
			return err
		}
		q.Vars = append(q.Vars, tok.text)
	}
	return nil
}

func (p *Parser) parseBracedTemplate() ([]TriplePattern, error) {
	if err := p.expectPunct("{"); err != nil {
		return nil, err
	}
	var patterns []TriplePattern
	for {
		tok, err := p.lex.peek()
		if err != nil {
			return nil, err
		}
		if tok.kind == tokPunct && tok.text == "}" {
			if _, err := p.lex.next(); err != nil {
				return nil, err
			}
			break
		}
		tp, err := p.parseTriplePattern()
		if err != nil {
			return nil, err
		}
		patterns = append(patterns, tp)
		if err := p.consumeOptionalDot(); err != nil {
			return nil, err
		}
	}
	return patterns, nil
}

func (p *Parser) consumeOptionalDot() error {
	tok, err := p.lex.peek()
	if err != nil {
		return err
	}
	if tok.kind == tokPunct && tok.text == "." {
		_, err := p.lex.next()
		return err
	}
	return nil
}

func (p *Parser) parseGroupGraphPattern() (GroupPattern, error) {
	if err := p.expectPunct("{"); err != nil {
		return GroupPattern{}, err
	}
	gp := GroupPattern{}
	for {
		tok, err := p.lex.peek()
		if err != nil {
			return GroupPattern{}, err
		}
		if tok.kind == tokPunct && tok.text == "}" {
			if _, err := p.lex.next(); err != nil {
				return GroupPattern{}, err
			}
			break
		}
		switch {
		case tok.kind == tokKeyword && tok.text == "FILTER":
			if _, err := p.lex.next(); err != nil {
				return GroupPattern{}, err
			}
			f, err := p.parseFilter()
			if err != nil {
				return GroupPattern{}, err
			}
			gp.Filters = append(gp.Filters, f)
		case tok.kind == tokKeyword && tok.text == "OPTIONAL":
			if _, err := p.lex.next(); err != nil {
				return GroupPattern{}, err
			}
			opt, err := p.parseGroupGraphPattern()
			if err != nil {
				return GroupPattern{}, err
			}
			gp.Optionals = append(gp.Optionals, opt)
		case tok.kind == tokKeyword && tok.text == "GRAPH":
			if _, err := p.lex.next(); err != nil {
				return GroupPattern{}, err
			}
			gtok, err := p.lex.next()
			if err != nil {
				return GroupPattern{}, err
			}
			sub, err := p.parseGroupGraphPattern()
			if err != nil {
				return GroupPattern{}, err
			}
			if gtok.kind == tokVariable {
				sub.GraphVar = gtok.text
			} else if gtok.kind == tokIRI {
				sub.GraphIRI = gtok.text
			} else {
				return GroupPattern{}, p.errf(gtok, "expected graph IRI or variable")
			}
			gp.Optionals = append(gp.Optionals, sub) // nested graph blocks join like any sub-pattern
			gp.Patterns = append(gp.Patterns, sub.Patterns...)
		default:
			tp, err := p.parseTriplePattern()
			if err != nil {
				return GroupPattern{}, err
			}
			gp.Patterns = append(gp.Patterns, tp)
			if err := p.consumeOptionalDot(); err != nil {
				return GroupPattern{}, err
			}
		}
	}
	return gp, nil
}

func (p *Parser) parseTriplePattern() (TriplePattern, error) {
	s, err := p.parsePatternTerm()
	if err != nil {
		return TriplePattern{}, err
	}
	pr, err := p.parsePatternTerm()
	if err != nil {
		return TriplePattern{}, err
	}
	o, err := p.parsePatternTerm()
	if err != nil {
		return TriplePattern{}, err
	}
	return TriplePattern{Subject: s, Predicate: pr, Object: o}, nil
}

func (p *Parser) parsePatternTerm() (PatternTerm, error) {
	tok, err := p.lex.next()
	if err != nil {
		return PatternTerm{}, err
	}
	switch tok.kind {
	case tokVariable:
		return PatternTerm{Var: tok.text}, nil
	case tokIRI:
		return PatternTerm{Bound: rdf.NewIRITerm(tok.text)}, nil
	case tokBlankNode:
		return PatternTerm{Bound: rdf.NewBlankNodeTerm(tok.text)}, nil
	case tokKeyword:
		if tok.text == "A" {
			return PatternTerm{Bound: rdf.NewIRITerm(rdf.RDFType)}, nil
		}
		return PatternTerm{}, p.errf(tok, "unexpected keyword %q in triple pattern", tok.text)
	case tokPrefixedName:
		iri, err := p.resolvePrefixedName(tok.text)
		if err != nil {
			return PatternTerm{}, err
		}
		return PatternTerm{Bound: rdf.NewIRITerm(iri)}, nil
	case tokLiteral:
		dt := tok.dt
		if dt != "" && strings.Contains(dt, ":") && !strings.Contains(dt, "://") {
			if resolved, err := p.resolvePrefixedName(dt); err == nil {
				dt = resolved
			}
		}
		return PatternTerm{Bound: rdf.NewLiteralTerm(tok.text, tok.lang, dt)}, nil
	}
	return PatternTerm{}, p.errf(tok, "unexpected token in triple pattern")
}

func (p *Parser) resolvePrefixedName(name string) (string, error) {
	idx := strings.Index(name, ":")
	if idx < 0 {
		return "", fmt.Errorf("sparql: malformed prefixed name %q", name)
	}
	prefix, local := name[:idx], name[idx+1:]
	ns, ok := p.prefixes[prefix]
	if !ok {
		return "", fmt.Errorf("sparql: unknown prefix %q", prefix)
	}
	return ns + local, nil
}

func (p *Parser) parseFilter() (Filter, error) {
	if err := p.expectPunct("("); err != nil {
		return Filter{}, err
	}
	tok, err := p.lex.next()
	if err != nil {
		return Filter{}, err
	}
	if tok.kind == tokKeyword && tok.text == "BOUND" {
		if err := p.expectPunct("("); err != nil {
			return Filter{}, err
		}
		v, err := p.lex.next()
		if err != nil {
			return Filter{}, err
		}
		if err := p.expectPunct(")"); err != nil {
			return Filter{}, err
		}
		if err := p.expectPunct(")"); err != nil {
			return Filter{}, err
		}
		return Filter{Var: v.text, Op: OpBound}, nil
	}
	if tok.kind == tokKeyword && tok.text == "REGEX" {
		if err := p.expectPunct("("); err != nil {
			return Filter{}, err
		}
		v, err := p.lex.next()
		if err != nil {
			return Filter{}, err
		}
		if err := p.expectPunct(","); err != nil {
			return Filter{}, err
		}
		pat, err := p.lex.next()
		if err != nil {
			return Filter{}, err
		}
		if err := p.expectPunct(")"); err != nil {
			return Filter{}, err
		}
		if err := p.expectPunct(")"); err != nil {
			return Filter{}, err
		}
		return Filter{Var: v.text, Op: OpRegex, Value: rdf.NewLiteralTerm(pat.text, "", "")}, nil
	}
	if tok.kind != tokVariable {
		return Filter{}, p.errf(tok, "expected variable in FILTER")
	}
	varName := tok.text
	opTok, err := p.lex.next()
	if err != nil {
		return Filter{}, err
	}
	if opTok.kind != tokPunct {
		return Filter{}, p.errf(opTok, "expected comparison operator in FILTER")
	}
	valTok, err := p.lex.next()
	if err != nil {
		return Filter{}, err
	}
	var val rdf.Term
	switch valTok.kind {
	case tokLiteral:
		val = rdf.NewLiteralTerm(valTok.text, valTok.lang, valTok.dt)
	case tokIRI:
		val = rdf.NewIRITerm(valTok.text)
	case tokVariable:
		val = rdf.Term("?" + valTok.text)
	default:
		return Filter{}, p.errf(valTok, "expected literal or IRI in FILTER")
	}
	if err := p.expectPunct(")"); err != nil {
		return Filter{}, err
	}
	return Filter{Var: varName, Op: FilterOp(opTok.text), Value: val}, nil
}

func (p *Parser) parseSolutionModifiers(q *Query) error {
	for {
		tok, err := p.lex.peek()
		if err != nil {
			return err
		}
		if tok.kind != tokKeyword {
			break
		}
		switch tok.text {
		case "ORDER":
			if _, err := p.lex.next(); err != nil {
				return err
			}
			if err := p.expectKeyword("BY"); err != nil {
				return err
			}
			for {
				t, err := p.lex.peek()
				if err != nil {
					return err
				}
				desc := false
				if t.kind == tokKeyword && (t.text == "ASC" || t.text == "DESC") {
					desc = t.text == "DESC"
					if _, err := p.lex.next(); err != nil {
						return err
					}
					if err := p.expectPunct("("); err != nil {
						return err
					}
					t, err = p.lex.next()
					if err != nil {
						return err
					}
					if err := p.expectPunct(")"); err != nil {
						return err
					}
				} else if t.kind == tokVariable {
					if _, err := p.lex.next(); err != nil {
						return err
					}
				} else {
					break
				}
				q.OrderBy = append(q.OrderBy, OrderTerm{Var: t.text, Desc: desc})
			}
		case "LIMIT":
			if _, err := p.lex.next(); err != nil {
				return err
			}
			n, err := p.lex.next()
			if err != nil {
				return err
			}
			v, err := strconv.Atoi(n.text)
			if err != nil {
				return p.errf(n, "invalid LIMIT value")
			}
			q.Limit = v
		case "OFFSET":
			if _, err := p.lex.next(); err != nil {
				return err
			}
			n, err := p.lex.next()
			if err != nil {
				return err
			}
			v, err := strconv.Atoi(n.text)
			if err != nil {
				return p.errf(n, "invalid OFFSET value")
			}
			q.Offset = v
		default:
			return nil
		}
	}
	return nil
}

func (p *Parser) expectKeyword(kw string) error {
	tok, err := p.lex.next()
	if err != nil {
		return err
	}
	if tok.kind != tokKeyword || tok.text != kw {
		return p.errf(tok, "expected %q", kw)
	}
	return nil
}

func (p *Parser) expectPunct(s string) error {
	tok, err := p.lex.next()
	if err != nil {
		return err
	}
	if tok.kind != tokPunct || tok.text != s {
		return p.errf(tok, "expected %q", s)
	}
	return nil
}

func (p *Parser) errf(tok token, format string, args ...any) error {
	return fmt.Errorf("sparql: %s at offset %d (got %q)", fmt.Sprintf(format, args...), tok.pos, tok.text)
}
