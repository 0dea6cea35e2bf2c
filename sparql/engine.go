package sparql

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/kahefi/epcis-graph/rdf"
)

// Source is the quad-pattern lookup surface a store exposes to the query
// engine. Store implements this directly; the engine never touches a
// backend or a rdf2go.Graph itself.
type Source interface {
	Match(graphIRI string, subj, pred, obj rdf.Term) ([]rdf.Quad, error)
}

// Binding maps variable names (without the leading '?') to bound terms.
// Unbound variables are absent from the map, never present with a nil value.
type Binding map[string]rdf.Term

func (b Binding) clone() Binding {
	out := make(Binding, len(b))
	for k, v := range b {
		out[k] = v
	}
	return out
}

// Result is the outcome of evaluating a query.
type Result struct {
	Form      Form
	Vars      []string
	Bindings  []Binding  // SELECT
	Boolean   bool       // ASK
	Triples   []rdf.Triple // CONSTRUCT / DESCRIBE
}

// Engine evaluates parsed queries against a Source.
type Engine struct {
	Source Source
}

// NewEngine returns a query engine backed by src.
func NewEngine(src Source) *Engine {
	return &Engine{Source: src}
}

// Execute runs q and returns its result.
func (e *Engine) Execute(q *Query) (*Result, error) {
	bindings, err := e.evalGroup(q.Where, []Binding{{}})
	if err != nil {
		return nil, err
	}

	switch q.Form {
	case FormAsk:
		return &Result{Form: FormAsk, Boolean: len(bindings) > 0}, nil

	case FormSelect:
		bindings = projectAndModify(q, bindings)
		vars := q.Vars
		if len(vars) == 0 {
			vars = allVars(q.Where)
		}
		return &Result{Form: FormSelect, Vars: vars, Bindings: bindings}, nil

	case FormConstruct:
		bindings = applySolutionModifiers(q, bindings)
		seen := make(map[rdf.Triple]struct{})
		var out []rdf.Triple
		for _, b := range bindings {
			for _, tp := range q.Construct {
				t, ok := instantiate(tp, b)
				if !ok {
					continue
				}
				if _, dup := seen[t]; dup {
					continue
				}
				seen[t] = struct{}{}
				out = append(out, t)
			}
		}
		return &Result{Form: FormConstruct, Triples: out}, nil

	case FormDescribe:
		bindings = applySolutionModifiers(q, bindings)
		vars := q.Vars
		if len(vars) == 0 {
			vars = allVars(q.Where)
		}
		seen := make(map[rdf.Triple]struct{})
		var out []rdf.Triple
		for _, b := range bindings {
			for _, v := range vars {
				term, ok := b[v]
				if !ok {
					continue
				}
				quads, err := e.Source.Match("", term, "", "")
				if err != nil {
					return nil, err
				}
				for _, qd := range quads {
					if _, dup := seen[qd.Triple]; dup {
						continue
					}
					seen[qd.Triple] = struct{}{}
					out = append(out, qd.Triple)
				}
			}
		}
		return &Result{Form: FormDescribe, Triples: out}, nil
	}
	return nil, fmt.Errorf("sparql: unsupported query form")
}

func instantiate(tp TriplePattern, b Binding) (rdf.Triple, bool) {
	s, ok := resolveTerm(tp.Subject, b)
	if !ok {
		return rdf.Triple{}, false
	}
	p, ok := resolveTerm(tp.Predicate, b)
	if !ok {
		return rdf.Triple{}, false
	}
	o, ok := resolveTerm(tp.Object, b)
	if !ok {
		return rdf.Triple{}, false
	}
	t, err := rdf.NewTriple(s, p, o)
	if err != nil {
		return rdf.Triple{}, false
	}
	return t, true
}

func resolveTerm(pt PatternTerm, b Binding) (rdf.Term, bool) {
	if !pt.IsVar() {
		return pt.Bound, true
	}
	v, ok := b[pt.Var]
	return v, ok
}

// evalGroup evaluates one basic graph pattern (with its filters and
// optionals) against an existing set of bindings, extending each with the
// pattern's own solutions via nested-loop joins.
func (e *Engine) evalGroup(gp GroupPattern, in []Binding) ([]Binding, error) {
	cur := in
	for _, tp := range gp.Patterns {
		next, err := e.joinPattern(gp, tp, cur)
		if err != nil {
			return nil, err
		}
		cur = next
	}
	cur = applyFilters(gp.Filters, cur)
	for _, opt := range gp.Optionals {
		joined, err := e.evalGroup(opt, cur)
		if err != nil {
			return nil, err
		}
		cur = leftOuterJoin(cur, joined)
	}
	return cur, nil
}

func (e *Engine) joinPattern(gp GroupPattern, tp TriplePattern, in []Binding) ([]Binding, error) {
	var out []Binding
	for _, b := range in {
		subj, subjBound := substitute(tp.Subject, b)
		pred, predBound := substitute(tp.Predicate, b)
		obj, objBound := substitute(tp.Object, b)
		_ = subjBound
		_ = predBound
		_ = objBound

		graphIRI := gp.GraphIRI
		quads, err := e.Source.Match(graphIRI, subj, pred, obj)
		if err != nil {
			return nil, err
		}
		for _, qd := range quads {
			nb := b.clone()
			if !bindIfVar(nb, tp.Subject, qd.Subject) {
				continue
			}
			if !bindIfVar(nb, tp.Predicate, qd.Predicate) {
				continue
			}
			if !bindIfVar(nb, tp.Object, qd.Object) {
				continue
			}
			if gp.GraphVar != "" {
				if existing, ok := nb[gp.GraphVar]; ok && existing != qd.Graph {
					continue
				}
				nb[gp.GraphVar] = qd.Graph
			}
			out = append(out, nb)
		}
	}
	return out, nil
}

// substitute returns the term to search with for a pattern slot: the bound
// value from the current binding if the slot is a variable already bound,
// otherwise the slot's own bound term, otherwise a wildcard ("").
func substitute(pt PatternTerm, b Binding) (rdf.Term, bool) {
	if !pt.IsVar() {
		return pt.Bound, true
	}
	if v, ok := b[pt.Var]; ok {
		return v, true
	}
	return "", false
}

// bindIfVar checks a candidate value against an existing binding (join
// consistency) or introduces a new one. Returns false on conflict.
func bindIfVar(b Binding, pt PatternTerm, val rdf.Term) bool {
	if !pt.IsVar() {
		return true
	}
	if existing, ok := b[pt.Var]; ok {
		return existing == val
	}
	b[pt.Var] = val
	return true
}

func leftOuterJoin(left, right []Binding) []Binding {
	matchedLeft := make(map[int]bool)
	out := make([]Binding, 0, len(left))
	for _, r := range right {
		out = append(out, r)
	}
	// Any left binding with no compatible extension in right passes through
	// unmodified; we approximate this by tracking which right bindings
	// originated from which left binding via value comparison.
	for i, l := range left {
		found := false
		for _, r := range right {
			if isExtension(l, r) {
				found = true
				break
			}
		}
		if !found {
			out = append(out, l)
		}
		matchedLeft[i] = found
	}
	return out
}

func isExtension(base, ext Binding) bool {
	for k, v := range base {
		if ev, ok := ext[k]; !ok || ev != v {
			return false
		}
	}
	return true
}

func applyFilters(filters []Filter, in []Binding) []Binding {
	if len(filters) == 0 {
		return in
	}
	var out []Binding
	for _, b := range in {
		ok := true
		for _, f := range filters {
			if !evalFilter(f, b) {
				ok = false
				break
			}
		}
		if ok {
			out = append(out, b)
		}
	}
	return out
}

func evalFilter(f Filter, b Binding) bool {
	val, bound := b[f.Var]
	switch f.Op {
	case OpBound:
		return bound
	case OpRegex:
		if !bound {
			return false
		}
		re, err := regexp.Compile(f.Value.Value())
		if err != nil {
			return false
		}
		return re.MatchString(val.Value())
	}
	if !bound {
		return false
	}
	if strings.HasPrefix(string(f.Value), "?") {
		other, ok := b[strings.TrimPrefix(string(f.Value), "?")]
		if !ok {
			return false
		}
		return compareTerms(f.Op, val, other)
	}
	return compareTerms(f.Op, val, f.Value)
}

func compareTerms(op FilterOp, a, c rdf.Term) bool {
	if af, aerr := strconv.ParseFloat(a.Value(), 64); aerr == nil {
		if cf, cerr := strconv.ParseFloat(c.Value(), 64); cerr == nil {
			return numericCompare(op, af, cf)
		}
	}
	av, cv := a.Value(), c.Value()
	switch op {
	case OpEqual:
		return av == cv
	case OpNotEqual:
		return av != cv
	case OpLess:
		return av < cv
	case OpGreater:
		return av > cv
	case OpLessEq:
		return av <= cv
	case OpGreaterEq:
		return av >= cv
	}
	return false
}

func numericCompare(op FilterOp, a, c float64) bool {
	switch op {
	case OpEqual:
		return a == c
	case OpNotEqual:
		return a != c
	case OpLess:
		return a < c
	case OpGreater:
		return a > c
	case OpLessEq:
		return a <= c
	case OpGreaterEq:
		return a >= c
	}
	return false
}

func projectAndModify(q *Query, bindings []Binding) []Binding {
	if len(q.Vars) == 0 {
		return applySolutionModifiers(q, bindings)
	}
	// ORDER BY may name variables outside the projection, so it runs on the
	// full solutions; DISTINCT, OFFSET and LIMIT then apply to projected rows.
	ordering := *q
	ordering.Distinct, ordering.Offset, ordering.Limit = false, 0, 0
	bindings = applySolutionModifiers(&ordering, bindings)
	out := make([]Binding, len(bindings))
	for i, b := range bindings {
		nb := make(Binding, len(q.Vars))
		for _, v := range q.Vars {
			if val, ok := b[v]; ok {
				nb[v] = val
			}
		}
		out[i] = nb
	}
	rest := *q
	rest.OrderBy = nil
	return applySolutionModifiers(&rest, out)
}

func applySolutionModifiers(q *Query, bindings []Binding) []Binding {
	if len(q.OrderBy) > 0 {
		sort.SliceStable(bindings, func(i, j int) bool {
			for _, ot := range q.OrderBy {
				vi, oki := bindings[i][ot.Var]
				vj, okj := bindings[j][ot.Var]
				if !oki || !okj {
					continue
				}
				if vi == vj {
					continue
				}
				if ot.Desc {
					return vi.Value() > vj.Value()
				}
				return vi.Value() < vj.Value()
			}
			return false
		})
	}
	if q.Distinct {
		bindings = distinctBindings(bindings)
	}
	if q.Offset > 0 {
		if q.Offset >= len(bindings) {
			bindings = nil
		} else {
			bindings = bindings[q.Offset:]
		}
	}
	if q.Limit > 0 && q.Limit < len(bindings) {
		bindings = bindings[:q.Limit]
	}
	return bindings
}

func distinctBindings(in []Binding) []Binding {
	seen := make(map[string]struct{}, len(in))
	var out []Binding
	for _, b := range in {
		key := bindingKey(b)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, b)
	}
	return out
}

func bindingKey(b Binding) string {
	keys := make([]string, 0, len(b))
	for k := range b {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var sb strings.Builder
	for _, k := range keys {
		sb.WriteString(k)
		sb.WriteByte('=')
		sb.WriteString(string(b[k]))
		sb.WriteByte('\x1f')
	}
	return sb.String()
}

func allVars(gp GroupPattern) []string {
	seen := make(map[string]struct{})
	var out []string
	add := func(v string) {
		if v == "" {
			return
		}
		if _, ok := seen[v]; ok {
			return
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	var walk func(GroupPattern)
	walk = func(g GroupPattern) {
		add(g.GraphVar)
		for _, tp := range g.Patterns {
			add(tp.Subject.Var)
			add(tp.Predicate.Var)
			add(tp.Object.Var)
		}
		for _, o := range g.Optionals {
			walk(o)
		}
	}
	walk(gp)
	return out
}
