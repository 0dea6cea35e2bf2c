package materialize

import (
	"context"

	"github.com/kahefi/epcis-graph/errs"
	"github.com/kahefi/epcis-graph/rdf"
	"github.com/kahefi/epcis-graph/sparql"
)

// entailedSource layers a fixed set of computed-but-not-installed triples
// (tagged as belonging to the inferred graph) over a real sparql.Source,
// so a query sees them exactly as it would see materialized entailments.
type entailedSource struct {
	base  sparql.Source
	extra *rdf.NamedGraph
}

func (s *entailedSource) Match(graphIRI string, subj, pred, obj rdf.Term) ([]rdf.Quad, error) {
	out, err := s.base.Match(graphIRI, subj, pred, obj)
	if err != nil {
		return nil, err
	}
	if graphIRI != "" && graphIRI != rdf.GraphInferred {
		return out, nil
	}
	for _, t := range s.extra.Match(subj, pred, obj) {
		out = append(out, rdf.Quad{Triple: t, Graph: rdf.NewIRITerm(rdf.GraphInferred)})
	}
	return out, nil
}

// Query evaluates a SPARQL query against the entailments this Materializer's
// strategy makes visible. Under Full/Incremental/Hybrid, the inferred graph
// is already committed to the store, so the query runs against it directly.
// Under OnDemand, nothing is ever committed (§4.3: "never pre-materialize;
// compute entailments during query evaluation ... against rule-rewritten
// queries"), so this runs the fixpoint in memory and answers the query
// against the union of the store and that freshly computed closure.
func (m *Materializer) Query(ctx context.Context, q string) (*sparql.Result, error) {
	if m.Strategy != StrategyOnDemand {
		return evalQuery(m.st, q)
	}

	m.mu.Lock()
	added, _, err := m.computeEntailments(ctx)
	m.mu.Unlock()
	if err != nil {
		return nil, err
	}

	extra := rdf.NewNamedGraph(rdf.GraphInferred)
	for _, t := range added {
		extra.Add(t)
	}
	return evalQuery(&entailedSource{base: m.st, extra: extra}, q)
}

// QuerySelect evaluates a SPARQL SELECT query under this Materializer's
// strategy (see Query).
func (m *Materializer) QuerySelect(ctx context.Context, q string) ([]sparql.Binding, error) {
	res, err := m.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	if res.Form != sparql.FormSelect {
		return nil, errs.QueryInvalid("query is not a SELECT query")
	}
	return res.Bindings, nil
}

// QueryAsk evaluates a SPARQL ASK query under this Materializer's strategy.
func (m *Materializer) QueryAsk(ctx context.Context, q string) (bool, error) {
	res, err := m.Query(ctx, q)
	if err != nil {
		return false, err
	}
	if res.Form != sparql.FormAsk {
		return false, errs.QueryInvalid("query is not an ASK query")
	}
	return res.Boolean, nil
}

// QueryConstruct evaluates a SPARQL CONSTRUCT query under this
// Materializer's strategy.
func (m *Materializer) QueryConstruct(ctx context.Context, q string) ([]rdf.Triple, error) {
	res, err := m.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	if res.Form != sparql.FormConstruct {
		return nil, errs.QueryInvalid("query is not a CONSTRUCT query")
	}
	return res.Triples, nil
}

// QueryDescribe evaluates a SPARQL DESCRIBE query under this Materializer's
// strategy.
func (m *Materializer) QueryDescribe(ctx context.Context, q string) ([]rdf.Triple, error) {
	res, err := m.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	if res.Form != sparql.FormDescribe {
		return nil, errs.QueryInvalid("query is not a DESCRIBE query")
	}
	return res.Triples, nil
}

func evalQuery(src sparql.Source, q string) (*sparql.Result, error) {
	parsed, err := sparql.Parse(q)
	if err != nil {
		return nil, errs.QueryInvalid("%v", err)
	}
	res, err := sparql.NewEngine(src).Execute(parsed)
	if err != nil {
		return nil, errs.QueryInvalid("%v", err)
	}
	return res, nil
}
