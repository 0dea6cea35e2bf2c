// Package store holds named graphs and evaluates read-only SPARQL queries
// over their union, per the kahefi-ontograph lineage this module grew out
// of (graph_store.go defined the same Open/OpenMemory/Install/Query shape
// for a single in-memory graph). Store generalizes that to multiple named
// graphs backed by either an in-memory rdf2go graph per IRI or a SQLite
// file, and adds a single-writer/many-reader lock, change-set reporting
// and the SPARQL query surface.
package store

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/kahefi/epcis-graph/errs"
	"github.com/kahefi/epcis-graph/rdf"
	"github.com/kahefi/epcis-graph/sparql"
)

// Store is a mapping graph-IRI -> NamedGraph with SPARQL evaluation, backed
// by either an in-memory or a SQLite persistence layer. Every exported
// method is interior-synchronized: callers never take their own lock.
type Store struct {
	mu sync.RWMutex
	b  backend
}

// Open obtains a handle to a persistent store rooted at path. Passing
// ":memory:" is equivalent to OpenMemory.
func Open(path string) (*Store, error) {
	if path == "" || path == ":memory:" {
		return OpenMemory(), nil
	}
	b, err := openSqliteBackend(path)
	if err != nil {
		return nil, errs.StorageUnavailable("open store at %q: %v", path, err)
	}
	return &Store{b: b}, nil
}

// OpenMemory obtains a handle to an ephemeral, in-memory store.
func OpenMemory() *Store {
	return &Store{b: newMemoryBackend()}
}

// Path reports the filesystem path the store was opened with, or ":memory:".
func (s *Store) Path() string {
	return s.b.path()
}

// Close releases resources held by the underlying backend.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.close()
}

// InstallTriples adds triples to graphIRI. Installation is all-or-nothing:
// a backend failure midway returns an error without partial effects beyond
// whatever the backend itself already committed transactionally.
func (s *Store) InstallTriples(graphIRI string, triples []rdf.Triple) (ChangeSet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	added, already, err := s.b.addTriples(graphIRI, triples)
	if err != nil {
		return ChangeSet{}, errs.StorageUnavailable("install triples into %q: %v", graphIRI, err)
	}
	log.Debug().Str("graph", graphIRI).Int("added", len(added)).Int("already_present", len(already)).Msg("installed triples")
	return ChangeSet{Added: added, AlreadyPresent: already, GraphIRI: graphIRI}, nil
}

// RemoveTriples deletes triples from graphIRI.
func (s *Store) RemoveTriples(graphIRI string, triples []rdf.Triple) (ChangeSet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed, notPresent, err := s.b.removeTriples(graphIRI, triples)
	if err != nil {
		return ChangeSet{}, errs.StorageUnavailable("remove triples from %q: %v", graphIRI, err)
	}
	log.Debug().Str("graph", graphIRI).Int("removed", len(removed)).Msg("removed triples")
	return ChangeSet{Removed: removed, NotPresent: notPresent, GraphIRI: graphIRI}, nil
}

// ClearGraph removes every triple from graphIRI. Clearing the inferred
// graph is always safe; explicit data graphs are untouched by any other
// operation this method doesn't itself perform.
func (s *Store) ClearGraph(graphIRI string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.b.clearGraph(graphIRI); err != nil {
		return errs.StorageUnavailable("clear graph %q: %v", graphIRI, err)
	}
	return nil
}

// Match implements sparql.Source by taking a read lock and delegating to
// the backend. graphIRI == "" matches across every graph.
func (s *Store) Match(graphIRI string, subj, pred, obj rdf.Term) ([]rdf.Quad, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	quads, err := s.b.matches(graphIRI, subj, pred, obj)
	if err != nil {
		return nil, errs.StorageUnavailable("match pattern: %v", err)
	}
	return quads, nil
}

var _ sparql.Source = (*Store)(nil)

// runQuery parses and evaluates a SPARQL query string against the full
// store (every named graph unioned together, per spec's SPARQL surface).
func (s *Store) runQuery(q string) (*sparql.Result, error) {
	parsed, err := sparql.Parse(q)
	if err != nil {
		return nil, errs.QueryInvalid("%v", err)
	}
	eng := sparql.NewEngine(s)
	res, err := eng.Execute(parsed)
	if err != nil {
		return nil, errs.QueryInvalid("%v", err)
	}
	return res, nil
}

// QuerySelect evaluates a SPARQL SELECT query, returning one binding per
// solution. Unbound variables are absent from a solution's map.
func (s *Store) QuerySelect(q string) ([]sparql.Binding, error) {
	res, err := s.runQuery(q)
	if err != nil {
		return nil, err
	}
	if res.Form != sparql.FormSelect {
		return nil, errs.QueryInvalid("query is not a SELECT query")
	}
	return res.Bindings, nil
}

// QueryAsk evaluates a SPARQL ASK query.
func (s *Store) QueryAsk(q string) (bool, error) {
	res, err := s.runQuery(q)
	if err != nil {
		return false, err
	}
	if res.Form != sparql.FormAsk {
		return false, errs.QueryInvalid("query is not an ASK query")
	}
	return res.Boolean, nil
}

// QueryConstruct evaluates a SPARQL CONSTRUCT query, returning the
// instantiated (deduplicated) triples.
func (s *Store) QueryConstruct(q string) ([]rdf.Triple, error) {
	res, err := s.runQuery(q)
	if err != nil {
		return nil, err
	}
	if res.Form != sparql.FormConstruct {
		return nil, errs.QueryInvalid("query is not a CONSTRUCT query")
	}
	return res.Triples, nil
}

// QueryDescribe evaluates a SPARQL DESCRIBE query.
func (s *Store) QueryDescribe(q string) ([]rdf.Triple, error) {
	res, err := s.runQuery(q)
	if err != nil {
		return nil, err
	}
	if res.Form != sparql.FormDescribe {
		return nil, errs.QueryInvalid("query is not a DESCRIBE query")
	}
	return res.Triples, nil
}

// Statistics summarizes the current contents of the store.
func (s *Store) Statistics() (Statistics, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	graphs, err := s.b.graphs()
	if err != nil {
		return Statistics{}, errs.StorageUnavailable("list graphs: %v", err)
	}
	stats := Statistics{GraphSizes: make(map[string]int, len(graphs)), StoragePath: s.b.path()}
	for _, g := range graphs {
		n, err := s.b.graphSize(g)
		if err != nil {
			return Statistics{}, errs.StorageUnavailable("graph size for %q: %v", g, err)
		}
		stats.GraphSizes[g] = n
		stats.TotalTriples += n
	}
	stats.GraphCount = len(graphs)
	return stats, nil
}

// AllQuads returns every quad in the store, across every graph.
func (s *Store) AllQuads() ([]rdf.Quad, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	quads, err := s.b.allTriples()
	if err != nil {
		return nil, errs.StorageUnavailable("list all triples: %v", err)
	}
	return quads, nil
}
