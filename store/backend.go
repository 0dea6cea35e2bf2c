package store

import "github.com/kahefi/epcis-graph/rdf"

// backend is the storage-engine-specific implementation consulted by Store.
// Store adds the single-writer/many-reader locking and change-set bookkeeping
// on top; backends only need to manage the raw graph contents.
type backend interface {
	// matches returns every triple in graphIRI that matches the pattern.
	// Empty terms act as wildcards. If graphIRI is "", it matches across
	// every graph and each returned triple is reported with its graph IRI.
	matches(graphIRI string, subj, pred, obj rdf.Term) ([]rdf.Quad, error)

	// addTriples inserts triples into a graph, skipping ones already
	// present. Returns the ones actually added (in order) and the ones
	// that were already there.
	addTriples(graphIRI string, triples []rdf.Triple) (added, already []rdf.Triple, err error)

	// removeTriples deletes triples from a graph. Returns the ones
	// actually removed and the ones that were not present.
	removeTriples(graphIRI string, triples []rdf.Triple) (removed, notPresent []rdf.Triple, err error)

	// clearGraph removes every triple from a graph.
	clearGraph(graphIRI string) error

	// graphs lists graph IRIs known to the backend. The SQLite backend
	// lists every graph with at least one triple; the in-memory backend
	// also lists empty graphs that have been cleared, written to or
	// matched against by name.
	graphs() ([]string, error)

	// graphSize returns the triple count of one graph.
	graphSize(graphIRI string) (int, error)

	// allTriples returns every quad in the store.
	allTriples() ([]rdf.Quad, error)

	// close releases any resources (file handles, connections) held by the backend.
	close() error

	// path reports the storage path the backend was opened with ("" or
	// ":memory:" for an in-memory backend).
	path() string
}
