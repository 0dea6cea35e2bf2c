package store

import "github.com/kahefi/epcis-graph/rdf"

// ChangeSet reports the result of an install or removal call.
type ChangeSet struct {
	// Added holds triples newly inserted by InstallTriples.
	Added []rdf.Triple
	// AlreadyPresent holds triples from the same call that were already in the graph.
	AlreadyPresent []rdf.Triple
	// Removed holds triples newly deleted by RemoveTriples.
	Removed []rdf.Triple
	// NotPresent holds triples from the same call that were not in the graph.
	NotPresent []rdf.Triple
	// GraphIRI is the graph the change was applied to.
	GraphIRI string
}

// IsEmpty reports whether the change set made no difference to the store.
func (c ChangeSet) IsEmpty() bool {
	return len(c.Added) == 0 && len(c.Removed) == 0
}

// Statistics summarizes the current contents of a Store.
type Statistics struct {
	TotalTriples int
	GraphCount   int
	GraphSizes   map[string]int
	StoragePath  string
}
