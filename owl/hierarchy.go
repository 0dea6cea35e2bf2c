package owl

import "sort"

// ClassHierarchy is the result of Classify: the direct and transitive
// subsumption relation between every pair of named classes, collapsed into
// equivalence classes where SubClassOf cycles exist (§9 Cyclic graphs).
type ClassHierarchy struct {
	// Subsumptions maps a class URI to every class URI it is a subclass of
	// (including itself via reflexivity and transitive closure).
	Subsumptions map[string]map[string]bool
	// Equivalences maps a class URI to the canonical representative of its
	// equivalence class. A class with no cycle and no equivalentClass axiom
	// maps to itself.
	Equivalences map[string]string
}

// unionFind is a standard disjoint-set structure keyed by class URI, used
// to collapse SubClassOf cycles and declared owl:equivalentClass axioms
// into a single canonical representative per §9.
type unionFind struct {
	parent map[string]string
}

func newUnionFind() *unionFind {
	return &unionFind{parent: make(map[string]string)}
}

func (u *unionFind) find(x string) string {
	if _, ok := u.parent[x]; !ok {
		u.parent[x] = x
		return x
	}
	if u.parent[x] != x {
		u.parent[x] = u.find(u.parent[x])
	}
	return u.parent[x]
}

func (u *unionFind) union(a, b string) {
	ra, rb := u.find(a), u.find(b)
	if ra == rb {
		return
	}
	// canonical representative is the lexicographically smaller URI, so the
	// choice is deterministic regardless of discovery order.
	if rb < ra {
		ra, rb = rb, ra
	}
	u.parent[rb] = ra
}

// buildEquivalences detects SubClassOf cycles (a transitively subclasses b
// and b transitively subclasses a) and declared equivalentClass axioms, and
// collapses each group into one canonical URI.
func buildEquivalences(o *Ontology, closure map[string]map[string]bool) map[string]string {
	uf := newUnionFind()
	for uri := range o.Classes {
		uf.find(uri)
	}
	for uri, c := range o.Classes {
		for _, eq := range c.EquivalentTo {
			uf.union(uri, eq)
		}
	}
	for a, supers := range closure {
		for b := range supers {
			if a == b {
				continue
			}
			if other, ok := closure[b]; ok && other[a] {
				uf.union(a, b)
			}
		}
	}
	out := make(map[string]string, len(o.Classes))
	for uri := range o.Classes {
		out[uri] = uf.find(uri)
	}
	return out
}

// Classify computes the transitive, reflexive SubClassOf closure over every
// named class (the RL-relevant fragment of classification: direct and
// transitive subsumptions, plus equivalence classes for cycles).
func (o *Ontology) Classify() *ClassHierarchy {
	o.mu.RLock()
	defer o.mu.RUnlock()

	closure := make(map[string]map[string]bool, len(o.Classes))
	for uri := range o.Classes {
		closure[uri] = map[string]bool{uri: true, OWLThingURI: true}
	}
	for uri, c := range o.Classes {
		for _, sup := range c.SubClassOf {
			closure[uri][sup] = true
		}
	}

	// R1: subclass transitivity, iterated to a fixpoint (semi-naive in
	// spirit: keep going while any row gains a new member).
	for {
		changed := false
		for uri, supers := range closure {
			var additions []string
			for sup := range supers {
				if sup == uri {
					continue
				}
				if supOfSup, ok := closure[sup]; ok {
					for s := range supOfSup {
						if !supers[s] {
							additions = append(additions, s)
						}
					}
				}
			}
			for _, a := range additions {
				supers[a] = true
				changed = true
			}
		}
		if !changed {
			break
		}
	}

	return &ClassHierarchy{
		Subsumptions: closure,
		Equivalences: buildEquivalences(o, closure),
	}
}

// OWLThingURI is the canonical IRI of owl:Thing, the implicit superclass of
// every named class.
const OWLThingURI = "http://www.w3.org/2002/07/owl#Thing"

// Subsumes reports whether sub is a (possibly transitive, possibly
// equivalence-collapsed) subclass of super.
func (h *ClassHierarchy) Subsumes(sub, super string) bool {
	subSupers, ok := h.Subsumptions[sub]
	if ok && subSupers[super] {
		return true
	}
	return h.Equivalences[sub] != "" && h.Equivalences[sub] == h.Equivalences[super]
}

// SortedClasses returns every classified class URI in a deterministic order.
func (h *ClassHierarchy) SortedClasses() []string {
	out := make([]string, 0, len(h.Subsumptions))
	for uri := range h.Subsumptions {
		out = append(out, uri)
	}
	sort.Strings(out)
	return out
}
