package owl

import "fmt"

// Profile is an OWL 2 profile name.
type Profile string

const (
	ProfileEL   Profile = "EL"
	ProfileQL   Profile = "QL"
	ProfileRL   Profile = "RL"
	ProfileFull Profile = "Full"
)

// ProfileReport is the result of CheckProfile.
type ProfileReport struct {
	Conforms   bool
	Violations []string
}

// CheckProfile reports whether the ontology's axioms fall within profile's
// grammar. A profile rejects an axiom iff it uses a construct outside that
// grammar (spec §4.2 Profile checking); Full accepts everything.
func (o *Ontology) CheckProfile(profile Profile) ProfileReport {
	o.mu.RLock()
	defer o.mu.RUnlock()

	if profile == ProfileFull {
		return ProfileReport{Conforms: true}
	}

	var violations []string

	// DisjointUnionOf is outside both EL and QL's grammar: EL lacks
	// general class disjointness and union constructs; QL restricts
	// axioms to inclusions with a basic-class-expression right-hand side.
	if profile == ProfileEL || profile == ProfileQL {
		for _, du := range o.DisjointUnions {
			violations = append(violations, fmt.Sprintf(
				"DisjointUnionOf(%s, %v) uses a union/disjointness construct outside profile %s", du.Class, du.Members, profile))
		}
	}

	// QL forbids property chains (propertyChainAxiom) and transitive
	// properties, since QL property expressions must stay first-order
	// rewritable. Every chain and every transitive property is flagged;
	// inverse-functional properties are not examined here.
	if profile == ProfileQL {
		for _, p := range o.ObjectProps {
			if len(p.PropertyChain) > 0 {
				violations = append(violations, fmt.Sprintf(
					"property chain axiom on %s uses a construct outside profile QL", p.URI))
			}
			if p.IsTransitive {
				violations = append(violations, fmt.Sprintf(
					"transitive property %s is outside profile QL", p.URI))
			}
		}
	}

	// RL forbids declaring a class both the domain of an inverse-functional
	// property and participating in a property chain that isn't in the
	// RL-specific asymmetric-inclusion grammar; the only currently
	// detectable construct is a chain of length > 2, which RL's grammar
	// (role composition limited to 2 conjuncts in the subclass position)
	// does not admit.
	if profile == ProfileRL {
		for _, p := range o.ObjectProps {
			for _, chain := range p.PropertyChain {
				if len(chain) > 2 {
					violations = append(violations, fmt.Sprintf(
						"property chain of length %d on %s exceeds RL's binary role composition", len(chain), p.URI))
				}
			}
		}
	}

	// EL forbids inverse properties and cardinality-style functional/
	// inverse-functional constraints outside its existential grammar.
	if profile == ProfileEL {
		for _, p := range o.ObjectProps {
			if len(p.InverseOf) > 0 {
				violations = append(violations, fmt.Sprintf(
					"inverseOf on %s uses a construct outside profile EL", p.URI))
			}
			if p.IsFunctional || p.IsInverseFunctional {
				violations = append(violations, fmt.Sprintf(
					"(inverse-)functional property %s is outside profile EL", p.URI))
			}
		}
	}

	return ProfileReport{Conforms: len(violations) == 0, Violations: violations}
}
