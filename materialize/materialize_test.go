package materialize_test

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/kahefi/epcis-graph/materialize"
	"github.com/kahefi/epcis-graph/owl"
	"github.com/kahefi/epcis-graph/rdf"
	"github.com/kahefi/epcis-graph/store"
)

func mtr(s, p, o rdf.Term) rdf.Triple {
	t, err := rdf.NewTriple(s, p, o)
	Expect(err).NotTo(HaveOccurred())
	return t
}

func newMaterializer(st *store.Store, ont *owl.Ontology, strategy materialize.Strategy) *materialize.Materializer {
	m, err := materialize.New(st, ont, 1000, time.Minute, strategy, 1000, true)
	Expect(err).NotTo(HaveOccurred())
	return m
}

var _ = Describe("Materializer", func() {
	var st *store.Store

	BeforeEach(func() {
		st = store.OpenMemory()
	})

	AfterEach(func() {
		Expect(st.Close()).To(Succeed())
	})

	Describe("rule R1: subclass transitivity", func() {
		It("materializes A rdfs:subClassOf C via B", func() {
			ont := owl.NewOntology()
			ont.LoadAxioms([]rdf.Triple{
				mtr(rdf.NewIRITerm("urn:A"), rdf.NewIRITerm(rdf.RDFSSubClassOf), rdf.NewIRITerm("urn:B")),
				mtr(rdf.NewIRITerm("urn:B"), rdf.NewIRITerm(rdf.RDFSSubClassOf), rdf.NewIRITerm("urn:C")),
			})
			m := newMaterializer(st, ont, materialize.StrategyFull)
			_, err := m.Materialize(context.Background(), nil)
			Expect(err).NotTo(HaveOccurred())

			ok, err := st.QueryAsk("ASK { <urn:A> <" + rdf.RDFSSubClassOf + "> <urn:C> }")
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeTrue())
		})
	})

	Describe("rule R2: type propagation", func() {
		It("propagates an instance's type to a superclass", func() {
			ont := owl.NewOntology()
			ont.LoadAxioms([]rdf.Triple{
				mtr(rdf.NewIRITerm("urn:A"), rdf.NewIRITerm(rdf.RDFSSubClassOf), rdf.NewIRITerm("urn:B")),
			})
			_, err := st.InstallTriples(rdf.GraphData, []rdf.Triple{
				mtr(rdf.NewIRITerm("urn:i1"), rdf.NewIRITerm(rdf.RDFType), rdf.NewIRITerm("urn:A")),
			})
			Expect(err).NotTo(HaveOccurred())

			m := newMaterializer(st, ont, materialize.StrategyFull)
			_, err = m.Materialize(context.Background(), nil)
			Expect(err).NotTo(HaveOccurred())

			ok, err := st.QueryAsk("ASK { <urn:i1> <" + rdf.RDFType + "> <urn:B> }")
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeTrue())
		})
	})

	Describe("rule R4: property rewriting via subPropertyOf", func() {
		It("rewrites (x p y) into (x q y) when p subPropertyOf q", func() {
			ont := owl.NewOntology()
			ont.ObjectProps["urn:p"] = &owl.ObjectProperty{URI: "urn:p", SubPropertyOf: []string{"urn:q"}}
			ont.ObjectProps["urn:q"] = &owl.ObjectProperty{URI: "urn:q"}
			_, err := st.InstallTriples(rdf.GraphData, []rdf.Triple{
				mtr(rdf.NewIRITerm("urn:x"), rdf.NewIRITerm("urn:p"), rdf.NewIRITerm("urn:y")),
			})
			Expect(err).NotTo(HaveOccurred())

			m := newMaterializer(st, ont, materialize.StrategyFull)
			_, err = m.Materialize(context.Background(), nil)
			Expect(err).NotTo(HaveOccurred())

			ok, err := st.QueryAsk("ASK { <urn:x> <urn:q> <urn:y> }")
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeTrue())
		})
	})

	Describe("rule R5/R6: domain and range", func() {
		It("derives rdf:type from a property's declared domain and range", func() {
			ont := owl.NewOntology()
			ont.ObjectProps["urn:worksFor"] = &owl.ObjectProperty{
				URI: "urn:worksFor", Domains: []string{"urn:Person"}, Ranges: []string{"urn:Org"},
			}
			_, err := st.InstallTriples(rdf.GraphData, []rdf.Triple{
				mtr(rdf.NewIRITerm("urn:alice"), rdf.NewIRITerm("urn:worksFor"), rdf.NewIRITerm("urn:acme")),
			})
			Expect(err).NotTo(HaveOccurred())

			m := newMaterializer(st, ont, materialize.StrategyFull)
			_, err = m.Materialize(context.Background(), nil)
			Expect(err).NotTo(HaveOccurred())

			okDomain, err := st.QueryAsk("ASK { <urn:alice> <" + rdf.RDFType + "> <urn:Person> }")
			Expect(err).NotTo(HaveOccurred())
			Expect(okDomain).To(BeTrue())

			okRange, err := st.QueryAsk("ASK { <urn:acme> <" + rdf.RDFType + "> <urn:Org> }")
			Expect(err).NotTo(HaveOccurred())
			Expect(okRange).To(BeTrue())
		})
	})

	Describe("rule R7: property chain", func() {
		It("derives a grandparent edge from two parent edges", func() {
			ont := owl.NewOntology()
			ont.ObjectProps["urn:grandparentOf"] = &owl.ObjectProperty{
				URI: "urn:grandparentOf", PropertyChain: [][]string{{"urn:parentOf", "urn:parentOf"}},
			}
			_, err := st.InstallTriples(rdf.GraphData, []rdf.Triple{
				mtr(rdf.NewIRITerm("urn:a"), rdf.NewIRITerm("urn:parentOf"), rdf.NewIRITerm("urn:b")),
				mtr(rdf.NewIRITerm("urn:b"), rdf.NewIRITerm("urn:parentOf"), rdf.NewIRITerm("urn:c")),
			})
			Expect(err).NotTo(HaveOccurred())

			m := newMaterializer(st, ont, materialize.StrategyFull)
			_, err = m.Materialize(context.Background(), nil)
			Expect(err).NotTo(HaveOccurred())

			ok, err := st.QueryAsk("ASK { <urn:a> <urn:grandparentOf> <urn:c> }")
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeTrue())
		})
	})

	Describe("rule R8: inverse properties (Open Question resolution)", func() {
		It("derives the inverse edge in both directions", func() {
			ont := owl.NewOntology()
			ont.ObjectProps["urn:parentOf"] = &owl.ObjectProperty{URI: "urn:parentOf", InverseOf: []string{"urn:childOf"}}
			ont.ObjectProps["urn:childOf"] = &owl.ObjectProperty{URI: "urn:childOf"}
			_, err := st.InstallTriples(rdf.GraphData, []rdf.Triple{
				mtr(rdf.NewIRITerm("urn:a"), rdf.NewIRITerm("urn:parentOf"), rdf.NewIRITerm("urn:b")),
			})
			Expect(err).NotTo(HaveOccurred())

			m := newMaterializer(st, ont, materialize.StrategyFull)
			_, err = m.Materialize(context.Background(), nil)
			Expect(err).NotTo(HaveOccurred())

			ok, err := st.QueryAsk("ASK { <urn:b> <urn:childOf> <urn:a> }")
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeTrue())
		})
	})

	Describe("strategies", func() {
		It("OnDemand never writes to the inferred graph", func() {
			ont := owl.NewOntology()
			ont.LoadAxioms([]rdf.Triple{
				mtr(rdf.NewIRITerm("urn:A"), rdf.NewIRITerm(rdf.RDFSSubClassOf), rdf.NewIRITerm("urn:B")),
			})
			_, err := st.InstallTriples(rdf.GraphData, []rdf.Triple{
				mtr(rdf.NewIRITerm("urn:i1"), rdf.NewIRITerm(rdf.RDFType), rdf.NewIRITerm("urn:A")),
			})
			Expect(err).NotTo(HaveOccurred())

			m := newMaterializer(st, ont, materialize.StrategyOnDemand)
			report, err := m.Materialize(context.Background(), nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(report.AddedCount).To(Equal(0))

			stats, err := st.Statistics()
			Expect(err).NotTo(HaveOccurred())
			Expect(stats.GraphSizes[rdf.GraphInferred]).To(Equal(0))
		})

		It("OnDemand still answers queries with entailments, computed at query time (Scenario A)", func() {
			ont := owl.NewOntology()
			ont.LoadAxioms([]rdf.Triple{
				mtr(rdf.NewIRITerm("urn:Event"), rdf.NewIRITerm(rdf.RDFSSubClassOf), rdf.NewIRITerm("urn:Thing")),
			})
			_, err := st.InstallTriples(rdf.GraphData, []rdf.Triple{
				mtr(rdf.NewIRITerm("urn:e1"), rdf.NewIRITerm(rdf.RDFType), rdf.NewIRITerm("urn:Event")),
			})
			Expect(err).NotTo(HaveOccurred())

			m := newMaterializer(st, ont, materialize.StrategyOnDemand)

			ok, err := m.QueryAsk(context.Background(), "ASK { <urn:e1> <"+rdf.RDFType+"> <urn:Thing> }")
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeTrue())

			rows, err := m.QuerySelect(context.Background(), "SELECT ?t WHERE { <urn:e1> <"+rdf.RDFType+"> ?t }")
			Expect(err).NotTo(HaveOccurred())
			Expect(rows).To(HaveLen(2))

			stats, err := st.Statistics()
			Expect(err).NotTo(HaveOccurred())
			Expect(stats.GraphSizes[rdf.GraphInferred]).To(Equal(0))
		})

		It("Incremental produces the same entailments as Full for the same data (Scenario E)", func() {
			triples := []rdf.Triple{
				mtr(rdf.NewIRITerm("urn:A"), rdf.NewIRITerm(rdf.RDFSSubClassOf), rdf.NewIRITerm("urn:B")),
				mtr(rdf.NewIRITerm("urn:i1"), rdf.NewIRITerm(rdf.RDFType), rdf.NewIRITerm("urn:A")),
			}

			stFull := store.OpenMemory()
			defer stFull.Close()
			ontFull := owl.NewOntology()
			ontFull.LoadAxioms(triples[:1])
			_, err := stFull.InstallTriples(rdf.GraphData, triples[1:])
			Expect(err).NotTo(HaveOccurred())
			mFull := newMaterializer(stFull, ontFull, materialize.StrategyFull)
			_, err = mFull.Materialize(context.Background(), nil)
			Expect(err).NotTo(HaveOccurred())
			fullQuads, err := stFull.AllQuads()
			Expect(err).NotTo(HaveOccurred())

			stInc := store.OpenMemory()
			defer stInc.Close()
			ontInc := owl.NewOntology()
			ontInc.LoadAxioms(triples[:1])
			_, err = stInc.InstallTriples(rdf.GraphData, triples[1:])
			Expect(err).NotTo(HaveOccurred())
			mInc := newMaterializer(stInc, ontInc, materialize.StrategyIncremental)
			_, err = mInc.Materialize(context.Background(), triples[1:])
			Expect(err).NotTo(HaveOccurred())
			incQuads, err := stInc.AllQuads()
			Expect(err).NotTo(HaveOccurred())

			Expect(incQuads).To(HaveLen(len(fullQuads)))
		})
	})

	Describe("cache reuse (Scenario D)", func() {
		It("reports a cache hit on re-materializing the same single triple", func() {
			ont := owl.NewOntology()
			ont.LoadAxioms([]rdf.Triple{
				mtr(rdf.NewIRITerm("urn:A"), rdf.NewIRITerm(rdf.RDFSSubClassOf), rdf.NewIRITerm("urn:B")),
			})
			triple := mtr(rdf.NewIRITerm("urn:i1"), rdf.NewIRITerm(rdf.RDFType), rdf.NewIRITerm("urn:A"))
			_, err := st.InstallTriples(rdf.GraphData, []rdf.Triple{triple})
			Expect(err).NotTo(HaveOccurred())

			m := newMaterializer(st, ont, materialize.StrategyIncremental)
			r1, err := m.Materialize(context.Background(), []rdf.Triple{triple})
			Expect(err).NotTo(HaveOccurred())
			Expect(r1.CacheHit).To(BeFalse())

			r2, err := m.Materialize(context.Background(), []rdf.Triple{triple})
			Expect(err).NotTo(HaveOccurred())
			Expect(r2.CacheHit).To(BeTrue())
		})
	})

	Describe("State", func() {
		It("returns to Idle after a completed cycle", func() {
			ont := owl.NewOntology()
			m := newMaterializer(st, ont, materialize.StrategyFull)
			_, err := m.Materialize(context.Background(), nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(m.State()).To(Equal(materialize.StateIdle))
		})
	})
})

var _ = Describe("InferenceCache", func() {
	It("misses then hits on the triple-keyed variant", func() {
		c, err := materialize.NewInferenceCache(100, time.Minute)
		Expect(err).NotTo(HaveOccurred())
		t := mtr(rdf.NewIRITerm("urn:a"), rdf.NewIRITerm("urn:p"), rdf.NewIRITerm("urn:b"))

		_, ok := c.LookupTriple(t)
		Expect(ok).To(BeFalse())

		c.StoreTriple(t, []rdf.Triple{t})
		derived, ok := c.LookupTriple(t)
		Expect(ok).To(BeTrue())
		Expect(derived).To(HaveLen(1))

		hits, misses := c.Stats()
		Expect(hits).To(Equal(1))
		Expect(misses).To(Equal(1))
	})

	It("invalidates a triple-keyed entry on InvalidateTriple", func() {
		c, err := materialize.NewInferenceCache(100, time.Minute)
		Expect(err).NotTo(HaveOccurred())
		t := mtr(rdf.NewIRITerm("urn:a"), rdf.NewIRITerm("urn:p"), rdf.NewIRITerm("urn:b"))
		c.StoreTriple(t, []rdf.Triple{t})

		c.InvalidateTriple(t)
		_, ok := c.LookupTriple(t)
		Expect(ok).To(BeFalse())
	})

	It("purges every rule-keyed entry on InvalidateOntologyChange, leaving triple-keyed entries intact", func() {
		c, err := materialize.NewInferenceCache(100, time.Minute)
		Expect(err).NotTo(HaveOccurred())
		t := mtr(rdf.NewIRITerm("urn:a"), rdf.NewIRITerm("urn:p"), rdf.NewIRITerm("urn:b"))
		c.StoreTriple(t, []rdf.Triple{t})
		c.StoreRule("rule:r1", []rdf.Triple{t})

		c.InvalidateOntologyChange()

		_, ok := c.LookupRule("rule:r1")
		Expect(ok).To(BeFalse())
		_, ok = c.LookupTriple(t)
		Expect(ok).To(BeTrue())
	})
})
