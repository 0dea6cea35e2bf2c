package owl_test

import (
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/kahefi/epcis-graph/owl"
	"github.com/kahefi/epcis-graph/rdf"
)

func trp(s, p, o rdf.Term) rdf.Triple {
	t, err := rdf.NewTriple(s, p, o)
	Expect(err).NotTo(HaveOccurred())
	return t
}

var _ = Describe("LoadAxioms", func() {
	var ont *owl.Ontology

	BeforeEach(func() {
		ont = owl.NewOntology()
	})

	Context("rule 1: class declaration", func() {
		It("declares a Class for (c, rdf:type, owl:Class)", func() {
			ont.LoadAxioms([]rdf.Triple{
				trp(rdf.NewIRITerm("urn:A"), rdf.NewIRITerm(rdf.RDFType), rdf.NewIRITerm(rdf.OWLClass)),
			})
			Expect(ont.Classes).To(HaveKey("urn:A"))
		})
	})

	Context("rule 3: subClassOf", func() {
		It("records SubClassOf and declares both classes", func() {
			ont.LoadAxioms([]rdf.Triple{
				trp(rdf.NewIRITerm("urn:A"), rdf.NewIRITerm(rdf.RDFSSubClassOf), rdf.NewIRITerm("urn:B")),
			})
			Expect(ont.Classes["urn:A"].SubClassOf).To(ContainElement("urn:B"))
			Expect(ont.Classes).To(HaveKey("urn:B"))
		})
	})

	Context("rule 6: class assertion", func() {
		It("declares an Individual with the asserted type, skipping meta-classes", func() {
			ont.LoadAxioms([]rdf.Triple{
				trp(rdf.NewIRITerm("urn:i1"), rdf.NewIRITerm(rdf.RDFType), rdf.NewIRITerm("urn:A")),
				trp(rdf.NewIRITerm("urn:p1"), rdf.NewIRITerm(rdf.RDFType), rdf.NewIRITerm(rdf.OWLObjectProperty)),
			})
			Expect(ont.Individuals["urn:i1"].Types).To(ContainElement("urn:A"))
			Expect(ont.Individuals).NotTo(HaveKey("urn:p1"))
		})
	})

	Context("rule 7: unmatched triples", func() {
		It("keeps the triple as-is in the ABox", func() {
			t := trp(rdf.NewIRITerm("urn:s"), rdf.NewIRITerm("urn:weird"), rdf.NewIRITerm("urn:o"))
			ont.LoadAxioms([]rdf.Triple{t})
			Expect(ont.ABox).To(ContainElement(t))
		})
	})

	Context("property chain axioms via rdf:List", func() {
		It("resolves the list spine into an ordered chain", func() {
			ont.LoadAxioms([]rdf.Triple{
				trp(rdf.NewIRITerm("urn:p"), rdf.NewIRITerm(rdf.OWLPropertyChainAxiom), rdf.NewBlankNodeTerm("l1")),
				trp(rdf.NewBlankNodeTerm("l1"), rdf.NewIRITerm(rdf.RDFFirst), rdf.NewIRITerm("urn:p1")),
				trp(rdf.NewBlankNodeTerm("l1"), rdf.NewIRITerm(rdf.RDFRest), rdf.NewBlankNodeTerm("l2")),
				trp(rdf.NewBlankNodeTerm("l2"), rdf.NewIRITerm(rdf.RDFFirst), rdf.NewIRITerm("urn:p2")),
				trp(rdf.NewBlankNodeTerm("l2"), rdf.NewIRITerm(rdf.RDFRest), rdf.NewIRITerm(rdf.RDFNil)),
			})
			Expect(ont.ObjectProps["urn:p"].PropertyChain).To(Equal([][]string{{"urn:p1", "urn:p2"}}))
		})
	})
})
