package epcis_test

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/kahefi/epcis-graph/epcis"
	"github.com/kahefi/epcis-graph/materialize"
	"github.com/kahefi/epcis-graph/owl"
	"github.com/kahefi/epcis-graph/store"
)

func baseEvent() epcis.EventInput {
	return epcis.EventInput{
		EventID:    "evt-1",
		EventType:  "ObjectEvent",
		EventTime:  "2026-07-01T10:00:00Z",
		RecordTime: "2026-07-01T10:05:00Z",
		Action:     "OBSERVE",
		EpcList:    []string{"urn:epc:id:sgtin:0614141.107346.2017"},
	}
}

var fixedNow = time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

var _ = Describe("ValidateEvent", func() {
	var ont *owl.Ontology

	BeforeEach(func() {
		ont = owl.NewOntology()
	})

	Context("structural layer", func() {
		It("accepts a well-formed event (Scenario A)", func() {
			parsed, result := epcis.ValidateEvent(baseEvent(), ont, fixedNow)
			Expect(result.HasErrors()).To(BeFalse())
			Expect(parsed).NotTo(BeNil())
			Expect(parsed.EventID).To(Equal("evt-1"))
		})

		It("rejects an empty event ID", func() {
			in := baseEvent()
			in.EventID = ""
			_, result := epcis.ValidateEvent(in, ont, fixedNow)
			Expect(result.HasErrors()).To(BeTrue())
		})

		It("rejects an unrecognized event type", func() {
			in := baseEvent()
			in.EventType = "BogusEvent"
			_, result := epcis.ValidateEvent(in, ont, fixedNow)
			Expect(result.HasErrors()).To(BeTrue())
		})

		It("rejects an empty EPC list", func() {
			in := baseEvent()
			in.EpcList = nil
			_, result := epcis.ValidateEvent(in, ont, fixedNow)
			Expect(result.HasErrors()).To(BeTrue())
			Expect(result.AsError().Error()).To(ContainSubstring("EPC list cannot be empty"))
		})

		It("warns, but does not error, on an EPC that doesn't match the urn:epc:id: form", func() {
			in := baseEvent()
			in.EpcList = []string{"not-a-valid-epc"}
			parsed, result := epcis.ValidateEvent(in, ont, fixedNow)
			Expect(result.HasErrors()).To(BeFalse())
			Expect(parsed).NotTo(BeNil())
			Expect(result.Warnings).NotTo(BeEmpty())
		})

		It("rejects an unparsable event_time", func() {
			in := baseEvent()
			in.EventTime = "not-a-timestamp"
			_, result := epcis.ValidateEvent(in, ont, fixedNow)
			Expect(result.HasErrors()).To(BeTrue())
		})
	})

	Context("semantic layer", func() {
		It("warns when biz_step is not a declared CBV individual", func() {
			in := baseEvent()
			in.BizStep = "shipping"
			_, result := epcis.ValidateEvent(in, ont, fixedNow)
			Expect(result.HasErrors()).To(BeFalse())
			Expect(result.Warnings).NotTo(BeEmpty())
		})

		It("does not warn when biz_step is a declared CBV individual", func() {
			ont.Individuals["urn:epcglobal:cbv:shipping"] = &owl.Individual{URI: "urn:epcglobal:cbv:shipping"}
			in := baseEvent()
			in.BizStep = "shipping"
			_, result := epcis.ValidateEvent(in, ont, fixedNow)
			Expect(result.Warnings).To(BeEmpty())
		})

		It("warns when biz_location does not use the sgln form", func() {
			in := baseEvent()
			in.BizLocation = "urn:epc:id:sscc:not-sgln"
			_, result := epcis.ValidateEvent(in, ont, fixedNow)
			Expect(result.Warnings).NotTo(BeEmpty())
		})
	})

	Context("business layer", func() {
		It("errors when record_time precedes event_time (Scenario B)", func() {
			in := baseEvent()
			in.EventTime = "2026-07-01T10:05:00Z"
			in.RecordTime = "2026-07-01T10:00:00Z"
			_, result := epcis.ValidateEvent(in, ont, fixedNow)
			Expect(result.HasErrors()).To(BeTrue())
			Expect(result.AsError().Error()).To(ContainSubstring("Record time cannot be before event time"))
		})

		It("warns when event_time is in the future", func() {
			in := baseEvent()
			in.EventTime = "2027-01-01T00:00:00Z"
			in.RecordTime = "2027-01-01T00:05:00Z"
			_, result := epcis.ValidateEvent(in, ont, fixedNow)
			Expect(result.HasErrors()).To(BeFalse())
			Expect(result.Warnings).NotTo(BeEmpty())
		})

		It("warns on a DELETE action with no biz_step", func() {
			in := baseEvent()
			in.Action = "DELETE"
			_, result := epcis.ValidateEvent(in, ont, fixedNow)
			Expect(result.Warnings).NotTo(BeEmpty())
		})

		It("warns on a commissioning event without active disposition", func() {
			in := baseEvent()
			in.BizStep = "commissioning"
			in.Disposition = "inactive"
			_, result := epcis.ValidateEvent(in, ont, fixedNow)
			Expect(result.Warnings).NotTo(BeEmpty())
		})
	})
})

var _ = Describe("TranslateEvent", func() {
	It("generates the 5 mandatory triples plus one per EPC", func() {
		in := baseEvent()
		in.EpcList = []string{"urn:epc:id:sgtin:1", "urn:epc:id:sgtin:2", "urn:epc:id:sgtin:3"}
		parsed, result := epcis.ValidateEvent(in, owl.NewOntology(), fixedNow)
		Expect(result.HasErrors()).To(BeFalse())

		triples := epcis.TranslateEvent(parsed)
		Expect(triples).To(HaveLen(5 + len(in.EpcList)))
	})

	It("adds optional triples for biz_step, disposition and biz_location when present", func() {
		in := baseEvent()
		in.BizStep = "shipping"
		in.Disposition = "in_transit"
		in.BizLocation = "urn:epc:id:sgln:0614141.00001.0"
		parsed, result := epcis.ValidateEvent(in, owl.NewOntology(), fixedNow)
		Expect(result.HasErrors()).To(BeFalse())

		triples := epcis.TranslateEvent(parsed)
		Expect(triples).To(HaveLen(5 + len(in.EpcList) + 3))
	})
})

var _ = Describe("Pipeline", func() {
	var (
		st  *store.Store
		mat *materialize.Materializer
		p   *epcis.Pipeline
	)

	BeforeEach(func() {
		st = store.OpenMemory()
		ont := owl.NewOntology()
		var err error
		mat, err = materialize.New(st, ont, 100, time.Minute, materialize.StrategyIncremental, 1000, true)
		Expect(err).NotTo(HaveOccurred())
		p = epcis.NewPipeline(st, mat, ont)
	})

	AfterEach(func() {
		Expect(st.Close()).To(Succeed())
	})

	It("processes a batch of valid events successfully", func() {
		results := p.ProcessBatch(context.Background(), []epcis.EventInput{baseEvent()})
		Expect(results).To(HaveLen(1))
		Expect(results[0].Success).To(BeTrue())
		Expect(results[0].TriplesGenerated).To(BeNumerically(">=", 5))
	})

	It("isolates a failing event: one invalid event does not abort the rest of the batch", func() {
		bad := baseEvent()
		bad.EventID = ""
		good := baseEvent()
		good.EventID = "evt-2"

		results := p.ProcessBatch(context.Background(), []epcis.EventInput{bad, good})
		Expect(results).To(HaveLen(2))
		Expect(results[0].Success).To(BeFalse())
		Expect(results[0].Error).NotTo(BeEmpty())
		Expect(results[1].Success).To(BeTrue())
	})

	It("accumulates running statistics across batches", func() {
		bad := baseEvent()
		bad.EventID = ""
		good := baseEvent()
		good.EventID = "evt-3"

		_ = p.ProcessBatch(context.Background(), []epcis.EventInput{bad, good})
		stats := p.Statistics()
		Expect(stats.TotalEventsProcessed).To(Equal(2))
		Expect(stats.SuccessfulEvents).To(Equal(1))
		Expect(stats.FailedEvents).To(Equal(1))
		Expect(stats.ValidationErrors).To(Equal(1))
	})
})
