package epcis

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/kahefi/epcis-graph/materialize"
	"github.com/kahefi/epcis-graph/owl"
	"github.com/kahefi/epcis-graph/rdf"
	"github.com/kahefi/epcis-graph/store"
)

// ProcessingResult reports the outcome of translating and installing a
// single event from a batch.
type ProcessingResult struct {
	EventID          string
	Success          bool
	ProcessingTimeMs int64
	Error            string
	TriplesGenerated int
	InferencesMade   int
}

// Statistics accumulates running totals across every batch a Pipeline has
// processed (spec §4.4 "Statistics").
type Statistics struct {
	TotalEventsProcessed   int
	SuccessfulEvents       int
	FailedEvents           int
	ValidationErrors       int
	ProcessingErrors       int
	AverageProcessingTimeMs float64
	LastProcessedTime      time.Time
}

// Pipeline validates, translates and installs EPCIS events, triggering
// materialization after every event so inferred types are visible to the
// next event in the same batch.
type Pipeline struct {
	mu sync.Mutex

	st       *store.Store
	mat      *materialize.Materializer
	ontology *owl.Ontology
	now      func() time.Time

	stats Statistics
}

// NewPipeline creates a Pipeline writing events to st's urn:epcis:data graph,
// validated against ontology and materialized through mat.
func NewPipeline(st *store.Store, mat *materialize.Materializer, ontology *owl.Ontology) *Pipeline {
	return &Pipeline{st: st, mat: mat, ontology: ontology, now: time.Now}
}

// ProcessBatch validates, translates and installs every event in order. A
// per-event validation failure is recorded in that event's result and does
// not prevent the remaining events in the batch from being processed (§4.4
// "Batch processing", §7 "validation errors ... never abort a batch").
func (p *Pipeline) ProcessBatch(ctx context.Context, events []EventInput) []ProcessingResult {
	results := make([]ProcessingResult, len(events))

	for i, in := range events {
		start := time.Now()
		result := ProcessingResult{EventID: in.EventID}

		parsed, validation := ValidateEvent(in, p.ontology, p.now())
		if validation.HasErrors() {
			result.Error = validation.AsError().Error()
			p.recordOutcome(false, true, time.Since(start))
			results[i] = finish(result, start)
			continue
		}

		triples := TranslateEvent(parsed)
		result.TriplesGenerated = len(triples)

		if _, err := p.st.InstallTriples(rdf.GraphData, triples); err != nil {
			result.Error = err.Error()
			p.recordOutcome(false, false, time.Since(start))
			results[i] = finish(result, start)
			continue
		}

		if p.mat != nil {
			report, err := p.mat.Materialize(ctx, triples)
			if err != nil {
				log.Warn().Err(err).Str("event_id", in.EventID).Msg("materialization failed after event install")
			} else {
				result.InferencesMade = report.AddedCount
			}
		}

		result.Success = true
		p.recordOutcome(true, false, time.Since(start))
		results[i] = finish(result, start)
	}

	return results
}

func finish(r ProcessingResult, start time.Time) ProcessingResult {
	r.ProcessingTimeMs = time.Since(start).Milliseconds()
	return r
}

func (p *Pipeline) recordOutcome(success, validationError bool, elapsed time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.stats.TotalEventsProcessed++
	if success {
		p.stats.SuccessfulEvents++
	} else {
		p.stats.FailedEvents++
		if validationError {
			p.stats.ValidationErrors++
		} else {
			p.stats.ProcessingErrors++
		}
	}

	n := float64(p.stats.TotalEventsProcessed)
	elapsedMs := float64(elapsed.Milliseconds())
	p.stats.AverageProcessingTimeMs += (elapsedMs - p.stats.AverageProcessingTimeMs) / n
	p.stats.LastProcessedTime = p.now()
}

// Statistics returns a snapshot of the pipeline's running totals.
func (p *Pipeline) Statistics() Statistics {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stats
}
