package epcis

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/kahefi/epcis-graph/errs"
	"github.com/kahefi/epcis-graph/owl"
	"github.com/kahefi/epcis-graph/rdf"
)

var epcPattern = regexp.MustCompile(`^urn:epc:id:`)

// ValidateEvent runs the three validation layers (§4.4) in order. The
// structural layer accumulates every failure and warning rather than
// stopping at the first problem; the semantic and business layers run only
// when the structural layer reported no error, so an event with structural
// errors comes back with the structural complaints alone. now is injected so business-layer "event_time in the future"
// checks are deterministic under test.
func ValidateEvent(in EventInput, ont *owl.Ontology, now time.Time) (*ParsedEvent, *errs.ValidationResult) {
	result := errs.NewValidationResult()

	if in.EventID == "" {
		result.AddError("event ID cannot be empty")
	}
	if !AllowedEventTypes[in.EventType] {
		result.AddError("invalid event type: %q", in.EventType)
	}
	if !AllowedActions[in.Action] {
		result.AddError("invalid event action: %q", in.Action)
	}
	if len(in.EpcList) == 0 {
		result.AddError("EPC list cannot be empty")
	}
	for _, epc := range in.EpcList {
		if !epcPattern.MatchString(epc) {
			result.AddWarning("EPC %q does not match urn:epc:id:... form", epc)
		}
	}

	eventTime, err := time.Parse(time.RFC3339, in.EventTime)
	if err != nil {
		result.AddError("event_time is not a valid RFC 3339 timestamp: %v", err)
	}
	recordTime, err := time.Parse(time.RFC3339, in.RecordTime)
	if err != nil {
		result.AddError("record_time is not a valid RFC 3339 timestamp: %v", err)
	}

	if result.HasErrors() {
		return nil, result
	}

	validateSemantic(in, ont, result)
	validateBusiness(in, eventTime, recordTime, now, result)

	if result.HasErrors() {
		return nil, result
	}

	return &ParsedEvent{
		EventID:     in.EventID,
		EventType:   in.EventType,
		EventTime:   eventTime,
		RecordTime:  recordTime,
		Action:      in.Action,
		EpcList:     in.EpcList,
		BizStep:     in.BizStep,
		Disposition: in.Disposition,
		BizLocation: in.BizLocation,
	}, result
}

func validateSemantic(in EventInput, ont *owl.Ontology, result *errs.ValidationResult) {
	if in.BizStep != "" && !isDeclaredIndividual(ont, cbvIRI(in.BizStep)) {
		result.AddWarning("biz_step %q is not a declared CBV individual", in.BizStep)
	}
	if in.Disposition != "" && !isDeclaredIndividual(ont, cbvIRI(in.Disposition)) {
		result.AddWarning("disposition %q is not a declared CBV individual", in.Disposition)
	}
	if in.BizLocation != "" && !strings.HasPrefix(in.BizLocation, "urn:epc:id:sgln:") {
		result.AddWarning("biz_location %q does not start with urn:epc:id:sgln:", in.BizLocation)
	}
}

func isDeclaredIndividual(ont *owl.Ontology, uri string) bool {
	if ont == nil {
		return false
	}
	_, ok := ont.Individuals[uri]
	return ok
}

func validateBusiness(in EventInput, eventTime, recordTime, now time.Time, result *errs.ValidationResult) {
	if recordTime.Before(eventTime) {
		result.AddError("Record time cannot be before event time")
	}
	if eventTime.After(now) {
		result.AddWarning("event_time %s is in the future", eventTime.Format(time.RFC3339))
	}
	if in.Action == "DELETE" && in.BizStep == "" {
		result.AddWarning("DELETE action without biz_step")
	}
	if strings.EqualFold(in.BizStep, "commissioning") && in.Disposition != "" && in.Disposition != "active" {
		result.AddWarning("commissioning event with disposition %q, expected active", in.Disposition)
	}
}

func cbvIRI(step string) string {
	return fmt.Sprintf(rdf.CBVIRIFmt, step)
}
