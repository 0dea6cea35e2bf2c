// Package epcis validates EPCIS events, translates them into triples and
// installs them through the store and materializer (spec §4.4 EventPipeline).
package epcis

import "time"

// EventInput is the wire shape of an event as submitted to the pipeline:
// every time field is a raw string so structural validation can report a
// located, specific complaint about unparsable input rather than failing at
// the JSON/struct boundary.
type EventInput struct {
	EventID     string
	EventType   string
	EventTime   string
	RecordTime  string
	Action      string
	EpcList     []string
	BizStep     string
	Disposition string
	BizLocation string
}

// AllowedEventTypes are the event_type values structural validation accepts.
var AllowedEventTypes = map[string]bool{
	"ObjectEvent":         true,
	"AggregationEvent":    true,
	"QuantityEvent":       true,
	"TransactionEvent":    true,
	"TransformationEvent": true,
}

// AllowedActions are the action values structural validation accepts.
var AllowedActions = map[string]bool{
	"ADD":     true,
	"OBSERVE": true,
	"DELETE":  true,
}

// ParsedEvent is an EventInput that has passed structural validation: its
// timestamps are parsed and its shape is known-good, though semantic and
// business warnings may still apply.
type ParsedEvent struct {
	EventID     string
	EventType   string
	EventTime   time.Time
	RecordTime  time.Time
	Action      string
	EpcList     []string
	BizStep     string
	Disposition string
	BizLocation string
}
