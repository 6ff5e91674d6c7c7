// Package push delivers host lifecycle events to configured HTTP targets
// with per-target filtering and bounded exponential-backoff retry.
package push

import "encoding/json"

// Event is one host lifecycle event. Payload is the raw record as received
// from the host and is forwarded to targets byte-for-byte.
type Event struct {
	Type    string
	Payload json.RawMessage
}

// ParseEvent extracts the event type from a raw host record. The record is
// kept verbatim as the delivery payload; only "type" is inspected.
func ParseEvent(raw json.RawMessage) (Event, error) {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(raw, &head); err != nil {
		return Event{}, err
	}
	return Event{Type: head.Type, Payload: raw}, nil
}
