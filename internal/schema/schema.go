// Package schema provides the message-shape validation collaborator
// the controller consults before acting on an inbound detector/sensor
// message. Full JSON-schema validation is out of scope; Validator is a
// thin interface with a pass-through default so the rest of the
// ingest path can be exercised without a real schema engine.
package schema

// Validator checks a raw payload against a named schema ("detector",
// "singleton", ...).
type Validator interface {
	Validate(schemaName string, payload []byte) error
}

// NoOp accepts every payload, the default used until a real schema
// document is wired in.
type NoOp struct{}

func (NoOp) Validate(string, []byte) error { return nil }
