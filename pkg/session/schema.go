package session

import (
	"errors"
	"fmt"
	"sync"

	"github.com/invopop/jsonschema"
	"github.com/xeipuuv/gojsonschema"
)

// ErrInvalidDocument marks a persisted document that does not conform to the
// AnalysisSession schema.
var ErrInvalidDocument = errors.New("session document does not match schema")

var (
	schemaOnce   sync.Once
	schemaLoader gojsonschema.JSONLoader
	schemaErr    error
)

// JSONSchema overrides reflection for MetricFrame: its wire form is the
// compact array [intensity, voice, voice, ...], not the struct shape.
func (MetricFrame) JSONSchema() *jsonschema.Schema {
	var one uint64 = 1

	return &jsonschema.Schema{
		Type:        "array",
		MinItems:    &one,
		Description: "master intensity followed by [index, gain, detune] voice tuples",
	}
}

// ValidateDocument checks a raw persisted document against the JSON Schema
// reflected from the AnalysisSession type. Used as a pre-gate before the
// merger's compatibility checks, so structurally corrupt files degrade to
// "no prior session" instead of a decode panic downstream.
func ValidateDocument(data []byte) error {
	schemaOnce.Do(func() {
		reflector := &jsonschema.Reflector{}

		schema := reflector.Reflect(&AnalysisSession{})
		// Pin to draft-07: the validator does not understand 2020-12.
		schema.Version = "https://json-schema.org/draft-07/schema#"

		raw, err := schema.MarshalJSON()
		if err != nil {
			schemaErr = fmt.Errorf("reflect session schema: %w", err)

			return
		}

		schemaLoader = gojsonschema.NewBytesLoader(raw)
	})

	if schemaErr != nil {
		return schemaErr
	}

	result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("validate session document: %w", err)
	}

	if !result.Valid() {
		return fmt.Errorf("%w: %s", ErrInvalidDocument, result.Errors()[0])
	}

	return nil
}
